package groupager

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_OrderBy_ToSQL(t *testing.T) {
	tests := []struct {
		name string
		in   OrderBy
		want string
	}{
		{"plain asc", OrderBy{Column: "id", Direction: DirectionASC}, "id ASC"},
		{"plain desc", OrderBy{Column: "name", Direction: DirectionDESC}, "name DESC"},
		{"nulls last desc", OrderBy{Column: "priority", Direction: DirectionDESC, NullsLast: true}, "priority IS NULL, priority DESC"},
		{"nulls last asc", OrderBy{Column: "priority", Direction: DirectionASC, NullsLast: true}, "priority IS NULL, priority ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.ToSQL(); got != tt.want {
				t.Errorf("%s: got %q want %q", tt.name, got, tt.want)
			}
		})
	}
}

func Test_Orderings_validate(t *testing.T) {
	tests := []struct {
		name string
		ord  Orderings
		ok   bool
	}{
		{"empty returns error", Orderings{}, false},
		{"invalid direction", Orderings{{Column: "id", Direction: "bad"}}, false},
		{"forbidden symbols", Orderings{{Column: "id; DROP TABLE users", Direction: DirectionASC}}, false},
		{"valid list", Orderings{{Column: "id", Direction: DirectionASC}}, true},
	}
	for _, tt := range tests {
		if err := tt.ord.validate(); (err == nil) != tt.ok {
			t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
		}
	}
}

func Test_ParseGroupOrder(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
		want Orderings
	}{
		{
			name: "empty degrades to created_at tiebreak",
			in:   "",
			ok:   true,
			want: Orderings{{Column: ColumnCreatedAt, Direction: DirectionDESC}},
		},
		{
			name: "ascending key",
			in:   "priority",
			ok:   true,
			want: Orderings{
				{Column: "priority", Direction: DirectionASC, NullsLast: true},
				{Column: ColumnCreatedAt, Direction: DirectionDESC},
			},
		},
		{
			name: "leading dash means descending",
			in:   "-priority",
			ok:   true,
			want: Orderings{
				{Column: "priority", Direction: DirectionDESC, NullsLast: true},
				{Column: ColumnCreatedAt, Direction: DirectionDESC},
			},
		},
		{
			name: "created_at key gets no duplicate tiebreak",
			in:   "-created_at",
			ok:   true,
			want: Orderings{
				{Column: ColumnCreatedAt, Direction: DirectionDESC, NullsLast: true},
			},
		},
		{
			name: "forbidden symbols rejected",
			in:   "-priority; DROP TABLE issues",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGroupOrder(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("%s: ok=%v err=%v", tt.name, tt.ok, err)
			}
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func Test_ParseSort(t *testing.T) {
	mapping := ColumnMapping{
		"id":   "t.id",
		"name": "t.name",
	}

	tests := []struct {
		name  string
		in    []string
		ok    bool
		first OrderBy
	}{
		{"invalid format", []string{"id"}, false, OrderBy{}},
		{"unknown alias", []string{"idx asc"}, false, OrderBy{}},
		{"valid asc", []string{"id asc"}, true, OrderBy{Column: "t.id", Direction: DirectionASC}},
		{"valid desc", []string{"name desc"}, true, OrderBy{Column: "t.name", Direction: DirectionDESC}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSort(tt.in, mapping)
			if (err == nil) != tt.ok {
				t.Errorf("%s: ok=%v err=%v", tt.name, tt.ok, err)
				return
			}
			if tt.ok {
				if len(got) == 0 || got[0] != tt.first {
					t.Errorf("%s: first=%v want %v", tt.name, got, tt.first)
				}
			}
		})
	}
}

func Test_closestAlias(t *testing.T) {
	aliases := []ColumnAlias{"id", "name", "created_at"}
	tests := []struct {
		name string
		in   ColumnAlias
		out  ColumnAlias
	}{
		{"closest to id", "idx", "id"},
		{"closest to name", "nme", "name"},
		{"closest to created_at", "createdat", "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := closestAlias(tt.in, aliases); got != tt.out {
				t.Errorf("%s: got %s want %s", tt.name, got, tt.out)
			}
		})
	}
}
