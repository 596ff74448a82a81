package groupager

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// rankColumn is the synthetic window column used to cap rows per group.
const rankColumn = "group_rank"

// GroupingPaginator produces the initial grouped page of a dataset: rows are
// ranked inside their group partition with ROW_NUMBER(), only the top rows of
// each group are retained, and per-group totals are computed by an
// independent aggregate query.
//
// A paginator instance is request-scoped and not meant to be reused.
type GroupingPaginator struct {
	queryset      *gorm.DB
	countQueryset *gorm.DB
	groupByField  string
	groupByFields []string
	orderBy       string
	sort          Orderings
	groupAlias    string
	countColumn   string
}

// NewGroupingPaginator builds a paginator over queryset, partitioned by
// groupByField. groupByFields enumerates the expected group keys; every one
// of them appears in the plain-mode response even when it has no rows.
// countQueryset must select the same logical rows as queryset and is used for
// totals only.
func NewGroupingPaginator(
	queryset *gorm.DB,
	groupByField string,
	groupByFields []string,
	countQueryset *gorm.DB,
) *GroupingPaginator {
	return &GroupingPaginator{
		queryset:      queryset,
		countQueryset: countQueryset,
		groupByField:  groupByField,
		groupByFields: groupByFields,
	}
}

// WithOrderBy sets the sort key for rows inside their partition: "column" for
// ascending, "-column" for descending. created_at DESC is always applied as
// the tiebreak.
func (g *GroupingPaginator) WithOrderBy(orderBy string) *GroupingPaginator {
	if g == nil {
		g = new(GroupingPaginator)
	}

	g.orderBy = orderBy

	return g
}

// WithSort appends explicit orderings for rows inside their partition, taking
// precedence over WithOrderBy. Order is preserved as if calling:
//
//	OrderBy(o1).ThenBy(o2).ThenBy(o3)...
//
// Use ParseSort to build orderings from external sort parameters. created_at
// DESC is still appended as the tiebreak unless the column is already listed.
func (g *GroupingPaginator) WithSort(orderBy ...OrderBy) *GroupingPaginator {
	if g == nil {
		g = new(GroupingPaginator)
	}

	for _, o := range orderBy {
		idx := slices.IndexFunc(g.sort, func(processed OrderBy) bool {
			return processed.Column == o.Column
		})

		// Remove previous occurrence (avoid duplication).
		if idx != -1 {
			g.sort = slices.Delete(g.sort, idx, idx+1)
		}

		g.sort = append(g.sort, o)
	}

	return g
}

// WithGroupAlias attaches the de-duplicated group-id list of each row under
// the given key in multi-grouper mode. A NULL association yields an empty
// list. Ignored in plain mode and when empty.
func (g *GroupingPaginator) WithGroupAlias(alias string) *GroupingPaginator {
	if g == nil {
		g = new(GroupingPaginator)
	}

	g.groupAlias = alias

	return g
}

// WithCountColumn overrides the column counted by the totals query. Defaults
// to "id"; qualify it (e.g. "issues.id") when the count queryset joins tables
// with clashing column names.
func (g *GroupingPaginator) WithCountColumn(column string) *GroupingPaginator {
	if g == nil {
		g = new(GroupingPaginator)
	}

	g.countColumn = column

	return g
}

// GetResult runs the window, totals and count queries and assembles the
// grouped response. limit is normalized to at most MaxGroupLimit rows per
// group. When isMultiGrouper is set, the group field is treated as a
// many-valued association and a row may appear in several buckets. onResults,
// if non-nil, transforms the retained rows before grouping.
//
// Query construction failures are reported as errors; database errors
// propagate unmodified.
func (g *GroupingPaginator) GetResult(limit int, isMultiGrouper bool, onResults OnResults) (*GroupedResult, error) {
	err := g.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot build grouped result: %w", err)
	}

	sort, err := g.windowOrderings()
	if err != nil {
		return nil, fmt.Errorf("cannot build grouped result: %w", err)
	}

	rows, err := g.queryRanked(sort, NormalizeGroupLimit(limit))
	if err != nil {
		return nil, err
	}

	if onResults != nil {
		rows = onResults(rows)
	}

	buckets, err := g.groupRows(rows, isMultiGrouper)
	if err != nil {
		return nil, err
	}

	var totalCount int64
	err = g.countQueryset.Session(&gorm.Session{}).Count(&totalCount).Error
	if err != nil {
		return nil, err
	}

	return &GroupedResult{
		Results:    buckets,
		TotalCount: totalCount,
	}, nil
}

// windowOrderings resolves the effective partition ordering: explicit
// WithSort orderings win over the WithOrderBy spec, and both end with the
// created_at DESC tiebreak.
func (g *GroupingPaginator) windowOrderings() (Orderings, error) {
	if len(g.sort) == 0 {
		return ParseGroupOrder(g.orderBy)
	}

	sort := slices.Clone(g.sort)
	if !slices.ContainsFunc(sort, func(o OrderBy) bool { return o.Column == ColumnCreatedAt }) {
		sort = append(sort, OrderBy{Column: ColumnCreatedAt, Direction: DirectionDESC})
	}

	err := sort.validate()
	if err != nil {
		return nil, err
	}

	return sort, nil
}

// queryRanked annotates every row with a ROW_NUMBER() rank inside its group
// partition and keeps only rows ranked below limit+1, i.e. the top limit rows
// per group. The outer ordering repeats the window ordering so buckets stay
// sorted after assembly.
func (g *GroupingPaginator) queryRanked(sort Orderings, limit int) ([]Row, error) {
	windowOrder := sort.ToSQL()

	ranked := g.queryset.Session(&gorm.Session{}).Select(fmt.Sprintf(
		"*, ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS %s",
		g.groupByField, windowOrder, rankColumn,
	))

	rows := make([]Row, 0)
	err := g.queryset.Session(&gorm.Session{NewDB: true}).
		Table("(?) AS ranked", ranked).
		Where(fmt.Sprintf("%s < ?", rankColumn), limit+1).
		Order(windowOrder).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		delete(row, rankColumn)
	}

	return rows, nil
}

func (g *GroupingPaginator) groupRows(rows []Row, isMultiGrouper bool) (map[string]*GroupBucket, error) {
	if isMultiGrouper {
		// No ranked rows means no buckets; skip the totals round trip.
		if len(rows) == 0 {
			return make(map[string]*GroupBucket), nil
		}

		totals, err := g.queryTotals()
		if err != nil {
			return nil, err
		}

		return g.groupMulti(rows, totals), nil
	}

	// Plain mode prefills a bucket per configured key, so totals are needed
	// even when the window returned nothing.
	totals, err := g.queryTotals()
	if err != nil {
		return nil, err
	}

	return g.groupPlain(rows, totals), nil
}

// queryTotals counts distinct rows per group key, independently of the
// windowed result set.
func (g *GroupingPaginator) queryTotals() (map[string]int64, error) {
	countColumn := lo.Ternary(g.countColumn == "", "id", g.countColumn)

	counts := make([]Row, 0)
	err := g.countQueryset.Session(&gorm.Session{}).
		Select(fmt.Sprintf("%s AS group_key, COUNT(DISTINCT %s) AS group_total", g.groupByField, countColumn)).
		Group(g.groupByField).
		Find(&counts).Error
	if err != nil {
		return nil, err
	}

	return buildTotalMap(counts), nil
}

func (g *GroupingPaginator) validate() error {
	if g == nil {
		return fmt.Errorf("grouping paginator is nil")
	}

	if g.queryset == nil || g.countQueryset == nil {
		return fmt.Errorf("queryset and count queryset are required")
	}

	if g.groupByField == "" {
		return fmt.Errorf("empty group by field name")
	}

	// Same injection guard as for ordering columns.
	if !lo.Every(_availableColumnNameSymbols, []rune(g.groupByField)) {
		return fmt.Errorf("group by field name contains forbidden symbols '%s'", g.groupByField)
	}

	if g.countColumn != "" && !lo.Every(_availableColumnNameSymbols, []rune(g.countColumn)) {
		return fmt.Errorf("count column name contains forbidden symbols '%s'", g.countColumn)
	}

	return nil
}
