package groupager

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

// NoneGroupKey is the sentinel bucket key for rows whose group field is NULL.
const NoneGroupKey = "None"

// groupKey converts a raw group field value to its bucket key.
func groupKey(v any) string {
	if v == nil {
		return NoneGroupKey
	}

	return stringifyValue(v)
}

// rowID returns the row identifier used for de-duplication across buckets.
func rowID(row Row) string {
	return stringifyValue(row["id"])
}

func stringifyValue(v any) string {
	// Drivers may hand text columns back as []byte.
	switch vt := v.(type) {
	case string:
		return vt
	case []byte:
		return string(vt)
	default:
		return fmt.Sprint(vt)
	}
}

// groupPlain assigns every row to the single bucket matching its group field
// value. Buckets for all configured group keys are created up front so that
// groups without rows still appear in the response with their independent
// total. Rows with an unconfigured group value are discarded.
func (g *GroupingPaginator) groupPlain(rows []Row, totals map[string]int64) map[string]*GroupBucket {
	buckets := make(map[string]*GroupBucket, len(g.groupByFields))
	for _, key := range g.groupByFields {
		buckets[key] = &GroupBucket{
			Results:      make([]Row, 0),
			TotalResults: totals[key],
		}
	}

	for _, row := range rows {
		bucket, ok := buckets[groupKey(row[g.groupByField])]
		if ok {
			bucket.Results = append(bucket.Results, row)
		}
	}

	return buckets
}

// groupMulti assembles buckets for a many-valued group field. The window
// query yields one row per (row, association) pair, so the first pass
// collects the association set per row id and the second pass fans each row
// out into every associated bucket, de-duplicated by id within a bucket. A
// NULL association contributes no group membership. Only group keys actually
// present among the ranked rows get a bucket.
func (g *GroupingPaginator) groupMulti(rows []Row, totals map[string]int64) map[string]*GroupBucket {
	memberships := make(map[string][]string)
	for _, row := range rows {
		id := rowID(row)
		key := groupKey(row[g.groupByField])
		if !lo.Contains(memberships[id], key) {
			memberships[id] = append(memberships[id], key)
		}
	}

	buckets := make(map[string]*GroupBucket)
	for _, row := range rows {
		id := rowID(row)
		groupIDs := memberships[id]

		if g.groupAlias != "" {
			// A NULL association voids the alias list for the whole row.
			row[g.groupAlias] = lo.Ternary(lo.Contains(groupIDs, NoneGroupKey), []string{}, groupIDs)
		}

		for _, groupID := range groupIDs {
			if groupID == NoneGroupKey {
				continue
			}

			bucket, ok := buckets[groupID]
			if !ok {
				bucket = &GroupBucket{
					Results:      make([]Row, 0),
					TotalResults: totals[groupID],
				}
				buckets[groupID] = bucket
			}

			if !bucketContains(bucket, id) {
				bucket.Results = append(bucket.Results, row)
			}
		}
	}

	return buckets
}

func bucketContains(bucket *GroupBucket, id string) bool {
	return lo.ContainsBy(bucket.Results, func(existing Row) bool {
		return rowID(existing) == id
	})
}

// buildTotalMap folds the scanned (group_key, group_total) pairs into a totals
// map. A genuine count of zero is recorded as 1 - consumers of the response
// rely on this substitution, keep it until the API contract changes. A count
// value that fails to parse contributes 0 and never trips the substitution.
func buildTotalMap(counts []Row) map[string]int64 {
	totals := make(map[string]int64, len(counts))
	for _, count := range counts {
		total, ok := toInt64(count["group_total"])
		if ok && total == 0 {
			total = 1
		}

		totals[groupKey(count["group_key"])] += total
	}

	return totals
}

func toInt64(v any) (int64, bool) {
	switch vt := v.(type) {
	case int64:
		return vt, true
	case int:
		return int64(vt), true
	case int32:
		return int64(vt), true
	case uint64:
		return int64(vt), true
	case float64:
		return int64(vt), true
	case []byte:
		ret, err := strconv.ParseInt(string(vt), 10, 64)
		return ret, err == nil
	case string:
		ret, err := strconv.ParseInt(vt, 10, 64)
		return ret, err == nil
	default:
		return 0, false
	}
}
