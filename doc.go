package groupager

// Package groupager provides grouped pagination primitives for GORM.
//
// Overview
//
// groupager produces the initial grouped page of a dataset in a single round
// trip: rows are ranked inside their group partition with ROW_NUMBER(), only
// the top rows of each group are retained, and per-group totals are computed
// by an independent aggregate query.
//
// Key concepts
//   - GroupingPaginator: orchestrates the window query, the totals query and
//     bucket assembly.
//   - GroupBucket / GroupedResult: the response payload, one bucket per group
//     key plus the overall row count.
//   - Multi grouper: grouping over a many-valued association, where a single
//     row may appear in several buckets.
//
// See the examples directory for usage details.
