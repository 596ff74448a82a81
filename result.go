package groupager

// Row is a single result row as scanned from the database: column name to
// value, always containing an "id" column. It is a type alias so gorm can
// scan query results straight into []Row.
type Row = map[string]any

// OnResults is an optional hook that transforms the retained row set after
// the window query and before bucket assembly.
type OnResults func([]Row) []Row

// GroupBucket holds the windowed rows of one group together with the total
// number of rows in that group, computed independently of the window.
type GroupBucket struct {
	// Results - rows of the group, capped by the requested limit.
	Results []Row `json:"results"`
	// TotalResults - distinct row count of the whole group.
	TotalResults int64 `json:"total_results"`
}

// GroupedResult is the response payload of GroupingPaginator.GetResult,
// intended for direct JSON serialization in API handlers.
type GroupedResult struct {
	// Results - buckets keyed by group key.
	Results map[string]*GroupBucket `json:"results"`
	// TotalCount - number of rows matched by the count queryset, across all
	// groups and ignoring the per-group limit.
	TotalCount int64 `json:"total_count"`
}
