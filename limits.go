package groupager

const (
	// MaxGroupLimit caps the number of rows returned per group.
	MaxGroupLimit = 50
	// DefaultGroupLimit is applied when the requested limit is not positive.
	DefaultGroupLimit = 50
)

func IsNormalizedLimitMax(limit int, maxLimit int) (int, bool) {
	if limit <= 0 {
		return DefaultGroupLimit, false
	} else if limit > maxLimit {
		return maxLimit, false
	}

	return limit, true
}

func NormalizeLimitMax(limit int, maxLimit int) int {
	ret, _ := IsNormalizedLimitMax(limit, maxLimit)
	return ret
}

func NormalizeGroupLimit(limit int) int {
	return NormalizeLimitMax(limit, MaxGroupLimit)
}
