package usage

import "strconv"

// DefaultRequestLimit is the per-account daily request limit assumed when
// no REQUEST_LIMIT setting is configured.
const DefaultRequestLimit int64 = 200000

// parseLimit interprets a configured limit value. Unset, malformed, and
// non-positive values all fall back to the default.
func parseLimit(raw string) int64 {
	if raw == "" {
		return DefaultRequestLimit
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return DefaultRequestLimit
	}
	return n
}
