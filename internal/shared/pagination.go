package shared

import (
	"net/url"
	"strconv"
)

const (
	// DefaultLimit bounds list responses when the caller omits a limit.
	DefaultLimit = 50
	// MaxLimit is the hard cap for list responses.
	MaxLimit = 500
)

// ListFilters represents standard list filters.
type ListFilters struct {
	Limit  int
	Offset int
	Search string
	Active *bool
}

// Normalize clamps pagination values to sane bounds.
func (f *ListFilters) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// FiltersFromQuery builds normalized list filters from request query
// parameters (limit, offset, search, active).
func FiltersFromQuery(values url.Values) ListFilters {
	filters := ListFilters{Search: values.Get("search")}
	filters.Limit, _ = strconv.Atoi(values.Get("limit"))
	filters.Offset, _ = strconv.Atoi(values.Get("offset"))
	if v := values.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err == nil {
			filters.Active = &active
		}
	}
	filters.Normalize()
	return filters
}
