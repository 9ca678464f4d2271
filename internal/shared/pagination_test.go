package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeClampsBounds(t *testing.T) {
	f := ListFilters{Limit: -1, Offset: -10}
	f.Normalize()
	require.Equal(t, DefaultLimit, f.Limit)
	require.Equal(t, 0, f.Offset)

	f = ListFilters{Limit: MaxLimit + 1}
	f.Normalize()
	require.Equal(t, MaxLimit, f.Limit)
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("limit", "25")
	values.Set("offset", "50")
	values.Set("search", "acme")
	values.Set("active", "true")

	f := FiltersFromQuery(values)
	require.Equal(t, 25, f.Limit)
	require.Equal(t, 50, f.Offset)
	require.Equal(t, "acme", f.Search)
	require.NotNil(t, f.Active)
	require.True(t, *f.Active)

	f = FiltersFromQuery(url.Values{})
	require.Equal(t, DefaultLimit, f.Limit)
	require.Nil(t, f.Active)
}
