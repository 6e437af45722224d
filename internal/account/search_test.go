package account

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchMeta() *SearchMeta {
	return &SearchMeta{
		Fields: map[string]SearchField{
			"displayName": {Filters: []string{"match", "equals", "regex"}},
			"credentials": {Filters: []string{"match", "equals"}},
			"status":      {Filters: []string{"equals"}, Enum: []string{"active", "blocked"}},
		},
		Limit: LimitMeta{Default: 20, Minimum: 1, Maximum: 100},
		Sort:  []string{"id", "displayName"},
	}
}

func TestParseQueryDefaults(t *testing.T) {
	q := ParseQuery(searchMeta(), url.Values{})

	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, "asc", q.Order)
	assert.Empty(t, q.Filter)
}

func TestParseQueryFilters(t *testing.T) {
	q := ParseQuery(searchMeta(), url.Values{
		"displayName": {"equals:Alice"},
		"credentials": {"alice|bob"},
	})

	require.Len(t, q.Filter, 2)
	assert.Equal(t, Filter{Field: "credentials", Filter: "match", Values: []string{"alice", "bob"}}, q.Filter[0])
	assert.Equal(t, Filter{Field: "displayName", Filter: "equals", Values: []string{"Alice"}}, q.Filter[1])
}

func TestParseQueryUnknownFilterNameIsLiteral(t *testing.T) {
	// "nosuch:" is not an allowed filter so the whole value is treated as
	// a literal for the default filter
	q := ParseQuery(searchMeta(), url.Values{"displayName": {"nosuch:Alice"}})

	require.Len(t, q.Filter, 1)
	assert.Equal(t, "match", q.Filter[0].Filter)
	assert.Equal(t, []string{"nosuch:Alice"}, q.Filter[0].Values)
}

func TestParseQueryRegexNotSplit(t *testing.T) {
	q := ParseQuery(searchMeta(), url.Values{"displayName": {"regex:a|b"}})

	require.Len(t, q.Filter, 1)
	assert.Equal(t, []string{"a|b"}, q.Filter[0].Values)
}

func TestParseQueryEnumWhitelist(t *testing.T) {
	q := ParseQuery(searchMeta(), url.Values{"status": {"active|hacked"}})

	require.Len(t, q.Filter, 1)
	assert.Equal(t, []string{"active"}, q.Filter[0].Values)
}

func TestParseQueryPagingAndSort(t *testing.T) {
	q := ParseQuery(searchMeta(), url.Values{
		"offset": {"40"},
		"limit":  {"500"},
		"sort":   {"displayName"},
		"order":  {"descending"},
	})

	assert.Equal(t, 40, q.Offset)
	assert.Equal(t, 100, q.Limit) // clamped to the maximum
	assert.Equal(t, "displayName", q.Sort)
	assert.Equal(t, "dsc", q.Order)
}

func TestParseQueryRejectsUnknownSort(t *testing.T) {
	q := ParseQuery(searchMeta(), url.Values{"sort": {"password"}})
	assert.Empty(t, q.Sort)
}

func seedDirectory(t *testing.T) *MemoryDirectory {
	t.Helper()
	ctx := context.Background()
	d := NewMemoryDirectory()

	seed := []*Account{
		{ID: "a1", DisplayName: "Alice", Credentials: []Credential{{Type: "email", Value: "alice@example.com"}}},
		{ID: "a2", DisplayName: "Bob", Credentials: []Credential{{Type: "email", Value: "bob@example.com"}}},
		{ID: "a3", DisplayName: "Carol", Credentials: []Credential{{Type: "email", Value: "carol@other.org"}}},
	}
	for _, a := range seed {
		_, err := d.Create(ctx, a)
		require.NoError(t, err)
	}
	return d
}

func TestSearchMatch(t *testing.T) {
	d := seedDirectory(t)

	result, err := d.Search(context.Background(), &Query{
		Limit:  20,
		Filter: []Filter{{Field: "credentials", Filter: "match", Values: []string{"example.com"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestSearchEquals(t *testing.T) {
	d := seedDirectory(t)

	result, err := d.Search(context.Background(), &Query{
		Limit:  20,
		Filter: []Filter{{Field: "displayName", Filter: "equals", Values: []string{"Bob"}}},
	})
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "a2", result.Matches[0].ID)
}

func TestSearchRegex(t *testing.T) {
	d := seedDirectory(t)

	result, err := d.Search(context.Background(), &Query{
		Limit:  20,
		Filter: []Filter{{Field: "displayName", Filter: "regex", Values: []string{"^[AB]"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
}

func TestSearchSortAndPaging(t *testing.T) {
	d := seedDirectory(t)

	result, err := d.Search(context.Background(), &Query{
		Offset: 1,
		Limit:  1,
		Sort:   "displayName",
		Order:  "dsc",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Bob", result.Matches[0].DisplayName)
}

func TestSearchOffsetPastEnd(t *testing.T) {
	d := seedDirectory(t)

	result, err := d.Search(context.Background(), &Query{Offset: 10, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Empty(t, result.Matches)
}
