package account

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SearchField describes how one account field may be filtered.
type SearchField struct {
	// Filters lists the accepted filter names; the first one is the
	// default. Supported: "match", "equals", "regex".
	Filters []string

	// Enum, when set, restricts filter values to this whitelist.
	Enum []string

	// SearchField optionally redirects the filter to a different stored
	// field name.
	SearchField string
}

// LimitMeta bounds the page size.
type LimitMeta struct {
	Default int
	Minimum int
	Maximum int
}

// SearchMeta declares what a caller may ask of the search endpoint.
type SearchMeta struct {
	Fields map[string]SearchField
	Limit  LimitMeta
	Sort   []string
	Facets bool
}

// Filter is one parsed query predicate. Values are OR'd together.
type Filter struct {
	Field  string   `json:"field"`
	Filter string   `json:"filter"`
	Values []string `json:"value"`
}

// Query is a validated search request.
type Query struct {
	Offset       int      `json:"offset"`
	Limit        int      `json:"limit"`
	Filter       []Filter `json:"filter"`
	Sort         string   `json:"sort,omitempty"`
	Order        string   `json:"order"`
	Extra        []string `json:"extra,omitempty"`
	ReturnFacets bool     `json:"returnFacets"`
}

// SearchResult carries the matching page and the unpaged match count.
type SearchResult struct {
	Matches []*Account `json:"matches"`
	Total   int        `json:"total"`
}

var filterPrefix = regexp.MustCompile(`^[a-z0-9]+:`)

// ParseQuery validates raw query values against the search metadata,
// dropping anything the metadata does not allow.
func ParseQuery(meta *SearchMeta, values url.Values) *Query {
	q := &Query{
		Offset: 0,
		Limit:  20,
		Order:  "asc",
	}
	if meta.Limit.Default > 0 {
		q.Limit = meta.Limit.Default
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if sf, ok := meta.Fields[key]; ok {
			parseFieldValues(q, sf, key, values[key])
		}
		switch key {
		case "offset":
			if n, err := strconv.Atoi(values.Get("offset")); err == nil && n > 0 {
				q.Offset = n
			}
		case "limit":
			if meta.Limit.Maximum > 0 {
				if n, err := strconv.Atoi(values.Get("limit")); err == nil {
					q.Limit = max(meta.Limit.Minimum, min(meta.Limit.Maximum, n))
				}
			}
		case "sort":
			for _, s := range meta.Sort {
				if s == values.Get("sort") {
					q.Sort = s
				}
			}
		case "order":
			if strings.HasPrefix(values.Get("order"), "d") {
				q.Order = "dsc"
			}
		case "extra":
			for _, x := range strings.Split(values.Get("extra"), "|") {
				if x != "" {
					q.Extra = append(q.Extra, x)
				}
			}
		case "facets":
			if meta.Facets {
				q.ReturnFacets = true
			}
		}
	}
	return q
}

func parseFieldValues(q *Query, sf SearchField, field string, raw []string) {
	if len(sf.Filters) == 0 {
		return
	}
	for _, value := range raw {
		filter := sf.Filters[0]
		if filterPrefix.MatchString(value) {
			idx := strings.Index(value, ":")
			candidate := value[:idx]
			for _, f := range sf.Filters {
				if f == candidate {
					filter = candidate
					value = value[idx+1:]
					break
				}
			}
		}

		var split []string
		if filter == "regex" {
			split = []string{value}
		} else {
			split = strings.Split(value, "|")
		}
		if len(sf.Enum) > 0 {
			kept := split[:0]
			for _, v := range split {
				if v != "" && contains(sf.Enum, v) {
					kept = append(kept, v)
				}
			}
			split = kept
		}

		target := field
		if sf.SearchField != "" {
			target = sf.SearchField
		}
		q.Filter = append(q.Filter, Filter{Field: target, Filter: filter, Values: split})
	}
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// runSearch executes a query against an in-memory account snapshot. Both
// shipped directories cache all records, so this is the single search path.
func runSearch(lookup map[string]*Account, q *Query) *SearchResult {
	matches := make([]*Account, 0, len(lookup))
	for _, a := range lookup {
		if accountMatches(a, q.Filter) {
			matches = append(matches, a)
		}
	}

	sortField := q.Sort
	if sortField == "" {
		sortField = FieldID
	}
	sort.Slice(matches, func(i, j int) bool {
		less := fieldString(matches[i], sortField) < fieldString(matches[j], sortField)
		if q.Order == "dsc" {
			return !less
		}
		return less
	})

	total := len(matches)
	if q.Offset >= total {
		matches = nil
	} else {
		matches = matches[q.Offset:]
	}
	if q.Limit > 0 && len(matches) > q.Limit {
		matches = matches[:q.Limit]
	}
	return &SearchResult{Matches: matches, Total: total}
}

func accountMatches(a *Account, filters []Filter) bool {
	for _, f := range filters {
		if !filterMatches(a, f) {
			return false
		}
	}
	return true
}

func filterMatches(a *Account, f Filter) bool {
	subject := fieldString(a, f.Field)
	for _, v := range f.Values {
		switch f.Filter {
		case "equals":
			if subject == v {
				return true
			}
		case "regex":
			if re, err := regexp.Compile(v); err == nil && re.MatchString(subject) {
				return true
			}
		default: // match
			if strings.Contains(strings.ToLower(subject), strings.ToLower(v)) {
				return true
			}
		}
	}
	return false
}

func fieldString(a *Account, field string) string {
	if field == FieldCredentials {
		parts := make([]string, 0, len(a.Credentials))
		for _, c := range a.Credentials {
			parts = append(parts, c.Value)
		}
		return strings.Join(parts, " ")
	}
	v, ok := a.Get(field)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
