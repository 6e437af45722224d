package fields

import (
	"sort"

	"accounts-service/internal/account"
)

// Summary is the public descriptor of one field, served by fields.json.
type Summary struct {
	Name    string `json:"name"`
	Order   int    `json:"order"`
	Type    string `json:"type"`
	Self    bool   `json:"self"`
	Admin   bool   `json:"admin"`
	Enabled bool   `json:"enabled"`
}

// Summaries lists the configured fields sorted by (order, name).
func (s Set) Summaries() []Summary {
	out := make([]Summary, 0, len(s))
	for name, meta := range s {
		order := meta.Order
		if order == 0 {
			order = 10
		}
		fieldType := meta.Type
		if fieldType == "" {
			fieldType = "string"
		}
		out = append(out, Summary{
			Name:    name,
			Order:   order,
			Type:    fieldType,
			Self:    meta.Self,
			Admin:   meta.Admin,
			Enabled: meta.Enabled,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SummarizeAccount renders an account for API responses. Masked fields
// emit a bare true presence flag instead of their value, fields outside
// the configured set are dropped unless explicitly included, and roles
// are always present.
func (s Set) SummarizeAccount(acct *account.Account, include map[string]bool) map[string]any {
	out := make(map[string]any)
	for _, field := range acct.FieldNames() {
		value, _ := acct.Get(field)
		if meta, ok := s[field]; ok {
			if meta.Mask {
				out[field] = true
			} else {
				out[field] = value
			}
		} else if include[field] {
			out[field] = value
		}
	}
	out[account.FieldRoles] = acct.Roles
	return out
}
