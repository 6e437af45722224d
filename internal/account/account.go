package account

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reserved field names that live on the Account struct itself. Everything
// else is a custom field and is kept in Extra.
const (
	FieldID          = "id"
	FieldCredentials = "credentials"
	FieldRoles       = "roles"
	FieldPassword    = "password"
	FieldDisplayName = "displayName"
)

// Credential identifies an account within one authentication method.
// E.g. {Type: "email", Value: "alice@example.com"}.
type Credential struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Account is a user record. Custom fields configured through the field set
// are stored in Extra and marshal flat, next to the built-in fields, so a
// stored record looks the same regardless of which fields are custom.
type Account struct {
	ID          string
	Credentials []Credential
	Roles       map[string]bool
	Password    string
	DisplayName string
	Extra       map[string]any
}

// Profile is an identity payload used to materialize a new account. It is
// either supplied by an external provider (OAuth claims) or synthesized
// locally from a credential value.
type Profile struct {
	ID          string
	DisplayName string
	Password    string
	Extra       map[string]any
}

// HasCredential reports whether the account owns the (type, value) pair.
func (a *Account) HasCredential(credentialType, value string) bool {
	for _, c := range a.Credentials {
		if c.Type == credentialType && c.Value == value {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the account holds at least one of the given
// roles.
func (a *Account) HasAnyRole(roles map[string]bool) bool {
	for role, enabled := range a.Roles {
		if enabled && roles[role] {
			return true
		}
	}
	return false
}

// Get returns the named field value and whether it is present.
func (a *Account) Get(field string) (any, bool) {
	switch field {
	case FieldID:
		return a.ID, a.ID != ""
	case FieldCredentials:
		return a.Credentials, len(a.Credentials) > 0
	case FieldRoles:
		return a.Roles, a.Roles != nil
	case FieldPassword:
		return a.Password, a.Password != ""
	case FieldDisplayName:
		return a.DisplayName, a.DisplayName != ""
	}
	v, ok := a.Extra[field]
	return v, ok
}

// Set assigns the named field. Built-in fields are type checked; custom
// fields accept any value.
func (a *Account) Set(field string, value any) error {
	switch field {
	case FieldID, FieldPassword, FieldDisplayName:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s value is not string", field)
		}
		switch field {
		case FieldID:
			a.ID = s
		case FieldPassword:
			a.Password = s
		case FieldDisplayName:
			a.DisplayName = s
		}
		return nil
	case FieldRoles:
		roles, ok := value.(map[string]bool)
		if !ok {
			return fmt.Errorf("%s value is not a role map", field)
		}
		a.Roles = roles
		return nil
	case FieldCredentials:
		creds, ok := value.([]Credential)
		if !ok {
			return fmt.Errorf("%s value is not a credential list", field)
		}
		a.Credentials = creds
		return nil
	}
	if a.Extra == nil {
		a.Extra = make(map[string]any)
	}
	a.Extra[field] = value
	return nil
}

// Unset removes the named field from the account.
func (a *Account) Unset(field string) {
	switch field {
	case FieldPassword:
		a.Password = ""
	case FieldDisplayName:
		a.DisplayName = ""
	default:
		delete(a.Extra, field)
	}
}

// FieldNames lists every field present on the account, built-in and custom.
func (a *Account) FieldNames() []string {
	names := make([]string, 0, 5+len(a.Extra))
	for _, f := range []string{FieldID, FieldCredentials, FieldRoles, FieldPassword, FieldDisplayName} {
		if _, ok := a.Get(f); ok {
			names = append(names, f)
		}
	}
	for f := range a.Extra {
		names = append(names, f)
	}
	return names
}

// Clone returns a deep copy. Updates are applied to a clone and committed
// only when every field assignment succeeds.
func (a *Account) Clone() *Account {
	out := &Account{
		ID:          a.ID,
		Password:    a.Password,
		DisplayName: a.DisplayName,
	}
	if a.Credentials != nil {
		out.Credentials = append([]Credential(nil), a.Credentials...)
	}
	if a.Roles != nil {
		out.Roles = make(map[string]bool, len(a.Roles))
		for k, v := range a.Roles {
			out.Roles[k] = v
		}
	}
	if a.Extra != nil {
		out.Extra = make(map[string]any, len(a.Extra))
		for k, v := range a.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MarshalJSON flattens Extra so custom fields serialize next to built-ins.
func (a *Account) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, 5+len(a.Extra))
	for k, v := range a.Extra {
		flat[k] = v
	}
	flat[FieldID] = a.ID
	flat[FieldRoles] = a.Roles
	if len(a.Credentials) > 0 {
		flat[FieldCredentials] = a.Credentials
	}
	if a.Password != "" {
		flat[FieldPassword] = a.Password
	}
	if a.DisplayName != "" {
		flat[FieldDisplayName] = a.DisplayName
	}
	return json.Marshal(flat)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (a *Account) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*a = Account{}
	for k, raw := range flat {
		switch k {
		case FieldID:
			if err := json.Unmarshal(raw, &a.ID); err != nil {
				return err
			}
		case FieldCredentials:
			if err := json.Unmarshal(raw, &a.Credentials); err != nil {
				return err
			}
		case FieldRoles:
			if err := json.Unmarshal(raw, &a.Roles); err != nil {
				return err
			}
		case FieldPassword:
			if err := json.Unmarshal(raw, &a.Password); err != nil {
				return err
			}
		case FieldDisplayName:
			if err := json.Unmarshal(raw, &a.DisplayName); err != nil {
				return err
			}
		default:
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			if a.Extra == nil {
				a.Extra = make(map[string]any)
			}
			a.Extra[k] = v
		}
	}
	return nil
}

// DisplayNameFromCredential derives a display name from a credential value,
// using the local part for email addresses.
func DisplayNameFromCredential(value string) string {
	if at := strings.Index(value, "@"); at > 0 {
		return value[:at]
	}
	return value
}
