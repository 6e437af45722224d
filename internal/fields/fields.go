// Package fields implements the per-field assignment rules that mediate
// account creation and update.
package fields

import (
	"fmt"
	"sort"

	"accounts-service/internal/account"
	"accounts-service/internal/crypt"
)

// Kind selects the assignment policy for a field.
type Kind int

const (
	// KindDefault type checks the raw value and stores it as-is.
	KindDefault Kind = iota
	// KindPassword hashes self-set values and strips everything else.
	KindPassword
	// KindStrongPassword is KindPassword plus a strength check.
	KindStrongPassword
	// KindCustom delegates to the injected Assign func.
	KindCustom
)

// Env carries the collaborators a policy may need.
type Env struct {
	Hasher crypt.Hasher
}

// AssignFunc is the mutation entrypoint for a custom field. It may reject
// the update by returning an error, or derive a different stored value
// than the raw input.
type AssignFunc func(acct *account.Account, field string, value any, meta *Meta, actingUser *account.Account, env *Env) error

// DeriveFunc derives a field value from a profile during provisioning.
// Falsy results (nil, "", false, 0) are omitted, never stored.
type DeriveFunc func(profile *account.Profile) any

// Meta describes one editable account field.
type Meta struct {
	Order   int
	Type    string
	Mask    bool
	Self    bool
	Admin   bool
	Enabled bool
	Kind    Kind
	Assign  AssignFunc
	Derive  DeriveFunc
}

// NewDefault creates a plain typed field.
func NewDefault(order int) *Meta {
	return &Meta{Order: order, Type: "string", Self: true, Admin: true, Enabled: true}
}

// NewPassword creates the password field.
func NewPassword() *Meta {
	return &Meta{Order: 50, Type: "string", Mask: true, Self: true, Admin: true, Enabled: true, Kind: KindPassword}
}

// NewStrongPassword creates a password field with strength requirements.
func NewStrongPassword() *Meta {
	m := NewPassword()
	m.Kind = KindStrongPassword
	return m
}

// NewCustom creates a field governed by the given assign hook.
func NewCustom(order int, assign AssignFunc) *Meta {
	return &Meta{Order: order, Type: "string", Self: true, Admin: true, Enabled: true, Kind: KindCustom, Assign: assign}
}

// NotEditableError is returned when an update names a field absent from
// the configured set.
type NotEditableError struct {
	Field string
}

func (e *NotEditableError) Error() string {
	return e.Field + " not editable"
}

// Set is the configured field collection, keyed by field name.
type Set map[string]*Meta

// Defaults returns the baseline field set: id (read only), displayName,
// and roles (admin-only, never self-editable).
func Defaults() Set {
	return Set{
		account.FieldID: NewCustom(0, func(_ *account.Account, field string, _ any, _ *Meta, _ *account.Account, _ *Env) error {
			return fmt.Errorf("%s is not editable", field)
		}),
		account.FieldDisplayName: NewDefault(1),
		account.FieldRoles:       NewRoles(),
	}
}

// NewRoles creates the roles field. Self is false so an account can never
// change its own roles, which blocks self-role-escalation.
func NewRoles() *Meta {
	m := NewCustom(20, assignRoles)
	m.Type = "object"
	m.Self = false
	return m
}

func assignRoles(acct *account.Account, field string, value any, _ *Meta, _ *account.Account, _ *Env) error {
	roles := make(map[string]bool)
	switch v := value.(type) {
	case map[string]bool:
		roles = v
	case map[string]any:
		for role, raw := range v {
			enabled, ok := raw.(bool)
			if !ok {
				return fmt.Errorf("%s value is not a role map", field)
			}
			roles[role] = enabled
		}
	default:
		return fmt.Errorf("%s value is not a role map", field)
	}
	return acct.Set(field, roles)
}

// ApplyUpdate applies the updates to the account through each field's
// policy, with actingUser as the caller. The update is atomic: it runs on
// a clone and commits only if every field assigns cleanly.
func (s Set) ApplyUpdate(acct *account.Account, updates map[string]any, actingUser *account.Account, env *Env) error {
	work := acct.Clone()

	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, field := range keys {
		meta, ok := s[field]
		if !ok {
			return &NotEditableError{Field: field}
		}
		if !meta.Self && actingUser != nil && actingUser.ID == work.ID {
			return fmt.Errorf("can't update your own %s", field)
		}
		if err := meta.assign(work, field, updates[field], actingUser, env); err != nil {
			return err
		}
	}

	*acct = *work
	return nil
}

func (m *Meta) assign(acct *account.Account, field string, value any, actingUser *account.Account, env *Env) error {
	switch m.Kind {
	case KindPassword:
		return assignPassword(acct, field, value, actingUser, env)
	case KindStrongPassword:
		if s, ok := value.(string); ok && s != "" {
			if err := CheckStrongPassword(s); err != nil {
				return err
			}
		}
		return assignPassword(acct, field, value, actingUser, env)
	case KindCustom:
		if m.Assign == nil {
			return fmt.Errorf("%s has no assign hook", field)
		}
		return m.Assign(acct, field, value, m, actingUser, env)
	default:
		return m.assignDefault(acct, field, value)
	}
}

func (m *Meta) assignDefault(acct *account.Account, field string, value any) error {
	declared := m.Type
	if declared == "" {
		declared = "string"
	}
	if !valueHasType(value, declared) {
		return fmt.Errorf("%s value is not %s", field, declared)
	}
	return acct.Set(field, value)
}

func valueHasType(value any, declared string) bool {
	switch declared {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		switch value.(type) {
		case float64, int:
			return true
		}
		return false
	case "object":
		_, ok := value.(map[string]any)
		return ok
	}
	return false
}

// assignPassword implements the password policy: editing someone else's
// password, or supplying a boolean or empty string, strips the field (this
// is how "clear my password" is expressed); otherwise the value is hashed
// and stored.
func assignPassword(acct *account.Account, field string, value any, actingUser *account.Account, env *Env) error {
	_, isBool := value.(bool)
	if actingUser == nil || actingUser.ID != acct.ID || isBool || value == "" {
		acct.Unset(field)
		return nil
	}

	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%s value is not string", field)
	}
	if s == "" {
		return fmt.Errorf("%s value is empty", field)
	}
	if env == nil || env.Hasher == nil {
		return fmt.Errorf("a crypt is not configured")
	}

	hash, err := env.Hasher.Hash(s)
	if err != nil {
		return err
	}
	return acct.Set(field, hash)
}
