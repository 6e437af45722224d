package fields

import (
	"errors"
	"testing"

	"accounts-service/internal/account"
	"accounts-service/internal/crypt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount(id string) *account.Account {
	return &account.Account{
		ID:          id,
		DisplayName: "Before",
		Roles:       map[string]bool{"user": true},
	}
}

func testEnv() *Env {
	return &Env{Hasher: crypt.NewPBKDF2Hasher(crypt.PBKDF2Options{Iterations: 100, HashBytes: 32})}
}

func TestApplyUpdateDisplayName(t *testing.T) {
	set := Defaults()
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"displayName": "After"}, acct, testEnv())
	require.NoError(t, err)
	assert.Equal(t, "After", acct.DisplayName)
}

func TestApplyUpdateUnknownFieldNotEditable(t *testing.T) {
	set := Defaults()
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"secretFlag": true}, acct, testEnv())
	var notEditable *NotEditableError
	require.ErrorAs(t, err, &notEditable)
	assert.Equal(t, "secretFlag", notEditable.Field)
}

func TestApplyUpdateIDRejected(t *testing.T) {
	set := Defaults()
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"id": "a2"}, acct, testEnv())
	require.EqualError(t, err, "id is not editable")
	assert.Equal(t, "a1", acct.ID)
}

func TestApplyUpdateOwnRolesRejected(t *testing.T) {
	set := Defaults()
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"roles": map[string]any{"admin": true}}, acct, testEnv())
	require.EqualError(t, err, "can't update your own roles")
	assert.False(t, acct.Roles["admin"])
}

func TestApplyUpdateOtherRoles(t *testing.T) {
	set := Defaults()
	target := testAccount("a1")
	admin := testAccount("a2")

	err := set.ApplyUpdate(target, map[string]any{"roles": map[string]any{"admin": true}}, admin, testEnv())
	require.NoError(t, err)
	assert.True(t, target.Roles["admin"])
}

func TestApplyUpdateRolesTypeChecked(t *testing.T) {
	set := Defaults()
	target := testAccount("a1")
	admin := testAccount("a2")

	err := set.ApplyUpdate(target, map[string]any{"roles": "admin"}, admin, testEnv())
	assert.Error(t, err)
}

func TestApplyUpdateIsAtomic(t *testing.T) {
	set := Defaults()
	acct := testAccount("a1")

	// displayName sorts before roles; roles failing must roll back the
	// displayName assignment
	err := set.ApplyUpdate(acct, map[string]any{
		"displayName": "After",
		"roles":       map[string]any{"admin": true},
	}, acct, testEnv())
	require.Error(t, err)
	assert.Equal(t, "Before", acct.DisplayName)
}

func TestPasswordSelfSetIsHashed(t *testing.T) {
	set := Defaults()
	set["password"] = NewPassword()
	env := testEnv()
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"password": "new password"}, acct, env)
	require.NoError(t, err)
	require.NotEmpty(t, acct.Password)
	assert.NotEqual(t, "new password", acct.Password)

	ok, err := env.Hasher.Verify("new password", acct.Password)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordSetByOtherIsStripped(t *testing.T) {
	set := Defaults()
	set["password"] = NewPassword()
	acct := testAccount("a1")
	acct.Password = "existing digest"
	admin := testAccount("a2")

	err := set.ApplyUpdate(acct, map[string]any{"password": "attacker controlled"}, admin, testEnv())
	require.NoError(t, err)
	assert.Empty(t, acct.Password)
}

func TestPasswordClearedByEmptyOrBool(t *testing.T) {
	set := Defaults()
	set["password"] = NewPassword()

	for _, value := range []any{"", false, true} {
		acct := testAccount("a1")
		acct.Password = "existing digest"

		err := set.ApplyUpdate(acct, map[string]any{"password": value}, acct, testEnv())
		require.NoError(t, err)
		assert.Empty(t, acct.Password)
	}
}

func TestPasswordRequiresHasher(t *testing.T) {
	set := Defaults()
	set["password"] = NewPassword()
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"password": "new password"}, acct, nil)
	require.EqualError(t, err, "a crypt is not configured")
}

func TestStrongPasswordRejectsWeakValue(t *testing.T) {
	set := Defaults()
	set["password"] = NewStrongPassword()
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"password": "short"}, acct, testEnv())
	assert.Error(t, err)
	assert.Empty(t, acct.Password)
}

func TestStrongPasswordAcceptsStrongValue(t *testing.T) {
	set := Defaults()
	set["password"] = NewStrongPassword()
	env := testEnv()
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"password": "a long enough passphrase"}, acct, env)
	require.NoError(t, err)
	assert.NotEmpty(t, acct.Password)
}

func TestCustomAssignErrorSurfaces(t *testing.T) {
	boom := errors.New("boom")
	set := Defaults()
	set["widget"] = NewCustom(5, func(*account.Account, string, any, *Meta, *account.Account, *Env) error {
		return boom
	})
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"widget": "x"}, acct, testEnv())
	assert.ErrorIs(t, err, boom)
}

func TestDefaultFieldTypeChecked(t *testing.T) {
	set := Defaults()
	acct := testAccount("a1")

	err := set.ApplyUpdate(acct, map[string]any{"displayName": 42}, acct, testEnv())
	require.EqualError(t, err, "displayName value is not string")
}

func TestSummariesOrdering(t *testing.T) {
	set := Defaults()
	set["password"] = NewPassword()

	summaries := set.Summaries()
	names := make([]string, 0, len(summaries))
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"displayName", "id", "roles", "password"}, names)
}

func TestSummarizeAccountMasksPassword(t *testing.T) {
	set := Defaults()
	set["password"] = NewPassword()

	acct := testAccount("a1")
	acct.Password = "digest"
	acct.Credentials = []account.Credential{{Type: "email", Value: "a@example.com"}}

	summary := set.SummarizeAccount(acct, nil)
	assert.Equal(t, true, summary["password"])
	assert.Equal(t, "a1", summary["id"])
	assert.NotContains(t, summary, "credentials")

	withCreds := set.SummarizeAccount(acct, map[string]bool{"credentials": true})
	assert.Contains(t, withCreds, "credentials")
}
