package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newDefaultValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator("")
	require.NoError(t, err)
	return v
}

func TestValidatorAcceptsCleanSelect(t *testing.T) {
	v := newDefaultValidator(t)

	sql := "SELECT Name, Total FROM Customers ORDER BY Total DESC LIMIT 100"
	verdict := v.Validate(sql)
	require.True(t, verdict.Allowed)
	require.Equal(t, sql, verdict.SQL, "accepted statement must keep its original casing")
	require.Empty(t, verdict.Matched)
}

func TestValidatorRejectsDenylistedTokens(t *testing.T) {
	v := newDefaultValidator(t)

	cases := []struct {
		name string
		sql  string
	}{
		{"drop mixed case", `droP TABLE Customers`},
		{"semicolon", `SELECT 1;`},
		{"line comment", `SELECT 1 -- hidden`},
		{"block comment open", `SELECT /* x`},
		{"block comment close", `SELECT x */`},
		{"delete", `delete from customers where 1=1`},
		{"truncate", `TRUNCATE table t`},
		{"update", `Update t set a=1`},
		{"insert", `INSERT into t values (1)`},
		{"exec", `EXEC master.dbo.thing`},
		{"execute", `execute something`},
		{"declare", `DECLARE @x int`},
		{"extended proc", `SELECT xp_cmdshell`},
		{"system proc", `SELECT sp_configure`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := v.Validate(tc.sql)
			require.False(t, verdict.Allowed)
			require.NotEmpty(t, verdict.Reason)
			require.NotEmpty(t, verdict.Matched)
		})
	}
}

func TestValidatorRejectsEmptyInput(t *testing.T) {
	v := newDefaultValidator(t)

	for _, sql := range []string{"", "   ", "\n\t"} {
		verdict := v.Validate(sql)
		require.False(t, verdict.Allowed)
	}
}

func TestValidatorDenylistIsSubstringBased(t *testing.T) {
	v := newDefaultValidator(t)

	// "DROP" without a trailing space is not on the denylist; the gate is a
	// pattern check, not a SQL parser.
	verdict := v.Validate("SELECT dropped_at FROM t")
	require.True(t, verdict.Allowed)
}

func TestValidatorLoadsCustomRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safety.yaml")
	rules := "rules:\n  denied_tokens:\n    - \"pragma\"\n"
	require.NoError(t, os.WriteFile(path, []byte(rules), 0o600))

	v, err := NewValidator(path)
	require.NoError(t, err)

	require.False(t, v.Validate("PRAGMA table_info(t)").Allowed)
	// default tokens are replaced, not merged
	require.True(t, v.Validate("SELECT 1;").Allowed)
}

func TestValidatorMissingRulesFileFallsBack(t *testing.T) {
	v, err := NewValidator(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.False(t, v.Validate("DROP TABLE t").Allowed)
}
