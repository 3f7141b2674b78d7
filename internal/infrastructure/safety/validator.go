// Package safety implements the SQL safety gate. It is a denylist of
// substrings associated with comment injection, statement chaining and
// mutating or administrative operations. It intentionally does not parse
// SQL: it catches common destructive patterns, it does not prove a
// statement safe.
package safety

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sheetql/sheetql/assets"
	"github.com/sheetql/sheetql/internal/domain"
	"github.com/sheetql/sheetql/internal/ports"
)

// Validator implements the ports.SQLValidator port.
type Validator struct {
	tokens []string
}

// RulesFile is the YAML schema root for a custom denylist.
type RulesFile struct {
	Rules struct {
		DeniedTokens []string `yaml:"denied_tokens"`
	} `yaml:"rules"`
}

// NewValidator loads the denylist from disk, falling back to the built-in
// tokens when the file is missing or empty.
func NewValidator(path string) (*Validator, error) {
	tokens, err := loadTokens(path)
	if err != nil {
		return nil, err
	}
	upper := make([]string, 0, len(tokens))
	for _, token := range tokens {
		upper = append(upper, strings.ToUpper(token))
	}
	return &Validator{tokens: upper}, nil
}

// Validate implements ports.SQLValidator. Comparison is done on an
// uppercased copy; the accepted statement keeps its original casing.
func (v *Validator) Validate(sql string) domain.Verdict {
	if strings.TrimSpace(sql) == "" {
		return domain.Verdict{
			Allowed: false,
			Reason:  "generated statement is empty",
		}
	}

	upper := strings.ToUpper(sql)
	var matched []string
	for _, token := range v.tokens {
		if strings.Contains(upper, token) {
			matched = append(matched, token)
		}
	}
	if len(matched) > 0 {
		return domain.Verdict{
			Allowed: false,
			Reason:  fmt.Sprintf("statement contains forbidden pattern %q", matched[0]),
			Matched: matched,
		}
	}

	return domain.Verdict{Allowed: true, SQL: sql}
}

func loadTokens(path string) ([]string, error) {
	if path == "" {
		return defaultTokens(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		// missing rules file falls back to defaults
		return defaultTokens(), nil
	}
	var rules RulesFile
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	if len(rules.Rules.DeniedTokens) == 0 {
		return defaultTokens(), nil
	}
	return rules.Rules.DeniedTokens, nil
}

func defaultTokens() []string {
	var rules RulesFile
	if err := yaml.Unmarshal(assets.DefaultSafetyYAML, &rules); err == nil && len(rules.Rules.DeniedTokens) > 0 {
		return rules.Rules.DeniedTokens
	}
	// minimal fallback if the embedded YAML is ever corrupted
	return []string{
		"--", "/*", "*/", ";",
		"DROP ", "DELETE ", "TRUNCATE ", "UPDATE ", "INSERT ",
		"EXEC ", "EXECUTE ", "DECLARE ",
		"XP_", "SP_",
	}
}

var _ ports.SQLValidator = (*Validator)(nil)
