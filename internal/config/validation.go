package config

import (
	"fmt"
	"strings"

	"github.com/conneroisu/namesake/internal/errors"
	"github.com/conneroisu/namesake/internal/logging"
	"github.com/conneroisu/namesake/internal/pattern"
)

// ValidationError represents a configuration validation issue with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	section := func(title string, issues []ValidationError) {
		builder.WriteString(title + "\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  • %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("    💡 %s\n", suggestion))
			}
		}
	}

	if vr.HasErrors() {
		section("❌ Validation Errors:", vr.Errors)
		builder.WriteString("\n")
	}
	if vr.HasWarnings() {
		section("⚠️  Validation Warnings:", vr.Warnings)
	}

	return builder.String()
}

func (vr *ValidationResult) addError(field string, value interface{}, message string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Value: value, Message: message, Suggestions: suggestions})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, message string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: message, Suggestions: suggestions})
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if vec := ValidateNames(config.Names); vec != nil {
		for _, err := range vec.Errors {
			msg := err.Error()
			if fe, ok := err.(*errors.FieldValidationError); ok {
				msg = fe.ErrorMessage
			}
			result.addError(err.Field(), err.Value(), msg, err.Suggestions()...)
		}
	}
	if len(config.Names.All()) == 0 && config.Enabled {
		result.addWarning("names", nil, "no name pairs are configured",
			"add entries such as names.first: [{dead: Old, chosen: New}]")
	}

	validatePresentationDetails(config, result)
	validateSiteListDetails("allowlist", config.Allowlist, result)
	validateSiteListDetails("blocklist", config.Blocklist, result)

	if !config.DefaultAllowMode && len(config.Allowlist) == 0 && config.Enabled {
		result.addWarning("default_allow_mode", false, "no site will be rewritten",
			"add sites to allowlist or set default_allow_mode: true")
	}

	result.Valid = !result.HasErrors()

	return result
}

func validatePresentationDetails(config *Config, result *ValidationResult) {
	if !config.Theme.Valid() {
		result.addError("theme", config.Theme, fmt.Sprintf("unknown theme %q", config.Theme), themeSuggestion())
	}
	if _, err := logging.ParseLevel(config.Log.Level); err != nil {
		result.addError("log.level", config.Log.Level, err.Error(), "use debug, info, warn or error")
	}
	if !validLogFormat(config.Log.Format) {
		result.addError("log.format", config.Log.Format, "unknown log format", "use text or json")
	}
}

// validateSiteListDetails warns about entries that can never match. Such
// entries are tolerated at runtime and simply match nothing.
func validateSiteListDetails(field string, list []string, result *ValidationResult) {
	seen := make(map[string]bool, len(list))
	for i, entry := range list {
		name := fmt.Sprintf("%s[%d]", field, i)
		trimmed := strings.TrimSpace(entry)
		switch {
		case trimmed == "":
			result.addWarning(name, entry, "empty entry matches nothing", "remove the entry")
			continue
		case strings.Contains(trimmed, "://"):
			result.addWarning(name, entry, "entries are compared without a scheme",
				"write "+trimmed[strings.Index(trimmed, "://")+3:]+" instead")
		case trimmed != entry:
			result.addWarning(name, entry, "surrounding whitespace is part of the pattern", "write "+trimmed)
		}
		if seen[strings.ToLower(trimmed)] {
			result.addWarning(name, entry, "duplicate entry")
		}
		seen[strings.ToLower(trimmed)] = true
	}
}

// ValidateNames checks the name pairs for empty names, dead names that
// appear twice, pairs that map a name onto itself, and chosen names that are
// another pair's dead name. Comparisons ignore case. It returns nil when the
// pairs are valid.
func ValidateNames(names Names) *errors.ValidationErrorCollection {
	vec := &errors.ValidationErrorCollection{}

	type entry struct {
		field string
		pair  pattern.NamePair
	}
	var entries []entry
	for _, group := range []struct {
		name  string
		pairs []pattern.NamePair
	}{
		{"names.first", names.First},
		{"names.middle", names.Middle},
		{"names.last", names.Last},
		{"names.email", names.Email},
	} {
		for i, p := range group.pairs {
			entries = append(entries, entry{fmt.Sprintf("%s[%d]", group.name, i), p})
		}
	}

	deadAt := make(map[string]string, len(entries))
	for _, e := range entries {
		dead := fold(e.pair.Dead)
		chosen := fold(e.pair.Chosen)

		if dead == "" {
			vec.AddField(e.field+".dead", e.pair.Dead, "dead name is empty")
			continue
		}
		if chosen == "" {
			vec.AddField(e.field+".chosen", e.pair.Chosen, "chosen name is empty")
		}
		if dead == chosen {
			vec.AddField(e.field, e.pair, "name is mapped onto itself", "remove the pair")
		}
		if first, dup := deadAt[dead]; dup {
			vec.AddField(e.field+".dead", e.pair.Dead, "dead name is already mapped by "+first,
				"keep one mapping per dead name")
			continue
		}
		deadAt[dead] = e.field
	}

	for _, e := range entries {
		chosen := fold(e.pair.Chosen)
		if chosen == "" || chosen == fold(e.pair.Dead) {
			continue
		}
		if other, ok := deadAt[chosen]; ok && other != e.field {
			vec.AddField(e.field+".chosen", e.pair.Chosen, "chosen name is replaced again by "+other,
				"a chosen name must not also be a dead name")
		}
	}

	if !vec.HasErrors() {
		return nil
	}
	return vec
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
