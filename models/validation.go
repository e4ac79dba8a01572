// ABOUTME: Static required-field tables for user and investor forms
// ABOUTME: Local synchronous checks that block submission without a round trip
package models

import (
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

var ErrValidation = errors.New("validation failed")

// ValidationError lists the fields that failed local checks.
type ValidationError struct {
	Form   string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing or invalid fields: %s", e.Form, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Required fields per form.
var (
	UserRequiredFields     = []string{"name", "email", "role"}
	UserEditRequiredFields = []string{"name", "email"}
	InvestorRequiredFields = []string{"name", "email", "firm"}
)

// UserRoles are the roles the user panel can assign.
var UserRoles = []string{"admin", "manager", "analyst", "viewer"}

// ValidateUser checks a new-user form. Edits use a reduced table.
func ValidateUser(in UserInput, editing bool) error {
	values := map[string]string{
		"name":  in.Name,
		"email": in.Email,
		"role":  in.Role,
	}
	required := UserRequiredFields
	if editing {
		required = UserEditRequiredFields
	}
	missing := missingFields(values, required)
	if in.Email != "" && !validEmail(in.Email) {
		missing = append(missing, "email")
	}
	if in.Role != "" && !contains(UserRoles, in.Role) {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return &ValidationError{Form: "user", Fields: dedupe(missing)}
	}
	return nil
}

// ValidateInvestor checks the add-investor form.
func ValidateInvestor(inv Investor) error {
	values := map[string]string{
		"name":  inv.Name,
		"email": inv.Email,
		"firm":  inv.Firm,
	}
	missing := missingFields(values, InvestorRequiredFields)
	if inv.Email != "" && !validEmail(inv.Email) {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return &ValidationError{Form: "investor", Fields: dedupe(missing)}
	}
	return nil
}

// ValidateImportMapping checks that a bulk-import column mapping (target
// field -> source column) covers every required investor field.
func ValidateImportMapping(mapping map[string]string) error {
	var missing []string
	for _, field := range InvestorRequiredFields {
		if strings.TrimSpace(mapping[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Form: "import mapping", Fields: missing}
	}
	return nil
}

func missingFields(values map[string]string, required []string) []string {
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func dedupe(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
