// internal/nodeid/address.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// validID restricts identifiers to characters that survive file names and
// batch-scheduler job names.
var validID = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// String serializes the Address into its canonical representation.
func (a Address) String() string {
	if len(a.Qualifiers) == 0 {
		return a.Base
	}
	var sb strings.Builder
	sb.WriteString(a.Base)
	for _, q := range a.Qualifiers {
		sb.WriteByte('_')
		sb.WriteString(q.Name)
		sb.WriteByte('_')
		sb.WriteString(q.Value)
	}
	return sb.String()
}

// Suffix renders only the qualifier part, e.g. `fold_3_cost_1000000`.
func Suffix(qualifiers ...Qualifier) string {
	parts := make([]string, 0, len(qualifiers)*2)
	for _, q := range qualifiers {
		parts = append(parts, q.Name, q.Value)
	}
	return strings.Join(parts, "_")
}

// Equal checks for equality between two addresses.
func (a Address) Equal(other Address) bool {
	if a.Base != other.Base || len(a.Qualifiers) != len(other.Qualifiers) {
		return false
	}
	for i := range a.Qualifiers {
		if a.Qualifiers[i] != other.Qualifiers[i] {
			return false
		}
	}
	return true
}

// Validate checks that a rendered identifier is non-empty and uses only
// the allowed character set.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !validID.MatchString(id) {
		return fmt.Errorf("invalid identifier %q: only letters, digits, '_', '.' and '-' are allowed", id)
	}
	if id == "." || id == ".." || id == "-" {
		return fmt.Errorf("invalid identifier %q", id)
	}
	return nil
}
