package naming

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Rule modes supported by ApplyRule.
const (
	// ModePrefix prepends Value and Separator to the existing name.
	ModePrefix = "prefix"
	// ModeSuffix appends Separator and Value to the existing name.
	ModeSuffix = "suffix"
	// ModeReplace replaces every match of ReplaceFrom with Value.
	ModeReplace = "replace"
)

// ErrUnknownMode is returned by Rule.Validate for modes other than prefix,
// suffix and replace.
var ErrUnknownMode = errors.New("unknown naming mode")

// Rule describes a single naming transform applied to an entity name.
// A rule with an empty Value is disabled and leaves names untouched.
type Rule struct {
	Mode        string `json:"mode"`
	Value       string `json:"value"`
	ReplaceFrom string `json:"replaceFrom,omitempty"`
	Separator   string `json:"separator"`
}

// Validate reports whether the rule mode is one ApplyRule understands.
func (r Rule) Validate() error {
	switch r.Mode {
	case ModePrefix, ModeSuffix, ModeReplace:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, r.Mode)
	}
}

// ApplyRule computes the new name for name under rule.
//
// Prefix and suffix are deliberately not idempotent: applying the same rule
// twice doubles the affix. Replace treats ReplaceFrom as a regular expression
// matched globally and inserts Value literally; a ReplaceFrom that does not
// compile is matched as plain text.
func ApplyRule(name string, rule Rule) string {
	if rule.Value == "" {
		return name
	}
	switch rule.Mode {
	case ModePrefix:
		return rule.Value + rule.Separator + name
	case ModeSuffix:
		return name + rule.Separator + rule.Value
	case ModeReplace:
		// an empty pattern would match between every rune
		if rule.ReplaceFrom == "" {
			return name
		}
		re, err := regexp.Compile(rule.ReplaceFrom)
		if err != nil {
			return strings.ReplaceAll(name, rule.ReplaceFrom, rule.Value)
		}
		return re.ReplaceAllLiteralString(name, rule.Value)
	default:
		return name
	}
}

// Named is anything with an id and a display name that can be renamed.
type Named struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Rename is a single proposed name change.
type Rename struct {
	ID      string `json:"id"`
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

// PreviewRename applies rule to every item and returns the renames that
// actually change a name, in input order.
func PreviewRename(items []Named, rule Rule) []Rename {
	out := make([]Rename, 0, len(items))
	for _, it := range items {
		next := ApplyRule(it.Name, rule)
		if next == it.Name {
			continue
		}
		out = append(out, Rename{ID: it.ID, OldName: it.Name, NewName: next})
	}
	return out
}
