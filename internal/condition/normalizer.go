package condition

import "strings"

// Normalizer maps free-text condition phrases to canonical labels.
type Normalizer struct{}

// NewNormalizer returns a Normalizer over the built-in vocabulary.
func NewNormalizer() Normalizer {
	return Normalizer{}
}

// Normalize resolves condition in this order: canonical label, description,
// main group (first entry of the group). Blank input yields "". Unknown phrases
// are returned trimmed but otherwise unchanged.
func (Normalizer) Normalize(condition string) string {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return ""
	}
	if c, ok := ByLabel(condition); ok {
		return c.String()
	}
	if c, ok := ByDescription(condition); ok {
		return c.String()
	}
	if main := MainOf(condition); main != "" {
		if group := ByMain(main); len(group) > 0 {
			return group[0].String()
		}
	}
	return condition
}

// MainOf extracts the main group from a "Main (description)" label. Without
// parentheses the whole trimmed phrase is taken as the main group.
func MainOf(condition string) string {
	condition = strings.TrimSpace(condition)
	if i := strings.Index(condition, "("); i > 0 {
		return strings.TrimSpace(condition[:i])
	}
	return condition
}

// IconURL returns the icon URL for a label or description, or "" when unknown.
func IconURL(condition string) string {
	if c, ok := ByLabel(condition); ok {
		return c.IconURL()
	}
	if c, ok := ByDescription(condition); ok {
		return c.IconURL()
	}
	return ""
}
