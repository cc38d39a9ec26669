package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// FilterAction is what happens to a metadata value matched by a rule.
type FilterAction string

const (
	FilterActionRemove FilterAction = "remove"
	FilterActionHash   FilterAction = "hash"
	FilterActionMask   FilterAction = "mask"
)

// FilterRule applies Action to metadata keys matching Pattern, a
// case-insensitive glob such as "*_token".
type FilterRule struct {
	Pattern string
	Action  FilterAction
}

// Link secrets and URLs must never reach audit storage; addresses are kept
// only as a digest so events for one account can still be correlated.
var defaultRules = []FilterRule{
	{"secret", FilterActionRemove},
	{"*secret*", FilterActionRemove},
	{"key", FilterActionRemove},
	{"token", FilterActionRemove},
	{"*_token", FilterActionRemove},
	{"link", FilterActionRemove},
	{"url", FilterActionRemove},
	{"*_url", FilterActionRemove},
	{"email", FilterActionHash},
	{"*_email", FilterActionHash},
	{"full_name", FilterActionMask},
	{"ip_address", FilterActionMask},
}

// MetadataFilter scrubs event metadata before it is stored. Allowed fields
// pass untouched, then custom rules and the defaults are tried in order;
// the first match wins.
type MetadataFilter struct {
	allowed    map[string]struct{}
	rules      []FilterRule
	noDefaults bool
}

type FilterOption func(*MetadataFilter)

func WithCustomField(pattern string, action FilterAction) FilterOption {
	return func(f *MetadataFilter) {
		f.rules = append(f.rules, FilterRule{Pattern: strings.ToLower(pattern), Action: action})
	}
}

// WithAllowedField keeps field as is even if a rule matches it.
func WithAllowedField(field string) FilterOption {
	return func(f *MetadataFilter) {
		f.allowed[strings.ToLower(field)] = struct{}{}
	}
}

// WithoutPIIDefaults drops the built-in rules; only custom rules apply.
func WithoutPIIDefaults() FilterOption {
	return func(f *MetadataFilter) {
		f.noDefaults = true
	}
}

func NewMetadataFilter(opts ...FilterOption) *MetadataFilter {
	f := &MetadataFilter{allowed: make(map[string]struct{})}

	for _, opt := range opts {
		opt(f)
	}
	// Defaults go last so custom rules take precedence.
	if !f.noDefaults {
		f.rules = append(f.rules, defaultRules...)
	}
	return f
}

// Filter returns a scrubbed copy of metadata.
func (f *MetadataFilter) Filter(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}

	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if _, ok := f.allowed[lower]; ok {
			out[key] = value
			continue
		}

		rule, ok := f.match(lower)
		if !ok {
			out[key] = value
			continue
		}
		switch rule.Action {
		case FilterActionRemove:
		case FilterActionHash:
			out[key] = hashValue(value)
		case FilterActionMask:
			out[key] = maskValue(value)
		default:
			out[key] = value
		}
	}
	return out
}

func (f *MetadataFilter) match(key string) (FilterRule, bool) {
	for _, r := range f.rules {
		if ok, _ := path.Match(r.Pattern, key); ok {
			return r, true
		}
	}
	return FilterRule{}, false
}

func hashValue(v any) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%v", v))
	return hex.EncodeToString(sum[:])
}

// maskValue keeps the first and last one or two characters.
func maskValue(v any) string {
	s := []rune(fmt.Sprintf("%v", v))
	n := len(s)
	switch {
	case n <= 4:
		return strings.Repeat("*", n)
	case n <= 8:
		return string(s[0]) + strings.Repeat("*", n-2) + string(s[n-1])
	default:
		return string(s[:2]) + strings.Repeat("*", n-4) + string(s[n-2:])
	}
}
