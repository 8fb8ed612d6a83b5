package nimbus

import (
	"strings"
	"unicode"
)

// Mask replaces the value of every sensitive field in audit payloads.
const Mask = "***MASKED***"

// sensitiveStems match anywhere in a key once it is lowercased and stripped
// of separators, so "accesstoken", "PHONE_NUMBER" and "userPassword" all hit.
var sensitiveStems = []string{
	"token",
	"password",
	"passwd",
	"phone",
	"mobile",
	"email",
	"aadhaar",
	"passport",
	"secret",
	"authorization",
	"nationalid",
}

// "pan" is too short to match as a substring ("company", "expand"), so it
// only counts as a whole word or in these joined forms.
var panKeys = map[string]bool{
	"pan":       true,
	"panno":     true,
	"pannumber": true,
	"pancard":   true,
}

// MaskSensitiveFields returns a copy of v in which the value of every
// sensitive key is replaced by Mask, at any depth of nested maps and slices.
// Keys are kept; all other values are copied unchanged. v is not modified.
func MaskSensitiveFields(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if isSensitiveKey(k) {
				out[k] = Mask
				continue
			}
			out[k] = MaskSensitiveFields(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = MaskSensitiveFields(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if isSensitiveKey(k) {
				out[k] = Mask
				continue
			}
			out[k] = val
		}
		return out
	default:
		return v
	}
}

func maskMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return MaskSensitiveFields(m).(map[string]any)
}

func isSensitiveKey(key string) bool {
	joined := normalizeKey(key)
	for _, stem := range sensitiveStems {
		if strings.Contains(joined, stem) {
			return true
		}
	}
	if panKeys[joined] {
		return true
	}
	for _, w := range keyWords(key) {
		if panKeys[w] {
			return true
		}
	}
	return false
}

// normalizeKey lowercases key and drops everything but letters and digits.
func normalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// keyWords splits snake, kebab and camel case keys into lowercase words.
func keyWords(key string) []string {
	var (
		words     []string
		cur       strings.Builder
		prevLower bool
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range key {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
			prevLower = false
			continue
		case unicode.IsUpper(r) && prevLower:
			flush()
		}
		cur.WriteRune(unicode.ToLower(r))
		prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	flush()
	return words
}
