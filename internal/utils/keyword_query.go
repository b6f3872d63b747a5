package utils

import (
	"strings"
)

// SanitizeKeyword keeps only lower-case ASCII letters and digits so a keyword
// can be embedded in a LIKE pattern without carrying wildcards or quotes
func SanitizeKeyword(keyword string) string {
	var b strings.Builder
	b.Grow(len(keyword))
	for _, ch := range strings.ToLower(keyword) {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// SanitizeKeywords sanitizes every keyword and drops the ones left empty
func SanitizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if safe := SanitizeKeyword(kw); safe != "" {
			out = append(out, safe)
		}
	}
	return out
}

// BuildKeywordMatchClause builds one disjunctive condition requiring that at
// least one keyword appears, case-insensitively, in at least one of fields.
// Placeholders are '?' so the caller can Rebind for its driver; the
// returned params line up with them in order.
func BuildKeywordMatchClause(keywords []string, fields []string) (string, []interface{}) {
	safe := SanitizeKeywords(keywords)
	if len(safe) == 0 || len(fields) == 0 {
		return "", nil
	}

	orConditions := make([]string, 0, len(safe)*len(fields))
	params := make([]interface{}, 0, len(safe)*len(fields))
	for _, kw := range safe {
		pattern := "%" + kw + "%"
		for _, field := range fields {
			orConditions = append(orConditions, "LOWER(COALESCE("+field+", '')) LIKE ?")
			params = append(params, pattern)
		}
	}

	return "(" + strings.Join(orConditions, " OR ") + ")", params
}
