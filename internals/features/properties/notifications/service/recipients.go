package service

import (
	"regexp"
	"strings"

	helper "propertytools_backend/internals/helpers"
)

var recipientSplit = regexp.MustCompile(`[,;\r\n]+`)

// ParseRecipients splits a stored recipient list, drops invalid addresses
// and duplicates, and keeps input order.
func ParseRecipients(raw string) []string {
	out := make([]string, 0)
	seen := map[string]bool{}
	for _, part := range recipientSplit.Split(raw, -1) {
		email := strings.TrimSpace(part)
		if email == "" || seen[strings.ToLower(email)] {
			continue
		}
		if helper.Validate.Var(email, "required,email") != nil {
			continue
		}
		seen[strings.ToLower(email)] = true
		out = append(out, email)
	}
	return out
}
