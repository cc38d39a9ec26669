package rbac

import "strings"

// grants reports whether granted covers wanted.
func grants(granted, wanted string) bool {
	switch {
	case granted == "*" || granted == wanted:
		return true
	case strings.HasSuffix(granted, ".*"):
		return strings.HasPrefix(wanted, granted[:len(granted)-1])
	default:
		return false
	}
}

func hasPermission(granted []string, wanted string) bool {
	for _, g := range granted {
		if grants(g, wanted) {
			return true
		}
	}
	return false
}
