package models

import "strings"

// Permissions are stored as a comma-joined list in a single column.

func splitPermissions(s string) []string {
	parts := strings.Split(s, ",")
	perms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	if len(perms) == 0 {
		return nil
	}
	return perms
}

// JoinPermissions encodes a permission set for storage
func JoinPermissions(perms []string) string {
	return strings.Join(perms, ",")
}
