package utils

import (
	"strings"

	"github.com/classquest/classquest-backend/internal/domain"
)

// SanitizeRedirect validates a post-login redirect target. Only same-origin
// paths are allowed: the target must start with a single "/" (no
// protocol-relative "//"), and the path prefix must match the role so a
// student is never redirected into teacher routes. Anything else falls back
// to the role's home page.
func SanitizeRedirect(target, role string) string {
	fallback := roleHome(role)
	if target == "" {
		return fallback
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	if strings.ContainsAny(target, "\\\r\n") {
		return fallback
	}
	switch role {
	case domain.RoleStudent:
		if strings.HasPrefix(target, "/teacher") {
			return fallback
		}
	case domain.RoleTeacher:
		if strings.HasPrefix(target, "/student") {
			return fallback
		}
	}
	return target
}

func roleHome(role string) string {
	switch role {
	case domain.RoleTeacher:
		return "/teacher/classes"
	case domain.RoleStudent:
		return "/student/character"
	default:
		return "/"
	}
}
