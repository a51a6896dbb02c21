package services

import (
	"testing"

	"github.com/classquest/classquest-backend/internal/pkg/apperr"

	types "github.com/classquest/classquest-backend/internal/domain"
)

func TestSignupTeacher_RequiresAccessCode(t *testing.T) {
	env := newTestEnv(t)

	input := SignupTeacherInput{
		Username:   "ms-frizzle",
		Email:      "frizzle@example.com",
		Password:   "seatbelts",
		AccessCode: "wrong",
	}
	if _, err := env.auth.SignupTeacher(t.Context(), input); apperr.KindOf(err) != apperr.KindPermission {
		t.Fatalf("expected permission error, got %v", err)
	}

	input.AccessCode = "chalkboard"
	u, err := env.auth.SignupTeacher(t.Context(), input)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if u.Role != types.RoleTeacher || !u.IsActive {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.Password == "seatbelts" {
		t.Fatalf("password must be stored hashed")
	}

	if _, err := env.auth.SignupTeacher(t.Context(), input); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected duplicate username rejection, got %v", err)
	}
}

func TestLogin_IssuesParsableToken(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.auth.SignupTeacher(t.Context(), SignupTeacherInput{
		Username:   "mr-keating",
		Email:      "keating@example.com",
		Password:   "carpe-diem",
		AccessCode: "chalkboard",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	result, err := env.auth.Login(t.Context(), "mr-keating", "carpe-diem", "", "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected a token")
	}
	if result.Redirect != "/teacher/classes" {
		t.Fatalf("expected teacher home redirect, got %q", result.Redirect)
	}

	claims, err := env.auth.ParseToken(result.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != u.ID.String() || claims.Role != types.RoleTeacher {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.auth.Login(t.Context(), "ghost", "boo", "", ""); apperr.CodeOf(err) != apperr.CodeInvalidCredentials {
		t.Fatalf("expected invalid_credentials for unknown user, got %v", err)
	}

	if _, err := env.auth.SignupTeacher(t.Context(), SignupTeacherInput{
		Username:   "mrs-honey",
		Email:      "honey@example.com",
		Password:   "matilda",
		AccessCode: "chalkboard",
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := env.auth.Login(t.Context(), "mrs-honey", "wrong", "", ""); apperr.CodeOf(err) != apperr.CodeInvalidCredentials {
		t.Fatalf("expected invalid_credentials for wrong password, got %v", err)
	}
}

func TestLogin_SanitizesRedirect(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.auth.SignupTeacher(t.Context(), SignupTeacherInput{
		Username:   "mr-garrison",
		Email:      "garrison@example.com",
		Password:   "mkay",
		AccessCode: "chalkboard",
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	cases := []struct {
		target string
		want   string
	}{
		{"/teacher/quests", "/teacher/quests"},
		{"https://evil.example", "/teacher/classes"},
		{"//evil.example", "/teacher/classes"},
		{"/student/character", "/teacher/classes"},
	}
	for _, tc := range cases {
		result, err := env.auth.Login(t.Context(), "mr-garrison", "mkay", tc.target, "")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if result.Redirect != tc.want {
			t.Fatalf("redirect %q: expected %q, got %q", tc.target, tc.want, result.Redirect)
		}
	}
}

func TestParseToken_RejectsGarbage(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.auth.ParseToken("not-a-token"); apperr.KindOf(err) != apperr.KindPermission {
		t.Fatalf("expected permission error, got %v", err)
	}
}
