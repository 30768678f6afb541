package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
)

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("access-secret", time.Minute, "refresh-secret", time.Hour)
}

func TestAuthMiddleware(t *testing.T) {
	jwtManager := newTestJWTManager()
	account := &domain.Account{ID: "acc-1", Email: "jane@example.com", Roles: []domain.Role{domain.RoleUser}}

	access, err := jwtManager.IssueAccessToken(account)
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	refresh, err := jwtManager.IssueRefreshToken(account)
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		expected int
	}{
		{name: "valid token", header: "Bearer " + access, expected: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + access, expected: http.StatusOK},
		{name: "missing header", header: "", expected: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", expected: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", expected: http.StatusUnauthorized},
		{name: "refresh token used as access", header: "Bearer " + refresh, expected: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *domain.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = domain.PrincipalFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(jwtManager)(next).ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
			if tt.expected == http.StatusOK && (got == nil || got.AccountID != "acc-1") {
				t.Fatalf("expected principal acc-1, got %+v", got)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name      string
		principal *domain.Principal
		expected  int
	}{
		{name: "no principal", expected: http.StatusUnauthorized},
		{name: "user", principal: &domain.Principal{AccountID: "acc-1", Roles: []domain.Role{domain.RoleUser}}, expected: http.StatusForbidden},
		{name: "admin", principal: &domain.Principal{AccountID: "acc-1", Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}}, expected: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
			if tt.principal != nil {
				req = req.WithContext(domain.ContextWithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()

			RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}
