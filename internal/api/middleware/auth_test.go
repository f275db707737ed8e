package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hirely/internal/platform/auth"
	"hirely/internal/platform/config"
)

func newTokenService() *auth.TokenService {
	return auth.NewTokenService(config.AuthConfig{JWTSecret: "test-jwt-secret", DevTTL: time.Hour})
}

func TestAuthMiddleware(t *testing.T) {
	tokenSvc := newTokenService()
	mw := NewAuthMiddleware(tokenSvc)

	valid, err := tokenSvc.GenerateAccessToken("usr_1", "ada@example.com", auth.RoleJobSeeker, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	expired, err := tokenSvc.GenerateAccessToken("usr_1", "ada@example.com", auth.RoleJobSeeker, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rr := httptest.NewRecorder()
			mw.Handle(func(w http.ResponseWriter, r *http.Request) {
				claims, ok := ClaimsFrom(r.Context())
				if !ok || claims.UserID() != "usr_1" {
					t.Errorf("Expected claims for usr_1, got %+v", claims)
				}
				w.WriteHeader(http.StatusOK)
			})(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tokenSvc := newTokenService()
	mw := NewAuthMiddleware(tokenSvc)
	handler := mw.Handle(RequireRole(auth.RoleJobSeeker)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		role       string
		wantStatus int
	}{
		{auth.RoleJobSeeker, http.StatusOK},
		{auth.RoleRecruiter, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			token, _ := tokenSvc.GenerateAccessToken("usr_1", "ada@example.com", tt.role, time.Hour)
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)

			rr := httptest.NewRecorder()
			handler(rr, req)
			if rr.Code != tt.wantStatus {
				t.Errorf("got %v want %v", rr.Code, tt.wantStatus)
			}
		})
	}

	t.Run("no claims", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RequireRole(auth.RoleRecruiter)(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run")
		})(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})
}
