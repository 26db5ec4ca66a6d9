package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cunhadas/cadastro-api/internal/auth"
	"github.com/cunhadas/cadastro-api/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) VerifyToken(token string) (*auth.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		verifier   *fakeVerifier
		wantStatus int
	}{
		{
			name:       "missing_header",
			header:     "",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "not_bearer",
			header:     "Basic abc123",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "blank_token",
			header:     "Bearer ",
			verifier:   &fakeVerifier{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid_or_expired",
			header:     "Bearer bad-token",
			verifier:   &fakeVerifier{err: errors.New("token is expired")},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "valid",
			header: "Bearer good-token",
			verifier: &fakeVerifier{claims: &auth.Claims{
				UserID: 7,
				Email:  "a@b.com",
				Perfil: "usuario",
			}},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			m := middlewares.NewAuthMiddleware(tt.verifier)

			r := gin.New()
			r.GET("/protected", m.RequireAuth(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)

			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	verifier := &fakeVerifier{claims: &auth.Claims{
		UserID: 99,
		Email:  "admin@cunhadas.com",
		Perfil: "admin",
	}}

	m := middlewares.NewAuthMiddleware(verifier)

	var (
		gotID     int64
		gotEmail  string
		gotPerfil string
	)

	r := gin.New()
	r.GET("/whoami", m.RequireAuth(), func(c *gin.Context) {
		gotID, _ = middlewares.UserIDFromContext(c)
		gotEmail, _ = middlewares.EmailFromContext(c)
		gotPerfil, _ = middlewares.PerfilFromContext(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if gotID != 99 || gotEmail != "admin@cunhadas.com" || gotPerfil != "admin" {
		t.Fatalf("identity not propagated: id=%d email=%q perfil=%q", gotID, gotEmail, gotPerfil)
	}
}
