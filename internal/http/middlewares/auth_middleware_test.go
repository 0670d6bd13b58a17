package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/taskhub/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	verifyFn func(raw string) (string, error)
}

func (f *fakeVerifier) VerifyToken(raw string) (string, error) {
	if f.verifyFn != nil {
		return f.verifyFn(raw)
	}
	return "", errors.New("invalid token")
}

func protectedRouter(v middlewares.TokenVerifier) *gin.Engine {
	r := gin.New()

	mw := middlewares.NewAuthMiddleware(v)

	r.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		id, _ := middlewares.UserIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": id})
	})

	return r
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		verifier       *fakeVerifier
		wantStatusCode int
	}{
		{
			name:           "missing_header",
			header:         "",
			verifier:       &fakeVerifier{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong_scheme",
			header:         "Basic abc123",
			verifier:       &fakeVerifier{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "empty_token",
			header:         "Bearer ",
			verifier:       &fakeVerifier{},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:   "invalid_token",
			header: "Bearer bad-token",
			verifier: &fakeVerifier{
				verifyFn: func(raw string) (string, error) {
					return "", errors.New("invalid token")
				},
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:   "valid_token",
			header: "Bearer good-token",
			verifier: &fakeVerifier{
				verifyFn: func(raw string) (string, error) {
					if raw != "good-token" {
						t.Fatalf("verifier got %q", raw)
					}
					return "user-42", nil
				},
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			r := protectedRouter(tt.verifier)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)

			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			// the downstream handler must see the resolved identity
			if tt.wantStatusCode == http.StatusOK && w.Body.String() != `{"userId":"user-42"}` {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
		})
	}
}
