package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/http/handlers"
	"github.com/taskhub/taskhub/internal/repo/postgres"
	"github.com/taskhub/taskhub/internal/security"
)

type fakeUsersRepo struct {
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	createFn     func(ctx context.Context, name, email, passwordHash string) (user.User, error)
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, name, email, passwordHash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, name, email, passwordHash)
	}
	return user.User{}, nil
}

type fakeIssuer struct {
	generateFn func(userID string) (string, error)
}

func (f *fakeIssuer) GenerateToken(userID string) (string, error) {
	if f.generateFn != nil {
		return f.generateFn(userID)
	}
	return "test-token", nil
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
		wantMsg        string
	}{
		{
			name: "success",
			body: `{"name": "Jane Doe", "email": "jane@example.com", "password": "password123"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, name, email, passwordHash string) (user.User, error) {
					if passwordHash == "password123" {
						t.Fatal("plaintext password reached the store")
					}
					return user.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: passwordHash}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "duplicate_email",
			body: `{"name": "John Doe", "email": "john@example.com", "password": "password123"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, name, email, passwordHash string) (user.User, error) {
					return user.User{}, postgres.ErrEmailAlreadyUsed
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantMsg:        "User already exists",
		},
		{
			name:           "invalid_email",
			body:           `{"name": "Jane", "email": "not-an-email", "password": "password123"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "short_password",
			body:           `{"name": "Jane", "email": "jane@example.com", "password": "short"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{"name": "Jane", "email": "jane@example.com", "password": "password123"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, name, email, passwordHash string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, &fakeIssuer{})
			r := setupRouter(http.MethodPost, "/api/register", h.Register)

			w := doJSON(t, r, http.MethodPost, "/api/register", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			body := decodeBody(t, w)

			if got := int(body["status"].(float64)); got != tt.wantStatusCode {
				t.Fatalf("body status %d does not echo %d", got, tt.wantStatusCode)
			}

			if tt.wantMsg != "" && body["msg"] != tt.wantMsg {
				t.Fatalf("got msg %q, want %q", body["msg"], tt.wantMsg)
			}

			if tt.wantStatusCode == http.StatusCreated {
				if body["token"] == "" || body["token"] == nil {
					t.Fatal("missing token in register response")
				}

				// the hash must never leak into the user payload
				if strings.Contains(w.Body.String(), "password") {
					t.Fatalf("password material leaked: %s", w.Body.String())
				}
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	known := user.User{
		ID:           uuid.NewString(),
		Name:         "John Doe",
		Email:        "john@example.com",
		PasswordHash: hash,
	}

	lookup := func(f *fakeUsersRepo) {
		f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
			if email == known.Email {
				return known, nil
			}
			return user.User{}, user.ErrNotFound
		}
	}

	tests := []struct {
		name           string
		body           string
		wantStatusCode int
		wantMsg        string
	}{
		{
			name:           "success",
			body:           `{"email": "john@example.com", "password": "password123"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "unknown_user",
			body:           `{"email": "nonexistent@example.com", "password": "password123"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMsg:        "User does not exist",
		},
		{
			name:           "wrong_password",
			body:           `{"email": "john@example.com", "password": "wrongpassword"}`,
			wantStatusCode: http.StatusBadRequest,
			wantMsg:        "Invalid credentials",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}
			lookup(repo)

			h := handlers.NewAuthHandler(repo, repo, &fakeIssuer{
				generateFn: func(userID string) (string, error) {
					if userID != known.ID {
						t.Fatalf("token issued for %q, want %q", userID, known.ID)
					}
					return "token-for-" + userID, nil
				},
			})

			r := setupRouter(http.MethodPost, "/api/login", h.Login)

			w := doJSON(t, r, http.MethodPost, "/api/login", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			body := decodeBody(t, w)

			if tt.wantMsg != "" && body["msg"] != tt.wantMsg {
				t.Fatalf("got msg %q, want %q", body["msg"], tt.wantMsg)
			}

			if tt.wantStatusCode == http.StatusOK {
				if body["token"] != "token-for-"+known.ID {
					t.Fatalf("got token %v", body["token"])
				}

				u := body["user"].(map[string]any)
				if u["email"] != known.Email {
					t.Fatalf("got user email %v, want %q", u["email"], known.Email)
				}
			}
		})
	}
}
