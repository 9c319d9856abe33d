package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/scheduling"
)

type stubUserStore struct {
	byEmail   map[string]*scheduling.User
	created   []scheduling.User
	createErr error
}

func (s *stubUserStore) GetUserByEmail(_ context.Context, email string) (*scheduling.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, scheduling.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserStore) CreateUser(_ context.Context, u scheduling.User) (*scheduling.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, u)
	return &u, nil
}

func testIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", time.Hour)
}

func TestRegisterCreatesPatient(t *testing.T) {
	store := &stubUserStore{}

	body := `{"email":"new@example.com","password":"longenough","firstName":"Ada","lastName":"Lovelace"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	registerHandler(store, testIssuer()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.created, 1)
	created := store.created[0]
	assert.Equal(t, scheduling.RolePatient, created.Role, "self-registration always yields a patient account")
	assert.NotEqual(t, "longenough", created.PasswordHash)

	var envelope struct {
		Data AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.Token)
	assert.Equal(t, "new@example.com", envelope.Data.User.Email)
}

func TestRegisterValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		code string
	}{
		{"missing fields", `{"email":"a@b.c"}`, "missing_fields"},
		{"short password", `{"email":"a@b.c","password":"short","firstName":"A","lastName":"B"}`, "weak_password"},
		{"not json", `{{`, "invalid_request_body"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			registerHandler(&stubUserStore{}, testIssuer()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.code)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := &stubUserStore{createErr: scheduling.ErrEmailTaken}

	body := `{"email":"dup@example.com","password":"longenough","firstName":"A","lastName":"B"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	registerHandler(store, testIssuer()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email_taken")
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("correct-password")
	require.NoError(t, err)

	user := &scheduling.User{
		ID:           uuid.New(),
		Email:        "pat@example.com",
		PasswordHash: hash,
		Role:         scheduling.RolePatient,
		IsActive:     true,
	}
	store := &stubUserStore{byEmail: map[string]*scheduling.User{user.Email: user}}
	handler := loginHandler(store, testIssuer())

	t.Run("success", func(t *testing.T) {
		body := `{"email":"pat@example.com","password":"correct-password"}`
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)

		var envelope struct {
			Data AuthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		assert.NotEmpty(t, envelope.Data.Token)

		// The token must verify against the same secret.
		got, err := testIssuer().Verify(envelope.Data.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := `{"email":"pat@example.com","password":"wrong"}`
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_credentials")
	})

	t.Run("unknown email gets the same message", func(t *testing.T) {
		body := `{"email":"nobody@example.com","password":"correct-password"}`
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_credentials")
	})

	t.Run("deactivated account", func(t *testing.T) {
		user.IsActive = false
		defer func() { user.IsActive = true }()

		body := `{"email":"pat@example.com","password":"correct-password"}`
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "account_deactivated")
	})
}
