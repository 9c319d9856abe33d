package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/scheduling"
)

// UserStore is the repository slice the auth endpoints need.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*scheduling.User, error)
	CreateUser(ctx context.Context, u scheduling.User) (*scheduling.User, error)
}

// registerHandler creates patient accounts. Doctor and admin accounts
// are provisioned out of band (see cmd/seed).
func registerHandler(users UserStore, issuer *auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "email, password, first name, and last name are required")
			return
		}
		if len(req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "registration failed")
			return
		}

		user, err := users.CreateUser(r.Context(), scheduling.User{
			ID:           uuid.New(),
			Email:        req.Email,
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Phone:        req.Phone,
			Role:         scheduling.RolePatient,
		})
		if err != nil {
			if errors.Is(err, scheduling.ErrEmailTaken) {
				writeError(w, http.StatusConflict, "email_taken", "an account with this email already exists")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "registration failed")
			return
		}

		token, err := issuer.Issue(user.ID, user.Role)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "registration failed")
			return
		}

		writeSuccess(w, http.StatusCreated, "Account created successfully", AuthResponse{
			Token: token,
			User:  toUserResponse(user),
		})
	}
}

func loginHandler(users UserStore, issuer *auth.TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "email and password are required")
			return
		}

		user, err := users.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			// Same response for unknown email and wrong password.
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}
		if !user.IsActive {
			writeError(w, http.StatusUnauthorized, "account_deactivated", "account is deactivated")
			return
		}
		if !auth.CheckPassword(req.Password, user.PasswordHash) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
			return
		}

		token, err := issuer.Issue(user.ID, user.Role)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "login failed")
			return
		}

		writeSuccess(w, http.StatusOK, "Login successful", AuthResponse{
			Token: token,
			User:  toUserResponse(user),
		})
	}
}

func toUserResponse(u *scheduling.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
	}
}
