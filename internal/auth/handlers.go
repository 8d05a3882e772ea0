package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/teamhubhq/teamhub/internal/apperrors"
	"github.com/teamhubhq/teamhub/internal/audit"
	"github.com/teamhubhq/teamhub/internal/validation"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public representation of a user account
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// HandleRegister processes user registration
func HandleRegister(pool *pgxpool.Pool, auditor *audit.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Username = validation.NormalizeUsername(req.Username)
		req.Email = strings.TrimSpace(req.Email)

		if req.Username == "" || req.Email == "" || req.Password == "" {
			apperrors.WriteBadRequest(w, r, "All fields are required")
			return
		}
		if err := validation.ValidateUsername(req.Username); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		if err := validation.ValidateEmail(req.Email); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}
		if err := validation.ValidatePassword(req.Password); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		passwordHash, err := HashPassword(req.Password)
		if err != nil {
			log.Error().Err(err).Msg("Failed to hash password")
			apperrors.WriteInternalError(w, r, "Failed to create account")
			return
		}

		var userID uuid.UUID
		query := `
			INSERT INTO users (username, email, password_hash)
			VALUES ($1, $2, $3)
			RETURNING id
		`

		err = pool.QueryRow(r.Context(), query, req.Username, req.Email, passwordHash).Scan(&userID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
				apperrors.WriteConflict(w, r, "Username or email already registered")
				return
			}

			log.Error().Err(err).Str("email", req.Email).Msg("Failed to insert user")
			apperrors.WriteInternalError(w, r, "Failed to create account")
			return
		}

		if err := auditor.LogUserRegistered(r.Context(), userID, req.Email); err != nil {
			log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create audit log")
			// Don't fail the registration if the audit log write fails
		}

		log.Info().
			Str("user_id", userID.String()).
			Str("username", req.Username).
			Msg("User registered successfully")

		apperrors.WriteSuccess(w, r, http.StatusCreated, map[string]any{
			"user": UserResponse{
				ID:       userID,
				Username: req.Username,
				Email:    req.Email,
			},
		})
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin processes user authentication
func HandleLogin(pool *pgxpool.Pool, auditor *audit.Writer, jwtSecret string, sessionDays int, isProduction bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperrors.WriteBadRequest(w, r, "Invalid request body")
			return
		}

		req.Username = validation.NormalizeUsername(req.Username)
		if req.Username == "" || req.Password == "" {
			apperrors.WriteUnauthorized(w, r, "Invalid credentials")
			return
		}

		var userID uuid.UUID
		var email, passwordHash string
		query := `SELECT id, email, password_hash FROM users WHERE username = $1`

		err := pool.QueryRow(r.Context(), query, req.Username).Scan(&userID, &email, &passwordHash)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// User not found - return the same generic error as a
				// password mismatch so usernames cannot be probed
				log.Debug().Str("username", req.Username).Msg("Login failed: user not found")
				if err := auditor.LogLoginFailed(r.Context(), req.Username); err != nil {
					log.Error().Err(err).Msg("Failed to create audit log")
				}
				apperrors.WriteUnauthorized(w, r, "Invalid credentials")
				return
			}
			log.Error().Err(err).Str("username", req.Username).Msg("Failed to query user")
			apperrors.WriteInternalError(w, r, "Login failed")
			return
		}

		if err := VerifyPassword(passwordHash, req.Password); err != nil {
			log.Debug().Str("username", req.Username).Msg("Login failed: wrong password")
			if err := auditor.LogLoginFailed(r.Context(), req.Username); err != nil {
				log.Error().Err(err).Msg("Failed to create audit log")
			}
			apperrors.WriteUnauthorized(w, r, "Invalid credentials")
			return
		}

		token, err := CreateToken(userID, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		SetSessionCookie(w, token, sessionDays, isProduction)

		// Issue a CSRF token alongside the session for mutating requests
		csrfToken, err := GenerateCSRFToken()
		if err != nil {
			log.Error().Err(err).Msg("Failed to generate CSRF token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}
		SetCSRFCookie(w, csrfToken, isProduction)

		log.Info().
			Str("user_id", userID.String()).
			Str("username", req.Username).
			Msg("User logged in successfully")

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": UserResponse{
				ID:       userID,
				Username: req.Username,
				Email:    email,
			},
		})
	}
}

// HandleLogout processes user logout
func HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ClearSessionCookie(w)

		userID := GetUserID(r.Context())
		if userID != uuid.Nil {
			log.Info().Str("user_id", userID.String()).Msg("User logged out")
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"logged_out": true,
		})
	}
}
