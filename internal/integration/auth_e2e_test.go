package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestE2E_RegistrationConflicts_And_GenericLoginErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	client, csrfToken := newCSRFClient(t, srv.URL)

	password := "password123"
	registerAndLogin(t, client, srv.URL, csrfToken, "carol", "carol@example.com", password)

	// Registering the same email under a different username conflicts.
	{
		errEnv := doJSONExpectError(t, client, http.MethodPost, srv.URL+"/api/v1/auth/register", csrfToken, http.StatusConflict, map[string]any{
			"username": "carol2",
			"email":    "carol@example.com",
			"password": password,
		})
		require.Equal(t, "conflict", errEnv.Error.Code)
		require.Equal(t, "Username or email already registered", errEnv.Error.Message)
	}

	// Same for a duplicate username with a fresh email.
	{
		errEnv := doJSONExpectError(t, client, http.MethodPost, srv.URL+"/api/v1/auth/register", csrfToken, http.StatusConflict, map[string]any{
			"username": "carol",
			"email":    "carol2@example.com",
			"password": password,
		})
		require.Equal(t, "conflict", errEnv.Error.Code)
	}

	// A wrong password and a nonexistent username must be indistinguishable
	// so account names cannot be probed through the login endpoint.
	wrongPassword := doJSONExpectError(t, client, http.MethodPost, srv.URL+"/api/v1/auth/login", csrfToken, http.StatusUnauthorized, map[string]any{
		"username": "carol",
		"password": "not-the-password",
	})
	unknownUser := doJSONExpectError(t, client, http.MethodPost, srv.URL+"/api/v1/auth/login", csrfToken, http.StatusUnauthorized, map[string]any{
		"username": "nobody-here",
		"password": password,
	})

	require.Equal(t, "unauthorized", wrongPassword.Error.Code)
	require.Equal(t, "Invalid credentials", wrongPassword.Error.Message)
	require.Equal(t, wrongPassword.Error.Code, unknownUser.Error.Code)
	require.Equal(t, wrongPassword.Error.Message, unknownUser.Error.Message)
}
