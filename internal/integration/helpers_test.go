package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/teamhubhq/teamhub/internal/app"
	"github.com/teamhubhq/teamhub/internal/auth"
	"github.com/teamhubhq/teamhub/internal/config"
)

type errorEnvelope struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

type successEnvelope struct {
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// newTestServer spins up the full router against a throwaway database and an
// in-process Redis.
func newTestServer(t *testing.T) (*httptest.Server, *pgxpool.Pool) {
	t.Helper()

	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Env:                       "dev",
		HTTPAddr:                  ":0",
		BaseURL:                   "http://localhost",
		DBDSN:                     "unused",
		RedisURL:                  "unused",
		JWTSecret:                 "test-secret",
		LogLevel:                  "error",
		RateLimitRPM:              1000,
		SessionDays:               7,
		NotificationRetentionDays: 30,
	}

	srv := httptest.NewServer(app.NewRouter(pool, rdb, cfg))
	t.Cleanup(srv.Close)

	return srv, pool
}

func newCSRFClient(t *testing.T, serverURL string) (*http.Client, string) {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	baseURL, err := url.Parse(serverURL)
	require.NoError(t, err)

	csrfToken, err := auth.GenerateCSRFToken()
	require.NoError(t, err)
	jar.SetCookies(baseURL, []*http.Cookie{{
		Name:  auth.CSRFCookieName,
		Value: csrfToken,
		Path:  "/",
	}})

	return client, csrfToken
}

func doJSON(t *testing.T, client *http.Client, method, target, csrfToken string, expectStatus int, body any) json.RawMessage {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if csrfToken != "" {
		req.Header.Set("X-CSRF-Token", csrfToken)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, expectStatus, resp.StatusCode, "unexpected status for %s %s: %s", method, target, string(raw))

	var env successEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env.Data
}

func doJSONExpectError(t *testing.T, client *http.Client, method, target, csrfToken string, expectStatus int, body any) errorEnvelope {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if csrfToken != "" {
		req.Header.Set("X-CSRF-Token", csrfToken)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, expectStatus, resp.StatusCode, "unexpected status for %s %s: %s", method, target, string(raw))

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func registerAndLogin(t *testing.T, client *http.Client, serverURL, csrfToken, username, email, password string) uuid.UUID {
	t.Helper()

	data := doJSON(t, client, http.MethodPost, serverURL+"/api/v1/auth/register", csrfToken, http.StatusCreated, map[string]any{
		"username": username,
		"email":    email,
		"password": password,
	})

	var registered struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(data, &registered))

	doJSON(t, client, http.MethodPost, serverURL+"/api/v1/auth/login", csrfToken, http.StatusOK, map[string]any{
		"username": username,
		"password": password,
	})

	return registered.User.ID
}

func createOrg(t *testing.T, client *http.Client, serverURL, csrfToken, name string) uuid.UUID {
	t.Helper()

	data := doJSON(t, client, http.MethodPost, serverURL+"/api/v1/orgs", csrfToken, http.StatusCreated, map[string]any{
		"name": name,
	})

	var created struct {
		Org struct {
			ID uuid.UUID `json:"id"`
		} `json:"org"`
	}
	require.NoError(t, json.Unmarshal(data, &created))
	return created.Org.ID
}

func listNotificationMessages(t *testing.T, client *http.Client, serverURL string) []string {
	t.Helper()

	data := doJSON(t, client, http.MethodGet, serverURL+"/api/v1/notifications", "", http.StatusOK, nil)

	var listed struct {
		Notifications []struct {
			Message string `json:"message"`
			IsRead  bool   `json:"is_read"`
		} `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(data, &listed))

	var messages []string
	for _, n := range listed.Notifications {
		messages = append(messages, n.Message)
	}
	return messages
}
