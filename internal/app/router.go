package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/teamhubhq/teamhub/internal/account"
	"github.com/teamhubhq/teamhub/internal/apperrors"
	"github.com/teamhubhq/teamhub/internal/audit"
	"github.com/teamhubhq/teamhub/internal/auth"
	"github.com/teamhubhq/teamhub/internal/chat"
	"github.com/teamhubhq/teamhub/internal/chatrooms"
	"github.com/teamhubhq/teamhub/internal/config"
	"github.com/teamhubhq/teamhub/internal/contacts"
	"github.com/teamhubhq/teamhub/internal/labels"
	"github.com/teamhubhq/teamhub/internal/notify"
	"github.com/teamhubhq/teamhub/internal/orgs"
	"github.com/teamhubhq/teamhub/internal/tasks"
)

// NewRouter creates and configures the Chi router with all middleware and routes
func NewRouter(pool *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	isProduction := !cfg.IsDev()

	r.Use(middleware.RealIP)
	r.Use(apperrors.RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(auth.Middleware(cfg.JWTSecret))

	// Audit writer (shared across API routes)
	auditor := audit.NewWriter(pool)

	// Health check routes (no authentication required)
	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", handleReadyz(pool, rdb))

	// API routes - Authentication
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware)

		r.Post("/register", auth.HandleRegister(pool, auditor))
		r.With(LoginRateLimitMiddleware()).Post("/login", auth.HandleLogin(pool, auditor, cfg.JWTSecret, cfg.SessionDays, isProduction))
		r.With(auth.RequireAuth).Post("/logout", auth.HandleLogout())
	})

	// API routes - Account (require authentication)
	r.Route("/api/v1/account", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware)
		r.Use(auth.RequireAuth)
		r.Use(APIRateLimitMiddleware(cfg.RateLimitRPM))

		r.Get("/", account.HandleGet(pool))
		r.Put("/", account.HandleUpdate(pool))
		r.Delete("/", account.HandleDelete(pool, auditor))
	})

	// API routes - Notifications (require authentication, owner-scoped)
	r.Route("/api/v1/notifications", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware)
		r.Use(auth.RequireAuth)
		r.Use(APIRateLimitMiddleware(cfg.RateLimitRPM))

		r.Get("/", notify.HandleList(pool))
		r.Patch("/", notify.HandleMarkAllRead(pool))
		r.Patch("/{notification_id}", notify.HandleMarkRead(pool))
		r.Delete("/{notification_id}", notify.HandleDelete(pool))
	})

	// API routes - Organizations and nested resources (require authentication)
	r.Route("/api/v1/orgs", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(CSRFMiddleware)
		r.Use(auth.RequireAuth)
		r.Use(APIRateLimitMiddleware(cfg.RateLimitRPM))

		// Organization CRUD
		r.Post("/", orgs.HandleCreate(pool, auditor))
		r.Get("/", orgs.HandleList(pool))
		r.Get("/{org_id}", orgs.HandleGet(pool))
		r.Get("/{org_id}/role", orgs.HandleGetRole(pool))
		r.Get("/{org_id}/membership", orgs.HandleCheckMembership(pool))

		// Organization members
		r.Get("/{org_id}/members", orgs.HandleListMembers(pool))
		r.Post("/{org_id}/members", orgs.HandleAddMember(pool, auditor))
		r.Put("/{org_id}/members/{user_id}", orgs.HandleUpdateMember(pool, auditor))
		r.Delete("/{org_id}/members/{user_id}", orgs.HandleRemoveMember(pool, auditor))

		// Labels
		r.Get("/{org_id}/labels", labels.HandleList(pool))
		r.Post("/{org_id}/labels", labels.HandleCreate(pool))
		r.Delete("/{org_id}/labels/{label_id}", labels.HandleDelete(pool))

		// Chatrooms
		r.Get("/{org_id}/chatrooms", chatrooms.HandleList(pool))
		r.Post("/{org_id}/chatrooms", chatrooms.HandleCreate(pool))
		r.Get("/{org_id}/chatrooms/{chatroom_id}", chatrooms.HandleGet(pool))
		r.Patch("/{org_id}/chatrooms/{chatroom_id}", chatrooms.HandleUpdate(pool))
		r.Delete("/{org_id}/chatrooms/{chatroom_id}", chatrooms.HandleDelete(pool, auditor))
		r.Get("/{org_id}/chatrooms/{chatroom_id}/members", chatrooms.HandleMembers(pool))

		// Chat messages
		r.Get("/{org_id}/chatrooms/{chatroom_id}/messages", chat.HandleHistory(pool, rdb))
		r.Post("/{org_id}/chatrooms/{chatroom_id}/messages", chat.HandleSend(pool, rdb))

		// Contacts
		r.Get("/{org_id}/contacts", contacts.HandleList(pool))
		r.Post("/{org_id}/contacts", contacts.HandleCreate(pool))
		r.Get("/{org_id}/contacts/{contact_id}", contacts.HandleGet(pool))
		r.Patch("/{org_id}/contacts/{contact_id}", contacts.HandleUpdate(pool))
		r.Delete("/{org_id}/contacts/{contact_id}", contacts.HandleDelete(pool))

		// Tasks
		r.Get("/{org_id}/tasks", tasks.HandleList(pool))
		r.Post("/{org_id}/tasks", tasks.HandleCreate(pool))
		r.Get("/{org_id}/tasks/{task_id}", tasks.HandleGet(pool))
		r.Patch("/{org_id}/tasks/{task_id}", tasks.HandleUpdate(pool))
		r.Delete("/{org_id}/tasks/{task_id}", tasks.HandleDelete(pool))
		r.Post("/{org_id}/tasks/{task_id}/assign", tasks.HandleAssign(pool))
		r.Post("/{org_id}/tasks/{task_id}/unassign", tasks.HandleUnassign(pool))
	})

	return r
}

// handleHealthz returns a simple liveness check
// Always returns 200 OK if the service is running
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleReadyz returns a readiness check that includes database and Redis
// connectivity. Returns 200 OK if the service is ready, 503 if not.
func handleReadyz(pool *pgxpool.Pool, rdb *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			apperrors.WriteServiceUnavailable(w, r, "Database connection failed")
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			apperrors.WriteServiceUnavailable(w, r, "Redis connection failed")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]string{
			"status": "ready",
			"db":     "ok",
			"redis":  "ok",
		})
	}
}
