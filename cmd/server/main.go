package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/tasmee/tasmee/internal/api/http"
	"github.com/tasmee/tasmee/internal/auth"
	authmw "github.com/tasmee/tasmee/internal/auth/middleware"
	"github.com/tasmee/tasmee/internal/config"
	"github.com/tasmee/tasmee/internal/db"
	"github.com/tasmee/tasmee/internal/grading"
	"github.com/tasmee/tasmee/internal/practice"
	"github.com/tasmee/tasmee/internal/rbac"
	"github.com/tasmee/tasmee/internal/storage"
	syncx "github.com/tasmee/tasmee/internal/sync"
	"github.com/tasmee/tasmee/internal/textnorm"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	if err := db.EnsureAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("admin seed failed: %v", err)
	}

	// --- Scoring + stores ---
	engine := grading.NewEngine(grading.WithProfile(textnorm.ByName(cfg.NormProfile)))
	events := syncx.NewEventRepo(dbh)
	store := practice.NewSQLStore(dbh, cfg.DBDriver, engine, events)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Auth (local JWT; offline sites run fully self-contained) ---
	authSvc := authmw.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public surface
	r.Post("/auth/login", authmw.LoginHandler(authSvc, dbh))
	r.Post("/auth/register", auth.RegisterHandler(dbh, cfg.EnableSignup))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	// Protected API (JWT -> subject+role in context, role re-read from DB, RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))
		pr.Use(authmw.AttachRoleFromDB(dbh, false))

		pr.With(rbac.Require("chapter:view")).
			Get("/chapters", api.ListChaptersHandler(store))
		pr.With(rbac.Require("chapter:view")).
			Get("/chapters/{chapterID}", api.GetChapterHandler(store))
		pr.With(rbac.Require("chapter:manage")).
			Post("/chapters", api.PutChapterHandler(store))
		pr.With(rbac.Require("chapter:manage")).
			Post("/chapters/import", api.ImportChapterHandler(store, bs))
		pr.With(rbac.Require("chapter:manage")).
			Get("/chapters/{chapterID}/source", api.ChapterSourceHandler(bs))
		pr.With(rbac.Require("chapter:manage")).
			Delete("/chapters/{chapterID}", api.DeleteChapterHandler(store, bs))

		// Learner flow
		pr.With(rbac.Require("session:start")).
			Post("/sessions", api.StartSessionHandler(store))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions", api.ListSessionsHandler(store))
		pr.With(rbac.RequireAny("session:view-own", "session:view-all")).
			Get("/sessions/{sessionID}", api.GetSessionHandler(store))
		pr.With(rbac.Require("attempt:submit")).
			Post("/sessions/{sessionID}/attempts", api.SubmitAttemptHandler(store))
		pr.With(rbac.Require("attempt:submit")).
			Post("/sessions/{sessionID}/advance", api.AdvanceHandler(store))
		pr.With(rbac.RequireAny("report:view-own", "report:view-all")).
			Get("/sessions/{sessionID}/report", api.ReportHandler(store))

		// Users (coach/admin)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("users:manage_roles")).
			Patch("/users/{userID}/role", api.UpdateUserRoleHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Event log (coach/admin)
		pr.With(rbac.Require("audit:view")).
			Get("/audit/events", api.AuditSearchHandler(dbh))
		pr.With(rbac.Require("audit:view")).
			Get("/events", api.EventsSinceHandler(events))
	})

	log.Printf("listening on %s (mode=%s, db=%s, profile=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.NormProfile)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
