package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/powerflow/pkg/engine"
	"github.com/raterudder/powerflow/pkg/hass"
	"github.com/raterudder/powerflow/pkg/log"
	"github.com/raterudder/powerflow/pkg/metrics"
	"github.com/raterudder/powerflow/pkg/storage"
)

const authTokenCookie = "auth_token"

type contextKey string

const emailContextKey contextKey = "email"

// tokenVerifier is a function that validates a Google or Apple ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server serves computed frames and card configuration over HTTP.
type Server struct {
	source   hass.Source
	storage  storage.Database
	engine   *engine.Engine
	metrics  *metrics.Recorder
	sessions *sessionMap
	now      func() time.Time

	listenAddr string
	httpServer *http.Server
	location   *time.Location

	adminEmails   []string
	oidcAudiences map[string]string
	oidcVerifiers map[string]tokenVerifier
	bypassAuth    bool
	serverName    string
}

// New returns a Server without flags. It is primarily used for testing.
func New(src hass.Source, db storage.Database, rec *metrics.Recorder) *Server {
	var observer engine.Observer
	if rec != nil {
		observer = rec
	}
	return &Server{
		source:     src,
		storage:    db,
		engine:     engine.New(observer),
		metrics:    rec,
		sessions:   newSessionMap(),
		now:        time.Now,
		location:   time.Local,
		serverName: "powerflow",
	}
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(src hass.Source, db storage.Database, rec *metrics.Recorder) *Server {
	srv := New(src, db, rec)
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	adminEmails := lflag.String("admin-emails", "", "comma-delimited list of email addresses allowed to update card configuration")
	oidcAudiences := map[string]string{}
	lflag.JSON(&oidcAudiences, "oidc-audiences", oidcAudiences, "JSON map of provider (google/apple) to audience/client ID")
	bypassAuth := lflag.Bool("bypass-auth", false, "Allow configuration updates without authentication (local development only)")
	timezone := lflag.String("timezone", "Local", "Time zone used for energy date selections")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if *adminEmails != "" {
			srv.adminEmails = strings.Split(*adminEmails, ",")
			for i, email := range srv.adminEmails {
				srv.adminEmails[i] = strings.TrimSpace(email)
			}
		}
		if len(oidcAudiences) > 0 {
			srv.oidcAudiences = make(map[string]string, len(oidcAudiences))
			srv.oidcVerifiers = make(map[string]tokenVerifier, len(oidcAudiences))
			for n, a := range oidcAudiences {
				var issuer string
				switch n {
				case "google":
					issuer = "https://accounts.google.com"
				case "apple":
					issuer = "https://appleid.apple.com"
				default:
					log.Ctx(context.Background()).Error("unsupported oidc audience client", slog.String("client", n))
					os.Exit(1)
				}
				provider, err := oidc.NewProvider(context.Background(), issuer)
				if err != nil {
					log.Ctx(context.Background()).Error("failed to initialize OIDC provider", slog.String("client", n), slog.Any("error", err))
					os.Exit(1)
				}
				srv.oidcVerifiers[n] = provider.Verifier(&oidc.Config{ClientID: a}).Verify
				srv.oidcAudiences[n] = a
			}
		}
		srv.bypassAuth = *bypassAuth

		loc, err := time.LoadLocation(*timezone)
		if err != nil {
			log.Ctx(context.Background()).Error("failed to load timezone", slog.String("timezone", *timezone), slog.Any("error", err))
			os.Exit(1)
		}
		srv.location = loc
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/frame", s.handleGetFrame)
	apiMux.HandleFunc("POST /api/frame", s.handlePreviewFrame)
	apiMux.HandleFunc("GET /api/config", s.handleGetConfig)
	apiMux.HandleFunc("POST /api/config", s.requireAdmin(s.handleUpdateConfig))
	apiMux.HandleFunc("GET /api/cards", s.handleListCards)
	apiMux.HandleFunc("POST /api/auth/login", s.handleLogin)
	apiMux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	apiMux.HandleFunc("GET /api/auth/status", s.handleAuthStatus)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.logMiddleware(apiMux))
	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := log.WithAttrs(r.Context(), slog.String("reqPath", r.URL.Path))
		if cardID := r.URL.Query().Get("cardID"); cardID != "" {
			ctx = log.WithAttrs(ctx, slog.String("cardID", cardID))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
