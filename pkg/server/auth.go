package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/raterudder/powerflow/pkg/log"
)

// requireAdmin only lets requests through that carry an ID token, either as a
// bearer token or the auth cookie, belonging to one of the admin emails.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.bypassAuth {
			next.ServeHTTP(w, r)
			return
		}
		if len(s.oidcVerifiers) == 0 {
			log.Ctx(ctx).WarnContext(ctx, "config update rejected, no oidc audiences configured")
			writeJSONError(w, "updates disabled", http.StatusForbidden)
			return
		}

		var token string
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Ctx(ctx).ErrorContext(ctx, "invalid auth header", slog.String("header", authHeader))
				writeJSONError(w, "invalid auth header", http.StatusBadRequest)
				return
			}
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else {
			authCookie, err := r.Cookie(authTokenCookie)
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				log.Ctx(ctx).ErrorContext(ctx, "failed to get auth cookie", slog.Any("error", err))
				writeJSONError(w, "missing auth cookie", http.StatusBadRequest)
				return
			}
			if authCookie != nil {
				token = authCookie.Value
			}
		}
		if token == "" {
			log.Ctx(ctx).WarnContext(ctx, "unauthenticated request")
			writeJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		email, subject, _, err := s.authenticateToken(ctx, token, "")
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "auth token validation failed", slog.Any("error", err))
			s.clearCookie(w)
			writeJSONError(w, "invalid auth token", http.StatusUnauthorized)
			return
		}
		if email == "" || !slices.Contains(s.adminEmails, email) {
			log.Ctx(ctx).WarnContext(ctx, "user is not an admin", slog.String("email", email))
			writeJSONError(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx = log.WithAttrs(ctx, slog.String("authUserID", subject))
		ctx = context.WithValue(ctx, emailContextKey, email)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token  string `json:"token"`
		Client string `json:"client"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// since we failed to read, don't return JSON error
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	email, subject, expires, err := s.authenticateToken(r.Context(), req.Token, req.Client)
	if err != nil {
		log.Ctx(r.Context()).WarnContext(r.Context(), "failed to validate id token", slog.Any("error", err))
		writeJSONError(w, "invalid id token", http.StatusUnauthorized)
		return
	}
	if email == "" {
		log.Ctx(r.Context()).WarnContext(r.Context(), "invalid email in id token")
		writeJSONError(w, "invalid oidc claims", http.StatusUnauthorized)
		return
	}

	log.Ctx(r.Context()).InfoContext(r.Context(), "login token validated successfully", slog.String("email", email), slog.String("subject", subject))

	http.SetCookie(w, &http.Cookie{
		Name:     authTokenCookie,
		Value:    req.Token,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authTokenCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearCookie(w)
	w.WriteHeader(http.StatusOK)
}

type authStatusResponse struct {
	LoggedIn     bool              `json:"loggedIn"`
	Email        string            `json:"email"`
	Admin        bool              `json:"admin"`
	AuthRequired bool              `json:"authRequired"`
	ClientIDs    map[string]string `json:"clientIDs"`
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := authStatusResponse{
		AuthRequired: !s.bypassAuth && len(s.oidcAudiences) > 0,
		ClientIDs:    s.oidcAudiences,
	}
	if s.bypassAuth {
		resp.Admin = true
	} else if authCookie, err := r.Cookie(authTokenCookie); err == nil {
		email, _, _, err := s.authenticateToken(ctx, authCookie.Value, "")
		if err != nil {
			log.Ctx(ctx).DebugContext(ctx, "auth cookie no longer valid", slog.Any("error", err))
			s.clearCookie(w)
		} else {
			resp.LoggedIn = true
			resp.Email = email
			resp.Admin = slices.Contains(s.adminEmails, email)
		}
	}
	writeJSON(w, resp)
}

func (s *Server) authenticateToken(ctx context.Context, token string, specificClient string) (string, string, time.Time, error) {
	var errs []error

	for providerName, verifier := range s.oidcVerifiers {
		if specificClient != "" && providerName != specificClient {
			continue
		}
		idToken, err := verifier(ctx, token)
		if err == nil {
			var claims struct {
				Email string `json:"email"`
			}
			err = idToken.Claims(&claims)
			if err == nil {
				return claims.Email, idToken.Subject, idToken.Expiry, nil
			}
		}
		errs = append(errs, fmt.Errorf("%s verifier failed: %v", providerName, err))
	}

	if len(errs) > 1 {
		return "", "", time.Time{}, errors.Join(errs...)
	}
	if len(errs) == 1 {
		return "", "", time.Time{}, errs[0]
	}
	return "", "", time.Time{}, errors.New("no valid audiences configured or token invalid")
}
