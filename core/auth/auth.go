// Package auth provides session-based authentication: signup/login/logout
// handlers plus the middleware that loads the session and exposes the actor's
// identity as request-scoped claims. Credential verification beyond the
// session itself (oauth, SSO) belongs to an external provider.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/educast/catalog/api/web"
	"github.com/educast/catalog/api/weberr"
	"github.com/educast/catalog/core/claims"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

// LoadAndSave adapts the session manager's http middleware to the web.Handler
// signature so it can sit in the standard middleware chain.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			hd := func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}

			session.LoadAndSave(http.HandlerFunc(hd)).ServeHTTP(w, r)
			return err
		}
		return h
	}
	return m
}

// Authenticate requires a logged-in session and stores the actor's identity
// in the context claims.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			clm := claims.Claims{
				UserID: userID,
				Role:   session.GetString(ctx, roleKey),
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Instructor requires an authenticated session whose role claim is
// instructor. The store-level instructor check in course creation still runs
// on top of this.
func Instructor(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			role := session.GetString(ctx, roleKey)
			if role != claims.RoleInstructor {
				err := errors.New("user is not an instructor")
				return weberr.NewError(err, err.Error(), http.StatusForbidden)
			}

			clm := claims.Claims{UserID: userID, Role: role}
			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}
