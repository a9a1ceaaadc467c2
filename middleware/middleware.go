package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"keyboardquipo/auth"
	"keyboardquipo/db"
	"keyboardquipo/globals"
	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
)

// Middleware wraps an httprouter handle.
type Middleware func(httprouter.Handle) httprouter.Handle

// Chain applies mws so that the first one listed runs first.
func Chain(mws ...Middleware) Middleware {
	return func(final httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}

// Guard holds what the auth and admin checks need.
type Guard struct {
	issuer *auth.Issuer
	users  db.UserStore
}

func NewGuard(issuer *auth.Issuer, users db.UserStore) *Guard {
	return &Guard{issuer: issuer, users: users}
}

// Authenticate verifies the bearer token. A missing header is 401,
// anything that fails verification is 403.
func (g *Guard) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		email, err := g.VerifyHeader(r.Header.Get("Authorization"))
		if errors.Is(err, auth.ErrMissingToken) {
			utils.RespondWithMessage(w, http.StatusUnauthorized, "UnAuthorized access")
			return
		}
		if err != nil {
			utils.RespondWithMessage(w, http.StatusForbidden, "Forbidden access")
			return
		}

		ctx := context.WithValue(r.Context(), globals.EmailKey, email)
		next(w, r.WithContext(ctx), ps)
	}
}

// VerifyHeader returns the email carried by an Authorization header value.
func (g *Guard) VerifyHeader(header string) (string, error) {
	token, err := auth.BearerToken(header)
	if err != nil {
		return "", err
	}
	return g.VerifyToken(token)
}

func (g *Guard) VerifyToken(token string) (string, error) {
	claims, err := g.issuer.Parse(token)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}

// RequireAdmin must run after Authenticate. A requester without a user
// record is treated the same as a non-admin.
func (g *Guard) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		email := utils.NormalizeEmail(utils.GetEmailFromRequest(r))
		if email == "" {
			utils.RespondWithMessage(w, http.StatusForbidden, "Forbidden access")
			return
		}

		user, err := g.users.FindUserByEmail(r.Context(), email)
		if err != nil {
			log.Printf("RequireAdmin: lookup %s, err=%v", email, err)
			utils.RespondWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !user.IsAdmin() {
			utils.RespondWithMessage(w, http.StatusForbidden, "Forbidden access")
			return
		}
		next(w, r, ps)
	}
}

// IsAdmin reports whether the authenticated requester has the admin role.
func (g *Guard) IsAdmin(r *http.Request) bool {
	email := utils.NormalizeEmail(utils.GetEmailFromRequest(r))
	if email == "" {
		return false
	}
	user, err := g.users.FindUserByEmail(r.Context(), email)
	if err != nil {
		log.Printf("IsAdmin: lookup %s, err=%v", email, err)
		return false
	}
	return user.IsAdmin()
}
