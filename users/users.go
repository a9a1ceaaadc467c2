package users

import (
	"errors"
	"log"
	"net/http"

	"keyboardquipo/auth"
	"keyboardquipo/db"
	"keyboardquipo/models"
	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	store  db.UserStore
	issuer *auth.Issuer
}

func NewHandler(store db.UserStore, issuer *auth.Issuer) *Handler {
	return &Handler{store: store, issuer: issuer}
}

type upsertResponse struct {
	Result models.UpdateResult `json:"result"`
	Token  string              `json:"token"`
}

// GET /user
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		utils.RespondWithStoreError(w, "ListUsers", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, users)
}

// PUT /user/:email creates or refreshes the user and issues a session token.
// An empty body is accepted; it only makes sure the record exists.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := utils.NormalizeEmail(ps.ByName("email"))
	if email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	var upd models.UserUpdate
	if err := utils.DecodeJSON(r, &upd); err != nil && !errors.Is(err, utils.ErrEmptyBody) {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid user")
		return
	}

	res, err := h.store.UpsertUser(r.Context(), email, upd)
	if err != nil {
		utils.RespondWithStoreError(w, "UpsertUser", err)
		return
	}

	token, err := h.issuer.Sign(email)
	if err != nil {
		log.Printf("Upsert: sign token for %s, err=%v", email, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, upsertResponse{Result: res, Token: token})
}

// GET /admin/:email. Unknown users are simply not admins.
func (h *Handler) IsAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := h.store.FindUserByEmail(r.Context(), utils.NormalizeEmail(ps.ByName("email")))
	if err != nil {
		utils.RespondWithStoreError(w, "FindUserByEmail", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"admin": user.IsAdmin()})
}

// PUT /user/admin/:email (admin)
func (h *Handler) MakeAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email := utils.NormalizeEmail(ps.ByName("email"))
	res, err := h.store.SetRole(r.Context(), email, models.RoleAdmin)
	if err != nil {
		utils.RespondWithStoreError(w, "SetRole", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
