package profile

import (
	"net/http"

	"keyboardquipo/db"
	"keyboardquipo/models"
	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	store db.ProfileStore
}

func NewHandler(store db.ProfileStore) *Handler {
	return &Handler{store: store}
}

// POST /profile
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var p models.Profile
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid profile")
		return
	}
	p.Email = utils.NormalizeEmail(p.Email)

	res, err := h.store.InsertProfile(r.Context(), &p)
	if err != nil {
		utils.RespondWithStoreError(w, "InsertProfile", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /profile/:id. Unknown ids yield a null body.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p, err := h.store.GetProfile(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithStoreError(w, "GetProfile", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}
