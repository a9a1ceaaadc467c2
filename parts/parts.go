package parts

import (
	"net/http"

	"keyboardquipo/db"
	"keyboardquipo/models"
	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	store db.PartStore
}

func NewHandler(store db.PartStore) *Handler {
	return &Handler{store: store}
}

// GET /part
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	parts, err := h.store.ListParts(r.Context())
	if err != nil {
		utils.RespondWithStoreError(w, "ListParts", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, parts)
}

// GET /part/:id. An unknown id yields a null body.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	part, err := h.store.GetPart(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithStoreError(w, "GetPart", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, part)
}

// POST /part (admin)
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var part models.Part
	if err := utils.DecodeJSON(r, &part); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid part")
		return
	}
	res, err := h.store.InsertPart(r.Context(), &part)
	if err != nil {
		utils.RespondWithStoreError(w, "InsertPart", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// PUT /part/:id overwrites the supplied fields, creating the part if needed.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var upd models.PartUpdate
	if err := utils.DecodeJSON(r, &upd); err != nil || upd.Empty() {
		utils.RespondWithError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	res, err := h.store.UpsertPart(r.Context(), ps.ByName("id"), upd)
	if err != nil {
		utils.RespondWithStoreError(w, "UpsertPart", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// DELETE /part/:id (admin). Deleting a missing part reports deletedCount 0.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.store.DeletePart(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithStoreError(w, "DeletePart", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
