package reviews

import (
	"net/http"
	"strings"

	"keyboardquipo/db"
	"keyboardquipo/models"
	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	store db.ReviewStore
}

func NewHandler(store db.ReviewStore) *Handler {
	return &Handler{store: store}
}

type createRequest struct {
	Comment string `json:"comment"`
	Rating  int    `json:"rating"`
}

// POST /review. The author is always the caller's email.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body createRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid review")
		return
	}
	if strings.TrimSpace(body.Comment) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "comment is required")
		return
	}
	if body.Rating < 0 || body.Rating > 5 {
		utils.RespondWithError(w, http.StatusBadRequest, "rating must be between 0 and 5")
		return
	}

	review := &models.Review{
		Comment: body.Comment,
		Author:  utils.GetEmailFromRequest(r),
		Rating:  body.Rating,
	}

	res, err := h.store.InsertReview(r.Context(), review)
	if err != nil {
		utils.RespondWithStoreError(w, "InsertReview", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /review
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	reviews, err := h.store.ListReviews(r.Context())
	if err != nil {
		utils.RespondWithStoreError(w, "ListReviews", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, reviews)
}
