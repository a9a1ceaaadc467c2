package booking

import (
	"context"
	"log"
	"net/http"
	"time"

	"keyboardquipo/db"
	"keyboardquipo/models"
	"keyboardquipo/mq"
	"keyboardquipo/rdx"
	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
)

// lockTTL bounds how long one payment confirmation may hold a booking.
const lockTTL = 10 * time.Second

// Verifier is the slice of the auth guard the booking handlers need.
type Verifier interface {
	VerifyToken(token string) (string, error)
	IsAdmin(r *http.Request) bool
}

type Handler struct {
	store  db.BookingStore
	auth   Verifier
	locker rdx.Locker
	bus    mq.Bus
	hub    *Hub
}

func NewHandler(store db.BookingStore, auth Verifier, locker rdx.Locker, bus mq.Bus, hub *Hub) *Handler {
	return &Handler{store: store, auth: auth, locker: locker, bus: bus, hub: hub}
}

type createRequest struct {
	Buyer     string  `json:"buyer"`
	BuyerName string  `json:"buyerName"`
	PartID    string  `json:"partId"`
	PartName  string  `json:"partName"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
}

type markPaidRequest struct {
	TransactionID string   `json:"transactionId"`
	Amount        *float64 `json:"amount,omitempty"`
}

// POST /booking. Unauthenticated; paid always starts false.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body createRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid booking")
		return
	}
	if body.Buyer == "" || body.PartName == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "buyer and partName are required")
		return
	}

	b := &models.Booking{
		Buyer:     utils.NormalizeEmail(body.Buyer),
		BuyerName: body.BuyerName,
		PartID:    body.PartID,
		PartName:  body.PartName,
		Price:     body.Price,
		Quantity:  body.Quantity,
		Phone:     body.Phone,
		Address:   body.Address,
	}
	res, err := h.store.InsertBooking(r.Context(), b)
	if err != nil {
		utils.RespondWithStoreError(w, "InsertBooking", err)
		return
	}

	h.emit(r.Context(), models.EventBookingCreated, res.InsertedID, b.Buyer, "")
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /booking?buyer=email. The buyer must be the authenticated caller.
func (h *Handler) ListByBuyer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	buyer := utils.NormalizeEmail(r.URL.Query().Get("buyer"))
	if buyer == "" || buyer != utils.NormalizeEmail(utils.GetEmailFromRequest(r)) {
		utils.RespondWithMessage(w, http.StatusForbidden, "forbidden access")
		return
	}

	bookings, err := h.store.ListBookingsByBuyer(r.Context(), buyer)
	if err != nil {
		utils.RespondWithStoreError(w, "ListBookingsByBuyer", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, bookings)
}

// loadOwned fetches a booking and checks the caller may act on it. It writes
// the response and returns ok=false when the handler should stop. A missing
// booking returns (nil, true).
func (h *Handler) loadOwned(w http.ResponseWriter, r *http.Request, id, where string) (*models.Booking, bool) {
	b, err := h.store.GetBooking(r.Context(), id)
	if err != nil {
		utils.RespondWithStoreError(w, where, err)
		return nil, false
	}
	if b == nil {
		return nil, true
	}
	if b.Buyer != utils.NormalizeEmail(utils.GetEmailFromRequest(r)) && !h.auth.IsAdmin(r) {
		utils.RespondWithMessage(w, http.StatusForbidden, "forbidden access")
		return nil, false
	}
	return b, true
}

// GET /booking/:id
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, ok := h.loadOwned(w, r, ps.ByName("id"), "GetBooking")
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, b)
}

// PATCH /booking/:id records the payment and marks the booking paid.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var body markPaidRequest
	if err := utils.DecodeJSON(r, &body); err != nil || body.TransactionID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	b, ok := h.loadOwned(w, r, id, "MarkPaid")
	if !ok {
		return
	}
	if b == nil {
		utils.RespondWithJSON(w, http.StatusOK, models.UpdateResult{Acknowledged: true})
		return
	}

	release, acquired, err := h.locker.Acquire(r.Context(), "booking_lock:"+id, lockTTL)
	if err != nil {
		log.Printf("MarkPaid: lock booking %s, err=%v", id, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !acquired {
		utils.RespondWithError(w, http.StatusConflict, "payment confirmation already in progress")
		return
	}
	defer release()

	amount := b.Total()
	if body.Amount != nil {
		amount = *body.Amount
	}
	payment := &models.Payment{
		TransactionID: body.TransactionID,
		Amount:        amount,
		Buyer:         b.Buyer,
	}
	res, err := h.store.MarkBookingPaid(r.Context(), id, payment)
	if err != nil {
		utils.RespondWithStoreError(w, "MarkBookingPaid", err)
		return
	}

	if res.ModifiedCount > 0 {
		h.emit(r.Context(), models.EventBookingPaid, id, b.Buyer, body.TransactionID)
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// DELETE /booking/:id
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	b, ok := h.loadOwned(w, r, id, "DeleteBooking")
	if !ok {
		return
	}
	if b == nil {
		utils.RespondWithJSON(w, http.StatusOK, models.DeleteResult{Acknowledged: true})
		return
	}

	res, err := h.store.DeleteBooking(r.Context(), id)
	if err != nil {
		utils.RespondWithStoreError(w, "DeleteBooking", err)
		return
	}
	if res.DeletedCount > 0 {
		h.emit(r.Context(), models.EventBookingDeleted, id, b.Buyer, "")
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

func (h *Handler) emit(ctx context.Context, typ, id, buyer, txn string) {
	h.bus.Emit(context.WithoutCancel(ctx), models.Event{
		Type:          typ,
		BookingID:     id,
		Buyer:         buyer,
		TransactionID: txn,
		At:            time.Now(),
	})
}
