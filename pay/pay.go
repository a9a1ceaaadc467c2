package pay

import (
	"errors"
	"log"
	"net/http"

	"keyboardquipo/stripe"
	"keyboardquipo/utils"

	"github.com/julienschmidt/httprouter"
)

// PaymentService hands out payment intents for checkout.
type PaymentService struct {
	processor stripe.Processor
	currency  string
}

func NewPaymentService(processor stripe.Processor, currency string) *PaymentService {
	return &PaymentService{processor: processor, currency: currency}
}

type intentRequest struct {
	Price float64 `json:"price"`
}

type intentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// CreatePaymentIntent handles POST /create-payment-intent.
func (p *PaymentService) CreatePaymentIntent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body intentRequest
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request")
		return
	}
	amount := stripe.ToMinorUnits(body.Price)
	if amount <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "price must be positive")
		return
	}

	secret, err := p.processor.CreatePaymentIntent(r.Context(), amount, p.currency)
	if errors.Is(err, stripe.ErrNotConfigured) {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "payments unavailable")
		return
	}
	if err != nil {
		log.Printf("CreatePaymentIntent: amount %d, buyer %s, err=%v", amount, utils.GetEmailFromRequest(r), err)
		utils.RespondWithError(w, http.StatusBadGateway, "payment processor error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, intentResponse{ClientSecret: secret})
}
