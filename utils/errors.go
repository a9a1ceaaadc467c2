package utils

import (
	"errors"
	"log"
	"net/http"

	"keyboardquipo/db"
)

// RespondWithStoreError maps a store failure to a response. Malformed ids
// and reused transaction ids are the caller's fault; anything else is
// logged and reported as 500.
func RespondWithStoreError(w http.ResponseWriter, where string, err error) {
	if errors.Is(err, db.ErrInvalidID) {
		RespondWithError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if errors.Is(err, db.ErrTransactionUsed) {
		RespondWithError(w, http.StatusConflict, "transactionId already used by another booking")
		return
	}
	log.Printf("%s: err=%v", where, err)
	RespondWithError(w, http.StatusInternalServerError, "internal error")
}
