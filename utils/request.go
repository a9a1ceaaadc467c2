package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"keyboardquipo/globals"
)

// maxBodyBytes caps request bodies at 1 MB.
const maxBodyBytes = 1 << 20

var ErrEmptyBody = errors.New("empty request body")

// DecodeJSON reads a size-limited JSON body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// GetEmailFromRequest returns the email placed in the context by Authenticate.
func GetEmailFromRequest(r *http.Request) string {
	email, ok := r.Context().Value(globals.EmailKey).(string)
	if !ok {
		return ""
	}
	return email
}

func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(globals.RequestIDKey).(string)
	return id
}
