package routes

import (
	"keyboardquipo/booking"
	"keyboardquipo/middleware"
	"keyboardquipo/parts"
	"keyboardquipo/pay"
	"keyboardquipo/profile"
	"keyboardquipo/ratelim"
	"keyboardquipo/reviews"
	"keyboardquipo/users"
)

// App is everything the router needs, built once in main.
type App struct {
	Guard       *middleware.Guard
	RateLimiter *ratelim.RateLimiter
	Idempotency pay.IdempotencyStore

	Parts    *parts.Handler
	Bookings *booking.Handler
	Users    *users.Handler
	Reviews  *reviews.Handler
	Profiles *profile.Handler
	Payments *pay.PaymentService
}
