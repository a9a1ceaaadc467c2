package routes

import (
	"fmt"
	"net/http"

	"keyboardquipo/middleware"
	"keyboardquipo/pay"

	"github.com/julienschmidt/httprouter"
)

func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "Hello Keyboardquipo!")
}

func Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddMiscRoutes(router *httprouter.Router, app *App) {
	router.GET("/", Index)
	router.GET("/health", Health)
}

func AddPartRoutes(router *httprouter.Router, app *App) {
	admin := middleware.Chain(app.Guard.Authenticate, app.Guard.RequireAdmin)

	router.GET("/part", app.Parts.List)
	router.GET("/part/:id", app.Parts.Get)
	router.POST("/part", admin(app.Parts.Create))
	router.PUT("/part/:id", app.Parts.Update)
	router.DELETE("/part/:id", admin(app.Parts.Delete))
}

func AddBookingRoutes(router *httprouter.Router, app *App) {
	authed := app.Guard.Authenticate

	router.GET("/booking", authed(app.Bookings.ListByBuyer))
	router.POST("/booking", app.RateLimiter.Limit(app.Bookings.Create))
	router.GET("/booking/:id", authed(app.Bookings.Get))
	router.PATCH("/booking/:id", authed(app.Bookings.MarkPaid))
	router.DELETE("/booking/:id", authed(app.Bookings.Delete))
	router.GET("/booking/:id/receipt", authed(app.Bookings.Receipt))

	router.GET("/ws/booking", app.Bookings.Live)
}

func AddUserRoutes(router *httprouter.Router, app *App) {
	makeAdmin := middleware.Chain(app.Guard.Authenticate, app.Guard.RequireAdmin)(app.Users.MakeAdmin)

	router.GET("/user", app.Guard.Authenticate(app.Users.List))
	router.PUT("/user/:email", app.RateLimiter.Limit(app.Users.Upsert))
	// httprouter cannot hold a static "admin" segment beside :email, so
	// PUT /user/admin/:email is matched here and dispatched by hand.
	router.PUT("/user/:email/:target", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if ps.ByName("email") != "admin" {
			http.NotFound(w, r)
			return
		}
		makeAdmin(w, r, httprouter.Params{{Key: "email", Value: ps.ByName("target")}})
	})
	router.GET("/admin/:email", app.RateLimiter.Limit(app.Users.IsAdmin))
}

func AddReviewRoutes(router *httprouter.Router, app *App) {
	router.GET("/review", app.Reviews.List)
	router.POST("/review", app.Guard.Authenticate(app.Reviews.Create))
}

func AddProfileRoutes(router *httprouter.Router, app *App) {
	router.POST("/profile", app.RateLimiter.Limit(app.Profiles.Create))
	router.GET("/profile/:id", app.Profiles.Get)
}

func AddPayRoutes(router *httprouter.Router, app *App) {
	router.POST("/create-payment-intent",
		middleware.Chain(
			app.Guard.Authenticate,
			pay.Idempotency(app.Idempotency),
		)(app.Payments.CreatePaymentIntent),
	)
}
