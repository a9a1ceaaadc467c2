package routes

import "github.com/julienschmidt/httprouter"

func RoutesWrapper(router *httprouter.Router, app *App) {
	AddMiscRoutes(router, app)
	AddPartRoutes(router, app)
	AddBookingRoutes(router, app)
	AddUserRoutes(router, app)
	AddReviewRoutes(router, app)
	AddProfileRoutes(router, app)
	AddPayRoutes(router, app)
}

// NewRouter returns a router with every route registered.
func NewRouter(app *App) *httprouter.Router {
	router := httprouter.New()
	RoutesWrapper(router, app)
	return router
}
