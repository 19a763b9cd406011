package http

import (
	"log/slog"
	"net/http"

	"eventregistration/internal/delivery/http/controllers"
	"eventregistration/internal/delivery/http/middleware"
	"eventregistration/internal/domain"

	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps holds everything NewRouter needs to build the application routes.
type RouterDeps struct {
	Logger         *slog.Logger
	Verifier       domain.TokenVerifier
	Events         domain.EventService
	Reservations   domain.ReservationService
	Simulator      domain.Simulator
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes and wraps it with
// chi request ids and panic recovery, request logging and CORS.
func NewRouter(deps RouterDeps) http.Handler {
	eventController := controllers.NewEventController(deps.Logger, deps.Events)
	organizerController := controllers.NewOrganizerController(deps.Logger, deps.Events)
	registrationController := controllers.NewRegistrationController(deps.Logger, deps.Reservations)
	adminController := controllers.NewAdminController(deps.Logger, deps.Simulator)

	auth := middleware.RequireAuth(deps.Verifier, deps.Logger)
	organizer := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleOrganizer, domain.RoleAdmin)(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleAdmin)(h))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", controllers.Health)

	// Events
	mux.HandleFunc("GET /events", auth(eventController.ListEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(eventController.GetEvent))

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/register", auth(registrationController.Register))
	mux.HandleFunc("POST /registrations/{registrationID}/cancel", auth(registrationController.CancelRegistration))

	// Organizer
	mux.HandleFunc("POST /organizer/events", organizer(organizerController.CreateEvent))
	mux.HandleFunc("GET /organizer/events", organizer(organizerController.ListMyEvents))
	mux.HandleFunc("POST /organizer/events/{eventID}/publish", organizer(organizerController.PublishEvent))
	mux.HandleFunc("POST /organizer/events/{eventID}/cancel", organizer(organizerController.CancelEvent))
	mux.HandleFunc("POST /organizer/events/{eventID}/complete", organizer(organizerController.CompleteEvent))
	mux.HandleFunc("GET /organizer/events/{eventID}/analytics", organizer(organizerController.EventAnalytics))

	// Admin
	mux.HandleFunc("POST /admin/events/{eventID}/simulate", admin(adminController.Simulate))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = mux
	handler = middleware.CORS(deps.AllowedOrigins)(handler)
	handler = chimw.Recoverer(handler)
	handler = middleware.LoggingMiddleware(deps.Logger, handler)
	handler = chimw.RequestID(handler)
	return handler
}
