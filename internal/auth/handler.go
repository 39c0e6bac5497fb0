package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/blogsvc/internal/apperr"
	"github.com/2beens/blogsvc/internal/middleware"
	"github.com/2beens/blogsvc/internal/telemetry/metrics"
	"github.com/2beens/blogsvc/internal/users"
	"github.com/2beens/blogsvc/pkg"
)

type Handler struct {
	service        *Service
	metricsManager *metrics.Manager
}

type AuthResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token"`
	User    users.Profile `json:"user"`
}

func NewHandler(service *Service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

func (h *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
) {
	authSubrouter := mainRouter.PathPrefix("/auth").Subrouter()
	authSubrouter.
		HandleFunc("/register", h.HandleRegister).
		Methods("POST", "OPTIONS").Name("register")
	authSubrouter.
		HandleFunc("/login", h.HandleLogin).
		Methods("POST", "OPTIONS").Name("login")

	// rate limit the auth endpoints to slow down credential stuffing
	authSubrouter.Use(middleware.RateLimit(rateLimiter, "auth", allowedPerMin, h.metricsManager))
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("register, decode request: %s", err)
		apperr.WriteError(w, r, apperr.WithMessage(apperr.ErrValidation, "Invalid request body"))
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		apperr.WriteError(w, r, err)
		return
	}

	h.metricsManager.CounterRegistrations.Inc()

	pkg.WriteJSON(w, AuthResponse{
		Message: "User registered successfully",
		Token:   res.Token,
		User:    res.User,
	}, http.StatusCreated)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("login, decode request: %s", err)
		apperr.WriteError(w, r, apperr.WithMessage(apperr.ErrValidation, "Invalid request body"))
		return
	}

	res, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidCredentials) {
			h.metricsManager.CounterFailedLogins.Inc()
			ip, _ := pkg.ReadUserIP(r)
			log.Tracef("login failed for [%s] from [%s]", users.NormalizeEmail(req.Email), ip)
		}
		apperr.WriteError(w, r, err)
		return
	}

	pkg.WriteJSON(w, AuthResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    res.User,
	}, http.StatusOK)
}
