package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"pharmacompare/internal/app"
	"pharmacompare/internal/ratelimit"
	"pharmacompare/internal/resolver"
	"pharmacompare/internal/util"
	"pharmacompare/pkg/auth"
	"pharmacompare/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	LoginLimiter   *ratelimit.Limiter
	SignupLimiter  *ratelimit.Limiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes the HTTP endpoints of the service.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	loginLimiter   *ratelimit.Limiter
	signupLimiter  *ratelimit.Limiter
	trustedProxies *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		loginLimiter:   cfg.LoginLimiter,
		signupLimiter:  cfg.SignupLimiter,
		trustedProxies: cfg.TrustedProxies,
	}
	s.routes()
	return s
}

// Router returns the configured handler with the middleware chain applied.
func (s *Server) Router() http.Handler {
	var handler http.Handler = s.mux
	handler = util.WithCORS(handler)
	handler = util.WithSecurityHeaders(handler)
	handler = util.WithRequestLog(handler)
	handler = util.WithRequestID(handler)
	return handler
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// catalog
	s.mux.HandleFunc("/medicines", s.handleMedicines)
	s.mux.HandleFunc("/medicines/", s.handleMedicineByID)
	s.mux.HandleFunc("/pharmacies", s.handlePharmacies)

	// users
	s.mux.HandleFunc("/users/signup", s.handleSignup)
	s.mux.HandleFunc("/users/login", s.handleLogin)
	s.mux.Handle("/users/profile", s.authenticated(s.handleProfile))
	s.mux.Handle("/users/favorites", s.authenticated(s.handleFavorites))
	s.mux.Handle("/users/favorites/", s.authenticated(s.handleFavoriteByID))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrapper
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.app.UserFromToken(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r, user)
	})
}

// catalog handlers

func (s *Server) handleMedicines(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		medicines, err := s.app.SearchMedicines(r.URL.Query().Get("search"))
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, medicines)
	case http.MethodPost:
		var req createMedicineRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		med, err := s.app.CreateMedicine(app.CreateMedicineInput{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Pharmacies:  req.Pharmacies,
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, med)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleMedicineByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/medicines/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	med, err := s.app.GetMedicine(id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, med)
}

func (s *Server) handlePharmacies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		pharmacies, err := s.app.ListPharmacies()
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		if len(pharmacies) == 0 {
			writeError(w, http.StatusNotFound, "no pharmacies found")
			return
		}
		writeJSON(w, http.StatusOK, pharmacies)
	case http.MethodPost:
		var req createPharmacyRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		pharmacy, err := s.app.CreatePharmacy(app.CreatePharmacyInput{
			Name:      req.Name,
			Address:   req.Address,
			Medicines: req.Medicines,
		})
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, pharmacy)
	default:
		methodNotAllowed(w)
	}
}

// user handlers

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allow(s.signupLimiter, r) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	var req signupRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.SignUp(req.Username, req.Email, req.Password)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allow(s.loginLimiter, r) {
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	_, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	profile, err := s.app.Profile(user.ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		favorites, err := s.app.Favorites(user.ID)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, favorites)
	case http.MethodPost:
		var req addFavoriteRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.app.AddFavorite(user.ID, req.MedicineID); err != nil {
			s.writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "medicine added to favorites"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFavoriteByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/users/favorites/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if err := s.app.RemoveFavorite(user.ID, id); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "medicine removed from favorites"})
}

func (s *Server) allow(limiter *ratelimit.Limiter, r *http.Request) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(r.Context(), util.ClientIP(r, s.trustedProxies))
}

// writeAppError maps application errors onto HTTP statuses. Unrecognized
// errors are logged and surfaced as a generic 500.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrMedicineNotFound),
		errors.Is(err, app.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrUsernameTaken),
		errors.Is(err, app.ErrEmailTaken),
		errors.Is(err, app.ErrPharmacyExists),
		errors.Is(err, app.ErrAlreadyFavorite):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrSignupFieldsRequired),
		errors.Is(err, app.ErrMedicineFieldsRequired),
		errors.Is(err, app.ErrPharmacyFieldsRequired),
		errors.Is(err, app.ErrInvalidPrice),
		errors.Is(err, app.ErrInvalidMedicineID),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, resolver.ErrUnresolvableName),
		errors.Is(err, resolver.ErrInvalidItem),
		errors.Is(err, resolver.ErrNoNames):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("internal error",
			"err", err,
			"path", r.URL.Path,
			"request_id", util.RequestIDFromRequest(r),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type createMedicineRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Pharmacies  []string `json:"pharmacies"`
}

type createPharmacyRequest struct {
	Name      string                  `json:"name"`
	Address   string                  `json:"address"`
	Medicines []resolver.MedicineItem `json:"medicines"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type addFavoriteRequest struct {
	MedicineID string `json:"medicineId"`
}

func decodeBody(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
