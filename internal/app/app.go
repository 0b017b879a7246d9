package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"pharmacompare/internal/resolver"
	"pharmacompare/internal/store"
	"pharmacompare/internal/util"
	"pharmacompare/pkg/auth"
	"pharmacompare/pkg/domain"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	SessionTTL  time.Duration

	// Store and Sessions override the defaults, mainly for tests.
	Store    store.Store
	Sessions store.SessionStore
}

// App is the core application service wiring storage, sessions, and the
// catalog link resolver together.
type App struct {
	store    store.Store
	sessions store.SessionStore
	resolver *resolver.Resolver
}

// New constructs the application with database storage and session management.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	sessions := cfg.Sessions
	if sessions == nil {
		var err error
		sessions, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("init jwt session store: %w", err)
		}
	}
	return &App{
		store:    dataStore,
		sessions: sessions,
		resolver: resolver.New(dataStore),
	}, nil
}

// SignUp registers a new user with an empty favorites list.
func (a *App) SignUp(username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || password == "" {
		return domain.User{}, ErrSignupFieldsRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, err
	}
	taken, err := a.store.HasUsername(username)
	if err != nil {
		return domain.User{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return domain.User{}, ErrUsernameTaken
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailTaken
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Favorites:    []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues a bearer token.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// UserFromToken resolves a user from a bearer token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// ProfileView is the authenticated user's profile with favorites expanded.
type ProfileView struct {
	ID        string                   `json:"id"`
	Username  string                   `json:"username"`
	Email     string                   `json:"email"`
	Favorites []domain.MedicineSummary `json:"favorites"`
}

// Profile returns the user's profile with favorite medicines expanded.
func (a *App) Profile(userID string) (ProfileView, error) {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return ProfileView{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return ProfileView{}, ErrUserNotFound
	}
	favorites, err := a.favoriteSummaries(user)
	if err != nil {
		return ProfileView{}, err
	}
	return ProfileView{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Favorites: favorites,
	}, nil
}

// Favorites returns the user's favorite medicines.
func (a *App) Favorites(userID string) ([]domain.MedicineSummary, error) {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	return a.favoriteSummaries(user)
}

func (a *App) favoriteSummaries(user domain.User) ([]domain.MedicineSummary, error) {
	res := make([]domain.MedicineSummary, 0, len(user.Favorites))
	for _, id := range user.Favorites {
		med, ok, err := a.store.GetMedicine(id)
		if err != nil {
			return nil, fmt.Errorf("fetch favorite %s: %w", id, err)
		}
		if !ok {
			continue
		}
		res = append(res, domain.MedicineSummary{
			ID:          med.ID,
			Name:        med.Name,
			Description: med.Description,
		})
	}
	return res, nil
}

// AddFavorite adds a medicine to the user's favorites.
func (a *App) AddFavorite(userID, medicineID string) error {
	if _, err := uuid.Parse(medicineID); err != nil {
		return ErrInvalidMedicineID
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	_, found, err := a.store.GetMedicine(medicineID)
	if err != nil {
		return fmt.Errorf("fetch medicine: %w", err)
	}
	if !found {
		return ErrMedicineNotFound
	}
	for _, fav := range user.Favorites {
		if fav == medicineID {
			return ErrAlreadyFavorite
		}
	}
	user.Favorites = append(user.Favorites, medicineID)
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("update favorites: %w", err)
	}
	return nil
}

// RemoveFavorite removes a medicine from the user's favorites. Removing an
// absent favorite succeeds silently.
func (a *App) RemoveFavorite(userID, medicineID string) error {
	if _, err := uuid.Parse(medicineID); err != nil {
		return ErrInvalidMedicineID
	}
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	filtered := make([]string, 0, len(user.Favorites))
	for _, fav := range user.Favorites {
		if fav != medicineID {
			filtered = append(filtered, fav)
		}
	}
	if len(filtered) == len(user.Favorites) {
		return nil
	}
	user.Favorites = filtered
	user.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveUser(user); err != nil {
		return fmt.Errorf("update favorites: %w", err)
	}
	return nil
}
