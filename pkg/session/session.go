package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gopass/dashboard/pkg/transit"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("admin role required")
)

// AuthAPI is the part of the REST service the session talks to
type AuthAPI interface {
	Login(ctx context.Context, credentials transit.LoginCredentials) (*transit.AuthResponse, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, update transit.ProfileUpdate) (*transit.User, error)
}

// Session holds the operator credentials and current user. It is created once per process,
// hydrated from the persister on start and handed to everything that needs to call the API.
type Session struct {
	api       AuthAPI
	store     Persister
	validator TokenValidator

	mutex  sync.RWMutex
	user   *transit.User
	tokens *transit.AuthTokens
}

func New(api AuthAPI, store Persister, validator TokenValidator) *Session {
	return &Session{
		api:       api,
		store:     store,
		validator: validator,
	}
}

// Hydrate restores the session from the persister. Incomplete or unreadable state leaves the
// session anonymous, only a failing persister is reported as an error.
func (s *Session) Hydrate(ctx context.Context) error {
	stored, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading stored session: %w", err)
	}

	if !stored.IsComplete() {
		s.reset()
		return nil
	}

	var user transit.User
	if err := json.Unmarshal([]byte(stored.User), &user); err != nil {
		log.Error().Err(err).Msg("Load stored auth error")
		s.reset()
		return nil
	}

	if s.validator != nil {
		if _, err := s.validator.ValidateToken(ctx, stored.AccessToken); err != nil {
			log.Warn().Err(err).Msg("Stored access token rejected, discarding session")
			s.reset()
			return s.store.Clear(ctx)
		}
	}

	s.mutex.Lock()
	s.user = &user
	s.tokens = &transit.AuthTokens{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
	}
	s.mutex.Unlock()

	log.Info().Str("user", user.Email).Msg("Restored session")

	return nil
}

func (s *Session) Login(ctx context.Context, email string, password string) (*transit.User, error) {
	response, err := s.api.Login(ctx, transit.LoginCredentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, response.User, response.Tokens); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	user := response.User
	tokens := response.Tokens
	s.user = &user
	s.tokens = &tokens
	s.mutex.Unlock()

	log.Info().Str("user", user.Email).Str("role", string(user.Role)).Msg("Logged in")

	return s.User(), nil
}

// Logout tells the service about the logout but always clears local state, whatever it says
func (s *Session) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		log.Error().Err(err).Msg("Logout error")
	}

	return s.clear(ctx)
}

// Clear drops the session without calling the service, used when the service rejects the
// credentials
func (s *Session) Clear(ctx context.Context) {
	if err := s.clear(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to clear stored session")
	}
}

func (s *Session) UpdateProfile(ctx context.Context, update transit.ProfileUpdate) (*transit.User, error) {
	if !s.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	user, err := s.api.UpdateProfile(ctx, update)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	if s.tokens == nil {
		s.mutex.Unlock()
		return nil, ErrNotAuthenticated
	}
	tokens := *s.tokens
	s.user = user
	s.mutex.Unlock()

	if err := s.persist(ctx, *user, tokens); err != nil {
		return nil, err
	}

	return s.User(), nil
}

// User returns a copy of the current user, nil when anonymous
func (s *Session) User() *transit.User {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.user == nil {
		return nil
	}

	user := *s.user
	return &user
}

func (s *Session) IsAuthenticated() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.user != nil && s.tokens != nil
}

func (s *Session) AccessToken() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.tokens == nil {
		return ""
	}

	return s.tokens.AccessToken
}

// RequireAdmin is the role check guarding every dashboard page
func (s *Session) RequireAdmin() error {
	user := s.User()

	if user == nil || !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	if !user.IsAdmin() {
		return ErrForbidden
	}

	return nil
}

// Authorize checks a caller presenting token. Only the holder of the operator's access token
// gets through, and only while the operator is an admin.
func (s *Session) Authorize(token string) error {
	accessToken := s.AccessToken()
	if token == "" || accessToken == "" {
		return ErrNotAuthenticated
	}

	if subtle.ConstantTimeCompare([]byte(token), []byte(accessToken)) != 1 {
		return ErrNotAuthenticated
	}

	return s.RequireAdmin()
}

func (s *Session) persist(ctx context.Context, user transit.User, tokens transit.AuthTokens) error {
	encodedUser, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return s.store.Save(ctx, Stored{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         string(encodedUser),
	})
}

func (s *Session) clear(ctx context.Context) error {
	s.reset()

	return s.store.Clear(ctx)
}

func (s *Session) reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.user = nil
	s.tokens = nil
}
