// Package usecase implements the Identity Toolkit collaborator's account
// operations over an in-memory table keyed by localId and, secondarily, by
// lowercased email (spec.md §6). Grounded on internal/auth/usecase's
// handler flow, stripped of tenancy, sessions, and persistence.
package usecase

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"firestore-emulator/internal/identitytoolkit/domain/model"
)

// TokenIssuer mints and parses ID tokens for the account a localId names.
// Implemented by identitytoolkit/security.JWTIssuer; kept as an interface
// here so the usecase stays independent of the token format.
type TokenIssuer interface {
	Issue(localID, email string) (string, error)
	Parse(token string) (localID string, err error)
	Revoke(token string) error
}

type AuthService struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]*model.User // key: lowercased email
	tokens  TokenIssuer
}

func NewAuthService(tokens TokenIssuer) *AuthService {
	return &AuthService{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
		tokens:  tokens,
	}
}

// SignUp creates a new account, or returns model.ErrEmailExists if the
// email is already registered.
func (s *AuthService) SignUp(email, password string) (*model.User, string, error) {
	if err := model.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, "", err
	}
	key := strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[key]; exists {
		return nil, "", model.ErrEmailExists
	}

	u := &model.User{LocalID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	if err := u.SetPassword(password); err != nil {
		return nil, "", err
	}
	s.byID[u.LocalID] = u
	s.byEmail[key] = u

	token, err := s.tokens.Issue(u.LocalID, u.Email)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// SignIn verifies credentials and mints a fresh ID token.
func (s *AuthService) SignIn(email, password string) (*model.User, string, error) {
	s.mu.RLock()
	u, ok := s.byEmail[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok || !u.CheckPassword(password) {
		return nil, "", model.ErrUserNotFound
	}
	token, err := s.tokens.Issue(u.LocalID, u.Email)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Lookup resolves an ID token to its account.
func (s *AuthService) Lookup(idToken string) (*model.User, error) {
	localID, err := s.tokens.Parse(idToken)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[localID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u, nil
}

// Delete removes the account an ID token names and revokes that token so it
// cannot resolve to the now-deleted account before it would naturally expire.
func (s *AuthService) Delete(idToken string) error {
	localID, err := s.tokens.Parse(idToken)
	if err != nil {
		return err
	}
	s.mu.Lock()
	u, ok := s.byID[localID]
	if !ok {
		s.mu.Unlock()
		return model.ErrUserNotFound
	}
	delete(s.byID, localID)
	delete(s.byEmail, strings.ToLower(u.Email))
	s.mu.Unlock()

	return s.tokens.Revoke(idToken)
}

// Update changes the display name and/or password of the account an ID
// token names; empty arguments leave the corresponding field untouched.
func (s *AuthService) Update(idToken, displayName, password string) (*model.User, error) {
	localID, err := s.tokens.Parse(idToken)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[localID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	if password != "" {
		if err := model.ValidatePassword(password); err != nil {
			return nil, err
		}
		if err := u.SetPassword(password); err != nil {
			return nil, err
		}
	}
	return u, nil
}
