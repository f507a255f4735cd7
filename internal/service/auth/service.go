// Package auth implements the account collaborator: registration,
// login and bearer-token validation. User records persist through the
// same store adapter as session state, under their own key.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/querypilot/backend/internal/model/user"
	"github.com/querypilot/backend/internal/store"
)

const usersKey = "users"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// persistedUser is the storage shape; unlike the API shape it carries
// the password hash.
type persistedUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Service manages accounts and tokens.
type Service struct {
	mu           sync.RWMutex
	store        store.Store
	secret       []byte
	accessExpire time.Duration
	users        []user.User
}

// NewService loads persisted users; a malformed blob is logged, cleared
// and treated as empty.
func NewService(st store.Store, secret string, accessExpire time.Duration) *Service {
	s := &Service{
		store:        st,
		secret:       []byte(secret),
		accessExpire: accessExpire,
	}

	raw, found, err := st.Get(usersKey)
	if err != nil {
		log.Printf("[auth] read %s: %v", usersKey, err)
		return s
	}
	if !found {
		return s
	}

	var persisted []persistedUser
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		log.Printf("[auth] discarding malformed %s: %v", usersKey, err)
		if err := st.Delete(usersKey); err != nil {
			log.Printf("[auth] clear %s: %v", usersKey, err)
		}
		return s
	}

	for _, p := range persisted {
		s.users = append(s.users, user.User{
			ID:           p.ID,
			Email:        p.Email,
			Name:         p.Name,
			PasswordHash: p.PasswordHash,
			CreatedAt:    p.CreatedAt,
		})
	}
	return s
}

// Register creates an account and returns it with a signed token.
func (s *Service) Register(email, name, password string) (user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return user.User{}, "", ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return user.User{}, "", ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	account := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	s.users = append(s.users, account)
	s.persistLocked()

	token, err := s.signToken(account)
	if err != nil {
		return user.User{}, "", err
	}
	return account, token, nil
}

// Login checks credentials and returns the account with a fresh token.
func (s *Service) Login(email, password string) (user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email != email {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			return user.User{}, "", ErrInvalidCredentials
		}
		token, err := s.signToken(u)
		if err != nil {
			return user.User{}, "", err
		}
		return u, token, nil
	}
	return user.User{}, "", ErrInvalidCredentials
}

// ValidateToken parses and verifies an access token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// FindByID returns the account with the given id.
func (s *Service) FindByID(id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, ErrUserNotFound
}

func (s *Service) signToken(account user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: account.ID,
		Email:  account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "querypilot",
			Subject:   "access",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// persistLocked writes the user list through the store adapter. A
// failed write is logged; memory stays authoritative.
func (s *Service) persistLocked() {
	persisted := make([]persistedUser, len(s.users))
	for i, u := range s.users {
		persisted[i] = persistedUser{
			ID:           u.ID,
			Email:        u.Email,
			Name:         u.Name,
			PasswordHash: u.PasswordHash,
			CreatedAt:    u.CreatedAt,
		}
	}

	data, err := json.Marshal(persisted)
	if err != nil {
		log.Printf("[auth] encode users: %v", err)
		return
	}
	if err := s.store.Set(usersKey, string(data)); err != nil {
		log.Printf("[auth] persist %s: %v", usersKey, err)
	}
}
