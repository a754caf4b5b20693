package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rewardhub/backend/internal/ledger"
	"github.com/rewardhub/backend/internal/models"
	"github.com/rewardhub/backend/internal/services"
)

var (
	// ErrDuplicateEmail is returned when registering with an email that already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// UserStore is the part of the ledger the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, in models.NewUser) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Registration struct {
	Email       string
	Password    string
	Name        string
	Phone       *string
	DateOfBirth *string
	Location    *string
	DeviceInfo  *string
}

type Service interface {
	Register(ctx context.Context, reg Registration) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ValidateToken(token string) (int64, error)
}

type service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	// serializes the duplicate check with the insert
	registerMu sync.Mutex
}

func NewService(store UserStore, secret string, ttl time.Duration) *service {
	return &service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, reg Registration) (*models.User, error) {
	email := NormalizeEmail(reg.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password must be at most 72 bytes", services.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ledger.ErrUserNotFound) {
		return nil, err
	}

	return s.store.CreateUser(ctx, models.NewUser{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(reg.Name),
		Phone:        reg.Phone,
		DateOfBirth:  reg.DateOfBirth,
		Location:     reg.Location,
		DeviceInfo:   reg.DeviceInfo,
	})
}

func (s *service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ledger.ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

func (s *service) issueToken(userID int64) (string, error) {
	now := s.now()
	c := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}

func (s *service) ValidateToken(token string) (int64, error) {
	tok, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}
