package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/shopauth/internal/auth/domain"
	"github.com/aussiebroadwan/shopauth/internal/auth/store"
	"github.com/aussiebroadwan/shopauth/pkg/cryptox"
	"github.com/aussiebroadwan/shopauth/pkg/idx"
	"github.com/aussiebroadwan/shopauth/pkg/slogx"
)

const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountExists      = errors.New("account_exists")
	ErrInvalidRequest     = errors.New("invalid_request")
)

// RegisterRequest is the input to AccountService.Register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountService registers and authenticates principals of both kinds.
type AccountService struct {
	Store  store.Store
	Hasher *cryptox.PasswordHasher
	Tokens *TokenService

	// Now defaults to time.Now.
	Now func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates an account and signs it straight in.
func (s *AccountService) Register(ctx context.Context, kind domain.PrincipalKind, req RegisterRequest) (domain.AuthResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.AuthResponse{}, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if len(req.Password) < MinPasswordLength {
		return domain.AuthResponse{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRequest, MinPasswordLength)
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return domain.AuthResponse{}, err
	}

	now := s.now()
	acct := domain.Account{
		ID:           idx.NewAt(now).String(),
		Kind:         kind,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Accounts(kind).CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.AuthResponse{}, ErrAccountExists
		}
		return domain.AuthResponse{}, err
	}

	slogx.FromContext(ctx).Info("account registered",
		slog.String("principal_id", acct.ID),
		slog.String("kind", string(kind)),
	)

	msg := "Registration successful! Welcome " + name
	if kind == domain.KindAdmin {
		msg = "Admin registered successfully! Welcome " + name
	}
	return s.respond(ctx, acct, msg)
}

// Login verifies credentials and issues a fresh pair, superseding any
// refresh token the account held. Unknown emails and wrong passwords both
// return ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, kind domain.PrincipalKind, req LoginRequest) (domain.AuthResponse, error) {
	log := slogx.FromContext(ctx)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return domain.AuthResponse{}, ErrInvalidCredentials
	}

	acct, err := s.Store.Accounts(kind).GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend the same argon2 work as a real account.
			_ = s.Hasher.Verify(req.Password, s.unknownAccountHash())
			log.Info("login failed", slog.String("reason", "unknown_email"), slog.String("kind", string(kind)))
			return domain.AuthResponse{}, ErrInvalidCredentials
		}
		return domain.AuthResponse{}, err
	}

	if err := s.Hasher.Verify(req.Password, acct.PasswordHash); err != nil {
		log.Info("login failed", slog.String("reason", "bad_password"), slog.String("principal_id", acct.ID))
		return domain.AuthResponse{}, ErrInvalidCredentials
	}

	return s.respond(ctx, acct, "Login successful!")
}

// unknownAccountHash is a hash no password matches, built once with the
// service's own hasher so it costs what a stored hash costs.
func (s *AccountService) unknownAccountHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash(idx.New().String())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *AccountService) respond(ctx context.Context, acct domain.Account, msg string) (domain.AuthResponse, error) {
	p := acct.Principal()
	pair, err := s.Tokens.IssuePair(ctx, p)
	if err != nil {
		return domain.AuthResponse{}, err
	}
	return domain.AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Role:         p.Role,
		Email:        acct.Email,
		Name:         acct.Name,
		Message:      msg,
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email address", ErrInvalidRequest)
	}
	return email, nil
}
