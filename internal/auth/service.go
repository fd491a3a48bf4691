package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"casino-maintenance-backend/internal/apperr"
	"casino-maintenance-backend/internal/model"
)

// DefaultTokenTTL is the lifetime of access tokens when none is configured.
const DefaultTokenTTL = 30 * time.Minute

const (
	MsgBadCredentials     = "Incorrect username or password"
	MsgUsernameTaken      = "Username already registered"
	MsgEmailTaken         = "Email already registered"
	MsgInactiveUser       = "Inactive user"
	MsgNotEnoughPrivilege = "Not enough privileges"
)

// UserStore is the slice of the credential store the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// Service implements registration, login and per-request identity resolution.
type Service struct {
	users    UserStore
	hasher   Hasher
	tokens   *TokenIssuer
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
	dummyPwd string
}

// NewService wires the auth service. A zero ttl uses DefaultTokenTTL.
func NewService(users UserStore, hasher Hasher, tokens *TokenIssuer, ttl time.Duration, now func() time.Time, logger *slog.Logger) (*Service, error) {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	// Compared against when the username is unknown, so both failure paths
	// cost one bcrypt comparison.
	dummy, err := hasher.Hash("timing-equaliser-" + time.Now().String())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &Service{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		ttl:      ttl,
		now:      now,
		logger:   logger,
		dummyPwd: dummy,
	}, nil
}

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the payload shape. Password strength is checked later so
// that duplicate accounts are reported first.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.RuneLength(3, 50)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&in.Password, validation.Required),
	)
}

// Register creates a new account and logs it in. Username and email are
// stored as submitted; email uniqueness ignores case.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, Token, error) {
	if err := in.Validate(); err != nil {
		return nil, Token{}, apperr.ValidationFailed(err.Error())
	}

	if _, err := s.users.GetUserByUsername(ctx, in.Username); err == nil {
		return nil, Token{}, apperr.Conflict(MsgUsernameTaken)
	} else if !isNotFound(err) {
		return nil, Token{}, err
	}
	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, Token{}, apperr.Conflict(MsgEmailTaken)
	} else if !isNotFound(err) {
		return nil, Token{}, err
	}
	if err := CheckPasswordPolicy(in.Password); err != nil {
		return nil, Token{}, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, Token{}, err
	}
	user := model.NewUser(in.Username, in.Email, hashed, s.now())
	if err := s.users.CreateUser(ctx, &user); err != nil {
		return nil, Token{}, err
	}
	s.logger.Info("user registered", slog.Int64("user_id", user.ID), slog.String("username", user.Username))

	token, err := s.tokens.Issue(user.Username, s.ttl)
	if err != nil {
		return nil, Token{}, err
	}
	return &user, token, nil
}

// Authenticate checks credentials and issues a token. Unknown users and
// wrong passwords fail identically.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Token, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil && !isNotFound(err) {
		return Token{}, err
	}

	hash := s.dummyPwd
	if user != nil {
		hash = user.HashedPassword
	}
	ok, verr := s.hasher.Verify(password, hash)
	if verr != nil {
		return Token{}, verr
	}
	if user == nil || !ok {
		return Token{}, apperr.Unauthenticated(MsgBadCredentials)
	}

	return s.tokens.Issue(user.Username, s.ttl)
}

// Resolve turns a bearer token into the active user it names.
func (s *Service) Resolve(ctx context.Context, accessToken string) (*model.User, error) {
	subject, err := s.tokens.Verify(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByUsername(ctx, subject)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthenticated(MsgInvalidToken)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Forbidden(MsgInactiveUser)
	}
	return user, nil
}

// EnsureAdmin creates an administrator account unless the username exists.
// The password is not checked against the registration policy.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, err
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	user := model.NewUser(username, email, hashed, s.now())
	user.IsAdmin = true
	if err := s.users.CreateUser(ctx, &user); err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}
	return true, nil
}

// TTL returns the configured access token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

func isNotFound(err error) bool {
	return errors.Is(err, apperr.NotFound(""))
}
