package identity

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-command/runner"
	goerrors "github.com/goliatone/go-errors"
	scratch "github.com/goliatone/go-scratch"
	"github.com/goliatone/go-scratch/repository"
	"github.com/google/uuid"
)

// RegistrationTimeout bounds the register command
const RegistrationTimeout = 10 * time.Second

// Service registers users, signs them in and restores their sessions
type Service struct {
	manager  repository.Manager
	sessions repository.SessionStore
	tokens   *TokenService
	hasher   Hasher
	register *RegisterUserHandler
	runner   *runner.Handler
	idKey    []byte
	logger   scratch.Logger
	region   string
	now      func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithSessionStore keeps session records outside the SQL database
func WithSessionStore(store repository.SessionStore) Option {
	return func(s *Service) {
		if store != nil {
			s.sessions = store
		}
	}
}

func WithLogger(logger scratch.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPhoneRegion sets the region used to parse local phone numbers
func WithPhoneRegion(region string) Option {
	return func(s *Service) {
		if region != "" {
			s.region = region
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
			s.tokens.now = now
		}
	}
}

// NewService creates a Service. Sessions are stored through the manager
// unless WithSessionStore is given.
func NewService(cfg Config, manager repository.Manager, opts ...Option) *Service {
	s := &Service{
		manager:  manager,
		sessions: manager.Sessions(),
		hasher:   NewHasher(cfg.GetPasswordCost()),
		register: NewRegisterUserHandler(manager),
		idKey:    []byte(cfg.GetSigningKey()),
		logger:   nopLogger{},
		region:   DefaultPhoneRegion,
		now:      time.Now,
	}
	s.tokens = NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetTokenExpiration(), cfg.GetIssuer(), nil)

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.tokens.logger = s.logger
	s.runner = runner.NewHandler(
		runner.WithTimeout(RegistrationTimeout),
		runner.WithErrorHandler(func(err error) {
			s.logger.Debug("register command failed", "error", err)
		}),
	)
	return s
}

// Tokens returns the token service
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// SignUp registers a new user and starts a session for them
func (s *Service) SignUp(ctx context.Context, carrier TokenCarrier, reg Registration) (*repository.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "invalid registration")
	}

	phone, err := NormalizePhone(reg.Phone, s.region)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(reg.Password)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to hash password")
	}

	id, err := UserID(reg.Email, s.idKey)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to derive user id")
	}

	msg := RegisterUserMessage{
		ID:           id,
		Email:        reg.Email,
		Phone:        phone,
		PasswordHash: hash,
		RegisteredAt: s.now(),
	}
	if err := runner.RunCommand(ctx, s.runner, s.register, msg); err != nil {
		return nil, err
	}

	user, err := s.manager.Users().GetByID(ctx, id.String())
	if err != nil {
		return nil, err
	}

	if err := s.startSession(ctx, carrier, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID.String())
	return user, nil
}

// SignIn verifies credentials and starts a session
func (s *Service) SignIn(ctx context.Context, carrier TokenCarrier, creds Credentials) (*repository.User, error) {
	if err := creds.Validate(); err != nil {
		return nil, goerrors.FromOzzoValidation(err, "invalid credentials")
	}

	user, err := s.manager.Users().GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.hasher.ComparePasswordAndHash(creds.Password, s.hasher.RandomPasswordHash())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.ComparePasswordAndHash(creds.Password, user.PasswordHash); err != nil {
		s.logger.Info("sign in rejected", "user_id", user.ID.String())
		return nil, ErrInvalidCredentials
	}

	if err := s.manager.Users().TrackSuccessfulLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Error("unable to track login", "user_id", user.ID.String(), "error", err)
	}

	if err := s.startSession(ctx, carrier, user.ID); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) startSession(ctx context.Context, carrier TokenCarrier, userID uuid.UUID) error {
	token, claims, err := s.tokens.Generate(userID)
	if err != nil {
		return err
	}

	expires := claims.ExpiresAt.Time
	err = s.sessions.Create(ctx, &repository.SessionRecord{
		ID:        claims.ID,
		UserID:    userID,
		ExpiresAt: expires,
		CreatedAt: s.now(),
	})
	if err != nil {
		return err
	}

	carrier.SetToken(token, expires)
	return nil
}

// ForRequest returns the identity provider for a single request
func (s *Service) ForRequest(carrier TokenCarrier) scratch.IdentityProvider {
	return &requestProvider{svc: s, carrier: carrier}
}
