package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/idgen"
	"fintrack/internal/kv"
	"fintrack/internal/log"
)

// Session is what register and login hand back: the public user and a token
// standing for their identity.
type Session struct {
	User      core.User `json:"user"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserService manages accounts and the device's current-user pointer.
type UserService struct {
	users   *kv.Collection[core.User]
	current *kv.Document[core.User]
	ids     idgen.Generator
	hasher  *auth.Hasher
	tokens  *auth.Tokens
	logger  *log.Logger
	now     func() time.Time
}

func NewUserService(db *kv.DB, ids idgen.Generator, hasher *auth.Hasher, tokens *auth.Tokens, logger *log.Logger) *UserService {
	return &UserService{
		users:   kv.NewCollection[core.User](db, kv.KeyUsers),
		current: kv.NewDocument[core.User](db, kv.KeyCurrentUser),
		ids:     ids,
		hasher:  hasher,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
	}
}

// Register creates an account and makes it the current user. Emails are
// compared exactly, so "A@x.io" and "a@x.io" are different accounts.
func (s *UserService) Register(ctx context.Context, username, email, password string) (Session, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpRegister, "", err)
		return Session{}, core.Fail(core.ErrInternal, "Registration failed", err)
	}

	var user core.User
	err = s.users.Update(ctx, func(users []core.User) ([]core.User, error) {
		for _, u := range users {
			if u.Email == email {
				return nil, core.Fail(core.ErrDuplicateEmail, "User already exists", nil)
			}
		}
		user = core.User{
			ID:           s.ids.NewID(),
			Username:     username,
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    s.now(),
		}
		return append(users, user), nil
	})
	if err != nil {
		if isStorageFailure(err) {
			s.logger.OperationFailed(ctx, log.OpRegister, "", err)
		}
		return Session{}, storageFailure(err, "Registration failed")
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpRegister, user.ID, err)
		return Session{}, storageFailure(err, "Registration failed")
	}
	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID)
	return session, nil
}

// Login checks the credentials and makes the matching user current.
func (s *UserService) Login(ctx context.Context, email, password string) (Session, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpLogin, "", err)
		return Session{}, storageFailure(err, "Login failed")
	}

	for _, u := range users {
		if u.Email != email || !s.hasher.Check(u.PasswordHash, password) {
			continue
		}
		session, err := s.startSession(ctx, u)
		if err != nil {
			s.logger.OperationFailed(ctx, log.OpLogin, u.ID, err)
			return Session{}, storageFailure(err, "Login failed")
		}
		s.logger.InfoContext(ctx, "User logged in", log.FieldUserID, u.ID)
		return session, nil
	}
	return Session{}, core.Fail(core.ErrInvalidCredentials, "Invalid email or password", nil)
}

func (s *UserService) startSession(ctx context.Context, u core.User) (Session, error) {
	public := u.Public()
	if err := s.current.Save(ctx, public); err != nil {
		return Session{}, err
	}
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w: %w", core.ErrInternal, err)
	}
	return Session{
		User:      public,
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: s.now().Add(s.tokens.TTL()),
	}, nil
}

// CurrentUser returns the user last registered or logged in on this device,
// or nil. Read failures are logged and reported as no user.
func (s *UserService) CurrentUser(ctx context.Context) *core.User {
	u, err := s.current.Load(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read current user", log.FieldError, err)
		return nil
	}
	if u == nil {
		return nil
	}
	public := u.Public()
	return &public
}

// Logout forgets the current user.
func (s *UserService) Logout(ctx context.Context) error {
	if err := s.current.Clear(ctx); err != nil {
		s.logger.OperationFailed(ctx, log.OpLogout, "", err)
		return storageFailure(err, "Logout failed")
	}
	return nil
}

// Get returns the public record of userID.
func (s *UserService) Get(ctx context.Context, userID string) (core.User, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		s.logger.OperationFailed(ctx, log.OpCurrent, userID, err)
		return core.User{}, storageFailure(err, "Failed to load user")
	}
	for _, u := range users {
		if u.ID == userID {
			return u.Public(), nil
		}
	}
	return core.User{}, core.Fail(core.ErrNotFound, "User not found", nil)
}

// Authenticate resolves a session token to its user.
func (s *UserService) Authenticate(ctx context.Context, token string) (core.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return core.User{}, core.Fail(core.ErrUnauthorized, "Invalid or expired session", err)
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		if isStorageFailure(err) {
			return core.User{}, err
		}
		return core.User{}, core.Fail(core.ErrUnauthorized, "Invalid or expired session", nil)
	}
	return u, nil
}
