// Package session owns authentication state: a small state machine over the
// locally registered user directory, with the session persisted through the
// storage adapter so a restart resumes where the user left off.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/dmarquez/catalogkeeper/internal/ident"
	"github.com/dmarquez/catalogkeeper/internal/storage"
	"github.com/dmarquez/catalogkeeper/pkg/config"
	pkgerrors "github.com/dmarquez/catalogkeeper/pkg/errors"
	"github.com/dmarquez/catalogkeeper/pkg/logger"
	"github.com/dmarquez/catalogkeeper/pkg/security"
	"github.com/dmarquez/catalogkeeper/pkg/validators"
)

const invalidCredentialsMessage = "Invalid username or password"
const duplicateUserMessage = "username or email already exists"

// Store is the session state container. Operations mutate in-memory state
// under a single mutex; persistence of the session keys is a best-effort
// co-effect of the transition.
type Store struct {
	mu     sync.Mutex
	status Status
	user   *User
	token  string
	err    string

	directory *Directory
	storage   storage.Store
	ids       *ident.Generator
	passwords config.PasswordConfig
	logger    *logger.Logger
}

func now() time.Time {
	return time.Now().UTC()
}

// StoreParams bundles the dependencies required to build a session store.
type StoreParams struct {
	Storage        storage.Store
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewStore builds the store and rehydrates any persisted session: a stored
// token alone resumes an authenticated session, without revalidating the
// user record against the directory.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Storage == nil {
		return nil, fmt.Errorf("storage adapter is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Store{
		status:    StatusAnonymous,
		directory: NewDirectory(params.Storage),
		storage:   params.Storage,
		ids:       ident.NewGenerator(),
		passwords: params.PasswordConfig,
		logger:    params.Logger,
	}
	s.rehydrate(ctx)
	return s, nil
}

func (s *Store) rehydrate(ctx context.Context) {
	token, err := s.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "session rehydration failed, starting anonymous")
		}
		return
	}

	s.token = token
	s.status = StatusAuthenticated

	raw, err := s.storage.Get(ctx, storage.KeyUser)
	if err != nil {
		s.logger.Warn(ctx, "persisted session has no user record")
		return
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		// Malformed records are tolerated: the token alone authenticates.
		s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "persisted user record is malformed")
		return
	}
	s.user = &user
}

// Login checks the credentials against the directory and, on a match,
// synthesizes a fresh session. On a mismatch the store transitions to the
// error state and persisted state is left untouched.
func (s *Store) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	s.status = StatusAuthenticating
	s.err = ""
	s.mu.Unlock()

	entry, err := s.directory.Find(ctx, username)
	if err != nil {
		return s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read user directory"))
	}
	if entry != nil {
		match, err := security.VerifyPassword(password, entry.PasswordHash)
		if err != nil {
			s.logger.Warn(s.logger.WithUserID(ctx, entry.Username), "stored password hash is unreadable")
		} else if match {
			s.establish(ctx, entry.User)
			return nil
		}
	}

	return s.fail(ctx, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage))
}

// Register appends a new directory entry and immediately logs the user in.
// Username and email collisions are each sufficient to reject.
func (s *Store) Register(ctx context.Context, input RegisterInput) error {
	if err := validators.Check(input); err != nil {
		return err
	}

	s.mu.Lock()
	s.status = StatusAuthenticating
	s.err = ""
	s.mu.Unlock()

	taken, err := s.directory.Exists(ctx, input.Username, input.Email)
	if err != nil {
		return s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read user directory"))
	}
	if taken {
		return s.fail(ctx, pkgerrors.New(pkgerrors.CodeConflict, duplicateUserMessage))
	}

	hash, err := security.HashPassword(input.Password, s.passwords)
	if err != nil {
		return s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password"))
	}

	entry := RegisteredUser{
		User: User{
			ID:          s.ids.Next(),
			Username:    input.Username,
			Email:       input.Email,
			DisplayName: input.DisplayName,
			CreatedAt:   now(),
		},
		PasswordHash: hash,
	}
	if err := s.directory.Append(ctx, entry); err != nil {
		return s.fail(ctx, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist user directory"))
	}

	s.establish(ctx, entry.User)
	return nil
}

// establish transitions to the authenticated state and persists the session
// keys. Persistence failures are downgraded to a warning: the in-memory
// session stands for the rest of the process lifetime.
func (s *Store) establish(ctx context.Context, user User) {
	token := "local-" + uuid.NewString()

	s.mu.Lock()
	userCopy := user
	s.user = &userCopy
	s.token = token
	s.status = StatusAuthenticated
	s.err = ""
	s.mu.Unlock()

	var persistErr error
	persistErr = multierr.Append(persistErr, s.storage.Set(ctx, storage.KeyToken, token))
	if encoded, err := json.Marshal(user); err != nil {
		persistErr = multierr.Append(persistErr, err)
	} else {
		persistErr = multierr.Append(persistErr, s.storage.Set(ctx, storage.KeyUser, string(encoded)))
	}
	if persistErr != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", persistErr.Error()), "session persisted partially, in-memory state is authoritative")
	}

	s.logger.Info(s.logger.WithUserID(ctx, user.Username), "session established")
}

func (s *Store) fail(ctx context.Context, err error) error {
	s.mu.Lock()
	s.status = StatusAuthError
	s.err = pkgerrors.UserMessage(err)
	s.mu.Unlock()

	s.logger.Warn(s.logger.WithField(ctx, "error", err.Error()), "authentication failed")
	return err
}

// Logout clears the session unconditionally. It never errors and repeating
// it is harmless; storage removal failures only warn.
func (s *Store) Logout(ctx context.Context) {
	var removeErr error
	removeErr = multierr.Append(removeErr, s.storage.Remove(ctx, storage.KeyToken))
	removeErr = multierr.Append(removeErr, s.storage.Remove(ctx, storage.KeyUser))
	if removeErr != nil {
		s.logger.Warn(s.logger.WithField(ctx, "error", removeErr.Error()), "session keys not fully removed")
	}

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.err = ""
	s.status = StatusAnonymous
	s.mu.Unlock()

	s.logger.Info(ctx, "session cleared")
}

// ClearError leaves the error state without side effects. From any other
// state it is a no-op.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusAuthError {
		return
	}
	s.err = ""
	s.status = StatusAnonymous
}

// Snapshot returns a value copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Status: s.status,
		Token:  s.token,
		Err:    s.err,
	}
	if s.user != nil {
		userCopy := *s.user
		state.User = &userCopy
	}
	return state
}
