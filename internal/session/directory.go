package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dmarquez/catalogkeeper/internal/storage"
	pkgerrors "github.com/dmarquez/catalogkeeper/pkg/errors"
)

// Directory is the locally persisted list of registered users. Entries are
// append-only: nothing updates or deletes them. The backing store is read on
// every operation so a shared backend stays coherent across processes.
type Directory struct {
	store storage.Store
}

func NewDirectory(store storage.Store) *Directory {
	return &Directory{store: store}
}

func (d *Directory) load(ctx context.Context) ([]RegisteredUser, error) {
	raw, err := d.store.Get(ctx, storage.KeyRegisteredUsers)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var users []RegisteredUser
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "decode user directory")
	}
	return users, nil
}

// Find returns the entry with the exact username, if any.
func (d *Directory) Find(ctx context.Context, username string) (*RegisteredUser, error) {
	users, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, nil
}

// Exists reports whether the username or the email is already taken. Either
// collision alone is enough.
func (d *Directory) Exists(ctx context.Context, username, email string) (bool, error) {
	users, err := d.load(ctx)
	if err != nil {
		return false, err
	}
	for _, user := range users {
		if user.Username == username || strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

// Append persists a new entry. The write is all-or-nothing: a storage
// failure here aborts registration, since an unpersisted entry could never
// log in again.
func (d *Directory) Append(ctx context.Context, user RegisteredUser) error {
	users, err := d.load(ctx)
	if err != nil {
		return err
	}
	users = append(users, user)
	encoded, err := json.Marshal(users)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "encode user directory")
	}
	return d.store.Set(ctx, storage.KeyRegisteredUsers, string(encoded))
}
