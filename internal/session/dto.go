package session

import "time"

// Status is the authentication state machine position.
type Status string

const (
	StatusAnonymous      Status = "anonymous"
	StatusAuthenticating Status = "authenticating"
	StatusAuthenticated  Status = "authenticated"
	StatusAuthError      Status = "auth_error"
)

// User is the public profile persisted with the session. The password hash
// never leaves the directory.
type User struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RegisteredUser is a directory entry used for credential checks.
type RegisteredUser struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3,max=32"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"required"`
}

// State is a read-only snapshot of the session store.
type State struct {
	Status Status
	User   *User
	Token  string
	Err    string
}

// IsAuthenticated derives from token presence, mirroring how the persisted
// token key alone rehydrates an authenticated session.
func (s State) IsAuthenticated() bool {
	return s.Token != ""
}
