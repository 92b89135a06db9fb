package models

import "time"

// User is the profile record kept in the users collection.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credential is the sign-in account owned by the identity backend.
type Credential struct {
	ID           string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	AvatarURL    string    `json:"photoURL"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the signed-in principal seen by handlers and guards.
type Identity struct {
	ID          string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	AvatarURL   string `json:"photoURL,omitempty"`
	Role        Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// NewIdentity merges a credential with its user record. A missing record
// leaves the identity at the default role.
func NewIdentity(cred Credential, user *User) Identity {
	id := Identity{
		ID:          cred.ID,
		DisplayName: cred.DisplayName,
		Email:       cred.Email,
		AvatarURL:   cred.AvatarURL,
		Role:        RoleUser,
	}
	if user != nil && user.Role.Valid() {
		id.Role = user.Role
	}
	return id
}
