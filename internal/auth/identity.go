package auth

import (
	"github.com/google/uuid"

	"eventplanner/internal/model"
)

// Identity is the caller resolved from a verified token.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     model.Role
	// TokenID and ExpiresAt identify the presented token, for logout.
	TokenID   string
	ExpiresAt int64
}

// IdentityFromUser builds an Identity for a stored user and the claims that resolved to it.
func IdentityFromUser(user *model.User, claims *Claims) Identity {
	id := Identity{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	if claims != nil {
		id.TokenID = claims.ID
		if claims.ExpiresAt != nil {
			id.ExpiresAt = claims.ExpiresAt.Unix()
		}
	}
	return id
}

// Can reports whether the identity's role grants c.
func (i Identity) Can(c model.Capability) bool {
	return i.Role.Can(c)
}
