// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated requester.
// Handlers read it instead of touching gin context keys directly.
type Identity interface {
	UserID() uuid.UUID
	Username() string
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	username      string
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID     { return i.userID }
func (i *identity) Username() string      { return i.username }
func (i *identity) Roles() []string       { return i.roles }
func (i *identity) IsAuthenticated() bool { return i.authenticated }

func (i *identity) HasRole(role string) bool {
	return slices.Contains(i.roles, role)
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, ok := c.Get(ContextUserIDKey)
	if !ok {
		return &identity{}
	}
	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	var roleList []string
	if roles, ok := c.Get(ContextRolesKey); ok {
		roleList, _ = roles.([]string)
	}

	return &identity{
		userID:        uid,
		username:      c.GetString(ContextUsernameKey),
		roles:         roleList,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
