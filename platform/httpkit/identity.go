package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity exposes the authenticated caller to handlers without tying
// them to the web framework or the token format.
type Identity interface {
	// UserID is the authenticated user's ID.
	UserID() uuid.UUID
	// Roles are the roles carried by the access token.
	Roles() []string
	// HasRole reports whether the caller holds the given role.
	HasRole(role string) bool
	// IsAuthenticated reports whether a valid token was presented.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	roles         []string
	authenticated bool
}

var anonymous = &identity{}

func (i *identity) UserID() uuid.UUID { return i.userID }

func (i *identity) Roles() []string { return i.roles }

func (i *identity) HasRole(role string) bool {
	return slices.Contains(i.roles, role)
}

func (i *identity) IsAuthenticated() bool { return i.authenticated }

// GetIdentity reads the caller identity the auth middleware stored on
// the request context. Requests that never passed the middleware get an
// anonymous identity.
func GetIdentity(c *gin.Context) Identity {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return anonymous
	}
	userID, ok := raw.(uuid.UUID)
	if !ok {
		return anonymous
	}

	var roles []string
	if rawRoles, ok := c.Get(ContextRolesKey); ok {
		roles, _ = rawRoles.([]string)
	}

	return &identity{userID: userID, roles: roles, authenticated: true}
}

// MustGetIdentity is GetIdentity for routes behind the auth middleware;
// it aborts with 401 and returns nil when no caller is authenticated.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
