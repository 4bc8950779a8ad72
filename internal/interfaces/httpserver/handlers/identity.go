package handlers

import "github.com/gin-gonic/gin"

// ownerKey is where the auth middleware stores the verified subject.
const ownerKey = "owner_id"

// SetOwnerID records the authenticated owner on the request context.
func SetOwnerID(c *gin.Context, ownerID string) {
	c.Set(ownerKey, ownerID)
}

// OwnerID returns the authenticated owner, falling back to a shared
// guest identity when auth is disabled.
func OwnerID(c *gin.Context) string {
	if owner, ok := c.Get(ownerKey); ok {
		if s, ok := owner.(string); ok && s != "" {
			return s
		}
	}
	return "guest"
}
