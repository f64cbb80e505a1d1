package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"brightnest/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// Role names carried in the JWT "role" claim.
const (
	RoleUser     = "user"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// JWTAuthMiddleware authenticates a bearer token and requires one of the
// allowed roles. The caller's id and role end up in the gin context under
// "actorID" and "actorRole".
//
// Token hashes are cached in Redis with a sliding TTL so revocation (key
// deletion) takes effect within the TTL; a cache outage degrades to
// signature-only validation rather than locking everyone out.
func JWTAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
					"code":  500,
				})
			}
		}()

		ctx := context.Background()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		actorID, role, err := utils.ExtractClaimsFromToken(tokenString)
		if err != nil || actorID == "" || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		if !roleAllowed(role, allowedRoles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
				"code":  0,
			})
			return
		}

		computedHash := utils.HashToken(tokenString)
		cacheKey := utils.AuthCachePrefix + actorID

		authCache := utils.GetAuthCacheClient()
		if authCache != nil {
			cachedHash, err := authCache.Get(ctx, cacheKey).Result()
			switch {
			case err == nil:
				if cachedHash != computedHash {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
						"error": "Token mismatch",
						"code":  0,
					})
					return
				}
				_ = authCache.Expire(ctx, cacheKey, utils.AuthCacheTTL).Err()
			case err == redis.Nil:
				_ = authCache.Set(ctx, cacheKey, computedHash, utils.AuthCacheTTL).Err()
			default:
				log.Printf("WARNING: Error retrieving auth cache key: %v. Proceeding on token signature only.", err)
			}
		}

		c.Set("actorID", actorID)
		c.Set("actorRole", role)
		c.Next()
	}
}

func roleAllowed(role string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == role {
			return true
		}
	}
	return false
}

// ActorID returns the authenticated caller's id set by JWTAuthMiddleware.
func ActorID(c *gin.Context) string {
	id, _ := c.Get("actorID")
	s, _ := id.(string)
	return s
}

// ActorRole returns the authenticated caller's role set by JWTAuthMiddleware.
func ActorRole(c *gin.Context) string {
	role, _ := c.Get("actorRole")
	s, _ := role.(string)
	return s
}
