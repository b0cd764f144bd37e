package middlewares

import (
	"time"

	"hbs/src/models"
	"hbs/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// SignToken issues an HS256 token for a profile, matching what the auth
// provider hands to the admin console.
func SignToken(profile *models.Profile, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &types.Claims{
		Email: profile.Email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func SecureHeaders(ctx *gin.Context) {
	h := ctx.Writer.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	ctx.Next()
}
