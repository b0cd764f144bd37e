package middlewares

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"hbs/src/config"
	"hbs/src/models"
	"hbs/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type ProfileFinder interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// AdminMiddleware accepts bearer tokens from the auth provider and lets the
// request through only when the subject's profile has the admin role.
func AdminMiddleware(profiles ProfileFinder) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		reqToken, ok := strings.CutPrefix(bearerToken, "Bearer ")
		if !ok || strings.TrimSpace(reqToken) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := ParseToken(reqToken, config.JWTSecret())
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		uid, err := uuid.Parse(claims.Subject)
		if err != nil {
			log.Printf("error parsing claims: %s\n", err.Error())
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		profile, err := profiles.GetProfile(ctx.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no profile"})
				return
			}
			log.Printf("Error loading profile %s: %s\n", uid, err.Error())
			ctx.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if !profile.IsAdmin() {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		ctx.Set("id", profile.ID)
		ctx.Set("email", profile.Email)
		ctx.Set("role", profile.Role)
		ctx.Next()
	}
}

func ParseToken(token string, secret []byte) (*types.Claims, error) {
	if len(secret) == 0 {
		return nil, types.ErrConfiguration
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// Actor names the admin for audit entries.
func Actor(ctx *gin.Context) string {
	if email := ctx.GetString("email"); email != "" {
		return email
	}
	if id, ok := ctx.Get("id"); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid.String()
		}
	}
	return "unknown"
}
