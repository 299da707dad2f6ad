package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/orgcal-api/internal/middleware"
	"github.com/noah-isme/orgcal-api/internal/models"
	appErrors "github.com/noah-isme/orgcal-api/pkg/errors"
	"github.com/noah-isme/orgcal-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func currentUserID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return "", appErrors.ErrUnauthorized
	}
	return claims.UserID, nil
}

// respondWithMeta writes data with the cache and timing metadata collected for the request.
func respondWithMeta(c *gin.Context, status int, data interface{}, cacheHit bool) {
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, status, data, nil, middleware.ExtractMeta(c))
}
