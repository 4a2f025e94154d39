package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"BPOrganizer.api/internal/models"
	"BPOrganizer.api/internal/utils"
	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"go.uber.org/zap"
)

// NewJWTGuard returns a middleware that requires an HS256 bearer token
// signed with secret and issued by issuer for audience.
func NewJWTGuard(secret, issuer, audience string, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return []byte(secret), nil
	}
	jwtValidator, err := validator.New(keyFunc, validator.HS256, issuer, []string{audience})
	if err != nil {
		return nil, fmt.Errorf("failed to set up the JWT validator: %w", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		message := "Invalid token"
		if errors.Is(err, jwtmiddleware.ErrJWTMissing) {
			message = "Authorization header missing"
		}
		logger.Info("JWT authentication failed", zap.String("path", r.URL.Path), zap.Error(err))
		utils.RespondWithError(w, logger, models.NewAPIError(models.ErrorCodeUnauthorized, message, nil, http.StatusUnauthorized))
	}
	checker := jwtmiddleware.New(jwtValidator.ValidateToken, jwtmiddleware.WithErrorHandler(errorHandler))

	return func(next http.Handler) http.Handler {
		return checker.CheckJWT(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims); ok {
				logger.Debug("JWT authentication successful", zap.String("subject", claims.RegisteredClaims.Subject))
			}
			next.ServeHTTP(w, r)
		}))
	}, nil
}
