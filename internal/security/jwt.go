package security

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"document-ingestion-service/config"
	"document-ingestion-service/internal/apperror"
	"document-ingestion-service/internal/util"
)

type contextKey string

const (
	UserContextKey contextKey = "user"

	AdminUserID = "admin"
)

// Claims : identity resolved from the bearer token
type Claims struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

type JWTService struct {
	*config.JWTConfig
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{cfg}
}

// GenerateAccessToken : HS512 token for userID, used by operators and tests to mint credentials
func (service *JWTService) GenerateAccessToken(userID string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    service.Issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(service.SecretKey))
	if err != nil {
		return "", util.LogError("[JWTService] sign token", err)
	}
	return token, nil
}

func (service *JWTService) ValidateJWT(jwtTokenStr string) (*Claims, error) {
	claims := &Claims{}

	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()})}
	if service.Issuer != "" {
		options = append(options, jwt.WithIssuer(service.Issuer))
	}

	jwtToken, err := jwt.ParseWithClaims(jwtTokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(service.SecretKey), nil
	}, options...)
	if err != nil {
		return nil, err
	}
	if !jwtToken.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token carries no user id")
	}

	return claims, nil
}

// JWTMiddleware : resolves the caller from a bearer JWT, or from the static admin token
// when its bcrypt hash is configured
func JWTMiddleware(jwtService *JWTService, adminTokenHash string) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authorizationHeader := request.Header.Get("Authorization")
			if !strings.HasPrefix(authorizationHeader, "Bearer ") {
				util.HandleError(writer, apperror.KindUnauthorized, "missing bearer token", http.StatusUnauthorized)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authorizationHeader, "Bearer "))

			// JWTs always have three segments, anything else can only be the admin token
			if strings.Count(token, ".") != 2 {
				if adminTokenHash == "" || bcrypt.CompareHashAndPassword([]byte(adminTokenHash), []byte(token)) != nil {
					util.HandleError(writer, apperror.KindUnauthorized, "invalid token", http.StatusUnauthorized)
					return
				}
				adminClaims := &Claims{UserID: AdminUserID, IsAdmin: true}
				next.ServeHTTP(writer, request.WithContext(context.WithValue(request.Context(), UserContextKey, adminClaims)))
				return
			}

			claims, err := jwtService.ValidateJWT(token)
			if err != nil {
				slog.Debug("[JWTMiddleware] rejected token", "error", err)
				util.HandleError(writer, apperror.KindUnauthorized, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(writer, request.WithContext(context.WithValue(request.Context(), UserContextKey, claims)))
		})
	}
}

// RequireAdmin : must run after JWTMiddleware
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims, err := GetClaimsFromContext(request.Context())
		if err != nil {
			util.HandleError(writer, apperror.KindUnauthorized, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !claims.IsAdmin {
			util.HandleError(writer, apperror.KindForbidden, "administrator access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(writer, request)
	})
}

func GetClaimsFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, apperror.Unauthorized("unauthorized")
	}
	return claims, nil
}

// WithClaims : attaches claims to ctx the same way JWTMiddleware does
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
