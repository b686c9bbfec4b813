package rest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// Authenticator выпускает и проверяет JWT-токены доступа (HS256).
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

// NewAuthenticator создаёт Authenticator с заданным секретом и сроком жизни
// токена. Нулевой ttl означает сутки.
func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl}
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken подписывает токен с идентификатором и ролью учётной записи.
func (a *Authenticator) IssueToken(user domain.User) (string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *Authenticator) parseToken(raw string) (*accessClaims, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

type authContextKey struct{}

// Principal — аутентифицированная учётная запись из токена запроса.
type Principal struct {
	UserID string
	Role   domain.UserRole
}

// PrincipalFromContext достаёт учётную запись, положенную middleware Authenticate.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(authContextKey{}).(Principal)
	return p, ok
}

// Authenticate требует валидный Bearer-токен и кладёт Principal в контекст.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			writeMessage(w, http.StatusUnauthorized, "Authorization token required")
			return
		}

		claims, err := a.parseToken(strings.TrimSpace(raw))
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		principal := Principal{
			UserID: claims.Subject,
			Role:   domain.UserRole(claims.Role),
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), authContextKey{}, principal)))
	})
}

// RequireRole пропускает запрос только при одной из перечисленных ролей.
func (a *Authenticator) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Authorization token required")
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeMessage(w, http.StatusForbidden, "Insufficient role")
		})
	}
}
