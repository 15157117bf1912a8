package pricing

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type actorKey struct{}

// Claims of a staff token. Subject is the actor id written to the audit trail.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var errUnauthorized = errors.New("unauthorized")

func staffRole(role string) bool {
	return role == "staff" || role == "admin"
}

// IssueToken подписывает токен сотрудника (HS256)
func IssueToken(secret []byte, actorID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "pricing",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, header string) (*Claims, error) {
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return nil, errUnauthorized
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || !staffRole(claims.Role) {
		return nil, errUnauthorized
	}
	return claims, nil
}

// ActorFrom returns the authenticated actor id.
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// Административные операции только для сотрудников
func (h *Handler) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		claims, err := parseToken(h.secret, req.Header.Get("Authorization"))
		if err != nil {
			h.Log("Auth", "auth", err)
			writeError(w, http.StatusUnauthorized, "missing or invalid staff token")
			return
		}
		ctx := context.WithValue(req.Context(), actorKey{}, claims.Subject)
		next(w, req.WithContext(ctx))
	}
}
