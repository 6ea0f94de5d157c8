package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/nexora-club/membership-backend/models"
)

// tokenLifetime bounds every issued session token.
const tokenLifetime = 7 * 24 * time.Hour

// Claims is the verified identity carried by a session token. It reflects
// the user as of issuance time and can be stale against later profile edits.
type Claims struct {
	UserID   int
	Username string
	Role     models.UserRole
}

type TokenService interface {
	Issue(user *models.User) (string, error)
	Verify(tokenString string) (*Claims, error)
}

type jwtTokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService builds a TokenService signing with the given secret. The
// secret is injected here rather than read from ambient process state.
func NewTokenService(secret string) TokenService {
	return &jwtTokenService{secret: []byte(secret), now: time.Now}
}

func (s *jwtTokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"id":       user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtTokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	idFloat, ok := mapClaims["id"].(float64)
	if !ok || idFloat != float64(int(idFloat)) || int(idFloat) <= 0 {
		return nil, ErrInvalidToken
	}
	username, ok := mapClaims["username"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	roleStr, ok := mapClaims["role"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	role := models.UserRole(roleStr)
	if !role.Valid() {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:   int(idFloat),
		Username: username,
		Role:     role,
	}, nil
}
