package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// StaffClaims represents the claims in a staff dashboard token.
type StaffClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"` // always "staff"
	jwt.RegisteredClaims
}

// Manager handles issuing and validating staff tokens. The dashboard uses
// a single shared password; the token only carries the email for audit
// logging.
type Manager struct {
	secret []byte
}

// NewManager creates a token manager with the given signing secret.
func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

// GenerateStaffToken generates a JWT for a logged-in staff member.
func (m *Manager) GenerateStaffToken(email string) (string, error) {
	claims := &StaffClaims{
		Email: email,
		Role:  "staff",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken validates a staff JWT and returns its claims.
func (m *Manager) ValidateToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*StaffClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
