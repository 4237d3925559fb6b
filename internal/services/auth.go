package services

import (
	"time"

	"portfolio-backend-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeAccess = "access"

type TokenService struct {
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
}

func (t TokenService) CreateAccessToken(user models.User) (string, int64, error) {
	now := time.Now().UTC()
	exp := now.Add(t.AccessTTL)
	claims := jwt.MapClaims{
		"iss":   t.Issuer,
		"sub":   user.ID,
		"typ":   tokenTypeAccess,
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.Secret)
	return signed, exp.Unix(), err
}

// Verify checks signature, issuer, expiry and token type and returns the
// embedded principal.
func (t TokenService) Verify(tokenStr string) (Principal, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Principal{}, ErrUnauthorized("Not authorized to access this route")
	}
	if claims["typ"] != tokenTypeAccess {
		return Principal{}, ErrUnauthorized("Not authorized to access this route")
	}
	userID, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	if userID == "" {
		return Principal{}, ErrUnauthorized("Not authorized to access this route")
	}
	return Principal{UserID: userID, Email: email, Role: role}, nil
}

type Capability string

const (
	CapViewDashboard Capability = "dashboard:view"
	CapManageContent Capability = "content:manage"
	CapBulkDelete    Capability = "content:bulk-delete"
	CapRegisterUsers Capability = "users:register"
	CapManageUsers   Capability = "users:manage"
	CapViewTelemetry Capability = "system:view"
)

var roleCapabilities = map[string][]Capability{
	models.RoleAdmin: {CapViewDashboard, CapManageContent, CapBulkDelete, CapRegisterUsers, CapManageUsers, CapViewTelemetry},
	models.RoleUser:  {CapViewDashboard},
}

// Principal is the verified identity attached to a request.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

func (p Principal) Can(c Capability) bool {
	for _, granted := range roleCapabilities[p.Role] {
		if granted == c {
			return true
		}
	}
	return false
}

const weakPasswordMessage = "Password must be at least 8 characters and contain at least one special character"

// checkPasswordPolicy requires at least 8 characters with one character
// that is neither a letter nor a digit.
func checkPasswordPolicy(password string) error {
	if len([]rune(password)) < 8 {
		return ErrValidationFields([]FieldError{{Field: "password", Message: weakPasswordMessage}})
	}
	for _, r := range password {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return nil
		}
	}
	return ErrValidationFields([]FieldError{{Field: "password", Message: weakPasswordMessage}})
}
