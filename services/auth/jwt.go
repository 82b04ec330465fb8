package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"placement-storefront/models"
)

const AccessTokenDuration = 24 * time.Hour

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// JWTService verifies the bearer tokens the auth provider issues for signed-in
// customers.
type JWTService struct {
	secretKey []byte
	issuer    string
}

type Claims struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Mobile          string   `json:"mobile,omitempty"`
	Phone           string   `json:"phone,omitempty"`
	EnrolledCourses []string `json:"enrolled_courses,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey, issuer string) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
	}
}

// GenerateToken signs an access token for identity. The storefront only
// verifies tokens in production; this is used by tests and local tooling.
func (j *JWTService) GenerateToken(identity models.Identity, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:            identity.Name,
		Email:           identity.Email,
		Mobile:          identity.Mobile,
		Phone:           identity.Phone,
		EnrolledCourses: identity.EnrolledCourses,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

func (j *JWTService) ValidateToken(tokenString string) (*models.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &models.Identity{
		ID:              claims.Subject,
		Name:            claims.Name,
		Email:           claims.Email,
		Mobile:          claims.Mobile,
		Phone:           claims.Phone,
		EnrolledCourses: claims.EnrolledCourses,
	}, nil
}
