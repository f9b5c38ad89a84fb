package service

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

type ManagerClaim struct {
	Manager string `json:"manager"`
	jwt.RegisteredClaims
}

type JWTService interface {
	GenerateToken(manager string) (string, error)
	ValidateToken(tokenString string) (*ManagerClaim, error)
}

type jwtService struct {
	secretKey      string
	accessTokenExp time.Duration
}

func NewJWTService(secretKey string, accessTokenExp time.Duration) JWTService {
	return &jwtService{
		secretKey:      secretKey,
		accessTokenExp: accessTokenExp,
	}
}

func (s *jwtService) GenerateToken(manager string) (string, error) {
	now := time.Now()
	claims := &ManagerClaim{
		Manager: manager,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   manager,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenExp)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(s.secretKey))
}

func (s *jwtService) ValidateToken(tokenString string) (*ManagerClaim, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ManagerClaim{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidSigningMethod
		}
		return []byte(s.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*ManagerClaim)
	if !ok || !token.Valid || claims.Manager == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
