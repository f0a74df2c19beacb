package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// JWTToken issues and checks the bearer tokens that guard the RPC surface.
// Callers are other backend services, identified by Service.
type JWTToken struct {
	config *Config
}

func NewJWTToken(config *Config) *JWTToken {
	return &JWTToken{config: config}
}

type jwtClaim struct {
	jwt.StandardClaims
	Service string `json:"service"`
	UserID  int64  `json:"user_id"`
}

type TokenObject struct {
	Service string `json:"service"`
	UserID  int64  `json:"user_id"`
}

func (j *JWTToken) CreateToken(obj TokenObject, ttl time.Duration) (string, error) {
	claims := jwtClaim{
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
		Service: obj.Service,
		UserID:  obj.UserID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(j.config.SigningKey))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (j *JWTToken) VerifyToken(tokenString string) (TokenObject, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid authentication token, format error")
		}
		return []byte(j.config.SigningKey), nil
	})

	if err != nil {
		return TokenObject{}, fmt.Errorf("invalid authentication token, %v", err.Error())
	}

	claims, ok := token.Claims.(*jwtClaim)
	if !ok || !token.Valid {
		return TokenObject{}, fmt.Errorf("invalid authentication token, token is not OK")
	}

	return TokenObject{
		Service: claims.Service,
		UserID:  claims.UserID,
	}, nil
}
