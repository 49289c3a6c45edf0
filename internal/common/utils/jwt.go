package utils

import (
	"errors"
	"fmt"

	"github.com/dgrijalva/jwt-go"
)

// JwtSign sign claims with HS256 + key, return signed string
func JwtSign(key string, claims jwt.MapClaims) (string, error) {
	if key == "" {
		return "", errors.New("jwt key is empty")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(key))
}

// JwtDecode validates signature and exp, returns the claims.
func JwtDecode(key string, token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(key), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}
