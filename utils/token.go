package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// GenerateToken issues an HS256 token carrying the user id and a unique
// token id used for logout.
func GenerateToken(userID uint, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":  userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ExtractUserID reads the "id" claim, tolerating the numeric encodings a
// JSON decoder may produce.
func ExtractUserID(claims jwt.MapClaims) (uint, error) {
	idVal, ok := claims["id"]
	if !ok || idVal == nil {
		return 0, errors.New("no id found in claims")
	}

	switch v := idVal.(type) {
	case float64:
		if v <= 0 {
			return 0, fmt.Errorf("invalid id %v", v)
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse id string: %w", err)
		}
		return uint(parsed), nil
	case uint:
		return v, nil
	case int:
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unsupported id type: %T", v)
	}
}

// TokenID returns the "jti" claim, or an empty string.
func TokenID(claims jwt.MapClaims) string {
	jti, _ := claims["jti"].(string)
	return jti
}

// TokenExpiry returns the "exp" claim as a time.
func TokenExpiry(claims jwt.MapClaims) time.Time {
	switch v := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0)
	case int64:
		return time.Unix(v, 0)
	}
	return time.Time{}
}
