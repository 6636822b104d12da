package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ExtractIdentityFromJWT pulls the sub and role claims out of a JWT without
// validating the signature. Only the dev-mode middleware uses this; the
// production path verifies through the OIDC provider.
func ExtractIdentityFromJWT(tokenString string) (userID, role string, err error) {
	if tokenString == "" {
		return "", "", errors.New("empty token")
	}

	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", "", errors.New("subject claim not found in token")
	}

	// Role is optional in dev tokens; default to student.
	roleClaim, _ := claims["role"].(string)
	if roleClaim == "" {
		roleClaim = "student"
	}

	return sub, roleClaim, nil
}
