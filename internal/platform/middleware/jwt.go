package middleware

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	dErrors "lifelink/pkg/domain-errors"
)

// JWTValidator validates HS256 operator tokens issued by the admin frontend.
type JWTValidator struct {
	signingKey []byte
}

func NewJWTValidator(signingKey string) *JWTValidator {
	return &JWTValidator{signingKey: []byte(signingKey)}
}

func (v *JWTValidator) ValidateToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid operator token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected claims type")
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing subject")
	}

	role, _ := claims["role"].(string)
	return &OperatorClaims{OperatorID: subject, Role: role}, nil
}

// IssueToken mints an operator token. Used by tests and the local dev seed.
func (v *JWTValidator) IssueToken(operatorID, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  operatorID,
		"role": role,
	})
	signed, err := token.SignedString(v.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign operator token: %w", err)
	}
	return signed, nil
}
