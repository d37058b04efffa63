package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "curio/pkg/domain"
	dErrors "curio/pkg/domain-errors"
)

// Claims are the JWT claims carried by registry access tokens. The account
// is the only identity the registry cares about; everything else is standard.
type Claims struct {
	Account string `json:"account"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

func (s *JWTService) GenerateAccessToken(account id.AccountID, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Account: account.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken parses and verifies a token and returns the account it was
// issued to. The account claim is validated like any caller-supplied
// identity: empty or reserved identities never authenticate.
func (s *JWTService) ValidateToken(tokenString string) (id.AccountID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return id.Nobody, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return id.Nobody, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return id.Nobody, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return id.Nobody, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	account, err := id.ParseAccountID(claims.Account)
	if err != nil {
		return id.Nobody, dErrors.New(dErrors.CodeUnauthorized, "invalid account claim")
	}
	return account, nil
}
