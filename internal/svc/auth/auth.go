package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Authorizer signs and verifies the identity tokens presented at the
// websocket handshake. Token issuance itself belongs to the account service;
// the realtime layer only ever verifies.
type Authorizer interface {
	SignJWT(claim jwt.Claims) (string, error)
	VerifyJWT(token string, out jwt.Claims) (*jwt.Token, error)
	CreateAccessToken(targetID primitive.ObjectID, version float64) (string, time.Time, error)
}

type authorizer struct {
	jwtSecret string
}

func New(opt AuthorizerOptions) Authorizer {
	return &authorizer{
		jwtSecret: opt.JWTSecret,
	}
}

type AuthorizerOptions struct {
	JWTSecret string
}

func (a *authorizer) CreateAccessToken(targetID primitive.ObjectID, version float64) (string, time.Time, error) {
	expireAt := time.Now().Add(time.Hour * 24 * 90)

	token, err := a.SignJWT(&JWTClaimUser{
		UserID:       targetID.Hex(),
		TokenVersion: version,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "trutim-api",
		},
	})

	return token, expireAt, err
}
