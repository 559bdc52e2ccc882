package auth

import (
	"testing"
	"time"

	"github.com/trutim/api/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	a := New(AuthorizerOptions{JWTSecret: "test-secret"})

	userID := primitive.NewObjectID()
	token, expireAt, err := a.CreateAccessToken(userID, 1)
	testutil.IsNil(t, err, "sign")
	testutil.Assert(t, true, expireAt.After(time.Now()), "expiry in the future")

	claims := &JWTClaimUser{}
	parsed, err := a.VerifyJWT(token, claims)
	testutil.IsNil(t, err, "verify")
	testutil.Assert(t, true, parsed.Valid, "token valid")
	testutil.Assert(t, userID.Hex(), claims.UserID, "user id claim")
	testutil.Assert(t, float64(1), claims.TokenVersion, "version claim")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a := New(AuthorizerOptions{JWTSecret: "test-secret"})
	b := New(AuthorizerOptions{JWTSecret: "other-secret"})

	token, _, err := a.CreateAccessToken(primitive.NewObjectID(), 1)
	testutil.IsNil(t, err, "sign")

	if _, err = b.VerifyJWT(token, &JWTClaimUser{}); err == nil {
		t.Fatal("expected a signature mismatch")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	a := New(AuthorizerOptions{JWTSecret: "test-secret"})

	if _, err := a.VerifyJWT("not.a.token", &JWTClaimUser{}); err == nil {
		t.Fatal("expected a parse failure")
	}
}
