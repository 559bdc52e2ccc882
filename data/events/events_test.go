package events

import (
	"testing"

	"github.com/trutim/api/internal/testutil"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"message","content":"hi"}`))
	testutil.IsNil(t, err, "valid frame parses")
	testutil.Assert(t, EventTypeMessage, f.Type, "type discriminator")

	body := MessagePayload{}
	testutil.IsNil(t, f.DecodeInto(&body), "body decodes")
	testutil.Assert(t, "hi", body.Content, "body content")
}

func TestParseFrameWithoutType(t *testing.T) {
	f, err := ParseFrame([]byte(`{"content":"hi"}`))
	testutil.IsNil(t, err, "a typeless object still parses")
	testutil.Assert(t, EventType(""), f.Type, "empty discriminator")
}

func TestParseFrameRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{
		`not json at all`,
		`[1,2,3]`,
		`"message"`,
		``,
	} {
		if _, err := ParseFrame([]byte(raw)); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestTypingPayloadDistinguishesAbsentFromFalse(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"typing"}`))
	testutil.IsNil(t, err, "parse")

	body := TypingPayload{}
	testutil.IsNil(t, f.DecodeInto(&body), "decode")
	testutil.Assert(t, (*bool)(nil), body.Typing, "absent flag stays nil")

	f, err = ParseFrame([]byte(`{"type":"typing","typing":false}`))
	testutil.IsNil(t, err, "parse")

	body = TypingPayload{}
	testutil.IsNil(t, f.DecodeInto(&body), "decode")

	if body.Typing == nil {
		t.Fatal("explicit flag should be set")
	}

	testutil.Assert(t, false, *body.Typing, "explicit false survives")
}

func TestCloseCodeStrings(t *testing.T) {
	testutil.Assert(t, "Authentication Failed", CloseCodeAuthFailure.String(), "auth failure")
	testutil.Assert(t, "Unknown Stream", CloseCodeUnknownRoute.String(), "unknown route")
	testutil.Assert(t, "Undocumented Closure", CloseCode(4999).String(), "unknown code")
}
