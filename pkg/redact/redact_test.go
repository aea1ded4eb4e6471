package redact

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_BearerToken(t *testing.T) {
	in := "connect rejected: Authorization: Bearer abc.def.ghi is invalid"
	out := String(in)

	assert.NotContains(t, out, "abc.def.ghi")
	assert.Contains(t, out, Marker)
}

func TestString_KeyValuePairs(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		secret string
	}{
		{"password equals", "login failed for password=hunter2 user=bob", "hunter2"},
		{"token equals", "bad query token=sekrit123", "sekrit123"},
		{"secret equals", "config dump secret=topsecret!", "topsecret!"},
		{"passcode colon", "STOMP header passcode: swordfish rejected", "swordfish"},
		{"api key", "request denied api_key=XYZ999", "XYZ999"},
		{"access token query", "dialed ws://h/ws?access_token=tok123", "tok123"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out := String(test.input)
			assert.NotContains(t, out, test.secret)
			assert.Contains(t, out, Marker)
		})
	}
}

func TestString_PreservesKeyName(t *testing.T) {
	out := String("auth failed: password=hunter2")
	assert.True(t, strings.Contains(strings.ToLower(out), "password="), "key should survive redaction: %q", out)
}

func TestString_LeavesOrdinaryTextAlone(t *testing.T) {
	in := "destination /topic/updates does not exist"
	assert.Equal(t, in, String(in))
	assert.Equal(t, "", String(""))
}

func TestError(t *testing.T) {
	assert.Equal(t, "", Error(nil))

	err := errors.New("refused: Bearer eyJhbGciOi.payload.sig")
	out := Error(err)
	assert.NotContains(t, out, "eyJhbGciOi")
}

func TestURL(t *testing.T) {
	out := URL("wss://example.com/ws?access_token=abc123&v=2")
	assert.NotContains(t, out, "abc123")
}
