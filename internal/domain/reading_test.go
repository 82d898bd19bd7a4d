package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReading(t *testing.T) {
	r, err := ParseReading([]byte("1700000000;1.42"))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), r.Timestamp)
	assert.Equal(t, 1.42, r.Value)

	r, err = ParseReading([]byte(" 1700000000 ; -3 \n"))
	require.NoError(t, err)
	assert.Equal(t, -3.0, r.Value)
}

func TestParseReading_Malformed(t *testing.T) {
	for _, p := range []string{
		"",
		"1700000000",
		"1700000000;1.0;2.0",
		"abc;1.0",
		"1700000000.5;1.0",
		"1700000000;abc",
		"1700000000;NaN",
		"1700000000;+Inf",
		"hello",
	} {
		_, err := ParseReading([]byte(p))
		assert.ErrorIs(t, err, ErrMalformedPayload, "payload %q", p)
	}
}

func TestIsHandshake(t *testing.T) {
	assert.True(t, IsHandshake([]byte("hello")))
	assert.True(t, IsHandshake([]byte("hello\n")))
	assert.False(t, IsHandshake([]byte("HELLO")))
	assert.False(t, IsHandshake([]byte("1;2")))
}
