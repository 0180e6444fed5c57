package signature

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	assert.Equal(t, DefaultTime, New(0).Time)
	assert.Equal(t, int64(42), New(42).Time)
	assert.Equal(t, "1454514088", New(0).Timestamp())
}

func TestCompute_KnownValues(t *testing.T) {
	tests := []struct {
		name   string
		body   []byte
		secret string
		want   string
	}{
		{
			name:   "empty body",
			body:   []byte{},
			secret: "topsecret",
			want:   "ZiBYXxVGUXvVrPnIQMVDeyzcxRrVbERmB7BRk6AAxJo=",
		},
		{
			name:   "text body",
			body:   []byte("hello"),
			secret: "topsecret",
			want:   "moLs6H81D+PUzHfSP8e5LhQCMBTg0qN5bPhUqvfedMc=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compute("1454514088", tt.body, tt.secret))
			assert.Equal(t, tt.want, New(0).Sign(tt.body, tt.secret))
		})
	}
}

func TestSign_DecodesToDigestLength(t *testing.T) {
	sig := New(0).Sign([]byte("body"), "topsecret")

	raw, err := base64.StdEncoding.DecodeString(sig)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestSign_Deterministic(t *testing.T) {
	s := New(0)
	body := []byte("same body")

	assert.Equal(t, s.Sign(body, "secret"), s.Sign(body, "secret"))
}

func TestSign_Sensitivity(t *testing.T) {
	s := New(0)
	body := []byte("body")
	base := s.Sign(body, "secret")

	assert.NotEqual(t, base, s.Sign(body, "other-secret"), "secret change")
	assert.NotEqual(t, base, s.Sign([]byte("body!"), "secret"), "body change")
	assert.NotEqual(t, base, New(DefaultTime+1).Sign(body, "secret"), "time change")
}

func TestVerify(t *testing.T) {
	s := New(0)
	body := []byte("payload bytes")
	sig := s.Sign(body, "secret")

	tests := []struct {
		name      string
		timestamp string
		body      []byte
		secret    string
		sig       string
		wantErr   bool
	}{
		{name: "valid", timestamp: s.Timestamp(), body: body, secret: "secret", sig: sig},
		{name: "wrong time", timestamp: "1454514089", body: body, secret: "secret", sig: sig, wantErr: true},
		{name: "wrong body", timestamp: s.Timestamp(), body: []byte("tampered"), secret: "secret", sig: sig, wantErr: true},
		{name: "wrong secret", timestamp: s.Timestamp(), body: body, secret: "nope", sig: sig, wantErr: true},
		{name: "empty signature", timestamp: s.Timestamp(), body: body, secret: "secret", sig: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.timestamp, tt.body, tt.secret, tt.sig)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.NoError(t, s.Verify(body, "secret", sig))
}
