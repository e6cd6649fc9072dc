package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"Bare", "localhost:9000", false, "localhost:9000", false},
		{"BareWithSSL", "minio.internal:9000", true, "minio.internal:9000", true},
		{"HTTP", "http://localhost:9000", false, "localhost:9000", false},
		{"HTTPSForcesTLS", "https://s3.amazonaws.com", false, "s3.amazonaws.com", true},
		{"TrailingSlash", " http://localhost:9000/ ", false, "localhost:9000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure := normalizeEndpoint(tt.raw, tt.useSSL)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestNewTransport(t *testing.T) {
	tr := newTransport(5 * time.Second)
	assert.Equal(t, 5*time.Second, tr.TLSHandshakeTimeout)
	assert.Equal(t, 5*time.Second, tr.ResponseHeaderTimeout)
	assert.True(t, tr.ForceAttemptHTTP2)
}
