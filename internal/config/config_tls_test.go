package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTLSMode(t *testing.T) {
	tests := []struct {
		name        string
		tls         TLSConfig
		expectError bool
		errorMsg    string
	}{
		{
			name: "disabled mode",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "server mode with files",
			tls:  TLSConfig{Mode: "server", CertFile: "/c.pem", KeyFile: "/k.pem"},
		},
		{
			name: "server mode with vault content",
			tls:  TLSConfig{Mode: "server", CertContent: "CERT", KeyContent: "KEY"},
		},
		{
			name:        "server mode missing key",
			tls:         TLSConfig{Mode: "server", CertFile: "/c.pem"},
			expectError: true,
			errorMsg:    "TLS certificate and key are required for server mode",
		},
		{
			name:        "server mode duplicate cert source",
			tls:         TLSConfig{Mode: "server", CertFile: "/c.pem", CertContent: "CERT", KeyFile: "/k.pem"},
			expectError: true,
			errorMsg:    "cannot specify both certFile and certContent",
		},
		{
			name: "mutual mode valid",
			tls:  TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem", CAFile: "/ca.pem"},
		},
		{
			name:        "mutual mode missing ca",
			tls:         TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem"},
			expectError: true,
			errorMsg:    "CA certificate is required",
		},
		{
			name:        "mutual mode duplicate ca source",
			tls:         TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem", CAFile: "/ca.pem", CAContent: "CA"},
			expectError: true,
			errorMsg:    "cannot specify both caFile and caContent",
		},
		{
			name:        "mutual mode bad policy",
			tls:         TLSConfig{Mode: "mutual", CertFile: "/c.pem", KeyFile: "/k.pem", CAFile: "/ca.pem", ClientAuthPolicy: "maybe"},
			expectError: true,
			errorMsg:    "invalid clientAuthPolicy: maybe",
		},
		{
			name:        "invalid mode",
			tls:         TLSConfig{Mode: "invalid"},
			expectError: true,
			errorMsg:    "invalid TLS mode: invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTLSMode(tt.tls)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTLSVersion(t *testing.T) {
	for _, v := range []string{"", "1.2", "1.3"} {
		assert.NoError(t, validateTLSVersion(TLSConfig{MinVersion: v}), v)
	}
	err := validateTLSVersion(TLSConfig{MinVersion: "1.1"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TLS minVersion: 1.1")
}
