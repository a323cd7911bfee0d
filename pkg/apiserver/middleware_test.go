package apiserver

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdeps/intake/pkg/environment"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"Bearer ", "", false},
		{"Bearer", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)
	assert.True(t, corsConfig(nil).AllowAllOrigins)

	cfg := corsConfig([]string{"https://a.example.com"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example.com"}, cfg.AllowOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnvironment(t *testing.T) {
	env, err := environment.NewEnvironment(afero.NewMemMapFs(), &environment.Environment{
		Host:               "127.0.0.1",
		Port:               8080,
		APIToken:           "token",
		CORSOrigins:        "https://a.example.com, https://b.example.com",
		TrustedProxies:     "10.0.0.1",
		MaxUploadSize:      "1MiB",
		ArchiveMemoryLimit: "2KB",
	})
	require.NoError(t, err)

	cfg, err := ConfigFromEnvironment(env)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "token", cfg.APIToken)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)
	assert.Equal(t, int64(1<<20), cfg.MaxUploadBytes)
	assert.Equal(t, int64(2000), cfg.ArchiveMemoryLimit)
}

func TestConfigFromEnvironmentErrors(t *testing.T) {
	tests := []struct {
		name string
		env  environment.Environment
	}{
		{"bad upload size", environment.Environment{MaxUploadSize: "lots"}},
		{"bad archive limit", environment.Environment{ArchiveMemoryLimit: "-5"}},
		{"origin without scheme", environment.Environment{CORSOrigins: "example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := environment.NewEnvironment(afero.NewMemMapFs(), &tt.env)
			require.NoError(t, err)

			_, err = ConfigFromEnvironment(env)
			assert.Error(t, err)
		})
	}
}

func TestNewServerTrustedProxies(t *testing.T) {
	cfg := testConfig()
	cfg.TrustedProxies = []string{"10.0.0.0/8"}
	ts := newTestServer(t, cfg)
	assert.True(t, ts.server.router.ForwardedByClientIP)

	cfg.TrustedProxies = []string{"not-an-ip"}
	_, err := NewServer(ts.store, cfg, ts.logger)
	assert.Error(t, err)
}
