package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, BackendDirect, c.Backend)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
	assert.Equal(t, 20, c.ReadLimit)
	assert.Equal(t, "albertomaydayjhondoe", c.RepoOwner)
	assert.Equal(t, "Porteria", c.RepoName)
	assert.Equal(t, "main", c.Branch)
	assert.Equal(t, "public/data/strips.json", c.DocumentPath)
	assert.Equal(t, "public/strips", c.MediaDir)
	assert.Equal(t, GateSecret, c.GateMode)
	assert.Equal(t, 5, c.MaxLoginAttempts)
	assert.Equal(t, 5*time.Minute, c.LockoutDuration)
	assert.Empty(t, c.ContentsToken)
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Backend = "ftp" }},
		{"gate", func(c *Config) { c.GateMode = "none" }},
		{"timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"read limit", func(c *Config) { c.ReadLimit = 0 }},
		{"attempts", func(c *Config) { c.MaxLoginAttempts = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tc.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"backend":          "managed",
		"request_timeout":  "10s",
		"repo_owner":       "someone",
		"read_limit":       5,
		"s3_bucket":        "bucket",
		"lockout_duration": "1m",
	})

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseJson(&c, []string{"-config", path}))

	assert.Equal(t, BackendManaged, c.Backend)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, "someone", c.RepoOwner)
	assert.Equal(t, 5, c.ReadLimit)
	assert.Equal(t, "bucket", c.S3Bucket)
	assert.Equal(t, time.Minute, c.LockoutDuration)
	// untouched keys keep their defaults
	assert.Equal(t, "Porteria", c.RepoName)
}

func TestParseJson_NoFlagIsNoop(t *testing.T) {
	var c Config
	c.LoadDefaults()
	require.NoError(t, parseJson(&c, nil))
	assert.Equal(t, BackendDirect, c.Backend)
}

func TestParseJson_Errors(t *testing.T) {
	var c Config
	c.LoadDefaults()
	assert.Error(t, parseJson(&c, []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	assert.Error(t, parseJson(&c, []string{"-c", bad}))
}

func TestParseEnv(t *testing.T) {
	t.Setenv("PORTERIAS_CONTENTS_TOKEN", "ghp_x")
	t.Setenv("PORTERIAS_BACKEND", "export")
	t.Setenv("PORTERIAS_REQUEST_TIMEOUT", "45s")
	t.Setenv("PORTERIAS_MAX_LOGIN_ATTEMPTS", "3")

	var c Config
	c.LoadDefaults()
	require.NoError(t, parseEnv(&c))

	assert.Equal(t, "ghp_x", c.ContentsToken)
	assert.Equal(t, BackendExport, c.Backend)
	assert.Equal(t, 45*time.Second, c.RequestTimeout)
	assert.Equal(t, 3, c.MaxLoginAttempts)
}

func TestParseEnv_BadValues(t *testing.T) {
	t.Setenv("PORTERIAS_SESSION_TTL", "forever")

	var c Config
	c.LoadDefaults()
	assert.Error(t, parseEnv(&c))
}

func TestParseFlags(t *testing.T) {
	var c Config
	c.LoadDefaults()

	err := parseFlags(&c, []string{"-b", "managed", "-t", "12", "-unknown", "x", "-o", "me"})
	require.NoError(t, err)

	assert.Equal(t, BackendManaged, c.Backend)
	assert.Equal(t, 12*time.Second, c.RequestTimeout)
	assert.Equal(t, "me", c.RepoOwner)
}

func TestParseFlags_TimeoutUntouchedWithoutFlag(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.RequestTimeout = 1500 * time.Millisecond

	require.NoError(t, parseFlags(&c, []string{"-b", "export"}))
	assert.Equal(t, 1500*time.Millisecond, c.RequestTimeout)
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"backend": "managed", "branch": "json"})
	t.Setenv("PORTERIAS_BRANCH", "env")

	c, err := load([]string{"-c", path, "-g", "flag"})
	require.NoError(t, err)

	assert.Equal(t, BackendManaged, c.Backend)
	assert.Equal(t, "flag", c.Branch)
}

func TestLoad_InvalidResult(t *testing.T) {
	_, err := load([]string{"-b", "carrier-pigeon"})
	assert.Error(t, err)
}
