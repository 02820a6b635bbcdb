package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by parseEnv.
const EnvPrefix = "PORTERIAS_"

// envKey maps PORTERIAS_CONTENTS_TOKEN to contents_token.
func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// parseEnv overlays PORTERIAS_* variables onto config. Keys match the JSON
// file keys.
func parseEnv(config *Config) error {
	k := koanf.New("::")
	if err := k.Load(env.Provider(EnvPrefix, "::", envKey), nil); err != nil {
		return err
	}

	strs := map[string]*string{
		"backend":            &config.Backend,
		"log_level":          &config.LogLevel,
		"site_url":           &config.SiteURL,
		"data_path":          &config.DataPath,
		"contents_api_url":   &config.ContentsAPIURL,
		"repo_owner":         &config.RepoOwner,
		"repo_name":          &config.RepoName,
		"branch":             &config.Branch,
		"document_path":      &config.DocumentPath,
		"media_dir":          &config.MediaDir,
		"contents_token":     &config.ContentsToken,
		"s3_root_user":       &config.S3RootUser,
		"s3_root_password":   &config.S3RootPassword,
		"s3_bucket":          &config.S3Bucket,
		"s3_region":          &config.S3Region,
		"s3_base_endpoint":   &config.S3BaseEndpoint,
		"s3_public_base_url": &config.S3PublicBaseURL,
		"database_dsn":       &config.DatabaseDSN,
		"gate_mode":          &config.GateMode,
		"shared_secret":      &config.SharedSecret,
		"secret_key":         &config.SecretKey,
		"export_dir":         &config.ExportDir,
		"local_db_path":      &config.LocalDBPath,
	}
	for key, dst := range strs {
		if k.Exists(key) {
			*dst = k.String(key)
		}
	}

	durations := map[string]*time.Duration{
		"request_timeout":  &config.RequestTimeout,
		"session_ttl":      &config.SessionTTL,
		"lockout_duration": &config.LockoutDuration,
	}
	for key, dst := range durations {
		if !k.Exists(key) {
			continue
		}
		d, err := time.ParseDuration(k.String(key))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, strings.ToUpper(key), err)
		}
		*dst = d
	}

	ints := map[string]*int{
		"read_limit":         &config.ReadLimit,
		"max_login_attempts": &config.MaxLoginAttempts,
	}
	for key, dst := range ints {
		if !k.Exists(key) {
			continue
		}
		n, err := strconv.Atoi(k.String(key))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, strings.ToUpper(key), err)
		}
		*dst = n
	}
	return nil
}
