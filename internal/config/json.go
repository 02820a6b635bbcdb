package config

import (
	"encoding/json"
	"os"

	"github.com/albertomaydayjhondoe/porterias/internal/flagx"
	"github.com/albertomaydayjhondoe/porterias/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Zero values
// leave the corresponding Config field untouched.
type JsonConfig struct {
	Backend        string         `json:"backend"`
	LogLevel       string         `json:"log_level"`
	RequestTimeout timex.Duration `json:"request_timeout"`

	SiteURL   string `json:"site_url"`
	DataPath  string `json:"data_path"`
	ReadLimit int    `json:"read_limit"`

	ContentsAPIURL string `json:"contents_api_url"`
	RepoOwner      string `json:"repo_owner"`
	RepoName       string `json:"repo_name"`
	Branch         string `json:"branch"`
	DocumentPath   string `json:"document_path"`
	MediaDir       string `json:"media_dir"`
	ContentsToken  string `json:"contents_token"`

	S3RootUser      string `json:"s3_root_user"`
	S3RootPassword  string `json:"s3_root_password"`
	S3Bucket        string `json:"s3_bucket"`
	S3Region        string `json:"s3_region"`
	S3BaseEndpoint  string `json:"s3_base_endpoint"`
	S3PublicBaseURL string `json:"s3_public_base_url"`
	DatabaseDSN     string `json:"database_dsn"`

	GateMode         string         `json:"gate_mode"`
	SharedSecret     string         `json:"shared_secret"`
	SecretKey        string         `json:"secret_key"`
	SessionTTL       timex.Duration `json:"session_ttl"`
	MaxLoginAttempts int            `json:"max_login_attempts"`
	LockoutDuration  timex.Duration `json:"lockout_duration"`

	ExportDir   string `json:"export_dir"`
	LocalDBPath string `json:"local_db_path"`
}

// parseJson overlays the file named by -c/-config onto config. Without the
// flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setString(&config.Backend, c.Backend)
	setString(&config.LogLevel, c.LogLevel)
	if c.RequestTimeout.Duration != 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}

	setString(&config.SiteURL, c.SiteURL)
	setString(&config.DataPath, c.DataPath)
	if c.ReadLimit != 0 {
		config.ReadLimit = c.ReadLimit
	}

	setString(&config.ContentsAPIURL, c.ContentsAPIURL)
	setString(&config.RepoOwner, c.RepoOwner)
	setString(&config.RepoName, c.RepoName)
	setString(&config.Branch, c.Branch)
	setString(&config.DocumentPath, c.DocumentPath)
	setString(&config.MediaDir, c.MediaDir)
	setString(&config.ContentsToken, c.ContentsToken)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setString(&config.DatabaseDSN, c.DatabaseDSN)

	setString(&config.GateMode, c.GateMode)
	setString(&config.SharedSecret, c.SharedSecret)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.MaxLoginAttempts != 0 {
		config.MaxLoginAttempts = c.MaxLoginAttempts
	}
	if c.LockoutDuration.Duration != 0 {
		config.LockoutDuration = c.LockoutDuration.Duration
	}

	setString(&config.ExportDir, c.ExportDir)
	setString(&config.LocalDBPath, c.LocalDBPath)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
