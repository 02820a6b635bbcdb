// Package config loads runtime configuration for the porterias CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables prefixed with PORTERIAS_ (PORTERIAS_CONTENTS_TOKEN,
//     PORTERIAS_BACKEND, ...), named after the JSON keys.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
// Durations accept either strings like "30s" or integer nanoseconds:
//
//	{
//	  "backend": "direct",
//	  "request_timeout": "30s",
//	  "repo_owner": "albertomaydayjhondoe",
//	  "repo_name": "Porteria",
//	  "branch": "main",
//	  "lockout_duration": "5m"
//	}
package config
