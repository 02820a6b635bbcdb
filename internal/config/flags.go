package config

import (
	"flag"
	"time"

	"github.com/albertomaydayjhondoe/porterias/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   backend: managed, export or direct
//	-l string   log level
//	-t int      request timeout, seconds
//	-s string   public site URL (read path)
//	-o string   repository owner
//	-r string   repository name
//	-g string   branch
//	-d string   PostgreSQL DSN (managed backend, identity gate)
//	-m string   gate mode: secret or identity
//	-x string   export directory
//	-f string   local SQLite file
//
// The contents token is deliberately not a flag; flags are visible in the
// process list.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-b", "-l", "-t", "-s", "-o", "-r", "-g", "-d", "-m", "-x", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Backend, "b", config.Backend, "persistence backend (managed, export, direct)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	timeout := fs.Int("t", int(config.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&config.SiteURL, "s", config.SiteURL, "public site URL")
	fs.StringVar(&config.RepoOwner, "o", config.RepoOwner, "repository owner")
	fs.StringVar(&config.RepoName, "r", config.RepoName, "repository name")
	fs.StringVar(&config.Branch, "g", config.Branch, "repository branch")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.GateMode, "m", config.GateMode, "session gate mode (secret, identity)")
	fs.StringVar(&config.ExportDir, "x", config.ExportDir, "export directory")
	fs.StringVar(&config.LocalDBPath, "f", config.LocalDBPath, "local database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
