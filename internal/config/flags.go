package config

import (
	"flag"
)

// Flags are the command line overrides
type Flags struct {
	ConfigPath string
	Port       int
	DBPath     string
	LogLevel   string

	set map[string]bool
}

// ParseFlags parses command-line flags from args
func ParseFlags(fs *flag.FlagSet, args []string) (Flags, error) {
	var f Flags
	fs.StringVar(&f.ConfigPath, "config", "config.yaml", "Path to YAML config file")
	fs.IntVar(&f.Port, "port", 0, "Web server port")
	fs.StringVar(&f.DBPath, "db", "", "Database path")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}

	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
	return f, nil
}

// Apply overrides cfg with the flags given explicitly
func (f Flags) Apply(cfg *Config) {
	if f.set["port"] {
		cfg.Server.Port = f.Port
	}
	if f.set["db"] {
		cfg.Database.Path = f.DBPath
	}
	if f.set["log-level"] {
		cfg.Logging.Level = f.LogLevel
	}
}
