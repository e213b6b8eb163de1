// Package config loads launcher settings. Sources are layered, later wins:
// defaults, the TOML file, the .env file next to the executable, then the
// TANDEM_* process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tandem-cli/internal/inputstate"
	"tandem-cli/internal/ui"

	"github.com/BurntSushi/toml"
)

const (
	FileName  = "tandem.toml"
	EnvFile   = ".env"
	envPrefix = "TANDEM_"

	DefaultShutdownTimeout = 2 * time.Second
	DefaultWatchDelay      = 300 * time.Millisecond
)

// Duration reads "250ms"-style strings from TOML and the environment.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Debug     bool `toml:"debug"`
	DebugTree bool `toml:"debug_tree"`

	Debounce        Duration `toml:"debounce"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	WatchDelay      Duration `toml:"watch_delay"`

	// WorkerCommand starts a persistent content worker. Empty means this
	// executable's "worker" subcommand.
	WorkerCommand string `toml:"worker_command"`
	// RunCommand is the one-shot content command. Empty means this
	// executable's "run" subcommand.
	RunCommand string `toml:"run_command"`
	WorkDir    string `toml:"work_dir"`

	LogPath     string `toml:"log_path"`
	JournalPath string `toml:"journal_path"`

	Columns     int    `toml:"columns"`
	ColorScheme string `toml:"color_scheme"`

	// Source is the TOML file that was read, if any.
	Source string `toml:"-"`
}

func Default() Config {
	return Config{
		Debounce:        Duration{inputstate.DefaultQuietPeriod},
		ShutdownTimeout: Duration{DefaultShutdownTimeout},
		WatchDelay:      Duration{DefaultWatchDelay},
	}
}

// LoadOptions locates the sources. Zero values mean the process defaults.
type LoadOptions struct {
	// Path is an explicit config file; it must exist.
	Path string
	// ExeDir is where .env and a fallback tandem.toml are looked up.
	ExeDir string
	Getenv func(string) string
}

func Load(opts LoadOptions) (Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	exeDir := opts.ExeDir
	if exeDir == "" {
		if exe, err := os.Executable(); err == nil {
			exeDir = filepath.Dir(exe)
		}
	}

	cfg := Default()

	path, explicit := opts.Path, opts.Path != ""
	if !explicit {
		if v := strings.TrimSpace(getenv(envPrefix + "CONFIG")); v != "" {
			path, explicit = v, true
		}
	}
	if !explicit {
		path = findFile(getenv, exeDir)
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config: %s: %w", path, err)
			}
		} else {
			cfg.Source = path
		}
	}

	if exeDir != "" {
		env, err := ReadEnvFile(filepath.Join(exeDir, EnvFile))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := cfg.applyDotEnv(env); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func findFile(getenv func(string) string, exeDir string) string {
	if dir, err := Dir(getenv); err == nil {
		p := filepath.Join(dir, FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if exeDir != "" {
		p := filepath.Join(exeDir, FileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Dir is $TANDEM_CONFIG_DIR, or ~/.tandem.
func Dir(getenv func(string) string) (string, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(envPrefix + "CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tandem"), nil
}

func (c *Config) applyDotEnv(env map[string]string) error {
	if v, ok := env["LAUNCHER_DEBUG"]; ok {
		c.Debug = ParseBool(v, c.Debug)
	}
	if v, ok := env["LAUNCHER_DEBUG_TREE"]; ok {
		c.DebugTree = ParseBool(v, c.DebugTree)
	}
	return c.applyEnv(func(k string) string { return env[k] })
}

func (c *Config) applyEnv(getenv func(string) string) error {
	lookup := func(name string) (string, bool) {
		v := strings.TrimSpace(getenv(envPrefix + name))
		return v, v != ""
	}
	if v, ok := lookup("DEBUG"); ok {
		c.Debug = ParseBool(v, c.Debug)
	}
	if v, ok := lookup("DEBUG_TREE"); ok {
		c.DebugTree = ParseBool(v, c.DebugTree)
	}
	for name, d := range map[string]*Duration{
		"DEBOUNCE":         &c.Debounce,
		"SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
		"WATCH_DELAY":      &c.WatchDelay,
	} {
		if v, ok := lookup(name); ok {
			if err := d.UnmarshalText([]byte(v)); err != nil {
				return fmt.Errorf("config: %s%s: %w", envPrefix, name, err)
			}
		}
	}
	for name, s := range map[string]*string{
		"WORKER_COMMAND": &c.WorkerCommand,
		"RUN_COMMAND":    &c.RunCommand,
		"WORK_DIR":       &c.WorkDir,
		"LOG_PATH":       &c.LogPath,
		"JOURNAL_PATH":   &c.JournalPath,
		"COLOR_SCHEME":   &c.ColorScheme,
	} {
		if v, ok := lookup(name); ok {
			*s = v
		}
	}
	if v, ok := lookup("COLUMNS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sCOLUMNS: %w", envPrefix, err)
		}
		c.Columns = n
	}
	return nil
}

func (c Config) Validate() error {
	if c.Columns < 0 {
		return fmt.Errorf("config: columns must not be negative, got %d", c.Columns)
	}
	if c.Debounce.Duration < 0 || c.ShutdownTimeout.Duration < 0 || c.WatchDelay.Duration < 0 {
		return errors.New("config: durations must not be negative")
	}
	if c.ColorScheme != "" {
		if _, err := ui.ParseScheme(c.ColorScheme); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

// LogFile is where the display process logs, "" for none.
func (c Config) LogFile(getenv func(string) string) string {
	if c.LogPath != "" {
		return c.LogPath
	}
	dir, err := Dir(getenv)
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "launcher.log")
}

// ContentEnv returns the environment entries the content process reads.
func (c Config) ContentEnv() []string {
	var env []string
	if c.Columns > 0 {
		env = append(env, "COLUMNS="+strconv.Itoa(c.Columns))
	}
	if c.ColorScheme != "" {
		env = append(env, "APP_COLOR_SCHEME="+c.ColorScheme)
	}
	return env
}

// ParseBool accepts 1/true/yes/on and 0/false/no/off; anything else keeps def.
func ParseBool(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
