package rex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the user-tunable settings of a session.
type Config struct {
	// ShowASCII controls whether the printable-character pane is shown.
	ShowASCII bool `toml:"show_ascii"`

	// ShowLineNum controls the offset gutter.
	ShowLineNum bool `toml:"show_linenum"`

	// LineWidth forces a byte count per row; 0 fits the screen width.
	LineWidth int `toml:"line_width"`

	// HistoryLimit caps undo depth; 0 keeps history unbounded.
	HistoryLimit int `toml:"history_limit"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		ShowASCII:   true,
		ShowLineNum: true,
	}
}

// LoadConfig reads a TOML config file, applying it over the defaults.
// A missing file is not an error; the defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfigPath returns the conventional config location,
// $XDG_CONFIG_HOME/rex/rex.toml, falling back to ~/.config.
func DefaultConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "/"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "rex", "rex.toml")
}
