// Package config loads the persistent voiceterm configuration file. The only
// environment variable it reads is VOICETERM_CONFIG_DIR, which locates that file.
// Layering is config file < CLI flag overrides, the same direction h2 layers
// its own role/user config beneath per-invocation overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/shlex"
)

// Config is the on-disk ~/.config/voiceterm/config.toml shape. Every field is
// optional; a missing file, or a missing key within it, falls back to the
// built-in default applied later by the flag layer.
type Config struct {
	Backend     string      `toml:"backend"`
	BackendArgs string      `toml:"backend_args"`
	Theme       string      `toml:"theme"`
	HUD         HUDConfig   `toml:"hud"`
	Voice       VoiceConfig `toml:"voice"`
	Dev         DevConfig   `toml:"dev"`
}

type HUDConfig struct {
	Style             string `toml:"style"`
	BorderStyle       string `toml:"border_style"`
	RightPanel        string `toml:"right_panel"`
	RightPanelRecOnly bool   `toml:"right_panel_recording_only"`
	LatencyDisplay    string `toml:"latency_display"`
}

type VoiceConfig struct {
	AutoVoice           bool    `toml:"auto_voice"`
	SendMode            string  `toml:"send_mode"`
	VADThresholdDB      float64 `toml:"vad_threshold_db"`
	WakeWord            string  `toml:"wake_word"`
	WakeWordSensitivity float64 `toml:"wake_word_sensitivity"`
	WakeWordCooldownMS  int64   `toml:"wake_word_cooldown_ms"`
}

type DevConfig struct {
	Enabled bool   `toml:"enabled"`
	Log     bool   `toml:"log"`
	Path    string `toml:"path"`
}

// ConfigDir returns the voiceterm configuration directory, honoring
// $VOICETERM_CONFIG_DIR before falling back to ~/.config/voiceterm.
func ConfigDir() string {
	if dir := os.Getenv("VOICETERM_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "voiceterm")
	}
	return filepath.Join(home, ".config", "voiceterm")
}

// Load reads config.toml from ConfigDir(). A missing file is not an error: it
// returns an empty Config so every field falls through to its built-in
// default.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(ConfigDir(), "config.toml"))
}

// LoadFrom reads the voiceterm config from the given path. A missing file
// returns an empty Config with no error. Unknown keys are ignored for
// forward compatibility.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// SplitBackendArgs splits a single --backend-args string into argv the way a
// shell would, honoring quoting. An empty string yields a nil slice.
func SplitBackendArgs(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("split backend args: %w", err)
	}
	return args, nil
}

// Session guard's own env toggles (VOICETERM_SESSION_GUARD,
// VOICETERM_ORPHAN_SWEEP, VOICETERM_SESSION_GUARD_DIR) are read directly by
// package sessionguard, not duplicated here.
