package style

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// ThemeFile is the on-disk TOML theme format under
// ~/.config/voiceterm/themes/*.toml. It supports a three-tier token system:
// palette (primitive hex colors), colors (semantic tokens referencing
// palette keys or inline hex), and components (per-component/state
// overrides), and may inherit from any built-in theme via BaseTheme.
type ThemeFile struct {
	Meta       ThemeFileMeta                            `toml:"meta"`
	Palette    map[string]string                         `toml:"palette"`
	Colors     ThemeFileColors                            `toml:"colors"`
	Borders    ThemeFileBorders                           `toml:"borders"`
	Indicators ThemeFileIndicators                        `toml:"indicators"`
	Glyphs     ThemeFileGlyphs                            `toml:"glyphs"`
	Spinner    ThemeFileSpinner                           `toml:"spinner"`
	VoiceScene ThemeFileVoiceScene                        `toml:"voice_scene"`
	Progress   ThemeFileProgress                          `toml:"progress"`
	Components map[string]map[string]ThemeFileComponent `toml:"components"`
}

type ThemeFileMeta struct {
	Name      string `toml:"name"`
	Version   int    `toml:"version"`
	BaseTheme string `toml:"base_theme"`
}

type ThemeFileColors struct {
	Recording, Processing, Success, Warning, Error, Info, Dim string
	BgPrimary                                                 string `toml:"bg_primary"`
	BgSecondary                                                string `toml:"bg_secondary"`
	Border                                                    string
}

type ThemeFileBorders struct {
	Style string `toml:"style"`
}

type ThemeFileIndicators struct {
	Rec, Auto, Manual, Idle, Processing, Responding string
}

type ThemeFileGlyphs struct {
	Set string `toml:"set"`
}

type ThemeFileSpinner struct {
	Style string `toml:"style"`
}

type ThemeFileVoiceScene struct {
	Style string `toml:"style"`
}

type ThemeFileProgress struct {
	BarFamily string `toml:"bar_family"`
}

type ThemeFileComponent struct {
	Fg   string `toml:"fg"`
	Bg   string `toml:"bg"`
	Bold bool   `toml:"bold"`
	Dim  bool   `toml:"dim"`
}

// LoadThemeFile reads and parses a TOML theme file from disk.
func LoadThemeFile(path string) (ThemeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ThemeFile{}, fmt.Errorf("read theme file: %w", err)
	}
	var tf ThemeFile
	if _, err := toml.Decode(string(data), &tf); err != nil {
		return ThemeFile{}, fmt.Errorf("parse theme file: %w", err)
	}
	if tf.Meta.Version == 0 {
		tf.Meta.Version = 1
	}
	return tf, nil
}

// ResolveThemeFile turns a parsed ThemeFile into a StylePack layered on top
// of its declared (or default) base theme. Per-component overrides are
// looked up by the caller via ComponentID.StyleID against tf.Components.
func ResolveThemeFile(tf ThemeFile) StylePack {
	pack := BuiltIn(ThemeByName(tf.Meta.BaseTheme))
	if tf.Borders.Style != "" {
		pack.BorderStyleOverride = tf.Borders.Style
	}
	if tf.Glyphs.Set != "" {
		pack.GlyphSetOverride = tf.Glyphs.Set
	}
	if tf.Progress.BarFamily != "" {
		pack.Component.ProgressBarFamily = tf.Progress.BarFamily
	}
	if tf.VoiceScene.Style != "" {
		pack.Surface.VoiceSceneStyle = tf.VoiceScene.Style
	}
	return pack
}

// ComponentOverride looks up a per-component/state color override from a
// theme file, returning ok=false when none is set for that pair.
func (tf ThemeFile) ComponentOverride(id ComponentID, state ComponentState) (ThemeFileComponent, bool) {
	states, ok := tf.Components[id.StyleID()]
	if !ok {
		return ThemeFileComponent{}, false
	}
	c, ok := states[state.String()]
	return c, ok
}

const themeFileWatchInterval = 500 * time.Millisecond

// WatchThemeFile polls path every themeFileWatchInterval and invokes onChange
// with the newly parsed ThemeFile whenever its modtime advances. It returns
// when ctx is cancelled. Parse errors are swallowed (the previous good theme
// stays in effect) since a background poll is never the right place to
// surface a fatal error.
func WatchThemeFile(ctx context.Context, path string, onChange func(ThemeFile)) {
	ticker := time.NewTicker(themeFileWatchInterval)
	defer ticker.Stop()

	var lastMod time.Time
	checkOnce := func() {
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if !info.ModTime().After(lastMod) {
			return
		}
		lastMod = info.ModTime()
		tf, err := LoadThemeFile(path)
		if err != nil {
			return
		}
		onChange(tf)
	}

	checkOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkOnce()
		}
	}
}
