package style

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// colorToX11 converts a termenv.Color to X11 rgb: format, the wire format
// expected by an OSC 10/11 response.
func colorToX11(c termenv.Color) string {
	if c == nil {
		return ""
	}
	if rgbColor, ok := c.(termenv.RGBColor); ok {
		hex := string(rgbColor)
		if len(hex) == 7 && hex[0] == '#' {
			r, _ := strconv.ParseUint(hex[1:3], 16, 8)
			g, _ := strconv.ParseUint(hex[3:5], 16, 8)
			b, _ := strconv.ParseUint(hex[5:7], 16, 8)
			return fmt.Sprintf("rgb:%04x/%04x/%04x", r*0x101, g*0x101, b*0x101)
		}
	}
	rgb := termenv.ConvertToRGB(c)
	r := uint8(rgb.R*255 + 0.5)
	g := uint8(rgb.G*255 + 0.5)
	b := uint8(rgb.B*255 + 0.5)
	return fmt.Sprintf("rgb:%04x/%04x/%04x", uint16(r)*0x101, uint16(g)*0x101, uint16(b)*0x101)
}

// TerminalColorHints captures the host terminal's OSC 10/11 foreground and
// background colors plus a COLORFGBG fallback, used to pick a readable
// built-in theme when no explicit --theme flag is given.
type TerminalColorHints struct {
	OscFg     string `json:"osc_fg,omitempty"`
	OscBg     string `json:"osc_bg,omitempty"`
	ColorFGBG string `json:"colorfgbg,omitempty"`
	Dark      bool   `json:"dark"`
}

// DetectTerminalColorHints probes stdout via termenv when it is a TTY,
// caching the result to cacheDir so a later non-TTY invocation (piped
// output, CI) can still recall the last known hints.
func DetectTerminalColorHints(cacheDir string) TerminalColorHints {
	var hints TerminalColorHints

	if term.IsTerminal(int(os.Stdout.Fd())) {
		output := termenv.NewOutput(os.Stdout)
		if fg := output.ForegroundColor(); fg != nil {
			hints.OscFg = colorToX11(fg)
		}
		if bg := output.BackgroundColor(); bg != nil {
			hints.OscBg = colorToX11(bg)
		}
		hints.Dark = output.HasDarkBackground()
		hints.ColorFGBG = os.Getenv("COLORFGBG")
		if hints.ColorFGBG == "" {
			if hints.Dark {
				hints.ColorFGBG = "15;0"
			} else {
				hints.ColorFGBG = "0;15"
			}
		}
		_ = persistTerminalColorHints(cacheDir, hints)
		return hints
	}

	if cached, ok := loadTerminalColorHints(cacheDir); ok {
		return cached
	}
	return hints
}

func hintsCachePath(cacheDir string) string {
	return filepath.Join(cacheDir, "terminal-colors.json")
}

func persistTerminalColorHints(cacheDir string, h TerminalColorHints) error {
	if cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return os.WriteFile(hintsCachePath(cacheDir), append(data, '\n'), 0o644)
}

func loadTerminalColorHints(cacheDir string) (TerminalColorHints, bool) {
	if cacheDir == "" {
		return TerminalColorHints{}, false
	}
	data, err := os.ReadFile(hintsCachePath(cacheDir))
	if err != nil {
		return TerminalColorHints{}, false
	}
	var h TerminalColorHints
	if err := json.Unmarshal(data, &h); err != nil {
		return TerminalColorHints{}, false
	}
	return h, true
}

// ThemeForHints picks a reasonable default base theme from detected color
// hints: voiceterm ships no light-mode palette variants yet, so a detected
// light background just keeps the ANSI theme for maximum contrast rather
// than guessing at an unsupported palette.
func ThemeForHints(h TerminalColorHints) Theme {
	if !h.Dark && h.ColorFGBG != "" {
		return ThemeAnsi
	}
	return ThemeCoral
}
