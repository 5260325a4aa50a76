// Package style resolves the rendering tokens (colors, borders, glyphs,
// indicators, spinner/progress family) that the HUD and overlay draw with,
// starting from one of the built-in base themes and layering Theme Studio
// overrides, a TOML theme file, and runtime component overrides on top.
package style

// Theme is a built-in base palette.
type Theme int

const (
	ThemeCoral Theme = iota
	ThemeClaude
	ThemeCodex
	ThemeChatGPT
	ThemeCatppuccin
	ThemeDracula
	ThemeNord
	ThemeTokyoNight
	ThemeGruvbox
	ThemeAnsi
	ThemeNone
)

var themeNames = map[Theme]string{
	ThemeCoral:      "coral",
	ThemeClaude:     "claude",
	ThemeCodex:      "codex",
	ThemeChatGPT:    "chatgpt",
	ThemeCatppuccin: "catppuccin",
	ThemeDracula:    "dracula",
	ThemeNord:       "nord",
	ThemeTokyoNight: "tokyonight",
	ThemeGruvbox:    "gruvbox",
	ThemeAnsi:       "ansi",
	ThemeNone:       "none",
}

func (t Theme) String() string {
	if name, ok := themeNames[t]; ok {
		return name
	}
	return "coral"
}

// ThemeByName resolves a theme name, falling back to ThemeCoral for unknown
// or empty names (never an error: theme selection is never fatal).
func ThemeByName(name string) Theme {
	for t, n := range themeNames {
		if n == name {
			return t
		}
	}
	return ThemeCoral
}

// BorderSet is a named set of six glyphs (four corners, horizontal and
// vertical) used to frame overlay/HUD boxes.
type BorderSet struct {
	Name                                      string
	TopLeft, TopRight, BottomLeft, BottomRight string
	Horizontal, Vertical                       string
}

var (
	BorderSingle  = BorderSet{"single", "┌", "┐", "└", "┘", "─", "│"}
	BorderRounded = BorderSet{"rounded", "╭", "╮", "╰", "╯", "─", "│"}
	BorderDouble  = BorderSet{"double", "╔", "╗", "╚", "╝", "═", "║"}
	BorderHeavy   = BorderSet{"heavy", "┏", "┓", "┗", "┛", "━", "┃"}
	BorderNone    = BorderSet{"none", " ", " ", " ", " ", " ", " "}
)

// GlyphSet selects between unicode and plain-ascii glyph rendering.
type GlyphSet int

const (
	GlyphUnicode GlyphSet = iota
	GlyphASCII
)

// SpinnerStyle selects the progress-spinner glyph family.
type SpinnerStyle int

const (
	SpinnerBraille SpinnerStyle = iota
	SpinnerDots
	SpinnerLine
	SpinnerBlock
)

// ProgressBarFamily selects the progress-bar rendering family.
type ProgressBarFamily int

const (
	ProgressBarBar ProgressBarFamily = iota
	ProgressBarCompact
	ProgressBarBlocks
	ProgressBarBraille
)

// VoiceSceneStyle selects the voice-capture HUD scene rendering.
type VoiceSceneStyle int

const (
	VoiceScenePulse VoiceSceneStyle = iota
	VoiceSceneStatic
	VoiceSceneMinimal
)

// Colors is the resolved set of rendering tokens for one theme.
type Colors struct {
	Recording, Processing, Success, Warning, Error, Info, Dim string
	BgPrimary, BgSecondary, Border                             string

	Borders BorderSet
	Glyphs  GlyphSet

	IndicatorRec, IndicatorAuto, IndicatorManual     string
	IndicatorIdle, IndicatorProcessing, IndicatorResp string

	SpinnerStyle      SpinnerStyle
	ProgressBarFamily ProgressBarFamily
	VoiceSceneStyle   VoiceSceneStyle
}

func baseThemeColors(t Theme) Colors {
	switch t {
	case ThemeClaude:
		return coralLikeColors("#D97757", "#7AA2F7", BorderRounded)
	case ThemeCodex:
		return coralLikeColors("#10A37F", "#6E6E80", BorderSingle)
	case ThemeChatGPT:
		return coralLikeColors("#19C37D", "#8E8EA0", BorderRounded)
	case ThemeCatppuccin:
		return coralLikeColors("#F38BA8", "#89B4FA", BorderRounded)
	case ThemeDracula:
		return coralLikeColors("#FF79C6", "#BD93F9", BorderSingle)
	case ThemeNord:
		return coralLikeColors("#BF616A", "#81A1C1", BorderSingle)
	case ThemeTokyoNight:
		return coralLikeColors("#F7768E", "#7AA2F7", BorderRounded)
	case ThemeGruvbox:
		return coralLikeColors("#FB4934", "#83A598", BorderHeavy)
	case ThemeAnsi:
		return asciiColors()
	case ThemeNone:
		return Colors{Borders: BorderNone, Glyphs: GlyphASCII}
	default: // ThemeCoral
		return coralLikeColors("#FF6F61", "#61AFFF", BorderRounded)
	}
}

func coralLikeColors(accent, secondary string, borders BorderSet) Colors {
	return Colors{
		Recording:           accent,
		Processing:          secondary,
		Success:             "#50C878",
		Warning:             "#F5A623",
		Error:               "#E5484D",
		Info:                secondary,
		Dim:                 "#6B7280",
		BgPrimary:           "#1A1A1A",
		BgSecondary:         "#2A2A2A",
		Border:              secondary,
		Borders:             borders,
		Glyphs:              GlyphUnicode,
		IndicatorRec:        "●",
		IndicatorAuto:       "◎",
		IndicatorManual:     "▶",
		IndicatorIdle:       "○",
		IndicatorProcessing: "◐",
		IndicatorResp:       "↺",
		SpinnerStyle:        SpinnerBraille,
		ProgressBarFamily:   ProgressBarBar,
		VoiceSceneStyle:     VoiceScenePulse,
	}
}

func asciiColors() Colors {
	c := coralLikeColors("#FF6F61", "#61AFFF", BorderSingle)
	c.Glyphs = GlyphASCII
	c.IndicatorRec = "*"
	c.IndicatorAuto = "@"
	c.IndicatorManual = ">"
	c.IndicatorIdle = "-"
	c.IndicatorProcessing = "~"
	c.IndicatorResp = ">"
	return c
}
