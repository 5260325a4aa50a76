package style

// themeSentinel is the override value meaning "defer to the base theme's own
// value".
const themeSentinel = "theme"

// StylePack holds a StyleSchemaPack plus any runtime component overrides,
// which Resolve turns into concrete rendering tokens, mirroring the Theme Studio
// resolver: schema version must match the binary's current version or the
// whole pack is ignored in favor of the base theme (a forward-compat
// safety rail against payloads written by a newer build).
type StylePack struct {
	SchemaVersion       int
	BaseTheme           Theme
	BorderStyleOverride string
	IndicatorSetOverride string
	GlyphSetOverride    string
	Surface             SurfaceOverrides
	Component           ComponentOverrides
}

// BuiltIn returns a StylePack with no overrides beyond the base theme.
func BuiltIn(theme Theme) StylePack {
	return StylePack{SchemaVersion: CurrentSchemaVersion, BaseTheme: theme}
}

// FromSchemaPack converts a parsed wire-format pack into a StylePack.
func FromSchemaPack(p SchemaPack) StylePack {
	return StylePack{
		SchemaVersion:        p.Version,
		BaseTheme:            ThemeByName(p.BaseTheme),
		BorderStyleOverride:  p.BorderStyleOverride,
		IndicatorSetOverride: p.IndicatorSetOverride,
		GlyphSetOverride:     p.GlyphSetOverride,
		Surface:              p.SurfaceOverrides,
		Component:            p.ComponentOverrides,
	}
}

// FromJSONPayload parses payload (falling back to the base theme's built-in
// pack on any error) and returns the resulting StylePack.
func FromJSONPayload(theme Theme, payload string) StylePack {
	if payload == "" {
		return BuiltIn(theme)
	}
	parsed := ParseSchemaWithFallback(payload, FallbackSchemaPack(theme))
	return FromSchemaPack(parsed)
}

// Resolve computes the final Colors for a StylePack. A pack whose
// SchemaVersion doesn't match CurrentSchemaVersion is treated as
// untrusted and resolves to the plain base theme.
func Resolve(p StylePack) Colors {
	if p.SchemaVersion != CurrentSchemaVersion {
		return baseThemeColors(p.BaseTheme)
	}
	c := baseThemeColors(p.BaseTheme)
	c.Borders = resolveBorderSet(c.Borders, p.BorderStyleOverride)
	applyIndicatorOverride(&c, p.IndicatorSetOverride)
	applyGlyphOverride(&c, p.GlyphSetOverride)
	applyProgressStyleOverride(&c, p.Surface.ProgressStyle)
	applyVoiceSceneOverride(&c, p.Surface.VoiceSceneStyle)
	applyProgressBarFamilyOverride(&c, p.Component.ProgressBarFamily)
	return c
}

func resolveBorderSet(base BorderSet, override string) BorderSet {
	switch override {
	case "", themeSentinel:
		return base
	case "single":
		return BorderSingle
	case "rounded":
		return BorderRounded
	case "double":
		return BorderDouble
	case "heavy":
		return BorderHeavy
	case "none":
		return BorderNone
	default:
		return base
	}
}

func applyIndicatorOverride(c *Colors, override string) {
	switch override {
	case "":
		return
	case "ascii":
		c.IndicatorRec, c.IndicatorAuto, c.IndicatorManual = "*", "@", ">"
		c.IndicatorIdle, c.IndicatorProcessing, c.IndicatorResp = "-", "~", ">"
	case "dot":
		c.IndicatorRec, c.IndicatorAuto, c.IndicatorManual = "●", "◎", "▶"
		c.IndicatorIdle, c.IndicatorProcessing, c.IndicatorResp = "○", "◐", "↺"
	case "diamond":
		c.IndicatorRec, c.IndicatorAuto, c.IndicatorManual = "◆", "◇", "▸"
		c.IndicatorIdle, c.IndicatorProcessing, c.IndicatorResp = "·", "◈", "▸"
	}
}

func applyGlyphOverride(c *Colors, override string) {
	switch override {
	case "unicode":
		c.Glyphs = GlyphUnicode
	case "ascii":
		c.Glyphs = GlyphASCII
	}
}

func applyProgressStyleOverride(c *Colors, override string) {
	switch override {
	case "braille":
		c.SpinnerStyle = SpinnerBraille
	case "dots":
		c.SpinnerStyle = SpinnerDots
	case "line":
		c.SpinnerStyle = SpinnerLine
	case "block":
		c.SpinnerStyle = SpinnerBlock
	}
}

func applyVoiceSceneOverride(c *Colors, override string) {
	switch override {
	case "pulse":
		c.VoiceSceneStyle = VoiceScenePulse
	case "static":
		c.VoiceSceneStyle = VoiceSceneStatic
	case "minimal":
		c.VoiceSceneStyle = VoiceSceneMinimal
	}
}

func applyProgressBarFamilyOverride(c *Colors, override string) {
	switch override {
	case "bar":
		c.ProgressBarFamily = ProgressBarBar
	case "compact":
		c.ProgressBarFamily = ProgressBarCompact
	case "blocks":
		c.ProgressBarFamily = ProgressBarBlocks
	case "braille":
		c.ProgressBarFamily = ProgressBarBraille
	}
}

// ResolveComponentBorder resolves the border set for one component-level
// override (overlay_border or hud_border), falling back to the theme's base
// border set.
func ResolveComponentBorder(p StylePack, override string) BorderSet {
	return resolveBorderSet(Resolve(p).Borders, override)
}

// undoStackCap bounds the Theme Studio undo/redo history.
const undoStackCap = 64

// History is a bounded undo/redo stack of StylePack snapshots, used by
// Theme Studio as the user edits overrides interactively.
type History struct {
	undo []StylePack
	redo []StylePack
	cur  StylePack
}

// NewHistory seeds a History at the given pack with empty undo/redo stacks.
func NewHistory(initial StylePack) *History {
	return &History{cur: initial}
}

// Current returns the pack at the top of history.
func (h *History) Current() StylePack { return h.cur }

// Push records a new pack, clearing the redo stack (a fresh edit invalidates
// any previously-undone branch).
func (h *History) Push(p StylePack) {
	h.undo = append(h.undo, h.cur)
	if len(h.undo) > undoStackCap {
		h.undo = h.undo[len(h.undo)-undoStackCap:]
	}
	h.cur = p
	h.redo = nil
}

// Undo reverts to the previous pack. Returns false if there is nothing to
// undo.
func (h *History) Undo() bool {
	if len(h.undo) == 0 {
		return false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, h.cur)
	if len(h.redo) > undoStackCap {
		h.redo = h.redo[len(h.redo)-undoStackCap:]
	}
	h.cur = prev
	return true
}

// Redo reapplies a previously undone pack. Returns false if there is
// nothing to redo.
func (h *History) Redo() bool {
	if len(h.redo) == 0 {
		return false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, h.cur)
	if len(h.undo) > undoStackCap {
		h.undo = h.undo[len(h.undo)-undoStackCap:]
	}
	h.cur = next
	return true
}
