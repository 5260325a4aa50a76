package style

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CurrentSchemaVersion is the current Theme Studio JSON payload version.
const CurrentSchemaVersion = 4

const (
	defaultProfileName = "default"
	legacyProfileName  = "legacy-v1"
)

// SurfaceOverrides are screen-wide style overrides.
type SurfaceOverrides struct {
	ToastPosition   string `json:"toast_position,omitempty"`
	StartupStyle    string `json:"startup_style,omitempty"`
	ProgressStyle   string `json:"progress_style,omitempty"`
	VoiceSceneStyle string `json:"voice_scene_style,omitempty"`
}

// ComponentOverrides are per-component-family style overrides.
type ComponentOverrides struct {
	OverlayBorder     string `json:"overlay_border,omitempty"`
	HudBorder         string `json:"hud_border,omitempty"`
	ToastSeverityMode string `json:"toast_severity_mode,omitempty"`
	BannerStyle       string `json:"banner_style,omitempty"`
	ProgressBarFamily string `json:"progress_bar_family,omitempty"`
}

// SchemaPack is the versioned, wire-format Theme Studio style payload.
type SchemaPack struct {
	Version            int                `json:"version"`
	Profile            string             `json:"profile,omitempty"`
	BaseTheme          string             `json:"base_theme,omitempty"`
	BorderStyleOverride string            `json:"border_style_override,omitempty"`
	IndicatorSetOverride string           `json:"indicator_set_override,omitempty"`
	GlyphSetOverride   string             `json:"glyph_set_override,omitempty"`
	SurfaceOverrides   SurfaceOverrides   `json:"surface_overrides"`
	ComponentOverrides ComponentOverrides `json:"component_overrides"`
}

// FallbackSchemaPack returns the schema pack used when a payload fails to
// parse: current version, default profile, the given base theme, no
// overrides.
func FallbackSchemaPack(theme Theme) SchemaPack {
	return SchemaPack{
		Version:   CurrentSchemaVersion,
		Profile:   defaultProfileName,
		BaseTheme: theme.String(),
	}
}

// legacyV1Envelope is the v1 wire shape: {"version":1,"theme":"..."}.
type legacyV1Envelope struct {
	Version int    `json:"version"`
	Theme   string `json:"theme"`
}

// versionEnvelope peeks at the version field shared by every schema
// generation.
type versionEnvelope struct {
	Version *int `json:"version"`
}

// ParseSchema parses a raw JSON payload, migrating older schema versions
// forward to CurrentSchemaVersion. Unknown/unsupported versions return an
// error; callers that want fallback-on-error behavior should use
// ParseSchemaWithFallback.
func ParseSchema(payload string) (SchemaPack, error) {
	var env versionEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return SchemaPack{}, fmt.Errorf("style schema: invalid json: %w", err)
	}
	if env.Version == nil {
		return SchemaPack{}, fmt.Errorf("style schema: missing version")
	}

	switch *env.Version {
	case 1:
		var v1 legacyV1Envelope
		if err := json.Unmarshal([]byte(payload), &v1); err != nil {
			return SchemaPack{}, fmt.Errorf("style schema: invalid v1 payload: %w", err)
		}
		return SchemaPack{
			Version:   CurrentSchemaVersion,
			Profile:   legacyProfileName,
			BaseTheme: v1.Theme,
		}, nil
	case 2:
		var v2 struct {
			Profile   string `json:"profile"`
			BaseTheme string `json:"base_theme"`
			BorderStyleOverride  string `json:"border_style_override"`
			IndicatorSetOverride string `json:"indicator_set_override"`
			GlyphSetOverride     string `json:"glyph_set_override"`
		}
		if err := json.Unmarshal([]byte(payload), &v2); err != nil {
			return SchemaPack{}, fmt.Errorf("style schema: invalid v2 payload: %w", err)
		}
		return SchemaPack{
			Version:              CurrentSchemaVersion,
			Profile:              profileOrDefault(v2.Profile),
			BaseTheme:            v2.BaseTheme,
			BorderStyleOverride:  v2.BorderStyleOverride,
			IndicatorSetOverride: v2.IndicatorSetOverride,
			GlyphSetOverride:     v2.GlyphSetOverride,
			// v2 predates surface_overrides and component_overrides.
		}, nil
	case 3:
		var v3 struct {
			Profile              string           `json:"profile"`
			BaseTheme            string           `json:"base_theme"`
			BorderStyleOverride  string           `json:"border_style_override"`
			IndicatorSetOverride string           `json:"indicator_set_override"`
			GlyphSetOverride     string           `json:"glyph_set_override"`
			SurfaceOverrides     SurfaceOverrides `json:"surface_overrides"`
		}
		if err := json.Unmarshal([]byte(payload), &v3); err != nil {
			return SchemaPack{}, fmt.Errorf("style schema: invalid v3 payload: %w", err)
		}
		return SchemaPack{
			Version:              CurrentSchemaVersion,
			Profile:              profileOrDefault(v3.Profile),
			BaseTheme:            v3.BaseTheme,
			BorderStyleOverride:  v3.BorderStyleOverride,
			IndicatorSetOverride: v3.IndicatorSetOverride,
			GlyphSetOverride:     v3.GlyphSetOverride,
			SurfaceOverrides:     v3.SurfaceOverrides,
			// v3 predates component_overrides.
		}, nil
	case CurrentSchemaVersion:
		var pack SchemaPack
		if err := json.Unmarshal([]byte(payload), &pack); err != nil {
			return SchemaPack{}, fmt.Errorf("style schema: invalid v4 payload: %w", err)
		}
		pack.Version = CurrentSchemaVersion
		pack.Profile = profileOrDefault(pack.Profile)
		return pack, nil
	default:
		return SchemaPack{}, fmt.Errorf("style schema: unsupported version %d", *env.Version)
	}
}

// ParseSchemaWithFallback parses payload, returning fallback on any parse or
// version error rather than propagating it. Theme selection must never be
// fatal to startup.
func ParseSchemaWithFallback(payload string, fallback SchemaPack) SchemaPack {
	pack, err := ParseSchema(payload)
	if err != nil {
		return fallback
	}
	return pack
}

func profileOrDefault(p string) string {
	if strings.TrimSpace(p) == "" {
		return defaultProfileName
	}
	return p
}
