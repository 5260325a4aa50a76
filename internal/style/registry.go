package style

// ComponentID identifies a renderable surface. New surfaces must be
// registered here, and in the id-to-path table below, before they can be
// drawn; TestComponentRegistryParity enforces the two stay in sync.
type ComponentID int

const (
	ComponentButtonHud ComponentID = iota
	ComponentButtonOverlay
	ComponentButtonSettings
	ComponentButtonThemePicker

	ComponentTabStudio
	ComponentTabSettings

	ComponentListSettings
	ComponentListHelp
	ComponentListThemePicker
	ComponentListHistory

	ComponentTableShortcuts

	ComponentTreeLayout

	ComponentScrollbarOverlay

	ComponentModalConfirm
	ComponentPopupToast
	ComponentTooltipHint

	ComponentInputSearch
	ComponentInputSlider

	ComponentToastInfo
	ComponentToastSuccess
	ComponentToastWarning
	ComponentToastError

	ComponentHudStatusLine
	ComponentHudBanner
	ComponentHudMeter
	ComponentHudLatency
	ComponentHudQueue
	ComponentHudMode
	ComponentHudWaveform

	ComponentOverlayFrame
	ComponentOverlayTitle
	ComponentOverlayFooter
	ComponentOverlaySeparator

	ComponentProgressBar
	ComponentProgressSpinner
	ComponentProgressBounce

	ComponentStartupSplash
	ComponentStartupBanner
	ComponentStartupTagline

	ComponentHelpSection
	ComponentSettingsRow
	ComponentThemePickerRow

	ComponentMeterBar
	ComponentMeterPeak
	ComponentMeterThreshold

	ComponentIconPack

	ComponentVoiceIdle
	ComponentVoiceListening
	ComponentVoiceProcessing
	ComponentVoiceResponding

	ComponentPaletteFrame
	ComponentPaletteMatch
	ComponentAutocompleteRow

	ComponentDashboardPanel

	componentIDCount
)

var componentStyleIDs = map[ComponentID]string{
	ComponentButtonHud:         "components.button.hud",
	ComponentButtonOverlay:     "components.button.overlay",
	ComponentButtonSettings:    "components.button.settings",
	ComponentButtonThemePicker: "components.button.theme_picker",
	ComponentTabStudio:         "components.tab.studio",
	ComponentTabSettings:       "components.tab.settings",
	ComponentListSettings:      "components.list.settings",
	ComponentListHelp:          "components.list.help",
	ComponentListThemePicker:   "components.list.theme_picker",
	ComponentListHistory:       "components.list.history",
	ComponentTableShortcuts:    "components.table.shortcuts",
	ComponentTreeLayout:        "components.tree.layout",
	ComponentScrollbarOverlay:  "components.scrollbar.overlay",
	ComponentModalConfirm:      "components.modal.confirm",
	ComponentPopupToast:        "components.popup.toast",
	ComponentTooltipHint:       "components.tooltip.hint",
	ComponentInputSearch:       "components.input.search",
	ComponentInputSlider:       "components.input.slider",
	ComponentToastInfo:         "components.toast.info",
	ComponentToastSuccess:      "components.toast.success",
	ComponentToastWarning:      "components.toast.warning",
	ComponentToastError:        "components.toast.error",
	ComponentHudStatusLine:     "components.hud.status_line",
	ComponentHudBanner:         "components.hud.banner",
	ComponentHudMeter:          "components.hud.meter",
	ComponentHudLatency:        "components.hud.latency",
	ComponentHudQueue:          "components.hud.queue",
	ComponentHudMode:           "components.hud.mode",
	ComponentHudWaveform:       "components.hud.waveform",
	ComponentOverlayFrame:      "components.overlay.frame",
	ComponentOverlayTitle:      "components.overlay.title",
	ComponentOverlayFooter:     "components.overlay.footer",
	ComponentOverlaySeparator:  "components.overlay.separator",
	ComponentProgressBar:       "components.progress.bar",
	ComponentProgressSpinner:  "components.progress.spinner",
	ComponentProgressBounce:   "components.progress.bounce",
	ComponentStartupSplash:    "components.startup.splash",
	ComponentStartupBanner:    "components.startup.banner",
	ComponentStartupTagline:   "components.startup.tagline",
	ComponentHelpSection:      "components.help.section",
	ComponentSettingsRow:      "components.settings.row",
	ComponentThemePickerRow:   "components.theme_picker.row",
	ComponentMeterBar:         "components.meter.bar",
	ComponentMeterPeak:        "components.meter.peak",
	ComponentMeterThreshold:   "components.meter.threshold",
	ComponentIconPack:         "components.icon.pack",
	ComponentVoiceIdle:        "components.voice.idle",
	ComponentVoiceListening:   "components.voice.listening",
	ComponentVoiceProcessing:  "components.voice.processing",
	ComponentVoiceResponding:  "components.voice.responding",
	ComponentPaletteFrame:     "components.palette.frame",
	ComponentPaletteMatch:     "components.palette.match",
	ComponentAutocompleteRow:  "components.autocomplete.row",
	ComponentDashboardPanel:   "components.dashboard.panel",
}

// StyleID returns the stable dotted-path identifier for a component, used as
// the lookup key into a theme file's [components.<id>.<state>] table.
func (c ComponentID) StyleID() string {
	if id, ok := componentStyleIDs[c]; ok {
		return id
	}
	return ""
}

// ComponentState is an interaction or semantic visual state.
type ComponentState int

const (
	StateDefault ComponentState = iota
	StateHover
	StateFocused
	StatePressed
	StateSelected
	StateDisabled
	StateIdle
	StateListening
	StateRecording
	StateProcessing
	StateResponding
	StateSuccess
	StateWarning
	StateError
	StateMuted
)

// stateNames backs the TOML table key for [components.<id>.<state>].
var stateNames = map[ComponentState]string{
	StateDefault:    "default",
	StateHover:      "hover",
	StateFocused:    "focused",
	StatePressed:    "pressed",
	StateSelected:   "selected",
	StateDisabled:   "disabled",
	StateIdle:       "idle",
	StateListening:  "listening",
	StateRecording:  "recording",
	StateProcessing: "processing",
	StateResponding: "responding",
	StateSuccess:    "success",
	StateWarning:    "warning",
	StateError:      "error",
	StateMuted:      "muted",
}

func (s ComponentState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "default"
}

// RegisteredComponents returns every ComponentID the registry knows about, in
// declaration order. Used by the parity test to ensure every enum value has
// a style_id entry.
func RegisteredComponents() []ComponentID {
	ids := make([]ComponentID, 0, componentIDCount)
	for i := ComponentID(0); i < componentIDCount; i++ {
		ids = append(ids, i)
	}
	return ids
}
