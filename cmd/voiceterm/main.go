package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"voiceterm/internal/app"
	"voiceterm/internal/config"
	"voiceterm/internal/devlog"
	"voiceterm/internal/eventloop"
	"voiceterm/internal/hud"
	"voiceterm/internal/inputreader"
	"voiceterm/internal/memory"
	"voiceterm/internal/overlay"
	"voiceterm/internal/prompttracker"
	"voiceterm/internal/ptysession"
	"voiceterm/internal/sessionguard"
	"voiceterm/internal/style"
	"voiceterm/internal/toast"
	"voiceterm/internal/transcript"
	"voiceterm/internal/voice"
	"voiceterm/internal/writer"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flags struct {
	backend              string
	backendArgs          string
	theme                string
	hudStyle             string
	hudBorderStyle       string
	hudRightPanel        string
	hudRightPanelRecOnly bool
	autoVoice            bool
	voiceSendMode        string
	vadThresholdDB       float64
	wakeWord             string
	wakeWordSensitivity  float64
	wakeWordCooldownMS   int64
	latencyDisplay       string
	minimalHUD           bool
	dev                  bool
	devLog               bool
	devPath              string
	themeFile            string
	exportTheme          string
	listInputDevices     bool
	micMeter             bool
	doctor               bool
	login                bool
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "voiceterm",
		Short: "Voice-driven terminal overlay for coding-assistant CLIs",
		Long: `voiceterm wraps a coding-assistant CLI (claude, codex, ...) inside a PTY
and overlays a heads-up display plus a voice-capture pipeline that can
inject transcribed speech directly into the wrapped session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd, args, f)
		},
	}

	cmd.Flags().StringVar(&f.backend, "backend", "claude", "Backend CLI to wrap")
	cmd.Flags().StringVar(&f.backendArgs, "backend-args", "", "Extra arguments passed to the backend, shell-quoted")
	cmd.Flags().StringVar(&f.theme, "theme", "", "Built-in theme name")
	cmd.Flags().StringVar(&f.hudStyle, "hud-style", "full", "HUD mode: full|minimal|hidden")
	cmd.Flags().StringVar(&f.hudBorderStyle, "hud-border-style", "", "HUD border style override")
	cmd.Flags().StringVar(&f.hudRightPanel, "hud-right-panel", "off", "Minimal-mode right panel: ribbon|dots|heartbeat|off")
	cmd.Flags().BoolVar(&f.hudRightPanelRecOnly, "hud-right-panel-recording-only", false, "Only animate the right panel while recording")
	cmd.Flags().BoolVar(&f.autoVoice, "auto-voice", false, "Start in auto (wake-word) voice mode")
	cmd.Flags().StringVar(&f.voiceSendMode, "voice-send-mode", "auto", "Transcript delivery mode: auto|insert")
	cmd.Flags().Float64Var(&f.vadThresholdDB, "voice-vad-threshold-db", -40, "VAD silence threshold in dB")
	cmd.Flags().StringVar(&f.wakeWord, "wake-word", "", "Wake phrase enabling hands-free capture")
	cmd.Flags().Float64Var(&f.wakeWordSensitivity, "wake-word-sensitivity", 0.5, "Wake-word detector sensitivity in [0,1]")
	cmd.Flags().Int64Var(&f.wakeWordCooldownMS, "wake-word-cooldown-ms", 1500, "Minimum interval between auto-triggers")
	cmd.Flags().StringVar(&f.latencyDisplay, "latency-display", "off", "Latency badge display: off|short|label")
	cmd.Flags().BoolVar(&f.minimalHUD, "minimal-hud", false, "Shorthand for --hud-style minimal")
	cmd.Flags().BoolVar(&f.dev, "dev", false, "Enable the dev panel overlay")
	cmd.Flags().BoolVar(&f.devLog, "dev-log", false, "Enable dev trace logging (requires --dev)")
	cmd.Flags().StringVar(&f.devPath, "dev-path", "", "Directory for dev trace logs (requires --dev)")
	cmd.Flags().StringVar(&f.themeFile, "theme-file", "", "Path to a TOML theme file to load and watch")
	cmd.Flags().StringVar(&f.exportTheme, "export-theme", "", "Print the named built-in theme as a theme-file TOML document and exit")
	cmd.Flags().BoolVar(&f.listInputDevices, "list-input-devices", false, "List available capture devices and exit")
	cmd.Flags().BoolVar(&f.micMeter, "mic-meter", false, "Print a live microphone level meter and exit")
	cmd.Flags().BoolVar(&f.doctor, "doctor", false, "Diagnose the capture/backend environment and exit")
	cmd.Flags().BoolVar(&f.login, "login", false, "Run the backend's own login flow and exit")

	cmd.AddCommand(newPTYWatchdogCmd())
	cmd.AddCommand(newSessionGuardSweepCmd())

	return cmd
}

// newPTYWatchdogCmd is the hidden lifeline process ptysession.Start forks to
// reap the backend child if the parent voiceterm process dies uncleanly.
// spawnWatchdog passes the target PID positionally (exe _ptywatchdog <pid>),
// matching RunWatchdog's doc comment.
func newPTYWatchdogCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "_ptywatchdog",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			targetPID, err := strconv.Atoi(args[0])
			if err != nil {
				return
			}
			ptysession.RunWatchdog(targetPID)
		},
	}
}

func newSessionGuardSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "_sessionguard-sweep",
		Hidden: true,
		Run: func(cmd *cobra.Command, args []string) {
			sweeper := sessionguard.New()
			sweeper.CleanupStaleSessions()
			sweeper.SweepDetachedOrphans()
		},
	}
}

func runMain(cmd *cobra.Command, args []string, f flags) error {
	if f.exportTheme != "" {
		return exportTheme(cmd, f.exportTheme)
	}
	if f.listInputDevices {
		fmt.Fprintln(cmd.OutOrStdout(), "no capture backend configured")
		return nil
	}
	if f.micMeter || f.doctor || f.login {
		fmt.Fprintln(cmd.OutOrStdout(), "no capture backend configured; nothing to do")
		return nil
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("voiceterm must run in an interactive terminal")
	}

	fileCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFileDefaults(cmd, &f, fileCfg)

	backendArgs, err := config.SplitBackendArgs(f.backendArgs)
	if err != nil {
		return err
	}

	cwd := os.Getenv("VOICETERM_CWD")
	if cwd == "" {
		cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getwd: %w", err)
		}
	}

	stdinFD := int(os.Stdin.Fd())
	cols, rows, err := term.GetSize(stdinFD)
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := ptysession.Start(ctx, ptysession.Config{
		Command:      f.backend,
		Args:         backendArgs,
		WorkingDir:   cwd,
		Term:         os.Getenv("TERM"),
		Rows:         rows,
		Cols:         cols,
		WriteTimeout: 2 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("start %s (is it installed? try --login): %w", f.backend, err)
	}
	defer session.Shutdown()

	restore, err := app.SetupRawMode(stdinFD)
	if err != nil {
		return err
	}
	defer restore()

	a := app.New(stdinFD)
	a.Session = session
	a.Overlay = &overlay.Overlay{}
	a.HUD = &hud.State{
		Mode:       hudModeFromFlag(f),
		RightPanel: rightPanelFromFlag(f.hudRightPanel),
		DevMode:    f.dev,
	}
	a.Toasts = toast.NewCenter()
	theme := style.ThemeByName(f.theme)
	initialPack := style.BuiltIn(theme)
	initialPack.BorderStyleOverride = f.hudBorderStyle
	a.Styles = style.NewHistory(initialPack)
	a.ThemeFilePath = f.themeFile
	a.Writer = writer.New(os.Stdout)
	defer a.Writer.Close()

	var memJournal *memory.Journal
	sessionID := uuid.NewString()
	memJournal, err = memory.Open(cwd, sessionID, cwd)
	if err != nil {
		memJournal = memory.Nop()
	}
	defer memJournal.Close()
	a.Memory = memJournal

	devLog := devlog.Nop()
	if f.dev && f.devLog {
		path := f.devPath
		if path == "" {
			path = os.TempDir()
		}
		devLog = devlog.New(true, filepath.Join(path, "voiceterm-dev.jsonl"), "voiceterm", sessionID)
	}
	a.DevLog = devLog
	defer devLog.Close()

	capturer := voice.NullCapturer{}
	voiceMgr := voice.NewManager(capturer, nil)

	inputCh := make(chan inputreader.Event, 64)
	ptyOutCh := make(chan []byte, 100)
	wakeCh := make(chan struct{}, 1)

	go pumpInput(ctx, inputCh)
	go pumpPTYOutput(ctx, session, ptyOutCh)

	tq := transcript.NewQueue()
	tracker := prompttracker.New(nil, true, prompttracker.GenericApprovalProfile)

	loop := eventloop.New(eventloop.Config{
		Input:           inputCh,
		PTYOutput:       ptyOutCh,
		Voice:           voiceMgr.Messages(),
		Wake:            wakeCh,
		PTYWriter:       a.PTYWriter(),
		Writer:          a.Writer,
		VoiceMgr:        voiceMgr,
		Overlay:         a.Overlay,
		Transcript:      tq,
		Tracker:         tracker,
		Toasts:          a.Toasts,
		StyleHistory:    a.Styles,
		HUDState:        a.HUD,
		VoiceSendMode:   voiceSendModeFromFlag(f.voiceSendMode),
		MainDispatch:    a.MainDispatch,
		OverlayHandle:   a.OverlayHandle,
		IsExit:          a.IsExit,
		IsHistoryToggle: a.IsHistoryToggle,
		PollGeometry:    a.PollGeometry,
		Resize:          a.Resize,
		PollThemeFile:   a.PollThemeFile,
		Redraw:          a.Redraw,
		InputJoin:       func() {},
		AutoIdle:        500 * time.Millisecond,
		EnterIdle:       300 * time.Millisecond,
		WriteIdle:       50 * time.Millisecond,
		Memory:          memJournal,
		DevLog:          devLog,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	go func() {
		for range sigCh {
			loop.SignalWindowChanged()
		}
	}()
	defer signal.Stop(sigCh)

	if f.autoVoice {
		_ = voiceMgr.TriggerAuto()
	}

	loop.Run(ctx)
	return nil
}

func pumpInput(ctx context.Context, out chan<- inputreader.Event) {
	defer close(out)
	classifier := inputreader.NewClassifier()
	buf := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		events := classifier.Feed(buf, n, nil)
		for _, ev := range events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func pumpPTYOutput(ctx context.Context, session *ptysession.Session, out chan<- []byte) {
	defer close(out)
	buf := make([]byte, 8192)
	for {
		n, err := session.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// applyFileDefaults layers the persistent config file beneath CLI flags:
// a config value only takes effect for a flag the user did not pass
// explicitly on this invocation.
func applyFileDefaults(cmd *cobra.Command, f *flags, cfg *config.Config) {
	if cfg == nil {
		return
	}
	fs := cmd.Flags()
	if cfg.Backend != "" && !fs.Changed("backend") {
		f.backend = cfg.Backend
	}
	if cfg.BackendArgs != "" && !fs.Changed("backend-args") {
		f.backendArgs = cfg.BackendArgs
	}
	if cfg.Theme != "" && !fs.Changed("theme") {
		f.theme = cfg.Theme
	}
	if cfg.HUD.Style != "" && !fs.Changed("hud-style") {
		f.hudStyle = cfg.HUD.Style
	}
	if cfg.HUD.RightPanel != "" && !fs.Changed("hud-right-panel") {
		f.hudRightPanel = cfg.HUD.RightPanel
	}
	if cfg.Voice.WakeWord != "" && !fs.Changed("wake-word") {
		f.wakeWord = cfg.Voice.WakeWord
	}
	if cfg.Voice.SendMode != "" && !fs.Changed("voice-send-mode") {
		f.voiceSendMode = cfg.Voice.SendMode
	}
}

func hudModeFromFlag(f flags) hud.Mode {
	if f.minimalHUD {
		return hud.ModeMinimal
	}
	switch f.hudStyle {
	case "minimal":
		return hud.ModeMinimal
	case "hidden":
		return hud.ModeHidden
	default:
		return hud.ModeFull
	}
}

func rightPanelFromFlag(v string) hud.RightPanel {
	switch v {
	case "ribbon":
		return hud.RightPanelRibbonWaveform
	case "dots":
		return hud.RightPanelDotMeter
	case "heartbeat":
		return hud.RightPanelHeartbeat
	default:
		return hud.RightPanelOff
	}
}

func voiceSendModeFromFlag(v string) transcript.TargetMode {
	if v == "insert" {
		return transcript.TargetInsert
	}
	return transcript.TargetAuto
}

func exportTheme(cmd *cobra.Command, name string) error {
	theme := style.ThemeByName(name)
	pack := style.BuiltIn(theme)
	colors := style.Resolve(pack)
	fmt.Fprintf(cmd.OutOrStdout(), "[meta]\nname = %q\nversion = 1\nbase_theme = %q\n\n[colors]\n", theme.String(), theme.String())
	fmt.Fprintf(cmd.OutOrStdout(), "recording = %q\nprocessing = %q\nsuccess = %q\nwarning = %q\nerror = %q\n",
		colors.Recording, colors.Processing, colors.Success, colors.Warning, colors.Error)
	return nil
}
