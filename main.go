// Package main provides the entry point for the NotiFin CLI application.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/tridung778/noti-fin/internal/payments"
	"github.com/tridung778/noti-fin/internal/phrasebook"
	"github.com/tridung778/noti-fin/speaker"
	"github.com/tridung778/noti-fin/speaker/audio"
	"github.com/tridung778/noti-fin/speaker/engines"
	"github.com/tridung778/noti-fin/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	engineName string
	debug      bool
	noChime    bool

	rootCmd = &cobra.Command{
		Use:   "notifin",
		Short: "Speak payment notifications through a Bluetooth speaker, in Vietnamese",
		Long: paragraph(fmt.Sprintf(
			"\nPair with a %s and have your payment notifications read aloud. Common English phrases are translated to Vietnamese before speaking.",
			keyword("Bluetooth speaker"))),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		RunE:             execute,
	}

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Connect to the default speaker and speak once",
		Long: paragraph(
			"\nOne-shot mode: force-connects to the configured default speaker, speaks the given text (or a demo payment notification when omitted), and exits."),
		Args: cobra.MaximumNArgs(1),
		RunE: executeSpeak,
	}
)

func execute(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal: use %s for one-shot speech", keyword("notifin speak"))
	}
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	session, cleanup := buildSession(cfg)
	defer cleanup()

	if _, err := ui.NewProgram(session, log.Default()).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func executeSpeak(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	session, cleanup := buildSession(cfg)
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	device, err := session.ForceConnect(ctx, cfg.DefaultDevice)
	if err != nil {
		return fmt.Errorf("unable to connect: %w", err)
	}
	log.Info("connected", "device", device.Name, "synthesized", device.Synthesized)

	text := payments.Demo(nil).Text()
	if len(args) == 1 {
		text = args[0]
	}
	spoken, err := session.Speak(ctx, text)
	if err != nil {
		return err
	}
	fmt.Println(spoken)

	// Let the utterance settle before tearing the engine down.
	waitSettle(cfg, session)
	return nil
}

func waitSettle(cfg speaker.Config, session *speaker.Session) {
	deadline := time.Now().Add(cfg.SettleDelay * 2)
	for session.Speaking() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
}

// buildConfig layers defaults, the viper config file, and environment
// variables, in that order.
func buildConfig() (speaker.Config, error) {
	cfg := speaker.DefaultConfig()

	// Config file values, when present.
	if viper.IsSet("engine") {
		cfg.Engine = viper.GetString("engine")
	}
	if viper.IsSet("language") {
		cfg.Language = viper.GetString("language")
	}
	if viper.IsSet("rate") {
		cfg.Rate = viper.GetFloat64("rate")
	}
	if viper.IsSet("pitch") {
		cfg.Pitch = viper.GetFloat64("pitch")
	}
	if viper.IsSet("voice_timeout") {
		cfg.VoiceTimeout = viper.GetDuration("voice_timeout")
	}
	if viper.IsSet("settle_delay") {
		cfg.SettleDelay = viper.GetDuration("settle_delay")
	}
	if viper.IsSet("scan_delay") {
		cfg.ScanDelay = viper.GetDuration("scan_delay")
	}
	if viper.IsSet("connect_delay") {
		cfg.ConnectDelay = viper.GetDuration("connect_delay")
	}
	if viper.IsSet("extra_device_chance") {
		cfg.ExtraDeviceChance = viper.GetFloat64("extra_device_chance")
	}
	if viper.IsSet("chime") {
		cfg.Chime = viper.GetBool("chime")
	}
	if viper.IsSet("phrasebook") {
		cfg.PhrasebookPath = viper.GetString("phrasebook")
	}
	if viper.IsSet("default_device") {
		cfg.DefaultDevice = viper.GetString("default_device")
	}

	// Environment overrides (NOTIFIN_*).
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing environment config: %w", err)
	}

	// Flags win over everything.
	if engineName != "" {
		cfg.Engine = engineName
	}
	if noChime {
		cfg.Chime = false
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// buildSession resolves the speech engine, wires the chime and phrasebook,
// and returns the session with a cleanup func.
func buildSession(cfg speaker.Config) (*speaker.Session, func()) {
	logger := log.Default()

	engine := engines.Resolve(cfg.Engine, logger)

	opts := []speaker.Option{
		speaker.WithPlatform(speaker.NewSystemPlatform(logger)),
	}
	if cfg.Chime {
		if chime, err := audio.NewChime(); err != nil {
			logger.Warn("audio output unavailable, chime disabled", "error", err)
		} else {
			opts = append(opts, speaker.WithChime(chime))
		}
	}

	session := speaker.NewSession(engine, cfg, logger, opts...)

	var watcher *phrasebook.Watcher
	if cfg.PhrasebookPath != "" {
		applyPhrases(session, cfg.PhrasebookPath, logger)
		w, err := phrasebook.Watch(cfg.PhrasebookPath, logger, func(entries []phrasebook.Entry) {
			for _, e := range entries {
				if err := session.AddPhrase(e.English, e.Vietnamese); err != nil {
					logger.Warn("skipping phrase", "english", e.English, "error", err)
				}
			}
		})
		if err != nil {
			logger.Warn("phrasebook watching disabled", "error", err)
		} else {
			watcher = w
		}
	}

	return session, func() {
		if watcher != nil {
			_ = watcher.Close()
		}
		session.Shutdown()
	}
}

func applyPhrases(session *speaker.Session, path string, logger *log.Logger) {
	entries, err := phrasebook.Load(path)
	if err != nil {
		logger.Warn("unable to load phrasebook", "error", err)
		return
	}
	for _, e := range entries {
		if err := session.AddPhrase(e.English, e.Vietnamese); err != nil {
			logger.Warn("skipping phrase", "english", e.English, "error", err)
		}
	}
}

func setupLog() (func() error, error) {
	log.SetLevel(log.InfoLevel)
	if !debug {
		// The TUI owns the terminal; keep routine logs out of the way.
		log.SetOutput(io.Discard)
		return func() error { return nil }, nil
	}

	log.SetLevel(log.DebugLevel)
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("unable to find home directory: %w", err)
	}
	dir := filepath.Join(home, ".notifin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to open debug log: %w", err)
	}
	log.SetOutput(f)
	return f.Close, nil
}

// Style helpers for CLI copy.
func paragraph(s string) string {
	return lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render(strings.TrimSpace(s)) + "\n"
}

func keyword(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&engineName, "engine", "e", "", "speech engine: auto, command, or noop")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug logs to ~/.notifin/debug.log")
	rootCmd.PersistentFlags().BoolVar(&noChime, "no-chime", false, "skip the notification chime before speech")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(speakCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "notifin")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "notifin")}, dirs...)
	}

	if c := os.Getenv("NOTIFIN_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("notifin")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("notifin")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "notifin.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
