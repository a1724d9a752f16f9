package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/alkime/lectio/internal/api"
	"github.com/alkime/lectio/internal/audio"
	"github.com/alkime/lectio/internal/config"
	"github.com/alkime/lectio/internal/keyring"
	"github.com/alkime/lectio/internal/logger"
	"github.com/alkime/lectio/internal/transcription"
	"github.com/alkime/lectio/internal/tui"
	"github.com/alkime/lectio/internal/workdir"
	tea "github.com/charmbracelet/bubbletea"
)

// CLI defines the lectio command structure.
type CLI struct {
	// Default TUI command (runs when no subcommand given)
	TUI TUICmd `cmd:"" default:"withargs" help:"Launch the recording screen"`

	// Subcommands
	Devices DevicesCmd `cmd:"" help:"List available audio devices"`
	Stats   StatsCmd   `cmd:"" help:"Print and plot words-per-minute statistics of a translation"`
	Audio   AudioCmd   `cmd:"" help:"Manage uploaded recordings"`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration"`
}

// TUICmd is the default command that runs the recording screen.
type TUICmd struct {
	APIURL string `flag:"" optional:"" help:"Backend URL (overrides LECTIO_API_URL)"`
}

// Run executes the TUI command.
func (c *TUICmd) Run(cfg *config.Config) error {
	if c.APIURL != "" {
		cfg.APIURL = c.APIURL
	}

	if err := workdir.Prep(); err != nil {
		return fmt.Errorf("failed to prepare working directory: %w", err)
	}

	logPath, err := workdir.LogPath()
	if err != nil {
		return fmt.Errorf("failed to determine log path: %w", err)
	}

	// the terminal belongs to the TUI; logs go to a file
	log, closer, err := logger.NewFileLogger(logPath, logger.Level(cfg))
	if err != nil {
		return err
	}
	defer closer.Close()

	slog.SetDefault(log)

	client, err := newClient(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	deviceConf := audio.DefaultDeviceConfig()
	deviceConf.SampleRate = cfg.SampleRate

	tuiConfig := tui.Config{ //nolint:exhaustruct // Dictation set below when a key is configured
		Backend: client,
		Device:  audio.NewCapture(deviceConf, log),
		Encoder: audio.Encoder{Config: audio.EncoderConfig{
			SampleRate: cfg.SampleRate,
			Channels:   audio.DefaultChannels,
		}},
		AudioPath: workdir.AudioPath,
		Logger:    log,
		Cancel:    cancel,
	}

	if key := openAIKey(cfg); key != "" {
		tuiConfig.Dictation = transcription.NewWhisper(key)
	} else {
		log.Info("dictation disabled: no OpenAI API key")
	}

	p := tea.NewProgram(tui.New(ctx, tuiConfig), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	fmt.Printf("\nfinished. logs in %s\n", logPath)

	return nil
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	devices, err := audio.EnumerateDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formatCount", dev.FormatCount,
			"formats", dev.Formats,
		)
	}

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey   SetKeyCmd   `cmd:"" help:"Store an API key in system keychain"`
	ListKeys ListKeysCmd `cmd:"" name:"list-keys" help:"Show which API keys are configured"`
}

// SetKeyCmd stores an API key in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"openai,lectio" help:"Service name (openai or lectio)"`
	Secret  string `arg:"" help:"API key value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("API key cannot be empty")
	}

	apiKey, err := keyring.APIKeyFromServiceName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(apiKey, c.Secret); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Printf("%s API key stored in keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which API keys are configured and where they come from.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true

	for _, apiKey := range keyring.AllAPIKeys() {
		if _, source := keyring.Resolve(apiKey); source != "" {
			fmt.Printf("%s: configured (%s)\n", apiKey.DisplayName(), source)
		} else {
			fmt.Printf("%s: not set\n", apiKey.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Println("\nRun 'lectio config set-key <service> <key>' to configure.")
	}

	return nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Set up text-based logger for CLI output
	slog.SetDefault(logger.NewTextLogger(os.Stdout, logger.Level(cfg)))

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("lectio"),
		kong.Description("Record scripture passages against a lectio backend."),
		kong.Bind(cfg),
	)
	err = ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}

// newClient builds the backend client. The bearer token comes from the
// configuration, falling back to the keychain.
func newClient(cfg *config.Config, log *slog.Logger) (*api.Client, error) {
	token := cfg.APIToken
	if token == "" {
		token, _ = keyring.Resolve(keyring.APIToken)
	}

	client, err := api.NewClient(cfg.APIURL,
		api.WithToken(token),
		api.WithRetries(cfg.APIRetries),
		api.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return client, nil
}

func openAIKey(cfg *config.Config) string {
	if cfg.OpenAIAPIKey != "" {
		return cfg.OpenAIAPIKey
	}

	key, source := keyring.Resolve(keyring.OpenAI)
	slog.Debug("resolved OpenAI key", "source", source)

	return key
}
