package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/forgeline/blueprint/internal/api"
	"github.com/forgeline/blueprint/internal/audit"
	"github.com/forgeline/blueprint/internal/flow"
	"github.com/forgeline/blueprint/internal/genai"
	"github.com/forgeline/blueprint/internal/lockfile"
	"github.com/forgeline/blueprint/internal/tui"
	"github.com/forgeline/blueprint/internal/util"
)

// defaultModelTimeout bounds each model call; there are no automatic retries.
const defaultModelTimeout = 120 * time.Second

func main() {
	config := loadEnvironmentConfig()
	flags, err := parseCommandLineFlags(config, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	initializeLogger(flags.logLevel)

	if flags.openAIKey == "" {
		slog.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}

	lock, err := lockfile.Acquire(flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire instance lock", "error", err, "state_dir", flags.stateDir)
		os.Exit(1)
	}
	defer lock.Release()

	slog.Info("Bootstrapping blueprint orchestrator",
		"model", flags.model, "tui", flags.useTUI, "addr", flags.apiAddr,
		"critic", flags.critic, "audit", flags.auditWebhookURL != "")

	if err := run(flags); err != nil {
		slog.Error("Blueprint failed to run", "error", err)
		lock.Release()
		os.Exit(1)
	}
	slog.Info("Blueprint exited successfully")
}

// Config holds environment configuration.
type Config struct {
	OpenAIKey       string
	Model           string
	ReasoningEffort string
	AccessCode      string
	AuditWebhookURL string
	StateDir        string
	APIAddr         string
	OutputPath      string
	LogLevel        string
	Critic          bool
}

// Flags holds the resolved configuration after flag overrides.
type Flags struct {
	openAIKey       string
	model           string
	reasoningEffort string
	accessCode      string
	auditWebhookURL string
	stateDir        string
	apiAddr         string
	outputPath      string
	logLevel        string
	critic          bool
	useTUI          bool
}

// initializeLogger sets up structured logging at the configured level.
func initializeLogger(level string) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: util.ParseLogLevel(level)}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from the environment and .env file.
func loadEnvironmentConfig() Config {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	return Config{
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		Model:           util.GetEnv("OPENAI_MODEL", genai.DefaultModel),
		ReasoningEffort: os.Getenv("OPENAI_REASONING_EFFORT"),
		AccessCode:      os.Getenv("ACCESS_CODE"),
		AuditWebhookURL: os.Getenv("AUDIT_WEBHOOK_URL"),
		StateDir:        util.GetEnv("BLUEPRINT_STATE_DIR", defaultStateDir()),
		APIAddr:         util.GetEnv("BLUEPRINT_ADDR", api.DefaultAddr),
		OutputPath:      util.GetEnv("BLUEPRINT_OUTPUT", "blueprint.md"),
		LogLevel:        os.Getenv("BLUEPRINT_LOG_LEVEL"),
		Critic:          util.ParseBoolEnv("BLUEPRINT_CRITIC", true),
	}
}

// defaultStateDir places the lock under the user's home, falling back to the
// working directory when no home is resolvable.
func defaultStateDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".blueprint")
	}
	return ".blueprint"
}

// parseCommandLineFlags applies command-line overrides on top of the
// environment configuration.
func parseCommandLineFlags(config Config, args []string) (*Flags, error) {
	fs := flag.NewFlagSet("blueprint", flag.ContinueOnError)

	useTUI := fs.Bool("tui", false, "run the terminal chat instead of the HTTP server")
	apiAddr := fs.String("addr", config.APIAddr, "HTTP listen address")
	outputPath := fs.String("output", config.OutputPath, "file the TUI export writes to")
	stateDir := fs.String("state-dir", config.StateDir, "directory for the instance lock")
	model := fs.String("model", config.Model, "OpenAI model")
	reasoningEffort := fs.String("reasoning-effort", config.ReasoningEffort, "reasoning effort (low, medium, high)")
	logLevel := fs.String("log-level", config.LogLevel, "log level (debug, info, warn, error)")
	noCritic := fs.Bool("no-critic", !config.Critic, "disable the blueprint contradiction scan")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Flags{
		openAIKey:       config.OpenAIKey,
		model:           *model,
		reasoningEffort: *reasoningEffort,
		accessCode:      config.AccessCode,
		auditWebhookURL: config.AuditWebhookURL,
		stateDir:        *stateDir,
		apiAddr:         *apiAddr,
		outputPath:      *outputPath,
		logLevel:        *logLevel,
		critic:          !*noCritic,
		useTUI:          *useTUI,
	}, nil
}

// buildOrchestrator wires the model client, audit recorder and flow.
func buildOrchestrator(flags *Flags) (*flow.BlueprintFlow, error) {
	client, err := genai.NewClient(
		genai.WithAPIKey(flags.openAIKey),
		genai.WithModel(flags.model),
		genai.WithReasoningEffort(flags.reasoningEffort),
		genai.WithTimeout(defaultModelTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build model client: %w", err)
	}

	opts := []flow.Option{flow.WithCritic(flags.critic)}
	if flags.auditWebhookURL != "" {
		opts = append(opts, flow.WithTurnRecorder(audit.NewLogger(flags.auditWebhookURL)))
	}
	return flow.NewBlueprintFlow(client, opts...), nil
}

// run starts the selected surface around a fresh orchestrator.
func run(flags *Flags) error {
	orchestrator, err := buildOrchestrator(flags)
	if err != nil {
		return err
	}

	if flags.useTUI {
		return tui.NewApp(orchestrator, tui.WithOutputPath(flags.outputPath)).Run()
	}
	server := api.NewServer(orchestrator,
		api.WithAddr(flags.apiAddr),
		api.WithAccessCode(flags.accessCode),
	)
	return server.Run()
}
