// Command netscout is the network-diagnostics and pentesting assistant: an
// LLM-driven interactive shell, a one-shot tool runner, a startup selftest
// and an MCP protocol server over stdio — all backed by the same tool
// registry.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/netscout/internal/config"
	"github.com/MrWong99/netscout/internal/mcpserver"
	"github.com/MrWong99/netscout/internal/observe"
	"github.com/MrWong99/netscout/internal/orchestrator"
	"github.com/MrWong99/netscout/internal/registry"
	"github.com/MrWong99/netscout/internal/selftest"
	"github.com/MrWong99/netscout/internal/session"
	"github.com/MrWong99/netscout/internal/tools"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath string
	var modelFlag string

	root := &cobra.Command{
		Use:           "netscout",
		Short:         "Network diagnostics and pentesting assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")

	interactiveCmd := &cobra.Command{
		Use:   "interactive",
		Short: "Start the LLM-driven interactive shell",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd.Context(), configPath, modelFlag)
		},
	}
	interactiveCmd.Flags().StringVar(&modelFlag, "model", "", "model identifier (overrides the config file)")

	runToolCmd := &cobra.Command{
		Use:   "run-tool [name] [key=value ...]",
		Short: "List tools, or execute one and print its envelope",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTool(cmd.Context(), configPath, args)
		},
	}

	selftestCmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the startup sequence and print a summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSelftest(cmd.Context(), configPath)
		},
	}

	runTestsCmd := &cobra.Command{
		Use:   "run-tests",
		Short: "Run the bundled test suite",
		RunE: func(cmd *cobra.Command, _ []string) error {
			test := exec.CommandContext(cmd.Context(), "go", "test", "./...")
			test.Stdout = os.Stdout
			test.Stderr = os.Stderr
			return test.Run()
		},
	}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Serve tools to machine clients over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), configPath)
		},
	}

	root.AddCommand(interactiveCmd, runToolCmd, selftestCmd, runTestsCmd, serverCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "netscout: %v\n", err)
		}
		return 1
	}
	return 0
}

// setup loads configuration, installs logging and metrics, and builds a
// fully registered tool registry.
func setup(configPath string, sanitized bool) (*config.Config, *registry.Registry, func(context.Context) error, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	shutdownMetrics, err := observe.InitProvider()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []registry.Option{registry.WithMetrics(observe.Default())}
	if sanitized {
		opts = append(opts, registry.WithSanitizedOutput())
	}
	reg := registry.New(opts...)
	if err := registerAll(reg); err != nil {
		return nil, nil, nil, err
	}
	return cfg, reg, shutdownMetrics, nil
}

// runInteractive starts the chat shell after the startup sequence.
func runInteractive(ctx context.Context, configPath, modelOverride string) error {
	cfg, reg, shutdownMetrics, err := setup(configPath, false)
	if err != nil {
		return err
	}
	defer shutdownAt(shutdownMetrics)

	if modelOverride != "" {
		cfg.LLM.Model = modelOverride
	}

	fmt.Println("netscout — network diagnostics assistant")
	report := selftest.Run(ctx, reg)
	fmt.Print(report.Summary())

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	orch, err := orchestrator.New(orchestrator.Config{
		Provider:        provider,
		Registry:        reg,
		NetworkKeywords: cfg.Orchestrator.NetworkKeywords,
		TurnTimeout:     cfg.LLM.TurnTimeout.Std(),
		Metrics:         observe.Default(),
	})
	if err != nil {
		return err
	}

	sessions := session.NewManager(session.ManagerConfig{
		Orchestrator: orch,
		MaxSessions:  cfg.Sessions.MaxSessions,
		IdleTimeout:  cfg.Sessions.IdleTimeout.Std(),
		Metrics:      observe.Default(),
	})
	defer sessions.Shutdown()

	return chatLoop(ctx, sessions, cfg.LLM.TurnTimeout.Std())
}

// runTool lists the catalog or executes a single tool.
func runTool(ctx context.Context, configPath string, args []string) error {
	_, reg, shutdownMetrics, err := setup(configPath, false)
	if err != nil {
		return err
	}
	defer shutdownAt(shutdownMetrics)

	reg.DetectBinaries(ctx, "nmap", "traceroute", "dig", "tshark")

	if len(args) == 0 {
		for _, t := range reg.List(registry.ListFilter{}) {
			marker := ""
			if t.Metadata.RequiresExternalTool {
				marker = " [external]"
			}
			fmt.Printf("  %-36s%s %s\n", t.Metadata.Name, marker, t.Metadata.Description)
		}
		return nil
	}

	toolArgs := parseKeyValueArgs(args[1:])
	result := reg.ExecuteTool(ctx, args[0], toolArgs, tools.ModeInteractive)

	rendered, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(rendered))

	if !result.Success {
		return fmt.Errorf("tool %s failed: %s", args[0], result.ErrorMessage)
	}
	return nil
}

// runSelftest executes the startup sequence; the exit code mirrors overall
// success.
func runSelftest(ctx context.Context, configPath string) error {
	_, reg, shutdownMetrics, err := setup(configPath, false)
	if err != nil {
		return err
	}
	defer shutdownAt(shutdownMetrics)

	report := selftest.Run(ctx, reg)
	fmt.Print(report.Summary())
	if !report.Success {
		return fmt.Errorf("startup sequence degraded")
	}
	return nil
}

// runServer speaks MCP over stdio until the peer disconnects or a signal
// arrives, then drains with a bounded grace period.
func runServer(ctx context.Context, configPath string) error {
	cfg, reg, shutdownMetrics, err := setup(configPath, true)
	if err != nil {
		return err
	}
	defer shutdownAt(shutdownMetrics)

	reg.DetectBinaries(ctx, "nmap", "traceroute", "dig", "tshark")

	auth, err := mcpserver.NewAuthenticatorFromEnv()
	if err != nil {
		return err
	}

	// The conversational path is available to protocol clients when a chat
	// backend can be built; tool execution works regardless.
	var sessions *session.Manager
	if provider, provErr := buildProvider(cfg); provErr == nil {
		if orch, orchErr := orchestrator.New(orchestrator.Config{
			Provider:        provider,
			Registry:        reg,
			NetworkKeywords: cfg.Orchestrator.NetworkKeywords,
			TurnTimeout:     cfg.LLM.TurnTimeout.Std(),
			Metrics:         observe.Default(),
		}); orchErr == nil {
			sessions = session.NewManager(session.ManagerConfig{
				Orchestrator: orch,
				MaxSessions:  cfg.Sessions.MaxSessions,
				IdleTimeout:  cfg.Sessions.IdleTimeout.Std(),
				Metrics:      observe.Default(),
			})
			defer sessions.Shutdown()
		}
	} else {
		slog.Warn("chat backend unavailable, serving tools only", "err", provErr)
	}

	srv, err := mcpserver.New(mcpserver.Config{
		Registry: reg,
		Sessions: sessions,
		Auth:     auth,
	})
	if err != nil {
		return err
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// shutdownAt runs a metrics shutdown with a bounded grace period.
func shutdownAt(shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		slog.Warn("metrics shutdown error", "err", err)
	}
}

// newLogger builds the process logger writing to stderr so stdout stays
// clean for the protocol channel.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
