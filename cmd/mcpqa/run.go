package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mcpqa/internal/catalog"
	"mcpqa/internal/config"
	"mcpqa/internal/harness"
	"mcpqa/internal/mcp"
	"mcpqa/internal/quickstart"
	"mcpqa/internal/recorder"
)

var (
	runMatrixPath  string
	runLogPath     string
	runCatalogPath string
	runCommand     string
	runRoundStart  int
	runLoop        bool
	runSleep       time.Duration
)

// runCmd executes one or more full passes over the acceptance catalog.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scripted acceptance pass against the MCP server",
	Long: `Spawns the MCP server, performs the initialize handshake, and calls
every tool in the catalog in order. Each call appends a row to the run
log and refreshes the tool's acceptance matrix row.

Per-tool failures are recorded and the pass continues; only a dead
server process aborts the remainder of a pass. With --loop the command
keeps starting fresh rounds until interrupted, pausing --sleep between
them.`,
	RunE: runAcceptance,
}

func init() {
	runCmd.Flags().StringVar(&runMatrixPath, "matrix", "", "Acceptance matrix CSV (required)")
	runCmd.Flags().StringVar(&runLogPath, "run-log", "", "Run log CSV (required)")
	runCmd.Flags().StringVar(&runCatalogPath, "catalog", "", "Catalog YAML (default: built-in catalog)")
	runCmd.Flags().StringVar(&runCommand, "command", "", "MCP server command line (overrides config)")
	runCmd.Flags().IntVar(&runRoundStart, "round", 1, "Starting round number")
	runCmd.Flags().BoolVar(&runLoop, "loop", false, "Keep running rounds until interrupted")
	runCmd.Flags().DurationVar(&runSleep, "sleep", time.Minute, "Pause between rounds in loop mode")
	runCmd.MarkFlagRequired("matrix")
	runCmd.MarkFlagRequired("run-log")
}

func runAcceptance(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if runCommand != "" {
		cfg.Server.Command = strings.Fields(runCommand)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cases := catalog.Default()
	if runCatalogPath != "" {
		if cases, err = catalog.Load(runCatalogPath); err != nil {
			return err
		}
	}

	runLog := recorder.NewRunLog(runLogPath)
	matrix := recorder.NewMatrix(runMatrixPath)
	if err := matrix.Seed(catalog.Names(cases)); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	round := runRoundStart
	for {
		if err := runRound(ctx, cfg, cases, runLog, matrix, round); err != nil {
			if !runLoop {
				return err
			}
			logger.Error("round failed", zap.Int("round", round), zap.Error(err))
		}
		if !runLoop {
			return nil
		}

		round++
		logger.Info("sleeping before next round",
			zap.Int("next_round", round), zap.Duration("sleep", runSleep))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(runSleep):
		}
	}
}

// runRound performs one complete pass: account bootstrap, server spawn,
// handshake, then the catalog walk with results recorded as they land.
func runRound(ctx context.Context, cfg *config.Config, cases []harness.ToolCase,
	runLog *recorder.RunLog, matrix *recorder.Matrix, round int) error {

	runID := harness.NewRunID()
	logger.Info("starting acceptance round",
		zap.String("run_id", runID),
		zap.Int("round", round),
		zap.Int("tools", len(cases)))

	qaCtx := harness.NewContext()
	creds, err := quickstart.NewClient(cfg.Server.URL, logger).Ensure(ctx)
	if err != nil {
		// Without credentials the login tool degrades to browser mode;
		// the pass itself still runs.
		logger.Warn("quickstart bootstrap failed", zap.Error(err))
	} else {
		qaCtx.Set("qa_email", creds.Email)
		qaCtx.Set("qa_password", creds.Password)
	}

	transport := mcp.NewTransport(cfg.Server.Command, mcp.TransportOptions{
		ShutdownGrace: cfg.GetShutdownGrace(),
	}, logger)
	if err := transport.Start(); err != nil {
		return err
	}
	defer func() {
		if cerr := transport.Close(); cerr != nil {
			logger.Warn("server shutdown reported error", zap.Error(cerr))
		}
	}()

	session, err := mcp.NewSession(transport, mcp.SessionOptions{
		ProtocolVersion:  cfg.Client.ProtocolVersion,
		HandshakeTimeout: cfg.GetHandshakeTimeout(),
		MinServerVersion: cfg.Client.MinServerVersion,
	}, logger)
	if err != nil {
		return err
	}
	if _, err := session.Initialize(mcp.ClientInfo{
		Name:    cfg.Client.Name,
		Version: cfg.Client.Version,
	}); err != nil {
		return err
	}

	runner := harness.NewRunner(session, cases, harness.RunnerOptions{
		CallTimeout: cfg.GetCallTimeout(),
		Context:     qaCtx,
	}, logger)

	sink := func(o harness.Outcome) error {
		if err := runLog.Append(o); err != nil {
			return err
		}
		if err := matrix.Update(o.Tool, recorder.UpdateFor(o)); err != nil {
			var unknown *recorder.UnknownToolError
			if errors.As(err, &unknown) {
				logger.Warn("tool missing from acceptance matrix",
					zap.String("tool", unknown.Tool))
				return nil
			}
			return err
		}
		return nil
	}

	if err := runner.Run(runID, round, sink); err != nil {
		return err
	}

	logger.Info("round complete", zap.String("run_id", runID), zap.Int("round", round))
	return nil
}
