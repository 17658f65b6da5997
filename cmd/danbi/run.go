package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danbi-ai/danbi/internal/config"
	"github.com/danbi-ai/danbi/internal/orchestrator"
	"github.com/danbi-ai/danbi/internal/tui"
)

var (
	runSessionID string
	runHeadless  bool
	runDBPath    string
	runTemplates string
)

var runCmd = &cobra.Command{
	Use:   "run <질문>",
	Short: "Run an analysis session for a query",
	Long: `Run one analysis session.

The query is classified, decomposed into tasks, executed, and synthesized
into a Korean report. Progress is shown in a terminal view unless --headless
is set.

Sessions are checkpointed after every stage. Pass --session with a previous
session id to resume an interrupted session from its last checkpoint.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	runCmd.Flags().StringVar(&runSessionID, "session", "", "Session id to resume (empty starts a new session)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without the progress view")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "Override the checkpoint database path")
	runCmd.Flags().StringVar(&runTemplates, "templates", "", "Override the task template file path")
}

func runQuery(cmd *cobra.Command, args []string) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in run: %v", r)
		}
	}()

	query := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runDBPath != "" {
		cfg.Store.Path = runDBPath
	}
	if runTemplates != "" {
		cfg.Templates.Path = runTemplates
	}

	logger := zap.NewNop()
	if os.Getenv("DANBI_DEBUG") != "" && runHeadless {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
			defer logger.Sync()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n세션을 중단합니다...")
		cancel()
	}()

	var events chan orchestrator.Event
	if !runHeadless {
		events = make(chan orchestrator.Event, 64)
	}

	eng, cleanup, err := buildEngine(cfg, logger, events)
	if err != nil {
		return err
	}
	defer cleanup()

	if runHeadless {
		res, err := eng.Execute(ctx, query, runSessionID)
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	}

	type outcome struct {
		res *orchestrator.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := eng.Execute(ctx, query, runSessionID)
		close(events)
		done <- outcome{res, err}
	}()

	if err := tui.Run(events); err != nil {
		// The session keeps running; fall through and wait for its result.
		fmt.Fprintf(os.Stderr, "progress view error: %v\n", err)
	}

	out := <-done
	if out.err != nil {
		return out.err
	}
	printResult(out.res)
	return nil
}

// printResult writes the final report to stdout.
func printResult(res *orchestrator.Result) {
	if res.Success {
		color.Green("✓ 분석 완료 (세션 %s)", res.SessionID)
	} else {
		color.Red("✗ 분석 실패 (세션 %s)", res.SessionID)
		for _, msg := range res.Errors {
			color.Red("  - %s", msg)
		}
	}

	fmt.Println()
	fmt.Println(res.FinalInsight)
}
