package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/contentcheck/internal/api"
	"github.com/dgallion1/contentcheck/internal/pipeline"
	"github.com/dgallion1/contentcheck/internal/report"
	"github.com/urfave/cli/v2"
)

const (
	exitOK       = 0
	exitFindings = 1
	exitFatal    = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "validate",
		Usage:     "check a documentation tree for structural and link errors",
		ArgsUsage: "ROOT [ROOT...]",
		Flags:     runFlags(),
		Action:    validateAction,
		Writer:    stdout,
		ErrWriter: stderr,
		Commands: []*cli.Command{
			{
				Name:      "serve",
				Usage:     "serve validation runs and reports over HTTP",
				ArgsUsage: "ROOT [ROOT...]",
				Flags:     serveFlags(),
				Action:    serveAction,
			},
		},
		// Exit codes are mapped in run.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	err := newApp(stdout, stderr).Run(hoistArgs(args))
	if err == nil {
		return exitOK
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(stderr, msg)
		}
		return ec.ExitCode()
	}
	fmt.Fprintln(stderr, "validate:", err)
	return exitFatal
}

func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	if c.Bool("quiet") {
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

func validateAction(c *cli.Context) error {
	log := newLogger(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit("validate: "+err.Error(), exitFatal)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := pipeline.NewRun(cfg, log).Execute(ctx)
	if err != nil {
		log.Error("run aborted", "error", err)
		return cli.Exit("validate: "+err.Error(), exitFatal)
	}

	if err := report.Render(c.App.Writer, rep, cfg.ReportFormat); err != nil {
		return cli.Exit("validate: write report: "+err.Error(), exitFatal)
	}
	if rep.Failed(cfg.Strict) {
		return cli.Exit("", exitFindings)
	}
	return nil
}

func serveAction(c *cli.Context) error {
	log := newLogger(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit("validate serve: "+err.Error(), exitFatal)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting report server", "port", cfg.Port, "roots", cfg.Roots)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-done
		return cli.Exit("validate serve: "+err.Error(), exitFatal)
	}
	<-done
	return nil
}
