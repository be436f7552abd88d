// Command blogbuilder renders a directory of Markdown posts into a static
// site, and optionally serves and rebuilds it while the inputs change.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/devserver"
	derrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logging"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/render"
	"git.home.luguber.info/inful/blogbuilder/internal/version"
)

// CLI is the flag surface. There are no subcommands.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path." default:"config.conf" type:"path"`
	Watch   bool             `help:"Serve the output and rebuild when posts, templates or the config change."`
	Debug   bool             `help:"Enable debug logging."`
	Port    int              `short:"p" help:"Preview server port (1-65535)." default:"${default_port}"`
	Host    string           `help:"Preview server host." default:"localhost"`
	Metrics bool             `help:"Expose Prometheus metrics at /-/metrics in watch mode."`
	Version kong.VersionFlag `help:"Show version and exit."`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run parses args and executes. It returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	exited, exitCode := false, 0
	parser, err := kong.New(&cli,
		kong.Name("blogbuilder"),
		kong.Description("Static blog generator with a watch-mode preview server."),
		kong.Vars{
			"version":      version.String(),
			"default_port": strconv.Itoa(devserver.DefaultPort),
		},
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exited, exitCode = true, code }),
	)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	if _, err := parser.Parse(args); err != nil {
		if exited {
			return exitCode
		}
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
	if exited {
		return exitCode
	}

	level := logging.NewLevel(cli.Debug)
	logger := logging.New(stderr, logging.Options{Level: level})
	slog.SetDefault(logger)
	adapter := derrors.NewCLIErrorAdapter(cli.Debug, logger)

	if err := validatePort(cli.Port); err != nil {
		_, _ = fmt.Fprintln(stderr, adapter.FormatError(err))
		return adapter.ExitCodeFor(err)
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return adapter.Report(stderr, err)
	}

	if cli.Watch {
		return runWatch(ctx, &cli, cfg, logger, stderr)
	}
	if cli.Metrics {
		logger.Debug("Metrics are only served in watch mode")
	}
	return runOnce(ctx, cfg, logger, adapter, stdout, stderr)
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return derrors.ValidationError("port must be between 1 and 65535").
			WithContext("port", port).
			Build()
	}
	return nil
}

// runOnce performs a single build and prints a one-line summary. The builder
// has already logged any failure, so only the summary is written here.
func runOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger, adapter *derrors.CLIErrorAdapter, stdout, stderr io.Writer) int {
	builder := render.NewBuilder(cfg,
		render.WithLogger(logger),
		render.WithRecorder(metrics.NoopRecorder{}))
	res, err := builder.Build(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, adapter.FormatError(err))
		_, _ = fmt.Fprintln(stderr, summary(res, err))
		return adapter.ExitCodeFor(err)
	}
	_, _ = fmt.Fprintln(stdout, summary(res, nil))
	return 0
}

func summary(res *render.Result, err error) string {
	if res == nil {
		return "Build failed"
	}
	elapsed := res.Duration.Round(time.Millisecond)
	if err != nil {
		return fmt.Sprintf("Build failed after %s", elapsed)
	}
	msg := fmt.Sprintf("Build succeeded: %d posts, %d pages in %s", len(res.Posts), res.Pages, elapsed)
	if res.HasWarnings() {
		skipped := len(res.ParseFailures) + len(res.RenderFailures)
		msg += fmt.Sprintf(" (%d skipped, %d warnings)", skipped, len(res.Warnings))
	}
	return msg
}
