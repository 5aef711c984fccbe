// Command audioscribe transcribes, translates and summarizes audio.
//
//	audioscribe transcribe interview.m4a
//	audioscribe translate --to spanish notes.txt
//	audioscribe live --save
//	audioscribe serve
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kbukum/audioscribe/bootstrap"
	"github.com/kbukum/audioscribe/component"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/observability"
	"github.com/kbukum/audioscribe/version"
)

const (
	exitOK        = 0
	exitError     = 1
	exitUsage     = 2
	exitCancelled = 130
)

const usage = `Usage: audioscribe [--config FILE] [--log-level LEVEL] <command> [flags] [args]

Commands:
  transcribe <file|url>      transcribe an audio or video file
  translate --to LANG [file] translate text (stdin when no file is given)
  summarize [file]           summarize text (stdin when no file is given)
  live                       record and transcribe Russian/Spanish speech live
  record                     record from the default input device
  serve                      run the HTTP API
  key set|remove|status      manage the stored OpenAI API key
  version                    print the version
`

// cli carries the process streams so commands can be tested.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// command runs one subcommand inside the application lifecycle.
type command func(ctx context.Context, c *cli, app *bootstrap.App[*AppConfig], svc *services, args []string) error

var commands = map[string]command{
	"transcribe": runTranscribe,
	"translate":  runTranslate,
	"summarize":  runSummarize,
	"live":       runLive,
	"record":     runRecord,
	"key":        runKey,
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.run(context.Background(), os.Args[1:]))
}

func (c *cli) run(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.SetInterspersed(false)
	fs.Usage = func() { fmt.Fprint(c.stderr, usage) }
	configFile := fs.StringP("config", "c", "", "config file (default: search ./config.yml and the user config dir)")
	logLevel := fs.String("log-level", "", "log level override (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	switch name {
	case "version":
		fmt.Fprintln(c.stdout, serviceName, version.Get().String())
		return exitOK
	case "help":
		fs.Usage()
		return exitOK
	}
	cmd, ok := commands[name]
	if !ok && name != "serve" {
		fmt.Fprintf(c.stderr, "unknown command %q\n\n", name)
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintln(c.stderr, "error:", err)
		return exitError
	}
	if *logLevel != "" {
		cfg.Logging.Level = strings.ToLower(*logLevel)
	}

	var opts []bootstrap.Option
	if name != "serve" {
		opts = append(opts, bootstrap.Quiet())
	}
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		fmt.Fprintln(c.stderr, "error:", err)
		return exitError
	}
	svc, err := wire(app.Cfg, app.Logger)
	if err != nil {
		fmt.Fprintln(c.stderr, "error:", err)
		return exitError
	}
	if err := app.RegisterComponent(telemetry(app.Cfg.Tracing)); err != nil {
		fmt.Fprintln(c.stderr, "error:", err)
		return exitError
	}

	if name == "serve" {
		err = runServe(ctx, c, app, svc, rest)
	} else {
		err = app.RunTask(ctx, func(ctx context.Context) error {
			return cmd(ctx, c, app, svc, rest)
		})
	}
	return c.exitCode(err)
}

// exitCode reports err and maps it to a process exit status.
func (c *cli) exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case stderrors.Is(err, pflag.ErrHelp):
		return exitOK
	case errors.HasCode(err, errors.ErrCodeCancelled), stderrors.Is(err, context.Canceled):
		fmt.Fprintln(c.stderr, "cancelled")
		return exitCancelled
	}
	var usageErr usageError
	if stderrors.As(err, &usageErr) {
		fmt.Fprintln(c.stderr, "error:", usageErr.msg)
		return exitUsage
	}
	if appErr, ok := errors.AsAppError(err); ok {
		fmt.Fprintln(c.stderr, "error:", appErr.Message)
		return exitError
	}
	fmt.Fprintln(c.stderr, "error:", err)
	return exitError
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// telemetry starts the OTLP exporters when tracing is enabled.
func telemetry(cfg observability.Config) component.Component {
	var shutdown observability.ShutdownFunc
	return component.Hooks("telemetry",
		func(ctx context.Context) error {
			var err error
			shutdown, err = observability.Setup(ctx, cfg)
			return err
		},
		func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	)
}
