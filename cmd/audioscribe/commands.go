package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/audioscribe/api"
	"github.com/kbukum/audioscribe/bootstrap"
	"github.com/kbukum/audioscribe/credential"
	"github.com/kbukum/audioscribe/errors"
	"github.com/kbukum/audioscribe/export"
	"github.com/kbukum/audioscribe/ingest"
	"github.com/kbukum/audioscribe/live"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/media"
	"github.com/kbukum/audioscribe/observability"
	"github.com/kbukum/audioscribe/recorder"
	"github.com/kbukum/audioscribe/server"
	"github.com/kbukum/audioscribe/sse"
	"github.com/kbukum/audioscribe/translate"
	"github.com/kbukum/audioscribe/util"
)

func newFlagSet(c *cli, name, args string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprintf(c.stderr, "Usage: audioscribe %s [flags] %s\n\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return err
		}
		return usagef("%s: %v", fs.Name(), err)
	}
	return nil
}

// progressPrinter writes each status change of a run to w.
func progressPrinter(w io.Writer) ingest.Observer {
	var last string
	return func(st ingest.State) {
		if st.Status == "" || st.Status == last {
			return
		}
		last = st.Status
		fmt.Fprintf(w, "[%3.0f%%] %s\n", st.Progress, st.Status)
	}
}

func runTranscribe(ctx context.Context, c *cli, app *bootstrap.App[*AppConfig], svc *services, args []string) error {
	fs := newFlagSet(c, "transcribe", "<file|url>")
	language := fs.StringP("language", "l", app.Cfg.Pipeline.Language, "ISO-639-1 language hint")
	prompt := fs.String("prompt", app.Cfg.Pipeline.Prompt, "vocabulary hint passed to the transcription model")
	plain := fs.Bool("plain", false, "print the merged text without speaker labels")
	asJSON := fs.Bool("json", false, "print the transcript as JSON")
	save := fs.Bool("save", false, "save the transcript to the configured storage")
	quiet := fs.BoolP("quiet", "q", false, "do not print progress")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("transcribe takes exactly one file or URL")
	}

	input := media.Handle(fs.Arg(0))
	if isURL(fs.Arg(0)) {
		fmt.Fprintln(c.stderr, "Downloading...")
		h, err := svc.downloader.Fetch(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		input = h
	}

	var observer ingest.Observer
	if !*quiet {
		observer = progressPrinter(c.stderr)
	}
	opts := svc.pipeline(observer)
	opts.Language = *language
	opts.Prompt = *prompt
	t, err := ingest.NewSession(opts).Run(ctx, input)
	if err != nil {
		return err
	}

	text := t.Labeled()
	if *plain {
		text = t.Text
	}
	switch {
	case *asJSON:
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(struct {
			*ingest.Transcript
			Labeled string `json:"labeled"`
		}{t, t.Labeled()}); err != nil {
			return err
		}
	default:
		fmt.Fprintln(c.stdout, text)
	}

	if *save {
		return saveText(ctx, c, svc, export.PrefixTranscription, text)
	}
	return nil
}

func runTranslate(ctx context.Context, c *cli, _ *bootstrap.App[*AppConfig], svc *services, args []string) error {
	fs := newFlagSet(c, "translate", "[file]")
	target := fs.StringP("to", "t", "", "target language: "+strings.Join(translate.Languages, ", "))
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *target == "" {
		return usagef("translate: --to is required")
	}
	text, err := readText(c, fs.Args())
	if err != nil {
		return err
	}
	out, err := svc.translator.Translate(ctx, text, *target)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, out)
	return nil
}

func runSummarize(ctx context.Context, c *cli, _ *bootstrap.App[*AppConfig], svc *services, args []string) error {
	fs := newFlagSet(c, "summarize", "[file]")
	save := fs.Bool("save", false, "save the summary to the configured storage")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	text, err := readText(c, fs.Args())
	if err != nil {
		return err
	}
	out, err := svc.translator.Summarize(ctx, text)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, out)
	if *save {
		return saveText(ctx, c, svc, export.PrefixSummary, out)
	}
	return nil
}

func runLive(ctx context.Context, c *cli, app *bootstrap.App[*AppConfig], svc *services, args []string) error {
	fs := newFlagSet(c, "live", "")
	seconds := fs.Int("segment", recorder.DefaultSegmentSeconds, "seconds of audio per transcription")
	save := fs.Bool("save", false, "save the session to the configured storage when it ends")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if _, err := svc.creds.Get(ctx); err != nil {
		return err
	}

	rec := recorder.New(app.Cfg.Recorder, app.Cfg.Pipeline.RecordingDir, nil, svc.log)
	segments, err := rec.Segmented(ctx, *seconds)
	if err != nil {
		return err
	}
	defer os.RemoveAll(segments.Dir()) //nolint:errcheck // best-effort cleanup
	defer segments.Close()             //nolint:errcheck // Run closes it first

	session := live.NewSession(live.Options{
		Transcriber: svc.transcriber,
		Translator:  svc.translator,
		Model:       app.Cfg.OpenAI.TranscriptionModel,
		Logger:      svc.log,
	})
	fmt.Fprintln(c.stderr, "Listening... press Ctrl-C to stop.")
	err = session.Run(ctx, segments, func(e live.Entry) {
		fmt.Fprintf(c.stdout, "[%s]\n%s\n\n", e.Time.Format("15:04:05"), e.String())
	})
	if err != nil {
		return err
	}
	if *save && len(session.Entries()) > 0 {
		return saveText(context.WithoutCancel(ctx), c, svc, export.PrefixLiveTranscription, session.Export())
	}
	return nil
}

func runRecord(ctx context.Context, c *cli, app *bootstrap.App[*AppConfig], svc *services, args []string) error {
	fs := newFlagSet(c, "record", "")
	duration := fs.DurationP("duration", "d", 0, "stop after this long (default: until Ctrl-C)")
	transcribe := fs.Bool("transcribe", false, "transcribe the recording when it stops")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	rec := recorder.New(app.Cfg.Recorder, app.Cfg.Pipeline.RecordingDir, nil, svc.log)
	recording, err := rec.Start(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stderr, "Recording... press Ctrl-C to stop.")

	var timeout <-chan time.Time
	if *duration > 0 {
		timer := time.NewTimer(*duration)
		defer timer.Stop()
		timeout = timer.C
	}
	select {
	case <-ctx.Done():
	case <-timeout:
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.Cfg.Recorder.GracePeriod+5*time.Second)
	defer cancel()
	path, err := recording.Stop(stopCtx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, path)
	if info, err := os.Stat(string(path)); err == nil {
		fmt.Fprintln(c.stderr, "Recorded", util.FormatSize(info.Size()))
	}
	if !*transcribe {
		return nil
	}

	// Ctrl-C already ended the recording; a second one aborts the transcription.
	tctx, stop := signal.NotifyContext(context.WithoutCancel(ctx), os.Interrupt)
	defer stop()
	t, err := ingest.NewSession(svc.pipeline(progressPrinter(c.stderr))).Run(tctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, t.Labeled())
	return nil
}

func runKey(ctx context.Context, c *cli, _ *bootstrap.App[*AppConfig], svc *services, args []string) error {
	if len(args) == 0 {
		return usagef("key needs one of: set, remove, status")
	}
	switch args[0] {
	case "set":
		key := ""
		if len(args) > 1 {
			key = args[1]
		} else {
			fmt.Fprint(c.stderr, "OpenAI API key: ")
			line, err := bufio.NewReader(c.stdin).ReadString('\n')
			if err != nil && err != io.EOF {
				return err
			}
			key = line
		}
		if err := svc.keys.Set(ctx, key); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "API key saved to", svc.keys.Path())
	case "remove":
		if err := svc.keys.Remove(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "API key removed")
	case "status":
		h := credential.HealthCheck(svc.creds).CheckHealth(ctx)
		if h.Status != observability.HealthStatusUp {
			fmt.Fprintln(c.stdout, h.Message)
			return nil
		}
		key, err := svc.creds.Get(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "API key configured (%s)\n", util.MaskSecret(key, 5))
	default:
		return usagef("unknown key command %q", args[0])
	}
	return nil
}

func runServe(ctx context.Context, c *cli, app *bootstrap.App[*AppConfig], svc *services, args []string) error {
	fs := newFlagSet(c, "serve", "")
	port := fs.IntP("port", "p", app.Cfg.Server.Port, "listen port")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg := app.Cfg.Server
	cfg.Port = *port

	hub := sse.NewHub(svc.log)
	if err := app.RegisterComponent(sse.NewComponent(hub)); err != nil {
		return err
	}

	exporter, err := svc.exporter(ctx)
	if err != nil {
		svc.log.Warn("exports disabled", logger.ErrorFields("storage", err))
		exporter = nil
	}

	srv := server.New(cfg, svc.log)
	srv.ApplyDefaults(app.Name, func(ctx context.Context) []observability.Health {
		return append(app.Components.HealthAll(ctx),
			credential.HealthCheck(svc.creds).CheckHealth(ctx),
			ffmpegHealth(ctx, svc.normalizer),
		)
	})
	handler := api.NewHandler(api.Deps{
		Pipeline:    svc.pipeline(nil),
		Hub:         hub,
		Credentials: svc.keyStore(),
		Translator:  svc.translator,
		Fetcher:     svc.downloader,
		Exporter:    exporter,
		UploadDir:   app.Cfg.Pipeline.UploadDir,
		Logger:      svc.log,
	})
	handler.Register(srv.GinEngine())
	for _, r := range srv.GinEngine().Routes() {
		app.Summary.TrackRoute(r.Method, r.Path)
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}
	return app.Run(ctx)
}

func ffmpegHealth(ctx context.Context, n *media.FFmpegNormalizer) observability.Health {
	h := observability.Health{Name: "ffmpeg", Status: observability.HealthStatusUp}
	if !n.Available(ctx) {
		h.Status = observability.HealthStatusDown
		h.Message = "ffmpeg not found on PATH"
	}
	return h
}

func saveText(ctx context.Context, c *cli, svc *services, prefix, text string) error {
	exporter, err := svc.exporter(ctx)
	if err != nil {
		return err
	}
	url, err := exporter.SaveDated(ctx, prefix, time.Now(), text)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stderr, "Saved to", url)
	return nil
}

// readText returns the contents of the single file argument, or stdin.
func readText(c *cli, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch len(args) {
	case 0:
		data, err = io.ReadAll(c.stdin)
	case 1:
		data, err = os.ReadFile(args[0])
		if err != nil {
			return "", errors.SourceUnavailable(args[0], err)
		}
	default:
		return "", usagef("expected at most one file")
	}
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.InvalidInput("text", "no text to process")
	}
	return text, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
