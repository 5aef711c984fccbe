// Package bootstrap runs the audioscribe entry points.
//
// An App owns the typed configuration, the logger and the component
// registry. Run serves until a signal arrives; RunTask executes one finite
// command (a transcription, a recording) with the same startup and
// shutdown sequence, cancelling the task on SIGINT or SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(sse.NewComponent(hub))
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    _, err := session.Run(ctx, media.Handle(path))
//	    return err
//	})
package bootstrap
