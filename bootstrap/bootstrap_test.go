package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/audioscribe/config"
	"github.com/kbukum/audioscribe/logger"
	"github.com/kbukum/audioscribe/observability"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	status   observability.HealthStatus
	started  bool
	stopped  bool
	log      *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(context.Context) error {
	m.started = true
	if m.log != nil {
		*m.log = append(*m.log, "start:"+m.name)
	}
	return m.startErr
}

func (m *mockComponent) Stop(context.Context) error {
	m.stopped = true
	if m.log != nil {
		*m.log = append(*m.log, "stop:"+m.name)
	}
	return m.stopErr
}

func (m *mockComponent) Health(context.Context) observability.Health {
	status := m.status
	if status == "" {
		status = observability.HealthStatusUp
	}
	return observability.Health{Name: m.name, Status: status}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "audioscribe", Version: "1.0.0"}}
	opts = append([]Option{WithLogger(logger.Nop()), Quiet()}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "audioscribe" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected defaults applied, got environment %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("expected default timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewApp_Validation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Environment: "moon"}}
	if _, err := NewApp(cfg, WithLogger(logger.Nop())); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(time.Second))
	if app.gracefulTimeout != time.Second {
		t.Errorf("expected 1s, got %v", app.gracefulTimeout)
	}
}

func TestRegisterComponent_Duplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(&mockComponent{name: "sse"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := app.RegisterComponent(&mockComponent{name: "sse"}); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestReadyCheck(t *testing.T) {
	app := newTestApp(t)
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Fatalf("empty registry should be ready: %v", err)
	}
	_ = app.RegisterComponent(&mockComponent{name: "ffmpeg", status: observability.HealthStatusDegraded})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ffmpeg=degraded") {
		t.Fatalf("expected degraded ffmpeg, got %v", err)
	}
}

func TestRunTask_LifecycleOrder(t *testing.T) {
	app := newTestApp(t)
	var order []string
	_ = app.RegisterComponent(&mockComponent{name: "a", log: &order})
	_ = app.RegisterComponent(&mockComponent{name: "b", log: &order})
	app.OnStart(func(context.Context) error { order = append(order, "onStart"); return nil })
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { order = append(order, "configure"); return nil })
	app.OnReady(func(context.Context) error { order = append(order, "onReady"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "onStop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	want := "start:a,start:b,onStart,configure,onReady,task,onStop,stop:b,stop:a"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestRunTask_ReturnsTaskError(t *testing.T) {
	app := newTestApp(t)
	err := app.RunTask(context.Background(), func(context.Context) error {
		return fmt.Errorf("task error")
	})
	if err == nil || err.Error() != "task error" {
		t.Fatalf("expected task error, got %v", err)
	}
}

func TestRunTask_TaskErrorWinsOverStopError(t *testing.T) {
	app := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "hub", stopErr: fmt.Errorf("stop failed")})
	err := app.RunTask(context.Background(), func(context.Context) error {
		return fmt.Errorf("task error")
	})
	if err == nil || err.Error() != "task error" {
		t.Fatalf("expected task error, got %v", err)
	}

	app = newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "hub", stopErr: fmt.Errorf("stop failed")})
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected stop error when the task succeeds")
	}
}

func TestRunTask_Cancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if err == nil {
		t.Error("expected error from cancelled task")
	}
}

func TestRunTask_ComponentStartError(t *testing.T) {
	app := newTestApp(t)
	first := &mockComponent{name: "first"}
	_ = app.RegisterComponent(first)
	_ = app.RegisterComponent(&mockComponent{name: "broken", startErr: fmt.Errorf("no ffmpeg")})

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
	if err == nil {
		t.Fatal("expected start error")
	}
	if ran {
		t.Error("task must not run when startup fails")
	}
	if !first.stopped {
		t.Error("started components should be stopped on failure")
	}
}

func TestRunTask_ConfigureErrorStopsComponents(t *testing.T) {
	app := newTestApp(t)
	c := &mockComponent{name: "sse"}
	_ = app.RegisterComponent(c)
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return fmt.Errorf("bad wiring") })

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected configure error")
	}
	if !c.stopped {
		t.Error("expected component stopped after configure error")
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	c := &mockComponent{name: "http-server"}
	_ = app.RegisterComponent(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !c.stopped {
		t.Error("expected component stopped")
	}
}

func TestSummary_Display(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, WithSummaryWriter(&buf))
	app.quiet = false
	_ = app.RegisterComponent(&mockComponent{name: "sse"})
	_ = app.RegisterComponent(&mockComponent{name: "ffmpeg", status: observability.HealthStatusDown})
	app.Summary.TrackRoute("POST", "/api/v1/transcriptions")

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"audioscribe 1.0.0 started", "├── ✅ sse", "└── ❌ ffmpeg", "Routes (1)", "POST    /api/v1/transcriptions"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
