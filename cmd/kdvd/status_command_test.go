package main

import (
	"context"
	"testing"

	"kdvd/internal/daemon"
	"kdvd/internal/history"
	"kdvd/internal/metrics"
)

func startTestDaemon(t *testing.T, env *cliTestEnv) *daemon.Daemon {
	t.Helper()
	store, err := history.Open(env.cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	d, err := daemon.New(env.cfg, store, nil, metrics.New())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestStatusAndDetection(t *testing.T) {
	env := setupCLITestEnv(t)
	startTestDaemon(t, env)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running:        yes")
	requireContains(t, out, "Detection:      active")

	out, _, err = runCLI(t, []string{"detection", "pause"}, env.configPath)
	if err != nil {
		t.Fatalf("detection pause: %v", err)
	}
	requireContains(t, out, "Detection paused: yes")

	out, _, err = runCLI(t, []string{"detection", "resume"}, env.configPath)
	if err != nil {
		t.Fatalf("detection resume: %v", err)
	}
	requireContains(t, out, "Detection paused: no")
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"status"}, env.configPath); err == nil {
		t.Fatal("expected status to fail without a running daemon")
	}
}

func TestStatusRequiresToken(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Daemon.APIToken = "secret"
	startTestDaemon(t, env)

	// The CLI config carries no token.
	if _, _, err := runCLI(t, []string{"status"}, env.configPath); err == nil {
		t.Fatal("expected unauthorized status call to fail")
	}

	writeTestConfig(t, env.configPath, env.cfg)
	if _, _, err := runCLI(t, []string{"status"}, env.configPath); err != nil {
		t.Fatalf("status with token: %v", err)
	}
}
