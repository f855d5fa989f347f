package main

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kdvd/internal/config"
	"kdvd/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	discRoot   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("KDVD_DISC_ROOT", "")
	t.Setenv("KDVD_API_TOKEN", "")

	cfg := testsupport.NewConfig(t, testsupport.WithOpticalDrive(""))
	cfg.Daemon.APIBind = freeAddr(t)
	testsupport.WriteDisc(t, cfg.Paths.DiscRoot, testsupport.Disc{
		Manifest: testsupport.ReferenceManifest,
		Streams:  []string{"movie.EVO4"},
	})

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, discRoot: cfg.Paths.DiscRoot}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
disc_root = %q

[daemon]
optical_drive = %q
api_bind = %q
api_token = %q
`,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.DiscRoot,
		cfg.Daemon.OpticalDrive,
		cfg.Daemon.APIBind,
		cfg.Daemon.APIToken,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
