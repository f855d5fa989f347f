package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"kdvd/internal/config"
	"kdvd/internal/deps"
	"kdvd/internal/disc"
	"kdvd/internal/disc/fingerprint"
	"kdvd/internal/history"
	"kdvd/internal/logging"
	"kdvd/internal/metrics"
)

// Daemon watches the optical drive, catalogues inserted 8KDVD discs into the
// scan history and serves the HTTP API. A flock on the state directory
// enforces a single instance.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *history.Store
	metrics *metrics.Metrics

	lockPath string
	lock     *flock.Flock

	monitor *netlinkMonitor
	api     *apiServer

	// Device hooks; swapped in tests.
	waitForDrive func(ctx context.Context, device string) error
	mount        func(ctx context.Context, device string) (string, bool, error)
	unmount      func(ctx context.Context, device string)
	readLabel    func(ctx context.Context, device string) string

	// scanMu serializes disc handling so a burst of udev events catalogues a
	// disc once at a time.
	scanMu sync.Mutex

	running atomic.Bool
	paused  atomic.Bool
	lastMu  sync.Mutex
	last    *history.Entry
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool           `json:"running"`
	Paused         bool           `json:"paused"`
	WatcherRunning bool           `json:"watcher_running"`
	PID            int            `json:"pid"`
	OpticalDrive   string         `json:"optical_drive,omitempty"`
	HistoryPath    string         `json:"history_path"`
	LockFilePath   string         `json:"lock_file_path"`
	Discs          int            `json:"discs"`
	LastDisc       *history.Entry `json:"last_disc,omitempty"`
	Dependencies   []deps.Status  `json:"dependencies,omitempty"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger, m *metrics.Metrics) (*Daemon, error) {
	if cfg == nil || store == nil || m == nil {
		return nil, errors.New("daemon requires config, history store, and metrics")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "daemon")

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		metrics:  m,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	wait := time.Duration(cfg.Daemon.MountWaitSeconds) * time.Second
	d.waitForDrive = func(ctx context.Context, device string) error {
		_, err := disc.WaitForReady(ctx, device, wait, time.Second)
		return err
	}
	d.mount = func(ctx context.Context, device string) (string, bool, error) {
		return fingerprint.EnsureMount(ctx, logger, device)
	}
	d.unmount = func(ctx context.Context, device string) {
		fingerprint.Unmount(ctx, logger, device)
	}
	d.readLabel = func(ctx context.Context, device string) string {
		label, err := disc.ReadLabel(ctx, device, 5*time.Second)
		if err != nil {
			logger.Debug("disc label unavailable", logging.String("device", device), logging.Error(err))
			return ""
		}
		return label
	}

	d.monitor = newNetlinkMonitor(cfg.Daemon.OpticalDrive, logger, d.HandleDevice, d.paused.Load)
	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the drive watcher and API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another kdvdd instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx, d.cancel = nil, nil
		return err
	}
	if err := d.monitor.Start(d.ctx); err != nil {
		d.api.stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx, d.cancel = nil, nil
		return fmt.Errorf("start drive monitor: %w", err)
	}
	d.metrics.SetWatcherRunning(d.monitor.Running())
	d.refreshHistoryGauge(d.ctx)
	if d.monitor != nil {
		d.warnMissingDependencies()
	}

	d.running.Store(true)
	d.logger.Info("kdvd daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop stops the watcher and API and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.monitor.Stop()
	d.api.stop()
	d.metrics.SetWatcherRunning(false)
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no kdvdd is running"),
			logging.String(logging.FieldImpact, "next daemon start may report a running instance"))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("kdvd daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// PauseDetection makes the watcher ignore insertion events.
func (d *Daemon) PauseDetection() {
	if !d.paused.Swap(true) {
		d.logger.Info("disc detection paused", logging.String(logging.FieldEventType, "detection_paused"))
	}
}

// ResumeDetection re-enables insertion events.
func (d *Daemon) ResumeDetection() {
	if d.paused.Swap(false) {
		d.logger.Info("disc detection resumed", logging.String(logging.FieldEventType, "detection_resumed"))
	}
}

// Status reports runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		Paused:         d.paused.Load(),
		WatcherRunning: d.monitor.Running(),
		PID:            os.Getpid(),
		OpticalDrive:   d.cfg.Daemon.OpticalDrive,
		HistoryPath:    d.store.Path(),
		LockFilePath:   d.lockPath,
	}
	if n, err := d.store.Count(ctx); err == nil {
		status.Discs = n
	}
	d.lastMu.Lock()
	status.LastDisc = d.last
	d.lastMu.Unlock()
	if d.cfg.Daemon.OpticalDrive != "" {
		status.Dependencies = deps.CheckBinaries(deps.DriveRequirements())
	}
	return status
}

func (d *Daemon) warnMissingDependencies() {
	for _, missing := range deps.Missing(deps.CheckBinaries(deps.DriveRequirements())) {
		logging.WarnWithContext(d.logger, "drive dependency unavailable", "dependency_missing",
			logging.String("dependency", missing.Name),
			logging.String("detail", missing.Detail),
			logging.String(logging.FieldErrorHint, "install "+missing.Command+" or catalogue mounted discs via the API"),
			logging.String(logging.FieldImpact, "inserted discs may not be mounted automatically"))
	}
}

// History exposes the scan history.
func (d *Daemon) History() *history.Store {
	return d.store
}

// Metrics exposes the collectors.
func (d *Daemon) Metrics() *metrics.Metrics {
	return d.metrics
}

func (d *Daemon) refreshHistoryGauge(ctx context.Context) {
	if n, err := d.store.Count(ctx); err == nil {
		d.metrics.SetHistoryEntries(n)
	}
}
