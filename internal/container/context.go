package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"kdvd/internal/catalog"
	"kdvd/internal/logging"
	"kdvd/internal/manifest"
	"kdvd/internal/stream"
)

// State is the lifecycle position of a Context.
type State int

const (
	StateUnopened State = iota
	StateOpened
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpened:
		return "opened"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Options configures how a disc is opened.
type Options struct {
	Logger *slog.Logger
	// MaxStreams caps the catalog size. Zero keeps the reference cap of
	// manifest.DefaultLimit; a negative value lifts it.
	MaxStreams int
	// TierDefaultsOnly ignores bandwidth and resolution declared in the
	// manifest.
	TierDefaultsOnly bool
	// Workers bounds concurrent availability checks.
	Workers int
}

func (o Options) scanner(logger *slog.Logger) *manifest.Scanner {
	s := manifest.NewScanner(logger)
	switch {
	case o.MaxStreams < 0:
		s.Limit = 0
	case o.MaxStreams > 0:
		s.Limit = o.MaxStreams
	}
	s.TierDefaultsOnly = o.TierDefaultsOnly
	return s
}

// Context is the demuxer-facing view of one disc. It moves from Unopened to
// Opened on a successful Open and to Closed on Close. It is safe for
// concurrent use once opened.
type Context struct {
	mu sync.Mutex

	opts      Options
	base      *slog.Logger
	logger    *slog.Logger
	state     State
	layout    Layout
	catalog   *catalog.Catalog
	sessionID string
}

// New returns an unopened context.
func New(opts Options) *Context {
	base := logging.NewComponentLogger(opts.Logger, "container")
	return &Context{
		opts:   opts,
		base:   base,
		logger: base,
		state:  StateUnopened,
	}
}

// Open constructs a context and opens root.
func Open(ctx context.Context, root string, opts Options) (*Context, error) {
	c := New(opts)
	if err := c.Open(ctx, root); err != nil {
		return nil, err
	}
	return c, nil
}

// Open reads the manifest under root, catalogues its streams and checks which
// stream files are present. A disc with no available streams still opens;
// selection fails later. On manifest failure or when ctx ends before every
// stream is checked, the context stays Unopened.
func (c *Context) Open(ctx context.Context, root string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateUnopened {
		return stateError("open", c.state)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(root) == "" {
		return &Error{Op: "open", Kind: KindManifest, Err: fmt.Errorf("%w: disc root is empty", ErrManifestUnreadable)}
	}

	layout := LayoutFor(root)
	sessionID := uuid.NewString()
	logger := c.base.With(
		logging.String(logging.FieldSessionID, sessionID),
		logging.String(logging.FieldDiscRoot, layout.Root),
	)

	descriptors, err := c.opts.scanner(logger).Parse(layout.ManifestPath)
	if err != nil {
		logging.WarnWithContext(logger, "manifest unreadable", "manifest_unreadable",
			logging.String("manifest_path", layout.ManifestPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the disc is mounted and 8KDVD_TS/PLAYLIST/main.m3u8 is readable"),
			logging.String(logging.FieldImpact, "disc cannot be played through the catalog"),
		)
		return &Error{Op: "open", Kind: KindManifest, Err: fmt.Errorf("%w: %w", ErrManifestUnreadable, err)}
	}

	cat := catalog.New(logger)
	if c.opts.Workers > 0 {
		cat.Workers = c.opts.Workers
	}
	cat.Ingest(descriptors)
	cat.CheckAvailability(ctx, layout.StreamDir)
	if err := ctx.Err(); err != nil {
		logger.Info("disc open interrupted",
			logging.String(logging.FieldEventType, "disc_open_interrupted"),
			logging.Error(err))
		return &Error{Op: "open", Err: fmt.Errorf("availability check interrupted: %w", err)}
	}

	c.layout = layout
	c.catalog = cat
	c.sessionID = sessionID
	c.logger = logger
	c.state = StateOpened

	available := 0
	for _, d := range cat.Descriptors() {
		if d.Available {
			available++
		}
	}
	logger.Info("disc opened",
		logging.String(logging.FieldEventType, "disc_opened"),
		logging.Int("streams", cat.Len()),
		logging.Int("available", available))
	return nil
}

// Select picks the first available stream of format in manifest order and
// records it as the current selection. A failed selection keeps the previous
// one.
func (c *Context) Select(format stream.Format) (stream.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpened {
		return stream.Handle{}, stateError("select", c.state)
	}
	d, err := c.catalog.Select(format)
	if err != nil {
		c.logger.Info("stream unavailable",
			logging.String(logging.FieldEventType, "stream_unavailable"),
			logging.String("format", format.String()))
		return stream.Handle{}, &Error{Op: "select", Kind: KindUnavailable, Err: err}
	}
	c.logger.Info("stream selected",
		logging.String(logging.FieldEventType, "stream_selected"),
		logging.String("format", format.String()),
		logging.String("filename", d.Filename))
	return stream.HandleFor(d, c.layout.StreamDir), nil
}

// ListStreams returns a snapshot of every catalogued stream in manifest order.
func (c *Context) ListStreams() ([]stream.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpened {
		return nil, stateError("list streams", c.state)
	}
	descriptors := c.catalog.Descriptors()
	out := make([]stream.Handle, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, stream.HandleFor(d, c.layout.StreamDir))
	}
	return out, nil
}

// Descriptors returns the catalogued descriptors.
func (c *Context) Descriptors() ([]stream.Descriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpened {
		return nil, stateError("descriptors", c.state)
	}
	return c.catalog.Descriptors(), nil
}

// Summary reports per-tier totals.
func (c *Context) Summary() ([]catalog.FormatSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpened {
		return nil, stateError("summary", c.state)
	}
	return c.catalog.Summary(), nil
}

// Current returns the handle recorded by the last successful Select.
func (c *Context) Current() (stream.Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpened {
		return stream.Handle{}, false
	}
	d, ok := c.catalog.Current()
	if !ok {
		return stream.Handle{}, false
	}
	return stream.HandleFor(d, c.layout.StreamDir), true
}

// Close releases the catalog and derived paths. It is a no-op on a context
// that was never opened or is already closed.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpened {
		return nil
	}
	c.catalog.Reset()
	c.catalog = nil
	c.layout = Layout{}
	c.state = StateClosed
	c.logger.Debug("disc closed", logging.String(logging.FieldEventType, "disc_closed"))
	c.logger = c.base
	return nil
}

// State reports the lifecycle state.
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Root returns the disc root, or "" when not opened.
func (c *Context) Root() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.Root
}

// Layout returns the derived disc paths, zero when not opened.
func (c *Context) Layout() Layout {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

// SessionID identifies the most recent Open.
func (c *Context) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// IsUnavailable reports whether err is a recoverable selection failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrNoAvailableStream)
}
