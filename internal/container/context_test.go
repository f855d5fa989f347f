package container

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"kdvd/internal/stream"
	"kdvd/internal/testsupport"
)

func TestReferenceDiscScenario(t *testing.T) {
	root := testsupport.BuildDisc(t, testsupport.Disc{
		Manifest: testsupport.ReferenceManifest,
		Streams:  []string{"movie.EVO4"},
	})

	c, err := Open(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	handles, err := c.ListStreams()
	if err != nil {
		t.Fatalf("ListStreams: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("expected 2 streams, got %+v", handles)
	}
	if h := handles[0]; h.Filename != "movie.EVO8" || h.Format != stream.Tier8K || h.Width != 7680 || h.Height != 4320 || h.Available {
		t.Fatalf("unexpected 8k handle %+v", h)
	}
	if h := handles[1]; h.Filename != "movie.EVO4" || h.Format != stream.Tier4K || h.Width != 3840 || h.Height != 2160 || !h.Available {
		t.Fatalf("unexpected 4k handle %+v", h)
	}

	if _, err := c.Select(stream.Tier8K); !errors.Is(err, ErrNoAvailableStream) {
		t.Fatalf("expected ErrNoAvailableStream for 8k, got %v", err)
	} else if KindOf(err) != KindUnavailable || !IsUnavailable(err) {
		t.Fatalf("expected unavailable kind, got %q", KindOf(err))
	}

	h, err := c.Select(stream.Tier4K)
	if err != nil {
		t.Fatalf("Select 4k: %v", err)
	}
	if h.Filename != "movie.EVO4" {
		t.Fatalf("expected movie.EVO4, got %+v", h)
	}
	wantPath := filepath.Join(root, "8KDVD_TS", "STREAM", "movie.EVO4")
	if h.Path != wantPath {
		t.Fatalf("handle path = %q, want %q", h.Path, wantPath)
	}
	cur, ok := c.Current()
	if !ok || cur.Filename != "movie.EVO4" {
		t.Fatalf("Current = %+v,%v", cur, ok)
	}
}

func TestOpenMissingManifest(t *testing.T) {
	root := testsupport.BuildDisc(t, testsupport.Disc{Streams: []string{"movie.EVO8"}})

	c := New(Options{})
	err := c.Open(context.Background(), root)
	if !errors.Is(err, ErrManifestUnreadable) {
		t.Fatalf("expected ErrManifestUnreadable, got %v", err)
	}
	if KindOf(err) != KindManifest {
		t.Fatalf("expected manifest kind, got %q", KindOf(err))
	}
	if c.State() != StateUnopened {
		t.Fatalf("failed open must leave context unopened, got %s", c.State())
	}
	if _, err := c.ListStreams(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	if _, err := Open(context.Background(), "  ", Options{}); !errors.Is(err, ErrManifestUnreadable) {
		t.Fatalf("expected empty root to be unreadable, got %v", err)
	}
}

func TestOpenCancelledStaysUnopened(t *testing.T) {
	root := testsupport.BuildDisc(t, testsupport.Disc{
		Manifest: testsupport.ReferenceManifest,
		Streams:  []string{"movie.EVO8", "movie.EVO4"},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Options{})
	err := c.Open(ctx, root)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if KindOf(err) == KindUnavailable {
		t.Fatalf("cancellation must not look like a missing stream: %v", err)
	}
	if c.State() != StateUnopened {
		t.Fatalf("interrupted open must leave context unopened, got %s", c.State())
	}

	if err := c.Open(context.Background(), root); err != nil {
		t.Fatalf("retry Open: %v", err)
	}
	defer c.Close()
	h, err := c.Select(stream.Tier8K)
	if err != nil || h.Filename != "movie.EVO8" {
		t.Fatalf("expected 8k stream after retry, got %+v, %v", h, err)
	}
}

func TestOpenEmptyCatalogIsValid(t *testing.T) {
	root := testsupport.BuildDisc(t, testsupport.Disc{Manifest: []string{"#EXTM3U", "notes.txt"}})

	c, err := Open(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	handles, err := c.ListStreams()
	if err != nil || len(handles) != 0 {
		t.Fatalf("expected empty listing, got %+v, %v", handles, err)
	}
	if _, err := c.Select(stream.TierHD); !errors.Is(err, ErrNoAvailableStream) {
		t.Fatalf("expected ErrNoAvailableStream, got %v", err)
	}
}

func TestStateMachine(t *testing.T) {
	root := testsupport.BuildDisc(t, testsupport.Disc{
		Manifest: []string{"movie.EVOH"},
		Streams:  []string{"movie.EVOH"},
	})

	c := New(Options{})
	if c.State() != StateUnopened {
		t.Fatalf("new context state = %s", c.State())
	}
	if _, err := c.Select(stream.TierHD); !errors.Is(err, ErrInvalidState) || KindOf(err) != KindState {
		t.Fatalf("select before open: %v", err)
	}
	if _, ok := c.Current(); ok {
		t.Fatal("expected no selection before open")
	}

	if err := c.Open(context.Background(), root); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c.State() != StateOpened || c.Root() != filepath.Clean(root) || c.SessionID() == "" {
		t.Fatalf("unexpected opened context: state=%s root=%q session=%q", c.State(), c.Root(), c.SessionID())
	}
	if err := c.Open(context.Background(), root); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected reopen to fail with ErrInvalidState, got %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if c.State() != StateClosed {
		t.Fatalf("state after close = %s", c.State())
	}
	if c.Root() != "" || c.Layout() != (Layout{}) {
		t.Fatal("expected close to release derived paths")
	}
	if _, err := c.Select(stream.TierHD); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("select after close: %v", err)
	}
	if _, err := c.ListStreams(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("list after close: %v", err)
	}
	if err := c.Open(context.Background(), root); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("open after close: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	unopened := New(Options{})
	for i := 0; i < 2; i++ {
		if err := unopened.Close(); err != nil {
			t.Fatalf("close unopened #%d: %v", i, err)
		}
	}
	if unopened.State() != StateUnopened {
		t.Fatalf("close on unopened context changed state to %s", unopened.State())
	}

	root := testsupport.BuildDisc(t, testsupport.Disc{Manifest: testsupport.ReferenceManifest})
	c, err := Open(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := c.Close(); err != nil {
			t.Fatalf("close #%d: %v", i, err)
		}
	}
	if c.State() != StateClosed {
		t.Fatalf("state = %s", c.State())
	}
}

func TestOpenHonoursStreamCap(t *testing.T) {
	manifest := []string{"a.EVO8", "b.EVO4", "c.EVOH", "d.3D4", "e.EVO8"}
	root := testsupport.BuildDisc(t, testsupport.Disc{Manifest: manifest})

	capped, err := Open(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if handles, _ := capped.ListStreams(); len(handles) != 4 {
		t.Fatalf("expected reference cap of 4, got %d", len(handles))
	}

	lifted, err := Open(context.Background(), root, Options{MaxStreams: -1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if handles, _ := lifted.ListStreams(); len(handles) != 5 {
		t.Fatalf("expected lifted cap, got %d", len(handles))
	}

	two, err := Open(context.Background(), root, Options{MaxStreams: 2})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if handles, _ := two.ListStreams(); len(handles) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(handles))
	}
}

func TestSessionIDChangesPerOpen(t *testing.T) {
	root := testsupport.BuildDisc(t, testsupport.Disc{Manifest: testsupport.ReferenceManifest})
	a, err := Open(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, err := Open(context.Background(), root, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.SessionID() == b.SessionID() {
		t.Fatalf("expected distinct session IDs, got %q", a.SessionID())
	}
}

func TestConcurrentReadsAfterOpen(t *testing.T) {
	root := testsupport.BuildDisc(t, testsupport.Disc{
		Manifest: []string{"a.EVO8", "b.EVO4", "c.EVOH", "d.3D4"},
		Streams:  []string{"a.EVO8", "b.EVO4", "c.EVOH", "d.3D4"},
	})
	c, err := Open(context.Background(), root, Options{Workers: 3})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var wg sync.WaitGroup
	for _, f := range stream.Formats() {
		wg.Add(1)
		go func(f stream.Format) {
			defer wg.Done()
			if _, err := c.Select(f); err != nil {
				t.Errorf("Select %s: %v", f, err)
			}
			if _, err := c.ListStreams(); err != nil {
				t.Errorf("ListStreams: %v", err)
			}
		}(f)
	}
	wg.Wait()
	if _, ok := c.Current(); !ok {
		t.Fatal("expected a current selection")
	}
}

func TestLayoutFor(t *testing.T) {
	l := LayoutFor("/media/disc/")
	if l.Root != "/media/disc" {
		t.Fatalf("root = %q", l.Root)
	}
	if l.StreamDir != "/media/disc/8KDVD_TS/STREAM" {
		t.Fatalf("stream dir = %q", l.StreamDir)
	}
	if l.ManifestPath != "/media/disc/8KDVD_TS/PLAYLIST/main.m3u8" {
		t.Fatalf("manifest path = %q", l.ManifestPath)
	}
}
