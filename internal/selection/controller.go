// Package selection owns the currently selected file and the single-flight
// fetch of its metadata and tags. Every selection change bumps a generation
// counter; a completed fetch is applied only if its generation is still
// current, so rapid selection changes can never publish stale results.
package selection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"tagdeck/internal/exiftool"
	"tagdeck/internal/query"
)

// ErrNoSelection is returned by tag mutations when nothing is selected.
var ErrNoSelection = errors.New("no file selected")

// State is the controller's fetch lifecycle.
type State int

const (
	// Idle means no selection.
	Idle State = iota
	// Fetching means a metadata+tags fetch is in flight for the selection.
	Fetching
	// Ready means the latest fetch has been applied.
	Ready
)

// MetadataFetcher is the metadata side of a fetch.
type MetadataFetcher interface {
	Fetch(ctx context.Context, path string) exiftool.Metadata
}

// TagStore is the tag side of fetches and mutations.
type TagStore interface {
	FileTags(ctx context.Context, path, dir string) ([]string, error)
	Tag(ctx context.Context, path, rawTag, dir string) error
	Untag(ctx context.Context, path, tag, dir string) error
}

// Op names a tag mutation.
type Op int

const (
	// OpAdd attaches a tag.
	OpAdd Op = iota
	// OpRemove detaches a tag.
	OpRemove
)

// FetchResult carries a completed fetch back to the event loop. Gen is the
// generation captured when the fetch started.
type FetchResult struct {
	Gen  uint64
	Path string
	Meta exiftool.Metadata
	Tags []string
}

// Fetch is a deferred metadata+tags fetch, run off the event loop.
type Fetch func(ctx context.Context) FetchResult

// Controller tracks the selected file and serializes fetches and tag
// mutations against it.
type Controller struct {
	meta MetadataFetcher
	tags TagStore

	gen atomic.Uint64

	mu      sync.Mutex
	current *query.Entry
	state   State
}

// NewController returns an idle controller.
func NewController(meta MetadataFetcher, tags TagStore) *Controller {
	return &Controller{meta: meta, tags: tags}
}

// Select makes entry the current selection and returns the fetch for it.
// The previous in-flight fetch, if any, is not interrupted; its result is
// discarded by Apply because its generation is now stale.
func (c *Controller) Select(entry *query.Entry, scope string) Fetch {
	gen := c.gen.Add(1)

	c.mu.Lock()
	c.current = entry
	c.state = Fetching
	c.mu.Unlock()

	return c.fetch(gen, entry.Path, scope)
}

// Refetch returns a fresh fetch for the current selection, or false when
// nothing is selected. Used after a successful tag mutation.
func (c *Controller) Refetch(scope string) (Fetch, bool) {
	c.mu.Lock()
	entry := c.current
	if entry == nil {
		c.mu.Unlock()
		return nil, false
	}
	c.state = Fetching
	c.mu.Unlock()

	gen := c.gen.Add(1)
	return c.fetch(gen, entry.Path, scope), true
}

func (c *Controller) fetch(gen uint64, path, scope string) Fetch {
	return func(ctx context.Context) FetchResult {
		meta := c.meta.Fetch(ctx, path)
		tags, err := c.tags.FileTags(ctx, path, scope)
		if err != nil {
			zap.S().Debugw("file tag fetch failed", "path", path, "err", err)
			tags = nil
		}
		return FetchResult{Gen: gen, Path: path, Meta: meta, Tags: tags}
	}
}

// Apply publishes a fetch result. It returns false, leaving all state
// untouched, when the result's generation has been superseded. On success
// the selection's tag list is replaced wholesale.
func (c *Controller) Apply(res FetchResult) bool {
	if res.Gen != c.gen.Load() {
		zap.S().Debugw("discarding stale fetch", "path", res.Path, "gen", res.Gen)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.current.Path != res.Path {
		return false
	}
	c.current.Tags = res.Tags
	c.state = Ready
	return true
}

// Clear drops the selection. Any in-flight fetch becomes stale.
func (c *Controller) Clear() {
	c.gen.Add(1)
	c.mu.Lock()
	c.current = nil
	c.state = Idle
	c.mu.Unlock()
}

// Current returns the selected entry, nil when idle.
func (c *Controller) Current() *query.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns the fetch lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MutateTag applies a tag mutation to the current selection. It fails with
// ErrNoSelection when idle and otherwise passes the store's verdict through
// unchanged; on failure no cached state is touched. The caller is expected
// to follow a success with Refetch and a full tag-cache rebuild, since the
// mutation may have created or retired a tag name store-wide.
func (c *Controller) MutateTag(ctx context.Context, op Op, tag, scope string) error {
	c.mu.Lock()
	entry := c.current
	c.mu.Unlock()
	if entry == nil {
		return ErrNoSelection
	}

	switch op {
	case OpAdd:
		return c.tags.Tag(ctx, entry.Path, tag, scope)
	case OpRemove:
		return c.tags.Untag(ctx, entry.Path, tag, scope)
	default:
		return errors.New("unknown tag operation")
	}
}
