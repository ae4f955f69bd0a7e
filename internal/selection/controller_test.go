package selection

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"tagdeck/internal/exiftool"
	"tagdeck/internal/query"
)

type fakeMeta struct{}

func (fakeMeta) Fetch(_ context.Context, path string) exiftool.Metadata {
	return exiftool.Metadata{Fields: map[string]any{"SourceFile": path}}
}

// fakeTags is an in-memory tag store tracking per-file tag sets.
type fakeTags struct {
	byFile  map[string][]string
	failAdd error
}

func newFakeTags() *fakeTags {
	return &fakeTags{byFile: make(map[string][]string)}
}

func (f *fakeTags) FileTags(_ context.Context, path, _ string) ([]string, error) {
	return append([]string(nil), f.byFile[path]...), nil
}

func (f *fakeTags) Tag(_ context.Context, path, rawTag, _ string) error {
	if f.failAdd != nil {
		return f.failAdd
	}
	f.byFile[path] = append(f.byFile[path], rawTag)
	return nil
}

func (f *fakeTags) Untag(_ context.Context, path, tag, _ string) error {
	var kept []string
	for _, t := range f.byFile[path] {
		if t != tag {
			kept = append(kept, t)
		}
	}
	f.byFile[path] = kept
	return nil
}

// allTags mirrors the store-wide tag cache rebuild.
func (f *fakeTags) allTags() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tags := range f.byFile {
		for _, t := range tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out
}

func TestOnlyLatestSelectionApplies(t *testing.T) {
	tags := newFakeTags()
	tags.byFile["/f1"] = []string{"one"}
	tags.byFile["/f2"] = []string{"two"}
	tags.byFile["/f3"] = []string{"three"}
	c := NewController(fakeMeta{}, tags)

	e1 := &query.Entry{Name: "f1", Path: "/f1"}
	e2 := &query.Entry{Name: "f2", Path: "/f2"}
	e3 := &query.Entry{Name: "f3", Path: "/f3"}

	ctx := context.Background()
	f1 := c.Select(e1, "/")
	f2 := c.Select(e2, "/")
	f3 := c.Select(e3, "/")

	r1, r2, r3 := f1(ctx), f2(ctx), f3(ctx)

	// Completion order scrambled: the last selection still wins and the
	// superseded results are discarded.
	if c.Apply(r2) {
		t.Error("superseded fetch r2 must be discarded")
	}
	if !c.Apply(r3) {
		t.Error("latest fetch r3 must apply")
	}
	if c.Apply(r1) {
		t.Error("late-arriving stale fetch r1 must be discarded")
	}

	if c.Current() != e3 {
		t.Fatal("selection should be the last selected entry")
	}
	if !reflect.DeepEqual(e3.Tags, []string{"three"}) {
		t.Errorf("expected tags for f3, got %v", e3.Tags)
	}
	if e2.Tags != nil {
		t.Errorf("discarded fetch must not touch entry state, got %v", e2.Tags)
	}
	if c.State() != Ready {
		t.Errorf("expected Ready, got %v", c.State())
	}
}

func TestClearInvalidatesInFlightFetch(t *testing.T) {
	c := NewController(fakeMeta{}, newFakeTags())
	e := &query.Entry{Name: "f", Path: "/f"}

	fetch := c.Select(e, "/")
	c.Clear()

	if c.Apply(fetch(context.Background())) {
		t.Error("fetch started before Clear must be discarded")
	}
	if c.State() != Idle {
		t.Errorf("expected Idle after Clear, got %v", c.State())
	}
	if c.Current() != nil {
		t.Error("expected no selection after Clear")
	}
}

func TestStateTransitions(t *testing.T) {
	c := NewController(fakeMeta{}, newFakeTags())
	if c.State() != Idle {
		t.Fatalf("new controller should be Idle, got %v", c.State())
	}

	e := &query.Entry{Name: "f", Path: "/f"}
	fetch := c.Select(e, "/")
	if c.State() != Fetching {
		t.Errorf("expected Fetching after Select, got %v", c.State())
	}
	c.Apply(fetch(context.Background()))
	if c.State() != Ready {
		t.Errorf("expected Ready after Apply, got %v", c.State())
	}
}

func TestMutateTagRequiresSelection(t *testing.T) {
	tags := newFakeTags()
	c := NewController(fakeMeta{}, tags)

	err := c.MutateTag(context.Background(), OpAdd, "red", "/")
	if !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if len(tags.byFile) != 0 {
		t.Error("failed mutation must not touch the store")
	}
}

func TestMutateTagFailureLeavesStateUntouched(t *testing.T) {
	tags := newFakeTags()
	tags.byFile["/f"] = []string{"keep"}
	tags.failAdd = errors.New("store rejected it")
	c := NewController(fakeMeta{}, tags)

	e := &query.Entry{Name: "f", Path: "/f"}
	c.Apply(c.Select(e, "/")(context.Background()))

	if err := c.MutateTag(context.Background(), OpAdd, "new", "/"); err == nil {
		t.Fatal("expected mutation error")
	}
	if !reflect.DeepEqual(tags.byFile["/f"], []string{"keep"}) {
		t.Errorf("store state changed on failed mutation: %v", tags.byFile["/f"])
	}
	if !reflect.DeepEqual(e.Tags, []string{"keep"}) {
		t.Errorf("cached tags changed on failed mutation: %v", e.Tags)
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	tags := newFakeTags()
	tags.byFile["/a"] = []string{"red"}
	tags.byFile["/b"] = []string{"blue"}
	c := NewController(fakeMeta{}, tags)
	ctx := context.Background()

	e := &query.Entry{Name: "a", Path: "/a"}
	c.Apply(c.Select(e, "/")(ctx))

	before := append([]string(nil), e.Tags...)
	cacheBefore := tags.allTags()

	if err := c.MutateTag(ctx, OpAdd, "temp", "/"); err != nil {
		t.Fatal(err)
	}
	fetch, ok := c.Refetch("/")
	if !ok {
		t.Fatal("expected refetch after mutation")
	}
	c.Apply(fetch(ctx))

	// "temp" held exclusively by /a: it must be visible mid-flight...
	midCache := tags.allTags()
	found := false
	for _, tag := range midCache {
		if tag == "temp" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected temp in cache after add, got %v", midCache)
	}

	if err := c.MutateTag(ctx, OpRemove, "temp", "/"); err != nil {
		t.Fatal(err)
	}
	fetch, _ = c.Refetch("/")
	c.Apply(fetch(ctx))

	// ...and gone again after removal, restoring both the file's tag list
	// and the store-wide cache.
	if !reflect.DeepEqual(e.Tags, before) {
		t.Errorf("tag list not restored: before=%v after=%v", before, e.Tags)
	}
	if !reflect.DeepEqual(tags.allTags(), cacheBefore) {
		t.Errorf("tag cache not restored: before=%v after=%v", cacheBefore, tags.allTags())
	}
}

func TestRefetchWithoutSelection(t *testing.T) {
	c := NewController(fakeMeta{}, newFakeTags())
	if _, ok := c.Refetch("/"); ok {
		t.Error("Refetch must report false with no selection")
	}
}
