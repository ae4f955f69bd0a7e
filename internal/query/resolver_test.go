package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// fakeStore serves canned tag data keyed by expression.
type fakeStore struct {
	tags     []string
	files    map[string][]string
	untagged []string
	calls    map[string]int
}

func (f *fakeStore) AllTags(context.Context, string) ([]string, error) {
	return f.tags, nil
}

func (f *fakeStore) Files(_ context.Context, expr, _ string) ([]string, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[expr]++
	return f.files[expr], nil
}

func (f *fakeStore) Untagged(context.Context, string) ([]string, error) {
	return f.untagged, nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func names(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestResolveDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "Zed.txt", "apple.txt", "Beta.txt", ".hidden")
	if err := os.MkdirAll(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ".cache"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(&fakeStore{})
	entries, err := r.Resolve(context.Background(), DirectoryOf(dir), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Hidden entries and subdirectories excluded, case-insensitive order.
	expected := []string{"apple.txt", "Beta.txt", "Zed.txt"}
	if !equalStrings(names(entries), expected) {
		t.Errorf("expected %v, got %v", expected, names(entries))
	}
	for _, e := range entries {
		if e.Size != 4 {
			t.Errorf("%s: expected stat-derived size 4, got %d", e.Name, e.Size)
		}
		if e.ModTime.IsZero() {
			t.Errorf("%s: expected stat-derived mod time", e.Name)
		}
	}
}

func TestResolveTagQueryExistenceFiltered(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "real.txt")

	store := &fakeStore{files: map[string][]string{
		"red": {"real.txt", "ghost.txt"},
	}}
	r := NewResolver(store)

	entries, err := r.Resolve(context.Background(), TagQueryOf("red"), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalStrings(names(entries), []string{"real.txt"}) {
		t.Errorf("missing-on-disk path should be dropped, got %v", names(entries))
	}
	if entries[0].Path != filepath.Join(dir, "real.txt") {
		t.Errorf("relative store path should resolve against scope, got %q", entries[0].Path)
	}
}

func TestResolveAllTaggedUnion(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt", "c.txt")

	store := &fakeStore{
		tags: []string{"blue", "red"},
		files: map[string][]string{
			"red":  {"a.txt", "b.txt"},
			"blue": {"b.txt", "c.txt", "gone.txt"},
		},
	}
	r := NewResolver(store)

	entries, err := r.Resolve(context.Background(), Descriptor{Kind: AllTagged}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Deduplicated union, existence filtered, sorted by path.
	expected := []string{"a.txt", "b.txt", "c.txt"}
	if !equalStrings(names(entries), expected) {
		t.Errorf("expected %v, got %v", expected, names(entries))
	}

	// One store invocation per known tag.
	for _, tag := range store.tags {
		if store.calls[tag] != 1 {
			t.Errorf("expected exactly one query for %q, got %d", tag, store.calls[tag])
		}
	}
}

func TestResolveUntagged(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "loose.txt")

	store := &fakeStore{untagged: []string{"loose.txt", "missing.txt"}}
	r := NewResolver(store)

	entries, err := r.Resolve(context.Background(), Descriptor{Kind: Untagged}, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalStrings(names(entries), []string{"loose.txt"}) {
		t.Errorf("expected [loose.txt], got %v", names(entries))
	}
}

func TestListDirSkipsNestedEntries(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "top.txt", "sub/nested.txt")

	entries, err := ListDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawNested bool
	for _, e := range entries {
		if e.Name == "nested.txt" {
			sawNested = true
		}
	}
	if sawNested {
		t.Error("ListDir must not descend into subdirectories")
	}
}
