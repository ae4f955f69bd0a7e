package store

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d := NewDB()
	if err := d.Open(filepath.Join(t.TempDir(), "tagdeck.db")); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestSettingRoundTrip(t *testing.T) {
	d := openTestDB(t)

	if _, ok := d.Setting(KeyTmsuPath); ok {
		t.Error("expected no value before set")
	}

	d.SetSetting(KeyTmsuPath, "/opt/tmsu")
	got, ok := d.Setting(KeyTmsuPath)
	if !ok || got != "/opt/tmsu" {
		t.Errorf("expected /opt/tmsu, got %q ok=%v", got, ok)
	}

	// Upsert replaces.
	d.SetSetting(KeyTmsuPath, "/usr/bin/tmsu")
	if got, _ := d.Setting(KeyTmsuPath); got != "/usr/bin/tmsu" {
		t.Errorf("expected replacement, got %q", got)
	}
}

func TestQueryHistoryRecencyOrder(t *testing.T) {
	d := openTestDB(t)

	d.AddQuery("red")
	d.AddQuery("blue and green")
	d.AddQuery("red") // refresh recency

	got := d.RecentQueries(10)
	if len(got) != 2 {
		t.Fatalf("expected 2 distinct queries, got %v", got)
	}
	if got[0] != "red" {
		t.Errorf("most recently used query should come first, got %v", got)
	}
}

func TestUnopenedStoreIsInert(t *testing.T) {
	d := NewDB()

	d.SetSetting("k", "v")
	d.AddQuery("x")
	if _, ok := d.Setting("k"); ok {
		t.Error("unopened store must report no settings")
	}
	if qs := d.RecentQueries(5); qs != nil {
		t.Errorf("unopened store must report no history, got %v", qs)
	}
}
