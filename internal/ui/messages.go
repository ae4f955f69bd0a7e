package ui

import (
	"tagdeck/internal/query"
	"tagdeck/internal/selection"
)

// filesLoadedMsg carries a resolved file list. Gen is compared against the
// model's load generation so an outdated resolution never replaces a newer
// one.
type filesLoadedMsg struct {
	gen     uint64
	desc    query.Descriptor
	entries []query.Entry
	err     error
}

// tagsLoadedMsg carries a refreshed store-wide tag list.
type tagsLoadedMsg struct {
	tags []string
	err  error
}

// fetchDoneMsg carries a completed metadata+tags fetch for the selection.
type fetchDoneMsg struct {
	res selection.FetchResult
}

// mutateDoneMsg reports the outcome of a tag add or remove.
type mutateDoneMsg struct {
	op  selection.Op
	tag string
	err error
}

// initDoneMsg reports the outcome of creating a tag database.
type initDoneMsg struct {
	dir string
	err error
}

// dirChangedMsg reports a watched directory change.
type dirChangedMsg struct {
	path string
}
