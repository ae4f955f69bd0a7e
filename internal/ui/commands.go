package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"tagdeck/internal/query"
	"tagdeck/internal/selection"
	"tagdeck/internal/watch"
)

// loadFilesCmd bumps the load generation and resolves d off the loop. Results
// from an older generation are discarded when they arrive.
func (m *Model) loadFilesCmd(d query.Descriptor) tea.Cmd {
	m.loadGen++
	gen := m.loadGen
	scope := m.scope
	resolver := m.deps.Resolver
	return func() tea.Msg {
		entries, err := resolver.Resolve(context.Background(), d, scope)
		return filesLoadedMsg{gen: gen, desc: d, entries: entries, err: err}
	}
}

func (m *Model) loadTagsCmd() tea.Cmd {
	scope := m.scope
	tags := m.deps.Tags
	return func() tea.Msg {
		list, err := tags.AllTags(context.Background(), scope)
		return tagsLoadedMsg{tags: list, err: err}
	}
}

func fetchCmd(fetch selection.Fetch) tea.Cmd {
	return func() tea.Msg {
		return fetchDoneMsg{res: fetch(context.Background())}
	}
}

func (m *Model) mutateCmd(op selection.Op, tag string) tea.Cmd {
	scope := m.scope
	sel := m.deps.Selection
	return func() tea.Msg {
		err := sel.MutateTag(context.Background(), op, tag, scope)
		return mutateDoneMsg{op: op, tag: tag, err: err}
	}
}

func (m *Model) initStoreCmd() tea.Cmd {
	dir := m.scope
	tags := m.deps.Tags
	return func() tea.Msg {
		return initDoneMsg{dir: dir, err: tags.Init(context.Background(), dir)}
	}
}

// waitForDir blocks on the watcher's notification channel and re-arms after
// every delivery.
func waitForDir(w *watch.DirectoryWatcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		path, ok := <-w.Notify()
		if !ok {
			return nil
		}
		return dirChangedMsg{path: path}
	}
}
