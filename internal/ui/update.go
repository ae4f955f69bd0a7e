package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"tagdeck/internal/exiftool"
	"tagdeck/internal/nav"
	"tagdeck/internal/query"
	"tagdeck/internal/selection"
	"tagdeck/internal/store"
	"tagdeck/internal/tmsu"
)

// Update is the single mutation point for all model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		_, mid, _ := m.paneWidths()
		m.table.SetColumns(fileColumns(mid - 4))
		m.table.SetHeight(max(m.height-6, 3))
		return m, nil

	case filesLoadedMsg:
		return m.onFilesLoaded(msg)

	case tagsLoadedMsg:
		if msg.err != nil {
			m.setStatus("Could not load tags: "+msg.err.Error(), true)
			return m, nil
		}
		m.tags = msg.tags
		if m.tagCursor >= len(m.tags) {
			m.tagCursor = max(len(m.tags)-1, 0)
		}
		return m, nil

	case fetchDoneMsg:
		if m.deps.Selection.Apply(msg.res) {
			m.meta = msg.res.Meta
			if cur := m.deps.Selection.Current(); cur != nil && m.chipCursor >= len(cur.Tags) {
				m.chipCursor = max(len(cur.Tags)-1, 0)
			}
		}
		return m, nil

	case mutateDoneMsg:
		return m.onMutateDone(msg)

	case initDoneMsg:
		if msg.err != nil {
			m.setStatus("Could not initialize tag database: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus("Initialized tag database", false)
		return m, m.loadTagsCmd()

	case dirChangedMsg:
		cmds := []tea.Cmd{waitForDir(m.deps.Watcher)}
		if m.hasView && m.current.Kind == query.Directory && m.current.Dir == msg.path {
			zap.S().Debugw("scope changed on disk, refreshing", "dir", msg.path)
			cmds = append(cmds, m.loadFilesCmd(m.current))
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		return m.onKey(msg)
	}

	return m, nil
}

func (m *Model) onFilesLoaded(msg filesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.loadGen {
		return m, nil
	}
	if msg.err != nil {
		m.setStatus(loadErrorText(msg), true)
		return m, nil
	}

	m.files = msg.entries
	rows := make([]table.Row, len(m.files))
	for i, e := range m.files {
		rows[i] = table.Row{e.Name, filepath.Dir(e.Path), FormatSize(e.Size), FormatTime(e.ModTime)}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
	m.setStatus(loadedStatusText(msg.desc, len(m.files)), false)
	return m, m.selectCurrentFile()
}

func loadErrorText(msg filesLoadedMsg) string {
	if msg.desc.Kind == query.Directory && strings.Contains(msg.err.Error(), "permission denied") {
		return "Permission denied: " + msg.desc.Dir
	}
	return "Load failed: " + msg.err.Error()
}

func loadedStatusText(d query.Descriptor, n int) string {
	switch d.Kind {
	case query.Directory:
		return fmt.Sprintf("Showing %d files from %s", n, d.Dir)
	case query.TagQuery:
		return fmt.Sprintf("Query %q: %d files", d.Expr, n)
	case query.AllTagged:
		return fmt.Sprintf("All tagged files: %d files", n)
	case query.Untagged:
		return fmt.Sprintf("Untagged files: %d files", n)
	default:
		return fmt.Sprintf("%d files", n)
	}
}

func (m *Model) onMutateDone(msg mutateDoneMsg) (tea.Model, tea.Cmd) {
	verb := "add"
	if msg.op == selection.OpRemove {
		verb = "remove"
	}
	if msg.err != nil {
		m.setStatus(fmt.Sprintf("Failed to %s tag: %v", verb, msg.err), true)
		return m, nil
	}

	name := ""
	if cur := m.deps.Selection.Current(); cur != nil {
		name = cur.Name
	}
	if msg.op == selection.OpAdd {
		m.setStatus(fmt.Sprintf("Added tag %q to %s", tmsu.NormalizeTag(msg.tag), name), false)
	} else {
		m.setStatus(fmt.Sprintf("Removed tag %q from %s", msg.tag, name), false)
	}

	// The mutation may have created or retired a tag store-wide, so both the
	// selection and the tag list are reloaded.
	cmds := []tea.Cmd{m.loadTagsCmd()}
	if fetch, ok := m.deps.Selection.Refetch(m.scope); ok {
		cmds = append(cmds, fetchCmd(fetch))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch m.prompt {
	case promptTool:
		return m.onToolPromptKey(msg)
	case promptQuery:
		return m.onQueryPromptKey(msg)
	}

	m.setStatus("", false)

	switch {
	case key.Matches(msg, keys.Quit):
		// A bare "q" still types into the tag input.
		if m.focus != focusEditor || msg.String() != "q" {
			return m, tea.Quit
		}
	case key.Matches(msg, keys.NextPane):
		return m, m.cycleFocus(1)
	case key.Matches(msg, keys.PrevPane):
		return m, m.cycleFocus(-1)
	case key.Matches(msg, keys.Refresh):
		return m, m.refresh()
	case key.Matches(msg, keys.InitStore):
		return m, m.initStoreCmd()
	}

	if m.focus != focusEditor {
		switch {
		case key.Matches(msg, keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, keys.Query):
			m.openQueryPrompt()
			return m, textinput.Blink
		}
	}

	switch m.focus {
	case focusTree:
		return m.onTreeKey(msg)
	case focusTags:
		return m.onTagListKey(msg)
	case focusFiles:
		return m.onFilesKey(msg)
	case focusEditor:
		return m.onEditorKey(msg)
	}
	return m, nil
}

func (m *Model) cycleFocus(dir int) tea.Cmd {
	m.focus = focusArea((int(m.focus) + dir + 4) % 4)

	m.table.Blur()
	m.tagInput.Blur()
	switch m.focus {
	case focusFiles:
		m.table.Focus()
	case focusEditor:
		m.tagInput.Focus()
		return textinput.Blink
	}
	return nil
}

// refresh re-resolves the current view and reloads the tag list.
func (m *Model) refresh() tea.Cmd {
	cmds := []tea.Cmd{m.loadTagsCmd()}
	if m.hasView {
		cmds = append(cmds, m.loadFilesCmd(m.current))
	}
	return tea.Batch(cmds...)
}

func (m *Model) onTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.deps.Tree.Visible()
	switch {
	case key.Matches(msg, keys.Up):
		if m.treeCursor > 0 {
			m.treeCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.treeCursor < len(visible)-1 {
			m.treeCursor++
		}
	case key.Matches(msg, keys.Collapse):
		if n := m.selectedTreeNode(); n != nil {
			m.deps.Tree.Collapse(n)
		}
	case key.Matches(msg, keys.Expand):
		if n := m.selectedTreeNode(); n != nil {
			m.deps.Tree.Expand(n)
		}
	case key.Matches(msg, keys.Enter):
		n := m.selectedTreeNode()
		if n == nil {
			return m, nil
		}
		if d, ok := n.Descriptor(); ok {
			if n.Kind == nav.KindDir {
				m.deps.Tree.Expand(n)
			}
			return m, m.openDescriptor(d)
		}
		m.deps.Tree.Toggle(n)
	}
	return m, nil
}

func (m *Model) onTagListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.tagCursor > 0 {
			m.tagCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.tagCursor < len(m.tags)-1 {
			m.tagCursor++
		}
	case key.Matches(msg, keys.Enter):
		if m.tagCursor < len(m.tags) {
			return m, m.openDescriptor(query.TagQueryOf(m.tags[m.tagCursor]))
		}
	}
	return m, nil
}

func (m *Model) onFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := m.table.Cursor()
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if m.table.Cursor() != prev {
		return m, tea.Batch(cmd, m.selectCurrentFile())
	}
	return m, cmd
}

func (m *Model) onEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cur := m.deps.Selection.Current()
	typing := m.tagInput.Value() != ""

	switch {
	case key.Matches(msg, keys.Enter):
		raw := m.tagInput.Value()
		if strings.TrimSpace(raw) == "" {
			return m, nil
		}
		m.tagInput.SetValue("")
		return m, m.mutateCmd(selection.OpAdd, raw)

	case !typing && key.Matches(msg, keys.Collapse):
		if m.chipCursor > 0 {
			m.chipCursor--
		}
		return m, nil

	case !typing && key.Matches(msg, keys.Expand):
		if cur != nil && m.chipCursor < len(cur.Tags)-1 {
			m.chipCursor++
		}
		return m, nil

	case !typing && key.Matches(msg, keys.RemoveChip):
		if cur != nil && m.chipCursor < len(cur.Tags) {
			return m, m.mutateCmd(selection.OpRemove, cur.Tags[m.chipCursor])
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tagInput, cmd = m.tagInput.Update(msg)
	return m, cmd
}

// openDescriptor makes d the current view. Opening a directory also moves
// the tag scope there, remembers it for the next session, and repoints the
// watcher.
func (m *Model) openDescriptor(d query.Descriptor) tea.Cmd {
	m.current = d
	m.hasView = true

	if d.Kind == query.Directory {
		m.scope = d.Dir
		m.deps.Store.SetSetting(store.KeyLastDir, d.Dir)
		if w := m.deps.Watcher; w != nil {
			w.UnwatchAll()
			if err := w.Watch(d.Dir); err != nil {
				zap.S().Warnw("watch failed", "dir", d.Dir, "err", err)
			}
		}
	}

	// The store may have changed between interactions, so every view open
	// rebuilds the tag list alongside the file load.
	return tea.Batch(m.loadTagsCmd(), m.loadFilesCmd(d))
}

// selectCurrentFile points the selection at the highlighted table row and
// starts its fetch. With no rows the selection is cleared.
func (m *Model) selectCurrentFile() tea.Cmd {
	e := m.selectedEntry()
	if e == nil {
		m.deps.Selection.Clear()
		m.meta = exiftool.Metadata{}
		m.chipCursor = 0
		return nil
	}
	m.meta = exiftool.Metadata{}
	m.chipCursor = 0
	return fetchCmd(m.deps.Selection.Select(e, m.scope))
}

func (m *Model) onToolPromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.setStatus(m.missingTools[0]+" left unconfigured", false)
		return m, m.advanceToolPrompt()
	case "enter":
		path := strings.TrimSpace(m.promptInput.Value())
		if path == "" {
			return m, m.advanceToolPrompt()
		}
		tool := m.missingTools[0]
		if err := m.configureTool(tool, path); err != nil {
			m.setStatus("Invalid "+tool+" path: "+path, true)
			return m, nil
		}
		m.setStatus(tool+" path configured", false)
		return m, m.advanceToolPrompt()
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)
	return m, cmd
}

func (m *Model) configureTool(tool, path string) error {
	switch tool {
	case "tmsu":
		if err := m.deps.Tags.SetPath(path); err != nil {
			return err
		}
		m.deps.Store.SetSetting(store.KeyTmsuPath, path)
	case "exiftool":
		if err := m.deps.Meta.SetPath(path); err != nil {
			return err
		}
		m.deps.Store.SetSetting(store.KeyExiftoolPath, path)
	}
	return nil
}

func (m *Model) advanceToolPrompt() tea.Cmd {
	m.missingTools = m.missingTools[1:]
	if len(m.missingTools) > 0 {
		m.startToolPrompt()
		return textinput.Blink
	}
	m.prompt = promptNone
	m.promptInput.Blur()
	return m.loadTagsCmd()
}

func (m *Model) openQueryPrompt() {
	m.prompt = promptQuery
	m.promptInput.SetValue("")
	m.promptInput.Prompt = "/"
	m.promptInput.Placeholder = "tag expression, e.g. vacation and year=2024"
	m.promptInput.Focus()
	m.queryHistory = m.deps.Store.RecentQueries(50)
	m.histIdx = -1
}

func (m *Model) onQueryPromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = promptNone
		m.promptInput.Blur()
		return m, nil
	case "enter":
		expr := strings.TrimSpace(m.promptInput.Value())
		m.prompt = promptNone
		m.promptInput.Blur()
		if expr == "" {
			return m, nil
		}
		m.deps.Store.AddQuery(expr)
		return m, m.openDescriptor(query.TagQueryOf(expr))
	case "up":
		if m.histIdx < len(m.queryHistory)-1 {
			m.histIdx++
			m.promptInput.SetValue(m.queryHistory[m.histIdx])
			m.promptInput.CursorEnd()
		}
		return m, nil
	case "down":
		if m.histIdx > 0 {
			m.histIdx--
			m.promptInput.SetValue(m.queryHistory[m.histIdx])
			m.promptInput.CursorEnd()
		} else if m.histIdx == 0 {
			m.histIdx = -1
			m.promptInput.SetValue("")
		}
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.promptInput, cmd = m.promptInput.Update(msg)
	return m, cmd
}
