// Package ui is the terminal shell: a three-pane layout with the navigation
// tree and tag list on the left, the file table in the middle, and the
// metadata inspector with the tag editor on the right. All tool invocations
// run as commands off the event loop; their completions come back as
// messages, so the model is only ever touched from Update.
package ui

import (
	"os"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tagdeck/internal/exiftool"
	"tagdeck/internal/nav"
	"tagdeck/internal/query"
	"tagdeck/internal/selection"
	"tagdeck/internal/store"
	"tagdeck/internal/tmsu"
	"tagdeck/internal/watch"
)

type focusArea int

const (
	focusTree focusArea = iota
	focusTags
	focusFiles
	focusEditor
)

type promptKind int

const (
	promptNone promptKind = iota
	promptTool
	promptQuery
)

// Deps bundles the engine the shell drives.
type Deps struct {
	Tags      *tmsu.Client
	Meta      *exiftool.Client
	Resolver  *query.Resolver
	Selection *selection.Controller
	Tree      *nav.Tree
	Store     *store.DB
	Watcher   *watch.DirectoryWatcher
}

// Model is the bubbletea model for the whole application.
type Model struct {
	deps Deps

	width  int
	height int
	focus  focusArea

	treeCursor int

	tags      []string
	tagCursor int

	files []query.Entry
	table table.Model

	current query.Descriptor
	hasView bool
	scope   string
	loadGen uint64

	meta       exiftool.Metadata
	chipCursor int
	tagInput   textinput.Model

	prompt       promptKind
	promptInput  textinput.Model
	missingTools []string

	queryHistory []string
	histIdx      int

	showHelp  bool
	status    string
	statusErr bool
}

// New builds the initial model. A stored last-visited directory becomes the
// starting scope when it still exists.
func New(deps Deps) *Model {
	ti := textinput.New()
	ti.Placeholder = "add tag"
	ti.Prompt = "+ "
	ti.CharLimit = 128

	pi := textinput.New()
	pi.CharLimit = 512

	t := table.New(
		table.WithColumns(fileColumns(60)),
		table.WithFocused(false),
	)
	ts := table.DefaultStyles()
	ts.Selected = selectedStyle
	t.SetStyles(ts)

	m := &Model{
		deps:        deps,
		tagInput:    ti,
		promptInput: pi,
		table:       t,
		status:      "Ready - Select a directory or query to browse files",
	}

	if dir, ok := deps.Store.Setting(store.KeyLastDir); ok {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			m.scope = dir
		}
	}

	if !deps.Tags.Available() {
		m.missingTools = append(m.missingTools, "tmsu")
	}
	if !deps.Meta.Available() {
		m.missingTools = append(m.missingTools, "exiftool")
	}
	if len(m.missingTools) > 0 {
		m.startToolPrompt()
	}

	return m
}

// Init kicks off the initial tag load, the scope restore, and the watcher
// bridge.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadTagsCmd()}
	if m.scope != "" {
		cmds = append(cmds, m.loadFilesCmd(query.DirectoryOf(m.scope)))
	}
	if c := waitForDir(m.deps.Watcher); c != nil {
		cmds = append(cmds, c)
	}
	return tea.Batch(cmds...)
}

func fileColumns(width int) []table.Column {
	name := width * 35 / 100
	path := width * 35 / 100
	if name < 12 {
		name = 12
	}
	if path < 12 {
		path = 12
	}
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Path", Width: path},
		{Title: "Size", Width: 10},
		{Title: "Modified", Width: 16},
	}
}

func (m *Model) startToolPrompt() {
	m.prompt = promptTool
	m.promptInput.SetValue("")
	m.promptInput.Prompt = "Path to " + m.missingTools[0] + ": "
	m.promptInput.Placeholder = "/usr/local/bin/" + m.missingTools[0]
	m.promptInput.Focus()
}

func (m *Model) selectedEntry() *query.Entry {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.files) {
		return nil
	}
	return &m.files[i]
}

func (m *Model) selectedTreeNode() *nav.Node {
	visible := m.deps.Tree.Visible()
	if m.treeCursor < 0 || m.treeCursor >= len(visible) {
		return nil
	}
	return visible[m.treeCursor]
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}
