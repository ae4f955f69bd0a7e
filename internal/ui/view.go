package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tagdeck/internal/exiftool"
	"tagdeck/internal/nav"
)

// priorityMetaKeys are shown first in the inspector, in this order.
var priorityMetaKeys = []string{
	"File:FileName",
	"File:FileSize",
	"File:MIMEType",
	"File:FileModifyDate",
	"EXIF:ImageWidth",
	"EXIF:ImageHeight",
	"EXIF:Make",
	"EXIF:Model",
	"EXIF:DateTimeOriginal",
	"Composite:ImageSize",
	"Composite:Megapixels",
}

const metaValueLimit = 50

// View renders the full screen.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			overlayStyle.Render(helpText()))
	}
	if m.prompt == promptTool {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			overlayStyle.Render(m.toolPromptText()))
	}

	left, mid, right := m.paneWidths()
	paneHeight := max(m.height-2, 5)

	leftPane := m.renderPane(m.renderSidebar(left-2, paneHeight-2), left, paneHeight,
		m.focus == focusTree || m.focus == focusTags)
	midPane := m.renderPane(m.renderFiles(), mid, paneHeight, m.focus == focusFiles)
	rightPane := m.renderPane(m.renderInspector(right-2, paneHeight-2), right, paneHeight,
		m.focus == focusEditor)

	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, midPane, rightPane)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

func (m *Model) paneWidths() (left, mid, right int) {
	left = 28
	right = 40
	mid = m.width - left - right
	if mid < 24 {
		mid = 24
	}
	return left, mid, right
}

func (m *Model) renderPane(content string, width, height int, focused bool) string {
	style := paneStyle
	if focused {
		style = paneFocusedStyle
	}
	return style.Width(width - 2).Height(height - 2).Render(content)
}

func (m *Model) renderSidebar(width, height int) string {
	treeHeight := height * 3 / 5
	if treeHeight < 3 {
		treeHeight = 3
	}
	tagHeight := height - treeHeight - 2
	if tagHeight < 1 {
		tagHeight = 1
	}

	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Sources"))
	b.WriteString("\n")
	b.WriteString(m.renderTree(width, treeHeight-1))
	b.WriteString("\n")
	b.WriteString(paneTitleStyle.Render("All Tags"))
	b.WriteString("\n")
	b.WriteString(m.renderTagList(width, tagHeight))
	return b.String()
}

func (m *Model) renderTree(width, height int) string {
	visible := m.deps.Tree.Visible()
	start := viewportStart(m.treeCursor, len(visible), height)

	var lines []string
	for i := start; i < len(visible) && i-start < height; i++ {
		n := visible[i]
		indent := strings.Repeat("  ", n.Depth())

		prefix := "  "
		if n.Expandable() {
			if n.Expanded {
				prefix = "▾ "
			} else {
				prefix = "▸ "
			}
		}

		line := truncate(indent+prefix+n.Label, width)
		switch {
		case m.focus == focusTree && i == m.treeCursor:
			line = selectedStyle.Render(line)
		case n.Kind == nav.KindError:
			line = errorStyle.Render(line)
		case n.Kind == nav.KindBranch:
			line = paneTitleStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderTagList(width, height int) string {
	if len(m.tags) == 0 {
		return mutedStyle.Render("(no tags)")
	}

	start := viewportStart(m.tagCursor, len(m.tags), height)
	var lines []string
	for i := start; i < len(m.tags) && i-start < height; i++ {
		line := truncate("• "+m.tags[i], width)
		if m.focus == focusTags && i == m.tagCursor {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFiles() string {
	title := paneTitleStyle.Render(fmt.Sprintf("Files (%d)", len(m.files)))
	if len(m.files) == 0 {
		return title + "\n\n" + mutedStyle.Render("No files to show")
	}
	return title + "\n" + m.table.View()
}

func (m *Model) renderInspector(width, height int) string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Inspector"))
	b.WriteString("\n")

	cur := m.deps.Selection.Current()
	if cur == nil {
		b.WriteString(mutedStyle.Render("Select a file to view metadata"))
		return b.String()
	}

	metaHeight := height - 6
	if metaHeight < 3 {
		metaHeight = 3
	}
	for i, row := range metadataRows(m.meta) {
		if i >= metaHeight {
			b.WriteString(mutedStyle.Render("…"))
			b.WriteString("\n")
			break
		}
		b.WriteString(truncate(row.render(), width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(paneTitleStyle.Render("Tags"))
	b.WriteString("\n")
	b.WriteString(m.renderChips(cur.Tags))
	b.WriteString("\n")
	b.WriteString(m.tagInput.View())
	return b.String()
}

func (m *Model) renderChips(tags []string) string {
	if len(tags) == 0 {
		return mutedStyle.Render("(untagged)")
	}
	chips := make([]string, len(tags))
	for i, tag := range tags {
		if m.focus == focusEditor && i == m.chipCursor {
			chips[i] = chipSelectedStyle.Render(tag + " ×")
		} else {
			chips[i] = chipStyle.Render(tag)
		}
	}
	return strings.Join(chips, " ")
}

func (m *Model) renderStatusBar() string {
	if m.prompt == promptQuery {
		return statusStyle.Render(m.promptInput.View())
	}
	if m.statusErr {
		return statusErrStyle.Render(m.status)
	}
	return statusStyle.Render(m.status)
}

func (m *Model) toolPromptText() string {
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Missing tool: " + m.missingTools[0]))
	b.WriteString("\n\n")
	b.WriteString("Enter the full path to the " + m.missingTools[0] + " binary,\n")
	b.WriteString("or press esc to continue without it.\n\n")
	b.WriteString(m.promptInput.View())
	if m.statusErr {
		b.WriteString("\n\n")
		b.WriteString(errorStyle.Render(m.status))
	}
	return b.String()
}

func helpText() string {
	k := func(s string) string { return helpKeyStyle.Render(s) }
	lines := []string{
		paneTitleStyle.Render("tagdeck help"),
		"",
		"Navigation:",
		"  " + k("tab / shift+tab") + "  move between panes",
		"  " + k("↑/↓ or j/k") + "       navigate lists and trees",
		"  " + k("←/→ or h/l") + "       collapse / expand tree nodes",
		"  " + k("enter") + "            open directory, query or tag filter",
		"",
		"Actions:",
		"  " + k("?  / f1") + "          this help",
		"  " + k("f5") + "               refresh current view",
		"  " + k("/") + "                run a tag query expression",
		"  " + k("ctrl+n") + "           create a tag database in the current scope",
		"  " + k("ctrl+q") + "           quit",
		"",
		"Tagging:",
		"  type in the tag input and press " + k("enter") + " to add",
		"  " + k("←/→") + " select a tag chip, " + k("x") + " removes it",
		"",
		mutedStyle.Render("press any key to close"),
	}
	return strings.Join(lines, "\n")
}

// metaRow is one inspector line.
type metaRow struct {
	key      string
	value    string
	priority bool
}

func (r metaRow) render() string {
	if r.key == "" {
		return errorStyle.Render(r.value)
	}
	if r.priority {
		return metaKeyStyle.Render(r.key+":") + " " + r.value
	}
	return mutedStyle.Render(r.key+":") + " " + r.value
}

// metadataRows flattens metadata for display: priority keys first in their
// fixed order, then the rest sorted, with namespaces stripped and long
// values truncated. SourceFile is omitted; the table already shows the path.
func metadataRows(meta exiftool.Metadata) []metaRow {
	if meta.Failed() {
		return []metaRow{{value: meta.Err}}
	}
	if len(meta.Fields) == 0 {
		return []metaRow{{value: "No metadata available"}}
	}

	var rows []metaRow
	shown := make(map[string]bool)
	for _, key := range priorityMetaKeys {
		if v, ok := meta.Fields[key]; ok {
			rows = append(rows, metaRow{key: displayKey(key), value: metaValue(v), priority: true})
			shown[key] = true
		}
	}

	rest := make([]string, 0, len(meta.Fields))
	for key := range meta.Fields {
		if !shown[key] && !strings.HasPrefix(key, "SourceFile") {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		rows = append(rows, metaRow{key: displayKey(key), value: metaValue(meta.Fields[key])})
	}
	return rows
}

func displayKey(key string) string {
	if idx := strings.LastIndex(key, ":"); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

func metaValue(v any) string {
	s := fmt.Sprintf("%v", v)
	if len(s) <= metaValueLimit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= metaValueLimit {
		return s
	}
	return string(runes[:metaValueLimit])
}

// viewportStart keeps cursor visible in a window of height rows.
func viewportStart(cursor, total, height int) int {
	if height <= 0 || total <= height {
		return 0
	}
	start := cursor - height + 1
	if start < 0 {
		start = 0
	}
	if start > total-height {
		start = total - height
	}
	return start
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
