package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/liveview/pkg/metrics"
	"github.com/vanderheijden86/liveview/pkg/record"
	"github.com/vanderheijden86/liveview/pkg/view"
)

// Column widths in cells.
const (
	markerWidth   = 2
	priorityWidth = 3
	statusWidth   = 12
	updatedWidth  = 9
	maxIDWidth    = 16
	minTitleWidth = 10
)

type columns struct {
	id    int
	title int
}

// View renders the browser.
func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	if !m.ready {
		return "Initializing..."
	}

	cols := m.layout()
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(columnHeaderStyle.Render(m.renderColumnHeader(cols)))
	b.WriteByte('\n')

	h := m.bodyHeight()
	n := m.view.Len()
	if n == 0 {
		b.WriteString(mutedStyle.Render("  No records match."))
		b.WriteByte('\n')
		h--
	}
	cur := m.view.CurrentPosition()
	for i := m.offset; i < n && i < m.offset+h; i++ {
		r, err := m.view.At(i)
		if err != nil {
			break
		}
		b.WriteString(m.renderRow(r, cols, i == cur))
		b.WriteByte('\n')
	}

	b.WriteString(m.renderStatus())
	if footer := m.footer(); footer != "" && (m.showHelp || m.searching) {
		b.WriteByte('\n')
		b.WriteString(footer)
	}
	return b.String()
}

// footer is the search input while searching, the key help otherwise.
func (m Model) footer() string {
	if m.searching {
		return searchStyle.Render(m.search.View())
	}
	return m.help.View(m.keys)
}

func (m Model) layout() columns {
	idw := len("ID")
	for _, r := range m.view.All() {
		idw = max(idw, runewidth.StringWidth(r.ID))
	}
	idw = min(idw, maxIDWidth)

	tw := m.titleWidth
	if tw <= 0 {
		// marker, id, priority, status, title, updated with single-space gaps
		fixed := markerWidth + idw + 1 + priorityWidth + 1 + statusWidth + 1 + 1 + updatedWidth
		tw = max(minTitleWidth, m.width-fixed)
	}
	return columns{id: idw, title: tw}
}

func (m Model) renderHeader() string {
	parts := []string{
		headerStyle.Render("lv"),
		fmt.Sprintf("%d/%d records", m.view.Len(), m.list.Len()),
		"sort: " + formatSortKeys(m.view.SortKeys()),
	}
	if m.baseFilter != nil {
		parts = append(parts, "filter: "+onOff(m.filterOn))
	}
	if m.query != "" {
		parts = append(parts, searchStyle.Render(fmt.Sprintf("search: %q", m.query)))
	}
	if m.view.LiveShaping() {
		parts = append(parts, successStyle.Render("live"))
	}
	return strings.Join(parts, mutedStyle.Render(" · "))
}

func (m Model) renderColumnHeader(cols columns) string {
	label := func(field, name string, width int) string {
		if keys := m.view.SortKeys(); len(keys) > 0 && keys[0].Field == field {
			name += keys[0].Direction.Indicator()
		}
		return padRight(truncate(name, width), width)
	}
	return strings.Repeat(" ", markerWidth) +
		label(record.FieldID, "ID", cols.id) + " " +
		label(record.FieldPriority, "P", priorityWidth) + " " +
		label(record.FieldStatus, "Status", statusWidth) + " " +
		label(record.FieldTitle, "Title", cols.title) + " " +
		label(record.FieldUpdatedAt, "Updated", updatedWidth)
}

func (m Model) renderRow(r *record.Record, cols columns, selected bool) string {
	id := padRight(truncate(r.ID, cols.id), cols.id)
	title := padRight(truncate(r.Title, cols.title), cols.title)
	updated := padRight(truncate(FormatTimeRel(r.UpdatedAt), updatedWidth), updatedWidth)

	if selected {
		line := "▸ " + id + " " +
			padRight(priorityLabel(r.Priority), priorityWidth) + " " +
			padRight(truncate(r.Status, statusWidth), statusWidth) + " " +
			title + " " + updated
		return selectedRowStyle.Render(line)
	}
	return strings.Repeat(" ", markerWidth) +
		idStyle.Render(id) + " " +
		RenderPriorityBadge(r.Priority) + strings.Repeat(" ", priorityWidth-len(priorityLabel(r.Priority))) + " " +
		RenderStatus(r.Status, statusWidth) + " " +
		title + " " +
		mutedStyle.Render(updated)
}

func (m Model) renderStatus() string {
	if m.statusMsg == "" {
		pos := m.view.CurrentPosition()
		if pos < 0 || pos >= m.view.Len() {
			return statusStyle.Render("-")
		}
		return statusStyle.Render(fmt.Sprintf("%d of %d", pos+1, m.view.Len()))
	}
	if m.statusIsError {
		return errorStyle.Render(m.statusMsg)
	}
	return statusStyle.Render(m.statusMsg)
}

// PlainRows renders v as tab-separated lines without styling, for
// non-terminal output.
func PlainRows(v *view.CollectionView[*record.Record]) []string {
	rows := make([]string, 0, v.Len())
	for _, r := range v.All() {
		updated := ""
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		rows = append(rows, strings.Join([]string{
			r.ID,
			priorityLabel(r.Priority),
			r.Status,
			r.Title,
			strings.Join(r.Labels, ","),
			updated,
		}, "\t"))
	}
	return rows
}
