package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/matzehuels/lightbox/pkg/catalog"
	"github.com/matzehuels/lightbox/pkg/gallery"
	"github.com/matzehuels/lightbox/pkg/quality"
	"github.com/matzehuels/lightbox/pkg/session"
	"github.com/matzehuels/lightbox/pkg/viewer"
)

// Grid styles
var (
	cellStyle      = lipgloss.NewStyle().Foreground(colorWhite).Background(lipgloss.Color("237"))
	cellAltStyle   = lipgloss.NewStyle().Foreground(colorWhite).Background(lipgloss.Color("239"))
	cellCursor     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(colorCyan)
	trailingStyle  = lipgloss.NewStyle().Foreground(colorGray).Background(lipgloss.Color("235"))
	helpStyle      = lipgloss.NewStyle().Foreground(colorDim)
	statusErrStyle = lipgloss.NewStyle().Foreground(colorRed)
	arrowStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	frameStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(1, 3)
)

// maxMatches is how many search results are listed.
const maxMatches = 10

type viewMode int

const (
	modeGrid viewMode = iota
	modeViewer
	modeSearch
)

// pageMsg reports the outcome of a page request.
type pageMsg struct {
	loaded bool
	err    error
}

// refreshMsg asks for a redraw once a viewer transition has settled.
type refreshMsg struct{}

// =============================================================================
// GalleryModel - terminal gallery and viewer
// =============================================================================

// GalleryModel is the bubbletea model behind `lightbox view`. The grid shows
// the packed rows scaled to the terminal width; enter opens the viewer on
// the selected image.
type GalleryModel struct {
	ctx    context.Context
	sess   *session.Session
	settle time.Duration

	mode    viewMode
	cursor  int
	cols    int
	lines   int
	loading bool
	status  string
	failed  bool

	search   textinput.Model
	matches  fuzzy.Matches
	matchSel int

	// copy writes to the system clipboard; replaced in tests.
	copy func(string) error
}

// NewGalleryModel creates the model. settle is the viewer's settle delay,
// used to schedule a redraw after each move.
func NewGalleryModel(ctx context.Context, sess *session.Session, settle time.Duration) GalleryModel {
	ti := textinput.New()
	ti.Placeholder = "Search by id or date..."
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 40

	return GalleryModel{
		ctx:    ctx,
		sess:   sess,
		settle: settle,
		cols:   80,
		lines:  24,
		search: ti,
		copy:   clipboard.WriteAll,
	}
}

func (m GalleryModel) Init() tea.Cmd {
	return m.requestMore()
}

func (m GalleryModel) requestMore() tea.Cmd {
	ctrl := m.sess.Gallery
	ctx := m.ctx
	return func() tea.Msg {
		loaded, err := ctrl.RequestMore(ctx)
		return pageMsg{loaded: loaded, err: err}
	}
}

// maybeLoad requests the next page when the cursor reached the last row,
// the way scrolling the gallery's bottom into view does.
func (m *GalleryModel) maybeLoad(index int) tea.Cmd {
	if m.loading || m.sess.Gallery.State() != gallery.Idle {
		return nil
	}
	l := m.sess.Gallery.Layout()
	if len(l.Rows) > 0 {
		row, _ := locate(l, index)
		if row < len(l.Rows)-1 {
			return nil
		}
	}
	m.loading = true
	return m.requestMore()
}

func (m GalleryModel) afterSettle() tea.Cmd {
	if m.settle <= 0 {
		return nil
	}
	return tea.Tick(m.settle+20*time.Millisecond, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m *GalleryModel) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.failed = false
}

func (m *GalleryModel) setError(prefix string, err error) {
	m.status = fmt.Sprintf("%s: %v", prefix, err)
	m.failed = true
}

func (m GalleryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols, m.lines = msg.Width, msg.Height
		return m, nil
	case pageMsg:
		m.loading = false
		switch {
		case msg.err != nil:
			m.setError("Loading failed", msg.err)
		case m.sess.Gallery.State() == gallery.Exhausted:
			m.setStatus("All %d images loaded", len(m.sess.Gallery.Images()))
		case msg.loaded:
			m.setStatus("Loaded %d images", len(m.sess.Gallery.Images()))
		}
		return m, nil
	case refreshMsg:
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeViewer:
			return m.updateViewer(msg)
		case modeSearch:
			return m.updateSearch(msg)
		default:
			return m.updateGrid(msg)
		}
	}
	return m, nil
}

func (m GalleryModel) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.sess.Gallery.Images())
	l := m.sess.Gallery.Layout()

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.cursor = max(m.cursor-1, 0)
	case "right", "l":
		m.cursor = min(m.cursor+1, max(count-1, 0))
	case "up", "k":
		m.cursor = moveRow(l, m.cursor, -1)
	case "down", "j":
		m.cursor = moveRow(l, m.cursor, 1)
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(count-1, 0)
	case "m", " ":
		if !m.loading && m.sess.Gallery.State() == gallery.Idle {
			m.loading = true
			return m, m.requestMore()
		}
		return m, nil
	case "/":
		m.mode = modeSearch
		m.search.SetValue("")
		m.refilter()
		return m, m.search.Focus()
	case "enter":
		if count == 0 {
			return m, nil
		}
		if err := m.sess.Viewer.Open(m.cursor); err != nil {
			m.setError("Open failed", err)
			return m, nil
		}
		m.mode = modeViewer
		m.status = ""
		return m, nil
	default:
		return m, nil
	}
	return m, m.maybeLoad(m.cursor)
}

func (m GalleryModel) updateViewer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	nav := m.sess.Viewer
	var (
		moved bool
		err   error
	)
	switch msg.String() {
	case "left", "h":
		moved, err = nav.Navigate(-1, false)
	case "right", "l", " ":
		moved, err = nav.Navigate(1, false)
	case "home":
		moved, err = nav.First()
	case "end":
		moved, err = nav.Last()
	case "esc", "backspace":
		m.cursor = nav.State().ActiveIndex
		nav.Close()
		m.mode = modeGrid
		return m, nil
	case "q":
		next := nextPreference(nav.State().Preference)
		if err := nav.SetPreference(next); err != nil {
			m.setError("Quality", err)
			return m, nil
		}
		m.setStatus("Quality %s", next)
		return m, nil
	case "y":
		m.copyURL(nav.State().URL, "image URL")
		return m, nil
	case "Y":
		url, err := nav.FullsizeURL()
		if err != nil {
			m.setError("Full size", err)
			return m, nil
		}
		m.copyURL(url, "full size URL")
		return m, nil
	default:
		return m, nil
	}
	if err != nil {
		m.setError("Navigate", err)
		return m, nil
	}
	if !moved {
		return m, nil
	}
	m.status = ""
	return m, tea.Batch(m.afterSettle(), m.maybeLoad(nav.State().ActiveIndex))
}

func (m *GalleryModel) copyURL(url, what string) {
	if url == "" {
		m.setStatus("No %s to copy", what)
		return
	}
	if err := m.copy(url); err != nil {
		m.setError("Clipboard copy failed", err)
		return
	}
	m.setStatus("Copied %s", what)
}

func (m GalleryModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.Blur()
		m.mode = modeGrid
		return m, nil
	case tea.KeyEnter:
		if len(m.matches) == 0 {
			return m, nil
		}
		m.search.Blur()
		idx := m.matches[m.matchSel].Index
		m.cursor = idx
		if err := m.sess.Viewer.Open(idx); err != nil {
			m.setError("Open failed", err)
			m.mode = modeGrid
			return m, nil
		}
		m.mode = modeViewer
		return m, nil
	case tea.KeyUp:
		m.matchSel = max(m.matchSel-1, 0)
		return m, nil
	case tea.KeyDown:
		m.matchSel = min(m.matchSel+1, max(min(len(m.matches), maxMatches)-1, 0))
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.refilter()
	}
	return m, cmd
}

// refilter fuzzy matches the query against every loaded image's ID and date.
func (m *GalleryModel) refilter() {
	m.matchSel = 0
	images := m.sess.Gallery.Images()
	query := strings.TrimSpace(m.search.Value())
	if query == "" {
		m.matches = nil
		return
	}
	searchStrings := make([]string, len(images))
	for i, img := range images {
		searchStrings[i] = img.ID + " " + img.Date
	}
	m.matches = fuzzy.Find(query, searchStrings)
}

// =============================================================================
// View
// =============================================================================

func (m GalleryModel) View() string {
	var b strings.Builder
	l := m.sess.Gallery.Layout()

	b.WriteString(StyleTitle.Render("lightbox"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d images · %d rows · %s", len(m.sess.Gallery.Images()), len(l.Rows), l.State)))
	if m.loading {
		b.WriteString(StyleDim.Render(" · loading…"))
	}
	b.WriteString("\n\n")

	switch m.mode {
	case modeViewer:
		b.WriteString(m.viewViewer())
	case modeSearch:
		b.WriteString(m.viewSearch())
	default:
		b.WriteString(m.viewGrid(l))
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.failed {
			b.WriteString(statusErrStyle.Render(m.status))
		} else {
			b.WriteString(StyleSuccess.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render(m.help()))
	return b.String()
}

func (m GalleryModel) help() string {
	switch m.mode {
	case modeViewer:
		return "←/→ navigate  home/end first/last  q quality  y copy url  Y copy full size  esc close"
	case modeSearch:
		return "type to search  ↑/↓ select  ⏎ open  esc cancel"
	}
	return "arrows move  ⏎ open  / search  m more  q quit"
}

func (m GalleryModel) viewGrid(l gallery.Layout) string {
	if len(l.Rows) == 0 {
		return StyleDim.Render("No images yet.") + "\n"
	}

	visible := max(m.lines-6, 3)
	cursorRow, _ := locate(l, m.cursor)
	first := max(0, min(cursorRow-visible/2, len(l.Rows)-visible))

	var b strings.Builder
	idx := rowStart(l, first)
	for r := first; r < len(l.Rows) && r < first+visible; r++ {
		row := l.Rows[r]
		for i, item := range row.Items {
			w := max(int(item.Width/l.Width*float64(m.cols))-1, 3)
			style := cellStyle
			switch {
			case idx == m.cursor:
				style = cellCursor
			case !row.Committed:
				style = trailingStyle
			case (i+r)%2 == 1:
				style = cellAltStyle
			}
			b.WriteString(style.Width(w).MaxWidth(w).Render(truncate(item.ID, w)))
			b.WriteString(" ")
			idx++
		}
		b.WriteString(StyleDim.Render(fmt.Sprintf(" %.0fpx", row.Height)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m GalleryModel) viewViewer() string {
	st := m.sess.Viewer.State()
	img := m.sess.Viewer.ActiveImage()
	if !st.Open || img == nil {
		return StyleDim.Render("Viewer closed.") + "\n"
	}

	left, right := "  ", "  "
	if st.LeftArrowVisible {
		left = arrowStyle.Render("‹ ")
	}
	if st.RightArrowVisible {
		right = arrowStyle.Render(" ›")
	}

	var body strings.Builder
	body.WriteString(StyleTitle.Render(img.ID))
	body.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d", st.ActiveIndex+1, st.Count)))
	body.WriteString("\n")
	meta := []string{fmt.Sprintf("%.0f×%.0f", img.Width, img.Height)}
	if img.Date != "" {
		meta = append(meta, img.Date)
	}
	meta = append(meta, fmt.Sprintf("tier %s (%s)", st.Tier, st.Preference))
	body.WriteString(StyleDim.Render(strings.Join(meta, " · ")))
	body.WriteString("\n\n")
	body.WriteString(StyleLink.Render(truncate(st.URL, max(m.cols-16, 20))))
	if st.Settling {
		body.WriteString("\n\n")
		body.WriteString(StyleDim.Render(transitionSummary(m.sess.Viewer.Images(), st.Flags)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, left, frameStyle.Render(body.String()), right) + "\n"
}

func (m GalleryModel) viewSearch() string {
	var b strings.Builder
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	if m.search.Value() != "" && len(m.matches) == 0 {
		b.WriteString(StyleDim.Render("No matches among loaded images.") + "\n")
	}
	images := m.sess.Gallery.Images()
	for i, match := range m.matches {
		if i >= maxMatches {
			break
		}
		img := images[match.Index]
		line := fmt.Sprintf("%-28s %s", truncate(img.ID, 28), img.Date)
		if i == m.matchSel {
			b.WriteString(listSelectedStyle.Render("> " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
)

// =============================================================================
// Helpers
// =============================================================================

// locate returns the row and column of the image at index.
func locate(l gallery.Layout, index int) (row, col int) {
	start := 0
	for r, rw := range l.Rows {
		if index < start+rw.Len() {
			return r, index - start
		}
		start += rw.Len()
	}
	if len(l.Rows) == 0 {
		return 0, 0
	}
	last := len(l.Rows) - 1
	return last, l.Rows[last].Len() - 1
}

// rowStart returns the image index of the first item in row.
func rowStart(l gallery.Layout, row int) int {
	n := 0
	for r := 0; r < row && r < len(l.Rows); r++ {
		n += l.Rows[r].Len()
	}
	return n
}

// moveRow moves index by delta rows, keeping the column where possible.
func moveRow(l gallery.Layout, index, delta int) int {
	if len(l.Rows) == 0 {
		return index
	}
	row, col := locate(l, index)
	target := min(max(row+delta, 0), len(l.Rows)-1)
	if target == row {
		return index
	}
	return rowStart(l, target) + min(col, l.Rows[target].Len()-1)
}

// nextPreference cycles auto → low → mid → high → auto.
func nextPreference(p quality.Preference) quality.Preference {
	prefs := quality.Preferences
	for i, q := range prefs {
		if q == p {
			return prefs[(i+1)%len(prefs)]
		}
	}
	return quality.Auto
}

// transitionSummary lists the images that carry a transition tag, in
// catalog order, e.g. "img-2 leaveToLeft · img-3 enterFromRight".
func transitionSummary(images []*catalog.Image, flags map[string]viewer.DisplayFlags) string {
	var parts []string
	for _, img := range images {
		if f, ok := flags[img.ID]; ok && f.Transition != "" {
			parts = append(parts, fmt.Sprintf("%s %s", img.ID, f.Transition))
		}
	}
	return strings.Join(parts, " · ")
}
