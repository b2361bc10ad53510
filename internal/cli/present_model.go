package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/bananadeck/internal/cli/formatter"
	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/domain"
	"github.com/alexanderramin/bananadeck/internal/service"
)

type presentKeyMap struct {
	Present key.Binding
	Next    key.Binding
	Prev    key.Binding
	Up      key.Binding
	Down    key.Binding
	Expand  key.Binding
	Quick   key.Binding
	Open    key.Binding
	Retry   key.Binding
	Back    key.Binding
	Quit    key.Binding
}

func defaultPresentKeys() presentKeyMap {
	return presentKeyMap{
		Present: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "present")),
		Next:    key.NewBinding(key.WithKeys("right", "l", " ", "n"), key.WithHelp("→", "next")),
		Prev:    key.NewBinding(key.WithKeys("left", "h", "p"), key.WithHelp("←", "prev")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "down")),
		Expand:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "expand")),
		Quick:   key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "expand by lens")),
		Open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open expansion")),
		Retry:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry visual")),
		Back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// viewMsg carries a view delivered by the studio subscription.
type viewMsg contract.PublishedView

// intentDoneMsg reports the end of an intent that ran off the update loop.
type intentDoneMsg struct {
	view   contract.PublishedView
	status string
	err    error
}

// presentModel is the terminal walkthrough. All state lives in the studio;
// the model keeps the last published view and a list cursor.
type presentModel struct {
	ctx     context.Context
	studio  service.StudioService
	views   <-chan contract.PublishedView
	// startup runs once from Init.
	startup tea.Cmd

	view    contract.PublishedView
	cursor  int
	width   int
	height  int
	status  string
	picker  *lensPicker
	keys    presentKeyMap
	help    help.Model
	spinner spinner.Model
}

func newPresentModel(ctx context.Context, studio service.StudioService, views <-chan contract.PublishedView) presentModel {
	return presentModel{
		ctx:     ctx,
		studio:  studio,
		views:   views,
		view:    studio.Snapshot(),
		keys:    defaultPresentKeys(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(formatter.StyleYellow)),
	}
}

func waitForView(views <-chan contract.PublishedView) tea.Cmd {
	if views == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-views
		if !ok {
			return nil
		}
		return viewMsg(v)
	}
}

func (m presentModel) Init() tea.Cmd {
	return tea.Batch(waitForView(m.views), m.spinner.Tick, m.startup)
}

func (m presentModel) generateCmd(sources []string) tea.Cmd {
	ctx, studio := m.ctx, m.studio
	return func() tea.Msg {
		resp, err := studio.Generate(ctx, contract.NewGenerateRequest(sources...))
		done := intentDoneMsg{view: studio.Snapshot(), err: err}
		if err == nil && !resp.Superseded {
			done.status = formatter.Dim(fmt.Sprintf("%q: %s", resp.Title, formatter.Plural(resp.SlideCount, "slide")))
		}
		return done
	}
}

func (m presentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case viewMsg:
		m.applyView(contract.PublishedView(msg))
		return m, waitForView(m.views)

	case intentDoneMsg:
		m.applyView(msg.view)
		m.status = msg.status
		if msg.err != nil {
			m.status = formatter.StyleRed.Render(msg.err.Error())
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case lensChosenMsg:
		m.picker = nil
		return m, m.expandCmd(msg.SlideID, msg.Lens)

	case lensCancelledMsg:
		m.picker = nil
		m.status = formatter.Dim("Cancelled.")
		return m, nil
	}

	if m.picker != nil {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	return m.handleKey(keyMsg)
}

func (m presentModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	walking := m.view.Walkthrough.Active

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		switch {
		case !m.view.View.IsMain():
			m.navigate(contract.NavigateRequest{Action: contract.ActionGoBack})
			m.cursor = 0
		case walking:
			m.navigate(contract.NavigateRequest{Action: contract.ActionClose})
		}
		return m, nil

	case key.Matches(msg, m.keys.Present) && !walking:
		m.navigate(contract.NavigateRequest{Action: contract.ActionStartWalkthrough})
		return m, nil

	case key.Matches(msg, m.keys.Next):
		if walking {
			m.navigate(contract.NavigateRequest{Action: contract.ActionAdvance})
		} else {
			m.moveCursor(1)
		}
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		if walking {
			m.navigate(contract.NavigateRequest{Action: contract.ActionRetreat})
		} else {
			m.moveCursor(-1)
		}
		return m, nil

	case key.Matches(msg, m.keys.Down) && !walking:
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.Up) && !walking:
		m.moveCursor(-1)
		return m, nil
	}

	sel, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Expand):
		m.picker = newLensPicker(sel)
		m.status = ""
		return m, m.picker.Init()

	case key.Matches(msg, m.keys.Quick):
		i := int(msg.Runes[0] - '1')
		return m, m.expandCmd(sel.ID, domain.Lenses[i])

	case key.Matches(msg, m.keys.Open):
		if !sel.Expanded {
			m.status = formatter.Dim(fmt.Sprintf("%q has no expansion yet.", sel.Title))
			return m, nil
		}
		m.navigate(contract.NavigateRequest{Action: contract.ActionEnter, ParentID: sel.ID})
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.Retry):
		if sel.VisualStatus != string(domain.VisualFailed) {
			return m, nil
		}
		return m, m.retryCmd(sel.ID)
	}
	return m, nil
}

// applyView keeps the newest view; subscription and intent results can
// arrive out of order.
func (m *presentModel) applyView(v contract.PublishedView) {
	if v.Version < m.view.Version {
		return
	}
	m.view = v
	if m.cursor >= len(v.Slides) {
		m.cursor = max(len(v.Slides)-1, 0)
	}
}

func (m *presentModel) navigate(req contract.NavigateRequest) {
	v, err := m.studio.Navigate(m.ctx, req)
	m.applyView(v)
	m.status = ""
	if err != nil {
		m.status = formatter.StyleRed.Render(err.Error())
	}
}

func (m *presentModel) moveCursor(delta int) {
	n := len(m.view.Slides)
	if n == 0 {
		return
	}
	m.cursor = (m.cursor + delta + n) % n
}

func (m presentModel) selected() (contract.SlideView, bool) {
	if m.view.Walkthrough.Active {
		return m.view.CurrentSlide()
	}
	if m.cursor < len(m.view.Slides) {
		return m.view.Slides[m.cursor], true
	}
	return contract.SlideView{}, false
}

func (m presentModel) expandCmd(slideID string, lens domain.Lens) tea.Cmd {
	ctx, studio := m.ctx, m.studio
	return func() tea.Msg {
		resp, err := studio.Expand(ctx, contract.NewExpandRequest(slideID, string(lens)))
		done := intentDoneMsg{view: studio.Snapshot(), err: err}
		if err == nil && !resp.Superseded {
			done.status = formatter.Dim(fmt.Sprintf("%s expansion: %s", lens.Label(), formatter.Plural(len(resp.ChildIDs), "slide")))
		}
		return done
	}
}

func (m presentModel) retryCmd(slideID string) tea.Cmd {
	ctx, studio := m.ctx, m.studio
	return func() tea.Msg {
		resp, err := studio.RetryVisual(ctx, slideID)
		done := intentDoneMsg{view: studio.Snapshot(), err: err}
		if err == nil {
			done.status = formatter.Dim("Visual " + resp.Status + ".")
		}
		return done
	}
}

func (m presentModel) shortHelp() []key.Binding {
	if m.picker != nil {
		return m.picker.ShortHelp()
	}
	if m.view.Walkthrough.Active {
		return []key.Binding{m.keys.Next, m.keys.Prev, m.keys.Expand, m.keys.Open, m.keys.Back, m.keys.Quit}
	}
	return []key.Binding{m.keys.Present, m.keys.Down, m.keys.Expand, m.keys.Quick, m.keys.Open, m.keys.Retry, m.keys.Quit}
}

func (m presentModel) View() string {
	var b strings.Builder

	title := m.view.DeckTitle
	if title == "" {
		title = "bananadeck"
	}
	b.WriteString(formatter.Header(title) + "\n")
	if !m.view.View.IsMain() {
		b.WriteString(formatter.FormatBreadcrumb(m.view.Breadcrumb) + "\n")
	}
	if line := formatter.ProgressLine(m.view.Progress, 20); line != "" && m.view.Progress.Phase != service.PhaseComplete {
		if m.view.Busy {
			line = m.spinner.View() + " " + line
		}
		b.WriteString(line + "\n")
	}
	if m.view.HasError() {
		b.WriteString(formatter.FormatError(m.view.Error) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.picker != nil:
		b.WriteString(m.picker.View() + "\n")
	case len(m.view.Slides) == 0:
		b.WriteString(formatter.Dim("Waiting for the deck...") + "\n")
	case m.view.Walkthrough.Active:
		if cur, ok := m.view.CurrentSlide(); ok {
			b.WriteString(formatter.FormatSlideCard(cur, m.view.Walkthrough.Index, len(m.view.Slides), m.cardWidth()) + "\n")
		}
	default:
		b.WriteString(m.renderList())
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + m.help.ShortHelpView(m.shortHelp()))
	return b.String()
}

func (m presentModel) renderList() string {
	var b strings.Builder
	for i, s := range m.view.Slides {
		marker := "  "
		if i == m.cursor {
			marker = formatter.StyleYellow.Render("› ")
		}
		line := fmt.Sprintf("%s%s %d. %s", marker, formatter.VisualIndicator(s.VisualStatus), i+1, s.Title)
		if s.Expanded {
			line += " " + formatter.Dim("(expanded)")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m presentModel) cardWidth() int {
	if m.width <= 4 {
		return 0
	}
	return min(m.width-4, 100)
}
