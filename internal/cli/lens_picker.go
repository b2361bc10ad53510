package cli

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/alexanderramin/bananadeck/internal/contract"
	"github.com/alexanderramin/bananadeck/internal/domain"
)

// lensPicker wraps a huh.Form that asks for the expansion lens of one slide.
type lensPicker struct {
	form  *huh.Form
	slide contract.SlideView
	lens  *string
}

// lensChosenMsg is emitted when the picker completes.
type lensChosenMsg struct {
	SlideID string
	Lens    domain.Lens
}

// lensCancelledMsg is emitted when esc closes the picker.
type lensCancelledMsg struct{}

func newLensPicker(slide contract.SlideView) *lensPicker {
	choice := string(domain.LensTechnical)
	options := make([]huh.Option[string], 0, len(domain.Lenses))
	for _, l := range domain.Lenses {
		options = append(options, huh.NewOption(l.Label(), string(l)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Expand with lens").
				Description(fmt.Sprintf("%q becomes a sub-deck of 3-4 slides.", slide.Title)).
				Options(options...).
				Value(&choice),
		),
	).WithTheme(deckHuhTheme()).WithShowHelp(false)

	return &lensPicker{form: form, slide: slide, lens: &choice}
}

func (p *lensPicker) Init() tea.Cmd {
	return p.form.Init()
}

func (p *lensPicker) Update(msg tea.Msg) (*lensPicker, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return p, func() tea.Msg { return lensCancelledMsg{} }
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		chosen := lensChosenMsg{SlideID: p.slide.ID, Lens: domain.Lens(*p.lens)}
		return p, func() tea.Msg { return chosen }
	}
	return p, cmd
}

func (p *lensPicker) View() string {
	return p.form.View()
}

func (p *lensPicker) ShortHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand")),
		key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}
