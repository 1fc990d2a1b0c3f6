// Package tui is the terminal study interface: a Bubble Tea model over a
// study.Controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/prefs"
	"github.com/conorfennell/flashlearn/internal/storage"
	"github.com/conorfennell/flashlearn/internal/study"
)

// CategorySource lists the categories of the active cards.
type CategorySource interface {
	Categories() []string
}

// eventMsg carries a controller event into the program.
type eventMsg study.Event

// Model is the root Bubble Tea model.
type Model struct {
	controller *study.Controller
	categories CategorySource
	store      storage.Store

	keys   KeyMap
	help   help.Model
	bar    progress.Model
	theme  Theme
	styles styles

	categoryOptions   []string
	difficultyOptions []string
	categoryIndex     int
	difficultyIndex   int
	countIndex        int

	notice    string
	noticeBad bool
	width     int
}

// NewModel returns a model on the setup screen, preselecting initial
// where it names a valid option.
func NewModel(ctl *study.Controller, categories CategorySource, store storage.Store, initial study.Filter) Model {
	m := Model{
		controller: ctl,
		categories: categories,
		store:      store,
		keys:       DefaultKeyMap,
		help:       help.New(),
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		difficultyOptions: []string{
			study.AllLevels, string(domain.Easy), string(domain.Medium), string(domain.Hard),
		},
	}
	m.setTheme(prefs.DarkMode(store))
	m.reloadCategories()

	if i := slices.Index(m.categoryOptions, initial.Category); i >= 0 {
		m.categoryIndex = i
	}
	if i := slices.Index(m.difficultyOptions, initial.Difficulty); i >= 0 {
		m.difficultyIndex = i
	}
	m.countIndex = slices.Index(study.CountOptions, study.DefaultCount)
	if i := slices.Index(study.CountOptions, initial.Count); i >= 0 {
		m.countIndex = i
	}
	return m
}

// Run starts the program and blocks until the user quits or ctx ends.
// Controller events are forwarded to the program.
func Run(ctx context.Context, m Model) error {
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.controller.SetListener(func(e study.Event) {
		// Send blocks until the event loop reads it, and the listener
		// may fire from inside Update.
		go program.Send(eventMsg(e))
	})
	defer m.controller.SetListener(nil)

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-8, 10), 56)
		return m, nil

	case eventMsg:
		if study.Event(msg) == study.EventCompleted {
			m.setNotice("Session complete!", false)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.DarkMode):
		on, err := prefs.Toggle(m.store)
		if err != nil {
			m.setNotice("Could not save the dark mode preference.", true)
		}
		m.setTheme(on)
		return m, nil
	case key.Matches(msg, m.keys.Reset):
		if err := m.controller.Reset(); err != nil {
			m.setNotice("Cards were reset but the change could not be saved.", true)
		} else {
			m.setNotice("All progress reset. Default cards restored.", false)
		}
		m.reloadCategories()
		return m, nil
	}

	if m.controller.Snapshot().Phase == study.PhaseActive {
		return m.handleStudyKey(msg)
	}
	return m.handleSetupKey(msg)
}

func (m Model) handleSetupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Category):
		m.categoryIndex = (m.categoryIndex + 1) % len(m.categoryOptions)
	case key.Matches(msg, m.keys.Difficulty):
		m.difficultyIndex = (m.difficultyIndex + 1) % len(m.difficultyOptions)
	case key.Matches(msg, m.keys.Count):
		m.countIndex = (m.countIndex + 1) % len(study.CountOptions)
	case key.Matches(msg, m.keys.Start):
		err := m.controller.Start(m.filter())
		switch {
		case err == nil:
			m.clearNotice()
		case errors.Is(err, study.ErrNoCards):
			m.setNotice("No cards available for the selected category and difficulty.", true)
		default:
			m.setNotice(err.Error(), true)
		}
	}
	return m, nil
}

func (m Model) handleStudyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error
	switch {
	case key.Matches(msg, m.keys.Know):
		err = m.controller.Judge(study.Know)
	case key.Matches(msg, m.keys.DontKnow):
		err = m.controller.Judge(study.DontKnow)
	case key.Matches(msg, m.keys.Flip):
		err = m.controller.Flip()
	case key.Matches(msg, m.keys.Hint):
		m.controller.ToggleHint()
	}
	// A rejected judgement while the card is leaving is not worth a notice.
	if err != nil && !errors.Is(err, study.ErrJudgementInFlight) {
		m.setNotice(err.Error(), true)
	}
	return m, nil
}

func (m Model) filter() study.Filter {
	return study.Filter{
		Category:   m.categoryOptions[m.categoryIndex],
		Difficulty: m.difficultyOptions[m.difficultyIndex],
		Count:      study.CountOptions[m.countIndex],
	}
}

func (m *Model) reloadCategories() {
	current := ""
	if m.categoryIndex < len(m.categoryOptions) {
		current = m.categoryOptions[m.categoryIndex]
	}
	m.categoryOptions = append([]string{study.AllCategories}, m.categories.Categories()...)
	m.categoryIndex = max(slices.Index(m.categoryOptions, current), 0)
}

func (m *Model) setTheme(dark bool) {
	m.theme = ThemeFor(dark)
	m.styles = newStyles(m.theme)
}

func (m *Model) setNotice(text string, bad bool) {
	m.notice = text
	m.noticeBad = bad
}

func (m *Model) clearNotice() { m.setNotice("", false) }

func (m Model) View() string {
	snap := m.controller.Snapshot()

	var b strings.Builder
	b.WriteString(m.styles.title.Render("FlashLearn"))
	b.WriteString("\n\n")

	switch snap.Phase {
	case study.PhaseActive:
		b.WriteString(m.viewStudy(snap))
	case study.PhaseComplete:
		b.WriteString(m.viewSummary(snap.Summary))
		b.WriteString("\n\n")
		b.WriteString(m.viewSetup())
	default:
		b.WriteString(m.viewSetup())
	}

	if m.notice != "" {
		style := m.styles.known
		if m.noticeBad {
			style = m.styles.unknown
		}
		b.WriteString("\n\n")
		b.WriteString(style.Render(m.notice))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(phaseKeys{keys: m.keys, studying: snap.Phase == study.PhaseActive}))
	return b.String()
}

func (m Model) viewSetup() string {
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", m.styles.faint.Render(fmt.Sprintf("%-11s", label)), m.styles.accent.Render("‹ "+value+" ›"))
	}
	f := m.filter()
	return strings.Join([]string{
		row("Category", f.Category),
		row("Difficulty", f.Difficulty),
		row("Questions", fmt.Sprint(f.Count)),
		"",
		m.styles.text.Render("Press enter to start learning."),
	}, "\n")
}

func (m Model) viewStudy(snap study.Snapshot) string {
	status := fmt.Sprintf("%s  %s",
		m.styles.accent.Render(study.FormatElapsed(snap.Elapsed)),
		m.styles.faint.Render(fmt.Sprintf("%d / %d", snap.Done, snap.Total)),
	)

	var chips []string
	if snap.Card.Category != "" {
		chips = append(chips, snap.Card.Category)
	}
	if snap.Card.Difficulty != "" {
		chips = append(chips, string(snap.Card.Difficulty))
	}

	var face strings.Builder
	if len(chips) > 0 {
		face.WriteString(m.styles.chip.Render(strings.Join(chips, " · ")))
		face.WriteString("\n\n")
	}
	switch {
	case snap.Flipped:
		face.WriteString(m.styles.known.Render(snap.Card.Answer))
	default:
		face.WriteString(m.styles.text.Render(snap.Card.Question))
		if snap.HintVisible {
			face.WriteString("\n\n")
			face.WriteString(m.styles.faint.Render("Hint: " + snap.Card.Hint))
		}
	}

	card := m.styles.card
	if snap.Locked {
		card = card.BorderForeground(m.theme.Known).Faint(true)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		status,
		m.bar.ViewAs(snap.Progress()),
		"",
		card.Render(face.String()),
	)
}

func (m Model) viewSummary(sum study.Summary) string {
	line := func(label, value string) string {
		return fmt.Sprintf("%s %s", m.styles.faint.Render(fmt.Sprintf("%-19s", label)), m.styles.text.Render(value))
	}
	return strings.Join([]string{
		m.styles.accent.Render("Session complete!"),
		"",
		line("Category", sum.Filter.Category),
		line("Difficulty", sum.Filter.Difficulty),
		line("Questions", fmt.Sprint(sum.Questions)),
		line("Known on first try", fmt.Sprint(sum.KnownFirstTry)),
		line("Needed review", fmt.Sprint(sum.NeededReview)),
		line("Total Time", study.FormatElapsed(sum.ElapsedSeconds)),
	}, "\n")
}
