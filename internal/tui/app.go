// internal/tui/app.go
//
// Annotation screen for agentlens. Follows The Elm Architecture that
// bubbletea provides: the App model holds the form and viewport state, the
// session object holds every piece of annotation state, and View renders
// the two side by side. The UI never touches the store or index directly;
// submissions and lookups go through the session.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/agentlens/internal/annotation"
	"github.com/kingrea/agentlens/internal/logbook"
	"github.com/kingrea/agentlens/internal/session"
)

// initialChoiceCount is how many choice fields a fresh form carries.
const initialChoiceCount = 4

// focusArea identifies which part of the form receives key input.
type focusArea int

const (
	focusQuestion focusArea = iota
	focusChoices
	focusSkills
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	focusedStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#5B8DEF")).Padding(0, 1)
	statusOkStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	statusErStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	gtMarkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
)

type skillItem string

func (s skillItem) Title() string       { return string(s) }
func (s skillItem) Description() string { return "" }
func (s skillItem) FilterValue() string { return string(s) }

// App is the annotation screen model.
type App struct {
	session *session.Session
	book    *logbook.Logbook

	skillList   list.Model
	question    textinput.Model
	choices     []textinput.Model
	groundTruth int
	focus       focusArea
	choiceFocus int

	asked viewport.Model

	statusMsg string
	errMsg    string

	width  int
	height int
}

// NewApp builds the annotation screen over an already-started session.
func NewApp(sess *session.Session, book *logbook.Logbook) *App {
	items := make([]list.Item, len(annotation.Skills))
	for i, skill := range annotation.Skills {
		items[i] = skillItem(skill)
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	skillList := list.New(items, delegate, 28, len(annotation.Skills)+4)
	skillList.Title = "Category (skill)"
	skillList.SetShowStatusBar(false)
	skillList.SetFilteringEnabled(false)
	skillList.SetShowHelp(false)

	app := &App{
		session:     sess,
		book:        book,
		skillList:   skillList,
		groundTruth: -1,
		asked:       viewport.New(60, 8),
	}
	app.resetForm()
	app.refreshAsked()
	return app
}

// Init starts the cursor blink for the focused input.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update routes messages per The Elm Architecture.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.asked.Width = max(40, a.width-36)
		a.asked.Height = max(6, a.height/3)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "pgdown":
			a.session.Next()
			a.loadCurrent()
			return a, nil
		case "pgup":
			a.session.Prev()
			a.loadCurrent()
			return a, nil
		case "tab":
			a.cycleFocus(1)
			return a, nil
		case "shift+tab":
			a.cycleFocus(-1)
			return a, nil
		case "ctrl+o":
			a.addChoiceField("")
			return a, nil
		case "ctrl+g":
			if a.focus == focusChoices {
				a.groundTruth = a.choiceFocus
			}
			return a, nil
		case "enter":
			a.submitCurrent()
			return a, nil
		case "up", "down":
			if a.focus == focusChoices {
				if msg.String() == "up" {
					a.focusChoice(a.choiceFocus - 1)
				} else {
					a.focusChoice(a.choiceFocus + 1)
				}
				return a, nil
			}
		}
	}

	return a, a.updateFocused(msg)
}

// updateFocused forwards the message to whichever widget owns the focus.
func (a *App) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.focus {
	case focusQuestion:
		a.question, cmd = a.question.Update(msg)
	case focusChoices:
		a.choices[a.choiceFocus], cmd = a.choices[a.choiceFocus].Update(msg)
	case focusSkills:
		a.skillList, cmd = a.skillList.Update(msg)
	}
	return cmd
}

func (a *App) cycleFocus(dir int) {
	a.blurAll()
	switch a.focus {
	case focusQuestion:
		if dir > 0 {
			a.focus = focusChoices
			a.focusChoice(0)
		} else {
			a.focus = focusSkills
		}
	case focusChoices:
		next := a.choiceFocus + dir
		if next >= 0 && next < len(a.choices) {
			a.focusChoice(next)
			return
		}
		if dir > 0 {
			a.focus = focusSkills
		} else {
			a.focus = focusQuestion
			a.question.Focus()
		}
	case focusSkills:
		if dir > 0 {
			a.focus = focusQuestion
			a.question.Focus()
		} else {
			a.focus = focusChoices
			a.focusChoice(len(a.choices) - 1)
		}
	}
}

func (a *App) blurAll() {
	a.question.Blur()
	for i := range a.choices {
		a.choices[i].Blur()
	}
}

func (a *App) focusChoice(idx int) {
	if idx < 0 || idx >= len(a.choices) {
		return
	}
	a.blurAll()
	a.focus = focusChoices
	a.choiceFocus = idx
	a.choices[idx].Focus()
}

func (a *App) addChoiceField(initial string) {
	input := textinput.New()
	input.Placeholder = fmt.Sprintf("choice %d", len(a.choices))
	input.SetValue(initial)
	a.choices = append(a.choices, input)
}

// resetForm discards form state and recreates the initial choice fields.
func (a *App) resetForm() {
	a.question = textinput.New()
	a.question.Placeholder = "question"
	a.question.Focus()
	a.choices = nil
	for i := 0; i < initialChoiceCount; i++ {
		a.addChoiceField("")
	}
	a.groundTruth = -1
	a.focus = focusQuestion
	a.choiceFocus = 0
}

// loadCurrent refreshes the screen for the unit under the cursor.
func (a *App) loadCurrent() {
	a.resetForm()
	a.refreshAsked()
	a.statusMsg = ""
	a.errMsg = ""
}

// refreshAsked rebuilds the "already asked" panel from the session index.
func (a *App) refreshAsked() {
	a.asked.SetContent(a.askedContent())
	a.asked.GotoTop()
}

func (a *App) askedContent() string {
	existing := a.session.Existing()
	if len(existing) == 0 {
		return "(No existing annotations for this image set.)"
	}
	var b strings.Builder
	for i, rec := range existing {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, rec.Skill, strings.TrimSpace(rec.Question))
		for j, choice := range rec.Choices {
			marker := " "
			if j == rec.GroundTruth {
				marker = "*"
			}
			fmt.Fprintf(&b, "   %s %d: %s\n", marker, j, choice)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// selectedSkill returns the highlighted category.
func (a *App) selectedSkill() string {
	if item, ok := a.skillList.SelectedItem().(skillItem); ok {
		return string(item)
	}
	return ""
}

// submitCurrent validates and persists the form against the current unit.
// Validation failures keep the form intact for correction.
func (a *App) submitCurrent() {
	choices := make([]string, len(a.choices))
	for i := range a.choices {
		choices[i] = a.choices[i].Value()
	}
	rec, err := a.session.Submit(a.selectedSkill(), a.question.Value(), choices, a.groundTruth)
	if err != nil {
		a.errMsg = submitErrorText(err)
		a.statusMsg = ""
		a.book.Warn("submission rejected: %v", err)
		return
	}
	a.book.Info("annotation saved: skill=%s images=%s", rec.Skill, strings.Join(rec.Images, ","))
	a.errMsg = ""
	a.statusMsg = fmt.Sprintf("Saved annotation under %s.", rec.Skill)
	a.resetForm()
	a.refreshAsked()
}

// submitErrorText turns a validation failure into the message shown in the
// status line.
func submitErrorText(err error) string {
	switch {
	case errors.Is(err, annotation.ErrInvalidCategory):
		return "Select a category (skill)."
	case errors.Is(err, annotation.ErrEmptyQuestion):
		return "Enter a question."
	case errors.Is(err, annotation.ErrEmptyChoice):
		return "Fill every choice box; no empty choices."
	case errors.Is(err, annotation.ErrInsufficientChoices):
		return "Provide at least 4 answer choices."
	case errors.Is(err, annotation.ErrInvalidGroundTruth):
		return "Mark exactly one choice as ground truth (ctrl+g)."
	}
	return fmt.Sprintf("Submission failed: %v", err)
}

// View renders the annotation screen.
func (a *App) View() string {
	idx, total := a.session.Position()
	unit := a.session.Current()
	title := titleStyle.Render(fmt.Sprintf("Set %d/%d · %s", idx+1, total, strings.Join(unit, ", ")))

	asked := panelStyle.Render("Already asked (this exact image set)\n\n" + a.asked.View())

	form := a.renderForm()
	skills := a.renderSkills()
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, skills, form)

	var status string
	switch {
	case a.errMsg != "":
		status = statusErStyle.Render(a.errMsg)
	case a.statusMsg != "":
		status = statusOkStyle.Render(a.statusMsg)
	}

	help := helpStyle.Render("pgup/pgdn: prev/next set · tab: move focus · ctrl+g: mark ground truth · ctrl+o: add choice · enter: submit · ctrl+c: quit")

	sections := []string{title, asked, bottom, status, help}
	var tailLevels []logbook.Level
	if a.errMsg != "" {
		tailLevels = []logbook.Level{logbook.LevelWarn, logbook.LevelError}
	}
	if tail := a.book.Tail(3, tailLevels...); len(tail) > 0 {
		sections = append(sections, helpStyle.Render(strings.Join(tail, "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (a *App) renderForm() string {
	var b strings.Builder
	b.WriteString("New annotation\n\n")
	b.WriteString("Question: " + a.question.View() + "\n\n")
	b.WriteString("Choices (at least 4):\n")
	for i := range a.choices {
		marker := "( )"
		if i == a.groundTruth {
			marker = gtMarkStyle.Render("(*)")
		}
		fmt.Fprintf(&b, "%s %s\n", marker, a.choices[i].View())
	}
	style := panelStyle
	if a.focus != focusSkills {
		style = focusedStyle
	}
	return style.Render(b.String())
}

func (a *App) renderSkills() string {
	style := panelStyle
	if a.focus == focusSkills {
		style = focusedStyle
	}
	return style.Render(a.skillList.View())
}
