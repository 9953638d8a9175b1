package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/agentlens/internal/annotation"
	"github.com/kingrea/agentlens/internal/imageset"
	"github.com/kingrea/agentlens/internal/logbook"
	"github.com/kingrea/agentlens/internal/session"
)

func newTestApp(t *testing.T, images ...string) *App {
	t.Helper()
	imagesDir := t.TempDir()
	annRoot := t.TempDir()
	for _, name := range images {
		if err := os.WriteFile(filepath.Join(imagesDir, name), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	sess, err := session.New(session.Options{
		ImagesDir:  imagesDir,
		AnnRoot:    annRoot,
		Grouping:   imageset.PolicyPrefix,
		ChoiceMode: annotation.ChoiceMin4,
	})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	book, err := logbook.New(filepath.Join(annRoot, "session.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	return NewApp(sess, book)
}

func fillForm(app *App, question string, choices []string, groundTruth int) {
	app.question.SetValue(question)
	for len(app.choices) < len(choices) {
		app.addChoiceField("")
	}
	for i, choice := range choices {
		app.choices[i].SetValue(choice)
	}
	app.groundTruth = groundTruth
}

func TestSubmitSuccessRefreshesAskedPanel(t *testing.T) {
	app := newTestApp(t, "0_a.jpg", "0_b.jpg")
	fillForm(app, "who leads?", []string{"1", "2", "none", "both"}, 0)

	app.submitCurrent()
	if app.errMsg != "" {
		t.Fatalf("errMsg = %q, want empty", app.errMsg)
	}
	if !strings.Contains(app.statusMsg, "Saved annotation") {
		t.Fatalf("statusMsg = %q", app.statusMsg)
	}
	if got := app.askedContent(); !strings.Contains(got, "who leads?") {
		t.Fatalf("asked panel missing new record: %q", got)
	}
	// The form resets after a save.
	if app.question.Value() != "" || len(app.choices) != initialChoiceCount {
		t.Fatalf("form not reset: question=%q choices=%d", app.question.Value(), len(app.choices))
	}
}

func TestSubmitValidationFailurePreservesForm(t *testing.T) {
	app := newTestApp(t, "0_a.jpg", "0_b.jpg")
	fillForm(app, "who leads?", []string{"1", "2", "none", "both"}, -1)

	app.submitCurrent()
	if !strings.Contains(app.errMsg, "ground truth") {
		t.Fatalf("errMsg = %q", app.errMsg)
	}
	// Form state survives for correction.
	if app.question.Value() != "who leads?" {
		t.Fatalf("question lost: %q", app.question.Value())
	}
	if app.session.AnnotationCount() != 0 {
		t.Fatalf("index grew on rejected submission")
	}
}

func TestNavigationKeysCycleUnits(t *testing.T) {
	app := newTestApp(t, "0_a.jpg", "0_b.jpg", "1_a.jpg", "1_b.jpg")
	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	app = model.(*App)
	if pos, _ := app.session.Position(); pos != 1 {
		t.Fatalf("pos after pgdown = %d, want 1", pos)
	}
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	app = model.(*App)
	if pos, _ := app.session.Position(); pos != 0 {
		t.Fatalf("pos after wrap = %d, want 0", pos)
	}
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	app = model.(*App)
	if pos, _ := app.session.Position(); pos != 1 {
		t.Fatalf("pos after pgup = %d, want 1", pos)
	}
}

func TestAddChoiceKeyGrowsForm(t *testing.T) {
	app := newTestApp(t, "0_a.jpg", "0_b.jpg")
	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	app = model.(*App)
	if len(app.choices) != initialChoiceCount+1 {
		t.Fatalf("len(choices) = %d, want %d", len(app.choices), initialChoiceCount+1)
	}
}

func TestViewShowsUnitPosition(t *testing.T) {
	app := newTestApp(t, "0_a.jpg", "0_b.jpg", "1_a.jpg", "1_b.jpg")
	view := app.View()
	if !strings.Contains(view, "Set 1/2 · 0_a.jpg, 0_b.jpg") {
		t.Fatalf("view missing set title:\n%s", view)
	}
}
