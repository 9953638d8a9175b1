package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/agentlens/internal/annotation"
	"github.com/kingrea/agentlens/internal/config"
	"github.com/kingrea/agentlens/internal/imageset"
	"github.com/kingrea/agentlens/internal/logbook"
	"github.com/kingrea/agentlens/internal/session"
	"github.com/kingrea/agentlens/internal/tui"
)

func newAnnotateCmd() *cobra.Command {
	var (
		imagesDir  string
		annRoot    string
		grouping   string
		choiceMode string
	)

	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Run an interactive annotation session",
		Long: `Annotate groups images in --images into comparison units, loads every
prior annotation under --ann-root, and opens the annotation screen.
Flags override grouping and choice-mode settings from
<ann-root>/.agentlens/config.yaml.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Both roots must already exist; a session never conjures them.
			for _, dir := range []string{imagesDir, annRoot} {
				if info, err := os.Stat(dir); err != nil || !info.IsDir() {
					return fmt.Errorf("annotate: directory not found: %s", dir)
				}
			}
			if err := config.InitDotDir(annRoot); err != nil {
				return err
			}
			cfg, err := config.New(annRoot)
			if err != nil {
				return err
			}
			policy := cfg.Grouping()
			if grouping != "" {
				policy = imageset.Policy(grouping)
			}
			mode := cfg.ChoiceMode()
			if choiceMode != "" {
				mode = annotation.ChoiceMode(choiceMode)
			}

			sess, err := session.New(session.Options{
				ImagesDir:  imagesDir,
				AnnRoot:    annRoot,
				Grouping:   policy,
				ChoiceMode: mode,
			})
			if err != nil {
				return err
			}
			book, err := logbook.ForRoot(cfg)
			if err != nil {
				return err
			}
			_, total := sess.Position()
			book.Info("session started: %d units, %d prior annotations", total, sess.AnnotationCount())

			p := tea.NewProgram(tui.NewApp(sess, book), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("annotate: run ui: %w", err)
			}
			book.Info("session closed")
			return nil
		},
	}

	cmd.Flags().StringVar(&imagesDir, "images", "", "directory with images named like '0_a.jpg', '0_b.jpg'")
	cmd.Flags().StringVar(&annRoot, "ann-root", "", "annotation root containing per-skill subdirectories")
	cmd.Flags().StringVar(&grouping, "grouping", "", "grouping policy: prefix or pairs (overrides config)")
	cmd.Flags().StringVar(&choiceMode, "choice-mode", "", "choice-count rule: min4 or exact4 (overrides config)")
	_ = cmd.MarkFlagRequired("images")
	_ = cmd.MarkFlagRequired("ann-root")
	return cmd
}
