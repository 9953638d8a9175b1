package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kingrea/agentlens/internal/config"
	"github.com/kingrea/agentlens/internal/scoring"
)

// scoreSettings are the resolved inputs of one score run: flag values with
// unset flags backfilled from the data root's .agentlens/config.yaml.
type scoreSettings struct {
	Model            string
	Checkpoint       string
	DataDir          string
	ImageDir         string
	Skill            string
	QuestionTemplate string
	OutputDir        string
	CombineTasks     bool
}

// method is the identifier stamped into every result entry.
func (s scoreSettings) method() string {
	if s.Checkpoint != "" {
		return s.Model + "_" + s.Checkpoint
	}
	return s.Model
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score annotated image pairs with a vision-language model",
		Long: `Score walks --data-dir's per-skill subdirectories of annotation JSONL
files, asks the model each question against its image pair, and writes one
score file per task (or per skill with --combine-tasks) under --output-dir.
Model, checkpoint, question template, and output directory default to the
scoring section of <data-dir>/.agentlens/config.yaml; flags override it.
A missing image or a failed model call marks that sample with a default
score and an error note; it never aborts the batch.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := resolveScoreSettings(cmd.Flags())
			if err != nil {
				return err
			}

			apiKey := os.Getenv("OPENAI_API_KEY")
			if apiKey == "" {
				return fmt.Errorf("score: OPENAI_API_KEY environment variable is not set")
			}
			scorer := scoring.NewOpenAIScorer(apiKey, settings.Model, settings.QuestionTemplate)

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			return runScore(cmd.Context(), logger, settings, scorer)
		},
	}

	cmd.Flags().String("model", "", "vision model name (default from config)")
	cmd.Flags().String("checkpoint", "", "optional checkpoint name stamped into metadata")
	cmd.Flags().String("data-dir", "", "directory of per-skill annotation subdirectories")
	cmd.Flags().String("image-dir", "", "base directory the sample image names resolve against")
	cmd.Flags().String("skill", "", "restrict scoring to one skill")
	cmd.Flags().String("question-template", "", "template the sample question is substituted into (default from config)")
	cmd.Flags().String("output-dir", "", "directory score files are written to (default from config)")
	cmd.Flags().Bool("combine-tasks", false, "combine all tasks within a skill into one score file")
	_ = cmd.MarkFlagRequired("data-dir")
	_ = cmd.MarkFlagRequired("image-dir")
	return cmd
}

// resolveScoreSettings merges flag values with the project config found
// under the data directory. A flag the user set always wins; everything
// else falls back to the config's scoring section, which itself carries
// the built-in defaults when no config.yaml exists.
func resolveScoreSettings(flags *pflag.FlagSet) (scoreSettings, error) {
	var s scoreSettings
	s.Model, _ = flags.GetString("model")
	s.Checkpoint, _ = flags.GetString("checkpoint")
	s.DataDir, _ = flags.GetString("data-dir")
	s.ImageDir, _ = flags.GetString("image-dir")
	s.Skill, _ = flags.GetString("skill")
	s.QuestionTemplate, _ = flags.GetString("question-template")
	s.OutputDir, _ = flags.GetString("output-dir")
	s.CombineTasks, _ = flags.GetBool("combine-tasks")

	cfg, err := config.New(s.DataDir)
	if err != nil {
		return s, err
	}
	sc := cfg.Project.Scoring
	if !flags.Changed("model") {
		s.Model = sc.Model
	}
	if !flags.Changed("checkpoint") && sc.Checkpoint != "" {
		s.Checkpoint = sc.Checkpoint
	}
	if !flags.Changed("question-template") {
		s.QuestionTemplate = sc.QuestionTemplate
	}
	if !flags.Changed("output-dir") {
		s.OutputDir = sc.OutputDir
	}
	return s, nil
}

// runScore loads the samples, scores them, and writes the result files.
func runScore(ctx context.Context, logger *slog.Logger, s scoreSettings, scorer scoring.ChoiceScorer) error {
	data, err := scoring.LoadBySkill(s.DataDir, s.Skill)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("score: no samples found under %s", s.DataDir)
	}

	runner := scoring.NewRunner(scorer, s.ImageDir, s.method(), logger)
	for skillName, tasks := range data {
		logger.Info("processing skill", "skill", skillName)
		if s.CombineTasks {
			var all []scoring.Sample
			var taskNames []string
			for taskName, samples := range tasks {
				all = append(all, samples...)
				taskNames = append(taskNames, taskName)
			}
			results := runner.ScoreSamples(ctx, all)
			meta := scoring.NewMetadata(s.Model, s.Checkpoint, skillName, s.ImageDir, s.QuestionTemplate)
			meta.TaskNames = taskNames
			meta.CombinedTasks = true
			path := filepath.Join(s.OutputDir, scoring.OutputFilename(s.Model, s.Checkpoint, skillName, ""))
			if err := scoring.WriteScores(path, meta, results); err != nil {
				return err
			}
			logger.Info("scores saved", "path", path, "samples", len(results))
			continue
		}
		for taskName, samples := range tasks {
			logger.Info("processing task", "task", taskName, "samples", len(samples))
			results := runner.ScoreSamples(ctx, samples)
			meta := scoring.NewMetadata(s.Model, s.Checkpoint, skillName, s.ImageDir, s.QuestionTemplate)
			meta.TaskName = taskName
			path := filepath.Join(s.OutputDir, scoring.OutputFilename(s.Model, s.Checkpoint, skillName, taskName))
			if err := scoring.WriteScores(path, meta, results); err != nil {
				return err
			}
			logger.Info("scores saved", "path", path, "samples", len(results))
		}
	}
	return nil
}
