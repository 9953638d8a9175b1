package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/kingrea/agentlens/internal/scoring"
)

type stubScorer struct {
	scores []float64
}

func (s *stubScorer) ScoreChoices(_ context.Context, _ []string, _ string, _ []string) ([]float64, error) {
	return s.scores, nil
}

func writeProjectConfig(t *testing.T, dataDir, yaml string) {
	t.Helper()
	dot := filepath.Join(dataDir, ".agentlens")
	if err := os.MkdirAll(dot, 0o755); err != nil {
		t.Fatalf("mkdir dot dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dot, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config.yaml: %v", err)
	}
}

func resolveWithArgs(t *testing.T, args []string) scoreSettings {
	t.Helper()
	cmd := newScoreCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	settings, err := resolveScoreSettings(cmd.Flags())
	if err != nil {
		t.Fatalf("resolve settings: %v", err)
	}
	return settings
}

func TestScoreSettingsComeFromProjectConfig(t *testing.T) {
	dataDir := t.TempDir()
	writeProjectConfig(t, dataDir, "version: 1\nscoring:\n  model: custom-vlm\n  checkpoint: ckpt-7\n  output_dir: my-scores\n")

	settings := resolveWithArgs(t, []string{"--data-dir", dataDir, "--image-dir", t.TempDir()})

	if settings.Model != "custom-vlm" {
		t.Fatalf("model = %q, want config value custom-vlm", settings.Model)
	}
	if settings.Checkpoint != "ckpt-7" {
		t.Fatalf("checkpoint = %q, want config value ckpt-7", settings.Checkpoint)
	}
	if settings.OutputDir != "my-scores" {
		t.Fatalf("output dir = %q, want config value my-scores", settings.OutputDir)
	}
	if settings.QuestionTemplate == "" {
		t.Fatal("question template should fall back to the built-in default")
	}
}

func TestScoreFlagsOverrideProjectConfig(t *testing.T) {
	dataDir := t.TempDir()
	writeProjectConfig(t, dataDir, "version: 1\nscoring:\n  model: custom-vlm\n  output_dir: my-scores\n")

	settings := resolveWithArgs(t, []string{
		"--data-dir", dataDir,
		"--image-dir", t.TempDir(),
		"--model", "flag-model",
	})

	if settings.Model != "flag-model" {
		t.Fatalf("model = %q, explicit flag must beat the config", settings.Model)
	}
	if settings.OutputDir != "my-scores" {
		t.Fatalf("output dir = %q, unset flag should keep the config value", settings.OutputDir)
	}
}

func TestScoreSettingsDefaultWithoutConfigFile(t *testing.T) {
	settings := resolveWithArgs(t, []string{"--data-dir", t.TempDir(), "--image-dir", t.TempDir()})
	if settings.Model != "gpt-4o-mini" {
		t.Fatalf("model = %q, want built-in default gpt-4o-mini", settings.Model)
	}
	if settings.OutputDir != "scores" {
		t.Fatalf("output dir = %q, want built-in default scores", settings.OutputDir)
	}
}

func TestScoreConfigModelReachesMetadata(t *testing.T) {
	dataDir := t.TempDir()
	imageDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	writeProjectConfig(t, dataDir, "version: 1\nscoring:\n  model: custom-vlm\n")

	skillDir := filepath.Join(dataDir, "navigation")
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		t.Fatalf("mkdir skill dir: %v", err)
	}
	line := `{"skill":"navigation","images":["a.jpg","b.jpg"],"choices":["1","2","none","both"],"ground_truth":0,"question":"Which agent reached the door?"}` + "\n"
	if err := os.WriteFile(filepath.Join(skillDir, "navigation.jsonl"), []byte(line), 0o644); err != nil {
		t.Fatalf("write jsonl: %v", err)
	}
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if err := os.WriteFile(filepath.Join(imageDir, name), []byte("img"), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}

	settings := resolveWithArgs(t, []string{
		"--data-dir", dataDir,
		"--image-dir", imageDir,
		"--output-dir", outputDir,
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scorer := &stubScorer{scores: []float64{0.7, 0.1, 0.1, 0.1}}
	if err := runScore(context.Background(), logger, settings, scorer); err != nil {
		t.Fatalf("runScore: %v", err)
	}

	path := filepath.Join(outputDir, scoring.OutputFilename("custom-vlm", "", "navigation", "navigation"))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read score file: %v", err)
	}
	var doc scoring.ScoreFile
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode score file: %v", err)
	}
	if doc.Metadata.ModelName != "custom-vlm" {
		t.Fatalf("metadata model = %q, want config value custom-vlm", doc.Metadata.ModelName)
	}
	if len(doc.Scores) != 1 {
		t.Fatalf("got %d scores, want 1", len(doc.Scores))
	}
	if doc.Scores[0].Method != "custom-vlm" {
		t.Fatalf("result method = %q, want custom-vlm", doc.Scores[0].Method)
	}
}
