package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Metadata describes how a score file was produced.
type Metadata struct {
	ModelName           string   `json:"model_name"`
	Checkpoint          string   `json:"checkpoint,omitempty"`
	SkillName           string   `json:"skill_name"`
	TaskName            string   `json:"task_name,omitempty"`
	TaskNames           []string `json:"task_names,omitempty"`
	CombinedTasks       bool     `json:"combined_tasks"`
	ImageDir            string   `json:"image_dir"`
	QuestionTemplate    string   `json:"question_template"`
	GenerationTimestamp string   `json:"generation_timestamp"`
	MethodType          string   `json:"method_type"`
}

// methodType identifies the scoring approach in every metadata block.
const methodType = "VQAScore_LMM"

// NewMetadata stamps a metadata block with the current time and method.
func NewMetadata(model, checkpoint, skill, imageDir, questionTemplate string) Metadata {
	return Metadata{
		ModelName:           model,
		Checkpoint:          checkpoint,
		SkillName:           skill,
		ImageDir:            imageDir,
		QuestionTemplate:    questionTemplate,
		GenerationTimestamp: time.Now().Format(time.RFC3339),
		MethodType:          methodType,
	}
}

// ScoreFile is the on-disk result document: metadata plus one scored entry
// per sample.
type ScoreFile struct {
	Metadata Metadata `json:"metadata"`
	Scores   []Result `json:"scores"`
}

// WriteScores writes the result document as indented JSON, creating the
// output directory as needed.
func WriteScores(path string, meta Metadata, results []Result) error {
	doc := ScoreFile{Metadata: meta, Scores: results}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("scoring: encode score file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("scoring: ensure output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("scoring: write %s: %w", path, err)
	}
	return nil
}

// OutputFilename derives the score filename from the model, optional
// checkpoint, skill, and optional task, with path-hostile characters
// flattened to underscores.
func OutputFilename(model, checkpoint, skill, task string) string {
	parts := []string{"vqa_retrieval_scores", sanitizeComponent(model)}
	if checkpoint != "" {
		parts = append(parts, sanitizeComponent(checkpoint))
	}
	parts = append(parts, sanitizeComponent(strings.ReplaceAll(skill, " ", "_")))
	if task != "" {
		parts = append(parts, sanitizeComponent(strings.ReplaceAll(task, " ", "_")))
	}
	return strings.Join(parts, "_") + ".json"
}
