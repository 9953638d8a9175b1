package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ChoiceSet is the fixed four-way answer vocabulary for paired-agent
// questions: first agent, second agent, neither, both.
var ChoiceSet = []string{"1", "2", "none", "both"}

// defaultScore is the sentinel assigned to every choice of a sample that
// could not be scored.
const defaultScore = 0.0

// Result is one scored sample in the output file schema.
type Result struct {
	Agent1Image  string  `json:"agent1_image"`
	Agent2Image  string  `json:"agent2_image"`
	Question     string  `json:"question"`
	Method       string  `json:"method"`
	Agent1Score  float64 `json:"agent1_score"`
	Agent2Score  float64 `json:"agent2_score"`
	NeitherScore float64 `json:"neither_score"`
	BothScore    float64 `json:"both_score"`
	GroundTruth  int     `json:"ground_truth"`
	Error        string  `json:"error,omitempty"`
}

// Runner scores batches of paired-image annotations. One bad sample never
// aborts a batch: missing media and model failures get the sentinel score
// and an error note, and the batch moves on.
type Runner struct {
	scorer   ChoiceScorer
	imageDir string
	method   string
	logger   *slog.Logger
}

// NewRunner builds a runner resolving sample image names against imageDir.
// The method string is stamped into every result.
func NewRunner(scorer ChoiceScorer, imageDir, method string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{scorer: scorer, imageDir: imageDir, method: method, logger: logger}
}

// ScoreSamples scores every sample and returns one result per sample, in
// input order.
func (r *Runner) ScoreSamples(ctx context.Context, samples []Sample) []Result {
	results := make([]Result, 0, len(samples))
	for _, sample := range samples {
		results = append(results, r.scoreOne(ctx, sample))
	}
	return results
}

func (r *Runner) scoreOne(ctx context.Context, sample Sample) Result {
	result := Result{
		Question:    sample.Question,
		Method:      r.method,
		GroundTruth: sample.GroundTruth,
	}
	if len(sample.Images) >= 1 {
		result.Agent1Image = sample.Images[0]
	}
	if len(sample.Images) >= 2 {
		result.Agent2Image = sample.Images[1]
	}
	if len(sample.Images) != 2 {
		return r.failed(result, fmt.Sprintf("sample references %d images, want 2", len(sample.Images)))
	}

	paths := []string{
		filepath.Join(r.imageDir, sample.Images[0]),
		filepath.Join(r.imageDir, sample.Images[1]),
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			r.logger.Warn("image not found", "path", path)
			return r.failed(result, fmt.Sprintf("image file not found: %s", path))
		}
	}

	scores, err := r.scorer.ScoreChoices(ctx, paths, sample.Question, ChoiceSet)
	if err != nil {
		r.logger.Warn("scoring sample failed", "error", err)
		return r.failed(result, err.Error())
	}
	if len(scores) != len(ChoiceSet) {
		return r.failed(result, fmt.Sprintf("scorer returned %d scores, want %d", len(scores), len(ChoiceSet)))
	}
	result.Agent1Score = scores[0]
	result.Agent2Score = scores[1]
	result.NeitherScore = scores[2]
	result.BothScore = scores[3]
	return result
}

// failed fills the sentinel scores and the error note on a result.
func (r *Runner) failed(result Result, note string) Result {
	result.Error = note
	result.Agent1Score = defaultScore
	result.Agent2Score = defaultScore
	result.NeitherScore = defaultScore
	result.BothScore = defaultScore
	return result
}
