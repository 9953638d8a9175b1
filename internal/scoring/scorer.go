// Package scoring runs vision-language models over annotated image pairs
// and writes per-choice score files. The annotation store's record schema
// (images, question, choices, ground_truth) is exactly the input contract
// here; ground_truth is the label each scored sample is evaluated against.
package scoring

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ChoiceScorer produces one numeric score per answer choice for a question
// about a set of images.
type ChoiceScorer interface {
	ScoreChoices(ctx context.Context, imagePaths []string, question string, choices []string) ([]float64, error)
}

// OpenAIScorer scores choices with a vision chat model, deriving one
// probability per choice from the top token log-probs of the first answer
// token.
type OpenAIScorer struct {
	client           *openai.Client
	model            string
	questionTemplate string
}

// NewOpenAIScorer builds a scorer for the given model. The question
// template is applied with the sample's question substituted for "{}".
func NewOpenAIScorer(apiKey, model, questionTemplate string) *OpenAIScorer {
	return &OpenAIScorer{
		client:           openai.NewClient(apiKey),
		model:            model,
		questionTemplate: questionTemplate,
	}
}

// Model returns the model identifier the scorer calls.
func (s *OpenAIScorer) Model() string {
	return s.model
}

// ScoreChoices sends the images and templated question in one vision
// request and maps each choice to the probability of its token among the
// model's top log-probs. A choice the model never surfaced scores zero.
func (s *OpenAIScorer) ScoreChoices(ctx context.Context, imagePaths []string, question string, choices []string) ([]float64, error) {
	parts := make([]openai.ChatMessagePart, 0, len(imagePaths)+1)
	for _, path := range imagePaths {
		url, err := imageDataURL(path)
		if err != nil {
			return nil, err
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    url,
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	prompt := strings.Replace(s.questionTemplate, "{}", question, 1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: prompt,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		MaxTokens:   4,
		LogProbs:    true,
		TopLogProbs: 20,
	})
	if err != nil {
		return nil, fmt.Errorf("scoring: model call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("scoring: model returned no choices")
	}
	lp := resp.Choices[0].LogProbs
	if lp == nil || len(lp.Content) == 0 {
		return nil, fmt.Errorf("scoring: model returned no log probs")
	}
	return mapChoiceProbs(lp.Content[0], choices), nil
}

// mapChoiceProbs matches each answer choice against the candidate tokens
// for the first generated position.
func mapChoiceProbs(first openai.LogProb, choices []string) []float64 {
	probs := map[string]float64{}
	record := func(token string, logProb float64) {
		norm := strings.ToLower(strings.TrimSpace(token))
		if norm == "" {
			return
		}
		if p := math.Exp(logProb); p > probs[norm] {
			probs[norm] = p
		}
	}
	record(first.Token, first.LogProb)
	for _, top := range first.TopLogProbs {
		record(top.Token, top.LogProb)
	}

	scores := make([]float64, len(choices))
	for i, choice := range choices {
		scores[i] = probs[strings.ToLower(strings.TrimSpace(choice))]
	}
	return scores
}

func imageDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("scoring: read image %s: %w", path, err)
	}
	mime := "image/jpeg"
	if strings.EqualFold(filepath.Ext(path), ".png") {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}
