package annotation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Validation failures, in the order Submit checks them.
var (
	ErrInvalidCategory     = errors.New("annotation: skill is not a known category")
	ErrEmptyQuestion       = errors.New("annotation: question is empty")
	ErrEmptyChoice         = errors.New("annotation: choice is empty")
	ErrInsufficientChoices = errors.New("annotation: not enough choices")
	ErrInvalidGroundTruth  = errors.New("annotation: ground truth index out of range")
)

// ChoiceMode controls the choice-count rule. The set-of-N annotator accepts
// four or more choices; the strict-pair annotator requires exactly four.
type ChoiceMode string

const (
	ChoiceMin4   ChoiceMode = "min4"
	ChoiceExact4 ChoiceMode = "exact4"
)

// Valid reports whether m names a known choice mode.
func (m ChoiceMode) Valid() bool {
	return m == ChoiceMin4 || m == ChoiceExact4
}

// minimumChoices is the floor both modes share.
const minimumChoices = 4

// Store validates and appends records to the category-partitioned
// annotation root. Each submission opens, appends, and closes the backing
// file on its own; a single interactive session owns the root at a time.
type Store struct {
	root  string
	mode  ChoiceMode
	index *Index
}

// NewStore builds a store writing under root. Successful submissions are
// registered with index so lookups see them without re-reading disk.
func NewStore(root string, mode ChoiceMode, index *Index) *Store {
	return &Store{root: root, mode: mode, index: index}
}

// PathFor returns the backing file a category's records are appended to.
func (s *Store) PathFor(skill string) string {
	return filepath.Join(s.root, skill, skill+".jsonl")
}

// Submit validates the candidate and, if it passes, appends it as one JSON
// line to the category file and updates the index. Validation fails fast on
// the first violated rule and leaves both disk and index untouched. A disk
// failure after validation also leaves the index untouched, so the index
// never shows a record the store did not accept.
func (s *Store) Submit(skill, question string, choices []string, groundTruth int, images []string) (Record, error) {
	if !ValidSkill(skill) {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidCategory, skill)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Record{}, ErrEmptyQuestion
	}
	trimmed := make([]string, len(choices))
	for i, choice := range choices {
		trimmed[i] = strings.TrimSpace(choice)
		if trimmed[i] == "" {
			return Record{}, fmt.Errorf("%w (position %d)", ErrEmptyChoice, i)
		}
	}
	switch s.mode {
	case ChoiceExact4:
		if len(trimmed) != minimumChoices {
			return Record{}, fmt.Errorf("%w: need exactly %d, have %d", ErrInsufficientChoices, minimumChoices, len(trimmed))
		}
	default:
		if len(trimmed) < minimumChoices {
			return Record{}, fmt.Errorf("%w: need at least %d, have %d", ErrInsufficientChoices, minimumChoices, len(trimmed))
		}
	}
	if groundTruth < 0 || groundTruth >= len(trimmed) {
		return Record{}, fmt.Errorf("%w: %d with %d choices", ErrInvalidGroundTruth, groundTruth, len(trimmed))
	}

	rec := Record{
		Skill:       skill,
		Images:      append([]string(nil), images...),
		Choices:     trimmed,
		GroundTruth: groundTruth,
		Question:    question,
	}
	if err := s.appendLine(skill, rec); err != nil {
		return Record{}, err
	}
	s.index.Add(rec)
	return rec, nil
}

func (s *Store) appendLine(skill string, rec Record) error {
	dir := filepath.Join(s.root, skill)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("annotation: ensure category dir %s: %w", dir, err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("annotation: encode record: %w", err)
	}
	path := s.PathFor(skill)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("annotation: open %s: %w", path, err)
	}
	defer file.Close()
	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("annotation: append to %s: %w", path, err)
	}
	return nil
}
