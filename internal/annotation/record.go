// Package annotation holds the persisted annotation model: the record
// schema, the category-partitioned JSONL store, and the in-memory index
// that joins records to live image units.
package annotation

import (
	"encoding/json"
	"fmt"
)

// Skills is the closed set of category labels. Each category owns one
// subdirectory under the annotation root.
var Skills = []string{
	"occlusion_visibility",
	"distance_awareness",
	"navigation",
	"relative_agents",
	"egocentric_motion",
}

// ValidSkill reports whether skill is a member of the category set.
func ValidSkill(skill string) bool {
	for _, s := range Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// Record is one immutable annotation fact. Records are append-only: once
// written to a category file they are never edited in place.
type Record struct {
	Skill       string   `json:"skill"`
	Images      []string `json:"images"`
	Choices     []string `json:"choices"`
	GroundTruth int      `json:"ground_truth"`
	Question    string   `json:"question"`

	// extra carries fields we do not model. Lines written by other tools
	// may have them; the index keeps them intact rather than stripping.
	extra map[string]json.RawMessage
}

// Extra returns the raw value of an unmodeled field, if the record carried
// one when it was loaded.
func (r Record) Extra(key string) (json.RawMessage, bool) {
	raw, ok := r.extra[key]
	return raw, ok
}

type recordAlias Record

// UnmarshalJSON decodes the known fields and stashes any others so they
// survive a load/display round trip.
func (r *Record) UnmarshalJSON(data []byte) error {
	var known recordAlias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, key := range []string{"skill", "images", "choices", "ground_truth", "question"} {
		delete(all, key)
	}
	*r = Record(known)
	if len(all) > 0 {
		r.extra = all
	}
	return nil
}

// MarshalJSON emits the record as a single JSON object, known fields plus
// any preserved extras.
func (r Record) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(recordAlias(r))
	if err != nil {
		return nil, err
	}
	if len(r.extra) == 0 {
		return data, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, fmt.Errorf("annotation: merge record extras: %w", err)
	}
	for key, raw := range r.extra {
		if _, exists := merged[key]; !exists {
			merged[key] = raw
		}
	}
	return json.Marshal(merged)
}
