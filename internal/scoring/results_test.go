package scoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFilename(t *testing.T) {
	got := OutputFilename("gpt-4o", "", "relative agents", "")
	assert.Equal(t, "vqa_retrieval_scores_gpt-4o_relative_agents.json", got)

	got = OutputFilename("org/model:v2", "ckpt/1", "navigation", "indoor scenes")
	assert.Equal(t, "vqa_retrieval_scores_org_model_v2_ckpt_1_navigation_indoor_scenes.json", got)
}

func TestWriteScoresRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "scores.json")
	meta := NewMetadata("gpt-4o", "", "navigation", "/imgs", "{}")
	results := []Result{{
		Agent1Image: "0_a.jpg",
		Agent2Image: "0_b.jpg",
		Question:    "who leads?",
		Method:      "gpt-4o",
		Agent1Score: 0.9,
		GroundTruth: 0,
	}}

	require.NoError(t, WriteScores(path, meta, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc ScoreFile
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "gpt-4o", doc.Metadata.ModelName)
	assert.Equal(t, "VQAScore_LMM", doc.Metadata.MethodType)
	assert.NotEmpty(t, doc.Metadata.GenerationTimestamp)
	require.Len(t, doc.Scores, 1)
	assert.Equal(t, 0.9, doc.Scores[0].Agent1Score)
	assert.Empty(t, doc.Scores[0].Error)
}

func TestLoadBySkillOrganizesByDirectoryAndFile(t *testing.T) {
	dataDir := t.TempDir()
	line := `{"skill":"navigation","images":["0_a.jpg","0_b.jpg"],"choices":["1","2","none","both"],"ground_truth":0,"question":"q"}` + "\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "relative_agents"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "relative_agents", "indoor_scenes.jsonl"), []byte(line), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "relative_agents", "outdoor_scenes.jsonl"), []byte(line+line), 0o644))

	data, err := LoadBySkill(dataDir, "")
	require.NoError(t, err)
	require.Contains(t, data, "relative agents")
	tasks := data["relative agents"]
	assert.Len(t, tasks["indoor scenes"], 1)
	assert.Len(t, tasks["outdoor scenes"], 2)
}

func TestLoadBySkillSpecificSkillFilter(t *testing.T) {
	dataDir := t.TempDir()
	line := `{"skill":"navigation","images":["0_a.jpg","0_b.jpg"],"choices":["1","2","none","both"],"ground_truth":0,"question":"q"}` + "\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "navigation"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "navigation", "navigation.jsonl"), []byte(line), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "distance_awareness"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "distance_awareness", "distance_awareness.jsonl"), []byte(line), 0o644))

	data, err := LoadBySkill(dataDir, "navigation")
	require.NoError(t, err)
	require.Len(t, data, 1)
	require.Contains(t, data, "navigation")
}

func TestLoadBySkillMissingFilteredSkillYieldsEmpty(t *testing.T) {
	data, err := LoadBySkill(t.TempDir(), "navigation")
	require.NoError(t, err)
	assert.Empty(t, data)
}
