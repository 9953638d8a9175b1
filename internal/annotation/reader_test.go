package annotation

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCategory(t *testing.T, root, skill, filename, content string) string {
	t.Helper()
	dir := filepath.Join(root, skill)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAllSkipsMalformedLines(t *testing.T) {
	root := t.TempDir()
	writeCategory(t, root, "navigation", "navigation.jsonl",
		"{not json\n"+
			`{"skill":"navigation","images":["0_a.jpg","0_b.jpg"],"choices":["a","b","c","d"],"ground_truth":0,"question":"first"}`+"\n"+
			`{"skill":"navigation","images":["1_a.jpg","1_b.jpg"],"choices":["a","b","c","d"],"ground_truth":1,"question":"second"}`+"\n")

	records, err := LoadAll(root, Skills)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Question != "first" || records[1].Question != "second" {
		t.Fatalf("records out of order: %v", records)
	}
}

func TestLoadAllPrefersCanonicalFilename(t *testing.T) {
	root := t.TempDir()
	writeCategory(t, root, "navigation", "aaa_old.jsonl",
		`{"skill":"navigation","images":["9_a.jpg"],"choices":["a","b","c","d"],"ground_truth":0,"question":"stale"}`+"\n")
	writeCategory(t, root, "navigation", "navigation.jsonl",
		`{"skill":"navigation","images":["0_a.jpg"],"choices":["a","b","c","d"],"ground_truth":0,"question":"canonical"}`+"\n")

	records, err := LoadAll(root, []string{"navigation"})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) != 1 || records[0].Question != "canonical" {
		t.Fatalf("records = %v, want only the canonical file's record", records)
	}
}

func TestLoadAllFallsBackToFirstJSONL(t *testing.T) {
	root := t.TempDir()
	writeCategory(t, root, "navigation", "export.jsonl",
		`{"skill":"navigation","images":["0_a.jpg"],"choices":["a","b","c","d"],"ground_truth":0,"question":"fallback"}`+"\n")

	records, err := LoadAll(root, []string{"navigation"})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) != 1 || records[0].Question != "fallback" {
		t.Fatalf("records = %v", records)
	}
}

func TestLoadAllMissingCategoryContributesNothing(t *testing.T) {
	root := t.TempDir()
	records, err := LoadAll(root, Skills)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %v, want none", records)
	}
}

func TestLoadAllOrdersByCategoryList(t *testing.T) {
	root := t.TempDir()
	writeCategory(t, root, "egocentric_motion", "egocentric_motion.jsonl",
		`{"skill":"egocentric_motion","images":["0_a.jpg"],"choices":["a","b","c","d"],"ground_truth":0,"question":"late"}`+"\n")
	writeCategory(t, root, "occlusion_visibility", "occlusion_visibility.jsonl",
		`{"skill":"occlusion_visibility","images":["0_a.jpg"],"choices":["a","b","c","d"],"ground_truth":0,"question":"early"}`+"\n")

	records, err := LoadAll(root, Skills)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	// occlusion_visibility precedes egocentric_motion in the category list.
	if records[0].Question != "early" || records[1].Question != "late" {
		t.Fatalf("records out of category order: %v", records)
	}
}
