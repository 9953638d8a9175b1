package scoring

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kingrea/agentlens/internal/annotation"
)

// Sample is one scorable annotation row; the annotation record schema is
// the scorer's input contract.
type Sample = annotation.Record

// TaskSamples maps a task name (derived from the JSONL file stem) to its
// samples. SkillData maps display skill names to their tasks.
type TaskSamples map[string][]Sample

// SkillData holds every scorable sample, organized skill -> task.
type SkillData map[string]TaskSamples

// LoadBySkill walks dataDir's per-skill subdirectories and loads every
// task JSONL inside them. Skill and task display names swap underscores
// for spaces, mirroring the annotation layout's directory names. When
// onlySkill is non-empty, just that skill's directory is read; a missing
// directory yields empty data rather than an error.
func LoadBySkill(dataDir, onlySkill string) (SkillData, error) {
	data := SkillData{}
	if onlySkill != "" {
		dirName := sanitizeComponent(strings.ReplaceAll(onlySkill, " ", "_"))
		tasks, err := loadSkillDir(filepath.Join(dataDir, dirName))
		if err != nil {
			return nil, err
		}
		if len(tasks) > 0 {
			data[onlySkill] = tasks
		}
		return data, nil
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scoring: read data dir %s: %w", dataDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		tasks, err := loadSkillDir(filepath.Join(dataDir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if len(tasks) == 0 {
			continue
		}
		skillName := strings.ReplaceAll(entry.Name(), "_", " ")
		data[skillName] = tasks
	}
	return data, nil
}

func loadSkillDir(dir string) (TaskSamples, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scoring: read skill dir %s: %w", dir, err)
	}
	tasks := TaskSamples{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		samples, err := annotation.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if len(samples) == 0 {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), ".jsonl")
		taskName := strings.ReplaceAll(stem, "_", " ")
		tasks[taskName] = samples
	}
	return tasks, nil
}

// sanitizeComponent makes a name safe inside a path or filename.
func sanitizeComponent(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return replacer.Replace(name)
}
