package annotation

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxLineBytes bounds a single annotation line. Long questions fit with
// plenty of headroom; bufio's default 64k cap does not.
const maxLineBytes = 1 << 20

// LoadAll reads every record under root, visiting categories in the given
// order. A category without a subdirectory or backing file contributes
// nothing. Malformed lines are skipped so one bad row never takes down a
// session load.
func LoadAll(root string, skills []string) ([]Record, error) {
	var records []Record
	for _, skill := range skills {
		path, ok, err := backingFile(root, skill)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, loaded...)
	}
	return records, nil
}

// backingFile locates the JSONL file for a category: `<skill>/<skill>.jsonl`
// when present, otherwise the first *.jsonl found in the subdirectory.
func backingFile(root, skill string) (string, bool, error) {
	dir := filepath.Join(root, skill)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("annotation: read category dir %s: %w", dir, err)
	}

	preferred := skill + ".jsonl"
	first := ""
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		if entry.Name() == preferred {
			return filepath.Join(dir, entry.Name()), true, nil
		}
		if first == "" {
			first = entry.Name()
		}
	}
	if first == "" {
		return "", false, nil
	}
	return filepath.Join(dir, first), true, nil
}

// LoadFile reads one JSONL file with the same tolerance rules as LoadAll:
// blank and malformed lines are skipped, a missing file yields no records.
func LoadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("annotation: open %s: %w", path, err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("annotation: scan %s: %w", path, err)
	}
	return records, nil
}
