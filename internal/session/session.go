// Package session owns the state of one interactive annotation run: the
// image units discovered at startup, the cursor over them, and the
// index/store pair behind submissions. The UI layer holds no annotation
// state of its own; everything it shows comes from here.
package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/kingrea/agentlens/internal/annotation"
	"github.com/kingrea/agentlens/internal/imageset"
)

// ErrNoImageUnits means the image directory produced no comparison units.
// Session start treats this as fatal; there is nothing to annotate.
var ErrNoImageUnits = errors.New("session: no image units found")

// Options configure a session.
type Options struct {
	ImagesDir  string
	AnnRoot    string
	Grouping   imageset.Policy
	ChoiceMode annotation.ChoiceMode
}

// Session is the explicit state object the navigator and submit path share.
type Session struct {
	opts  Options
	units []imageset.Unit
	pos   int
	index *annotation.Index
	store *annotation.Store
}

// New scans the image directory, loads prior annotations, and builds the
// index. Missing root directories and an empty unit list are fatal; a
// session never starts partially.
func New(opts Options) (*Session, error) {
	if err := requireDir(opts.ImagesDir); err != nil {
		return nil, fmt.Errorf("session: images dir: %w", err)
	}
	if err := requireDir(opts.AnnRoot); err != nil {
		return nil, fmt.Errorf("session: annotation root: %w", err)
	}

	units, err := imageset.List(opts.ImagesDir, opts.Grouping)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, ErrNoImageUnits
	}

	records, err := annotation.LoadAll(opts.AnnRoot, annotation.Skills)
	if err != nil {
		return nil, err
	}
	index := annotation.NewIndex(records)
	return &Session{
		opts:  opts,
		units: units,
		index: index,
		store: annotation.NewStore(opts.AnnRoot, opts.ChoiceMode, index),
	}, nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// ImagesDir returns the directory the session's units were scanned from.
func (s *Session) ImagesDir() string {
	return s.opts.ImagesDir
}

// Units returns every unit in session order.
func (s *Session) Units() []imageset.Unit {
	return s.units
}

// Current returns the unit under the cursor.
func (s *Session) Current() imageset.Unit {
	return s.units[s.pos]
}

// Position reports the cursor as (index, total).
func (s *Session) Position() (int, int) {
	return s.pos, len(s.units)
}

// Next advances the cursor, wrapping past the last unit.
func (s *Session) Next() {
	s.pos = (s.pos + 1) % len(s.units)
}

// Prev moves the cursor back, wrapping before the first unit.
func (s *Session) Prev() {
	s.pos = (s.pos - 1 + len(s.units)) % len(s.units)
}

// Existing returns the annotations already recorded against the current
// unit, in the order they were indexed. Identity is canonical, so records
// written with any member ordering are found.
func (s *Session) Existing() []annotation.Record {
	return s.index.Lookup(s.Current())
}

// AnnotationCount returns how many records the index currently holds.
func (s *Session) AnnotationCount() int {
	return s.index.Size()
}

// Submit validates and persists a new annotation against the current unit.
// On success the record is immediately visible to Existing.
func (s *Session) Submit(skill, question string, choices []string, groundTruth int) (annotation.Record, error) {
	return s.store.Submit(skill, question, choices, groundTruth, s.Current())
}
