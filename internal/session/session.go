// Package session holds the state of one sampling session: the loaded
// documents, the merged property map, the expansion state, the selection and
// the array counts. It is not safe for concurrent use.
package session

import (
	"fmt"
	"log/slog"

	"github.com/mcncl/jsonsampler/internal/analyzer"
	"github.com/mcncl/jsonsampler/internal/config"
	"github.com/mcncl/jsonsampler/internal/errors"
	"github.com/mcncl/jsonsampler/internal/formatter"
	"github.com/mcncl/jsonsampler/internal/generator"
	"github.com/mcncl/jsonsampler/internal/hierarchy"
	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/selection"
)

// Session ties the core operations together. The property map is rebuilt
// from scratch whenever the document set changes.
type Session struct {
	cfg       *config.Config
	logger    *slog.Logger
	analyzer  *analyzer.Analyzer
	generator *generator.Generator

	docs        []models.Document
	properties  models.PropertyMap
	selected    models.PathSet
	expanded    models.PathSet
	arrayCounts map[string]int
}

// New creates an empty session. A nil cfg uses defaults and a nil logger
// uses slog.Default().
func New(cfg *config.Config, logger *slog.Logger) *Session {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:         cfg,
		logger:      logger,
		analyzer:    analyzer.NewAnalyzerWithLogger(logger),
		generator:   generator.NewGeneratorWithConfig(cfg, logger),
		selected:    models.NewPathSet(),
		expanded:    models.NewPathSet(),
		arrayCounts: make(map[string]int),
	}
}

// Add appends documents in order and rebuilds the property map.
func (s *Session) Add(docs ...models.Document) {
	if len(docs) == 0 {
		return
	}
	s.docs = append(s.docs, docs...)
	s.rebuild()
}

// Remove drops the document with the given ID. It reports whether a
// document was removed.
func (s *Session) Remove(id string) bool {
	for i, doc := range s.docs {
		if doc.ID == id {
			s.docs = append(s.docs[:i:i], s.docs[i+1:]...)
			s.rebuild()
			return true
		}
	}
	return false
}

// Clear drops every document, which also clears the selection.
func (s *Session) Clear() {
	s.docs = nil
	s.rebuild()
}

// Documents returns the loaded documents in load order.
func (s *Session) Documents() []models.Document {
	out := make([]models.Document, len(s.docs))
	copy(out, s.docs)
	return out
}

// Properties returns the merged property map, or nil when no valid
// document is loaded.
func (s *Session) Properties() models.PropertyMap {
	return s.properties
}

func (s *Session) rebuild() {
	s.properties = s.analyzer.Merge(s.docs)
	if s.properties == nil {
		s.expanded = models.NewPathSet()
		s.selected = models.NewPathSet()
		s.arrayCounts = make(map[string]int)
		return
	}

	level := s.cfg.Expansion.InitialLevel
	hierarchy.Decorate(s.properties, level)
	s.expanded = hierarchy.InitialExpanded(s.properties, level)

	before := len(s.selected)
	s.selected = selection.Prune(s.selected, s.properties)
	if dropped := before - len(s.selected); dropped > 0 {
		s.logger.Debug("dropped selected paths no longer present", "count", dropped)
	}
	for p := range s.arrayCounts {
		if s.properties[p] == nil {
			delete(s.arrayCounts, p)
		}
	}
}

// Selection returns a copy of the current selection.
func (s *Session) Selection() models.PathSet {
	return s.selected.Clone()
}

// Toggle flips one path. Paths the property map does not contain are
// rejected.
func (s *Session) Toggle(p string) error {
	if err := s.checkKnown(p); err != nil {
		return err
	}
	s.selected = selection.Toggle(p, s.selected, s.properties)
	return nil
}

// ApplyDelta selects or deselects several paths as one change. Nothing
// changes when any path is unknown.
func (s *Session) ApplyDelta(paths []string, mode selection.Mode) error {
	if err := s.checkKnown(paths...); err != nil {
		return err
	}
	s.selected = selection.ApplyDelta(paths, mode, s.selected, s.properties)
	s.logger.Debug("applied selection change", "mode", mode.String(), "paths", len(paths), "selected", len(s.selected))
	return nil
}

func (s *Session) checkKnown(paths ...string) error {
	for _, p := range paths {
		if s.properties[p] == nil {
			return errors.NewSelectionError(fmt.Sprintf("cannot select %q", p), errors.ErrUnknownPath)
		}
	}
	return nil
}

// SelectAll selects every property.
func (s *Session) SelectAll() {
	s.selected = selection.SelectAll(s.properties)
}

// ClearSelection deselects everything.
func (s *Session) ClearSelection() {
	s.selected = models.NewPathSet()
}

// IsIndeterminate reports whether some but not all properties below p are selected.
func (s *Session) IsIndeterminate(p string) bool {
	return selection.IsIndeterminate(p, s.selected, s.properties)
}

// SelectionInfo summarizes the current selection.
func (s *Session) SelectionInfo() selection.Info {
	return selection.Describe(s.selected, s.properties)
}

// SetArrayCount sets the element count for the array at p, clamped to the
// configured bounds.
func (s *Session) SetArrayCount(p string, n int) error {
	prop := s.properties[p]
	if prop == nil {
		return errors.NewSelectionError(fmt.Sprintf("cannot set count for %q", p), errors.ErrUnknownPath)
	}
	if prop.Type != models.TypeArray && !hierarchy.IsArrayParent(p, s.properties) {
		return errors.NewSelectionError(fmt.Sprintf("%q is a %s, not an array", p, prop.Type), errors.ErrInvalidArrayCount)
	}
	s.arrayCounts[p] = s.cfg.ClampCount(n)
	return nil
}

// ResetArrayCounts drops every count set with SetArrayCount.
func (s *Session) ResetArrayCounts() {
	s.arrayCounts = make(map[string]int)
}

// ArrayConfig derives the array configuration for the current selection.
func (s *Session) ArrayConfig() models.ArrayConfig {
	return s.generator.DeriveArrayConfig(s.selected, s.arrayCounts)
}

// Template synthesizes the template for the current selection with its
// arrays expanded.
func (s *Session) Template() (models.JSONValue, error) {
	if len(models.ValidDocuments(s.docs)) == 0 {
		return nil, errors.NewGenerateError("cannot build template", errors.ErrNoValidDocuments)
	}
	if len(s.selected) == 0 {
		return nil, errors.NewGenerateError("cannot build template", errors.ErrEmptySelection)
	}
	return s.generator.SynthesizeWithArrays(s.selected, s.docs, s.ArrayConfig()), nil
}

// Accuracy compares the current selection with the template built from it.
func (s *Session) Accuracy() (formatter.AccuracyReport, error) {
	template, err := s.Template()
	if err != nil {
		return formatter.AccuracyReport{}, err
	}
	return formatter.Accuracy(s.selected, template), nil
}

// Expanded returns a copy of the expansion state.
func (s *Session) Expanded() models.PathSet {
	return s.expanded.Clone()
}

// ToggleExpanded expands or collapses p.
func (s *Session) ToggleExpanded(p string) {
	s.expanded = hierarchy.ToggleExpansion(p, s.expanded)
}

// ExpandAll expands every parent property.
func (s *Session) ExpandAll() {
	s.expanded = hierarchy.ExpandAll(s.properties)
}

// CollapseAll collapses everything below the root.
func (s *Session) CollapseAll() {
	s.expanded = hierarchy.CollapseAll()
}

// ExpandToLevel expands every parent at or above level.
func (s *Session) ExpandToLevel(level int) {
	s.expanded = hierarchy.ExpandToLevel(s.properties, level)
}

// Tree returns the visible nodes.
func (s *Session) Tree() []hierarchy.Node {
	return hierarchy.Tree(s.properties, s.expanded)
}

// Stats summarizes the property map; nil when it is empty.
func (s *Session) Stats() *analyzer.Stats {
	return analyzer.ComputeStats(s.properties)
}
