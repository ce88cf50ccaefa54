// Package loader turns files, directories and storage URLs into documents.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mcncl/jsonsampler/internal/config"
	"github.com/mcncl/jsonsampler/internal/errors"
	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/parser"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// Loader reads sample documents through afs, so any scheme afs knows
// (file://, mem://, ...) works as a location.
type Loader struct {
	fs     afs.Service
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Loader. A nil cfg uses defaults and a nil logger uses
// slog.Default().
func New(cfg *config.Config, logger *slog.Logger) *Loader {
	return NewWithService(afs.New(), cfg, logger)
}

// NewWithService creates a Loader on top of an existing afs service.
func NewWithService(fs afs.Service, cfg *config.Config, logger *slog.Logger) *Loader {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fs: fs, cfg: cfg, logger: logger}
}

// Load reads every location in order. A file is always loaded; a directory
// contributes the files carrying an accepted extension, sorted by name, and
// its sub-directories when recursion is enabled. Malformed JSON produces an
// invalid document rather than an error.
func (l *Loader) Load(ctx context.Context, locations ...string) ([]models.Document, error) {
	if len(locations) == 0 {
		return nil, errors.NewInputError("no locations given", errors.ErrNoInput)
	}

	var docs []models.Document
	for _, location := range locations {
		loaded, err := l.loadLocation(ctx, location)
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}

func (l *Loader) loadLocation(ctx context.Context, location string) ([]models.Document, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.NewInputError("empty location", errors.ErrInvalidFilePath)
	}
	norm, err := normalize(location)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("cannot resolve %s", location), err)
	}

	exists, err := l.fs.Exists(ctx, norm)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("cannot access %s", location), err)
	}
	if !exists {
		return nil, errors.NewInputError(fmt.Sprintf("cannot open %s", location), errors.ErrFileNotFound)
	}

	object, err := l.fs.Object(ctx, norm)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("cannot open %s", location), err)
	}
	if !object.IsDir() {
		doc, err := l.download(ctx, object)
		if err != nil {
			return nil, err
		}
		return []models.Document{doc}, nil
	}
	return l.loadDir(ctx, norm)
}

func (l *Loader) loadDir(ctx context.Context, dirURL string) ([]models.Document, error) {
	objects, err := l.fs.List(ctx, dirURL)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("cannot list %s", url.Path(dirURL)), err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name() < objects[j].Name() })

	var docs []models.Document
	for _, object := range objects {
		if object.IsDir() {
			// afs lists the directory itself alongside its entries
			if samePath(object.URL(), dirURL) || !l.cfg.Input.Recursive {
				continue
			}
			nested, err := l.loadDir(ctx, url.Join(dirURL, object.Name()))
			if err != nil {
				return nil, err
			}
			docs = append(docs, nested...)
			continue
		}
		if !l.cfg.HasExtension(object.Name()) {
			l.logger.Debug("skipping file with unsupported extension", "file", object.Name())
			continue
		}
		doc, err := l.download(ctx, object)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *Loader) download(ctx context.Context, object storage.Object) (models.Document, error) {
	data, err := l.fs.Download(ctx, object)
	if err != nil {
		return models.Document{}, errors.NewInputError(fmt.Sprintf("cannot read %s", object.Name()), err)
	}
	doc := parser.NewDocument(object.Name(), data)
	if !doc.Valid {
		l.logger.Warn("sample is not valid JSON", "file", doc.Name, "error", doc.Error)
	} else {
		l.logger.Debug("loaded sample", "file", doc.Name, "id", doc.ID, "bytes", doc.Size)
	}
	return doc, nil
}

// LoadReader reads a single document, typically stdin.
func (l *Loader) LoadReader(name string, r io.Reader) (models.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Document{}, errors.NewInputError(fmt.Sprintf("cannot read %s", name), err)
	}
	return parser.NewDocument(name, data), nil
}

// normalize turns relative and absolute OS paths into file URLs and leaves
// URLs with a scheme alone.
func normalize(location string) (string, error) {
	norm := location
	if url.Scheme(norm, "") == "" && url.IsRelative(norm) {
		abs, err := filepath.Abs(norm)
		if err != nil {
			return "", err
		}
		norm = abs
	}
	if url.Scheme(norm, "") == "" {
		norm = url.ToFileURL(norm)
	}
	return norm, nil
}

func samePath(a, b string) bool {
	return strings.TrimRight(url.Path(a), "/") == strings.TrimRight(url.Path(b), "/")
}
