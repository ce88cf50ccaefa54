package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/mcncl/jsonsampler/internal/analyzer"
	"github.com/mcncl/jsonsampler/internal/config"
	"github.com/mcncl/jsonsampler/internal/errors"
	"github.com/mcncl/jsonsampler/internal/formatter"
	"github.com/mcncl/jsonsampler/internal/hierarchy"
	"github.com/mcncl/jsonsampler/internal/loader"
	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/selection"
	"github.com/mcncl/jsonsampler/internal/session"
)

// CLI defines the command-line interface
var CLI struct {
	Config  string           `help:"Path to a config file. Defaults to the nearest .jsonsampler.yml." short:"c" type:"path"`
	Debug   bool             `help:"Enable debug logging." short:"d"`
	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Inspect  InspectCmd  `cmd:"" help:"Show the merged structure of sample documents."`
	Template TemplateCmd `cmd:"" help:"Build a JSON template from selected properties."`
}

// Context holds the runtime context shared by every command
type Context struct {
	Debug      bool
	ConfigPath string
	Logger     *slog.Logger
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	cli := kong.Parse(&CLI,
		kong.Name("jsonsampler"),
		kong.Description("Merge sample JSON documents and build templates from the properties you pick"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("jsonsampler version %s", Version)},
	)

	ctx := &Context{
		Debug:      CLI.Debug,
		ConfigPath: CLI.Config,
		Logger:     newLogger(os.Stderr, CLI.Debug),
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
	slog.SetDefault(ctx.Logger)

	if err := cli.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		ctx.Logger.Debug("command failed", "error", err)

		fmt.Fprintf(os.Stderr, "\nFor help, run: jsonsampler --help\n")
		os.Exit(1)
	}
}

// newLogger writes colored logs to w. Warnings and errors only, unless debug is set.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// loadConfig resolves the config file and applies command-line overrides
func loadConfig(ctx *Context, name string, indent int) (*config.Config, error) {
	path := ctx.ConfigPath
	if path == "" {
		path = config.FindConfigFile()
	}
	if path != "" {
		ctx.Logger.Debug("using config file", "path", path)
	}
	cfg, err := config.LoadConfigWithCLI(path, name, indent, nil, ctx.Debug)
	if err != nil {
		return nil, errors.NewInputError("failed to load configuration", err)
	}
	return cfg, nil
}

// loadSession loads every location, or stdin when none is given, into a new session
func loadSession(ctx *Context, cfg *config.Config, locations []string) (*session.Session, error) {
	docs, err := loadDocuments(ctx, cfg, locations)
	if err != nil {
		return nil, err
	}
	s := session.New(cfg, ctx.Logger)
	s.Add(docs...)
	if s.Properties() == nil {
		return nil, errors.NewInputError(fmt.Sprintf("none of %d documents could be parsed", len(docs)), errors.ErrNoValidDocuments)
	}
	return s, nil
}

func loadDocuments(ctx *Context, cfg *config.Config, locations []string) ([]models.Document, error) {
	l := loader.New(cfg, ctx.Logger)
	if len(locations) > 0 {
		return l.Load(context.Background(), locations...)
	}

	if f, ok := ctx.Stdin.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			return nil, errors.NewInputError("failed to access stdin", err)
		}
		if info.Mode()&os.ModeCharDevice != 0 {
			return nil, errors.NewInputError("no input provided", errors.ErrNoInput)
		}
	}
	doc, err := l.LoadReader("stdin", ctx.Stdin)
	if err != nil {
		return nil, err
	}
	return []models.Document{doc}, nil
}

// InspectCmd prints the documents, the merged property tree and a summary
type InspectCmd struct {
	Paths    []string `arg:"" optional:"" help:"Sample files, directories or storage URLs. Reads stdin when omitted."`
	JSON     bool     `help:"Print the merged properties as JSON." short:"j"`
	Type     string   `help:"Only show properties of this type."`
	Status   string   `help:"Only show properties with this status."`
	MaxLevel int      `help:"Only show properties at or above this level; negative shows all." default:"-1"`
	Search   string   `help:"Only show properties whose path or key contains this text."`
	Depth    int      `help:"Expand the tree down to this level; negative expands everything." default:"-1"`
}

func (c *InspectCmd) filter() analyzer.Filter {
	f := analyzer.Filter{
		Type:       models.PropertyType(c.Type),
		Status:     models.Status(c.Status),
		SearchText: c.Search,
	}
	if c.MaxLevel >= 0 {
		level := c.MaxLevel
		f.MaxLevel = &level
	}
	return f
}

// Run executes the inspect command
func (c *InspectCmd) Run(ctx *Context) error {
	cfg, err := loadConfig(ctx, "", 0)
	if err != nil {
		return err
	}
	s, err := loadSession(ctx, cfg, c.Paths)
	if err != nil {
		return err
	}

	properties := s.Properties()
	if f := c.filter(); !f.IsEmpty() {
		properties = f.Apply(properties)
	}

	if c.JSON {
		out, err := formatter.NewFormatterWithIndent(cfg.Template.Indent).Format(properties)
		if err != nil {
			return errors.NewFormatError("failed to encode properties", err)
		}
		return write(ctx.Stdout, out)
	}

	if c.Depth < 0 {
		s.ExpandAll()
	} else {
		s.ExpandToLevel(c.Depth)
	}

	if err := formatter.DocumentTable(ctx.Stdout, s.Documents()); err != nil {
		return errors.NewOutputError("failed to write documents", err)
	}
	fmt.Fprintln(ctx.Stdout)
	if err := formatter.PropertyTable(ctx.Stdout, hierarchy.Tree(properties, s.Expanded())); err != nil {
		return errors.NewOutputError("failed to write properties", err)
	}
	fmt.Fprintln(ctx.Stdout)
	if err := formatter.StatsSummary(ctx.Stdout, analyzer.ComputeStats(properties), s.Documents()); err != nil {
		return errors.NewOutputError("failed to write summary", err)
	}
	return nil
}

// TemplateCmd builds a template from the selected properties
type TemplateCmd struct {
	Paths  []string `arg:"" optional:"" help:"Sample files, directories or storage URLs. Reads stdin when omitted."`
	Select []string `help:"Property path to include, e.g. shipment.packages[0].weight. Repeatable." short:"s"`
	All    bool     `help:"Include every property."`
	Array  []string `help:"Element count for an array, as path=N. Repeatable." short:"a"`
	Output string   `help:"Write the template to this file, or into this directory using the template name." short:"o" type:"path"`
	Name   string   `help:"Template name, used for the output file name." short:"n"`
	Indent int      `help:"Indentation width; 0 uses the configured value."`
	Stats  bool     `help:"Print template statistics and accuracy to stderr."`
}

// Run executes the template command
func (c *TemplateCmd) Run(ctx *Context) error {
	counts, err := parseArrayCounts(c.Array)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx, c.Name, c.Indent)
	if err != nil {
		return err
	}
	s, err := loadSession(ctx, cfg, c.Paths)
	if err != nil {
		return err
	}

	switch {
	case c.All:
		s.SelectAll()
	case len(c.Select) == 0:
		return errors.NewSelectionError("nothing to build", errors.ErrEmptySelection)
	default:
		if err := s.ApplyDelta(c.Select, selection.ModeSelect); err != nil {
			return err
		}
	}

	arrays := make([]string, 0, len(counts))
	for p := range counts {
		arrays = append(arrays, p)
	}
	sort.Strings(arrays)
	for _, p := range arrays {
		if err := s.SetArrayCount(p, counts[p]); err != nil {
			return err
		}
	}

	template, err := s.Template()
	if err != nil {
		return err
	}
	if result := formatter.ValidateTemplate(template); !result.IsValid {
		return errors.NewFormatError(strings.Join(result.Errors, "; "), nil)
	}

	out, err := formatter.NewFormatterWithIndent(cfg.Template.Indent).Format(template)
	if err != nil {
		return errors.NewFormatError("failed to encode template", err)
	}

	if c.Stats {
		report, err := s.Accuracy()
		if err != nil {
			return err
		}
		if err := formatter.TemplateSummary(ctx.Stderr, formatter.Stats(template), report); err != nil {
			return errors.NewOutputError("failed to write summary", err)
		}
	}

	return writeOutput(ctx, cfg, c.Output, out)
}

// parseArrayCounts reads path=N pairs
func parseArrayCounts(pairs []string) (map[string]int, error) {
	counts := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		p, n, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(p) == "" {
			return nil, errors.NewInputError(fmt.Sprintf("invalid array count %q", pair), errors.ErrInvalidArrayCount)
		}
		count, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil || count < 1 {
			return nil, errors.NewInputError(fmt.Sprintf("invalid array count %q", pair), errors.ErrInvalidArrayCount)
		}
		counts[strings.TrimSpace(p)] = count
	}
	return counts, nil
}

// writeOutput writes the template to a file, a directory or stdout
func writeOutput(ctx *Context, cfg *config.Config, output, content string) error {
	if output == "" {
		return write(ctx.Stdout, content)
	}

	if info, err := os.Stat(output); err == nil && info.IsDir() {
		output = filepath.Join(output, cfg.TemplateFileName())
	}
	if err := os.WriteFile(output, []byte(content), 0o644); err != nil {
		return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", output), err)
	}
	fmt.Fprintf(ctx.Stderr, "Template written to %s\n", output)
	return nil
}

func write(w io.Writer, content string) error {
	if _, err := io.WriteString(w, content); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
