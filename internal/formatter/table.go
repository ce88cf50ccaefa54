package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mcncl/jsonsampler/internal/analyzer"
	"github.com/mcncl/jsonsampler/internal/hierarchy"
	"github.com/mcncl/jsonsampler/internal/models"
)

const maxExampleWidth = 40

// PropertyTable writes the visible tree as an aligned table. Parents are
// marked "+" when collapsed and "-" when expanded.
func PropertyTable(w io.Writer, nodes []hierarchy.Node) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROPERTY\tTYPE\tFREQ\tSTATUS\tEXAMPLE")
	for _, node := range nodes {
		marker := " "
		if node.HasChildren {
			marker = "+"
			if node.IsExpanded {
				marker = "-"
			}
		}
		label := strings.Repeat("  ", node.ViewLevel) + marker + " " + node.Key
		if node.IsArrayParent {
			label += "[]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			label, node.Type, node.FrequencyText, node.Status, example(node.Property))
	}
	return tw.Flush()
}

// example renders the first captured value of a leaf
func example(prop *models.Property) string {
	if len(prop.Examples) == 0 {
		return ""
	}
	switch prop.Examples[0].Value.(type) {
	case map[string]any, []any:
		return ""
	}
	data, err := json.Marshal(prop.Examples[0].Value)
	if err != nil {
		return ""
	}
	s := string(data)
	if len(s) > maxExampleWidth {
		s = s[:maxExampleWidth-3] + "..."
	}
	return s
}

// DocumentTable lists loaded documents with their size, validity and age.
func DocumentTable(w io.Writer, docs []models.Document) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tSIZE\tSTATUS\tLOADED")
	for _, doc := range docs {
		status := "valid"
		if !doc.Valid {
			status = "invalid: " + doc.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			doc.Name, humanize.Bytes(uint64(doc.Size)), status, humanize.Time(doc.LoadedAt))
	}
	return tw.Flush()
}

// StatsSummary writes a short summary of a merge.
func StatsSummary(w io.Writer, stats *analyzer.Stats, docs []models.Document) error {
	valid := len(models.ValidDocuments(docs))
	if _, err := fmt.Fprintf(w, "%s documents (%s valid)\n",
		humanize.Comma(int64(len(docs))), humanize.Comma(int64(valid))); err != nil {
		return err
	}
	if stats == nil {
		_, err := fmt.Fprintln(w, "no properties")
		return err
	}

	types := make([]string, 0, len(stats.TypeDistribution))
	for t, n := range stats.TypeDistribution {
		types = append(types, fmt.Sprintf("%s=%d", t, n))
	}
	sort.Strings(types)

	_, err := fmt.Fprintf(w, "%s properties: %d required, %d optional, %d conflicting, max depth %d\ntypes: %s\n",
		humanize.Comma(int64(stats.TotalProperties)),
		stats.RequiredProperties, stats.OptionalProperties, stats.ConflictProperties,
		stats.MaxDepth, strings.Join(types, " "))
	return err
}

// TemplateSummary writes the template stats and accuracy on one line each.
func TemplateSummary(w io.Writer, stats TemplateStats, report AccuracyReport) error {
	_, err := fmt.Fprintf(w, "template: %d properties (%d objects, %d arrays, %d values), depth %d, %s\naccuracy: %.1f%% (%d missing, %d extra)\n",
		stats.TotalProperties, stats.ObjectProperties, stats.ArrayProperties, stats.PrimitiveProperties,
		stats.Depth, humanize.Bytes(uint64(stats.EstimatedSize)),
		report.Accuracy, len(report.Missing), len(report.Extra))
	return err
}
