package analyzer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/mcncl/jsonsampler/internal/models"
	"github.com/mcncl/jsonsampler/internal/path"
)

// MaxExamples is how many sample values a property keeps.
const MaxExamples = 3

// Regex patterns for string subtypes, checked most specific first.
var (
	dateRegex   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)
	emailRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	schemeRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*$`)
)

// VisitFunc receives one property position during traversal.
type VisitFunc func(p path.Path, value models.JSONValue, key string, level int)

// Traverse walks value and calls visit for every object member it finds.
// Arrays are sampled through their first element only: an array of objects
// is treated as one object living one level deeper, behind the element
// marker. Empty arrays and arrays of scalars are leaves.
func Traverse(value models.JSONValue, prefix path.Path, visit VisitFunc) {
	switch v := value.(type) {
	case nil:
		return
	case models.JSONObject:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			child := v[key]
			p := prefix.Child(key)
			visit(p, child, key, p.Level())
			if isContainer(child) {
				Traverse(child, p, visit)
			}
		}
	case models.JSONArray:
		if len(v) == 0 {
			return
		}
		if first := v[0]; isContainer(first) {
			Traverse(first, prefix.Element(), visit)
		}
	}
}

func isContainer(v models.JSONValue) bool {
	switch v.(type) {
	case models.JSONObject, models.JSONArray:
		return true
	}
	return false
}

// DetectType classifies a JSON value. Strings are checked for the date, email
// and URL subtypes before falling back to string.
func DetectType(value models.JSONValue) models.PropertyType {
	switch v := value.(type) {
	case nil:
		return models.TypeNull
	case models.JSONArray:
		return models.TypeArray
	case models.JSONObject:
		return models.TypeObject
	case bool:
		return models.TypeBoolean
	case string:
		return analyzeString(v)
	case json.Number:
		return analyzeNumber(v)
	case float64:
		return numberType(v)
	case float32:
		return numberType(float64(v))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return models.TypeInteger
	default:
		return models.PropertyType(fmt.Sprintf("%T", v))
	}
}

func analyzeString(s string) models.PropertyType {
	switch {
	case dateRegex.MatchString(s):
		return models.TypeDate
	case emailRegex.MatchString(s):
		return models.TypeEmail
	case isURL(s):
		return models.TypeURL
	default:
		return models.TypeString
	}
}

func isURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || !schemeRegex.MatchString(u.Scheme) {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

func analyzeNumber(num json.Number) models.PropertyType {
	if _, err := num.Int64(); err == nil {
		return models.TypeInteger
	}
	f, err := num.Float64()
	if err != nil {
		// Out of float range; only integers overflow this way.
		return models.TypeInteger
	}
	return numberType(f)
}

func numberType(f float64) models.PropertyType {
	if !math.IsInf(f, 0) && f == math.Trunc(f) {
		return models.TypeInteger
	}
	return models.TypeNumber
}

// Analyzer merges the structures of several documents.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer() *Analyzer {
	return &Analyzer{logger: slog.Default()}
}

// NewAnalyzerWithLogger creates an Analyzer that logs to logger.
func NewAnalyzerWithLogger(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger}
}

// Merge is shorthand for NewAnalyzer().Merge(docs).
func Merge(docs []models.Document) models.PropertyMap {
	return NewAnalyzer().Merge(docs)
}

// Merge builds the property map for docs. Invalid documents are skipped and
// nil is returned when no valid document remains. The map is always built
// from scratch.
func (a *Analyzer) Merge(docs []models.Document) models.PropertyMap {
	valid := models.ValidDocuments(docs)
	if skipped := len(docs) - len(valid); skipped > 0 {
		a.logger.Debug("skipping invalid documents", "skipped", skipped)
	}
	if len(valid) == 0 {
		return nil
	}

	result := make(models.PropertyMap)
	seen := make(map[string]*roaring.Bitmap)

	for i, doc := range valid {
		docIndex := uint32(i)
		Traverse(doc.Content, nil, func(p path.Path, value models.JSONValue, key string, level int) {
			pathKey := p.String()
			prop, ok := result[pathKey]
			if !ok {
				prop = &models.Property{
					Path:      pathKey,
					Key:       key,
					Level:     level,
					Sources:   []string{},
					Missing:   []string{},
					Examples:  []models.Example{},
					Conflicts: []models.Conflict{},
				}
				result[pathKey] = prop
				seen[pathKey] = roaring.New()
			}
			// A position counts once per document.
			if !seen[pathKey].CheckedAdd(docIndex) {
				return
			}
			record(prop, doc.Name, value)
		})
	}

	total := len(valid)
	all := roaring.New()
	all.AddRange(0, uint64(total))

	for pathKey, prop := range result {
		absent := roaring.AndNot(all, seen[pathKey])
		for _, idx := range absent.ToArray() {
			prop.Missing = append(prop.Missing, valid[idx].Name)
		}
		finalize(prop, total)
	}

	a.logger.Debug("merged document structures", "documents", total, "properties", len(result))
	return result
}

// record registers one observation of a property.
func record(prop *models.Property, source string, value models.JSONValue) {
	prop.Sources = append(prop.Sources, source)
	prop.Frequency++
	prop.Values = append(prop.Values, value)

	current := DetectType(value)
	switch {
	case prop.Type == "":
		prop.Type = current
	case prop.Type != current:
		// Once mixed, every further disagreement is kept as an audit trail.
		expected := prop.Type
		prop.Type = models.TypeMixed
		prop.Conflicts = append(prop.Conflicts, models.Conflict{
			Source:       source,
			ExpectedType: expected,
			ActualType:   current,
			Value:        value,
		})
	}

	if len(prop.Examples) < MaxExamples {
		prop.Examples = append(prop.Examples, models.Example{
			Source: source,
			Value:  value,
			Type:   current,
		})
	}
}

// finalize derives the fields that depend on the final document count.
func finalize(prop *models.Property, total int) {
	prop.IsRequired = prop.Frequency == total
	prop.FrequencyText = fmt.Sprintf("%d/%d", prop.Frequency, total)
	prop.FrequencyPercent = int(math.Floor(float64(prop.Frequency)/float64(total)*100 + 0.5))
	prop.Status = StatusFor(prop.FrequencyPercent)
}

// StatusFor buckets a frequency percentage.
func StatusFor(percent int) models.Status {
	switch {
	case percent >= 100:
		return models.StatusRequired
	case percent >= 75:
		return models.StatusCommon
	case percent >= 50:
		return models.StatusOccasional
	default:
		return models.StatusRare
	}
}

// SortedPaths returns the keys of pm in lexicographic order.
func SortedPaths(pm models.PropertyMap) []string {
	paths := make([]string, 0, len(pm))
	for p := range pm {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
