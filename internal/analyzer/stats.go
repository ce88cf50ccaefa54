package analyzer

import (
	"strings"

	"github.com/mcncl/jsonsampler/internal/models"
)

// Stats summarizes a property map.
type Stats struct {
	TotalProperties    int                         `json:"totalProperties"`
	RequiredProperties int                         `json:"requiredProperties"`
	OptionalProperties int                         `json:"optionalProperties"`
	ConflictProperties int                         `json:"conflictProperties"`
	MaxDepth           int                         `json:"maxDepth"`
	TypeDistribution   map[models.PropertyType]int `json:"typeDistribution"`
	StatusDistribution map[models.Status]int       `json:"statusDistribution"`
}

// ComputeStats returns nil for a nil map.
func ComputeStats(pm models.PropertyMap) *Stats {
	if pm == nil {
		return nil
	}
	stats := &Stats{
		TypeDistribution:   make(map[models.PropertyType]int),
		StatusDistribution: make(map[models.Status]int),
	}
	for _, prop := range pm {
		stats.TotalProperties++
		if prop.IsRequired {
			stats.RequiredProperties++
		} else {
			stats.OptionalProperties++
		}
		if prop.Type == models.TypeMixed {
			stats.ConflictProperties++
		}
		if prop.Level > stats.MaxDepth {
			stats.MaxDepth = prop.Level
		}
		stats.TypeDistribution[prop.Type]++
		stats.StatusDistribution[prop.Status]++
	}
	return stats
}

// Filter narrows a property map. Zero values disable a criterion; MaxLevel
// is only applied when non-nil.
type Filter struct {
	Type       models.PropertyType
	Status     models.Status
	MaxLevel   *int
	SearchText string
}

// IsEmpty reports whether the filter has no criteria.
func (f Filter) IsEmpty() bool {
	return f.Type == "" && f.Status == "" && f.MaxLevel == nil && f.SearchText == ""
}

// Apply returns the properties matching every criterion. The returned map
// shares Property pointers with pm.
func (f Filter) Apply(pm models.PropertyMap) models.PropertyMap {
	out := make(models.PropertyMap)
	search := strings.ToLower(f.SearchText)
	for p, prop := range pm {
		if f.Type != "" && prop.Type != f.Type {
			continue
		}
		if f.Status != "" && prop.Status != f.Status {
			continue
		}
		if f.MaxLevel != nil && prop.Level > *f.MaxLevel {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p), search) && !strings.Contains(strings.ToLower(prop.Key), search) {
			continue
		}
		out[p] = prop
	}
	return out
}

// Search matches text against path, key and type, case-insensitively.
// Results are sorted by path.
func Search(pm models.PropertyMap, text string) []*models.Property {
	if text == "" {
		return nil
	}
	needle := strings.ToLower(text)
	var found []*models.Property
	for _, p := range SortedPaths(pm) {
		prop := pm[p]
		if strings.Contains(strings.ToLower(p), needle) ||
			strings.Contains(strings.ToLower(prop.Key), needle) ||
			strings.Contains(string(prop.Type), needle) {
			found = append(found, prop)
		}
	}
	return found
}

// ByLevel returns the properties at level, sorted by path.
func ByLevel(pm models.PropertyMap, level int) []*models.Property {
	var found []*models.Property
	for _, p := range SortedPaths(pm) {
		if pm[p].Level == level {
			found = append(found, pm[p])
		}
	}
	return found
}
