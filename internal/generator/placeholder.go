package generator

import (
	"strings"

	"github.com/mcncl/jsonsampler/internal/models"
)

// DefaultPlaceholder is used when no keyword matches.
const DefaultPlaceholder = "placeholder_value"

type placeholderRule struct {
	keywords []string
	value    func() models.JSONValue
}

func constant(v models.JSONValue) func() models.JSONValue {
	return func() models.JSONValue { return v }
}

// Checked in order against the lower-cased path; the first hit wins, so
// "postalCode" becomes "CODE123" before the postal rule is reached.
var placeholderRules = []placeholderRule{
	{[]string{"email"}, constant("example@domain.com")},
	{[]string{"phone"}, constant("9012345678")},
	{[]string{"date", "timestamp"}, constant("2024-01-01")},
	{[]string{"amount", "value"}, constant(100)},
	{[]string{"currency"}, constant("USD")},
	{[]string{"code"}, constant("CODE123")},
	{[]string{"number"}, constant("123456789")},
	{[]string{"address", "street"}, constant("123 Main St")},
	{[]string{"city"}, constant("New York")},
	{[]string{"state"}, constant("NY")},
	{[]string{"country"}, constant("US")},
	{[]string{"postal", "zip"}, constant("10001")},
	{[]string{"name"}, constant("John Doe")},
	{[]string{"company"}, constant("Company Inc")},
	{[]string{"type"}, constant("TYPE")},
	{[]string{"description"}, constant("Description")},
	{[]string{"weight"}, func() models.JSONValue {
		return models.JSONObject{"value": 1, "units": "LB"}
	}},
	{[]string{"dimension"}, func() models.JSONValue {
		return models.JSONObject{"length": 5, "width": 5, "height": 5, "units": "IN"}
	}},
	{[]string{"count"}, constant(1)},
	{[]string{"units"}, constant("PCS")},
}

// Placeholder returns a value shaped after the path's wording. Configured
// rules win over the built-in keyword table. Every call returns a fresh
// value.
func (g *Generator) Placeholder(p string) models.JSONValue {
	if value, ok := g.cfg.FindPlaceholder(p); ok {
		return deepCopy(value)
	}
	return BuiltinPlaceholder(p)
}

// BuiltinPlaceholder consults only the keyword table.
func BuiltinPlaceholder(p string) models.JSONValue {
	lower := strings.ToLower(p)
	for _, rule := range placeholderRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.value()
			}
		}
	}
	return DefaultPlaceholder
}
