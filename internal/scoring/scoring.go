// Package scoring converts raw sensory attribute intensities into grouped
// totals and a radar-ready score vector. Everything here is a pure function
// of its input: recomputing from the same attribute map always produces the
// same output.
package scoring

import (
	"fmt"
	"math"
	"sort"
)

// MaxIntensity bounds every leaf intensity and every group total.
const MaxIntensity = 10.0

// Child is one named leaf attribute inside a group, with the weight its
// intensity contributes to the group total.
type Child struct {
	Name   string
	Weight float64
}

// Group is a named cluster of leaf intensities combined via a fixed
// weighting formula into a total.
type Group struct {
	Name     string
	Children []Child
}

// Groups is the fixed cacao flavor wheel used by both sensory and final
// evaluations. Primary notes carry full weight; secondary notes are
// dampened. The defects group is a plain unweighted sum.
var Groups = []Group{
	{Name: "acidity", Children: []Child{
		{Name: "frutal", Weight: 1},
		{Name: "acetic", Weight: 1},
		{Name: "lactic", Weight: 1},
		{Name: "mineral_butyric", Weight: 1},
	}},
	{Name: "fresh_fruit", Children: []Child{
		{Name: "berries", Weight: 1},
		{Name: "citrus", Weight: 0.8},
		{Name: "yellow_pulp", Weight: 0.3},
		{Name: "dark", Weight: 0.3},
		{Name: "tropical", Weight: 0.3},
	}},
	{Name: "brown_fruit", Children: []Child{
		{Name: "dried", Weight: 1},
		{Name: "brown", Weight: 0.8},
		{Name: "overripe", Weight: 0.3},
	}},
	{Name: "vegetal", Children: []Child{
		{Name: "grass_herb", Weight: 1},
		{Name: "green", Weight: 0.8},
		{Name: "earthy", Weight: 0.3},
	}},
	{Name: "floral", Children: []Child{
		{Name: "orange_blossom", Weight: 1},
		{Name: "flowers", Weight: 0.8},
	}},
	{Name: "wood", Children: []Child{
		{Name: "light", Weight: 1},
		{Name: "dark_wood", Weight: 0.8},
		{Name: "resin", Weight: 0.3},
	}},
	{Name: "spice", Children: []Child{
		{Name: "spices", Weight: 1},
		{Name: "tobacco", Weight: 0.8},
		{Name: "umami", Weight: 0.3},
	}},
	{Name: "nut", Children: []Child{
		{Name: "nutty", Weight: 1},
		{Name: "nut_skin", Weight: 0.8},
	}},
	{Name: "roast_degree", Children: []Child{
		{Name: "well_roasted", Weight: 1},
		{Name: "burnt", Weight: 0.8},
	}},
	{Name: "defects", Children: []Child{
		{Name: "dirty", Weight: 1},
		{Name: "animal", Weight: 1},
		{Name: "musty", Weight: 1},
		{Name: "moldy", Weight: 1},
		{Name: "smoky", Weight: 1},
		{Name: "putrid", Weight: 1},
		{Name: "metallic", Weight: 1},
		{Name: "overfermented", Weight: 1},
	}},
}

// Result is the aggregated form of one evaluation's raw attribute map.
type Result struct {
	// Attributes holds the normalized leaf intensities: every defined child
	// of every group, with missing children defaulted to zero.
	Attributes map[string]map[string]float64
	// GroupTotals maps group name to its weighted total, clamped to
	// [0, MaxIntensity] and rounded to one decimal.
	GroupTotals map[string]float64
	// Radar is the flat chart-ready vector, keyed by group label.
	Radar map[string]float64
	// Missing lists "group.child" attributes that were absent from the
	// input and defaulted to zero. Intentional graceful degradation,
	// surfaced so callers can log it.
	Missing []string
}

// OutOfRangeError reports a leaf intensity outside [0, MaxIntensity].
type OutOfRangeError struct {
	Group     string
	Attribute string
	Value     float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("attribute %s.%s intensity %.2f outside [0, %g]", e.Group, e.Attribute, e.Value, MaxIntensity)
}

// GroupNames returns the group labels in their fixed display order.
func GroupNames() []string {
	names := make([]string, len(Groups))
	for i, g := range Groups {
		names[i] = g.Name
	}
	return names
}

// Aggregate computes group totals and the radar vector from a raw attribute
// map keyed by group name then child name. Unknown groups and unknown
// children are ignored; defined children missing from the input count as
// zero and are reported in Result.Missing.
func Aggregate(attrs map[string]map[string]float64) (*Result, error) {
	res := &Result{
		Attributes:  make(map[string]map[string]float64, len(Groups)),
		GroupTotals: make(map[string]float64, len(Groups)),
		Radar:       make(map[string]float64, len(Groups)),
	}

	for _, group := range Groups {
		leaves := make(map[string]float64, len(group.Children))
		var sum float64
		for _, child := range group.Children {
			value, ok := attrs[group.Name][child.Name]
			if !ok {
				res.Missing = append(res.Missing, group.Name+"."+child.Name)
			}
			if value < 0 || value > MaxIntensity {
				return nil, &OutOfRangeError{Group: group.Name, Attribute: child.Name, Value: value}
			}
			leaves[child.Name] = value
			sum += child.Weight * value
		}

		total := roundOne(clamp(sum))
		res.Attributes[group.Name] = leaves
		res.GroupTotals[group.Name] = total
		res.Radar[group.Name] = total
	}

	sort.Strings(res.Missing)
	return res, nil
}

// ValidateOverall checks the judge-supplied overall quality scalar. It is
// never re-derived from the sub-scores, only range-checked.
func ValidateOverall(quality float64) error {
	if quality < 0 || quality > MaxIntensity {
		return fmt.Errorf("overall quality %.2f outside [0, %g]", quality, MaxIntensity)
	}
	return nil
}

func clamp(v float64) float64 {
	if v > MaxIntensity {
		return MaxIntensity
	}
	if v < 0 {
		return 0
	}
	return v
}

// roundOne rounds to one decimal place.
func roundOne(v float64) float64 {
	return math.Round(v*10) / 10
}
