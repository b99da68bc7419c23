package scoring_test

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/avasquez/catador/internal/scoring"
)

// TestAggregate_AciditySum verifies the plain-sum acidity formula.
func TestAggregate_AciditySum(t *testing.T) {
	res, err := scoring.Aggregate(map[string]map[string]float64{
		"acidity": {
			"frutal":          2.8,
			"acetic":          2.0,
			"lactic":          1.8,
			"mineral_butyric": 1.4,
		},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if got := res.GroupTotals["acidity"]; got != 8.0 {
		t.Errorf("expected acidity total 8.0, got %v", got)
	}
}

// TestAggregate_FreshFruitWeights verifies the diminishing weights for
// secondary fruit notes: 3.5 + 0.8*4.0 + 0.3*(2.5+2.0+2.5) = 8.8.
func TestAggregate_FreshFruitWeights(t *testing.T) {
	res, err := scoring.Aggregate(map[string]map[string]float64{
		"fresh_fruit": {
			"berries":     3.5,
			"citrus":      4.0,
			"yellow_pulp": 2.5,
			"dark":        2.0,
			"tropical":    2.5,
		},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if got := res.GroupTotals["fresh_fruit"]; got != 8.8 {
		t.Errorf("expected fresh_fruit total 8.8, got %v", got)
	}
}

// TestAggregate_ClampsToMax checks that a weighted sum above 10 clamps to
// exactly 10.0, never higher.
func TestAggregate_ClampsToMax(t *testing.T) {
	res, err := scoring.Aggregate(map[string]map[string]float64{
		"acidity": {
			"frutal":          9.0,
			"acetic":          9.0,
			"lactic":          9.0,
			"mineral_butyric": 9.0,
		},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if got := res.GroupTotals["acidity"]; got != 10.0 {
		t.Errorf("expected clamped total 10.0, got %v", got)
	}
}

// TestAggregate_DefectsUnweightedSum checks the defects group sums all
// eight children with full weight.
func TestAggregate_DefectsUnweightedSum(t *testing.T) {
	res, err := scoring.Aggregate(map[string]map[string]float64{
		"defects": {
			"dirty":         0.5,
			"animal":        0.5,
			"musty":         1.0,
			"moldy":         0,
			"smoky":         1.5,
			"putrid":        0,
			"metallic":      0.5,
			"overfermented": 1.0,
		},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if got := res.GroupTotals["defects"]; got != 5.0 {
		t.Errorf("expected defects total 5.0, got %v", got)
	}
}

// TestAggregate_MissingChildDefaultsToZero checks graceful degradation:
// absent children count as zero and are reported, not fatal.
func TestAggregate_MissingChildDefaultsToZero(t *testing.T) {
	res, err := scoring.Aggregate(map[string]map[string]float64{
		"floral": {
			"orange_blossom": 4.0,
		},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if got := res.GroupTotals["floral"]; got != 4.0 {
		t.Errorf("expected floral total 4.0 with missing child, got %v", got)
	}
	if res.Attributes["floral"]["flowers"] != 0 {
		t.Errorf("expected missing leaf defaulted to 0, got %v", res.Attributes["floral"]["flowers"])
	}

	found := false
	for _, m := range res.Missing {
		if m == "floral.flowers" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected floral.flowers in missing list, got %v", res.Missing)
	}
}

// TestAggregate_EmptyInputAllZero checks an empty map yields all-zero totals
// with every defined child reported missing.
func TestAggregate_EmptyInputAllZero(t *testing.T) {
	res, err := scoring.Aggregate(nil)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	for _, name := range scoring.GroupNames() {
		if res.GroupTotals[name] != 0 {
			t.Errorf("expected zero total for %s, got %v", name, res.GroupTotals[name])
		}
	}
	if len(res.Missing) == 0 {
		t.Error("expected missing attributes to be reported")
	}
}

// TestAggregate_Idempotent checks recomputing from the same input yields
// identical output.
func TestAggregate_Idempotent(t *testing.T) {
	attrs := map[string]map[string]float64{
		"acidity":     {"frutal": 2.8, "acetic": 2.0, "lactic": 1.8, "mineral_butyric": 1.4},
		"fresh_fruit": {"berries": 3.5, "citrus": 4.0, "yellow_pulp": 2.5, "dark": 2.0, "tropical": 2.5},
		"nut":         {"nutty": 5.0, "nut_skin": 2.0},
	}

	first, err := scoring.Aggregate(attrs)
	if err != nil {
		t.Fatalf("first Aggregate failed: %v", err)
	}
	second, err := scoring.Aggregate(attrs)
	if err != nil {
		t.Fatalf("second Aggregate failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical results, got %#v vs %#v", first, second)
	}
}

// TestAggregate_RejectsOutOfRangeLeaf checks leaf intensities outside [0,10]
// are rejected with a typed error.
func TestAggregate_RejectsOutOfRangeLeaf(t *testing.T) {
	_, err := scoring.Aggregate(map[string]map[string]float64{
		"acidity": {"frutal": 11.0},
	})
	if err == nil {
		t.Fatal("expected error for out-of-range intensity")
	}

	var oor *scoring.OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %T: %v", err, err)
	}
	if oor.Group != "acidity" || oor.Attribute != "frutal" {
		t.Errorf("unexpected error fields: %+v", oor)
	}
}

// TestAggregate_IgnoresUnknownAttributes checks unknown groups and children
// do not leak into the result.
func TestAggregate_IgnoresUnknownAttributes(t *testing.T) {
	res, err := scoring.Aggregate(map[string]map[string]float64{
		"acidity":   {"frutal": 2.0, "mystery": 9.0},
		"not_group": {"anything": 5.0},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if got := res.GroupTotals["acidity"]; got != 2.0 {
		t.Errorf("expected acidity total 2.0 ignoring unknown child, got %v", got)
	}
	if _, ok := res.GroupTotals["not_group"]; ok {
		t.Error("unknown group leaked into totals")
	}
	if _, ok := res.Attributes["acidity"]["mystery"]; ok {
		t.Error("unknown child leaked into attributes")
	}
}

// TestAggregate_RadarMatchesTotals checks the radar vector mirrors the
// group totals for every defined group.
func TestAggregate_RadarMatchesTotals(t *testing.T) {
	res, err := scoring.Aggregate(map[string]map[string]float64{
		"wood":  {"light": 3.0, "dark_wood": 2.0, "resin": 1.0},
		"spice": {"spices": 4.0},
	})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if len(res.Radar) != len(scoring.GroupNames()) {
		t.Fatalf("expected %d radar entries, got %d", len(scoring.GroupNames()), len(res.Radar))
	}
	for name, total := range res.GroupTotals {
		if res.Radar[name] != total {
			t.Errorf("radar[%s]=%v does not match total %v", name, res.Radar[name], total)
		}
	}

	// wood: 3.0 + 0.8*2.0 + 0.3*1.0 = 4.9
	if got := res.GroupTotals["wood"]; math.Abs(got-4.9) > 1e-9 {
		t.Errorf("expected wood total 4.9, got %v", got)
	}
}

// TestValidateOverall checks range validation of the judge-supplied scalar.
func TestValidateOverall(t *testing.T) {
	if err := scoring.ValidateOverall(8.5); err != nil {
		t.Errorf("expected 8.5 to be valid: %v", err)
	}
	if err := scoring.ValidateOverall(0); err != nil {
		t.Errorf("expected 0 to be valid: %v", err)
	}
	if err := scoring.ValidateOverall(10); err != nil {
		t.Errorf("expected 10 to be valid: %v", err)
	}
	if err := scoring.ValidateOverall(10.1); err == nil {
		t.Error("expected 10.1 to be rejected")
	}
	if err := scoring.ValidateOverall(-0.1); err == nil {
		t.Error("expected -0.1 to be rejected")
	}
}
