package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRulePackOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insights.yaml")
	if err := os.WriteFile(path, []byte(`thresholds:
  category_margin: 0.5
  min_group_size: 5
advice:
  overtime: "Cap weekly hours."
`), 0644); err != nil {
		t.Fatalf("write pack: %v", err)
	}

	pack, err := LoadRulePack(path)
	if err != nil {
		t.Fatalf("load pack: %v", err)
	}
	if pack.Thresholds.CategoryMargin != 0.5 || pack.Thresholds.MinGroupSize != 5 {
		t.Fatalf("overrides not applied: %+v", pack.Thresholds)
	}
	if pack.Thresholds.MinSelectionSize != DefaultMinSelectionSize || pack.Thresholds.IncomeGapRatio != DefaultIncomeGapRatio {
		t.Fatalf("unset keys must keep defaults: %+v", pack.Thresholds)
	}
	if pack.Advice["overtime"] != "Cap weekly hours." {
		t.Fatalf("advice not loaded: %v", pack.Advice)
	}

	st := riskStore(t)
	sel := st.All()
	g := NewGeneratorFromPack(pack, nil)
	insights := g.Generate(st, sel, Summarize(sel), Correlate(sel), nil)
	if _, ok := findRule(insights, RuleSegmentDepartment); ok {
		t.Fatalf("a 0.5 margin should suppress the department insight")
	}
}

func TestLoadRulePackMissingFile(t *testing.T) {
	pack, err := LoadRulePack(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if pack.Thresholds != DefaultThresholds() {
		t.Fatalf("expected defaults when file missing")
	}

	pack, err = LoadRulePack("")
	if err != nil || pack.Thresholds != DefaultThresholds() {
		t.Fatalf("expected defaults for empty path, got %+v %v", pack, err)
	}
}

func TestLoadRulePackRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"negative margin": "thresholds:\n  category_margin: -0.1\n",
		"tiny selection":  "thresholds:\n  min_selection_size: 1\n",
		"malformed yaml":  "thresholds: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatalf("write pack: %v", err)
			}
			if _, err := LoadRulePack(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
