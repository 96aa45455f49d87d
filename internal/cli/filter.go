package cli

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/attritionlab/attrition-engine/internal/api"
	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// filterFlags maps command-line flags onto a FilterSpec. Flags combine with
// AND; repeated values of one flag combine with OR.
type filterFlags struct {
	departments []string
	ageBands    []string
	travel      []string
	jobLevels   []string
	performance []string
	overtime    string
	attrition   string
	incomeMin   float64
	incomeMax   float64
	tenureMin   float64
	tenureMax   float64
	raw         string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.departments, "department", nil, "keep these departments")
	fs.StringSliceVar(&f.ageBands, "age-band", nil, `keep these age bands (e.g. "25 - 34")`)
	fs.StringSliceVar(&f.travel, "travel", nil, "keep these business travel frequencies")
	fs.StringSliceVar(&f.jobLevels, "job-level", nil, "keep these job levels (1-5)")
	fs.StringSliceVar(&f.performance, "performance", nil, "keep these performance ratings (1-4)")
	fs.StringVar(&f.overtime, "overtime", "", "keep overtime Yes or No")
	fs.StringVar(&f.attrition, "attrition", "", "keep attrition Yes or No")
	fs.Float64Var(&f.incomeMin, "income-min", 0, "minimum monthly income, inclusive")
	fs.Float64Var(&f.incomeMax, "income-max", 0, "maximum monthly income, inclusive")
	fs.Float64Var(&f.tenureMin, "tenure-min", 0, "minimum years at company, inclusive")
	fs.Float64Var(&f.tenureMax, "tenure-max", 0, "maximum years at company, inclusive")
	fs.StringVar(&f.raw, "filter", "", `filter as JSON, or @file, e.g. {"Department":{"values":["Sales"]}}`)
}

// spec builds the filter. Explicit flags replace the same field from --filter.
func (f *filterFlags) spec(fs *pflag.FlagSet) (models.FilterSpec, error) {
	spec := models.FilterSpec{}
	if f.raw != "" {
		data := []byte(f.raw)
		if path, ok := strings.CutPrefix(f.raw, "@"); ok {
			var err error
			if data, err = os.ReadFile(path); err != nil {
				return nil, fmt.Errorf("read filter file: %w", err)
			}
		}
		parsed, err := api.ParseFilterJSON(data)
		if err != nil {
			return nil, err
		}
		for name, c := range parsed {
			spec[name] = c
		}
	}

	sets := []struct {
		flag   string
		field  string
		values []string
	}{
		{"department", store.FieldDepartment, f.departments},
		{"age-band", store.FieldAgeBand, f.ageBands},
		{"travel", store.FieldBusinessTravel, f.travel},
		{"job-level", store.FieldJobLevel, f.jobLevels},
		{"performance", store.FieldPerformanceRating, f.performance},
	}
	for _, s := range sets {
		if fs.Changed(s.flag) {
			spec[s.field] = models.OneOf(s.values...)
		}
	}

	for _, b := range []struct {
		flag  string
		field string
		value string
	}{
		{"overtime", store.FieldOverTime, f.overtime},
		{"attrition", store.FieldAttrition, f.attrition},
	} {
		if !fs.Changed(b.flag) {
			continue
		}
		v, err := yesNo(b.value)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", b.flag, err)
		}
		spec[b.field] = models.OneOf(v)
	}

	if c, ok := rangeFlag(fs, "income-min", "income-max", f.incomeMin, f.incomeMax); ok {
		spec[store.FieldMonthlyIncome] = c
	}
	if c, ok := rangeFlag(fs, "tenure-min", "tenure-max", f.tenureMin, f.tenureMax); ok {
		spec[store.FieldYearsAtCompany] = c
	}

	if len(spec) == 0 {
		return nil, nil
	}
	return spec, nil
}

// rangeFlag builds a range from a min/max flag pair; an unset side is open.
func rangeFlag(fs *pflag.FlagSet, minFlag, maxFlag string, min, max float64) (models.Constraint, bool) {
	hasMin, hasMax := fs.Changed(minFlag), fs.Changed(maxFlag)
	if !hasMin && !hasMax {
		return models.Constraint{}, false
	}
	if !hasMin {
		min = -math.MaxFloat64
	}
	if !hasMax {
		max = math.MaxFloat64
	}
	return models.Between(min, max), true
}

func yesNo(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "y", "true":
		return models.Yes, nil
	case "no", "n", "false":
		return models.No, nil
	default:
		return "", fmt.Errorf("expected Yes or No, got %q", v)
	}
}
