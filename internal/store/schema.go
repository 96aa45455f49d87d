package store

import (
	"fmt"
	"math"
	"strconv"

	"github.com/attritionlab/attrition-engine/internal/models"
)

// Column names of the HR dataset, in declaration order.
const (
	FieldEmployeeNumber           = "Employee_Number"
	FieldDepartment               = "Department"
	FieldAgeBand                  = "CF_age_band"
	FieldMonthlyIncome            = "Monthly_Income"
	FieldJobLevel                 = "Job_Level"
	FieldAttrition                = "Attrition"
	FieldYearsAtCompany           = "Years_At_Company"
	FieldJobSatisfaction          = "Job_Satisfaction"
	FieldEnvironmentSatisfaction  = "Environment_Satisfaction"
	FieldRelationshipSatisfaction = "Relationship_Satisfaction"
	FieldWorkLifeBalance          = "Work_Life_Balance"
	FieldPerformanceRating        = "Performance_Rating"
	FieldBusinessTravel           = "Business_Travel"
	FieldOverTime                 = "Over_Time"
	FieldTrainingTimesLastYear    = "Training_Times_Last_Year"
)

// AgeBands is the ordered domain of CF_age_band.
var AgeBands = []string{"Under 25", "25 - 34", "35 - 44", "45 - 54", "Over 55"}

// TravelFrequencies is the domain of Business_Travel.
var TravelFrequencies = []string{"Non-Travel", "Travel_Rarely", "Travel_Frequently"}

// Kind is the semantic type of a column.
type Kind int

const (
	KindIdentifier Kind = iota
	KindCategorical
	KindOrderedCategorical
	KindNumeric
	KindOrdinal
	KindCount
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindCategorical:
		return "categorical"
	case KindOrderedCategorical:
		return "ordered_categorical"
	case KindNumeric:
		return "numeric"
	case KindOrdinal:
		return "ordinal"
	case KindCount:
		return "count"
	case KindBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether values of this kind are numbers.
func (k Kind) IsNumeric() bool {
	return k == KindNumeric || k == KindOrdinal || k == KindCount
}

// Field describes one column and how it maps onto models.Employee.
type Field struct {
	Name   string
	Kind   Kind
	Domain []string // nil for open categorical domains
	Min    int      // ordinal lower bound
	Max    int      // ordinal upper bound

	decode func(e *models.Employee, raw string) string
	text   func(e *models.Employee) string
	number func(e *models.Employee) float64
}

// Text renders the field of e in canonical form.
func (f Field) Text(e *models.Employee) string {
	return f.text(e)
}

// Number returns the numeric value of the field; ok is false for
// non-numeric kinds.
func (f Field) Number(e *models.Employee) (float64, bool) {
	if f.number == nil {
		return 0, false
	}
	return f.number(e), true
}

// Schema is the ordered set of columns the store requires.
type Schema struct {
	fields []Field
	index  map[string]int
}

var defaultSchema = newSchema(
	identifierField(FieldEmployeeNumber, func(e *models.Employee) *string { return &e.EmployeeNumber }),
	categoricalField(FieldDepartment, KindCategorical, nil, func(e *models.Employee) *string { return &e.Department }),
	categoricalField(FieldAgeBand, KindOrderedCategorical, AgeBands, func(e *models.Employee) *string { return &e.AgeBand }),
	realField(FieldMonthlyIncome, func(e *models.Employee) *float64 { return &e.MonthlyIncome }),
	intField(FieldJobLevel, KindOrdinal, 1, 5, func(e *models.Employee) *int { return &e.JobLevel }),
	boolField(FieldAttrition, func(e *models.Employee) *bool { return &e.Attrition }),
	realField(FieldYearsAtCompany, func(e *models.Employee) *float64 { return &e.YearsAtCompany }),
	intField(FieldJobSatisfaction, KindOrdinal, 1, 4, func(e *models.Employee) *int { return &e.JobSatisfaction }),
	intField(FieldEnvironmentSatisfaction, KindOrdinal, 1, 4, func(e *models.Employee) *int { return &e.EnvironmentSatisfaction }),
	intField(FieldRelationshipSatisfaction, KindOrdinal, 1, 4, func(e *models.Employee) *int { return &e.RelationshipSatisfaction }),
	intField(FieldWorkLifeBalance, KindOrdinal, 1, 4, func(e *models.Employee) *int { return &e.WorkLifeBalance }),
	intField(FieldPerformanceRating, KindOrdinal, 1, 4, func(e *models.Employee) *int { return &e.PerformanceRating }),
	categoricalField(FieldBusinessTravel, KindCategorical, TravelFrequencies, func(e *models.Employee) *string { return &e.BusinessTravel }),
	boolField(FieldOverTime, func(e *models.Employee) *bool { return &e.OverTime }),
	intField(FieldTrainingTimesLastYear, KindCount, 0, 0, func(e *models.Employee) *int { return &e.TrainingTimesLastYear }),
)

// DefaultSchema returns the employee schema.
func DefaultSchema() *Schema {
	return defaultSchema
}

func newSchema(fields ...Field) *Schema {
	s := &Schema{fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Fields returns the columns in declaration order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Names returns the column names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a column by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// NumericFields returns the numeric, ordinal and count columns in
// declaration order.
func (s *Schema) NumericFields() []Field {
	out := make([]Field, 0, len(s.fields))
	for _, f := range s.fields {
		if f.Kind.IsNumeric() {
			out = append(out, f)
		}
	}
	return out
}

func identifierField(name string, ref func(*models.Employee) *string) Field {
	return Field{
		Name: name,
		Kind: KindIdentifier,
		decode: func(e *models.Employee, raw string) string {
			if raw == "" {
				return "empty identifier"
			}
			*ref(e) = raw
			return ""
		},
		text: func(e *models.Employee) string { return *ref(e) },
	}
}

func categoricalField(name string, kind Kind, domain []string, ref func(*models.Employee) *string) Field {
	allowed := make(map[string]struct{}, len(domain))
	for _, v := range domain {
		allowed[v] = struct{}{}
	}
	return Field{
		Name:   name,
		Kind:   kind,
		Domain: domain,
		decode: func(e *models.Employee, raw string) string {
			if raw == "" {
				return "empty value"
			}
			if len(allowed) > 0 {
				if _, ok := allowed[raw]; !ok {
					return "value not in declared domain"
				}
			}
			*ref(e) = raw
			return ""
		},
		text: func(e *models.Employee) string { return *ref(e) },
	}
}

func realField(name string, ref func(*models.Employee) *float64) Field {
	return Field{
		Name: name,
		Kind: KindNumeric,
		decode: func(e *models.Employee, raw string) string {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return "not a number"
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return "not a finite number"
			}
			if v < 0 {
				return "negative value"
			}
			*ref(e) = v
			return ""
		},
		text:   func(e *models.Employee) string { return strconv.FormatFloat(*ref(e), 'f', -1, 64) },
		number: func(e *models.Employee) float64 { return *ref(e) },
	}
}

// intField decodes ordinal fields bounded by [min, max] and count fields
// bounded below by zero.
func intField(name string, kind Kind, min, max int, ref func(*models.Employee) *int) Field {
	return Field{
		Name: name,
		Kind: kind,
		Min:  min,
		Max:  max,
		decode: func(e *models.Employee, raw string) string {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return "not an integer"
			}
			if kind == KindCount && v < 0 {
				return "negative count"
			}
			if kind == KindOrdinal && (v < min || v > max) {
				return fmt.Sprintf("outside bounds %d-%d", min, max)
			}
			*ref(e) = v
			return ""
		},
		text:   func(e *models.Employee) string { return strconv.Itoa(*ref(e)) },
		number: func(e *models.Employee) float64 { return float64(*ref(e)) },
	}
}

func boolField(name string, ref func(*models.Employee) *bool) Field {
	return Field{
		Name:   name,
		Kind:   KindBoolean,
		Domain: []string{models.Yes, models.No},
		decode: func(e *models.Employee, raw string) string {
			switch raw {
			case models.Yes:
				*ref(e) = true
			case models.No:
				*ref(e) = false
			default:
				return "expected Yes or No"
			}
			return ""
		},
		text: func(e *models.Employee) string { return models.YesNo(*ref(e)) },
	}
}
