package models

// Employee is one validated row of the HR dataset.
type Employee struct {
	EmployeeNumber           string
	Department               string
	AgeBand                  string
	MonthlyIncome            float64
	JobLevel                 int
	Attrition                bool
	YearsAtCompany           float64
	JobSatisfaction          int
	EnvironmentSatisfaction  int
	RelationshipSatisfaction int
	WorkLifeBalance          int
	PerformanceRating        int
	BusinessTravel           string
	OverTime                 bool
	TrainingTimesLastYear    int
}

// Canonical boolean spellings used by the dataset.
const (
	Yes = "Yes"
	No  = "No"
)

// YesNo renders a boolean in the dataset's canonical form.
func YesNo(v bool) string {
	if v {
		return Yes
	}
	return No
}
