// Package storetest builds in-memory stores for tests.
package storetest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

// Employee returns a valid record with neutral defaults.
func Employee(id int) models.Employee {
	return models.Employee{
		EmployeeNumber:           fmt.Sprintf("STAFF-%d", id),
		Department:               "R&D",
		AgeBand:                  "25 - 34",
		MonthlyIncome:            6000,
		JobLevel:                 2,
		YearsAtCompany:           3,
		JobSatisfaction:          3,
		EnvironmentSatisfaction:  3,
		RelationshipSatisfaction: 3,
		WorkLifeBalance:          3,
		PerformanceRating:        3,
		BusinessTravel:           "Travel_Rarely",
		TrainingTimesLastYear:    3,
	}
}

// CSV renders records with the schema header.
func CSV(records []models.Employee) []byte {
	schema := store.DefaultSchema()
	fields := schema.Fields()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(schema.Names())
	for i := range records {
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = f.Text(&records[i])
		}
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

// Build loads records into a Store, failing the test on error.
func Build(t testing.TB, records []models.Employee) *store.Store {
	t.Helper()
	st, err := store.LoadCSV(bytes.NewReader(CSV(records)))
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	return st
}

// Cohort returns n records where the first attrited records have Attrition
// set; mutate, if non-nil, is applied to each record.
func Cohort(start, n, attrited int, mutate func(i int, e *models.Employee)) []models.Employee {
	out := make([]models.Employee, n)
	for i := range out {
		e := Employee(start + i)
		e.Attrition = i < attrited
		if mutate != nil {
			mutate(i, &e)
		}
		out[i] = e
	}
	return out
}
