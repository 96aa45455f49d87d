// Command mock-hris serves a synthetic employee export over HTTP so the
// engine's URL dataset source can be exercised locally:
//
//	go run ./deployment/localdev/mock-hris
//	ATTRITION_DATASET_URL=http://localhost:8080/exports/employees.csv attrition-engine serve
package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/attritionlab/attrition-engine/internal/models"
	"github.com/attritionlab/attrition-engine/internal/store"
)

var departments = []string{"Sales", "R&D", "Human Resources"}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/exports/employees.csv", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		rows := queryInt(r, "rows", 1470)
		seed := int64(queryInt(r, "seed", 42))
		w.Header().Set("Content-Type", "text/csv")
		if err := writeEmployees(w, rows, seed); err != nil {
			log.Printf("write error: %v", err)
		}
	})

	logger := log.New(log.Writer(), "hris-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8080",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8080")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v >= 0 {
		return v
	}
	return fallback
}

// writeEmployees renders n deterministic records. Overtime, low pay and
// little training raise the chance that a record is marked as attrited.
func writeEmployees(w http.ResponseWriter, n int, seed int64) error {
	rng := rand.New(rand.NewSource(seed))
	schema := store.DefaultSchema()
	fields := schema.Fields()

	cw := csv.NewWriter(w)
	if err := cw.Write(schema.Names()); err != nil {
		return err
	}
	row := make([]string, len(fields))
	for i := 0; i < n; i++ {
		e := synthesize(rng, i)
		for j, f := range fields {
			row[j] = f.Text(&e)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func synthesize(rng *rand.Rand, i int) models.Employee {
	level := 1 + rng.Intn(5)
	e := models.Employee{
		EmployeeNumber:           fmt.Sprintf("EMP-%05d", i+1),
		Department:               departments[rng.Intn(len(departments))],
		AgeBand:                  store.AgeBands[rng.Intn(len(store.AgeBands))],
		MonthlyIncome:            float64(1500*level + rng.Intn(3000)),
		JobLevel:                 level,
		YearsAtCompany:           float64(rng.Intn(30)),
		JobSatisfaction:          1 + rng.Intn(4),
		EnvironmentSatisfaction:  1 + rng.Intn(4),
		RelationshipSatisfaction: 1 + rng.Intn(4),
		WorkLifeBalance:          1 + rng.Intn(4),
		PerformanceRating:        3 + rng.Intn(2),
		BusinessTravel:           store.TravelFrequencies[rng.Intn(len(store.TravelFrequencies))],
		OverTime:                 rng.Float64() < 0.28,
		TrainingTimesLastYear:    rng.Intn(7),
	}

	risk := 0.08
	if e.OverTime {
		risk += 0.15
	}
	if e.MonthlyIncome < 4000 {
		risk += 0.10
	}
	if e.TrainingTimesLastYear < 2 {
		risk += 0.05
	}
	if e.YearsAtCompany < 2 {
		risk += 0.07
	}
	e.Attrition = rng.Float64() < risk
	return e
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
