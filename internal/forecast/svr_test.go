package forecast

import (
	"math"
	"testing"
)

func TestSVR_FlatSeriesStaysFlat(t *testing.T) {
	s := makeSeries(t, 25, 25, 25, 25, 25, 25, 25, 25, 25, 25)

	rows, err := SVR(s, "close", 5)
	if err != nil {
		t.Fatalf("SVR failed: %v", err)
	}
	// Zero standard deviation means zero trend strength.
	for i, r := range rows {
		if v, _ := r.Value("close"); v != 25.00 {
			t.Errorf("row %d: expected 25.00, got %.2f", i, v)
		}
	}
}

func TestSVR_UptrendProjectsAboveLastValue(t *testing.T) {
	s := makeSeries(t, linearValues(20, 100, 2)...)

	rows, err := SVR(s, "close", 5)
	if err != nil {
		t.Fatalf("SVR failed: %v", err)
	}
	last := 100 + 2*19.0
	for i, r := range rows {
		if v, _ := r.Value("close"); v <= last {
			t.Errorf("row %d: expected value above last (%.2f), got %.2f", i, last, v)
		}
	}
}

func TestSVR_ExactArithmetic(t *testing.T) {
	s := makeSeries(t, linearValues(20, 100, 2)...)
	values := s.FieldValues("close")

	rows, err := SVR(s, "close", 3)
	if err != nil {
		t.Fatalf("SVR failed: %v", err)
	}

	sd := stdDev(values)
	trend := (tailMean(values, 5) - precedingMean(values, 5)) / sd
	last := values[len(values)-1]
	for day := 1; day <= 3; day++ {
		want := round2(last + trend*sd*math.Exp(-svrDecayRate*float64(day))*float64(day))
		if v, _ := rows[day-1].Value("close"); v != want {
			t.Errorf("day %d: expected %.2f, got %.2f", day, want, v)
		}
	}
}

func TestPrecedingMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   float64
	}{
		{"two full windows", []float64{1, 2, 3, 4, 10, 20, 30, 40}, 4, 2.5},
		{"partial preceding window", []float64{5, 10, 20, 30, 40, 50}, 5, 5},
		{"shorter than one window", []float64{6, 12}, 5, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := precedingMean(tt.values, tt.window); got != tt.want {
				t.Errorf("precedingMean(%v, %d) = %f, want %f", tt.values, tt.window, got, tt.want)
			}
		})
	}
}
