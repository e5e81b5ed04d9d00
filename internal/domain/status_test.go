package domain

import (
	"testing"

	"go.viam.com/test"
)

func TestClassifyScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Status
	}{
		{100, StatusExcellent},
		{80.0, StatusExcellent},
		{79.999, StatusGood},
		{60.0, StatusGood},
		{59.999, StatusFair},
		{40.0, StatusFair},
		{39.999, StatusCritical},
		{30, StatusCritical},
		{0, StatusCritical},
	}

	for _, tt := range tests {
		if got := ClassifyScore(tt.score); got != tt.want {
			t.Errorf("ClassifyScore(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestStatusLabel(t *testing.T) {
	test.That(t, StatusExcellent.Label(), test.ShouldEqual, "EXCELLENT")
	test.That(t, StatusGood.Label(), test.ShouldEqual, "GOOD")
	test.That(t, StatusFair.Label(), test.ShouldEqual, "FAIR")
	test.That(t, StatusCritical.Label(), test.ShouldEqual, "CRITICAL")
}
