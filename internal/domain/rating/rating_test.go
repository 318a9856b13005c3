package rating

import "testing"

func TestFixedQuantityScoreBoundaries(t *testing.T) {
	cases := []struct {
		actual float64
		want   int
	}{
		{129, 4},
		{130, 5},
		{131, 5},
		{100, 3},
		{101, 4},
		{90, 3},
		{89, 2},
		{70, 2},
		{69, 1},
		{50, 1},
	}
	for _, tc := range cases {
		if got := FixedQuantityScore(100, tc.actual); got != tc.want {
			t.Fatalf("target=100 actual=%v: expected %d, got %d", tc.actual, tc.want, got)
		}
	}
}

func TestFixedQuantityScoreZeroTarget(t *testing.T) {
	for _, actual := range []float64{0, 1, 50, 1000} {
		if got := FixedQuantityScore(0, actual); got != 0 {
			t.Fatalf("zero target actual=%v: expected 0, got %d", actual, got)
		}
	}
}

func TestFixedEfficiencyScoreBoundaries(t *testing.T) {
	want := map[float64]int{0: 5, 1: 4, 2: 4, 3: 3, 4: 3, 5: 2, 6: 2, 7: 1}
	for modifications, expected := range want {
		if got := FixedEfficiencyScore(modifications); got != expected {
			t.Fatalf("modifications=%v: expected %d, got %d", modifications, expected, got)
		}
	}
}

func TestFixedTimelinessScoreBoundaries(t *testing.T) {
	// calc = 1 + (target-actual)/target with target=100
	cases := []struct {
		actual float64
		want   int
	}{
		{0, 5},   // calc 2.00
		{10, 5},  // calc 1.90
		{50, 5},  // calc 1.50
		{85, 4},  // calc 1.15
		{90, 3},  // calc 1.10
		{99, 3},  // calc 1.01
		{100, 3}, // calc 1.00
		{115, 2}, // calc 0.85
		{130, 2}, // calc 0.70
		{150, 1}, // calc 0.50
	}
	for _, tc := range cases {
		if got := FixedTimelinessScore(100, tc.actual); got != tc.want {
			t.Fatalf("target=100 actual=%v: expected %d, got %d", tc.actual, tc.want, got)
		}
	}
	if got := FixedTimelinessScore(0, 10); got != 0 {
		t.Fatalf("zero target: expected 0, got %d", got)
	}
}

func TestAverageExact(t *testing.T) {
	if got := Average(4, 3, 5); got != 4.00 {
		t.Fatalf("expected exactly 4.00, got %v", got)
	}
	if got := Average(5, 4, 4); got != 4.33 {
		t.Fatalf("expected 4.33, got %v", got)
	}
	if got := Average(0, 0, 0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestConfigScoreFixedMode(t *testing.T) {
	cfg := Config{}
	score, err := cfg.Score(MetricQuantity, 100, 130)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score != 5 {
		t.Fatalf("expected 5, got %d", score)
	}
}
