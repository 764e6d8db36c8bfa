package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	testCases := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"several", []float64{1, 2, 3, 4}, 2.5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Mean(tc.input), 1e-9)
		})
	}
}

func TestMedian(t *testing.T) {
	testCases := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"single", []float64{7}, 7},
		{"two", []float64{4, 8}, 6},
		{"odd", []float64{5, 1, 3}, 3},
		{"even", []float64{1, 2, 3, 4}, 2.5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, Median(tc.input), 1e-9)
		})
	}
}

func TestStdDev(t *testing.T) {
	testCases := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"single", []float64{3}, 0},
		{"identical", []float64{4, 4, 4}, 0},
		{"spread", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, StdDev(tc.input), 1e-6)
		})
	}
}

func TestTrimmedMean(t *testing.T) {
	testCases := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"single", []float64{10}, 10},
		{"two", []float64{10, 20}, 15},
		{"three_returns_median", []float64{1, 100, 2}, 2},
		{"five_drops_outlier", []float64{20, 20, 20, 20, 50}, 20},
		{"ten_trims_one_each_end_by_fraction", func() []float64 {
			return []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}
		}(), 5.5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TrimmedMean(tc.input)
			assert.InDelta(t, tc.expected, got, 1e-6)
			if len(tc.input) > 0 {
				mn, mx := tc.input[0], tc.input[0]
				for _, x := range tc.input {
					if x < mn {
						mn = x
					}
					if x > mx {
						mx = x
					}
				}
				assert.GreaterOrEqual(t, got, mn)
				assert.LessOrEqual(t, got, mx)
			}
		})
	}
}

func TestFindOutlierIndices(t *testing.T) {
	testCases := []struct {
		name     string
		input    []float64
		zThresh  float64
		expected []int
	}{
		{"too_short", []float64{1, 2}, 2.0, nil},
		{"zero_variance", []float64{5, 5, 5}, 2.0, nil},
		{"one_outlier", []float64{20, 20, 20, 20, 50}, 2.0, []int{4}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FindOutlierIndices(tc.input, tc.zThresh))
		})
	}
}

func TestCircularMeanDegrees(t *testing.T) {
	testCases := []struct {
		name     string
		input    []float64
		expected float64
	}{
		{"empty", nil, 0},
		{"wraparound", []float64{359, 1}, 0},
		{"cardinal", []float64{0, 90, 180, 270}, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CircularMeanDegrees(tc.input)
			diff := got - tc.expected
			for diff > 180 {
				diff -= 360
			}
			for diff < -180 {
				diff += 360
			}
			assert.InDelta(t, 0, diff, 1e-6)
		})
	}
}

func TestMode(t *testing.T) {
	testCases := []struct {
		name     string
		input    []int
		expected int
	}{
		{"empty", nil, 0},
		{"clear_winner", []int{1, 2, 2, 3}, 2},
		{"tie_breaks_lowest", []int{3, 1, 1, 3}, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Mode(tc.input))
		})
	}
}

func TestEnsembleProbability(t *testing.T) {
	testCases := []struct {
		name      string
		input     []float64
		threshold float64
		cmp       Comparison
		expected  float64
	}{
		{"empty", nil, 0, GreaterThan, 0},
		{"all_above", []float64{5, 6, 7}, 1, GreaterThan, 100},
		{"half_below", []float64{1, 2, 3, 4}, 2.5, LessThan, 50},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, EnsembleProbability(tc.input, tc.threshold, tc.cmp), 1e-9)
		})
	}
}
