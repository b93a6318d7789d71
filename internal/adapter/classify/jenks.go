// Package classify computes Jenks natural breaks.
package classify

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewValues is returned when the input cannot be split into the
// requested number of classes.
var ErrTooFewValues = errors.New("not enough distinct values to classify")

// Jenks holds the dynamic-programming state for one data set. Columns for
// additional class counts are computed on demand and reused.
type Jenks struct {
	values  []float64 // sorted distinct values
	weights []float64 // occurrences of each value

	w, s1, s2 []float64 // prefix sums

	cost  [][]float64 // cost[j][l]: best within-class sum of squares of values[:l+1] in j+1 classes
	lower [][]int     // lower[j][l]: first index of the last class in that split
}

// NewJenks prepares values for classification. NaN and infinite values are
// ignored.
func NewJenks(values []float64) (*Jenks, error) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no finite values", ErrTooFewValues)
	}
	sort.Float64s(clean)

	j := &Jenks{}
	for _, v := range clean {
		if n := len(j.values); n > 0 && j.values[n-1] == v {
			j.weights[n-1]++
			continue
		}
		j.values = append(j.values, v)
		j.weights = append(j.weights, 1)
	}

	m := len(j.values)
	j.w = make([]float64, m+1)
	j.s1 = make([]float64, m+1)
	j.s2 = make([]float64, m+1)
	for i, v := range j.values {
		wt := j.weights[i]
		j.w[i+1] = j.w[i] + wt
		j.s1[i+1] = j.s1[i] + wt*v
		j.s2[i+1] = j.s2[i] + wt*v*v
	}

	first := make([]float64, m)
	firstLower := make([]int, m)
	for l := range first {
		first[l] = j.ssd(0, l)
	}
	j.cost = [][]float64{first}
	j.lower = [][]int{firstLower}
	return j, nil
}

// Distinct returns the number of distinct values.
func (j *Jenks) Distinct() int {
	return len(j.values)
}

// ssd is the sum of squared deviations of values[a..b] about their mean.
func (j *Jenks) ssd(a, b int) float64 {
	w := j.w[b+1] - j.w[a]
	s1 := j.s1[b+1] - j.s1[a]
	s2 := j.s2[b+1] - j.s2[a]
	return math.Max(0, s2-s1*s1/w)
}

func (j *Jenks) extend(classes int) {
	m := len(j.values)
	for len(j.cost) < classes {
		k := len(j.cost)
		prev := j.cost[k-1]
		cost := make([]float64, m)
		lower := make([]int, m)
		for l := range cost {
			cost[l] = math.Inf(1)
			for s := k; s <= l; s++ {
				c := prev[s-1] + j.ssd(s, l)
				if c < cost[l] {
					cost[l] = c
					lower[l] = s
				}
			}
		}
		j.cost = append(j.cost, cost)
		j.lower = append(j.lower, lower)
	}
}

// Breaks returns classes+1 boundaries: the minimum, then the upper bound of
// each class. The last boundary is the maximum.
func (j *Jenks) Breaks(classes int) ([]float64, error) {
	m := len(j.values)
	if classes < 1 || classes > m {
		return nil, fmt.Errorf("%w: %d classes requested for %d distinct values", ErrTooFewValues, classes, m)
	}
	j.extend(classes)

	breaks := make([]float64, classes+1)
	breaks[0] = j.values[0]
	breaks[classes] = j.values[m-1]
	end := m - 1
	for k := classes - 1; k >= 1; k-- {
		s := j.lower[k][end]
		breaks[k] = j.values[s-1]
		end = s - 1
	}
	return breaks, nil
}

// Breaks computes Jenks natural breaks for values in one call.
func Breaks(values []float64, classes int) ([]float64, error) {
	j, err := NewJenks(values)
	if err != nil {
		return nil, err
	}
	return j.Breaks(classes)
}

// Classify returns the class of v for the given breaks. Class i covers
// (breaks[i], breaks[i+1]]; the first class also includes breaks[0] and values
// outside the range go to the nearest end class.
func Classify(v float64, breaks []float64) int {
	classes := len(breaks) - 1
	if classes < 1 {
		return 0
	}
	i := sort.SearchFloat64s(breaks[1:], v)
	return min(i, classes-1)
}

// GoodnessOfVarianceFit is (SDAM - SDCM) / SDAM, where SDAM is the sum of
// squared deviations from the array mean and SDCM the sum of squared
// deviations from each class mean. A data set without spread scores 1.
func GoodnessOfVarianceFit(values, breaks []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return 1
	}
	sdam := sumSquaredDeviations(clean)
	if sdam == 0 {
		return 1
	}

	classes := make([][]float64, max(len(breaks)-1, 1))
	for _, v := range clean {
		c := Classify(v, breaks)
		classes[c] = append(classes[c], v)
	}
	sdcm := 0.0
	for _, members := range classes {
		if len(members) > 0 {
			sdcm += sumSquaredDeviations(members)
		}
	}
	return (sdam - sdcm) / sdam
}

func sumSquaredDeviations(xs []float64) float64 {
	mean := stat.Mean(xs, nil)
	dev := make([]float64, len(xs))
	copy(dev, xs)
	floats.AddConst(-mean, dev)
	return floats.Dot(dev, dev)
}

// OptimalClasses increases the class count from 2 until the goodness of
// variance fit reaches threshold and returns that count with its breaks.
// threshold must lie in [0, 1]; at worst every distinct value gets its own
// class, which always scores 1.
func OptimalClasses(values []float64, threshold float64) (int, []float64, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return 0, nil, fmt.Errorf("gvf threshold %v must be within [0, 1]", threshold)
	}
	j, err := NewJenks(values)
	if err != nil {
		return 0, nil, err
	}
	if j.Distinct() < 2 {
		return 0, nil, fmt.Errorf("%w: need at least 2 distinct values, got %d", ErrTooFewValues, j.Distinct())
	}

	for classes := 2; classes <= j.Distinct(); classes++ {
		breaks, err := j.Breaks(classes)
		if err != nil {
			return 0, nil, err
		}
		if GoodnessOfVarianceFit(values, breaks) >= threshold {
			return classes, breaks, nil
		}
	}
	breaks, err := j.Breaks(j.Distinct())
	return j.Distinct(), breaks, err
}
