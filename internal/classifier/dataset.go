package classifier

import "math/rand/v2"

// featureRanges are the half-open [lo, hi) sampling ranges of the demo
// dataset, in training order: JobRole, Department, WorkLifeBalance,
// JobSatisfaction, StockOptionLevel.
var featureRanges = [5][2]int{
	{0, 9},
	{0, 6},
	{1, 5},
	{1, 5},
	{0, 4},
}

// DemoLabel marks a row as staying (0) when work-life balance, satisfaction and
// stock level add up to more than 7, and leaving (1) otherwise.
func DemoLabel(row []float64) int {
	if row[2]+row[3]+row[4] > 7 {
		return 0
	}
	return 1
}

// GenerateDemoDataset draws n uniformly random rows in the semantic feature
// ranges and labels them with DemoLabel.
func GenerateDemoDataset(n int, rng *rand.Rand) ([][]float64, []int) {
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range x {
		row := make([]float64, len(featureRanges))
		for f, r := range featureRanges {
			row[f] = float64(r[0] + rng.IntN(r[1]-r[0]))
		}
		x[i] = row
		y[i] = DemoLabel(row)
	}
	return x, y
}
