package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"
)

// FitOptions controls forest training. Zero values pick the defaults.
type FitOptions struct {
	Trees           int // default 100
	MaxFeatures     int // features tried per split, default floor(sqrt(d)) (at least 1)
	MinSamplesSplit int // default 2
	MaxDepth        int // 0 means unlimited
	Voting          Voting
	Rand            *rand.Rand
}

// Fit trains a bootstrap-aggregated forest of CART trees using Gini impurity.
func Fit(x [][]float64, y []int, opts FitOptions) (*Artifact, error) {
	if len(x) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("got %d rows and %d labels", len(x), len(y))
	}
	nFeatures := len(x[0])
	for i, row := range x {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), nFeatures)
		}
	}

	if opts.Trees <= 0 {
		opts.Trees = 100
	}
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = max(1, int(math.Sqrt(float64(nFeatures))))
	}
	opts.MaxFeatures = min(opts.MaxFeatures, nFeatures)
	if opts.MinSamplesSplit < 2 {
		opts.MinSamplesSplit = 2
	}
	if opts.Voting == "" {
		opts.Voting = VotingSoft
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	classes := slices.Clone(y)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	labels := make([]int, len(y))
	for i, label := range y {
		labels[i], _ = slices.BinarySearch(classes, label)
	}

	artifact := &Artifact{
		Format:    ArtifactFormat,
		Version:   ArtifactVersion,
		Voting:    opts.Voting,
		NFeatures: nFeatures,
		Classes:   classes,
		Trees:     make([]Tree, 0, opts.Trees),
		TrainedAt: time.Now().UTC(),
	}

	for t := 0; t < opts.Trees; t++ {
		sample := make([]int, len(x))
		for i := range sample {
			sample[i] = opts.Rand.IntN(len(x))
		}
		b := &treeBuilder{
			x:        x,
			labels:   labels,
			nClasses: len(classes),
			opts:     opts,
		}
		b.build(sample, 0)
		artifact.Trees = append(artifact.Trees, Tree{Nodes: b.nodes})
	}

	return artifact, nil
}

type treeBuilder struct {
	x        [][]float64
	labels   []int
	nClasses int
	opts     FitOptions
	nodes    []Node
}

func (b *treeBuilder) counts(samples []int) []float64 {
	c := make([]float64, b.nClasses)
	for _, s := range samples {
		c[b.labels[s]]++
	}
	return c
}

func (b *treeBuilder) build(samples []int, depth int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, Node{Left: -1, Right: -1})

	counts := b.counts(samples)
	if isPure(counts) || len(samples) < b.opts.MinSamplesSplit || (b.opts.MaxDepth > 0 && depth >= b.opts.MaxDepth) {
		b.nodes[idx].Value = distribution(counts, len(samples))
		return idx
	}

	feature, threshold, ok := b.bestSplit(samples)
	if !ok {
		b.nodes[idx].Value = distribution(counts, len(samples))
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return idx
}

// bestSplit tries MaxFeatures randomly chosen features and keeps drawing
// further features until at least one valid split has been seen.
func (b *treeBuilder) bestSplit(samples []int) (int, float64, bool) {
	features := b.opts.Rand.Perm(len(b.x[0]))

	bestFeature, bestThreshold := -1, 0.0
	bestImpurity := math.Inf(1)
	for i, f := range features {
		if i >= b.opts.MaxFeatures && bestFeature >= 0 {
			break
		}

		values := make([]float64, 0, len(samples))
		for _, s := range samples {
			values = append(values, b.x[s][f])
		}
		slices.Sort(values)
		values = slices.Compact(values)

		for j := 0; j+1 < len(values); j++ {
			threshold := (values[j] + values[j+1]) / 2
			impurity := b.splitImpurity(samples, f, threshold)
			if impurity < bestImpurity {
				bestImpurity = impurity
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func (b *treeBuilder) splitImpurity(samples []int, feature int, threshold float64) float64 {
	left := make([]float64, b.nClasses)
	right := make([]float64, b.nClasses)
	var nl, nr float64
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left[b.labels[s]]++
			nl++
		} else {
			right[b.labels[s]]++
			nr++
		}
	}
	n := nl + nr
	return nl/n*gini(left, nl) + nr/n*gini(right, nr)
}

func gini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func distribution(counts []float64, n int) []float64 {
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = c / float64(n)
	}
	return out
}
