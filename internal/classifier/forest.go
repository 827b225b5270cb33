package classifier

import (
	"fmt"
	"time"
)

const (
	ArtifactFormat  = "attrition-forest"
	ArtifactVersion = 1
)

// Voting selects how the trees of a forest are combined.
type Voting string

const (
	// VotingSoft averages the leaf class distributions and exposes probabilities.
	VotingSoft Voting = "soft"
	// VotingHard takes the majority of per-tree labels and exposes labels only.
	VotingHard Voting = "hard"
)

// Node is one node of a decision tree. Leaves have Left == Right == -1 and carry
// the class distribution in Value; split nodes send x[Feature] <= Threshold left.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value,omitempty"`
}

func (n Node) isLeaf() bool {
	return n.Left < 0 && n.Right < 0
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Artifact is the serialized form of a trained forest.
type Artifact struct {
	Format    string    `json:"format"`
	Version   int       `json:"version"`
	Voting    Voting    `json:"voting"`
	NFeatures int       `json:"n_features"`
	Classes   []int     `json:"classes"`
	Trees     []Tree    `json:"trees"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

// Classifier picks the capability variant for the artifact's voting mode.
func (a *Artifact) Classifier() Classifier {
	if a.Voting == VotingHard {
		return &HardForest{artifact: a}
	}
	return &SoftForest{artifact: a}
}

// leaf walks the tree for x. Malformed trees (bad child or feature indexes,
// cycles) are reported here rather than at load time.
func (t *Tree) leaf(x []float64) ([]float64, error) {
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if idx < 0 || idx >= len(t.Nodes) {
			return nil, fmt.Errorf("node index %d out of range [0,%d)", idx, len(t.Nodes))
		}
		node := t.Nodes[idx]
		if node.isLeaf() {
			if len(node.Value) == 0 {
				return nil, fmt.Errorf("leaf %d has no class distribution", idx)
			}
			return node.Value, nil
		}
		if node.Feature < 0 || node.Feature >= len(x) {
			return nil, fmt.Errorf("feature index %d out of range for %d features", node.Feature, len(x))
		}
		if x[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
	return nil, fmt.Errorf("tree walk did not terminate after %d steps", len(t.Nodes)+1)
}

func (a *Artifact) classAt(i int) (int, error) {
	if len(a.Classes) == 0 {
		return i, nil
	}
	if i >= len(a.Classes) {
		return 0, fmt.Errorf("class index %d out of range for %d classes", i, len(a.Classes))
	}
	return a.Classes[i], nil
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// SoftForest averages normalized leaf distributions across trees.
type SoftForest struct {
	artifact *Artifact
}

func (f *SoftForest) PredictProba(x []float64) ([]float64, error) {
	if len(f.artifact.Trees) == 0 {
		return nil, ErrEmptyEnsemble
	}

	var sum []float64
	for i := range f.artifact.Trees {
		value, err := f.artifact.Trees[i].leaf(x)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		if sum == nil {
			sum = make([]float64, len(value))
		} else if len(value) != len(sum) {
			return nil, fmt.Errorf("tree %d: leaf has %d classes, expected %d", i, len(value), len(sum))
		}

		total := 0.0
		for _, v := range value {
			total += v
		}
		if total <= 0 {
			return nil, fmt.Errorf("tree %d: leaf distribution sums to %v", i, total)
		}
		for j, v := range value {
			sum[j] += v / total
		}
	}

	n := float64(len(f.artifact.Trees))
	for j := range sum {
		sum[j] /= n
	}
	return sum, nil
}

func (f *SoftForest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return f.artifact.classAt(argmax(proba))
}

// HardForest returns the majority label of its trees. It does not implement
// ProbabilityEstimator.
type HardForest struct {
	artifact *Artifact
}

func (f *HardForest) Predict(x []float64) (int, error) {
	if len(f.artifact.Trees) == 0 {
		return 0, ErrEmptyEnsemble
	}

	var votes []float64
	for i := range f.artifact.Trees {
		value, err := f.artifact.Trees[i].leaf(x)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		winner := argmax(value)
		for len(votes) <= winner {
			votes = append(votes, 0)
		}
		votes[winner]++
	}
	return f.artifact.classAt(argmax(votes))
}
