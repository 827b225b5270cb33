package classifier

import (
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stump splits on JobSatisfaction (index 3): <= 2 leaves, > 2 stays.
func stump(value0, value1 []float64) Tree {
	return Tree{Nodes: []Node{
		{Feature: 3, Threshold: 2.5, Left: 1, Right: 2},
		{Left: -1, Right: -1, Value: value0},
		{Left: -1, Right: -1, Value: value1},
	}}
}

func testArtifact(voting Voting) *Artifact {
	return &Artifact{
		Format:    ArtifactFormat,
		Version:   ArtifactVersion,
		Voting:    voting,
		NFeatures: 5,
		Classes:   []int{0, 1},
		Trees: []Tree{
			stump([]float64{0.2, 0.8}, []float64{0.9, 0.1}),
			stump([]float64{0, 4}, []float64{3, 1}),
		},
	}
}

func TestSoftForestProbabilities(t *testing.T) {
	clf := testArtifact(VotingSoft).Classifier()
	est, ok := clf.(ProbabilityEstimator)
	require.True(t, ok, "soft voting must expose probabilities")

	proba, err := est.PredictProba([]float64{0, 0, 3, 1, 0})
	require.NoError(t, err)
	require.Len(t, proba, 2)
	assert.InDelta(t, 0.1, proba[0], 1e-9)
	assert.InDelta(t, 0.9, proba[1], 1e-9)
	assert.InDelta(t, 1.0, proba[0]+proba[1], 1e-9)

	label, err := est.Predict([]float64{0, 0, 3, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, label)

	label, err = est.Predict([]float64{0, 0, 3, 4, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestHardForestIsLabelOnly(t *testing.T) {
	clf := testArtifact(VotingHard).Classifier()
	_, ok := clf.(ProbabilityEstimator)
	assert.False(t, ok, "hard voting must not expose probabilities")

	label, err := clf.Predict([]float64{0, 0, 3, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestHardForestTieGoesToFirstClass(t *testing.T) {
	artifact := &Artifact{
		Format:  ArtifactFormat,
		Voting:  VotingHard,
		Classes: []int{0, 1},
		Trees: []Tree{
			{Nodes: []Node{{Left: -1, Right: -1, Value: []float64{1, 0}}}},
			{Nodes: []Node{{Left: -1, Right: -1, Value: []float64{0, 1}}}},
		},
	}
	label, err := artifact.Classifier().Predict([]float64{0, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, label)
}

func TestMalformedTreesFailAtPrediction(t *testing.T) {
	tests := []struct {
		name string
		tree Tree
		x    []float64
	}{
		{
			name: "feature index beyond input",
			tree: Tree{Nodes: []Node{
				{Feature: 7, Threshold: 1, Left: 1, Right: 1},
				{Left: -1, Right: -1, Value: []float64{1, 0}},
			}},
			x: []float64{1, 2, 3, 4, 5},
		},
		{
			name: "dangling child",
			tree: Tree{Nodes: []Node{{Feature: 0, Threshold: 1, Left: 5, Right: 6}}},
			x:    []float64{1, 2, 3, 4, 5},
		},
		{
			name: "cycle",
			tree: Tree{Nodes: []Node{{Feature: 0, Threshold: 10, Left: 0, Right: 0}}},
			x:    []float64{1, 2, 3, 4, 5},
		},
		{
			name: "empty leaf",
			tree: Tree{Nodes: []Node{{Left: -1, Right: -1}}},
			x:    []float64{1, 2, 3, 4, 5},
		},
		{
			name: "no nodes",
			tree: Tree{},
			x:    []float64{1, 2, 3, 4, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifact := &Artifact{Format: ArtifactFormat, Voting: VotingSoft, Trees: []Tree{tt.tree}}
			_, err := artifact.Classifier().Predict(tt.x)
			assert.Error(t, err)
		})
	}
}

func TestEmptyEnsemble(t *testing.T) {
	for _, voting := range []Voting{VotingSoft, VotingHard} {
		artifact := &Artifact{Format: ArtifactFormat, Voting: voting}
		_, err := artifact.Classifier().Predict([]float64{1, 2, 3, 4, 5})
		assert.ErrorIs(t, err, ErrEmptyEnsemble)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "attrition_model.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attrition_model.json")
	require.NoError(t, os.WriteFile(path, []byte("\x80\x04\x95 not json"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "decode classifier")
}

func TestLoadUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attrition_model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"format":"sklearn-pickle"}`), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSaveLoadKeepsVotingVariant(t *testing.T) {
	dir := t.TempDir()
	for _, voting := range []Voting{VotingSoft, VotingHard} {
		path := filepath.Join(dir, string(voting)+".json")
		require.NoError(t, Save(path, testArtifact(voting)))

		clf, err := Load(path)
		require.NoError(t, err)
		_, probabilistic := clf.(ProbabilityEstimator)
		assert.Equal(t, voting == VotingSoft, probabilistic)

		label, err := clf.Predict([]float64{0, 0, 3, 1, 0})
		require.NoError(t, err)
		assert.Equal(t, 1, label)
	}
}

func TestGenerateDemoDatasetRanges(t *testing.T) {
	x, y := GenerateDemoDataset(200, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, x, 200)
	require.Len(t, y, 200)

	for i, row := range x {
		require.Len(t, row, 5)
		for f, r := range featureRanges {
			assert.GreaterOrEqual(t, row[f], float64(r[0]))
			assert.Less(t, row[f], float64(r[1]))
			assert.Equal(t, float64(int(row[f])), row[f], "features are whole numbers")
		}
		assert.Equal(t, DemoLabel(row), y[i])
	}
}

func TestDemoLabel(t *testing.T) {
	assert.Equal(t, 0, DemoLabel([]float64{0, 0, 4, 4, 0}))
	assert.Equal(t, 1, DemoLabel([]float64{0, 0, 4, 3, 0}))
	assert.Equal(t, 1, DemoLabel([]float64{8, 5, 1, 1, 0}))
}

func TestFitLearnsDemoRule(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	x, y := GenerateDemoDataset(500, rng)

	artifact, err := Fit(x, y, FitOptions{Trees: 25, Rand: rng})
	require.NoError(t, err)
	assert.Equal(t, ArtifactFormat, artifact.Format)
	assert.Equal(t, VotingSoft, artifact.Voting)
	assert.Equal(t, 5, artifact.NFeatures)
	assert.Equal(t, []int{0, 1}, artifact.Classes)
	assert.Len(t, artifact.Trees, 25)

	est := artifact.Classifier().(ProbabilityEstimator)

	stay := []float64{0, 0, 4, 4, 3}
	proba, err := est.PredictProba(stay)
	require.NoError(t, err)
	assert.Less(t, proba[1], 0.5)
	label, err := est.Predict(stay)
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	leave := []float64{0, 0, 1, 1, 0}
	proba, err = est.PredictProba(leave)
	require.NoError(t, err)
	assert.Greater(t, proba[1], 0.5)
	label, err = est.Predict(leave)
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}

func TestFitRejectsBadInput(t *testing.T) {
	_, err := Fit(nil, nil, FitOptions{})
	assert.Error(t, err)

	_, err = Fit([][]float64{{1, 2}}, []int{0, 1}, FitOptions{})
	assert.Error(t, err)

	_, err = Fit([][]float64{{1, 2}, {1}}, []int{0, 1}, FitOptions{})
	assert.Error(t, err)
}

func TestFitSingleClassYieldsOneSlotLeaves(t *testing.T) {
	x := [][]float64{{1, 1, 4, 4, 3}, {2, 2, 4, 4, 2}}
	artifact, err := Fit(x, []int{0, 0}, FitOptions{Trees: 3, Rand: rand.New(rand.NewPCG(1, 1))})
	require.NoError(t, err)

	proba, err := artifact.Classifier().(ProbabilityEstimator).PredictProba(x[0])
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, proba)
}

func TestTrainerOutputIsNotTheServedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(filepath.Join(dir, "model.json"), testArtifact(VotingSoft)))

	_, err := Load(filepath.Join(dir, "attrition_model.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
