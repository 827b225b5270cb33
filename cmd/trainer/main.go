package main

import (
	"flag"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/aigoflow/attrition-service/internal/classifier"
)

func main() {
	var (
		out    = flag.String("out", "model.json", "Where to write the trained artifact")
		rows   = flag.Int("rows", 100, "Number of synthetic employees")
		trees  = flag.Int("trees", 100, "Number of trees in the forest")
		seed   = flag.Uint64("seed", 0, "Random seed (0 draws a fresh one)")
		voting = flag.String("voting", string(classifier.VotingSoft), "Ensemble voting: soft or hard")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	v := classifier.Voting(*voting)
	if v != classifier.VotingSoft && v != classifier.VotingHard {
		slog.Error("Unknown voting mode", "voting", *voting)
		os.Exit(2)
	}

	if *rows <= 0 {
		slog.Error("Need at least one row", "rows", *rows)
		os.Exit(2)
	}

	s := *seed
	if s == 0 {
		s = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(s, s))

	x, y := classifier.GenerateDemoDataset(*rows, rng)
	artifact, err := classifier.Fit(x, y, classifier.FitOptions{
		Trees:  *trees,
		Voting: v,
		Rand:   rng,
	})
	if err != nil {
		slog.Error("Training failed", "error", err)
		os.Exit(1)
	}

	if err := classifier.Save(*out, artifact); err != nil {
		slog.Error("Failed to save model", "error", err)
		os.Exit(1)
	}

	slog.Info("Model saved", "path", *out, "rows", *rows, "trees", len(artifact.Trees), "voting", v, "seed", s)
}
