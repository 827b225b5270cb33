package classifier

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a forest artifact from path. A missing file yields an error
// wrapping os.ErrNotExist. The trees are not checked against the feature
// count or class list; such mismatches fail on the first prediction.
func Load(path string) (Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier %s: %w", path, err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode classifier %s: %w", path, err)
	}
	if artifact.Format != ArtifactFormat {
		return nil, fmt.Errorf("decode classifier %s: %w %q", path, ErrUnknownFormat, artifact.Format)
	}

	return artifact.Classifier(), nil
}

// Save writes the artifact as indented JSON.
func Save(path string, artifact *Artifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encode classifier: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write classifier %s: %w", path, err)
	}
	return nil
}
