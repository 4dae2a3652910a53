package beethovision

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// exportSample writes one sample's frame keypoints as <stem>.json in
// exportDir. The export directory is created if missing.
func exportSample(exportDir string, sample Sample, frames []FrameKeypoints) (string, error) {
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating export directory: %v", ErrStorageError, err)
	}

	doc := SampleExport{
		Filename: filepath.Base(sample.Filepath),
		Frames:   frames,
	}
	if doc.Frames == nil {
		doc.Frames = []FrameKeypoints{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: encoding export: %v", ErrStorageError, err)
	}

	stem := strings.TrimSuffix(filepath.Base(sample.Filepath), filepath.Ext(sample.Filepath))
	path := filepath.Join(exportDir, stem+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", ErrStorageError, path, err)
	}

	return path, nil
}
