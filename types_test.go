package beethovision

import "testing"

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{AppName: "testapp"}.withDefaults()

	if cfg.ArchiveURL != DefaultArchiveURL {
		t.Errorf("ArchiveURL = %q, want default", cfg.ArchiveURL)
	}
	if cfg.ArchiveName != DefaultArchiveName {
		t.Errorf("ArchiveName = %q, want default", cfg.ArchiveName)
	}
	if cfg.DatasetName != DefaultDatasetName {
		t.Errorf("DatasetName = %q, want default", cfg.DatasetName)
	}
	if cfg.MediaType != DefaultMediaType {
		t.Errorf("MediaType = %q, want default", cfg.MediaType)
	}
	if cfg.ModelAssetURL != DefaultModelAssetURL {
		t.Errorf("ModelAssetURL = %q, want default", cfg.ModelAssetURL)
	}
	// DataDir stays empty: the storage layer resolves the platform default.
	if cfg.DataDir != "" {
		t.Errorf("DataDir = %q, want empty", cfg.DataDir)
	}
}

func TestConfigWithDefaultsKeepsOverrides(t *testing.T) {
	cfg := Config{
		AppName:     "testapp",
		ArchiveURL:  "https://example.com/archive.zip",
		DatasetName: "custom",
	}.withDefaults()

	if cfg.ArchiveURL != "https://example.com/archive.zip" {
		t.Errorf("ArchiveURL = %q, override was lost", cfg.ArchiveURL)
	}
	if cfg.DatasetName != "custom" {
		t.Errorf("DatasetName = %q, override was lost", cfg.DatasetName)
	}
	if cfg.MediaType != DefaultMediaType {
		t.Errorf("MediaType = %q, want default", cfg.MediaType)
	}
}

func TestHandLandmarksKeypoint(t *testing.T) {
	var h HandLandmarks
	h.Handedness = "Left"
	h.Score = 0.95
	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.6, Z: 0.01}
	h.Points[IndexTip] = Point3D{X: 0.4, Y: 0.3, Z: -0.02}

	kp := h.Keypoint()

	if kp.Label != "Left" {
		t.Errorf("Label = %q, want %q", kp.Label, "Left")
	}
	if len(kp.Points) != NumLandmarks {
		t.Fatalf("Points has %d entries, want %d", len(kp.Points), NumLandmarks)
	}
	if kp.Points[Wrist] != [2]float64{0.5, 0.6} {
		t.Errorf("Points[Wrist] = %v", kp.Points[Wrist])
	}
	// Depth is dropped; only (x, y) survives.
	if kp.Points[IndexTip] != [2]float64{0.4, 0.3} {
		t.Errorf("Points[IndexTip] = %v", kp.Points[IndexTip])
	}
}

func TestDefaultHandSkeleton(t *testing.T) {
	sk := DefaultHandSkeleton()

	if len(sk.Labels) != NumLandmarks {
		t.Errorf("skeleton has %d labels, want %d", len(sk.Labels), NumLandmarks)
	}
	if sk.Labels[PinkyTip] != "PINKY_TIP" {
		t.Errorf("Labels[PinkyTip] = %q", sk.Labels[PinkyTip])
	}

	// Every edge references a valid landmark index.
	for _, edge := range sk.Edges {
		for _, idx := range edge {
			if idx < 0 || idx >= NumLandmarks {
				t.Errorf("edge %v references invalid landmark index %d", edge, idx)
			}
		}
	}
}
