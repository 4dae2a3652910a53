package beethovision

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvVarName(t *testing.T) {
	tests := []struct {
		appName string
		want    string
	}{
		{"beethovision", "BEETHOVISION_DATASET_DIR"},
		{"myapp", "MYAPP_DATASET_DIR"},
		{"MixedCase", "MIXEDCASE_DATASET_DIR"},
	}

	for _, tt := range tests {
		if got := envVarName(tt.appName); got != tt.want {
			t.Errorf("envVarName(%q) = %q, want %q", tt.appName, got, tt.want)
		}
	}
}

func TestNewLayoutDataDirOverride(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "custom")

	lay, err := newLayout(Config{AppName: "testapp", DataDir: tmpDir})
	if err != nil {
		t.Fatalf("newLayout() error = %v", err)
	}

	if lay.baseDir != tmpDir {
		t.Errorf("baseDir = %q, want %q", lay.baseDir, tmpDir)
	}

	// The base directory is created eagerly.
	if _, err := os.Stat(tmpDir); err != nil {
		t.Errorf("base directory was not created: %v", err)
	}
}

func TestDatasetDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TESTAPP_DATASET_DIR", "")

	lay, err := newLayout(Config{AppName: "testapp", DataDir: tmpDir})
	if err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(tmpDir, "rach3")
	if got := lay.datasetDir("rach3"); got != want {
		t.Errorf("datasetDir() = %q, want %q", got, want)
	}
}

func TestDatasetDirEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TESTAPP_DATASET_DIR", "/mnt/external/rach3")

	lay, err := newLayout(Config{AppName: "testapp", DataDir: tmpDir})
	if err != nil {
		t.Fatal(err)
	}

	// The env var designates the directory directly; the dataset name is
	// not appended.
	if got := lay.datasetDir("rach3"); got != "/mnt/external/rach3" {
		t.Errorf("datasetDir() = %q, want env var value as-is", got)
	}
}

func TestLayoutPaths(t *testing.T) {
	tmpDir := t.TempDir()

	lay, err := newLayout(Config{AppName: "testapp", DataDir: tmpDir})
	if err != nil {
		t.Fatal(err)
	}

	if got := lay.dbPath(); got != filepath.Join(tmpDir, "annotations.db") {
		t.Errorf("dbPath() = %q", got)
	}
	if got := lay.archivePath("meta.zip"); got != filepath.Join(tmpDir, "meta.zip") {
		t.Errorf("archivePath() = %q", got)
	}
	if got := lay.modelAssetPath(); got != filepath.Join(tmpDir, "hand_landmarker.task") {
		t.Errorf("modelAssetPath() = %q", got)
	}
}
