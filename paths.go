package beethovision

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// envVarName constructs the dataset directory environment variable name
// from the app name. Converts appName to uppercase and appends
// "_DATASET_DIR". Example: envVarName("beethovision") returns
// "BEETHOVISION_DATASET_DIR".
func envVarName(appName string) string {
	return strings.ToUpper(appName) + "_DATASET_DIR"
}

// layout resolves all filesystem locations used by a manager.
type layout struct {
	// baseDir holds the annotation database, downloaded archives, and
	// (by default) the dataset directories.
	baseDir string

	// appName is used for the environment variable override.
	appName string
}

// newLayout resolves the base directory for a configuration.
// Priority: Config.DataDir > platform default.
func newLayout(cfg Config) (*layout, error) {
	baseDir := cfg.DataDir
	if baseDir == "" {
		defaultDir, err := getDefaultDataDir(cfg.AppName)
		if err != nil {
			return nil, fmt.Errorf("failed to get default data dir: %w", err)
		}
		baseDir = defaultDir
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create data directory: %v", ErrStorageError, err)
	}

	return &layout{baseDir: baseDir, appName: cfg.AppName}, nil
}

// datasetDir returns the destination directory for a named dataset.
// The <APPNAME>_DATASET_DIR environment variable, when set, designates the
// directory directly and takes priority over the base directory.
func (l *layout) datasetDir(name string) string {
	if envDir := os.Getenv(envVarName(l.appName)); envDir != "" {
		return envDir
	}
	return filepath.Join(l.baseDir, name)
}

// dbPath returns the path of the annotation database.
func (l *layout) dbPath() string {
	return filepath.Join(l.baseDir, "annotations.db")
}

// archivePath returns the local path the metadata archive is downloaded to.
func (l *layout) archivePath(archiveName string) string {
	return filepath.Join(l.baseDir, archiveName)
}

// modelAssetPath returns the local path of the downloaded landmark model.
func (l *layout) modelAssetPath() string {
	return filepath.Join(l.baseDir, "hand_landmarker.task")
}
