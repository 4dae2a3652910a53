package beethovision

import (
	"context"
	"errors"
)

// Manager provides programmatic access to dataset provisioning and
// annotation. All methods are safe for concurrent use.
// For CLI integration, use NewCommand instead.
type Manager interface {
	// Provision downloads the metadata archive, unpacks it into the
	// dataset directory, registers the directory as a dataset under the
	// configured name and media type, and removes the archive.
	//
	// The dataset directory must already exist; the unpack step never
	// creates it. Returns ErrDatasetExists if a dataset with the
	// configured name is already registered.
	Provision(ctx context.Context, opts ...ProvisionOption) (Dataset, error)

	// Import creates a dataset from the media files in a directory:
	// samples are indexed in recording order, tagged train/test, given a
	// session field, probed for frame metadata, and annotated with the
	// keyboard bounding boxes from the predictions file.
	//
	// An empty name or dir falls back to the configured dataset name and
	// its resolved directory. Returns ErrDatasetExists when the dataset
	// already exists and WithOverwrite() is not specified.
	Import(ctx context.Context, name, dir string, opts ...ImportOption) (Dataset, error)

	// RunLandmarks runs the hand landmark detector over every sample of
	// a registered dataset, writing per-frame keypoints to the keypoints
	// field and attaching the default hand skeleton to the dataset.
	// Returns ErrDatasetNotFound if the dataset is not registered.
	RunLandmarks(ctx context.Context, name string, opts ...RunOption) error

	// Export writes one JSON document per sample into exportDir, each
	// holding the sample's per-frame keypoints from the given field.
	// Returns the number of files written.
	Export(ctx context.Context, name, exportDir, field string) (int, error)

	// ListDatasets returns all registered datasets.
	ListDatasets(ctx context.Context) ([]Dataset, error)

	// GetDataset returns info about a registered dataset.
	// Returns ErrDatasetNotFound if the dataset is not registered.
	GetDataset(ctx context.Context, name string) (Dataset, error)

	// ListSamples returns the samples of a registered dataset.
	ListSamples(ctx context.Context, name string) ([]Sample, error)

	// RemoveDataset deletes a dataset and all its annotations from the
	// store. Media files on disk are left untouched.
	RemoveDataset(ctx context.Context, name string) error

	// DatasetDir returns the destination directory for a dataset name,
	// honoring the <APPNAME>_DATASET_DIR environment variable.
	DatasetDir(name string) string

	// Close releases the store and any running detector.
	Close() error
}

// Ensure manager implements Manager interface.
var _ Manager = (*manager)(nil)

// NewManager creates a new Manager with the given configuration.
// Returns an error if the configuration is invalid (empty AppName).
func NewManager(cfg Config, opts ...ManagerOption) (Manager, error) {
	if cfg.AppName == "" {
		return nil, errors.New("beethovision: AppName is required")
	}
	cfg = cfg.withDefaults()

	mcfg := newManagerConfig()
	for _, opt := range opts {
		opt(mcfg)
	}

	lay, err := newLayout(cfg)
	if err != nil {
		return nil, err
	}

	st, err := openStore(lay.dbPath())
	if err != nil {
		return nil, err
	}

	return &manager{
		cfg:      cfg,
		logger:   mcfg.logger,
		layout:   lay,
		store:    st,
		fetcher:  newFetcher(mcfg.httpClient, mcfg.logger),
		detector: mcfg.detector,
		prober:   mcfg.prober,
	}, nil
}
