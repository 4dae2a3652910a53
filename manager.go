package beethovision

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// manager is the concrete implementation of the Manager interface.
type manager struct {
	// cfg holds the module configuration with defaults applied.
	cfg Config

	// logger receives diagnostic messages. May be nil.
	logger Logger

	// layout resolves filesystem locations.
	layout *layout

	// store is the annotation database.
	store *store

	// fetcher downloads the archive and the model asset.
	fetcher *fetcher

	// detector runs the landmark model. Created lazily when nil.
	detector Detector

	// prober reads media metadata. Defaults to gocv when nil.
	prober Prober

	// provisionMu serializes provision operations in-process.
	provisionMu sync.Mutex

	// detectorMu guards lazy detector creation.
	detectorMu sync.Mutex
}

// Provision performs the download → unpack → register → cleanup sequence.
//
// The steps run strictly in order with no retries; a step failure aborts
// the remainder. Once the archive has been materialized on disk its removal
// is unconditional, whether or not a later step failed.
func (m *manager) Provision(ctx context.Context, opts ...ProvisionOption) (Dataset, error) {
	cfg := &provisionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	m.provisionMu.Lock()
	defer m.provisionMu.Unlock()

	// Cross-process lock so two provisions cannot interleave their steps.
	lockPath := filepath.Join(m.layout.baseDir, ".provision.lock")
	lock, err := newFileLock(lockPath, DefaultLockTimeout)
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: failed to create provision lock: %v", ErrStorageError, err)
	}
	if err := lock.Lock(); err != nil {
		return Dataset{}, fmt.Errorf("%w: another process is provisioning: %v", ErrStorageError, err)
	}
	defer lock.Unlock()

	name := m.cfg.DatasetName
	destDir := m.layout.datasetDir(name)
	archivePath := m.layout.archivePath(m.cfg.ArchiveName)

	// Step 1: download the archive.
	if cfg.progressFn != nil {
		cfg.progressFn(ProvisionProgress{Phase: "download"})
	}
	err = m.fetcher.fetch(ctx, m.cfg.ArchiveURL, archivePath, func(total, completed int64) {
		if cfg.progressFn != nil {
			cfg.progressFn(ProvisionProgress{
				Phase:          "download",
				BytesTotal:     total,
				BytesCompleted: completed,
			})
		}
	})
	if err != nil {
		return Dataset{}, fmt.Errorf("downloading archive: %w", err)
	}
	if m.logger != nil {
		m.logger.Info("archive downloaded", "path", archivePath)
	}

	if !cfg.keepArchive {
		defer func() {
			if err := os.Remove(archivePath); err != nil && m.logger != nil {
				m.logger.Warn("failed to remove archive", "path", archivePath, "error", err)
			}
		}()
	}

	// Step 2: unpack into the dataset directory.
	err = extractArchive(ctx, archivePath, destDir, func(entry string) {
		if cfg.progressFn != nil {
			cfg.progressFn(ProvisionProgress{Phase: "extract", CurrentFile: entry})
		}
	})
	if err != nil {
		return Dataset{}, fmt.Errorf("extracting archive: %w", err)
	}
	if m.logger != nil {
		m.logger.Info("archive extracted", "dir", destDir)
	}

	// Step 3: register the directory as a dataset.
	if cfg.progressFn != nil {
		cfg.progressFn(ProvisionProgress{Phase: "register", CurrentFile: destDir})
	}
	ds, err := m.store.datasets().create(name, m.cfg.MediaType, destDir)
	if err != nil {
		return Dataset{}, fmt.Errorf("registering dataset: %w", err)
	}
	if m.logger != nil {
		m.logger.Info("dataset registered", "name", name, "type", m.cfg.MediaType)
	}

	// Step 4: cleanup runs via the deferred removal above.
	if cfg.progressFn != nil {
		cfg.progressFn(ProvisionProgress{Phase: "cleanup", CurrentFile: archivePath})
	}

	return ds, nil
}

// Import creates a dataset from the media files in dir and annotates its
// frames with keyboard bounding boxes.
func (m *manager) Import(ctx context.Context, name, dir string, opts ...ImportOption) (Dataset, error) {
	cfg := newImportConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if name == "" {
		name = m.cfg.DatasetName
	}
	if dir == "" {
		dir = m.layout.datasetDir(name)
	}

	if cfg.overwrite {
		if err := m.store.datasets().delete(name); err != nil && !errors.Is(err, ErrDatasetNotFound) {
			return Dataset{}, err
		}
	}

	ds, err := m.store.datasets().create(name, m.cfg.MediaType, dir)
	if err != nil {
		return Dataset{}, err
	}

	paths, err := findMediaFiles(dir, cfg.globPattern)
	if err != nil {
		return Dataset{}, err
	}
	if m.logger != nil {
		m.logger.Info("adding samples to dataset", "name", name, "count", len(paths))
	}

	samples := make([]Sample, len(paths))
	for i, path := range paths {
		session, err := sessionFromPath(path)
		if err != nil {
			return Dataset{}, err
		}
		samples[i] = Sample{
			Filepath: path,
			Session:  session,
			Tags:     []string{trainTestTag(path)},
		}
	}

	samples, err = m.store.samples().insertBatch(ds.ID, samples)
	if err != nil {
		return Dataset{}, err
	}

	// Probe frame metadata for each sample.
	prober := m.prober
	if prober == nil {
		prober = gocvProber{}
	}
	for i := range samples {
		select {
		case <-ctx.Done():
			return Dataset{}, ctx.Err()
		default:
		}
		if cfg.progressFn != nil {
			cfg.progressFn(samples[i].Filepath)
		}

		media, err := prober.Probe(samples[i].Filepath)
		if err != nil {
			return Dataset{}, err
		}
		samples[i].Media = media
		if err := m.store.samples().updateMedia(samples[i].ID, media); err != nil {
			return Dataset{}, err
		}
	}

	if cfg.boxesFile != "" {
		if err := m.importBoxes(ctx, dir, samples, cfg); err != nil {
			return Dataset{}, err
		}
	}

	ds.SampleCount = len(samples)
	return ds, nil
}

// importBoxes loads the bounding-box predictions file and fans each
// sample's session boxes out to all of its frames.
func (m *manager) importBoxes(ctx context.Context, dir string, samples []Sample, cfg *importConfig) error {
	boxesPath := cfg.boxesFile
	if !filepath.IsAbs(boxesPath) {
		boxesPath = filepath.Join(dir, boxesPath)
	}

	all, err := loadSessionBoxes(boxesPath)
	if err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.Info("adding keyboard bounding boxes", "file", boxesPath, "sessions", len(all))
	}

	for _, sample := range samples {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		preds, err := boxesForSession(all, sample.Session)
		if err != nil {
			return err
		}

		dets := make([]Detection, len(preds))
		for i, p := range preds {
			dets[i] = normalizeBox(p, sample.Media.Width, sample.Media.Height)
		}

		if err := m.store.samples().addDetections(sample.ID, cfg.boxesField, sample.Media.FrameCount, dets); err != nil {
			return err
		}
	}

	return nil
}

// RunLandmarks runs the hand landmark detector over a dataset's samples.
func (m *manager) RunLandmarks(ctx context.Context, name string, opts ...RunOption) error {
	cfg := newRunConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if name == "" {
		name = m.cfg.DatasetName
	}

	ds, err := m.store.datasets().get(name)
	if err != nil {
		return err
	}

	if err := m.store.datasets().setSkeleton(ds.ID, DefaultHandSkeleton()); err != nil {
		return err
	}

	samples, err := m.store.samples().listByDataset(ds.ID)
	if err != nil {
		return err
	}
	samples = takeSamples(samples, cfg.sampleLimit, cfg.seed)

	modelAsset := cfg.modelAsset
	if modelAsset == "" {
		modelAsset = m.layout.modelAssetPath()
		if m.logger != nil {
			m.logger.Info("downloading model asset", "url", m.cfg.ModelAssetURL)
		}
		if err := m.fetcher.fetch(ctx, m.cfg.ModelAssetURL, modelAsset, nil); err != nil {
			return fmt.Errorf("downloading model asset: %w", err)
		}
	}

	detector, err := m.getDetector()
	if err != nil {
		return err
	}
	detector.SetModelAsset(modelAsset)

	for i, sample := range samples {
		if cfg.progressFn != nil {
			cfg.progressFn(RunProgress{
				SamplesTotal:     len(samples),
				SamplesCompleted: i,
				CurrentSample:    sample.Filepath,
			})
		}

		var frames []FrameKeypoints
		err := detector.DetectVideo(ctx, sample.Filepath, func(frameNumber int, hands []HandLandmarks) error {
			keypoints := make([]Keypoint, len(hands))
			for j, h := range hands {
				keypoints[j] = h.Keypoint()
			}
			frames = append(frames, FrameKeypoints{FrameNumber: frameNumber, Keypoints: keypoints})

			if cfg.progressFn != nil {
				cfg.progressFn(RunProgress{
					SamplesTotal:     len(samples),
					SamplesCompleted: i,
					CurrentSample:    sample.Filepath,
					FramesCompleted:  frameNumber,
				})
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("detecting %s: %w", sample.Filepath, err)
		}

		if err := m.store.samples().replaceKeypoints(sample.ID, cfg.field, frames); err != nil {
			return err
		}
	}

	if cfg.progressFn != nil {
		cfg.progressFn(RunProgress{SamplesTotal: len(samples), SamplesCompleted: len(samples)})
	}
	return nil
}

// Export writes one keypoints JSON document per sample into exportDir.
func (m *manager) Export(ctx context.Context, name, exportDir, field string) (int, error) {
	if name == "" {
		name = m.cfg.DatasetName
	}
	if field == "" {
		field = DefaultKeypointsField
	}

	ds, err := m.store.datasets().get(name)
	if err != nil {
		return 0, err
	}

	samples, err := m.store.samples().listByDataset(ds.ID)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, sample := range samples {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		frames, err := m.store.samples().keypointsBySample(sample.ID, field)
		if err != nil {
			return written, err
		}
		if _, err := exportSample(exportDir, sample, frames); err != nil {
			return written, err
		}
		written++
	}

	return written, nil
}

// ListDatasets returns all registered datasets.
func (m *manager) ListDatasets(ctx context.Context) ([]Dataset, error) {
	return m.store.datasets().list()
}

// GetDataset returns info about a registered dataset.
func (m *manager) GetDataset(ctx context.Context, name string) (Dataset, error) {
	return m.store.datasets().get(name)
}

// ListSamples returns the samples of a registered dataset.
func (m *manager) ListSamples(ctx context.Context, name string) ([]Sample, error) {
	ds, err := m.store.datasets().get(name)
	if err != nil {
		return nil, err
	}
	return m.store.samples().listByDataset(ds.ID)
}

// RemoveDataset deletes a dataset from the store.
func (m *manager) RemoveDataset(ctx context.Context, name string) error {
	return m.store.datasets().delete(name)
}

// DatasetDir returns the destination directory for a dataset name.
func (m *manager) DatasetDir(name string) string {
	if name == "" {
		name = m.cfg.DatasetName
	}
	return m.layout.datasetDir(name)
}

// Close releases the store and any running detector.
func (m *manager) Close() error {
	var firstErr error
	m.detectorMu.Lock()
	if m.detector != nil {
		firstErr = m.detector.Close()
	}
	m.detectorMu.Unlock()

	if err := m.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// getDetector returns the configured detector, creating the MediaPipe
// subprocess detector on first use.
func (m *manager) getDetector() (Detector, error) {
	m.detectorMu.Lock()
	defer m.detectorMu.Unlock()

	if m.detector != nil {
		return m.detector, nil
	}

	d, err := NewMediaPipeDetector(DefaultDetectorConfig())
	if err != nil {
		return nil, err
	}
	m.detector = d
	return d, nil
}

// takeSamples returns a deterministic random subset of n samples in their
// original dataset order. Values of n <= 0 or >= len(samples) return all
// samples.
func takeSamples(samples []Sample, n int, seed int64) []Sample {
	if n <= 0 || n >= len(samples) {
		return samples
	}

	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(len(samples))[:n]
	sort.Ints(idx)

	out := make([]Sample, n)
	for i, j := range idx {
		out[i] = samples[j]
	}
	return out
}
