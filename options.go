package beethovision

import (
	"net/http"
	"time"
)

// Timeout constants for remote and filesystem operations.
const (
	// DefaultRequestTimeout is the default timeout for HTTP requests.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultLockTimeout is the default timeout for acquiring file locks.
	DefaultLockTimeout = 30 * time.Second
)

// ProvisionOption configures a provision operation.
type ProvisionOption func(*provisionConfig)

// provisionConfig holds configuration for a provision operation.
type provisionConfig struct {
	// progressFn is called with progress updates during the sequence.
	progressFn func(ProvisionProgress)

	// keepArchive skips the cleanup step, leaving the archive on disk.
	keepArchive bool
}

// WithProvisionProgress sets a callback for progress updates during
// provisioning. The callback is invoked from the downloading goroutine and
// must be fast.
func WithProvisionProgress(fn func(ProvisionProgress)) ProvisionOption {
	return func(c *provisionConfig) {
		c.progressFn = fn
	}
}

// WithKeepArchive leaves the downloaded archive in place instead of
// removing it after registration.
func WithKeepArchive() ProvisionOption {
	return func(c *provisionConfig) {
		c.keepArchive = true
	}
}

// ImportOption configures an import operation.
type ImportOption func(*importConfig)

// importConfig holds configuration for an import operation.
type importConfig struct {
	// overwrite deletes an existing dataset of the same name first.
	overwrite bool

	// boxesFile is the path of the bounding-box predictions JSON,
	// relative to the dataset directory when not absolute.
	boxesFile string

	// boxesField is the frame field detections are written to.
	boxesField string

	// globPattern matches media files under the dataset directory.
	globPattern string

	// progressFn is called with the sample being imported.
	progressFn func(current string)
}

func newImportConfig() *importConfig {
	return &importConfig{
		boxesFile:   "rach3_bounding_boxes.json",
		boxesField:  DefaultBoxesField,
		globPattern: "*.mp4",
	}
}

// WithOverwrite deletes an existing dataset with the same name before
// importing.
func WithOverwrite() ImportOption {
	return func(c *importConfig) {
		c.overwrite = true
	}
}

// WithBoxesFile sets the bounding-box predictions file. Relative paths are
// resolved against the dataset directory. An empty path skips the
// bounding-box import entirely.
func WithBoxesFile(path string) ImportOption {
	return func(c *importConfig) {
		c.boxesFile = path
	}
}

// WithBoxesField sets the frame field keyboard detections are written to.
func WithBoxesField(field string) ImportOption {
	return func(c *importConfig) {
		if field != "" {
			c.boxesField = field
		}
	}
}

// WithGlobPattern sets the filename pattern used to find media files.
// The pattern is matched against base names during the recursive walk.
func WithGlobPattern(pattern string) ImportOption {
	return func(c *importConfig) {
		if pattern != "" {
			c.globPattern = pattern
		}
	}
}

// WithImportProgress sets a callback invoked with each sample as it is
// imported.
func WithImportProgress(fn func(current string)) ImportOption {
	return func(c *importConfig) {
		c.progressFn = fn
	}
}

// RunOption configures a landmark run.
type RunOption func(*runConfig)

// runConfig holds configuration for a landmark run.
type runConfig struct {
	// modelAsset is a local model asset path. Empty means download.
	modelAsset string

	// field is the frame field keypoints are written to.
	field string

	// sampleLimit caps the number of samples processed. <= 0 means all.
	sampleLimit int

	// seed drives deterministic sampling when sampleLimit > 0.
	seed int64

	// progressFn is called with progress updates during the run.
	progressFn func(RunProgress)
}

func newRunConfig() *runConfig {
	return &runConfig{
		field: DefaultKeypointsField,
		seed:  0x5EED,
	}
}

// WithModelAsset sets a local model asset path, skipping the download.
func WithModelAsset(path string) RunOption {
	return func(c *runConfig) {
		c.modelAsset = path
	}
}

// WithKeypointsField sets the frame field keypoints are written to.
func WithKeypointsField(field string) RunOption {
	return func(c *runConfig) {
		if field != "" {
			c.field = field
		}
	}
}

// WithSampleLimit processes only n samples, chosen deterministically from
// the dataset. Values <= 0 process all samples.
func WithSampleLimit(n int) RunOption {
	return func(c *runConfig) {
		c.sampleLimit = n
	}
}

// WithSeed sets the random seed used by WithSampleLimit.
func WithSeed(seed int64) RunOption {
	return func(c *runConfig) {
		c.seed = seed
	}
}

// WithRunProgress sets a callback for progress updates during a run.
func WithRunProgress(fn func(RunProgress)) RunOption {
	return func(c *runConfig) {
		c.progressFn = fn
	}
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

// managerConfig holds configuration for Manager construction.
type managerConfig struct {
	// httpClient is used for all HTTP requests.
	httpClient HTTPClient

	// logger receives diagnostic log messages.
	logger Logger

	// detector runs the hand landmark model. Nil means MediaPipe.
	detector Detector

	// prober reads media metadata. Nil means gocv.
	prober Prober
}

// newManagerConfig returns a managerConfig with default values.
func newManagerConfig() *managerConfig {
	return &managerConfig{
		httpClient: http.DefaultClient,
	}
}

// WithHTTPClient sets a custom HTTP client for archive and model asset
// downloads. Useful for testing with mock servers or customizing timeouts.
// If not set, http.DefaultClient is used.
func WithHTTPClient(client HTTPClient) ManagerOption {
	return func(c *managerConfig) {
		c.httpClient = client
	}
}

// WithLogger sets a logger for diagnostic output.
// If not set, logging is disabled.
func WithLogger(logger Logger) ManagerOption {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// WithDetector sets a custom hand landmark detector.
// If not set, the MediaPipe subprocess detector is used.
func WithDetector(d Detector) ManagerOption {
	return func(c *managerConfig) {
		c.detector = d
	}
}

// WithProber sets a custom media prober.
// If not set, frame metadata is probed with gocv.
func WithProber(p Prober) ManagerOption {
	return func(c *managerConfig) {
		c.prober = p
	}
}

// HTTPClient is the interface for HTTP operations.
// *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// Logger is the interface for diagnostic logging.
// Compatible with slog, zap, logrus, and other structured loggers.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}
