package beethovision

import "time"

// Defaults matching the published rach3 metadata bundle.
const (
	// DefaultArchiveURL is the share link of the pre-packaged metadata
	// archive.
	DefaultArchiveURL = "https://drive.google.com/uc?export=download&id=1X7kqAhRbeWmQeKJZdQnCbeVHqcJ9M0kA"

	// DefaultArchiveName is the local filename the archive is downloaded to
	// before extraction.
	DefaultArchiveName = "beethovision_meta.zip"

	// DefaultDatasetName is the logical name the dataset is registered under.
	DefaultDatasetName = "rach3"

	// DefaultMediaType is the declared media type of a registered dataset.
	DefaultMediaType = "video-directory"

	// DefaultModelAssetURL is where the hand landmarker model asset is
	// fetched from when no local path is supplied.
	DefaultModelAssetURL = "https://storage.googleapis.com/mediapipe-models/hand_landmarker/hand_landmarker/float16/latest/hand_landmarker.task"

	// DefaultKeypointsField is the frame field keypoints are written to.
	DefaultKeypointsField = "hand_landmarker_mp"

	// DefaultBoxesField is the frame field keyboard detections are written to.
	DefaultBoxesField = "keyboard"
)

// Config configures the beethovision module.
type Config struct {
	// AppName determines the storage directory name and the dataset
	// directory environment variable (<APPNAME>_DATASET_DIR).
	// Example: "beethovision" → ~/.local/share/beethovision/datasets/
	AppName string

	// ArchiveURL is the share link of the metadata archive.
	// If empty, DefaultArchiveURL is used.
	ArchiveURL string

	// ArchiveName is the local filename for the downloaded archive.
	// If empty, DefaultArchiveName is used.
	ArchiveName string

	// DatasetName is the logical name used when registering the dataset.
	// If empty, DefaultDatasetName is used.
	DatasetName string

	// MediaType is the declared type of a registered dataset.
	// If empty, DefaultMediaType is used.
	MediaType string

	// ModelAssetURL is where the landmark model asset is downloaded from.
	// If empty, DefaultModelAssetURL is used.
	ModelAssetURL string

	// DataDir overrides the default data directory.
	// If empty, uses platform-appropriate default.
	// The dataset directory itself can also be set via the environment
	// variable <APPNAME>_DATASET_DIR.
	DataDir string
}

// withDefaults returns a copy of the config with empty fields filled in.
func (c Config) withDefaults() Config {
	if c.ArchiveURL == "" {
		c.ArchiveURL = DefaultArchiveURL
	}
	if c.ArchiveName == "" {
		c.ArchiveName = DefaultArchiveName
	}
	if c.DatasetName == "" {
		c.DatasetName = DefaultDatasetName
	}
	if c.MediaType == "" {
		c.MediaType = DefaultMediaType
	}
	if c.ModelAssetURL == "" {
		c.ModelAssetURL = DefaultModelAssetURL
	}
	return c
}

// Dataset describes a registered dataset.
type Dataset struct {
	// ID is the dataset's unique identifier.
	ID string

	// Name is the logical dataset name.
	Name string

	// MediaType is the declared media type, e.g. "video-directory".
	MediaType string

	// SourceDir is the directory the dataset was registered from.
	SourceDir string

	// SampleCount is the number of indexed samples.
	SampleCount int

	// CreatedAt is when the dataset was registered.
	CreatedAt time.Time
}

// MediaInfo holds probed metadata for a video file.
type MediaInfo struct {
	// Width and Height are the frame dimensions in pixels.
	Width  int
	Height int

	// FrameCount is the total number of frames.
	FrameCount int

	// FPS is the frame rate.
	FPS float64
}

// Sample is a single media file indexed in a dataset.
type Sample struct {
	// ID is the sample's unique identifier.
	ID string

	// DatasetID identifies the owning dataset.
	DatasetID string

	// Filepath is the absolute path of the media file.
	Filepath string

	// Session is the recording-session key parsed from the filename,
	// e.g. "2023-01-14_a12".
	Session string

	// Tags are free-form labels, e.g. "train" or "test".
	Tags []string

	// Media holds probed frame metadata. Zero until Import probes the file.
	Media MediaInfo

	// CreatedAt is when the sample was indexed.
	CreatedAt time.Time
}

// Detection is a single bounding box on a frame.
// The box is [top-left-x, top-left-y, width, height] normalized to [0, 1].
type Detection struct {
	Label      string     `json:"label"`
	Box        [4]float64 `json:"box"`
	Confidence float64    `json:"confidence"`
	Class      int        `json:"class"`
}

// Keypoint is a labeled list of normalized 2D points on a frame.
type Keypoint struct {
	Label  string       `json:"label"`
	Points [][2]float64 `json:"points"`
}

// FrameKeypoints pairs a frame number with the keypoints detected on it.
type FrameKeypoints struct {
	FrameNumber int        `json:"frame_number"`
	Keypoints   []Keypoint `json:"keypoints"`
}

// SampleExport is the JSON document written per sample by Export.
type SampleExport struct {
	Filename string           `json:"filename"`
	Frames   []FrameKeypoints `json:"frames"`
}

// ProvisionProgress reports progress during a provision operation.
type ProvisionProgress struct {
	// Phase indicates the current phase: "download", "extract",
	// "register", or "cleanup".
	Phase string

	// BytesTotal is the total bytes to download. Zero when the remote
	// does not advertise a length.
	BytesTotal int64

	// BytesCompleted is the bytes downloaded so far.
	BytesCompleted int64

	// CurrentFile is the archive entry being extracted or the sample
	// being registered.
	CurrentFile string
}

// RunProgress reports progress while the landmark detector processes a
// dataset.
type RunProgress struct {
	// SamplesTotal is the number of samples to process.
	SamplesTotal int

	// SamplesCompleted is the number of samples fully processed.
	SamplesCompleted int

	// CurrentSample is the filepath of the sample being processed.
	CurrentSample string

	// FramesCompleted is the number of frames processed in the current
	// sample.
	FramesCompleted int
}
