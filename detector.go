package beethovision

import "context"

// Detector runs a hand landmark model over a video file.
type Detector interface {
	// DetectVideo decodes path frame by frame and invokes fn with the
	// 1-indexed frame number and the hands detected on that frame. fn
	// returning an error stops the run.
	DetectVideo(ctx context.Context, path string, fn func(frameNumber int, hands []HandLandmarks) error) error

	// SetModelAsset points the detector at the landmark model file.
	// Must be called before DetectVideo.
	SetModelAsset(path string)

	// Close releases any resources held by the detector.
	Close() error
}

// Prober reads frame metadata from a media file.
type Prober interface {
	// Probe returns the dimensions, frame count, and frame rate of path.
	Probe(path string) (MediaInfo, error)
}

// DetectorConfig holds configuration options for hand detection.
type DetectorConfig struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64
}

// DefaultDetectorConfig returns a DetectorConfig with sensible defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MaxHands:      2,
		MinConfidence: 0.5,
	}
}
