package beethovision

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"
)

// MediaPipeDetector implements Detector using a Python MediaPipe hand
// landmarker subprocess. Frames are decoded with gocv, JPEG-encoded, and
// streamed to the service as length-prefixed messages; the service answers
// one JSON line per frame.
type MediaPipeDetector struct {
	config     DetectorConfig
	modelAsset string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	started bool
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on the first detection.
func NewMediaPipeDetector(config DetectorConfig) (*MediaPipeDetector, error) {
	if findLandmarkerScript() == "" {
		return nil, fmt.Errorf("%w: landmarker_service.py not found", ErrDetectorError)
	}
	return &MediaPipeDetector{config: config}, nil
}

// SetModelAsset points the detector at the hand landmarker model file.
func (d *MediaPipeDetector) SetModelAsset(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modelAsset = path
}

// DetectVideo decodes path frame by frame and reports detected hands.
// Frame numbers are 1-indexed to match the annotation store convention.
func (d *MediaPipeDetector) DetectVideo(ctx context.Context, path string, fn func(frameNumber int, hands []HandLandmarks) error) error {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrDetectorError, path, err)
	}
	defer cap.Close()

	fps := cap.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30
	}

	frame := gocv.NewMat()
	defer frame.Close()

	frameNumber := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if ok := cap.Read(&frame); !ok || frame.Empty() {
			return nil
		}
		frameNumber++

		timestampMS := int64(1000.0 / fps * float64(frameNumber))
		hands, err := d.detectFrame(&frame, timestampMS)
		if err != nil {
			return err
		}

		if err := fn(frameNumber, hands); err != nil {
			return err
		}
	}
}

// detectFrame sends one frame to the service and parses its response.
func (d *MediaPipeDetector) detectFrame(frame *gocv.Mat, timestampMS int64) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("%w: encode frame: %v", ErrDetectorError, err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	// Message framing: 8-byte big-endian timestamp, 4-byte big-endian
	// length, then the JPEG payload.
	header := make([]byte, 12)
	binary.BigEndian.PutUint64(header[:8], uint64(timestampMS))
	binary.BigEndian.PutUint32(header[8:], uint32(len(data)))

	if _, err := d.stdin.Write(header); err != nil {
		return nil, fmt.Errorf("%w: write header: %v", ErrDetectorError, err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("%w: write frame: %v", ErrDetectorError, err)
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrDetectorError, err)
	}

	var response struct {
		Hands []jsonHand `json:"hands"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrDetectorError, err)
	}

	hands := make([]HandLandmarks, 0, len(response.Hands))
	for _, h := range response.Hands {
		if h.Score < d.config.MinConfidence {
			continue
		}
		hands = append(hands, h.toHandLandmarks())
	}
	return hands, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		return nil
	}
	d.started = false

	d.stdin.Close()
	err := d.cmd.Wait()
	d.cmd = nil
	return err
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}
	if d.modelAsset == "" {
		return fmt.Errorf("%w: model asset not set", ErrDetectorError)
	}

	scriptPath := findLandmarkerScript()
	if scriptPath == "" {
		return fmt.Errorf("%w: landmarker_service.py not found", ErrDetectorError)
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, scriptPath,
		"--model-asset-path", d.modelAsset,
		"--num-hands", fmt.Sprint(d.config.MaxHands),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: create stdin pipe: %v", ErrDetectorError, err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: create stdout pipe: %v", ErrDetectorError, err)
	}
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("%w: start landmarker service: %v", ErrDetectorError, err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	return nil
}

// jsonHand is the wire form of one detected hand.
type jsonHand struct {
	Handedness string       `json:"handedness"`
	Score      float64      `json:"score"`
	Points     [][3]float64 `json:"points"`
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	out := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	for i := 0; i < NumLandmarks && i < len(h.Points); i++ {
		out.Points[i] = Point3D{X: h.Points[i][0], Y: h.Points[i][1], Z: h.Points[i][2]}
	}
	return out
}

// findLandmarkerScript locates landmarker_service.py next to the executable
// or in the working directory.
func findLandmarkerScript() string {
	candidates := []string{
		"scripts/landmarker_service.py",
		"landmarker_service.py",
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "scripts", "landmarker_service.py"),
			filepath.Join(dir, "landmarker_service.py"),
		)
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// findVenvPython returns the project virtualenv Python if one exists.
func findVenvPython() string {
	candidates := []string{
		filepath.Join(".venv", "bin", "python"),
		filepath.Join("venv", "bin", "python"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// gocvProber implements Prober using gocv's video capture metadata.
type gocvProber struct{}

// Probe reads frame dimensions, count, and rate from path.
func (gocvProber) Probe(path string) (MediaInfo, error) {
	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return MediaInfo{}, fmt.Errorf("%w: opening %s: %v", ErrDetectorError, path, err)
	}
	defer cap.Close()

	return MediaInfo{
		Width:      int(cap.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(cap.Get(gocv.VideoCaptureFrameHeight)),
		FrameCount: int(cap.Get(gocv.VideoCaptureFrameCount)),
		FPS:        cap.Get(gocv.VideoCaptureFPS),
	}, nil
}
