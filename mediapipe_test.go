package beethovision

import "testing"

func TestJSONHandToHandLandmarks(t *testing.T) {
	h := jsonHand{
		Handedness: "Right",
		Score:      0.92,
		Points:     make([][3]float64, NumLandmarks),
	}
	h.Points[Wrist] = [3]float64{0.5, 0.6, 0.01}
	h.Points[ThumbTip] = [3]float64{0.45, 0.55, -0.02}

	out := h.toHandLandmarks()

	if out.Handedness != "Right" {
		t.Errorf("Handedness = %q, want %q", out.Handedness, "Right")
	}
	if out.Score != 0.92 {
		t.Errorf("Score = %v, want 0.92", out.Score)
	}
	if out.Points[Wrist] != (Point3D{X: 0.5, Y: 0.6, Z: 0.01}) {
		t.Errorf("Points[Wrist] = %+v", out.Points[Wrist])
	}
	if out.Points[ThumbTip].Z != -0.02 {
		t.Errorf("Points[ThumbTip].Z = %v, want -0.02", out.Points[ThumbTip].Z)
	}
}

func TestJSONHandShortPointList(t *testing.T) {
	// A truncated point list fills what it has; the rest stays zero.
	h := jsonHand{Handedness: "Left", Points: [][3]float64{{0.1, 0.2, 0.3}}}

	out := h.toHandLandmarks()

	if out.Points[Wrist] != (Point3D{X: 0.1, Y: 0.2, Z: 0.3}) {
		t.Errorf("Points[Wrist] = %+v", out.Points[Wrist])
	}
	if out.Points[PinkyTip] != (Point3D{}) {
		t.Errorf("Points[PinkyTip] = %+v, want zero", out.Points[PinkyTip])
	}
}

func TestDefaultDetectorConfig(t *testing.T) {
	cfg := DefaultDetectorConfig()

	if cfg.MaxHands != 2 {
		t.Errorf("MaxHands = %d, want 2", cfg.MaxHands)
	}
	if cfg.MinConfidence != 0.5 {
		t.Errorf("MinConfidence = %v, want 0.5", cfg.MinConfidence)
	}
}
