package beethovision

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestParseMediaSortKey(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
		take    int
		split   int
	}{
		{
			name:  "full recording name",
			path:  "2023-01-14_a12_v01_split03.mp4",
			take:  12,
			split: 3,
		},
		{
			name:  "nested path",
			path:  "/data/train/2023-02-01_a5_v02_split10.mp4",
			take:  5,
			split: 10,
		},
		{
			name:    "missing split",
			path:    "2023-01-14_a12_v01.mp4",
			wantErr: true,
		},
		{
			name:    "missing take",
			path:    "2023-01-14_v01_split03.mp4",
			wantErr: true,
		},
		{
			name:    "not a recording",
			path:    "notes.txt",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := parseMediaSortKey(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSessionName) {
					t.Errorf("parseMediaSortKey(%q) error = %v, want ErrInvalidSessionName", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMediaSortKey(%q) error = %v", tt.path, err)
			}
			if key.take != tt.take {
				t.Errorf("take = %d, want %d", key.take, tt.take)
			}
			if key.split != tt.split {
				t.Errorf("split = %d, want %d", key.split, tt.split)
			}
		})
	}
}

func TestMediaSortKeyOrdering(t *testing.T) {
	// Later date sorts after earlier date regardless of take/split.
	a, err := parseMediaSortKey("2023-01-14_a99_v01_split99.mp4")
	if err != nil {
		t.Fatal(err)
	}
	b, err := parseMediaSortKey("2023-01-15_a1_v01_split01.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if !a.less(b) {
		t.Error("expected earlier date to sort first")
	}

	// Same date: take breaks the tie.
	c, _ := parseMediaSortKey("2023-01-14_a2_v01_split01.mp4")
	d, _ := parseMediaSortKey("2023-01-14_a10_v01_split01.mp4")
	if !c.less(d) {
		t.Error("expected take 2 to sort before take 10")
	}

	// Same date and take: split breaks the tie.
	e, _ := parseMediaSortKey("2023-01-14_a2_v01_split02.mp4")
	f, _ := parseMediaSortKey("2023-01-14_a2_v01_split10.mp4")
	if !e.less(f) {
		t.Error("expected split 2 to sort before split 10")
	}
}

func TestSessionFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path: "2023-01-14_a12_v01_split03.mp4", want: "2023-01-14_a12"},
		{path: "/data/videos/2023-02-01_a5_v02_split10.mp4", want: "2023-02-01_a5"},
		{path: "no_session_here.mp4", wantErr: true},
	}

	for _, tt := range tests {
		got, err := sessionFromPath(tt.path)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSessionName) {
				t.Errorf("sessionFromPath(%q) error = %v, want ErrInvalidSessionName", tt.path, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("sessionFromPath(%q) error = %v", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("sessionFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestTrainTestTag(t *testing.T) {
	if got := trainTestTag("/data/train/2023-01-14_a1_v01_split01.mp4"); got != "train" {
		t.Errorf("trainTestTag(train path) = %q, want %q", got, "train")
	}
	if got := trainTestTag("/data/videos/2023-01-14_a1_v01_split01.mp4"); got != "test" {
		t.Errorf("trainTestTag(other path) = %q, want %q", got, "test")
	}
}

func TestFindMediaFiles(t *testing.T) {
	dir := t.TempDir()

	// Created out of order; findMediaFiles must sort them.
	names := []string{
		"2023-01-15_a1_v01_split01.mp4",
		"2023-01-14_a2_v01_split02.mp4",
		"2023-01-14_a2_v01_split01.mp4",
		"2023-01-14_a1_v01_split01.mp4",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Non-matching files are skipped.
	if err := os.WriteFile(filepath.Join(dir, "rach3_bounding_boxes.json"), []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := findMediaFiles(dir, "*.mp4")
	if err != nil {
		t.Fatalf("findMediaFiles() error = %v", err)
	}

	want := []string{
		"2023-01-14_a1_v01_split01.mp4",
		"2023-01-14_a2_v01_split01.mp4",
		"2023-01-14_a2_v01_split02.mp4",
		"2023-01-15_a1_v01_split01.mp4",
	}
	if len(paths) != len(want) {
		t.Fatalf("findMediaFiles() returned %d paths, want %d", len(paths), len(want))
	}
	for i, w := range want {
		if filepath.Base(paths[i]) != w {
			t.Errorf("paths[%d] = %q, want %q", i, filepath.Base(paths[i]), w)
		}
	}
}

func TestFindMediaFilesRecursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "train")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "2023-01-14_a1_v01_split01.mp4"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := findMediaFiles(dir, "*.mp4")
	if err != nil {
		t.Fatalf("findMediaFiles() error = %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("findMediaFiles() returned %d paths, want 1", len(paths))
	}
}

func TestFindMediaFilesMissingDir(t *testing.T) {
	_, err := findMediaFiles(filepath.Join(t.TempDir(), "missing"), "*.mp4")
	if !errors.Is(err, ErrDestMissing) {
		t.Errorf("findMediaFiles(missing dir) error = %v, want ErrDestMissing", err)
	}
}

func TestFindMediaFilesUnparseableName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "whatever.mp4"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := findMediaFiles(dir, "*.mp4")
	if !errors.Is(err, ErrInvalidSessionName) {
		t.Errorf("findMediaFiles(bad name) error = %v, want ErrInvalidSessionName", err)
	}
}

func TestLoadSessionBoxes(t *testing.T) {
	dir := t.TempDir()
	doc := []sessionBoxes{
		{SessionID: "2023-01-14_a1"},
	}
	doc[0].Boxes = []boxPrediction{{Name: "keyboard", Confidence: 0.91, Class: 0}}
	doc[0].Boxes[0].Box.X1 = 100
	doc[0].Boxes[0].Box.Y1 = 200
	doc[0].Boxes[0].Box.X2 = 500
	doc[0].Boxes[0].Box.Y2 = 400

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "boxes.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := loadSessionBoxes(path)
	if err != nil {
		t.Fatalf("loadSessionBoxes() error = %v", err)
	}
	if len(got) != 1 || got[0].SessionID != "2023-01-14_a1" {
		t.Fatalf("loadSessionBoxes() = %+v", got)
	}
	if got[0].Boxes[0].Box.X2 != 500 {
		t.Errorf("Box.X2 = %v, want 500", got[0].Boxes[0].Box.X2)
	}
}

func TestLoadSessionBoxesMissing(t *testing.T) {
	_, err := loadSessionBoxes(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrStorageError) {
		t.Errorf("loadSessionBoxes(missing) error = %v, want ErrStorageError", err)
	}
}

func TestBoxesForSession(t *testing.T) {
	all := []sessionBoxes{
		{SessionID: "2023-01-14_a1", Boxes: []boxPrediction{{Name: "keyboard"}}},
		{SessionID: "2023-01-14_a2", Boxes: []boxPrediction{{Name: "keyboard"}}},
		{SessionID: "2023-01-14_a2", Boxes: []boxPrediction{{Name: "keyboard"}}},
	}

	boxes, err := boxesForSession(all, "2023-01-14_a1")
	if err != nil {
		t.Fatalf("boxesForSession() error = %v", err)
	}
	if len(boxes) != 1 {
		t.Errorf("boxesForSession() returned %d boxes, want 1", len(boxes))
	}

	// Zero entries is an error.
	if _, err := boxesForSession(all, "2023-01-15_a1"); !errors.Is(err, ErrNoBoxesForSession) {
		t.Errorf("boxesForSession(absent) error = %v, want ErrNoBoxesForSession", err)
	}

	// Multiple entries is an error too.
	if _, err := boxesForSession(all, "2023-01-14_a2"); !errors.Is(err, ErrNoBoxesForSession) {
		t.Errorf("boxesForSession(duplicate) error = %v, want ErrNoBoxesForSession", err)
	}
}

func TestNormalizeBox(t *testing.T) {
	p := boxPrediction{Name: "keyboard", Confidence: 0.87, Class: 2}
	p.Box.X1 = 192
	p.Box.Y1 = 108
	p.Box.X2 = 1728
	p.Box.Y2 = 972

	det := normalizeBox(p, 1920, 1080)

	want := [4]float64{0.1, 0.1, 0.8, 0.8}
	for i := range want {
		if math.Abs(det.Box[i]-want[i]) > 1e-9 {
			t.Errorf("Box[%d] = %v, want %v", i, det.Box[i], want[i])
		}
	}
	if det.Label != "keyboard" {
		t.Errorf("Label = %q, want %q", det.Label, "keyboard")
	}
	if det.Confidence != 0.87 {
		t.Errorf("Confidence = %v, want 0.87", det.Confidence)
	}
	if det.Class != 2 {
		t.Errorf("Class = %d, want 2", det.Class)
	}
}
