package beethovision

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Recording filenames follow "<date>_a<take>_..._split<n>", e.g.
// "2023-01-14_a12_v01_split03.mp4". The session key is the "<date>_a<take>"
// prefix shared by all splits of one recording.
var (
	mediaSortRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})_a(\d+)_.*_split(\d+)`)
	sessionRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}_a\d+`)
)

// mediaSortKey orders media files by recording date, then take, then split.
type mediaSortKey struct {
	date  int // days, from time.Time.Unix truncated to days
	take  int
	split int
}

func (k mediaSortKey) less(other mediaSortKey) bool {
	if k.date != other.date {
		return k.date < other.date
	}
	if k.take != other.take {
		return k.take < other.take
	}
	return k.split < other.split
}

// parseMediaSortKey extracts the sort key from a media filename.
// Returns ErrInvalidSessionName if the stem does not match the recording
// naming scheme.
func parseMediaSortKey(path string) (mediaSortKey, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m := mediaSortRe.FindStringSubmatch(stem)
	if m == nil {
		return mediaSortKey{}, fmt.Errorf("%w: %q", ErrInvalidSessionName, stem)
	}

	date, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return mediaSortKey{}, fmt.Errorf("%w: %q: %v", ErrInvalidSessionName, stem, err)
	}
	take, _ := strconv.Atoi(m[2])
	split, _ := strconv.Atoi(m[3])

	return mediaSortKey{
		date:  int(date.Unix() / 86400),
		take:  take,
		split: split,
	}, nil
}

// sessionFromPath extracts the recording-session key from a media path.
func sessionFromPath(path string) (string, error) {
	session := sessionRe.FindString(path)
	if session == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionName, path)
	}
	return session, nil
}

// trainTestTag returns "train" when the path contains a train segment,
// otherwise "test".
func trainTestTag(path string) string {
	if strings.Contains(path, "train") {
		return "train"
	}
	return "test"
}

// findMediaFiles walks dir recursively collecting files whose base name
// matches pattern, ordered by their media sort key. Every matching file
// must carry a parseable sort key; a file that does not aborts the walk.
func findMediaFiles(dir, pattern string) ([]string, error) {
	type entry struct {
		path string
		key  mediaSortKey
	}
	var entries []entry

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		key, err := parseMediaSortKey(path)
		if err != nil {
			return err
		}
		entries = append(entries, entry{path: path, key: key})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDestMissing, dir)
		}
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].key.less(entries[j].key)
	})

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths, nil
}

// boxPrediction is one keyboard bounding box in the predictions file, with
// pixel corner coordinates.
type boxPrediction struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Class      int     `json:"class"`
	Box        struct {
		X1 float64 `json:"x1"`
		Y1 float64 `json:"y1"`
		X2 float64 `json:"x2"`
		Y2 float64 `json:"y2"`
	} `json:"box"`
}

// sessionBoxes groups the box predictions of one recording session.
type sessionBoxes struct {
	SessionID string          `json:"session_id"`
	Boxes     []boxPrediction `json:"box"`
}

// loadSessionBoxes parses the bounding-box predictions file.
func loadSessionBoxes(path string) ([]sessionBoxes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorageError, path, err)
	}

	var boxes []sessionBoxes
	if err := json.Unmarshal(data, &boxes); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrStorageError, path, err)
	}
	return boxes, nil
}

// boxesForSession returns the single prediction set for a session. The
// predictions file carries exactly one entry per session; zero or multiple
// entries is an error.
func boxesForSession(all []sessionBoxes, session string) ([]boxPrediction, error) {
	var found []sessionBoxes
	for _, sb := range all {
		if sb.SessionID == session {
			found = append(found, sb)
		}
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("%w: session %q has %d entries", ErrNoBoxesForSession, session, len(found))
	}
	return found[0].Boxes, nil
}

// normalizeBox converts pixel corner coordinates to a Detection with a
// [top-left-x, top-left-y, width, height] box normalized to [0, 1].
func normalizeBox(p boxPrediction, width, height int) Detection {
	w := float64(width)
	h := float64(height)
	x1 := p.Box.X1 / w
	y1 := p.Box.Y1 / h
	x2 := p.Box.X2 / w
	y2 := p.Box.Y2 / h
	return Detection{
		Label:      p.Name,
		Box:        [4]float64{x1, y1, x2 - x1, y2 - y1},
		Confidence: p.Confidence,
		Class:      p.Class,
	}
}
