package beethovision

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// sampleRepo provides CRUD operations for samples and their frame-level
// annotations.
type sampleRepo struct {
	db *sql.DB
}

// insertBatch indexes media files into a dataset in a single transaction,
// preserving the given order. Tags and session may be empty at index time
// and filled in later by an import.
func (r *sampleRepo) insertBatch(datasetID string, samples []Sample) ([]Sample, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", ErrStorageError, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO samples (id, dataset_id, filepath, session, tags, width, height, frame_count, fps, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare insert: %v", ErrStorageError, err)
	}
	defer stmt.Close()

	now := time.Now()
	out := make([]Sample, len(samples))
	for i, s := range samples {
		s.ID = uuid.NewString()
		s.DatasetID = datasetID
		s.CreatedAt = now

		tags, err := json.Marshal(s.Tags)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding tags: %v", ErrStorageError, err)
		}

		if _, err := stmt.Exec(s.ID, datasetID, s.Filepath, s.Session, string(tags),
			s.Media.Width, s.Media.Height, s.Media.FrameCount, s.Media.FPS, now); err != nil {
			return nil, fmt.Errorf("%w: inserting sample %s: %v", ErrStorageError, s.Filepath, err)
		}
		out[i] = s
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrStorageError, err)
	}
	return out, nil
}

// listByDataset returns all samples of a dataset in insertion order.
func (r *sampleRepo) listByDataset(datasetID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, dataset_id, filepath, session, tags, width, height, frame_count, fps, created_at
		 FROM samples WHERE dataset_id = ? ORDER BY rowid`,
		datasetID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: listing samples: %v", ErrStorageError, err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var tags string
		if err := rows.Scan(&s.ID, &s.DatasetID, &s.Filepath, &s.Session, &tags,
			&s.Media.Width, &s.Media.Height, &s.Media.FrameCount, &s.Media.FPS, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning sample: %v", ErrStorageError, err)
		}
		if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
			return nil, fmt.Errorf("%w: decoding tags: %v", ErrStorageError, err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing samples: %v", ErrStorageError, err)
	}

	return samples, nil
}

// updateMedia stores probed frame metadata on a sample.
func (r *sampleRepo) updateMedia(sampleID string, media MediaInfo) error {
	res, err := r.db.Exec(
		`UPDATE samples SET width = ?, height = ?, frame_count = ?, fps = ? WHERE id = ?`,
		media.Width, media.Height, media.FrameCount, media.FPS, sampleID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating sample media: %v", ErrStorageError, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: updating sample media: %v", ErrStorageError, err)
	}
	if n == 0 {
		return ErrSampleNotFound
	}
	return nil
}

// addDetections writes the same detection set to frames 1..frameCount of a
// sample, in a single transaction. Annotation frames are 1-indexed.
func (r *sampleRepo) addDetections(sampleID, field string, frameCount int, dets []Detection) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrStorageError, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO detections (sample_id, frame_number, field, label, x, y, w, h, confidence, class)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ErrStorageError, err)
	}
	defer stmt.Close()

	for frame := 1; frame <= frameCount; frame++ {
		for _, d := range dets {
			if _, err := stmt.Exec(sampleID, frame, field, d.Label,
				d.Box[0], d.Box[1], d.Box[2], d.Box[3], d.Confidence, d.Class); err != nil {
				return fmt.Errorf("%w: inserting detection: %v", ErrStorageError, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorageError, err)
	}
	return nil
}

// detectionsForFrame returns the detections of one frame field.
func (r *sampleRepo) detectionsForFrame(sampleID string, frameNumber int, field string) ([]Detection, error) {
	rows, err := r.db.Query(
		`SELECT label, x, y, w, h, confidence, class FROM detections
		 WHERE sample_id = ? AND frame_number = ? AND field = ? ORDER BY id`,
		sampleID, frameNumber, field,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: loading detections: %v", ErrStorageError, err)
	}
	defer rows.Close()

	var dets []Detection
	for rows.Next() {
		var d Detection
		if err := rows.Scan(&d.Label, &d.Box[0], &d.Box[1], &d.Box[2], &d.Box[3], &d.Confidence, &d.Class); err != nil {
			return nil, fmt.Errorf("%w: scanning detection: %v", ErrStorageError, err)
		}
		dets = append(dets, d)
	}
	return dets, rows.Err()
}

// replaceKeypoints atomically replaces all keypoints of a field on a sample
// with the given frames. Used by the landmark runner so a re-run does not
// accumulate duplicate rows.
func (r *sampleRepo) replaceKeypoints(sampleID, field string, frames []FrameKeypoints) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", ErrStorageError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM keypoints WHERE sample_id = ? AND field = ?`, sampleID, field,
	); err != nil {
		return fmt.Errorf("%w: clearing keypoints: %v", ErrStorageError, err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO keypoints (sample_id, frame_number, field, label, points) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("%w: prepare insert: %v", ErrStorageError, err)
	}
	defer stmt.Close()

	for _, frame := range frames {
		for _, kp := range frame.Keypoints {
			points, err := json.Marshal(kp.Points)
			if err != nil {
				return fmt.Errorf("%w: encoding points: %v", ErrStorageError, err)
			}
			if _, err := stmt.Exec(sampleID, frame.FrameNumber, field, kp.Label, string(points)); err != nil {
				return fmt.Errorf("%w: inserting keypoints: %v", ErrStorageError, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorageError, err)
	}
	return nil
}

// keypointsBySample returns all keypoint frames of a field on a sample,
// ordered by frame number.
func (r *sampleRepo) keypointsBySample(sampleID, field string) ([]FrameKeypoints, error) {
	rows, err := r.db.Query(
		`SELECT frame_number, label, points FROM keypoints
		 WHERE sample_id = ? AND field = ? ORDER BY frame_number, id`,
		sampleID, field,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: loading keypoints: %v", ErrStorageError, err)
	}
	defer rows.Close()

	var frames []FrameKeypoints
	for rows.Next() {
		var frameNumber int
		var kp Keypoint
		var points string
		if err := rows.Scan(&frameNumber, &kp.Label, &points); err != nil {
			return nil, fmt.Errorf("%w: scanning keypoints: %v", ErrStorageError, err)
		}
		if err := json.Unmarshal([]byte(points), &kp.Points); err != nil {
			return nil, fmt.Errorf("%w: decoding points: %v", ErrStorageError, err)
		}

		if n := len(frames); n > 0 && frames[n-1].FrameNumber == frameNumber {
			frames[n-1].Keypoints = append(frames[n-1].Keypoints, kp)
		} else {
			frames = append(frames, FrameKeypoints{FrameNumber: frameNumber, Keypoints: []Keypoint{kp}})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: loading keypoints: %v", ErrStorageError, err)
	}

	return frames, nil
}
