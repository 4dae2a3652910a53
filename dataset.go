package beethovision

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// datasetRepo provides CRUD operations for registered datasets.
type datasetRepo struct {
	db *sql.DB
}

// create registers a new dataset handle. Returns ErrDatasetExists when a
// dataset with the same name is already registered.
func (r *datasetRepo) create(name, mediaType, sourceDir string) (Dataset, error) {
	ds := Dataset{
		ID:        uuid.NewString(),
		Name:      name,
		MediaType: mediaType,
		SourceDir: sourceDir,
		CreatedAt: time.Now(),
	}

	_, err := r.db.Exec(
		`INSERT INTO datasets (id, name, media_type, source_dir, created_at) VALUES (?, ?, ?, ?, ?)`,
		ds.ID, ds.Name, ds.MediaType, ds.SourceDir, ds.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Dataset{}, fmt.Errorf("dataset %q: %w", name, ErrDatasetExists)
		}
		return Dataset{}, fmt.Errorf("%w: creating dataset: %v", ErrStorageError, err)
	}

	return ds, nil
}

// get retrieves a dataset by name, including its sample count.
func (r *datasetRepo) get(name string) (Dataset, error) {
	var ds Dataset
	err := r.db.QueryRow(
		`SELECT d.id, d.name, d.media_type, d.source_dir, d.created_at,
		        (SELECT COUNT(*) FROM samples s WHERE s.dataset_id = d.id)
		 FROM datasets d WHERE d.name = ?`,
		name,
	).Scan(&ds.ID, &ds.Name, &ds.MediaType, &ds.SourceDir, &ds.CreatedAt, &ds.SampleCount)
	if err == sql.ErrNoRows {
		return Dataset{}, fmt.Errorf("dataset %q: %w", name, ErrDatasetNotFound)
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("%w: loading dataset: %v", ErrStorageError, err)
	}
	return ds, nil
}

// list returns all registered datasets ordered by name.
func (r *datasetRepo) list() ([]Dataset, error) {
	rows, err := r.db.Query(
		`SELECT d.id, d.name, d.media_type, d.source_dir, d.created_at,
		        (SELECT COUNT(*) FROM samples s WHERE s.dataset_id = d.id)
		 FROM datasets d ORDER BY d.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: listing datasets: %v", ErrStorageError, err)
	}
	defer rows.Close()

	var datasets []Dataset
	for rows.Next() {
		var ds Dataset
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.MediaType, &ds.SourceDir, &ds.CreatedAt, &ds.SampleCount); err != nil {
			return nil, fmt.Errorf("%w: scanning dataset: %v", ErrStorageError, err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing datasets: %v", ErrStorageError, err)
	}

	return datasets, nil
}

// delete removes a dataset and (via cascade) its samples and annotations.
// Returns ErrDatasetNotFound if no dataset has the given name.
func (r *datasetRepo) delete(name string) error {
	res, err := r.db.Exec(`DELETE FROM datasets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("%w: deleting dataset: %v", ErrStorageError, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: deleting dataset: %v", ErrStorageError, err)
	}
	if n == 0 {
		return fmt.Errorf("dataset %q: %w", name, ErrDatasetNotFound)
	}
	return nil
}

// setSkeleton stores the default keypoint skeleton for a dataset.
func (r *datasetRepo) setSkeleton(datasetID string, sk Skeleton) error {
	labels, err := json.Marshal(sk.Labels)
	if err != nil {
		return fmt.Errorf("%w: encoding skeleton labels: %v", ErrStorageError, err)
	}
	edges, err := json.Marshal(sk.Edges)
	if err != nil {
		return fmt.Errorf("%w: encoding skeleton edges: %v", ErrStorageError, err)
	}

	_, err = r.db.Exec(
		`INSERT INTO skeletons (dataset_id, labels, edges) VALUES (?, ?, ?)
		 ON CONFLICT(dataset_id) DO UPDATE SET labels = excluded.labels, edges = excluded.edges`,
		datasetID, string(labels), string(edges),
	)
	if err != nil {
		return fmt.Errorf("%w: saving skeleton: %v", ErrStorageError, err)
	}
	return nil
}

// skeleton loads the default keypoint skeleton for a dataset. Returns a
// zero Skeleton and no error when none is set.
func (r *datasetRepo) skeleton(datasetID string) (Skeleton, error) {
	var labels, edges string
	err := r.db.QueryRow(
		`SELECT labels, edges FROM skeletons WHERE dataset_id = ?`, datasetID,
	).Scan(&labels, &edges)
	if err == sql.ErrNoRows {
		return Skeleton{}, nil
	}
	if err != nil {
		return Skeleton{}, fmt.Errorf("%w: loading skeleton: %v", ErrStorageError, err)
	}

	var sk Skeleton
	if err := json.Unmarshal([]byte(labels), &sk.Labels); err != nil {
		return Skeleton{}, fmt.Errorf("%w: decoding skeleton labels: %v", ErrStorageError, err)
	}
	if err := json.Unmarshal([]byte(edges), &sk.Edges); err != nil {
		return Skeleton{}, fmt.Errorf("%w: decoding skeleton edges: %v", ErrStorageError, err)
	}
	return sk, nil
}
