package beethovision

import "errors"

// Sentinel errors for dataset operations.
// Use errors.Is() to check for specific error conditions.
var (
	// ErrDatasetNotFound indicates the dataset does not exist in the store.
	ErrDatasetNotFound = errors.New("beethovision: dataset not found")

	// ErrDatasetExists indicates a dataset with the same name is already
	// registered. Returned by Provision and Import when the name collides
	// and WithOverwrite() is not specified.
	ErrDatasetExists = errors.New("beethovision: dataset already exists")

	// ErrSampleNotFound indicates the sample does not exist in the dataset.
	ErrSampleNotFound = errors.New("beethovision: sample not found")

	// ErrDestMissing indicates the destination dataset directory does not
	// exist. The unpack step never creates it.
	ErrDestMissing = errors.New("beethovision: dataset directory does not exist")

	// ErrNetworkError indicates a network or connection failure.
	ErrNetworkError = errors.New("beethovision: network error")

	// ErrFetchError indicates the remote host returned an unusable response.
	ErrFetchError = errors.New("beethovision: fetch failed")

	// ErrArchiveError indicates the downloaded archive is invalid or an
	// entry could not be extracted.
	ErrArchiveError = errors.New("beethovision: invalid archive")

	// ErrStorageError indicates a filesystem or database operation failed.
	ErrStorageError = errors.New("beethovision: storage error")

	// ErrInvalidSessionName indicates a media filename does not carry a
	// parseable recording-session key.
	ErrInvalidSessionName = errors.New("beethovision: invalid session name")

	// ErrNoBoxesForSession indicates the bounding-box file has no entry
	// (or more than one entry) for a sample's session.
	ErrNoBoxesForSession = errors.New("beethovision: no bounding boxes for session")

	// ErrDetectorError indicates the hand landmark detector failed.
	ErrDetectorError = errors.New("beethovision: detector error")
)
