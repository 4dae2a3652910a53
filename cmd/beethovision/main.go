// Command beethovision manages the piano-performance video dataset:
// provisioning the metadata archive, importing media and keyboard bounding
// boxes, running the hand landmarker, and exporting keypoints.
//
// Configuration is loaded from environment variables:
//   - BEETHOVISION_DATASET_DIR: Override for the dataset directory (optional)
package main

import (
	"errors"
	"os"

	beethovision "github.com/kevinconka/beethovision"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidArgs indicates invalid command line arguments.
	ExitInvalidArgs = 2

	// ExitDatasetNotFound indicates the dataset is not registered.
	ExitDatasetNotFound = 3

	// ExitDestMissing indicates the dataset directory does not exist.
	ExitDestMissing = 4

	// ExitNetworkError indicates a network or connection failure.
	ExitNetworkError = 5

	// ExitArchiveError indicates the archive could not be read or unpacked.
	ExitArchiveError = 6

	// ExitStorageError indicates a filesystem operation failed.
	ExitStorageError = 7

	// ExitDetectorError indicates the hand landmarker failed.
	ExitDetectorError = 8
)

func main() {
	cfg := beethovision.Config{
		AppName: "beethovision",
		// DataDir can be set via BEETHOVISION_DATASET_DIR env var
		// (handled by the storage layer).
	}

	cmd := beethovision.NewCommand(cfg)
	if err := cmd.Execute(); err != nil {
		os.Exit(exitCodeFromError(err))
	}
}

// exitCodeFromError maps error types to exit codes.
func exitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, beethovision.ErrDatasetNotFound):
		return ExitDatasetNotFound
	case errors.Is(err, beethovision.ErrSampleNotFound):
		return ExitDatasetNotFound
	case errors.Is(err, beethovision.ErrDestMissing):
		return ExitDestMissing
	case errors.Is(err, beethovision.ErrNetworkError):
		return ExitNetworkError
	case errors.Is(err, beethovision.ErrFetchError):
		return ExitNetworkError
	case errors.Is(err, beethovision.ErrArchiveError):
		return ExitArchiveError
	case errors.Is(err, beethovision.ErrStorageError):
		return ExitStorageError
	case errors.Is(err, beethovision.ErrDetectorError):
		return ExitDetectorError
	case errors.Is(err, beethovision.ErrInvalidSessionName):
		return ExitInvalidArgs
	default:
		return ExitGeneralError
	}
}
