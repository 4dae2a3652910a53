package beethovision

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractArchive unpacks the zip at archivePath into destDir.
//
// destDir must already exist: the unpack step never creates the dataset
// directory. Extraction merges into existing content, overwriting files
// with the same name. There is no rollback of partially extracted files on
// failure. The onEntry callback, if non-nil, receives each entry path as
// it is written.
func extractArchive(ctx context.Context, archivePath, destDir string, onEntry func(name string)) error {
	info, err := os.Stat(destDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDestMissing, destDir)
		}
		return fmt.Errorf("%w: stat %s: %v", ErrStorageError, destDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDestMissing, destDir)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archivePath, ErrArchiveError)
	}
	defer zr.Close()

	for _, entry := range zr.File {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := extractEntry(entry, destDir); err != nil {
			return err
		}
		if onEntry != nil {
			onEntry(entry.Name)
		}
	}

	return nil
}

// extractEntry writes a single archive entry under destDir.
func extractEntry(entry *zip.File, destDir string) error {
	target, err := sanitizeEntryPath(destDir, entry.Name)
	if err != nil {
		return err
	}

	if entry.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", ErrStorageError, entry.Name, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %v", ErrStorageError, entry.Name, err)
	}

	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("reading entry %s: %w", entry.Name, ErrArchiveError)
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrStorageError, entry.Name, err)
	}

	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorageError, entry.Name, err)
	}

	return nil
}

// sanitizeEntryPath resolves an entry name under destDir, rejecting names
// that would escape it (zip slip).
func sanitizeEntryPath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	base := filepath.Clean(destDir)
	if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry %s escapes destination: %w", name, ErrArchiveError)
	}
	return target, nil
}
