// Package beethovision provides tooling for provisioning and annotating a
// piano-performance video dataset.
//
// The package serves two primary use cases:
//
//  1. Programmatic API via the Manager interface - Applications can use
//     NewManager to create a Manager that provisions the dataset (download,
//     unpack, register), imports keyboard bounding-box metadata, runs a hand
//     landmark detector over the samples, and exports per-frame keypoints.
//
//  2. Embeddable CLI via NewCommand - Parent CLI tools can attach a complete
//     "dataset" subcommand tree to their Cobra root command, providing
//     commands like "mytool dataset provision", "mytool dataset run", etc.
//
// # Provisioning
//
// Provision performs a strict linear sequence: the metadata archive is
// downloaded from its share link, unpacked into the dataset directory, and
// the directory is registered as a named dataset in the local annotation
// store. The downloaded archive is removed once the sequence completes.
// There are no retries and no rollback of partially extracted files; step
// failures abort the remainder of the sequence.
//
// # Annotation store
//
// Registered datasets, their samples, and frame-level annotations
// (detections and keypoints) live in a SQLite database inside the data
// directory. All Manager methods are safe for concurrent use; writes are
// additionally guarded by cross-process file locks.
//
// # Storage
//
// Data is stored in platform-appropriate directories:
//   - Linux: $XDG_DATA_HOME/<app>/datasets/ or ~/.local/share/<app>/datasets/
//   - macOS: ~/Library/Application Support/<app>/datasets/
//   - Windows: %APPDATA%\<app>\datasets\
//
// The dataset directory can be overridden via Config.DataDir or the
// <APPNAME>_DATASET_DIR environment variable.
package beethovision
