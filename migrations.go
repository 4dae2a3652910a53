package beethovision

// runMigrations executes all database migrations.
func (s *store) runMigrations() error {
	migrations := []string{
		// Datasets table - registered dataset handles
		`CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			media_type TEXT NOT NULL,
			source_dir TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Samples table - media files indexed in a dataset
		`CREATE TABLE IF NOT EXISTS samples (
			id TEXT PRIMARY KEY,
			dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			filepath TEXT NOT NULL,
			session TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			width INTEGER NOT NULL DEFAULT 0,
			height INTEGER NOT NULL DEFAULT 0,
			frame_count INTEGER NOT NULL DEFAULT 0,
			fps REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(dataset_id, filepath)
		)`,

		// Detections table - per-frame bounding boxes
		`CREATE TABLE IF NOT EXISTS detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sample_id TEXT NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
			frame_number INTEGER NOT NULL,
			field TEXT NOT NULL,
			label TEXT NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			w REAL NOT NULL,
			h REAL NOT NULL,
			confidence REAL NOT NULL DEFAULT 0,
			class INTEGER NOT NULL DEFAULT 0
		)`,

		// Keypoints table - per-frame labeled point lists, points as JSON
		`CREATE TABLE IF NOT EXISTS keypoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sample_id TEXT NOT NULL REFERENCES samples(id) ON DELETE CASCADE,
			frame_number INTEGER NOT NULL,
			field TEXT NOT NULL,
			label TEXT NOT NULL,
			points TEXT NOT NULL
		)`,

		// Skeletons table - default keypoint skeleton per dataset
		`CREATE TABLE IF NOT EXISTS skeletons (
			dataset_id TEXT PRIMARY KEY REFERENCES datasets(id) ON DELETE CASCADE,
			labels TEXT NOT NULL,
			edges TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_samples_dataset_id ON samples(dataset_id)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_sample_id ON detections(sample_id)`,
		`CREATE INDEX IF NOT EXISTS idx_keypoints_sample_id ON keypoints(sample_id)`,
		`CREATE INDEX IF NOT EXISTS idx_keypoints_sample_frame ON keypoints(sample_id, frame_number)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
