package teledb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE run(
			id INTEGER PRIMARY KEY,
			created_at INT NOT NULL,
			video_url TEXT NOT NULL,
			config_version INT NOT NULL,
			completed INT NOT NULL,
			diagnostics BLOB
		);

		CREATE TABLE sample(
			id INTEGER PRIMARY KEY,
			run_id INT NOT NULL,
			vehicle TEXT NOT NULL,
			field TEXT NOT NULL,
			frame_index INT NOT NULL,
			value REAL NOT NULL,
			unit TEXT,
			clock TEXT,
			valid INT NOT NULL,
			reason TEXT,
			confidence REAL,
			raw_text TEXT
		);
		CREATE INDEX idx_sample_run_id ON sample(run_id);

		CREATE TABLE event(
			id INTEGER PRIMARY KEY,
			run_id INT NOT NULL,
			kind TEXT NOT NULL,
			vehicle TEXT,
			first_frame INT NOT NULL,
			last_frame INT NOT NULL,
			confidence REAL,
			detail BLOB
		);
		CREATE INDEX idx_event_run_id ON event(run_id);
	`))

	return migs
}
