// Package sqlite persists completed tracks for offline analysis. This is
// deliberately narrow: spec.md §1's Non-goals exclude reloading live tracker
// state from storage across restarts, so the store only ever receives
// already-retired tracks and never feeds anything back into a Buffer.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/radar.track/internal/track"
	"github.com/banshee-data/radar.track/internal/trackmon"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store writes completed tracks to a SQLite database and supports simple
// range queries over them for offline review.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and migrates it
// to the latest schema version, mirroring internal/db/migrate.go's
// golang-migrate + iofs wiring.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening completed-track store %s: %w", path, err)
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("applying pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) migrateUp() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating iofs migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrating completed-track store: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) { trackmon.Diagf(format, v...) }
func (l *migrateLogger) Verbose() bool                          { return false }

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// CompletedTrack is the exported record of a track that left the ACTIVE set
// (spec.md §4.6), captured at the moment Buffer.retire drops it.
type CompletedTrack struct {
	TrackID             int64
	Mode                string
	SpawnedAtUnixNanos  int64
	RetiredAtUnixNanos  int64
	FinalLifetime       float64
	CentroidX           float64
	CentroidY           float64
	CentroidZ           float64
	PointNum            int
}

// FromTrack builds a CompletedTrack from a live track's state at retirement
// time. Callers supply the spawn/retire wall-clock timestamps since Track
// itself only tracks elapsed simulation time (Lifetime), not wall time.
func FromTrack(tr *track.Track, spawnedAtUnixNanos, retiredAtUnixNanos int64) CompletedTrack {
	return CompletedTrack{
		TrackID:            tr.ID,
		Mode:               tr.Mode.String(),
		SpawnedAtUnixNanos: spawnedAtUnixNanos,
		RetiredAtUnixNanos: retiredAtUnixNanos,
		FinalLifetime:      tr.Lifetime,
		CentroidX:          tr.Cluster.Centroid[0],
		CentroidY:          tr.Cluster.Centroid[1],
		CentroidZ:          tr.Cluster.Centroid[2],
		PointNum:           tr.Cluster.Count(),
	}
}

// InsertCompletedTrack records one retired track.
func (s *Store) InsertCompletedTrack(rec CompletedTrack) error {
	_, err := s.db.Exec(`
		INSERT INTO completed_tracks (
			track_id, mode, spawned_at_unix_nanos, retired_at_unix_nanos,
			final_lifetime, centroid_x, centroid_y, centroid_z, point_num
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TrackID, rec.Mode, rec.SpawnedAtUnixNanos, rec.RetiredAtUnixNanos,
		rec.FinalLifetime, rec.CentroidX, rec.CentroidY, rec.CentroidZ, rec.PointNum,
	)
	if err != nil {
		return fmt.Errorf("inserting completed track %d: %w", rec.TrackID, err)
	}
	return nil
}

// ListCompletedTracksInRange returns completed tracks retired within
// [startNanos, endNanos), most recently retired first, capped at limit.
func (s *Store) ListCompletedTracksInRange(startNanos, endNanos int64, limit int) ([]CompletedTrack, error) {
	rows, err := s.db.Query(`
		SELECT track_id, mode, spawned_at_unix_nanos, retired_at_unix_nanos,
		       final_lifetime, centroid_x, centroid_y, centroid_z, point_num
		FROM completed_tracks
		WHERE retired_at_unix_nanos >= ? AND retired_at_unix_nanos < ?
		ORDER BY retired_at_unix_nanos DESC
		LIMIT ?`, startNanos, endNanos, limit)
	if err != nil {
		return nil, fmt.Errorf("querying completed tracks: %w", err)
	}
	defer rows.Close()

	var out []CompletedTrack
	for rows.Next() {
		var rec CompletedTrack
		if err := rows.Scan(
			&rec.TrackID, &rec.Mode, &rec.SpawnedAtUnixNanos, &rec.RetiredAtUnixNanos,
			&rec.FinalLifetime, &rec.CentroidX, &rec.CentroidY, &rec.CentroidZ, &rec.PointNum,
		); err != nil {
			return nil, fmt.Errorf("scanning completed track row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
