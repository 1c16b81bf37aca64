package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quotelens/photomask/calibration"
	"github.com/quotelens/photomask/mask"
)

// Schema for the editor persistence store. Mask geometry rides as the
// JSON wire record; calibration samples as a JSON array. Derived
// metrics in the records are advisory only and are rederived on load.
const schema = `
CREATE TABLE IF NOT EXISTS masks (
    mask_id     TEXT PRIMARY KEY,
    photo_id    TEXT NOT NULL,
    mask_type   TEXT NOT NULL,
    record      TEXT NOT NULL,
    updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_masks_photo ON masks(photo_id);

CREATE TABLE IF NOT EXISTS calibrations (
    photo_id    TEXT PRIMARY KEY,
    ppm         REAL NOT NULL,
    stdev_pct   REAL NOT NULL,
    samples     TEXT NOT NULL
);
`

// SQLite persists committed masks and calibrations per photo. It is the
// bundled Persister implementation; the excluded web layer would sit in
// its place in the full product.
type SQLite struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Persister = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path (":memory:" works)
// and applies the schema. logger may be nil.
func OpenSQLite(path string, logger *slog.Logger) (*SQLite, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{db: db, log: logger}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) SaveMask(photoID string, rec mask.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal mask record: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO masks (mask_id, photo_id, mask_type, record, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(mask_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		rec.ID, photoID, string(rec.Type), string(payload), rec.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("store: save mask: %w", err)
	}
	s.log.Debug("mask saved", "photo", photoID, "mask", rec.ID, "type", rec.Type)
	return nil
}

func (s *SQLite) DeleteMask(photoID, maskID string) error {
	if _, err := s.db.Exec(`DELETE FROM masks WHERE photo_id = ? AND mask_id = ?`, photoID, maskID); err != nil {
		return fmt.Errorf("store: delete mask: %w", err)
	}
	s.log.Debug("mask deleted", "photo", photoID, "mask", maskID)
	return nil
}

func (s *SQLite) SaveCalibration(photoID string, cal calibration.Calibration) error {
	samples, err := json.Marshal(cal.Samples)
	if err != nil {
		return fmt.Errorf("store: marshal samples: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO calibrations (photo_id, ppm, stdev_pct, samples)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(photo_id) DO UPDATE SET
			ppm = excluded.ppm, stdev_pct = excluded.stdev_pct, samples = excluded.samples`,
		photoID, cal.PPM, cal.StdevPct, string(samples))
	if err != nil {
		return fmt.Errorf("store: save calibration: %w", err)
	}
	s.log.Debug("calibration saved", "photo", photoID, "ppm", cal.PPM, "samples", len(cal.Samples))
	return nil
}

func (s *SQLite) DeleteCalibration(photoID string) error {
	if _, err := s.db.Exec(`DELETE FROM calibrations WHERE photo_id = ?`, photoID); err != nil {
		return fmt.Errorf("store: delete calibration: %w", err)
	}
	return nil
}

// LoadPhoto returns the persisted masks and calibration for a photo,
// ready to seed a Memory session via Restore. The calibration is nil
// when the photo has none.
func (s *SQLite) LoadPhoto(photoID string) ([]mask.Record, *calibration.Calibration, error) {
	rows, err := s.db.Query(`SELECT record FROM masks WHERE photo_id = ? ORDER BY updated_at, mask_id`, photoID)
	if err != nil {
		return nil, nil, fmt.Errorf("store: load masks: %w", err)
	}
	defer rows.Close()

	var recs []mask.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, nil, fmt.Errorf("store: scan mask: %w", err)
		}
		var rec mask.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, nil, fmt.Errorf("store: decode mask record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("store: load masks: %w", err)
	}

	var cal calibration.Calibration
	var samples string
	err = s.db.QueryRow(`SELECT ppm, stdev_pct, samples FROM calibrations WHERE photo_id = ?`, photoID).
		Scan(&cal.PPM, &cal.StdevPct, &samples)
	switch {
	case err == sql.ErrNoRows:
		return recs, nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("store: load calibration: %w", err)
	}
	if err := json.Unmarshal([]byte(samples), &cal.Samples); err != nil {
		return nil, nil, fmt.Errorf("store: decode samples: %w", err)
	}
	return recs, &cal, nil
}
