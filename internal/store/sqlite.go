package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY under load
	db.SetMaxOpenConns(1)

	// Create events table
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS events(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts REAL,
		level TEXT,
		code TEXT,
		msg TEXT,
		meta TEXT
	)`); err != nil {
		db.Close()
		return nil, err
	}

	// Create predictions table with the full feature vector and outcome
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS predictions(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts REAL,
		trace_id TEXT,
		req_id TEXT,
		worker_id TEXT,
		source TEXT,
		mode TEXT,
		features_json TEXT,
		prediction INTEGER,
		probability REAL,
		risk_level TEXT,
		summary TEXT,
		dur_ms REAL,
		status TEXT,
		error_kind TEXT,
		error TEXT
	)`); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

func (db *DB) Event(level, code, msg string, meta map[string]interface{}) error {
	m := ""
	if meta != nil {
		b, _ := json.Marshal(meta)
		m = string(b)
	}
	_, err := db.Exec(`INSERT INTO events(ts,level,code,msg,meta) VALUES(?,?,?,?,?)`,
		unixSeconds(time.Now()), level, code, msg, m)
	return err
}

func (db *DB) Prediction(start time.Time, traceID, reqID, workerID, source, mode, featuresJSON string,
	prediction int, probability float64, riskLevel, summary string, dur time.Duration, status, errKind, errStr string) error {
	_, err := db.Exec(`INSERT INTO predictions(
		ts, trace_id, req_id, worker_id, source, mode, features_json, prediction, probability, risk_level, summary, dur_ms, status, error_kind, error)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		unixSeconds(start), traceID, reqID, workerID, source, mode, featuresJSON, prediction, probability, riskLevel, summary,
		float64(dur.Microseconds())/1e3, status, errKind, errStr)
	return err
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// FromUnixSeconds converts a stored REAL timestamp back to time.Time.
func FromUnixSeconds(ts float64) time.Time {
	return time.Unix(0, int64(ts*1e9))
}
