// Package report persists the results of build sessions.
//
// A [Record] is a flat, serialisable summary of one session. Sinks store
// records: [FileSink] writes one JSON file per session and [MongoSink]
// inserts one document per session into MongoDB.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/ondemand/pkg/errors"
)

// UnitRecord is the result of building one unit.
type UnitRecord struct {
	Unit       string `json:"unit" bson:"unit"`
	Key        string `json:"key" bson:"key"`
	Success    bool   `json:"success" bson:"success"`
	ExitCode   int    `json:"exit_code" bson:"exit_code"`
	Kind       string `json:"kind,omitempty" bson:"kind,omitempty"`
	Reason     string `json:"reason,omitempty" bson:"reason,omitempty"`
	DurationMS int64  `json:"duration_ms" bson:"duration_ms"`
}

// Record summarises one build session.
type Record struct {
	SessionID string       `json:"session_id" bson:"session_id"`
	Tool      string       `json:"tool" bson:"tool"`
	Mode      string       `json:"mode" bson:"mode"`
	Started   time.Time    `json:"started" bson:"started"`
	Finished  time.Time    `json:"finished" bson:"finished"`
	Units     []UnitRecord `json:"units" bson:"units"`
	Failed    int          `json:"failed" bson:"failed"`
}

// Sink stores session records.
type Sink interface {
	Save(ctx context.Context, rec *Record) error
	Close(ctx context.Context) error
}

// FileSink writes <dir>/<session>.json.
type FileSink struct {
	dir string
}

// NewFileSink creates dir if needed and returns a sink writing into it.
func NewFileSink(dir string) (*FileSink, error) {
	if err := errors.ValidatePath("report dir", dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Path returns the file a session's record is written to.
func (s *FileSink) Path(session string) string {
	return filepath.Join(s.dir, session+".json")
}

func (s *FileSink) Save(_ context.Context, rec *Record) error {
	if rec.SessionID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "report record has no session id")
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(s.Path(rec.SessionID), data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "write report")
	}
	return nil
}

func (s *FileSink) Close(context.Context) error { return nil }

// ReadFile loads a record written by FileSink.
func ReadFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &rec, nil
}

var _ Sink = (*FileSink)(nil)
