package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/matzehuels/ondemand/pkg/errors"
)

func TestFileSink_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "reports")

	sink, err := NewFileSink(dir)
	if err != nil {
		t.Fatalf("NewFileSink() = %v", err)
	}
	defer sink.Close(ctx)

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &Record{
		SessionID: "abc",
		Tool:      "ondemand dev (unknown)",
		Mode:      "build",
		Started:   started,
		Finished:  started.Add(time.Minute),
		Units: []UnitRecord{
			{Unit: "org.example:api:jar:1.0", Key: "org.example:api", Success: true},
			{Unit: "org.example:core:jar:1.0", Key: "org.example:core", ExitCode: 1, Kind: "exit",
				Reason: "Build for project: org.example:core:jar:1.0 failed; exit code: 1"},
		},
		Failed: 1,
	}
	if err := sink.Save(ctx, rec); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	got, err := ReadFile(sink.Path("abc"))
	if err != nil {
		t.Fatalf("ReadFile() = %v", err)
	}
	if got.SessionID != "abc" || got.Failed != 1 || len(got.Units) != 2 {
		t.Errorf("ReadFile() = %+v", got)
	}
	if !got.Started.Equal(started) {
		t.Errorf("Started = %v, want %v", got.Started, started)
	}
	if got.Units[1].Reason != rec.Units[1].Reason {
		t.Errorf("Reason = %q", got.Units[1].Reason)
	}
}

func TestFileSink_RequiresSession(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Save(context.Background(), &Record{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Save(no session) = %v, want INVALID_INPUT", err)
	}
}

func TestNewMongoSink_InvalidURI(t *testing.T) {
	for _, uri := range []string{"", "http://localhost:27017"} {
		if _, err := NewMongoSink(context.Background(), uri); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("NewMongoSink(%q) = %v, want INVALID_INPUT", uri, err)
		}
	}
}

func TestMongoSink_Save(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("replaces by session", func(mt *mtest.T) {
		ctx := context.Background()
		sink := NewMongoSinkFromCollection(mt.Coll)
		defer sink.Close(ctx)

		rec := &Record{SessionID: "abc", Mode: "build", Failed: 1}
		for i := range 2 {
			mt.AddMockResponses(mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: i}))
			if err := sink.Save(ctx, rec); err != nil {
				mt.Fatalf("Save() #%d = %v", i+1, err)
			}

			evt := mt.GetStartedEvent()
			if evt == nil || evt.CommandName != "update" {
				mt.Fatalf("Save() #%d sent %+v, want an update command", i+1, evt)
			}
			updates, err := evt.Command.Lookup("updates").Array().Values()
			if err != nil || len(updates) != 1 {
				mt.Fatalf("updates = %v, %v", updates, err)
			}
			u := updates[0].Document()
			if got := u.Lookup("q", "session_id").StringValue(); got != "abc" {
				mt.Errorf("filter session_id = %q, want abc", got)
			}
			if !u.Lookup("upsert").Boolean() {
				mt.Error("update is not an upsert")
			}
			if multi, ok := u.Lookup("multi").BooleanOK(); ok && multi {
				mt.Error("update touches more than one document")
			}
			if got := u.Lookup("u", "failed").AsInt64(); got != 1 {
				mt.Errorf("replacement failed = %d, want 1", got)
			}
		}
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "rejected",
		}))
		sink := NewMongoSinkFromCollection(mt.Coll)
		if err := sink.Save(context.Background(), &Record{SessionID: "abc"}); !errors.Is(err, errors.ErrCodeStore) {
			mt.Errorf("Save() = %v, want STORE_ERROR", err)
		}
	})

	mt.Run("requires session", func(mt *mtest.T) {
		sink := NewMongoSinkFromCollection(mt.Coll)
		if err := sink.Save(context.Background(), &Record{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
			mt.Errorf("Save(no session) = %v, want INVALID_INPUT", err)
		}
	})
}
