package observability

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Build hooks
	b := NoopBuildHooks{}
	if got := b.OnSessionStart(ctx, "s1", 3); got != ctx {
		t.Error("OnSessionStart should return the given context")
	}
	b.OnSessionComplete(ctx, "s1", 0, time.Second)
	if got := b.OnUnitStart(ctx, "org.example:core"); got != ctx {
		t.Error("OnUnitStart should return the given context")
	}
	b.OnUnitComplete(ctx, "org.example:core", false, time.Second, stderrors.New("exit 1"))

	// Store hooks
	s := NoopStoreHooks{}
	s.OnLookup(ctx, "org.example:core", true)
	s.OnAdd(ctx, "org.example:core")
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Build() should return NoopBuildHooks by default")
	}
	if _, ok := Store().(NoopStoreHooks); !ok {
		t.Error("Store() should return NoopStoreHooks by default")
	}

	customBuild := &testBuildHooks{}
	SetBuildHooks(customBuild)
	if Build() != customBuild {
		t.Error("SetBuildHooks should set custom hooks")
	}

	customStore := &testStoreHooks{}
	SetStoreHooks(customStore)
	if Store() != customStore {
		t.Error("SetStoreHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Reset() should restore NoopBuildHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testBuildHooks{}
	SetBuildHooks(custom)

	// Setting nil should be ignored
	SetBuildHooks(nil)

	if Build() != custom {
		t.Error("SetBuildHooks(nil) should be ignored")
	}
}

func TestTracingHooks(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	h := NewTracingHooksWithProvider(tp)

	ctx := h.OnSessionStart(context.Background(), "s1", 2)
	uctx := h.OnUnitStart(ctx, "org.example:api")
	h.OnUnitComplete(uctx, "org.example:api", true, time.Millisecond, nil)
	uctx = h.OnUnitStart(ctx, "org.example:core")
	h.OnUnitComplete(uctx, "org.example:core", false, time.Millisecond, stderrors.New("exit code 1"))
	h.OnSessionComplete(ctx, "s1", 1, time.Second)

	spans := sr.Ended()
	if len(spans) != 3 {
		t.Fatalf("ended spans = %d, want 3", len(spans))
	}
	session := spans[2]
	if session.Name() != "build.session" || session.Status().Code != codes.Error {
		t.Errorf("session span = %s (%v)", session.Name(), session.Status().Code)
	}
	for _, unit := range spans[:2] {
		if unit.Name() != "build.unit" {
			t.Errorf("span name = %q, want build.unit", unit.Name())
		}
		if unit.Parent().SpanID() != session.SpanContext().SpanID() {
			t.Error("unit span should be a child of the session span")
		}
	}
	if spans[1].Status().Code != codes.Error {
		t.Error("failed unit span should have error status")
	}
}

func TestInitTracer(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	shutdown, err := InitTracer(ctx, "ondemand-test", &buf)
	if err != nil {
		t.Fatalf("InitTracer() = %v", err)
	}
	h := NewTracingHooks()
	sctx := h.OnSessionStart(ctx, "s1", 0)
	h.OnSessionComplete(sctx, "s1", 0, 0)

	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown() = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("build.session")) {
		t.Errorf("exported spans missing build.session:\n%s", buf.String())
	}
}

// Test implementations
type testBuildHooks struct{ NoopBuildHooks }
type testStoreHooks struct{ NoopStoreHooks }
