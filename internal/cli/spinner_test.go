package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestSpinnerBasic(t *testing.T) {
	var frames, out bytes.Buffer
	s := newSpinnerTo(context.Background(), &frames, &out, "Computing layout...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.StopWithSuccess("Done")

	if !strings.Contains(frames.String(), "Computing layout...") {
		t.Errorf("no frame drawn: %q", frames.String())
	}
	if !strings.Contains(out.String(), "Done") {
		t.Errorf("status = %q", out.String())
	}
	if s.Cancelled() {
		t.Error("a stopped spinner is not cancelled")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var frames bytes.Buffer
	s := newSpinnerTo(ctx, &frames, &bytes.Buffer{}, "Testing")
	s.Start()

	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinnerTo(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, "Testing")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var out bytes.Buffer
	s := newSpinnerTo(context.Background(), &bytes.Buffer{}, &out, "Testing")
	s.StopWithError("Failed")
	if !strings.Contains(out.String(), "Failed") {
		t.Errorf("status = %q", out.String())
	}
}
