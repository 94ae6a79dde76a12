package timeline

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// stubSpacers fabricates spacer paths without touching the disk.
type stubSpacers struct {
	fail  bool
	calls []float64
}

func (s *stubSpacers) Generate(durationSeconds float64) (string, error) {
	s.calls = append(s.calls, durationSeconds)
	if s.fail {
		return "", errors.New("scratch dir unavailable")
	}
	return fmt.Sprintf("silence_%.1fs.wav", durationSeconds), nil
}

func testChime(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chime.wav")
	if err := os.WriteFile(path, []byte("chime"), 0o644); err != nil {
		t.Fatalf("unable to write chime fixture: %v", err)
	}
	return path
}

func assertContiguous(t *testing.T, entries []Entry) {
	t.Helper()
	for i := 1; i < len(entries); i++ {
		wantStart := entries[i-1].StartTime + entries[i-1].Duration
		if math.Abs(entries[i].StartTime-wantStart) > 1e-9 {
			t.Errorf("entry %d starts at %v, want %v (gap or overlap)", i, entries[i].StartTime, wantStart)
		}
	}
}

func TestBuildTwoSegmentSession(t *testing.T) {
	segments := []Segment{
		{StartSeconds: 0, Source: "opening.wav", Duration: 30, Phase: "opening"},
		{StartSeconds: 60, Source: "teaching.wav", Duration: 45, Phase: "teaching"},
	}
	chime := testChime(t)
	spacers := &stubSpacers{}

	items, entries := Build(segments, nil, 600, spacers, chime)

	want := []Entry{
		{StartTime: 0, Duration: 30, Phase: "opening", IsAudio: true},
		{StartTime: 30, Duration: 30, Phase: PhaseSilence},
		{StartTime: 60, Duration: 45, Phase: "teaching", IsAudio: true},
		{StartTime: 105, Duration: 492, Phase: PhaseSilence},
		{StartTime: 597, Duration: 3, Phase: PhaseComplete, IsAudio: true},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
	}
	for i, w := range want {
		got := entries[i]
		if got.StartTime != w.StartTime || got.Duration != w.Duration ||
			got.Phase != w.Phase || got.IsAudio != w.IsAudio {
			t.Errorf("entry %d = %+v, want %+v", i, got, w)
		}
	}
	assertContiguous(t, entries)

	if len(items) != len(entries) {
		t.Fatalf("items and entries out of step: %d vs %d", len(items), len(entries))
	}
	if items[len(items)-1].Kind != ItemChime {
		t.Errorf("final item kind = %v, want chime", items[len(items)-1].Kind)
	}
	if got := Duration(entries); got != 600 {
		t.Errorf("entries cover %v seconds, want 600", got)
	}
}

func TestBuildCollapsesTinyGaps(t *testing.T) {
	segments := []Segment{
		{StartSeconds: 0, Source: "a.wav", Duration: 29.8, Phase: "opening"},
		{StartSeconds: 30, Source: "b.wav", Duration: 10, Phase: "teaching"},
	}
	spacers := &stubSpacers{}

	_, entries := Build(segments, nil, 45, spacers, "")

	for _, d := range spacers.calls {
		if d <= gapThreshold {
			t.Errorf("spacer requested for sub-threshold gap %v", d)
		}
	}
	// Second clip folds against the first; no spacer between them.
	if entries[1].Phase != "teaching" {
		t.Fatalf("entry 1 phase = %q, want teaching", entries[1].Phase)
	}
	if entries[1].StartTime != 29.8 {
		t.Errorf("entry 1 starts at %v, want 29.8", entries[1].StartTime)
	}
	assertContiguous(t, entries)
}

func TestBuildMergesInterjections(t *testing.T) {
	segments := []Segment{
		{StartSeconds: 0, Source: "open.wav", Duration: 20, Phase: "opening"},
		{StartSeconds: 120, Source: "close.wav", Duration: 20, Phase: "closing"},
	}
	interjections := []Interjection{
		{ScheduledSeconds: 60, Source: "breathe.wav", Duration: 5},
	}
	spacers := &stubSpacers{}

	items, entries := Build(segments, interjections, 200, spacers, "")

	var found bool
	for i, e := range entries {
		if e.Phase == PhaseInterjection {
			found = true
			if !e.IsAudio {
				t.Errorf("interjection entry not marked as audio")
			}
			if e.StartTime != 60 {
				t.Errorf("interjection starts at %v, want 60", e.StartTime)
			}
			if items[i].Source != "breathe.wav" {
				t.Errorf("interjection item source = %q", items[i].Source)
			}
		}
	}
	if !found {
		t.Fatalf("no interjection entry in %+v", entries)
	}
	assertContiguous(t, entries)
}

func TestBuildInterjectionOrderIsStable(t *testing.T) {
	// An interjection scheduled at the same offset as a segment keeps
	// segment-first order (segments are appended before interjections).
	segments := []Segment{
		{StartSeconds: 10, Source: "seg.wav", Duration: 5, Phase: "teaching"},
	}
	interjections := []Interjection{
		{ScheduledSeconds: 10, Source: "inter.wav", Duration: 2},
	}
	spacers := &stubSpacers{}

	items, _ := Build(segments, interjections, 30, spacers, "")

	var clipSources []string
	for _, it := range items {
		if it.Kind == ItemClip {
			clipSources = append(clipSources, it.Source)
		}
	}
	if len(clipSources) != 2 || clipSources[0] != "seg.wav" || clipSources[1] != "inter.wav" {
		t.Errorf("clip order = %v, want [seg.wav inter.wav]", clipSources)
	}
}

func TestBuildSpacerFailureShortensTimeline(t *testing.T) {
	segments := []Segment{
		{StartSeconds: 0, Source: "a.wav", Duration: 10, Phase: "opening"},
		{StartSeconds: 60, Source: "b.wav", Duration: 10, Phase: "teaching"},
	}
	spacers := &stubSpacers{fail: true}

	items, entries := Build(segments, nil, 100, spacers, "")

	for _, it := range items {
		if it.Kind == ItemSilence {
			t.Fatalf("spacer item present despite generator failure")
		}
	}
	// Both clips remain, packed back to back.
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[1].StartTime != 10 {
		t.Errorf("second clip starts at %v, want 10", entries[1].StartTime)
	}
	assertContiguous(t, entries)
}

func TestBuildOmitsMissingChime(t *testing.T) {
	segments := []Segment{
		{StartSeconds: 0, Source: "a.wav", Duration: 10, Phase: "opening"},
	}
	spacers := &stubSpacers{}

	_, entries := Build(segments, nil, 60, spacers, filepath.Join(t.TempDir(), "missing.wav"))

	last := entries[len(entries)-1]
	if last.Phase == PhaseComplete {
		t.Errorf("chime entry present for a missing asset")
	}
	// The trailing spacer still reserves room for the chime.
	if want := 60.0 - 10.0 - ChimeDuration; last.Duration != want {
		t.Errorf("trailing spacer duration = %v, want %v", last.Duration, want)
	}
	assertContiguous(t, entries)
}

func TestBuildNoTrailingSpacerWhenFull(t *testing.T) {
	segments := []Segment{
		{StartSeconds: 0, Source: "a.wav", Duration: 58, Phase: "opening"},
	}
	spacers := &stubSpacers{}

	items, _ := Build(segments, nil, 60, spacers, "")

	for _, it := range items {
		if it.Kind == ItemSilence {
			t.Errorf("unexpected spacer: %+v", it)
		}
	}
	if len(spacers.calls) != 0 {
		t.Errorf("spacer generator called %d times, want 0", len(spacers.calls))
	}
}
