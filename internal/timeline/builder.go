// Package timeline assembles pre-rendered narration segments and scheduled
// interjections into a single gapless playlist. Gaps between clips become
// silence spacers, and the session ends with a closing chime. A parallel
// entry list records the absolute position of every playlist item for
// progress reporting.
package timeline

import (
	"os"
	"sort"

	"github.com/charmbracelet/log"
)

// Phase labels the builder reserves for synthesized items. Progress
// reporting treats these specially: neither replaces the user-facing phase.
const (
	PhaseSilence      = "silence"
	PhaseInterjection = "interjection"
	PhaseComplete     = "complete"
)

const (
	// gapThreshold is the smallest gap that earns a spacer. Anything
	// shorter is floating-point noise between adjacent clips.
	gapThreshold = 0.5

	// ChimeDuration is the fixed length reserved for the closing chime.
	ChimeDuration = 3.0
)

// Segment is a pre-rendered narration clip with a scheduled start offset
// into the session and a measured playback duration.
type Segment struct {
	StartSeconds int
	Source       string
	Duration     float64
	Phase        string
}

// Interjection is a short clip already resolved to a concrete start time.
type Interjection struct {
	ScheduledSeconds int
	Source           string
	Duration         float64
}

// ItemKind discriminates playlist items.
type ItemKind int

const (
	// ItemClip is a narration segment or interjection.
	ItemClip ItemKind = iota
	// ItemSilence is a generated spacer.
	ItemSilence
	// ItemChime is the closing chime.
	ItemChime
)

// Item is one element of the ordered playlist.
type Item struct {
	Kind     ItemKind
	Source   string
	Duration float64
	Phase    string
}

// Entry mirrors one playlist item on the absolute session clock. Entries are
// contiguous and ordered: each entry starts where the previous one ended.
type Entry struct {
	StartTime float64
	Duration  float64
	Phase     string
	IsAudio   bool
}

// SpacerGenerator produces a playable silence asset of an exact duration.
// *silence.Generator satisfies this.
type SpacerGenerator interface {
	Generate(durationSeconds float64) (string, error)
}

// audioEvent is the merged form of segments and interjections.
type audioEvent struct {
	start        float64
	source       string
	duration     float64
	phase        string
	interjection bool
}

// Build merges segments and interjections into an ordered playlist plus the
// parallel entry list. A spacer that cannot be generated is skipped and the
// timeline shortens by that gap; a missing chime asset omits the chime. Both
// are logged, neither is fatal.
func Build(segments []Segment, interjections []Interjection, totalDuration float64, spacers SpacerGenerator, chimeSource string) ([]Item, []Entry) {
	events := make([]audioEvent, 0, len(segments)+len(interjections))
	for _, s := range segments {
		events = append(events, audioEvent{
			start:    float64(s.StartSeconds),
			source:   s.Source,
			duration: s.Duration,
			phase:    s.Phase,
		})
	}
	for _, ij := range interjections {
		events = append(events, audioEvent{
			start:        float64(ij.ScheduledSeconds),
			source:       ij.Source,
			duration:     ij.Duration,
			phase:        PhaseInterjection,
			interjection: true,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].start < events[j].start
	})

	var (
		items      []Item
		entries    []Entry
		currentEnd float64
	)

	appendSpacer := func(gapSeconds float64) {
		path, err := spacers.Generate(gapSeconds)
		if err != nil {
			log.Warn("skipping silence spacer", "gap", gapSeconds, "error", err)
			return
		}
		items = append(items, Item{
			Kind:     ItemSilence,
			Source:   path,
			Duration: gapSeconds,
			Phase:    PhaseSilence,
		})
		entries = append(entries, Entry{
			StartTime: currentEnd,
			Duration:  gapSeconds,
			Phase:     PhaseSilence,
		})
		currentEnd += gapSeconds
	}

	for _, ev := range events {
		if gap := ev.start - currentEnd; gap > gapThreshold {
			appendSpacer(gap)
		}
		items = append(items, Item{
			Kind:     ItemClip,
			Source:   ev.source,
			Duration: ev.duration,
			Phase:    ev.phase,
		})
		entries = append(entries, Entry{
			StartTime: currentEnd,
			Duration:  ev.duration,
			Phase:     ev.phase,
			IsAudio:   true,
		})
		currentEnd += ev.duration
	}

	if trailing := totalDuration - currentEnd - ChimeDuration; trailing > 0 {
		appendSpacer(trailing)
	}

	if chimeAvailable(chimeSource) {
		items = append(items, Item{
			Kind:     ItemChime,
			Source:   chimeSource,
			Duration: ChimeDuration,
			Phase:    PhaseComplete,
		})
		entries = append(entries, Entry{
			StartTime: currentEnd,
			Duration:  ChimeDuration,
			Phase:     PhaseComplete,
			IsAudio:   true,
		})
	} else {
		log.Warn("closing chime unavailable, omitting", "source", chimeSource)
	}

	log.Debug("timeline built",
		"events", len(events),
		"items", len(items),
		"total_duration", totalDuration)

	return items, entries
}

func chimeAvailable(source string) bool {
	if source == "" {
		return false
	}
	_, err := os.Stat(source)
	return err == nil
}

// Duration sums the durations of all entries.
func Duration(entries []Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Duration
	}
	return total
}
