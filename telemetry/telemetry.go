// Package telemetry provides a JSONL event stream of optimization progress. Every progress report of a
// run is recorded as a structured JSON event, making runs auditable and easy to plot.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ChristopherRabotin/trajopt"
)

// Event kinds identify the type of telemetry event.
const (
	KindGeneration = "generation"
	KindComplete   = "complete"
	KindStopped    = "stopped"
)

// Event represents a single telemetry record.
type Event struct {
	Timestamp  time.Time `json:"ts"`
	Kind       string    `json:"kind"`
	Run        string    `json:"run,omitempty"`
	Generation int       `json:"gen"`
	Data       any       `json:"data,omitempty"`
}

// Generation is the data of a progress event.
type Generation struct {
	BestFitness float64                    `json:"best_fitness"`
	MinDistance float64                    `json:"min_distance_au"`
	DeltaV      float64                    `json:"delta_v"`
	Days        float64                    `json:"days"`
	MeanFitness float64                    `json:"mean_fitness"`
	StdFitness  float64                    `json:"std_fitness"`
	Feasible    int                        `json:"feasible"`
	Evaluations int                        `json:"evaluations"`
	ElapsedMS   int64                      `json:"elapsed_ms"`
	Genes       [trajopt.GeneCount]float64 `json:"genes"`
}

// FromProgress returns the event of a progress report. The final report of a run is a complete event,
// unless the run was stopped.
func FromProgress(run string, p trajopt.Progress, stopped bool) Event {
	kind := KindGeneration
	if p.Final {
		kind = KindComplete
		if stopped {
			kind = KindStopped
		}
	}
	return Event{
		Timestamp:  time.Now().UTC(),
		Kind:       kind,
		Run:        run,
		Generation: p.Generation,
		Data: Generation{
			BestFitness: p.BestFitness,
			MinDistance: p.MinDistance,
			DeltaV:      p.DeltaV,
			Days:        p.Days,
			MeanFitness: p.MeanFitness,
			StdFitness:  p.StdFitness,
			Feasible:    p.Feasible,
			Evaluations: p.Evaluations,
			ElapsedMS:   p.Elapsed.Milliseconds(),
			Genes:       p.Best.Genes,
		},
	}
}

// Emitter writes telemetry events as JSONL. It is safe for concurrent use by multiple goroutines.
// A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	w   io.Writer
	enc *json.Encoder
	mu  sync.Mutex
}

// NewEmitter creates a new Emitter that writes JSONL events to the file at path. The file is created if
// it does not exist, or appended to if it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	return NewWriterEmitter(f), nil
}

// NewWriterEmitter creates a new Emitter writing to w. Close closes w if it is an io.Closer.
func NewWriterEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w, enc: json.NewEncoder(w)}
}

// Emit writes a single event. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("telemetry: encode event: %w", err)
	}
	return nil
}

// Close closes the underlying writer. Calling Close on a nil Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.w.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("telemetry: close: %w", err)
	}
	return nil
}
