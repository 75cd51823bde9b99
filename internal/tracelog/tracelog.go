// Package tracelog records engine runs as zstd-compressed JSON lines, one
// entry per executed primitive, collision and finished actor.
package tracelog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vk/scenerunner/internal/collision"
	"github.com/vk/scenerunner/internal/engine"
)

const (
	EventStep      = "step"
	EventCollision = "collision"
	EventActorDone = "actor_done"
)

// Entry is one line of a trace.
type Entry struct {
	Run         int              `json:"run"`
	Time        time.Time        `json:"time"`
	Event       string           `json:"event"`
	Actor       string           `json:"actor,omitempty"`
	Instruction string           `json:"instruction,omitempty"`
	State       *State           `json:"state,omitempty"`
	Pairs       []collision.Pair `json:"pairs,omitempty"`
	Executed    int              `json:"executed,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// State is the geometry of an actor right after a step.
type State struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
}

// Recorder is an engine.Observer writing a trace file. It is safe for use
// by concurrent actor tasks. Write failures are sticky and reported by Close.
type Recorder struct {
	mu  sync.Mutex
	run int
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	err error
	n   int
}

var _ engine.Observer = (*Recorder)(nil)

// Create opens path for writing, creating parent directories as needed.
func Create(path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("tracelog: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tracelog: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("tracelog: %w", err)
	}
	return &Recorder{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// StartRun numbers the entries of the next run.
func (r *Recorder) StartRun(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.run = n
}

// Entries returns how many entries have been written.
func (r *Recorder) Entries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

func (r *Recorder) OnStep(_ context.Context, s engine.Step) {
	r.write(Entry{
		Time:        s.At,
		Event:       EventStep,
		Actor:       s.Actor,
		Instruction: s.Instruction.String(),
		State:       &State{X: s.State.X, Y: s.State.Y, Rotation: s.State.Rotation},
	})
}

func (r *Recorder) OnCollision(_ context.Context, pairs []collision.Pair) {
	r.write(Entry{
		Time:  time.Now(),
		Event: EventCollision,
		Pairs: pairs,
	})
}

func (r *Recorder) OnActorDone(_ context.Context, res engine.ActorResult) {
	e := Entry{
		Time:     time.Now(),
		Event:    EventActorDone,
		Actor:    res.ID,
		Executed: res.Executed,
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	r.write(e)
}

func (r *Recorder) write(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil || r.w == nil {
		return
	}
	e.Run = r.run
	b, err := json.Marshal(e)
	if err != nil {
		r.err = err
		return
	}
	if _, err := r.w.Write(b); err != nil {
		r.err = err
		return
	}
	if err := r.w.WriteByte('\n'); err != nil {
		r.err = err
		return
	}
	r.n++
}

// Close flushes the trace and closes the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return r.err
	}
	errs := []error{r.err, r.w.Flush(), r.enc.Close(), r.f.Close()}
	r.w, r.enc, r.f = nil, nil, nil
	return errors.Join(errs...)
}

// ReadFile decodes every entry of a trace file.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tracelog: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes every entry of a compressed trace stream.
func Read(r io.Reader) ([]Entry, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("tracelog: %w", err)
	}
	defer dec.Close()

	var entries []Entry
	jd := json.NewDecoder(dec)
	for {
		var e Entry
		if err := jd.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return entries, fmt.Errorf("tracelog: entry %d: %w", len(entries), err)
		}
		entries = append(entries, e)
	}
}
