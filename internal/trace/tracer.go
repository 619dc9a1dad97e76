package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

const defaultRingSize = 1024

// Tracer is the sink for trace events. Implementations are goroutine-safe.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// StorageMode says where a recorder puts events.
type StorageMode uint8

const (
	ModeStream StorageMode = iota + 1 // written as they happen
	ModeRing                          // kept in memory, dumped when a run fails
	ModeBoth
)

var modeNames = map[string]StorageMode{
	"stream": ModeStream,
	"ring":   ModeRing,
	"both":   ModeBoth,
}

func (m StorageMode) String() string {
	for name, v := range modeNames {
		if v == m {
			return name
		}
	}
	return "unknown"
}

// ParseMode parses stream|ring|both; empty means stream.
func ParseMode(s string) (StorageMode, error) {
	if s == "" {
		return ModeStream, nil
	}
	if m, ok := modeNames[strings.ToLower(s)]; ok {
		return m, nil
	}
	return ModeStream, fmt.Errorf("invalid storage mode: %q (expected: stream|ring|both)", s)
}

// Config holds tracer configuration.
type Config struct {
	Level      Level
	Mode       StorageMode
	Format     Format
	Output     io.Writer // stream target; wins over OutputPath
	OutputPath string    // "-" or "" means stderr
	RingSize   int
}

// Nop is the tracer used when tracing is off.
var Nop Tracer = nop{}

type nop struct{}

func (nop) Emit(*Event)   {}
func (nop) Flush() error  { return nil }
func (nop) Close() error  { return nil }
func (nop) Level() Level  { return LevelOff }
func (nop) Enabled() bool { return false }

// recorder is the tracer New builds: it streams events, keeps the latest in
// a ring, or both.
type recorder struct {
	level  Level
	format Format

	mu   sync.Mutex
	out  io.Writer // nil unless streaming
	ring *ring     // nil unless buffering
}

// New creates a Tracer from cfg. At LevelError nothing is streamed; events
// only go to the ring so a failed run can show them.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	mode := cfg.Mode
	if cfg.Level == LevelError {
		mode = ModeRing
	}

	r := &recorder{level: cfg.Level, format: cfg.Format}
	switch mode {
	case ModeStream, ModeBoth:
		w, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		r.out = w
	case ModeRing:
	default:
		return nil, fmt.Errorf("unknown storage mode: %v", cfg.Mode)
	}
	if mode == ModeRing || mode == ModeBoth {
		size := cfg.RingSize
		if size <= 0 {
			size = defaultRingSize
		}
		r.ring = newRing(size)
	}
	return r, nil
}

func (r *recorder) Emit(ev *Event) {
	if !r.level.ShouldEmit(ev.Scope) {
		return
	}
	if ev.Seq == 0 {
		ev.Seq = nextSeq()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.out != nil {
		// a broken trace sink must not break the run
		_, _ = r.out.Write(FormatEvent(ev, r.format))
	}
	if r.ring != nil {
		r.ring.add(*ev)
	}
}

func (r *recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.out.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (r *recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	if c, ok := r.out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *recorder) Level() Level  { return r.level }
func (r *recorder) Enabled() bool { return r.level > LevelOff }

// DumpRing writes the buffered events of tr, oldest first. It reports false
// when tr keeps no ring.
func DumpRing(tr Tracer, w io.Writer, format Format) (bool, error) {
	r, ok := tr.(*recorder)
	if !ok || r.ring == nil {
		return false, nil
	}
	r.mu.Lock()
	events := r.ring.events()
	r.mu.Unlock()

	for i := range events {
		if _, err := w.Write(FormatEvent(&events[i], format)); err != nil {
			return true, err
		}
	}
	return true, nil
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		// no Close: stderr outlives the tracer
		return struct{ io.Writer }{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}
