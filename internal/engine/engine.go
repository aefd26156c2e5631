// Package engine implements the real-time multi-core sampling engine: the
// pinned hot loop that interleaves MSR reads across the target cores,
// computes per-core deltas, and writes them into each core's sink.
package engine

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/aclements/corecounter/internal/clock"
	"github.com/aclements/corecounter/internal/msr"
	"github.com/aclements/corecounter/internal/pmu"
	"github.com/aclements/corecounter/internal/rt"
	"github.com/aclements/corecounter/internal/sample"
	"github.com/aclements/corecounter/internal/sink"
	"github.com/aclements/corecounter/internal/stats"
)

// State is one of the engine's lifecycle states.
type State int

const (
	Initializing State = iota
	Sampling
	Draining
	Terminated
	Aborting
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Sampling:
		return "sampling"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	case Aborting:
		return "aborting"
	default:
		return "unknown"
	}
}

// Config specifies one sampling run.
type Config struct {
	CorePin     int
	TargetCores []int
	Duration    time.Duration
	DataDir     string
	MaxSamples  uint64 // per-core sink capacity; 0 uses DefaultMaxSamples
	Logger      *log.Logger
}

// DefaultMaxSamples is the per-core capacity used when Config.MaxSamples is
// unset. It is large enough that a 60-second run at plausible MSR-read
// rates does not overflow under ordinary conditions.
const DefaultMaxSamples = 50_000_000

const outputFilePrefix = "profile_data_"

// coreState is the pointer-heavy, exclusively-sampler-owned state for one
// target core. It is never shared or mutated outside the hot loop.
type coreState struct {
	coreID   int
	handle   *msr.Handle
	sink     *sink.Sink
	prev     [3]uint64
	dropped  bool // true once this core's sink has filled and it is skipped
	timeline []uint64
}

// Summary reports one core's outcome at shutdown.
type Summary struct {
	CoreID       int
	SampleCount  uint64
	AverageRate  float64 // samples/sec, 0 if fewer than 2 samples
	DroppedEarly bool
}

// Engine drives one sampling run end-to-end: Run blocks until the deadline
// elapses, a termination signal arrives, or every core's sink fills.
type Engine struct {
	cfg        Config
	state      atomic.Int32
	shouldQuit atomic.Bool
	cores      []*coreState
	logger     *log.Logger
}

// New validates cfg and constructs an Engine in the Initializing state.
// It performs no I/O.
func New(cfg Config) (*Engine, error) {
	if len(cfg.TargetCores) == 0 {
		return nil, fmt.Errorf("engine: at least one target core is required")
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("engine: duration must be > 0")
	}
	if cfg.MaxSamples == 0 {
		cfg.MaxSamples = DefaultMaxSamples
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	e := &Engine{cfg: cfg, logger: cfg.Logger}
	e.state.Store(int32(Initializing))
	return e, nil
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Run executes startup, the hot loop, and shutdown in sequence. It returns
// a Summary per target core and an error only for a fatal startup
// condition (§4.5's Initializing -> Aborting transition); runtime and
// shutdown problems are logged as warnings, not returned.
func (e *Engine) Run() ([]Summary, error) {
	if err := e.startup(); err != nil {
		e.state.Store(int32(Aborting))
		return nil, err
	}
	e.state.Store(int32(Sampling))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		e.shouldQuit.Store(true)
	}()

	e.hotLoop()

	e.state.Store(int32(Draining))
	summaries := e.shutdown()
	e.state.Store(int32(Terminated))
	return summaries, nil
}

func (e *Engine) startup() error {
	runtime.LockOSThread()

	if err := rt.RequestRealtimePriority(); err != nil {
		e.logger.Printf("warning: %v", err)
	}
	if err := rt.PinCurrentThread(e.cfg.CorePin); err != nil {
		return fmt.Errorf("engine: pin sampler thread to core %d: %w", e.cfg.CorePin, err)
	}
	if err := rt.LockMemory(); err != nil {
		e.logger.Printf("warning: %v", err)
	}

	if err := os.MkdirAll(e.cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("engine: create data dir %s: %w", e.cfg.DataDir, err)
	}

	cores := make([]*coreState, 0, len(e.cfg.TargetCores))
	for _, id := range e.cfg.TargetCores {
		cs, err := e.startCore(id)
		if err != nil {
			for _, done := range cores {
				done.handle.Close()
				done.sink.Close()
			}
			return err
		}
		cores = append(cores, cs)
	}
	e.cores = cores
	return nil
}

func (e *Engine) startCore(id int) (*coreState, error) {
	h, err := msr.Open(id)
	if err != nil {
		return nil, fmt.Errorf("engine: core %d: %w", id, err)
	}

	path := filepath.Join(e.cfg.DataDir, fmt.Sprintf("%s%d.bin", outputFilePrefix, id))
	sk, err := sink.Create(path, e.cfg.MaxSamples)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("engine: core %d: %w", id, err)
	}

	if err := pmu.Program(h); err != nil {
		h.Close()
		sk.Close()
		return nil, fmt.Errorf("engine: core %d: program PMU: %w", id, err)
	}

	cs := &coreState{coreID: id, handle: h, sink: sk}
	for c := pmu.CounterLLCLoads; c < 3; c++ {
		v, err := pmu.Read(h, c)
		if err != nil {
			h.Close()
			sk.Close()
			return nil, fmt.Errorf("engine: core %d: seed read: %w", id, err)
		}
		cs.prev[c] = v
	}
	return cs, nil
}

func (e *Engine) hotLoop() {
	startNs, _ := clock.Now()
	deadlineNs := startNs + uint64(e.cfg.Duration.Nanoseconds())

	for !e.shouldQuit.Load() {
		monoNs, realNs := clock.Now()
		if monoNs >= deadlineNs {
			return
		}

		allFull := true
		for _, cs := range e.cores {
			if cs.dropped {
				continue
			}
			if cs.sink.Full() {
				if !cs.dropped {
					cs.dropped = true
					e.logger.Printf("core %d: sink full at %d samples, dropping from remaining run", cs.coreID, cs.sink.Cursor())
				}
				continue
			}
			allFull = false

			var curr [3]uint64
			ok := true
			for c := pmu.CounterLLCLoads; c < 3; c++ {
				v, err := pmu.Read(cs.handle, c)
				if err != nil {
					// Deterministic policy: treat a read failure as a
					// zero delta for this iteration and keep going; a
					// valid, already-opened MSR handle is not expected
					// to fail.
					ok = false
					break
				}
				curr[c] = v
			}
			if !ok {
				curr = cs.prev
			}

			rec := recordFrom(monoNs, realNs, cs.prev, curr)
			if err := cs.sink.Append(rec); err != nil {
				cs.dropped = true
				continue
			}
			cs.timeline = append(cs.timeline, monoNs)
			cs.prev = curr
		}
		if allFull {
			return
		}
	}
}

// recordFrom builds the record for one sample: the delta of each counter
// since the previous observation for this core, modular 2^64 per the
// spec's documented non-handling of counter wraparound.
func recordFrom(monoNs, realNs uint64, prev, curr [3]uint64) sample.Record {
	return sample.Record{
		MonotonicTimeNs: monoNs,
		RealTimeNs:      realNs,
		LLCLoads:        curr[pmu.CounterLLCLoads] - prev[pmu.CounterLLCLoads],
		LLCMisses:       curr[pmu.CounterLLCMisses] - prev[pmu.CounterLLCMisses],
		InstrRetired:    curr[pmu.CounterInstrRetired] - prev[pmu.CounterInstrRetired],
	}
}

func (e *Engine) shutdown() []Summary {
	summaries := make([]Summary, 0, len(e.cores))
	for _, cs := range e.cores {
		if err := pmu.Disarm(cs.handle); err != nil {
			e.logger.Printf("warning: core %d: disarm: %v", cs.coreID, err)
		}
		if err := cs.handle.Close(); err != nil {
			e.logger.Printf("warning: core %d: close MSR handle: %v", cs.coreID, err)
		}
		if err := cs.sink.Close(); err != nil {
			e.logger.Printf("warning: core %d: close sink: %v", cs.coreID, err)
		}

		rate := stats.FromMonotonicNs(cs.timeline)
		summaries = append(summaries, Summary{
			CoreID:       cs.coreID,
			SampleCount:  cs.sink.Cursor(),
			AverageRate:  rate.SamplesPerSec,
			DroppedEarly: cs.dropped,
		})
	}
	return summaries
}
