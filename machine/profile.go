// Profiler is an optional PC-sampling hook: at a configurable
// instruction stride, it counts a sample for the current PC; at export
// each sampled PC becomes a profile.Location named by the symbol it
// falls in, producing a
// standard pprof profile consumable by any pprof-compatible tool. This
// is the "hot-block data" spec §9's optional ahead-of-time-translation
// hook point needs to decide what is worth translating, implemented
// with github.com/google/pprof/profile the way the teacher's own
// go.mod already pulls it in for its own profiling story.
package machine

import (
	"fmt"
	"io"

	"github.com/google/pprof/profile"
	"github.com/mayhemheroes/libriscv/cpu"
)

// Profiler samples a Machine's PC every Stride instructions between
// calls to Tick, which the caller invokes from its own simulate loop
// (Simulate itself has no hook point for this, since the hot loop
// lives in cpu.CPU.Simulate and inserting a callback there would cost
// every non-profiled caller a branch per instruction).
type Profiler[T cpu.Word] struct {
	Stride uint64

	samples map[uint64]int64
	funcs   map[string]*profile.Function
	lastAt  uint64
}

// NewProfiler returns a profiler sampling every stride instructions
// (a stride of 0 means "every instruction").
func NewProfiler[T cpu.Word](stride uint64) *Profiler[T] {
	return &Profiler[T]{
		Stride:  stride,
		samples: make(map[uint64]int64),
		funcs:   make(map[string]*profile.Function),
	}
}

// Tick records a sample if m's instruction counter has advanced by at
// least Stride since the last recorded sample.
func (p *Profiler[T]) Tick(m *Machine[T]) {
	ic := m.InstructionCounter()
	if ic < p.lastAt+p.Stride {
		return
	}
	p.lastAt = ic
	p.samples[uint64(m.CPU.PC)]++
}

// Export builds a profile.Profile from the accumulated samples,
// resolving each PC to its enclosing symbol via the Machine's image
// when possible, and writes the gzip-compressed protobuf encoding to
// w, matching profile.Profile.Write's on-disk format.
func (p *Profiler[T]) Export(m *Machine[T], w io.Writer) error {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "samples", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "instructions", Unit: "count"},
		Period:     int64(p.Stride),
	}

	var nextFuncID uint64 = 1
	var nextLocID uint64 = 1

	for pc, count := range p.samples {
		name := fmt.Sprintf("0x%x", pc)
		if sym, ok := m.ResolveSymbol(pc); ok {
			name = sym.Name
		}
		fn, ok := p.funcs[name]
		if !ok {
			fn = &profile.Function{ID: nextFuncID, Name: name, SystemName: name}
			nextFuncID++
			p.funcs[name] = fn
			prof.Function = append(prof.Function, fn)
		}
		loc := &profile.Location{
			ID:      nextLocID,
			Address: pc,
			Line:    []profile.Line{{Function: fn}},
		}
		nextLocID++
		prof.Location = append(prof.Location, loc)
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{count},
		})
	}

	return prof.Write(w)
}
