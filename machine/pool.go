// Pool implements the multiprocess vCPU worker pool spec §5 describes:
// one pool job per guest vCPU, sharing read-only pages and execute
// segments across siblings, never mutating a page across vCPUs. It is
// grounded on golang.org/x/sync/errgroup, the same dependency the
// teacher's go.mod already carries, used here exactly the way the
// teacher's own concurrent subsystems bound fan-out work: an
// errgroup.Group with SetLimit, one goroutine per unit of work,
// first-error-wins semantics relaxed into the per-vCPU failures bitmap
// spec §5 names instead (a single vCPU failing should not cancel its
// siblings, since they are independent guest processes sharing nothing
// but immutable pages).
package machine

import (
	"context"
	"sync"

	"github.com/mayhemheroes/libriscv/cpu"
	"golang.org/x/sync/errgroup"
)

// Pool runs a fixed set of vCPUs, each a full *Machine, concurrently.
type Pool[T cpu.Word] struct {
	vcpus []*Machine[T]

	mu       sync.Mutex
	failures uint64
}

// NewPool wraps vcpus (typically built via repeated Machine.Fork calls
// from one parent so they share the parent's read-only area) for
// coordinated execution.
func NewPool[T cpu.Word](vcpus []*Machine[T]) *Pool[T] {
	return &Pool[T]{vcpus: vcpus}
}

// Run simulates every vCPU concurrently, up to maxInstructions each
// (0 defers to that vCPU's own configured budget), and returns once
// every started vCPU has finished. Cancelling ctx keeps vCPUs that have
// not yet started from running and makes Run return ctx's error; a
// Simulate already running is not interrupted. A per-vCPU fault sets
// that vCPU's bit in the failures bitmap rather than aborting the
// others; the bitmap is cleared at the start of each Run.
func (p *Pool[T]) Run(ctx context.Context, maxInstructions uint64) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(len(p.vcpus))
	p.mu.Lock()
	p.failures = 0
	p.mu.Unlock()

	for i, vcpu := range p.vcpus {
		i, vcpu := i, vcpu
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if fault := vcpu.Simulate(maxInstructions); fault != nil {
				p.mu.Lock()
				p.failures |= uint64(1) << uint(i)
				p.mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}

// Failures returns the bitmap of vCPU indices that raised a fault
// during the last Run.
func (p *Pool[T]) Failures() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

// VCPU returns the i'th vCPU's Machine.
func (p *Pool[T]) VCPU(i int) *Machine[T] { return p.vcpus[i] }

// Len returns the number of vCPUs in the pool.
func (p *Pool[T]) Len() int { return len(p.vcpus) }
