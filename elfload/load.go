package elfload

import (
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/mem"
)

// Loaded is the result of a successful Load: the parsed image (kept
// around for ResolveSymbol/LookupByAddress) and the Memory it was
// installed into.
type Loaded[T mem.Word] struct {
	Image  *Image
	Memory *mem.Memory[T]
}

// Load parses raw, validates it against spec §4.2, and — unless
// opt.LoadProgram is false — installs its PT_LOAD segments into a fresh
// Memory built with pagesMax pages, computing the guest's initial
// register/address state. decOpt controls which ISA extensions the
// installed execute segments decode against.
func Load[T mem.Word](raw []byte, pagesMax int, opt Options, decOpt decode.Options) *Loaded[T] {
	img := Parse(raw)

	m := mem.New[T](pagesMax)
	if !opt.LoadProgram {
		m.Entry = T(img.Entry)
		return &Loaded[T]{Image: img, Memory: m}
	}

	segs := validateLoads(img, opt)
	installSegments[T](img, segs, m, opt, decOpt)
	computeState[T](img, segs, m, opt, decOpt)

	if opt.VerboseLoader {
		logLoad(img, segs, m)
	}
	if !opt.MinimalFork {
		// keep the raw image reachable through Memory so a forked
		// child still holds it.
		m.SetELFImage(raw)
	}
	return &Loaded[T]{Image: img, Memory: m}
}

func logLoad[T mem.Word](img *Image, segs []loadSeg, m *mem.Memory[T]) {
	p := message.NewPrinter(language.English)
	slog.Info(p.Sprintf("elfload: installed %v PT_LOAD segment(s), %v symbol(s)",
		number.Decimal(len(segs)), number.Decimal(len(img.Symbols))))
	slog.Info(p.Sprintf("elfload: entry=0x%x heap=0x%x mmap=0x%x stack_top=0x%x exit_trampoline=0x%x",
		uint64(m.Entry), uint64(m.HeapBase), uint64(m.MmapCursor), uint64(m.StackTop), uint64(m.ExitTrampoline)))
}
