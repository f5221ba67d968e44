// Command rvrun is the reference CLI for the emulator: it loads a
// RISC-V ELF binary, wires its stdout/stdin through the host terminal
// (optionally raw, so guest programs that want character-at-a-time
// input behave correctly), and runs it to completion or to an
// instruction budget. It is grounded on
// _examples/bassosimone-risc32/cmd/vm/main.go's flag-driven load/run
// loop shape (flag.Bool/flag.String, log.Fatal on setup errors) and on
// golang.org/x/sys/unix for the raw-terminal-mode "console passthrough"
// role bassosimone-risc32/pkg/vm/tty.go plays for its TCP-attached
// console, here pointed at a real host TTY.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/mayhemheroes/libriscv/decode"
	"github.com/mayhemheroes/libriscv/machine"
	"golang.org/x/sys/unix"
)

func main() {
	log.SetFlags(0)

	raw := flag.Bool("raw-tty", false, "put the host terminal in raw mode for the guest's stdin")
	verbose := flag.Bool("v", false, "verbose loader diagnostics")
	memoryMax := flag.Int("memory-max", 64<<20, "maximum guest memory in bytes")
	maxInsns := flag.Uint64("max-instructions", 0, "instruction budget (0 = unbounded)")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: rvrun [flags] <elf-binary>")
	}

	binary, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	if *raw {
		restore, err := enableRawMode(int(os.Stdin.Fd()))
		if err != nil {
			log.Printf("rvrun: raw mode unavailable: %v", err)
		} else {
			defer restore()
		}
	}

	opt := machine.Options[uint64]{
		MemoryMax:       *memoryMax,
		MaxInstructions: *maxInsns,
		Decode: decode.Options{
			Compressed: true,
			Mul:        true,
			Atomic:     true,
			Float:      true,
			Double:     true,
			ZbaZbb:     true,
			XLENBits:   64,
		},
	}
	opt.LoadProgram = true
	opt.VerboseLoader = *verbose

	m := machine.New[uint64](binary, opt)
	m.SetPrinter(func(data []byte) { os.Stdout.Write(data) })
	m.SetStdin(func(buf []byte) int {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return 0
		}
		return n
	})
	m.SetDebugPrinter(func(line string) { log.Println(line) })

	if fault := m.Simulate(0); fault != nil {
		log.Fatalf("rvrun: %v", fault)
	}

	code := machine.ReturnValue[uint64, int32](m)
	os.Exit(int(code))
}

// enableRawMode puts fd's terminal into full raw mode (no echo, no
// canonical line input, no signal keys, no output processing) and
// returns a function that restores the previous settings.
func enableRawMode(fd int) (func(), error) {
	orig, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}

	raw := *orig
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}
	return func() { _ = unix.IoctlSetTermios(fd, unix.TCSETS, orig) }, nil
}
