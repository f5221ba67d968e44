package decode

// Base opcode field values (instr[6:0]) for the RV32I/64I/128I + M/A/F/D
// encodings, grounded on lib/libriscv/decode_bytecodes.cpp's opcode()
// switch.
const (
	opLoad     = 0x03
	opLoadFP   = 0x07 // FLW/FLD
	opMiscMem  = 0x0f // FENCE
	opOpImm    = 0x13
	opAuipc    = 0x17
	opOpImm32  = 0x1b // ADDIW/SLLIW/SRLIW/SRAIW (RV64I)
	opStore    = 0x23
	opStoreFP  = 0x27 // FSW/FSD
	opAmo      = 0x2f // A extension
	opOp       = 0x33
	opLui      = 0x37
	opOp32     = 0x3b // ADDW/SUBW/... (RV64I)
	opMadd     = 0x43
	opMsub     = 0x47
	opNmsub    = 0x4b
	opNmadd    = 0x4f
	opOpFP     = 0x53 // F/D arithmetic
	opBranch   = 0x63
	opJalr     = 0x67
	opJal      = 0x6f
	opSystem   = 0x73
)

// funct3 values shared across opcodes.
const (
	f3JALR = 0x0
)

// Exported opcode constants, for the CPU package's slow-path handlers
// that need to re-classify an instruction already routed to BC_FUNCTION.
const (
	OpLoad    = opLoad
	OpLoadFP  = opLoadFP
	OpMiscMem = opMiscMem
	OpOpImm   = opOpImm
	OpAuipc   = opAuipc
	OpOpImm32 = opOpImm32
	OpStore   = opStore
	OpStoreFP = opStoreFP
	OpAmo     = opAmo
	OpOp      = opOp
	OpLui     = opLui
	OpOp32    = opOp32
	OpMadd    = opMadd
	OpMsub    = opMsub
	OpNmsub   = opNmsub
	OpNmadd   = opNmadd
	OpOpFP    = opOpFP
	OpBranch  = opBranch
	OpJalr    = opJalr
	OpJal     = opJal
	OpSystem  = opSystem
)
