package vm

// Op is a DBM opcode. Values and naming follow §4.5 and, before it,
// chidb's dbm-types.h via virtualmachine/machine.go's Op enum; opcodes
// the teacher carried for a SQL-compiler front end this repo does not
// have (OpInit, OpAutoCommit, OpRowID, OpAnd, OpAdd, OpNoOp) are
// dropped since §4.5 does not name them.
type Op uint8

const (
	OpOpenRead Op = iota
	OpOpenWrite
	OpClose

	OpRewind
	OpNext
	OpPrev

	OpSeek
	OpSeekGt
	OpSeekGe
	OpSeekLt
	OpSeekLe

	OpInteger
	OpString
	OpNull
	OpCopy
	OpSCopy

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpColumn
	OpKey
	OpResultRow
	OpMakeRecord

	OpInsert

	OpIdxGt
	OpIdxGe
	OpIdxLt
	OpIdxLe
	OpIdxPKey
	OpIdxInsert

	OpCreateTable
	OpCreateIndex

	OpHalt
)

func (o Op) String() string {
	switch o {
	case OpOpenRead:
		return "OpenRead"
	case OpOpenWrite:
		return "OpenWrite"
	case OpClose:
		return "Close"
	case OpRewind:
		return "Rewind"
	case OpNext:
		return "Next"
	case OpPrev:
		return "Prev"
	case OpSeek:
		return "Seek"
	case OpSeekGt:
		return "SeekGt"
	case OpSeekGe:
		return "SeekGe"
	case OpSeekLt:
		return "SeekLt"
	case OpSeekLe:
		return "SeekLe"
	case OpInteger:
		return "Integer"
	case OpString:
		return "String"
	case OpNull:
		return "Null"
	case OpCopy:
		return "Copy"
	case OpSCopy:
		return "SCopy"
	case OpEq:
		return "Eq"
	case OpNe:
		return "Ne"
	case OpLt:
		return "Lt"
	case OpLe:
		return "Le"
	case OpGt:
		return "Gt"
	case OpGe:
		return "Ge"
	case OpColumn:
		return "Column"
	case OpKey:
		return "Key"
	case OpResultRow:
		return "ResultRow"
	case OpMakeRecord:
		return "MakeRecord"
	case OpInsert:
		return "Insert"
	case OpIdxGt:
		return "IdxGt"
	case OpIdxGe:
		return "IdxGe"
	case OpIdxLt:
		return "IdxLt"
	case OpIdxLe:
		return "IdxLe"
	case OpIdxPKey:
		return "IdxPKey"
	case OpIdxInsert:
		return "IdxInsert"
	case OpCreateTable:
		return "CreateTable"
	case OpCreateIndex:
		return "CreateIndex"
	case OpHalt:
		return "Halt"
	default:
		return "Unknown"
	}
}
