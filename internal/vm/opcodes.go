package vm

import (
	"errors"
	"fmt"

	"tinydb/internal/storage"
)

// opHandler executes one instruction and reports whether it wants to
// jump: (targetPC, true, nil) to jump, (_, false, nil) to fall through
// to pc+1, or a non-nil error to abort the program. Grounded on §4.5's
// dispatch-table framing ("the dispatch table maps each opcode enum
// value to a handler"), replacing virtualmachine/program.go's single
// large step() switch.
type opHandler func(p *Program, ins Instruction) (int32, bool, error)

var opcodeTable = map[Op]opHandler{
	OpOpenRead:    opOpenRead,
	OpOpenWrite:   opOpenWrite,
	OpClose:       opClose,
	OpRewind:      opRewind,
	OpNext:        opNext,
	OpPrev:        opPrev,
	OpSeek:        opSeekFunc((*storage.Cursor).Seek),
	OpSeekGt:      opSeekFunc((*storage.Cursor).SeekGt),
	OpSeekGe:      opSeekFunc((*storage.Cursor).SeekGe),
	OpSeekLt:      opSeekFunc((*storage.Cursor).SeekLt),
	OpSeekLe:      opSeekFunc((*storage.Cursor).SeekLe),
	OpInteger:     opInteger,
	OpString:      opString,
	OpNull:        opNull,
	OpCopy:        opCopy,
	OpSCopy:       opCopy,
	OpEq:          opCompare(eq),
	OpNe:          opCompare(func(a, b Register) bool { return !eq(a, b) }),
	OpLt:          opCompare(less),
	OpLe:          opCompare(func(a, b Register) bool { return less(a, b) || eq(a, b) }),
	OpGt:          opCompare(func(a, b Register) bool { return !less(a, b) && !eq(a, b) }),
	OpGe:          opCompare(func(a, b Register) bool { return !less(a, b) }),
	OpColumn:      opColumn,
	OpKey:         opKey,
	OpResultRow:   opResultRow,
	OpMakeRecord:  opMakeRecord,
	OpInsert:      opInsert,
	OpIdxGt:       opIdxCompare(func(a, b int64) bool { return a > b }),
	OpIdxGe:       opIdxCompare(func(a, b int64) bool { return a >= b }),
	OpIdxLt:       opIdxCompare(func(a, b int64) bool { return a < b }),
	OpIdxLe:       opIdxCompare(func(a, b int64) bool { return a <= b }),
	OpIdxPKey:     opIdxPKey,
	OpIdxInsert:   opIdxInsert,
	OpCreateTable: opCreateTableOrIndex(false),
	OpCreateIndex: opCreateTableOrIndex(true),
	OpHalt:        opHalt,
}

func noJump(err error) (int32, bool, error) { return 0, false, err }
func jumpTo(target int32) (int32, bool, error) { return target, true, nil }

// openCursor is shared by OpOpenRead/OpOpenWrite: P1 cursor slot, P2
// register holding the B-tree's root page number, P3 column count (0
// means an index B-tree, per §4.5).
func openCursor(p *Program, ins Instruction, write bool) (int32, bool, error) {
	if write {
		p.pager.SetMode(storage.ModeWrite)
	}

	pageReg := p.reg(ins.P2)
	if pageReg.Type != RegInt32 {
		return noJump(fmt.Errorf("vm: OpenRead/OpenWrite P2 register holds %v, not an int32 page number", pageReg.Type))
	}

	var tree *storage.BTree
	if ins.P3 == 0 {
		tree = storage.OpenIndex(p.pager, int(pageReg.Int))
	} else {
		tree = storage.OpenTable(p.pager, int(pageReg.Int))
	}

	*p.cursorSlot(ins.P1) = &cursorState{
		tree: tree,
		cur:  storage.NewCursor(tree),
		cols: int(ins.P3),
	}
	return noJump(nil)
}

func opOpenRead(p *Program, ins Instruction) (int32, bool, error) {
	return openCursor(p, ins, false)
}

func opOpenWrite(p *Program, ins Instruction) (int32, bool, error) {
	return openCursor(p, ins, true)
}

func opClose(p *Program, ins Instruction) (int32, bool, error) {
	*p.cursorSlot(ins.P1) = nil
	return noJump(nil)
}

// opRewind: "if B-tree is empty, jump to j; else rewind."
func opRewind(p *Program, ins Instruction) (int32, bool, error) {
	cs := p.cursor(ins.P1)
	empty, err := cs.cur.IsEmpty()
	if err != nil {
		return noJump(err)
	}
	if empty {
		return jumpTo(ins.P2)
	}
	if err := cs.cur.Rewind(); err != nil {
		return noJump(err)
	}
	return noJump(nil)
}

// opNext / opPrev: "advance; on success jump to j, else fall through."
func opNext(p *Program, ins Instruction) (int32, bool, error) {
	cs := p.cursor(ins.P1)
	err := cs.cur.Next()
	if err == nil {
		return jumpTo(ins.P2)
	}
	if errors.Is(err, storage.ErrNoNext) {
		return noJump(nil)
	}
	return noJump(err)
}

func opPrev(p *Program, ins Instruction) (int32, bool, error) {
	cs := p.cursor(ins.P1)
	err := cs.cur.Prev()
	if err == nil {
		return jumpTo(ins.P2)
	}
	if errors.Is(err, storage.ErrNoPrev) {
		return noJump(nil)
	}
	return noJump(err)
}

// opSeekFunc builds the shared handler for the Seek/SeekGt/SeekGe/
// SeekLt/SeekLe family: "position cursor c toward the key in register
// r; if the target does not exist, jump to j, else fall through."
func opSeekFunc(seek func(*storage.Cursor, uint32) error) opHandler {
	return func(p *Program, ins Instruction) (int32, bool, error) {
		cs := p.cursor(ins.P1)
		keyReg := p.reg(ins.P3)
		if keyReg.Type != RegInt32 {
			return noJump(fmt.Errorf("vm: seek register holds %v, not an int32 key", keyReg.Type))
		}
		err := seek(cs.cur, uint32(keyReg.Int))
		if err == nil {
			return noJump(nil)
		}
		if errors.Is(err, storage.ErrKeyNotFound) {
			return jumpTo(ins.P2)
		}
		return noJump(err)
	}
}

func opInteger(p *Program, ins Instruction) (int32, bool, error) {
	*p.reg(ins.P2) = Register{Type: RegInt32, Int: ins.P1}
	return noJump(nil)
}

func opString(p *Program, ins Instruction) (int32, bool, error) {
	s, ok := ins.P4.(string)
	if !ok {
		return noJump(fmt.Errorf("vm: String instruction P4 is not a string"))
	}
	*p.reg(ins.P2) = Register{Type: RegString, Str: s}
	return noJump(nil)
}

func opNull(p *Program, ins Instruction) (int32, bool, error) {
	*p.reg(ins.P2) = nullRegister()
	return noJump(nil)
}

// opCopy backs both Copy and SCopy: the spec distinguishes them only by
// whether the source's owned buffer is duplicated, and Register's Str/
// Bin are immutable value/slice copies here regardless, so one handler
// serves both.
func opCopy(p *Program, ins Instruction) (int32, bool, error) {
	src := *p.reg(ins.P1)
	dst := p.reg(ins.P2)
	dst.Type = src.Type
	dst.Int = src.Int
	dst.Str = src.Str
	if src.Bin != nil {
		dst.Bin = append([]byte(nil), src.Bin...)
	} else {
		dst.Bin = nil
	}
	return noJump(nil)
}

// opCompare builds the shared handler for Eq/Ne/Lt/Le/Gt/Ge: "compare
// registers r1 and r2 ... branch to j on truth." P1 and P3 are the
// compared registers, P2 the jump target.
func opCompare(truth func(a, b Register) bool) opHandler {
	return func(p *Program, ins Instruction) (int32, bool, error) {
		a := *p.reg(ins.P1)
		b := *p.reg(ins.P3)
		if truth(a, b) {
			return jumpTo(ins.P2)
		}
		return noJump(nil)
	}
}

func columnField(cs *cursorState, col int32) (storage.Field, error) {
	cell, err := cs.cur.CurrentCell()
	if err != nil {
		return storage.Field{}, err
	}
	record, err := storage.UnmarshalRecord(cell.Payload)
	if err != nil {
		return storage.Field{}, err
	}
	if int(col) >= len(record.Fields) {
		return storage.Field{}, fmt.Errorf("vm: column %d out of range (record has %d fields)", col, len(record.Fields))
	}
	return record.Fields[col], nil
}

// opColumn: "extract column n from the record payload at cursor c into r."
func opColumn(p *Program, ins Instruction) (int32, bool, error) {
	cs := p.cursor(ins.P1)
	field, err := columnField(cs, ins.P2)
	if err != nil {
		return noJump(err)
	}

	dst := p.reg(ins.P3)
	switch field.Type {
	case storage.FieldNull:
		*dst = nullRegister()
	case storage.FieldInt32:
		*dst = Register{Type: RegInt32, Int: field.Int}
	case storage.FieldString:
		*dst = Register{Type: RegString, Str: field.Str}
	case storage.FieldBinary:
		*dst = Register{Type: RegBinary, Bin: field.Bin}
	default:
		return noJump(fmt.Errorf("vm: unexpected field type %v", field.Type))
	}
	return noJump(nil)
}

// opKey: "write the current key into r as Int32."
func opKey(p *Program, ins Instruction) (int32, bool, error) {
	cs := p.cursor(ins.P1)
	cell, err := cs.cur.CurrentCell()
	if err != nil {
		return noJump(err)
	}
	*p.reg(ins.P2) = Register{Type: RegInt32, Int: int32(cell.Key)}
	return noJump(nil)
}

// opResultRow: "emit n registers starting at rs as a result row to the
// caller."
func opResultRow(p *Program, ins Instruction) (int32, bool, error) {
	start := ins.P1
	count := ins.P2
	row := make([]interface{}, 0, count)
	for i := int32(0); i < count; i++ {
		reg := *p.reg(start + i)
		switch reg.Type {
		case RegNull:
			row = append(row, nil)
		case RegInt32:
			row = append(row, reg.Int)
		case RegString:
			row = append(row, reg.Str)
		case RegBinary, RegRecord:
			row = append(row, reg.Bin)
		}
	}
	p.results <- row
	return noJump(nil)
}

// opMakeRecord: "serialize n registers into a record blob written to r."
func opMakeRecord(p *Program, ins Instruction) (int32, bool, error) {
	start := ins.P1
	count := ins.P2
	fields := make([]storage.Field, 0, count)
	for i := int32(0); i < count; i++ {
		reg := *p.reg(start + i)
		switch reg.Type {
		case RegNull:
			fields = append(fields, storage.NullField())
		case RegInt32:
			fields = append(fields, storage.IntField(reg.Int))
		case RegString:
			fields = append(fields, storage.StringField(reg.Str))
		case RegBinary:
			fields = append(fields, storage.BinaryField(reg.Bin))
		default:
			return noJump(fmt.Errorf("vm: cannot serialize register of type %v into a record", reg.Type))
		}
	}
	blob := storage.NewRecord(fields...).Marshal()
	*p.reg(ins.P3) = Register{Type: RegRecord, Bin: blob}
	return noJump(nil)
}

// opInsert: "insert (key, data) into the table B-tree at cursor c."
func opInsert(p *Program, ins Instruction) (int32, bool, error) {
	cs := p.cursor(ins.P1)
	data := p.reg(ins.P2)
	key := p.reg(ins.P3)
	if key.Type != RegInt32 {
		return noJump(fmt.Errorf("vm: Insert key register holds %v, not an int32", key.Type))
	}
	err := cs.tree.Insert(storage.Cell{
		Type:    storage.PageTypeTableLeaf,
		Key:     uint32(key.Int),
		Payload: data.Bin,
	})
	return noJump(err)
}

// opIdxCompare builds the shared handler for IdxGt/IdxGe/IdxLt/IdxLe:
// "branch on the index key at the current cursor position vs. register
// r."
func opIdxCompare(truth func(a, b int64) bool) opHandler {
	return func(p *Program, ins Instruction) (int32, bool, error) {
		cs := p.cursor(ins.P1)
		cell, err := cs.cur.CurrentCell()
		if err != nil {
			return noJump(err)
		}
		reg := *p.reg(ins.P3)
		if reg.Type != RegInt32 {
			return noJump(fmt.Errorf("vm: index compare register holds %v, not an int32", reg.Type))
		}
		if truth(int64(cell.Key), int64(reg.Int)) {
			return jumpTo(ins.P2)
		}
		return noJump(nil)
	}
}

// opIdxPKey: "extract keyPk from current index cell into r."
func opIdxPKey(p *Program, ins Instruction) (int32, bool, error) {
	cs := p.cursor(ins.P1)
	cell, err := cs.cur.CurrentCell()
	if err != nil {
		return noJump(err)
	}
	*p.reg(ins.P2) = Register{Type: RegInt32, Int: int32(cell.KeyPk)}
	return noJump(nil)
}

// opIdxInsert: "insert (idxkey, keyPk) into index B-tree."
func opIdxInsert(p *Program, ins Instruction) (int32, bool, error) {
	cs := p.cursor(ins.P1)
	idxKey := p.reg(ins.P2)
	pk := p.reg(ins.P3)
	if idxKey.Type != RegInt32 || pk.Type != RegInt32 {
		return noJump(fmt.Errorf("vm: IdxInsert registers must both be int32"))
	}
	err := cs.tree.Insert(storage.Cell{
		Type:  storage.PageTypeIndexLeaf,
		Key:   uint32(idxKey.Int),
		KeyPk: uint32(pk.Int),
	})
	return noJump(err)
}

// opCreateTableOrIndex: "CreateTable r, CreateIndex r — allocate a
// fresh root page for a new B-tree and store its page number in r."
func opCreateTableOrIndex(index bool) opHandler {
	return func(p *Program, ins Instruction) (int32, bool, error) {
		p.pager.SetMode(storage.ModeWrite)
		tree, err := storage.NewTree(p.pager, index)
		if err != nil {
			return noJump(err)
		}
		*p.reg(ins.P1) = Register{Type: RegInt32, Int: int32(tree.Root())}
		return noJump(nil)
	}
}

// opHalt: "set pc past end; the program's exit status is code."
func opHalt(p *Program, ins Instruction) (int32, bool, error) {
	p.halted = true
	p.exitCode = ins.P1
	return noJump(nil)
}
