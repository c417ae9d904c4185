package vm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// nameToOp is the inverse of Op.String, built once from the same cases
// so a name typo in one place shows up as a parse failure rather than
// two sources of truth drifting apart.
var nameToOp = func() map[string]Op {
	m := make(map[string]Op, OpHalt+1)
	for op := OpOpenRead; op <= OpHalt; op++ {
		m[op.String()] = op
	}
	return m
}()

// ParseProgram reads the line- or semicolon-delimited textual program
// notation used throughout §4.5's scenarios (e.g. "Integer 2 0;
// OpenRead 0 0 4; ...") and returns the equivalent Instruction slice.
//
// Each instruction is "Op [p1] [p2] [p3] [p4]". p1-p3 are decimal
// integers (default 0 if omitted); p4 is either a decimal integer, a
// bare identifier (taken as a string), or a double-quoted string. A
// line may carry a trailing "# comment", stored on the Instruction and
// ignored otherwise. Blank lines and lines starting with # are
// skipped.
func ParseProgram(r io.Reader) ([]Instruction, error) {
	var out []Instruction

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		for _, stmt := range strings.Split(scanner.Text(), ";") {
			ins, ok, err := parseStatement(stmt)
			if err != nil {
				return nil, fmt.Errorf("vm: line %d: %w", lineNo, err)
			}
			if ok {
				out = append(out, ins)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vm: reading program: %w", err)
	}
	return out, nil
}

func parseStatement(stmt string) (Instruction, bool, error) {
	comment := ""
	if i := strings.Index(stmt, "#"); i >= 0 {
		comment = strings.TrimSpace(stmt[i+1:])
		stmt = stmt[:i]
	}

	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return Instruction{}, false, nil
	}

	op, ok := nameToOp[fields[0]]
	if !ok {
		return Instruction{}, false, fmt.Errorf("unknown opcode %q", fields[0])
	}

	ins := Instruction{Op: op, Comment: comment}
	args := fields[1:]
	ints := [3]*int32{&ins.P1, &ins.P2, &ins.P3}
	for i := 0; i < 3 && i < len(args); i++ {
		v, err := strconv.ParseInt(args[i], 10, 32)
		if err != nil {
			return Instruction{}, false, fmt.Errorf("%s: operand %d %q is not an integer", fields[0], i+1, args[i])
		}
		*ints[i] = int32(v)
	}
	if len(args) > 3 {
		raw := strings.Trim(strings.Join(args[3:], " "), `"`)
		if v, err := strconv.ParseInt(raw, 10, 32); err == nil {
			ins.P4 = int32(v)
		} else {
			ins.P4 = raw
		}
	}
	return ins, true, nil
}
