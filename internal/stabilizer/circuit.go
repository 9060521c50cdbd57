// Package stabilizer provides a small Clifford circuit model and a sampler for it.
package stabilizer

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Op identifies a circuit instruction.
type Op uint8

// Supported instructions.
const (
	OpH Op = iota + 1
	OpX
	OpZ
	OpCX
	OpR
	OpM
	OpXError
	OpZError
)

var opNames = map[Op]string{
	OpH:      "H",
	OpX:      "X",
	OpZ:      "Z",
	OpCX:     "CX",
	OpR:      "R",
	OpM:      "M",
	OpXError: "X_ERROR",
	OpZError: "Z_ERROR",
}

var opByName = map[string]Op{
	"H":       OpH,
	"X":       OpX,
	"Z":       OpZ,
	"CX":      OpCX,
	"CNOT":    OpCX,
	"R":       OpR,
	"M":       OpM,
	"X_ERROR": OpXError,
	"Z_ERROR": OpZError,
}

var (
	// ErrUnknownOp is returned for instruction names the simulator does not support.
	ErrUnknownOp = errors.New("unknown instruction")
	// ErrBadTargets is returned when an instruction has invalid qubit targets.
	ErrBadTargets = errors.New("invalid targets")
	// ErrBadArgument is returned when a noise probability is missing or outside [0,1].
	ErrBadArgument = errors.New("invalid argument")
)

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// IsNoise reports whether the instruction is a noise channel.
func (o Op) IsNoise() bool {
	return o == OpXError || o == OpZError
}

// Instruction is a single operation applied to one or more qubits.
type Instruction struct {
	Op      Op
	Targets []int
	// Prob is the channel probability for noise instructions.
	Prob float64
}

// Circuit is an ordered list of instructions over qubits that start in |0>.
type Circuit struct {
	instructions    []Instruction
	numQubits       int
	numMeasurements int
}

// NewCircuit returns an empty circuit.
func NewCircuit() *Circuit {
	return &Circuit{}
}

// Append validates and appends an instruction. Noise instructions take exactly one
// probability argument; all others take none.
func (c *Circuit) Append(op Op, targets []int, args ...float64) error {
	if _, ok := opNames[op]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownOp, op)
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: %s has no targets", ErrBadTargets, op)
	}
	for _, t := range targets {
		if t < 0 {
			return fmt.Errorf("%w: %s target %d is negative", ErrBadTargets, op, t)
		}
	}
	if op == OpCX {
		if len(targets)%2 != 0 {
			return fmt.Errorf("%w: CX needs target pairs, got %d targets", ErrBadTargets, len(targets))
		}
		for i := 0; i < len(targets); i += 2 {
			if targets[i] == targets[i+1] {
				return fmt.Errorf("%w: CX control and target are both %d", ErrBadTargets, targets[i])
			}
		}
	}
	var prob float64
	if op.IsNoise() {
		if len(args) != 1 {
			return fmt.Errorf("%w: %s takes one probability, got %d", ErrBadArgument, op, len(args))
		}
		prob = args[0]
		if prob < 0 || prob > 1 || prob != prob {
			return fmt.Errorf("%w: %s probability %v outside [0,1]", ErrBadArgument, op, prob)
		}
	} else if len(args) != 0 {
		return fmt.Errorf("%w: %s takes no arguments", ErrBadArgument, op)
	}

	ins := Instruction{Op: op, Targets: append([]int(nil), targets...), Prob: prob}
	c.instructions = append(c.instructions, ins)
	for _, t := range targets {
		if t+1 > c.numQubits {
			c.numQubits = t + 1
		}
	}
	if op == OpM {
		c.numMeasurements += len(targets)
	}
	return nil
}

// Instructions returns a copy of the instruction list.
func (c *Circuit) Instructions() []Instruction {
	out := make([]Instruction, len(c.instructions))
	for i, ins := range c.instructions {
		out[i] = Instruction{Op: ins.Op, Targets: append([]int(nil), ins.Targets...), Prob: ins.Prob}
	}
	return out
}

// NumQubits returns one more than the highest qubit index used.
func (c *Circuit) NumQubits() int {
	return c.numQubits
}

// NumMeasurements returns the number of measurement results per shot.
func (c *Circuit) NumMeasurements() int {
	return c.numMeasurements
}

// WithoutNoise returns a copy of the circuit with all noise channels removed.
func (c *Circuit) WithoutNoise() *Circuit {
	out := &Circuit{numQubits: c.numQubits, numMeasurements: c.numMeasurements}
	for _, ins := range c.instructions {
		if ins.Op.IsNoise() {
			continue
		}
		out.instructions = append(out.instructions, Instruction{Op: ins.Op, Targets: append([]int(nil), ins.Targets...)})
	}
	return out
}

// String renders the circuit one instruction per line, e.g. "X_ERROR(0.1) 0 1 2".
func (c *Circuit) String() string {
	var b strings.Builder
	for i, ins := range c.instructions {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(ins.Op.String())
		if ins.Op.IsNoise() {
			b.WriteByte('(')
			b.WriteString(strconv.FormatFloat(ins.Prob, 'g', -1, 64))
			b.WriteByte(')')
		}
		for _, t := range ins.Targets {
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(t))
		}
	}
	return b.String()
}

// Parse reads the text form produced by String. Blank lines and '#' comments are skipped.
func Parse(text string) (*Circuit, error) {
	c := NewCircuit()
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name, args, err := splitHead(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		op, ok := opByName[strings.ToUpper(name)]
		if !ok {
			return nil, fmt.Errorf("line %d: %w %q", lineNo, ErrUnknownOp, name)
		}
		targets := make([]int, 0, len(fields)-1)
		for _, f := range fields[1:] {
			t, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %q is not a qubit index", lineNo, ErrBadTargets, f)
			}
			targets = append(targets, t)
		}
		if err := c.Append(op, targets, args...); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func splitHead(head string) (string, []float64, error) {
	open := strings.IndexByte(head, '(')
	if open < 0 {
		return head, nil, nil
	}
	if !strings.HasSuffix(head, ")") {
		return "", nil, fmt.Errorf("%w: unterminated argument in %q", ErrBadArgument, head)
	}
	raw := head[open+1 : len(head)-1]
	var args []float64
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %q", ErrBadArgument, part)
		}
		args = append(args, v)
	}
	return head[:open], args, nil
}
