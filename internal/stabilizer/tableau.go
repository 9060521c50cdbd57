package stabilizer

import "fmt"

// Tableau is an Aaronson-Gottesman stabilizer tableau over n qubits. Rows [0,n) hold
// destabilizers, rows [n,2n) stabilizers and row 2n is scratch space.
type Tableau struct {
	n int
	x [][]uint8
	z [][]uint8
	r []uint8
}

// NewTableau returns a tableau for n qubits in |0...0>.
func NewTableau(n int) *Tableau {
	t := &Tableau{
		n: n,
		x: make([][]uint8, 2*n+1),
		z: make([][]uint8, 2*n+1),
		r: make([]uint8, 2*n+1),
	}
	for i := range t.x {
		t.x[i] = make([]uint8, n)
		t.z[i] = make([]uint8, n)
	}
	for i := 0; i < n; i++ {
		t.x[i][i] = 1
		t.z[n+i][i] = 1
	}
	return t
}

// NumQubits returns the number of qubits tracked.
func (t *Tableau) NumQubits() int {
	return t.n
}

// H applies a Hadamard gate.
func (t *Tableau) H(a int) {
	for i := 0; i < 2*t.n; i++ {
		t.r[i] ^= t.x[i][a] & t.z[i][a]
		t.x[i][a], t.z[i][a] = t.z[i][a], t.x[i][a]
	}
}

// CX applies a controlled-NOT with control a and target b.
func (t *Tableau) CX(a, b int) {
	for i := 0; i < 2*t.n; i++ {
		t.r[i] ^= t.x[i][a] & t.z[i][b] & (t.x[i][b] ^ t.z[i][a] ^ 1)
		t.x[i][b] ^= t.x[i][a]
		t.z[i][a] ^= t.z[i][b]
	}
}

// X applies a Pauli X gate.
func (t *Tableau) X(a int) {
	for i := 0; i < 2*t.n; i++ {
		t.r[i] ^= t.z[i][a]
	}
}

// Z applies a Pauli Z gate.
func (t *Tableau) Z(a int) {
	for i := 0; i < 2*t.n; i++ {
		t.r[i] ^= t.x[i][a]
	}
}

// Measure measures qubit a in the Z basis. When the outcome is random, coin supplies
// it. The second result reports whether the outcome was determined by the state.
func (t *Tableau) Measure(a int, coin func() uint8) (uint8, bool) {
	n := t.n
	p := -1
	for i := n; i < 2*n; i++ {
		if t.x[i][a] == 1 {
			p = i
			break
		}
	}
	if p >= 0 {
		for i := 0; i < 2*n; i++ {
			if i != p && t.x[i][a] == 1 {
				t.rowsum(i, p)
			}
		}
		copy(t.x[p-n], t.x[p])
		copy(t.z[p-n], t.z[p])
		t.r[p-n] = t.r[p]
		for j := 0; j < n; j++ {
			t.x[p][j] = 0
			t.z[p][j] = 0
		}
		t.z[p][a] = 1
		t.r[p] = coin() & 1
		return t.r[p], false
	}

	scratch := 2 * n
	for j := 0; j < n; j++ {
		t.x[scratch][j] = 0
		t.z[scratch][j] = 0
	}
	t.r[scratch] = 0
	for i := 0; i < n; i++ {
		if t.x[i][a] == 1 {
			t.rowsum(scratch, i+n)
		}
	}
	return t.r[scratch], true
}

// Reset measures qubit a and flips it back to |0> when needed.
func (t *Tableau) Reset(a int, coin func() uint8) {
	if v, _ := t.Measure(a, coin); v == 1 {
		t.X(a)
	}
}

func (t *Tableau) rowsum(h, i int) {
	sum := 2*int(t.r[h]) + 2*int(t.r[i])
	for j := 0; j < t.n; j++ {
		sum += phaseExponent(t.x[i][j], t.z[i][j], t.x[h][j], t.z[h][j])
	}
	sum %= 4
	if sum < 0 {
		sum += 4
	}
	if sum == 0 {
		t.r[h] = 0
	} else {
		t.r[h] = 1
	}
	for j := 0; j < t.n; j++ {
		t.x[h][j] ^= t.x[i][j]
		t.z[h][j] ^= t.z[i][j]
	}
}

func phaseExponent(x1, z1, x2, z2 uint8) int {
	switch {
	case x1 == 0 && z1 == 0:
		return 0
	case x1 == 1 && z1 == 1:
		return int(z2) - int(x2)
	case x1 == 1 && z1 == 0:
		return int(z2) * (2*int(x2) - 1)
	default:
		return int(x2) * (1 - 2*int(z2))
	}
}

// Run executes the circuit's non-noise instructions and returns the measurement
// record. coin resolves random measurement outcomes.
func (t *Tableau) Run(c *Circuit, coin func() uint8) ([]uint8, error) {
	if c.NumQubits() > t.n {
		return nil, fmt.Errorf("%w: circuit uses %d qubits, tableau has %d", ErrBadTargets, c.NumQubits(), t.n)
	}
	record := make([]uint8, 0, c.NumMeasurements())
	for _, ins := range c.instructions {
		switch ins.Op {
		case OpH:
			for _, q := range ins.Targets {
				t.H(q)
			}
		case OpX:
			for _, q := range ins.Targets {
				t.X(q)
			}
		case OpZ:
			for _, q := range ins.Targets {
				t.Z(q)
			}
		case OpCX:
			for i := 0; i < len(ins.Targets); i += 2 {
				t.CX(ins.Targets[i], ins.Targets[i+1])
			}
		case OpR:
			for _, q := range ins.Targets {
				t.Reset(q, coin)
			}
		case OpM:
			for _, q := range ins.Targets {
				v, _ := t.Measure(q, coin)
				record = append(record, v)
			}
		case OpXError, OpZError:
		default:
			return nil, fmt.Errorf("%w: %v", ErrUnknownOp, ins.Op)
		}
	}
	return record, nil
}
