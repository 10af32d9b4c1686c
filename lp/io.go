package lp

// ExternalReader is the contract surface of the file-I/O collaborator.
// LP/MPS parsing lives outside this module; a concrete reader produces a
// fully populated LP for the solver to consume.
type ExternalReader interface {
	// ReadFile parses path and returns a fully populated LP, or an error.
	ReadFile(path string) (*LP, error)
}

// ExternalWriter is the dump-side counterpart. Reading a dump back must
// reproduce the LP exactly, which is why the solver resynchronizes the
// floating mirror from the rational data after every solve.
// Implementations live outside this module.
type ExternalWriter interface {
	DumpFile(path string, l *LP) error
}

// Solver is the outward LP solver contract: load, solve, and read back the
// floating result. Every mutation of the loaded LP invalidates a solver's
// cached factorization. Implemented by simplex.Engine (the direct fp
// solver); refine.Driver wraps an Engine rather than implementing this
// surface itself, since it additionally returns a rational.R-valued
// solution (solution.Solution), not this interface's float64 Value().
type Solver interface {
	Load(l *LP) error
	Solve() Status
	Value() float64
	Iterations() int
	Time() float64
}
