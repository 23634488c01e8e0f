package mmr

import "errors"

// Error kinds returned by the verifier and its stream readers. All are
// sentinel values suitable for errors.Is; call sites that need to add
// context wrap them with fmt.Errorf("%w: ...", ErrX).
var (
	// ErrInvalidStack reports a stack overflow or underflow for the
	// opcode currently being executed.
	ErrInvalidStack = errors.New("mmr: invalid stack")

	// ErrInvalidCommand reports an opcode byte outside {1..5}.
	ErrInvalidCommand = errors.New("mmr: invalid command")

	// ErrInvalidProof reports any structural or semantic mismatch: a
	// zero mmrSize, out-of-order or out-of-range leaves, a sibling
	// position mismatch during a merge, a bagging operand that isn't a
	// peak, a peak-position mismatch, leftover leaves, a final stack
	// depth other than one, or a root mismatch.
	ErrInvalidProof = errors.New("mmr: invalid proof")

	// ErrProofEOF is reserved for a proof cursor exhausted mid-record.
	// The reference implementation folds this into ErrNodeEOF; this
	// module preserves that behavior and never returns ErrProofEOF
	// itself, but keeps the sentinel so callers pattern-matching on it
	// don't need a build-time feature check.
	ErrProofEOF = errors.New("mmr: proof stream exhausted mid-record")

	// ErrNodeEOF reports a length-prefixed node record truncated before
	// its declared length.
	ErrNodeEOF = errors.New("mmr: node record truncated")

	// ErrLeafEOF reports a leaf record truncated before its 8-byte
	// position field is complete.
	ErrLeafEOF = errors.New("mmr: leaf position truncated")

	// ErrNoMoreLeaves is the clean end-of-stream signal for the leaf
	// cursor. If opcode 1 needs a leaf that isn't there, Verify returns
	// it unchanged; at the terminal check it confirms leaf exhaustion.
	ErrNoMoreLeaves = errors.New("mmr: no more leaves")

	// ErrNoMoreCommands is the clean end-of-stream signal for the proof
	// cursor's command reader; it is the only error that ends the main
	// loop successfully.
	ErrNoMoreCommands = errors.New("mmr: no more commands")
)
