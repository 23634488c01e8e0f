package mmr

import (
	"bytes"
	"errors"

	"go.uber.org/zap"
)

// CommandReader yields the opcode stream that drives the verifier.
type CommandReader interface {
	ReadCommand() (byte, error)
}

// NodeReader yields proof sibling nodes, consumed immediately after
// opcode 2.
type NodeReader interface {
	ReadNode() ([]byte, error)
}

// ProofReader is the combined proof-stream collaborator: opcodes and
// proof nodes share one cursor and one ordering.
type ProofReader interface {
	CommandReader
	NodeReader
}

// LeafReader yields claimed (position, node) leaf records in increasing
// position order.
type LeafReader interface {
	ReadLeaf() (position uint64, node []byte, err error)
}

// VerifyOption customizes a single Verify call.
type VerifyOption func(*verifyConfig)

type verifyConfig struct {
	merge      MergeHasher
	mergePeaks MergeHasher
	log        *zap.Logger
}

// WithMerge overrides the default blake2b merge hook used for opcode 3
// (sibling merges).
func WithMerge(m MergeHasher) VerifyOption {
	return func(c *verifyConfig) { c.merge = m }
}

// WithMergePeaks overrides the default merge hook used for opcode 4 (peak
// bagging). It defaults to the same hook as WithMerge unless overridden
// separately, per §4.2's merge_peaks hook.
func WithMergePeaks(m MergeHasher) VerifyOption {
	return func(c *verifyConfig) { c.mergePeaks = m }
}

// WithLogger attaches a zap.Logger for Debug-level tracing of opcode
// dispatch. The default is a no-op logger.
func WithLogger(log *zap.Logger) VerifyOption {
	return func(c *verifyConfig) { c.log = log }
}

// Verify checks that proof, replayed against leaves, reconstructs root
// under mmrSize. It returns nil on success and one of the sentinel errors
// in errors.go otherwise.
//
// Verify drives a bounded stack machine from the opcodes proof yields:
//
//	1  push leaf   — read (position, node) from leaves; reject unless
//	                 position is strictly greater than the previous leaf's,
//	                 position < mmrSize, and the leaf's height is 0.
//	2  push proof  — read one sibling node from proof.
//	3  merge       — pop the top two entries, identify which one carries
//	                 MMR coordinates (the "anchor"; the other may be a
//	                 bare proof node with no position of its own), derive
//	                 whether the anchor is a left or right child from its
//	                 position, cross-check the non-anchor's position when
//	                 it has one, and push the merged parent.
//	4  merge peaks — pop the top two entries, which must both be tagged
//	                 Peak, and push their bagged merge (top-of-stack is
//	                 the left operand).
//	5  mark peak   — retag the top entry as a Peak. If it came from
//	                 opcode 2 (a bare proof node) this is unconditional;
//	                 if it came from opcode 1/3 (it carries a position) the
//	                 verifier's left-to-right peak cursor is advanced until
//	                 it reaches that position (reject if it runs out of
//	                 peaks first), then advanced once more past it.
//
// On ErrNoMoreCommands the loop ends and Verify checks that exactly one
// entry remains, that leaves has no unconsumed records, and that the
// remaining entry's digest equals root.
func Verify(root []byte, mmrSize uint64, proof ProofReader, leaves LeafReader, opts ...VerifyOption) error {
	cfg := verifyConfig{
		merge: NewBlake2bMergeHasher(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.mergePeaks == nil {
		cfg.mergePeaks = cfg.merge
	}

	if mmrSize == 0 {
		return ErrInvalidProof
	}

	var st stack
	peak := leftPeak(mmrSize)
	var lastLeafPos uint64
	hasLastLeaf := false

loop:
	for {
		cmd, err := proof.ReadCommand()
		if err != nil {
			if errors.Is(err, ErrNoMoreCommands) {
				break loop
			}
			return err
		}
		cfg.log.Debug("mmr: dispatch", zap.Uint8("opcode", cmd), zap.Int("stack_top", st.top))

		switch cmd {
		case 1:
			if err := verifyPushLeaf(&st, leaves, &lastLeafPos, &hasLastLeaf, mmrSize); err != nil {
				return err
			}

		case 2:
			if st.top >= len(st.entries) {
				return ErrInvalidStack
			}
			node, err := proof.ReadNode()
			if err != nil {
				return err
			}
			if err := st.push(stackEntry{kind: entryProof, node: node}); err != nil {
				return err
			}

		case 3:
			if err := verifyMerge(&st, cfg.merge); err != nil {
				return err
			}

		case 4:
			if err := verifyMergePeaks(&st, cfg.mergePeaks); err != nil {
				return err
			}

		case 5:
			if err := verifyMarkPeak(&st, &peak, mmrSize); err != nil {
				return err
			}

		default:
			return ErrInvalidCommand
		}
	}

	if st.top != 1 {
		return ErrInvalidProof
	}

	if _, _, err := leaves.ReadLeaf(); err == nil {
		return ErrInvalidProof
	} else if !errors.Is(err, ErrNoMoreLeaves) {
		return err
	}

	if !bytes.Equal(st.entries[0].node, root) {
		return ErrInvalidProof
	}
	return nil
}

func verifyPushLeaf(st *stack, leaves LeafReader, lastLeafPos *uint64, hasLastLeaf *bool, mmrSize uint64) error {
	if st.top >= len(st.entries) {
		return ErrInvalidStack
	}
	position, node, err := leaves.ReadLeaf()
	if err != nil {
		return err
	}
	if *hasLastLeaf && position <= *lastLeafPos {
		return ErrInvalidProof
	}
	if position >= mmrSize {
		return ErrInvalidProof
	}
	if HeightOfPosition(position) != 0 {
		return ErrInvalidProof
	}
	if err := st.push(stackEntry{kind: entryNode, node: node, position: position, height: 0}); err != nil {
		return err
	}
	*lastLeafPos = position
	*hasLastLeaf = true
	return nil
}

// verifyMerge implements opcode 3. The anchor is whichever of the two
// top entries carries MMR coordinates (the other may be a bare proof
// node); its position determines whether it is a left or right child,
// which in turn determines the sibling's expected position and the merge
// argument order.
func verifyMerge(st *stack, merge MergeHasher) error {
	if st.top < 2 {
		return ErrInvalidStack
	}
	top := st.at(0)
	under := st.at(1)

	var anchor, sibling *stackEntry
	if under.kind == entryProof {
		anchor, sibling = top, under
	} else {
		anchor, sibling = under, top
	}

	nextHeight := HeightOfPosition(anchor.position + 1)
	var sibPos, parentPos uint64
	var merged [32]byte
	if nextHeight > anchor.height {
		// anchor is a right child
		sibPos = anchor.position - SiblingOffset(anchor.height)
		parentPos = anchor.position + 1
		if sibling.kind != entryProof && sibling.position != sibPos {
			return ErrInvalidProof
		}
		merged = merge.Merge(sibling.node, anchor.node)
	} else {
		// anchor is a left child
		sibPos = anchor.position + SiblingOffset(anchor.height)
		parentPos = anchor.position + ParentOffset(anchor.height)
		if sibling.kind != entryProof && sibling.position != sibPos {
			return ErrInvalidProof
		}
		merged = merge.Merge(anchor.node, sibling.node)
	}

	height := anchor.height
	st.drop(2)
	return st.push(stackEntry{kind: entryNode, node: merged[:], position: parentPos, height: height + 1})
}

func verifyMergePeaks(st *stack, mergePeaks MergeHasher) error {
	if st.top < 2 {
		return ErrInvalidStack
	}
	top := st.at(0)
	under := st.at(1)
	if top.kind != entryPeak || under.kind != entryPeak {
		return ErrInvalidProof
	}
	merged := mergePeaks.Merge(top.node, under.node)
	st.drop(2)
	return st.push(stackEntry{kind: entryPeak, node: merged[:]})
}

func verifyMarkPeak(st *stack, peak *peakCursor, mmrSize uint64) error {
	if st.top < 1 {
		return ErrInvalidStack
	}
	top := st.at(0)
	if top.kind != entryProof {
		for peak.present && peak.position != top.position {
			peak.advance(mmrSize)
		}
		if !peak.present {
			return ErrInvalidProof
		}
		peak.advance(mmrSize)
	}
	top.kind = entryPeak
	return nil
}
