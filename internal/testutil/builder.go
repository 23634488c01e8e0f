// Package testutil builds small in-memory Merkle Mountain Ranges and the
// opcode/leaf byte streams the verifier consumes, purely as fixtures for
// this module's own tests. It is not a proof-generation API: it exists
// because testing a verifier means having something honest to verify
// against, the same role mmrtesting/testdb_test.go play for the teacher
// package's own test suite.
package testutil

import (
	"encoding/binary"

	"github.com/nervosnetwork/merkle-mountain-range"
)

// Tree is a fully materialized, append-only MMR held in memory: every
// node from every leaf up to every peak, addressable by position.
type Tree struct {
	nodes [][]byte // node digest by position
	peaks []uint64 // current peak positions, left to right
	merge mmr.MergeHasher
}

// NewTree creates an empty tree using the default blake2b merge hook.
func NewTree() *Tree {
	return &Tree{merge: mmr.NewBlake2bMergeHasher()}
}

// Size returns the current mmr_size (count of nodes, including non-leaf
// nodes), i.e. what the next appended node's position would be.
func (t *Tree) Size() uint64 {
	return uint64(len(t.nodes))
}

// Node returns the digest stored at position p.
func (t *Tree) Node(p uint64) []byte {
	return t.nodes[p]
}

// Peaks returns the current peak positions, left to right (highest peak
// first).
func (t *Tree) Peaks() []uint64 {
	out := make([]uint64, len(t.peaks))
	copy(out, t.peaks)
	return out
}

// AddLeaf appends a leaf digest, backfilling any interior nodes the new
// leaf completes: while the two right-most peaks have the same height,
// they are merged into a new parent peak.
func (t *Tree) AddLeaf(leaf []byte) (position uint64) {
	position = t.append(leaf)
	t.peaks = append(t.peaks, position)

	for len(t.peaks) >= 2 {
		left := t.peaks[len(t.peaks)-2]
		right := t.peaks[len(t.peaks)-1]
		if mmr.HeightOfPosition(left) != mmr.HeightOfPosition(right) {
			break
		}
		merged := t.merge.Merge(t.nodes[left], t.nodes[right])
		parent := t.append(merged[:])
		t.peaks = t.peaks[:len(t.peaks)-2]
		t.peaks = append(t.peaks, parent)
	}
	return position
}

func (t *Tree) append(node []byte) uint64 {
	pos := uint64(len(t.nodes))
	cp := make([]byte, len(node))
	copy(cp, node)
	t.nodes = append(t.nodes, cp)
	return pos
}

// Root computes the bagged root over the current peaks, folded right to
// left with each peak as the left operand against the accumulator of the
// peaks to its right. This matches opcode 4's "top of stack is the left
// operand" convention when each peak to the left is pushed and bagged on
// top of that accumulator, as Proof does.
func (t *Tree) Root() []byte {
	if len(t.peaks) == 0 {
		return nil
	}
	acc := t.nodes[t.peaks[len(t.peaks)-1]]
	for i := len(t.peaks) - 2; i >= 0; i-- {
		merged := t.merge.Merge(t.nodes[t.peaks[i]], acc)
		out := make([]byte, 32)
		copy(out, merged[:])
		acc = out
	}
	return acc
}

// siblingOf returns the position of pos's sibling, i.e. the other child
// of pos's parent, assuming pos is not itself a peak.
func siblingOf(pos uint64) uint64 {
	height := mmr.HeightOfPosition(pos)
	nextHeight := mmr.HeightOfPosition(pos + 1)
	if nextHeight > height {
		return pos - mmr.SiblingOffset(height)
	}
	return pos + mmr.SiblingOffset(height)
}

func parentOf(pos uint64) uint64 {
	height := mmr.HeightOfPosition(pos)
	nextHeight := mmr.HeightOfPosition(pos + 1)
	if nextHeight > height {
		return pos + 1
	}
	return pos + mmr.ParentOffset(height)
}

// isPeak reports whether pos is one of the tree's current peaks.
func (t *Tree) isPeak(pos uint64) bool {
	for _, p := range t.peaks {
		if p == pos {
			return true
		}
	}
	return false
}

// Proof builds the opcode/node proof program and leaf record that proves
// inclusion of the leaf at leafPos, in the format Verify expects: an
// opcode-1 leaf push, an opcode-2/3 pair per sibling up to the owning
// peak, an opcode-5 peak mark, and as many opcode-4 bags as there are
// other peaks (right to left, since bagging order is left-operand-on-top).
func (t *Tree) Proof(leafPos uint64) (proofProgram, leafRecord []byte) {
	var siblingNodes [][]byte
	pos := leafPos
	for !t.isPeak(pos) {
		sib := siblingOf(pos)
		siblingNodes = append(siblingNodes, t.nodes[sib])
		pos = parentOf(pos)
	}

	k := -1
	for i, p := range t.peaks {
		if p == pos {
			k = i
			break
		}
	}

	var out []byte
	pushNode := func(node []byte) {
		out = append(out, 2)
		out = appendNode(out, node)
	}

	// Fold peaks strictly to the right of k into a single accumulator,
	// right to left, mirroring Root()'s fold order exactly.
	haveRightAcc := false
	for i := len(t.peaks) - 1; i > k; i-- {
		pushNode(t.nodes[t.peaks[i]])
		out = append(out, 5)
		if haveRightAcc {
			out = append(out, 4)
		}
		haveRightAcc = true
	}

	// Push the claimed leaf and climb to its owning peak.
	out = append(out, 1)
	for _, sib := range siblingNodes {
		pushNode(sib)
		out = append(out, 3)
	}
	out = append(out, 5)

	if haveRightAcc {
		out = append(out, 4) // merge(owned, rightAcc)
	}

	// Fold the remaining peaks to the left of k.
	for i := k - 1; i >= 0; i-- {
		pushNode(t.nodes[t.peaks[i]])
		out = append(out, 5, 4)
	}

	leafBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(leafBuf, leafPos)
	leafBuf = appendNode(leafBuf, t.nodes[leafPos])

	return out, leafBuf
}

func appendNode(buf []byte, node []byte) []byte {
	lenPrefix := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenPrefix, uint16(len(node)))
	buf = append(buf, lenPrefix...)
	buf = append(buf, node...)
	return buf
}
