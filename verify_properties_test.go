package mmr

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nervosnetwork/merkle-mountain-range/internal/testutil"
)

func buildTestTree(t *testing.T, n int) *testutil.Tree {
	t.Helper()
	tree := testutil.NewTree()
	for i := 0; i < n; i++ {
		leaf := NewBlake2bMergeHasher().Merge([]byte{byte(i)}, []byte{byte(i >> 8)})
		tree.AddLeaf(leaf[:])
	}
	return tree
}

// TestCompleteness: any leaf honestly committed to a tree built by ordinary
// appends has a proof, generated the same way the tree was built, that
// verifies against that tree's root.
func TestCompleteness(t *testing.T) {
	tree := buildTestTree(t, 11)
	root := tree.Root()
	mmrSize := tree.Size()

	for pos, n := uint64(0), tree.Size(); pos < n; pos++ {
		if HeightOfPosition(pos) != 0 {
			continue // only leaves are provable directly
		}
		proof, leafRec := tree.Proof(pos)
		err := VerifyBytes(root, mmrSize, proof, leafRec)
		assert.NoErrorf(t, err, "position %d", pos)
	}
}

// TestSoundnessRootBitFlip: flipping a bit anywhere in the root causes the
// terminal root comparison to reject, even for an otherwise honest proof.
func TestSoundnessRootBitFlip(t *testing.T) {
	tree := buildTestTree(t, 5)
	root := tree.Root()
	mmrSize := tree.Size()
	proof, leafRec := tree.Proof(0)

	require.NoError(t, VerifyBytes(root, mmrSize, proof, leafRec))

	for i := range root {
		bad := make([]byte, len(root))
		copy(bad, root)
		bad[i] ^= 0x01
		assert.ErrorIsf(t, VerifyBytes(bad, mmrSize, proof, leafRec), ErrInvalidProof, "byte %d", i)
	}
}

// TestSoundnessProofNodeBitFlip: flipping a bit in any sibling node
// embedded in the proof program changes the reconstructed root and is
// rejected.
func TestSoundnessProofNodeBitFlip(t *testing.T) {
	tree := buildTestTree(t, 6)
	root := tree.Root()
	mmrSize := tree.Size()
	proof, leafRec := tree.Proof(0)

	// Walk the real opcode stream (rather than scanning for byte value 2,
	// which could alias a node's own digest bytes) to find the payload
	// offset of the first opcode-2 node record.
	cur := NewProofCursor(proof)
	for {
		cmd, err := cur.ReadCommand()
		require.NoError(t, err)
		if cmd != 2 {
			continue
		}
		length := int(binary.LittleEndian.Uint16(proof[cur.pos:]))
		require.Greater(t, length, 0)
		payloadStart := cur.pos + 2

		tampered := make([]byte, len(proof))
		copy(tampered, proof)
		tampered[payloadStart] ^= 0x01
		assert.ErrorIs(t, VerifyBytes(root, mmrSize, tampered, leafRec), ErrInvalidProof)
		return
	}
}

// TestSoundnessLeafPositionBitFlip: corrupting a claimed leaf's position
// is rejected. Here position 0 becomes 1, which passes the positional
// checks but swaps the merge order, so the terminal root check fails.
func TestSoundnessLeafPositionBitFlip(t *testing.T) {
	tree := buildTestTree(t, 6)
	root := tree.Root()
	mmrSize := tree.Size()
	proof, leafRec := tree.Proof(0)

	tampered := make([]byte, len(leafRec))
	copy(tampered, leafRec)
	tampered[0] ^= 0x01 // low byte of the little-endian position field

	assert.ErrorIs(t, VerifyBytes(root, mmrSize, proof, tampered), ErrInvalidProof)
}

// TestBoundedMemory: a proof that pushes more entries than the stack can
// hold is rejected with ErrInvalidStack, never an out-of-bounds access.
func TestBoundedMemory(t *testing.T) {
	merge := NewBlake2bMergeHasher()
	node := merge.Merge([]byte("overflow"), nil)

	var proof []byte
	var leaves []byte
	for i := 0; i <= DefaultStackSize; i++ {
		proof = append(proof, 2)
		proof = append(proof, node16(node[:])...)
	}

	err := VerifyBytes(make([]byte, 32), 1<<20, proof, leaves)
	assert.ErrorIs(t, err, ErrInvalidStack)
}

// TestIdempotentReaders: verifying two independent cursors over copies of
// the same bytes produces the same verdict.
func TestIdempotentReaders(t *testing.T) {
	tree := buildTestTree(t, 9)
	root := tree.Root()
	mmrSize := tree.Size()
	proof, leafRec := tree.Proof(2)

	proofCopy := append([]byte(nil), proof...)
	leafCopy := append([]byte(nil), leafRec...)

	err1 := VerifyBytes(root, mmrSize, proof, leafRec)
	err2 := VerifyBytes(root, mmrSize, proofCopy, leafCopy)
	assert.Equal(t, err1, err2)
	assert.NoError(t, err1)
}

// TestLeafExhaustion: extra leaf records left unconsumed after the opcode
// stream ends are rejected, even when the opcodes alone would reconstruct
// the root.
func TestLeafExhaustion(t *testing.T) {
	tree := buildTestTree(t, 5)
	root := tree.Root()
	mmrSize := tree.Size()
	proof, leafRec := tree.Proof(0)

	extra := append(append([]byte(nil), leafRec...), leafRecord(1, root)...)
	assert.ErrorIs(t, VerifyBytes(root, mmrSize, proof, extra), ErrInvalidProof)
}

// TestOpcodeExhaustion: if the opcode stream ends with more than one
// surviving stack entry, verification fails even though every individual
// opcode succeeded.
func TestOpcodeExhaustion(t *testing.T) {
	tree := buildTestTree(t, 5)
	root := tree.Root()
	mmrSize := tree.Size()
	proof, leafRec := tree.Proof(0)

	// Drop the final bagging opcode(s) so more than one entry remains.
	truncated := proof[:len(proof)-1]
	assert.ErrorIs(t, VerifyBytes(root, mmrSize, truncated, leafRec), ErrInvalidProof)
}
