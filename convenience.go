package mmr

// VerifyBytes is a convenience wrapper around Verify for callers holding
// the proof and leaf streams as plain byte slices, in the wire layout
// §6 of the spec defines. It is equivalent to wrapping both slices in a
// ProofCursor and LeafCursor and calling Verify directly.
func VerifyBytes(root []byte, mmrSize uint64, proofBytes, leafBytes []byte, opts ...VerifyOption) error {
	return Verify(root, mmrSize, NewProofCursor(proofBytes), NewLeafCursor(leafBytes), opts...)
}
