package mmr

import (
	"hash"

	"golang.org/x/crypto/blake2b"
	"lukechampine.com/blake3"
)

// mergePersonal is the 16-byte blake2b personalization the reference
// implementation fixes for every merge, so that an MMR digest can never
// collide with a blake2b-32 digest computed for some unrelated purpose.
const mergePersonal = "ckb-default-hash"

// MergeHasher computes dst = H(lhs || rhs) for some fixed 32-byte digest
// H. Implementations must tolerate dst aliasing lhs or rhs: the
// straightforward way to do that, which every hasher below follows, is to
// finish hashing into a temporary array before returning it.
type MergeHasher interface {
	Merge(lhs, rhs []byte) [32]byte
}

// blake2bMerge implements MergeHasher with the reference hash.Hash-based
// blake2b-32 and a fixed personalization, reusing one hasher instance
// across a whole verification the way the teacher's HashPosPair64 reuses
// a caller-supplied hash.Hash.
type blake2bMerge struct {
	h hash.Hash
}

// NewBlake2bMergeHasher returns the default merge/merge-peaks hook:
// blake2b-32 personalized with "ckb-default-hash".
func NewBlake2bMergeHasher() MergeHasher {
	h, err := blake2b.New(&blake2b.Config{Size: 32, Person: []byte(mergePersonal)})
	if err != nil {
		// Size and Person are both within blake2b's static limits, so
		// this can only fail if those constants are wrong.
		panic(err)
	}
	return &blake2bMerge{h: h}
}

func (m *blake2bMerge) Merge(lhs, rhs []byte) [32]byte {
	m.h.Reset()
	m.h.Write(lhs)
	m.h.Write(rhs)
	var out [32]byte
	m.h.Sum(out[:0])
	return out
}

// blake3Merge implements MergeHasher with blake3-256, for callers whose
// MMR was committed with blake3 rather than blake2b (e.g. a log built the
// way javanhut-IvaldiVCS builds its history MMR).
type blake3Merge struct{}

// NewBlake3MergeHasher returns an alternate merge/merge-peaks hook using
// blake3-256 in place of the default blake2b-32.
func NewBlake3MergeHasher() MergeHasher {
	return blake3Merge{}
}

func (blake3Merge) Merge(lhs, rhs []byte) [32]byte {
	hasher := blake3.New(32, nil)
	hasher.Write(lhs)
	hasher.Write(rhs)
	var out [32]byte
	hasher.Sum(out[:0])
	return out
}
