package testutil

import "testing"

func TestTreeSizeAndPeaksAfterElevenLeaves(t *testing.T) {
	tree := NewTree()
	for i := 0; i < 11; i++ {
		tree.AddLeaf([]byte{byte(i)})
	}
	// 11 leaves pack into peaks at positions 14, 17, 18 (heights 3, 1, 0),
	// the same accumulator shape the teacher's own peak enumeration uses.
	if got := tree.Size(); got != 19 {
		t.Fatalf("Size() = %d, want 19", got)
	}
	want := []uint64{14, 17, 18}
	got := tree.Peaks()
	if len(got) != len(want) {
		t.Fatalf("Peaks() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Peaks() = %v, want %v", got, want)
		}
	}
}

func TestTreeSinglePeak(t *testing.T) {
	tree := NewTree()
	for i := 0; i < 4; i++ {
		tree.AddLeaf([]byte{byte(i)})
	}
	want := []uint64{6}
	got := tree.Peaks()
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("Peaks() = %v, want %v", got, want)
	}
	if tree.Size() != 7 {
		t.Fatalf("Size() = %d, want 7", tree.Size())
	}
}

func TestTreeRootNonNilAndPeaksAreIsPeak(t *testing.T) {
	tree := NewTree()
	for i := 0; i < 7; i++ {
		tree.AddLeaf([]byte{byte(i)})
	}
	root := tree.Root()
	if root == nil {
		t.Fatal("Root() of a non-empty tree must not be nil")
	}
	for _, p := range tree.Peaks() {
		if !tree.isPeak(p) {
			t.Fatalf("position %d reported by Peaks() is not a peak per isPeak", p)
		}
	}
}
