package filter

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func ids(values ...uint64) []*uint256.Int {
	out := make([]*uint256.Int, len(values))
	for i, v := range values {
		out[i] = uint256.NewInt(v)
	}
	return out
}

func TestEveryProperSubsetVerifies(t *testing.T) {
	set := ids(1, 2, 3, 5, 8, 13, 21)
	tree, err := NewTree(set)
	require.NoError(t, err)
	root := tree.Root()

	for mask := 1; mask < 1<<len(set); mask++ {
		var subset []*uint256.Int
		for i := range set {
			if mask&(1<<i) != 0 {
				subset = append(subset, set[i])
			}
		}
		mp, err := tree.MultiProof(subset)
		require.NoError(t, err)
		require.Len(t, mp.IDs, len(subset))
		require.True(t, AcceptsBatch(mp.IDs, mp.Proof, mp.Flags, root), "mask %b", mask)
		require.Equal(t, SortForProof(subset), mp.IDs)
	}
}

func TestSingleProofs(t *testing.T) {
	set := ids(10, 20, 30, 40, 50)
	tree, err := NewTree(set)
	require.NoError(t, err)

	for _, id := range set {
		proof, err := tree.Proof(id)
		require.NoError(t, err)
		require.True(t, AcceptsSingle(id, proof, tree.Root()), id.Dec())
	}

	proof, err := tree.Proof(set[0])
	require.NoError(t, err)
	require.False(t, AcceptsSingle(uint256.NewInt(11), proof, tree.Root()))

	_, err = tree.Proof(uint256.NewInt(99))
	require.ErrorIs(t, err, ErrNotInSet)
}

func TestSingleLeafTree(t *testing.T) {
	tree, err := NewTree(ids(7))
	require.NoError(t, err)
	require.Equal(t, LeafHash(uint256.NewInt(7)), tree.Root())

	mp, err := tree.MultiProof(ids(7))
	require.NoError(t, err)
	require.Empty(t, mp.Flags)
	require.True(t, AcceptsBatch(mp.IDs, mp.Proof, mp.Flags, tree.Root()))
}

func TestRejectsForeignIDs(t *testing.T) {
	tree, err := NewTree(ids(1, 2, 3, 4))
	require.NoError(t, err)

	mp, err := tree.MultiProof(ids(1, 2))
	require.NoError(t, err)

	forged := []*uint256.Int{mp.IDs[0], uint256.NewInt(77)}
	require.False(t, AcceptsBatch(forged, mp.Proof, mp.Flags, tree.Root()))

	_, err = tree.MultiProof(ids(1, 77))
	require.ErrorIs(t, err, ErrNotInSet)

	other, err := Root(ids(5, 6, 7))
	require.NoError(t, err)
	require.False(t, AcceptsBatch(mp.IDs, mp.Proof, mp.Flags, other))
}

func TestMalformedMultiproof(t *testing.T) {
	tree, err := NewTree(ids(1, 2, 3, 4, 5))
	require.NoError(t, err)
	mp, err := tree.MultiProof(ids(2, 4))
	require.NoError(t, err)

	require.False(t, AcceptsBatch(mp.IDs, mp.Proof, append(mp.Flags, true), tree.Root()))
	require.False(t, AcceptsBatch(mp.IDs, append(mp.Proof, common.Hash{1}), mp.Flags, tree.Root()))

	allTrue := make([]bool, len(mp.Flags))
	for i := range allTrue {
		allTrue[i] = true
	}
	require.False(t, AcceptsBatch(mp.IDs, mp.Proof, allTrue, tree.Root()))
}

func TestMultiProofOrderIndependent(t *testing.T) {
	set := make([]*uint256.Int, 0, 40)
	for i := uint64(0); i < 40; i++ {
		set = append(set, uint256.NewInt(i*7919))
	}
	tree, err := NewTree(set)
	require.NoError(t, err)

	subset := []*uint256.Int{set[3], set[17], set[18], set[39], set[0]}
	first, err := tree.MultiProof(subset)
	require.NoError(t, err)

	shuffled := append([]*uint256.Int(nil), subset...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	second, err := tree.MultiProof(append(shuffled, set[3]))
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.True(t, AcceptsBatch(second.IDs, second.Proof, second.Flags, tree.Root()))
}

func TestBuildSetAndEncoding(t *testing.T) {
	set := BuildSet(ids(3, 1, 3, 2, 1))
	require.Len(t, set, 3)

	root, err := Root(ids(1, 2, 3))
	require.NoError(t, err)
	shuffledRoot, err := Root(ids(3, 2, 1, 2))
	require.NoError(t, err)
	require.Equal(t, root, shuffledRoot)

	tree, err := NewTree(set)
	require.NoError(t, err)
	f, err := tree.Filter()
	require.NoError(t, err)
	require.True(t, f.Enabled())

	decoded, err := Decode(f.Encoded)
	require.NoError(t, err)
	require.Equal(t, set, decoded)

	rebuilt, err := Root(decoded)
	require.NoError(t, err)
	require.Equal(t, f.Root, rebuilt)

	_, err = NewTree(nil)
	require.ErrorIs(t, err, ErrEmptySet)
	require.False(t, Filter{}.Enabled())
}
