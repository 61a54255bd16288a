package filter

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrEmptySet = errors.New("filter: empty id set")
	ErrNotInSet = errors.New("filter: id not in set")
)

var idListArgs = abi.Arguments{{Type: mustType("uint256[]")}}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic(err)
	}
	return t
}

// BuildSet returns the canonical form of ids: duplicates removed, ordered by
// ascending leaf hash.
func BuildSet(ids []*uint256.Int) []*uint256.Int {
	seen := make(map[uint256.Int]struct{}, len(ids))
	out := make([]*uint256.Int, 0, len(ids))
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		out = append(out, new(uint256.Int).Set(id))
	}
	return SortForProof(out)
}

// SortForProof orders ids the way AcceptsBatch consumes them, which is
// ascending leaf hash. The input slice is not modified.
func SortForProof(ids []*uint256.Int) []*uint256.Int {
	type keyed struct {
		id   *uint256.Int
		hash common.Hash
	}
	items := make([]keyed, len(ids))
	for i, id := range ids {
		items[i] = keyed{id: id, hash: LeafHash(id)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return bytes.Compare(items[i].hash[:], items[j].hash[:]) < 0
	})
	out := make([]*uint256.Int, len(items))
	for i, item := range items {
		out[i] = item.id
	}
	return out
}

// Tree is a complete binary Merkle tree stored as an array. The root is at
// index 0 and the sorted leaves fill the tail in reverse order.
type Tree struct {
	nodes []common.Hash
	ids   []*uint256.Int
	index map[uint256.Int]int
}

// NewTree builds the tree for the canonical set of ids.
func NewTree(ids []*uint256.Int) (*Tree, error) {
	set := BuildSet(ids)
	if len(set) == 0 {
		return nil, ErrEmptySet
	}

	size := 2*len(set) - 1
	t := &Tree{
		nodes: make([]common.Hash, size),
		ids:   set,
		index: make(map[uint256.Int]int, len(set)),
	}
	for i, id := range set {
		pos := size - 1 - i
		t.nodes[pos] = LeafHash(id)
		t.index[*id] = pos
	}
	for i := size - 1 - len(set); i >= 0; i-- {
		t.nodes[i] = hashPair(t.nodes[2*i+1], t.nodes[2*i+2])
	}
	return t, nil
}

// Root builds the tree for ids and returns its root.
func Root(ids []*uint256.Int) (common.Hash, error) {
	t, err := NewTree(ids)
	if err != nil {
		return common.Hash{}, err
	}
	return t.Root(), nil
}

func (t *Tree) Root() common.Hash {
	return t.nodes[0]
}

// IDs returns the canonical set backing the tree.
func (t *Tree) IDs() []*uint256.Int {
	out := make([]*uint256.Int, len(t.ids))
	copy(out, t.ids)
	return out
}

// Filter returns the root together with the encoded id set.
func (t *Tree) Filter() (Filter, error) {
	encoded, err := Encode(t.ids)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Root: t.Root(), Encoded: encoded}, nil
}

// Proof returns the sibling path for a single id.
func (t *Tree) Proof(id *uint256.Int) ([]common.Hash, error) {
	pos, ok := t.index[*id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInSet, id.Dec())
	}
	proof := make([]common.Hash, 0)
	for pos > 0 {
		proof = append(proof, t.nodes[sibling(pos)])
		pos = parent(pos)
	}
	return proof, nil
}

// MultiProof proves a subset of the tree at once. IDs holds the subset in
// verification order, whatever order it was requested in.
type MultiProof struct {
	IDs   []*uint256.Int
	Proof []common.Hash
	Flags []bool
}

// MultiProof builds a multiproof for subset. Duplicate ids are collapsed.
func (t *Tree) MultiProof(subset []*uint256.Int) (MultiProof, error) {
	positions := make([]int, 0, len(subset))
	seen := make(map[int]struct{}, len(subset))
	for _, id := range subset {
		pos, ok := t.index[*id]
		if !ok {
			return MultiProof{}, fmt.Errorf("%w: %s", ErrNotInSet, id.Dec())
		}
		if _, dup := seen[pos]; dup {
			continue
		}
		seen[pos] = struct{}{}
		positions = append(positions, pos)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(positions)))

	ids := make([]*uint256.Int, len(positions))
	for i, pos := range positions {
		ids[i] = new(uint256.Int).Set(t.ids[len(t.nodes)-1-pos])
	}

	queue := append([]int(nil), positions...)
	proof := make([]common.Hash, 0)
	flags := make([]bool, 0)
	for len(queue) > 0 && queue[0] > 0 {
		j := queue[0]
		queue = queue[1:]
		s := sibling(j)
		if len(queue) > 0 && queue[0] == s {
			flags = append(flags, true)
			queue = queue[1:]
		} else {
			flags = append(flags, false)
			proof = append(proof, t.nodes[s])
		}
		queue = append(queue, parent(j))
	}
	if len(positions) == 0 {
		proof = append(proof, t.nodes[0])
	}

	return MultiProof{IDs: ids, Proof: proof, Flags: flags}, nil
}

func sibling(i int) int {
	if i%2 == 1 {
		return i + 1
	}
	return i - 1
}

func parent(i int) int {
	return (i - 1) / 2
}

// Encode serialises a set as abi.encode(uint256[]).
func Encode(ids []*uint256.Int) ([]byte, error) {
	values := make([]*big.Int, len(ids))
	for i, id := range ids {
		values[i] = id.ToBig()
	}
	return idListArgs.Pack(values)
}

// Decode parses the output of Encode.
func Decode(blob []byte) ([]*uint256.Int, error) {
	values, err := idListArgs.Unpack(blob)
	if err != nil {
		return nil, fmt.Errorf("decode id list: %w", err)
	}
	list, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode id list: unexpected type %T", values[0])
	}
	out := make([]*uint256.Int, len(list))
	for i, v := range list {
		id, overflow := uint256.FromBig(v)
		if overflow {
			return nil, fmt.Errorf("decode id list: id %s overflows", v)
		}
		out[i] = id
	}
	return out, nil
}
