// Package filter implements the Merkle allowlist that restricts which item
// ids a pool accepts. Trees follow the OpenZeppelin StandardMerkleTree
// layout: double-hashed leaves and commutative keccak256 node hashing.
package filter

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var ErrInvalidMultiproof = errors.New("filter: invalid multiproof")

// Filter is the allowlist configured on a pool. Root is authoritative;
// Encoded only helps off-chain callers rebuild the id set.
type Filter struct {
	Root    common.Hash
	Encoded []byte
}

// Enabled reports whether the filter restricts anything.
func (f Filter) Enabled() bool {
	return f.Root != (common.Hash{})
}

// LeafHash returns keccak256(keccak256(abi.encode(id))). Hashing twice keeps
// a leaf from ever colliding with a 64-byte inner node preimage.
func LeafHash(id *uint256.Int) common.Hash {
	encoded := id.Bytes32()
	inner := crypto.Keccak256(encoded[:])
	return crypto.Keccak256Hash(inner)
}

func hashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return crypto.Keccak256Hash(a[:], b[:])
}

// AcceptsSingle verifies one id against root with a sibling path.
func AcceptsSingle(id *uint256.Int, proof []common.Hash, root common.Hash) bool {
	computed := LeafHash(id)
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// AcceptsBatch verifies ids against root with a multiproof. ids must be in
// the order the proof was generated for; see SortForProof.
func AcceptsBatch(ids []*uint256.Int, proof []common.Hash, flags []bool, root common.Hash) bool {
	leaves := make([]common.Hash, len(ids))
	for i, id := range ids {
		leaves[i] = LeafHash(id)
	}
	computed, err := processMultiProof(leaves, proof, flags)
	if err != nil {
		return false
	}
	return computed == root
}

// processMultiProof rebuilds the root from leaves. Each flag consumes the
// next pair: a flag of true combines two queued hashes (leaves first, then
// computed hashes), false combines one queued hash with the next proof
// sibling.
func processMultiProof(leaves, proof []common.Hash, flags []bool) (common.Hash, error) {
	total := len(flags)
	if len(leaves)+len(proof) != total+1 {
		return common.Hash{}, ErrInvalidMultiproof
	}

	hashes := make([]common.Hash, total)
	var leafPos, hashPos, proofPos int
	next := func(step int) (common.Hash, error) {
		if leafPos < len(leaves) {
			leafPos++
			return leaves[leafPos-1], nil
		}
		if hashPos >= step {
			return common.Hash{}, ErrInvalidMultiproof
		}
		hashPos++
		return hashes[hashPos-1], nil
	}

	for i, flag := range flags {
		a, err := next(i)
		if err != nil {
			return common.Hash{}, err
		}
		var b common.Hash
		if flag {
			if b, err = next(i); err != nil {
				return common.Hash{}, err
			}
		} else {
			if proofPos >= len(proof) {
				return common.Hash{}, ErrInvalidMultiproof
			}
			b = proof[proofPos]
			proofPos++
		}
		hashes[i] = hashPair(a, b)
	}

	switch {
	case total > 0:
		if proofPos != len(proof) {
			return common.Hash{}, ErrInvalidMultiproof
		}
		return hashes[total-1], nil
	case len(leaves) > 0:
		return leaves[0], nil
	default:
		return proof[0], nil
	}
}
