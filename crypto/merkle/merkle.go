// Package merkle checks index-addressed binary merkle paths, the proof shape
// used by rollup outboxes and L2 log trees.
package merkle

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/snowfork/root-relayer/crypto/keccak"
)

// MaxDepth bounds proof length; outbox contracts reject paths of 256 or more.
const MaxDepth = 255

var ErrIndexOutOfRange = errors.New("leaf index out of range for proof length")

type Hasher interface {
	// Hash calculates the hash of a given input
	Hash([]byte) []byte
}

// CalculateRoot folds leaf up the tree. Bit i of index selects whether the
// running node is the right child (bit set) or the left child at level i.
func CalculateRoot(leaf common.Hash, index uint64, proof []common.Hash, h Hasher) (common.Hash, error) {
	if len(proof) > MaxDepth {
		return common.Hash{}, fmt.Errorf("proof too long: %d", len(proof))
	}
	if len(proof) < 64 && index >= uint64(1)<<len(proof) {
		return common.Hash{}, ErrIndexOutOfRange
	}

	node := leaf
	for i, sibling := range proof {
		var buf []byte
		if i < 64 && (index>>uint(i))&1 == 1 {
			buf = append(sibling.Bytes(), node.Bytes()...)
		} else {
			buf = append(node.Bytes(), sibling.Bytes()...)
		}
		node = common.BytesToHash(h.Hash(buf))
	}

	return node, nil
}

// Verify reports whether proof connects leaf at index to root using keccak256.
func Verify(leaf, root common.Hash, index uint64, proof []common.Hash) bool {
	computed, err := CalculateRoot(leaf, index, proof, keccak.New())
	if err != nil {
		return false
	}
	return computed == root
}
