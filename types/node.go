package types

import "fmt"

// Node is a serialized tree node produced by the external tree
// algorithm. The payload is opaque to the store except for a one-byte
// envelope tag shared with the tree's wire format, which is the only
// part the store inspects (to maintain the rightmost-leaf index).
type Node []byte

// Node envelope tags. These match the external tree's serialization:
// every node payload starts with its kind.
const (
	NodeTagInternal byte = 0x01
	NodeTagLeaf     byte = 0x02
)

// LeafNode is the decoded form of a leaf node payload: the key hash
// the leaf stores and the hash of its value.
type LeafNode struct {
	KeyHash   KeyHash
	ValueHash [32]byte
}

// LeafNodeSize is the exact size of an encoded leaf node.
const LeafNodeSize = 1 + KeyHashSize + 32

// IsLeaf reports whether the node payload carries the leaf tag.
func (n Node) IsLeaf() bool {
	return len(n) > 0 && n[0] == NodeTagLeaf
}

// Leaf decodes the node as a leaf.
// Returns ErrInvalidNode if the payload is not a well-formed leaf.
func (n Node) Leaf() (*LeafNode, error) {
	if len(n) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidNode)
	}
	if n[0] != NodeTagLeaf {
		return nil, fmt.Errorf("%w: tag 0x%02x is not a leaf", ErrInvalidNode, n[0])
	}
	if len(n) != LeafNodeSize {
		return nil, fmt.Errorf("%w: leaf payload must be %d bytes, got %d", ErrInvalidNode, LeafNodeSize, len(n))
	}
	leaf := &LeafNode{}
	copy(leaf.KeyHash[:], n[1:1+KeyHashSize])
	copy(leaf.ValueHash[:], n[1+KeyHashSize:])
	return leaf, nil
}

// Clone returns a copy of the node payload.
func (n Node) Clone() Node {
	return append(Node(nil), n...)
}

// Encode serializes the leaf node with its envelope tag.
func (l *LeafNode) Encode() Node {
	buf := make([]byte, LeafNodeSize)
	buf[0] = NodeTagLeaf
	copy(buf[1:], l.KeyHash[:])
	copy(buf[1+KeyHashSize:], l.ValueHash[:])
	return buf
}
