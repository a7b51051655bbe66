package statedb

import (
	"encoding/binary"
	"fmt"

	"github.com/blockberries/stateberry/types"
)

// Key prefixes for the on-disk tables. All backends share this layout,
// so a database written by one backend is readable by another sitting
// on the same engine.
var (
	prefixNode     = []byte("n:") // NodeKey -> Node payload
	prefixValue    = []byte("v:") // (preimage, version) -> value or tombstone
	prefixPreimage = []byte("p:") // KeyHash -> preimage bytes
	prefixLeaf     = []byte("l:") // KeyHash -> rightmost-leaf index entry
	keyMetaVersion = []byte("m:version")
)

// Value key layout: prefix, 4-byte big-endian preimage length, the
// preimage bytes, then an 8-byte big-endian version. The length field
// keeps each preimage's version history contiguous in key order:
// without it, a preimage extending another could interleave with the
// shorter one's history when version bytes sort below the extension.
// Within one preimage, lexicographic key order equals numeric version
// order, so a seek-for-prev on (preimage, V) lands on the latest write
// at or before V.
const (
	valueKeyOverhead = 2 + 4 + 8
	versionSize      = 8
)

// Stored value encoding: one marker byte, then the payload.
// A tombstone is the marker alone.
const (
	valueMarkerData      byte = 0x00
	valueMarkerTombstone byte = 0xff
)

func encodeVersion(v types.Version) []byte {
	buf := make([]byte, versionSize)
	binary.BigEndian.PutUint64(buf, uint64(v))
	return buf
}

func decodeVersion(b []byte) types.Version {
	return types.Version(binary.BigEndian.Uint64(b))
}

// makeNodeKey builds the nodes-table key for a node key.
func makeNodeKey(key types.NodeKey) []byte {
	out := make([]byte, 0, len(prefixNode)+len(key))
	out = append(out, prefixNode...)
	return append(out, key...)
}

// makePreimageKey builds the preimage-table key for a key hash.
func makePreimageKey(kh types.KeyHash) []byte {
	out := make([]byte, 0, len(prefixPreimage)+types.KeyHashSize)
	out = append(out, prefixPreimage...)
	return append(out, kh[:]...)
}

// makeLeafKey builds the leaf-index key for a key hash.
func makeLeafKey(kh types.KeyHash) []byte {
	out := make([]byte, 0, len(prefixLeaf)+types.KeyHashSize)
	out = append(out, prefixLeaf...)
	return append(out, kh[:]...)
}

// makeValuePrefix builds the common prefix of every values-table key
// for the given preimage.
func makeValuePrefix(preimage []byte) []byte {
	out := make([]byte, 0, len(prefixValue)+4+len(preimage))
	out = append(out, prefixValue...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(preimage)))
	return append(out, preimage...)
}

// makeValueKey builds the values-table key for (preimage, version).
func makeValueKey(preimage []byte, version types.Version) []byte {
	out := makeValuePrefix(preimage)
	return binary.BigEndian.AppendUint64(out, uint64(version))
}

// parseValueKey is the exact inverse of makeValueKey.
func parseValueKey(key []byte) (preimage []byte, version types.Version, err error) {
	if len(key) < valueKeyOverhead {
		return nil, 0, fmt.Errorf("value key too short: %d bytes", len(key))
	}
	body := key[len(prefixValue):]
	n := binary.BigEndian.Uint32(body[:4])
	if len(body) != 4+int(n)+versionSize {
		return nil, 0, fmt.Errorf("value key length mismatch: preimage length %d in %d-byte key", n, len(key))
	}
	preimage = body[4 : 4+n]
	version = decodeVersion(body[4+n:])
	return preimage, version, nil
}

// encodeValue wraps a value (or tombstone, for nil) for storage.
func encodeValue(value []byte) []byte {
	if value == nil {
		return []byte{valueMarkerTombstone}
	}
	out := make([]byte, 0, 1+len(value))
	out = append(out, valueMarkerData)
	return append(out, value...)
}

// decodeValue unwraps a stored value. Returns tombstone=true for
// deletion markers; the returned slice is a copy.
func decodeValue(raw []byte) (value []byte, tombstone bool, err error) {
	if len(raw) == 0 {
		return nil, false, fmt.Errorf("empty stored value")
	}
	switch raw[0] {
	case valueMarkerTombstone:
		return nil, true, nil
	case valueMarkerData:
		// Copy, and keep empty values distinguishable from not-found.
		out := make([]byte, len(raw)-1)
		copy(out, raw[1:])
		return out, false, nil
	default:
		return nil, false, fmt.Errorf("unknown value marker 0x%02x", raw[0])
	}
}

// makeLeafEntry encodes a leaf-index entry: the leaf's node key
// followed by its fixed-size leaf payload.
func makeLeafEntry(nodeKey types.NodeKey, leaf types.Node) []byte {
	out := make([]byte, 0, len(nodeKey)+len(leaf))
	out = append(out, nodeKey...)
	return append(out, leaf...)
}

// parseLeafEntry is the inverse of makeLeafEntry.
func parseLeafEntry(raw []byte) (types.NodeKey, *types.LeafNode, error) {
	if len(raw) < types.LeafNodeSize {
		return nil, nil, fmt.Errorf("leaf index entry too short: %d bytes", len(raw))
	}
	split := len(raw) - types.LeafNodeSize
	leaf, err := types.Node(raw[split:]).Leaf()
	if err != nil {
		return nil, nil, err
	}
	nodeKey := append(types.NodeKey(nil), raw[:split]...)
	return nodeKey, leaf, nil
}

// leafScanUpperBound is the seek target for finding the greatest
// leaf-index key: the leaf prefix followed by a maximal key hash.
func leafScanUpperBound() []byte {
	out := make([]byte, 0, len(prefixLeaf)+types.KeyHashSize)
	out = append(out, prefixLeaf...)
	for i := 0; i < types.KeyHashSize; i++ {
		out = append(out, 0xff)
	}
	return out
}
