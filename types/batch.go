package types

// NodeEntry is a single node write within a batch.
type NodeEntry struct {
	Key  NodeKey
	Node Node
}

// ValueEntry is a single keyed value write within a batch.
// A nil Value is a tombstone: the key is deleted as of Version.
type ValueEntry struct {
	Version Version
	KeyHash KeyHash
	Value   []byte
}

// IsTombstone reports whether the entry marks a deletion.
func (e ValueEntry) IsTombstone() bool {
	return e.Value == nil
}

// NodeBatch is a unit of work submitted by the external tree algorithm:
// zero or more node writes plus zero or more keyed value writes, to be
// applied as a single atomic unit.
type NodeBatch struct {
	Nodes  []NodeEntry
	Values []ValueEntry
}

// NewNodeBatch creates an empty batch.
func NewNodeBatch() *NodeBatch {
	return &NodeBatch{}
}

// AddNode appends a node write to the batch.
func (b *NodeBatch) AddNode(key NodeKey, node Node) *NodeBatch {
	b.Nodes = append(b.Nodes, NodeEntry{Key: key, Node: node})
	return b
}

// PutValue appends a value write to the batch.
// A nil value is recorded as a tombstone; use DeleteValue to make the
// intent explicit.
func (b *NodeBatch) PutValue(version Version, keyHash KeyHash, value []byte) *NodeBatch {
	b.Values = append(b.Values, ValueEntry{Version: version, KeyHash: keyHash, Value: value})
	return b
}

// DeleteValue appends a tombstone for the key hash at the given version.
func (b *NodeBatch) DeleteValue(version Version, keyHash KeyHash) *NodeBatch {
	b.Values = append(b.Values, ValueEntry{Version: version, KeyHash: keyHash, Value: nil})
	return b
}

// Empty reports whether the batch contains no writes.
func (b *NodeBatch) Empty() bool {
	return len(b.Nodes) == 0 && len(b.Values) == 0
}

// MaxVersion returns the greatest version referenced by the batch's
// value entries and whether any value entries exist.
func (b *NodeBatch) MaxVersion() (Version, bool) {
	if len(b.Values) == 0 {
		return 0, false
	}
	max := b.Values[0].Version
	for _, e := range b.Values[1:] {
		if e.Version > max {
			max = e.Version
		}
	}
	return max, true
}
