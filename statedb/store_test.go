package statedb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/stateberry/types"
)

// storeFactory builds a fresh store for one subtest.
type storeFactory func(t *testing.T) StateDB

// runStateDBSuite runs the conformance suite every StateDB
// implementation must pass.
func runStateDBSuite(t *testing.T, newStore storeFactory) {
	t.Run("NodeRoundTrip", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		key := types.NodeKey("node-key-1")
		node := types.Node{types.NodeTagInternal, 0xde, 0xad, 0xbe, 0xef}

		batch := types.NewNodeBatch().AddNode(key, node)
		require.NoError(t, store.ApplyBatch(batch))

		got, err := store.GetNode(key)
		require.NoError(t, err)
		assert.Equal(t, node, got)
	})

	t.Run("GetNodeMissing", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		got, err := store.GetNode(types.NodeKey("missing"))
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("MonotoneLookup", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		kh := types.HashKey([]byte("alice"))
		require.NoError(t, store.SetPreimage(kh, []byte("alice")))

		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().PutValue(1, kh, []byte("100"))))
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().PutValue(5, kh, []byte("250"))))

		cases := []struct {
			version types.Version
			want    []byte
		}{
			{0, nil},
			{1, []byte("100")},
			{3, []byte("100")},
			{5, []byte("250")},
			{100, []byte("250")},
		}
		for _, tc := range cases {
			got, err := store.GetValue(tc.version, kh)
			require.NoError(t, err, "version %d", tc.version)
			assert.Equal(t, tc.want, got, "version %d", tc.version)
		}
	})

	t.Run("UnknownKey", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		kh := types.HashKey([]byte("alice"))
		require.NoError(t, store.SetPreimage(kh, []byte("alice")))
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().PutValue(1, kh, []byte("100"))))

		unknown := types.HashKey([]byte("never-registered"))
		for _, version := range []types.Version{0, 1, 1000} {
			got, err := store.GetValue(version, unknown)
			require.NoError(t, err)
			assert.Nil(t, got)
		}
	})

	t.Run("RegisteredButNeverWritten", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		// A neighbor key with history must not leak into lookups for a
		// registered key that was never written.
		khAlice := types.HashKey([]byte("alice"))
		require.NoError(t, store.SetPreimage(khAlice, []byte("alice")))
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().PutValue(3, khAlice, []byte("100"))))

		khZed := types.HashKey([]byte("zed"))
		require.NoError(t, store.SetPreimage(khZed, []byte("zed")))

		got, err := store.GetValue(10, khZed)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("MissingPreimage", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		nodeKey := types.NodeKey("batch-node")
		unknown := types.HashKey([]byte("no-preimage"))
		batch := types.NewNodeBatch().
			AddNode(nodeKey, types.Node{types.NodeTagInternal, 0x01}).
			PutValue(1, unknown, []byte("orphan"))

		err := store.ApplyBatch(batch)
		require.ErrorIs(t, err, types.ErrMissingPreimage)

		// The failed batch must leave no partial effects behind.
		got, err := store.GetNode(nodeKey)
		require.NoError(t, err)
		assert.Nil(t, got)

		value, err := store.GetValue(1, unknown)
		require.NoError(t, err)
		assert.Nil(t, value)

		_, ok, err := store.LatestVersion()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("TombstoneSemantics", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		kh := types.HashKey([]byte("alice"))
		require.NoError(t, store.SetPreimage(kh, []byte("alice")))

		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().PutValue(2, kh, []byte("100"))))
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().DeleteValue(6, kh)))

		got, err := store.GetValue(4, kh)
		require.NoError(t, err)
		assert.Equal(t, []byte("100"), got)

		for _, version := range []types.Version{6, 7, 100} {
			got, err := store.GetValue(version, kh)
			require.NoError(t, err)
			assert.Nil(t, got, "version %d", version)
		}
	})

	t.Run("EmptyValueIsNotTombstone", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		kh := types.HashKey([]byte("alice"))
		require.NoError(t, store.SetPreimage(kh, []byte("alice")))
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().PutValue(1, kh, []byte{})))

		got, err := store.GetValue(1, kh)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("PreimageIndex", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		kh := types.HashKey([]byte("alice"))

		got, err := store.GetPreimage(kh)
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, store.SetPreimage(kh, []byte("alice")))

		// Identical write is idempotent.
		require.NoError(t, store.SetPreimage(kh, []byte("alice")))

		// Conflicting write is rejected.
		err = store.SetPreimage(kh, []byte("mallory"))
		require.ErrorIs(t, err, types.ErrPreimageMismatch)

		got, err = store.GetPreimage(kh)
		require.NoError(t, err)
		assert.Equal(t, []byte("alice"), got)
	})

	t.Run("LatestVersion", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, ok, err := store.LatestVersion()
		require.NoError(t, err)
		assert.False(t, ok)

		kh := types.HashKey([]byte("alice"))
		require.NoError(t, store.SetPreimage(kh, []byte("alice")))
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().PutValue(7, kh, []byte("a"))))

		version, ok, err := store.LatestVersion()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, types.Version(7), version)

		// An older batch does not move the latest version backwards.
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().PutValue(4, kh, []byte("b"))))

		version, ok, err = store.LatestVersion()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, types.Version(7), version)
	})

	t.Run("RightmostLeaf", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		nodeKey, leaf, err := store.GetRightmostLeaf()
		require.NoError(t, err)
		assert.Nil(t, nodeKey)
		assert.Nil(t, leaf)

		khA := types.HashKey([]byte("alice"))
		khB := types.HashKey([]byte("bob"))
		require.NoError(t, store.SetPreimage(khA, []byte("alice")))
		require.NoError(t, store.SetPreimage(khB, []byte("bob")))

		leafA := &types.LeafNode{KeyHash: khA, ValueHash: types.HashKey([]byte("100"))}
		leafB := &types.LeafNode{KeyHash: khB, ValueHash: types.HashKey([]byte("200"))}

		batch := types.NewNodeBatch().
			AddNode(types.NodeKey("leaf-a"), leafA.Encode()).
			AddNode(types.NodeKey("leaf-b"), leafB.Encode()).
			PutValue(1, khA, []byte("100")).
			PutValue(1, khB, []byte("200"))
		require.NoError(t, store.ApplyBatch(batch))

		rightmost, rightmostKey := leafA, types.NodeKey("leaf-a")
		other, otherKey := leafB, types.NodeKey("leaf-b")
		if bytes.Compare(khB[:], khA[:]) > 0 {
			rightmost, rightmostKey = leafB, types.NodeKey("leaf-b")
			other, otherKey = leafA, types.NodeKey("leaf-a")
		}

		nodeKey, leaf, err = store.GetRightmostLeaf()
		require.NoError(t, err)
		assert.Equal(t, rightmostKey, nodeKey)
		assert.Equal(t, rightmost, leaf)

		// Deleting the rightmost key promotes its neighbor.
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().DeleteValue(2, rightmost.KeyHash)))

		nodeKey, leaf, err = store.GetRightmostLeaf()
		require.NoError(t, err)
		assert.Equal(t, otherKey, nodeKey)
		assert.Equal(t, other, leaf)
	})

	t.Run("RewrittenLeafReplacesIndexEntry", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		kh := types.HashKey([]byte("alice"))
		require.NoError(t, store.SetPreimage(kh, []byte("alice")))

		first := &types.LeafNode{KeyHash: kh, ValueHash: types.HashKey([]byte("100"))}
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().
			AddNode(types.NodeKey("leaf-v1"), first.Encode()).
			PutValue(1, kh, []byte("100"))))

		second := &types.LeafNode{KeyHash: kh, ValueHash: types.HashKey([]byte("250"))}
		require.NoError(t, store.ApplyBatch(types.NewNodeBatch().
			AddNode(types.NodeKey("leaf-v2"), second.Encode()).
			PutValue(2, kh, []byte("250"))))

		nodeKey, leaf, err := store.GetRightmostLeaf()
		require.NoError(t, err)
		assert.Equal(t, types.NodeKey("leaf-v2"), nodeKey)
		assert.Equal(t, second, leaf)
	})

	t.Run("MultipleKeysIndependentHistories", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		keys := []string{"alice", "bob", "carol", "al"}
		hashes := make([]types.KeyHash, len(keys))
		batch := types.NewNodeBatch()
		for i, key := range keys {
			hashes[i] = types.HashKey([]byte(key))
			require.NoError(t, store.SetPreimage(hashes[i], []byte(key)))
			batch.PutValue(types.Version(i+1), hashes[i], []byte(key+"-v1"))
		}
		require.NoError(t, store.ApplyBatch(batch))

		for i, key := range keys {
			got, err := store.GetValue(100, hashes[i])
			require.NoError(t, err)
			assert.Equal(t, []byte(key+"-v1"), got)

			got, err = store.GetValue(types.Version(i), hashes[i])
			require.NoError(t, err)
			assert.Nil(t, got, "key %s has no write at version %d", key, i)
		}
	})
}
