package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHeader struct {
	prev []byte
	body []byte
}

func (h *testHeader) Hash() []byte     { return HashKey(h.body).Bytes() }
func (h *testHeader) PrevHash() []byte { return h.prev }

type testTx struct {
	payload []byte
}

func (t *testTx) Hash() []byte { return HashKey(t.payload).Bytes() }

type testBlock struct {
	header *testHeader
	txs    []Transaction
}

func (b *testBlock) Header() BlockHeader         { return b.header }
func (b *testBlock) Transactions() []Transaction { return b.txs }

type testAddress [20]byte

func (a testAddress) Bytes() []byte { return a[:] }

func (a testAddress) FromBytes(addr []byte) (Address, error) {
	if len(addr) != len(a) {
		return nil, ErrInvalidAddress
	}
	var out testAddress
	copy(out[:], addr)
	return out, nil
}

func TestBlockContracts(t *testing.T) {
	genesis := &testHeader{body: []byte("genesis")}
	header := &testHeader{prev: genesis.Hash(), body: []byte("block-1")}

	var block Block = &testBlock{
		header: header,
		txs:    []Transaction{&testTx{payload: []byte("tx-1")}},
	}

	assert.Equal(t, genesis.Hash(), block.Header().PrevHash())
	require.Len(t, block.Transactions(), 1)
	assert.Equal(t, HashKey([]byte("tx-1")).Bytes(), block.Transactions()[0].Hash())
}

func TestAddressRoundTrip(t *testing.T) {
	var addr testAddress
	for i := range addr {
		addr[i] = byte(i)
	}

	decoded, err := testAddress{}.FromBytes(addr.Bytes())
	require.NoError(t, err)
	assert.Equal(t, addr, decoded)

	_, err = testAddress{}.FromBytes([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
