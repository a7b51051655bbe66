package types

import "errors"

// Chain type contracts. These are pure interface declarations for the
// block, transaction and address shapes the surrounding rollup stack
// plugs in; the store itself never constructs them.

// Hasher is implemented by types with a canonical hash.
type Hasher interface {
	// Hash returns the canonical hash of the value.
	Hash() []byte
}

// BlockHeader describes a block header.
type BlockHeader interface {
	Hasher

	// PrevHash returns the hash of the previous block's header.
	PrevHash() []byte
}

// Transaction describes an opaque chain transaction.
type Transaction interface {
	Hasher
}

// Block describes a block as a header plus its transactions.
type Block interface {
	// Header returns the block header.
	Header() BlockHeader

	// Transactions returns the block's transactions in order.
	Transactions() []Transaction
}

// ErrInvalidAddress is returned when address bytes cannot be decoded.
var ErrInvalidAddress = errors.New("invalid address")

// Address describes an account address that round-trips through bytes.
type Address interface {
	// Bytes returns the canonical byte encoding of the address.
	Bytes() []byte

	// FromBytes decodes addr into the receiver's type, returning
	// ErrInvalidAddress if the bytes are malformed.
	FromBytes(addr []byte) (Address, error)
}
