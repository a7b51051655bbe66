// Package proof implements the wire format for mock zk proofs consumed
// at the rollup verification boundary: a 32-byte code commitment, a
// one-byte validity flag, and an opaque output log.
package proof

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// CommitmentSize is the size of a code commitment in bytes.
const CommitmentSize = 32

// minProofSize is the smallest well-formed encoded proof: commitment
// plus validity flag.
const minProofSize = CommitmentSize + 1

// CodeCommitment identifies the program a proof claims to attest to.
type CodeCommitment [CommitmentSize]byte

// Matches reports whether two commitments identify the same program.
func (c CodeCommitment) Matches(other CodeCommitment) bool {
	return c == other
}

// Proof is a mock zk proof.
type Proof struct {
	// CodeCommitment is the program this proof might be valid for.
	CodeCommitment CodeCommitment

	// Valid reports whether the proof verifies.
	Valid bool

	// Log is the tamper-proof output of the proven execution.
	Log []byte
}

// Decoding and verification errors.
var (
	ErrProofTooShort       = errors.New("encoded proof too short")
	ErrInvalidProof        = errors.New("proof is not valid")
	ErrWrongCodeCommitment = errors.New("proof code commitment does not match")
)

// Encode serializes the proof into w.
func (p *Proof) Encode(w io.Writer) error {
	if _, err := w.Write(p.CodeCommitment[:]); err != nil {
		return fmt.Errorf("writing code commitment: %w", err)
	}
	flag := byte(0)
	if p.Valid {
		flag = 1
	}
	if _, err := w.Write([]byte{flag}); err != nil {
		return fmt.Errorf("writing validity flag: %w", err)
	}
	if _, err := w.Write(p.Log); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	return nil
}

// EncodeToBytes serializes the proof into a byte slice.
func (p *Proof) EncodeToBytes() []byte {
	var buf bytes.Buffer
	buf.Grow(minProofSize + len(p.Log))
	// Writes to bytes.Buffer cannot fail.
	_ = p.Encode(&buf)
	return buf.Bytes()
}

// Decode parses an encoded proof.
// Returns ErrProofTooShort if input cannot hold the fixed fields.
func Decode(input []byte) (*Proof, error) {
	if len(input) < minProofSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrProofTooShort, len(input), minProofSize)
	}
	p := &Proof{
		Valid: input[CommitmentSize] == 1,
		Log:   append([]byte(nil), input[minProofSize:]...),
	}
	copy(p.CodeCommitment[:], input[:CommitmentSize])
	return p, nil
}

// Verify checks the proof against the expected code commitment and
// returns its output log. Returns ErrWrongCodeCommitment or
// ErrInvalidProof on failure.
func (p *Proof) Verify(expected CodeCommitment) ([]byte, error) {
	if !p.CodeCommitment.Matches(expected) {
		return nil, ErrWrongCodeCommitment
	}
	if !p.Valid {
		return nil, ErrInvalidProof
	}
	return p.Log, nil
}
