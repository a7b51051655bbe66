package proof

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitmentOf(program string) CodeCommitment {
	return CodeCommitment(sha256.Sum256([]byte(program)))
}

func TestProofRoundTrip(t *testing.T) {
	p := &Proof{
		CodeCommitment: commitmentOf("rollup-stf"),
		Valid:          true,
		Log:            []byte("state root: abc123"),
	}

	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))
	assert.Equal(t, p.EncodeToBytes(), buf.Bytes())

	decoded, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestProofRoundTripEmptyLog(t *testing.T) {
	p := &Proof{CodeCommitment: commitmentOf("rollup-stf"), Valid: false}

	decoded, err := Decode(p.EncodeToBytes())
	require.NoError(t, err)
	assert.Equal(t, p.CodeCommitment, decoded.CodeCommitment)
	assert.False(t, decoded.Valid)
	assert.Empty(t, decoded.Log)
}

func TestDecodeTooShort(t *testing.T) {
	for _, size := range []int{0, 1, CommitmentSize} {
		_, err := Decode(make([]byte, size))
		assert.ErrorIs(t, err, ErrProofTooShort, "size %d", size)
	}
}

func TestVerify(t *testing.T) {
	commitment := commitmentOf("rollup-stf")
	p := &Proof{CodeCommitment: commitment, Valid: true, Log: []byte("out")}

	log, err := p.Verify(commitment)
	require.NoError(t, err)
	assert.Equal(t, []byte("out"), log)

	_, err = p.Verify(commitmentOf("other-program"))
	assert.ErrorIs(t, err, ErrWrongCodeCommitment)

	p.Valid = false
	_, err = p.Verify(commitment)
	assert.ErrorIs(t, err, ErrInvalidProof)
}

func TestValidityFlagStrict(t *testing.T) {
	// Any flag byte other than 1 decodes as invalid.
	raw := (&Proof{CodeCommitment: commitmentOf("p"), Valid: true}).EncodeToBytes()
	raw[CommitmentSize] = 2

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.False(t, decoded.Valid)
}
