package cryptoenv

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/require"
)

func testEnvelope(t *testing.T) (*Envelope, *Envelope) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return &Envelope{Pub: &priv.PublicKey}, &Envelope{Priv: priv}
}

func TestEnvelopeSealOpenRoundTrip(t *testing.T) {
	sealer, opener := testEnvelope(t)

	blob, keys, err := sealer.Seal()
	require.NoError(t, err)
	require.Len(t, blob, XORBlobSize)
	require.Len(t, keys.RSACiphertext, RSACiphertextSize)
	require.Len(t, keys.XORBlobCipher, XORBlobSize)

	opened, err := opener.Open(keys)
	require.NoError(t, err)
	require.Equal(t, blob, opened)
}

func TestEnvelopeOpenWithoutPrivateKey(t *testing.T) {
	sealer, _ := testEnvelope(t)

	_, keys, err := sealer.Seal()
	require.NoError(t, err)

	e := &Envelope{}
	_, err = e.Open(keys)
	require.Error(t, err)
}

func TestApplyXORRoundTrip(t *testing.T) {
	blob := make([]byte, 64)
	for i := range blob {
		blob[i] = byte(i * 7)
	}

	original := []byte("the quick brown fox jumps over the lazy dog, twice over for good luck")
	data := append([]byte(nil), original...)

	ApplyXOR(data, blob, 0)
	require.NotEqual(t, original, data)

	ApplyXOR(data, blob, 0)
	require.Equal(t, original, data)
}

func TestApplyXORAcrossOffsetAndWrap(t *testing.T) {
	blob := make([]byte, 16)
	for i := range blob {
		blob[i] = byte(i + 1)
	}

	original := []byte("0123456789abcdefghij")

	for _, offset := range []int64{0, 3, 7, 15, 16, 31} {
		data := append([]byte(nil), original...)
		ApplyXOR(data, blob, offset)
		ApplyXOR(data, blob, offset)
		require.Equal(t, original, data, "offset %d", offset)
	}
}

func TestParseAuthorizedKeyInvalid(t *testing.T) {
	_, err := ParseAuthorizedKey([]byte("not a valid key"))
	require.Error(t, err)
}
