package state

import (
	"encoding/json"
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/stretchr/testify/require"
)

func TestAddrBytesPrefersPubKey(t *testing.T) {
	priv := ed25519.GenPrivKey()
	var a Account
	a.SetPubKey(priv.PubKey().Bytes())
	a.Addr = []byte{0xde, 0xad}

	require.Equal(t, []byte(priv.PubKey().Address()), a.AddrBytes())

	holding := Account{Addr: PoolAddress()}
	require.Equal(t, PoolAddress(), holding.AddrBytes())
}

func TestAccountVerify(t *testing.T) {
	priv := ed25519.GenPrivKey()
	var a Account
	a.SetPubKey(priv.PubKey().Bytes())

	msg := []byte("payload")
	sig, err := priv.Sign(msg)
	require.NoError(t, err)

	require.True(t, a.Verify(msg, [][]byte{sig}))
	require.False(t, a.Verify(msg, nil))
	require.False(t, a.Verify(msg, [][]byte{sig, sig}))
	require.False(t, a.Verify([]byte("other"), [][]byte{sig}))

	// Holding accounts have no key and can never sign.
	holding := Account{Addr: PoolAddress()}
	require.False(t, holding.Verify(msg, [][]byte{sig}))
}

func TestAccountClone(t *testing.T) {
	priv := ed25519.GenPrivKey()
	a := &Account{Index: 65536, Balance: 10, Nonce: 2, Attestation: 1}
	a.SetPubKey(priv.PubKey().Bytes())

	n := a.Clone()
	require.Equal(t, a, n)

	n.Balance = 99
	n.PubKey[0] ^= 0xff
	require.Equal(t, uint64(10), a.Balance)
	require.Equal(t, priv.PubKey().Bytes(), a.PubKey)
}

func TestAccountJSONRoundTrip(t *testing.T) {
	a := &Account{Index: 65537, Addr: ProjectAddress(3), Balance: 42, Nonce: 7, Attestation: 1}

	dat, err := json.Marshal(a)
	require.NoError(t, err)

	var got Account
	require.NoError(t, json.Unmarshal(dat, &got))
	require.Equal(t, a.Index, got.Index)
	require.Equal(t, a.AddrBytes(), got.AddrBytes())
	require.Equal(t, a.Balance, got.Balance)
	require.Equal(t, a.Nonce, got.Nonce)
	require.Equal(t, a.Attestation, got.Attestation)
}

func TestDerivedAddresses(t *testing.T) {
	require.Len(t, PoolAddress(), 20)
	require.Equal(t, PoolAddress(), PoolAddress())

	require.Len(t, ProjectAddress(0), 20)
	require.Equal(t, ProjectAddress(7), ProjectAddress(7))
	require.NotEqual(t, ProjectAddress(0), ProjectAddress(1))
	require.NotEqual(t, PoolAddress(), ProjectAddress(0))
}
