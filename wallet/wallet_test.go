package wallet

import (
	"crypto/x509"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp changes the working directory to a fresh temporary directory,
// restoring the original directory when the test completes. Equivalent to
// testing.T.Chdir(t.TempDir()), which requires Go 1.24.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 26/02/2026
 * Time: 10:14
 */

func TestNewKeyPair(t *testing.T) {
	pkcs8, pubKey, err := NewKeyPair()
	require.NoError(t, err)

	assert.Len(t, pubKey, 64, "public key must be raw X||Y")

	// the private key must parse back as PKCS#8 ECDSA
	_, err = x509.ParsePKCS8PrivateKey(pkcs8)
	require.NoError(t, err)
}

func TestAddressRoundTrip(t *testing.T) {
	for i := 0; i < 5; i++ {
		w, err := MakeWallet()
		require.NoError(t, err)

		address := w.Address()
		assert.True(t, ValidateAddress(address), "freshly derived address must validate: %s", address)

		pubKeyHash, err := PubKeyHashFromAddress(address)
		require.NoError(t, err)
		assert.Equal(t, PublicKeyHash(w.PublicKey), pubKeyHash)
	}
}

func TestValidateAddressRejectsCorruption(t *testing.T) {
	w, err := MakeWallet()
	require.NoError(t, err)
	address := w.Address()

	// flipping any single character must break the checksum
	alphabet := "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	for i := 0; i < len(address); i++ {
		for _, c := range alphabet {
			if byte(c) == address[i] {
				continue
			}
			mutated := address[:i] + string(c) + address[i+1:]
			assert.False(t, ValidateAddress(mutated), "mutated address validated: %s", mutated)
		}
	}
}

func TestValidateAddressRejectsGarbage(t *testing.T) {
	tests := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"not base58", "0OIl+/"},
		{"too short", "1A1zP"},
		{"valid base58, wrong payload", Base58Encode([]byte("hello world"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, ValidateAddress(tt.address))
		})
	}
}

func TestSignAndVerify(t *testing.T) {
	pkcs8, pubKey, err := NewKeyPair()
	require.NoError(t, err)

	message := []byte("hello, world")
	signature, err := Sign(pkcs8, message)
	require.NoError(t, err)
	require.Len(t, signature, 64, "signature must be fixed-length r||s")

	assert.True(t, VerifySignature(pubKey, signature, message))
	assert.False(t, VerifySignature(pubKey, signature, []byte("hello, world!")), "message tamper must fail")

	tampered := append([]byte(nil), signature...)
	tampered[7] ^= 0x01
	assert.False(t, VerifySignature(pubKey, tampered, message), "signature tamper must fail")

	_, otherPub, err := NewKeyPair()
	require.NoError(t, err)
	assert.False(t, VerifySignature(otherPub, signature, message), "wrong key must fail")
}

func TestVerifySignatureMalformedInputs(t *testing.T) {
	_, pubKey, err := NewKeyPair()
	require.NoError(t, err)

	assert.False(t, VerifySignature(pubKey, []byte("short"), []byte("msg")))
	assert.False(t, VerifySignature(nil, make([]byte, 64), []byte("msg")))
	assert.False(t, VerifySignature([]byte{1, 2, 3}, make([]byte, 64), []byte("msg")))
}

func TestWalletsPersistence(t *testing.T) {
	chdirTemp(t)

	ws, err := CreateWallets()
	require.NoError(t, err)
	assert.Empty(t, ws.GetAllAddresses())

	address, err := ws.AddWallet()
	require.NoError(t, err)
	require.True(t, ValidateAddress(address))

	// a fresh collection must read the same wallet back from wallets.dat
	reloaded, err := CreateWallets()
	require.NoError(t, err)
	require.Contains(t, reloaded.GetAllAddresses(), address)

	w := reloaded.GetWallet(address)
	require.NotNil(t, w)
	assert.Equal(t, address, w.Address(), "reloaded key material must derive the same address")

	assert.Nil(t, reloaded.GetWallet("unknown"))
}
