package wallet

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"math/big"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 09/02/2026
 * Time: 10:41
 */

// Wallet system constants
const (
	ChecksumLength = 4          // Length of checksum in bytes (used for error detection)
	version        = byte(0x00) // Network version byte (0x00 for Bitcoin mainnet)
)

// ErrInvalidAddress is returned whenever an address fails Base58 decoding,
// has the wrong length, or carries a checksum that does not match its payload.
var ErrInvalidAddress = errors.New("invalid address")

// Wallet represents a cryptocurrency wallet containing cryptographic keys
// In blockchain, a wallet doesn't store coins - it stores keys to access them
// The private key is held in PKCS#8 DER form so the wallet file stays a plain
// byte blob; the public key is the raw X||Y point (32 bytes each on P-256).
type Wallet struct {
	PrivateKey []byte // PKCS#8-encoded ECDSA P-256 private key (KEEP SECRET!)
	PublicKey  []byte // Raw public key bytes for verification (can be shared)
}

// MakeWallet creates a new wallet with a fresh key pair
// This is the wallet constructor function
func MakeWallet() (*Wallet, error) {
	pkcs8, publicKey, err := NewKeyPair()
	if err != nil {
		return nil, err
	}
	return &Wallet{pkcs8, publicKey}, nil
}

// NewKeyPair generates a new ECDSA key pair for cryptocurrency transactions
// Returns: PKCS#8 private key bytes (for signing) and raw public key bytes
// (for verification)
func NewKeyPair() ([]byte, []byte, error) {
	curve := elliptic.P256()

	// Generate private key using cryptographically secure random generator
	private, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "generate key pair")
	}

	pkcs8, err := x509.MarshalPKCS8PrivateKey(private)
	if err != nil {
		return nil, nil, errors.Wrap(err, "encode private key")
	}

	return pkcs8, publicKeyBytes(&private.PublicKey), nil
}

// publicKeyBytes flattens a P-256 public key into the fixed 64-byte X||Y form
// that verifiers split in half again.
func publicKeyBytes(pub *ecdsa.PublicKey) []byte {
	publicKey := make([]byte, 64)
	pub.X.FillBytes(publicKey[:32])
	pub.Y.FillBytes(publicKey[32:])
	return publicKey
}

// Address generates a human-readable blockchain address from the wallet's public key
// This follows Bitcoin's address generation standard:
// PublicKey → SHA256 → RIPEMD160 → Add version → Add checksum → Base58Encode
func (w Wallet) Address() string {
	pubHash := PublicKeyHash(w.PublicKey)

	versionedHash := append([]byte{version}, pubHash...)
	checksum := Checksum(versionedHash)
	fullHash := append(versionedHash, checksum...)

	return Base58Encode(fullHash)
}

// ValidateAddress checks that an address Base58-decodes to
// version + 20-byte public key hash + 4-byte checksum, and that the checksum
// matches a recomputation over the leading payload.
func ValidateAddress(address string) bool {
	payload, err := Base58Decode(address)
	if err != nil {
		return false
	}
	if len(payload) != 1+ripemd160.Size+ChecksumLength {
		return false
	}

	actualChecksum := payload[len(payload)-ChecksumLength:]
	targetChecksum := Checksum(payload[:len(payload)-ChecksumLength])

	return bytes.Equal(actualChecksum, targetChecksum)
}

// PubKeyHashFromAddress strips the version byte and trailing checksum from a
// decoded address, leaving the 20-byte public key hash outputs are locked to.
func PubKeyHashFromAddress(address string) ([]byte, error) {
	if !ValidateAddress(address) {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}
	payload, _ := Base58Decode(address)
	return payload[1 : len(payload)-ChecksumLength], nil
}

// PublicKeyHash creates the public key hash using Bitcoin's standard method:
// SHA256 followed by RIPEMD160 (often called "Hash160")
func PublicKeyHash(pubKey []byte) []byte {
	pubHash := sha256.Sum256(pubKey)

	hasher := ripemd160.New()
	hasher.Write(pubHash[:]) // ripemd160's Write never fails
	return hasher.Sum(nil)
}

// Checksum calculates a 4-byte checksum using double SHA256
// Used for error detection in addresses (typos, transmission errors)
func Checksum(payload []byte) []byte {
	firstHash := sha256.Sum256(payload)
	secondHash := sha256.Sum256(firstHash[:])

	return secondHash[:ChecksumLength]
}

// Sign produces an ECDSA P-256 signature over the SHA-256 digest of message.
// The signature is the fixed-length r||s form: both halves zero-padded to
// 32 bytes so verifiers can always split it down the middle.
func Sign(pkcs8 []byte, message []byte) ([]byte, error) {
	key, err := x509.ParsePKCS8PrivateKey(pkcs8)
	if err != nil {
		return nil, errors.Wrap(err, "decode private key")
	}
	private, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an ECDSA private key")
	}

	digest := sha256.Sum256(message)
	r, s, err := ecdsa.Sign(rand.Reader, private, digest[:])
	if err != nil {
		return nil, errors.Wrap(err, "sign digest")
	}

	signature := make([]byte, 64)
	r.FillBytes(signature[:32])
	s.FillBytes(signature[32:])
	return signature, nil
}

// VerifySignature checks a fixed-length r||s signature against the raw X||Y
// public key bytes and the SHA-256 digest of message.
func VerifySignature(pubKey, signature, message []byte) bool {
	if len(signature) != 64 || len(pubKey) == 0 || len(pubKey)%2 != 0 {
		return false
	}

	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])

	keyLen := len(pubKey)
	x := new(big.Int).SetBytes(pubKey[:keyLen/2])
	y := new(big.Int).SetBytes(pubKey[keyLen/2:])

	rawPubKey := ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}

	digest := sha256.Sum256(message)
	return ecdsa.Verify(&rawPubKey, digest[:], r, s)
}
