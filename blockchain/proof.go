package blockchain

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"math/big"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 12/02/2026
 * Time: 11:40
 */

// TargetBits sets the mining difficulty: a block hash must be numerically
// below 1 << (256 - TargetBits). Eight bits keeps mining near-instant, which
// suits a test network; the search itself is independent of the value.
const TargetBits = 8

const maxNonce = math.MaxInt64

type ProofOfWork struct {
	Block  *Block
	Target *big.Int // Valid hashes are strictly below this number
}

// NewProof derives the target for a block from TargetBits
func NewProof(b *Block) *ProofOfWork {
	target := big.NewInt(1)
	target.Lsh(target, uint(256-TargetBits))

	return &ProofOfWork{b, target}
}

// InitData assembles the header pre-image for one nonce trial. Field order is
// fixed: previous hash as text, combined transaction hash, timestamp (8 bytes
// big-endian), target bits (4 bytes big-endian), nonce (8 bytes big-endian).
func (pow *ProofOfWork) InitData(nonce int64) []byte {
	return bytes.Join(
		[][]byte{
			[]byte(pow.Block.PrevBlockHash),
			pow.Block.HashTransactions(),
			toBytes(pow.Block.Timestamp),
			toBytes32(TargetBits),
			toBytes(nonce),
		},
		[]byte{},
	)
}

// Run searches nonces from zero until the hash of the pre-image drops below
// the target, returning the winning nonce and the hex-encoded hash.
func (pow *ProofOfWork) Run() (int64, string) {
	var intHash big.Int
	var hash [32]byte

	var nonce int64
	for nonce < maxNonce {
		data := pow.InitData(nonce)
		hash = sha256.Sum256(data)
		intHash.SetBytes(hash[:])

		if intHash.Cmp(pow.Target) == -1 {
			break
		}
		nonce++
	}

	return nonce, hex.EncodeToString(hash[:])
}

// Validate re-derives the hash with the block's stored nonce and checks the
// target relation. One hash computation, no search.
func (pow *ProofOfWork) Validate() bool {
	var intHash big.Int

	data := pow.InitData(pow.Block.Nonce)
	hash := sha256.Sum256(data)
	intHash.SetBytes(hash[:])

	return intHash.Cmp(pow.Target) == -1
}

// toBytes renders an int64 as its 8-byte big-endian representation.
func toBytes(num int64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(num))
	return buf[:]
}

// toBytes32 renders an int32 as its 4-byte big-endian representation. The
// target-bits field is 32 bits wide in the header pre-image.
func toBytes32(num int32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(num))
	return buf[:]
}
