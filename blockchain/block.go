package blockchain

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"time"

	"github.com/pkg/errors"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 12/02/2026
 * Time: 11:08
 */

// genesisPrevHash is the previous-hash marker carried by the genesis block.
const genesisPrevHash = "none"

type Block struct {
	Timestamp     int64  // Creation time in milliseconds since the epoch
	PrevBlockHash string // Hex hash of the previous block ("none" on genesis)
	Hash          string // Hex hash of this block's mined header
	Transactions  []*Transaction
	Nonce         int64 // Proof-of-work nonce that satisfied the target
	Height        int   // Position in the chain (genesis = 0)
}

// CreateBlock mines a new block holding txs on top of prevHash at the given
// height. The proof-of-work search fills in Hash and Nonce.
func CreateBlock(txs []*Transaction, prevHash string, height int) *Block {
	block := &Block{
		Timestamp:     time.Now().UnixMilli(),
		PrevBlockHash: prevHash,
		Transactions:  txs,
		Height:        height,
	}

	pow := NewProof(block)
	nonce, hash := pow.Run()
	block.Hash = hash
	block.Nonce = nonce

	return block
}

// Genesis creates the very first block of the chain with only the coinbase
// transaction in it.
func Genesis(coinbase *Transaction) *Block {
	return CreateBlock([]*Transaction{coinbase}, genesisPrevHash, 0)
}

// IsGenesis reports whether this block sits at the bottom of the chain.
func (b *Block) IsGenesis() bool {
	return b.PrevBlockHash == genesisPrevHash
}

// HashTransactions returns the combined hash of the block's transactions:
// every transaction id concatenated in order, then hashed once. It is the
// transactions' representation inside the mined header pre-image.
func (b *Block) HashTransactions() []byte {
	var txHashes []byte
	for _, tx := range b.Transactions {
		txHashes = append(txHashes, tx.ID...)
	}
	hash := sha256.Sum256(txHashes)
	return hash[:]
}

// Serialize converts the block into bytes for storage in the blocks tree
func (b *Block) Serialize() ([]byte, error) {
	var res bytes.Buffer
	if err := gob.NewEncoder(&res).Encode(b); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	return res.Bytes(), nil
}

// Deserialize decodes bytes retrieved from the blocks tree back into a Block
func Deserialize(data []byte) (*Block, error) {
	var block Block
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&block); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	return &block, nil
}
