package blockchain

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 16/02/2026
 * Time: 14:21
 */

const (
	// dbPath is the directory holding the embedded key-value store. Both
	// logical trees (blocks and chainstate) live in the one badger instance.
	dbPath = "./data"

	// tipBlockHashKey is the sentinel entry in the blocks tree pointing at
	// the current chain tip. It is the only mutable entry among the blocks.
	tipBlockHashKey = "tip_block_hash"
)

// tipPointer is the in-memory twin of the tip sentinel. It is shared by every
// handle cloned from the same store so that concurrent readers observe a
// consistent tip while a single writer advances it.
type tipPointer struct {
	mu   sync.RWMutex
	hash string
}

// BlockChain is a cheap-to-copy handle onto the persisted chain: the shared
// tip pointer plus the database reference. All heavyweight state lives in the
// store itself.
type BlockChain struct {
	tip      *tipPointer
	Database *badger.DB
}

// DBExists checks whether a store has already been initialized under path
func DBExists(path string) bool {
	if _, err := os.Stat(filepath.Join(path, "MANIFEST")); os.IsNotExist(err) {
		return false
	}
	return true
}

// CreateBlockChain opens the store and, when no tip exists yet, mines the
// genesis block with a coinbase paying address and writes block and tip in
// one transaction. When a chain already exists the tip is simply loaded.
func CreateBlockChain(address string) (*BlockChain, error) {
	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	var tipHash string
	err = db.Update(func(txn *badger.Txn) error {
		if item, err := txn.Get([]byte(tipBlockHashKey)); err == nil {
			val, err := item.ValueCopy(nil)
			if err != nil {
				return errors.Wrap(ErrStoreUnavailable, err.Error())
			}
			tipHash = string(val)
			return nil
		}

		cbtx, err := CoinbaseTx(address)
		if err != nil {
			return err
		}
		genesis := Genesis(cbtx)
		log.Println("Genesis block created")

		blockData, err := genesis.Serialize()
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(genesis.Hash), blockData); err != nil {
			return errors.Wrap(ErrStoreUnavailable, err.Error())
		}
		if err := txn.Set([]byte(tipBlockHashKey), []byte(genesis.Hash)); err != nil {
			return errors.Wrap(ErrStoreUnavailable, err.Error())
		}
		tipHash = genesis.Hash
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BlockChain{tip: &tipPointer{hash: tipHash}, Database: db}, nil
}

// ContinueBlockChain opens an existing store and loads its tip. It fails when
// no chain has been created in this directory yet.
func ContinueBlockChain() (*BlockChain, error) {
	if !DBExists(dbPath) {
		return nil, errors.Wrap(ErrStoreUnavailable, "no existing blockchain found, create one first")
	}

	db, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	var tipHash string
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(tipBlockHashKey))
		if err != nil {
			return errors.Wrap(ErrStoreUnavailable, "no existing blockchain found, create one first")
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return errors.Wrap(ErrStoreUnavailable, err.Error())
		}
		tipHash = string(val)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BlockChain{tip: &tipPointer{hash: tipHash}, Database: db}, nil
}

// GetTipHash returns the hash of the block this node currently considers the
// canonical tip.
func (chain *BlockChain) GetTipHash() string {
	chain.tip.mu.RLock()
	defer chain.tip.mu.RUnlock()
	return chain.tip.hash
}

// GetBestHeight returns the height of the current chain tip
func (chain *BlockChain) GetBestHeight() (int, error) {
	tipBlock, err := chain.GetBlock(chain.GetTipHash())
	if err != nil {
		return 0, err
	}
	return tipBlock.Height, nil
}

// GetBlock retrieves a specific block by its hex hash
func (chain *BlockChain) GetBlock(blockHash string) (Block, error) {
	var block Block

	err := chain.Database.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(blockHash))
		if err != nil {
			return errors.Wrapf(ErrBlockNotFound, "%s", blockHash)
		}
		return item.Value(func(val []byte) error {
			decoded, err := Deserialize(val)
			if err != nil {
				return err
			}
			block = *decoded
			return nil
		})
	})
	return block, err
}

// GetBlockHashes walks the chain from the tip back to genesis and returns
// every block hash (as the UTF-8 bytes of the hex string), newest first.
// This is the inventory peers receive during synchronization.
func (chain *BlockChain) GetBlockHashes() ([][]byte, error) {
	var blocks [][]byte

	iter := chain.Iterator()
	for {
		block, err := iter.Next()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, []byte(block.Hash))
		if block.IsGenesis() {
			break
		}
	}
	return blocks, nil
}

// MineBlock validates transactions, mines a block holding them on top of the
// current tip, and commits block plus tip advancement in one transaction.
// The tip lock serializes writers: readers keep the previous tip until the
// commit lands.
func (chain *BlockChain) MineBlock(transactions []*Transaction) (*Block, error) {
	for _, tx := range transactions {
		ok, err := chain.VerifyTransaction(tx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrapf(ErrInvalidTransaction, "%x", tx.ID)
		}
	}

	chain.tip.mu.Lock()
	defer chain.tip.mu.Unlock()

	lastHash := chain.tip.hash
	lastBlock, err := chain.GetBlock(lastHash)
	if err != nil {
		return nil, err
	}

	newBlock := CreateBlock(transactions, lastHash, lastBlock.Height+1)

	err = chain.Database.Update(func(txn *badger.Txn) error {
		blockData, err := newBlock.Serialize()
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(newBlock.Hash), blockData); err != nil {
			return errors.Wrap(ErrStoreUnavailable, err.Error())
		}
		if err := txn.Set([]byte(tipBlockHashKey), []byte(newBlock.Hash)); err != nil {
			return errors.Wrap(ErrStoreUnavailable, err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	chain.tip.hash = newBlock.Hash
	return newBlock, nil
}

// AddBlock stores a block received from a peer. The block always lands in the
// blocks tree; the tip only advances when the block is new AND strictly
// higher than the current tip ("longest chain wins", no reorganization).
func (chain *BlockChain) AddBlock(block *Block) error {
	chain.tip.mu.Lock()
	defer chain.tip.mu.Unlock()

	advanceTip := false
	err := chain.Database.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get([]byte(block.Hash))
		known := getErr == nil

		blockData, err := block.Serialize()
		if err != nil {
			return err
		}
		if err := txn.Set([]byte(block.Hash), blockData); err != nil {
			return errors.Wrap(ErrStoreUnavailable, err.Error())
		}

		item, err := txn.Get([]byte(tipBlockHashKey))
		if err != nil {
			return errors.Wrap(ErrStoreUnavailable, err.Error())
		}
		lastHash, err := item.ValueCopy(nil)
		if err != nil {
			return errors.Wrap(ErrStoreUnavailable, err.Error())
		}
		item, err = txn.Get(lastHash)
		if err != nil {
			return errors.Wrap(ErrStoreUnavailable, err.Error())
		}
		var lastBlock *Block
		err = item.Value(func(val []byte) error {
			lastBlock, err = Deserialize(val)
			return err
		})
		if err != nil {
			return err
		}

		if !known && block.Height > lastBlock.Height {
			if err := txn.Set([]byte(tipBlockHashKey), []byte(block.Hash)); err != nil {
				return errors.Wrap(ErrStoreUnavailable, err.Error())
			}
			advanceTip = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	if advanceTip {
		chain.tip.hash = block.Hash
	}
	return nil
}

// FindTransaction searches the chain tip-to-genesis for a transaction by ID
func (chain *BlockChain) FindTransaction(ID []byte) (Transaction, error) {
	iter := chain.Iterator()

	for {
		block, err := iter.Next()
		if err != nil {
			return Transaction{}, err
		}
		for _, tx := range block.Transactions {
			if bytes.Equal(tx.ID, ID) {
				return *tx, nil
			}
		}
		if block.IsGenesis() {
			break
		}
	}
	return Transaction{}, errors.Wrapf(ErrUnknownPriorTx, "%x", ID)
}

// FindUTXO rebuilds the complete unspent-output view from chain history.
// Walking newest to oldest, inputs are recorded as spent before the outputs
// they consume are visited, so an output survives only if nothing above it
// spent it. Outputs keep their original vout index in the sparse map.
func (chain *BlockChain) FindUTXO() (map[string]TxOutputs, error) {
	utxo := make(map[string]TxOutputs)
	spentTXOs := make(map[string]map[int]bool)

	iter := chain.Iterator()
	for {
		block, err := iter.Next()
		if err != nil {
			return nil, err
		}

		for _, tx := range block.Transactions {
			txID := hex.EncodeToString(tx.ID)

			for outIdx, out := range tx.Outputs {
				if spentTXOs[txID][outIdx] {
					continue
				}
				outs, ok := utxo[txID]
				if !ok {
					outs = NewTxOutputs()
				}
				outs.Outputs[outIdx] = out
				utxo[txID] = outs
			}

			if !tx.IsCoinbase() {
				for _, in := range tx.Inputs {
					inTxID := hex.EncodeToString(in.ID)
					if spentTXOs[inTxID] == nil {
						spentTXOs[inTxID] = make(map[int]bool)
					}
					spentTXOs[inTxID][in.Out] = true
				}
			}
		}

		if block.IsGenesis() {
			break
		}
	}
	return utxo, nil
}

// SignTransaction resolves every prior transaction referenced by tx's inputs
// and signs the transaction with the sender's PKCS#8 private key
func (chain *BlockChain) SignTransaction(tx *Transaction, pkcs8 []byte) error {
	prevTXs, err := chain.previousTransactions(tx)
	if err != nil {
		return err
	}
	return tx.Sign(pkcs8, prevTXs)
}

// VerifyTransaction checks all of a transaction's input signatures against
// the chain. Coinbase transactions are always valid: they spend nothing.
func (chain *BlockChain) VerifyTransaction(tx *Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}

	prevTXs, err := chain.previousTransactions(tx)
	if err != nil {
		return false, err
	}
	return tx.Verify(prevTXs)
}

// previousTransactions collects the transactions whose outputs tx spends,
// keyed by hex id.
func (chain *BlockChain) previousTransactions(tx *Transaction) (map[string]Transaction, error) {
	prevTXs := make(map[string]Transaction)
	for _, in := range tx.Inputs {
		prevTX, err := chain.FindTransaction(in.ID)
		if err != nil {
			return nil, err
		}
		prevTXs[hex.EncodeToString(prevTX.ID)] = prevTX
	}
	return prevTXs, nil
}

// retry clears a stale LOCK file left behind by a crashed process and opens
// the store again.
func retry(dir string, originalOpts badger.Options) (*badger.DB, error) {
	lockPath := filepath.Join(dir, "LOCK")
	if err := os.Remove(lockPath); err != nil {
		return nil, fmt.Errorf("failed to remove lock file: %w", err)
	}
	retryOpts := originalOpts
	db, err := badger.Open(retryOpts)
	return db, err
}

func openDB(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	opts.Dir = dir
	opts.ValueDir = dir

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "LOCK") {
			if db, err = retry(dir, opts); err == nil {
				log.Println("database unlocked")
				return db, nil
			}
			log.Println("could not unlock database: ", err)
		}
		return nil, errors.Wrap(ErrStoreUnavailable, err.Error())
	}
	return db, nil
}
