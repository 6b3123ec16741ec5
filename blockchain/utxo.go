package blockchain

import (
	"bytes"
	"encoding/hex"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 17/02/2026
 * Time: 10:19
 */

// The chainstate tree is the secondary index over the chain: one entry per
// transaction that still has unspent outputs, so balance and spend queries
// never walk block history. Entries live in the same store as the blocks,
// separated by key prefix.
var (
	utxoPrefix   = []byte("chainstate-")
	prefixLength = len(utxoPrefix)
)

// UTXOSet gives indexed access to the unspent outputs of a chain
type UTXOSet struct {
	Blockchain *BlockChain
}

// FindSpendableOutputs gathers outputs locked to pubkeyHash until their sum
// covers amount, returning the total gathered and the chosen outputs as
// txid-hex -> original vout indices. Entries are visited in the store's key
// order and a transaction's outputs in ascending vout order, so selection is
// deterministic within a run.
func (u UTXOSet) FindSpendableOutputs(pubkeyHash []byte, amount int) (int, map[string][]int, error) {
	unspentOuts := make(map[string][]int)
	accumulated := 0

	db := u.Blockchain.Database
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(utxoPrefix); it.ValidForPrefix(utxoPrefix); it.Next() {
			item := it.Item()
			k := bytes.TrimPrefix(item.KeyCopy(nil), utxoPrefix)
			txID := hex.EncodeToString(k)

			var outs TxOutputs
			err := item.Value(func(val []byte) error {
				var err error
				outs, err = DeserializeOutputs(val)
				return err
			})
			if err != nil {
				return err
			}

			for _, outIdx := range sortedIndices(outs) {
				out := outs.Outputs[outIdx]
				if out.IsLockedWithKey(pubkeyHash) && accumulated < amount {
					accumulated += out.Value
					unspentOuts[txID] = append(unspentOuts[txID], outIdx)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return accumulated, unspentOuts, nil
}

// FindUTXO returns every unspent output locked to pubkeyHash
// Used for calculating wallet balance
func (u UTXOSet) FindUTXO(pubkeyHash []byte) ([]TxOutput, error) {
	var utxos []TxOutput

	db := u.Blockchain.Database
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(utxoPrefix); it.ValidForPrefix(utxoPrefix); it.Next() {
			var outs TxOutputs
			err := it.Item().Value(func(val []byte) error {
				var err error
				outs, err = DeserializeOutputs(val)
				return err
			})
			if err != nil {
				return err
			}

			for _, outIdx := range sortedIndices(outs) {
				out := outs.Outputs[outIdx]
				if out.IsLockedWithKey(pubkeyHash) {
					utxos = append(utxos, out)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return utxos, nil
}

// CountTransactions returns the number of transactions with unspent outputs
func (u UTXOSet) CountTransactions() (int, error) {
	counter := 0

	err := u.Blockchain.Database.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(utxoPrefix); it.ValidForPrefix(utxoPrefix); it.Next() {
			counter++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return counter, nil
}

// Reindex rebuilds the entire chainstate tree from scratch: clear everything
// under the prefix, replay chain history, write the surviving outputs.
func (u UTXOSet) Reindex() error {
	db := u.Blockchain.Database

	if err := u.DeleteByPrefix(utxoPrefix); err != nil {
		return err
	}

	utxo, err := u.Blockchain.FindUTXO()
	if err != nil {
		return err
	}

	return db.Update(func(txn *badger.Txn) error {
		for txId, outs := range utxo {
			key, err := hex.DecodeString(txId)
			if err != nil {
				return errors.Wrap(ErrSerialization, err.Error())
			}
			value, err := outs.Serialize()
			if err != nil {
				return err
			}
			if err := txn.Set(append(utxoPrefix, key...), value); err != nil {
				return errors.Wrap(ErrStoreUnavailable, err.Error())
			}
		}
		return nil
	})
}

// Update applies one appended block to the chainstate incrementally: every
// input of a non-coinbase transaction deletes the entry at its original vout
// index (removing the whole key when nothing is left), then the block's own
// outputs are inserted under their transaction id.
func (u *UTXOSet) Update(block *Block) error {
	db := u.Blockchain.Database

	return db.Update(func(txn *badger.Txn) error {
		for _, tx := range block.Transactions {
			if !tx.IsCoinbase() {
				for _, in := range tx.Inputs {
					inID := append(utxoPrefix, in.ID...)

					item, err := txn.Get(inID)
					if err != nil {
						return errors.Wrapf(ErrStoreUnavailable, "missing chainstate entry %x", in.ID)
					}
					var outs TxOutputs
					err = item.Value(func(val []byte) error {
						var err error
						outs, err = DeserializeOutputs(val)
						return err
					})
					if err != nil {
						return err
					}

					delete(outs.Outputs, in.Out)

					if len(outs.Outputs) == 0 {
						if err := txn.Delete(inID); err != nil {
							return errors.Wrap(ErrStoreUnavailable, err.Error())
						}
					} else {
						value, err := outs.Serialize()
						if err != nil {
							return err
						}
						if err := txn.Set(inID, value); err != nil {
							return errors.Wrap(ErrStoreUnavailable, err.Error())
						}
					}
				}
			}

			newOutputs := NewTxOutputs()
			for outIdx, out := range tx.Outputs {
				newOutputs.Outputs[outIdx] = out
			}
			value, err := newOutputs.Serialize()
			if err != nil {
				return err
			}
			if err := txn.Set(append(utxoPrefix, tx.ID...), value); err != nil {
				return errors.Wrap(ErrStoreUnavailable, err.Error())
			}
		}
		return nil
	})
}

// DeleteByPrefix removes all keys with a given prefix in batches, keeping
// each delete transaction bounded.
func (u *UTXOSet) DeleteByPrefix(prefix []byte) error {
	deleteKeys := func(keysForDelete [][]byte) error {
		return u.Blockchain.Database.Update(func(txn *badger.Txn) error {
			for _, key := range keysForDelete {
				if err := txn.Delete(key); err != nil {
					return errors.Wrap(ErrStoreUnavailable, err.Error())
				}
			}
			return nil
		})
	}

	collectSize := 100000

	return u.Blockchain.Database.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		keysForDelete := make([][]byte, 0, collectSize)
		keysCollected := 0

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			keysForDelete = append(keysForDelete, key)
			keysCollected++

			if keysCollected == collectSize {
				if err := deleteKeys(keysForDelete); err != nil {
					return err
				}
				keysForDelete = make([][]byte, 0, collectSize)
				keysCollected = 0
			}
		}

		if keysCollected > 0 {
			if err := deleteKeys(keysForDelete); err != nil {
				return err
			}
		}
		return nil
	})
}

// sortedIndices returns the vout keys of an output map in ascending order so
// scans see outputs in their original on-chain order.
func sortedIndices(outs TxOutputs) []int {
	indices := make([]int, 0, len(outs.Outputs))
	for idx := range outs.Outputs {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}
