package blockchain

import "github.com/dgraph-io/badger/v4"

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 16/02/2026
 * Time: 15:02
 */

// Iterator walks the blockchain from the tip back to the genesis block
type Iterator struct {
	CurrentHash string
	Database    *badger.DB
}

// Iterator creates an iterator anchored at the current tip. The tip is read
// once; blocks appended afterwards are not observed by this iteration.
func (chain *BlockChain) Iterator() *Iterator {
	return &Iterator{chain.GetTipHash(), chain.Database}
}

// Next returns the block the iterator currently points at and steps backward
// along the previous-hash link. After the genesis block is returned, further
// calls fail; callers stop on Block.IsGenesis.
func (iter *Iterator) Next() (*Block, error) {
	var block *Block
	err := iter.Database.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(iter.CurrentHash))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			block, err = Deserialize(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	iter.CurrentHash = block.PrevBlockHash // going backward until genesis
	return block, nil
}
