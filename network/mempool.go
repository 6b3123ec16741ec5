package network

import (
	"bytes"
	"sync"

	"github.com/kunalsinghdadhwal/socratix/blockchain"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 19/02/2026
 * Time: 11:23
 */

// The three shared structures below make up a node's synchronization state:
// transactions waiting to be mined, block hashes being pulled from a peer,
// and the peers known to this node. Each is guarded by its own RWMutex and
// owned by the Server rather than living in package globals, so a process
// can hold several independent nodes (tests do).

// MemoryPool holds unconfirmed transactions keyed by hex transaction id,
// waiting for a miner to pick them up
type MemoryPool struct {
	mu   sync.RWMutex
	pool map[string]blockchain.Transaction
}

// NewMemoryPool returns an empty pool
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{pool: make(map[string]blockchain.Transaction)}
}

// Add inserts a transaction; re-adding an already pooled id is a no-op
// overwrite of identical content
func (mp *MemoryPool) Add(txIDHex string, tx blockchain.Transaction) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.pool[txIDHex] = tx
}

// Get returns the pooled transaction for an id, if present
func (mp *MemoryPool) Get(txIDHex string) (blockchain.Transaction, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	tx, ok := mp.pool[txIDHex]
	return tx, ok
}

// Contains reports whether an id is pooled
func (mp *MemoryPool) Contains(txIDHex string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	_, ok := mp.pool[txIDHex]
	return ok
}

// Remove drops an id from the pool
func (mp *MemoryPool) Remove(txIDHex string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	delete(mp.pool, txIDHex)
}

// Len returns the number of pooled transactions
func (mp *MemoryPool) Len() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return len(mp.pool)
}

// GetAll returns a snapshot of every pooled transaction
func (mp *MemoryPool) GetAll() []blockchain.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	txs := make([]blockchain.Transaction, 0, len(mp.pool))
	for _, tx := range mp.pool {
		txs = append(txs, tx)
	}
	return txs
}

// BlockInTransit tracks the block hashes this node has asked interest in but
// not yet received, in the order the inventory advertised them
type BlockInTransit struct {
	mu     sync.RWMutex
	blocks [][]byte
}

// NewBlockInTransit returns an empty in-transit set
func NewBlockInTransit() *BlockInTransit {
	return &BlockInTransit{}
}

// AddBlocks appends the advertised hashes
func (bt *BlockInTransit) AddBlocks(hashes [][]byte) {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	for _, h := range hashes {
		bt.blocks = append(bt.blocks, append([]byte(nil), h...))
	}
}

// First returns the next hash to pull, if any
func (bt *BlockInTransit) First() ([]byte, bool) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	if len(bt.blocks) == 0 {
		return nil, false
	}
	return bt.blocks[0], true
}

// Remove drops a hash from the set wherever it sits
func (bt *BlockInTransit) Remove(hash []byte) {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	remaining := bt.blocks[:0]
	for _, b := range bt.blocks {
		if !bytes.Equal(b, hash) {
			remaining = append(remaining, b)
		}
	}
	bt.blocks = remaining
}

// Len returns the number of hashes still in transit
func (bt *BlockInTransit) Len() int {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return len(bt.blocks)
}

// Nodes is the set of peer addresses known to this node. It starts seeded
// with the central node; unreachable peers are evicted on send failure.
type Nodes struct {
	mu    sync.RWMutex
	known map[string]struct{}
}

// NewNodes returns a registry seeded with the given peers
func NewNodes(seed ...string) *Nodes {
	n := &Nodes{known: make(map[string]struct{})}
	for _, addr := range seed {
		n.known[addr] = struct{}{}
	}
	return n
}

// AddNode registers a peer address
func (n *Nodes) AddNode(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.known[addr] = struct{}{}
}

// NodeIsKnown reports whether a peer address is registered
func (n *Nodes) NodeIsKnown(addr string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.known[addr]
	return ok
}

// EvictNode forgets a peer address
func (n *Nodes) EvictNode(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.known, addr)
}

// GetNodes returns a snapshot of the registered peer addresses
func (n *Nodes) GetNodes() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	nodes := make([]string, 0, len(n.known))
	for addr := range n.known {
		nodes = append(nodes, addr)
	}
	return nodes
}
