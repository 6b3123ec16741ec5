package network

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunalsinghdadhwal/socratix/blockchain"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 02/03/2026
 * Time: 11:27
 */

func TestMemoryPool(t *testing.T) {
	pool := NewMemoryPool()
	assert.Zero(t, pool.Len())

	tx := blockchain.Transaction{ID: []byte{1, 2, 3}}
	pool.Add("010203", tx)

	assert.Equal(t, 1, pool.Len())
	assert.True(t, pool.Contains("010203"))

	got, ok := pool.Get("010203")
	require.True(t, ok)
	assert.Equal(t, tx.ID, got.ID)

	_, ok = pool.Get("ffffff")
	assert.False(t, ok)

	// adding the same id twice is idempotent
	pool.Add("010203", tx)
	assert.Equal(t, 1, pool.Len())

	all := pool.GetAll()
	require.Len(t, all, 1)

	pool.Remove("010203")
	assert.Zero(t, pool.Len())
	assert.False(t, pool.Contains("010203"))

	pool.Remove("010203") // removing a missing id is fine
}

func TestMemoryPoolConcurrency(t *testing.T) {
	pool := NewMemoryPool()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("%06x", i)
			pool.Add(id, blockchain.Transaction{ID: []byte(id)})
			pool.Contains(id)
			pool.GetAll()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, pool.Len())
}

func TestBlockInTransit(t *testing.T) {
	bt := NewBlockInTransit()
	assert.Zero(t, bt.Len())

	_, ok := bt.First()
	assert.False(t, ok)

	bt.AddBlocks([][]byte{[]byte("h1"), []byte("h2"), []byte("h3")})
	assert.Equal(t, 3, bt.Len())

	first, ok := bt.First()
	require.True(t, ok)
	assert.Equal(t, []byte("h1"), first, "pull order follows the advertised inventory")

	bt.Remove([]byte("h1"))
	assert.Equal(t, 2, bt.Len())

	first, ok = bt.First()
	require.True(t, ok)
	assert.Equal(t, []byte("h2"), first)

	bt.Remove([]byte("h3")) // removal is by value, not position
	assert.Equal(t, 1, bt.Len())

	bt.Remove([]byte("missing"))
	assert.Equal(t, 1, bt.Len())
}

func TestNodes(t *testing.T) {
	nodes := NewNodes(CentralNode)
	assert.True(t, nodes.NodeIsKnown(CentralNode), "registry starts seeded with the central node")

	nodes.AddNode("127.0.0.1:2001")
	assert.True(t, nodes.NodeIsKnown("127.0.0.1:2001"))
	assert.False(t, nodes.NodeIsKnown("127.0.0.1:2002"))

	assert.ElementsMatch(t, []string{CentralNode, "127.0.0.1:2001"}, nodes.GetNodes())

	nodes.EvictNode("127.0.0.1:2001")
	assert.False(t, nodes.NodeIsKnown("127.0.0.1:2001"))

	nodes.EvictNode("127.0.0.1:2001") // double eviction is fine
	assert.ElementsMatch(t, []string{CentralNode}, nodes.GetNodes())
}
