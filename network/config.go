package network

import (
	"os"
	"sync"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 19/02/2026
 * Time: 09:47
 */

// DefaultNodeAddr is the address a node listens on when NODE_ADDRESS is not
// set. It doubles as the hard-coded central seed every other node dials on
// startup.
const DefaultNodeAddr = "127.0.0.1:42069"

// nodeAddressKey is the environment variable naming this node's listen socket
const nodeAddressKey = "NODE_ADDRESS"

// Config carries the process-wide node settings: the listen address, fixed at
// construction from the environment, and the optional mining address set by
// the front end before the server runs. Presence of a mining address is what
// makes a node mining-eligible.
type Config struct {
	mu          sync.RWMutex
	nodeAddr    string
	miningAddr  string
	miningIsSet bool
}

// NewConfig reads NODE_ADDRESS from the environment, falling back to the
// default central-node address.
func NewConfig() *Config {
	nodeAddr := DefaultNodeAddr
	if addr := os.Getenv(nodeAddressKey); addr != "" {
		nodeAddr = addr
	}
	return &Config{nodeAddr: nodeAddr}
}

// GetNodeAddr returns the socket address this node listens on
func (c *Config) GetNodeAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nodeAddr
}

// SetMiningAddr enables mining on this node, paying rewards to addr
func (c *Config) SetMiningAddr(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.miningAddr = addr
	c.miningIsSet = true
}

// GetMiningAddr returns the configured reward address, if any
func (c *Config) GetMiningAddr() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.miningAddr, c.miningIsSet
}

// IsMiner reports whether this node mines when the mempool threshold is hit
func (c *Config) IsMiner() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.miningIsSet
}
