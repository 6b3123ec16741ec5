package network

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net"
	"os"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/vrecan/death/v3"

	"github.com/kunalsinghdadhwal/socratix/blockchain"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 23/02/2026
 * Time: 10:05
 */

/*
   How the network works:
	1. Node startup: bind the listener, load the chain; every node except the
	   central one dials the central node with its best height (Version).
	2. Sync: the node that is behind sends GetBlocks, receives an Inv with
	   the peer's block hashes, then pulls each block with GetData, newest
	   first, until the in-transit set drains. After catch-up the UTXO set
	   is rebuilt from the chain.
	3. Transactions: a wallet submits a Tx to the central node, which relays
	   the inventory to everyone else; peers pull the transaction into their
	   memory pools.
	4. Mining: once a mining-enabled node's pool reaches the threshold, it
	   mines the pooled transactions plus a coinbase, refreshes the UTXO
	   set, and advertises the new block.

   Connections are one-directional: a reply is always a fresh outbound
   connect back to the address carried in the message.
*/

const (
	protocol    = "tcp"
	nodeVersion = 1

	// CentralNode is the hard-coded bootstrap peer: the sole seed for peer
	// discovery and the relay of transaction inventories.
	CentralNode = DefaultNodeAddr

	// TransactionThreshold is the pool size at which a miner starts a block
	TransactionThreshold = 2

	// tcpWriteTimeout bounds outbound connects and writes; an unreachable
	// peer is evicted rather than waited on
	tcpWriteTimeout = time.Second
)

// Server is one node's gossip endpoint plus all the state its handlers
// share: the chain handle, the memory pool, the in-transit set, and the
// peer registry. Nothing here is a package global; tests run several
// servers side by side.
type Server struct {
	config    *Config
	chain     *blockchain.BlockChain
	memPool   *MemoryPool
	inTransit *BlockInTransit
	nodes     *Nodes
}

// NewServer wires a server around an open chain. The peer registry starts
// seeded with the central node.
func NewServer(chain *blockchain.BlockChain, config *Config) *Server {
	return &Server{
		config:    config,
		chain:     chain,
		memPool:   NewMemoryPool(),
		inTransit: NewBlockInTransit(),
		nodes:     NewNodes(CentralNode),
	}
}

// Run binds the listener and serves connections until the process dies.
// A non-central node announces itself to the central node first.
func (s *Server) Run() error {
	nodeAddr := s.config.GetNodeAddr()

	ln, err := net.Listen(protocol, nodeAddr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", nodeAddr)
	}
	defer ln.Close()

	go s.closeDB()

	if nodeAddr != CentralNode {
		height, err := s.chain.GetBestHeight()
		if err != nil {
			return err
		}
		log.Printf("Send version best height: %d", height)
		s.sendVersion(CentralNode, height)
	}
	log.Printf("Listening on %s", nodeAddr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return errors.Wrap(err, "accept")
		}
		go s.handleConnection(conn)
	}
}

// handleConnection reads a stream of JSON packages off one accepted socket
// until EOF. A handler error is logged and the loop moves to the next
// message; a stream-level decode error ends the connection. Either way the
// socket is shut down in both directions on the way out.
func (s *Server) handleConnection(conn net.Conn) {
	defer func() {
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.CloseRead()
			_ = tcp.CloseWrite()
		}
		_ = conn.Close()
	}()

	peerAddr := conn.RemoteAddr().String()
	decoder := json.NewDecoder(conn)

	for {
		var pkg Package
		if err := decoder.Decode(&pkg); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("Error decoding package from %s: %v", peerAddr, err)
			}
			return
		}
		if err := pkg.Validate(); err != nil {
			log.Printf("Dropping package from %s: %v", peerAddr, err)
			continue
		}

		var err error
		switch {
		case pkg.Version != nil:
			err = s.handleVersion(peerAddr, pkg.Version)
		case pkg.GetBlocks != nil:
			err = s.handleGetBlocks(pkg.GetBlocks)
		case pkg.Inv != nil:
			err = s.handleInv(pkg.Inv)
		case pkg.GetData != nil:
			err = s.handleGetData(pkg.GetData)
		case pkg.Block != nil:
			err = s.handleBlock(pkg.Block)
		case pkg.Tx != nil:
			err = s.handleTx(pkg.Tx)
		}
		if err != nil {
			log.Printf("Error handling package from %s: %v", peerAddr, err)
		}
	}
}

// handleVersion compares chain heights: the shorter side asks for blocks,
// the longer side answers with its own version. The connecting peer is
// registered when its socket is not already known.
func (s *Server) handleVersion(peerAddr string, payload *VersionPayload) error {
	log.Printf("version = %d, best_height = %d", payload.Version, payload.BestHeight)

	localBestHeight, err := s.chain.GetBestHeight()
	if err != nil {
		return err
	}

	if localBestHeight < payload.BestHeight {
		s.sendGetBlocks(payload.AddrFrom)
	}
	if localBestHeight > payload.BestHeight {
		s.sendVersion(payload.AddrFrom, localBestHeight)
	}

	if !s.nodes.NodeIsKnown(peerAddr) {
		s.nodes.AddNode(payload.AddrFrom)
	}
	return nil
}

// handleGetBlocks answers with the full block-hash inventory, tip first
func (s *Server) handleGetBlocks(payload *GetBlocksPayload) error {
	blocks, err := s.chain.GetBlockHashes()
	if err != nil {
		return err
	}
	s.sendInv(payload.AddrFrom, OpTypeBlock, blocks)
	return nil
}

// handleInv reacts to advertised data. For blocks, the whole inventory goes
// into the in-transit set and the first hash is pulled immediately; the hash
// is removed as soon as the request is sent. For transactions, the first id
// is pulled unless already pooled.
func (s *Server) handleInv(payload *InvPayload) error {
	log.Printf("Received inventory with %d %s", len(payload.Items), payload.OpType)
	if len(payload.Items) == 0 {
		return errors.Wrap(ErrMalformedPackage, "empty inventory")
	}

	switch payload.OpType {
	case OpTypeBlock:
		items := make([][]byte, len(payload.Items))
		for i, it := range payload.Items {
			items[i] = it
		}
		s.inTransit.AddBlocks(items)

		blockHash := []byte(payload.Items[0])
		s.sendGetData(payload.AddrFrom, OpTypeBlock, blockHash)
		s.inTransit.Remove(blockHash)

	case OpTypeTx:
		txID := []byte(payload.Items[0])
		if !s.memPool.Contains(hex.EncodeToString(txID)) {
			s.sendGetData(payload.AddrFrom, OpTypeTx, txID)
		}

	default:
		return errors.Wrapf(ErrMalformedPackage, "unknown op type %q", payload.OpType)
	}
	return nil
}

// handleGetData serves a block from the store or a transaction from the
// memory pool. An unknown block id is returned as an error; an unknown
// transaction id is ignored.
func (s *Server) handleGetData(payload *GetDataPayload) error {
	switch payload.OpType {
	case OpTypeBlock:
		block, err := s.chain.GetBlock(string(payload.ID))
		if err != nil {
			return err
		}
		return s.sendBlock(payload.AddrFrom, &block)

	case OpTypeTx:
		txIDHex := hex.EncodeToString(payload.ID)
		if tx, ok := s.memPool.Get(txIDHex); ok {
			return s.sendTx(payload.AddrFrom, &tx)
		}
		return nil

	default:
		return errors.Wrapf(ErrMalformedPackage, "unknown op type %q", payload.OpType)
	}
}

// handleBlock appends a delivered block. While more blocks are in transit the
// next one is pulled; once the set drains the UTXO index is rebuilt to match
// the caught-up chain.
func (s *Server) handleBlock(payload *BlockPayload) error {
	block, err := blockchain.Deserialize(payload.Block)
	if err != nil {
		return err
	}

	if err := s.chain.AddBlock(block); err != nil {
		return err
	}
	log.Printf("Added block: %s", block.Hash)

	if s.inTransit.Len() > 0 {
		if blockHash, ok := s.inTransit.First(); ok {
			s.sendGetData(payload.AddrFrom, OpTypeBlock, blockHash)
			s.inTransit.Remove(blockHash)
		}
		return nil
	}

	utxoSet := blockchain.UTXOSet{Blockchain: s.chain}
	return utxoSet.Reindex()
}

// handleTx pools a delivered transaction. The central node re-advertises it
// to every peer except the sender and itself; a mining node whose pool has
// reached the threshold mines.
func (s *Server) handleTx(payload *TxPayload) error {
	tx, err := blockchain.DeserializeTransaction(payload.Transaction)
	if err != nil {
		return err
	}

	s.memPool.Add(hex.EncodeToString(tx.ID), tx)
	log.Printf("%s pooled tx %x, pool size %d", s.config.GetNodeAddr(), tx.ID, s.memPool.Len())

	nodeAddr := s.config.GetNodeAddr()
	if nodeAddr == CentralNode {
		for _, node := range s.nodes.GetNodes() {
			if node == nodeAddr || node == payload.AddrFrom {
				continue
			}
			s.sendInv(node, OpTypeTx, [][]byte{tx.ID})
		}
	}

	if s.memPool.Len() >= TransactionThreshold && s.config.IsMiner() {
		return s.mineTx()
	}
	return nil
}

// mineTx mines the whole memory pool plus a coinbase into a new block.
// Validation happens inside MineBlock: one invalid pooled transaction fails
// the whole attempt. The freshly mined block refreshes the UTXO set and is
// advertised to every peer.
func (s *Server) mineTx() error {
	var txs []*blockchain.Transaction

	pooled := s.memPool.GetAll()
	for i := range pooled {
		txs = append(txs, &pooled[i])
	}

	miningAddr, ok := s.config.GetMiningAddr()
	if !ok {
		return nil
	}
	cbTx, err := blockchain.CoinbaseTx(miningAddr)
	if err != nil {
		return err
	}
	txs = append(txs, cbTx)

	newBlock, err := s.chain.MineBlock(txs)
	if err != nil {
		return err
	}

	utxoSet := blockchain.UTXOSet{Blockchain: s.chain}
	if err := utxoSet.Reindex(); err != nil {
		return err
	}
	log.Printf("New block mined: %s", newBlock.Hash)

	for _, tx := range txs {
		s.memPool.Remove(hex.EncodeToString(tx.ID))
	}

	nodeAddr := s.config.GetNodeAddr()
	for _, node := range s.nodes.GetNodes() {
		if node == nodeAddr {
			continue
		}
		s.sendInv(node, OpTypeBlock, [][]byte{[]byte(newBlock.Hash)})
	}
	return nil
}

// Outbound sends. Each one is a fresh short-lived connection; a failed dial
// evicts the peer and is otherwise swallowed (the protocol is best-effort).

func (s *Server) sendVersion(addr string, height int) {
	s.sendData(addr, Package{Version: &VersionPayload{
		AddrFrom:   s.config.GetNodeAddr(),
		Version:    nodeVersion,
		BestHeight: height,
	}})
}

func (s *Server) sendGetBlocks(addr string) {
	s.sendData(addr, Package{GetBlocks: &GetBlocksPayload{AddrFrom: s.config.GetNodeAddr()}})
}

func (s *Server) sendGetData(addr string, opType OpType, id []byte) {
	s.sendData(addr, Package{GetData: &GetDataPayload{
		AddrFrom: s.config.GetNodeAddr(),
		OpType:   opType,
		ID:       id,
	}})
}

func (s *Server) sendInv(addr string, opType OpType, items [][]byte) {
	wireItems := make([]ByteList, len(items))
	for i, it := range items {
		wireItems[i] = it
	}
	s.sendData(addr, Package{Inv: &InvPayload{
		AddrFrom: s.config.GetNodeAddr(),
		OpType:   opType,
		Items:    wireItems,
	}})
}

func (s *Server) sendBlock(addr string, b *blockchain.Block) error {
	data, err := b.Serialize()
	if err != nil {
		return err
	}
	s.sendData(addr, Package{Block: &BlockPayload{
		AddrFrom: s.config.GetNodeAddr(),
		Block:    data,
	}})
	return nil
}

func (s *Server) sendTx(addr string, tx *blockchain.Transaction) error {
	data, err := tx.Serialize()
	if err != nil {
		return err
	}
	s.sendData(addr, Package{Tx: &TxPayload{
		AddrFrom:    s.config.GetNodeAddr(),
		Transaction: data,
	}})
	return nil
}

// sendData transmits one package over a fresh connection. Dial failure means
// the peer is gone: it is evicted from the registry and the send is dropped.
func (s *Server) sendData(addr string, pkg Package) {
	if err := sendPackage(addr, pkg); err != nil {
		log.Printf("%s is not available: %v", addr, err)
		s.nodes.EvictNode(addr)
	}
}

// SendTx submits a transaction to a node, typically the central one. It is
// the entry point the command-line front end uses to gossip a freshly built
// transaction without running a server of its own.
func SendTx(cfg *Config, addr string, tx *blockchain.Transaction) error {
	data, err := tx.Serialize()
	if err != nil {
		return err
	}
	return sendPackage(addr, Package{Tx: &TxPayload{
		AddrFrom:    cfg.GetNodeAddr(),
		Transaction: data,
	}})
}

// sendPackage dials with a short timeout, bounds the write, and encodes the
// package as one JSON value.
func sendPackage(addr string, pkg Package) error {
	conn, err := net.DialTimeout(protocol, addr, tcpWriteTimeout)
	if err != nil {
		return errors.Wrap(ErrPeerUnreachable, err.Error())
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(tcpWriteTimeout))
	if err := json.NewEncoder(conn).Encode(pkg); err != nil {
		return errors.Wrap(ErrPeerUnreachable, err.Error())
	}
	return nil
}

// closeDB closes the store cleanly when the process is signalled, so the
// next start does not have to recover the badger lock.
func (s *Server) closeDB() {
	d := death.NewDeath(syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	d.WaitForDeathWithFunc(func() {
		defer os.Exit(1)
		defer runtime.Goexit()
		_ = s.chain.Database.Close()
	})
}
