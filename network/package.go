package network

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 20/02/2026
 * Time: 13:36
 */

// Wire format: every message is one JSON-serialized Package, and a connection
// carries a back-to-back stream of them. A Package is a tagged sum type —
// the JSON object has exactly one key naming the variant:
//
//	{"Version":{"addr_from":"127.0.0.1:2001","version":1,"best_height":3}}
//	{"Inv":{"addr_from":"...","op_type":"Block","items":[[48,48,...]]}}
//
// Byte fields travel as JSON arrays of integers 0-255, NOT base64; existing
// deployments depend on that encoding, which is why the ByteList type below
// overrides Go's default []byte marshalling.

// ErrMalformedPackage marks a wire payload that decodes to no known variant
// or to out-of-range byte values.
var ErrMalformedPackage = errors.New("malformed package")

// ErrPeerUnreachable marks a failed outbound connect; the peer is evicted.
var ErrPeerUnreachable = errors.New("peer unreachable")

// OpType discriminates what an Inv advertises or a GetData requests
type OpType string

const (
	OpTypeBlock OpType = "Block"
	OpTypeTx    OpType = "Tx"
)

// ByteList is a []byte that crosses the wire as an array of integers
type ByteList []byte

// MarshalJSON renders the bytes as a JSON array of numbers
func (b ByteList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(v)))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON array of numbers back into bytes, rejecting
// anything outside 0-255
func (b *ByteList) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(ErrMalformedPackage, err.Error())
	}
	out := make([]byte, len(raw))
	for i, v := range raw {
		if v < 0 || v > 255 {
			return errors.Wrapf(ErrMalformedPackage, "byte value %d out of range", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// VersionPayload opens the handshake: it carries the sender's best height so
// each side learns who is behind
type VersionPayload struct {
	AddrFrom   string `json:"addr_from"`
	Version    int    `json:"version"`
	BestHeight int    `json:"best_height"`
}

// GetBlocksPayload asks a peer for its full block-hash inventory
type GetBlocksPayload struct {
	AddrFrom string `json:"addr_from"`
}

// InvPayload advertises available blocks or transactions by hash
type InvPayload struct {
	AddrFrom string     `json:"addr_from"`
	OpType   OpType     `json:"op_type"`
	Items    []ByteList `json:"items"`
}

// GetDataPayload pulls one block or transaction by id
type GetDataPayload struct {
	AddrFrom string   `json:"addr_from"`
	OpType   OpType   `json:"op_type"`
	ID       ByteList `json:"id"`
}

// BlockPayload delivers one serialized block
type BlockPayload struct {
	AddrFrom string   `json:"addr_from"`
	Block    ByteList `json:"block"`
}

// TxPayload delivers one serialized transaction
type TxPayload struct {
	AddrFrom    string   `json:"addr_from"`
	Transaction ByteList `json:"transaction"`
}

// Package is the wire sum type. Exactly one variant field is non-nil; the
// JSON encoding shows only that variant's key.
type Package struct {
	Block     *BlockPayload     `json:"Block,omitempty"`
	GetBlocks *GetBlocksPayload `json:"GetBlocks,omitempty"`
	GetData   *GetDataPayload   `json:"GetData,omitempty"`
	Inv       *InvPayload       `json:"Inv,omitempty"`
	Tx        *TxPayload        `json:"Tx,omitempty"`
	Version   *VersionPayload   `json:"Version,omitempty"`
}

// Validate confirms the package decoded to exactly one variant
func (p *Package) Validate() error {
	count := 0
	if p.Block != nil {
		count++
	}
	if p.GetBlocks != nil {
		count++
	}
	if p.GetData != nil {
		count++
	}
	if p.Inv != nil {
		count++
	}
	if p.Tx != nil {
		count++
	}
	if p.Version != nil {
		count++
	}
	if count != 1 {
		return errors.Wrapf(ErrMalformedPackage, "%d variants set", count)
	}
	return nil
}
