package blockchain

import (
	"bytes"
	"encoding/gob"

	"github.com/pkg/errors"

	"github.com/kunalsinghdadhwal/socratix/wallet"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 12/02/2026
 * Time: 10:30
 */

// TxInput references a previous output that is being spent
// It's like presenting a check stub to cash it
type TxInput struct {
	ID        []byte // Transaction ID containing the output being spent
	Out       int    // Index of the output in the previous transaction
	Signature []byte // Proof that the spender owns the output
	PubKey    []byte // Spender's raw public key (empty on coinbase inputs)
}

// UsesKey checks whether the input was created by the owner of pubKeyHash,
// by hashing the input's public key and comparing.
func (in *TxInput) UsesKey(pubKeyHash []byte) bool {
	lockingHash := wallet.PublicKeyHash(in.PubKey)
	return bytes.Equal(lockingHash, pubKeyHash)
}

// TxOutput represents an indivisible unit of value that can be spent
// Think of it like a "check" or "voucher" that can be redeemed
type TxOutput struct {
	Value      int    // Number of coins being transferred
	PubKeyHash []byte // Locking condition: hash of the key that can spend this output
}

// NewTXOutput creates an output of the given value locked to an address.
func NewTXOutput(value int, address string) (*TxOutput, error) {
	out := &TxOutput{Value: value}
	if err := out.Lock(address); err != nil {
		return nil, err
	}
	return out, nil
}

// Lock ties the output to the public key hash embedded in the address.
func (out *TxOutput) Lock(address string) error {
	pubKeyHash, err := wallet.PubKeyHashFromAddress(address)
	if err != nil {
		return err
	}
	out.PubKeyHash = pubKeyHash
	return nil
}

// IsLockedWithKey checks if this output can be spent by the owner of pubKeyHash
func (out *TxOutput) IsLockedWithKey(pubKeyHash []byte) bool {
	return bytes.Equal(out.PubKeyHash, pubKeyHash)
}

// TxOutputs is the UTXO-tree value for one transaction: the outputs that are
// still unspent, keyed by their ORIGINAL vout index. The sparse map keeps a
// recorded vout meaningful after partial spends, where a plain slice would
// let the surviving entries drift down to new positions.
type TxOutputs struct {
	Outputs map[int]TxOutput
}

// NewTxOutputs returns an empty, initialized output map.
func NewTxOutputs() TxOutputs {
	return TxOutputs{Outputs: make(map[int]TxOutput)}
}

// Serialize encodes the output map for storage in the chainstate tree.
func (outs TxOutputs) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(outs); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	return buf.Bytes(), nil
}

// DeserializeOutputs decodes a chainstate tree value back into an output map.
func DeserializeOutputs(data []byte) (TxOutputs, error) {
	var outs TxOutputs
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&outs); err != nil {
		return outs, errors.Wrap(ErrSerialization, err.Error())
	}
	if outs.Outputs == nil {
		outs.Outputs = make(map[int]TxOutput)
	}
	return outs, nil
}
