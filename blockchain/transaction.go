package blockchain

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kunalsinghdadhwal/socratix/wallet"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 13/02/2026
 * Time: 09:12
 */

/*
   Transactions are composed of inputs and outputs rather than containing
   direct data. Inputs reference previous transaction outputs (proving funds
   exist); outputs define where the value goes and any change returned. Each
   input must be cryptographically signed with the sender's private key, and
   the network verifies those signatures with the sender's public key.
*/

// subsidy is the fixed reward carried by every coinbase transaction. This is
// the only way new coins enter circulation.
const subsidy = 10

// Transaction represents a single transaction in the blockchain
// It contains a unique ID and references to inputs and outputs
type Transaction struct {
	ID      []byte     // Unique identifier (hash) of this transaction
	Inputs  []TxInput  // List of inputs being spent
	Outputs []TxOutput // List of outputs being created
}

// Serialize converts the entire transaction into a binary byte array
// for hashing, storage inside blocks, and network transmission
func (tx Transaction) Serialize() ([]byte, error) {
	var encoded bytes.Buffer
	if err := gob.NewEncoder(&encoded).Encode(tx); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	return encoded.Bytes(), nil
}

// DeserializeTransaction decodes a serialized transaction
func DeserializeTransaction(data []byte) (Transaction, error) {
	var tx Transaction
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&tx); err != nil {
		return tx, errors.Wrap(ErrSerialization, err.Error())
	}
	return tx, nil
}

// Hash computes the transaction's identifier: the SHA-256 of the transaction
// serialized with an emptied ID field. The ID IS the hash, so it cannot be
// part of its own pre-image.
func (tx *Transaction) Hash() ([]byte, error) {
	txCopy := *tx
	txCopy.ID = []byte{}

	serialized, err := txCopy.Serialize()
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(serialized)
	return hash[:], nil
}

// CoinbaseTx creates the special "mining reward" transaction paying the fixed
// subsidy to an address. Its single input spends nothing; the signature field
// carries 16 random bytes so every coinbase hashes to a unique id even when
// two blocks reward the same miner.
func CoinbaseTx(to string) (*Transaction, error) {
	unique := uuid.New()
	txin := TxInput{ID: []byte{}, Out: 0, Signature: unique[:], PubKey: []byte{}}

	txout, err := NewTXOutput(subsidy, to)
	if err != nil {
		return nil, err
	}

	tx := Transaction{Inputs: []TxInput{txin}, Outputs: []TxOutput{*txout}}
	tx.ID, err = tx.Hash()
	if err != nil {
		return nil, err
	}

	return &tx, nil
}

// IsCoinbase checks if a transaction is a coinbase (mining reward) transaction:
// exactly one input, and that input carries no public key
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && len(tx.Inputs[0].PubKey) == 0
}

// NewTransaction builds a signed transaction transferring amount from the
// wallet's address to another. Spendable outputs are gathered from the UTXO
// set; a change output back to the sender is added when the inputs overshoot.
func NewTransaction(w *wallet.Wallet, from, to string, amount int, utxo *UTXOSet) (*Transaction, error) {
	var inputs []TxInput
	var outputs []TxOutput

	pubKeyHash := wallet.PublicKeyHash(w.PublicKey)
	acc, validOutputs, err := utxo.FindSpendableOutputs(pubKeyHash, amount)
	if err != nil {
		return nil, err
	}
	if acc < amount {
		return nil, errors.Wrapf(ErrInsufficientFunds, "%s has %d, needs %d", from, acc, amount)
	}

	// Every selected output becomes an input of the new transaction
	for id, outs := range validOutputs {
		txID, err := hex.DecodeString(id)
		if err != nil {
			return nil, errors.Wrap(ErrSerialization, err.Error())
		}
		for _, out := range outs {
			inputs = append(inputs, TxInput{ID: txID, Out: out, PubKey: w.PublicKey})
		}
	}

	payment, err := NewTXOutput(amount, to)
	if err != nil {
		return nil, err
	}
	outputs = append(outputs, *payment)

	if acc > amount {
		change, err := NewTXOutput(acc-amount, from)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, *change)
	}

	tx := Transaction{Inputs: inputs, Outputs: outputs}
	tx.ID, err = tx.Hash()
	if err != nil {
		return nil, err
	}

	if err := utxo.Blockchain.SignTransaction(&tx, w.PrivateKey); err != nil {
		return nil, err
	}
	return &tx, nil
}

// TrimmedCopy creates the signing skeleton of the transaction: every input
// keeps only its (ID, Out) reference, outputs are carried unchanged. The
// signature and public key fields are cleared because the digest each input
// signs must not contain signatures, including its own.
func (tx *Transaction) TrimmedCopy() Transaction {
	var inputs []TxInput
	var outputs []TxOutput

	for _, in := range tx.Inputs {
		inputs = append(inputs, TxInput{ID: in.ID, Out: in.Out})
	}
	for _, out := range tx.Outputs {
		outputs = append(outputs, TxOutput{Value: out.Value, PubKeyHash: out.PubKeyHash})
	}

	return Transaction{ID: tx.ID, Inputs: inputs, Outputs: outputs}
}

// Sign signs every input of the transaction with the sender's PKCS#8 private
// key. Per input, the trimmed copy temporarily carries the public key hash of
// the REFERENCED prior output while the digest is computed; that binds the
// signature to the exact output being spent, so an input cannot later be
// re-pointed at a different output without breaking verification.
func (tx *Transaction) Sign(pkcs8 []byte, prevTXs map[string]Transaction) error {
	if tx.IsCoinbase() {
		return nil
	}

	for _, in := range tx.Inputs {
		if prevTXs[hex.EncodeToString(in.ID)].ID == nil {
			return errors.Wrapf(ErrUnknownPriorTx, "%x", in.ID)
		}
	}

	txCopy := tx.TrimmedCopy()

	for inID, in := range txCopy.Inputs {
		prevTX := prevTXs[hex.EncodeToString(in.ID)]
		if in.Out < 0 || in.Out >= len(prevTX.Outputs) {
			return errors.Wrapf(ErrUnknownPriorTx, "%x has no output %d", in.ID, in.Out)
		}

		txCopy.Inputs[inID].Signature = nil
		txCopy.Inputs[inID].PubKey = prevTX.Outputs[in.Out].PubKeyHash

		id, err := txCopy.Hash()
		if err != nil {
			return err
		}
		txCopy.ID = id
		txCopy.Inputs[inID].PubKey = nil

		signature, err := wallet.Sign(pkcs8, txCopy.ID)
		if err != nil {
			return err
		}
		tx.Inputs[inID].Signature = signature
	}
	return nil
}

// Verify mirrors Sign input by input: it reconstructs the digest each input
// signed and checks the signature against the input's public key. Any failing
// input invalidates the whole transaction. Coinbase transactions always pass.
func (tx *Transaction) Verify(prevTXs map[string]Transaction) (bool, error) {
	if tx.IsCoinbase() {
		return true, nil
	}

	for _, in := range tx.Inputs {
		if prevTXs[hex.EncodeToString(in.ID)].ID == nil {
			return false, errors.Wrapf(ErrUnknownPriorTx, "%x", in.ID)
		}
	}

	txCopy := tx.TrimmedCopy()

	for inID, in := range tx.Inputs {
		prevTX := prevTXs[hex.EncodeToString(in.ID)]
		if in.Out < 0 || in.Out >= len(prevTX.Outputs) {
			return false, nil
		}

		txCopy.Inputs[inID].Signature = nil
		txCopy.Inputs[inID].PubKey = prevTX.Outputs[in.Out].PubKeyHash

		id, err := txCopy.Hash()
		if err != nil {
			return false, err
		}
		txCopy.ID = id
		txCopy.Inputs[inID].PubKey = nil

		if !wallet.VerifySignature(in.PubKey, in.Signature, txCopy.ID) {
			return false, nil
		}
	}
	return true, nil
}

// String returns a human-readable representation of the transaction
// for printchain and debugging
func (tx Transaction) String() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("--- Transaction %x:", tx.ID))
	for i, in := range tx.Inputs {
		lines = append(lines, fmt.Sprintf("     Input %d:", i))
		lines = append(lines, fmt.Sprintf("       Previous TxID: %x", in.ID))
		lines = append(lines, fmt.Sprintf("       Output Index:  %d", in.Out))
		lines = append(lines, fmt.Sprintf("       Signature:     %x", in.Signature))
		lines = append(lines, fmt.Sprintf("       PubKey:        %x", in.PubKey))
	}
	for i, out := range tx.Outputs {
		lines = append(lines, fmt.Sprintf("     Output %d:", i))
		lines = append(lines, fmt.Sprintf("       Value:      %d", out.Value))
		lines = append(lines, fmt.Sprintf("       PubKeyHash: %x", out.PubKeyHash))
	}
	return strings.Join(lines, "\n")
}
