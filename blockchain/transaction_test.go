package blockchain

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunalsinghdadhwal/socratix/wallet"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 26/02/2026
 * Time: 13:44
 */

func testWallet(t *testing.T) *wallet.Wallet {
	t.Helper()
	w, err := wallet.MakeWallet()
	require.NoError(t, err)
	return w
}

// signedSpend builds a transaction spending the single output of prev,
// paying amount to `to` with change back to the owner, signed by owner.
func signedSpend(t *testing.T, prev *Transaction, owner *wallet.Wallet, ownerAddr, to string, amount int) (*Transaction, map[string]Transaction) {
	t.Helper()

	input := TxInput{ID: prev.ID, Out: 0, PubKey: owner.PublicKey}
	payment, err := NewTXOutput(amount, to)
	require.NoError(t, err)

	outputs := []TxOutput{*payment}
	if change := prev.Outputs[0].Value - amount; change > 0 {
		changeOut, err := NewTXOutput(change, ownerAddr)
		require.NoError(t, err)
		outputs = append(outputs, *changeOut)
	}

	tx := &Transaction{Inputs: []TxInput{input}, Outputs: outputs}
	tx.ID, err = tx.Hash()
	require.NoError(t, err)

	prevTXs := map[string]Transaction{hex.EncodeToString(prev.ID): *prev}
	require.NoError(t, tx.Sign(owner.PrivateKey, prevTXs))
	return tx, prevTXs
}

func TestCoinbaseTx(t *testing.T) {
	w := testWallet(t)
	address := w.Address()

	tx, err := CoinbaseTx(address)
	require.NoError(t, err)

	assert.True(t, tx.IsCoinbase())
	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, subsidy, tx.Outputs[0].Value)
	assert.True(t, tx.Outputs[0].IsLockedWithKey(wallet.PublicKeyHash(w.PublicKey)))

	require.Len(t, tx.Inputs, 1)
	assert.Empty(t, tx.Inputs[0].PubKey)
	assert.Len(t, tx.Inputs[0].Signature, 16, "coinbase carries a 16-byte uniqueness placeholder")

	// two coinbases for the same address must still hash differently
	other, err := CoinbaseTx(address)
	require.NoError(t, err)
	assert.NotEqual(t, tx.ID, other.ID)
}

func TestCoinbaseAlwaysVerifies(t *testing.T) {
	tx, err := CoinbaseTx(testWallet(t).Address())
	require.NoError(t, err)

	ok, err := tx.Verify(nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTransactionSerializeRoundTrip(t *testing.T) {
	w1, w2 := testWallet(t), testWallet(t)
	prev, err := CoinbaseTx(w1.Address())
	require.NoError(t, err)

	tx, _ := signedSpend(t, prev, w1, w1.Address(), w2.Address(), 4)

	data, err := tx.Serialize()
	require.NoError(t, err)

	decoded, err := DeserializeTransaction(data)
	require.NoError(t, err)
	assert.Equal(t, *tx, decoded)
}

func TestDeserializeTransactionGarbage(t *testing.T) {
	_, err := DeserializeTransaction([]byte("not a transaction"))
	assert.ErrorIs(t, err, ErrSerialization)
}

func TestSignAndVerify(t *testing.T) {
	w1, w2 := testWallet(t), testWallet(t)
	prev, err := CoinbaseTx(w1.Address())
	require.NoError(t, err)

	tx, prevTXs := signedSpend(t, prev, w1, w1.Address(), w2.Address(), 4)

	ok, err := tx.Verify(prevTXs)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignatureBinding(t *testing.T) {
	w1, w2 := testWallet(t), testWallet(t)
	prev, err := CoinbaseTx(w1.Address())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(tx *Transaction)
	}{
		{"output value", func(tx *Transaction) { tx.Outputs[0].Value++ }},
		{"output lock", func(tx *Transaction) {
			tx.Outputs[0].PubKeyHash = wallet.PublicKeyHash(w1.PublicKey)
		}},
		{"input signature", func(tx *Transaction) { tx.Inputs[0].Signature[3] ^= 0x01 }},
		{"input pub key", func(tx *Transaction) { tx.Inputs[0].PubKey = w2.PublicKey }},
		{"swap outputs", func(tx *Transaction) {
			tx.Outputs[0], tx.Outputs[1] = tx.Outputs[1], tx.Outputs[0]
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, prevTXs := signedSpend(t, prev, w1, w1.Address(), w2.Address(), 4)
			tt.mutate(tx)

			ok, err := tx.Verify(prevTXs)
			require.NoError(t, err)
			assert.False(t, ok, "mutated transaction must not verify")
		})
	}
}

func TestVerifyRejectsReparentedInput(t *testing.T) {
	// signing binds each input to the exact prior output it spends; pointing
	// the input at a different (also resolvable) transaction must fail
	w1, w2 := testWallet(t), testWallet(t)
	prev, err := CoinbaseTx(w1.Address())
	require.NoError(t, err)
	other, err := CoinbaseTx(w1.Address())
	require.NoError(t, err)

	tx, prevTXs := signedSpend(t, prev, w1, w1.Address(), w2.Address(), 4)
	prevTXs[hex.EncodeToString(other.ID)] = *other
	tx.Inputs[0].ID = other.ID

	ok, err := tx.Verify(prevTXs)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignUnknownPriorTx(t *testing.T) {
	w1, w2 := testWallet(t), testWallet(t)
	prev, err := CoinbaseTx(w1.Address())
	require.NoError(t, err)

	input := TxInput{ID: prev.ID, Out: 0, PubKey: w1.PublicKey}
	payment, err := NewTXOutput(4, w2.Address())
	require.NoError(t, err)
	tx := &Transaction{Inputs: []TxInput{input}, Outputs: []TxOutput{*payment}}
	tx.ID, err = tx.Hash()
	require.NoError(t, err)

	// no prior transactions resolvable
	err = tx.Sign(w1.PrivateKey, map[string]Transaction{})
	assert.ErrorIs(t, err, ErrUnknownPriorTx)

	_, err = tx.Verify(map[string]Transaction{})
	assert.ErrorIs(t, err, ErrUnknownPriorTx)
}

func TestSignRejectsOutOfRangeVout(t *testing.T) {
	w1, w2 := testWallet(t), testWallet(t)
	prev, err := CoinbaseTx(w1.Address())
	require.NoError(t, err)

	input := TxInput{ID: prev.ID, Out: 5, PubKey: w1.PublicKey}
	payment, err := NewTXOutput(4, w2.Address())
	require.NoError(t, err)
	tx := &Transaction{Inputs: []TxInput{input}, Outputs: []TxOutput{*payment}}
	tx.ID, err = tx.Hash()
	require.NoError(t, err)

	prevTXs := map[string]Transaction{hex.EncodeToString(prev.ID): *prev}
	err = tx.Sign(w1.PrivateKey, prevTXs)
	assert.ErrorIs(t, err, ErrUnknownPriorTx, "an input pointing past the prior tx's outputs must not sign")
}

func TestIsCoinbase(t *testing.T) {
	w1, w2 := testWallet(t), testWallet(t)
	prev, err := CoinbaseTx(w1.Address())
	require.NoError(t, err)

	tx, _ := signedSpend(t, prev, w1, w1.Address(), w2.Address(), 4)
	assert.False(t, tx.IsCoinbase())
}
