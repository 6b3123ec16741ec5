package wallet

import (
	"bytes"
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 09/02/2026
 * Time: 12:17
 */

// walletFile defines the persistent storage location for wallet data
// This file stores all wallets in serialized format for persistence across restarts
const walletFile = "./wallets.dat"

// Wallets is a collection of cryptocurrency wallets
// It manages multiple wallet instances, each with its own key pair and address
type Wallets struct {
	// Map of Base58 address -> Wallet pointer
	Wallets map[string]*Wallet
}

// CreateWallets initializes a wallet collection and loads existing wallets from disk
// A missing wallet file is not an error: it simply means no wallet has been
// created yet in this working directory.
func CreateWallets() (*Wallets, error) {
	wallets := Wallets{Wallets: make(map[string]*Wallet)}

	if err := wallets.LoadFile(); err != nil {
		return nil, err
	}
	return &wallets, nil
}

// AddWallet creates a new wallet, adds it to the collection, and returns its address
// This generates a fresh key pair - each call creates a new, unique wallet
func (ws *Wallets) AddWallet() (string, error) {
	wallet, err := MakeWallet()
	if err != nil {
		return "", err
	}

	address := wallet.Address()
	ws.Wallets[address] = wallet

	// Persist to disk to prevent data loss
	if err := ws.SaveFile(); err != nil {
		return "", err
	}
	return address, nil
}

// GetAllAddresses returns a list of all wallet addresses in the collection
func (ws *Wallets) GetAllAddresses() []string {
	addresses := make([]string, 0, len(ws.Wallets))
	for address := range ws.Wallets {
		addresses = append(addresses, address)
	}
	return addresses
}

// GetWallet retrieves a specific wallet by its address
// Returns nil when the address is not in the collection
func (ws *Wallets) GetWallet(address string) *Wallet {
	return ws.Wallets[address]
}

// LoadFile reads wallet data from disk and deserializes it
// This restores the wallet state from a previous session
func (ws *Wallets) LoadFile() error {
	if _, err := os.Stat(walletFile); os.IsNotExist(err) {
		return nil // first run, nothing saved yet
	}

	fileContent, err := os.ReadFile(walletFile)
	if err != nil {
		return errors.Wrap(err, "read wallet file")
	}

	var wallets Wallets
	decoder := gob.NewDecoder(bytes.NewReader(fileContent))
	if err := decoder.Decode(&wallets); err != nil {
		return errors.Wrap(err, "decode wallet file")
	}

	ws.Wallets = wallets.Wallets
	return nil
}

// SaveFile serializes all wallets to disk for persistence
// This should be called whenever wallets are modified
func (ws *Wallets) SaveFile() error {
	var content bytes.Buffer

	encoder := gob.NewEncoder(&content)
	if err := encoder.Encode(ws); err != nil {
		return errors.Wrap(err, "encode wallets")
	}

	if err := os.WriteFile(walletFile, content.Bytes(), 0644); err != nil {
		return errors.Wrap(err, "write wallet file")
	}
	return nil
}
