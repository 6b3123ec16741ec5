package wallet

/**
 * Created by GoLand.
 * Project: socratix
 * User: PETER DANIEL KILIMBA
 * Date: 09/02/2026
 * Time: 11:02
 */

import (
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Base58Encode converts binary data to a Base58-encoded string
// Base58 is used in cryptocurrencies for human-friendly addresses
// It avoids ambiguous characters that look similar (0/O, I/l)
func Base58Encode(input []byte) string {
	return base58.Encode(input)
}

// Base58Decode converts a Base58-encoded string back to original binary data
// This is the inverse operation of Base58Encode
func Base58Decode(input string) ([]byte, error) {
	decoded, err := base58.Decode(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAddress, "base58: %v", err)
	}
	return decoded, nil
}
