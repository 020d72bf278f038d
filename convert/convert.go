package convert

import (
	"encoding/hex"
	"fmt"
	"strings"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
)

// Cross-chain address conversion. EVM accounts are 20 bytes, Move
// accounts are 32; getting this wrong silently malforms destination
// addresses, so both directions validate length and prefix before any
// transaction is built.

// EVMToMove zero-extends a 20-byte EVM address to a 32-byte Move
// address (zeros on the left, low 20 bytes carry the account).
func EVMToMove(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("not a 20-byte hex address: %q", address)
	}
	addr := common.HexToAddress(address)
	padded := common.LeftPadBytes(addr.Bytes(), 32)
	return "0x" + hex.EncodeToString(padded), nil
}

// MoveToEVM accepts only 32-byte Move addresses whose top 12 bytes are
// zero and returns the checksummed 20-byte EVM form. Anything else is a
// native Move account with no EVM representation.
func MoveToEVM(address string) (string, error) {
	raw := strings.TrimPrefix(strings.ToLower(address), "0x")
	if len(raw) != 64 {
		return "", fmt.Errorf("not a 32-byte hex address: %q", address)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("not a hex address: %q", address)
	}
	for _, v := range b[:12] {
		if v != 0 {
			return "", fmt.Errorf("address %q has no 20-byte form", address)
		}
	}
	out := common.BytesToAddress(b[12:]).Hex()
	if err := ethav.Validate(out); err != nil {
		return "", fmt.Errorf("converted address %q invalid: %w", out, err)
	}
	return out, nil
}

// ValidMoveAddress reports whether the string is a well-formed 32-byte
// Move account address.
func ValidMoveAddress(address string) bool {
	raw := strings.TrimPrefix(strings.ToLower(address), "0x")
	if len(raw) != 64 {
		return false
	}
	_, err := hex.DecodeString(raw)
	return err == nil
}

// ValidEVMAddress reports whether the string is a well-formed 20-byte
// EVM account address.
func ValidEVMAddress(address string) bool {
	if !common.IsHexAddress(address) {
		return false
	}
	return ethav.Validate(common.HexToAddress(address).Hex()) == nil
}
