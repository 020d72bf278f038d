package escrow

import (
	"crypto/rand"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Request identifiers are derived from public on-chain data so that any
// observer can recompute them. The relayer never picks one freely.

// DeriveRequestID reproduces the reserve-bridge request id:
// keccak256(sender ++ destChainTag ++ amount ++ timestamp).
func DeriveRequestID(sender []byte, destChainTag string, amount *big.Int, timestamp int64) string {
	buf := make([]byte, 0, len(sender)+len(destChainTag)+64)
	buf = append(buf, sender...)
	buf = append(buf, []byte(destChainTag)...)
	buf = append(buf, common.LeftPadBytes(amount.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(big.NewInt(timestamp).Bytes(), 32)...)
	return hexutil.Encode(crypto.Keccak256(buf))
}

// DeriveSwapID reproduces the HTLC escrow id:
// keccak256(hashlock ++ initiator ++ timelock).
func DeriveSwapID(hashlock [32]byte, initiator []byte, timelock int64) string {
	buf := make([]byte, 0, 32+len(initiator)+32)
	buf = append(buf, hashlock[:]...)
	buf = append(buf, initiator...)
	buf = append(buf, common.LeftPadBytes(big.NewInt(timelock).Bytes(), 32)...)
	return hexutil.Encode(crypto.Keccak256(buf))
}

// NewSecret returns 256 bits of cryptographically secure randomness.
func NewSecret() ([32]byte, error) {
	var secret [32]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

// Hashlock is the public commitment binding an escrow to its secret.
func Hashlock(secret [32]byte) [32]byte {
	var h [32]byte
	copy(h[:], crypto.Keccak256(secret[:]))
	return h
}
