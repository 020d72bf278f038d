package escrow

import "math/big"

// SplitFee deducts the protocol fee from a gross deposit. Fees are in
// basis points (10 = 0.1%). Returns the net escrowed amount and the fee
// routed to the fee recipient.
func SplitFee(amount *big.Int, basisPoints int) (net *big.Int, fee *big.Int) {
	fee = new(big.Int).Mul(amount, big.NewInt(int64(basisPoints)))
	fee.Div(fee, big.NewInt(10000))
	net = new(big.Int).Sub(amount, fee)
	return net, fee
}
