package handlers

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/config"
	"github.com/Rakesh-sahoo07/chainbridge-sub001/types"
)

// ReserveReader is the slice of a chain adapter the handler needs.
type ReserveReader interface {
	Name() string
	GetReserves(ctx context.Context, token string) (*types.Reserves, error)
}

// Reserves reports the reserve counters of every supported asset on
// one chain, flagging balances under the configured warning threshold.
func Reserves(chain ReserveReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		warnAt, _ := new(big.Int).SetString(config.Config.MinReserveWarn, 10)

		out := make([]APIReservesResponse, 0, len(config.Config.Tokens))
		for symbol := range config.Config.Tokens {
			reserves, err := chain.GetReserves(ctx, symbol)
			if err != nil {
				out = append(out, APIReservesResponse{
					Status: "error",
					Chain:  chain.Name(),
					Token:  symbol,
				})
				continue
			}
			out = append(out, APIReservesResponse{
				Status:        "ok",
				Chain:         chain.Name(),
				Token:         symbol,
				Balance:       reserves.Balance.String(),
				TotalIn:       reserves.TotalIn.String(),
				TotalOut:      reserves.TotalOut.String(),
				FeesCollected: reserves.FeesCollected.String(),
				LowReserve:    warnAt != nil && reserves.Balance.Cmp(warnAt) < 0,
			})
		}
		responseJSON(w, out, http.StatusOK)
	}
}
