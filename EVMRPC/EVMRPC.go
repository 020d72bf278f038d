package EVMRPC

import (
	"fmt"
	"log"

	"github.com/Rakesh-sahoo07/chainbridge-sub001/config"

	"github.com/ethereum/go-ethereum/ethclient"
)

// WithClient runs f against the chain's RPC endpoints in order until
// one of them succeeds.
func WithClient[T any](chainId int, f func(client *ethclient.Client) (T, error)) (res T, err error) {
	var client *ethclient.Client
	for _, url := range config.EVMChains[chainId].RPCList {
		client, err = ethclient.Dial(url)
		if err != nil {
			log.Println(fmt.Sprintf("Error connecting to %s: %s", url, err.Error()))
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
	}
	return
}

// GetClient dials the i-th RPC endpoint of the chain, wrapping around
// the list. Used by retry loops that want a different node per attempt.
func GetClient(chainId int, i int) *ethclient.Client {
	list := config.EVMChains[chainId].RPCList
	client, err := ethclient.Dial(list[i%len(list)])
	if err != nil {
		log.Println(fmt.Sprintf("Error connecting to %s: %s", list[i%len(list)], err.Error()))
		return nil
	}
	return client
}
