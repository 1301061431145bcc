package EVMRPC

import (
	"fmt"
	"log"

	"goswapresolver/config"

	"github.com/ethereum/go-ethereum/ethclient"
)

// WithClient runs f against the first reachable RPC endpoint from the
// configured list, failing over on connection or call errors. The whole
// list is retried up to EVM_RETRIES passes before giving up.
func WithClient[T any](f func(client *ethclient.Client) (T, error)) (res T, err error) {
	var client *ethclient.Client
	for attempt := 0; attempt < config.EVM_RETRIES; attempt++ {
		for _, url := range config.Config.Ethereum.RPCList {
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
	}
	return
}
