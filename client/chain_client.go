package client

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrNoAccounts = errors.New("no accounts available")

// ChainClient talks to an ethereum node over JSON-RPC.
type ChainClient struct {
	*Client
}

func NewChainClient(nodeUrl string) *ChainClient {
	return &ChainClient{Client: NewClient(nodeUrl)}
}

func (c *ChainClient) Accounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.call(ctx, "eth_accounts", []interface{}{}, &accounts); err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	return accounts, nil
}

func (c *ChainClient) GasPrice(ctx context.Context) (*big.Int, error) {
	var priceHex string
	if err := c.call(ctx, "eth_gasPrice", []interface{}{}, &priceHex); err != nil {
		return nil, err
	}
	return hexutil.DecodeBig(priceHex)
}

func (c *ChainClient) NetVersion(ctx context.Context) (string, error) {
	var version string
	if err := c.call(ctx, "net_version", []interface{}{}, &version); err != nil {
		return "", err
	}
	return version, nil
}
