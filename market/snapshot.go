package market

import "strings"

// Snapshot is the process-wide widget state an operation closes over: the
// selected account, the current market and oracle, and the asset list. It is
// replaced wholesale on account or market change, never mutated in place; a
// long-running operation may observe the snapshot it started with.
type Snapshot struct {
	Account       string
	MarketID      string
	OracleAddress string
	WETHAddress   string
	Assets        []Asset
	DefaultAsset  string
}

func (s Snapshot) HasAsset(address string) bool {
	address = strings.ToLower(address)
	for _, asset := range s.Assets {
		if strings.ToLower(asset.Address) == address {
			return true
		}
	}
	return false
}

// OutcomeNumber resolves a share-token address back to its outcome number.
func (s Snapshot) OutcomeNumber(shareTokenAddress string) (int, bool) {
	shareTokenAddress = strings.ToLower(shareTokenAddress)
	for _, asset := range s.Assets {
		if asset.IsOutcome && strings.ToLower(asset.Address) == shareTokenAddress {
			return asset.OutcomeNumber, true
		}
	}
	return 0, false
}

func (s Snapshot) IsWeth(address string) bool {
	return strings.EqualFold(address, s.WETHAddress)
}
