package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"bzxwidget/client"
	"bzxwidget/market"
)

var ErrMarketNotFound = errors.New("market not found")

type MarketData interface {
	GetMarketsInfo(ctx context.Context, marketIDs []string) ([]client.MarketInfo, error)
	GetShareToken(ctx context.Context, marketID string, outcome int) (string, error)
}

// AssetService builds the widget's selectable asset list for a market: WETH
// first (the default), then one share-token entry per tradable outcome.
type AssetService struct {
	augur       MarketData
	wethAddress string
}

func NewAssetService(augur MarketData, wethAddress string) *AssetService {
	return &AssetService{augur: augur, wethAddress: strings.ToLower(wethAddress)}
}

func (s *AssetService) AssetsForMarket(ctx context.Context, marketID string) ([]market.Asset, string, error) {
	infos, err := s.augur.GetMarketsInfo(ctx, []string{marketID})
	if err != nil {
		return nil, "", err
	}
	if len(infos) == 0 {
		return nil, "", ErrMarketNotFound
	}

	info := infos[0]
	outcomes := market.TradableOutcomes(info)

	// share-token lookups are independent reads, issue them together
	shareAssets := make([]market.Asset, len(outcomes))
	errs := make([]error, len(outcomes))
	var wg sync.WaitGroup
	for i, outcome := range outcomes {
		wg.Add(1)
		go func(i int, outcome client.OutcomeInfo) {
			defer wg.Done()
			address, err := s.augur.GetShareToken(ctx, marketID, outcome.ID)
			if err != nil {
				errs[i] = err
				return
			}
			shareAssets[i] = market.Asset{
				Address:       address,
				Text:          market.AssetText(info, outcome, address),
				OutcomeNumber: outcome.ID,
				IsOutcome:     true,
			}
		}(i, outcome)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, "", err
		}
	}

	assets := make([]market.Asset, 0, len(shareAssets)+1)
	assets = append(assets, market.Asset{Address: s.wethAddress, Text: "WETH"})
	assets = append(assets, shareAssets...)

	return assets, s.wethAddress, nil
}
