package market

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bzxwidget/client"
)

// Asset is one selectable asset on the widget: WETH or an outcome share
// token of the current market.
type Asset struct {
	Address       string
	Text          string
	OutcomeNumber int
	IsOutcome     bool
}

// OutcomeDisplayName renders an outcome label the way the widget shows it,
// which depends on the market type.
func OutcomeDisplayName(info client.MarketInfo, outcome client.OutcomeInfo) string {
	price := formatPrice(outcome.Price)

	switch info.MarketType {
	case "scalar":
		return fmt.Sprintf("%s / %s / %s", formatPrice(info.MinPrice), price, formatPrice(info.MaxPrice))
	case "categorical":
		return fmt.Sprintf("%s: %s", outcome.Description, price)
	case "yesNo":
		if outcome.ID == 0 {
			return "NO: " + price
		}
		return "YES: " + price
	default:
		return "unknown market type"
	}
}

// AssetText is the full display line for a share-token asset.
func AssetText(info client.MarketInfo, outcome client.OutcomeInfo, shareTokenAddress string) string {
	return fmt.Sprintf("%s // volume: %s // address: %s",
		OutcomeDisplayName(info, outcome), outcome.Volume, shareTokenAddress)
}

// TradableOutcomes filters out outcomes that cannot be traded; scalar markets
// carry a synthetic outcome 0 that has no share token.
func TradableOutcomes(info client.MarketInfo) []client.OutcomeInfo {
	outcomes := make([]client.OutcomeInfo, 0, len(info.Outcomes))
	for _, outcome := range info.Outcomes {
		if outcome.ID == 0 && info.MarketType == "scalar" {
			continue
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func formatPrice(value string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return value
	}
	return d.StringFixed(2)
}
