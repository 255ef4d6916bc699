package main

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"bzxwidget/client"
	"bzxwidget/logger"
	"bzxwidget/market"
	"bzxwidget/provider"
)

func main() {
	log := logger.NewLogger()

	// Load .env file if it exists (optional)
	_ = godotenv.Load()

	nodeUrl := getEnvStr("ETH_NODE_URL", "https://rinkeby.infura.io/")
	gatewayUrl := getEnvStr("BZX_GATEWAY_URL", "https://gateway.bzx.network/rpc")
	augurNodeUrl := getEnvStr("AUGUR_NODE_WS", "wss://dev.augur.net/augur-node")
	marketID := getEnvStr("MARKET_ID", "")

	chainClient := client.NewChainClient(nodeUrl)
	bzxClient := client.NewBZxClient(gatewayUrl)
	augurClient := client.NewAugurClient(augurNodeUrl, log)

	if privateKey := os.Getenv("PRIVATE_KEY"); privateKey != "" {
		signer, err := client.NewOrderSigner(privateKey)
		if err != nil {
			log.Error("invalid_private_key", "err", err)
			return
		}
		bzxClient.SetSigner(signer)
		log.Info("local_signer_enabled", "address", signer.GetAddress().Hex())
	}

	if err := augurClient.Connect(); err != nil {
		log.Error("augur_connect_failed", "err", err)
		return
	}
	defer augurClient.Close()

	widget := provider.New(provider.DefaultConfig(), chainClient, bzxClient, augurClient, log)

	widget.OnAccountChanged(func(account string) {
		log.Info("account_changed", "account", account)
	})
	widget.OnAssetsChanged(func(assets []market.Asset, defaultAsset string) {
		log.Info("assets_changed", "count", len(assets), "default", defaultAsset)
		for _, asset := range assets {
			log.Info("asset", "address", asset.Address, "text", asset.Text)
		}
	})
	widget.OnInitFailed(func(reason string) {
		log.Error("init_failed", "reason", reason)
	})

	ctx := context.Background()

	if err := widget.Init(ctx); err != nil {
		log.Error("provider_init_failed", "err", err)
		return
	}

	if marketID == "" {
		log.Warn("no_market_selected", "msg", "set MARKET_ID to load the market's assets")
		return
	}

	if err := widget.SetMarket(ctx, marketID); err != nil {
		log.Error("set_market_failed", "err", err)
		return
	}

	maxOrders := getEnvInt("MAX_ORDERS", 10)

	bids, err := widget.ListLoanOrdersBidsAvailable(ctx, nil, nil, maxOrders)
	if err != nil {
		log.Error("list_bids_failed", "err", err)
		return
	}
	for _, bid := range bids {
		log.Info("lend_bid", "hash", bid.LoanOrderHash, "token", bid.LoanTokenAddress, "amount", bid.LoanTokenAmount, "interest", bid.InterestAmount)
	}

	loans, err := widget.ListLoansActive(ctx, maxOrders)
	if err != nil {
		log.Error("list_loans_failed", "err", err)
		return
	}
	for _, loan := range loans {
		log.Info("active_loan", "hash", loan.LoanOrderHash, "token", loan.LoanTokenAddress, "filled", loan.LoanTokenAmountFilled)
	}
}

func getEnvStr(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}
