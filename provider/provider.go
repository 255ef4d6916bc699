// Package provider exposes the widget operation surface: lend/borrow order
// creation, order listings, margin queries, and leveraged quick positions,
// all expressed over the chain, lending-protocol, and market-protocol
// clients.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"bzxwidget/client"
	"bzxwidget/logger"
	"bzxwidget/market"
	"bzxwidget/position"
	service "bzxwidget/services"
)

// ErrRequestFailed is the single user-facing message for external-call
// failures; the full detail only goes to the diagnostic log.
var ErrRequestFailed = errors.New("error happened while processing your request")

// InitError halts provider initialization; the reason is also emitted through
// the init-failed event.
type InitError struct {
	Reason string
}

func (e *InitError) Error() string {
	return e.Reason
}

type Chain interface {
	Accounts(ctx context.Context) ([]string, error)
}

type Lending interface {
	GetOracleList(ctx context.Context) ([]client.OracleInfo, error)
	GetOrdersFillable(ctx context.Context, query client.OrdersFillableQuery) ([]client.FillableOrder, error)
	GetLoansForLender(ctx context.Context, query client.LoansQuery) ([]client.Loan, error)
	GetLoansForTrader(ctx context.Context, query client.LoansQuery) ([]client.Loan, error)
	GetSingleOrder(ctx context.Context, loanOrderHash string) (*client.FillableOrder, error)
	GetMarginLevels(ctx context.Context, loanOrderHash, trader string) (*client.MarginLevels, error)
	GetPositionOffset(ctx context.Context, loanOrderHash, trader string) (*client.PositionOffset, error)
	GetConversionData(ctx context.Context, sourceToken, destToken, sourceAmount, oracleAddress string) (*client.ConversionData, error)
	SetAllowanceUnlimited(ctx context.Context, tokenAddress, ownerAddress, spenderAddress string, txOpts client.TxOpts) (*client.TxReceipt, error)
	SignOrderHash(ctx context.Context, orderHash, signerAddress string) (string, error)
	PushLoanOrderOnChain(ctx context.Context, order client.LoanOrderFields, signature, oracleData string, txOpts client.TxOpts) (*client.TxReceipt, error)
	TakeLoanOrderOnChainAsLender(ctx context.Context, loanOrderHash string, txOpts client.TxOpts) (*client.TxReceipt, error)
	TakeLoanOrderOnChainAsTrader(ctx context.Context, loanOrderHash, collateralTokenAddress, loanTokenAmountFilled, tradeTokenToFillAddress string, withdrawOnOpen bool, txOpts client.TxOpts) (*client.TxReceipt, error)
	TradePositionWithOracle(ctx context.Context, orderHash, tradeTokenAddress string, txOpts client.TxOpts) (*client.TxReceipt, error)
	CancelLoanOrderWithHash(ctx context.Context, loanOrderHash, cancelLoanTokenAmount string, txOpts client.TxOpts) (*client.TxReceipt, error)
	WithdrawPosition(ctx context.Context, loanOrderHash, withdrawAmount string, txOpts client.TxOpts) (*client.TxReceipt, error)
	CloseLoan(ctx context.Context, loanOrderHash string, txOpts client.TxOpts) (*client.TxReceipt, error)
}

type Markets interface {
	GetMarketsInfo(ctx context.Context, marketIDs []string) ([]client.MarketInfo, error)
	GetShareToken(ctx context.Context, marketID string, outcome int) (string, error)
	GetOrders(ctx context.Context, query client.OrderBookQuery) ([]client.MarketOrder, error)
	GetOrderPrice(ctx context.Context, orderID string) (string, error)
}

type Config struct {
	NetworkID        string
	WETHAddress      string
	BZxAddress       string
	BZxVaultAddress  string
	DefaultGasAmount uint64
	DefaultGasPrice  string // wei
	ListPageSize     int
	MatchPageSize    int
}

// DefaultConfig carries the Rinkeby deployment the widget ships with.
func DefaultConfig() Config {
	return Config{
		NetworkID:        "4",
		WETHAddress:      "0xc778417e063141139fce010982780140aa0cd5ab",
		BZxAddress:       "0x4db8a61f9cd0cf4998aa4612dd612ab4f4f5a730",
		BZxVaultAddress:  "0x8f254255592e6e210cc9a464cfa2464da2467df6",
		DefaultGasAmount: 4_000_000,
		DefaultGasPrice:  "12000000000", // 12 gwei
		ListPageSize:     50,
		MatchPageSize:    100,
	}
}

type Provider struct {
	cfg          Config
	chain        Chain
	bzx          Lending
	augur        Markets
	assets       *service.AssetService
	orchestrator *position.Orchestrator
	log          *logger.Logger

	mu   sync.RWMutex
	snap market.Snapshot

	cbMu             sync.Mutex
	onAccountChanged []func(account string)
	onAssetsChanged  []func(assets []market.Asset, defaultAsset string)
	onInitFailed     []func(reason string)
}

func New(cfg Config, chain Chain, bzx Lending, augur Markets, log *logger.Logger) *Provider {
	return &Provider{
		cfg:          cfg,
		chain:        chain,
		bzx:          bzx,
		augur:        augur,
		assets:       service.NewAssetService(augur, cfg.WETHAddress),
		orchestrator: position.NewOrchestrator(bzx, augur, log),
		log:          log,
		snap:         market.Snapshot{WETHAddress: strings.ToLower(cfg.WETHAddress)},
	}
}

// =============================
// Events
// =============================

func (p *Provider) OnAccountChanged(fn func(account string)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.onAccountChanged = append(p.onAccountChanged, fn)
}

func (p *Provider) OnAssetsChanged(fn func(assets []market.Asset, defaultAsset string)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.onAssetsChanged = append(p.onAssetsChanged, fn)
}

func (p *Provider) OnInitFailed(fn func(reason string)) {
	p.cbMu.Lock()
	defer p.cbMu.Unlock()
	p.onInitFailed = append(p.onInitFailed, fn)
}

func (p *Provider) emitAccountChanged(account string) {
	p.cbMu.Lock()
	callbacks := append([]func(string){}, p.onAccountChanged...)
	p.cbMu.Unlock()
	for _, fn := range callbacks {
		fn(account)
	}
}

func (p *Provider) emitAssetsChanged(assets []market.Asset, defaultAsset string) {
	p.cbMu.Lock()
	callbacks := append([]func([]market.Asset, string){}, p.onAssetsChanged...)
	p.cbMu.Unlock()
	for _, fn := range callbacks {
		fn(assets, defaultAsset)
	}
}

func (p *Provider) emitInitFailed(reason string) {
	p.cbMu.Lock()
	callbacks := append([]func(string){}, p.onInitFailed...)
	p.cbMu.Unlock()
	for _, fn := range callbacks {
		fn(reason)
	}
}

// =============================
// Initialization & state
// =============================

// Init selects the first node account and resolves the protocol oracles.
// Both the base oracle and the market oracle must be registered on-chain;
// a missing one is reported through the init-failed event and halts further
// initialization.
func (p *Provider) Init(ctx context.Context) error {
	accounts, err := p.chain.Accounts(ctx)
	if err != nil {
		p.emitInitFailed("unable to enable chain provider")
		return &InitError{Reason: "unable to enable chain provider"}
	}
	account := strings.ToLower(accounts[0])

	oracles, err := p.bzx.GetOracleList(ctx)
	if err != nil {
		p.emitInitFailed("unable to get list of oracles available")
		return &InitError{Reason: "unable to get list of oracles available"}
	}

	var bzxOracle, augurOracle string
	for _, oracle := range oracles {
		switch oracle.Name {
		case "bZxOracle":
			bzxOracle = oracle.Address
		case "AugurOracle":
			augurOracle = oracle.Address
		}
	}
	if bzxOracle == "" {
		p.emitInitFailed("no `bZxOracle` oracle available")
	}
	if augurOracle == "" {
		p.emitInitFailed("no `AugurOracle` oracle available")
	}
	if bzxOracle == "" || augurOracle == "" {
		return &InitError{Reason: "required oracles are not registered on-chain"}
	}

	p.mu.Lock()
	p.snap = market.Snapshot{
		Account:       account,
		OracleAddress: strings.ToLower(augurOracle),
		WETHAddress:   strings.ToLower(p.cfg.WETHAddress),
	}
	p.mu.Unlock()

	p.log.Info("provider_initialized", "account", account, "augur_oracle", augurOracle, "bzx_oracle", bzxOracle)
	p.emitAccountChanged(account)

	return nil
}

// SetAccount replaces the snapshot's account on an external account-change
// notification. In-flight operations keep the snapshot they started with.
func (p *Provider) SetAccount(account string) {
	p.mu.Lock()
	snap := p.snap
	snap.Account = strings.ToLower(account)
	p.snap = snap
	p.mu.Unlock()

	p.emitAccountChanged(strings.ToLower(account))
}

// SetMarket points the provider at a market and rebuilds the asset list. An
// empty market id clears the assets (the widget left the market page).
func (p *Provider) SetMarket(ctx context.Context, marketID string) error {
	if marketID == "" {
		p.mu.Lock()
		snap := p.snap
		snap.MarketID = ""
		snap.Assets = nil
		snap.DefaultAsset = ""
		p.snap = snap
		p.mu.Unlock()

		p.emitAssetsChanged(nil, "")
		return nil
	}

	assets, defaultAsset, err := p.assets.AssetsForMarket(ctx, marketID)
	if err != nil {
		return fmt.Errorf("refresh assets for market %s: %w", marketID, err)
	}

	p.mu.Lock()
	snap := p.snap
	snap.MarketID = strings.ToLower(marketID)
	snap.Assets = assets
	snap.DefaultAsset = defaultAsset
	p.snap = snap
	p.mu.Unlock()

	p.emitAssetsChanged(assets, defaultAsset)
	return nil
}

func (p *Provider) snapshot() market.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// =============================
// Simple accessors
// =============================

func (p *Provider) GetAccount() string {
	return p.snapshot().Account
}

func (p *Provider) IsWethToken(tokenAddress string) bool {
	return strings.EqualFold(tokenAddress, p.cfg.WETHAddress)
}

func (p *Provider) GetTokenNameFromAddress(tokenAddress string) string {
	if p.IsWethToken(tokenAddress) {
		return "WETH"
	}
	return "Augur token"
}

func (p *Provider) txOpts(withGas bool) client.TxOpts {
	opts := client.TxOpts{
		From:     p.snapshot().Account,
		GasPrice: p.cfg.DefaultGasPrice,
	}
	if withGas {
		opts.Gas = p.cfg.DefaultGasAmount
	}
	return opts
}
