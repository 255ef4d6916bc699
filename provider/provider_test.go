package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bzxwidget/client"
	"bzxwidget/logger"
	"bzxwidget/market"
	"bzxwidget/order"
	"bzxwidget/position"
)

const (
	testAccount    = "0xABCDEF0123456789abcdef0123456789ABCDEF01"
	testMarketID   = "0xMARKET00000000000000000000000000000001"
	testBZxOracle  = "0x1010101010101010101010101010101010101010"
	testAugOracle  = "0x2020202020202020202020202020202020202020"
	testShareNo    = "0x3030303030303030303030303030303030303030"
	testShareYes   = "0x4040404040404040404040404040404040404040"
	testOtherMaker = "0x5050505050505050505050505050505050505050"
)

// =============================
// Stubs
// =============================

type stubChain struct {
	accounts []string
	err      error
}

func (c *stubChain) Accounts(_ context.Context) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.accounts, nil
}

type allowanceCall struct {
	token   string
	owner   string
	spender string
}

type traderTakeCall struct {
	hash       string
	collateral string
	amount     string
	tradeToken string
	withdraw   bool
}

type pushCall struct {
	order      client.LoanOrderFields
	signature  string
	oracleData string
}

type cancelCall struct {
	hash   string
	amount string
}

type stubLending struct {
	oracles    []client.OracleInfo
	oraclesErr error

	fillable    []client.FillableOrder
	fillableErr error

	lenderLoans []client.Loan
	traderLoans []client.Loan

	single    *client.FillableOrder
	singleErr error

	conversion *client.ConversionData

	cancelErr error

	fillableCalls []client.OrdersFillableQuery
	allowances    []allowanceCall
	signedHashes  []string
	pushes        []pushCall
	lenderTakes   []string
	traderTakes   []traderTakeCall
	cancels       []cancelCall
	withdraws     []cancelCall
	closes        []string
	trades        [][2]string
}

func (l *stubLending) GetOracleList(_ context.Context) ([]client.OracleInfo, error) {
	if l.oraclesErr != nil {
		return nil, l.oraclesErr
	}
	return l.oracles, nil
}

func (l *stubLending) GetOrdersFillable(_ context.Context, query client.OrdersFillableQuery) ([]client.FillableOrder, error) {
	l.fillableCalls = append(l.fillableCalls, query)
	if l.fillableErr != nil {
		return nil, l.fillableErr
	}
	if query.Start >= len(l.fillable) {
		return nil, nil
	}
	end := query.Start + query.Count
	if end > len(l.fillable) {
		end = len(l.fillable)
	}
	return l.fillable[query.Start:end], nil
}

func (l *stubLending) GetLoansForLender(_ context.Context, _ client.LoansQuery) ([]client.Loan, error) {
	return l.lenderLoans, nil
}

func (l *stubLending) GetLoansForTrader(_ context.Context, _ client.LoansQuery) ([]client.Loan, error) {
	return l.traderLoans, nil
}

func (l *stubLending) GetSingleOrder(_ context.Context, _ string) (*client.FillableOrder, error) {
	if l.singleErr != nil {
		return nil, l.singleErr
	}
	return l.single, nil
}

func (l *stubLending) GetMarginLevels(_ context.Context, _, _ string) (*client.MarginLevels, error) {
	return &client.MarginLevels{CurrentMarginAmount: "75000000000000000000"}, nil
}

func (l *stubLending) GetPositionOffset(_ context.Context, _, _ string) (*client.PositionOffset, error) {
	return &client.PositionOffset{IsPositive: true}, nil
}

func (l *stubLending) GetConversionData(_ context.Context, _, _, _, _ string) (*client.ConversionData, error) {
	if l.conversion == nil {
		return &client.ConversionData{Rate: "0", Precision: "18"}, nil
	}
	return l.conversion, nil
}

func (l *stubLending) SetAllowanceUnlimited(_ context.Context, tokenAddress, ownerAddress, spenderAddress string, _ client.TxOpts) (*client.TxReceipt, error) {
	l.allowances = append(l.allowances, allowanceCall{token: tokenAddress, owner: ownerAddress, spender: spenderAddress})
	return &client.TxReceipt{TransactionHash: fmt.Sprintf("0xallow%d", len(l.allowances))}, nil
}

func (l *stubLending) SignOrderHash(_ context.Context, orderHash, _ string) (string, error) {
	l.signedHashes = append(l.signedHashes, orderHash)
	return "0xsigned" + orderHash, nil
}

func (l *stubLending) PushLoanOrderOnChain(_ context.Context, order client.LoanOrderFields, signature, oracleData string, _ client.TxOpts) (*client.TxReceipt, error) {
	l.pushes = append(l.pushes, pushCall{order: order, signature: signature, oracleData: oracleData})
	return &client.TxReceipt{TransactionHash: "0xpushed"}, nil
}

func (l *stubLending) TakeLoanOrderOnChainAsLender(_ context.Context, loanOrderHash string, _ client.TxOpts) (*client.TxReceipt, error) {
	l.lenderTakes = append(l.lenderTakes, loanOrderHash)
	return &client.TxReceipt{TransactionHash: "0xtakenaslender"}, nil
}

func (l *stubLending) TakeLoanOrderOnChainAsTrader(_ context.Context, loanOrderHash, collateralTokenAddress, loanTokenAmountFilled, tradeTokenToFillAddress string, withdrawOnOpen bool, _ client.TxOpts) (*client.TxReceipt, error) {
	l.traderTakes = append(l.traderTakes, traderTakeCall{
		hash:       loanOrderHash,
		collateral: collateralTokenAddress,
		amount:     loanTokenAmountFilled,
		tradeToken: tradeTokenToFillAddress,
		withdraw:   withdrawOnOpen,
	})
	return &client.TxReceipt{TransactionHash: "0xtakenastrader"}, nil
}

func (l *stubLending) TradePositionWithOracle(_ context.Context, orderHash, tradeTokenAddress string, _ client.TxOpts) (*client.TxReceipt, error) {
	l.trades = append(l.trades, [2]string{orderHash, tradeTokenAddress})
	return &client.TxReceipt{TransactionHash: "0xtraded"}, nil
}

func (l *stubLending) CancelLoanOrderWithHash(_ context.Context, loanOrderHash, cancelLoanTokenAmount string, _ client.TxOpts) (*client.TxReceipt, error) {
	if l.cancelErr != nil {
		return nil, l.cancelErr
	}
	l.cancels = append(l.cancels, cancelCall{hash: loanOrderHash, amount: cancelLoanTokenAmount})
	return &client.TxReceipt{TransactionHash: "0xcancelled"}, nil
}

func (l *stubLending) WithdrawPosition(_ context.Context, loanOrderHash, withdrawAmount string, _ client.TxOpts) (*client.TxReceipt, error) {
	l.withdraws = append(l.withdraws, cancelCall{hash: loanOrderHash, amount: withdrawAmount})
	return &client.TxReceipt{TransactionHash: "0xwithdrawn"}, nil
}

func (l *stubLending) CloseLoan(_ context.Context, loanOrderHash string, _ client.TxOpts) (*client.TxReceipt, error) {
	l.closes = append(l.closes, loanOrderHash)
	return &client.TxReceipt{TransactionHash: "0xclosed"}, nil
}

type stubMarkets struct {
	infos       []client.MarketInfo
	shareTokens map[int]string
	book        []client.MarketOrder
	prices      map[string]string
}

func (m *stubMarkets) GetMarketsInfo(_ context.Context, _ []string) ([]client.MarketInfo, error) {
	return m.infos, nil
}

func (m *stubMarkets) GetShareToken(_ context.Context, _ string, outcome int) (string, error) {
	address, ok := m.shareTokens[outcome]
	if !ok {
		return "", fmt.Errorf("no share token for outcome %d", outcome)
	}
	return address, nil
}

func (m *stubMarkets) GetOrders(_ context.Context, _ client.OrderBookQuery) ([]client.MarketOrder, error) {
	return m.book, nil
}

func (m *stubMarkets) GetOrderPrice(_ context.Context, orderID string) (string, error) {
	return m.prices[orderID], nil
}

// =============================
// Harness
// =============================

func defaultMarkets() *stubMarkets {
	return &stubMarkets{
		infos: []client.MarketInfo{{
			ID:         testMarketID,
			MarketType: "yesNo",
			Outcomes: []client.OutcomeInfo{
				{ID: 0, Description: "no", Price: "0.25", Volume: "100"},
				{ID: 1, Description: "yes", Price: "0.75", Volume: "300"},
			},
		}},
		shareTokens: map[int]string{0: testShareNo, 1: testShareYes},
	}
}

func bothOracles() []client.OracleInfo {
	return []client.OracleInfo{
		{Name: "bZxOracle", Address: testBZxOracle},
		{Name: "AugurOracle", Address: testAugOracle},
	}
}

func newTestProvider(t *testing.T, bzx *stubLending, augur *stubMarkets) *Provider {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ListPageSize = 2
	chain := &stubChain{accounts: []string{testAccount}}
	p := New(cfg, chain, bzx, augur, logger.NewLogger())
	require.NoError(t, p.Init(context.Background()))
	require.NoError(t, p.SetMarket(context.Background(), testMarketID))
	return p
}

// =============================
// Init & state
// =============================

func TestInitEmitsAccountAndResolvesOracles(t *testing.T) {
	cfg := DefaultConfig()
	chain := &stubChain{accounts: []string{testAccount}}
	bzx := &stubLending{oracles: bothOracles()}
	p := New(cfg, chain, bzx, defaultMarkets(), logger.NewLogger())

	var gotAccount string
	var failures []string
	p.OnAccountChanged(func(account string) { gotAccount = account })
	p.OnInitFailed(func(reason string) { failures = append(failures, reason) })

	require.NoError(t, p.Init(context.Background()))

	assert.Equal(t, strings.ToLower(testAccount), gotAccount)
	assert.Equal(t, strings.ToLower(testAccount), p.GetAccount())
	assert.Empty(t, failures)
}

func TestInitReportsMissingOracles(t *testing.T) {
	cfg := DefaultConfig()
	chain := &stubChain{accounts: []string{testAccount}}
	bzx := &stubLending{oracles: []client.OracleInfo{{Name: "bZxOracle", Address: testBZxOracle}}}
	p := New(cfg, chain, bzx, defaultMarkets(), logger.NewLogger())

	var failures []string
	p.OnInitFailed(func(reason string) { failures = append(failures, reason) })

	err := p.Init(context.Background())

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, []string{"no `AugurOracle` oracle available"}, failures)
}

func TestInitReportsBothMissingOracles(t *testing.T) {
	cfg := DefaultConfig()
	chain := &stubChain{accounts: []string{testAccount}}
	bzx := &stubLending{oracles: []client.OracleInfo{}}
	p := New(cfg, chain, bzx, defaultMarkets(), logger.NewLogger())

	var failures []string
	p.OnInitFailed(func(reason string) { failures = append(failures, reason) })

	err := p.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{
		"no `bZxOracle` oracle available",
		"no `AugurOracle` oracle available",
	}, failures)
}

func TestInitChainFailure(t *testing.T) {
	cfg := DefaultConfig()
	chain := &stubChain{err: errors.New("node down")}
	p := New(cfg, chain, &stubLending{}, defaultMarkets(), logger.NewLogger())

	var failures []string
	p.OnInitFailed(func(reason string) { failures = append(failures, reason) })

	err := p.Init(context.Background())

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "unable to enable chain provider", initErr.Reason)
	assert.Equal(t, []string{"unable to enable chain provider"}, failures)
}

func TestInitOracleListFailure(t *testing.T) {
	cfg := DefaultConfig()
	chain := &stubChain{accounts: []string{testAccount}}
	bzx := &stubLending{oraclesErr: errors.New("gateway timeout")}
	p := New(cfg, chain, bzx, defaultMarkets(), logger.NewLogger())

	var failures []string
	p.OnInitFailed(func(reason string) { failures = append(failures, reason) })

	err := p.Init(context.Background())

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "unable to get list of oracles available", initErr.Reason)
	assert.Equal(t, []string{"unable to get list of oracles available"}, failures)
}

func TestSetMarketBuildsAssetList(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	var gotAssets []market.Asset
	var gotDefault string
	p.OnAssetsChanged(func(assets []market.Asset, defaultAsset string) {
		gotAssets = assets
		gotDefault = defaultAsset
	})

	require.NoError(t, p.SetMarket(context.Background(), testMarketID))

	weth := strings.ToLower(DefaultConfig().WETHAddress)
	require.Len(t, gotAssets, 3)
	assert.Equal(t, weth, gotAssets[0].Address)
	assert.Equal(t, "WETH", gotAssets[0].Text)
	assert.False(t, gotAssets[0].IsOutcome)
	assert.Equal(t, testShareNo, gotAssets[1].Address)
	assert.Equal(t, 0, gotAssets[1].OutcomeNumber)
	assert.True(t, gotAssets[1].IsOutcome)
	assert.Contains(t, gotAssets[1].Text, "NO: 0.25")
	assert.Equal(t, testShareYes, gotAssets[2].Address)
	assert.Contains(t, gotAssets[2].Text, "YES: 0.75")
	assert.Equal(t, weth, gotDefault)
}

func TestSetMarketEmptyClearsAssets(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	cleared := false
	p.OnAssetsChanged(func(assets []market.Asset, defaultAsset string) {
		cleared = assets == nil && defaultAsset == ""
	})

	require.NoError(t, p.SetMarket(context.Background(), ""))
	assert.True(t, cleared)

	loans, err := p.ListLoansActive(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestSetAccountReplacesSnapshot(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	var gotAccount string
	p.OnAccountChanged(func(account string) { gotAccount = account })

	p.SetAccount(testOtherMaker)
	assert.Equal(t, testOtherMaker, gotAccount)
	assert.Equal(t, testOtherMaker, p.GetAccount())
}

// =============================
// Listings
// =============================

func TestListLoansActiveMergesSortsAndCaps(t *testing.T) {
	weth := strings.ToLower(DefaultConfig().WETHAddress)
	bzx := &stubLending{
		oracles: bothOracles(),
		lenderLoans: []client.Loan{
			{LoanOrderHash: "0xL1", LoanTokenAddress: weth, LoanStartUnixSec: 100},
			{LoanOrderHash: "0xUNKNOWN", LoanTokenAddress: testOtherMaker, LoanStartUnixSec: 500},
		},
		traderLoans: []client.Loan{
			{LoanOrderHash: "0xT1", LoanTokenAddress: testShareYes, LoanStartUnixSec: 300},
			{LoanOrderHash: "0xT2", LoanTokenAddress: testShareNo, LoanStartUnixSec: 200},
		},
	}
	p := newTestProvider(t, bzx, defaultMarkets())

	loans, err := p.ListLoansActive(context.Background(), 2)
	require.NoError(t, err)

	// most recent first, off-market token dropped, capped at two
	require.Len(t, loans, 2)
	assert.Equal(t, "0xT1", loans[0].LoanOrderHash)
	assert.Equal(t, "0xT2", loans[1].LoanOrderHash)
}

func fillableOn(hash, loanToken, collateral string, principal string) client.FillableOrder {
	return client.FillableOrder{
		LoanOrderHash:          hash,
		MakerAddress:           testOtherMaker,
		LoanTokenAddress:       loanToken,
		CollateralTokenAddress: collateral,
		OracleAddress:          testAugOracle,
		LoanTokenAmount:        principal,
		InterestAmount:         "10000000000000000",
	}
}

func TestListLoanOrdersBidsAvailable(t *testing.T) {
	weth := strings.ToLower(DefaultConfig().WETHAddress)
	bzx := &stubLending{
		oracles: bothOracles(),
		fillable: []client.FillableOrder{
			fillableOn("0xBID1", weth, client.ZeroAddress, "1000000000000000000"),
			fillableOn("0xASK1", weth, weth, "2000000000000000000"),
			fillableOn("0xBID2", testShareYes, client.ZeroAddress, "3000000000000000000"),
			fillableOn("0xOFFMARKET", testOtherMaker, client.ZeroAddress, "4000000000000000000"),
			fillableOn("0xBID3", weth, client.ZeroAddress, "5000000000000000000"),
		},
	}
	p := newTestProvider(t, bzx, defaultMarkets())
	bzx.fillableCalls = nil

	bids, err := p.ListLoanOrdersBidsAvailable(context.Background(), nil, nil, 10)
	require.NoError(t, err)

	hashes := make([]string, len(bids))
	for i, bid := range bids {
		hashes[i] = bid.LoanOrderHash
	}
	assert.Equal(t, []string{"0xBID1", "0xBID2", "0xBID3"}, hashes)

	// five orders at page size two means three pages
	require.Len(t, bzx.fillableCalls, 3)
	assert.Equal(t, 0, bzx.fillableCalls[0].Start)
	assert.Equal(t, 2, bzx.fillableCalls[1].Start)
	assert.Equal(t, 4, bzx.fillableCalls[2].Start)
	assert.Equal(t, strings.ToLower(testAugOracle), bzx.fillableCalls[0].OracleFilter)
}

func TestListLoanOrdersAsksSortedAndCapped(t *testing.T) {
	weth := strings.ToLower(DefaultConfig().WETHAddress)
	bzx := &stubLending{
		oracles: bothOracles(),
		fillable: []client.FillableOrder{
			fillableOn("0xASK1", weth, weth, "1000000000000000000"),
			fillableOn("0xASK2", weth, weth, "3000000000000000000"),
			fillableOn("0xASK3", weth, weth, "2000000000000000000"),
		},
	}
	p := newTestProvider(t, bzx, defaultMarkets())

	byHashDesc := func(a, b client.FillableOrder) bool { return a.LoanOrderHash > b.LoanOrderHash }
	asks, err := p.ListLoanOrdersAsksAvailable(context.Background(), nil, byHashDesc, 2)
	require.NoError(t, err)

	require.Len(t, asks, 2)
	assert.Equal(t, "0xASK3", asks[0].LoanOrderHash)
	assert.Equal(t, "0xASK2", asks[1].LoanOrderHash)
}

func TestListLoanOrdersCustomFilter(t *testing.T) {
	weth := strings.ToLower(DefaultConfig().WETHAddress)
	bzx := &stubLending{
		oracles: bothOracles(),
		fillable: []client.FillableOrder{
			fillableOn("0xBID1", weth, client.ZeroAddress, "1000000000000000000"),
			fillableOn("0xBID2", weth, client.ZeroAddress, "9000000000000000000"),
		},
	}
	p := newTestProvider(t, bzx, defaultMarkets())

	onlyBig := func(entry client.FillableOrder) bool { return entry.LoanTokenAmount == "9000000000000000000" }
	bids, err := p.ListLoanOrdersBidsAvailable(context.Background(), onlyBig, nil, 10)
	require.NoError(t, err)

	require.Len(t, bids, 1)
	assert.Equal(t, "0xBID2", bids[0].LoanOrderHash)
}

func TestGetSingleOrderHidesClientError(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles(), singleErr: errors.New("rpc: connection reset")}
	p := newTestProvider(t, bzx, defaultMarkets())

	_, err := p.GetSingleOrder(context.Background(), "0xHASH")
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.NotContains(t, err.Error(), "connection reset")
}

// =============================
// Write operations
// =============================

func TestWriteFailuresAreGenericized(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles(), cancelErr: errors.New("nonce too low")}
	p := newTestProvider(t, bzx, defaultMarkets())

	_, err := p.DoLoanOrderCancel(context.Background(), CancelOrderRequest{LoanOrderHash: "0xHASH", Amount: "1"})
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.NotContains(t, err.Error(), "nonce")
}

func TestValidationErrorsPassVerbatim(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	_, err := p.DoQuickPositionApprove(context.Background(), position.Request{
		Qty:         "1",
		Ratio:       2,
		Type:        position.TypeLong,
		PushOnChain: true,
	})

	var verr *order.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "asset is not selected", verr.Reason)
}

func TestNotEnoughLiquidityPassesVerbatim(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles()}
	augur := defaultMarkets()
	augur.book = []client.MarketOrder{{OrderID: "ask-1", Price: "0.5", FullPrecisionAmount: "1"}}
	augur.prices = map[string]string{"ask-1": "0.5"}
	p := newTestProvider(t, bzx, augur)

	_, err := p.DoQuickPositionApprove(context.Background(), position.Request{
		Asset:       testShareYes,
		Qty:         "100",
		Ratio:       2,
		Type:        position.TypeLong,
		PushOnChain: true,
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "insufficient liquidity")
}

func TestDoLendOrderApproveFlow(t *testing.T) {
	weth := strings.ToLower(DefaultConfig().WETHAddress)
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	tx, err := p.DoLendOrderApprove(context.Background(), order.Inputs{
		Asset:        weth,
		Qty:          "1",
		InterestRate: 30,
		DurationDays: 10,
		Ratio:        2,
		PushOnChain:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "0xpushed", tx)

	// allowance on the lent asset itself, granted to the protocol vault
	require.Len(t, bzx.allowances, 1)
	assert.Equal(t, weth, bzx.allowances[0].token)
	assert.Equal(t, strings.ToLower(testAccount), bzx.allowances[0].owner)
	assert.Equal(t, DefaultConfig().BZxVaultAddress, bzx.allowances[0].spender)

	require.Len(t, bzx.pushes, 1)
	pushed := bzx.pushes[0]
	assert.Equal(t, weth, pushed.order.LoanTokenAddress)
	assert.Equal(t, client.ZeroAddress, pushed.order.CollateralTokenAddress)
	assert.Equal(t, "0", pushed.order.MakerRole)
	assert.Equal(t, "1000000000000000000", pushed.order.LoanTokenAmount)
	assert.Equal(t, strings.ToLower(testMarketID), pushed.oracleData)

	require.Len(t, bzx.signedHashes, 1)
	assert.Equal(t, "0xsigned"+bzx.signedHashes[0], pushed.signature)
}

func TestDoBorrowOrderApproveUsesWethCollateral(t *testing.T) {
	weth := strings.ToLower(DefaultConfig().WETHAddress)
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	_, err := p.DoBorrowOrderApprove(context.Background(), order.Inputs{
		Asset:        weth,
		Qty:          "1",
		InterestRate: 30,
		DurationDays: 10,
		Ratio:        2,
		PushOnChain:  true,
	})
	require.NoError(t, err)

	require.Len(t, bzx.allowances, 1)
	assert.Equal(t, weth, bzx.allowances[0].token)

	require.Len(t, bzx.pushes, 1)
	assert.Equal(t, weth, bzx.pushes[0].order.CollateralTokenAddress)
	assert.Equal(t, "1", bzx.pushes[0].order.MakerRole)
}

func TestDoLoanOrderTakeAskSequence(t *testing.T) {
	weth := strings.ToLower(DefaultConfig().WETHAddress)
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	tx, err := p.DoLoanOrderTake(context.Background(), TakeOrderRequest{
		LoanOrderHash:    "0xHASH",
		LoanTokenAddress: testShareYes,
		IsAsk:            true,
	})
	require.NoError(t, err)
	assert.Equal(t, "0xtakenaslender", tx)

	// WETH allowance first, then the loan token, then the lender-side take
	require.Len(t, bzx.allowances, 2)
	assert.Equal(t, weth, bzx.allowances[0].token)
	assert.Equal(t, strings.ToLower(testShareYes), bzx.allowances[1].token)
	assert.Equal(t, []string{"0xhash"}, bzx.lenderTakes)
	assert.Empty(t, bzx.traderTakes)
}

func TestDoLoanOrderTakeBidSequence(t *testing.T) {
	weth := strings.ToLower(DefaultConfig().WETHAddress)
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	tx, err := p.DoLoanOrderTake(context.Background(), TakeOrderRequest{
		LoanOrderHash:          "0xHASH",
		LoanTokenAddress:       testShareYes,
		CollateralTokenAddress: testShareNo,
		Amount:                 "5000000000000000000",
		IsAsk:                  false,
	})
	require.NoError(t, err)
	assert.Equal(t, "0xtakenastrader", tx)

	require.Len(t, bzx.allowances, 2)
	assert.Equal(t, weth, bzx.allowances[0].token)
	assert.Equal(t, strings.ToLower(testShareNo), bzx.allowances[1].token)

	require.Len(t, bzx.traderTakes, 1)
	take := bzx.traderTakes[0]
	assert.Equal(t, "0xhash", take.hash)
	assert.Equal(t, weth, take.collateral)
	assert.Equal(t, "5000000000000000000", take.amount)
	assert.Equal(t, client.ZeroAddress, take.tradeToken)
	assert.False(t, take.withdraw)
	assert.Empty(t, bzx.lenderTakes)
}

func TestDoLoanLifecycleCalls(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	tx, err := p.DoLoanOrderCancel(context.Background(), CancelOrderRequest{LoanOrderHash: "0xHASH", Amount: "7"})
	require.NoError(t, err)
	assert.Equal(t, "0xcancelled", tx)
	assert.Equal(t, []cancelCall{{hash: "0xhash", amount: "7"}}, bzx.cancels)

	tx, err = p.DoLoanOrderWithdrawProfit(context.Background(), WithdrawProfitRequest{LoanOrderHash: "0xHASH", WithdrawAmount: "9"})
	require.NoError(t, err)
	assert.Equal(t, "0xwithdrawn", tx)
	assert.Equal(t, []cancelCall{{hash: "0xhash", amount: "9"}}, bzx.withdraws)

	tx, err = p.DoLoanClose(context.Background(), CloseLoanRequest{LoanOrderHash: "0xHASH"})
	require.NoError(t, err)
	assert.Equal(t, "0xclosed", tx)
	assert.Equal(t, []string{"0xhash"}, bzx.closes)

	tx, err = p.DoLoanTradeWithCurrentAsset(context.Background(), TradeRequest{LoanOrderHash: "0xHASH", Asset: testShareYes})
	require.NoError(t, err)
	assert.Equal(t, "0xtraded", tx)
	assert.Equal(t, [][2]string{{"0xhash", strings.ToLower(testShareYes)}}, bzx.trades)
}

// =============================
// Forms & accessors
// =============================

func TestFormDefaultsAndOptions(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	defaults := p.GetLendFormDefaults()
	assert.Equal(t, "1", defaults.Qty)
	assert.Equal(t, 30, defaults.InterestRate)
	assert.Equal(t, 10, defaults.Duration)
	assert.Equal(t, 2, defaults.Ratio)
	assert.True(t, defaults.PushOnChain)
	assert.Equal(t, defaults, p.GetBorrowFormDefaults())

	options := p.GetLendFormOptions()
	assert.Equal(t, []string{"Shark", "Veil"}, options.Relays)
	assert.Equal(t, []int{1, 2, 4}, options.Ratios)
	assert.Equal(t, 1, options.InterestRateMin)
	assert.Equal(t, 100, options.InterestRateMax)
	assert.Equal(t, 1, options.DurationMin)
	assert.Equal(t, 28, options.DurationMax)
	assert.Equal(t, options, p.GetBorrowFormOptions())

	quick := p.GetQuickPositionFormDefaults()
	assert.Equal(t, position.TypeLong, quick.PositionType)
	assert.Equal(t, 2, quick.Ratio)
	assert.Equal(t, []int{1, 2, 4}, p.GetQuickPositionFormOptions().Ratios)
}

func TestTokenNameAndWethCheck(t *testing.T) {
	bzx := &stubLending{oracles: bothOracles()}
	p := newTestProvider(t, bzx, defaultMarkets())

	weth := DefaultConfig().WETHAddress
	assert.True(t, p.IsWethToken(weth))
	assert.True(t, p.IsWethToken(strings.ToUpper(weth)))
	assert.False(t, p.IsWethToken(testShareYes))

	assert.Equal(t, "WETH", p.GetTokenNameFromAddress(weth))
	assert.Equal(t, "Augur token", p.GetTokenNameFromAddress(testShareYes))
}
