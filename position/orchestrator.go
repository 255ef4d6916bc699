// Package position assembles leveraged long/short positions on outcome share
// tokens: it locates counter-liquidity on the market's order book, borrows
// the required funds from the lending protocol, and trades the borrowed funds
// through the protocol oracle.
package position

import (
	"context"
	"fmt"
	"strings"

	"bzxwidget/amount"
	"bzxwidget/client"
	"bzxwidget/liquidity"
	"bzxwidget/logger"
	"bzxwidget/market"
	"bzxwidget/order"
)

type Type string

const (
	TypeLong  Type = "long"
	TypeShort Type = "short"
)

type Lending interface {
	GetOrdersFillable(ctx context.Context, query client.OrdersFillableQuery) ([]client.FillableOrder, error)
	TakeLoanOrderOnChainAsTrader(ctx context.Context, loanOrderHash, collateralTokenAddress, loanTokenAmountFilled, tradeTokenToFillAddress string, withdrawOnOpen bool, txOpts client.TxOpts) (*client.TxReceipt, error)
	TradePositionWithOracle(ctx context.Context, orderHash, tradeTokenAddress string, txOpts client.TxOpts) (*client.TxReceipt, error)
}

type Markets interface {
	GetOrders(ctx context.Context, query client.OrderBookQuery) ([]client.MarketOrder, error)
	GetOrderPrice(ctx context.Context, orderID string) (string, error)
}

type Request struct {
	Asset       string
	Qty         string
	Ratio       int
	Type        Type
	PushOnChain bool
}

type Orchestrator struct {
	bzx      Lending
	augur    Markets
	log      *logger.Logger
	pageSize int
}

func NewOrchestrator(bzx Lending, augur Markets, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		bzx:      bzx,
		augur:    augur,
		log:      log,
		pageSize: liquidity.DefaultPageSize,
	}
}

// Open drives a leveraged position to completion and returns the transaction
// hash of the final trade. The flow is a strict sequence of on-chain steps
// with no compensation logic: a failure mid-sequence aborts the remainder and
// leaves already-submitted transactions in their final on-chain state.
func (o *Orchestrator) Open(ctx context.Context, snap market.Snapshot, req Request, txOpts client.TxOpts) (string, error) {
	if err := validate(snap, req); err != nil {
		return "", err
	}

	switch req.Type {
	case TypeLong:
		return o.openLong(ctx, snap, req, txOpts)
	case TypeShort:
		return o.openShort(ctx, snap, req, txOpts)
	default:
		return "", &order.ValidationError{Reason: "unknown position type: " + string(req.Type)}
	}
}

func validate(snap market.Snapshot, req Request) error {
	if req.Asset == "" {
		return &order.ValidationError{Reason: "asset is not selected"}
	}
	if snap.IsWeth(req.Asset) {
		return &order.ValidationError{Reason: "unable open quick position with ETH"}
	}
	if !req.PushOnChain {
		return &order.ValidationError{Reason: "pushing to relay is not yet supported"}
	}
	if req.Type == TypeLong && req.Ratio == 1 {
		return &order.ValidationError{
			Reason: "unable to open long position with 1x leverage (your margin will be equal to leveraged funds)",
		}
	}
	return nil
}

// openLong buys outcome shares with borrowed WETH: find the lowest asks on
// the outcome book, price the required WETH, borrow it from lend orders, and
// trade the borrowed WETH into the share token.
func (o *Orchestrator) openLong(ctx context.Context, snap market.Snapshot, req Request, txOpts client.TxOpts) (string, error) {
	shares, err := amount.New(req.Qty)
	if err != nil {
		return "", &order.ValidationError{Reason: "invalid quantity: " + req.Qty}
	}

	sellOrders, err := o.findLowestAskSellOrders(ctx, snap, req.Asset, shares)
	if err != nil {
		return "", fmt.Errorf("not enough liquidity (augur outcome): %w", err)
	}

	borrowEth, err := o.ethAmountToBorrow(ctx, sellOrders, shares)
	if err != nil {
		return "", err
	}
	borrowWei := borrowEth.Mul(amount.WeiPerEther).Ceil()
	o.log.Info("borrow_amount_computed", "eth", borrowEth.String(), "wei", borrowWei.BaseUnits())

	lendOrders, err := o.findLendOrders(ctx, snap, snap.WETHAddress, borrowWei)
	if err != nil {
		return "", fmt.Errorf("not enough liquidity (bzx lend orders): %w", err)
	}

	if err := o.takeLendOrders(ctx, lendOrders, borrowWei, snap, txOpts); err != nil {
		return "", err
	}
	return o.tradeTakenOrders(ctx, lendOrders, req.Asset, txOpts)
}

// openShort borrows the share token itself and sells it through the oracle
// for WETH, so no counter-liquidity lookup is needed up front.
func (o *Orchestrator) openShort(ctx context.Context, snap market.Snapshot, req Request, txOpts client.TxOpts) (string, error) {
	borrowWei, err := amount.FromEther(req.Qty)
	if err != nil {
		return "", &order.ValidationError{Reason: "invalid quantity: " + req.Qty}
	}

	lendOrders, err := o.findLendOrders(ctx, snap, req.Asset, borrowWei)
	if err != nil {
		return "", fmt.Errorf("not enough liquidity (bzx lend orders): %w", err)
	}

	if err := o.takeLendOrders(ctx, lendOrders, borrowWei, snap, txOpts); err != nil {
		return "", err
	}
	return o.tradeTakenOrders(ctx, lendOrders, snap.WETHAddress, txOpts)
}

// findLowestAskSellOrders matches the requested share quantity against the
// outcome's open sell book, cheapest price first.
func (o *Orchestrator) findLowestAskSellOrders(ctx context.Context, snap market.Snapshot, shareTokenAddress string, shares amount.Amount) ([]client.MarketOrder, error) {
	outcome, ok := snap.OutcomeNumber(shareTokenAddress)
	if !ok {
		return nil, &order.ValidationError{Reason: "selected asset is not an outcome of the current market"}
	}

	fetch := func(ctx context.Context, start, count int) ([]liquidity.Order, error) {
		// the node returns the whole single-side book in one response
		if start > 0 {
			return nil, nil
		}
		book, err := o.augur.GetOrders(ctx, client.OrderBookQuery{
			MarketID:   snap.MarketID,
			Outcome:    outcome,
			OrderType:  "sell",
			OrderState: "OPEN",
			SortBy:     "price",
		})
		if err != nil {
			return nil, err
		}
		orders := make([]liquidity.Order, 0, len(book))
		for _, entry := range book {
			fillable, err := amount.New(entry.FullPrecisionAmount)
			if err != nil {
				continue
			}
			orders = append(orders, liquidity.Order{ID: entry.OrderID, Fillable: fillable, Ref: entry})
		}
		return orders, nil
	}

	result, err := liquidity.Match(ctx, fetch, liquidity.Request{Target: shares})
	if err != nil {
		return nil, err
	}

	selected := make([]client.MarketOrder, len(result.Orders))
	for i, matched := range result.Orders {
		selected[i] = matched.Ref.(client.MarketOrder)
	}
	return selected, nil
}

// ethAmountToBorrow prices the selected sell orders: each order contributes
// amountTaken / price in ETH terms.
func (o *Orchestrator) ethAmountToBorrow(ctx context.Context, sellOrders []client.MarketOrder, shares amount.Amount) (amount.Amount, error) {
	remaining := shares
	borrow := amount.Zero()
	for _, entry := range sellOrders {
		fillable, err := amount.New(entry.FullPrecisionAmount)
		if err != nil {
			continue
		}
		take := amount.Min(fillable, remaining)
		if take.IsZero() {
			break
		}

		priceStr, err := o.augur.GetOrderPrice(ctx, entry.OrderID)
		if err != nil {
			return amount.Zero(), err
		}
		price, err := amount.New(priceStr)
		if err != nil {
			return amount.Zero(), fmt.Errorf("bad order price %q: %w", priceStr, err)
		}
		cost, err := take.Div(price)
		if err != nil {
			return amount.Zero(), order.ErrNotEnoughLiquidity
		}

		remaining = remaining.Sub(take)
		borrow = borrow.Add(cost)
	}
	return borrow, nil
}

// findLendOrders matches the borrow amount against fillable lend orders for
// the given token on the market's oracle, cheapest effective interest first,
// excluding the caller's own orders.
func (o *Orchestrator) findLendOrders(ctx context.Context, snap market.Snapshot, tokenAddress string, target amount.Amount) ([]client.FillableOrder, error) {
	oracle := strings.ToLower(snap.OracleAddress)
	token := strings.ToLower(tokenAddress)
	account := strings.ToLower(snap.Account)

	fetch := func(ctx context.Context, start, count int) ([]liquidity.Order, error) {
		page, err := o.bzx.GetOrdersFillable(ctx, client.OrdersFillableQuery{
			Start:        start,
			Count:        count,
			OracleFilter: oracle,
		})
		if err != nil {
			return nil, err
		}
		orders := make([]liquidity.Order, 0, len(page))
		for _, entry := range page {
			fillable, err := amount.New(entry.LoanTokenAmount)
			if err != nil {
				continue
			}
			orders = append(orders, liquidity.Order{ID: entry.LoanOrderHash, Fillable: fillable, Ref: entry})
		}
		return orders, nil
	}

	result, err := liquidity.Match(ctx, fetch, liquidity.Request{
		Target:   target,
		PageSize: o.pageSize,
		Filter: func(candidate liquidity.Order) bool {
			entry := candidate.Ref.(client.FillableOrder)
			return strings.ToLower(entry.OracleAddress) == oracle &&
				strings.ToLower(entry.LoanTokenAddress) == token &&
				strings.ToLower(entry.MakerAddress) != account
		},
		Less: lessByEffectiveInterest,
	})
	if err != nil {
		return nil, err
	}

	selected := make([]client.FillableOrder, len(result.Orders))
	for i, matched := range result.Orders {
		selected[i] = matched.Ref.(client.FillableOrder)
	}
	return selected, nil
}

// lessByEffectiveInterest sorts by interest-to-principal ratio ascending,
// then larger principal first to minimize the number of orders taken.
func lessByEffectiveInterest(a, b liquidity.Order) bool {
	ea := a.Ref.(client.FillableOrder)
	eb := b.Ref.(client.FillableOrder)

	costA := effectiveInterest(ea)
	costB := effectiveInterest(eb)
	if cmp := costA.Cmp(costB); cmp != 0 {
		return cmp < 0
	}
	return b.Fillable.LessThan(a.Fillable)
}

func effectiveInterest(entry client.FillableOrder) amount.Amount {
	interest, err := amount.New(entry.InterestAmount)
	if err != nil {
		return amount.Zero()
	}
	principal, err := amount.New(entry.LoanTokenAmount)
	if err != nil {
		return amount.Zero()
	}
	ratio, err := interest.Div(principal)
	if err != nil {
		return amount.Zero()
	}
	return ratio
}

// takeLendOrders takes loans in order until the borrow amount is covered.
// Liquidity was pre-verified by the matcher, but an exhausted list stops the
// loop rather than failing: on-chain state can always have moved.
func (o *Orchestrator) takeLendOrders(ctx context.Context, lendOrders []client.FillableOrder, target amount.Amount, snap market.Snapshot, txOpts client.TxOpts) error {
	remaining := target
	for _, entry := range lendOrders {
		capacity, err := amount.New(entry.LoanTokenAmount)
		if err != nil {
			continue
		}
		take := amount.Min(capacity, remaining)
		if take.IsZero() {
			break
		}

		o.log.Info("taking_lend_order", "hash", entry.LoanOrderHash, "amount", take.BaseUnits())
		receipt, err := o.bzx.TakeLoanOrderOnChainAsTrader(
			ctx,
			strings.ToLower(entry.LoanOrderHash),
			strings.ToLower(snap.WETHAddress),
			take.BaseUnits(),
			client.ZeroAddress,
			false,
			txOpts,
		)
		if err != nil {
			return fmt.Errorf("take loan order %s: %w", entry.LoanOrderHash, err)
		}
		o.log.Info("lend_order_taken", "hash", entry.LoanOrderHash, "tx", receipt.TransactionHash)

		remaining = remaining.Sub(take)
		if remaining.Sign() <= 0 {
			break
		}
	}
	return nil
}

// tradeTakenOrders trades each taken loan through the oracle into the target
// asset: the share token when going long, WETH when going short.
func (o *Orchestrator) tradeTakenOrders(ctx context.Context, lendOrders []client.FillableOrder, tradeTokenAddress string, txOpts client.TxOpts) (string, error) {
	lastTx := ""
	for _, entry := range lendOrders {
		o.log.Info("trading_position", "hash", entry.LoanOrderHash, "trade_token", tradeTokenAddress)
		receipt, err := o.bzx.TradePositionWithOracle(
			ctx,
			strings.ToLower(entry.LoanOrderHash),
			strings.ToLower(tradeTokenAddress),
			txOpts,
		)
		if err != nil {
			return "", fmt.Errorf("trade position %s: %w", entry.LoanOrderHash, err)
		}
		lastTx = receipt.TransactionHash
	}
	return lastTx, nil
}
