package provider

import (
	"context"
	"sort"
	"strings"
	"sync"

	"bzxwidget/client"
)

// OrderFilter narrows a fillable-order listing; OrderLess orders it.
type OrderFilter func(order client.FillableOrder) bool

type OrderLess func(a, b client.FillableOrder) bool

// ListLoansActive merges the account's loans as lender and as trader,
// restricted to the current market's assets, most recent first. The two
// protocol queries are independent reads and are issued together.
func (p *Provider) ListLoansActive(ctx context.Context, maxCount int) ([]client.Loan, error) {
	snap := p.snapshot()
	query := client.LoansQuery{
		Address:    strings.ToLower(snap.Account),
		Count:      maxCount,
		ActiveOnly: true,
	}

	var (
		wg          sync.WaitGroup
		lenderLoans []client.Loan
		traderLoans []client.Loan
		lenderErr   error
		traderErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		lenderLoans, lenderErr = p.bzx.GetLoansForLender(ctx, query)
	}()
	go func() {
		defer wg.Done()
		traderLoans, traderErr = p.bzx.GetLoansForTrader(ctx, query)
	}()
	wg.Wait()
	if lenderErr != nil {
		return nil, lenderErr
	}
	if traderErr != nil {
		return nil, traderErr
	}

	loans := make([]client.Loan, 0, len(lenderLoans)+len(traderLoans))
	for _, loan := range append(lenderLoans, traderLoans...) {
		if snap.HasAsset(loan.LoanTokenAddress) {
			loans = append(loans, loan)
		}
	}

	sort.SliceStable(loans, func(i, j int) bool {
		return loans[i].LoanStartUnixSec > loans[j].LoanStartUnixSec
	})

	if len(loans) > maxCount {
		loans = loans[:maxCount]
	}
	return loans, nil
}

// ListLoanOrdersBidsAvailable lists fillable orders whose maker is a lender
// (lending proposals): these carry no collateral token.
func (p *Provider) ListLoanOrdersBidsAvailable(ctx context.Context, filter OrderFilter, less OrderLess, maxCount int) ([]client.FillableOrder, error) {
	return p.listFillable(ctx, filter, less, maxCount, func(order client.FillableOrder) bool {
		return strings.EqualFold(order.CollateralTokenAddress, client.ZeroAddress)
	})
}

// ListLoanOrdersAsksAvailable lists fillable orders whose maker is a borrower
// (lending requests): these name a collateral token.
func (p *Provider) ListLoanOrdersAsksAvailable(ctx context.Context, filter OrderFilter, less OrderLess, maxCount int) ([]client.FillableOrder, error) {
	return p.listFillable(ctx, filter, less, maxCount, func(order client.FillableOrder) bool {
		return !strings.EqualFold(order.CollateralTokenAddress, client.ZeroAddress)
	})
}

func (p *Provider) listFillable(ctx context.Context, filter OrderFilter, less OrderLess, maxCount int, side OrderFilter) ([]client.FillableOrder, error) {
	snap := p.snapshot()
	pageSize := p.cfg.ListPageSize

	var results []client.FillableOrder
	for start := 0; ; {
		page, err := p.bzx.GetOrdersFillable(ctx, client.OrdersFillableQuery{
			Start:        start,
			Count:        pageSize,
			OracleFilter: strings.ToLower(snap.OracleAddress),
		})
		if err != nil {
			return nil, err
		}
		start += len(page)

		for _, order := range page {
			if filter != nil && !filter(order) {
				continue
			}
			if !side(order) {
				continue
			}
			if !snap.HasAsset(order.LoanTokenAddress) {
				continue
			}
			results = append(results, order)
		}

		// a short page is the end of supply, not an error
		if len(page) < pageSize {
			break
		}
	}

	if less != nil {
		sort.SliceStable(results, func(i, j int) bool { return less(results[i], results[j]) })
	}
	if len(results) > maxCount {
		results = results[:maxCount]
	}
	return results, nil
}

func (p *Provider) GetMarginLevels(ctx context.Context, loanOrderHash string) (*client.MarginLevels, error) {
	return p.bzx.GetMarginLevels(ctx, strings.ToLower(loanOrderHash), p.snapshot().Account)
}

func (p *Provider) GetPositionOffset(ctx context.Context, loanOrderHash string) (*client.PositionOffset, error) {
	return p.bzx.GetPositionOffset(ctx, strings.ToLower(loanOrderHash), p.snapshot().Account)
}

func (p *Provider) GetSingleOrder(ctx context.Context, loanOrderHash string) (*client.FillableOrder, error) {
	order, err := p.bzx.GetSingleOrder(ctx, strings.ToLower(loanOrderHash))
	if err != nil {
		p.log.Error("get_single_order_failed", "hash", loanOrderHash, "err", err)
		return nil, ErrRequestFailed
	}
	return order, nil
}
