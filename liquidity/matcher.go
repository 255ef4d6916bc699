// Package liquidity selects a minimal set of fillable orders whose combined
// capacity covers a target amount, fetching candidates page by page from a
// protocol order supply.
package liquidity

import (
	"context"
	"fmt"
	"sort"

	"bzxwidget/amount"
)

const DefaultPageSize = 100

// Order is a matcher-side view of one fillable order from either protocol.
// Ref carries the underlying protocol record so callers can recover it from
// the result.
type Order struct {
	ID       string
	Fillable amount.Amount
	Ref      interface{}
}

// FetchPage returns up to count candidate orders starting at offset start. A
// short or empty page signals the end of available supply, never an error.
type FetchPage func(ctx context.Context, start, count int) ([]Order, error)

type Request struct {
	Target   amount.Amount
	PageSize int
	// Filter drops ineligible candidates (wrong oracle or asset, the
	// caller's own orders). Nil keeps everything.
	Filter func(Order) bool
	// Less orders the accumulated pool before the greedy walk. Nil keeps
	// fetch order.
	Less func(a, b Order) bool
}

// Result is the ordered covering set. Covered sums the full fillable amounts
// of the selected orders, so Covered >= the requested target.
type Result struct {
	Orders  []Order
	Covered amount.Amount
}

// InsufficientError reports that the entire eligible supply could not cover
// the target, carrying the unmet remainder.
type InsufficientError struct {
	Remainder amount.Amount
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient liquidity: %s short of target", e.Remainder)
}

// Match accumulates eligible orders until the supply runs out, sorts the pool
// with the caller's comparator, and greedily takes whole orders until their
// combined capacity covers the target. Orders are always reserved in full
// even when only part of the last one is needed; the downstream take step
// decides per-order fill amounts. A pool that cannot cover the target is an
// InsufficientError, never a silently partial result.
func Match(ctx context.Context, fetch FetchPage, req Request) (*Result, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var pool []Order
	for start := 0; ; {
		page, err := fetch(ctx, start, pageSize)
		if err != nil {
			return nil, err
		}
		start += len(page)

		for _, order := range page {
			if req.Filter != nil && !req.Filter(order) {
				continue
			}
			pool = append(pool, order)
		}

		if len(page) < pageSize {
			break
		}
	}

	if req.Less != nil {
		sort.SliceStable(pool, func(i, j int) bool { return req.Less(pool[i], pool[j]) })
	}

	remaining := req.Target
	result := &Result{Covered: amount.Zero()}
	for _, order := range pool {
		if remaining.Sign() <= 0 {
			break
		}
		take := amount.Min(order.Fillable, remaining)
		if take.IsZero() {
			// exhausted order still listed by the protocol
			continue
		}
		remaining = remaining.Sub(take)
		result.Orders = append(result.Orders, order)
		result.Covered = result.Covered.Add(order.Fillable)
	}

	if remaining.Sign() > 0 {
		return nil, &InsufficientError{Remainder: remaining}
	}

	return result, nil
}
