package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"bzxwidget/logger"
)

var ErrNotConnected = errors.New("augur node not connected")

// AugurClient speaks the Augur node websocket JSON-RPC protocol. Requests are
// serialized: one in-flight call at a time, matching the cooperative
// scheduling the provider relies on.
type AugurClient struct {
	ws     *WSClient
	logger *logger.Logger
	nextID uint64
	reqMu  sync.Mutex
}

func NewAugurClient(nodeUrl string, log *logger.Logger) *AugurClient {
	return &AugurClient{
		ws:     NewWSClient(nodeUrl, log),
		logger: log,
	}
}

func (c *AugurClient) Connect() error {
	return c.ws.Connect()
}

func (c *AugurClient) Close() error {
	return c.ws.Close()
}

func (c *AugurClient) GetMarketsInfo(ctx context.Context, marketIDs []string) ([]MarketInfo, error) {
	var markets []MarketInfo
	params := map[string]interface{}{"marketIds": marketIDs}
	if err := c.call(ctx, "getMarketsInfo", params, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// GetShareToken resolves the share-token contract address for one outcome of
// a market.
func (c *AugurClient) GetShareToken(ctx context.Context, marketID string, outcome int) (string, error) {
	var address string
	params := map[string]interface{}{"marketId": marketID, "outcome": outcome}
	if err := c.call(ctx, "getShareToken", params, &address); err != nil {
		return "", err
	}
	return address, nil
}

// GetOrders queries one side of an outcome's open order book. The node
// returns orders nested market -> outcome -> side -> orderId; the flattened
// result is sorted by price according to the query. A market absent from the
// response is empty liquidity, not an error.
func (c *AugurClient) GetOrders(ctx context.Context, query OrderBookQuery) ([]MarketOrder, error) {
	var book map[string]map[string]map[string]map[string]MarketOrder
	if err := c.call(ctx, "getOrders", query, &book); err != nil {
		return nil, err
	}

	byOutcome, ok := book[query.MarketID]
	if !ok {
		return nil, nil
	}

	var orders []MarketOrder
	for _, bySide := range byOutcome {
		for id, order := range bySide[query.OrderType] {
			if order.OrderID == "" {
				order.OrderID = id
			}
			orders = append(orders, order)
		}
	}

	if query.SortBy == "price" {
		sort.SliceStable(orders, func(i, j int) bool {
			pi, erri := decimal.NewFromString(orders[i].Price)
			pj, errj := decimal.NewFromString(orders[j].Price)
			if erri != nil || errj != nil {
				return false
			}
			if query.IsSortDescending {
				return pi.GreaterThan(pj)
			}
			return pi.LessThan(pj)
		})
	}

	return orders, nil
}

// GetOrderPrice returns the execution price of a single order as a decimal
// string.
func (c *AugurClient) GetOrderPrice(ctx context.Context, orderID string) (string, error) {
	var price string
	params := map[string]interface{}{"orderId": orderID}
	if err := c.call(ctx, "getOrderPrice", params, &price); err != nil {
		return "", err
	}
	return price, nil
}

func (c *AugurClient) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	id := atomic.AddUint64(&c.nextID, 1)
	req := rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := c.ws.WriteJSON(req); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}

		var resp rpcResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Debug("augur_skip_frame", "err", err)
			continue
		}
		if resp.ID != id {
			// unsolicited push or a stale reply, not ours
			continue
		}
		if resp.Error != nil {
			return fmt.Errorf("%s: %w", resp.Error.Error(), ErrRPCFailure)
		}
		if result != nil && len(resp.Result) > 0 {
			return json.Unmarshal(resp.Result, result)
		}
		return nil
	}
}
