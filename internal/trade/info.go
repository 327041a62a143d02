package trade

import (
	"context"
	"fmt"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
)

// Quote fetches the current tick for a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*Quote, error) {
	body := capability.Fields{}
	body.Set(symbol, "symbol")

	resp, err := c.call(ctx, capability.MarketInfo,
		[]string{"SymbolInfoTick", "GetTick"}, body)
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}

	q := &Quote{Symbol: symbol}
	q.Bid, _ = resp.GetFloat("bid")
	q.Ask, _ = resp.GetFloat("ask")
	q.Last, _ = resp.GetFloat("last")
	q.Volume, _ = resp.GetFloat("volume")
	q.Time, _ = resp.GetInt("time")
	return q, nil
}

// SymbolParams fetches the trading parameters of a symbol.
func (c *Client) SymbolParams(ctx context.Context, symbol string) (*SymbolParams, error) {
	body := capability.Fields{}
	body.Set(symbol, "symbol")

	resp, err := c.call(ctx, capability.MarketInfo,
		[]string{"SymbolParams", "SymbolInfo"}, body)
	if err != nil {
		return nil, fmt.Errorf("symbol params %s: %w", symbol, err)
	}

	p := &SymbolParams{Symbol: symbol}
	p.Digits, _ = resp.GetInt("digits")
	p.Point, _ = resp.GetFloat("point")
	p.VolumeMin, _ = resp.GetFloat("volume_min")
	p.VolumeMax, _ = resp.GetFloat("volume_max")
	p.VolumeStep, _ = resp.GetFloat("volume_step")
	return p, nil
}

// OpenedOrders fetches the currently open orders.
func (c *Client) OpenedOrders(ctx context.Context) ([]Order, error) {
	resp, err := c.call(ctx, capability.AccountHelper,
		[]string{"OpenedOrders", "GetOpenedOrders"}, nil)
	if err != nil {
		return nil, fmt.Errorf("opened orders: %w", err)
	}
	return decodeOrders(resp), nil
}

// historyPageSize is the page size requested from the history endpoint.
const historyPageSize = 500

// OrderHistory fetches the full order history for the given unix-ms time
// range by paginating through results.
func (c *Client) OrderHistory(ctx context.Context, from, to int64) ([]Order, error) {
	var all []Order
	offset := int64(0)

	for {
		body := capability.Fields{}
		body.Set(from, "from", "time_from")
		body.Set(to, "to", "time_to")
		body.Set(historyPageSize, "limit", "page_size")
		body.Set(offset, "offset")

		resp, err := c.call(ctx, capability.AccountHelper,
			[]string{"OrderHistory", "OrdersHistory", "HistoryOrders"}, body)
		if err != nil {
			return nil, fmt.Errorf("order history: %w", err)
		}

		page := decodeOrders(resp)
		all = append(all, page...)

		if len(page) < historyPageSize {
			break
		}
		offset += int64(len(page))
	}

	return all, nil
}

// decodeOrders extracts the order list from a response body, tolerant to
// the list key and per-order field spellings.
func decodeOrders(resp capability.Fields) []Order {
	raw, ok := resp.Get("orders", "order_infos", "items")
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}

	orders := make([]Order, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := capability.Fields(m)

		var o Order
		if v, ok := f.GetInt("ticket", "order_ticket"); ok {
			o.Ticket = uint64(v)
		}
		o.Symbol, _ = f.GetString("symbol")
		o.Type, _ = f.GetString("type", "order_type")
		o.Volume, _ = f.GetFloat("volume", "lots")
		o.PriceOpen, _ = f.GetFloat("price_open", "open_price")
		o.StopLoss, _ = f.GetFloat("stop_loss", "sl")
		o.TakeProfit, _ = f.GetFloat("take_profit", "tp")
		o.Profit, _ = f.GetFloat("profit")
		o.Comment, _ = f.GetString("comment")
		orders = append(orders, o)
	}
	return orders
}
