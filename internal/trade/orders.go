package trade

import (
	"context"
	"fmt"

	"github.com/MetaRPC/PyMT5-sub000/internal/capability"
)

// OrderSend places a new order.
func (c *Client) OrderSend(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	body := capability.Fields{}
	body.Set(req.Symbol, "symbol")
	body.Set(req.Type, "operation", "order_type")
	body.Set(req.Volume, "volume", "lots")
	if req.Price > 0 {
		body.Set(req.Price, "price")
	}
	if req.StopLoss > 0 {
		body.Set(req.StopLoss, "stop_loss", "sl")
	}
	if req.TakeProfit > 0 {
		body.Set(req.TakeProfit, "take_profit", "tp")
	}
	if req.Comment != "" {
		body.Set(req.Comment, "comment")
	}

	resp, err := c.call(ctx, capability.TradeFunctions,
		[]string{"OrderSend", "SendOrder"}, body)
	if err != nil {
		return nil, fmt.Errorf("order send: %w", err)
	}
	return orderResult(resp)
}

// OrderModify changes the stop loss and take profit of an open order.
func (c *Client) OrderModify(ctx context.Context, ticket uint64, stopLoss, takeProfit float64) (*OrderResult, error) {
	body := capability.Fields{}
	body.Set(ticket, "ticket", "order_ticket")
	if stopLoss > 0 {
		body.Set(stopLoss, "stop_loss", "sl")
	}
	if takeProfit > 0 {
		body.Set(takeProfit, "take_profit", "tp")
	}

	resp, err := c.call(ctx, capability.TradeFunctions,
		[]string{"OrderModify", "ModifyOrder"}, body)
	if err != nil {
		return nil, fmt.Errorf("order modify %d: %w", ticket, err)
	}
	return orderResult(resp)
}

// OrderClose closes an open order. Volume 0 closes the full position.
func (c *Client) OrderClose(ctx context.Context, ticket uint64, volume float64) (*OrderResult, error) {
	body := capability.Fields{}
	body.Set(ticket, "ticket", "order_ticket")
	if volume > 0 {
		body.Set(volume, "volume", "lots")
	}

	resp, err := c.call(ctx, capability.TradeFunctions,
		[]string{"OrderClose", "CloseOrder", "PositionClose"}, body)
	if err != nil {
		return nil, fmt.Errorf("order close %d: %w", ticket, err)
	}
	return orderResult(resp)
}

// orderResult decodes a trade response and turns rejection retcodes into
// errors. A response without a retcode is treated as done: reduced gateways
// omit it on success.
func orderResult(resp capability.Fields) (*OrderResult, error) {
	res := &OrderResult{}
	if v, ok := resp.GetInt("ticket", "order", "order_ticket"); ok {
		res.Ticket = uint64(v)
	}
	if v, ok := resp.GetInt("retcode", "return_code"); ok {
		res.Retcode = v
	}
	if v, ok := resp.GetFloat("price"); ok {
		res.Price = v
	}
	if v, ok := resp.GetString("comment"); ok {
		res.Comment = v
	}

	if res.Retcode != 0 && res.Retcode != retcodeDone {
		return res, fmt.Errorf("%w: retcode %d %s", ErrOrderRejected, res.Retcode, res.Comment)
	}
	return res, nil
}
