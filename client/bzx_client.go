package client

import (
	"context"
	"errors"
)

var ErrNoSigner = errors.New("no signer configured and node refused to sign")

// BZxClient wraps the bZx protocol gateway. Read methods filter and page
// protocol state; write methods submit transactions and return receipts.
// Nothing here retries: a failed on-chain call is final and the caller must
// inspect resulting state before retrying.
type BZxClient struct {
	*Client
	signer *OrderSigner
}

func NewBZxClient(gatewayUrl string) *BZxClient {
	return &BZxClient{Client: NewClient(gatewayUrl)}
}

// SetSigner configures local order-hash signing. Without it, signing is
// delegated to the node behind the gateway.
func (c *BZxClient) SetSigner(signer *OrderSigner) {
	c.signer = signer
}

func (c *BZxClient) GetOracleList(ctx context.Context) ([]OracleInfo, error) {
	var oracles []OracleInfo
	if err := c.call(ctx, "bzx_getOracleList", []interface{}{}, &oracles); err != nil {
		return nil, err
	}
	return oracles, nil
}

func (c *BZxClient) GetOrdersFillable(ctx context.Context, query OrdersFillableQuery) ([]FillableOrder, error) {
	var orders []FillableOrder
	if err := c.call(ctx, "bzx_getOrdersFillable", []interface{}{query}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *BZxClient) GetLoansForLender(ctx context.Context, query LoansQuery) ([]Loan, error) {
	var loans []Loan
	if err := c.call(ctx, "bzx_getLoansForLender", []interface{}{query}, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (c *BZxClient) GetLoansForTrader(ctx context.Context, query LoansQuery) ([]Loan, error) {
	var loans []Loan
	if err := c.call(ctx, "bzx_getLoansForTrader", []interface{}{query}, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

func (c *BZxClient) GetSingleOrder(ctx context.Context, loanOrderHash string) (*FillableOrder, error) {
	var order FillableOrder
	if err := c.call(ctx, "bzx_getSingleOrder", []interface{}{loanOrderHash}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *BZxClient) GetMarginLevels(ctx context.Context, loanOrderHash, trader string) (*MarginLevels, error) {
	var levels MarginLevels
	params := map[string]string{"loanOrderHash": loanOrderHash, "trader": trader}
	if err := c.call(ctx, "bzx_getMarginLevels", []interface{}{params}, &levels); err != nil {
		return nil, err
	}
	return &levels, nil
}

func (c *BZxClient) GetPositionOffset(ctx context.Context, loanOrderHash, trader string) (*PositionOffset, error) {
	var offset PositionOffset
	params := map[string]string{"loanOrderHash": loanOrderHash, "trader": trader}
	if err := c.call(ctx, "bzx_getPositionOffset", []interface{}{params}, &offset); err != nil {
		return nil, err
	}
	return &offset, nil
}

func (c *BZxClient) GetConversionData(ctx context.Context, sourceToken, destToken, sourceAmount, oracleAddress string) (*ConversionData, error) {
	var conv ConversionData
	params := map[string]string{
		"sourceTokenAddress": sourceToken,
		"destTokenAddress":   destToken,
		"sourceTokenAmount":  sourceAmount,
		"oracleAddress":      oracleAddress,
	}
	if err := c.call(ctx, "bzx_getConversionData", []interface{}{params}, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (c *BZxClient) SetAllowanceUnlimited(ctx context.Context, tokenAddress, ownerAddress, spenderAddress string, txOpts TxOpts) (*TxReceipt, error) {
	params := map[string]interface{}{
		"tokenAddress":   tokenAddress,
		"ownerAddress":   ownerAddress,
		"spenderAddress": spenderAddress,
		"txOpts":         txOpts,
	}
	return c.submit(ctx, "bzx_setAllowanceUnlimited", params)
}

func (c *BZxClient) SignOrderHash(ctx context.Context, orderHash, signerAddress string) (string, error) {
	if c.signer != nil {
		return c.signer.SignOrderHash(orderHash)
	}

	var signature string
	params := map[string]string{"orderHash": orderHash, "signerAddress": signerAddress}
	if err := c.call(ctx, "bzx_signOrderHash", []interface{}{params}, &signature); err != nil {
		return "", err
	}
	if signature == "" {
		return "", ErrNoSigner
	}
	return signature, nil
}

func (c *BZxClient) PushLoanOrderOnChain(ctx context.Context, order LoanOrderFields, signature, oracleData string, txOpts TxOpts) (*TxReceipt, error) {
	params := map[string]interface{}{
		"order":      order,
		"signature":  signature,
		"oracleData": oracleData,
		"txOpts":     txOpts,
	}
	return c.submit(ctx, "bzx_pushLoanOrderOnChain", params)
}

func (c *BZxClient) TakeLoanOrderOnChainAsLender(ctx context.Context, loanOrderHash string, txOpts TxOpts) (*TxReceipt, error) {
	params := map[string]interface{}{
		"loanOrderHash": loanOrderHash,
		"txOpts":        txOpts,
	}
	return c.submit(ctx, "bzx_takeLoanOrderOnChainAsLender", params)
}

func (c *BZxClient) TakeLoanOrderOnChainAsTrader(ctx context.Context, loanOrderHash, collateralTokenAddress, loanTokenAmountFilled, tradeTokenToFillAddress string, withdrawOnOpen bool, txOpts TxOpts) (*TxReceipt, error) {
	params := map[string]interface{}{
		"loanOrderHash":           loanOrderHash,
		"collateralTokenAddress":  collateralTokenAddress,
		"loanTokenAmountFilled":   loanTokenAmountFilled,
		"tradeTokenToFillAddress": tradeTokenToFillAddress,
		"withdrawOnOpen":          withdrawOnOpen,
		"txOpts":                  txOpts,
	}
	return c.submit(ctx, "bzx_takeLoanOrderOnChainAsTrader", params)
}

func (c *BZxClient) TradePositionWithOracle(ctx context.Context, orderHash, tradeTokenAddress string, txOpts TxOpts) (*TxReceipt, error) {
	params := map[string]interface{}{
		"orderHash":         orderHash,
		"tradeTokenAddress": tradeTokenAddress,
		"txOpts":            txOpts,
	}
	return c.submit(ctx, "bzx_tradePositionWithOracle", params)
}

func (c *BZxClient) CancelLoanOrderWithHash(ctx context.Context, loanOrderHash, cancelLoanTokenAmount string, txOpts TxOpts) (*TxReceipt, error) {
	params := map[string]interface{}{
		"loanOrderHash":         loanOrderHash,
		"cancelLoanTokenAmount": cancelLoanTokenAmount,
		"txOpts":                txOpts,
	}
	return c.submit(ctx, "bzx_cancelLoanOrderWithHash", params)
}

func (c *BZxClient) WithdrawPosition(ctx context.Context, loanOrderHash, withdrawAmount string, txOpts TxOpts) (*TxReceipt, error) {
	params := map[string]interface{}{
		"loanOrderHash":  loanOrderHash,
		"withdrawAmount": withdrawAmount,
		"txOpts":         txOpts,
	}
	return c.submit(ctx, "bzx_withdrawPosition", params)
}

func (c *BZxClient) CloseLoan(ctx context.Context, loanOrderHash string, txOpts TxOpts) (*TxReceipt, error) {
	params := map[string]interface{}{
		"loanOrderHash": loanOrderHash,
		"txOpts":        txOpts,
	}
	return c.submit(ctx, "bzx_closeLoan", params)
}

func (c *BZxClient) submit(ctx context.Context, method string, params map[string]interface{}) (*TxReceipt, error) {
	var receipt TxReceipt
	if err := c.call(ctx, method, []interface{}{params}, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}
