package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"bzxwidget/amount"
	"bzxwidget/client"
	"bzxwidget/liquidity"
	"bzxwidget/logger"
	"bzxwidget/order"
	"bzxwidget/position"
)

type TakeOrderRequest struct {
	LoanOrderHash          string
	LoanTokenAddress       string
	CollateralTokenAddress string
	Amount                 string // base units
	IsAsk                  bool
}

type CancelOrderRequest struct {
	LoanOrderHash string
	Amount        string // base units
}

type WithdrawProfitRequest struct {
	LoanOrderHash  string
	WithdrawAmount string // base units
}

type CloseLoanRequest struct {
	LoanOrderHash string
}

type TradeRequest struct {
	LoanOrderHash string
	Asset         string
}

// run is the uniform write-operation boundary: validation and liquidity
// errors surface verbatim (the caller can act on them), anything from an
// external client is logged in full and replaced with the generic message.
func (p *Provider) run(op string, fn func(log *logger.Logger) (string, error)) (string, error) {
	log := p.log.WithOp(op, uuid.NewString())

	txHash, err := fn(log)
	if err != nil {
		var validationErr *order.ValidationError
		var liquidityErr *liquidity.InsufficientError
		if errors.As(err, &validationErr) || errors.As(err, &liquidityErr) || errors.Is(err, order.ErrNotEnoughLiquidity) {
			log.Warn("operation_rejected", "reason", err)
			return "", err
		}
		log.Error("operation_failed", "err", err)
		return "", ErrRequestFailed
	}

	log.Info("operation_completed", "tx", txHash)
	return txHash, nil
}

// DoLendOrderApprove creates, signs, and pushes on-chain an order lending the
// selected asset the user already owns.
func (p *Provider) DoLendOrderApprove(ctx context.Context, in order.Inputs) (string, error) {
	return p.run("lend_order_approve", func(log *logger.Logger) (string, error) {
		return p.approveOrder(ctx, log, in, order.RoleLender, client.ZeroAddress, in.Asset)
	})
}

// DoBorrowOrderApprove creates, signs, and pushes on-chain an order borrowing
// the selected asset against WETH collateral.
func (p *Provider) DoBorrowOrderApprove(ctx context.Context, in order.Inputs) (string, error) {
	return p.run("borrow_order_approve", func(log *logger.Logger) (string, error) {
		return p.approveOrder(ctx, log, in, order.RoleTrader, p.cfg.WETHAddress, p.cfg.WETHAddress)
	})
}

func (p *Provider) approveOrder(ctx context.Context, log *logger.Logger, in order.Inputs, role order.Role, collateralToken, allowanceToken string) (string, error) {
	snap := p.snapshot()

	env := order.Env{
		Maker:                  snap.Account,
		Role:                   role,
		BZxAddress:             p.cfg.BZxAddress,
		WETHAddress:            snap.WETHAddress,
		OracleAddress:          snap.OracleAddress,
		OracleData:             snap.MarketID,
		CollateralTokenAddress: collateralToken,
		Now:                    time.Now(),
		ConversionRate: func(ctx context.Context, sourceAmount amount.Amount) (amount.Amount, error) {
			conv, err := p.bzx.GetConversionData(
				ctx,
				strings.ToLower(in.Asset),
				snap.WETHAddress,
				sourceAmount.BaseUnits(),
				strings.ToLower(snap.OracleAddress),
			)
			if err != nil {
				return amount.Zero(), err
			}
			return amount.New(conv.Rate)
		},
	}

	draft, err := order.Assemble(ctx, in, env)
	if err != nil {
		return "", err
	}

	log.Info("setting_allowance", "token", allowanceToken)
	receipt, err := p.bzx.SetAllowanceUnlimited(ctx, strings.ToLower(allowanceToken), snap.Account, strings.ToLower(p.cfg.BZxVaultAddress), p.txOpts(false))
	if err != nil {
		return "", err
	}
	log.Info("allowance_set", "tx", receipt.TransactionHash)

	orderHash := draft.Hash()
	log.Info("order_assembled", "hash", orderHash)

	signature, err := p.bzx.SignOrderHash(ctx, orderHash, snap.Account)
	if err != nil {
		return "", err
	}

	receipt, err = p.bzx.PushLoanOrderOnChain(ctx, draft.Order, signature, draft.OracleData, p.txOpts(true))
	if err != nil {
		return "", err
	}
	return receipt.TransactionHash, nil
}

// DoQuickPositionApprove opens a leveraged long or short position on the
// selected outcome share token.
func (p *Provider) DoQuickPositionApprove(ctx context.Context, req position.Request) (string, error) {
	return p.run("quick_position_approve", func(log *logger.Logger) (string, error) {
		return p.orchestrator.Open(ctx, p.snapshot(), req, p.txOpts(true))
	})
}

// DoLoanOrderTake fills an open order: as lender for asks, as trader (posting
// WETH collateral) for bids. Allowances are granted before the take; once a
// transaction is submitted it is final.
func (p *Provider) DoLoanOrderTake(ctx context.Context, req TakeOrderRequest) (string, error) {
	return p.run("loan_order_take", func(log *logger.Logger) (string, error) {
		snap := p.snapshot()
		vault := strings.ToLower(p.cfg.BZxVaultAddress)

		receipt, err := p.bzx.SetAllowanceUnlimited(ctx, snap.WETHAddress, snap.Account, vault, p.txOpts(false))
		if err != nil {
			return "", err
		}
		log.Info("weth_allowance_set", "tx", receipt.TransactionHash)

		if req.IsAsk {
			receipt, err = p.bzx.SetAllowanceUnlimited(ctx, strings.ToLower(req.LoanTokenAddress), snap.Account, vault, p.txOpts(true))
			if err != nil {
				return "", err
			}
			log.Info("loan_token_allowance_set", "tx", receipt.TransactionHash)

			receipt, err = p.bzx.TakeLoanOrderOnChainAsLender(ctx, strings.ToLower(req.LoanOrderHash), p.txOpts(true))
			if err != nil {
				return "", err
			}
			return receipt.TransactionHash, nil
		}

		receipt, err = p.bzx.SetAllowanceUnlimited(ctx, strings.ToLower(req.CollateralTokenAddress), snap.Account, vault, p.txOpts(true))
		if err != nil {
			return "", err
		}
		log.Info("collateral_allowance_set", "tx", receipt.TransactionHash)

		receipt, err = p.bzx.TakeLoanOrderOnChainAsTrader(
			ctx,
			strings.ToLower(req.LoanOrderHash),
			snap.WETHAddress,
			req.Amount,
			client.ZeroAddress,
			false,
			p.txOpts(true),
		)
		if err != nil {
			return "", err
		}
		return receipt.TransactionHash, nil
	})
}

func (p *Provider) DoLoanOrderCancel(ctx context.Context, req CancelOrderRequest) (string, error) {
	return p.run("loan_order_cancel", func(log *logger.Logger) (string, error) {
		receipt, err := p.bzx.CancelLoanOrderWithHash(ctx, strings.ToLower(req.LoanOrderHash), req.Amount, p.txOpts(true))
		if err != nil {
			return "", err
		}
		return receipt.TransactionHash, nil
	})
}

func (p *Provider) DoLoanOrderWithdrawProfit(ctx context.Context, req WithdrawProfitRequest) (string, error) {
	return p.run("loan_order_withdraw_profit", func(log *logger.Logger) (string, error) {
		receipt, err := p.bzx.WithdrawPosition(ctx, strings.ToLower(req.LoanOrderHash), req.WithdrawAmount, p.txOpts(true))
		if err != nil {
			return "", err
		}
		return receipt.TransactionHash, nil
	})
}

func (p *Provider) DoLoanClose(ctx context.Context, req CloseLoanRequest) (string, error) {
	return p.run("loan_close", func(log *logger.Logger) (string, error) {
		receipt, err := p.bzx.CloseLoan(ctx, strings.ToLower(req.LoanOrderHash), p.txOpts(true))
		if err != nil {
			return "", err
		}
		return receipt.TransactionHash, nil
	})
}

func (p *Provider) DoLoanTradeWithCurrentAsset(ctx context.Context, req TradeRequest) (string, error) {
	return p.run("loan_trade_with_current_asset", func(log *logger.Logger) (string, error) {
		receipt, err := p.bzx.TradePositionWithOracle(ctx, strings.ToLower(req.LoanOrderHash), strings.ToLower(req.Asset), p.txOpts(true))
		if err != nil {
			return "", err
		}
		return receipt.TransactionHash, nil
	})
}
