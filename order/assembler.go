// Package order builds unsigned lend/borrow order records from widget form
// input, computing the margin and interest fields the protocol contract
// expects.
package order

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"bzxwidget/amount"
	"bzxwidget/client"
)

// Role is the maker's side of the order.
type Role int

const (
	RoleLender Role = 0
	RoleTrader Role = 1
)

func (r Role) String() string {
	return strconv.Itoa(int(r))
}

const expirationWindow = 7 * 24 * time.Hour // fixed policy

var ErrNotEnoughLiquidity = errors.New("not enough liquidity")

// ValidationError reports a policy or input problem caught before any
// external call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Inputs is the widget form value driving assembly.
type Inputs struct {
	Asset        string
	Qty          string
	InterestRate int
	DurationDays int
	Ratio        int
	Relays       []string
	PushOnChain  bool
}

// ConversionRateFunc returns the oracle's 18-decimal fixed-point rate for
// converting sourceAmount of the selected asset into the settlement asset.
type ConversionRateFunc func(ctx context.Context, sourceAmount amount.Amount) (amount.Amount, error)

// Env is the assembly environment the provider supplies: addresses from the
// current snapshot, the maker role, and an optional conversion step for
// non-WETH principals.
type Env struct {
	Maker                  string
	Role                   Role
	BZxAddress             string
	WETHAddress            string
	OracleAddress          string
	OracleData             string
	CollateralTokenAddress string
	Now                    time.Time
	Salt                   string
	ConversionRate         ConversionRateFunc
}

// Draft is an unsigned loan order plus the oracle data that participates in
// its hash.
type Draft struct {
	Order      client.LoanOrderFields
	OracleData string
}

func (d *Draft) Hash() string {
	return client.LoanOrderHashHex(d.Order, d.OracleData)
}

// Assemble validates the form value and produces a complete unsigned order.
// No partial draft is ever returned: a declined on-chain push or a degenerate
// currency conversion aborts assembly.
func Assemble(ctx context.Context, in Inputs, env Env) (*Draft, error) {
	if in.Asset == "" {
		return nil, &ValidationError{Reason: "asset is not selected"}
	}
	if !in.PushOnChain {
		return nil, &ValidationError{Reason: "pushing to relay is not yet supported"}
	}

	principal, err := amount.FromEther(in.Qty)
	if err != nil {
		return nil, &ValidationError{Reason: "invalid quantity: " + in.Qty}
	}
	if in.DurationDays <= 0 {
		return nil, &ValidationError{Reason: "duration must be at least one day"}
	}
	if in.Ratio <= 0 {
		return nil, &ValidationError{Reason: "leverage ratio must be positive"}
	}

	converted := principal
	if !strings.EqualFold(in.Asset, env.WETHAddress) {
		if env.ConversionRate == nil {
			return nil, ErrNotEnoughLiquidity
		}
		rate, err := env.ConversionRate(ctx, principal)
		if err != nil {
			return nil, err
		}
		converted, err = principal.DivRate(rate)
		if err != nil || converted.IsZero() {
			return nil, ErrNotEnoughLiquidity
		}
	}

	initialMargin := InitialMargin(in.Ratio)
	maintenanceMargin := MaintenanceMargin(initialMargin)
	interest := Interest(converted, in.InterestRate, in.DurationDays)

	salt := env.Salt
	if salt == "" {
		salt = client.GeneratePseudoRandomSalt()
	}

	draft := &Draft{
		Order: client.LoanOrderFields{
			BZxAddress:              strings.ToLower(env.BZxAddress),
			MakerAddress:            strings.ToLower(env.Maker),
			TakerAddress:            client.ZeroAddress,
			TradeTokenToFillAddress: client.ZeroAddress,
			WithdrawOnOpen:          "0",
			LoanTokenAddress:        strings.ToLower(in.Asset),
			InterestTokenAddress:    strings.ToLower(env.WETHAddress),
			CollateralTokenAddress:  strings.ToLower(env.CollateralTokenAddress),
			FeeRecipientAddress:     client.ZeroAddress,
			OracleAddress:           strings.ToLower(env.OracleAddress),
			LoanTokenAmount:         principal.BaseUnits(),
			InterestAmount:          interest.BaseUnits(),
			InitialMarginAmount:     initialMargin.BaseUnits(),
			MaintenanceMarginAmount: maintenanceMargin.BaseUnits(),
			LenderRelayFee:          "0",
			TraderRelayFee:          "0",
			MaxDurationUnixSec:      strconv.Itoa(in.DurationDays * 86400),
			ExpirationUnixSec:       strconv.FormatInt(env.Now.Add(expirationWindow).Unix(), 10),
			MakerRole:               env.Role.String(),
			Salt:                    salt,
		},
		OracleData: strings.ToLower(env.OracleData),
	}

	return draft, nil
}

// InitialMargin is ceil(100% / k scaled to 18 decimals) = ceil(1e20 / k).
func InitialMargin(ratio int) amount.Amount {
	hundredScaled := amount.MustNew("100000000000000000000")
	margin, _ := hundredScaled.Div(amount.FromInt(int64(ratio)))
	return margin.Ceil()
}

// MaintenanceMargin is half the initial margin, rounded up.
func MaintenanceMargin(initialMargin amount.Amount) amount.Amount {
	half, _ := initialMargin.Div(amount.FromInt(2))
	return half.Ceil()
}

// Interest is the per-period interest owed on the principal:
// ceil(P * rate / days / 100).
func Interest(principal amount.Amount, ratePercent, durationDays int) amount.Amount {
	scaled := principal.Mul(amount.FromInt(int64(ratePercent)))
	perDay, _ := scaled.Div(amount.FromInt(int64(durationDays)))
	interest, _ := perDay.Div(amount.FromInt(100))
	return interest.Ceil()
}
