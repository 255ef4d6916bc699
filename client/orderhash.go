package client

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// LoanOrderFields is the canonical field set of an unsigned loan order. Every
// amount is an integral base-unit decimal string; the hash below is a pure
// function of these fields plus the oracle data.
type LoanOrderFields struct {
	BZxAddress              string `json:"bZxAddress"`
	MakerAddress            string `json:"makerAddress"`
	TakerAddress            string `json:"takerAddress"`
	TradeTokenToFillAddress string `json:"tradeTokenToFillAddress"`
	WithdrawOnOpen          string `json:"withdrawOnOpen"`
	LoanTokenAddress        string `json:"loanTokenAddress"`
	InterestTokenAddress    string `json:"interestTokenAddress"`
	CollateralTokenAddress  string `json:"collateralTokenAddress"`
	FeeRecipientAddress     string `json:"feeRecipientAddress"`
	OracleAddress           string `json:"oracleAddress"`
	LoanTokenAmount         string `json:"loanTokenAmount"`
	InterestAmount          string `json:"interestAmount"`
	InitialMarginAmount     string `json:"initialMarginAmount"`
	MaintenanceMarginAmount string `json:"maintenanceMarginAmount"`
	LenderRelayFee          string `json:"lenderRelayFee"`
	TraderRelayFee          string `json:"traderRelayFee"`
	MaxDurationUnixSec      string `json:"maxDurationUnixTimestampSec"`
	ExpirationUnixSec       string `json:"expirationUnixTimestampSec"`
	MakerRole               string `json:"makerRole"`
	Salt                    string `json:"salt"`
}

// LoanOrderHashHex computes the keccak-256 hash of the tightly packed
// canonical order fields, the way the protocol contract derives it on-chain:
// addresses as 20 bytes, numeric fields as left-padded uint256, oracle data
// appended raw.
func LoanOrderHashHex(order LoanOrderFields, oracleData string) string {
	var packed []byte

	for _, addr := range []string{
		order.BZxAddress,
		order.MakerAddress,
		order.TakerAddress,
		order.TradeTokenToFillAddress,
		order.LoanTokenAddress,
		order.InterestTokenAddress,
		order.CollateralTokenAddress,
		order.FeeRecipientAddress,
		order.OracleAddress,
	} {
		packed = append(packed, common.HexToAddress(addr).Bytes()...)
	}

	for _, value := range []string{
		order.LoanTokenAmount,
		order.InterestAmount,
		order.InitialMarginAmount,
		order.MaintenanceMarginAmount,
		order.LenderRelayFee,
		order.TraderRelayFee,
		order.MaxDurationUnixSec,
		order.ExpirationUnixSec,
		order.MakerRole,
		order.WithdrawOnOpen,
		order.Salt,
	} {
		packed = append(packed, packUint256(value)...)
	}

	packed = append(packed, oracleDataBytes(oracleData)...)

	return crypto.Keccak256Hash(packed).Hex()
}

// GeneratePseudoRandomSalt returns a random uint256 as a decimal string. A
// fresh salt makes otherwise-identical orders hash to distinct values.
func GeneratePseudoRandomSalt() string {
	buf := make([]byte, 32)
	rand.Read(buf)
	return new(big.Int).SetBytes(buf).String()
}

func packUint256(value string) []byte {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		v = big.NewInt(0)
	}
	return common.LeftPadBytes(v.Bytes(), 32)
}

func oracleDataBytes(oracleData string) []byte {
	if strings.HasPrefix(oracleData, "0x") {
		if decoded, err := hexutil.Decode(oracleData); err == nil {
			return decoded
		}
	}
	return []byte(oracleData)
}
