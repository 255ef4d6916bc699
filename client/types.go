package client

const ZeroAddress = "0x0000000000000000000000000000000000000000"

// =============================
// bZx Data Types
// =============================

type OracleInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// FillableOrder is a read-only view of one fillable lend order. Amounts are
// base-unit decimal strings; the core never mutates these, only filters,
// sorts, and consumes them.
type FillableOrder struct {
	LoanOrderHash           string `json:"loanOrderHash"`
	MakerAddress            string `json:"makerAddress"`
	LoanTokenAddress        string `json:"loanTokenAddress"`
	InterestTokenAddress    string `json:"interestTokenAddress"`
	CollateralTokenAddress  string `json:"collateralTokenAddress"`
	OracleAddress           string `json:"oracleAddress"`
	LoanTokenAmount         string `json:"loanTokenAmount"`
	InterestAmount          string `json:"interestAmount"`
	InitialMarginAmount     string `json:"initialMarginAmount"`
	MaintenanceMarginAmount string `json:"maintenanceMarginAmount"`
	ExpirationUnixSec       int64  `json:"expirationUnixTimestampSec"`
	MakerRole               string `json:"makerRole"`
}

type Loan struct {
	LoanOrderHash        string `json:"loanOrderHash"`
	LoanTokenAddress     string `json:"loanTokenAddress"`
	CollateralToken      string `json:"collateralTokenAddress"`
	LoanTokenAmountFilled string `json:"loanTokenAmountFilled"`
	LoanStartUnixSec     int64  `json:"loanStartUnixTimestampSec"`
	Lender               string `json:"lender"`
	Trader               string `json:"trader"`
	Active               bool   `json:"active"`
}

type MarginLevels struct {
	InitialMarginAmount     string `json:"initialMarginAmount"`
	MaintenanceMarginAmount string `json:"maintenanceMarginAmount"`
	CurrentMarginAmount     string `json:"currentMarginAmount"`
}

type PositionOffset struct {
	IsPositive    bool   `json:"isPositive"`
	OffsetAmount  string `json:"offsetAmount"`
	PositionToken string `json:"positionTokenAddress"`
	LoanToken     string `json:"loanTokenAddress"`
}

// ConversionData is an oracle quote for swapping between two assets. Rate is
// an 18-decimal fixed-point ratio; a zero rate means no liquidity.
type ConversionData struct {
	Rate      string `json:"rate"`
	Precision string `json:"precision"`
}

type TxReceipt struct {
	TransactionHash string `json:"transactionHash"`
	BlockNumber     int64  `json:"blockNumber"`
	Status          string `json:"status"`
}

// TxOpts are the submission options attached to every write call.
type TxOpts struct {
	From     string `json:"from"`
	GasPrice string `json:"gasPrice"`
	Gas      uint64 `json:"gas,omitempty"`
}

type OrdersFillableQuery struct {
	Start        int    `json:"start"`
	Count        int    `json:"count"`
	OracleFilter string `json:"oracleFilter"`
}

type LoansQuery struct {
	Address    string `json:"address"`
	Count      int    `json:"count"`
	ActiveOnly bool   `json:"activeOnly"`
}

// =============================
// Augur Data Types
// =============================

type OutcomeInfo struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Volume      string `json:"volume"`
}

type MarketInfo struct {
	ID         string        `json:"id"`
	MarketType string        `json:"marketType"`
	MinPrice   string        `json:"minPrice"`
	MaxPrice   string        `json:"maxPrice"`
	Outcomes   []OutcomeInfo `json:"outcomes"`
}

// MarketOrder is one open order on an Augur outcome book.
type MarketOrder struct {
	OrderID             string `json:"orderId"`
	Owner               string `json:"owner"`
	Price               string `json:"price"`
	FullPrecisionAmount string `json:"fullPrecisionAmount"`
}

type OrderBookQuery struct {
	MarketID         string `json:"marketId"`
	Outcome          int    `json:"outcome"`
	OrderType        string `json:"orderType"`
	OrderState       string `json:"orderState"`
	Orphaned         bool   `json:"orphaned"`
	SortBy           string `json:"sortBy"`
	IsSortDescending bool   `json:"isSortDescending"`
}
