package provider

import "bzxwidget/position"

// OrderFormDefaults pre-populates the lend/borrow form.
type OrderFormDefaults struct {
	Qty          string
	InterestRate int
	Duration     int
	Ratio        int
	Relays       []string
	PushOnChain  bool
}

// OrderFormOptions bounds the lend/borrow form inputs.
type OrderFormOptions struct {
	Relays          []string
	Ratios          []int
	InterestRateMin int
	InterestRateMax int
	DurationMin     int
	DurationMax     int
}

type QuickPositionFormDefaults struct {
	Qty          string
	PositionType position.Type
	Ratio        int
	PushOnChain  bool
}

type QuickPositionFormOptions struct {
	Ratios []int
}

func (p *Provider) GetLendFormDefaults() OrderFormDefaults {
	return OrderFormDefaults{
		Qty:          "1",
		InterestRate: 30,
		Duration:     10,
		Ratio:        2,
		Relays:       []string{},
		PushOnChain:  true,
	}
}

func (p *Provider) GetLendFormOptions() OrderFormOptions {
	return OrderFormOptions{
		Relays:          []string{"Shark", "Veil"},
		Ratios:          []int{1, 2, 4},
		InterestRateMin: 1,
		InterestRateMax: 100,
		DurationMin:     1,
		DurationMax:     28,
	}
}

func (p *Provider) GetBorrowFormDefaults() OrderFormDefaults {
	return p.GetLendFormDefaults()
}

func (p *Provider) GetBorrowFormOptions() OrderFormOptions {
	return p.GetLendFormOptions()
}

func (p *Provider) GetQuickPositionFormDefaults() QuickPositionFormDefaults {
	return QuickPositionFormDefaults{
		Qty:          "1",
		PositionType: position.TypeLong,
		Ratio:        2,
		PushOnChain:  true,
	}
}

func (p *Provider) GetQuickPositionFormOptions() QuickPositionFormOptions {
	return QuickPositionFormOptions{
		Ratios: []int{1, 2, 4},
	}
}
