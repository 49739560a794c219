package types

// OptionChainRow is one strike of an option chain. Rows are kept in the
// order the source returned them; duplicate strikes are not collapsed.
type OptionChainRow struct {
	StrikePrice      float64 `json:"strike_price"`
	ExpiryDate       string  `json:"expiry_date"`
	CallOpenInterest int64   `json:"call_open_interest"`
	PutOpenInterest  int64   `json:"put_open_interest"`
	CallLastPrice    float64 `json:"call_last_price"`
	PutLastPrice     float64 `json:"put_last_price"`
}

// OptionChain is what a ChainSource returns.
type OptionChain struct {
	Symbol     string           `json:"symbol"`
	Underlying float64          `json:"underlying,omitempty"`
	Expiries   []string         `json:"expiries,omitempty"`
	Rows       []OptionChainRow `json:"rows"`
	Source     string           `json:"source"`
}

// Quote is a single index price observation.
type Quote struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Time   int64   `json:"time"`
	Source string  `json:"source"`
}
