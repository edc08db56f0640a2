package table

type TableResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OutputAsset string `json:"output_asset"`
	Tag         string `json:"tag,omitempty"`
	Tiers       []Tier `json:"tiers"`
}

type Tier struct {
	Basis       string `json:"basis"`       // pool или input
	Expectation uint64 `json:"expectation"` // * 1e6
	Reward      uint64 `json:"reward"`      // * 1e6
}

// StatsResponse null - значение недоступно без цены или размера пула
type StatsResponse struct {
	TableID     string   `json:"table_id"`
	WinRate     *float64 `json:"win_rate"`
	Jackpot     *float64 `json:"jackpot"`
	PayoutRatio float64  `json:"payout_ratio"`
}
