package model

// Row is the computed result of a screen for one ticker. Fields a screen does not compute stay zero.
type Row struct {
	Ticker         string   `json:"ticker" csv:"ticker" parquet:"ticker"`
	Screen         string   `json:"screen" csv:"screen" parquet:"screen"`
	Date           string   `json:"date" csv:"date" parquet:"date"` // last bar, YYYY-MM-DD
	Close          float64  `json:"close" csv:"close" parquet:"close"`
	VWAP           float64  `json:"vwap" csv:"vwap" parquet:"vwap"`
	Distance       float64  `json:"distance_pct" csv:"distance_pct" parquet:"distance_pct"` // (close/vwap-1)*100
	Volume         float64  `json:"volume" csv:"volume" parquet:"volume"`
	AvgVolume      float64  `json:"avg_volume" csv:"avg_volume" parquet:"avg_volume"`
	VolumeIncrease float64  `json:"volume_increase" csv:"volume_increase" parquet:"volume_increase"`
	RSI            *float64 `json:"rsi,omitempty" csv:"rsi" parquet:"rsi,optional"`
	Crossed        bool     `json:"crossed" csv:"crossed" parquet:"crossed"`
	LastCross      string   `json:"last_cross,omitempty" csv:"last_cross" parquet:"last_cross"`
	CrossDirection string   `json:"cross_direction,omitempty" csv:"cross_direction" parquet:"cross_direction"`
	DeclinePercent float64  `json:"vwap_decline_pct,omitempty" csv:"vwap_decline_pct" parquet:"vwap_decline_pct"`
	Signals        string   `json:"signals,omitempty" csv:"signals" parquet:"signals"`
	Passed         bool     `json:"passed" csv:"passed" parquet:"passed"`
}
