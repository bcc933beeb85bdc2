package pricing

import (
	"fmt"

	"github.com/spf13/viper"
)

// FeeSchedule maps CDT procedure codes to the practice's standard billed
// charge. Unknown codes resolve to 0.0, which callers must treat as
// "unbillable", never as a legitimate free procedure.
type FeeSchedule struct {
	fees map[string]float64
}

// defaultFees is the built-in schedule used when no fee file is configured.
var defaultFees = map[string]float64{
	"D1110": 120.00, // Prophylaxis - adult
	"D2740": 950.00, // Crown - porcelain fused to metal
	"D0120": 65.00,  // Periodic oral evaluation
}

// NewFeeSchedule builds a schedule from an explicit code→charge map.
// A nil map yields the built-in defaults.
func NewFeeSchedule(fees map[string]float64) *FeeSchedule {
	if fees == nil {
		fees = defaultFees
	}
	return &FeeSchedule{fees: fees}
}

// LoadFeeSchedule reads a YAML fee file of the form `codes: {D1110: 120.00}`
// and overlays it on the built-in defaults, so a partial file only overrides
// the codes it names.
func LoadFeeSchedule(path string) (*FeeSchedule, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read fee schedule %s: %w", path, err)
	}

	fees := make(map[string]float64, len(defaultFees))
	for code, charge := range defaultFees {
		fees[code] = charge
	}
	for code, charge := range v.GetStringMap("codes") {
		f, err := toFloat(charge)
		if err != nil {
			return nil, fmt.Errorf("fee schedule %s: code %s: %w", path, code, err)
		}
		if f < 0 {
			return nil, fmt.Errorf("fee schedule %s: code %s: charge must be non-negative", path, code)
		}
		fees[normalizeCode(code)] = f
	}
	return &FeeSchedule{fees: fees}, nil
}

// Resolve returns the billed charge for a procedure code, or 0.0 for codes
// missing from the schedule.
func (fs *FeeSchedule) Resolve(procedureCode string) float64 {
	return fs.fees[normalizeCode(procedureCode)]
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("charge %v is not numeric", v)
	}
}

// normalizeCode upper-cases procedure codes; viper lower-cases map keys.
func normalizeCode(code string) string {
	out := []byte(code)
	for i, ch := range out {
		if ch >= 'a' && ch <= 'z' {
			out[i] = ch - 'a' + 'A'
		}
	}
	return string(out)
}
