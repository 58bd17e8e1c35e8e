package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CoerceAmount normalises the numeric encodings monetary values arrive in:
// plain numbers, numeric strings, json.Number, and tagged high-precision
// decimal objects ({"$numberDecimal": "123.45"}). Unparsable or absent
// values coerce to 0 rather than failing so heterogeneous upstream
// payloads never abort a totals calculation.
func CoerceAmount(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		return parseAmountString(v.String())
	case string:
		return parseAmountString(v)
	case map[string]any:
		if raw, ok := v["$numberDecimal"]; ok {
			return CoerceAmount(raw)
		}
		return 0
	default:
		return 0
	}
}

func parseAmountString(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return parsed
}
