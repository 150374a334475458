package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CleanID normalizes an identifier read from a CSV cell or JSON value into its
// canonical string form. Floats (and float-looking strings ending in ".0") become
// integer strings, blanks and NaN become "". Applying it twice gives the same result.
func CleanID(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return cleanIDString(x)
	case float64:
		return cleanIDFloat(x)
	case float32:
		return cleanIDFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case fmt.Stringer:
		return cleanIDString(x.String())
	default:
		return cleanIDString(fmt.Sprint(x))
	}
}

func cleanIDFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return integerString(f)
}

// integerString truncates f and formats it without a fraction. Values outside
// the int64 range are formatted directly rather than converted.
func integerString(f float64) string {
	if math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(math.Trunc(f), 'f', -1, 64)
}

func cleanIDString(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "none", "null", "<na>":
		return ""
	}
	if strings.HasSuffix(s, ".0") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
			return integerString(f)
		}
	}
	return s
}
