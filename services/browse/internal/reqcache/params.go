package reqcache

import (
	"fmt"
	"net/url"
	"strconv"
)

// Params is the per-call query parameter record. Values must be scalars
// (string, bool, integer or float). Nil and empty-string values mean "not set"
// and are dropped before key construction and before transmission.
type Params map[string]any

// Values returns the normalized parameters as url.Values.
func (p Params) Values() url.Values {
	out := make(url.Values, len(p))
	for name, v := range p {
		s, ok := formatValue(v)
		if !ok {
			continue
		}
		out.Set(name, s)
	}
	return out
}

// Encode returns the normalized parameters as a query string sorted by name.
func (p Params) Encode() string {
	return p.Values().Encode()
}

// Key builds the canonical cache key for endpoint and params.
func Key(endpoint string, params Params) string {
	q := params.Encode()
	if q == "" {
		return endpoint
	}
	return endpoint + "?" + q
}

func formatValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint:
		return strconv.FormatUint(uint64(x), 10), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case fmt.Stringer:
		s := x.String()
		return s, s != ""
	default:
		s := fmt.Sprint(x)
		return s, s != ""
	}
}
