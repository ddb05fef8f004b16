package flex

import "math"

// Get достаёт значение key как T. Числа из yaml/json приводятся между int,
// int64 и float64, если это не теряет точность.
func Get[T any](c *Conf, key string) (T, bool) {
	var zero T
	raw, ok := c.Lookup(key)
	if !ok {
		return zero, false
	}
	if v, ok := raw.(T); ok {
		return v, true
	}
	if v, ok := convertNumber[T](raw); ok {
		return v, true
	}
	return zero, false
}

// GetOr - Get со значением по умолчанию (в том числе при несовпадении типа).
func GetOr[T any](c *Conf, key string, def T) T {
	if v, ok := Get[T](c, key); ok {
		return v
	}
	return def
}

func Bool(c *Conf, key string) bool { return GetOr(c, key, false) }

func String(c *Conf, key string) string { return GetOr(c, key, "") }

func convertNumber[T any](raw any) (T, bool) {
	var zero T
	var f float64
	switch n := raw.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float64:
		f = n
	default:
		return zero, false
	}
	var out any
	switch any(zero).(type) {
	case int:
		if f != math.Trunc(f) {
			return zero, false
		}
		out = int(f)
	case int64:
		if f != math.Trunc(f) {
			return zero, false
		}
		out = int64(f)
	case float64:
		out = f
	default:
		return zero, false
	}
	return out.(T), true
}
