package akshare

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// row is one raw record from the AKTools gateway. Field names are the
// upstream AKShare column names (mostly Chinese); values arrive as a mix
// of strings and numbers.
type row map[string]any

// Null-like markers the source uses for absent values.
func isSentinel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "--", "nan", "none", "null":
		return true
	}
	return false
}

// str returns the first present, non-sentinel value among keys.
func (r row) str(keys ...string) string {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if !isSentinel(s) {
			return s
		}
	}
	return ""
}

// dec coerces a price/amount field to a decimal. Sentinels and
// unparseable values become zero.
func (r row) dec(keys ...string) decimal.Decimal {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return decimal.NewFromFloat(t)
		case string:
			if isSentinel(t) {
				continue
			}
			if d, err := decimal.NewFromString(strings.TrimSpace(t)); err == nil {
				return d
			}
		}
	}
	return decimal.Zero
}

func (r row) int64(keys ...string) int64 {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return int64(t)
		case string:
			if d, err := decimal.NewFromString(strings.TrimSpace(t)); err == nil {
				return d.IntPart()
			}
		}
	}
	return 0
}

func (r row) intVal(keys ...string) int {
	return int(r.int64(keys...))
}

var dateLayouts = []string{"2006-01-02", "20060102", "2006-01-02T15:04:05"}

// date coerces a calendar-date field. The second return is false when
// the field is absent or unparseable; callers drop such rows when the
// field is part of the logical key.
func (r row) date(keys ...string) (time.Time, bool) {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || isSentinel(s) {
			continue
		}
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	return time.Time{}, false
}

var timeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04"}

// timestamp coerces a full date-time field.
func (r row) timestamp(keys ...string) (time.Time, bool) {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || isSentinel(s) {
			continue
		}
		s = strings.TrimSpace(s)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
