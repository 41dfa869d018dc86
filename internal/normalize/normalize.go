package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/vietddude/seqproxy/internal/core/domain"
)

// Normalize decodes raw and converts it into prediction rows.
func Normalize(raw []byte) []domain.PredictionRow {
	return Rows(Decode(raw))
}

// Rows converts a decoded payload into prediction rows, preserving order.
// Rows that cannot be converted are skipped; a Malformed payload yields an
// empty, non-nil slice.
func Rows(p Payload) []domain.PredictionRow {
	switch t := p.(type) {
	case PairList:
		return convert(t)
	case WrappedTable:
		return convert(t.Rows)
	case Malformed:
		return []domain.PredictionRow{}
	}
	return []domain.PredictionRow{}
}

func convert(list PairList) []domain.PredictionRow {
	rows := make([]domain.PredictionRow, 0, len(list))
	for _, item := range list {
		if row, ok := convertRow(item); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func convertRow(item any) (domain.PredictionRow, bool) {
	var rawLabel, rawProb any

	switch t := item.(type) {
	case []any:
		if len(t) != 2 {
			return domain.PredictionRow{}, false
		}
		rawLabel, rawProb = t[0], t[1]
	case map[string]any:
		rawLabel = firstOf(t, "target", "label")
		rawProb = firstOf(t, "probability", "confidence")
	default:
		return domain.PredictionRow{}, false
	}

	target, ok := label(rawLabel)
	if !ok {
		return domain.PredictionRow{}, false
	}
	prob, ok := probability(rawProb)
	if !ok {
		return domain.PredictionRow{}, false
	}
	return domain.PredictionRow{Target: target, Probability: prob}, true
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func label(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func probability(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case float64:
		f = t
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
