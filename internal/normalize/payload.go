// Package normalize turns the loosely shaped backend responses into an
// ordered list of prediction rows.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// tableFields are the object fields that may hold a row list, in lookup order.
// "data" is used by table/dataframe outputs, "confidences" by label outputs.
var tableFields = []string{"data", "confidences"}

// maxDepth bounds how many wrappers are peeled off before giving up.
const maxDepth = 3

// Payload is the decoded backend body. It is one of PairList, WrappedTable
// or Malformed.
type Payload interface {
	payload()
}

// PairList is a list of rows. Rows are kept as decoded JSON values and are
// checked one by one during conversion.
type PairList []any

// WrappedTable is a structure that carries a PairList in one of its fields.
type WrappedTable struct {
	Field string
	Rows  PairList
}

// Malformed is anything without a recognizable row list.
type Malformed struct {
	Reason string
}

func (PairList) payload()     {}
func (WrappedTable) payload() {}
func (Malformed) payload()    {}

// Decode parses raw once and classifies its shape.
func Decode(raw []byte) Payload {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Malformed{Reason: fmt.Sprintf("invalid json: %v", err)}
	}
	return classify(v, 0)
}

// Recognized reports whether p carries a row list, even an empty one.
func Recognized(p Payload) bool {
	_, ok := rowsOf(p)
	return ok
}

func classify(v any, depth int) Payload {
	switch t := v.(type) {
	case []any:
		// A single-element list wrapping a table is an output tuple.
		if inner, ok := tupleElement(t); ok && depth < maxDepth {
			if rows, ok := rowsOf(classify(inner, depth+1)); ok {
				return WrappedTable{Field: "0", Rows: rows}
			}
		}
		return PairList(t)

	case map[string]any:
		if depth >= maxDepth {
			return Malformed{Reason: "nesting too deep"}
		}
		for _, field := range tableFields {
			inner, ok := t[field]
			if !ok {
				continue
			}
			if rows, ok := rowsOf(classify(inner, depth+1)); ok {
				return WrappedTable{Field: field, Rows: rows}
			}
		}
		return Malformed{Reason: "object without a row list"}

	case nil:
		return Malformed{Reason: "null payload"}
	}

	return Malformed{Reason: fmt.Sprintf("unexpected %T payload", v)}
}

func tupleElement(list []any) (any, bool) {
	if len(list) != 1 {
		return nil, false
	}
	switch el := list[0].(type) {
	case map[string]any:
		for _, field := range tableFields {
			if _, ok := el[field]; ok {
				return el, true
			}
		}
	case []any:
		if len(el) > 0 {
			if _, nested := el[0].([]any); nested {
				return el, true
			}
			if _, nested := el[0].(map[string]any); nested {
				return el, true
			}
		}
	}
	return nil, false
}

func rowsOf(p Payload) (PairList, bool) {
	switch t := p.(type) {
	case PairList:
		return t, true
	case WrappedTable:
		return t.Rows, true
	default:
		return nil, false
	}
}
