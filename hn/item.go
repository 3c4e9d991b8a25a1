package hn

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known item fields.
const (
	FieldID          = "id"
	FieldScore       = "score"
	FieldDescendants = "descendants"
	FieldKids        = "kids"
	FieldURL         = "url"
	FieldTitle       = "title"
)

// Item represents a Hacker News item (story, comment, etc.) as the API
// returned it. Fields are sparse: deleted items lack most of them, comments
// have no score. Keys keep the order they had in the response so the item
// can be written back out unchanged.
type Item struct {
	keys   []string
	fields map[string]any
}

// NewItem builds an item from key/value pairs, in order. It is mostly
// useful for tests and fakes; the client decodes items from JSON.
func NewItem(kv ...any) *Item {
	it := &Item{fields: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		it.set(key, normalize(kv[i+1]))
	}
	return it
}

func (it *Item) set(key string, v any) {
	if _, ok := it.fields[key]; !ok {
		it.keys = append(it.keys, key)
	}
	it.fields[key] = v
}

// Keys returns the field names in response order.
func (it *Item) Keys() []string {
	if it == nil {
		return nil
	}
	out := make([]string, len(it.keys))
	copy(out, it.keys)
	return out
}

// Get returns the raw decoded value of a field.
func (it *Item) Get(field string) (any, bool) {
	if it == nil {
		return nil, false
	}
	v, ok := it.fields[field]
	return v, ok
}

// Int returns an integer field. Absent, null, fractional or non-numeric
// values report false.
func (it *Item) Int(field string) (int, bool) {
	v, ok := it.Get(field)
	if !ok {
		return 0, false
	}
	return asInt(v)
}

// RequireInt is Int for callers that cannot proceed without the field.
func (it *Item) RequireInt(field string) (int, error) {
	n, ok := it.Int(field)
	if !ok {
		id, _ := it.ID()
		return 0, &MissingFieldError{ItemID: id, Field: field}
	}
	return n, nil
}

func (it *Item) ID() (int, bool)          { return it.Int(FieldID) }
func (it *Item) Score() (int, bool)       { return it.Int(FieldScore) }
func (it *Item) Descendants() (int, bool) { return it.Int(FieldDescendants) }

// StringField returns a string field.
func (it *Item) StringField(field string) (string, bool) {
	v, ok := it.Get(field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Kids returns the direct child IDs in ranked order. An absent field, or
// one that is not an array of integers, reports false.
func (it *Item) Kids() ([]int, bool) {
	v, ok := it.Get(FieldKids)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	kids := make([]int, 0, len(arr))
	for _, e := range arr {
		n, ok := asInt(e)
		if !ok {
			return nil, false
		}
		kids = append(kids, n)
	}
	return kids, true
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int64(n)) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// normalize turns Go literals handed to NewItem into the shapes the JSON
// decoder produces, so accessors behave the same for both.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return json.Number(fmt.Sprint(x))
	case int64:
		return json.Number(fmt.Sprint(x))
	case []int:
		arr := make([]any, len(x))
		for i, n := range x {
			arr[i] = json.Number(fmt.Sprint(n))
		}
		return arr
	}
	return v
}

var errNotObject = errors.New("expected JSON object")

// UnmarshalJSON decodes a JSON object, keeping key order. Numbers are kept
// as json.Number so large IDs and scores stay exact.
func (it *Item) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}

	it.keys = nil
	it.fields = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode field %q: %w", key, err)
		}
		it.set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the item with its original key order.
func (it *Item) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range it.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(it.fields[k])
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
