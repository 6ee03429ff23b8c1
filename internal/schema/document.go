package schema

import (
	"bytes"
	"encoding/json"
)

// Document is a JSON object that keeps insertion order
type Document struct {
	keys   []string
	values map[string]interface{}
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{values: make(map[string]interface{})}
}

// Set stores value under key. An existing key keeps its position.
func (d *Document) Set(key string, value interface{}) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value stored under key
func (d *Document) Get(key string) (interface{}, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is set
func (d *Document) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Keys returns the keys in insertion order
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of keys
func (d *Document) Len() int {
	return len(d.keys)
}

// MarshalJSON writes the object with keys in insertion order
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToIndentedJSON serializes the document with two-space indentation
func (d *Document) ToIndentedJSON() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
