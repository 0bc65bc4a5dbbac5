// Copyright 2021 The ajax Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"gopkg.in/yaml.v3"
)

// Params holds query parameters in insertion order.
//
// A value may be nil (the key is emitted bare, without "="), a slice or
// array of any element type (one key=value pair is emitted per element,
// nil elements as "null"), or any other value, which is formatted with
// fmt.Sprint. A []byte value is a single string, not a sequence. Re-putting an existing key keeps
// its original position.
//
// The zero value is an empty Params ready to use.
type Params struct {
	m *linkedhashmap.Map
}

// NewParams returns an empty Params.
func NewParams() *Params {
	return &Params{m: linkedhashmap.New()}
}

// ParamsOf returns a Params containing the given key/value pairs, which
// must alternate string keys and values.
func ParamsOf(kv ...interface{}) *Params {
	if len(kv)%2 != 0 {
		panic("ajax/request: odd number of key/value arguments")
	}
	p := NewParams()
	for i := 0; i < len(kv); i += 2 {
		p.Put(kv[i].(string), kv[i+1])
	}
	return p
}

func (p *Params) init() {
	if p.m == nil {
		p.m = linkedhashmap.New()
	}
}

// Put sets the value for key.
func (p *Params) Put(key string, value interface{}) {
	p.init()
	p.m.Put(key, value)
}

// Get returns the value for key.
func (p *Params) Get(key string) (interface{}, bool) {
	if p == nil || p.m == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// Remove deletes key.
func (p *Params) Remove(key string) {
	if p == nil || p.m == nil {
		return
	}
	p.m.Remove(key)
}

// Len returns the number of keys.
func (p *Params) Len() int {
	if p == nil || p.m == nil {
		return 0
	}
	return p.m.Size()
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	if p == nil || p.m == nil {
		return nil
	}
	keys := make([]string, 0, p.m.Size())
	for _, k := range p.m.Keys() {
		keys = append(keys, k.(string))
	}
	return keys
}

// Each calls f for every key in insertion order.
func (p *Params) Each(f func(key string, value interface{})) {
	if p == nil || p.m == nil {
		return
	}
	p.m.Each(func(k, v interface{}) {
		f(k.(string), v)
	})
}

// Clone returns a copy of p. Values are copied shallowly.
func (p *Params) Clone() *Params {
	if p == nil {
		return nil
	}
	q := NewParams()
	p.Each(q.Put)
	return q
}

// Equal reports whether p and q produce the same query string.
func (p *Params) Equal(q *Params) bool {
	return QueryString(p) == QueryString(q)
}

// String returns the encoded query string.
func (p *Params) String() string {
	return QueryString(p)
}

// QueryString serializes params as a query string, without a leading
// "?". Keys and values are percent-encoded like encodeURIComponent.
func QueryString(params *Params) string {
	var parts []string
	params.Each(func(key string, value interface{}) {
		k := EncodeURIComponent(key)
		if value == nil {
			parts = append(parts, k)
			return
		}
		if elems, ok := sequence(value); ok {
			for _, e := range elems {
				parts = append(parts, k+"="+EncodeURIComponent(formatValue(e)))
			}
			return
		}
		parts = append(parts, k+"="+EncodeURIComponent(formatValue(value)))
	})
	return strings.Join(parts, "&")
}

// sequence returns the elements of a slice or array value. Byte
// slices are not sequences.
func sequence(v interface{}) ([]interface{}, bool) {
	switch x := v.(type) {
	case []interface{}:
		return x, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		e := rv.Index(i)
		switch e.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice:
			if e.IsNil() {
				continue
			}
		}
		out[i] = e.Interface()
	}
	return out, true
}

func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// EncodeURIComponent escapes s so it can be placed in a query key or
// value. Unlike url.QueryEscape, spaces become "%20" and the characters
// !'()* are left as is.
func EncodeURIComponent(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	r := strings.NewReplacer("%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")
	return r.Replace(e)
}

// UnmarshalYAML decodes a YAML mapping, keeping document order.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*p = Params{}
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("ajax/request: params must be a mapping (line %d)", node.Line)
	}
	q := NewParams()
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		var value interface{}
		if err := node.Content[i+1].Decode(&value); err != nil {
			return err
		}
		q.Put(key, value)
	}
	*p = *q
	return nil
}

// MarshalYAML encodes p as an ordered YAML mapping.
func (p *Params) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	var err error
	p.Each(func(key string, value interface{}) {
		if err != nil {
			return
		}
		k := &yaml.Node{}
		v := &yaml.Node{}
		if err = k.Encode(key); err != nil {
			return
		}
		if err = v.Encode(value); err != nil {
			return
		}
		node.Content = append(node.Content, k, v)
	})
	return node, err
}

// UnmarshalJSON decodes a JSON object, keeping document order.
func (p *Params) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = Params{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("ajax/request: params must be a JSON object")
	}
	q := NewParams()
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var value interface{}
		if err = dec.Decode(&value); err != nil {
			return err
		}
		q.Put(key, value)
	}
	if _, err = dec.Token(); err != nil && err != io.EOF {
		return err
	}
	*p = *q
	return nil
}

// MarshalJSON encodes p as a JSON object in insertion order.
func (p *Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	var err error
	i := 0
	p.Each(func(key string, value interface{}) {
		if err != nil {
			return
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		var kb, vb []byte
		if kb, err = json.Marshal(key); err != nil {
			return
		}
		if vb, err = json.Marshal(value); err != nil {
			return
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
