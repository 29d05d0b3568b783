// Package record updates single fields of JSON configuration records (such as
// package.json) without disturbing the bytes of any other field.
package record

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Errors returned by record updates.
var (
	// ErrMalformedRecord indicates the record is not valid JSON.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrFieldMissing indicates the key does not exist; fields are never created.
	ErrFieldMissing = errors.New("field not present in record")

	// ErrEmptyKey indicates an update without a key.
	ErrEmptyKey = errors.New("field key is empty")
)

// Get returns the current value at key. Keys use gjson path syntax, so
// "version" and "engines.node" both work; literal dots are escaped as "\.".
func Get(rec []byte, key string) (gjson.Result, error) {
	if key == "" {
		return gjson.Result{}, ErrEmptyKey
	}
	if !gjson.ValidBytes(rec) {
		return gjson.Result{}, ErrMalformedRecord
	}
	res := gjson.GetBytes(rec, key)
	if !res.Exists() {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrFieldMissing, key)
	}
	return res, nil
}

// Equal reports whether the field at key already holds value.
func Equal(rec []byte, key string, value any) (bool, error) {
	cur, err := Get(rec, key)
	if err != nil {
		return false, err
	}
	want, err := sjson.Set("{}", "v", value)
	if err != nil {
		return false, err
	}
	return reflect.DeepEqual(cur.Value(), gjson.Get(want, "v").Value()), nil
}

// SetField sets an existing field to value and returns the new record. Only
// the bytes of that field's value change.
func SetField(rec []byte, key string, value any) ([]byte, error) {
	if _, err := Get(rec, key); err != nil {
		return nil, err
	}
	out, err := sjson.SetBytes(rec, key, value)
	if err != nil {
		return nil, fmt.Errorf("setting %s: %w", key, err)
	}
	return out, nil
}

// Reformat re-indents a record with two spaces, keeping key order.
func Reformat(rec []byte) ([]byte, error) {
	if !gjson.ValidBytes(rec) {
		return nil, ErrMalformedRecord
	}
	return pretty.PrettyOptions(rec, &pretty.Options{
		Width:    80,
		Indent:   "  ",
		SortKeys: false,
	}), nil
}
