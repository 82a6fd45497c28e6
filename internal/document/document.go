// Package document reads and updates top-level keys of the JSON document
// stored in a saved-game member.
//
// Updates are applied in place on the raw bytes: keys that are not touched
// keep their order and formatting.
package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	// ErrInvalid is returned when the document is not valid JSON.
	ErrInvalid = errors.New("document: invalid JSON")

	// ErrNotObject is returned when the document is not a JSON object.
	ErrNotObject = errors.New("document: not a JSON object")

	// ErrKeyNotFound is returned when a required key is absent.
	ErrKeyNotFound = errors.New("document: key not found")
)

// Get returns the raw JSON value stored under key.
// The second result is false when the key is absent.
func Get(doc []byte, key string) (string, bool, error) {
	if err := checkObject(doc); err != nil {
		return "", false, err
	}
	res := gjson.GetBytes(doc, escape(key))
	if !res.Exists() {
		return "", false, nil
	}
	return res.Raw, true, nil
}

// Set stores value as a JSON string under key. When mustExist is true the
// key has to be present already; otherwise it is appended if missing.
func Set(doc []byte, key, value string, mustExist bool) ([]byte, error) {
	if err := checkObject(doc); err != nil {
		return nil, err
	}
	path := escape(key)
	if mustExist && !gjson.GetBytes(doc, path).Exists() {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	out, err := sjson.SetBytes(doc, path, value)
	if err != nil {
		return nil, fmt.Errorf("set %q: %w", key, err)
	}
	return out, nil
}

// Keys returns the top-level keys of the document in order.
func Keys(doc []byte) ([]string, error) {
	if err := checkObject(doc); err != nil {
		return nil, err
	}
	var keys []string
	gjson.ParseBytes(doc).ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys, nil
}

func checkObject(doc []byte) error {
	if !gjson.ValidBytes(doc) {
		return ErrInvalid
	}
	if !gjson.ParseBytes(doc).IsObject() {
		return ErrNotObject
	}
	return nil
}

// pathSpecial lists the characters with meaning in gjson and sjson paths.
const pathSpecial = `\.*?|#@!:=<>%~,()[]{}"`

// escape turns a literal top-level key into a path addressing exactly that key.
func escape(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if strings.ContainsRune(pathSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
