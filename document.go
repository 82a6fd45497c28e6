package sgf

import (
	"fmt"

	"github.com/BenjamenMeyer/saved-game-format/internal/document"
)

// ReadKey returns the raw JSON value stored under key in the JSON document
// held by entry. The second result is false when the key is absent.
func ReadKey(path, entry, key string, opts ...Option) (string, bool, error) {
	if err := requireEntry(path, entry, opts); err != nil {
		return "", false, err
	}
	doc, err := ExtractEntry(path, entry, opts...)
	if err != nil {
		return "", false, err
	}
	value, found, err := document.Get(doc, key)
	if err != nil {
		return "", false, &OpError{Op: "read key", Path: path, Err: fmt.Errorf("%s: %w", entry, err)}
	}
	return value, found, nil
}

// DocumentKeys returns the top-level keys of the JSON document held by entry,
// in document order.
func DocumentKeys(path, entry string, opts ...Option) ([]string, error) {
	if err := requireEntry(path, entry, opts); err != nil {
		return nil, err
	}
	doc, err := ExtractEntry(path, entry, opts...)
	if err != nil {
		return nil, err
	}
	keys, err := document.Keys(doc)
	if err != nil {
		return nil, &OpError{Op: "keys", Path: path, Err: fmt.Errorf("%s: %w", entry, err)}
	}
	return keys, nil
}

// UpdateDocument sets key to the string value in the JSON document held by
// entry and writes the result to out.
//
// With mustExist the key must already be present (ErrKeyNotFound otherwise);
// without it a missing key is appended. The entry itself must exist
// (ErrEntryNotFound otherwise). The rewrite follows RewriteEntry.
func UpdateDocument(in, out, entry, key, value string, mustExist bool, opts ...Option) (*RewriteReport, error) {
	if err := requireEntry(in, entry, opts); err != nil {
		return nil, err
	}
	doc, err := ExtractEntry(in, entry, opts...)
	if err != nil {
		return nil, err
	}
	updated, err := document.Set(doc, key, value, mustExist)
	if err != nil {
		return nil, &OpError{Op: "update", Path: in, Err: fmt.Errorf("%s: %w", entry, err)}
	}

	cfg := newConfig(opts)
	cfg.log().Info("document updated", "entry", entry, "key", key, "old_size", len(doc), "new_size", len(updated))
	return RewriteEntry(in, out, entry, updated, opts...)
}

func requireEntry(path, entry string, opts []Option) error {
	found, err := HasEntry(path, entry, opts...)
	if err != nil {
		return err
	}
	if !found {
		return &OpError{Op: "lookup", Path: path, Err: fmt.Errorf("%w: %q", ErrEntryNotFound, entry)}
	}
	return nil
}
