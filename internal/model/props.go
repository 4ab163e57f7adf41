package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/hlop3z/seqgen/internal/alerr"
	"github.com/hlop3z/seqgen/internal/jsval"
)

// LoadCommonProps reads the common table properties file. The file must hold
// a non-empty JSON object; its keys keep their file order.
//
// Any failure (no path, unreadable file, invalid JSON, not an object, empty
// object) yields nil, which means "defaults only". The reason is logged at
// debug level.
func LoadCommonProps(path string, logger *slog.Logger) *jsval.Map {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("common table properties not readable, using defaults", "path", path, "error", err)
		return nil
	}

	props, err := ParseCommonProps(data)
	if err != nil {
		logger.Debug("common table properties ignored", "path", path, "error", err)
		return nil
	}
	if props.Len() == 0 {
		logger.Debug("common table properties file is empty", "path", path)
		return nil
	}

	logger.Debug("loaded common table properties", "path", path, "keys", props.Keys())
	return props
}

// ParseCommonProps decodes a JSON object into an ordered map. The object is
// read token by token so that keys keep their file order.
func ParseCommonProps(data []byte) (*jsval.Map, error) {
	if !json.Valid(data) {
		return nil, alerr.New(alerr.ErrCommonProps, "common table properties are not valid JSON")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrCommonProps, err, "failed to decode common table properties")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, alerr.New(alerr.ErrCommonProps, "common table properties must be a JSON object")
	}
	return decodeObject(dec)
}

// decodeValue converts the value starting at tok into a jsval node.
func decodeValue(dec *json.Decoder, tok json.Token) (jsval.Node, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
	case nil:
		return jsval.Null{}, nil
	case bool:
		return jsval.Bool(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, alerr.Wrap(alerr.ErrCommonProps, err, "invalid number").With("value", v.String())
		}
		return jsval.Number(f), nil
	case string:
		return jsval.Str(v), nil
	}
	return nil, alerr.New(alerr.ErrCommonProps, fmt.Sprintf("unexpected token %v", tok))
}

// decodeObject reads entries up to and including the closing brace. A
// repeated key keeps its first position and its last value.
func decodeObject(dec *json.Decoder) (*jsval.Map, error) {
	m := jsval.NewMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, alerr.Wrap(alerr.ErrCommonProps, err, "failed to read object key")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, alerr.New(alerr.ErrCommonProps, fmt.Sprintf("unexpected object key %v", tok))
		}
		v, err := nextValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, alerr.Wrap(alerr.ErrCommonProps, err, "unterminated object")
	}
	return m, nil
}

func decodeArray(dec *json.Decoder) (*jsval.List, error) {
	l := jsval.NewList()
	for dec.More() {
		v, err := nextValue(dec)
		if err != nil {
			return nil, err
		}
		l.Append(v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, alerr.Wrap(alerr.ErrCommonProps, err, "unterminated array")
	}
	return l, nil
}

func nextValue(dec *json.Decoder) (jsval.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, alerr.Wrap(alerr.ErrCommonProps, err, "failed to read value")
	}
	return decodeValue(dec, tok)
}
