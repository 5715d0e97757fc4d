package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zlib"
)

// ErrDecode means a payload is not zlib compressed UTF-8 JSON.
// Callers treat it as a cache miss.
var ErrDecode = errors.New("unable to decode message payload")

var payloadJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodePayload serializes v as JSON and compresses it with zlib.
func EncodePayload(v any) ([]byte, error) {
	raw, err := payloadJSON.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal payload: %w", err)
	}

	var buf bytes.Buffer
	writer := zlib.NewWriter(&buf)
	if _, err := writer.Write(raw); err != nil {
		return nil, fmt.Errorf("unable to compress payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("unable to compress payload: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodePayload is the inverse of EncodePayload.
func DecodePayload(data []byte, out any) error {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !utf8.Valid(raw) {
		return fmt.Errorf("%w: payload is not valid utf-8", ErrDecode)
	}
	if err := payloadJSON.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return nil
}

func EncodeMessageDict(dict MessageDict) ([]byte, error) {
	return EncodePayload(dict)
}

func DecodeMessageDict(data []byte) (MessageDict, error) {
	var dict MessageDict
	err := DecodePayload(data, &dict)
	return dict, err
}
