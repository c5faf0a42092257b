package filter

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// numbers stay json.Number so that literals such as 12345678901234567890 or 1.50
// reach coercion with their original text
var jsoniterForRequest = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Unmarshal decodes wire JSON into v, keeping numeric literals as json.Number.
// Malformed input is an InvalidRequest.
func Unmarshal(data []byte, v any) error {
	if err := jsoniterForRequest.Unmarshal(data, v); err != nil {
		return &FilterError{Kind: ErrInvalidRequest, Err: errors.Wrap(err, "decode request")}
	}
	return nil
}

// Marshal encodes v with the same configuration as Unmarshal.
func Marshal(v any) ([]byte, error) {
	data, err := jsoniterForRequest.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}
	return data, nil
}
