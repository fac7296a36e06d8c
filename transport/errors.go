package transport

import "fmt"

// DecodeErrorKind classifies why a payment header failed to decode.
type DecodeErrorKind string

const (
	// DecodeInvalidBase64 means the header is not valid base64.
	DecodeInvalidBase64 DecodeErrorKind = "invalid_base64"

	// DecodeInvalidJSON means the base64 decoded, but the bytes are not the
	// expected JSON shape.
	DecodeInvalidJSON DecodeErrorKind = "invalid_json"

	// DecodeUnknownScheme means the payload parsed, but references a protocol
	// version or scheme no registered capability implements.
	DecodeUnknownScheme DecodeErrorKind = "unknown_scheme"
)

// DecodeError is the error type for all header codec failures.
type DecodeError struct {
	Kind DecodeErrorKind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UnknownSchemeError builds the DecodeError used when a decoded payload
// references a scheme with no registered capability.
func UnknownSchemeError(scheme string) *DecodeError {
	return &DecodeError{
		Kind: DecodeUnknownScheme,
		Err:  fmt.Errorf("no capability registered for scheme %q", scheme),
	}
}
