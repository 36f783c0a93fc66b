package pkl

import (
	"fmt"
	"math/big"
)

// AsInt64 converts a decoded integer value to int64, accepting both
// the int64 produced by INT/BININT* and the *big.Int produced by
// LONG/LONG1/LONG4. Callers that don't care about the distinction
// between Python's int and long should use this rather than a type
// switch.
func AsInt64(x Value) (int64, error) {
	switch x := x.(type) {
	case int64:
		return x, nil
	case *big.Int:
		if !x.IsInt64() {
			return 0, fmt.Errorf("pkl: long outside of int64 range")
		}
		return x.Int64(), nil
	}
	return 0, fmt.Errorf("pkl: expect int|long; got %T", x)
}

// AsBytes converts a decoded value to Bytes. It succeeds for Bytes and
// ByteString (the ambiguous legacy Python 2 str, which may carry
// binary data) but not for string.
func AsBytes(x Value) (Bytes, error) {
	switch x := x.(type) {
	case Bytes:
		return x, nil
	case ByteString:
		return Bytes(x), nil
	}
	return "", fmt.Errorf("pkl: expect bytes|bytestring; got %T", x)
}

// AsString converts a decoded value to string. It succeeds for string
// and ByteString, but not for Bytes.
func AsString(x Value) (string, error) {
	switch x := x.(type) {
	case string:
		return x, nil
	case ByteString:
		return string(x), nil
	}
	return "", fmt.Errorf("pkl: expect text|bytestring; got %T", x)
}

// stringEQ reports whether x is string-convertible and equals y.
func stringEQ(x Value, y string) bool {
	s, err := AsString(x)
	return err == nil && s == y
}
