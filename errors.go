package pkl

import "fmt"

// ErrorKind classifies why a decode failed. All decode errors are
// fatal: Load reports the first one it encounters, carrying enough
// context (opcode, offset) to locate it in the input.
type ErrorKind int

const (
	// UnsupportedProtocol: the PROTO opcode named a version > 5.
	UnsupportedProtocol ErrorKind = iota
	// UnsupportedFeature: EXT1/EXT2/EXT4 or NEXT_BUFFER were seen.
	UnsupportedFeature
	// MissingResolver: PERSID/BINPERSID with no PersistentIDResolver configured.
	MissingResolver
	// ResolverContract: a user-supplied resolver returned an error.
	ResolverContract
	// Truncated: a cursor read ran past the end of the input.
	Truncated
	// MalformedOperand: a numeric literal, quoted string or length/content pair didn't parse.
	MalformedOperand
	// UnknownOpcode: a byte outside the opcode set defined in opcodes.go.
	UnknownOpcode
	// StackUnderflow: pop on an empty stack, pop-to-mark with no mark, or STOP with extra items.
	StackUnderflow
	// TypeMismatch: a mutator opcode's target is the wrong kind (e.g. BUILD on a non-descriptor).
	TypeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedProtocol:
		return "unsupported protocol"
	case UnsupportedFeature:
		return "unsupported feature"
	case MissingResolver:
		return "missing resolver"
	case ResolverContract:
		return "resolver contract violated"
	case Truncated:
		return "truncated input"
	case MalformedOperand:
		return "malformed operand"
	case UnknownOpcode:
		return "unknown opcode"
	case StackUnderflow:
		return "stack underflow"
	case TypeMismatch:
		return "type mismatch"
	default:
		return "decode error"
	}
}

// DecodeError is returned by Load on any failure, identifying which
// opcode and byte offset triggered it along with the ErrorKind.
type DecodeError struct {
	Kind   ErrorKind
	Opcode byte // 0 if not associated with a specific opcode byte
	Offset int  // byte offset into the input at which the error was detected
	Msg    string
}

func (e *DecodeError) Error() string {
	if e.Opcode == 0 {
		return fmt.Sprintf("pkl: decode: %s at offset %d: %s", e.Kind, e.Offset, e.Msg)
	}
	return fmt.Sprintf("pkl: decode: %s at opcode %#02x (offset %d): %s", e.Kind, e.Opcode, e.Offset, e.Msg)
}

// decodeErr builds a *DecodeError; msg is fmt.Sprintf-formatted.
func decodeErr(kind ErrorKind, opcode byte, offset int, msg string, args ...any) error {
	return &DecodeError{
		Kind:   kind,
		Opcode: opcode,
		Offset: offset,
		Msg:    fmt.Sprintf(msg, args...),
	}
}
