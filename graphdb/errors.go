package graphdb

import "fmt"

// Error kinds surfaced to callers, per spec §7. The store and
// executor never panic on user error; every failure path returns one
// of these (or wraps one with %w) so callers can errors.Is/As.
var (
	ErrDuplicateID       = fmt.Errorf("graphdb: duplicate id")
	ErrMissingNode       = fmt.Errorf("graphdb: missing node")
	ErrNotFound          = fmt.Errorf("graphdb: not found")
	ErrNestedTransaction = fmt.Errorf("graphdb: nested transaction")
	ErrUnboundVariable   = fmt.Errorf("graphdb: unbound variable")
	ErrUnknownFunction   = fmt.Errorf("graphdb: unknown function")
	ErrArgumentError     = fmt.Errorf("graphdb: argument error")
	ErrIO                = fmt.Errorf("graphdb: io error")
)

// ParseError carries the byte offset of a Cypher syntax error
// alongside a human-readable message, per spec §4.4/§7.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

func newParseError(offset int, format string, args ...interface{}) error {
	return &ParseError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}
