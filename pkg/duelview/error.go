package duelview

// DomainError is an error shaped for the UI: a stable code plus a
// user-facing message.
type DomainError struct {
	Code    string
	Message string
}

const (
	CodeMalformedPosition = "malformed_position"
	CodeIllegalStart      = "illegal_start"
	CodeIllegalMove       = "illegal_move"
	CodeInvalidState      = "invalid_state"
	CodeExportFailure     = "export_failure"
	CodeInternal          = "internal"
)

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "duel error"
}
