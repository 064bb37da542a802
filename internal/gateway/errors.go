package gateway

// ValidationError reports a disallowed statement shape or a missing
// argument. The message is returned to the caller verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// DispatchKind tells which lookup failed.
type DispatchKind int

const (
	UnknownTool DispatchKind = iota + 1
	UnknownPrompt
	UnknownResourcePath
	UnsupportedScheme
)

func (k DispatchKind) String() string {
	switch k {
	case UnknownTool:
		return "unknown tool"
	case UnknownPrompt:
		return "unknown prompt"
	case UnknownResourcePath:
		return "unknown resource path"
	case UnsupportedScheme:
		return "unsupported scheme"
	}
	return "dispatch"
}

// DispatchError reports a request for a tool, prompt or resource that does
// not exist.
type DispatchError struct {
	Kind DispatchKind
	Msg  string
}

func (e *DispatchError) Error() string {
	return e.Msg
}
