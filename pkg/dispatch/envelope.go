package dispatch

// Envelope is the canonical two-shape response value returned by every
// dispatch: OK=true carries Result, OK=false carries a non-empty Error.
// Extras preserves handler-supplied fields that fall outside the canonical
// shape. Dispatch returns envelopes by value; treat them as read-only.
type Envelope struct {
	OK     bool           `json:"ok"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
	Extras map[string]any `json:"extras,omitempty"`
}

// Ok builds a success envelope.
func Ok(result any) Envelope {
	return Envelope{OK: true, Result: result}
}

// Err builds an error envelope.
func Err(errMsg string) Envelope {
	return Envelope{OK: false, Error: errMsg}
}
