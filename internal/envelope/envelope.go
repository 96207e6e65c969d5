// Package envelope defines the single response shape every procedure call
// produces, the stable error codes clients can rely on, and the total mapping
// from arbitrary Go errors to those codes.
//
// Only two constructors exist: NewSuccessfulResult and NewFailureResult.
// Handlers and the dispatcher both funnel every outcome through them.
package envelope

// Envelope is the normalized success/failure response of one call.
//
// ErrorCode is set only when Success is false. The diagnostic detail passed
// to NewFailureResult is kept out of the serialized form; callers log it via
// Detail.
type Envelope struct {
	Success   bool      `json:"success" cbor:"success"`
	Message   string    `json:"message" cbor:"message"`
	ErrorCode ErrorCode `json:"errorCode,omitempty" cbor:"errorCode,omitempty"`
	Payload   any       `json:"payload,omitempty" cbor:"payload,omitempty"`

	detail error
}

// NewSuccessfulResult builds a success envelope. payload may be nil.
func NewSuccessfulResult(message string, payload any) Envelope {
	return Envelope{
		Success: true,
		Message: message,
		Payload: payload,
	}
}

// NewFailureResult builds a failure envelope. An empty or unrecognized code
// is replaced with CodeUnknown so the wire never carries an unclassified
// code. detail is retained for logging only.
func NewFailureResult(message string, code ErrorCode, detail error) Envelope {
	if !Known(code) {
		code = CodeUnknown
	}
	return Envelope{
		Success:   false,
		Message:   message,
		ErrorCode: code,
		detail:    detail,
	}
}

// FromError builds a failure envelope for err, classifying it with Wrap.
// The message is err's text unless err is an *Error, whose Message is used.
func FromError(err error) Envelope {
	if err == nil {
		return NewFailureResult("unknown error", CodeUnknown, nil)
	}
	return NewFailureResult(MessageOf(err), Wrap(err), err)
}

// Detail returns the diagnostic error attached by NewFailureResult, if any.
func (e Envelope) Detail() error {
	return e.detail
}
