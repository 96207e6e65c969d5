package rpc

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/shareserver/internal/envelope"
	"github.com/roach88/shareserver/internal/params"
	"github.com/roach88/shareserver/internal/session"
)

// Call is one incoming request. It lives only until its envelope is built.
type Call struct {
	Service   string
	Procedure string
	Session   session.Session
	Params    params.Params
}

// NewCall builds a call with a non-nil parameter map.
func NewCall(service, procedure string, sess session.Session, p params.Params) *Call {
	if p == nil {
		p = params.Params{}
	}
	return &Call{
		Service:   service,
		Procedure: procedure,
		Session:   sess,
		Params:    p,
	}
}

// ParseMethod splits "Service.procedure" into its two halves.
func ParseMethod(method string) (service, procedure string, err error) {
	service, procedure, ok := strings.Cut(strings.TrimSpace(method), ".")
	if !ok || service == "" || procedure == "" {
		return "", "", fmt.Errorf("invalid method %q: want Service.procedure", method)
	}
	return service, procedure, nil
}

// Handler is the body of a procedure. It reads its arguments from
// call.Params, performs the operation, and returns its own envelope. A
// returned error is converted by the dispatcher; handlers never need to
// build failure envelopes for errors they merely propagate.
type Handler func(ctx context.Context, call *Call) (envelope.Envelope, error)
