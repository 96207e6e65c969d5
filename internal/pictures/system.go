package pictures

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/roach88/shareserver/internal/envelope"
	"github.com/roach88/shareserver/internal/rpc"
	"github.com/roach88/shareserver/internal/session"
)

// SystemServiceName is the service name of the introspection procedures.
const SystemServiceName = "SystemService"

// ProcedureInfo describes one registered procedure.
type ProcedureInfo struct {
	Service   string `json:"service" cbor:"service"`
	Procedure string `json:"procedure" cbor:"procedure"`
	Privilege string `json:"privilege" cbor:"privilege"`
}

// ProceduresResult is the payload of listProcedures.
type ProceduresResult struct {
	Count      int             `json:"count" cbor:"count"`
	Procedures []ProcedureInfo `json:"procedures" cbor:"procedures"`
}

// PingResult is the payload of ping.
type PingResult struct {
	Time int64 `json:"time" cbor:"time"` // unix milliseconds
}

// SystemService answers liveness and introspection calls.
//
// The procedure table only exists after the registry is built, so it is
// attached with Bind once Build has run.
type SystemService struct {
	table atomic.Pointer[rpc.Table]
	now   func() time.Time
}

// NewSystemService creates the service. now defaults to time.Now.
func NewSystemService(now func() time.Time) *SystemService {
	if now == nil {
		now = time.Now
	}
	return &SystemService{now: now}
}

// Bind attaches the built procedure table listProcedures reports.
func (s *SystemService) Bind(table *rpc.Table) {
	s.table.Store(table)
}

// Register adds the system procedures to reg.
func (s *SystemService) Register(reg *rpc.Registry) error {
	if err := reg.Register(SystemServiceName, "listProcedures", session.PrivilegePublic, s.listProcedures); err != nil {
		return fmt.Errorf("register system service: %w", err)
	}
	if err := reg.Register(SystemServiceName, "ping", session.PrivilegePublic, s.ping); err != nil {
		return fmt.Errorf("register system service: %w", err)
	}
	return nil
}

// Describe converts table descriptors into their listed form.
func Describe(table *rpc.Table) []ProcedureInfo {
	descs := table.Descriptors()
	out := make([]ProcedureInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, ProcedureInfo{
			Service:   d.Service,
			Procedure: d.Procedure,
			Privilege: d.MinPrivilege.String(),
		})
	}
	return out
}

func (s *SystemService) listProcedures(ctx context.Context, call *rpc.Call) (envelope.Envelope, error) {
	procs := Describe(s.table.Load())
	return envelope.NewSuccessfulResult("procedures listed", ProceduresResult{
		Count:      len(procs),
		Procedures: procs,
	}), nil
}

func (s *SystemService) ping(ctx context.Context, call *rpc.Call) (envelope.Envelope, error) {
	return envelope.NewSuccessfulResult("pong", PingResult{Time: s.now().UnixMilli()}), nil
}
