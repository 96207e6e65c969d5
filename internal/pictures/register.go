package pictures

import (
	"time"

	"github.com/roach88/shareserver/internal/asset"
	"github.com/roach88/shareserver/internal/rpc"
)

// Build registers every service over assets and returns the frozen
// procedure table.
func Build(assets *asset.Store, now func() time.Time) (*rpc.Table, error) {
	reg := rpc.NewRegistry()

	system := NewSystemService(now)
	if err := NewPictureService(assets).Register(reg); err != nil {
		return nil, err
	}
	if err := system.Register(reg); err != nil {
		return nil, err
	}

	table := reg.Build()
	system.Bind(table)
	return table, nil
}
