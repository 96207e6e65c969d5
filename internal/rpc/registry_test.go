package rpc

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shareserver/internal/envelope"
	"github.com/roach88/shareserver/internal/session"
)

func okHandler(message string) Handler {
	return func(ctx context.Context, call *Call) (envelope.Envelope, error) {
		return envelope.NewSuccessfulResult(message, nil), nil
	}
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("PictureService", "getPictures", session.PrivilegePublic, okHandler("a")))
	require.NoError(t, r.Register("PictureService", "deletePicture", session.PrivilegeLogged, okHandler("b")))
	table := r.Build()

	desc, err := table.Resolve("PictureService", "deletePicture")
	require.NoError(t, err)
	assert.Equal(t, "PictureService", desc.Service)
	assert.Equal(t, "deletePicture", desc.Procedure)
	assert.Equal(t, session.PrivilegeLogged, desc.MinPrivilege)
	assert.Equal(t, "PictureService.deletePicture", desc.Method())
	assert.Equal(t, 2, table.Len())
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("S", "p", session.PrivilegePublic, okHandler("a")))

	err := r.Register("S", "p", session.PrivilegeAdmin, okHandler("b"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateProcedure))

	// same procedure name under another service is fine
	require.NoError(t, r.Register("T", "p", session.PrivilegePublic, okHandler("c")))
}

func TestRegistry_InvalidBindings(t *testing.T) {
	r := NewRegistry()
	assert.ErrorIs(t, r.Register("", "p", session.PrivilegePublic, okHandler("a")), ErrInvalidName)
	assert.ErrorIs(t, r.Register("S", "", session.PrivilegePublic, okHandler("a")), ErrInvalidName)
	assert.ErrorIs(t, r.Register("S", "p", session.PrivilegePublic, nil), ErrInvalidName)
}

func TestRegistry_ClosedAfterBuild(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("S", "p", session.PrivilegePublic, okHandler("a"))
	table := r.Build()

	err := r.Register("S", "q", session.PrivilegePublic, okHandler("b"))
	assert.ErrorIs(t, err, ErrRegistryClosed)

	_, err = table.Resolve("S", "q")
	assert.ErrorIs(t, err, ErrUnknownProcedure)
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("S", "p", session.PrivilegePublic, okHandler("a"))
	assert.Panics(t, func() {
		r.MustRegister("S", "p", session.PrivilegePublic, okHandler("a"))
	})
}

func TestTable_ResolveUnknown(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("S", "p", session.PrivilegePublic, okHandler("a"))
	table := r.Build()

	_, err := table.Resolve("Nope", "p")
	assert.ErrorIs(t, err, ErrUnknownService)

	_, err = table.Resolve("S", "nope")
	assert.ErrorIs(t, err, ErrUnknownProcedure)

	var nilTable *Table
	_, err = nilTable.Resolve("S", "p")
	assert.ErrorIs(t, err, ErrUnknownService)
	assert.Empty(t, nilTable.Descriptors())
	assert.Zero(t, nilTable.Len())
}

func TestTable_DescriptorsSorted(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("b", "z", session.PrivilegePublic, okHandler(""))
	r.MustRegister("a", "y", session.PrivilegePublic, okHandler(""))
	r.MustRegister("b", "a", session.PrivilegePublic, okHandler(""))

	var methods []string
	for _, d := range r.Build().Descriptors() {
		methods = append(methods, d.Method())
	}
	assert.Equal(t, []string{"a.y", "b.a", "b.z"}, methods)
}

func TestTable_ConcurrentResolve(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("S", "p", session.PrivilegePublic, okHandler(""))
	table := r.Build()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := table.Resolve("S", "p")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}

func TestParseMethod(t *testing.T) {
	service, procedure, err := ParseMethod("PictureService.getPictures")
	require.NoError(t, err)
	assert.Equal(t, "PictureService", service)
	assert.Equal(t, "getPictures", procedure)

	for _, bad := range []string{"", "PictureService", ".x", "x.", "   "} {
		_, _, err := ParseMethod(bad)
		assert.Error(t, err, bad)
	}
}
