package gaia

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/lod"
	"github.com/playform/terrain/internal/mesh"
	"github.com/playform/terrain/internal/physics"
	"github.com/playform/terrain/internal/terrain"
)

func newTestLoader() *terrain.Loader {
	return terrain.NewLoader(0, physics.New(), idalloc.NewAllocator[idalloc.EntityId]())
}

func TestWorkerLocalRequestInstallsBlock(t *testing.T) {
	ps := physics.New()
	loader := terrain.NewLoader(0, ps, idalloc.NewAllocator[idalloc.EntityId]())
	w := NewWorker(loader, nil, zap.NewNop())

	pos := lod.NewBlockPosition(0, 0, 0)
	owner := idalloc.OwnerId(1)
	loader.Load(pos, lod.FromIndex(2), owner, func(terrain.Request) {})

	w.Submit(terrain.Request{Position: pos, LODIndex: 2, Reason: terrain.Local(owner)})
	w.Stop(context.Background())

	assert.NotZero(t, ps.Len())
}

func TestWorkerForClientRequestCallsSend(t *testing.T) {
	loader := newTestLoader()

	var mu sync.Mutex
	var gotClient idalloc.ClientId
	var gotBlock mesh.Block
	var called bool

	send := func(client idalloc.ClientId, req terrain.Request, block mesh.Block) {
		mu.Lock()
		defer mu.Unlock()
		gotClient = client
		gotBlock = block
		called = true
	}

	w := NewWorker(loader, send, zap.NewNop())
	pos := lod.NewBlockPosition(2, 2, 2)
	w.Submit(terrain.Request{Position: pos, LODIndex: 1, Reason: terrain.ForClient(idalloc.ClientId(42))})
	w.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.True(t, called)
	assert.Equal(t, idalloc.ClientId(42), gotClient)
	assert.Equal(t, loader.Generate(pos, 1), gotBlock)
}

func TestWorkerProcessesFIFO(t *testing.T) {
	loader := newTestLoader()

	var mu sync.Mutex
	var order []int32

	send := func(client idalloc.ClientId, req terrain.Request, block mesh.Block) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, req.Position.X)
	}

	w := NewWorker(loader, send, zap.NewNop())
	for i := int32(0); i < 5; i++ {
		w.Submit(terrain.Request{
			Position: lod.NewBlockPosition(i, 0, 0),
			LODIndex: 3,
			Reason:   terrain.ForClient(idalloc.ClientId(1)),
		})
	}
	w.Stop(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 5)
	assert.Equal(t, []int32{0, 1, 2, 3, 4}, order)
}

func TestStopBoundedByContext(t *testing.T) {
	loader := newTestLoader()
	w := NewWorker(loader, nil, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Stop(ctx)
}
