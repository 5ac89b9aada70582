// Package server implements the world-update loop and the client
// accept/recv/send goroutines (the glue holding C1-C8 and the wire
// protocol together into one process).
//
// Grounded on pkg/server/server.go's accept-loop architecture: a
// listener plus an accept loop spawning one goroutine per connection, a
// mutex-guarded map of connected clients, and a signal-driven Stop()
// that closes every connection; generalized from that Minecraft
// handshake/login/play state machine to this core's single flat
// message set (internal/protocol), and from its player/item-entity
// bookkeeping to PlayerOwner/MobOwner driving internal/terrain through
// their own internal/surroundings trackers, per
// original_source/server/src/update_world.rs.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/playform/terrain/internal/gaia"
	"github.com/playform/terrain/internal/idalloc"
	"github.com/playform/terrain/internal/mesh"
	"github.com/playform/terrain/internal/physics"
	"github.com/playform/terrain/internal/protocol"
	"github.com/playform/terrain/internal/terrain"
)

// readWriteTimeout bounds how long a stalled client connection is kept
// around, mirroring the 30-second SetReadDeadline applied on every
// packet read.
const readWriteTimeout = 30 * time.Second

// Config holds the pieces of server behavior a caller can tune.
type Config struct {
	// Address is the TCP address to listen on, e.g. ":17575".
	Address string

	// Seed seeds the world's heightmap field and voxel tree.
	Seed int64

	// LODThresholds maps Chebyshev block distance to LODIndex: the
	// smallest threshold >= distance wins, per lod.ThresholdsToLOD.
	// Must be ascending with at most lod.NumLODs entries.
	LODThresholds []int32

	// TickInterval is how often the world-update loop runs.
	TickInterval time.Duration

	// SendBuffer is the per-client outgoing packet queue depth.
	SendBuffer int
}

// DefaultConfig returns reasonable defaults for every field a caller
// doesn't override.
func DefaultConfig() Config {
	return Config{
		Address:       ":17575",
		LODThresholds: []int32{1, 2, 4},
		TickInterval:  50 * time.Millisecond,
		SendBuffer:    64,
	}
}

// client is one connected player's socket plus its outgoing queue.
type client struct {
	id       idalloc.ClientId
	conn     net.Conn
	send     chan *protocol.Packet
	playerId idalloc.EntityId // 0 until AddPlayer is handled
}

// Server owns every connected client, every PlayerOwner/MobOwner, and
// the terrain loader/Gaia worker they drive.
type Server struct {
	config Config
	log    *zap.SugaredLogger

	listener net.Listener
	stopCh   chan struct{}
	group    *errgroup.Group

	clientIds *idalloc.Allocator[idalloc.ClientId]
	ownerIds  *idalloc.Allocator[idalloc.OwnerId]
	entityIds *idalloc.Allocator[idalloc.EntityId]

	physics *physics.Store
	loader  *terrain.Loader
	gaia    *gaia.Worker
	sun     *Sun

	mu      sync.RWMutex
	clients map[idalloc.ClientId]*client
	players map[idalloc.EntityId]*PlayerOwner
	mobs    map[idalloc.EntityId]*MobOwner
}

// New builds a Server with a fresh terrain loader and Gaia worker over
// the given config. It does not start listening until Start is called.
func New(config Config, log *zap.SugaredLogger) *Server {
	entityIds := idalloc.NewAllocator[idalloc.EntityId]()
	physicsStore := physics.New()
	loader := terrain.NewLoader(config.Seed, physicsStore, entityIds)

	s := &Server{
		config:    config,
		log:       log,
		stopCh:    make(chan struct{}),
		clientIds: idalloc.NewAllocator[idalloc.ClientId](),
		ownerIds:  idalloc.NewAllocator[idalloc.OwnerId](),
		entityIds: entityIds,
		physics:   physicsStore,
		loader:    loader,
		sun:       NewSun(),
		clients:   make(map[idalloc.ClientId]*client),
		players:   make(map[idalloc.EntityId]*PlayerOwner),
		mobs:      make(map[idalloc.EntityId]*MobOwner),
	}
	s.gaia = gaia.NewWorker(loader, s.sendToClient, log.Desugar())
	return s
}

// Start begins listening for connections and runs the accept loop and
// world-update tick under a shared errgroup, so either goroutine dying
// unexpectedly is observable from Wait.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("terrain server: listen on %s: %w", s.config.Address, err)
	}
	s.listener = listener
	s.log.Infow("listening", "address", s.config.Address)

	g, _ := errgroup.WithContext(context.Background())
	s.group = g
	g.Go(func() error {
		s.acceptLoop()
		return nil
	})
	g.Go(func() error {
		s.tickLoop()
		return nil
	})
	return nil
}

// Wait blocks until every supervised goroutine started by Start has
// returned, which only happens after Stop closes stopCh.
func (s *Server) Wait() error {
	if s.group == nil {
		return nil
	}
	return s.group.Wait()
}

// Stop closes the listener and every connection, then waits for the
// Gaia worker to drain in-flight requests.
func (s *Server) Stop(ctx context.Context) {
	close(s.stopCh)
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.RLock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.mu.RUnlock()

	s.gaia.Stop(ctx)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.log.Warnw("accept error", "error", err)
				continue
			}
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	c := &client{conn: conn, send: make(chan *protocol.Packet, s.config.SendBuffer)}

	stopWrite := make(chan struct{})
	go s.writeLoop(c, stopWrite)
	defer close(stopWrite)

	for {
		conn.SetReadDeadline(time.Now().Add(readWriteTimeout))
		pkt, err := protocol.ReadPacket(conn)
		if err != nil {
			if c.id != 0 {
				s.removeClient(c.id)
			}
			return
		}
		s.dispatch(c, pkt)
	}
}

func (s *Server) writeLoop(c *client, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case pkt := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(readWriteTimeout))
			if err := protocol.WritePacket(c.conn, pkt); err != nil {
				return
			}
		}
	}
}

func (s *Server) removeClient(id idalloc.ClientId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
}

func (s *Server) dispatch(c *client, pkt *protocol.Packet) {
	switch pkt.Type {
	case protocol.MsgInit:
		_, err := protocol.DecodeInit(pkt.Data)
		if err != nil {
			return
		}
		c.id = s.clientIds.Allocate()
		s.mu.Lock()
		s.clients[c.id] = c
		s.mu.Unlock()
		s.sendTo(c, protocol.LeaseId{ClientId: c.id}.Encode())

	case protocol.MsgPing:
		if _, err := protocol.DecodePing(pkt.Data); err != nil {
			return
		}
		s.sendTo(c, protocol.PingReply{}.Encode())

	case protocol.MsgAddPlayer:
		if _, err := protocol.DecodeAddPlayer(pkt.Data); err != nil {
			return
		}
		p := s.addPlayer()
		c.playerId = p.EntityId
		s.sendTo(c, protocol.PlayerAdded{EntityId: p.EntityId, Position: p.Position}.Encode())

	case protocol.MsgStartJump:
		m, err := protocol.DecodeStartJump(pkt.Data)
		if err != nil {
			return
		}
		s.withPlayer(m.PlayerId, func(p *PlayerOwner) {
			p.mu.Lock()
			p.Jumping = true
			p.mu.Unlock()
		})

	case protocol.MsgStopJump:
		m, err := protocol.DecodeStopJump(pkt.Data)
		if err != nil {
			return
		}
		s.withPlayer(m.PlayerId, func(p *PlayerOwner) {
			p.mu.Lock()
			p.Jumping = false
			p.mu.Unlock()
		})

	case protocol.MsgWalk:
		m, err := protocol.DecodeWalk(pkt.Data)
		if err != nil {
			return
		}
		s.withPlayer(m.PlayerId, func(p *PlayerOwner) {
			p.mu.Lock()
			p.WalkDirection = m.Direction
			p.mu.Unlock()
		})

	case protocol.MsgRotatePlayer:
		m, err := protocol.DecodeRotatePlayer(pkt.Data)
		if err != nil {
			return
		}
		s.withPlayer(m.PlayerId, func(p *PlayerOwner) {
			p.mu.Lock()
			p.Rotation = m.Rotation
			p.mu.Unlock()
		})

	case protocol.MsgRequestBlock:
		m, err := protocol.DecodeRequestBlock(pkt.Data)
		if err != nil {
			return
		}
		s.loader.RequestForClient(m.Position, m.LODIndex, m.ClientId, func(block mesh.Block) {
			s.sendTo(c, protocol.TerrainBlockSend{Position: m.Position, LODIndex: m.LODIndex, Block: block}.Encode())
		}, s.enqueue)

	case protocol.MsgRemoveVoxel:
		m, err := protocol.DecodeRemoveVoxel(pkt.Data)
		if err != nil {
			return
		}
		s.handleRemoveVoxel(m.PlayerId)
	}
}

func (s *Server) withPlayer(id idalloc.EntityId, fn func(*PlayerOwner)) {
	s.mu.RLock()
	p, ok := s.players[id]
	s.mu.RUnlock()
	if ok {
		fn(p)
	}
}

func (s *Server) sendTo(c *client, pkt *protocol.Packet) {
	select {
	case c.send <- pkt:
	default:
		s.log.Warnw("dropping packet to slow client", "client", c.id, "type", pkt.Type)
	}
}

// broadcast sends pkt to every connected client, best-effort.
func (s *Server) broadcast(pkt *protocol.Packet) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		s.sendTo(c, pkt)
	}
}

// sendToClient is the gaia.SendToClient callback: it serializes a
// finished block and pushes it onto the named client's outgoing queue.
func (s *Server) sendToClient(clientId idalloc.ClientId, req terrain.Request, block mesh.Block) {
	s.mu.RLock()
	c, ok := s.clients[clientId]
	s.mu.RUnlock()
	if !ok {
		return
	}
	s.sendTo(c, protocol.TerrainBlockSend{Position: req.Position, LODIndex: req.LODIndex, Block: block}.Encode())
}

// enqueue hands a generation request to the Gaia worker.
func (s *Server) enqueue(req terrain.Request) {
	s.gaia.Submit(req)
}
