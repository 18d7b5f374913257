// Package session composes the catalog, world store, spatial query engine
// and camera into one editing session. The session is a single-threaded
// authoritative loop: all state is touched only from the loop goroutine,
// and transports talk to it through channels.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"voxelforge.dev/internal/persistence/worldfile"
	"voxelforge.dev/internal/protocol"
	"voxelforge.dev/internal/sim/camera"
	"voxelforge.dev/internal/sim/catalogs"
	"voxelforge.dev/internal/sim/spatial"
	"voxelforge.dev/internal/sim/tuning"
	"voxelforge.dev/internal/sim/world"
)

// InputEvent is one decoded input message routed to the loop.
type InputEvent struct {
	ClientID string
	Msg      protocol.InputMsg
}

// AttachRequest registers a client output channel with the session.
// Editors get the input seat; when it is taken, the client is attached as
// an observer instead.
type AttachRequest struct {
	ClientID string
	Name     string
	Editor   bool
	Out      chan []byte
	Resp     chan AttachResponse
}

type AttachResponse struct {
	Editor  bool // role actually granted
	Welcome protocol.WelcomeMsg
	Catalog protocol.CatalogMsg
	Sync    protocol.StateMsg // full state for initial re-sync
}

// EditLogger receives one entry per successful mutation. Implemented in
// internal/persistence/log; may be nil.
type EditLogger interface {
	WriteEdit(EditEntry) error
}

type EditEntry struct {
	Tick     uint64    `json:"tick"`
	Op       string    `json:"op"` // "place" | "remove" | "clear" | "import"
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Z        int       `json:"z"`
	BlockID  int       `json:"block_id,omitempty"`
	Revision uint64    `json:"revision"`
	Time     time.Time `json:"time"`
}

type Config struct {
	ID     string
	Tuning tuning.Tuning
}

type clientState struct {
	out    chan []byte
	editor bool
}

type exportReq struct {
	resp chan worldfile.WorldV1
}

type importReq struct {
	file worldfile.WorldV1
	resp chan error
}

type Session struct {
	cfg     Config
	catalog *catalogs.BlockCatalog
	store   *world.Store
	engine  *spatial.Engine
	cam     *camera.Camera

	selected int // active block type id

	tick    atomic.Uint64
	stopped atomic.Bool

	inbox     chan InputEvent
	attach    chan AttachRequest
	leave     chan string
	exportReq chan exportReq
	importReq chan importReq
	stop      chan struct{}
	stopOnce  sync.Once

	clients map[string]*clientState

	// Pending deltas since the last broadcast revision.
	placed       map[world.Vec3i]int
	removed      map[world.Vec3i]struct{}
	full         bool
	lastRevision uint64

	// Telemetry, recomputed on a fixed cadence.
	telemetry atomic.Value // *protocol.Telemetry
	tickTimes []time.Time

	editLog EditLogger

	// Autosave sink; writes happen off the loop goroutine. May be nil.
	snapshotSink chan<- worldfile.WorldV1
}

func New(cfg Config, cats *catalogs.Catalogs) (*Session, error) {
	if len(cats.Blocks.Order) == 0 {
		return nil, fmt.Errorf("session: empty block catalog")
	}
	t := cfg.Tuning
	size := world.Size{X: t.World.SizeX, Y: t.World.SizeY, Z: t.World.SizeZ}

	cam := camera.New(camera.Config{
		Position:    mgl64.Vec3{0, t.Camera.StartHeight, t.Camera.StartDist},
		Pitch:       -0.5,
		MoveSpeed:   t.Camera.MoveSpeed,
		DampingRate: t.Camera.DampingRate,
		LookSens:    t.Camera.LookSens,
	})

	return &Session{
		cfg:       cfg,
		catalog:   &cats.Blocks,
		store:     world.NewStore(size, &cats.Blocks),
		engine:    spatial.NewEngine(size, t.MaxRayDistance),
		cam:       cam,
		selected:  cats.Blocks.Order[0],
		inbox:     make(chan InputEvent, 256),
		attach:    make(chan AttachRequest, 8),
		leave:     make(chan string, 8),
		exportReq: make(chan exportReq),
		importReq: make(chan importReq),
		stop:      make(chan struct{}),
		clients:   map[string]*clientState{},
		placed:    map[world.Vec3i]int{},
		removed:   map[world.Vec3i]struct{}{},
	}, nil
}

func (s *Session) Inbox() chan<- InputEvent     { return s.inbox }
func (s *Session) Attach() chan<- AttachRequest { return s.attach }
func (s *Session) Leave() chan<- string         { return s.leave }
func (s *Session) Tick() uint64                 { return s.tick.Load() }

func (s *Session) SetEditLogger(l EditLogger)                  { s.editLog = l }
func (s *Session) SetSnapshotSink(ch chan<- worldfile.WorldV1) { s.snapshotSink = ch }

// Telemetry returns the most recent debug snapshot, or nil before the
// first sampling cadence. Safe to call from any goroutine.
func (s *Session) Telemetry() *protocol.Telemetry {
	t, _ := s.telemetry.Load().(*protocol.Telemetry)
	return t
}

// Restore seeds the store from a saved world before the loop starts.
func (s *Session) Restore(f worldfile.WorldV1) error {
	if err := s.store.Import(f); err != nil {
		return err
	}
	s.engine.SetSize(s.store.Size())
	s.full = true
	return nil
}

// Export takes a consistent point-in-time snapshot through the loop.
func (s *Session) Export(ctx context.Context) (worldfile.WorldV1, error) {
	req := exportReq{resp: make(chan worldfile.WorldV1, 1)}
	select {
	case s.exportReq <- req:
	case <-ctx.Done():
		return worldfile.WorldV1{}, ctx.Err()
	}
	select {
	case f := <-req.resp:
		return f, nil
	case <-ctx.Done():
		return worldfile.WorldV1{}, ctx.Err()
	}
}

// Import replaces the world wholesale through the loop. A malformed file
// is rejected atomically: the store is left unmodified.
func (s *Session) Import(ctx context.Context, f worldfile.WorldV1) error {
	req := importReq{file: f, resp: make(chan error, 1)}
	select {
	case s.importReq <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Run drives the loop at the configured tick rate until ctx is cancelled
// or Stop is called.
func (s *Session) Run(ctx context.Context) {
	interval := time.Second / time.Duration(s.cfg.Tuning.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.stopped.Store(true)

	dt := interval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case req := <-s.attach:
			s.handleAttach(req)
		case id := <-s.leave:
			delete(s.clients, id)
		case req := <-s.exportReq:
			req.resp <- s.store.Export()
		case req := <-s.importReq:
			req.resp <- s.handleImport(req.file)
		case <-ticker.C:
			s.step(dt, s.drainInbox())
		}
	}
}

func (s *Session) drainInbox() []InputEvent {
	var events []InputEvent
	for {
		select {
		case ev := <-s.inbox:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func (s *Session) handleAttach(req AttachRequest) {
	editor := req.Editor && !s.editorSeatTaken()
	s.clients[req.ClientID] = &clientState{out: req.Out, editor: editor}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       s.cfg.ID,
		WorldParams: protocol.WorldParams{
			Size:           [3]int{s.store.Size().X, s.store.Size().Y, s.store.Size().Z},
			TickRateHz:     s.cfg.Tuning.TickRateHz,
			MaxRayDistance: s.cfg.Tuning.MaxRayDistance,
		},
		Catalog: protocol.DigestRef{
			Digest: s.catalog.DefsDigest,
			Count:  s.catalog.Count(),
		},
		Revision: s.store.Revision(),
	}
	catalog := protocol.CatalogMsg{
		Type:            protocol.TypeCatalog,
		ProtocolVersion: protocol.Version,
		Digest:          s.catalog.DefsDigest,
		Data:            s.catalog.ListByCategory(catalogs.CategoryAll),
	}

	req.Resp <- AttachResponse{
		Editor:  editor,
		Welcome: welcome,
		Catalog: catalog,
		Sync:    s.fullState(),
	}
}

func (s *Session) editorSeatTaken() bool {
	for _, c := range s.clients {
		if c.editor {
			return true
		}
	}
	return false
}

func (s *Session) handleImport(f worldfile.WorldV1) error {
	if err := s.store.Import(f); err != nil {
		return err
	}
	s.engine.SetSize(s.store.Size())
	s.logEdit("import", world.Vec3i{}, 0)
	s.full = true
	s.placed = map[world.Vec3i]int{}
	s.removed = map[world.Vec3i]struct{}{}
	return nil
}

func (s *Session) logEdit(op string, p world.Vec3i, blockID int) {
	if s.editLog == nil {
		return
	}
	_ = s.editLog.WriteEdit(EditEntry{
		Tick:     s.tick.Load(),
		Op:       op,
		X:        p.X,
		Y:        p.Y,
		Z:        p.Z,
		BlockID:  blockID,
		Revision: s.store.Revision(),
		Time:     time.Now().UTC(),
	})
}
