package session

import (
	"encoding/json"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"voxelforge.dev/internal/protocol"
	"voxelforge.dev/internal/sim/camera"
	"voxelforge.dev/internal/sim/spatial"
	"voxelforge.dev/internal/sim/world"
)

var directions = map[string]camera.Direction{
	protocol.DirForward: camera.Forward,
	protocol.DirBack:    camera.Back,
	protocol.DirLeft:    camera.Left,
	protocol.DirRight:   camera.Right,
	protocol.DirUp:      camera.Up,
	protocol.DirDown:    camera.Down,
}

// step advances one simulated tick. Ordering within the step is fixed:
// movement/look inputs first, then camera integration, then the pick
// queries and mutations they gate. A query never sees a stale camera.
func (s *Session) step(dt float64, events []InputEvent) {
	tick := s.tick.Add(1)

	var actions []InputEvent
	for _, ev := range events {
		if s.applyStateInput(ev) {
			continue
		}
		actions = append(actions, ev)
	}

	s.cam.Step(dt)

	for _, ev := range actions {
		s.applyAction(ev)
	}

	s.broadcast(tick)

	if sink := s.snapshotSink; sink != nil && s.cfg.Tuning.AutosaveEveryTicks > 0 &&
		tick%uint64(s.cfg.Tuning.AutosaveEveryTicks) == 0 {
		f := s.store.Export()
		f.Metadata = map[string]any{"revision": s.store.Revision(), "tick": tick}
		select {
		case sink <- f:
		default: // writer busy; skip this cadence
		}
	}
}

// applyStateInput handles everything except the two click actions; it
// reports false for events that must run after camera integration.
func (s *Session) applyStateInput(ev InputEvent) bool {
	m := ev.Msg
	switch m.Kind {
	case protocol.InputKeyDown, protocol.InputKeyUp:
		if d, ok := directions[m.Direction]; ok {
			s.cam.SetThrust(d, m.Kind == protocol.InputKeyDown)
		}
	case protocol.InputLook:
		s.cam.Look(m.DX, m.DY)
	case protocol.InputCapture:
		if !m.Captured {
			s.cam.ReleaseCapture()
		}
	case protocol.InputSelect:
		if s.catalog.Has(m.BlockID) {
			s.selected = m.BlockID
		}
	case protocol.InputMode:
		switch m.Mode {
		case "free":
			s.cam.SetMode(camera.ModeFree)
		case "orbit":
			s.cam.SetMode(camera.ModeOrbit)
		}
	case protocol.InputPose:
		if s.cam.Mode() == camera.ModeOrbit {
			s.cam.SetPose(mgl64.Vec3{m.Pos[0], m.Pos[1], m.Pos[2]}, m.Yaw, m.Pitch)
		}
	case protocol.InputClear:
		s.store.Clear()
		s.logEdit("clear", world.Vec3i{}, 0)
		s.full = true
	case protocol.InputPrimary, protocol.InputSecondary:
		return false
	}
	return true
}

func (s *Session) applyAction(ev InputEvent) {
	m := ev.Msg
	ray := spatial.Ray{Origin: s.cam.Position(), Dir: s.cam.Forward()}
	hit, ok := s.engine.Pick(ray, s.collidableCells())

	accepted := false
	code := ""
	switch {
	case !ok:
		code = protocol.ErrNoTarget
	case m.Kind == protocol.InputPrimary:
		accepted, code = s.place(hit.Target)
	case !hit.HitBlock:
		// Secondary on the ground plane: nothing to remove.
		code = protocol.ErrAbsent
	default:
		if accepted = s.store.Remove(hit.Struck); accepted {
			s.removed[hit.Struck] = struct{}{}
			delete(s.placed, hit.Struck)
			s.logEdit("remove", hit.Struck, 0)
		} else {
			code = protocol.ErrAbsent
		}
	}

	s.ack(ev.ClientID, m.ID, accepted, code)
}

func (s *Session) place(target world.Vec3i) (bool, string) {
	if s.store.Place(target, s.selected) {
		s.placed[target] = s.selected
		delete(s.removed, target)
		s.logEdit("place", target, s.selected)
		return true, ""
	}
	if !s.catalog.Has(s.selected) {
		return false, protocol.ErrBadBlock
	}
	return false, protocol.ErrOutOfBounds
}

// collidableCells filters the occupied set down to cells whose block type
// participates in ray intersection. Ids that resolve to no catalog entry
// (possible after import) are unknown blocks: they neither render nor
// collide.
func (s *Session) collidableCells() []world.Vec3i {
	occupied := s.store.Occupied()
	cells := occupied[:0]
	for _, p := range occupied {
		id, _ := s.store.Get(p)
		if def, ok := s.catalog.Lookup(id); ok && def.Collidable {
			cells = append(cells, p)
		}
	}
	return cells
}

func (s *Session) ack(clientID, inputID string, accepted bool, code string) {
	c, ok := s.clients[clientID]
	if !ok {
		return
	}
	msg := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          inputID,
		Accepted:        accepted,
		Code:            code,
		Revision:        s.store.Revision(),
	}
	s.send(c, msg)
}

func (s *Session) broadcast(tick uint64) {
	telemetry := s.sampleTelemetry(tick)

	rev := s.store.Revision()
	changed := rev != s.lastRevision
	if !changed && telemetry == nil {
		return
	}

	var msg protocol.StateMsg
	if s.full {
		msg = s.fullState()
	} else {
		msg = protocol.StateMsg{
			Type:            protocol.TypeState,
			ProtocolVersion: protocol.Version,
			Revision:        rev,
		}
		for p, id := range s.placed {
			msg.Placed = append(msg.Placed, protocol.BlockRef{X: p.X, Y: p.Y, Z: p.Z, ID: id})
		}
		for p := range s.removed {
			msg.Removed = append(msg.Removed, protocol.CellRef{X: p.X, Y: p.Y, Z: p.Z})
		}
	}
	msg.Telemetry = telemetry

	for _, c := range s.clients {
		s.send(c, msg)
	}

	s.lastRevision = rev
	s.full = false
	s.placed = map[world.Vec3i]int{}
	s.removed = map[world.Vec3i]struct{}{}
}

// fullState materializes the whole block map for initial sync and for
// re-syncs after clear/import.
func (s *Session) fullState() protocol.StateMsg {
	size := s.store.Size()
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Revision:        s.store.Revision(),
		Full:            true,
		Size:            [3]int{size.X, size.Y, size.Z},
	}
	for _, p := range s.store.Occupied() {
		id, _ := s.store.Get(p)
		msg.Placed = append(msg.Placed, protocol.BlockRef{X: p.X, Y: p.Y, Z: p.Z, ID: id})
	}
	return msg
}

// sampleTelemetry recomputes the debug readout every TelemetryEveryTicks
// ticks; other ticks carry none to bound overhead.
func (s *Session) sampleTelemetry(tick uint64) *protocol.Telemetry {
	now := time.Now()
	s.tickTimes = append(s.tickTimes, now)
	if n := len(s.tickTimes); n > 64 {
		s.tickTimes = s.tickTimes[n-64:]
	}

	every := s.cfg.Tuning.TelemetryEveryTicks
	if every <= 0 || tick%uint64(every) != 0 {
		return nil
	}

	rate := float64(s.cfg.Tuning.TickRateHz)
	if n := len(s.tickTimes); n >= 2 {
		span := s.tickTimes[n-1].Sub(s.tickTimes[0]).Seconds()
		if span > 0 {
			rate = float64(n-1) / span
		}
	}

	pos := s.cam.Position()
	vel := s.cam.Velocity()
	t := &protocol.Telemetry{
		Tick:       tick,
		TickRateHz: rate,
		Blocks:     s.store.Count(),
		CameraPos:  [3]float64{pos.X(), pos.Y(), pos.Z()},
		CameraVel:  [3]float64{vel.X(), vel.Y(), vel.Z()},
		Yaw:        s.cam.Yaw(),
		Pitch:      s.cam.Pitch(),
	}
	s.telemetry.Store(t)
	return t
}

func (s *Session) send(c *clientState, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	default: // slow client; drop rather than stall the loop
	}
}
