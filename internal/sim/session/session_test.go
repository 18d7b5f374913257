package session

import (
	"encoding/json"
	"testing"

	"voxelforge.dev/internal/persistence/worldfile"
	"voxelforge.dev/internal/protocol"
	"voxelforge.dev/internal/sim/catalogs"
	"voxelforge.dev/internal/sim/tuning"
	"voxelforge.dev/internal/sim/world"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	cats, err := catalogs.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	cfg := tuning.Default()
	cfg.World.SizeX, cfg.World.SizeY, cfg.World.SizeZ = 8, 8, 8
	cfg.TelemetryEveryTicks = 0
	s, err := New(Config{ID: "test", Tuning: cfg}, cats)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func attachEditor(t *testing.T, s *Session, id string) chan []byte {
	t.Helper()
	out := make(chan []byte, 64)
	resp := make(chan AttachResponse, 1)
	s.handleAttach(AttachRequest{ClientID: id, Name: id, Editor: true, Out: out, Resp: resp})
	r := <-resp
	if !r.Editor {
		t.Fatalf("expected the editor seat")
	}
	if r.Welcome.WorldParams.Size != [3]int{8, 8, 8} {
		t.Fatalf("welcome size: %+v", r.Welcome.WorldParams)
	}
	return out
}

func input(clientID, kind string, mut func(*protocol.InputMsg)) InputEvent {
	m := protocol.InputMsg{Type: protocol.TypeInput, ProtocolVersion: protocol.Version, Kind: kind}
	if mut != nil {
		mut(&m)
	}
	return InputEvent{ClientID: clientID, Msg: m}
}

// aimStraightDown parks the camera above the world center looking down via
// an orbit-pose writeback, so pick results are deterministic.
func aimStraightDown(clientID string) []InputEvent {
	return []InputEvent{
		input(clientID, protocol.InputMode, func(m *protocol.InputMsg) { m.Mode = "orbit" }),
		input(clientID, protocol.InputPose, func(m *protocol.InputMsg) {
			m.Pos = [3]float64{0.5, 5, 0.5}
			m.Pitch = -10 // clamps just inside -90 degrees
		}),
	}
}

func TestStep_PlaceOnGroundThenRemove(t *testing.T) {
	s := newTestSession(t)
	out := attachEditor(t, s, "c1")

	events := append(aimStraightDown("c1"),
		input("c1", protocol.InputPrimary, func(m *protocol.InputMsg) { m.ID = "a1" }))
	s.step(1.0/60, events)

	center := world.Vec3i{X: 4, Y: 0, Z: 4}
	id, ok := s.store.Get(center)
	if !ok || id != s.selected {
		t.Fatalf("expected block %d at %+v, got (%d,%v)", s.selected, center, id, ok)
	}
	if s.store.Revision() != 1 {
		t.Fatalf("revision: got %d want 1", s.store.Revision())
	}

	ack := nextAck(t, out)
	if !ack.Accepted || ack.AckFor != "a1" || ack.Revision != 1 {
		t.Fatalf("ack: %+v", ack)
	}
	st := nextState(t, out)
	if st.Revision != 1 || len(st.Placed) != 1 || st.Placed[0] != (protocol.BlockRef{X: 4, Y: 0, Z: 4, ID: id}) {
		t.Fatalf("state: %+v", st)
	}

	// The placed block now occludes the ground; secondary removes it.
	s.step(1.0/60, []InputEvent{input("c1", protocol.InputSecondary, func(m *protocol.InputMsg) { m.ID = "a2" })})
	if s.store.Count() != 0 {
		t.Fatalf("block not removed")
	}
	ack = nextAck(t, out)
	if !ack.Accepted || ack.AckFor != "a2" {
		t.Fatalf("remove ack: %+v", ack)
	}
	st = nextState(t, out)
	if len(st.Removed) != 1 || st.Removed[0] != (protocol.CellRef{X: 4, Y: 0, Z: 4}) {
		t.Fatalf("remove state: %+v", st)
	}
}

func TestStep_SecondaryOnGroundIsReportedNoOp(t *testing.T) {
	s := newTestSession(t)
	out := attachEditor(t, s, "c1")

	events := append(aimStraightDown("c1"),
		input("c1", protocol.InputSecondary, func(m *protocol.InputMsg) { m.ID = "a1" }))
	s.step(1.0/60, events)

	ack := nextAck(t, out)
	if ack.Accepted || ack.Code != protocol.ErrAbsent {
		t.Fatalf("ack: %+v", ack)
	}
	if s.store.Revision() != 0 {
		t.Fatalf("no-op must not bump revision")
	}
}

func TestStep_NoTargetWhenLookingUp(t *testing.T) {
	s := newTestSession(t)
	out := attachEditor(t, s, "c1")

	events := []InputEvent{
		input("c1", protocol.InputMode, func(m *protocol.InputMsg) { m.Mode = "orbit" }),
		input("c1", protocol.InputPose, func(m *protocol.InputMsg) {
			m.Pos = [3]float64{0, 5, 0}
			m.Pitch = 10 // clamps just inside +90
		}),
		input("c1", protocol.InputPrimary, func(m *protocol.InputMsg) { m.ID = "a1" }),
	}
	s.step(1.0/60, events)

	ack := nextAck(t, out)
	if ack.Accepted || ack.Code != protocol.ErrNoTarget {
		t.Fatalf("ack: %+v", ack)
	}
}

func TestStep_SelectChangesPlacedType(t *testing.T) {
	s := newTestSession(t)
	attachEditor(t, s, "c1")

	events := append(aimStraightDown("c1"),
		input("c1", protocol.InputSelect, func(m *protocol.InputMsg) { m.BlockID = 3 }),
		input("c1", protocol.InputPrimary, nil))
	s.step(1.0/60, events)

	if id, _ := s.store.Get(world.Vec3i{X: 4, Y: 0, Z: 4}); id != 3 {
		t.Fatalf("selected type not used: got %d", id)
	}

	// Unknown ids are ignored by SELECT.
	s.step(1.0/60, []InputEvent{input("c1", protocol.InputSelect, func(m *protocol.InputMsg) { m.BlockID = 9999 })})
	if s.selected != 3 {
		t.Fatalf("unknown id overwrote selection: %d", s.selected)
	}
}

func TestStep_NonCollidableBlocksDoNotOccludeGround(t *testing.T) {
	s := newTestSession(t)
	attachEditor(t, s, "c1")

	// Default id 16 (FLOWER) is not collidable.
	if !s.store.Place(world.Vec3i{X: 4, Y: 0, Z: 4}, 16) {
		t.Fatalf("seed place")
	}

	events := append(aimStraightDown("c1"), input("c1", protocol.InputPrimary, nil))
	s.step(1.0/60, events)

	// The ray passed through the flower and hit the ground under it, so the
	// placement overwrote the same cell rather than stacking on top.
	if id, _ := s.store.Get(world.Vec3i{X: 4, Y: 0, Z: 4}); id != s.selected {
		t.Fatalf("expected overwrite at ground cell, got %d", id)
	}
	if s.store.Has(world.Vec3i{X: 4, Y: 1, Z: 4}) {
		t.Fatalf("non-collidable block must not offer its top face")
	}
}

func TestHandleAttach_SingleEditorSeat(t *testing.T) {
	s := newTestSession(t)
	attachEditor(t, s, "first")

	out := make(chan []byte, 8)
	resp := make(chan AttachResponse, 1)
	s.handleAttach(AttachRequest{ClientID: "second", Editor: true, Out: out, Resp: resp})
	r := <-resp
	if r.Editor {
		t.Fatalf("second editor must be demoted to observer")
	}
	if !r.Sync.Full {
		t.Fatalf("observers sync from a full state message")
	}
}

func TestHandleImport_FullResync(t *testing.T) {
	s := newTestSession(t)
	out := attachEditor(t, s, "c1")

	f := worldfile.WorldV1{
		Version: "1.0",
		Size:    worldfile.SizeV1{X: 16, Y: 16, Z: 16},
		Blocks:  []worldfile.BlockV1{{X: 2, Y: 0, Z: 2, ID: 424242}},
	}
	if err := s.handleImport(f); err != nil {
		t.Fatalf("import: %v", err)
	}
	s.step(1.0/60, nil)

	st := nextState(t, out)
	if !st.Full || st.Size != [3]int{16, 16, 16} {
		t.Fatalf("import must trigger a full resync: %+v", st)
	}
	if len(st.Placed) != 1 || st.Placed[0].ID != 424242 {
		t.Fatalf("dangling id must survive: %+v", st.Placed)
	}
}

func TestStep_ClearBroadcastsFullState(t *testing.T) {
	s := newTestSession(t)
	out := attachEditor(t, s, "c1")
	s.store.Place(world.Vec3i{X: 1, Y: 1, Z: 1}, 1)

	s.step(1.0/60, []InputEvent{input("c1", protocol.InputClear, nil)})
	st := nextState(t, out)
	if !st.Full || len(st.Placed) != 0 {
		t.Fatalf("clear state: %+v", st)
	}
	if s.store.Count() != 0 {
		t.Fatalf("store not cleared")
	}
}

func TestStep_AutosaveCadence(t *testing.T) {
	s := newTestSession(t)
	s.cfg.Tuning.AutosaveEveryTicks = 2
	sink := make(chan worldfile.WorldV1, 1)
	s.SetSnapshotSink(sink)
	s.store.Place(world.Vec3i{X: 0, Y: 0, Z: 0}, 1)

	s.step(1.0/60, nil) // tick 1: no autosave
	select {
	case <-sink:
		t.Fatalf("autosave fired off cadence")
	default:
	}

	s.step(1.0/60, nil) // tick 2
	select {
	case f := <-sink:
		if len(f.Blocks) != 1 {
			t.Fatalf("autosave content: %+v", f.Blocks)
		}
	default:
		t.Fatalf("autosave did not fire")
	}
}

func TestStep_TelemetryOnCadenceOnly(t *testing.T) {
	s := newTestSession(t)
	s.cfg.Tuning.TelemetryEveryTicks = 3
	attachEditor(t, s, "c1")

	for i := 0; i < 2; i++ {
		s.step(1.0/60, nil)
	}
	if s.Telemetry() != nil {
		t.Fatalf("telemetry before cadence")
	}
	s.step(1.0/60, nil) // tick 3
	tel := s.Telemetry()
	if tel == nil || tel.Tick != 3 {
		t.Fatalf("telemetry at tick 3: %+v", tel)
	}
}

func nextAck(t *testing.T, out chan []byte) protocol.AckMsg {
	t.Helper()
	for {
		raw := nextMsg(t, out)
		base, _ := protocol.DecodeBase(raw)
		if base.Type != protocol.TypeAck {
			continue
		}
		var m protocol.AckMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("ack: %v", err)
		}
		return m
	}
}

func nextState(t *testing.T, out chan []byte) protocol.StateMsg {
	t.Helper()
	for {
		raw := nextMsg(t, out)
		base, _ := protocol.DecodeBase(raw)
		if base.Type != protocol.TypeState {
			continue
		}
		var m protocol.StateMsg
		if err := json.Unmarshal(raw, &m); err != nil {
			t.Fatalf("state: %v", err)
		}
		return m
	}
}

func nextMsg(t *testing.T, out chan []byte) []byte {
	t.Helper()
	select {
	case b := <-out:
		return b
	default:
		t.Fatalf("no message queued")
		return nil
	}
}
