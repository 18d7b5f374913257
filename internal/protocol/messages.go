package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// Role is "editor" (full input) or "observer" (state stream only).
	Role string `json:"role,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	SessionID       string      `json:"session_id"`
	WorldParams     WorldParams `json:"world_params"`
	Catalog         DigestRef   `json:"catalog"`
	Revision        uint64      `json:"revision"`
}

type WorldParams struct {
	Size           [3]int  `json:"size"`
	TickRateHz     int     `json:"tick_rate_hz"`
	MaxRayDistance float64 `json:"max_ray_distance"`
}

type DigestRef struct {
	Digest string `json:"digest"` // sha256 hex
	Count  int    `json:"count"`
}

// CATALOG (server -> client): the full block catalog, sent once after
// WELCOME.
type CatalogMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Digest          string      `json:"digest"`
	Data            interface{} `json:"data"`
}

// Input kinds.
const (
	InputKeyDown   = "KEY_DOWN"
	InputKeyUp     = "KEY_UP"
	InputLook      = "LOOK"
	InputPrimary   = "PRIMARY"   // place at the resolved target cell
	InputSecondary = "SECONDARY" // remove the struck block
	InputCapture   = "CAPTURE"
	InputSelect    = "SELECT"
	InputMode      = "MODE"
	InputPose      = "POSE" // orbit-controller pose writeback
	InputClear     = "CLEAR"
)

// Movement directions carried by KEY_DOWN/KEY_UP.
const (
	DirForward = "FORWARD"
	DirBack    = "BACK"
	DirLeft    = "LEFT"
	DirRight   = "RIGHT"
	DirUp      = "UP"
	DirDown    = "DOWN"
)

// INPUT (client -> server). One discrete input event; fields beyond Kind
// are kind-specific.
type InputMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"` // echoed in ACK
	Kind            string `json:"kind"`

	Direction string  `json:"direction,omitempty"` // KEY_DOWN / KEY_UP
	DX        float64 `json:"dx,omitempty"`        // LOOK
	DY        float64 `json:"dy,omitempty"`
	Captured  bool    `json:"captured,omitempty"` // CAPTURE
	BlockID   int     `json:"block_id,omitempty"` // SELECT
	Mode      string  `json:"mode,omitempty"`     // MODE: "free" | "orbit"

	// POSE (orbit writeback).
	Pos   [3]float64 `json:"pos,omitempty"`
	Yaw   float64    `json:"yaw,omitempty"`
	Pitch float64    `json:"pitch,omitempty"`
}

// ACK (server -> client): the structured result of a PRIMARY/SECONDARY
// action. Rejections are results, not errors: the client decides whether to
// surface them.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Revision        uint64 `json:"revision"`
}

// STATE (server -> client): block deltas since the last revision the
// client saw, plus periodic telemetry.
type StateMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	Revision        uint64       `json:"revision"`
	Full            bool         `json:"full,omitempty"` // true after import/clear: replace, don't patch
	Placed          []BlockRef   `json:"placed,omitempty"`
	Removed         []CellRef    `json:"removed,omitempty"`
	Size            [3]int       `json:"size,omitempty"` // present when Full
	Telemetry       *Telemetry   `json:"telemetry,omitempty"`
}

type BlockRef struct {
	X  int `json:"x"`
	Y  int `json:"y"`
	Z  int `json:"z"`
	ID int `json:"id"`
}

type CellRef struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Telemetry is the debug readout, recomputed on a fixed cadence rather
// than every tick.
type Telemetry struct {
	Tick       uint64     `json:"tick"`
	TickRateHz float64    `json:"tick_rate_hz"`
	Blocks     int        `json:"blocks"`
	CameraPos  [3]float64 `json:"camera_pos"`
	CameraVel  [3]float64 `json:"camera_vel"`
	Yaw        float64    `json:"yaw"`
	Pitch      float64    `json:"pitch"`
}
