package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voxelforge.dev/internal/protocol"
	"voxelforge.dev/internal/sim/session"
)

type Server struct {
	sess *session.Session
	log  *log.Logger

	nextClient atomic.Uint64
	upgrader   websocket.Upgrader
}

func NewServer(sess *session.Session, logger *log.Logger) *Server {
	return &Server{
		sess: sess,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		clientID, editor, out := s.handshake(conn)
		if clientID == "" {
			return
		}
		defer func() { s.sess.Leave() <- clientID }()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeInput {
				continue
			}
			if !editor {
				continue // observers have no input seat
			}
			var in protocol.InputMsg
			if err := json.Unmarshal(msg, &in); err != nil {
				continue
			}
			if in.ProtocolVersion != protocol.Version {
				continue
			}
			s.sess.Inbox() <- session.InputEvent{ClientID: clientID, Msg: in}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) (clientID string, editor bool, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false, nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", false, nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", false, nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", false, nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	clientID = fmt.Sprintf("c%d", s.nextClient.Add(1))
	out = make(chan []byte, 256)
	resp := make(chan session.AttachResponse, 1)
	s.sess.Attach() <- session.AttachRequest{
		ClientID: clientID,
		Name:     hello.ClientName,
		Editor:   hello.Role != "observer",
		Out:      out,
		Resp:     resp,
	}
	r := <-resp

	for _, v := range []any{r.Welcome, r.Catalog, r.Sync} {
		b, err := json.Marshal(v)
		if err != nil {
			return "", false, nil
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			s.sess.Leave() <- clientID
			return "", false, nil
		}
	}

	s.log.Printf("client %s (%s) attached, editor=%v", clientID, hello.ClientName, r.Editor)
	return clientID, r.Editor, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}
