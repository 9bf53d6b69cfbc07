package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"digsite.gg/internal/protocol"
	"digsite.gg/internal/sim/manager"
)

type Server struct {
	mgr *manager.Manager
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(mgr *manager.Manager, logger *log.Logger) *Server {
	s := &Server{
		mgr: mgr,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		playerID, out := s.handshake(r.Context(), conn)
		if playerID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
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

		// Reader loop. The session outlives the connection; a dropped
		// socket leaves the player mid-hole until they reconnect or the
		// reaper surfaces them.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				s.send(ctx, out, badRequest("", err.Error()))
				continue
			}
			if base.Type != protocol.TypeAct {
				s.send(ctx, out, badRequest("", "expected ACT"))
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				s.send(ctx, out, badRequest("", "malformed ACT"))
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				s.send(ctx, out, badRequest(act.ID, "bad protocol_version"))
				continue
			}

			res := s.mgr.Do(ctx, playerID, act)
			if !s.send(ctx, out, res) {
				return
			}
		}
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (playerID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closePolicy(conn, "expected HELLO")
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closePolicy(conn, "bad protocol_version")
		return "", nil
	}
	if hello.PlayerID == "" {
		closePolicy(conn, "missing player_id")
		return "", nil
	}

	view, params, resumed, err := s.mgr.StartOrResume(ctx, hello.PlayerID)
	if err != nil {
		s.log.Printf("hello player=%s start: %v", hello.PlayerID, err)
		closePolicy(conn, "session unavailable")
		return "", nil
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		PlayerID:        hello.PlayerID,
		Resumed:         resumed,
		Params:          params,
		View:            view,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", nil
	}

	out = make(chan []byte, 16)
	return hello.PlayerID, out
}

// send marshals v onto the writer queue, blocking until there is room.
// It reports false once the connection is gone.
func (s *Server) send(ctx context.Context, out chan []byte, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Printf("marshal: %v", err)
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case out <- b:
		return true
	}
}

func badRequest(ref, message string) protocol.ResultMsg {
	return protocol.ResultMsg{
		Type:            protocol.TypeResult,
		ProtocolVersion: protocol.Version,
		Ref:             ref,
		Code:            protocol.ErrProtoBadRequest,
		Message:         message,
	}
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
		time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
