package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"lendview/services/loanform"
)

const wsWriteTimeout = 10 * time.Second

func (s *Server) streamSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	updates, cancel := sess.subscribe()
	defer cancel()

	ctx := conn.CloseRead(r.Context())
	if err := s.streamSnapshots(ctx, conn, sess.do(nil), updates); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamSnapshots(ctx context.Context, conn *websocket.Conn, initial loanform.Snapshot, updates <-chan loanform.Snapshot) error {
	if err := writeSnapshot(ctx, conn, initial); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeSnapshot(ctx, conn, snap); err != nil {
				return err
			}
		}
	}
}

func writeSnapshot(ctx context.Context, conn *websocket.Conn, snap loanform.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
