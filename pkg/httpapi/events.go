package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/lokutor-ai/lokutor-dictation/pkg/eventbus"
)

// subscribeRequest is the first (and only) text frame a client sends.
type subscribeRequest struct {
	Subscribe []string `json:"subscribe"`
}

// eventsHandler upgrades to a websocket connection, reads the one-shot
// subscription request, then streams matching events until the
// connection closes.
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	ctx := r.Context()

	var req subscribeRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		conn.Close(websocket.StatusAbnormalClosure, "failed to read subscription")
		return
	}

	writeCh := make(chan eventbus.Event, 16)
	sub, err := s.bus.Register(req.Subscribe, func(e eventbus.Event) error {
		select {
		case writeCh <- e:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		conn.Close(websocket.StatusCode(1003), err.Error())
		return
	}
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case e := <-writeCh:
			payload, err := json.Marshal(e)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				return
			}
		}
	}
}
