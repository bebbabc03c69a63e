package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
)

// stateEvent is the final message of a job event stream.
type stateEvent struct {
	State JobState `json:"state"`
}

// handleJobEvents streams job progress over a WebSocket: one text message
// per progress snapshot, then a single state message once the job is
// terminal, then a normal close.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	events, cancel, err := s.jobs.Subscribe(id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	defer cancel()

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "job_id", id, "err", err)
		return
	}
	defer c.CloseNow()

	// The client sends nothing; CloseRead keeps control frames flowing and
	// surfaces a disconnect as context cancellation.
	ctx := c.CloseRead(r.Context())

stream:
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-events:
			if !ok {
				break stream
			}
			if err := writeEvent(ctx, c, p); err != nil {
				return
			}
		}
	}

	st, err := s.jobs.Status(id)
	if err != nil {
		return
	}
	if err := writeEvent(ctx, c, stateEvent{State: st.State}); err != nil {
		return
	}
	c.Close(websocket.StatusNormalClosure, "")
}

// writeEvent marshals v and writes it as one text message.
func writeEvent(ctx context.Context, c *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Write(ctx, websocket.MessageText, data)
}
