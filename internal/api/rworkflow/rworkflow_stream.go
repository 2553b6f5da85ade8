package rworkflow

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/goccy/go-json"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/internal/api/middleware/mwrequest"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/eventstream"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/translate/yamlworkflow"
)

const StreamPath = "/ws/workflow"

const writeTimeout = 5 * time.Second

// CreateStreamService mounts StreamWorkflow. Browser upgrades are accepted
// from the server's own origin and from hosts matching originPatterns
// (path.Match syntax, e.g. "localhost:*").
func CreateStreamService(srv *WorkflowServiceRPC, originPatterns []string) *api.Service {
	accept := &websocket.AcceptOptions{OriginPatterns: originPatterns}
	return &api.Service{Path: StreamPath, Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.StreamWorkflow(w, r, accept)
	})}
}

// StreamWorkflow upgrades to a websocket and sends the current graph of
// ?id=, if stored, followed by one WorkflowEvent per save.
func (c *WorkflowServiceRPC) StreamWorkflow(w http.ResponseWriter, r *http.Request, accept *websocket.AcceptOptions) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if c.stream == nil {
		http.Error(w, "streaming is disabled", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, accept)
	if err != nil {
		c.logger.Warn("websocket accept failed", "request_id", mwrequest.FromContext(r.Context()), "error", err)
		return
	}
	defer conn.CloseNow()

	// Clients never send; CloseRead cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	events, err := c.stream.Subscribe(ctx, eventstream.Equals(id))
	if err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	if snapshot, ok := c.snapshot(ctx, id); ok {
		if err := writeEvent(ctx, conn, snapshot); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeEvent(ctx, conn, evt.Payload); err != nil {
				if !errors.Is(err, context.Canceled) {
					c.logger.Debug("websocket write failed", "id", id, "error", err)
				}
				return
			}
		}
	}
}

func (c *WorkflowServiceRPC) snapshot(ctx context.Context, id string) (WorkflowEvent, bool) {
	wf, err := c.store.Get(ctx, id)
	if err != nil {
		if errmap.CodeOf(err) != errmap.CodeNotFound {
			c.logger.Warn("load workflow for stream failed", "id", id, "error", err)
		}
		return WorkflowEvent{}, false
	}
	graph, err := yamlworkflow.Parse([]byte(wf.Text))
	if err != nil {
		return WorkflowEvent{}, false
	}
	return WorkflowEvent{ID: wf.ID, Revision: wf.Revision, Hash: wf.Hash, Graph: graph}, true
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt WorkflowEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
