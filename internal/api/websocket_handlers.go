// internal/api/websocket_handlers.go
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/VeoPromptStudio/internal/services"
	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

// WebSocketHandler streams job progress to browsers
type WebSocketHandler struct {
	jobs     *services.JobService
	manager  *WebSocketManager
	response *ResponseHelper
}

func NewWebSocketHandler(jobs *services.JobService, manager *WebSocketManager) *WebSocketHandler {
	if manager == nil {
		manager = NewWebSocketManager()
	}
	return &WebSocketHandler{
		jobs:     jobs,
		manager:  manager,
		response: NewResponseHelper(),
	}
}

// JobWebSocket GET /ws/jobs/:id
// Sends a "progress" message per update and a final "job" message with the
// result, then closes.
func (wh *WebSocketHandler) JobWebSocket(c *gin.Context) {
	jobID := c.Param("id")
	tracker, err := wh.jobs.Tracker(jobID)
	if err != nil {
		wh.response.notFoundOr(c, err, ErrorJobNotFound)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Warn("websocket upgrade failed", map[string]interface{}{
			"job_id": jobID,
			"error":  err.Error(),
		})
		return
	}

	client := newWebSocketClient(conn, jobID)
	wh.manager.Register(client)
	defer wh.manager.Unregister(client)

	go wh.handleWebSocketWrites(client)
	go wh.handleWebSocketReads(client)

	if wh.manager.claimRelay(jobID) {
		go wh.relayJob(jobID, tracker)
	} else {
		// a relay is already streaming this job; catch up on the current state
		client.SendMessage(progressMessage(jobID, tracker.Snapshot()))
	}

	// the writer closes the client after the final message
	select {
	case <-client.done:
	case <-c.Request.Context().Done():
	}
}

func progressMessage(jobID string, update services.ProgressUpdate) map[string]interface{} {
	return map[string]interface{}{
		"type":     "progress",
		"job_id":   jobID,
		"progress": update.Progress,
		"message":  update.Message,
		"status":   update.Status,
	}
}

// relayJob broadcasts the updates of one job to all of its clients and
// finishes them with the job result
func (wh *WebSocketHandler) relayJob(jobID string, tracker *services.ProgressTracker) {
	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	for {
		var update services.ProgressUpdate
		select {
		case update = <-updates:
		case <-tracker.Done:
			// the finishing update may have been dropped on a full channel
			update = tracker.Snapshot()
		}

		wh.manager.BroadcastToJob(jobID, progressMessage(jobID, update))
		if update.Finished() {
			// released first so a client joining now starts its own relay
			wh.manager.releaseRelay(jobID)
			wh.manager.FinishJob(jobID, wh.finalMessage(jobID))
			return
		}
	}
}

func (wh *WebSocketHandler) finalMessage(jobID string) map[string]interface{} {
	job, err := wh.jobs.Get(jobID)
	if err != nil {
		return map[string]interface{}{
			"type":      "error",
			"error":     err.Error(),
			"timestamp": time.Now().Format(time.RFC3339),
		}
	}
	return map[string]interface{}{
		"type": "job",
		"job":  job,
	}
}

// handleWebSocketReads only processes control frames; client messages are ignored
func (wh *WebSocketHandler) handleWebSocketReads(client *WebSocketClient) {
	defer client.Close()

	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.UpdatePing()
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.GetLogger().Debug("websocket read ended", map[string]interface{}{
					"job_id": client.jobID,
					"error":  err.Error(),
				})
			}
			return
		}
		client.UpdatePing()
	}
}

func (wh *WebSocketHandler) handleWebSocketWrites(client *WebSocketClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case <-client.done:
			return

		case message := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, message.data); err != nil {
				return
			}
			if message.last {
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Status GET /api/ws/status
func (wh *WebSocketHandler) Status(c *gin.Context) {
	wh.response.Success(c, wh.manager.GetStatus())
}
