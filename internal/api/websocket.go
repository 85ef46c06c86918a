// internal/api/websocket.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Corphon/VeoPromptStudio/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketConnection is the subset of *websocket.Conn the manager uses
type WebSocketConnection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// outboundMessage is one queued text frame. The writer closes the
// connection after a last message.
type outboundMessage struct {
	data []byte
	last bool
}

// WebSocketClient is one browser watching one job
type WebSocketClient struct {
	conn      WebSocketConnection
	jobID     string
	send      chan outboundMessage
	done      chan struct{}
	closeOnce sync.Once
	closed    int32
	lastPing  atomic.Int64 // unix nanos
	createdAt time.Time
}

func newWebSocketClient(conn WebSocketConnection, jobID string) *WebSocketClient {
	client := &WebSocketClient{
		conn:      conn,
		jobID:     jobID,
		send:      make(chan outboundMessage, 32),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
	client.UpdatePing()
	return client
}

// Close is idempotent. The connection is closed before done is signalled.
func (client *WebSocketClient) Close() {
	client.closeOnce.Do(func() {
		atomic.StoreInt32(&client.closed, 1)
		if client.conn != nil {
			client.conn.Close()
		}
		close(client.done)
	})
}

func (client *WebSocketClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

func (client *WebSocketClient) UpdatePing() {
	client.lastPing.Store(time.Now().UnixNano())
}

// IsExpired reports whether no pong arrived within timeout
func (client *WebSocketClient) IsExpired(timeout time.Duration) bool {
	if timeout <= 0 {
		return true
	}
	return time.Since(time.Unix(0, client.lastPing.Load())) > timeout
}

// SendMessage queues message without blocking; a full queue drops it
func (client *WebSocketClient) SendMessage(message interface{}) error {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}
	client.enqueue(msgBytes)
	return nil
}

func (client *WebSocketClient) enqueue(data []byte) {
	if client.IsClosed() {
		return
	}
	select {
	case client.send <- outboundMessage{data: data}:
	case <-client.done:
	default:
		utils.GetLogger().Warn("websocket queue full, message dropped", map[string]interface{}{
			"job_id": client.jobID,
		})
	}
}

// enqueueFinal queues the closing message behind everything already queued.
// It waits up to wsWriteWait for room; a client that cannot take it is closed.
func (client *WebSocketClient) enqueueFinal(data []byte) {
	if client.IsClosed() {
		return
	}
	timer := time.NewTimer(wsWriteWait)
	defer timer.Stop()

	select {
	case client.send <- outboundMessage{data: data, last: true}:
	case <-client.done:
	case <-timer.C:
		utils.GetLogger().Warn("websocket final message not delivered", map[string]interface{}{
			"job_id": client.jobID,
		})
		client.Close()
	}
}

// WebSocketManager tracks connected clients per job
type WebSocketManager struct {
	connections map[string]map[*WebSocketClient]struct{} // jobID -> clients
	relays      map[string]struct{}                      // jobs with a running relay
	mutex       sync.RWMutex
	pingTimeout time.Duration
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		connections: make(map[string]map[*WebSocketClient]struct{}),
		relays:      make(map[string]struct{}),
		pingTimeout: 60 * time.Second,
	}
}

// Run sweeps expired connections until ctx is done, then closes everything
func (manager *WebSocketManager) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			manager.cleanupExpiredConnections()
		case <-ctx.Done():
			manager.Shutdown()
			return
		}
	}
}

func (manager *WebSocketManager) Register(client *WebSocketClient) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if manager.connections[client.jobID] == nil {
		manager.connections[client.jobID] = make(map[*WebSocketClient]struct{})
	}
	manager.connections[client.jobID][client] = struct{}{}
	utils.GetMetricsCollector().IncGauge("websocket_connections")
}

func (manager *WebSocketManager) Unregister(client *WebSocketClient) {
	manager.mutex.Lock()
	if clients, exists := manager.connections[client.jobID]; exists {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			utils.GetMetricsCollector().DecGauge("websocket_connections")
		}
		if len(clients) == 0 {
			delete(manager.connections, client.jobID)
		}
	}
	manager.mutex.Unlock()

	client.Close()
}

func (manager *WebSocketManager) cleanupExpiredConnections() {
	manager.mutex.RLock()
	expired := make([]*WebSocketClient, 0)
	for _, clients := range manager.connections {
		for client := range clients {
			if client.IsClosed() || client.IsExpired(manager.pingTimeout) {
				expired = append(expired, client)
			}
		}
	}
	manager.mutex.RUnlock()

	for _, client := range expired {
		manager.Unregister(client)
	}
}

// claimRelay reports whether the caller should start relaying jobID.
// Exactly one relay runs per job until releaseRelay.
func (manager *WebSocketManager) claimRelay(jobID string) bool {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	if _, running := manager.relays[jobID]; running {
		return false
	}
	manager.relays[jobID] = struct{}{}
	return true
}

func (manager *WebSocketManager) releaseRelay(jobID string) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	delete(manager.relays, jobID)
}

func (manager *WebSocketManager) clientsOf(jobID string) []*WebSocketClient {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	clients := make([]*WebSocketClient, 0, len(manager.connections[jobID]))
	for client := range manager.connections[jobID] {
		clients = append(clients, client)
	}
	return clients
}

// BroadcastToJob sends message to every client of jobID
func (manager *WebSocketManager) BroadcastToJob(jobID string, message interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		utils.GetLogger().Warn("websocket broadcast failed", map[string]interface{}{
			"job_id": jobID,
			"error":  err.Error(),
		})
		return
	}
	for _, client := range manager.clientsOf(jobID) {
		client.enqueue(msgBytes)
	}
}

// FinishJob sends the closing message to every client of jobID. Each
// connection is closed once its writer has sent it.
func (manager *WebSocketManager) FinishJob(jobID string, message interface{}) {
	msgBytes, err := json.Marshal(message)
	if err != nil {
		utils.GetLogger().Warn("websocket broadcast failed", map[string]interface{}{
			"job_id": jobID,
			"error":  err.Error(),
		})
		msgBytes, _ = json.Marshal(map[string]string{"type": "error", "error": err.Error()})
	}

	var wg sync.WaitGroup
	for _, client := range manager.clientsOf(jobID) {
		wg.Add(1)
		go func(client *WebSocketClient) {
			defer wg.Done()
			client.enqueueFinal(msgBytes)
		}(client)
	}
	wg.Wait()
}

// Shutdown closes every connection
func (manager *WebSocketManager) Shutdown() {
	manager.mutex.Lock()
	all := manager.connections
	manager.connections = make(map[string]map[*WebSocketClient]struct{})
	manager.mutex.Unlock()

	for _, clients := range all {
		for client := range clients {
			client.Close()
		}
	}
}

// GetStatus connection counts per job
func (manager *WebSocketManager) GetStatus() map[string]interface{} {
	manager.mutex.RLock()
	defer manager.mutex.RUnlock()

	jobs := make(map[string]int, len(manager.connections))
	total := 0
	for jobID, clients := range manager.connections {
		jobs[jobID] = len(clients)
		total += len(clients)
	}
	return map[string]interface{}{
		"total_jobs":        len(manager.connections),
		"total_connections": total,
		"jobs":              jobs,
	}
}
