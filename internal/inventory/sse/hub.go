package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// 事件类型
const (
	EventSaleCreated     = "sale_created"
	EventStockLow        = "stock_low"
	EventInventoryUpdate = "inventory_update"

	// EventConnected 仅在建立连接时发给该客户端
	EventConnected = "connected"
)

// Topics 可订阅的事件
var Topics = []string{EventSaleCreated, EventStockLow, EventInventoryUpdate}

// ParseTopics 解析逗号分隔的订阅列表，空串表示订阅全部
func ParseTopics(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	known := make(map[string]struct{}, len(Topics))
	for _, t := range Topics {
		known[t] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		topic := strings.ToLower(strings.TrimSpace(part))
		if topic == "" {
			continue
		}
		if _, ok := known[topic]; !ok {
			return nil, fmt.Errorf("unknown event %q", topic)
		}
		if _, dup := seen[topic]; !dup {
			seen[topic] = struct{}{}
			out = append(out, topic)
		}
	}
	return out, nil
}

// Event 一条推送。ID 由 Hub 按广播顺序分配，从 1 开始
type Event struct {
	ID        uint64 `json:"id,omitempty"`
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// WriteTo 按 text/event-stream 格式写出
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if e.ID > 0 {
		fmt.Fprintf(&b, "id: %d\n", e.ID)
	}
	fmt.Fprintf(&b, "event: %s\ndata: %s\n\n", e.EventType, e.Data)
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Client 一个 SSE 连接。topics 为空时接收全部事件
type Client struct {
	ID     string
	UserID string
	Events chan Event
	topics map[string]struct{}
}

// NewClient 创建只接收 topics 中事件的客户端
func NewClient(id, userID string, buffer int, topics []string) *Client {
	c := &Client{ID: id, UserID: userID, Events: make(chan Event, buffer)}
	if len(topics) > 0 {
		c.topics = make(map[string]struct{}, len(topics))
		for _, t := range topics {
			c.topics[t] = struct{}{}
		}
	}
	return c
}

// Wants 是否订阅了该事件
func (c *Client) Wants(eventType string) bool {
	if len(c.topics) == 0 {
		return true
	}
	_, ok := c.topics[eventType]
	return ok
}

// Topics 实际订阅的事件列表
func (c *Client) Topics() []string {
	if len(c.topics) == 0 {
		return append([]string(nil), Topics...)
	}
	out := make([]string, 0, len(c.topics))
	for t := range c.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	seq     atomic.Uint64
	logger  *zap.Logger
}

// NewHub creates a new SSE Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.Named("sse"),
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("client registered",
		zap.String("client_id", client.ID), zap.String("user_id", client.UserID), zap.Int("total", len(h.clients)))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("client unregistered", zap.String("client_id", clientID), zap.Int("total", len(h.clients)))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every subscribed client. Slow clients drop events.
func (h *Hub) Broadcast(event Event) {
	if h == nil {
		return
	}
	if event.ID == 0 {
		event.ID = h.seq.Add(1)
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !client.Wants(event.EventType) {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("client buffer full, skipping event",
				zap.String("client_id", client.ID), zap.String("event", event.EventType))
		}
	}
}

func (h *Hub) publish(eventType string, payload interface{}) {
	if h == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal event", zap.String("event", eventType), zap.Error(err))
		return
	}
	h.Broadcast(Event{EventType: eventType, Data: string(data)})
}

// PublishSaleCreated 新销售
func (h *Hub) PublishSaleCreated(saleID, modelID string, totalAmount float64, items int) {
	h.publish(EventSaleCreated, map[string]interface{}{
		"sale_id":      saleID,
		"model_id":     modelID,
		"total_amount": totalAmount,
		"items":        items,
	})
}

// PublishStockLow 配件库存到达阈值
func (h *Hub) PublishStockLow(partID, name, partType string, quantity, threshold int) {
	h.publish(EventStockLow, map[string]interface{}{
		"part_id":   partID,
		"name":      name,
		"type":      partType,
		"quantity":  quantity,
		"threshold": threshold,
	})
}

// PublishInventoryUpdate 分类/机型/配件变更，kind 为 category/model/part
func (h *Hub) PublishInventoryUpdate(kind, id, action string) {
	h.publish(EventInventoryUpdate, map[string]string{
		"kind":   kind,
		"id":     id,
		"action": action,
	})
}
