package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bitfantasy/partsdesk/internal/inventory/sse"
	"github.com/gin-gonic/gin"
)

const sseClientBuffer = 64

// SSEHandler 推送销售与库存事件
type SSEHandler struct {
	hub       *sse.Hub
	heartbeat time.Duration
}

func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub, heartbeat: 30 * time.Second}
}

// Stream GET /api/v1/sse/events?events=sale_created,stock_low&token=xxx
// events 为空时订阅全部事件
func (h *SSEHandler) Stream(c *gin.Context) {
	topics, err := sse.ParseTopics(c.Query("events"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID := GetUserID(c)
	client := sse.NewClient(fmt.Sprintf("%s_%d", userID, time.Now().UnixNano()), userID, sseClientBuffer, topics)
	h.hub.Register(client)
	defer h.hub.Unregister(client.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	hello, _ := json.Marshal(gin.H{"client_id": client.ID, "events": client.Topics()})
	sse.Event{EventType: sse.EventConnected, Data: string(hello)}.WriteTo(c.Writer)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event, ok := <-client.Events:
			if !ok {
				return false
			}
			_, err := event.WriteTo(w)
			return err == nil
		case <-heartbeat.C:
			_, err := io.WriteString(w, ": keepalive\n\n")
			return err == nil
		}
	})
}
