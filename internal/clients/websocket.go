package clients

import (
	"context"

	ws "github.com/kcattaeva-hash/Oplata/internal/transport/websocket"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

// NotifyChanged tells connected clients that a collection ("students",
// "payments" or "logs") has new state and should be re-fetched.
func (c *WebSocketClient) NotifyChanged(ctx context.Context, collection string) error {
	if c == nil || c.hub == nil {
		return nil
	}

	c.hub.Broadcast(&ws.Message{
		Type: "collection_changed",
		Data: map[string]interface{}{
			"collection": collection,
		},
	})
	return nil
}

func (c *WebSocketClient) NotifyExportProgress(ctx context.Context, exportID string, progress float64, stage string) error {
	if c == nil || c.hub == nil {
		return nil
	}

	data := map[string]interface{}{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	c.hub.Broadcast(&ws.Message{
		Type: "export_progress",
		Data: data,
	})
	return nil
}

func (c *WebSocketClient) NotifyExportComplete(ctx context.Context, exportID, url, filename string) error {
	if c == nil || c.hub == nil {
		return nil
	}

	c.hub.Broadcast(&ws.Message{
		Type: "export_complete",
		Data: map[string]interface{}{
			"id":       exportID,
			"url":      url,
			"filename": filename,
		},
	})
	return nil
}

// NotifyExportFailed notifies clients that an export failed with the provided error message.
func (c *WebSocketClient) NotifyExportFailed(ctx context.Context, exportID, errMsg string) error {
	if c == nil || c.hub == nil {
		return nil
	}

	c.hub.Broadcast(&ws.Message{
		Type: "export_failed",
		Data: map[string]interface{}{
			"id":      exportID,
			"message": errMsg,
		},
	})
	return nil
}
