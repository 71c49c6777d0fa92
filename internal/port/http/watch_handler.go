package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/subscription"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	watchModeValue      = "value"
	watchModeCollection = "collection"
	watchWriteWait      = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// watchMessage is one frame on the /v1/watch socket. Kind is "value",
// "not_found" or "collection".
type watchMessage struct {
	Path  string                 `json:"path"`
	Kind  string                 `json:"kind"`
	Value store.Value            `json:"value,omitempty"`
	Items map[string]store.Value `json:"items,omitempty"`
	Rev   uint64                 `json:"rev,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// Watch streams subscription events for ?path= over a websocket until the
// client goes away. mode=collection streams the children of path instead.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = watchModeValue
	}
	if mode != watchModeValue && mode != watchModeCollection {
		h.handleError(w, &entity.ValidationError{Fields: []string{"mode"}, Reason: "mode must be value or collection"}, "Watch: bad mode")
		return
	}
	if err := store.ValidatePath(path); err != nil {
		h.handleError(w, err, "Watch: bad path")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection to WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()
	// The server's ReadTimeout still applies to the hijacked conn.
	_ = conn.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	log := h.logger.With(zap.String("path", path), zap.String("mode", mode))
	log.Info("WebSocket watch connected")
	if mode == watchModeCollection {
		err = h.watchCollection(ctx, conn, path)
	} else {
		err = h.watchValue(ctx, conn, path)
	}
	if err != nil {
		log.Warn("WebSocket watch ended with error", zap.Error(err))
		return
	}
	log.Info("WebSocket watch disconnected")
}

func (h *Handler) watchValue(ctx context.Context, conn *websocket.Conn, path string) error {
	stream, err := h.Streams.Open(ctx, path)
	if err != nil {
		return writeFrame(conn, watchMessage{Path: path, Kind: "error", Error: err.Error()})
	}
	defer stream.Close()
	for ev := range stream.Events() {
		msg := watchMessage{Path: ev.Path, Kind: ev.Kind.String(), Rev: ev.Rev}
		if ev.Kind == subscription.KindValue {
			msg.Value = ev.Value
		}
		if err := writeFrame(conn, msg); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) watchCollection(ctx context.Context, conn *websocket.Conn, path string) error {
	stream, err := h.Streams.OpenCollection(ctx, path)
	if err != nil {
		return writeFrame(conn, watchMessage{Path: path, Kind: "error", Error: err.Error()})
	}
	defer stream.Close()
	for ev := range stream.Events() {
		msg := watchMessage{Path: ev.Path, Kind: watchModeCollection, Items: ev.Items}
		if ev.Err != nil {
			msg.Error = ev.Err.Error()
		}
		if err := writeFrame(conn, msg); err != nil {
			return err
		}
	}
	return nil
}

func writeFrame(conn *websocket.Conn, msg watchMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
