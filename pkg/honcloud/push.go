package honcloud

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type pushEvent struct {
	ApplianceID string `json:"macAddress"`
}

type pushStream struct {
	conn *websocket.Conn
	done chan struct{}
}

func (p *pushStream) close() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	_ = p.conn.Close()
}

// connectPush opens the cloud notification stream. Each event names the
// appliance that changed; the registered callback then triggers a refresh.
// Reconnection is left to the caller's supervision.
func (s *Session) connectPush(ctx context.Context) error {
	if s.cfg.PushURL == "" {
		s.logger.Info("honcloud: push stream disabled")
		return nil
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.auth.AccessToken())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.PushURL, header)
	if err != nil {
		return fmt.Errorf("honcloud push: %w", err)
	}
	s.push = &pushStream{conn: conn, done: make(chan struct{})}
	go s.readPush(s.push)
	s.logger.Info("honcloud: push stream connected")
	return nil
}

func (s *Session) readPush(stream *pushStream) {
	for {
		var event pushEvent
		if err := stream.conn.ReadJSON(&event); err != nil {
			select {
			case <-stream.done:
				return
			default:
			}
			s.logger.Error("honcloud: push stream read error", zap.Error(err))
			s.mu.RLock()
			errorFn := s.pushErrorFn
			s.mu.RUnlock()
			if errorFn != nil {
				errorFn(err)
			}
			return
		}
		if event.ApplianceID == "" {
			continue
		}
		s.mu.RLock()
		updateFn := s.updateFn
		s.mu.RUnlock()
		if updateFn != nil {
			updateFn(event.ApplianceID)
		}
	}
}
