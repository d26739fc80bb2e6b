package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/CorvidLabs/algochat/internal/model"

	"github.com/gorilla/websocket"
)

func queueKey(to string) string {
	return fmt.Sprintf("notes:%s", to)
}

func (s *Server) queueNote(ctx context.Context, note *model.Note) error {
	data, err := json.Marshal(note)
	if err != nil {
		return err
	}
	return s.redisService.RPush(ctx, queueKey(note.To), data)
}

// forwardQueuedNotes drains the offline queue to a freshly connected client.
func (s *Server) forwardQueuedNotes(addr string) error {
	ctx := context.TODO()
	vals, err := s.redisService.LRange(ctx, queueKey(addr))
	if err != nil {
		return err
	}
	if len(vals) == 0 {
		return nil
	}
	if err := s.redisService.Del(ctx, queueKey(addr)); err != nil {
		return err
	}

	s.mu.Lock()
	conn, ok := s.conns[addr]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("client %s gone before queue drain", addr)
	}

	for _, v := range vals {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(v)); err != nil {
			return err
		}
	}
	return nil
}
