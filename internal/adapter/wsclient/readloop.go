package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/EgorLis/chatbot/internal/chat"
)

// Run подключается и читает кадры, пока ctx не отменён. Первое
// подключение должно пройти; дальше обрывы лечатся реконнектом.
func (c *Client) Run(ctx context.Context, sink chat.Sink) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.log.Info("connected")

	// закрыть по отмене контекста
	stop := context.AfterFunc(ctx, c.closeConn)
	defer func() {
		stop()
		c.closeConn()
		c.failPending(ErrConnectionLost)
		c.inflight.Wait()
	}()

	for {
		err := c.readLoop(conn, sink)
		c.closeConn()
		c.failPending(ErrConnectionLost)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("connection lost", zap.Error(err))

		conn, err = c.reconnect(ctx)
		if err != nil {
			return err
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn, sink chat.Sink) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		// успешное чтение
		c.touchActivity()

		var f inFrame
		if err := json.Unmarshal(data, &f); err != nil {
			c.log.Warn("bad frame", zap.Error(err))
			continue
		}

		switch f.Type {
		case frameMessage:
			msg := c.message(&f)
			// sink может ждать ack, а ack приходит через этот же цикл
			c.inflight.Add(1)
			go func() {
				defer c.inflight.Done()
				sink(msg)
			}()
		case frameAck:
			c.mu.Lock()
			cb, ok := c.cbs[f.Seq]
			delete(c.cbs, f.Seq)
			c.mu.Unlock()
			if ok {
				cb(&f)
			}
		default:
			c.log.Debug("ignored frame", zap.String("type", f.Type))
		}
	}
}

// reconnect с backoff
func (c *Client) reconnect(ctx context.Context) (*websocket.Conn, error) {
	backoff := c.minBackoff
	for {
		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}

		conn, err := c.dial(ctx)
		if err == nil {
			if ctx.Err() != nil {
				// отмена пришла во время dial
				c.closeConn()
				return nil, ctx.Err()
			}
			c.log.Info("reconnected")
			return conn, nil
		}
		c.log.Warn("reconnect failed", zap.Duration("wait", backoff), zap.Error(err))
		backoff = min(backoff*2, c.maxBackoff)
	}
}

// пометить все ожидающие подтверждения ошибкой при реконнекте/закрытии
func (c *Client) failPending(err error) {
	c.mu.Lock()
	cbs := c.cbs
	c.cbs = make(map[uint32]func(*inFrame))
	c.mu.Unlock()

	for _, cb := range cbs {
		cb(&inFrame{Type: frameAck, Error: err.Error()})
	}
}
