package wsclient

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// dial с установкой pong-handler'а, дедлайнов и запуском пингов
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(readLimit)

	// всегда обновляем отметку активности сразу
	c.touchActivity()

	deadline := 3 * c.ping
	_ = conn.SetReadDeadline(time.Now().Add(deadline))
	conn.SetPongHandler(func(string) error {
		c.touchActivity()
		return conn.SetReadDeadline(time.Now().Add(deadline))
	})

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.startPing(conn)
	return conn, nil
}

// безопасно закрыть текущее соединение
func (c *Client) closeConn() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if c.pingStop != nil {
		close(c.pingStop)
		c.pingStop = nil
	}
	c.mu.Unlock()

	if conn == nil {
		return
	}
	c.wmu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closing"),
		time.Now().Add(500*time.Millisecond))
	c.wmu.Unlock()
	_ = conn.Close()
}

func (c *Client) startPing(conn *websocket.Conn) {
	stop := make(chan struct{})
	c.mu.Lock()
	if c.pingStop != nil {
		close(c.pingStop)
	}
	c.pingStop = stop
	c.mu.Unlock()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		t := time.NewTicker(c.ping)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				c.wmu.Lock()
				_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout))
				c.wmu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func (c *Client) touchActivity() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// SinceLastActivity - время с последнего принятого кадра или pong.
func (c *Client) SinceLastActivity() time.Duration {
	n := c.lastActivity.Load()
	if n == 0 {
		return time.Hour
	}
	return time.Since(time.Unix(0, n))
}
