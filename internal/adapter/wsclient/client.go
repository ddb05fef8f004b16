package wsclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/EgorLis/chatbot/internal/config"
)

var (
	ErrNotConnected   = errors.New("not connected")
	ErrConnectionLost = errors.New("connection lost")
	ErrAckTimeout     = errors.New("timeout waiting for ack")
)

const (
	defaultPingInterval = 10 * time.Second
	writeTimeout        = 5 * time.Second
	readLimit           = 1 << 20
)

type Option func(*Client)

// WithBackoff задаёт границы экспоненциального реконнекта.
func WithBackoff(first, limit time.Duration) Option {
	return func(c *Client) { c.minBackoff, c.maxBackoff = first, limit }
}

type Client struct {
	name       string
	url        string
	svc        *service
	ping       time.Duration
	ackTimeout time.Duration
	minBackoff time.Duration
	maxBackoff time.Duration
	log        *zap.Logger

	conn     *websocket.Conn
	seq      atomic.Uint32
	mu       sync.Mutex // conn, cbs, pingStop
	cbs      map[uint32]func(*inFrame)
	pingStop chan struct{}

	wmu          sync.Mutex   // сериализует запись в websocket
	lastActivity atomic.Int64 // unix nanos последнего принятого кадра

	inflight sync.WaitGroup // горутины sink
}

func New(cfg config.Adapter, log *zap.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("websocket url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("websocket url: unsupported scheme %q", u.Scheme)
	}
	if log == nil {
		log = zap.NewNop()
	}

	name := cfg.Name
	if name == "" {
		name = "websocket:" + u.Host
	}
	svc := &service{id: cfg.Service, name: cfg.ServiceName, protocol: cfg.Protocol}
	if svc.id == "" {
		svc.id = u.Host
	}
	if svc.name == "" {
		svc.name = svc.id
	}
	if svc.protocol == "" {
		svc.protocol = "websocket"
	}
	ping := cfg.PingInterval
	if ping == 0 {
		ping = defaultPingInterval
	}

	c := &Client{
		name:       name,
		url:        u.String(),
		svc:        svc,
		ping:       ping,
		ackTimeout: cfg.AckTimeout,
		minBackoff: time.Second,
		maxBackoff: 30 * time.Second,
		log:        log.Named("wsclient").With(zap.String("adapter", name)),
		cbs:        make(map[uint32]func(*inFrame)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() string { return c.name }

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// send пишет кадр; cb, если задан, будет вызван на ack с тем же seq.
func (c *Client) send(f *outFrame, cb func(*inFrame)) error {
	f.Seq = c.seq.Add(1)
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	if conn != nil && cb != nil {
		c.cbs[f.Seq] = cb
	}
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	// запись строго через один мьютекс + write-deadline
	c.wmu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	werr := conn.WriteMessage(websocket.TextMessage, data)
	c.wmu.Unlock()

	if werr != nil {
		// сеть упала между подготовкой и записью - подчищаем cb
		c.mu.Lock()
		delete(c.cbs, f.Seq)
		c.mu.Unlock()
		return werr
	}
	return nil
}

// sendAwait - send, при включённых ack дожидается подтверждения.
func (c *Client) sendAwait(f *outFrame) error {
	if c.ackTimeout <= 0 {
		return c.send(f, nil)
	}
	ackCh := make(chan error, 1)
	err := c.send(f, func(ack *inFrame) {
		if ack.Error != "" {
			ackCh <- errors.New(ack.Error)
			return
		}
		ackCh <- nil
	})
	if err != nil {
		return err
	}

	t := time.NewTimer(c.ackTimeout)
	defer t.Stop()
	select {
	case err := <-ackCh:
		return err
	case <-t.C:
		c.mu.Lock()
		delete(c.cbs, f.Seq)
		c.mu.Unlock()
		return ErrAckTimeout
	}
}
