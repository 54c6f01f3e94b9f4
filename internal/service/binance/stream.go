package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
	drepo "github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/repository"
	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/pkg/logger"
)

// MaxStreamsPerConnection is the number of streams multiplexed on one socket.
const MaxStreamsPerConnection = 200

// Dialer creates combined-stream connections.
type Dialer struct {
	baseURL      string
	maxStreams   int
	pingInterval time.Duration
	dialer       *websocket.Dialer
	logger       *logger.Logger
}

func NewDialer(baseURL string, maxStreams int, pingInterval time.Duration, l *logger.Logger) *Dialer {
	if baseURL == "" {
		baseURL = DefaultStreamURL
	}
	if maxStreams <= 0 || maxStreams > MaxStreamsPerConnection {
		maxStreams = MaxStreamsPerConnection
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Dialer{
		baseURL:      strings.TrimRight(baseURL, "/"),
		maxStreams:   maxStreams,
		pingInterval: pingInterval,
		dialer:       &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:       l,
	}
}

func (d *Dialer) MaxStreamsPerConnection() int { return d.maxStreams }

func (d *Dialer) NewStream(streams []string) drepo.MarketStream {
	return &Stream{
		url:          d.baseURL + "/stream?streams=" + strings.Join(streams, "/"),
		streams:      len(streams),
		pingInterval: d.pingInterval,
		dialer:       d.dialer,
		logger:       d.logger,
	}
}

// Stream is one combined-stream websocket connection.
type Stream struct {
	url          string
	streams      int
	pingInterval time.Duration
	dialer       *websocket.Dialer
	logger       *logger.Logger

	writeMu   sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	s.conn = conn
	s.connected.Store(true)
	s.logger.Info("stream connected", logger.Int("streams", s.streams))
	return nil
}

type combinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type klinePayload struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Kline     struct {
		OpenTime int64  `json:"t"`
		Interval string `json:"i"`
		Open     string `json:"o"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Close    string `json:"c"`
		Volume   string `json:"v"`
		Closed   bool   `json:"x"`
	} `json:"k"`
}

// Read streams kline events until the connection fails or ctx ends.
// The error channel receives at most one error and is closed with events.
func (s *Stream) Read(ctx context.Context) (<-chan *models.KlineEvent, <-chan error) {
	events := make(chan *models.KlineEvent, 256)
	errs := make(chan error, 1)

	done := make(chan struct{})
	go func() {
		var ticker *time.Ticker
		var tick <-chan time.Time
		if s.pingInterval > 0 {
			ticker = time.NewTicker(s.pingInterval)
			defer ticker.Stop()
			tick = ticker.C
		}
		for {
			select {
			case <-ctx.Done():
				// Unblocks ReadMessage.
				_ = s.Close()
				return
			case <-done:
				return
			case <-tick:
				if err := s.write(websocket.PingMessage, nil); err != nil {
					s.logger.Debug("ping failed", logger.Error(err))
				}
			}
		}
	}()

	go func() {
		defer close(errs)
		defer close(events)
		defer close(done)
		if s.conn == nil {
			errs <- fmt.Errorf("binance: not connected")
			return
		}
		for {
			_, b, err := s.conn.ReadMessage()
			if err != nil {
				s.connected.Store(false)
				if ctx.Err() == nil {
					errs <- fmt.Errorf("binance read: %w", err)
				}
				return
			}
			ev, err := decodeKline(b)
			if err != nil {
				s.logger.Debug("skip frame", logger.Error(err))
				continue
			}
			if ev == nil {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, errs
}

// decodeKline parses one combined-stream frame. Non-kline frames yield nil.
func decodeKline(b []byte) (*models.KlineEvent, error) {
	var msg combinedMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return nil, err
	}
	if len(msg.Data) == 0 {
		return nil, nil
	}
	var p klinePayload
	if err := json.Unmarshal(msg.Data, &p); err != nil {
		return nil, err
	}
	if p.Event != "kline" {
		return nil, nil
	}

	k := p.Kline
	var vals [5]float64
	for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%s field %d: %w", msg.Stream, i, err)
		}
		vals[i] = v
	}
	return &models.KlineEvent{
		Symbol:    strings.ToUpper(p.Symbol),
		Timeframe: models.Timeframe(k.Interval),
		Candle: models.Candle{
			OpenTime: time.UnixMilli(k.OpenTime).UTC(),
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			Volume:   vals[4],
		},
		Final:     k.Closed,
		EventTime: time.UnixMilli(p.EventTime).UTC(),
	}, nil
}

func (s *Stream) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("binance: not connected")
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteMessage(messageType, data)
}

// Close closes the WS connection. It is safe to call more than once.
func (s *Stream) Close() error {
	s.connected.Store(false)
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn != nil {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		return s.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool { return s.connected.Load() }

var _ drepo.StreamDialer = (*Dialer)(nil)
