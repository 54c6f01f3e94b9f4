package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizkyafrinandaa-hub/CryptoPattern-Detector/internal/domain/models"
)

func TestREST_TopSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, tickerPath, r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastPrice":"64000.1","quoteVolume":"900000000"},
			{"symbol":"ETHBTC","lastPrice":"0.05","quoteVolume":"99999999999"},
			{"symbol":"DOGEUSDT","lastPrice":"0.1","quoteVolume":"500000"},
			{"symbol":"SOLUSDT","lastPrice":"150","quoteVolume":"120000000"},
			{"symbol":"ETHUSDT","lastPrice":"3100","quoteVolume":"400000000"},
			{"symbol":"BADUSDT","lastPrice":"1","quoteVolume":"n/a"}
		]`))
	}))
	defer srv.Close()

	r := NewREST(srv.URL, time.Second)
	got, err := r.TopSymbols(context.Background(), "usdt", 1_000_000, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BTCUSDT", got[0].Symbol)
	assert.Equal(t, "ETHUSDT", got[1].Symbol)
	assert.Equal(t, 64000.1, got[0].LastPrice)
}

func TestREST_Klines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, klinesPath, r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5m", r.URL.Query().Get("interval"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[
			[1700000000000,"100.0","101.5","99.5","101.0","12.5",1700000299999,"0",10,"0","0","0"],
			[1700000300000,"101.0","102.0","100.5","101.8","8.25",1700000599999,"0",10,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	got, err := NewREST(srv.URL, time.Second).Klines(context.Background(), "btcusdt", models.TF5m, 500)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), got[0].OpenTime)
	assert.Equal(t, models.Candle{
		OpenTime: time.UnixMilli(1700000300000).UTC(),
		Open:     101.0, High: 102.0, Low: 100.5, Close: 101.8, Volume: 8.25,
	}, got[1])
}

func TestREST_KlinesDropsOpenBar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			[1700000000000,"100.0","101.5","99.5","101.0","12.5",1700000059999,"0",10,"0","0","0"],
			[1700000060000,"101.0","102.0","100.5","101.8","8.25",1700000119999,"0",10,"0","0","0"]
		]`))
	}))
	defer srv.Close()

	r := NewREST(srv.URL, time.Second)
	r.now = func() time.Time { return time.UnixMilli(1700000090000) }
	got, err := r.Klines(context.Background(), "BTCUSDT", models.TF1m, 2)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 101.0, got[0].Close)

	r.now = func() time.Time { return time.UnixMilli(1700000120000) }
	got, err = r.Klines(context.Background(), "BTCUSDT", models.TF1m, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2, "both bars closed")
}

func TestREST_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "klines") {
			_, _ = w.Write([]byte(`[[1700000000000,"abc","1","1","1","1"]]`))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r := NewREST(srv.URL, time.Second)
	_, err := r.TopSymbols(context.Background(), "USDT", 0, 10)
	assert.ErrorContains(t, err, "429")

	_, err = r.Klines(context.Background(), "BTCUSDT", models.TF1m, 10)
	assert.Error(t, err)
}

func TestDecodeKline(t *testing.T) {
	ev, err := decodeKline([]byte(`{"stream":"btcusdt@kline_1m","data":{"e":"kline","E":1700000060001,"s":"BTCUSDT",
		"k":{"t":1700000000000,"T":1700000059999,"s":"BTCUSDT","i":"1m","o":"1.5","c":"1.7","h":"1.8","l":"1.4","v":"42","x":true}}}`))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, models.NewSeriesKey("BTCUSDT", models.TF1m), ev.Key())
	assert.True(t, ev.Final)
	assert.Equal(t, 1.7, ev.Candle.Close)
	assert.Equal(t, 1.8, ev.Candle.High)

	ev, err = decodeKline([]byte(`{"result":null,"id":1}`))
	assert.NoError(t, err)
	assert.Nil(t, ev)

	_, err = decodeKline([]byte(`{"stream":"x","data":{"e":"kline","k":{"o":"bad","i":"1m"}}}`))
	assert.Error(t, err)
}

func wsServer(t *testing.T, frames []string, gotQuery chan<- string) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery <- r.URL.Query().Get("streams")
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
	}))
}

func TestStream_ReadsUntilServerCloses(t *testing.T) {
	frames := []string{
		`{"stream":"btcusdt@kline_1m","data":{"e":"kline","E":1,"s":"BTCUSDT","k":{"t":60000,"i":"1m","o":"1","c":"2","h":"3","l":"0.5","v":"10","x":false}}}`,
		`not json`,
		`{"stream":"btcusdt@kline_1m","data":{"e":"kline","E":2,"s":"BTCUSDT","k":{"t":60000,"i":"1m","o":"1","c":"2.5","h":"3","l":"0.5","v":"12","x":true}}}`,
	}
	query := make(chan string, 1)
	srv := wsServer(t, frames, query)
	defer srv.Close()

	d := NewDialer("ws"+strings.TrimPrefix(srv.URL, "http"), 0, 0, nil)
	assert.Equal(t, MaxStreamsPerConnection, d.MaxStreamsPerConnection())

	s := d.NewStream([]string{"btcusdt@kline_1m", "ethusdt@kline_5m"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Connect(ctx))
	assert.True(t, s.IsConnected())
	assert.Equal(t, "btcusdt@kline_1m/ethusdt@kline_5m", <-query)

	events, errs := s.Read(ctx)
	var got []*models.KlineEvent
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.False(t, got[0].Final)
	assert.True(t, got[1].Final)
	assert.Equal(t, 2.5, got[1].Candle.Close)

	err, ok := <-errs
	require.True(t, ok)
	assert.Error(t, err)
	assert.False(t, s.IsConnected())
}

func TestStream_ContextCancelStopsRead(t *testing.T) {
	query := make(chan string, 1)
	up := websocket.Upgrader{}
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query <- r.URL.Query().Get("streams")
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-release
	}))
	defer srv.Close()
	defer close(release)

	s := NewDialer("ws"+strings.TrimPrefix(srv.URL, "http"), 10, 0, nil).NewStream([]string{"btcusdt@kline_1m"})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Connect(ctx))
	<-query

	events, errs := s.Read(ctx)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("read loop did not stop")
	}
	for err := range errs {
		t.Fatalf("unexpected error after cancel: %v", err)
	}
}
