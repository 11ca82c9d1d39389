package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/models"
)

// fakeGateway answers request frames from a method table and can push events
type fakeGateway struct {
	t       *testing.T
	token   string
	methods map[string]string

	mu    sync.Mutex
	conns []*websocket.Conn
	calls []string
}

func newFakeGateway(t *testing.T) *fakeGateway {
	return &fakeGateway{
		t:     t,
		token: "secret",
		methods: map[string]string{
			models.MethodSessionsList: `{"sessions":[{"key":"s1","running":true}]}`,
			models.MethodAgentsList:   `[{"id":"main"}]`,
			models.MethodUsageCost:    `{"days":7,"daily":[],"totals":{"totalCost":1.25}}`,
		},
	}
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	g.mu.Lock()
	g.conns = append(g.conns, conn)
	g.mu.Unlock()

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		id := gjson.GetBytes(data, "id").String()
		method := gjson.GetBytes(data, "method").String()

		g.mu.Lock()
		g.calls = append(g.calls, method)
		g.mu.Unlock()

		var reply string
		switch {
		case method == models.MethodConnect:
			if gjson.GetBytes(data, "params.token").String() != g.token {
				reply = `{"type":"res","id":"` + id + `","ok":false,"error":{"message":"unauthorized"}}`
			} else {
				reply = `{"type":"res","id":"` + id + `","ok":true,"payload":{"protocol":1}}`
			}
		case method == models.MethodUsageCost && gjson.GetBytes(data, "params.days").Int() != 7:
			reply = `{"type":"res","id":"` + id + `","ok":false,"error":{"message":"bad days"}}`
		case g.methods[method] != "":
			reply = `{"type":"res","id":"` + id + `","ok":true,"payload":` + g.methods[method] + `}`
		case method == "slow.method":
			continue
		default:
			reply = `{"type":"res","id":"` + id + `","ok":false,"error":{"message":"unknown method ` + method + `"}}`
		}
		if err := conn.Write(ctx, websocket.MessageText, []byte(reply)); err != nil {
			return
		}
	}
}

func (g *fakeGateway) push(name string, payload any) {
	body, err := sonic.Marshal(map[string]any{"type": "event", "event": name, "payload": payload})
	require.NoError(g.t, err)

	g.mu.Lock()
	conns := append([]*websocket.Conn(nil), g.conns...)
	g.mu.Unlock()
	for _, c := range conns {
		_ = c.Write(context.Background(), websocket.MessageText, body)
	}
}

func (g *fakeGateway) dropAll() {
	g.mu.Lock()
	conns := g.conns
	g.conns = nil
	g.mu.Unlock()
	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "restart")
	}
}

func startGateway(t *testing.T) (*fakeGateway, *Client) {
	gw := newFakeGateway(t)
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)

	client := NewClient(Options{
		URL:            "ws" + strings.TrimPrefix(srv.URL, "http"),
		Token:          gw.token,
		RequestTimeout: 2 * time.Second,
		ReconnectMin:   20 * time.Millisecond,
		ReconnectMax:   50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	return gw, client
}

func TestClient_ConnectAndFetch(t *testing.T) {
	_, client := startGateway(t)
	ctx := context.Background()

	require.NoError(t, client.Connect(ctx))
	assert.Equal(t, StateConnected, client.State())

	sessions, err := client.GetSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s1", sessions.Sessions[0].Key)
	assert.True(t, sessions.Sessions[0].Running)

	agents, err := client.GetAgents(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", agents[0].ID)

	cost, err := client.GetCostSummary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1.25, cost.Totals.TotalCost)
}

func TestClient_RejectedCallIsTransportError(t *testing.T) {
	_, client := startGateway(t)
	ctx := context.Background()
	require.NoError(t, client.Connect(ctx))

	_, err := client.GetCostSummary(ctx, 30)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindTransport))
	assert.Contains(t, err.Error(), "bad days")

	_, err = client.Call(ctx, "nope.method", nil)
	assert.Contains(t, err.Error(), "unknown method")
}

func TestClient_BadTokenFailsHandshake(t *testing.T) {
	gw, client := startGateway(t)
	gw.token = "other"

	err := client.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
	assert.Equal(t, StateDisconnected, client.State())
}

func TestClient_CallBeforeConnect(t *testing.T) {
	_, client := startGateway(t)

	_, err := client.Call(context.Background(), models.MethodSessionsList, nil)
	assert.True(t, errors.Is(err, errors.KindTransport))
}

func TestClient_RequestTimeout(t *testing.T) {
	_, client := startGateway(t)
	require.NoError(t, client.Connect(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Call(ctx, "slow.method", nil)
	assert.True(t, errors.Is(err, errors.KindTimeout))
}

func TestClient_DeliversEvents(t *testing.T) {
	gw, client := startGateway(t)
	require.NoError(t, client.Connect(context.Background()))

	got := make(chan string, 1)
	unsubscribe := client.Subscribe(func(name string, payload []byte) {
		got <- name + " " + gjson.GetBytes(payload, "key").String()
	})
	client.Subscribe(func(string, []byte) { panic("handler bug") })

	gw.push(EventSessionStarted, map[string]any{"key": "s9"})

	select {
	case v := <-got:
		assert.Equal(t, "session.started s9", v)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	unsubscribe()
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	gw, client := startGateway(t)

	states := make(chan ConnState, 16)
	client.OnStateChange(func(s ConnState) {
		select {
		case states <- s:
		default:
		}
	})
	require.NoError(t, client.Connect(context.Background()))

	gw.dropAll()

	deadline := time.After(3 * time.Second)
	sawDisconnect := false
	for {
		select {
		case s := <-states:
			if s == StateDisconnected {
				sawDisconnect = true
			}
			if sawDisconnect && s == StateConnected {
				_, err := client.GetAgents(context.Background())
				assert.NoError(t, err)
				return
			}
		case <-deadline:
			t.Fatal("client did not reconnect")
		}
	}
}
