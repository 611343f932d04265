package server

import (
	"bytes"
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/api/models"
	"ctchen222/tic-tac-toe-minimax/internal/api/service"
	"ctchen222/tic-tac-toe-minimax/internal/bot"
	"ctchen222/tic-tac-toe-minimax/internal/config"
	"ctchen222/tic-tac-toe-minimax/internal/events"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"ctchen222/tic-tac-toe-minimax/internal/repository"
	"ctchen222/tic-tac-toe-minimax/pkg/proto"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  T    `json:"extras"`
}

type testServer struct {
	*httptest.Server
	auth service.AuthService
}

func newTestServer(t *testing.T, cfg config.HTTP) *testServer {
	t.Helper()
	calc, err := bot.NewBotMoveCalculator(bot.WithPruning())
	require.NoError(t, err)

	broker := events.NewMemoryBroker()
	games := service.NewGameService(repository.NewMemoryGameRepository(time.Hour), calc, broker, game.PlayerO)
	auth := service.NewAuthService("test-secret-key", time.Hour)

	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = time.Hour
	}
	srv := httptest.NewServer(NewServer(cfg, games, auth, broker).Handler())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, auth: auth}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func (ts *testServer) createGame(t *testing.T) models.CreateGameResponse {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/games", "", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	env := decode[models.CreateGameResponse](t, resp)
	require.True(t, env.Success)
	return env.Extras
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, config.HTTP{})
	resp := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndGetGame(t *testing.T) {
	ts := newTestServer(t, config.HTTP{})
	created := ts.createGame(t)

	assert.NotEmpty(t, created.GameID)
	assert.NotEmpty(t, created.Token)
	require.NotNil(t, created.State)
	assert.Equal(t, game.PlayerO, created.State.Human)
	assert.Equal(t, game.AwaitingHuman, created.State.Phase)

	resp := ts.do(t, http.MethodGet, "/api/games/"+created.GameID, created.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[proto.GameState](t, resp).Extras
	assert.Equal(t, created.GameID, state.ID)
}

func TestTokenEnforcement(t *testing.T) {
	ts := newTestServer(t, config.HTTP{})
	first := ts.createGame(t)
	second := ts.createGame(t)

	missingToken, err := ts.auth.IssueToken("missing")
	require.NoError(t, err)

	tests := []struct {
		name       string
		gameID     string
		token      string
		wantStatus int
	}{
		{name: "No token", gameID: first.GameID, token: "", wantStatus: http.StatusUnauthorized},
		{name: "Garbage token", gameID: first.GameID, token: "garbage", wantStatus: http.StatusUnauthorized},
		{name: "Token of another game", gameID: first.GameID, token: second.Token, wantStatus: http.StatusUnauthorized},
		{name: "Own token", gameID: first.GameID, token: first.Token, wantStatus: http.StatusOK},
		{name: "Unknown game", gameID: "missing", token: missingToken, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, "/api/games/"+tt.gameID, tt.token, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestPlayMove(t *testing.T) {
	ts := newTestServer(t, config.HTTP{})
	created := ts.createGame(t)
	path := "/api/games/" + created.GameID + "/moves"

	// The human's move comes back with the computer's reply.
	resp := ts.do(t, http.MethodPost, path, created.Token, map[string]int{"cell": 4})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[proto.GameState](t, resp).Extras
	assert.Equal(t, game.PlayerO, state.Board[1][1])
	assert.Equal(t, 2, state.Moves)
	require.NotNil(t, state.LastMove)
	reply := *state.LastMove

	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{name: "Missing cell", body: map[string]any{}, wantStatus: http.StatusBadRequest},
		{name: "Cell off the board", body: map[string]int{"cell": 9}, wantStatus: http.StatusBadRequest},
		{name: "Cell taken by the human", body: map[string]int{"cell": 4}, wantStatus: http.StatusConflict},
		{name: "Cell taken by the computer", body: map[string]int{"cell": reply}, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, path, created.Token, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.False(t, decode[map[string]any](t, resp).Success)
		})
	}
}

func TestRestartGame(t *testing.T) {
	ts := newTestServer(t, config.HTTP{})
	created := ts.createGame(t)
	base := "/api/games/" + created.GameID

	resp := ts.do(t, http.MethodPost, base+"/moves", created.Token, map[string]int{"cell": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, base+"/restart", created.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	state := decode[proto.GameState](t, resp).Extras
	assert.Equal(t, 0, state.Moves)
	assert.Equal(t, game.AwaitingHuman, state.Phase)
}

func TestWebSocket(t *testing.T) {
	ts := newTestServer(t, config.HTTP{})
	created := ts.createGame(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + created.GameID

	t.Run("Rejected without token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Pushes updates", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+created.Token, nil)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		var initial proto.ServerToClientMessage
		require.NoError(t, conn.ReadJSON(&initial))
		assert.Equal(t, proto.TypeUpdate, initial.Type)
		assert.Equal(t, created.GameID, initial.State.ID)

		require.NoError(t, conn.WriteJSON(map[string]any{"type": "move", "cell": 8}))

		var update proto.ServerToClientMessage
		require.NoError(t, conn.ReadJSON(&update))
		assert.Equal(t, proto.TypeUpdate, update.Type)
		assert.Equal(t, game.PlayerO, update.State.Board[2][2])
		assert.Equal(t, 2, update.State.Moves)

		require.NoError(t, conn.WriteJSON(map[string]any{"type": "move", "cell": 8}))

		var rejected proto.ServerToClientMessage
		require.NoError(t, conn.ReadJSON(&rejected))
		assert.Equal(t, proto.TypeError, rejected.Type)
	})
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>tic-tac-toe</h1>"), 0o600))

	ts := newTestServer(t, config.HTTP{WebDir: dir})
	resp := ts.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	calc, err := bot.NewBotMoveCalculator()
	require.NoError(t, err)
	broker := events.NewMemoryBroker()
	games := service.NewGameService(repository.NewMemoryGameRepository(time.Hour), calc, broker, game.PlayerO)
	srv := NewServer(config.HTTP{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second, HeartbeatInterval: time.Hour},
		games, service.NewAuthService("test-secret-key", time.Hour), broker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ClosesWebSocketsOnCancel(t *testing.T) {
	// Given: a served game with a connected WebSocket client
	calc, err := bot.NewBotMoveCalculator()
	require.NoError(t, err)
	broker := events.NewMemoryBroker()
	games := service.NewGameService(repository.NewMemoryGameRepository(time.Hour), calc, broker, game.PlayerO)
	auth := service.NewAuthService("test-secret-key", time.Hour)
	srv := NewServer(config.HTTP{ShutdownTimeout: time.Second, HeartbeatInterval: time.Hour}, games, auth, broker)

	id, _, err := games.Create(context.Background())
	require.NoError(t, err)
	token, err := auth.IssueToken(id)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/"+id+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var initial proto.ServerToClientMessage
	require.NoError(t, conn.ReadJSON(&initial))

	// When: the server context ends
	cancel()

	// Then: the client gets a going-away close and the server stops
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseGoingAway, closeErr.Code)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
