package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/middleware"
)

type testServer struct {
	*httptest.Server
	repo *memRepository
}

func newTestServer(t *testing.T, game *config.Game) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	j, err := config.NewJWTWithSecret([]byte("0123456789abcdef"))
	require.NoError(t, err)
	ws, err := config.NewWebSocket(nil)
	require.NoError(t, err)
	if game == nil {
		game = config.DefaultGame()
	}

	repo := newMemRepository()
	h := NewFieldHandler(logger, repo, j, ws, game)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /field", h.NewField)
	mux.HandleFunc("GET /field", h.List)
	mux.HandleFunc("GET /field/{id}", h.Fetch)
	mux.HandleFunc("POST /field/{id}/move", h.Move)
	mux.HandleFunc("/field/{id}/connect", h.ConnectWS)

	srv := httptest.NewServer(middleware.Wrap(mux, middleware.Auth(logger, j)))
	t.Cleanup(srv.Close)
	return &testServer{srv, repo}
}

func (s *testServer) do(t *testing.T, method, path, token string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func (s *testServer) create(t *testing.T, query string) CreatedFieldDTO {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/field?"+query, "")
	require.Equal(t, http.StatusCreated, status, string(body))
	var dto CreatedFieldDTO
	require.NoError(t, json.Unmarshal(body, &dto))
	return dto
}

func (s *testServer) move(t *testing.T, id, token, query string) (int, FieldDTO) {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/field/"+id+"/move?"+query, token)
	var dto FieldDTO
	if status == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, &dto))
	}
	return status, dto
}

func TestNewField(t *testing.T) {
	s := newTestServer(t, nil)

	created := s.create(t, "")
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, 8, created.Width)
	assert.Equal(t, 8, created.Height)
	assert.Equal(t, 10, created.MineCount)
	assert.Equal(t, 10, created.MinesLeft)
	assert.Equal(t, 54, created.TilesRemaining)
	assert.Equal(t, "not_started", created.State)
	require.Len(t, created.Grid, 64)
	for _, c := range created.Grid {
		assert.Equal(t, Unknown, c)
	}

	hard := s.create(t, "difficulty=hard&name=daily")
	assert.Equal(t, 30, hard.Width)
	require.NotNil(t, hard.Name)
	assert.Equal(t, "daily", *hard.Name)

	custom := s.create(t, "width=5&height=4&mine_count=3")
	assert.Equal(t, 5, custom.Width)
	assert.Equal(t, 17, custom.TilesRemaining)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"duplicate name", "name=daily", http.StatusConflict},
		{"unknown difficulty", "difficulty=insane", http.StatusBadRequest},
		{"too many mines", "width=2&height=2&mine_count=4", http.StatusBadRequest},
		{"missing height", "width=2&mine_count=1", http.StatusBadRequest},
		{"bad width", "width=wide", http.StatusBadRequest},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			status, _ := s.do(t, http.MethodPost, "/field?"+test.query, "")
			assert.Equal(t, test.status, status)
		})
	}
}

func TestFetchAndList(t *testing.T) {
	s := newTestServer(t, nil)
	first := s.create(t, "width=2&height=1&mine_count=1")
	second := s.create(t, "")

	status, body := s.do(t, http.MethodGet, "/field/"+first.FieldID, "")
	require.Equal(t, http.StatusOK, status)
	var dto FieldDTO
	require.NoError(t, json.Unmarshal(body, &dto))
	assert.Equal(t, first.FieldID, dto.FieldID)
	assert.Contains(t, string(body), `"grid":[-2,-2]`)
	assert.NotContains(t, string(body), "token")

	status, _ = s.do(t, http.MethodGet, "/field/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = s.do(t, http.MethodGet, "/field/42", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.move(t, first.FieldID, first.Token, "move=open&x=0&y=0")
	require.Equal(t, http.StatusOK, status)

	var list []FieldSummaryDTO
	status, body = s.do(t, http.MethodGet, "/field", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, second.FieldID, list[0].FieldID)

	status, body = s.do(t, http.MethodGet, "/field?state=won", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, first.FieldID, list[0].FieldID)
	assert.NotNil(t, list[0].EndedAt)

	status, _ = s.do(t, http.MethodGet, "/field?state=paused", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestMoveAuthorization(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.create(t, "")
	b := s.create(t, "")

	status, _ := s.move(t, a.FieldID, "", "move=open&x=0&y=0")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.move(t, a.FieldID, "garbage", "move=open&x=0&y=0")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.move(t, a.FieldID, b.Token, "move=open&x=0&y=0")
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.move(t, a.FieldID, a.Token, "move=open&x=0&y=0")
	assert.Equal(t, http.StatusOK, status)
}

func TestMoveFirstRevealWins(t *testing.T) {
	s := newTestServer(t, nil)
	f := s.create(t, "width=2&height=1&mine_count=1")

	status, dto := s.move(t, f.FieldID, f.Token, "move=open&x=1&y=0")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "won", dto.State)
	assert.Equal(t, 0, dto.TilesRemaining)
	assert.Equal(t, []CellStatus{UnflaggedMine, 1}, dto.Grid)
	assert.NotNil(t, dto.EndedAt)

	status, _ = s.move(t, f.FieldID, f.Token, "move=open&x=0&y=0")
	assert.Equal(t, http.StatusConflict, status)
}

func TestMoveSequence(t *testing.T) {
	s := newTestServer(t, &config.Game{
		Difficulty: config.Easy,
		Questions:  true,
	})
	// Opening the middle tile of a 3x1 field with one mine always shows a 1.
	f := s.create(t, "width=3&height=1&mine_count=1")
	move := func(query string) (int, FieldDTO) {
		return s.move(t, f.FieldID, f.Token, query)
	}

	status, _ := move("move=flag&x=0&y=0")
	assert.Equal(t, http.StatusConflict, status, "marks need a running game")

	status, dto := move("move=open&x=1&y=0")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "running", dto.State)
	assert.Equal(t, []CellStatus{Unknown, 1, Unknown}, dto.Grid)
	assert.Equal(t, 1, dto.TilesRemaining)

	status, _ = move("move=flag&x=1&y=0")
	assert.Equal(t, http.StatusConflict, status)
	status, _ = move("move=open&x=3&y=0")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = move("move=dig&x=0&y=0")
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = move("move=open&x=0")
	assert.Equal(t, http.StatusBadRequest, status)

	_, dto = move("move=mark&x=0&y=0")
	assert.Equal(t, Flag, dto.Grid[0])
	assert.Equal(t, 0, dto.MinesLeft)
	_, dto = move("move=mark&x=0&y=0")
	assert.Equal(t, Question, dto.Grid[0])
	_, dto = move("move=cover&x=0&y=0")
	assert.Equal(t, Unknown, dto.Grid[0])
	_, dto = move("move=question&x=2&y=0")
	assert.Equal(t, Question, dto.Grid[2])
	_, dto = move("move=flag&x=0&y=0")
	assert.Equal(t, Flag, dto.Grid[0])

	// The chord either clears the other side or hits the mine under it.
	status, dto = move("move=chord&x=1&y=0")
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, dto.EndedAt)
	switch dto.State {
	case "won":
		assert.Equal(t, []CellStatus{CorrectFlag, 1, 0}, dto.Grid)
	case "lost":
		assert.Equal(t, []CellStatus{WrongFlag, 1, ExplodedMine}, dto.Grid)
	default:
		t.Fatalf("unexpected state %s", dto.State)
	}
}

func TestMoveQuestionsDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	f := s.create(t, "width=3&height=1&mine_count=1")
	status, _ := s.move(t, f.FieldID, f.Token, "move=open&x=1&y=0")
	require.Equal(t, http.StatusOK, status)

	status, _ = s.move(t, f.FieldID, f.Token, "move=question&x=0&y=0")
	assert.Equal(t, http.StatusBadRequest, status)

	_, dto := s.move(t, f.FieldID, f.Token, "move=mark&x=0&y=0")
	assert.Equal(t, Flag, dto.Grid[0])
	_, dto = s.move(t, f.FieldID, f.Token, "move=mark&x=0&y=0")
	assert.Equal(t, Unknown, dto.Grid[0])
}

func TestConnectWS(t *testing.T) {
	s := newTestServer(t, nil)
	f := s.create(t, "width=3&height=1&mine_count=1")
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/field/" + f.FieldID + "/connect"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c, _, err := websocket.DefaultDialer.Dial(url+"?token="+f.Token, nil)
	require.NoError(t, err)
	defer c.Close()

	send := func(msg string) map[string]any {
		t.Helper()
		require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(msg)))
		var reply map[string]any
		require.NoError(t, c.ReadJSON(&reply))
		return reply
	}

	reply := send("g")
	assert.Equal(t, "not_started", reply["state"])

	reply = send("o 1 0\nf 0 0")
	assert.Equal(t, "running", reply["state"])
	assert.Equal(t, []any{float64(Flag), float64(1), float64(Unknown)}, reply["grid"])

	reply = send("o 9 9")
	assert.Contains(t, reply["error"], "out of bounds")

	reply = send("x 1 1")
	assert.Contains(t, reply["error"], "unknown command")

	reply = send("o 1")
	assert.Contains(t, reply["error"], "takes 2 arguments")

	reply = send("c 1 0")
	assert.Contains(t, []any{"won", "lost"}, reply["state"])

	reply = send("u 0 0")
	assert.Contains(t, reply["error"], "not running")

	require.NoError(t, c.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}
