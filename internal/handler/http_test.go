package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/puzzle-league/internal/domain"
	"github.com/puzzle-league/internal/service"
	"github.com/puzzle-league/internal/websocket"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	scores  map[string]domain.StoredScore // username/game/date
	pingErr error
}

func newMemStore() *memStore {
	return &memStore{scores: make(map[string]domain.StoredScore)}
}

func storeKey(username string, game domain.Game, date time.Time) string {
	return username + "/" + string(game) + "/" + date.Format(domain.DateFormat)
}

func (m *memStore) InsertScore(_ context.Context, rec domain.StoredScore, _ string) error {
	key := storeKey(rec.Username, rec.Game, rec.PlayDate)
	if _, exists := m.scores[key]; exists {
		return domain.ErrDuplicateScore
	}
	rec.Date = rec.PlayDate.Format(domain.DateFormat)
	m.scores[key] = rec
	return nil
}

func (m *memStore) ScoresByDate(_ context.Context, date time.Time) ([]domain.StoredScore, error) {
	var out []domain.StoredScore
	want := date.Format(domain.DateFormat)
	for _, rec := range m.scores {
		if rec.Date == want {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) ScoresInRange(_ context.Context, from, to time.Time) ([]domain.ScoreRow, error) {
	var out []domain.ScoreRow
	for _, rec := range m.scores {
		if !rec.PlayDate.Before(from) && !rec.PlayDate.After(to) {
			out = append(out, domain.ScoreRow{
				Username: rec.Username,
				Game:     rec.Game,
				Score:    rec.Score,
				PlayDate: rec.PlayDate,
			})
		}
	}
	return out, nil
}

func (m *memStore) History(_ context.Context, username string) ([]domain.StoredScore, error) {
	var out []domain.StoredScore
	for _, rec := range m.scores {
		if rec.Username == username {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memStore) DeleteScore(_ context.Context, username string, game domain.Game, date time.Time) error {
	key := storeKey(username, game, date)
	if _, exists := m.scores[key]; !exists {
		return domain.ErrScoreNotFound
	}
	delete(m.scores, key)
	return nil
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func newTestServer(t *testing.T, store service.Store) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store, nil, 50, logger)
	hub := websocket.NewHub(logger)
	h := NewHandler(svc, hub, logger)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func decode(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var out APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestSubmitScores(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	body := `{"username":"Alice","text":"Wordle 1,707 3/6\n⬜⬜🟩🟩⬜\n🟩🟩🟩🟩🟩","date":"2023-11-15"}`
	resp, err := http.Post(srv.URL+"/api/v1/submissions", "application/json", strings.NewReader(body))
	require.NoError(t, err)

	out := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)

	data, ok := out.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "2023-11-15", data["date"])
	saved, ok := data["saved"].([]interface{})
	require.True(t, ok)
	require.Len(t, saved, 1)
}

func TestSubmitScores_UserErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"username":`},
		{name: "missing username", body: `{"text":"Wordle 890 3/6"}`},
		{name: "no scores in text", body: `{"username":"alice","text":"hello"}`},
		{name: "future date", body: `{"username":"alice","text":"Wordle 890 3/6\n🟩🟩🟩🟩🟩","date":"2999-01-01"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, newMemStore())
			resp, err := http.Post(srv.URL+"/api/v1/submissions", "application/json", strings.NewReader(tt.body))
			require.NoError(t, err)

			out := decode(t, resp)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.False(t, out.Success)
			require.NotEmpty(t, out.Error)
		})
	}
}

func TestSubmitScores_DuplicateStillSucceeds(t *testing.T) {
	srv := newTestServer(t, newMemStore())
	body := `{"username":"alice","text":"Wordle 890 3/6\n🟩🟩🟩🟩🟩","date":"2023-11-15"}`

	resp, err := http.Post(srv.URL+"/api/v1/submissions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/v1/submissions", "application/json", strings.NewReader(body))
	require.NoError(t, err)

	out := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)

	data := out.Data.(map[string]interface{})
	require.Empty(t, data["saved"])
	errs, ok := data["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "already submitted")
}

func TestGetScores(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store)

	body := `{"username":"alice","text":"Wordle 890 3/6\n🟩🟩🟩🟩🟩","date":"2023-11-15"}`
	resp, err := http.Post(srv.URL+"/api/v1/submissions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/scores?date=2023-11-15")
	require.NoError(t, err)
	out := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)
	require.Len(t, out.Data, 1)

	resp, err = http.Get(srv.URL + "/api/v1/scores?date=not-a-date")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetLeaderboard(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store)

	// seed directly with today's date so the current week window covers it
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertScore(context.Background(), domain.StoredScore{
		Username: "alice",
		Game:     domain.GameWordle,
		Score:    3,
		PlayDate: today,
	}, ""))

	resp, err := http.Get(srv.URL + "/api/v1/leaderboard")
	require.NoError(t, err)
	out := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)

	data := out.Data.(map[string]interface{})
	require.NotEmpty(t, data["week_start"])
	require.NotEmpty(t, data["week_end"])
	boards := data["leaderboard"].([]interface{})
	require.Len(t, boards, 1)
	board := boards[0].(map[string]interface{})
	require.Equal(t, "Wordle", board["game"])
	require.Equal(t, "alice", board["leader"])

	resp, err = http.Get(srv.URL + "/api/v1/leaderboard?week_offset=zero")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetLeaderboard_EmptyWeek(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	resp, err := http.Get(srv.URL + "/api/v1/leaderboard?week_offset=-1&sort=points")
	require.NoError(t, err)
	out := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)

	data := out.Data.(map[string]interface{})
	require.Empty(t, data["leaderboard"])
}

func TestGetHistory(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store)

	body := `{"username":"Alice","text":"#travle #500 +2","date":"2023-11-15"}`
	resp, err := http.Post(srv.URL+"/api/v1/submissions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/v1/players/Alice/history")
	require.NoError(t, err)
	out := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)
	require.Len(t, out.Data, 1)
}

func TestDeleteScore(t *testing.T) {
	store := newMemStore()
	srv := newTestServer(t, store)

	body := `{"username":"alice","text":"Wordle 890 3/6\n🟩🟩🟩🟩🟩","date":"2023-11-15"}`
	resp, err := http.Post(srv.URL+"/api/v1/submissions", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	del := func(payload string) *http.Response {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/scores", strings.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp = del(`{"username":"alice","game":"Wordle","date":"2023-11-15"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, store.scores)

	resp = del(`{"username":"alice","game":"Wordle","date":"2023-11-15"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = del(`{"username":"alice","game":"Sudoku","date":"2023-11-15"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = del(`{"username":"alice","game":"Wordle"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t, newMemStore())

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	out := decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, out.Success)

	resp, err = http.Get(srv.URL + "/version")
	require.NoError(t, err)
	out = decode(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := out.Data.(map[string]interface{})
	require.NotEmpty(t, data["version"])
}

func TestHealthCheck_StoreDown(t *testing.T) {
	store := newMemStore()
	store.pingErr = context.DeadlineExceeded
	srv := newTestServer(t, store)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
