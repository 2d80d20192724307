package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	cfg, err := ParseURL("https://db.example.com/sql")
	require.NoError(t, err)
	assert.Equal(t, "https://db.example.com/sql", cfg.URL)
	assert.Empty(t, cfg.Token)

	cfg, err = ParseURL("https://secret@db.example.com/sql")
	require.NoError(t, err)
	assert.Equal(t, "https://db.example.com/sql", cfg.URL)
	assert.Equal(t, "secret", cfg.Token)

	_, err = ParseURL("postgres://db.example.com")
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	var received Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(Result{
			Command:  "SELECT",
			RowCount: 1,
			Rows:     [][]pgtype.Text{{{String: "1", Valid: true}, {}}},
			Fields: []Field{
				{Name: "a", DataTypeID: 23},
				{Name: "b", DataTypeID: 25},
			},
		})
	}))
	defer srv.Close()

	tr, err := NewHTTP(Config{URL: srv.URL, Token: "tok"})
	require.NoError(t, err)

	res, err := tr.Send(context.Background(), &Request{
		Query:  "select $1, $2",
		Params: []pgtype.Text{{String: "1", Valid: true}, {}},
		Types:  []uint32{23, 0},
	})
	require.NoError(t, err)

	assert.Equal(t, "select $1, $2", received.Query)
	require.Len(t, received.Params, 2)
	assert.True(t, received.Params[0].Valid)
	assert.False(t, received.Params[1].Valid, "NULL parameter travels as json null")

	assert.Equal(t, "SELECT", res.Command)
	assert.Equal(t, 1, res.RowCount)
	require.Len(t, res.Rows, 1)
	assert.False(t, res.Rows[0][1].Valid, "null cell decodes as invalid text")
}

func TestSendErrorCarriesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`syntax error at or near "selec"`))
	}))
	defer srv.Close()

	tr, err := NewHTTP(Config{URL: srv.URL})
	require.NoError(t, err)

	_, err = tr.Send(context.Background(), &Request{Query: "selec 1"})
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusBadGateway, terr.Status)
	assert.Equal(t, `syntax error at or near "selec"`, terr.Body)
}

func TestSendBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch batchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		require.Len(t, batch.Queries, 2)

		json.NewEncoder(w).Encode(batchResult{Results: []*Result{
			{Command: "INSERT", RowCount: 1},
			{Command: "SELECT", RowCount: 0},
		}})
	}))
	defer srv.Close()

	tr, err := NewHTTP(Config{URL: srv.URL})
	require.NoError(t, err)

	results, err := tr.SendBatch(context.Background(), []*Request{
		{Query: "insert into t values ($1)"},
		{Query: "select 1"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "INSERT", results[0].Command)
	assert.Equal(t, "SELECT", results[1].Command)
}

func TestSendBatchCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(batchResult{Results: []*Result{{Command: "SELECT"}}})
	}))
	defer srv.Close()

	tr, err := NewHTTP(Config{URL: srv.URL})
	require.NoError(t, err)

	_, err = tr.SendBatch(context.Background(), []*Request{{Query: "a"}, {Query: "b"}})
	assert.Error(t, err)
}

func TestNewHTTPRequiresURL(t *testing.T) {
	_, err := NewHTTP(Config{})
	assert.Error(t, err)
}
