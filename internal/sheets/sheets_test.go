package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestAppendRows(t *testing.T) {
	var got struct {
		Values [][]any `json:"values"`
	}
	var gotQuery string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":append"), r.URL.Path)
		assert.Contains(t, r.URL.Path, "/v4/spreadsheets/sheet-1/values/")
		gotQuery = r.URL.RawQuery
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRange":"Expenses!A5:D6","updatedRows":2}}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "sheet-1", "", "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	rng, err := client.AppendRows(context.Background(), [][]string{
		{"2024-03-01", "Lunch", "food", "12.50"},
		{"2024-03-02", "Rent", "rent", "900.00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Expenses!A5:D6", rng)

	require.Len(t, got.Values, 2)
	assert.Equal(t, "Lunch", got.Values[0][1])
	assert.Contains(t, gotQuery, "valueInputOption=USER_ENTERED")
	assert.Contains(t, gotQuery, "insertDataOption=INSERT_ROWS")
}

func TestAppendRowsNoop(t *testing.T) {
	client := &Client{}
	rng, err := client.AppendRows(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rng)
}

func TestNewClientRequiresSpreadsheet(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "Expenses", "")
	assert.Error(t, err)
}
