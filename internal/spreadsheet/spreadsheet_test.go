package spreadsheet_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/schoolarchive/archive/internal/spreadsheet"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *spreadsheet.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := spreadsheet.New(context.Background(), "sheet-123",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresID(t *testing.T) {
	_, err := spreadsheet.New(context.Background(), "", option.WithHTTPClient(http.DefaultClient))
	assert.Error(t, err)
}

func TestValues(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Contains(t, r.URL.Path, "/spreadsheets/sheet-123/values/Subjects!A2:A")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"range":"Subjects!A2:A200","values":[["Maths"],["History"]]}`)
	})

	rows, err := c.Values(context.Background(), "Subjects!A2:A")

	require.NoError(t, err)
	assert.Equal(t, [][]any{{"Maths"}, {"History"}}, rows)
}

func TestValues_EmptyRange(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"range":"Rooms!A2:A"}`)
	})

	rows, err := c.Values(context.Background(), "Rooms!A2:A")

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestValues_RemoteError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission"}}`)
	})

	_, err := c.Values(context.Background(), "Users!A2:D")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Users!A2:D")
}

func TestAppendRow(t *testing.T) {
	var body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "Access_Logs!A:N:append"), r.URL.Path)
		assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-123"}`)
	})

	err := c.AppendRow(context.Background(), "Access_Logs!A:N", []any{"Mario Rossi", "m.rossi@school.example", "login"})

	require.NoError(t, err)
	assert.Contains(t, body, `"Mario Rossi"`)
	assert.Contains(t, body, `"login"`)
}
