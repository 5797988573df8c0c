package mirror

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pcc-tenders/config"
	"pcc-tenders/models"
	"pcc-tenders/utils"
)

const sampleBody = `[
  {"category":"工程類","tender_no":"A112","name":"護岸改善工程","budget":1500000,
   "date":"2024/01/05","unit":"宜蘭縣政府","url":"https://example.test/t/1",
   "award":{"type":"決標公告","date":"2024/02/01","url":"https://example.test/a/1"}},
  {"category":"財物類","tender_no":"B7","name":"車輛採購","budget":null,
   "date":"2024/01/09","unit":"宜蘭縣政府","url":"https://example.test/t/2"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{MirrorBaseURL: srv.URL + "/api", HTTPTimeout: 5 * time.Second}
	return New(cfg, utils.NewDiscardLogger())
}

func TestFetchUnitMonthParsesTenders(t *testing.T) {
	var gotPath, gotRawPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRawPath = r.URL.EscapedPath()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	})

	table, err := c.FetchUnitMonth(context.Background(), "宜蘭縣政府", "202401")
	require.NoError(t, err)

	require.Equal(t, "/api/unit/宜蘭縣政府/202401", gotPath)
	require.True(t, strings.Contains(gotRawPath, "%E5%AE%9C"), "unit must be percent-encoded, got %s", gotRawPath)

	require.Equal(t, 2, table.Len())
	require.True(t, table.HasColumn(models.FieldAward))

	first := table.Rows[0].(*models.TenderRow)
	require.Equal(t, "宜蘭縣政府", first.QueryAgency())
	require.Equal(t, models.Text("1500000"), first.Fields[models.FieldBudget])
	require.Equal(t, models.Text("決標公告"), first.Award["type"])

	second := table.Rows[1].(*models.TenderRow)
	require.Nil(t, second.Award)
	require.False(t, second.Fields[models.FieldBudget].Valid)
}

func TestFetchUnitMonthEmptyMonthEmptyArray(t *testing.T) {
	var gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	})

	table, err := c.FetchUnitMonth(context.Background(), "宜蘭縣南澳鄉公所", "")
	require.NoError(t, err)
	require.NotNil(t, table)
	require.Equal(t, 0, table.Len())
	require.Equal(t, "/api/unit/宜蘭縣南澳鄉公所/", gotPath)
}

func TestFetchUnitMonthNonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.FetchUnitMonth(context.Background(), "宜蘭縣政府", "")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUpstreamStatus))

	var status *StatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, http.StatusBadGateway, status.Code)
	require.True(t, status.Temporary())
}

func TestStatusErrorTemporary(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{http.StatusNotFound, false},
		{http.StatusBadRequest, false},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
	}
	for _, tt := range tests {
		err := &StatusError{Code: tt.code}
		require.Equal(t, tt.want, err.Temporary(), "status %d", tt.code)
	}
}

func TestFetchUnitMonthRejectsBadMonth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.FetchUnitMonth(context.Background(), "宜蘭縣政府", "2024-1")
	require.ErrorIs(t, err, ErrInvalidMonth)

	_, err = c.FetchUnitMonth(context.Background(), "", "")
	require.ErrorIs(t, err, ErrEmptyUnit)
}

func TestFetchUnitMonthNonArrayBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"no such unit"}`))
	})

	_, err := c.FetchUnitMonth(context.Background(), "宜蘭縣政府", "")
	require.ErrorIs(t, err, ErrNotArray)
}

func TestParseTendersRejectsNonObjectElement(t *testing.T) {
	_, err := parseTenders("u", []byte(`[{"name":"x"}, 3]`))
	require.Error(t, err)
}

func TestParseTendersKeepsColumnOrder(t *testing.T) {
	table, err := parseTenders("u", []byte(`[{"name":"x","category":"c"},{"url":"u","name":"y"}]`))
	require.NoError(t, err)
	require.Equal(t, []string{"name", "category", "url"}, table.Columns)
}
