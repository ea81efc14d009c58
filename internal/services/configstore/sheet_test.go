package configstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleCSV = `key,value,type,notes
budget_usd,10000,int,total simulation budget
dca_drop_pct,3,float,buy threshold
enable_dca,TRUE,bool,
mode,hybrid,str,current strategy mode
`

func TestSheetFetcher_ParsesCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	fetcher := NewSheetFetcher(srv.URL, nil, zap.NewNop())

	rows, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 4, "header row must be skipped")

	assert.Equal(t, Row{Key: "budget_usd", Value: "10000", Type: "int", Notes: "total simulation budget"}, rows[0])
	assert.Equal(t, "enable_dca", rows[2].Key)
	assert.Equal(t, "TRUE", rows[2].Value)
}

func TestSheetFetcher_CredentialFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the bearer token is rejected, the API key works
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Query().Get("key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	fetcher := NewSheetFetcher(srv.URL, []Credential{
		BearerTokenCredential{Token: "expired"},
		APIKeyCredential{Key: "good-key"},
	}, zap.NewNop())

	rows, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestSheetFetcher_AnonymousFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	fetcher := NewSheetFetcher(srv.URL, []Credential{APIKeyCredential{Key: "revoked"}}, zap.NewNop())

	rows, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestSheetFetcher_AllCredentialsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	fetcher := NewSheetFetcher(srv.URL, []Credential{APIKeyCredential{Key: "k"}}, zap.NewNop())

	_, err := fetcher.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all credential methods failed")
}

func TestSheetFetcher_EmptyURL(t *testing.T) {
	fetcher := NewSheetFetcher("", nil, zap.NewNop())
	_, err := fetcher.Fetch(context.Background())
	require.Error(t, err)
}

func TestParseRows_DropsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"key,value,type",
		"budget_usd,5000,int",
		"orphan",
		",missing_key,str",
		"report_day,friday",
	}, "\n")

	rows, err := parseRows(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "budget_usd", rows[0].Key)
	assert.Equal(t, "report_day", rows[1].Key)
	assert.Empty(t, rows[1].Type)
}
