package verification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestVerifyVAT(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ms/IE/vat/9692928L", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"valid": true, "name": "ACME SUPPLIES LIMITED", "address": "DUBLIN 2", "countryCode": "IE"}`))
	}))
	defer server.Close()

	client := NewVIESClient(server.URL, time.Second, zap.NewNop())

	result, err := client.VerifyVAT(context.Background(), "IE9692928L")
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "ACME SUPPLIES LIMITED", result.CompanyName)
	assert.Equal(t, "DUBLIN 2", result.Address)
	assert.Equal(t, "IE", result.CountryCode)
}

func TestVerifyVATNormalizesInput(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"valid": false}`))
	}))
	defer server.Close()

	client := NewVIESClient(server.URL+"/", time.Second, zap.NewNop())

	result, err := client.VerifyVAT(context.Background(), "ie 9692928l")
	require.NoError(t, err)
	assert.Equal(t, "/ms/IE/vat/9692928L", gotPath)
	assert.False(t, result.Valid)
}

func TestVerifyVATErrors(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		client := NewVIESClient("http://localhost:0", time.Second, zap.NewNop())
		_, err := client.VerifyVAT(context.Background(), "IE")
		assert.Error(t, err)
	})

	t.Run("non-OK status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewVIESClient(server.URL, time.Second, zap.NewNop())
		_, err := client.VerifyVAT(context.Background(), "IE9692928L")
		assert.Error(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		client := NewVIESClient(server.URL, time.Second, zap.NewNop())
		_, err := client.VerifyVAT(context.Background(), "IE9692928L")
		assert.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer server.Close()

		client := NewVIESClient(server.URL, 20*time.Millisecond, zap.NewNop())
		_, err := client.VerifyVAT(context.Background(), "IE9692928L")
		assert.Error(t, err)
	})
}

func TestIsWellKnownCompany(t *testing.T) {
	d := NewCompanyDirectory()

	known, matched := d.IsWellKnownCompany("Microsoft Ireland Operations Ltd")
	assert.True(t, known)
	assert.Equal(t, "microsoft", matched)

	known, matched = d.IsWellKnownCompany("STRIPE PAYMENTS EUROPE")
	assert.True(t, known)
	assert.Equal(t, "stripe", matched)

	known, matched = d.IsWellKnownCompany("Acme Supplies Ltd")
	assert.False(t, known)
	assert.Empty(t, matched)

	known, _ = d.IsWellKnownCompany("")
	assert.False(t, known)
}
