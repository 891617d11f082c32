package psacert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, certStatus int, certBody any, imgStatus int, imgBody any) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cert/GetByCertNumber/12345678":
			w.WriteHeader(certStatus)
			_ = json.NewEncoder(w).Encode(certBody)
		case "/cert/GetImagesByCertNumber/12345678":
			w.WriteHeader(imgStatus)
			_ = json.NewEncoder(w).Encode(imgBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL, "test-token")
}

func TestLookupSuccessWithImages(t *testing.T) {
	certBody := map[string]any{
		"PSACert": map[string]any{
			"CertNumber":      "12345678",
			"CardTitle":       "Blastoise Holo",
			"CardGrade":       "MINT 9",
			"Year":            "1999",
			"TotalPopulation": 321,
		},
	}
	imgBody := []map[string]any{
		{"IsFrontImage": true, "ImageURL": "https://img.example/front.jpg"},
		{"IsFrontImage": false, "ImageURL": "https://img.example/back.jpg"},
	}
	_, client := newTestServer(t, http.StatusOK, certBody, http.StatusOK, imgBody)

	card, err := client.Lookup(context.Background(), "#12345678")
	require.NoError(t, err)

	assert.Equal(t, "12345678", card.CertNumber)
	assert.Equal(t, "Blastoise Holo", card.CardName)
	assert.Equal(t, "MINT 9", card.Grade)
	assert.Equal(t, 321, card.TotalPopulation)
	require.NotNil(t, card.FrontImageURL)
	require.NotNil(t, card.BackImageURL)
	assert.Equal(t, "https://img.example/front.jpg", *card.FrontImageURL)
	assert.Equal(t, "https://img.example/back.jpg", *card.BackImageURL)
}

func TestLookupNotFound(t *testing.T) {
	_, client := newTestServer(t, http.StatusNotFound, map[string]any{}, http.StatusOK, nil)

	_, err := client.Lookup(context.Background(), "12345678")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupUpstreamFailure(t *testing.T) {
	_, client := newTestServer(t, http.StatusBadGateway, map[string]any{}, http.StatusOK, nil)

	_, err := client.Lookup(context.Background(), "12345678")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestLookupImageFailureIsNotFatal(t *testing.T) {
	certBody := map[string]any{
		"Cert": map[string]any{"CardTitle": "Mewtwo", "Grade": "8"},
	}
	_, client := newTestServer(t, http.StatusOK, certBody, http.StatusInternalServerError, nil)

	card, err := client.Lookup(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, "Mewtwo", card.CardName)
	assert.Nil(t, card.FrontImageURL)
	assert.Nil(t, card.BackImageURL)
}
