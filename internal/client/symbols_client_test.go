package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const listingCSV = `SYMBOL,NAME OF COMPANY,SERIES,DATE OF LISTING,PAID UP VALUE,MARKET LOT,ISIN NUMBER,FACE VALUE
RELIANCE,Reliance Industries Limited,EQ,29-NOV-1995,10,1,INE002A01018,10
TCS,Tata Consultancy Services Limited,EQ,25-AUG-2004,1,1,INE467B01029,1
,Blank Symbol Row,EQ,01-JAN-2000,1,1,INE000000000,1
`

func TestFetchListingParsesCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingCSV))
	}))
	defer server.Close()

	client := NewSymbolDirectoryClient(server.URL, server.Client(), zap.NewNop())
	listing, err := client.FetchListing(context.Background())
	require.NoError(t, err)

	// The row with an empty symbol is dropped.
	require.Len(t, listing, 2)
	assert.Equal(t, "RELIANCE", listing[0].Symbol)
	assert.Equal(t, "Reliance Industries Limited", listing[0].CompanyName)
	assert.Equal(t, "EQ", listing[0].Series)
	assert.Equal(t, "INE002A01018", listing[0].ISIN)
	assert.Equal(t, "TCS", listing[1].Symbol)
}

func TestFetchListingColumnsByName(t *testing.T) {
	// Same columns, different order.
	reordered := "NAME OF COMPANY,ISIN NUMBER,SYMBOL,SERIES\nInfosys Limited,INE009A01021,INFY,EQ\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(reordered))
	}))
	defer server.Close()

	client := NewSymbolDirectoryClient(server.URL, server.Client(), zap.NewNop())
	listing, err := client.FetchListing(context.Background())
	require.NoError(t, err)

	require.Len(t, listing, 1)
	assert.Equal(t, "INFY", listing[0].Symbol)
	assert.Equal(t, "Infosys Limited", listing[0].CompanyName)
	assert.Equal(t, "INE009A01021", listing[0].ISIN)
}

func TestFetchListingMissingSymbolColumn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("TICKER,NAME\nRELIANCE,Reliance\n"))
	}))
	defer server.Close()

	client := NewSymbolDirectoryClient(server.URL, server.Client(), zap.NewNop())
	_, err := client.FetchListing(context.Background())
	assert.Error(t, err)
}

func TestFetchListingHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewSymbolDirectoryClient(server.URL, server.Client(), zap.NewNop())
	_, err := client.FetchListing(context.Background())
	assert.Error(t, err)
}
