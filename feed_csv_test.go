package main

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedHeader = "_id,Nr_Boczny,Nr_Rej,Brygada,Nazwa_Linii,Ostatnia_Pozycja_Szerokosc,Ostatnia_Pozycja_Dlugosc,Data_Aktualizacji\n"

func TestDecodeVehicles(t *testing.T) {
	body := feedHeader +
		"101,2405,DW 1234A,00101,A,51.1,17.0,2024-05-12 14:03:22\n" +
		"102,2406,DW 5678B,00102,None,51.2,17.1,2024-05-12 14:03:23\n"

	res, err := decodeVehicles(strings.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, res.Dropped)
	assert.Equal(t, []RawRecord{
		{
			ID:                 "101",
			FleetNumber:        "2405",
			RegistrationNumber: "DW 1234A",
			Brigade:            "00101",
			LineName:           "A",
			Latitude:           51.1,
			Longitude:          17.0,
			LastUpdate:         "2024-05-12 14:03:22",
		},
		{
			ID:                 "102",
			FleetNumber:        "2406",
			RegistrationNumber: "DW 5678B",
			Brigade:            "00102",
			LineName:           "None",
			Latitude:           51.2,
			Longitude:          17.1,
			LastUpdate:         "2024-05-12 14:03:23",
		},
	}, res.Records)
}

func TestDecodeVehicles_ColumnOrderAndBOM(t *testing.T) {
	body := "\ufeffNazwa_Linii,Ostatnia_Pozycja_Dlugosc,Ostatnia_Pozycja_Szerokosc,_id\n" +
		"D,17.05,51.11,7\n"

	res, err := decodeVehicles(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, RawRecord{ID: "7", LineName: "D", Latitude: 51.11, Longitude: 17.05}, res.Records[0])
}

func TestDecodeVehicles_DropsMalformedRows(t *testing.T) {
	body := feedHeader +
		"1,,,,A,51.1,17.0,\n" +
		"2,,,,A,not-a-number,17.0,\n" +
		"3,,,,A,51.1\n" +
		",,,,A,51.1,17.0,\n" +
		"5,,,,A,NaN,17.0,\n" +
		"6,,,,B,51.3,17.3,\n"

	res, err := decodeVehicles(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "1", res.Records[0].ID)
	assert.Equal(t, "6", res.Records[1].ID)

	require.Len(t, res.Dropped, 4)
	lines := make([]int, 0, len(res.Dropped))
	for _, d := range res.Dropped {
		lines = append(lines, d.Line)
	}
	assert.Equal(t, []int{3, 4, 5, 6}, lines)
}

func TestDecodeVehicles_UnterminatedQuoteSwallowsRest(t *testing.T) {
	body := feedHeader +
		"1,,,,A,51.1,17.0,\n" +
		"2,,,,\"A,51.2,17.1,\n" +
		"3,,,,A,51.3,17.2,\n" +
		"4,,,,A,51.4,17.3,\n"

	res, err := decodeVehicles(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "1", res.Records[0].ID)

	require.Len(t, res.Dropped, 1)
	assert.Equal(t, 3, res.Dropped[0].Line)
	assert.True(t, errors.Is(res.Dropped[0], csv.ErrQuote))
}

func TestDecodeVehicles_HeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "missing latitude column", body: "_id,Nazwa_Linii,Ostatnia_Pozycja_Dlugosc\n1,A,17.0\n"},
		{name: "not csv at all", body: "<html><body>maintenance</body></html>\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeVehicles(strings.NewReader(tc.body))
			var de *DecodeError
			assert.True(t, errors.As(err, &de), "expected DecodeError, got %v", err)
		})
	}
}

func TestCsvVehicleFeedSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(feedHeader + "101,,,,A,51.1,17.0,\n"))
	}))
	defer srv.Close()

	src := NewCsvVehicleFeedSource(srv.URL, time.Second)
	res, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "101", res.Records[0].ID)
}

func TestCsvVehicleFeedSource_NetworkErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewCsvVehicleFeedSource(srv.URL, time.Second).Fetch(context.Background())
		var ne *NetworkError
		require.True(t, errors.As(err, &ne))
		assert.Equal(t, http.StatusServiceUnavailable, ne.StatusCode)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewCsvVehicleFeedSource(url, time.Second).Fetch(context.Background())
		var ne *NetworkError
		require.True(t, errors.As(err, &ne))
		assert.Zero(t, ne.StatusCode)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewCsvVehicleFeedSource(srv.URL, 50*time.Millisecond).Fetch(context.Background())
		var ne *NetworkError
		assert.True(t, errors.As(err, &ne))
	})
}
