package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Column names of the MPK Wrocław open-data dump.
const (
	colID                 = "_id"
	colFleetNumber        = "Nr_Boczny"
	colRegistrationNumber = "Nr_Rej"
	colBrigade            = "Brygada"
	colLineName           = "Nazwa_Linii"
	colLatitude           = "Ostatnia_Pozycja_Szerokosc"
	colLongitude          = "Ostatnia_Pozycja_Dlugosc"
	colLastUpdate         = "Data_Aktualizacji"
)

var requiredColumns = []string{colID, colLineName, colLatitude, colLongitude}

type VehicleFeedSource interface {
	Fetch(ctx context.Context) (FetchResult, error)
}

// FetchResult holds every well-formed row of one fetch and the rows that were dropped.
type FetchResult struct {
	Records []RawRecord
	Dropped []*RowParseError
}

type CsvVehicleFeedSource struct {
	url        string
	httpClient *http.Client
}

func NewCsvVehicleFeedSource(url string, timeout time.Duration) *CsvVehicleFeedSource {
	return &CsvVehicleFeedSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (s *CsvVehicleFeedSource) Fetch(ctx context.Context) (FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return FetchResult{}, &NetworkError{URL: s.url, Err: errors.Wrap(err, "build request")}
	}
	req.Header.Set("Accept", "text/csv")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, &NetworkError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, &NetworkError{URL: s.url, StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, &NetworkError{URL: s.url, Err: errors.Wrap(err, "read body")}
	}
	return decodeVehicles(bytes.NewReader(body))
}

// decodeVehicles reads a CSV table with a header row. Rows that cannot be parsed
// are collected in FetchResult.Dropped; only an unusable header is an error.
func decodeVehicles(r io.Reader) (FetchResult, error) {
	rdr := csv.NewReader(r)
	rdr.FieldsPerRecord = -1

	header, err := rdr.Read()
	if err == io.EOF {
		return FetchResult{}, &DecodeError{Err: errors.New("empty feed")}
	}
	if err != nil {
		return FetchResult{}, &DecodeError{Err: errors.Wrap(err, "read header")}
	}
	idx, err := indexColumns(header)
	if err != nil {
		return FetchResult{}, &DecodeError{Err: err}
	}

	var res FetchResult
	for {
		row, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// An unterminated quote runs to EOF, so every row after it is
			// reported as this single error.
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Dropped = append(res.Dropped, &RowParseError{Line: pe.StartLine, Err: pe.Err})
				continue
			}
			return FetchResult{}, &DecodeError{Err: errors.Wrap(err, "read row")}
		}
		line, _ := rdr.FieldPos(0)
		rec, err := idx.record(row)
		if err != nil {
			res.Dropped = append(res.Dropped, &RowParseError{Line: line, Err: err})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

type columnIndex map[string]int

func indexColumns(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, errors.Errorf("missing column %q", c)
		}
	}
	return idx, nil
}

func (idx columnIndex) field(row []string, name string) (string, bool) {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

func (idx columnIndex) record(row []string) (RawRecord, error) {
	for _, c := range requiredColumns {
		if _, ok := idx.field(row, c); !ok {
			return RawRecord{}, errors.Errorf("missing field %q", c)
		}
	}
	id, _ := idx.field(row, colID)
	if id == "" {
		return RawRecord{}, errors.New("empty vehicle id")
	}
	latStr, _ := idx.field(row, colLatitude)
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return RawRecord{}, errors.Wrap(err, "latitude")
	}
	lonStr, _ := idx.field(row, colLongitude)
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return RawRecord{}, errors.Wrap(err, "longitude")
	}
	if !finite(lat) || !finite(lon) {
		return RawRecord{}, errors.Errorf("non-finite coordinates %q,%q", latStr, lonStr)
	}
	rec := RawRecord{ID: id, Latitude: lat, Longitude: lon}
	rec.LineName, _ = idx.field(row, colLineName)
	rec.FleetNumber, _ = idx.field(row, colFleetNumber)
	rec.RegistrationNumber, _ = idx.field(row, colRegistrationNumber)
	rec.Brigade, _ = idx.field(row, colBrigade)
	rec.LastUpdate, _ = idx.field(row, colLastUpdate)
	return rec, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
