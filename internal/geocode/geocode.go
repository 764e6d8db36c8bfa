// Package geocode resolves a free-text place name into coordinates via
// Open-Meteo's geocoding endpoint, with query normalization to make
// diacritic variants of the same place name resolve identically.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/weather-oracle/oracle/internal/domain"
	"github.com/weather-oracle/oracle/internal/failure"
)

const defaultBaseURL = "https://geocoding-api.open-meteo.com"

// Geocoder resolves place names against a configured Open-Meteo
// geocoding host.
type Geocoder struct {
	HTTPClient *http.Client
	BaseURL    string
	Language   string
}

func New(client *http.Client, baseURL string) *Geocoder {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Geocoder{HTTPClient: client, BaseURL: baseURL, Language: "en"}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Admin1      string  `json:"admin1"`
	Timezone    string  `json:"timezone"`
	Elevation   float64 `json:"elevation"`
	Population  int64   `json:"population"`
}

// normalizeQuery trims the input and strips diacritics, so "Wrocław" and
// "Wroclaw" resolve identically.
func normalizeQuery(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, trimmed)
	if err != nil {
		return "", err
	}
	return result, nil
}

func validateQuery(raw string) (string, error) {
	normalized, err := normalizeQuery(raw)
	if err != nil {
		return "", &failure.GeocodingError{Kind: failure.GeocodingInvalidInput, Query: raw, Err: err}
	}
	if l := len([]rune(normalized)); l < 2 || l > 200 {
		return "", &failure.GeocodingError{Kind: failure.GeocodingInvalidInput, Query: raw}
	}
	return normalized, nil
}

// Resolve returns the single best match for query.
func (g *Geocoder) Resolve(ctx context.Context, query string) (domain.GeocodingResult, error) {
	results, err := g.search(ctx, query, 1)
	if err != nil {
		return domain.GeocodingResult{}, err
	}
	if len(results) == 0 {
		return domain.GeocodingResult{}, &failure.GeocodingError{Kind: failure.GeocodingNotFound, Query: query}
	}
	return results[0], nil
}

// Search returns up to limit candidate matches for query; zero results is
// not an error.
func (g *Geocoder) Search(ctx context.Context, query string, limit int) ([]domain.GeocodingResult, error) {
	return g.search(ctx, query, limit)
}

func (g *Geocoder) search(ctx context.Context, rawQuery string, limit int) ([]domain.GeocodingResult, error) {
	normalized, err := validateQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}

	u, err := url.Parse(g.BaseURL + "/v1/search")
	if err != nil {
		return nil, &failure.GeocodingError{Kind: failure.GeocodingServiceError, Query: rawQuery, Err: err}
	}
	q := u.Query()
	q.Set("name", normalized)
	q.Set("count", fmt.Sprintf("%d", limit))
	q.Set("language", g.Language)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &failure.GeocodingError{Kind: failure.GeocodingServiceError, Query: rawQuery, Err: err}
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, &failure.GeocodingError{Kind: failure.GeocodingServiceError, Query: rawQuery, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &failure.GeocodingError{Kind: failure.GeocodingServiceError, Query: rawQuery,
			Err: fmt.Errorf("geocoding API returned status %d", resp.StatusCode)}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &failure.GeocodingError{Kind: failure.GeocodingServiceError, Query: rawQuery, Err: err}
	}

	out := make([]domain.GeocodingResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		coords, err := domain.NewCoordinates(r.Latitude, r.Longitude)
		if err != nil {
			continue
		}
		result := domain.GeocodingResult{
			Name:        r.Name,
			Coordinates: coords,
			Country:     r.Country,
			CountryCode: r.CountryCode,
			Region:      r.Admin1,
			Timezone:    domain.NewTimezoneID(r.Timezone),
		}
		if r.Elevation != 0 {
			elev := r.Elevation
			result.Elevation = &elev
		}
		if r.Population != 0 {
			pop := r.Population
			result.Population = &pop
		}
		out = append(out, result)
	}
	return out, nil
}
