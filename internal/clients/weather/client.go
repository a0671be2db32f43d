// Package weather fetches daily forecasts from the Open-Meteo API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// DefaultBaseURL is the public Open-Meteo endpoint.
const DefaultBaseURL = "https://api.open-meteo.com"

const dailyFields = "weathercode,temperature_2m_max,temperature_2m_min,precipitation_probability_max,windspeed_10m_max"

// Day is one day of forecast. Missing values decode as zero.
type Day struct {
	Date       time.Time
	Code       int
	TempMax    float64 // °C
	TempMin    float64 // °C
	PrecipProb float64 // %
	Windspeed  float64 // km/h
}

// Client calls the Open-Meteo forecast endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

type forecastResponse struct {
	Daily struct {
		Time        []string   `json:"time"`
		WeatherCode []*float64 `json:"weathercode"`
		TempMax     []*float64 `json:"temperature_2m_max"`
		TempMin     []*float64 `json:"temperature_2m_min"`
		PrecipProb  []*float64 `json:"precipitation_probability_max"`
		Windspeed   []*float64 `json:"windspeed_10m_max"`
	} `json:"daily"`
}

// DailyForecast returns one Day per date in [start, end] that Open-Meteo has
// data for, in date order.
func (c *Client) DailyForecast(ctx context.Context, lat, lon float64, start, end time.Time) ([]Day, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("weather.Client.DailyForecast: %w: end date before start date", domain.ErrValidation)
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("daily", dailyFields)
	params.Set("timezone", "auto")
	params.Set("start_date", start.Format(domain.DateLayout))
	params.Set("end_date", end.Format(domain.DateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather.Client.DailyForecast: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather.Client.DailyForecast: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather.Client.DailyForecast: %w: status %d", domain.ErrTransport, resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("weather.Client.DailyForecast: parse response: %w: %w", domain.ErrTransport, err)
	}

	days := make([]Day, 0, len(fr.Daily.Time))
	for i, raw := range fr.Daily.Time {
		d, ok := domain.ParseDate(raw)
		if !ok {
			c.logger.WarnContext(ctx, "skipping forecast day with bad date", "date", raw)
			continue
		}
		days = append(days, Day{
			Date:       d,
			Code:       int(at(fr.Daily.WeatherCode, i)),
			TempMax:    at(fr.Daily.TempMax, i),
			TempMin:    at(fr.Daily.TempMin, i),
			PrecipProb: at(fr.Daily.PrecipProb, i),
			Windspeed:  at(fr.Daily.Windspeed, i),
		})
	}
	return days, nil
}

// at returns vs[i], or 0 when the series is short or the value is null.
func at(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}
