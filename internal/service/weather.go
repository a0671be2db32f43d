package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/wanderlust/backend/internal/clients/geocode"
	"github.com/pkordes/wanderlust/backend/internal/clients/weather"
	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/repo"
)

// Geocoder resolves a location. *geocode.Client implements it.
type Geocoder interface {
	Search(ctx context.Context, location string) (geocode.Place, bool, error)
}

// Forecaster returns daily forecasts. *weather.Client implements it.
type Forecaster interface {
	DailyForecast(ctx context.Context, lat, lon float64, start, end time.Time) ([]weather.Day, error)
}

// ForecastDay is one forecast day with advice for the traveller.
type ForecastDay struct {
	weather.Day
	Advice string
}

// Forecast is the weather view of a trip's destination.
type Forecast struct {
	Place geocode.Place
	Days  []ForecastDay
}

// WeatherService forecasts a trip's destination over its dates.
type WeatherService struct {
	geocoder   Geocoder
	forecaster Forecaster
	access     tripAccess
}

// NewWeatherService constructs a WeatherService.
func NewWeatherService(store repo.RecordStore, g Geocoder, f Forecaster) *WeatherService {
	return &WeatherService{geocoder: g, forecaster: f, access: tripAccess{store: store}}
}

// Forecast geocodes the trip destination and fetches the forecast for the
// trip's dates. Returns domain.ErrValidation when the trip has no destination
// or dates, domain.ErrNotFound when the destination cannot be located.
func (s *WeatherService) Forecast(ctx context.Context, sess domain.Session, tripID string) (Forecast, error) {
	trip, err := s.access.owned(ctx, sess, tripID)
	if err != nil {
		return Forecast{}, fmt.Errorf("service.WeatherService.Forecast: %w", err)
	}
	if trip.Destination == "" || !trip.HasDates() {
		return Forecast{}, fmt.Errorf("service.WeatherService.Forecast: %w: trip needs a destination and dates", domain.ErrValidation)
	}

	place, found, err := s.geocoder.Search(ctx, trip.Destination)
	if err != nil {
		return Forecast{}, fmt.Errorf("service.WeatherService.Forecast: %w", err)
	}
	if !found {
		return Forecast{}, fmt.Errorf("service.WeatherService.Forecast: %w: destination %q could not be located", domain.ErrNotFound, trip.Destination)
	}

	days, err := s.forecaster.DailyForecast(ctx, place.Lat, place.Lon, trip.StartDate, trip.EndDate)
	if err != nil {
		return Forecast{}, fmt.Errorf("service.WeatherService.Forecast: %w", err)
	}

	out := Forecast{Place: place, Days: make([]ForecastDay, 0, len(days))}
	for _, d := range days {
		out.Days = append(out.Days, ForecastDay{Day: d, Advice: Advice(d)})
	}
	return out, nil
}

// Advice picks one line of advice for a forecast day. Rules are checked in
// order and the first match wins. Codes are WMO weather codes; the thunder
// rule can never match because 95 and above already count as rain.
func Advice(d weather.Day) string {
	switch code := d.Code; {
	case code >= 51 && code <= 67 || code >= 80:
		return "Rain is likely. Pack an umbrella or raincoat!"
	case code >= 71 && code <= 77:
		return "Snowfall expected. Dress in warm layers!"
	case code >= 95:
		return "Thunderstorms possible. Plan for indoor activities."
	case d.PrecipProb > 40:
		return "A chance of precipitation. It's wise to carry a light jacket or umbrella."
	case d.Windspeed > 30:
		return "It will be quite windy. A windbreaker is recommended."
	case d.TempMax > 30:
		return "Hot weather ahead. Stay hydrated and wear light clothing."
	case d.TempMax > 20:
		return "Pleasantly warm. Great for sightseeing and outdoor activities."
	case d.TempMax < 10:
		return "Chilly weather. Be sure to pack a warm coat."
	case code >= 45 && code <= 48:
		return "Expect fog, which may reduce visibility for driving or views."
	case code == 0:
		return "Clear sunny skies! Perfect for photos. Don't forget sunscreen."
	default:
		return "Enjoy your day! The weather looks pleasant."
	}
}
