package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sean-rowe/weather-lookup/internal/core/domain"
)

// MockGeocodingClient is a mock implementation of the GeocodingClient interface.
type MockGeocodingClient struct {
	mock.Mock
}

func (m *MockGeocodingClient) Search(ctx context.Context, placeName string) (domain.Coordinates, error) {
	args := m.Called(ctx, placeName)
	return args.Get(0).(domain.Coordinates), args.Error(1)
}

// MockGeoResolver is a mock implementation of the GeoResolver interface.
type MockGeoResolver struct {
	mock.Mock
}

func (m *MockGeoResolver) Resolve(ctx context.Context, placeName string) (domain.Coordinates, error) {
	args := m.Called(ctx, placeName)
	return args.Get(0).(domain.Coordinates), args.Error(1)
}

// MockWeatherClient is a mock implementation of the WeatherClient interface.
type MockWeatherClient struct {
	mock.Mock
}

func (m *MockWeatherClient) GetCurrentConditions(ctx context.Context, coords domain.Coordinates) (*domain.CurrentConditions, error) {
	args := m.Called(ctx, coords)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.CurrentConditions), args.Error(1)
}

func (m *MockWeatherClient) GetForecast(ctx context.Context, coords domain.Coordinates) ([]domain.ForecastDay, error) {
	args := m.Called(ctx, coords)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ForecastDay), args.Error(1)
}

// MockCacheService is a mock implementation of the CacheService interface.
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// recordingSink keeps every view shown to it.
type recordingSink struct {
	mu    sync.Mutex
	views []domain.RenderedView
}

func (s *recordingSink) Show(_ context.Context, view domain.RenderedView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.views = append(s.views, view)
}

func (s *recordingSink) statuses() []domain.ViewStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]domain.ViewStatus, 0, len(s.views))
	for _, v := range s.views {
		statuses = append(statuses, v.Status)
	}

	return statuses
}

func (s *recordingSink) last() domain.RenderedView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.views[len(s.views)-1]
}

// recordingObserver keeps every lookup record reported to it.
type recordingObserver struct {
	mu      sync.Mutex
	records []domain.LookupRecord
}

func (o *recordingObserver) LookupCompleted(_ context.Context, record domain.LookupRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.records = append(o.records, record)
}

func (o *recordingObserver) all() []domain.LookupRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]domain.LookupRecord(nil), o.records...)
}

type staticLocation struct {
	coords domain.Coordinates
	err    error
}

func (s staticLocation) CurrentLocation(context.Context) (domain.Coordinates, error) {
	return s.coords, s.err
}

var (
	paris  = domain.Coordinates{Latitude: 48.85, Longitude: 2.35}
	london = domain.Coordinates{Latitude: 51.51, Longitude: -0.13}
)

func forecastDays(n int) []domain.ForecastDay {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	days := make([]domain.ForecastDay, n)

	for i := range days {
		days[i] = domain.ForecastDay{
			Date:            start.AddDate(0, 0, i),
			WeatherCode:     []int{0, 2, 61, 95, 3}[i%5],
			TempMaxC:        20 + float64(i),
			TempMinC:        10 + float64(i),
			WindSpeedMaxKmh: 15,
		}
	}

	return days
}
