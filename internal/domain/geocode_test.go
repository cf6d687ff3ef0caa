package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	forwardResult GeocodingResult
	forwardErr    error
	reverseResult GeocodingResult
	reverseErr    error
	forwardCalls  int
	reverseCalls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _ string) (GeocodingResult, error) {
	m.forwardCalls++
	return m.forwardResult, m.forwardErr
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestResolveLocation_ForwardGeocode(t *testing.T) {
	geo := &mockGeocoder{
		forwardResult: GeocodingResult{Lat: 40.7128, Lon: -74.0060, FormattedAddress: "New York, NY"},
	}
	loc := Location{ID: "loc-1", Name: "Home", Address: "123 Main St, New York"}

	result, err := ResolveLocation(context.Background(), loc, geo, discardLogger())
	require.NoError(t, err)

	require.NotNil(t, result.Position)
	assert.Equal(t, 40.7128, result.Position.Lat)
	assert.Equal(t, -74.0060, result.Position.Lng)
	assert.Equal(t, "123 Main St, New York", result.Address, "user address is kept")
	assert.Equal(t, 1, geo.forwardCalls)
	assert.Equal(t, 0, geo.reverseCalls)
}

func TestResolveLocation_ForwardError(t *testing.T) {
	geo := &mockGeocoder{forwardErr: errors.New("API timeout")}
	loc := Location{ID: "loc-2", Name: "Home", Address: "nowhere"}

	result, err := ResolveLocation(context.Background(), loc, geo, discardLogger())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeocodingFailed))
	assert.Nil(t, result.Position)
}

func TestResolveLocation_ForwardNoMatch(t *testing.T) {
	geo := &mockGeocoder{}
	loc := Location{ID: "loc-3", Name: "Home", Address: "Atlantis"}

	_, err := ResolveLocation(context.Background(), loc, geo, discardLogger())

	assert.True(t, errors.Is(err, ErrGeocodingFailed))
}

func TestResolveLocation_NilGeocoderWithoutPosition(t *testing.T) {
	loc := Location{ID: "loc-4", Name: "Home", Address: "123 Main St"}

	_, err := ResolveLocation(context.Background(), loc, nil, discardLogger())

	assert.True(t, errors.Is(err, ErrGeocodingFailed))
}

func TestResolveLocation_NoAddressNoPosition(t *testing.T) {
	_, err := ResolveLocation(context.Background(), Location{ID: "loc-5", Name: "Home"}, &mockGeocoder{}, discardLogger())

	assert.True(t, errors.Is(err, ErrInvalidLocation))
}

func TestResolveLocation_ReverseFillsAddress(t *testing.T) {
	geo := &mockGeocoder{
		reverseResult: GeocodingResult{FormattedAddress: "Austin, Travis County, Texas"},
	}
	loc := Location{ID: "loc-6", Name: "Work", Position: &Coordinate{Lat: 30.2672, Lng: -97.7431}}

	result, err := ResolveLocation(context.Background(), loc, geo, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "Austin, Travis County, Texas", result.Address)
	assert.Equal(t, 1, geo.reverseCalls)
}

func TestResolveLocation_ReverseErrorDegradesGracefully(t *testing.T) {
	geo := &mockGeocoder{reverseErr: errors.New("rate limited")}
	loc := Location{ID: "loc-7", Name: "Work", Position: &Coordinate{Lat: 30.2672, Lng: -97.7431}}

	result, err := ResolveLocation(context.Background(), loc, geo, discardLogger())
	require.NoError(t, err)

	assert.Empty(t, result.Address)
	assert.Equal(t, 30.2672, result.Position.Lat)
}

func TestResolveLocation_CompleteLocationUntouched(t *testing.T) {
	geo := &mockGeocoder{}
	loc := Location{ID: "loc-8", Name: "Work", Address: "Austin", Position: &Coordinate{Lat: 30.2672, Lng: -97.7431}}

	result, err := ResolveLocation(context.Background(), loc, geo, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, loc, result)
	assert.Equal(t, 0, geo.forwardCalls+geo.reverseCalls)
}
