package forecast

import (
	"errors"
	"fmt"
)

// ErrLocationNotFound is returned by providers when a city lookup has no match.
var ErrLocationNotFound = errors.New("location not found")

// CityNotFoundError reports that the provider knows no location for a city.
type CityNotFoundError struct {
	City string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("city %q not found", e.City)
}

// Code implements the router error-code contract.
func (e *CityNotFoundError) Code() string { return "CITY_NOT_FOUND" }

// ProviderUnavailableError wraps any transport or protocol failure of the
// forecast provider. It is never retried.
type ProviderUnavailableError struct {
	Op  string
	Err error
}

func (e *ProviderUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("weather provider unavailable (%s)", e.Op)
	}
	return fmt.Sprintf("weather provider unavailable (%s): %v", e.Op, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// Code implements the router error-code contract.
func (e *ProviderUnavailableError) Code() string { return "PROVIDER_UNAVAILABLE" }

// InsufficientDataError is returned when a chart is requested without a
// matching cached forecast run.
type InsufficientDataError struct {
	Horizon Horizon
}

func (e *InsufficientDataError) Error() string {
	if e.Horizon.Valid() {
		return fmt.Sprintf("not enough data to build a %s chart, request a forecast first", e.Horizon.Label())
	}
	return "not enough data to build a chart, request a forecast first"
}

// Code implements the router error-code contract.
func (e *InsufficientDataError) Code() string { return "INSUFFICIENT_DATA" }

// UnsupportedHorizonError reports a horizon outside of 1, 3 and 5 days.
type UnsupportedHorizonError struct {
	Raw string
}

func (e *UnsupportedHorizonError) Error() string {
	return fmt.Sprintf("unsupported forecast horizon %q, expected 1, 3 or 5", e.Raw)
}

// Code implements the router error-code contract.
func (e *UnsupportedHorizonError) Code() string { return "UNSUPPORTED_HORIZON" }
