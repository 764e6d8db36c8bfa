// Package domain defines the validated scalar and composite types that
// flow through the forecast pipeline. Scalars validate their invariant at
// construction and never weaken it afterward; composites are immutable
// once built.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/weather-oracle/oracle/internal/failure"
)

// Latitude is a validated geographic latitude in degrees.
type Latitude struct{ raw float64 }

func NewLatitude(v float64) (Latitude, error) {
	if v < -90 || v > 90 {
		return Latitude{}, &failure.InvalidScalar{Kind: "Latitude", Value: v}
	}
	return Latitude{raw: v}, nil
}

func (l Latitude) Raw() float64 { return l.raw }

// Longitude is a validated geographic longitude in degrees.
type Longitude struct{ raw float64 }

func NewLongitude(v float64) (Longitude, error) {
	if v < -180 || v > 180 {
		return Longitude{}, &failure.InvalidScalar{Kind: "Longitude", Value: v}
	}
	return Longitude{raw: v}, nil
}

func (l Longitude) Raw() float64 { return l.raw }

// Coordinates pairs a validated latitude and longitude.
type Coordinates struct {
	Latitude  Latitude
	Longitude Longitude
}

func NewCoordinates(lat, lon float64) (Coordinates, error) {
	la, err := NewLatitude(lat)
	if err != nil {
		return Coordinates{}, err
	}
	lo, err := NewLongitude(lon)
	if err != nil {
		return Coordinates{}, err
	}
	return Coordinates{Latitude: la, Longitude: lo}, nil
}

// Humidity is a relative-humidity percentage in [0, 100].
type Humidity struct{ raw int32 }

func NewHumidity(v int32) (Humidity, error) {
	if v < 0 || v > 100 {
		return Humidity{}, &failure.InvalidScalar{Kind: "Humidity", Value: float64(v)}
	}
	return Humidity{raw: v}, nil
}

func (h Humidity) Raw() int32 { return h.raw }

// CloudCover is a cloud-cover percentage in [0, 100].
type CloudCover struct{ raw int32 }

func NewCloudCover(v int32) (CloudCover, error) {
	if v < 0 || v > 100 {
		return CloudCover{}, &failure.InvalidScalar{Kind: "CloudCover", Value: float64(v)}
	}
	return CloudCover{raw: v}, nil
}

func (c CloudCover) Raw() int32 { return c.raw }

// Millimeters is a non-negative precipitation depth. Clamped constructs a
// value from upstream noise that may be slightly negative due to rounding
// in an upstream model, mapping negatives to zero; it is used where
// upstream precipitation values enter the domain: C4's response parser,
// the aggregator, and JSON decoding.
type Millimeters struct{ raw float64 }

func NewMillimeters(v float64) (Millimeters, error) {
	if v < 0 {
		return Millimeters{}, &failure.InvalidScalar{Kind: "Millimeters", Value: v}
	}
	return Millimeters{raw: v}, nil
}

func ClampedMillimeters(v float64) Millimeters {
	if v < 0 {
		v = 0
	}
	return Millimeters{raw: v}
}

func (m Millimeters) Raw() float64 { return m.raw }

// WindDirection normalizes any input degree value into [0, 360) at
// construction: 450 becomes 90, -90 becomes 270.
type WindDirection struct{ raw float64 }

func NewWindDirection(v float64) WindDirection {
	norm := math.Mod(v, 360)
	if norm < 0 {
		norm += 360
	}
	return WindDirection{raw: norm}
}

func (w WindDirection) Raw() float64 { return w.raw }

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Cardinal rounds the direction to the nearest of 16 compass sectors.
func (w WindDirection) Cardinal() string {
	idx := int(math.Round(w.raw/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassPoints[idx]
}

// Celsius is an unbounded temperature. Fahrenheit is always derived.
type Celsius struct{ raw float64 }

func NewCelsius(v float64) Celsius { return Celsius{raw: v} }

func (c Celsius) Raw() float64 { return c.raw }

func (c Celsius) Fahrenheit() float64 { return c.raw*9/5 + 32 }

// UVIndex stores a raw magnitude with a named-band accessor.
type UVIndex struct{ raw float64 }

func NewUVIndex(v float64) UVIndex { return UVIndex{raw: v} }

func (u UVIndex) Raw() float64 { return u.raw }

func (u UVIndex) Band() string {
	switch {
	case u.raw < 3:
		return "low"
	case u.raw < 6:
		return "moderate"
	case u.raw < 8:
		return "high"
	case u.raw < 11:
		return "very high"
	default:
		return "extreme"
	}
}

// Visibility stores a raw magnitude in meters with a named-band accessor.
type Visibility struct{ raw float64 }

func NewVisibility(v float64) Visibility { return Visibility{raw: v} }

func (vi Visibility) Raw() float64 { return vi.raw }

func (vi Visibility) Band() string {
	switch {
	case vi.raw < 1000:
		return "poor"
	case vi.raw < 5000:
		return "moderate"
	case vi.raw < 10000:
		return "good"
	default:
		return "excellent"
	}
}

// Pressure stores a raw magnitude in hPa with a named-band accessor.
type Pressure struct{ raw float64 }

func NewPressure(v float64) Pressure { return Pressure{raw: v} }

func (p Pressure) Raw() float64 { return p.raw }

func (p Pressure) Band() string {
	switch {
	case p.raw < 1000:
		return "low"
	case p.raw <= 1022:
		return "normal"
	default:
		return "high"
	}
}

// TimezoneID stores an IANA identifier; validity is checked on demand,
// not at construction.
type TimezoneID struct{ raw string }

func NewTimezoneID(s string) TimezoneID { return TimezoneID{raw: s} }

func (t TimezoneID) String() string { return t.raw }

func (t TimezoneID) Valid() bool {
	_, err := time.LoadLocation(t.raw)
	return err == nil
}

// KmhToMs converts a wind speed from kilometers-per-hour to meters-per-second.
func KmhToMs(kmh float64) float64 { return kmh / 3.6 }

// PrecipProbability validates a [0,1] fraction.
type PrecipProbability struct{ raw float64 }

func NewPrecipProbability(v float64) (PrecipProbability, error) {
	if v < 0 || v > 1 {
		return PrecipProbability{}, &failure.InvalidScalar{Kind: "PrecipProbability", Value: v}
	}
	return PrecipProbability{raw: v}, nil
}

func (p PrecipProbability) Raw() float64 { return p.raw }

func (p PrecipProbability) String() string { return fmt.Sprintf("%.0f%%", p.raw*100) }

// Every scalar above wraps its value in an unexported field so
// construction always goes through its validating constructor; without
// a MarshalJSON override, encoding/json would see no exported fields and
// serialize each one as {}. Round-tripping through the constructor on
// Unmarshal keeps that invariant intact for values coming back out of
// the cache or an HTTP request body.

func (l Latitude) MarshalJSON() ([]byte, error) { return json.Marshal(l.raw) }

func (l *Latitude) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewLatitude(v)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (lo Longitude) MarshalJSON() ([]byte, error) { return json.Marshal(lo.raw) }

func (lo *Longitude) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewLongitude(v)
	if err != nil {
		return err
	}
	*lo = parsed
	return nil
}

func (h Humidity) MarshalJSON() ([]byte, error) { return json.Marshal(h.raw) }

func (h *Humidity) UnmarshalJSON(data []byte) error {
	var v int32
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewHumidity(v)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func (c CloudCover) MarshalJSON() ([]byte, error) { return json.Marshal(c.raw) }

func (c *CloudCover) UnmarshalJSON(data []byte) error {
	var v int32
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewCloudCover(v)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (m Millimeters) MarshalJSON() ([]byte, error) { return json.Marshal(m.raw) }

func (m *Millimeters) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = ClampedMillimeters(v)
	return nil
}

func (w WindDirection) MarshalJSON() ([]byte, error) { return json.Marshal(w.raw) }

func (w *WindDirection) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*w = NewWindDirection(v)
	return nil
}

func (c Celsius) MarshalJSON() ([]byte, error) { return json.Marshal(c.raw) }

func (c *Celsius) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = NewCelsius(v)
	return nil
}

func (u UVIndex) MarshalJSON() ([]byte, error) { return json.Marshal(u.raw) }

func (u *UVIndex) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*u = NewUVIndex(v)
	return nil
}

func (vi Visibility) MarshalJSON() ([]byte, error) { return json.Marshal(vi.raw) }

func (vi *Visibility) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*vi = NewVisibility(v)
	return nil
}

func (p Pressure) MarshalJSON() ([]byte, error) { return json.Marshal(p.raw) }

func (p *Pressure) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = NewPressure(v)
	return nil
}

func (t TimezoneID) MarshalJSON() ([]byte, error) { return json.Marshal(t.raw) }

func (t *TimezoneID) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*t = NewTimezoneID(v)
	return nil
}

func (p PrecipProbability) MarshalJSON() ([]byte, error) { return json.Marshal(p.raw) }

func (p *PrecipProbability) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewPrecipProbability(v)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
