package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// jsonFloat writes non-finite values as the strings "inf", "-inf" and "nan",
// which encoding/json refuses to encode as numbers.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-inf"`), nil
	case math.IsNaN(v):
		return []byte(`"nan"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		switch s {
		case "inf":
			*f = jsonFloat(math.Inf(1))
		case "-inf":
			*f = jsonFloat(math.Inf(-1))
		case "nan":
			*f = jsonFloat(math.NaN())
		default:
			return fmt.Errorf("invalid number %q", s)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

func toJSONFloats(vals []float64) []jsonFloat {
	if vals == nil {
		return nil
	}
	out := make([]jsonFloat, len(vals))
	for i, v := range vals {
		out[i] = jsonFloat(v)
	}
	return out
}

func fromJSONFloats(vals []jsonFloat) []float64 {
	if vals == nil {
		return nil
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (r OutlierRecord) MarshalJSON() ([]byte, error) {
	type plain OutlierRecord
	return json.Marshal(struct {
		plain
		Mean jsonFloat `json:"mean"`
		Std  jsonFloat `json:"std"`
	}{plain(r), jsonFloat(r.Mean), jsonFloat(r.Std)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *OutlierRecord) UnmarshalJSON(b []byte) error {
	type plain OutlierRecord
	aux := struct {
		*plain
		Mean jsonFloat `json:"mean"`
		Std  jsonFloat `json:"std"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.Mean, r.Std = float64(aux.Mean), float64(aux.Std)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s ChartSeries) MarshalJSON() ([]byte, error) {
	type plain ChartSeries
	return json.Marshal(struct {
		plain
		Values []jsonFloat `json:"values"`
		Errors []jsonFloat `json:"errors,omitempty"`
	}{plain(s), toJSONFloats(s.Values), toJSONFloats(s.Errors)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ChartSeries) UnmarshalJSON(b []byte) error {
	type plain ChartSeries
	aux := struct {
		*plain
		Values []jsonFloat `json:"values"`
		Errors []jsonFloat `json:"errors,omitempty"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	s.Values, s.Errors = fromJSONFloats(aux.Values), fromJSONFloats(aux.Errors)
	return nil
}
