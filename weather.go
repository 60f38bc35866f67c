/*
Copyright © 2018 the SARTS authors.
This file is part of SARTS.

SARTS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SARTS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SARTS.  If not, see <http://www.gnu.org/licenses/>.
*/

package sarts

import (
	"math"
	"time"

	"github.com/ctessum/sparse"
)

const earthRadius = 6371e3 // m

// WeatherModel holds per-grid-cell vertical profiles of the atmosphere for a
// single acquisition date, interpolated onto the same grid as the DEM and
// interferogram it is used with.
//
// Pressure [hPa], Temperature [K], RelHum [%] and GeopotHeight [m] all have
// shape [lat, lon, level]. Pressure decreases strictly with height in every
// column, and the level values are identical across columns.
type WeatherModel struct {
	Lats []float64
	Lons []float64
	Date time.Time

	Pressure     *sparse.DenseArray
	Temperature  *sparse.DenseArray
	RelHum       *sparse.DenseArray
	GeopotHeight *sparse.DenseArray
}

// Levels returns the pressure level values [hPa] shared by every column.
func (m *WeatherModel) Levels() []float64 {
	nlev := m.Pressure.Shape[2]
	out := make([]float64, nlev)
	for k := range out {
		out[k] = m.Pressure.Get(0, 0, k)
	}
	return out
}

// levelIndex returns the index of plevel on the level axis.
func (m *WeatherModel) levelIndex(plevel float64) (int, error) {
	for k, p := range m.Levels() {
		if p == plevel {
			return k, nil
		}
	}
	return 0, LevelNotFoundError{Level: plevel}
}

// Height returns the geometric height [m] of each profile point, derived
// from geopotential height.
func (m *WeatherModel) Height() *sparse.DenseArray {
	out := sparse.ZerosDense(m.GeopotHeight.Shape...)
	for i, z := range m.GeopotHeight.Elements {
		out.Elements[i] = earthRadius * z / (earthRadius - z)
	}
	return out
}

// PPWV returns the partial pressure of water vapour [hPa] at each profile
// point, derived from the saturation vapour pressure (Magnus formula over
// water) scaled by relative humidity.
func (m *WeatherModel) PPWV() *sparse.DenseArray {
	out := sparse.ZerosDense(m.Temperature.Shape...)
	for i, t := range m.Temperature.Elements {
		es := 6.1078 * math.Exp(17.2693882*(t-273.16)/(t-35.86))
		out.Elements[i] = m.RelHum.Elements[i] / 100 * es
	}
	return out
}

// WithRainfall returns a copy of the model with rainfall-derived humidity
// blended in. Every cell where rain [mm/hr] is positive has its relative
// humidity raised by rate [%RH per mm/hr], saturating at 100%, at each level
// whose pressure lies in [minPlevel, maxPlevel] [hPa]. minPlevel must exist
// in the model's level set.
//
// The receiver is never modified: the returned model carries an independent
// humidity array and shares the remaining fields, so repeated trials at
// different levels cannot accumulate.
func (m *WeatherModel) WithRainfall(rain *sparse.DenseArray, minPlevel, maxPlevel, rate float64) (*WeatherModel, error) {
	if _, err := m.levelIndex(minPlevel); err != nil {
		return nil, err
	}
	ny, nx, nlev := m.RelHum.Shape[0], m.RelHum.Shape[1], m.RelHum.Shape[2]
	if rain.Shape[0] != ny || rain.Shape[1] != nx {
		return nil, GridMismatchError{Want: []int{ny, nx}, Got: rain.Shape}
	}

	rh := m.RelHum.Copy()
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			r := rain.Get(y, x)
			if r <= 0 {
				continue
			}
			off := rh.Index1d(y, x, 0)
			for k := 0; k < nlev; k++ {
				p := m.Pressure.Elements[off+k]
				if p < minPlevel || p > maxPlevel {
					continue
				}
				rh.Elements[off+k] = math.Min(100, rh.Elements[off+k]+rate*r)
			}
		}
	}

	out := *m
	out.RelHum = rh
	return &out, nil
}
