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
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// Refractivity constants from Hanssen (2001).
const (
	k1 = 0.776  // K Pa^-1
	k2 = 0.716  // K Pa^-1
	k3 = 3.75e3 // K^2 Pa^-1
	rd = 287.053 // J kg^-1 K^-1, specific gas constant for dry air
	rv = 461.524 // J kg^-1 K^-1, specific gas constant for water vapour

	// Each column is resampled onto this many heights between the local
	// surface and the integration ceiling.
	integrationSamples = 1024
	integrationCeiling = 15000 // m
)

// liquidDelayCoeff converts liquid water content [g m^-3] times cloud
// thickness [km] to one-way zenith delay [cm].
const liquidDelayCoeff = 0.145

// CalculateZenithDelay computes the one-way zenith delay predicted by a
// weather model over a DEM. It returns the wet and dry delay [cm], one value
// per grid cell. The model must be on the same grid as the DEM; the DEM's
// elevations must lie within the model's vertical range.
func CalculateZenithDelay(model *WeatherModel, dem *GeoGrid) (wet, dry *SAR, err error) {
	if len(dem.Lats) != len(model.Lats) || len(dem.Lons) != len(model.Lons) {
		return nil, nil, GridMismatchError{
			Want: []int{len(model.Lats), len(model.Lons)},
			Got:  []int{len(dem.Lats), len(dem.Lons)},
		}
	}

	ny, nx := len(model.Lats), len(model.Lons)
	nlev := model.Pressure.Shape[2]

	height := model.Height()
	ppwv := model.PPWV()

	wetData := sparse.ZerosDense(ny, nx)
	dryData := sparse.ZerosDense(ny, nx)

	// Scratch buffers shared by every cell; the per-cell loop must not
	// allocate.
	hCol := make([]float64, nlev)
	tCol := make([]float64, nlev)
	eCol := make([]float64, nlev)
	pCol := make([]float64, nlev)
	samples := make([]float64, integrationSamples)
	iTemp := make([]float64, integrationSamples)
	iPpwv := make([]float64, integrationSamples)
	iPress := make([]float64, integrationSamples)

	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			// Gather the column ordered by increasing height.
			off := height.Index1d(y, x, 0)
			ascending := height.Elements[off] < height.Elements[off+nlev-1]
			for k := 0; k < nlev; k++ {
				src := k
				if !ascending {
					src = nlev - 1 - k
				}
				hCol[k] = height.Elements[off+src]
				tCol[k] = model.Temperature.Elements[off+src]
				eCol[k] = ppwv.Elements[off+src]
				pCol[k] = model.Pressure.Elements[off+src]
			}

			floats.Span(samples, dem.Data.Get(y, x), integrationCeiling)
			interpColumn(hCol, tCol, samples, iTemp)
			interpColumn(hCol, eCol, samples, iPpwv)
			interpColumn(hCol, pCol, samples, iPress)

			var wetSum, drySum float64
			for i := 1; i < integrationSamples; i++ {
				// hPa to Pa.
				e0, e1 := iPpwv[i-1]*100, iPpwv[i]*100
				p0, p1 := iPress[i-1]*100, iPress[i]*100
				t0, t1 := iTemp[i-1], iTemp[i]

				w0 := (k2-k1*rd/rv)*e0/t0 + k3*e0/(t0*t0)
				w1 := (k2-k1*rd/rv)*e1/t1 + k3*e1/(t1*t1)
				d0 := k1 * p0 / t0
				d1 := k1 * p1 / t1

				dz := samples[i] - samples[i-1]
				wetSum += (w0 + w1) / 2 * dz
				drySum += (d0 + d1) / 2 * dz
			}

			// Refractivity is in parts per million; delays are reported in
			// centimetres.
			wetData.Set(wetSum*1e-6*100, y, x)
			dryData.Set(drySum*1e-6*100, y, x)
		}
	}

	wet = &SAR{GeoGrid: GeoGrid{Lons: model.Lons, Lats: model.Lats, Data: wetData}, Date: model.Date}
	dry = &SAR{GeoGrid: GeoGrid{Lons: model.Lons, Lats: model.Lats, Data: dryData}, Date: model.Date}
	return wet, dry, nil
}

// interpColumn linearly interpolates the profile (xs, ys) onto pts, writing
// the results into dst. xs must be strictly increasing and pts
// non-decreasing; points outside the range of xs take the nearest endpoint
// value.
func interpColumn(xs, ys, pts, dst []float64) {
	n := len(xs)
	j := 0
	for i, p := range pts {
		switch {
		case p <= xs[0]:
			dst[i] = ys[0]
		case p >= xs[n-1]:
			dst[i] = ys[n-1]
		default:
			for xs[j+1] < p {
				j++
			}
			frac := (p - xs[j]) / (xs[j+1] - xs[j])
			dst[i] = ys[j] + frac*(ys[j+1]-ys[j])
		}
	}
}

// TotalDelay returns the pointwise sum of a wet and a dry delay field.
func TotalDelay(wet, dry *SAR) *SAR {
	data := wet.Data.Copy()
	floats.Add(data.Elements, dry.Data.Elements)
	return &SAR{
		GeoGrid: GeoGrid{Lons: wet.Lons, Lats: wet.Lats, Data: data},
		Date:    wet.Date,
	}
}

// LiquidZenithDelay estimates the one-way zenith delay [cm] from a liquid
// water content field [g m^-3] and a constant cloud thickness [km].
func LiquidZenithDelay(lwc *RainfallField, cloudThickness float64) *SAR {
	data := lwc.Data.Copy()
	data.Scale(liquidDelayCoeff * cloudThickness)
	return &SAR{
		GeoGrid: GeoGrid{Lons: lwc.Lons, Lats: lwc.Lats, Data: data},
		Date:    lwc.Date,
	}
}

// LiquidZenithDelayField is LiquidZenithDelay with a per-pixel cloud
// thickness [km] of the same shape as the liquid water content field.
func LiquidZenithDelayField(lwc *RainfallField, cloudThickness *GeoGrid) (*SAR, error) {
	if len(cloudThickness.Lats) != len(lwc.Lats) || len(cloudThickness.Lons) != len(lwc.Lons) {
		return nil, GridMismatchError{
			Want: lwc.Data.Shape,
			Got:  cloudThickness.Data.Shape,
		}
	}
	data := lwc.Data.Copy()
	for i, th := range cloudThickness.Data.Elements {
		data.Elements[i] *= liquidDelayCoeff * th
	}
	return &SAR{
		GeoGrid: GeoGrid{Lons: lwc.Lons, Lats: lwc.Lats, Data: data},
		Date:    lwc.Date,
	}, nil
}

// DelayKind selects which delay component an operation applies to.
type DelayKind string

// The delay components produced by this package.
const (
	DelayWet    DelayKind = "wet"
	DelayDry    DelayKind = "dry"
	DelayTotal  DelayKind = "total"
	DelayLiquid DelayKind = "liquid"
)

// ParseDelayKind converts a selector string into a DelayKind.
func ParseDelayKind(s string) (DelayKind, error) {
	switch k := DelayKind(s); k {
	case DelayWet, DelayDry, DelayTotal, DelayLiquid:
		return k, nil
	}
	return "", UnknownDelayKindError(s)
}
