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
	"fmt"
	"math"
	"time"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// GeoGrid is a scalar field on a regular longitude/latitude grid. Data has
// shape [len(Lats), len(Lons)].
type GeoGrid struct {
	Lons []float64
	Lats []float64
	Data *sparse.DenseArray
}

// SAR is a single-date scalar field, typically a delay field for one
// acquisition.
type SAR struct {
	GeoGrid
	Date time.Time
}

// InSAR is an interferometric field formed from a master and a slave
// acquisition. The two dates must differ.
type InSAR struct {
	GeoGrid
	MasterDate time.Time
	SlaveDate  time.Time
}

// RainfallField is a gridded instantaneous precipitation rate [mm/hr] for a
// single date, co-registered to the weather model grid it is used with.
type RainfallField struct {
	GeoGrid
	Date time.Time
}

// ZenithToSlant projects a zenith delay field along the satellite's line of
// sight: slant = zenith / cos(lookAngle). lookAngle is in radians and must
// lie in [0, π/2).
func (s *SAR) ZenithToSlant(lookAngle float64) (*SAR, error) {
	if lookAngle < 0 || lookAngle >= math.Pi/2 {
		return nil, fmt.Errorf("sarts: look angle %g rad outside [0, π/2)", lookAngle)
	}
	data := s.Data.Copy()
	data.Scale(1 / math.Cos(lookAngle))
	return &SAR{
		GeoGrid: GeoGrid{Lons: s.Lons, Lats: s.Lats, Data: data},
		Date:    s.Date,
	}, nil
}

// ZenithToSlantField is ZenithToSlant with a per-pixel look angle. The angle
// grid must have the same shape as the delay field, and every angle must lie
// in [0, π/2).
func (s *SAR) ZenithToSlantField(lookAngle *GeoGrid) (*SAR, error) {
	if len(lookAngle.Lats) != len(s.Lats) || len(lookAngle.Lons) != len(s.Lons) {
		return nil, GridMismatchError{
			Want: s.Data.Shape,
			Got:  lookAngle.Data.Shape,
		}
	}
	data := s.Data.Copy()
	for i, θ := range lookAngle.Data.Elements {
		if θ < 0 || θ >= math.Pi/2 {
			return nil, fmt.Errorf("sarts: look angle %g rad outside [0, π/2)", θ)
		}
		data.Elements[i] /= math.Cos(θ)
	}
	return &SAR{
		GeoGrid: GeoGrid{Lons: s.Lons, Lats: s.Lats, Data: data},
		Date:    s.Date,
	}, nil
}

// IfgDelay differences a master and a slave delay field into an
// interferometric delay field.
func IfgDelay(master, slave *SAR) *InSAR {
	data := master.Data.Copy()
	floats.Sub(data.Elements, slave.Data.Elements)
	return &InSAR{
		GeoGrid:    GeoGrid{Lons: master.Lons, Lats: master.Lats, Data: data},
		MasterDate: master.Date,
		SlaveDate:  slave.Date,
	}
}
