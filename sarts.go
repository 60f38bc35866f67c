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

// Package sarts estimates atmospheric propagation delays in InSAR
// interferograms from gridded weather-model profiles and rainfall-radar
// imagery, and optimizes the pressure level at which rainfall-derived
// humidity is blended into the weather model, either globally over a full
// interferogram or locally over overlapping spatial patches.
package sarts

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

// log is the logger used for search and integration diagnostics.
var log = logrus.StandardLogger()

// SetLogger replaces the logger used by this package. The embedding
// application owns the logger's level and formatting.
func SetLogger(l *logrus.Logger) {
	log = l
}

// Config holds the settings shared by the delay-estimation entry points.
// There is no package-level configuration state; a Config is passed
// explicitly into every operation that needs one.
type Config struct {
	// MinPressureLevel is the lowest-altitude pressure level [hPa] at which
	// rainfall-derived humidity will be tested. It must exist exactly in the
	// weather models' level sets.
	MinPressureLevel float64

	// LookAngle is the satellite look angle [radians]. It must lie in
	// [0, π/2).
	LookAngle float64

	// PatchRows and PatchCols give the patch size [pixels] used by
	// PatchSearch.
	PatchRows, PatchCols int

	// StrideRows and StrideCols give the distance [pixels] between the
	// origins of successive patches. If zero, they default to half the
	// patch size, giving 50% overlap on each axis.
	StrideRows, StrideCols int

	// Workers is the number of concurrent candidate evaluations used by
	// GlobalSearch. If less than one, it defaults to runtime.GOMAXPROCS(0).
	Workers int

	// InjectionCeiling is the highest pressure level [hPa] into which
	// rainfall-derived humidity is blended.
	InjectionCeiling float64

	// InjectionRate is the relative-humidity increase [%RH per mm/hr of
	// rainfall] applied at each injected level, saturating at 100%.
	InjectionRate float64
}

// DefaultConfig returns a Config with the conventional settings: a look
// angle of 0.367 radians (~21°), humidity injection from 1000 hPa up at
// 10 %RH per mm/hr, and a minimum test level of 600 hPa.
func DefaultConfig() Config {
	return Config{
		MinPressureLevel: 600,
		LookAngle:        0.367,
		InjectionCeiling: 1000,
		InjectionRate:    10,
	}
}

// setDefaults fills in the structural fields that may be left zero.
func (c *Config) setDefaults() {
	if c.Workers < 1 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.StrideRows < 1 {
		c.StrideRows = c.PatchRows / 2
	}
	if c.StrideRows < 1 {
		c.StrideRows = 1
	}
	if c.StrideCols < 1 {
		c.StrideCols = c.PatchCols / 2
	}
	if c.StrideCols < 1 {
		c.StrideCols = 1
	}
}
