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

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// PatchResult holds the whole-grid outputs of PatchSearch: the zenith wet
// and dry delay fields for the master and slave dates, and the pressure
// level [hPa] chosen for each pixel on each date. Level values are NaN where
// no rainfall was present in the pixel's patch on that date.
type PatchResult struct {
	MasterWet, MasterDry *SAR
	SlaveWet, SlaveDry   *SAR
	MasterLevels         *GeoGrid
	SlaveLevels          *GeoGrid
}

// Delay returns one of the assembled delay components for the given date's
// field pair: DelayWet, DelayDry or DelayTotal. The liquid delay is not part
// of the patch output.
func (r *PatchResult) Delay(kind DelayKind, wet, dry *SAR) (*SAR, error) {
	switch kind {
	case DelayWet:
		return wet, nil
	case DelayDry:
		return dry, nil
	case DelayTotal:
		return TotalDelay(wet, dry), nil
	}
	return nil, UnknownDelayKindError(kind)
}

// MasterDelay returns the requested master-date delay component.
func (r *PatchResult) MasterDelay(kind DelayKind) (*SAR, error) {
	return r.Delay(kind, r.MasterWet, r.MasterDry)
}

// SlaveDelay returns the requested slave-date delay component.
func (r *PatchResult) SlaveDelay(kind DelayKind) (*SAR, error) {
	return r.Delay(kind, r.SlaveWet, r.SlaveDry)
}

// window is one patch of the full grid, identified by its origin and size.
type window struct {
	y0, x0 int
	ny, nx int
}

// makeWindows tiles an nyTotal×nxTotal grid with ny×nx windows offset by
// strideY and strideX. Trailing rows and columns that do not fit a whole
// window are dropped. Windows are ordered row-major over window origins.
func makeWindows(nyTotal, nxTotal, ny, nx, strideY, strideX int) []window {
	var out []window
	for y := 0; y+ny <= nyTotal; y += strideY {
		for x := 0; x+nx <= nxTotal; x += strideX {
			out = append(out, window{y0: y, x0: x, ny: ny, nx: nx})
		}
	}
	return out
}

// slice2d copies the window's portion of a 2-D array.
func (w window) slice2d(a *sparse.DenseArray) *sparse.DenseArray {
	out := sparse.ZerosDense(w.ny, w.nx)
	for y := 0; y < w.ny; y++ {
		for x := 0; x < w.nx; x++ {
			out.Set(a.Get(w.y0+y, w.x0+x), y, x)
		}
	}
	return out
}

// slice3d copies the window's portion of a [lat, lon, level] array.
func (w window) slice3d(a *sparse.DenseArray) *sparse.DenseArray {
	nlev := a.Shape[2]
	out := sparse.ZerosDense(w.ny, w.nx, nlev)
	for y := 0; y < w.ny; y++ {
		for x := 0; x < w.nx; x++ {
			src := a.Index1d(w.y0+y, w.x0+x, 0)
			dst := out.Index1d(y, x, 0)
			copy(out.Elements[dst:dst+nlev], a.Elements[src:src+nlev])
		}
	}
	return out
}

// subGrid extracts the window's portion of a GeoGrid.
func (w window) subGrid(g *GeoGrid) *GeoGrid {
	return &GeoGrid{
		Lons: g.Lons[w.x0 : w.x0+w.nx],
		Lats: g.Lats[w.y0 : w.y0+w.ny],
		Data: w.slice2d(g.Data),
	}
}

// subModel extracts the window's portion of a weather model.
func (w window) subModel(m *WeatherModel) *WeatherModel {
	return &WeatherModel{
		Lats:         m.Lats[w.y0 : w.y0+w.ny],
		Lons:         m.Lons[w.x0 : w.x0+w.nx],
		Date:         m.Date,
		Pressure:     w.slice3d(m.Pressure),
		Temperature:  w.slice3d(m.Temperature),
		RelHum:       w.slice3d(m.RelHum),
		GeopotHeight: w.slice3d(m.GeopotHeight),
	}
}

// writeBack copies a window-sized field into the full-grid array at the
// window's origin.
func (w window) writeBack(dst, src *sparse.DenseArray) {
	for y := 0; y < w.ny; y++ {
		for x := 0; x < w.nx; x++ {
			dst.Set(src.Get(y, x), w.y0+y, w.x0+x)
		}
	}
}

// fill sets every pixel of the window in dst to v.
func (w window) fill(dst *sparse.DenseArray, v float64) {
	for y := 0; y < w.ny; y++ {
		for x := 0; x < w.nx; x++ {
			dst.Set(v, w.y0+y, w.x0+x)
		}
	}
}

// PatchSearch divides the region into overlapping patches and, per patch,
// finds the rainfall-injection pressure levels that minimize the standard
// deviation of the corrected interferogram. Patches with no rainfall on
// either date skip the search and take a pure weather-model correction, with
// the per-pixel level outputs set to NaN.
//
// Patches overlap by half a patch on each axis and are processed
// sequentially in row-major order; in overlap regions the last patch
// processed wins, so assembled fields can show seams at patch boundaries.
func PatchSearch(cfg Config, dem *GeoGrid, ifg *InSAR, mmodel, smodel *WeatherModel, mrain, srain *RainfallField) (*PatchResult, error) {
	cfg.setDefaults()
	if cfg.PatchRows < 1 || cfg.PatchCols < 1 {
		return nil, fmt.Errorf("sarts: patch size %d×%d is not positive", cfg.PatchRows, cfg.PatchCols)
	}
	if _, err := mmodel.levelIndex(cfg.MinPressureLevel); err != nil {
		return nil, err
	}

	ny, nx := len(dem.Lats), len(dem.Lons)
	mwet := sparse.ZerosDense(ny, nx)
	mdry := sparse.ZerosDense(ny, nx)
	swet := sparse.ZerosDense(ny, nx)
	sdry := sparse.ZerosDense(ny, nx)
	mLevels := sparse.ZerosDense(ny, nx)
	sLevels := sparse.ZerosDense(ny, nx)

	wins := makeWindows(ny, nx, cfg.PatchRows, cfg.PatchCols, cfg.StrideRows, cfg.StrideCols)
	for i, win := range wins {
		log.WithFields(logrus.Fields{
			"patch":   i + 1,
			"patches": len(wins),
			"master":  ifg.MasterDate,
			"slave":   ifg.SlaveDate,
		}).Info("processing patch")

		pdem := win.subGrid(dem)
		pifg := win.slice2d(ifg.Data)
		pmrain := win.slice2d(mrain.Data)
		psrain := win.slice2d(srain.Data)
		pmmodel := win.subModel(mmodel)
		psmodel := win.subModel(smodel)

		if floats.Sum(pmrain.Elements) == 0 && floats.Sum(psrain.Elements) == 0 {
			log.Debug("no rainfall in patch, using pure weather model correction")
			pmwet, pmdry, err := CalculateZenithDelay(pmmodel, pdem)
			if err != nil {
				return nil, err
			}
			pswet, psdry, err := CalculateZenithDelay(psmodel, pdem)
			if err != nil {
				return nil, err
			}
			win.writeBack(mwet, pmwet.Data)
			win.writeBack(mdry, pmdry.Data)
			win.writeBack(swet, pswet.Data)
			win.writeBack(sdry, psdry.Data)
			win.fill(mLevels, math.NaN())
			win.fill(sLevels, math.NaN())
			continue
		}

		best, err := optimizePatch(cfg, pdem, pifg, pmrain, psrain, pmmodel, psmodel)
		if err != nil {
			return nil, err
		}
		win.writeBack(mwet, best.mwet)
		win.writeBack(mdry, best.mdry)
		win.writeBack(swet, best.swet)
		win.writeBack(sdry, best.sdry)
		win.fill(mLevels, best.masterP)
		win.fill(sLevels, best.slaveP)
	}

	grid := func(data *sparse.DenseArray) GeoGrid {
		return GeoGrid{Lons: dem.Lons, Lats: dem.Lats, Data: data}
	}
	return &PatchResult{
		MasterWet:    &SAR{GeoGrid: grid(mwet), Date: ifg.MasterDate},
		MasterDry:    &SAR{GeoGrid: grid(mdry), Date: ifg.MasterDate},
		SlaveWet:     &SAR{GeoGrid: grid(swet), Date: ifg.SlaveDate},
		SlaveDry:     &SAR{GeoGrid: grid(sdry), Date: ifg.SlaveDate},
		MasterLevels: &GeoGrid{Lons: dem.Lons, Lats: dem.Lats, Data: mLevels},
		SlaveLevels:  &GeoGrid{Lons: dem.Lons, Lats: dem.Lats, Data: sLevels},
	}, nil
}

// patchDelays is the accepted state of one patch: zenith delay fields and
// the levels they were produced with (NaN for a date with no rainfall).
type patchDelays struct {
	mwet, mdry *sparse.DenseArray
	swet, sdry *sparse.DenseArray
	masterP    float64
	slaveP     float64
}

// optimizePatch runs the greedy accept/reject search over one patch. The
// pure weather-model correction is always accepted first as the baseline;
// every following candidate injects rainfall into fresh humidity copies and
// is accepted only if it strictly improves on the current best. Ties keep
// the first-seen candidate.
func optimizePatch(cfg Config, dem *GeoGrid, pifg, mrain, srain *sparse.DenseArray, mmodel, smodel *WeatherModel) (*patchDelays, error) {
	minIdx, err := mmodel.levelIndex(cfg.MinPressureLevel)
	if err != nil {
		return nil, err
	}
	levels := mmodel.Levels()

	mwet, mdry, swet, sdry, sd, err := evalPatch(cfg, dem, pifg, mmodel, smodel)
	if err != nil {
		return nil, err
	}
	best := &patchDelays{
		mwet: mwet.Data, mdry: mdry.Data,
		swet: swet.Data, sdry: sdry.Data,
		masterP: math.NaN(), slaveP: math.NaN(),
	}
	bestStd := sd
	log.WithFields(logrus.Fields{"std": bestStd}).Debug("pure correction standard deviation")

	// A date with no rainfall in the patch has nothing to inject, so its
	// side of the search collapses to the top level only.
	noMasterRain := floats.Sum(mrain.Elements) == 0
	noSlaveRain := floats.Sum(srain.Elements) == 0
	masterMinIdx, slaveMinIdx := minIdx, minIdx
	if noMasterRain {
		log.Debug("master radar patch contains no rain")
		masterMinIdx = 0
	}
	if noSlaveRain {
		log.Debug("slave radar patch contains no rain")
		slaveMinIdx = 0
	}

	for mi := 0; mi <= masterMinIdx; mi++ {
		for si := 0; si <= slaveMinIdx; si++ {
			mm := mmodel
			if !noMasterRain {
				if mm, err = mmodel.WithRainfall(mrain, levels[mi], cfg.InjectionCeiling, cfg.InjectionRate); err != nil {
					return nil, err
				}
			}
			sm := smodel
			if !noSlaveRain {
				if sm, err = smodel.WithRainfall(srain, levels[si], cfg.InjectionCeiling, cfg.InjectionRate); err != nil {
					return nil, err
				}
			}

			mwet, mdry, swet, sdry, sd, err := evalPatch(cfg, dem, pifg, mm, sm)
			if err != nil {
				return nil, err
			}

			if sd < bestStd {
				best.mwet, best.mdry = mwet.Data, mdry.Data
				best.swet, best.sdry = swet.Data, sdry.Data
				best.masterP, best.slaveP = levels[mi], levels[si]
				if noMasterRain {
					best.masterP = math.NaN()
				}
				if noSlaveRain {
					best.slaveP = math.NaN()
				}
				bestStd = sd
				log.WithFields(logrus.Fields{
					"master_p": levels[mi],
					"slave_p":  levels[si],
					"std":      sd,
				}).Debug("accepting model")
			} else {
				log.WithFields(logrus.Fields{
					"master_p": levels[mi],
					"slave_p":  levels[si],
					"std":      sd,
				}).Debug("rejecting model")
			}
		}
	}

	return best, nil
}

// evalPatch integrates both models over the patch DEM and scores the
// corrected interferogram. The returned delay fields are zenith delays; the
// standard deviation is computed on their slant projections.
func evalPatch(cfg Config, dem *GeoGrid, pifg *sparse.DenseArray, mmodel, smodel *WeatherModel) (mwet, mdry, swet, sdry *SAR, sd float64, err error) {
	if mwet, mdry, err = CalculateZenithDelay(mmodel, dem); err != nil {
		return nil, nil, nil, nil, 0, err
	}
	if swet, sdry, err = CalculateZenithDelay(smodel, dem); err != nil {
		return nil, nil, nil, nil, 0, err
	}

	var slants [4]*SAR
	for i, zen := range []*SAR{mwet, mdry, swet, sdry} {
		if slants[i], err = zen.ZenithToSlant(cfg.LookAngle); err != nil {
			return nil, nil, nil, nil, 0, err
		}
	}
	sim := IfgDelay(TotalDelay(slants[0], slants[1]), TotalDelay(slants[2], slants[3]))
	return mwet, mdry, swet, sdry, residualStd(pifg, sim.Data), nil
}
