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
	"errors"
	"math"
	"testing"
)

func TestMakeWindowsCoverage(t *testing.T) {
	wins := makeWindows(8, 8, 4, 4, 2, 2)
	if len(wins) != 9 {
		t.Fatalf("got %d windows, want 9", len(wins))
	}

	covered := [8][8]int{}
	for _, w := range wins {
		for y := 0; y < w.ny; y++ {
			for x := 0; x < w.nx; x++ {
				covered[w.y0+y][w.x0+x]++
			}
		}
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if covered[y][x] == 0 {
				t.Errorf("pixel (%d, %d) not covered by any window", y, x)
			}
		}
	}
}

func TestMakeWindowsDropsPartial(t *testing.T) {
	// A 7-row axis with 4-row windows at stride 2 fits origins 0 and 2
	// only; the partial window at row 4 is dropped.
	wins := makeWindows(7, 4, 4, 4, 2, 2)
	if len(wins) != 2 {
		t.Fatalf("got %d windows, want 2", len(wins))
	}
	for _, w := range wins {
		if w.y0+w.ny > 7 || w.x0+w.nx > 4 {
			t.Errorf("window %+v overruns the grid", w)
		}
	}
}

func TestPatchSearchNoRain(t *testing.T) {
	mmodel := testModel(4, 4, []float64{1000, 800, 600}, []float64{0, 2000, 4500}, 280, 50)
	smodel := testModel(4, 4, []float64{1000, 800, 600}, []float64{0, 2000, 4500}, 276, 40)
	dem := flatDEM(mmodel, 100)
	ifg, mrain, srain := testInputs(mmodel)

	cfg := DefaultConfig()
	cfg.MinPressureLevel = 600
	cfg.PatchRows, cfg.PatchCols = 2, 2

	res, err := PatchSearch(cfg, dem, ifg, mmodel, smodel, mrain, srain)
	if err != nil {
		t.Fatal(err)
	}

	// Every patch short-circuits, so the level maps are NaN everywhere and
	// the assembled delays equal the pure weather model correction exactly.
	for i := range res.MasterLevels.Data.Elements {
		if !math.IsNaN(res.MasterLevels.Data.Elements[i]) {
			t.Errorf("master level element %d = %g, want NaN", i, res.MasterLevels.Data.Elements[i])
		}
		if !math.IsNaN(res.SlaveLevels.Data.Elements[i]) {
			t.Errorf("slave level element %d = %g, want NaN", i, res.SlaveLevels.Data.Elements[i])
		}
	}

	mwet, mdry, err := CalculateZenithDelay(mmodel, dem)
	if err != nil {
		t.Fatal(err)
	}
	swet, sdry, err := CalculateZenithDelay(smodel, dem)
	if err != nil {
		t.Fatal(err)
	}
	for i := range mwet.Data.Elements {
		if res.MasterWet.Data.Elements[i] != mwet.Data.Elements[i] {
			t.Errorf("master wet element %d = %g, want %g", i, res.MasterWet.Data.Elements[i], mwet.Data.Elements[i])
		}
		if res.MasterDry.Data.Elements[i] != mdry.Data.Elements[i] {
			t.Errorf("master dry element %d = %g, want %g", i, res.MasterDry.Data.Elements[i], mdry.Data.Elements[i])
		}
		if res.SlaveWet.Data.Elements[i] != swet.Data.Elements[i] {
			t.Errorf("slave wet element %d = %g, want %g", i, res.SlaveWet.Data.Elements[i], swet.Data.Elements[i])
		}
		if res.SlaveDry.Data.Elements[i] != sdry.Data.Elements[i] {
			t.Errorf("slave dry element %d = %g, want %g", i, res.SlaveDry.Data.Elements[i], sdry.Data.Elements[i])
		}
	}
}

func TestPatchSearchRecoversInjectionLevel(t *testing.T) {
	mmodel := testModel(2, 2, []float64{1000, 800}, []float64{0, 2000}, 280, 50)
	smodel := testModel(2, 2, []float64{1000, 800}, []float64{0, 2000}, 278, 45)
	dem := flatDEM(mmodel, 0)
	ifg, mrain, srain := testInputs(mmodel)
	mrain.Data.Set(3, 0, 0)

	cfg := DefaultConfig()
	cfg.MinPressureLevel = 800
	cfg.PatchRows, cfg.PatchCols = 2, 2

	// Make the observed interferogram exactly the delay difference produced
	// by injecting the master date's rainfall at 800 hPa, so that candidate
	// corrects the patch perfectly.
	mInjected, err := mmodel.WithRainfall(mrain.Data, 800, cfg.InjectionCeiling, cfg.InjectionRate)
	if err != nil {
		t.Fatal(err)
	}
	sim, err := simulateIfgDelay(cfg, dem, mInjected, smodel)
	if err != nil {
		t.Fatal(err)
	}
	ifg.Data = sim.Data

	res, err := PatchSearch(cfg, dem, ifg, mmodel, smodel, mrain, srain)
	if err != nil {
		t.Fatal(err)
	}

	for i := range res.MasterLevels.Data.Elements {
		if got := res.MasterLevels.Data.Elements[i]; got != 800 {
			t.Errorf("master level element %d = %g, want 800", i, got)
		}
		// No rainfall on the slave date, so its level is never recorded.
		if got := res.SlaveLevels.Data.Elements[i]; !math.IsNaN(got) {
			t.Errorf("slave level element %d = %g, want NaN", i, got)
		}
	}

	// The winning candidate reproduces the injected models' zenith delays.
	wantWet, wantDry, err := CalculateZenithDelay(mInjected, dem)
	if err != nil {
		t.Fatal(err)
	}
	for i := range wantWet.Data.Elements {
		if res.MasterWet.Data.Elements[i] != wantWet.Data.Elements[i] {
			t.Errorf("master wet element %d = %g, want %g", i, res.MasterWet.Data.Elements[i], wantWet.Data.Elements[i])
		}
		if res.MasterDry.Data.Elements[i] != wantDry.Data.Elements[i] {
			t.Errorf("master dry element %d = %g, want %g", i, res.MasterDry.Data.Elements[i], wantDry.Data.Elements[i])
		}
	}
}

func TestPatchSearchMonotoneImprovement(t *testing.T) {
	mmodel := testModel(2, 2, []float64{1000, 800}, []float64{0, 2000}, 281, 65)
	smodel := testModel(2, 2, []float64{1000, 800}, []float64{0, 2000}, 277, 40)
	dem := flatDEM(mmodel, 50)
	ifg, mrain, srain := testInputs(mmodel)
	mrain.Data.Set(2, 0, 1)
	srain.Data.Set(4, 1, 0)
	for i := range ifg.Data.Elements {
		ifg.Data.Elements[i] = 0.2*float64(i) - 0.3
	}

	cfg := DefaultConfig()
	cfg.MinPressureLevel = 800
	cfg.PatchRows, cfg.PatchCols = 2, 2

	res, err := PatchSearch(cfg, dem, ifg, mmodel, smodel, mrain, srain)
	if err != nil {
		t.Fatal(err)
	}

	// Residual standard deviation of the pure weather model correction.
	_, _, _, _, pureStd, err := evalPatch(cfg, dem, ifg.Data, mmodel, smodel)
	if err != nil {
		t.Fatal(err)
	}

	// Residual standard deviation of the assembled result.
	var slants [4]*SAR
	for i, zen := range []*SAR{res.MasterWet, res.MasterDry, res.SlaveWet, res.SlaveDry} {
		if slants[i], err = zen.ZenithToSlant(cfg.LookAngle); err != nil {
			t.Fatal(err)
		}
	}
	sim := IfgDelay(TotalDelay(slants[0], slants[1]), TotalDelay(slants[2], slants[3]))
	finalStd := residualStd(ifg.Data, sim.Data)

	if finalStd > pureStd+1e-12 {
		t.Errorf("final std = %g exceeds pure correction std = %g", finalStd, pureStd)
	}
}

func TestPatchSearchLevelNotFound(t *testing.T) {
	mmodel := testModel(2, 2, []float64{1000, 800, 600}, []float64{0, 2000, 4500}, 280, 50)
	smodel := testModel(2, 2, []float64{1000, 800, 600}, []float64{0, 2000, 4500}, 280, 50)
	dem := flatDEM(mmodel, 0)
	ifg, mrain, srain := testInputs(mmodel)

	cfg := DefaultConfig()
	cfg.MinPressureLevel = 550
	cfg.PatchRows, cfg.PatchCols = 2, 2

	_, err := PatchSearch(cfg, dem, ifg, mmodel, smodel, mrain, srain)
	var lnf LevelNotFoundError
	if !errors.As(err, &lnf) {
		t.Fatalf("err = %v, want LevelNotFoundError", err)
	}
}

func TestPatchResultDelaySelector(t *testing.T) {
	mmodel := testModel(2, 2, []float64{1000, 800}, []float64{0, 2000}, 280, 50)
	smodel := testModel(2, 2, []float64{1000, 800}, []float64{0, 2000}, 278, 45)
	dem := flatDEM(mmodel, 0)
	ifg, mrain, srain := testInputs(mmodel)

	cfg := DefaultConfig()
	cfg.MinPressureLevel = 800
	cfg.PatchRows, cfg.PatchCols = 2, 2

	res, err := PatchSearch(cfg, dem, ifg, mmodel, smodel, mrain, srain)
	if err != nil {
		t.Fatal(err)
	}

	total, err := res.MasterDelay(DelayTotal)
	if err != nil {
		t.Fatal(err)
	}
	for i := range total.Data.Elements {
		want := res.MasterWet.Data.Elements[i] + res.MasterDry.Data.Elements[i]
		if total.Data.Elements[i] != want {
			t.Errorf("total element %d = %g, want %g", i, total.Data.Elements[i], want)
		}
	}

	_, err = res.SlaveDelay(DelayLiquid)
	var uk UnknownDelayKindError
	if !errors.As(err, &uk) {
		t.Fatalf("err = %v, want UnknownDelayKindError", err)
	}
}
