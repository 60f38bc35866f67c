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
	"context"
	"sync"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// PressureCandidate records the outcome of testing one combination of
// master and slave rainfall-injection pressure levels.
type PressureCandidate struct {
	MasterP float64 // [hPa]
	SlaveP  float64 // [hPa]
	Std     float64 // standard deviation of the corrected interferogram [cm]
}

// GlobalSearch tests every combination of master and slave
// rainfall-injection levels between the top of the column and
// cfg.MinPressureLevel (inclusive), scoring each candidate by the standard
// deviation of the corrected interferogram over the whole grid.
//
// Candidates are evaluated concurrently on a pool of cfg.Workers
// goroutines. The returned set is unordered; the caller performs the
// minimization. The first evaluation error aborts the whole search and no
// partial results are returned.
func GlobalSearch(cfg Config, dem *GeoGrid, ifg *InSAR, mmodel, smodel *WeatherModel, mrain, srain *RainfallField) ([]PressureCandidate, error) {
	cfg.setDefaults()
	minIdx, err := mmodel.levelIndex(cfg.MinPressureLevel)
	if err != nil {
		return nil, err
	}
	levels := mmodel.Levels()[:minIdx+1]

	log.WithFields(logrus.Fields{
		"combinations": len(levels) * len(levels),
		"master":       ifg.MasterDate,
		"slave":        ifg.SlaveDate,
	}).Debug("testing pressure level combinations")

	type pair struct{ masterP, slaveP float64 }
	pairCh := make(chan pair)

	results := make([]PressureCandidate, 0, len(levels)*len(levels))
	var mx sync.Mutex

	eg, ctx := errgroup.WithContext(context.Background())
	eg.Go(func() error {
		defer close(pairCh)
		for _, mp := range levels {
			for _, sp := range levels {
				select {
				case pairCh <- pair{mp, sp}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})
	for w := 0; w < cfg.Workers; w++ {
		eg.Go(func() error {
			for pr := range pairCh {
				cand, err := evalCandidate(cfg, dem, ifg, mmodel, smodel, mrain, srain, pr.masterP, pr.slaveP)
				if err != nil {
					return err
				}
				mx.Lock()
				results = append(results, cand)
				mx.Unlock()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// evalCandidate scores a single (master level, slave level) combination.
// Rainfall is injected into independent copies of both models, so candidate
// evaluations never share humidity state.
func evalCandidate(cfg Config, dem *GeoGrid, ifg *InSAR, mmodel, smodel *WeatherModel, mrain, srain *RainfallField, masterP, slaveP float64) (PressureCandidate, error) {
	mm, err := mmodel.WithRainfall(mrain.Data, masterP, cfg.InjectionCeiling, cfg.InjectionRate)
	if err != nil {
		return PressureCandidate{}, err
	}
	sm, err := smodel.WithRainfall(srain.Data, slaveP, cfg.InjectionCeiling, cfg.InjectionRate)
	if err != nil {
		return PressureCandidate{}, err
	}

	sim, err := simulateIfgDelay(cfg, dem, mm, sm)
	if err != nil {
		return PressureCandidate{}, err
	}
	sd := residualStd(ifg.Data, sim.Data)

	// One line per evaluation for offline inspection.
	log.WithFields(logrus.Fields{
		"master_p": masterP,
		"slave_p":  slaveP,
		"std":      sd,
	}).Info("tested pressure level combination")

	return PressureCandidate{MasterP: masterP, SlaveP: slaveP, Std: sd}, nil
}

// simulateIfgDelay integrates both models over the DEM, projects the delays
// into the line of sight, and differences the totals into a simulated
// interferometric delay.
func simulateIfgDelay(cfg Config, dem *GeoGrid, mmodel, smodel *WeatherModel) (*InSAR, error) {
	mwet, mdry, err := CalculateZenithDelay(mmodel, dem)
	if err != nil {
		return nil, err
	}
	swet, sdry, err := CalculateZenithDelay(smodel, dem)
	if err != nil {
		return nil, err
	}

	var slants [4]*SAR
	for i, zen := range []*SAR{mwet, mdry, swet, sdry} {
		if slants[i], err = zen.ZenithToSlant(cfg.LookAngle); err != nil {
			return nil, err
		}
	}
	mtotal := TotalDelay(slants[0], slants[1])
	stotal := TotalDelay(slants[2], slants[3])
	return IfgDelay(mtotal, stotal), nil
}

// residualStd is the population standard deviation of the observed
// interferogram after the simulated delay is subtracted.
func residualStd(obs, sim *sparse.DenseArray) float64 {
	resid := make([]float64, len(obs.Elements))
	floats.SubTo(resid, obs.Elements, sim.Elements)
	return stats.StatsPopulationStandardDeviation(resid)
}
