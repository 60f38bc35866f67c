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

import "fmt"

// LevelNotFoundError reports a pressure level that does not exist in a
// weather model's level set.
type LevelNotFoundError struct {
	Level float64 // [hPa]
}

func (e LevelNotFoundError) Error() string {
	return fmt.Sprintf("sarts: pressure level %g hPa could not be found in the weather model", e.Level)
}

// GridMismatchError reports two grids that must be co-registered but have
// different sizes.
type GridMismatchError struct {
	Want, Got []int
}

func (e GridMismatchError) Error() string {
	return fmt.Sprintf("sarts: grid size %v does not match grid size %v", e.Got, e.Want)
}

// UnknownDelayKindError reports a delay-kind selector that is not one of
// wet, dry, total, or liquid.
type UnknownDelayKindError string

func (e UnknownDelayKindError) Error() string {
	return fmt.Sprintf("sarts: unknown delay kind %q", string(e))
}
