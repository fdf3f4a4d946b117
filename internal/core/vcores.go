/*******************************************************************************
*
* Copyright 2026 SAP SE
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

package core

import (
	"fmt"
	"strconv"
)

// VCores is a rational vcore count with one-decimal precision (§3), stored
// internally as tenths of a core so that arithmetic across pod quantities
// and socket capacities stays exact instead of accumulating float error.
type VCores int64

// VCoresFromTenths constructs a VCores value directly from a tenths count.
func VCoresFromTenths(tenths int64) VCores {
	return VCores(tenths)
}

// VCoresFromWhole constructs a VCores value from a whole core count, as used
// for server/socket capacities (always integral per C2).
func VCoresFromWhole(whole int64) VCores {
	return VCores(whole * 10)
}

// ParseVCores parses a decimal string like "2.5" or "4" into VCores.
func ParseVCores(s string) (VCores, error) {
	// one decimal place is the catalog's contract (§3); reject anything finer
	// rather than silently truncating precision the operator specified.
	whole, frac, hasFrac := splitDecimal(s)
	wholeVal, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid vcores value %q: %w", s, err)
	}
	tenths := wholeVal * 10
	if hasFrac {
		if len(frac) != 1 {
			return 0, fmt.Errorf("invalid vcores value %q: expected one decimal digit", s)
		}
		fracVal, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid vcores value %q: %w", s, err)
		}
		if wholeVal < 0 {
			tenths -= fracVal
		} else {
			tenths += fracVal
		}
	}
	return VCores(tenths), nil
}

func splitDecimal(s string) (whole, frac string, hasFrac bool) {
	for i, r := range s {
		if r == '.' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// Mul multiplies a VCores value by a non-negative quantity (for
// PodRequirement.quantity).
func (v VCores) Mul(quantity int) VCores {
	return VCores(int64(v) * int64(quantity))
}

// Add returns the sum of two VCores values.
func (v VCores) Add(other VCores) VCores {
	return v + other
}

// Sub returns the difference of two VCores values (may go negative; callers
// check sign explicitly, see the SocketSlot.VCoresAvailable invariant).
func (v VCores) Sub(other VCores) VCores {
	return v - other
}

func (v VCores) IsPositive() bool {
	return v > 0
}

func (v VCores) IsNegative() bool {
	return v < 0
}

// Whole truncates toward zero to a whole core count, used when converting
// pcores to vcores and back (C2's fixed ratio 2).
func (v VCores) Whole() int64 {
	return int64(v) / 10
}

func (v VCores) String() string {
	whole := int64(v) / 10
	tenths := int64(v) % 10
	if tenths < 0 {
		tenths = -tenths
	}
	if tenths == 0 {
		return strconv.FormatInt(whole, 10)
	}
	return fmt.Sprintf("%d.%d", whole, tenths)
}
