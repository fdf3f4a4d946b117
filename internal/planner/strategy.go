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

package planner

import "github.com/sapcc/vdu-placement-engine/internal/core"

// Strategy selects how the planner picks among several slots that all have
// enough room for the pod it is currently placing (§4.7).
type Strategy string

const (
	FirstFit Strategy = "first-fit"
	BestFit  Strategy = "best-fit"
	WorstFit Strategy = "worst-fit"
	// Balanced picks the candidate whose post-placement utilization lands
	// closest to the mean utilization across every slot, in the spirit of
	// the teacher's largest-remainder DistributeFairly: spread load evenly
	// rather than packing or spreading greedily. This is the default.
	Balanced Strategy = "balanced"
)

func (s Strategy) Valid() bool {
	switch s {
	case FirstFit, BestFit, WorstFit, Balanced:
		return true
	default:
		return false
	}
}

// pick selects one slot key out of candidates (already filtered for
// capacity, anti-affinity, and socket-affinity) according to s. candidates
// is assumed sorted by (server_index, socket_index), so returning the first
// element is always the correct tie-break.
func (s Strategy) pick(candidates []core.SlotKey, bySlot map[core.SlotKey]*slotState, demand core.VCores, meanUtilization float64) core.SlotKey {
	switch s {
	case FirstFit:
		return candidates[0]
	case BestFit:
		best := candidates[0]
		bestRemain := bySlot[best].remaining.Sub(demand)
		for _, key := range candidates[1:] {
			remain := bySlot[key].remaining.Sub(demand)
			if remain < bestRemain {
				best, bestRemain = key, remain
			}
		}
		return best
	case WorstFit:
		worst := candidates[0]
		worstRemain := bySlot[worst].remaining.Sub(demand)
		for _, key := range candidates[1:] {
			remain := bySlot[key].remaining.Sub(demand)
			if remain > worstRemain {
				worst, worstRemain = key, remain
			}
		}
		return worst
	default: // Balanced
		best := candidates[0]
		bestDelta := utilizationDelta(bySlot[best], demand, meanUtilization)
		for _, key := range candidates[1:] {
			delta := utilizationDelta(bySlot[key], demand, meanUtilization)
			if delta < bestDelta {
				best, bestDelta = key, delta
			}
		}
		return best
	}
}

func utilizationDelta(st *slotState, demand core.VCores, meanUtilization float64) float64 {
	afterUtil := st.slot.UtilizationPercent(st.remaining.Sub(demand))
	delta := afterUtil - meanUtilization
	if delta < 0 {
		delta = -delta
	}
	return delta
}

// meanUtilization averages UtilizationPercent across every tracked slot at
// its current (not post-placement) remaining capacity.
func meanUtilization(states []*slotState) float64 {
	if len(states) == 0 {
		return 0
	}
	sum := 0.0
	for _, st := range states {
		sum += st.slot.UtilizationPercent(st.remaining)
	}
	return sum / float64(len(states))
}
