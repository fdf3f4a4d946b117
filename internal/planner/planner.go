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

// Package planner implements PlacementPlanner (§4.7): it assigns every
// PodInstance in a ResolvedWorkload to a SocketSlot, honoring socket
// affinity, co-location (atomic, same-socket) and anti-affinity
// (pairwise-distinct-socket) constraints, and capacity. The evaluators in
// internal/rules only check that a placement is structurally possible; this
// package is what actually finds one, or reports PLACEMENT_INFEASIBLE
// naming the pod (or co-location group) and its vcore demand. The message
// lists capacity, socket affinity and anti-affinity together; it does not
// say which of them excluded each socket.
//
// A configured Strategy (first-fit, best-fit, worst-fit, or the default
// balanced) only ever changes which already-capacity-feasible slot gets
// picked for a pod — it never changes whether a slot is feasible in the
// first place, since first-fit considers exactly the same filtered
// candidate set as every other strategy and is maximally permissive within
// it. So a pod that first-fit cannot place cannot be rescued by retrying
// with a different strategy; PLACEMENT_INFEASIBLE is reported as soon as
// the filtered candidate set for a pod (or co-location group) is empty.
package planner

import (
	"sort"

	"github.com/sapcc/vdu-placement-engine/internal/core"
)

type slotState struct {
	slot      core.SocketSlot
	remaining core.VCores
}

// unit is one atomic thing the planner places: either a single PodInstance,
// or every instance sharing a non-empty CoLocationTag, which must land on
// exactly one socket together. The resolver uses CoLocationTag for two
// distinct purposes that the planner treats identically: the catalog's
// DirectX2 group (O4) and, per replica index, an RMP/DPP pair under
// vdu_ru_switch_connection (M3) — see internal/resolver's pairRMPWithDPP.
type unit struct {
	instances      []core.PodInstance
	totalVCores    core.VCores
	socketAffinity *int
	antiAffinityTags []string // one per instance, parallel to instances; "" if none
}

// Plan runs the planner over workload using the given slot table and
// strategy, returning the resulting PlacementPlan (always non-nil, possibly
// partial) and any PLACEMENT_INFEASIBLE violations encountered.
func Plan(workload core.ResolvedWorkload, slots []core.SocketSlot, strategy Strategy) (*core.PlacementPlan, core.ViolationSet) {
	if !strategy.Valid() {
		strategy = Balanced
	}

	ordered := append([]core.SocketSlot(nil), slots...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	bySlot := make(map[core.SlotKey]*slotState, len(ordered))
	var states []*slotState
	for _, s := range ordered {
		st := &slotState{slot: s, remaining: s.VCoresAvailable}
		bySlot[s.Key()] = st
		states = append(states, st)
	}

	antiAffinityOccupants := make(map[string]map[core.SlotKey]bool)

	plan := &core.PlacementPlan{RemainingBySlot: make(map[core.SlotKey]core.VCores)}
	var violations core.ViolationSet

	for _, u := range buildUnits(workload) {
		candidates := filterCandidates(u, ordered, bySlot, antiAffinityOccupants)
		if len(candidates) == 0 {
			violations.Addf(core.RulePlacementInfeasible, "%s: no socket has enough capacity (%s vcores) satisfying its socket-affinity and anti-affinity constraints", unitLabel(u), u.totalVCores)
			continue
		}

		chosen := strategy.pick(candidates, bySlot, u.totalVCores, meanUtilization(states))
		st := bySlot[chosen]
		st.remaining = st.remaining.Sub(u.totalVCores)

		for i, inst := range u.instances {
			plan.Assignments = append(plan.Assignments, core.PlacementAssignment{
				Instance:       inst,
				Slot:           chosen,
				RemainingOnSlot: st.remaining,
			})
			if tag := u.antiAffinityTags[i]; tag != "" {
				if antiAffinityOccupants[tag] == nil {
					antiAffinityOccupants[tag] = make(map[core.SlotKey]bool)
				}
				antiAffinityOccupants[tag][chosen] = true
			}
		}
	}

	for key, st := range bySlot {
		plan.RemainingBySlot[key] = st.remaining
	}

	return plan, violations
}

// buildUnits groups workload.Instances into placement units in resolution
// order (§9: deterministic iteration, no unordered containers). The first
// instance seen for a given co-location tag pulls in every member of that
// group as a single atomic unit; later instances with the same tag are
// skipped since they were already absorbed into that unit.
func buildUnits(workload core.ResolvedWorkload) []unit {
	var units []unit
	seenTags := make(map[string]bool)

	for _, inst := range workload.Instances {
		if inst.CoLocationTag != "" {
			if seenTags[inst.CoLocationTag] {
				continue
			}
			seenTags[inst.CoLocationTag] = true
			members := workload.InstancesInCoLocationGroup(inst.CoLocationTag)
			units = append(units, newUnit(members))
			continue
		}
		units = append(units, newUnit([]core.PodInstance{inst}))
	}

	return units
}

func newUnit(instances []core.PodInstance) unit {
	u := unit{instances: instances}
	for _, inst := range instances {
		u.totalVCores = u.totalVCores.Add(inst.VCores)
		u.antiAffinityTags = append(u.antiAffinityTags, inst.AntiAffinityTag)
		if inst.SocketAffinity != nil {
			u.socketAffinity = inst.SocketAffinity
		}
	}
	return u
}

// filterCandidates returns every slot key (in ascending tie-break order)
// that can hold u as a whole: enough remaining capacity, matching socket
// affinity if any member requires one, and no anti-affinity conflict for
// any member's tag.
func filterCandidates(u unit, ordered []core.SocketSlot, bySlot map[core.SlotKey]*slotState, antiAffinityOccupants map[string]map[core.SlotKey]bool) []core.SlotKey {
	var out []core.SlotKey
	for _, slot := range ordered {
		key := slot.Key()
		st := bySlot[key]
		if st.remaining < u.totalVCores {
			continue
		}
		if u.socketAffinity != nil && slot.SocketIndex != *u.socketAffinity {
			continue
		}
		conflict := false
		for _, tag := range u.antiAffinityTags {
			if tag == "" {
				continue
			}
			if antiAffinityOccupants[tag][key] {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		out = append(out, key)
	}
	return out
}

func unitLabel(u unit) string {
	if len(u.instances) == 1 {
		return string(u.instances[0].ID)
	}
	label := "co-location group ["
	for i, inst := range u.instances {
		if i > 0 {
			label += ", "
		}
		label += string(inst.ID)
	}
	return label + "]"
}
