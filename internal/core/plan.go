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

// SlotKey identifies a SocketSlot by its (server, socket) coordinate,
// usable as a map key independent of the slot's capacity fields.
type SlotKey struct {
	ServerIndex int
	SocketIndex int
}

func (s SocketSlot) Key() SlotKey {
	return SlotKey{ServerIndex: s.ServerIndex, SocketIndex: s.SocketIndex}
}

// PlacementAssignment records where one PodInstance landed and the slot's
// remaining vcores immediately after that placement.
type PlacementAssignment struct {
	Instance          PodInstance
	Slot              SlotKey
	RemainingOnSlot    VCores
}

// PlacementPlan maps every pod instance in a ResolvedWorkload to a
// SocketSlot (§3).
//
// Invariant: for every slot, the sum of assigned pod vcores does not exceed
// slot.VCoresAvailable (checked incrementally as assignments are made, see
// internal/planner).
type PlacementPlan struct {
	Assignments []PlacementAssignment
	// RemainingBySlot is the final remaining-vcores snapshot per slot, used
	// by ResponseFormatter's utilization table.
	RemainingBySlot map[SlotKey]VCores
}

// AssignmentFor returns the assignment for a given instance id, if present.
func (p PlacementPlan) AssignmentFor(id PodInstanceID) (PlacementAssignment, bool) {
	for _, a := range p.Assignments {
		if a.Instance.ID == id {
			return a, true
		}
	}
	return PlacementAssignment{}, false
}

// SlotOf returns the slot a given instance landed on, if placed.
func (p PlacementPlan) SlotOf(id PodInstanceID) (SlotKey, bool) {
	a, ok := p.AssignmentFor(id)
	return a.Slot, ok
}
