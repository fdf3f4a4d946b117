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

import (
	"testing"

	"github.com/sapcc/vdu-placement-engine/internal/core"
)

func twoSocketSlots(perSocket int64) []core.SocketSlot {
	return []core.SocketSlot{
		core.NewSocketSlot(0, 0, core.VCoresFromWhole(perSocket), 0, 0),
		core.NewSocketSlot(0, 1, core.VCoresFromWhole(perSocket), 0, 0),
	}
}

func TestPlanPlacesCoLocationGroupAtomically(t *testing.T) {
	workload := core.ResolvedWorkload{
		Instances: []core.PodInstance{
			{ID: "CSP#0", Kind: core.PodCSP, VCores: core.VCoresFromWhole(3), CoLocationTag: "directx2"},
			{ID: "UPP#0", Kind: core.PodUPP, VCores: core.VCoresFromWhole(3), CoLocationTag: "directx2"},
		},
	}
	plan, violations := Plan(workload, twoSocketSlots(8), Balanced)
	if !violations.IsEmpty() {
		t.Fatalf("unexpected violations: %v", violations)
	}

	cspSlot, ok := plan.SlotOf("CSP#0")
	if !ok {
		t.Fatal("expected CSP#0 to be placed")
	}
	uppSlot, ok := plan.SlotOf("UPP#0")
	if !ok {
		t.Fatal("expected UPP#0 to be placed")
	}
	if cspSlot != uppSlot {
		t.Errorf("expected co-located instances on the same socket, got %v and %v", cspSlot, uppSlot)
	}
}

// TestPlanPinsRMPToPairedDPPSocket exercises M3 (§4.4) at the planner level:
// given the per-replica co-location tags internal/resolver's pairRMPWithDPP
// stamps onto RMP/DPP pairs under vdu_ru_switch_connection, each RMP must
// land on the same socket as its paired DPP, and distinct pairs must not be
// forced together.
func TestPlanPinsRMPToPairedDPPSocket(t *testing.T) {
	workload := core.ResolvedWorkload{
		Instances: []core.PodInstance{
			{ID: "DPP#0", Kind: core.PodDPP, VCores: core.VCoresFromWhole(2), ReplicaIndex: 0, CoLocationTag: "rmp-dpp-pair-0"},
			{ID: "RMP#0", Kind: core.PodRMP, VCores: core.VCoresFromWhole(2), ReplicaIndex: 0, CoLocationTag: "rmp-dpp-pair-0"},
			{ID: "DPP#1", Kind: core.PodDPP, VCores: core.VCoresFromWhole(2), ReplicaIndex: 1, CoLocationTag: "rmp-dpp-pair-1", AntiAffinityTag: "dpp-in-service-upgrade"},
			{ID: "RMP#1", Kind: core.PodRMP, VCores: core.VCoresFromWhole(2), ReplicaIndex: 1, CoLocationTag: "rmp-dpp-pair-1"},
		},
	}
	plan, violations := Plan(workload, twoSocketSlots(8), Balanced)
	if !violations.IsEmpty() {
		t.Fatalf("unexpected violations: %v", violations)
	}

	dpp0, _ := plan.SlotOf("DPP#0")
	rmp0, _ := plan.SlotOf("RMP#0")
	if dpp0 != rmp0 {
		t.Errorf("expected RMP#0 to land on DPP#0's socket, got %v and %v", rmp0, dpp0)
	}

	dpp1, _ := plan.SlotOf("DPP#1")
	rmp1, _ := plan.SlotOf("RMP#1")
	if dpp1 != rmp1 {
		t.Errorf("expected RMP#1 to land on DPP#1's socket, got %v and %v", rmp1, dpp1)
	}
}

func TestPlanRespectsAntiAffinityAcrossDistinctSockets(t *testing.T) {
	workload := core.ResolvedWorkload{
		Instances: []core.PodInstance{
			{ID: "DPP#0", Kind: core.PodDPP, VCores: core.VCoresFromWhole(2), AntiAffinityTag: "dpp-in-service-upgrade"},
			{ID: "DPP#1", Kind: core.PodDPP, VCores: core.VCoresFromWhole(2), AntiAffinityTag: "dpp-in-service-upgrade"},
		},
	}
	plan, violations := Plan(workload, twoSocketSlots(8), Balanced)
	if !violations.IsEmpty() {
		t.Fatalf("unexpected violations: %v", violations)
	}

	slot0, _ := plan.SlotOf("DPP#0")
	slot1, _ := plan.SlotOf("DPP#1")
	if slot0 == slot1 {
		t.Error("expected anti-affinity-tagged instances to land on distinct sockets")
	}
}

func TestPlanReportsInfeasibleWhenAntiAffinityCannotBeSatisfied(t *testing.T) {
	workload := core.ResolvedWorkload{
		Instances: []core.PodInstance{
			{ID: "DPP#0", Kind: core.PodDPP, VCores: core.VCoresFromWhole(2), AntiAffinityTag: "dpp-in-service-upgrade"},
			{ID: "DPP#1", Kind: core.PodDPP, VCores: core.VCoresFromWhole(2), AntiAffinityTag: "dpp-in-service-upgrade"},
		},
	}
	// only one socket: the 2nd DPP cannot find a distinct socket
	_, violations := Plan(workload, []core.SocketSlot{core.NewSocketSlot(0, 0, core.VCoresFromWhole(8), 0, 0)}, Balanced)
	if violations.IsEmpty() {
		t.Fatal("expected a PLACEMENT_INFEASIBLE violation")
	}
	if violations[0].RuleID != core.RulePlacementInfeasible {
		t.Errorf("expected RulePlacementInfeasible, got %s", violations[0].RuleID)
	}
}

func TestPlanHonorsSocketAffinity(t *testing.T) {
	pinnedSocket := 1
	workload := core.ResolvedWorkload{
		Instances: []core.PodInstance{
			{ID: "RMP#0", Kind: core.PodRMP, VCores: core.VCoresFromWhole(2), SocketAffinity: &pinnedSocket},
		},
	}
	plan, violations := Plan(workload, twoSocketSlots(8), FirstFit)
	if !violations.IsEmpty() {
		t.Fatalf("unexpected violations: %v", violations)
	}
	slot, ok := plan.SlotOf("RMP#0")
	if !ok {
		t.Fatal("expected RMP#0 to be placed")
	}
	if slot.SocketIndex != 1 {
		t.Errorf("expected socket-affinity to pin RMP#0 to socket 1, got %d", slot.SocketIndex)
	}
}

func TestPlanFirstFitPicksLowestTieBreak(t *testing.T) {
	workload := core.ResolvedWorkload{
		Instances: []core.PodInstance{
			{ID: "DMP#0", Kind: core.PodDMP, VCores: core.VCoresFromWhole(2)},
		},
	}
	plan, violations := Plan(workload, twoSocketSlots(8), FirstFit)
	if !violations.IsEmpty() {
		t.Fatalf("unexpected violations: %v", violations)
	}
	slot, _ := plan.SlotOf("DMP#0")
	if slot.ServerIndex != 0 || slot.SocketIndex != 0 {
		t.Errorf("expected first-fit to choose (0,0), got %v", slot)
	}
}

func TestPlanBestFitPrefersTightestRemainingCapacity(t *testing.T) {
	slots := []core.SocketSlot{
		core.NewSocketSlot(0, 0, core.VCoresFromWhole(10), 0, 0),
		core.NewSocketSlot(0, 1, core.VCoresFromWhole(4), 0, 0),
	}
	workload := core.ResolvedWorkload{
		Instances: []core.PodInstance{
			{ID: "DMP#0", Kind: core.PodDMP, VCores: core.VCoresFromWhole(3)},
		},
	}
	plan, violations := Plan(workload, slots, BestFit)
	if !violations.IsEmpty() {
		t.Fatalf("unexpected violations: %v", violations)
	}
	slot, _ := plan.SlotOf("DMP#0")
	if slot.SocketIndex != 1 {
		t.Errorf("expected best-fit to choose the tighter-fitting socket 1 (remainder 1), got socket %d", slot.SocketIndex)
	}
}

func TestPlanWorstFitPrefersMostRemainingCapacity(t *testing.T) {
	slots := []core.SocketSlot{
		core.NewSocketSlot(0, 0, core.VCoresFromWhole(10), 0, 0),
		core.NewSocketSlot(0, 1, core.VCoresFromWhole(4), 0, 0),
	}
	workload := core.ResolvedWorkload{
		Instances: []core.PodInstance{
			{ID: "DMP#0", Kind: core.PodDMP, VCores: core.VCoresFromWhole(3)},
		},
	}
	plan, violations := Plan(workload, slots, WorstFit)
	if !violations.IsEmpty() {
		t.Fatalf("unexpected violations: %v", violations)
	}
	slot, _ := plan.SlotOf("DMP#0")
	if slot.SocketIndex != 0 {
		t.Errorf("expected worst-fit to choose the more spacious socket 0 (remainder 7), got socket %d", slot.SocketIndex)
	}
}
