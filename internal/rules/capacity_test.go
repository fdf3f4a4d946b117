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

package rules

import (
	"testing"

	"github.com/sapcc/vdu-placement-engine/internal/catalog"
	"github.com/sapcc/vdu-placement-engine/internal/core"
)

const capacityCatalogYAML = `
validation_rules:
  known_operators: [vos]
  known_pod_kinds: [DPP, DIP, RMP, CMP, DMP, PMP]
capacity_rules:
  caas_cores_per_socket:
    vos: 1
  shared_cores_per_socket:
    vos: 1
server_configurations:
  allowed_socket_counts: [1, 2]
`

func mustCapacityCatalog(t *testing.T) *catalog.RuleCatalog {
	t.Helper()
	cat, err := catalog.CompileRuleCatalog([]byte(capacityCatalogYAML))
	if err != nil {
		t.Fatalf("unexpected error compiling test catalog: %s", err.Error())
	}
	return cat
}

// TestSlotCapacityInvariant checks the property that every built SocketSlot
// has VCoresTotal == 2*pcores_per_socket (C2) and VCoresAvailable reflects
// the CaaS+shared deduction exactly.
func TestSlotCapacityInvariant(t *testing.T) {
	cat := mustCapacityCatalog(t)
	servers := []core.ServerConfiguration{{PCores: 16, Sockets: 2}}

	slots, violations := BuildSocketSlots(cat, core.OperatorVOS, servers)
	if !violations.IsEmpty() {
		t.Fatalf("unexpected C2/C3 violations: %v", violations)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots for a 2-socket server, got %d", len(slots))
	}
	for _, slot := range slots {
		if slot.VCoresTotal != core.VCoresFromWhole(16) {
			t.Errorf("expected VCoresTotal=16 (2*8 pcores/socket), got %s", slot.VCoresTotal)
		}
		// vos: caas=1, shared=1 -> 2*1 + 2*1 = 4 deducted
		if slot.VCoresAvailable != core.VCoresFromWhole(12) {
			t.Errorf("expected VCoresAvailable=12, got %s", slot.VCoresAvailable)
		}
	}
}

func TestBuildSocketSlotsRejectsUnevenSplit(t *testing.T) {
	cat := mustCapacityCatalog(t)
	servers := []core.ServerConfiguration{{PCores: 15, Sockets: 2}}

	_, violations := BuildSocketSlots(cat, core.OperatorVOS, servers)
	if violations.IsEmpty() {
		t.Fatal("expected a C2 violation for an odd pcores/sockets split")
	}
	if violations[0].RuleID != core.RuleC2 {
		t.Errorf("expected RuleC2, got %s", violations[0].RuleID)
	}
}

func demandWorkload(totalPerInstance core.VCores, quantity int) core.ResolvedWorkload {
	req := core.ResolvedRequirement{
		PodRequirement: core.PodRequirement{Kind: core.PodDPP, VCores: totalPerInstance, Quantity: quantity},
	}
	w := core.ResolvedWorkload{Requirements: []core.ResolvedRequirement{req}}
	return w
}

func TestEvaluateCapacityReportsC1OnOverflow(t *testing.T) {
	cat := mustCapacityCatalog(t)
	servers := []core.ServerConfiguration{{PCores: 4, Sockets: 1}} // 8 vcores total, minus 4 deducted = 4 available
	slots, prior := BuildSocketSlots(cat, core.OperatorVOS, servers)

	workload := demandWorkload(core.VCoresFromWhole(10), 1) // demand exceeds supply
	violations := EvaluateCapacity(workload, slots, prior)

	found := false
	for _, v := range violations {
		if v.RuleID == core.RuleC1 {
			found = true
		}
	}
	if !found {
		t.Error("expected a C1 violation when demand exceeds supply")
	}
}

func TestEvaluateCapacityPassesWhenSupplySufficient(t *testing.T) {
	cat := mustCapacityCatalog(t)
	servers := []core.ServerConfiguration{{PCores: 16, Sockets: 2}}
	slots, prior := BuildSocketSlots(cat, core.OperatorVOS, servers)

	workload := demandWorkload(core.VCoresFromWhole(2), 1)
	violations := EvaluateCapacity(workload, slots, prior)
	if !violations.IsEmpty() {
		t.Errorf("expected no violations, got %v", violations)
	}
}
