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

// Package rules implements the four evaluator families from §4.3-§4.6:
// CapacityEvaluator (C1-C4), PlacementEvaluator (M1-M4), OperatorEvaluator
// (O1-O4), and InputValidator (V1-V3). Every evaluator function collects all
// violations it finds before returning (§4.8) rather than stopping at the
// first one; it is the caller (internal/engine) that stops advancing stages
// once any violation has been recorded.
package rules

import (
	"github.com/sapcc/vdu-placement-engine/internal/catalog"
	"github.com/sapcc/vdu-placement-engine/internal/core"
)

// BuildSocketSlots computes the full SocketSlot table for a set of servers
// under a given operator's CaaS/shared-core deductions (C2-C4), plus any
// violations found along the way: C2 for an illegal server shape, and C3 for
// a socket whose combined CaaS and shared deductions exceed its capacity (no
// separate C4 violation is emitted). Downstream evaluators and the planner
// both consume the returned slots; an evaluation that reports C2/C3
// violations still gets a best-effort slot table back (the offending server
// or socket is simply omitted) so the caller can decide whether to keep
// going within the same stage.
func BuildSocketSlots(cat *catalog.RuleCatalog, operator core.Operator, servers []core.ServerConfiguration) ([]core.SocketSlot, core.ViolationSet) {
	var violations core.ViolationSet
	var slots []core.SocketSlot

	caas, caasKnown := cat.CaasCoresPerSocket(operator)
	shared, sharedKnown := cat.SharedCoresPerSocket(operator)
	// unknown operator is reported by InputValidator (V3); here we simply
	// assume zero deductions so the slot table still makes sense
	// for the Σserver.vcores half of C1.
	if !caasKnown {
		caas = 0
	}
	if !sharedKnown {
		shared = 0
	}
	caasVCores := core.VCoresFromWhole(2 * caas)
	sharedVCores := core.VCoresFromWhole(2 * shared)

	for serverIdx, srv := range servers {
		if srv.PCores < 1 {
			violations.Addf(core.RuleC2, "server %d has pcores=%d, must be >= 1", serverIdx, srv.PCores)
			continue
		}
		if srv.Sockets < 1 {
			violations.Addf(core.RuleC2, "server %d has sockets=%d, must be >= 1", serverIdx, srv.Sockets)
			continue
		}
		if srv.PCores%int64(srv.Sockets) != 0 {
			violations.Addf(core.RuleC2, "server %d has %d pcores across %d sockets, which does not divide evenly", serverIdx, srv.PCores, srv.Sockets)
			continue
		}

		totalPerSocket := core.VCoresFromWhole(2 * srv.PCores / int64(srv.Sockets))
		for socketIdx := 0; socketIdx < srv.Sockets; socketIdx++ {
			slot := core.NewSocketSlot(serverIdx, socketIdx, totalPerSocket, caasVCores, sharedVCores)
			if slot.VCoresAvailable < 0 {
				violations.Addf(core.RuleC3, "server %d socket %d: CaaS+shared deductions (%s) exceed total capacity (%s)",
					serverIdx, socketIdx, caasVCores.Add(sharedVCores), totalPerSocket)
				continue
			}
			slots = append(slots, slot)
		}
	}

	return slots, violations
}

// EvaluateCapacity runs C1 (total demand vs. total supply) given the
// already-built slot table, plus the C2/C3 violations recorded by
// BuildSocketSlots. Callers should run BuildSocketSlots first and pass its
// ViolationSet in via priorViolations so C1 is reported alongside them
// within the same stage (§4.8).
func EvaluateCapacity(workload core.ResolvedWorkload, slots []core.SocketSlot, priorViolations core.ViolationSet) core.ViolationSet {
	violations := priorViolations

	demand := workload.TotalDemand()
	supply := core.VCores(0)
	for _, slot := range slots {
		supply = supply.Add(slot.VCoresAvailable)
	}

	if demand > supply {
		violations.Addf(core.RuleC1, "total demand %s vcores exceeds available supply %s vcores (deficit %s)",
			demand, supply, demand.Sub(supply))
	}

	return violations
}
