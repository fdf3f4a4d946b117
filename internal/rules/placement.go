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
	"github.com/sapcc/vdu-placement-engine/internal/catalog"
	"github.com/sapcc/vdu-placement-engine/internal/core"
)

// EvaluatePlacement runs M1-M4 (§4.4). These are feasibility pre-checks run
// before the PlacementPlanner ever attempts an assignment: they confirm
// that a valid placement is structurally possible (enough sockets exist,
// the required pod kinds are present, pairings are well-formed), not that
// one has been found. The planner (internal/planner) is what actually
// assigns pods to sockets and enforces these constraints concretely; a
// feasibility pass here that reports no violations is necessary but not
// sufficient for the planner to succeed (it may still fail with
// PLACEMENT_INFEASIBLE, tracked as a Placement violation of its own kind).
func EvaluatePlacement(cat *catalog.RuleCatalog, workload core.ResolvedWorkload, totalSockets int) core.ViolationSet {
	var violations core.ViolationSet

	evaluateM1(cat, workload, &violations)
	evaluateM2(workload, totalSockets, &violations)
	evaluateM3(workload, &violations)
	evaluateM4(workload, totalSockets, &violations)

	return violations
}

// M1: every mandatory PodKind (from the catalog) must appear in the
// resolved workload.
func evaluateM1(cat *catalog.RuleCatalog, workload core.ResolvedWorkload, violations *core.ViolationSet) {
	for _, kind := range cat.MandatoryPods(workload.Operator) {
		if !workload.HasKind(kind) {
			violations.Addf(core.RuleM1, "mandatory pod kind %s is missing from the resolved workload", kind)
		}
	}
}

// M2: when in_service_upgrade is set, DPP instances must be able to occupy
// pairwise-distinct sockets; requires at least as many sockets in total as
// there are DPP instances, and at least 2 sockets overall.
func evaluateM2(workload core.ResolvedWorkload, totalSockets int, violations *core.ViolationSet) {
	if !workload.FeatureFlags.InServiceUpgrade {
		return
	}
	dpps := workload.InstancesOfKind(core.PodDPP)
	if totalSockets < 2 {
		violations.Addf(core.RuleM2, "in_service_upgrade requires at least 2 sockets for DPP anti-affinity, found %d", totalSockets)
		return
	}
	if len(dpps) > totalSockets {
		violations.Addf(core.RuleM2, "in_service_upgrade requires %d distinct sockets for %d DPP instances, found %d", len(dpps), len(dpps), totalSockets)
	}
}

// M3: when vdu_ru_switch_connection is set, each RMP instance must be
// pinnable to the socket of its paired DPP instance. Pairing is by replica
// index: RMP replica i pairs with DPP replica i. The resolver
// (internal/resolver, pairRMPWithDPP) stamps both halves of each pair with a
// shared co-location tag, and the planner's co-location pass is what
// actually places the pair on one socket together; this evaluator is only a
// feasibility pre-check confirming the pairing is well-formed (equal
// cardinality, so every RMP has exactly one DPP counterpart) before the
// planner ever runs.
func evaluateM3(workload core.ResolvedWorkload, violations *core.ViolationSet) {
	if !workload.FeatureFlags.VDURUSwitchConnection {
		return
	}
	rmps := workload.InstancesOfKind(core.PodRMP)
	dpps := workload.InstancesOfKind(core.PodDPP)
	if len(rmps) != len(dpps) {
		violations.Addf(core.RuleM3, "vdu_ru_switch_connection requires one RMP per DPP instance, found %d RMP and %d DPP", len(rmps), len(dpps))
	}
}

// M4: when ha_enabled is set, CMP instances must be able to occupy
// pairwise-distinct sockets; requires at least as many sockets in total as
// there are CMP instances, and at least 2 sockets overall.
func evaluateM4(workload core.ResolvedWorkload, totalSockets int, violations *core.ViolationSet) {
	if !workload.FeatureFlags.HAEnabled {
		return
	}
	cmps := workload.InstancesOfKind(core.PodCMP)
	if totalSockets < 2 {
		violations.Addf(core.RuleM4, "ha_enabled requires at least 2 sockets for CMP anti-affinity, found %d", totalSockets)
		return
	}
	if len(cmps) > totalSockets {
		violations.Addf(core.RuleM4, "ha_enabled requires %d distinct sockets for %d CMP instances, found %d", len(cmps), len(cmps), totalSockets)
	}
}
