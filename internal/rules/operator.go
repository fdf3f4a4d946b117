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
	"context"

	"github.com/sapcc/vdu-placement-engine/internal/catalog"
	"github.com/sapcc/vdu-placement-engine/internal/core"
)

// EvaluateOperator runs O1-O4 (§4.5). Like M2-M4, O4 is a feasibility
// pre-check (is there at least one socket with enough room for the whole
// DirectX2 group?), not a post-placement confirmation; the planner
// (internal/planner) performs the atomic co-location placement and is the
// final authority on whether it actually succeeds.
func EvaluateOperator(ctx context.Context, cat *catalog.RuleCatalog, workload core.ResolvedWorkload, slots []core.SocketSlot) core.ViolationSet {
	var violations core.ViolationSet

	evaluateO1(cat, workload, &violations)
	evaluateO2(cat, workload, &violations)
	evaluateO3(cat, workload, &violations)
	evaluateO4(cat, workload, slots, &violations)
	evaluatePolicy(ctx, cat, workload, &violations)

	return violations
}

// O1: operator-mandatory pods present (overlaps with M1, but keyed
// specifically on the operator's additions to the base mandatory set, e.g.
// VOS requires IPP).
func evaluateO1(cat *catalog.RuleCatalog, workload core.ResolvedWorkload, violations *core.ViolationSet) {
	for _, kind := range cat.MandatoryPods(workload.Operator) {
		isBaseKind := false
		for _, base := range core.MandatoryPodKinds {
			if base == kind {
				isBaseKind = true // still checked by M1; skip double-reporting the base set here
				break
			}
		}
		if isBaseKind {
			continue
		}
		if !workload.HasKind(kind) {
			violations.Addf(core.RuleO1, "operator %s requires mandatory pod kind %s, which is missing", workload.Operator, kind)
		}
	}
}

// O2: if vcu_deployment_required, a vCU pod must be present with the
// catalog-specified vcore cost for this flavor.
func evaluateO2(cat *catalog.RuleCatalog, workload core.ResolvedWorkload, violations *core.ViolationSet) {
	if !workload.FeatureFlags.VCUDeploymentRequired {
		return
	}
	instances := workload.InstancesOfKind(core.PodVCU)
	if len(instances) == 0 {
		violations.Addf(core.RuleO2, "vcu_deployment_required is set but no vCU pod is present in the resolved workload")
		return
	}
	expected, ok := cat.VCUVCores(workload.VDUFlavorName)
	if !ok {
		violations.Addf(core.RuleO2, "flavor %q has no configured vCU vcore cost", workload.VDUFlavorName)
		return
	}
	for _, inst := range instances {
		if inst.VCores != expected {
			violations.Addf(core.RuleO2, "vCU pod %s has %s vcores, catalog specifies %s vcores for flavor %q", inst.ID, inst.VCores, expected, workload.VDUFlavorName)
		}
	}
}

// O3: for designated "special" vDU flavors, IIP must be present (the
// resolver injects it; this confirms the injection actually landed).
func evaluateO3(cat *catalog.RuleCatalog, workload core.ResolvedWorkload, violations *core.ViolationSet) {
	if !cat.IsSpecialFlavor(workload.VDUFlavorName) {
		return
	}
	if !workload.HasKind(core.PodIIP) {
		violations.Addf(core.RuleO3, "flavor %q is a special flavor requiring IIP, which is missing", workload.VDUFlavorName)
	}
}

// O4: when directx2_required, the DirectX2 co-location group must have at
// least one socket able to hold every member simultaneously.
func evaluateO4(cat *catalog.RuleCatalog, workload core.ResolvedWorkload, slots []core.SocketSlot, violations *core.ViolationSet) {
	if !workload.FeatureFlags.DirectX2Required {
		return
	}
	groups := cat.CoLocationGroups(workload.FeatureFlags, workload.Operator)
	kinds, ok := groups["directx2"]
	if !ok || len(kinds) == 0 {
		violations.Addf(core.RuleO4, "directx2_required is set but the catalog defines no DirectX2 co-location group")
		return
	}

	total := core.VCores(0)
	memberCount := 0
	for _, kind := range kinds {
		for _, inst := range workload.InstancesOfKind(kind) {
			total = total.Add(inst.VCores)
			memberCount++
		}
	}
	if memberCount == 0 {
		return // nothing from the DirectX2 group is actually present; nothing to co-locate
	}

	fits := false
	for _, slot := range slots {
		if slot.VCoresAvailable >= total {
			fits = true
			break
		}
	}
	if !fits {
		violations.Addf(core.RuleO4, "no single socket has enough capacity (%s vcores needed) to co-locate the DirectX2 group", total)
	}
}

// evaluatePolicy runs the catalog's optional Rego policy hook
// (SPEC_FULL.md DOMAIN STACK). It is additive to O1-O4: catalogs without a
// policy module never call this.
func evaluatePolicy(ctx context.Context, cat *catalog.RuleCatalog, workload core.ResolvedWorkload, violations *core.ViolationSet) {
	if !cat.HasPolicy() {
		return
	}
	allowed, err := cat.EvaluatePolicy(ctx, map[string]any{
		"operator": string(workload.Operator),
		"flavor":   workload.VDUFlavorName,
	})
	if err != nil {
		violations.Addf(core.RuleO1, "policy evaluation error: %s", err.Error())
		return
	}
	if !allowed {
		violations.Addf(core.RuleO1, "catalog policy denies operator %s deploying flavor %q", workload.Operator, workload.VDUFlavorName)
	}
}
