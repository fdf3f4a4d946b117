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

package resolver

import (
	"fmt"

	"github.com/sapcc/go-bits/errext"

	"github.com/sapcc/vdu-placement-engine/internal/catalog"
	"github.com/sapcc/vdu-placement-engine/internal/core"
)

// Resolver applies the RuleCatalog to a DeploymentInput to produce a
// ResolvedWorkload (§4.2). It holds no state of its own beyond the
// (read-only) catalog and dimensioning lookup it was built with, so one
// Resolver can safely serve concurrent requests (§5).
type Resolver struct {
	catalog      *catalog.RuleCatalog
	dimensioning DimensioningLookup
}

// New builds a Resolver. dimensioning may be nil if the caller knows no
// operator-mandatory or flavor-implicit pods will ever need injecting for
// their catalogs (injection then fails closed with a V3-style error — see
// Resolve).
func New(cat *catalog.RuleCatalog, dimensioning DimensioningLookup) *Resolver {
	return &Resolver{catalog: cat, dimensioning: dimensioning}
}

// Dimensioning returns the DimensioningLookup this Resolver was built with
// (possibly nil), so callers such as the engine's V3 pre-pass can probe it
// for optional capabilities beyond the DimensioningLookup interface.
func (r *Resolver) Dimensioning() DimensioningLookup {
	return r.dimensioning
}

// Resolve runs the fixed five-step resolution order from §4.2:
//  1. start from the explicit pod_requirements
//  2. add operator-mandatory pod kinds absent from the explicit set
//  3. add flavor-implicit pod kinds
//  4. if vcu_deployment_required, add a vCU pod at the flavor-specific cost
//  5. tag every pod with its anti-affinity and co-location groups, plus
//     (when vdu_ru_switch_connection is set) a per-replica RMP/DPP
//     co-location tag so the planner pins each RMP to its paired DPP's
//     socket (M3, §4.4)
//
// Duplicates (a kind present both explicitly and as an injection candidate)
// keep the explicit record; the explicit record is authoritative for
// vcores and quantity, but the origin tag on non-duplicate injections is
// retained for diagnostics.
//
// Errors here are dimensioning-lookup failures (an injected kind has no
// known vcore cost for this operator/flavor combination); they are
// V3-category by convention (§4.1: "unknown ... are reported as V3
// violations") and are meant to be folded into the caller's V3 violation
// list, not treated as a distinct error channel.
func (r *Resolver) Resolve(input core.DeploymentInput) (core.ResolvedWorkload, errext.ErrorSet) {
	var errs errext.ErrorSet

	present := make(map[core.PodKind]bool, len(input.PodRequirements))
	requirements := make([]core.ResolvedRequirement, 0, len(input.PodRequirements))
	for _, req := range input.PodRequirements {
		requirements = append(requirements, core.ResolvedRequirement{
			PodRequirement: req,
			Origin:         core.OriginExplicit,
		})
		present[req.Kind] = true
	}

	addInjected := func(kind core.PodKind, origin core.PodOrigin) {
		if present[kind] {
			return // explicit record wins, per §4.2 resolver precedence
		}
		specs, err := r.podsFor(input.Operator, input.VDUFlavorName)
		if err != nil {
			errs.Addf("cannot inject mandatory/implicit pod %s: %w", kind, err)
			return
		}
		vcores, ok := vcoresFor(specs, kind)
		if !ok {
			errs.Addf("dimensioning data for operator %q flavor %q has no entry for pod kind %s", input.Operator, input.VDUFlavorName, kind)
			return
		}
		requirements = append(requirements, core.ResolvedRequirement{
			PodRequirement: core.PodRequirement{Kind: kind, VCores: vcores, Quantity: 1},
			Origin:         origin,
		})
		present[kind] = true
	}

	// step 2: operator-mandatory pods
	for _, kind := range r.catalog.MandatoryPods(input.Operator) {
		addInjected(kind, core.OriginOperatorMandated)
	}

	// step 3: flavor-implicit pods
	for _, kind := range r.catalog.ImplicitPodsForFlavor(input.VDUFlavorName) {
		addInjected(kind, core.OriginFlavorImplicit)
	}

	// step 4: flag-conditional vCU
	if input.FeatureFlags.VCUDeploymentRequired && !present[core.PodVCU] {
		vcores, ok := r.catalog.VCUVCores(input.VDUFlavorName)
		if !ok {
			errs.Addf("vcu_deployment_required is set but flavor %q has no configured vCU vcore cost", input.VDUFlavorName)
		} else {
			requirements = append(requirements, core.ResolvedRequirement{
				PodRequirement: core.PodRequirement{Kind: core.PodVCU, VCores: vcores, Quantity: 1},
				Origin:         core.OriginFlagConditional,
			})
			present[core.PodVCU] = true
		}
	}

	// step 5: tag groups and expand to instances
	coLocation := r.catalog.CoLocationGroups(input.FeatureFlags, input.Operator)
	antiAffinity := r.catalog.AntiAffinityGroups(input.FeatureFlags)

	for i := range requirements {
		requirements[i].CoLocationTag = groupTagFor(requirements[i].Kind, coLocation)
		requirements[i].AntiAffinityTag = groupTagFor(requirements[i].Kind, antiAffinity)
	}

	workload := core.ResolvedWorkload{
		DeploymentInput: input,
		Requirements:    requirements,
	}
	workload.Instances = expandInstances(requirements)
	if input.FeatureFlags.VDURUSwitchConnection {
		pairRMPWithDPP(workload.Instances)
	}

	return workload, errs
}

// pairRMPWithDPP stamps each RMP instance and the DPP instance sharing its
// ReplicaIndex with the same co-location tag, so the planner's co-location
// pass (which always places every instance sharing a tag on one socket,
// see internal/planner) pins RMP replica i to the socket of DPP replica i.
// This is how M3 (§4.4: "each RMP instance must be pinnable to the socket of
// its paired DPP instance") is actually enforced; evaluateM3 itself only
// confirms the pairing is well-formed (equal cardinality) before the planner
// runs. A replica index with no DPP counterpart is left untagged; M3 already
// rejects a cardinality mismatch before the resolver's output ever reaches
// the planner.
func pairRMPWithDPP(instances []core.PodInstance) {
	dppIndexByReplica := make(map[int]int, len(instances))
	for i, inst := range instances {
		if inst.Kind == core.PodDPP {
			dppIndexByReplica[inst.ReplicaIndex] = i
		}
	}
	for i, inst := range instances {
		if inst.Kind != core.PodRMP {
			continue
		}
		dppIdx, ok := dppIndexByReplica[inst.ReplicaIndex]
		if !ok {
			continue
		}
		tag := fmt.Sprintf("rmp-dpp-pair-%d", inst.ReplicaIndex)
		instances[i].CoLocationTag = tag
		instances[dppIdx].CoLocationTag = tag
	}
}

func (r *Resolver) podsFor(operator core.Operator, flavor string) ([]PodSpec, error) {
	if r.dimensioning == nil {
		return nil, errDimensioningUnconfigured
	}
	return r.dimensioning.PodsFor(operator, flavor)
}

func groupTagFor(kind core.PodKind, groups map[string][]core.PodKind) string {
	for tag, kinds := range groups {
		for _, k := range kinds {
			if k == kind {
				return tag
			}
		}
	}
	return ""
}

// expandInstances materializes each ResolvedRequirement's Quantity into
// individual PodInstances, in resolution order, so the planner can place
// each replica independently.
func expandInstances(requirements []core.ResolvedRequirement) []core.PodInstance {
	var instances []core.PodInstance
	for _, req := range requirements {
		for replica := 0; replica < req.Quantity; replica++ {
			instances = append(instances, core.PodInstance{
				ID:              core.InstanceID(req.Kind, replica),
				Kind:            req.Kind,
				VCores:          req.VCores,
				Origin:          req.Origin,
				ReplicaIndex:    replica,
				SocketAffinity:  req.SocketAffinity,
				AntiAffinityTag: req.AntiAffinityTag,
				CoLocationTag:   req.CoLocationTag,
			})
		}
	}
	return instances
}
