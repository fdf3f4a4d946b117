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

// Package engine implements the ValidationOrchestrator (§4.8): a fixed
// state machine that drives a DeploymentInput through InputValidator's
// pre-pass, WorkloadResolver, the three evaluator families, InputValidator's
// final pass, and (on success) the PlacementPlanner, stopping as soon as any
// stage records a violation.
package engine

import (
	"context"

	"github.com/sapcc/vdu-placement-engine/internal/catalog"
	"github.com/sapcc/vdu-placement-engine/internal/core"
	"github.com/sapcc/vdu-placement-engine/internal/planner"
	"github.com/sapcc/vdu-placement-engine/internal/resolver"
	"github.com/sapcc/vdu-placement-engine/internal/rules"
)

// Options configures one validate() call (§4.8, §6).
type Options struct {
	GeneratePlan bool
	Strategy     planner.Strategy
}

// Engine wires together one immutable RuleCatalog and Resolver into a
// reusable ValidationOrchestrator. Like its collaborators, an Engine is safe
// for concurrent use (§5): all per-request state lives on the stack of
// Validate, never on the Engine itself.
type Engine struct {
	catalog  *catalog.RuleCatalog
	resolver *resolver.Resolver
}

// New builds an Engine from a compiled RuleCatalog and a Resolver already
// built against the same catalog.
func New(cat *catalog.RuleCatalog, res *resolver.Resolver) *Engine {
	return &Engine{catalog: cat, resolver: res}
}

// Validate runs the full ValidationOrchestrator pipeline over input and
// returns the ValidationResult (§3, §4.8). ctx is threaded through to the
// catalog's optional OPA policy hook; it carries no other per-request state.
func (e *Engine) Validate(ctx context.Context, input core.DeploymentInput, opts Options) core.ValidationResult {
	result := core.ValidationResult{Success: true}

	// V3 pre-pass: input well-formedness and catalog-known references.
	violations := rules.EvaluateV3(e.catalog, input)
	violations.Append(rules.EvaluateV3Flavor(e.catalog, input, flavorKnower(e.resolver)))
	for _, v := range violations {
		result.AddViolation(v)
	}
	if !violations.IsEmpty() {
		return e.finalize(result)
	}

	// WorkloadResolver.
	workload, resolveErrs := e.resolver.Resolve(input)
	if !resolveErrs.IsEmpty() {
		for _, err := range resolveErrs {
			result.AddViolation(core.NewViolation(core.RuleV3, "%s", err.Error()))
		}
		return e.finalize(result)
	}

	// CapacityEvaluator: C1-C4.
	slots, slotViolations := rules.BuildSocketSlots(e.catalog, input.Operator, input.ServerConfigs)
	capacityViolations := rules.EvaluateCapacity(workload, slots, slotViolations)
	for _, v := range capacityViolations {
		result.AddViolation(v)
	}
	if !capacityViolations.IsEmpty() {
		return e.finalize(result)
	}

	// PlacementEvaluator: M1-M4.
	placementViolations := rules.EvaluatePlacement(e.catalog, workload, len(slots))
	for _, v := range placementViolations {
		result.AddViolation(v)
	}
	if !placementViolations.IsEmpty() {
		return e.finalize(result)
	}

	// OperatorEvaluator: O1-O4 plus the optional policy hook.
	operatorViolations := rules.EvaluateOperator(ctx, e.catalog, workload, slots)
	for _, v := range operatorViolations {
		result.AddViolation(v)
	}
	if !operatorViolations.IsEmpty() {
		return e.finalize(result)
	}

	// V2 final pass: per-server configuration legality.
	v2Violations := rules.EvaluateV2(e.catalog, input.ServerConfigs)
	for _, v := range v2Violations {
		result.AddViolation(v)
	}
	if !v2Violations.IsEmpty() {
		return e.finalize(result)
	}

	if opts.GeneratePlan {
		plan, planViolations := planner.Plan(workload, slots, opts.Strategy)
		for _, v := range planViolations {
			result.AddViolation(v)
		}
		result.Plan = plan
		result.Metrics = metricsFrom(slots, plan)
	}

	return e.finalize(result)
}

// finalize runs the V1 summary pass and stamps the result's Success/Message
// fields.
func (e *Engine) finalize(result core.ValidationResult) core.ValidationResult {
	success, message := rules.SummarizeV1(result.Violations)
	result.Success = success
	result.Message = message
	return result
}

func metricsFrom(slots []core.SocketSlot, plan *core.PlacementPlan) core.UtilizationMetrics {
	metrics := core.UtilizationMetrics{}
	for _, slot := range slots {
		remaining := slot.VCoresAvailable
		if plan != nil {
			if r, ok := plan.RemainingBySlot[slot.Key()]; ok {
				remaining = r
			}
		}
		metrics.Slots = append(metrics.Slots, core.SlotUtilization{Slot: slot, Remaining: remaining})
	}
	return metrics
}

// flavorKnower adapts the Engine's configured dimensioning lookup (reached
// through its Resolver) into the optional func(string) bool that
// rules.EvaluateV3Flavor uses to reject unrecognized flavors. Resolvers
// built with a DimensioningLookup that doesn't implement KnowsFlavor simply
// skip that check.
func flavorKnower(res *resolver.Resolver) func(string) bool {
	fk, ok := res.Dimensioning().(interface{ KnowsFlavor(string) bool })
	if !ok {
		return nil
	}
	return fk.KnowsFlavor
}
