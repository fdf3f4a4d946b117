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

// Package catalog loads and compiles the Deterministic Rule catalog (§4.1)
// from a structured YAML document into an immutable RuleCatalog. A
// RuleCatalog is constructed once at startup (NewRuleCatalog) and thereafter
// treated as read-only; it may be shared across concurrently-evaluated
// requests without locking (§5).
package catalog

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/sapcc/vdu-placement-engine/internal/core"
)

// RuleCatalog is the compiled, immutable representation of the DR ruleset.
// Unknown operators, flavors, or pod kinds are reported as V3 violations by
// the caller (internal/rules), not silently ignored here: the catalog
// exposes Known* predicates precisely so evaluators can make that call.
type RuleCatalog struct {
	caasCoresPerSocket   map[core.Operator]int64
	sharedCoresPerSocket map[core.Operator]int64
	operatorMandatory    map[core.Operator][]core.PodKind
	flavorImplicit       []flavorPodRule
	vcuVCores            []flavorVCoreRule
	directX2Group        []core.PodKind
	allowedSocketCounts  map[int]bool
	knownOperators       map[core.Operator]bool
	knownPodKinds        map[core.PodKind]bool
	policyQuery          *rego.PreparedEvalQuery
}

type flavorPodRule struct {
	pattern flavorMatcher
	kinds   []core.PodKind
}

type flavorVCoreRule struct {
	pattern flavorMatcher
	vcores  core.VCores
}

// CaasCoresPerSocket returns the per-socket CaaS core deduction for an
// operator (C3). ok is false for an operator the catalog has no entry for.
func (c *RuleCatalog) CaasCoresPerSocket(op core.Operator) (int64, bool) {
	v, ok := c.caasCoresPerSocket[op]
	return v, ok
}

// SharedCoresPerSocket returns the per-socket shared-core deduction for an
// operator (C4).
func (c *RuleCatalog) SharedCoresPerSocket(op core.Operator) (int64, bool) {
	v, ok := c.sharedCoresPerSocket[op]
	return v, ok
}

// MandatoryPods returns the full mandatory pod set for an operator: the
// fixed base set plus any operator-specific additions (e.g. VOS adds IPP)
// (§4.1).
func (c *RuleCatalog) MandatoryPods(op core.Operator) []core.PodKind {
	out := make([]core.PodKind, len(core.MandatoryPodKinds))
	copy(out, core.MandatoryPodKinds)
	out = append(out, c.operatorMandatory[op]...)
	return out
}

// ImplicitPodsForFlavor returns the flavor-specific implicit pod kinds for
// vduFlavorName (e.g. IIP for designated "special" flavors), in catalog
// order. An empty result is not an error: most flavors inject nothing.
func (c *RuleCatalog) ImplicitPodsForFlavor(vduFlavorName string) []core.PodKind {
	var out []core.PodKind
	for _, rule := range c.flavorImplicit {
		if rule.pattern.Match(vduFlavorName) {
			out = append(out, rule.kinds...)
		}
	}
	return out
}

// IsSpecialFlavor reports whether vduFlavorName is one of the catalog's
// designated "special" flavors, i.e. it injects at least one implicit pod
// (O3 reads this to confirm the resolver's injection actually applies).
func (c *RuleCatalog) IsSpecialFlavor(vduFlavorName string) bool {
	return len(c.ImplicitPodsForFlavor(vduFlavorName)) > 0
}

// VCUVCores returns the flavor-specific vcore cost of a vCU pod, when vCU
// deployment is active for that flavor (O2).
func (c *RuleCatalog) VCUVCores(vduFlavorName string) (core.VCores, bool) {
	for _, rule := range c.vcuVCores {
		if rule.pattern.Match(vduFlavorName) {
			return rule.vcores, true
		}
	}
	return 0, false
}

// CoLocationGroups returns the co-location groups active under the given
// flags and operator, keyed by group tag (§4.1). Currently the only
// catalog-defined co-location group is "directx2", gated on
// FeatureFlags.DirectX2Required.
func (c *RuleCatalog) CoLocationGroups(flags core.FeatureFlags, op core.Operator) map[string][]core.PodKind {
	groups := make(map[string][]core.PodKind)
	if flags.DirectX2Required && len(c.directX2Group) > 0 {
		groups["directx2"] = c.directX2Group
	}
	return groups
}

// AntiAffinityGroups returns the anti-affinity groups active under the
// given flags (§4.1): DPP under in-service-upgrade (M2), CMP under HA (M4).
func (c *RuleCatalog) AntiAffinityGroups(flags core.FeatureFlags) map[string][]core.PodKind {
	groups := make(map[string][]core.PodKind)
	if flags.InServiceUpgrade {
		groups["dpp-in-service-upgrade"] = []core.PodKind{core.PodDPP}
	}
	if flags.HAEnabled {
		groups["cmp-ha"] = []core.PodKind{core.PodCMP}
	}
	return groups
}

// KnownOperator reports whether op has a complete entry in the catalog.
func (c *RuleCatalog) KnownOperator(op core.Operator) bool {
	return c.knownOperators[op]
}

// KnownPodKind reports whether kind is recognized by the catalog.
func (c *RuleCatalog) KnownPodKind(kind core.PodKind) bool {
	return c.knownPodKinds[kind]
}

// IsAllowedSocketCount reports whether n sockets is a legal server
// configuration (V2); the catalog's allowed set, not a hardcoded {1,2}, so
// that a catalog change alone can widen it.
func (c *RuleCatalog) IsAllowedSocketCount(n int) bool {
	return c.allowedSocketCounts[n]
}

// HasPolicy reports whether an optional OPA policy module was configured
// (SPEC_FULL.md DOMAIN STACK: operator_rules.policy).
func (c *RuleCatalog) HasPolicy() bool {
	return c.policyQuery != nil
}

// EvaluatePolicy runs the catalog's optional Rego policy module against the
// given input document, returning whether the operator/flavor combination
// is allowed. When no policy module is configured, EvaluatePolicy always
// returns (true, nil): the static O1-O4 rules are the only gate.
func (c *RuleCatalog) EvaluatePolicy(ctx context.Context, input map[string]any) (bool, error) {
	if c.policyQuery == nil {
		return true, nil
	}
	rs, err := c.policyQuery.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("policy evaluation failed: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy query did not return a boolean")
	}
	return allowed, nil
}
