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

// Package core contains the domain vocabulary shared by every stage of the
// placement engine: the closed tagged variants (Operator, PodKind, rule
// category), the per-request value types (PodRequirement,
// ServerConfiguration, FeatureFlags, DeploymentInput), and the types
// produced as the pipeline advances (ResolvedWorkload, SocketSlot,
// PlacementPlan, ValidationResult). None of these types carry behavior
// beyond small accessors; the rule evaluators, resolver, and planner own
// the logic that operates on them.
package core

import "fmt"

// Operator identifies the telecom operator that owns a deployment request.
// This is a closed set: adding a new operator is a catalog change plus a
// new case here, never an open-ended string.
type Operator string

const (
	OperatorVOS     Operator = "vos"
	OperatorVerizon Operator = "verizon"
	OperatorBoost   Operator = "boost"
)

// Known reports whether o is one of the defined Operator constants.
func (o Operator) Known() bool {
	switch o {
	case OperatorVOS, OperatorVerizon, OperatorBoost:
		return true
	default:
		return false
	}
}

func (o Operator) String() string {
	return string(o)
}

// PodKind is a closed set of pod roles. Mandatory kinds are deployed in
// every valid workload; optional kinds are injected only under specific
// operator, flavor, or flag conditions. Co-location/anti-affinity grouping
// is attached by the RuleCatalog, not carried on the kind itself.
type PodKind string

const (
	// Mandatory pod kinds: every resolved workload must contain one instance
	// of each, regardless of operator or flavor (M1/O1).
	PodDPP PodKind = "DPP"
	PodDIP PodKind = "DIP"
	PodRMP PodKind = "RMP"
	PodCMP PodKind = "CMP"
	PodDMP PodKind = "DMP"
	PodPMP PodKind = "PMP"

	// Optional pod kinds: present only when injected by an operator rule,
	// a flavor rule, or a feature flag.
	PodIPP PodKind = "IPP" // VOS operator-mandatory (O1)
	PodIIP PodKind = "IIP" // flavor-implicit, "special" flavors (O3)
	PodUPP PodKind = "UPP"
	PodCSP PodKind = "CSP"
	PodVCU PodKind = "vCU" // flag-conditional (O2)
)

// MandatoryPodKinds is the fixed set of pod kinds that §4.1/M1 requires in
// every resolved workload before considering any operator- or
// flavor-specific additions.
var MandatoryPodKinds = []PodKind{PodDPP, PodDIP, PodRMP, PodCMP, PodDMP, PodPMP}

// PodOrigin records why a pod instance is present in a ResolvedWorkload,
// for diagnostic output (§4.2).
type PodOrigin string

const (
	OriginExplicit         PodOrigin = "explicit"
	OriginOperatorMandated PodOrigin = "operator-mandatory"
	OriginFlavorImplicit   PodOrigin = "flavor-implicit"
	OriginFlagConditional  PodOrigin = "flag-conditional"
)

// Category is the closed set of violation categories rendered by the
// ResponseFormatter (§4.9).
type Category string

const (
	CategoryCapacity   Category = "Capacity"
	CategoryPlacement  Category = "Placement"
	CategoryOperator   Category = "Operator"
	CategoryValidation Category = "Validation"
)

// RuleID identifies one of the catalog's Deterministic Rules, e.g. "C1" or
// "M4". PlacementInfeasible is a dedicated pseudo rule id for the one error
// the planner itself can produce after every evaluator has passed (§7).
type RuleID string

const (
	RuleC1 RuleID = "C1"
	RuleC2 RuleID = "C2"
	RuleC3 RuleID = "C3"
	RuleC4 RuleID = "C4"

	RuleM1 RuleID = "M1"
	RuleM2 RuleID = "M2"
	RuleM3 RuleID = "M3"
	RuleM4 RuleID = "M4"

	RuleO1 RuleID = "O1"
	RuleO2 RuleID = "O2"
	RuleO3 RuleID = "O3"
	RuleO4 RuleID = "O4"

	RuleV1 RuleID = "V1"
	RuleV2 RuleID = "V2"
	RuleV3 RuleID = "V3"

	RulePlacementInfeasible RuleID = "PLACEMENT_INFEASIBLE"
)

// Violation is a single reported rule failure. CategoryForRule derives
// Category from RuleID so callers never need to pass both out of sync.
type Violation struct {
	RuleID   RuleID
	Category Category
	Detail   string
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s/%s] %s", v.Category, v.RuleID, v.Detail)
}

// CategoryForRule maps a RuleID to its Category. Unrecognized prefixes
// default to CategoryValidation, which should never happen for rule ids
// produced by this engine's own evaluators.
func CategoryForRule(id RuleID) Category {
	switch {
	case len(id) > 0 && id[0] == 'C':
		return CategoryCapacity
	case id == RulePlacementInfeasible, len(id) > 0 && id[0] == 'M':
		return CategoryPlacement
	case len(id) > 0 && id[0] == 'O':
		return CategoryOperator
	default:
		return CategoryValidation
	}
}

// NewViolation constructs a Violation with Category derived from id.
func NewViolation(id RuleID, format string, args ...any) Violation {
	return Violation{
		RuleID:   id,
		Category: CategoryForRule(id),
		Detail:   fmt.Sprintf(format, args...),
	}
}

// ViolationSet accumulates violations within one evaluator stage, mirroring
// the collect-everything-then-report shape of go-bits/errext.ErrorSet
// (§4.8: "collect all violations within a stage before advancing").
type ViolationSet []Violation

// Addf appends a new violation built from a RuleID and a format string.
func (s *ViolationSet) Addf(id RuleID, format string, args ...any) {
	*s = append(*s, NewViolation(id, format, args...))
}

// Append adds every violation from other to this set, preserving order.
func (s *ViolationSet) Append(other ViolationSet) {
	*s = append(*s, other...)
}

// IsEmpty reports whether no violations have been recorded.
func (s ViolationSet) IsEmpty() bool {
	return len(s) == 0
}
