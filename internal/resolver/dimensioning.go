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

// Package resolver implements the WorkloadResolver (§4.2): it normalizes a
// DeploymentInput into a ResolvedWorkload by applying operator-mandatory,
// flavor-implicit, and flag-conditional pod injections in a fixed order.
package resolver

import (
	"errors"
	"fmt"

	"github.com/sapcc/vdu-placement-engine/internal/core"
)

// errDimensioningUnconfigured is returned when a Resolver needs to inject a
// pod but was built without a DimensioningLookup.
var errDimensioningUnconfigured = errors.New("no dimensioning lookup configured")

// PodSpec is one (PodKind, vcores) pair as returned by a DimensioningLookup
// (§6).
type PodSpec struct {
	Kind   core.PodKind
	VCores core.VCores
}

// DimensioningLookup is the external collaborator interface the resolver
// consumes to find out how many vcores an injected (operator-mandatory or
// flavor-implicit) pod needs. §1 scopes the actual CSV-backed dimensioning
// table loader out of this engine; only this interface is part of the
// core's contract.
type DimensioningLookup interface {
	PodsFor(operator core.Operator, vduFlavorName string) ([]PodSpec, error)
}

// StaticDimensioningTable is an in-memory DimensioningLookup keyed by
// (operator, vduFlavorName), intended for tests and as the default
// implementation wired by cmd/vdu-placer when no richer CSV-backed table is
// configured. A production deployment supplies its own DimensioningLookup
// backed by the real dimensioning CSVs.
type StaticDimensioningTable map[dimensioningKey][]PodSpec

type dimensioningKey struct {
	operator core.Operator
	flavor   string
}

// NewStaticDimensioningTable constructs an empty table ready for Set calls.
func NewStaticDimensioningTable() StaticDimensioningTable {
	return make(StaticDimensioningTable)
}

// Set registers the pod specs for one (operator, flavor) combination.
func (t StaticDimensioningTable) Set(operator core.Operator, vduFlavorName string, specs ...PodSpec) {
	t[dimensioningKey{operator, vduFlavorName}] = specs
}

// PodsFor implements DimensioningLookup.
func (t StaticDimensioningTable) PodsFor(operator core.Operator, vduFlavorName string) ([]PodSpec, error) {
	specs, ok := t[dimensioningKey{operator, vduFlavorName}]
	if !ok {
		return nil, fmt.Errorf("no dimensioning data for operator %q flavor %q", operator, vduFlavorName)
	}
	return specs, nil
}

// KnowsFlavor reports whether vduFlavorName appears in the table under any
// operator. InputValidator's V3 pre-pass uses this (via a type assertion, so
// custom DimensioningLookup implementations are not required to support it)
// to reject an entirely unrecognized flavor before the resolver ever runs.
func (t StaticDimensioningTable) KnowsFlavor(vduFlavorName string) bool {
	for key := range t {
		if key.flavor == vduFlavorName {
			return true
		}
	}
	return false
}

// vcoresFor finds the vcore cost of a specific kind within a PodsFor result,
// falling back to ok=false when the kind is not dimensioned for this
// operator/flavor (e.g. the dimensioning table covers other kinds only).
func vcoresFor(specs []PodSpec, kind core.PodKind) (core.VCores, bool) {
	for _, spec := range specs {
		if spec.Kind == kind {
			return spec.VCores, true
		}
	}
	return 0, false
}
