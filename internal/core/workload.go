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

package core

import "fmt"

// ResolvedRequirement is a PodRequirement after resolution (§4.2): the
// explicit record if one was given, otherwise an injected record, tagged
// with where it came from and with its anti-affinity/co-location groups
// filled in from the catalog.
type ResolvedRequirement struct {
	PodRequirement
	Origin PodOrigin
}

// PodInstanceID identifies one replica of one PodRequirement within a
// ResolvedWorkload, stable across a single validation run.
type PodInstanceID string

// InstanceID formats the deterministic identity of the nth replica (0-based)
// of a given PodKind.
func InstanceID(kind PodKind, replica int) PodInstanceID {
	return PodInstanceID(fmt.Sprintf("%s#%d", kind, replica))
}

// PodInstance is a single placeable unit: one replica out of a
// PodRequirement's Quantity. The PlacementPlanner assigns each PodInstance
// to exactly one SocketSlot.
type PodInstance struct {
	ID              PodInstanceID
	Kind            PodKind
	VCores          VCores
	Origin          PodOrigin
	ReplicaIndex    int // 0-based index among instances of the same Kind
	SocketAffinity  *int
	AntiAffinityTag string
	CoLocationTag   string
}

// ResolvedWorkload is a DeploymentInput after the WorkloadResolver has run:
// operator-mandatory, flavor-implicit, and flag-conditional pods have been
// injected, duplicates resolved in favor of the explicit record, and every
// requirement expanded into its constituent PodInstances in resolution
// order (§3, §4.2).
type ResolvedWorkload struct {
	DeploymentInput
	Requirements []ResolvedRequirement
	Instances    []PodInstance
}

// InstancesOfKind returns every PodInstance of the given kind, in resolution
// order.
func (w ResolvedWorkload) InstancesOfKind(kind PodKind) []PodInstance {
	var out []PodInstance
	for _, inst := range w.Instances {
		if inst.Kind == kind {
			out = append(out, inst)
		}
	}
	return out
}

// HasKind reports whether at least one instance of the given kind is present.
func (w ResolvedWorkload) HasKind(kind PodKind) bool {
	for _, inst := range w.Instances {
		if inst.Kind == kind {
			return true
		}
	}
	return false
}

// InstancesInAntiAffinityGroup returns every PodInstance whose
// AntiAffinityTag equals tag, in resolution order. Its counterpart
// InstancesInCoLocationGroup matches on CoLocationTag instead.
func (w ResolvedWorkload) InstancesInAntiAffinityGroup(tag string) []PodInstance {
	var out []PodInstance
	for _, inst := range w.Instances {
		if inst.AntiAffinityTag == tag {
			out = append(out, inst)
		}
	}
	return out
}

func (w ResolvedWorkload) InstancesInCoLocationGroup(tag string) []PodInstance {
	var out []PodInstance
	for _, inst := range w.Instances {
		if inst.CoLocationTag == tag {
			out = append(out, inst)
		}
	}
	return out
}

// TotalDemand sums VCores*Quantity across all resolved requirements (used by
// C1).
func (w ResolvedWorkload) TotalDemand() VCores {
	total := VCores(0)
	for _, req := range w.Requirements {
		total = total.Add(req.VCores.Mul(req.Quantity))
	}
	return total
}
