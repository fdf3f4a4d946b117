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
	"testing"

	"github.com/sapcc/vdu-placement-engine/internal/catalog"
	"github.com/sapcc/vdu-placement-engine/internal/core"
)

const operatorCatalogYAML = `
validation_rules:
  known_operators: [vos]
  known_pod_kinds: [DPP, DIP, RMP, CMP, DMP, PMP, IPP, IIP, CSP, UPP, vCU]
capacity_rules:
  caas_cores_per_socket:
    vos: 1
  shared_cores_per_socket:
    vos: 1
operator_rules:
  operator_mandatory_pods:
    vos: [IPP]
  flavor_implicit_pods:
    - flavor: "special-.*"
      pod_kinds: [IIP]
  vcu_vcores_by_flavor:
    - flavor: ".*"
      vcores: "2.0"
  directx2_group: [CSP, UPP]
server_configurations:
  allowed_socket_counts: [1, 2]
`

func mustOperatorCatalog(t *testing.T) *catalog.RuleCatalog {
	t.Helper()
	cat, err := catalog.CompileRuleCatalog([]byte(operatorCatalogYAML))
	if err != nil {
		t.Fatalf("unexpected error compiling test catalog: %s", err.Error())
	}
	return cat
}

func TestEvaluateO1ReportsMissingOperatorMandatoryPod(t *testing.T) {
	cat := mustOperatorCatalog(t)
	workload := core.ResolvedWorkload{DeploymentInput: core.DeploymentInput{Operator: core.OperatorVOS}}

	violations := EvaluateOperator(context.Background(), cat, workload, nil)
	found := false
	for _, v := range violations {
		if v.RuleID == core.RuleO1 {
			found = true
		}
	}
	if !found {
		t.Error("expected an O1 violation for missing vos-mandatory IPP")
	}
}

func TestEvaluateO2RequiresVCUAtCatalogCost(t *testing.T) {
	cat := mustOperatorCatalog(t)
	workload := core.ResolvedWorkload{
		DeploymentInput: core.DeploymentInput{
			Operator:      core.OperatorVOS,
			VDUFlavorName: "plain-flavor",
			FeatureFlags:  core.FeatureFlags{VCUDeploymentRequired: true},
		},
		Instances: []core.PodInstance{
			{ID: "IPP#0", Kind: core.PodIPP},
			{ID: "vCU#0", Kind: core.PodVCU, VCores: core.VCoresFromWhole(1)}, // wrong cost
		},
	}

	violations := EvaluateOperator(context.Background(), cat, workload, nil)
	found := false
	for _, v := range violations {
		if v.RuleID == core.RuleO2 {
			found = true
		}
	}
	if !found {
		t.Error("expected an O2 violation for a vCU pod with the wrong vcore cost")
	}
}

func TestEvaluateO3RequiresIIPForSpecialFlavor(t *testing.T) {
	cat := mustOperatorCatalog(t)
	workload := core.ResolvedWorkload{
		DeploymentInput: core.DeploymentInput{Operator: core.OperatorVOS, VDUFlavorName: "special-01"},
		Instances:       []core.PodInstance{{ID: "IPP#0", Kind: core.PodIPP}},
	}

	violations := EvaluateOperator(context.Background(), cat, workload, nil)
	found := false
	for _, v := range violations {
		if v.RuleID == core.RuleO3 {
			found = true
		}
	}
	if !found {
		t.Error("expected an O3 violation when a special flavor is missing IIP")
	}
}

func TestEvaluateO4RequiresCapacityForCoLocationGroup(t *testing.T) {
	cat := mustOperatorCatalog(t)
	workload := core.ResolvedWorkload{
		DeploymentInput: core.DeploymentInput{
			Operator:      core.OperatorVOS,
			VDUFlavorName: "plain-flavor",
			FeatureFlags:  core.FeatureFlags{DirectX2Required: true},
		},
		Instances: []core.PodInstance{
			{ID: "IPP#0", Kind: core.PodIPP},
			{ID: "CSP#0", Kind: core.PodCSP, VCores: core.VCoresFromWhole(4)},
			{ID: "UPP#0", Kind: core.PodUPP, VCores: core.VCoresFromWhole(4)},
		},
	}
	slots := []core.SocketSlot{
		core.NewSocketSlot(0, 0, core.VCoresFromWhole(6), 0, 0), // not enough for 8 combined
	}

	violations := EvaluateOperator(context.Background(), cat, workload, slots)
	found := false
	for _, v := range violations {
		if v.RuleID == core.RuleO4 {
			found = true
		}
	}
	if !found {
		t.Error("expected an O4 violation when no socket can hold the whole DirectX2 group")
	}
}

func TestEvaluateO4PassesWithSufficientCapacity(t *testing.T) {
	cat := mustOperatorCatalog(t)
	workload := core.ResolvedWorkload{
		DeploymentInput: core.DeploymentInput{
			Operator:      core.OperatorVOS,
			VDUFlavorName: "plain-flavor",
			FeatureFlags:  core.FeatureFlags{DirectX2Required: true},
		},
		Instances: []core.PodInstance{
			{ID: "IPP#0", Kind: core.PodIPP},
			{ID: "CSP#0", Kind: core.PodCSP, VCores: core.VCoresFromWhole(4)},
			{ID: "UPP#0", Kind: core.PodUPP, VCores: core.VCoresFromWhole(4)},
		},
	}
	slots := []core.SocketSlot{
		core.NewSocketSlot(0, 0, core.VCoresFromWhole(10), 0, 0),
	}

	violations := EvaluateOperator(context.Background(), cat, workload, slots)
	for _, v := range violations {
		if v.RuleID == core.RuleO4 {
			t.Error("did not expect an O4 violation when a socket has enough capacity for the whole group")
		}
	}
}
