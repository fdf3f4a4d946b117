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
	"fmt"

	"github.com/sapcc/vdu-placement-engine/internal/catalog"
	"github.com/sapcc/vdu-placement-engine/internal/core"
)

// EvaluateV3 is the pre-pass (§4.6, §9 "Open question"): input well-formedness,
// and every operator and pod-kind reference known to the catalog (the flavor
// name is checked separately by EvaluateV3Flavor). This runs before
// WorkloadResolver, since the resolver needs a known operator and flavor to
// look up injections.
func EvaluateV3(cat *catalog.RuleCatalog, input core.DeploymentInput) core.ViolationSet {
	var violations core.ViolationSet

	if !cat.KnownOperator(input.Operator) {
		violations.Addf(core.RuleV3, "operator %q is not known to the rule catalog", input.Operator)
	}
	if len(input.ServerConfigs) == 0 {
		violations.Addf(core.RuleV3, "at least one server is required")
	}
	if input.TotalVCores() <= 0 {
		violations.Addf(core.RuleV3, "total server vcores must be > 0")
	}

	for i, req := range input.PodRequirements {
		if !cat.KnownPodKind(req.Kind) {
			violations.Addf(core.RuleV3, "pod_requirements[%d]: pod kind %q is not known to the rule catalog", i, req.Kind)
		}
		if !req.VCores.IsPositive() {
			violations.Addf(core.RuleV3, "pod_requirements[%d]: vcores must be > 0, got %s", i, req.VCores)
		}
		if req.Quantity < 1 {
			violations.Addf(core.RuleV3, "pod_requirements[%d]: quantity must be >= 1, got %d", i, req.Quantity)
		}
		if req.SocketAffinity != nil && req.Quantity != 1 {
			violations.Addf(core.RuleV3, "pod_requirements[%d]: socket_affinity requires quantity == 1, got %d", i, req.Quantity)
		}
	}

	return violations
}

// EvaluateV3Flavor checks the flavor name for known-ness: an empty name is
// rejected, and when dimensioningKnowsFlavor is non-nil, a name the
// dimensioning table (an external collaborator, §6) has never heard of is
// rejected too. The catalog's own flavor-scoped entries (implicit pods, vCU
// costs) are not consulted. An unrecognized flavor is reported here so that,
// per S6, failure happens before any placement attempt.
func EvaluateV3Flavor(cat *catalog.RuleCatalog, input core.DeploymentInput, dimensioningKnowsFlavor func(string) bool) core.ViolationSet {
	var violations core.ViolationSet
	if input.VDUFlavorName == "" {
		violations.Addf(core.RuleV3, "vdu_flavor_name is required")
		return violations
	}
	if dimensioningKnowsFlavor != nil && !dimensioningKnowsFlavor(input.VDUFlavorName) {
		violations.Addf(core.RuleV3, "vdu_flavor_name %q is not a recognized vDU flavor", input.VDUFlavorName)
	}
	return violations
}

// EvaluateV2 checks per-server configuration legality (§4.6): the socket
// count must be one the catalog allows, and a caller-supplied
// pcores_per_socket hint (if any) must match pcores/sockets exactly.
func EvaluateV2(cat *catalog.RuleCatalog, servers []core.ServerConfiguration) core.ViolationSet {
	var violations core.ViolationSet
	for i, srv := range servers {
		if !cat.IsAllowedSocketCount(srv.Sockets) {
			violations.Addf(core.RuleV2, "server_configs[%d]: sockets=%d is not an allowed socket count", i, srv.Sockets)
		}
		if srv.PCoresPerSocket != nil && srv.Sockets > 0 {
			expected := srv.PCores / int64(srv.Sockets)
			if *srv.PCoresPerSocket != expected {
				violations.Addf(core.RuleV2, "server_configs[%d]: pcores_per_socket=%d does not equal pcores/sockets=%d", i, *srv.PCoresPerSocket, expected)
			}
		}
	}
	return violations
}

// SummarizeV1 is the final pass (§4.6): emit SUCCESS when every prior stage
// recorded no violations, or otherwise a failure message stating how many
// violations were found. The message does not break the violations down by
// category; internal/report renders that grouping. It never adds new
// violations of its own.
func SummarizeV1(violations core.ViolationSet) (success bool, message string) {
	if violations.IsEmpty() {
		return true, "SUCCESS"
	}
	return false, fmt.Sprintf("FAILED: %d rule violation(s) found", len(violations))
}
