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

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sapcc/go-bits/respondwith"
	"gopkg.in/yaml.v2"

	"github.com/sapcc/vdu-placement-engine/internal/core"
	"github.com/sapcc/vdu-placement-engine/internal/engine"
	"github.com/sapcc/vdu-placement-engine/internal/planner"
	"github.com/sapcc/vdu-placement-engine/internal/report"
	"github.com/sapcc/vdu-placement-engine/internal/resolver"
)

// violationsByRule counts every violation the engine has ever reported, by
// rule id and category (SPEC_FULL.md SUPPLEMENTED FEATURES: per-rule
// metrics, distinct from the optimization-hint ranking the spec's Non-goals
// explicitly exclude).
var violationsByRule = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vdu_placer_violations_total",
		Help: "Number of rule violations reported by the validation engine, by rule ID and category.",
	},
	[]string{"rule_id", "category"},
)

var validationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "vdu_placer_validations_total",
		Help: "Number of validate() calls, by outcome.",
	},
	[]string{"success"},
)

func init() {
	prometheus.MustRegister(violationsByRule, validationsTotal)
}

// validateRequest is the wire shape of a POST /v1/validate body (§6).
type validateRequest struct {
	Operator      core.Operator  `json:"operator"`
	VDUFlavorName string         `json:"vdu_flavor_name"`
	PodRequirements []podRequirementDTO `json:"pod_requirements"`
	ServerConfigs []serverConfigDTO `json:"server_configs"`
	FeatureFlags  core.FeatureFlags `json:"feature_flags"`
	GeneratePlan  bool           `json:"generate_plan"`
	Strategy      string         `json:"strategy"`
}

type podRequirementDTO struct {
	Kind            core.PodKind `json:"kind"`
	VCores          string       `json:"vcores"`
	Quantity        int          `json:"quantity"`
	SocketAffinity  *int         `json:"socket_affinity,omitempty"`
	AntiAffinityTag string       `json:"anti_affinity_tag,omitempty"`
	CoLocationTag   string       `json:"co_location_tag,omitempty"`
}

type serverConfigDTO struct {
	PCores          int64  `json:"pcores"`
	Sockets         int    `json:"sockets"`
	PCoresPerSocket *int64 `json:"pcores_per_socket,omitempty"`
}

// validateResponse is the wire shape of the response (§4.9 rendered both as
// structured JSON and, via the Report field, as formatted text).
type validateResponse struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message"`
	Violations []core.Violation `json:"violations,omitempty"`
	Report     string           `json:"report"`
}

func newValidateHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req validateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondwith.ErrorText(w, fmt.Errorf("cannot parse request body: %w", err))
			return
		}

		input, err := req.toDeploymentInput()
		if err != nil {
			respondwith.ErrorText(w, err)
			return
		}

		opts := engine.Options{
			GeneratePlan: req.GeneratePlan,
			Strategy:     planner.Strategy(req.Strategy),
		}

		result := eng.Validate(r.Context(), input, opts)

		for _, v := range result.Violations {
			violationsByRule.WithLabelValues(string(v.RuleID), string(v.Category)).Inc()
		}
		validationsTotal.WithLabelValues(fmt.Sprintf("%t", result.Success)).Inc()

		respondwith.JSON(w, http.StatusOK, validateResponse{
			Success:    result.Success,
			Message:    result.Message,
			Violations: result.Violations,
			Report:     report.Render(result),
		})
	}
}

func (req validateRequest) toDeploymentInput() (core.DeploymentInput, error) {
	reqs := make([]core.PodRequirement, len(req.PodRequirements))
	for i, dto := range req.PodRequirements {
		vcores, err := core.ParseVCores(dto.VCores)
		if err != nil {
			return core.DeploymentInput{}, fmt.Errorf("pod_requirements[%d]: %w", i, err)
		}
		reqs[i] = core.PodRequirement{
			Kind:            dto.Kind,
			VCores:          vcores,
			Quantity:        dto.Quantity,
			SocketAffinity:  dto.SocketAffinity,
			AntiAffinityTag: dto.AntiAffinityTag,
			CoLocationTag:   dto.CoLocationTag,
		}
	}

	servers := make([]core.ServerConfiguration, len(req.ServerConfigs))
	for i, dto := range req.ServerConfigs {
		servers[i] = core.ServerConfiguration{
			PCores:          dto.PCores,
			Sockets:         dto.Sockets,
			PCoresPerSocket: dto.PCoresPerSocket,
		}
	}

	return core.DeploymentInput{
		Operator:        req.Operator,
		VDUFlavorName:   req.VDUFlavorName,
		PodRequirements: reqs,
		ServerConfigs:   servers,
		FeatureFlags:    req.FeatureFlags,
	}, nil
}

// dimensioningDocument is the wire shape of the optional dimensioning table
// file (§6: the DimensioningLookup's data is explicitly out of this
// engine's scope to produce, but cmd/vdu-placer still needs some way to
// feed a StaticDimensioningTable for a standalone deployment).
type dimensioningDocument struct {
	Entries []struct {
		Operator core.Operator `yaml:"operator"`
		Flavor   string        `yaml:"flavor"`
		Pods     []struct {
			Kind   core.PodKind `yaml:"kind"`
			VCores string       `yaml:"vcores"`
		} `yaml:"pods"`
	} `yaml:"entries"`
}

func loadDimensioningTable(path string, table resolver.StaticDimensioningTable) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc dimensioningDocument
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return fmt.Errorf("cannot parse dimensioning table %s: %w", path, err)
	}
	for _, entry := range doc.Entries {
		specs := make([]resolver.PodSpec, len(entry.Pods))
		for i, pod := range entry.Pods {
			vcores, err := core.ParseVCores(pod.VCores)
			if err != nil {
				return fmt.Errorf("dimensioning table %s: operator %s flavor %s: %w", path, entry.Operator, entry.Flavor, err)
			}
			specs[i] = resolver.PodSpec{Kind: pod.Kind, VCores: vcores}
		}
		table.Set(entry.Operator, entry.Flavor, specs...)
	}
	return nil
}
