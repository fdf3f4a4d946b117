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

package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
	"github.com/sapcc/go-bits/errext"
	"github.com/sapcc/go-bits/regexpext"
	yaml "gopkg.in/yaml.v2"

	"github.com/sapcc/vdu-placement-engine/internal/core"
)

// CatalogError wraps the errors collected while loading or compiling a
// RuleCatalog document. It is fatal to the engine instance (§7): a host
// should not attempt to serve requests against a catalog that failed to
// load.
type CatalogError struct {
	Errors errext.ErrorSet
}

func (e *CatalogError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors loading rule catalog, first: %s", len(e.Errors), e.Errors[0].Error())
}

// document is the unexported wire format decoded from YAML, matching the
// top-level sections fixed by §6: capacity_rules, placement_rules,
// operator_rules, validation_rules, server_configurations. Unknown keys are
// ignored by yaml.Unmarshal (not UnmarshalStrict, deliberately: §6 says
// "unknown keys are ignored", only missing required keys are a load-time
// error).
type document struct {
	CapacityRules struct {
		CaasCoresPerSocket   map[string]int64 `yaml:"caas_cores_per_socket"`
		SharedCoresPerSocket map[string]int64 `yaml:"shared_cores_per_socket"`
	} `yaml:"capacity_rules"`

	PlacementRules struct {
		// reserved for future catalog-driven placement tunables; the fixed
		// M1-M4 rules themselves are not catalog data (§9: rules read
		// catalog entries, the control flow of a rule is not data).
	} `yaml:"placement_rules"`

	OperatorRules struct {
		OperatorMandatoryPods map[string][]string `yaml:"operator_mandatory_pods"`
		FlavorImplicitPods    []flavorPodsEntry   `yaml:"flavor_implicit_pods"`
		VCUVcoresByFlavor     []flavorVCoreEntry  `yaml:"vcu_vcores_by_flavor"`
		DirectX2Group         []string            `yaml:"directx2_group"`
		Policy                string              `yaml:"policy"`
	} `yaml:"operator_rules"`

	ValidationRules struct {
		KnownOperators []string `yaml:"known_operators"`
		KnownPodKinds  []string `yaml:"known_pod_kinds"`
	} `yaml:"validation_rules"`

	ServerConfigurations struct {
		AllowedSocketCounts []int `yaml:"allowed_socket_counts"`
	} `yaml:"server_configurations"`
}

type flavorPodsEntry struct {
	FlavorPattern regexpext.PlainRegexp `yaml:"flavor"`
	PodKinds      []string              `yaml:"pod_kinds"`
}

type flavorVCoreEntry struct {
	FlavorPattern regexpext.PlainRegexp `yaml:"flavor"`
	VCores        string                `yaml:"vcores"`
}

// flavorMatcher abstracts over the catalog's two ways of matching a flavor
// name: an exact string or a regexpext pattern.
type flavorMatcher struct {
	exact   string
	pattern regexpext.PlainRegexp
}

func (m flavorMatcher) Match(flavor string) bool {
	if m.pattern != "" {
		return m.pattern.MatchString(flavor)
	}
	return m.exact == flavor
}

// NewRuleCatalog reads and compiles the DR ruleset document at path.
// Missing required keys or unparseable values are reported as a
// *CatalogError listing every problem found, mirroring the teacher's
// NewQuotaConstraints: collect everything wrong before giving up, rather
// than stopping at the first error.
func NewRuleCatalog(path string) (*RuleCatalog, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{Errors: errext.ErrorSet{fmt.Errorf("could not read rule catalog: %w", err)}}
	}
	return CompileRuleCatalog(buf)
}

// CompileRuleCatalog parses and compiles a DR ruleset document already read
// into memory (split out from NewRuleCatalog so tests can exercise it
// without a filesystem fixture).
func CompileRuleCatalog(buf []byte) (*RuleCatalog, error) {
	var doc document
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, &CatalogError{Errors: errext.ErrorSet{fmt.Errorf("could not parse rule catalog: %w", err)}}
	}

	var errs errext.ErrorSet
	cat := &RuleCatalog{
		caasCoresPerSocket:   make(map[core.Operator]int64),
		sharedCoresPerSocket: make(map[core.Operator]int64),
		operatorMandatory:    make(map[core.Operator][]core.PodKind),
		allowedSocketCounts:  make(map[int]bool),
		knownOperators:       make(map[core.Operator]bool),
		knownPodKinds:        make(map[core.PodKind]bool),
	}

	if len(doc.ValidationRules.KnownOperators) == 0 {
		errs.Addf("missing validation_rules.known_operators")
	}
	for _, name := range doc.ValidationRules.KnownOperators {
		cat.knownOperators[core.Operator(name)] = true
	}
	if len(doc.ValidationRules.KnownPodKinds) == 0 {
		errs.Addf("missing validation_rules.known_pod_kinds")
	}
	for _, name := range doc.ValidationRules.KnownPodKinds {
		cat.knownPodKinds[core.PodKind(name)] = true
	}
	// the fixed mandatory set is always known, regardless of catalog content
	for _, kind := range core.MandatoryPodKinds {
		cat.knownPodKinds[kind] = true
	}

	if len(doc.CapacityRules.CaasCoresPerSocket) == 0 {
		errs.Addf("missing capacity_rules.caas_cores_per_socket")
	}
	for opName, cores := range doc.CapacityRules.CaasCoresPerSocket {
		op := core.Operator(opName)
		if !cat.knownOperators[op] {
			errs.Addf("capacity_rules.caas_cores_per_socket references unknown operator %q", opName)
			continue
		}
		if cores < 0 {
			errs.Addf("capacity_rules.caas_cores_per_socket[%s] may not be negative", opName)
			continue
		}
		cat.caasCoresPerSocket[op] = cores
	}
	if len(doc.CapacityRules.SharedCoresPerSocket) == 0 {
		errs.Addf("missing capacity_rules.shared_cores_per_socket")
	}
	for opName, cores := range doc.CapacityRules.SharedCoresPerSocket {
		op := core.Operator(opName)
		if !cat.knownOperators[op] {
			errs.Addf("capacity_rules.shared_cores_per_socket references unknown operator %q", opName)
			continue
		}
		if cores < 0 {
			errs.Addf("capacity_rules.shared_cores_per_socket[%s] may not be negative", opName)
			continue
		}
		cat.sharedCoresPerSocket[op] = cores
	}

	for opName, kindNames := range doc.OperatorRules.OperatorMandatoryPods {
		op := core.Operator(opName)
		if !cat.knownOperators[op] {
			errs.Addf("operator_rules.operator_mandatory_pods references unknown operator %q", opName)
			continue
		}
		kinds, suberrs := compilePodKindList(cat, kindNames, "operator_rules.operator_mandatory_pods["+opName+"]")
		errs.Append(suberrs)
		cat.operatorMandatory[op] = kinds
	}

	for idx, entry := range doc.OperatorRules.FlavorImplicitPods {
		if entry.FlavorPattern == "" {
			errs.Addf("operator_rules.flavor_implicit_pods[%d].flavor is required", idx)
			continue
		}
		kinds, suberrs := compilePodKindList(cat, entry.PodKinds, fmt.Sprintf("operator_rules.flavor_implicit_pods[%d].pod_kinds", idx))
		errs.Append(suberrs)
		cat.flavorImplicit = append(cat.flavorImplicit, flavorPodRule{
			pattern: flavorMatcher{pattern: entry.FlavorPattern},
			kinds:   kinds,
		})
	}

	for idx, entry := range doc.OperatorRules.VCUVcoresByFlavor {
		if entry.FlavorPattern == "" {
			errs.Addf("operator_rules.vcu_vcores_by_flavor[%d].flavor is required", idx)
			continue
		}
		vcores, err := core.ParseVCores(entry.VCores)
		if err != nil {
			errs.Addf("operator_rules.vcu_vcores_by_flavor[%d].vcores: %w", idx, err)
			continue
		}
		cat.vcuVCores = append(cat.vcuVCores, flavorVCoreRule{
			pattern: flavorMatcher{pattern: entry.FlavorPattern},
			vcores:  vcores,
		})
	}

	directX2Kinds, suberrs := compilePodKindList(cat, doc.OperatorRules.DirectX2Group, "operator_rules.directx2_group")
	errs.Append(suberrs)
	cat.directX2Group = directX2Kinds

	if len(doc.ServerConfigurations.AllowedSocketCounts) == 0 {
		errs.Addf("missing server_configurations.allowed_socket_counts")
	}
	for _, n := range doc.ServerConfigurations.AllowedSocketCounts {
		if n < 1 {
			errs.Addf("server_configurations.allowed_socket_counts contains non-positive value %d", n)
			continue
		}
		cat.allowedSocketCounts[n] = true
	}

	if doc.OperatorRules.Policy != "" {
		query, err := compilePolicy(doc.OperatorRules.Policy)
		if err != nil {
			errs.Addf("operator_rules.policy: %w", err)
		} else {
			cat.policyQuery = query
		}
	}

	if !errs.IsEmpty() {
		return nil, &CatalogError{Errors: errs}
	}
	return cat, nil
}

func compilePodKindList(cat *RuleCatalog, names []string, fieldPath string) ([]core.PodKind, errext.ErrorSet) {
	var errs errext.ErrorSet
	kinds := make([]core.PodKind, 0, len(names))
	for _, name := range names {
		kind := core.PodKind(name)
		if !cat.knownPodKinds[kind] {
			errs.Addf("%s references unknown pod kind %q", fieldPath, name)
			continue
		}
		kinds = append(kinds, kind)
	}
	return kinds, errs
}

// compilePolicy prepares the catalog's optional Rego module for
// OperatorEvaluator's policy hook (SPEC_FULL.md DOMAIN STACK). The module
// must define `data.vdu.placement.allow` as a boolean.
func compilePolicy(module string) (*rego.PreparedEvalQuery, error) {
	query, err := rego.New(
		rego.Query("data.vdu.placement.allow"),
		rego.Module("catalog_policy.rego", module),
	).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare policy query: %w", err)
	}
	return &query, nil
}
