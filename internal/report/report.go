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

// Package report implements the ResponseFormatter (§4.9): it renders a
// ValidationResult into a stable, human-readable plain-text report, grouping
// violations by category and tabulating per-socket utilization.
package report

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/sapcc/vdu-placement-engine/internal/core"
)

// Render produces the full report text for a ValidationResult.
func Render(result core.ValidationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", result.Message)

	if result.HasViolations() {
		renderViolations(&b, result)
		renderHints(&b, result)
	}

	if result.Plan != nil {
		renderUtilization(&b, result.Metrics)
	}

	return b.String()
}

var categoryOrder = []core.Category{
	core.CategoryValidation,
	core.CategoryCapacity,
	core.CategoryPlacement,
	core.CategoryOperator,
}

func renderViolations(b *strings.Builder, result core.ValidationResult) {
	fmt.Fprintf(b, "\nViolations:\n")
	for _, cat := range categoryOrder {
		inCategory := result.ViolationsInCategory(cat)
		if len(inCategory) == 0 {
			continue
		}
		fmt.Fprintf(b, "  %s:\n", cat)
		for _, v := range inCategory {
			fmt.Fprintf(b, "    [%s] %s\n", v.RuleID, v.Detail)
		}
	}
}

func renderUtilization(b *strings.Builder, metrics core.UtilizationMetrics) {
	if len(metrics.Slots) == 0 {
		return
	}
	fmt.Fprintf(b, "\nSocket utilization:\n")

	slots := append([]core.SlotUtilization(nil), metrics.Slots...)
	sort.Slice(slots, func(i, j int) bool { return slots[i].Slot.Less(slots[j].Slot) })

	tw := tabwriter.NewWriter(b, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "SERVER\tSOCKET\tTOTAL\tREMAINING\tUSED %%\n")
	for _, su := range slots {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.1f\n",
			su.Slot.ServerIndex, su.Slot.SocketIndex, su.Slot.VCoresTotal, su.Remaining, su.Slot.UtilizationPercent(su.Remaining))
	}
	tw.Flush()
}

// renderHints adds a small set of deterministic, rule-derived optimization
// hints (SPEC_FULL.md SUPPLEMENTED FEATURES); this is advisory text only,
// never something the orchestrator's verdict depends on. Every hinted rule
// (M2, M4, O4, C1) is one that stops the pipeline before a plan is ever
// generated, so hints are rendered off result.Violations directly rather
// than gated on result.Plan, which is nil on exactly the failure paths these
// hints are meant for.
func renderHints(b *strings.Builder, result core.ValidationResult) {
	var hints []string
	for _, v := range result.Violations {
		switch v.RuleID {
		case core.RuleM2:
			hints = append(hints, "add another socket to satisfy the in-service-upgrade anti-affinity requirement")
		case core.RuleM4:
			hints = append(hints, "add another socket to satisfy the HA anti-affinity requirement")
		case core.RuleO4:
			hints = append(hints, "add a larger-capacity socket to fit the DirectX2 co-location group")
		case core.RuleC1:
			hints = append(hints, "add more servers or reduce pod resource requests to close the capacity deficit")
		}
	}
	if len(hints) == 0 {
		return
	}
	fmt.Fprintf(b, "\nOptimization hints:\n")
	for _, hint := range hints {
		fmt.Fprintf(b, "  - %s\n", hint)
	}
}
