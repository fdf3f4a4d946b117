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

// UtilizationMetrics summarizes per-socket capacity consumption for the
// ResponseFormatter (§3, §4.9).
type UtilizationMetrics struct {
	Slots []SlotUtilization
}

type SlotUtilization struct {
	Slot      SocketSlot
	Remaining VCores
}

// ValidationResult is the top-level outcome of a validate() call (§3).
type ValidationResult struct {
	Success    bool
	Message    string
	Violations []Violation
	Plan       *PlacementPlan
	Metrics    UtilizationMetrics
}

// AddViolation appends a violation, preserving insertion order (determinism,
// §9).
func (r *ValidationResult) AddViolation(v Violation) {
	r.Violations = append(r.Violations, v)
}

// HasViolations reports whether any violation has been recorded so far.
func (r *ValidationResult) HasViolations() bool {
	return len(r.Violations) > 0
}

// ViolationsInCategory filters the violation list for a single category,
// preserving order, for the ResponseFormatter's grouped rendering.
func (r ValidationResult) ViolationsInCategory(cat Category) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Category == cat {
			out = append(out, v)
		}
	}
	return out
}
