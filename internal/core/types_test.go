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

import "testing"

func TestCategoryForRule(t *testing.T) {
	cases := map[RuleID]Category{
		RuleC1:                  CategoryCapacity,
		RuleM3:                  CategoryPlacement,
		RuleO2:                  CategoryOperator,
		RuleV1:                  CategoryValidation,
		RulePlacementInfeasible: CategoryPlacement,
	}
	for id, want := range cases {
		if got := CategoryForRule(id); got != want {
			t.Errorf("CategoryForRule(%s) = %s, want %s", id, got, want)
		}
	}
}

func TestViolationSetAddfAndAppend(t *testing.T) {
	var set ViolationSet
	if !set.IsEmpty() {
		t.Fatal("new ViolationSet should be empty")
	}

	set.Addf(RuleC1, "demand %d exceeds supply", 10)
	if set.IsEmpty() {
		t.Fatal("ViolationSet should not be empty after Addf")
	}
	if set[0].Category != CategoryCapacity {
		t.Errorf("expected Category to be derived from RuleID, got %s", set[0].Category)
	}

	var other ViolationSet
	other.Addf(RuleM1, "mandatory pod missing")
	set.Append(other)

	if len(set) != 2 {
		t.Fatalf("expected 2 violations after Append, got %d", len(set))
	}
	if set[1].RuleID != RuleM1 {
		t.Errorf("Append did not preserve order, got %s at index 1", set[1].RuleID)
	}
}
