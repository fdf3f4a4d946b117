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

import (
	"testing"

	"github.com/sapcc/go-bits/assert"
)

func TestParseVCores(t *testing.T) {
	cases := []struct {
		input    string
		expected VCores
	}{
		{"4", VCoresFromWhole(4)},
		{"2.5", VCoresFromTenths(25)},
		{"0.1", VCoresFromTenths(1)},
		{"-1.5", VCoresFromTenths(-15)},
	}
	for _, c := range cases {
		result, err := ParseVCores(c.input)
		if err != nil {
			t.Errorf("ParseVCores(%q) returned error: %s", c.input, err.Error())
			continue
		}
		assert.DeepEqual(t, "ParseVCores("+c.input+")", result, c.expected)
	}
}

func TestParseVCoresRejectsTooManyDecimals(t *testing.T) {
	_, err := ParseVCores("2.55")
	if err == nil {
		t.Error("expected an error for a value with two decimal digits")
	}
}

func TestVCoresArithmeticAndString(t *testing.T) {
	a := VCoresFromTenths(25) // 2.5
	b := VCoresFromWhole(1)   // 1.0

	assert.DeepEqual(t, "Add", a.Add(b).String(), "3.5")
	assert.DeepEqual(t, "Sub", a.Sub(b).String(), "1.5")
	assert.DeepEqual(t, "Mul", a.Mul(2).String(), "5")

	if !a.IsPositive() {
		t.Error("2.5 should be positive")
	}
	if VCoresFromWhole(0).IsPositive() {
		t.Error("0 should not be positive")
	}
	if !VCoresFromWhole(-1).IsNegative() {
		t.Error("-1 should be negative")
	}
}
