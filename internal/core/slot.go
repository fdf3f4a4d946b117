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

// SocketSlot is one CPU socket on one candidate server, with its vcore
// budget already reduced by CaaS and shared-core deductions (§3, C2-C4).
//
// Invariant: VCoresAvailable >= 0. The CapacityEvaluator computes the full
// SocketSlot table before any downstream component runs.
type SocketSlot struct {
	ServerIndex     int
	SocketIndex     int
	VCoresTotal     VCores
	VCoresCaaS      VCores
	VCoresShared    VCores
	VCoresAvailable VCores
}

// NewSocketSlot builds a SocketSlot, computing VCoresAvailable from the
// other fields. Callers are responsible for checking the C2/non-negative
// invariant against the result.
func NewSocketSlot(serverIndex, socketIndex int, total, caas, shared VCores) SocketSlot {
	return SocketSlot{
		ServerIndex:     serverIndex,
		SocketIndex:     socketIndex,
		VCoresTotal:     total,
		VCoresCaaS:      caas,
		VCoresShared:    shared,
		VCoresAvailable: total.Sub(caas).Sub(shared),
	}
}

// Less orders slots by (server_index, socket_index), the tie-break order
// fixed by §4.7/§9.
func (s SocketSlot) Less(other SocketSlot) bool {
	if s.ServerIndex != other.ServerIndex {
		return s.ServerIndex < other.ServerIndex
	}
	return s.SocketIndex < other.SocketIndex
}

// UtilizationPercent returns the fraction of VCoresTotal currently consumed,
// given the vcores still available on this slot after placement.
func (s SocketSlot) UtilizationPercent(remaining VCores) float64 {
	if s.VCoresTotal <= 0 {
		return 0
	}
	used := s.VCoresTotal.Sub(remaining)
	return 100 * float64(used) / float64(s.VCoresTotal)
}
