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
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sapcc/go-bits/logg"
	"github.com/sapcc/go-bits/osext"

	"github.com/sapcc/vdu-placement-engine/internal/catalog"
	"github.com/sapcc/vdu-placement-engine/internal/engine"
	"github.com/sapcc/vdu-placement-engine/internal/resolver"
)

func main() {
	catalogPath := osext.GetenvOrDefault("VDU_PLACER_CATALOG_PATH", "/etc/vdu-placer/catalog.yaml")
	listenAddress := osext.GetenvOrDefault("VDU_PLACER_LISTEN_ADDRESS", ":8080")
	dimensioningPath := osext.GetenvOrDefault("VDU_PLACER_DIMENSIONING_PATH", "")

	cat, err := catalog.NewRuleCatalog(catalogPath)
	if err != nil {
		logg.Fatal("cannot load rule catalog: %s", err.Error())
	}

	dimensioning := resolver.NewStaticDimensioningTable()
	if dimensioningPath != "" {
		if err := loadDimensioningTable(dimensioningPath, dimensioning); err != nil {
			logg.Fatal("cannot load dimensioning table: %s", err.Error())
		}
	}

	res := resolver.New(cat, dimensioning)
	eng := engine.New(cat, res)

	mainRouter := mux.NewRouter()
	mainRouter.Methods(http.MethodPost).Path("/v1/validate").HandlerFunc(newValidateHandler(eng))
	mainRouter.Methods(http.MethodGet).Path("/metrics").Handler(promhttp.Handler())

	handler := cors.Default().Handler(mainRouter)

	logg.Info("listening on %s", listenAddress)
	logg.Fatal("%s", http.ListenAndServe(listenAddress, handler).Error())
}
