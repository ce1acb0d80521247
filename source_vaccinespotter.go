package val

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strings"

	"gopkg.in/yaml.v2"
)

const SourceTypeVaccineSpotter = "vaccinespotter"

// availability source tag on every record this source emits
const VaccineSpotterSource = "vaxwatch-vaccinespotter"

const VaccineSpotterStateUrlFormat = "https://www.vaccinespotter.org/api/v0/states/%s.json"
const VaccineSpotterCacheTTL = 60 //seconds

const VaccineSpotterParamKeyStates = "states"
const VaccineSpotterParamKeyUrlFormat = "url_format"
const VaccineSpotterParamKeyWalgreensStoreInfo = "walgreens_store_info"

type SourceVaccineSpotter struct {
	SourceName string
	States     []string
	UrlFormat  string
}

func NewSourceVaccineSpotter(name string) Source {
	source := new(SourceVaccineSpotter)
	source.SourceName = name
	source.UrlFormat = VaccineSpotterStateUrlFormat
	source.States = []string{"NJ"}

	return source
}

func (s *SourceVaccineSpotter) Type() string {
	return SourceTypeVaccineSpotter
}

func (s *SourceVaccineSpotter) Name() string {
	return s.SourceName
}

func (s *SourceVaccineSpotter) Configure(params map[string]interface{}) error {
	if states, exists := getStringOptional(params, VaccineSpotterParamKeyStates); exists {
		s.States = splitStates(states)
	}

	if urlFormat, exists := getStringOptional(params, VaccineSpotterParamKeyUrlFormat); exists {
		s.UrlFormat = urlFormat
	}

	if path, exists := getStringOptional(params, VaccineSpotterParamKeyWalgreensStoreInfo); exists {
		if err := loadWalgreensStoreInfo(path); err != nil {
			return err
		}
	}

	return nil
}

// CheckAvailability fetches each configured state feed in turn, normalizes
// every useful record through the formatter registry, and hands the results
// to the sink. A transport failure aborts the whole run; records already
// emitted stand.
func (s *SourceVaccineSpotter) CheckAvailability(handler LocationHandler) (int, error) {
	if len(s.States) == 0 {
		Log.Warnf("%s: no states configured", s.Name())
	}

	count := 0

	for _, state := range s.States {
		stores, err := s.queryState(state)
		if err != nil {
			return count, err
		}

		for _, store := range stores {
			if !hasUsefulData(store) {
				continue
			}

			ctx := storeRecordContext(s.Name(), store)

			location := formatStore(store, ctx)
			if location == nil {
				continue
			}

			handler(location)
			count++
		}
	}

	return count, nil
}

func (s *SourceVaccineSpotter) queryState(state string) ([]map[string]interface{}, error) {
	endpoint := new(Endpoint)
	endpoint.Method = "GET"
	endpoint.Url = fmt.Sprintf(s.UrlFormat, state)

	body, _, err := endpoint.FetchCachedWithTTL(s.Name(), VaccineSpotterCacheTTL)
	if err != nil {
		return nil, err
	}

	apiResp := make(map[string]interface{})
	if err = json.Unmarshal(body, &apiResp); err != nil {
		return nil, err
	}

	stores, err := getMapArrayRequired(apiResp, "features")
	if err != nil {
		return nil, err
	}

	Log.Debugf("%s: fetched %d locations for %s", s.Name(), len(stores), state)

	return stores, nil
}

// storeRecordContext captures the identity of one raw record for warnings.
// Built fresh per record so diagnostics never leak across records.
func storeRecordContext(source string, store map[string]interface{}) RecordContext {
	ctx := RecordContext{Source: source}

	if props := getMapOptional(store, "properties"); props != nil {
		ctx.Id, _ = getStringCoerced(props, "id")
		ctx.Name, _ = getStringOptional(props, "name")
		ctx.Provider, _ = getStringOptional(props, "provider")
	}

	return ctx
}

func splitStates(states string) []string {
	parts := strings.Split(states, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) > 0 {
			cleaned = append(cleaned, part)
		}
	}

	return cleaned
}

// loadWalgreensStoreInfo reads the store number to county table used by the
// walgreens formatter.
func loadWalgreensStoreInfo(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}

	counties := make(map[string]string)
	if err = yaml.Unmarshal(data, &counties); err != nil {
		return err
	}

	for storeId, county := range counties {
		walgreensStoreCounties[storeId] = county
	}

	Log.Debugf("Loaded county info for %d Walgreens stores", len(counties))

	return nil
}
