package val

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Washington State DoH hosts data for multiple states for some providers
// where they have API access. In practice this is pretty much only Costco.

const SourceTypeWaDoh = "wa_doh"

// availability source tag on every record this source emits
const WaDohSource = "vaxwatch-wa-doh"

const WaDohAPIUrl = "https://apim-vaccs-prod.azure-api.net/open/graphql"
const WaDohPageSize = 200

const WaDohParamKeyStates = "states"
const WaDohParamKeyEndpoint = "endpoint"

const WaDohLocationsQuery = `query SearchLocations($searchInput: SearchLocationsInput) {
  searchLocations(searchInput: $searchInput) {
    paging { pageSize pageNum total }
    locations {
      locationId locationName locationType providerId providerName
      addressLine1 addressLine2 city state zipcode county
      latitude longitude description phone email schedulingLink
      vaccineAvailability vaccineTypes infoLink timeZoneId directions
      updatedAt rawDataSourceName
      accessibleParking additionalSupports commCardAvailable
      commCardBrailleAvailable driveupSite interpretersAvailable
      interpretersDesc supportUrl waitingArea walkupSite
      wheelchairAccessible scheduleOnline scheduleByPhone
      scheduleByEmail walkIn waitList
    }
  }
}`

var WaDohAPIHeaders = []Header{
	{
		Name:  "Accept",
		Value: "application/json",
	},
	{
		Name:  "Accept-Encoding",
		Value: "gzip, br",
	},
	{
		Name:  "Content-Type",
		Value: "application/json",
	},
}

// seemingly bad location entries that we skip outright
var waDohBadLocationIds = map[string]bool{
	"2255":         true,
	"2755":         true,
	"riteaid-5288": true,
}

// WA doesn't support some US territories.
var waDohUnsupportedStates = map[string]bool{
	"AA": true,
	"AP": true,
	"AE": true,
}

var CostcoStoreEmailPattern = regexp.MustCompile(`(?i)^w0*(\d+)phm@`)
var AppointmentPlusIdPattern = regexp.MustCompile(`-0*(\d+)$`)

type SourceWaDoh struct {
	SourceName string
	States     []string
	Url        string
}

func NewSourceWaDoh(name string) Source {
	source := new(SourceWaDoh)
	source.SourceName = name
	source.Url = WaDohAPIUrl

	return source
}

func (s *SourceWaDoh) Type() string {
	return SourceTypeWaDoh
}

func (s *SourceWaDoh) Name() string {
	return s.SourceName
}

func (s *SourceWaDoh) Configure(params map[string]interface{}) error {
	if states, exists := getStringOptional(params, WaDohParamKeyStates); exists {
		filtered := make([]string, 0)
		for _, state := range splitStates(states) {
			if !waDohUnsupportedStates[state] {
				filtered = append(filtered, state)
			}
		}
		s.States = filtered
	}

	if endpoint := getEndpointOptional(params, WaDohParamKeyEndpoint); endpoint != nil {
		s.Url = endpoint.Url
	}

	return nil
}

// CheckAvailability pages through the search API for each configured state
// and emits every usable location. A transport error or an embedded GraphQL
// error payload aborts the run for this source; pages already emitted stand.
func (s *SourceWaDoh) CheckAvailability(handler LocationHandler) (int, error) {
	if len(s.States) == 0 {
		Log.Errorf("%s: no states configured", s.Name())
	}

	count := 0

	for _, state := range s.States {
		pager := NewPager(WaDohPageSize, func(pageNum int, pageSize int) (*Page, error) {
			return s.fetchPage(state, pageNum, pageSize)
		})

		for pager.Next() {
			for _, data := range pager.Records() {
				// Skip non-Costco data from WA for now. WA publishes fairly
				// comprehensive data within the state, but we only want the
				// sources they publish nationwide data for.
				if state == "WA" {
					dsn, _ := getStringOptional(data, "rawDataSourceName")
					if dsn != "CostcoLocationsFn" && dsn != "CostcoVaccineAvailabilityFn" {
						continue
					}
				}

				location := s.formatLocation(data)
				if location == nil {
					continue
				}

				handler(location)
				count++
			}
		}

		if err := pager.Err(); err != nil {
			return count, err
		}
	}

	return count, nil
}

func (s *SourceWaDoh) fetchPage(state string, pageNum int, pageSize int) (*Page, error) {
	payload := map[string]interface{}{
		"query": WaDohLocationsQuery,
		"variables": map[string]interface{}{
			"searchInput": map[string]interface{}{
				"state": state,
				"paging": map[string]interface{}{
					"pageNum":  pageNum,
					"pageSize": pageSize,
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := new(Endpoint)
	endpoint.Method = "POST"
	endpoint.Url = s.Url
	endpoint.Body = string(body)
	endpoint.Headers = WaDohAPIHeaders

	respBody, err := endpoint.Fetch(s.Name())
	if err != nil {
		return nil, err
	}

	apiResp := make(map[string]interface{})
	if err = json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, err
	}

	// GraphQL reports failures as an error payload on a 200 response.
	if errors := getMapArrayOptional(apiResp, "errors"); len(errors) > 0 {
		messages := make([]string, 0, len(errors))
		for _, errEntry := range errors {
			if message, exists := getStringOptional(errEntry, "message"); exists {
				messages = append(messages, message)
			}
		}
		return nil, fmt.Errorf("API error: %s", strings.Join(messages, ", "))
	}

	data := getMapOptional(apiResp, "data")
	if data == nil {
		return nil, fmt.Errorf("Missing 'data' in API response")
	}

	searchLocations := getMapOptional(data, "searchLocations")
	if searchLocations == nil {
		return nil, fmt.Errorf("Missing 'searchLocations' in API response")
	}

	page := new(Page)
	page.Records = getMapArrayOptional(searchLocations, "locations")

	if paging := getMapOptional(searchLocations, "paging"); paging != nil {
		page.Total, _ = getIntOptionalWithDefault(paging, "total", 0)
		page.PageSize, _ = getIntOptionalWithDefault(paging, "pageSize", 0)
	}

	return page, nil
}

// metadata fields copied through verbatim when present; mostly accessibility
// and scheduling-channel flags the downstream UI displays
var waDohMetaFields = []string{
	"accessibleParking",
	"additionalSupports",
	"commCardAvailable",
	"commCardBrailleAvailable",
	"driveupSite",
	"interpretersAvailable",
	"interpretersDesc",
	"waitingArea",
	"walkupSite",
	"wheelchairAccessible",
	"scheduleOnline",
	"scheduleByPhone",
	"scheduleByEmail",
	"walkIn",
	"waitList",
}

// formatLocation converts one API location entry to the canonical model.
// Returns nil for entries known to be junk.
func (s *SourceWaDoh) formatLocation(data map[string]interface{}) *Location {
	locationId, _ := getStringCoerced(data, "locationId")
	if waDohBadLocationIds[locationId] {
		return nil
	}

	name, _ := getStringOptional(data, "locationName")

	ctx := RecordContext{Source: s.Name(), Id: locationId, Name: name}
	ctx.Provider, _ = getStringOptional(data, "providerName")

	provider := ctx.Provider
	if len(provider) == 0 {
		// The API has Costco data under several raw source names but often
		// no provider name.
		dsn, _ := getStringOptional(data, "rawDataSourceName")
		if strings.Contains(strings.ToLower(name), "costco") ||
			dsn == "CostcoVaccineAvailabilityFn" || dsn == "CostcoLocationsFn" {
			provider = "costco"
		}
	}
	if len(provider) == 0 {
		// Emit the record anyway with the provider unset; dropping it would
		// hide real availability data.
		warn("Unable to determine provider", ctx)
	}

	addressLines := make([]string, 0, 2)
	if line, exists := getStringOptional(data, "addressLine1"); exists && len(line) > 0 {
		addressLines = append(addressLines, line)
	}
	if line, exists := getStringOptional(data, "addressLine2"); exists && len(line) > 0 {
		addressLines = append(addressLines, line)
	}

	rawState, _ := getStringOptional(data, "state")
	state, known := stateCode(rawState)
	if !known {
		warn(fmt.Sprintf("Unknown state %q", rawState), ctx)
	}

	externalIds := []ExternalId{{"wa_doh", locationId}}

	// The API has ids like `costco-293`, but the number is not a Costco
	// store number (it appears to be an appointment-plus id). The store
	// contact e-mail DOES have the store number though.
	if provider == "costco" {
		email, _ := getStringOptional(data, "email")
		if matches := CostcoStoreEmailPattern.FindStringSubmatch(email); len(matches) > 1 {
			externalIds = append(externalIds, ExternalId{"costco", matches[1]})
		} else {
			warn(fmt.Sprintf("Unable to determine Costco store number for %q", locationId), ctx)
		}
	}

	schedulingLink, _ := getStringOptional(data, "schedulingLink")
	if strings.Contains(strings.ToLower(schedulingLink), "appointment-plus") {
		if matches := AppointmentPlusIdPattern.FindStringSubmatch(locationId); len(matches) > 1 {
			externalIds = append(externalIds, ExternalId{"appointment_plus", matches[1]})
		}
	}

	meta := make(map[string]interface{})
	for _, field := range waDohMetaFields {
		if value, exists := data[field]; exists && value != nil {
			meta[field] = value
		}
	}

	location := &Location{
		Name:         name,
		ExternalIds:  canonicalizeExternalIds(externalIds),
		Provider:     provider,
		LocationType: s.toLocationType(data, ctx),
		AddressLines: addressLines,
		State:        state,
		Meta:         meta,
		Availability: s.formatAvailability(data, ctx),
	}

	location.City, _ = getStringOptional(data, "city")
	location.PostalCode, _ = getStringCoerced(data, "zipcode")
	location.County, _ = getStringOptional(data, "county")
	location.BookingPhone, _ = getStringOptional(data, "phone")
	location.BookingUrl = schedulingLink
	location.InfoUrl, _ = getStringOptional(data, "infoLink")

	latitude, latOk := getFloatOptional(data, "latitude")
	longitude, lngOk := getFloatOptional(data, "longitude")
	if latOk && lngOk {
		location.Position = &Position{Latitude: latitude, Longitude: longitude}
	}

	description, _ := getStringOptional(data, "description")
	directions, _ := getStringOptional(data, "directions")
	location.Description = strings.TrimSpace(fmt.Sprintf("%s\n\n%s", description, directions))

	return location
}

func (s *SourceWaDoh) formatAvailability(data map[string]interface{}, ctx RecordContext) Availability {
	validAt, _ := getStringOptional(data, "updatedAt")

	availability := Availability{
		Source:    WaDohSource,
		ValidAt:   validAt,
		CheckedAt: time.Now().UTC().Format(AvailabilityTimeFormat),
		Available: s.toAvailable(data, ctx),
		IsPublic:  true,
	}

	if vaccineTypes, exists := getStringArrayOptional(data, "vaccineTypes"); exists {
		var products ProductSet
		for _, vaccineType := range vaccineTypes {
			product := matchProduct(vaccineType)
			if len(product) == 0 {
				warn(fmt.Sprintf("Unknown product type %q", vaccineType), ctx)
				continue
			}
			products = products.Add(product)
		}
		if arr := products.ToStringArray(); len(arr) > 0 {
			availability.Products = arr
		}
	}

	return availability
}

func (s *SourceWaDoh) toAvailable(data map[string]interface{}, ctx RecordContext) Available {
	value, _ := getStringOptional(data, "vaccineAvailability")

	switch strings.ToLower(value) {
	case "available":
		return AvailableYes
	case "unavailable":
		return AvailableNo
	case "", "unknown":
		return AvailableUnknown
	}

	warn(fmt.Sprintf("Unknown availability %q", value), ctx)
	return AvailableUnknown
}

func (s *SourceWaDoh) toLocationType(data map[string]interface{}, ctx RecordContext) LocationType {
	value, _ := getStringOptional(data, "locationType")

	switch strings.ToLower(value) {
	case "clinic":
		return LocationTypeClinic
	case "pharmacy", "store":
		return LocationTypePharmacy
	}

	warn(fmt.Sprintf("Unknown location type %q", value), ctx)
	return LocationTypePharmacy
}
