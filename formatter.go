package val

import (
	"fmt"
	"regexp"
	"strings"
)

//provider/brand-specific formatting strategies over a common base strategy

// FormatterFunc converts one raw store record into a canonical location.
// A formatter may return nil to deliberately exclude a source whose data we
// get from somewhere better.
type FormatterFunc func(store map[string]interface{}, ctx RecordContext) *Location

// formatterOverrides augment or replace fields produced by the base strategy.
// Zero-valued fields leave the base output alone; ExternalIds are appended,
// never replaced.
type formatterOverrides struct {
	Id           string
	Name         string
	LocationType LocationType
	County       string
	BookingPhone string
	ExternalIds  []ExternalId
}

var formatterRegistry = map[string]FormatterFunc{
	"walgreens":            formatWalgreens,
	"duane_reade":          formatDuaneReade,
	"duanereade":           formatDuaneReade, //both spellings seen in the feed
	"safeway":              formatSafeway,
	"centura":              formatCentura,
	"comassvax":            formatComassVax,
	"southeastern_grocers": formatSoutheasternGrocers,
	"kroger":               formatKroger,
	"cvs":                  formatCvs,
}

// dispatchFormatter picks the conversion strategy for a record. First match
// wins: exact provider_brand compound key, then brand alone, then provider
// alone, then the base strategy.
func dispatchFormatter(provider string, brand string) FormatterFunc {
	if formatter, exists := formatterRegistry[fmt.Sprintf("%s_%s", provider, brand)]; exists {
		return formatter
	}

	if formatter, exists := formatterRegistry[brand]; exists {
		return formatter
	}

	if formatter, exists := formatterRegistry[provider]; exists {
		return formatter
	}

	return formatDefault
}

// hasUsefulData filters out records too empty to be worth normalizing.
// This runs before dispatch; it is not a strategy concern.
func hasUsefulData(store map[string]interface{}) bool {
	props := getMapOptional(store, "properties")
	if props == nil {
		return false
	}

	if flag, present := getBoolOptional(props, "appointments_available"); present && flag {
		return true
	}

	if city, _ := getStringOptional(props, "city"); len(city) > 0 {
		return true
	}

	if address, _ := getStringOptional(props, "address"); len(address) > 0 {
		return true
	}

	return false
}

// formatStore runs a raw record through the matching strategy and
// canonicalizes its external ids. Returns nil for deliberately excluded
// records.
func formatStore(store map[string]interface{}, ctx RecordContext) *Location {
	props := getMapOptional(store, "properties")
	if props == nil {
		return nil
	}

	provider, _ := getStringOptional(props, "provider")
	brand, _ := getStringOptional(props, "provider_brand")

	formatter := dispatchFormatter(provider, brand)

	location := formatter(store, ctx)
	if location != nil {
		location.ExternalIds = canonicalizeExternalIds(location.ExternalIds)
	}

	return location
}

func formatDefault(store map[string]interface{}, ctx RecordContext) *Location {
	return formatBase(store, ctx, nil)
}

// formatBase is the strategy every other strategy builds on.
func formatBase(store map[string]interface{}, ctx RecordContext, overrides *formatterOverrides) *Location {
	props := getMapOptional(store, "properties")
	if props == nil {
		return nil
	}

	provider, hasProvider := getStringOptional(props, "provider")
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !hasProvider || len(provider) == 0 {
		warn("Unable to determine provider", ctx)
	}

	// Fold the brand into the provider unless the brand text already names
	// it, so we don't end up with names like walgreens_walgreens_duane_reade.
	providerBrand, _ := getStringOptional(props, "provider_brand")
	providerBrand = strings.ToLower(strings.TrimSpace(providerBrand))
	if len(providerBrand) == 0 {
		providerBrand = provider
	} else if !strings.Contains(providerBrand, provider) {
		providerBrand = fmt.Sprintf("%s_%s", provider, providerBrand)
	}

	feedId, _ := getStringCoerced(props, "id")
	locationId, _ := getStringCoerced(props, "provider_location_id")

	var id string
	if len(locationId) > 0 {
		id = fmt.Sprintf("%s:%s", providerBrand, locationId)
	} else {
		id = fmt.Sprintf("vaccinespotter:%s", feedId)
	}

	var addressLines []string
	if address, exists := getStringOptional(props, "address"); exists && len(address) > 0 {
		addressLines = []string{titleCase(address)}
	}

	name, exists := getStringOptional(props, "name")
	if !exists || len(name) == 0 {
		name, _ = getStringOptional(props, "provider_brand_name")
	}

	city, _ := getStringOptional(props, "city")
	state, _ := getStringOptional(props, "state")
	postalCode, _ := getStringCoerced(props, "postal_code")

	location := &Location{
		Id:           id,
		LocationType: LocationTypePharmacy,
		Name:         name,
		Provider:     providerBrand,
		AddressLines: addressLines,
		City:         titleCase(city),
		State:        state,
		PostalCode:   postalCode,
		Position:     parsePosition(store),
		Meta:         vaccineSpotterMeta(props),
		Availability: formatAvailability(VaccineSpotterSource, props, ctx),
	}
	location.BookingUrl, _ = getStringOptional(props, "url")

	externalIds := []ExternalId{
		{"vaccinespotter", feedId},
		{providerBrand, locationId},
	}

	if overrides != nil {
		if len(overrides.Id) > 0 {
			location.Id = overrides.Id
		}
		if len(overrides.Name) > 0 {
			location.Name = overrides.Name
		}
		if len(overrides.LocationType) > 0 {
			location.LocationType = overrides.LocationType
		}
		if len(overrides.County) > 0 {
			location.County = overrides.County
		}
		if len(overrides.BookingPhone) > 0 {
			location.BookingPhone = overrides.BookingPhone
		}
		externalIds = append(externalIds, overrides.ExternalIds...)
	}

	location.ExternalIds = externalIds

	return location
}

func parsePosition(store map[string]interface{}) *Position {
	geometry := getMapOptional(store, "geometry")
	if geometry == nil {
		return nil
	}

	coordinates, exists := geometry["coordinates"].([]interface{})
	if !exists || len(coordinates) < 2 {
		return nil
	}

	longitude, lngOk := coordinates[0].(float64)
	latitude, latOk := coordinates[1].(float64)
	if !lngOk || !latOk {
		return nil
	}

	return &Position{Latitude: latitude, Longitude: longitude}
}

func vaccineSpotterMeta(props map[string]interface{}) map[string]interface{} {
	meta := make(map[string]interface{})

	if timeZone, exists := getStringOptional(props, "time_zone"); exists {
		meta["time_zone"] = timeZone
	}

	upstream := make(map[string]interface{})
	if provider, exists := getStringOptional(props, "provider"); exists {
		upstream["provider"] = provider
	}
	if brand, exists := getStringOptional(props, "provider_brand"); exists {
		upstream["brand"] = brand
	}
	if brandId, exists := getStringCoerced(props, "provider_brand_id"); exists {
		upstream["brand_id"] = brandId
	}
	meta["vaccinespotter"] = upstream

	return meta
}

// county info for Walgreens stores, keyed by store number; loaded from an
// optional yaml table since the feed itself has no county data
var walgreensStoreCounties = map[string]string{}

func formatWalgreens(store map[string]interface{}, ctx RecordContext) *Location {
	props := getMapOptional(store, "properties")
	if props == nil {
		return nil
	}

	storeId, _ := getStringCoerced(props, "provider_location_id")

	// All Walgreens sub-brands are just flavors of normal Walgreens stores
	// (rather than visibly separate brands), except Duane Reade. Make sure
	// they all get ids with the same scheme.
	overrides := &formatterOverrides{
		Id:           fmt.Sprintf("walgreens:%s", storeId),
		ExternalIds:  []ExternalId{{"walgreens", storeId}},
		BookingPhone: "1-800-925-4733",
	}

	if county, exists := walgreensStoreCounties[storeId]; exists {
		overrides.County = titleCase(county)
	}

	return formatBase(store, ctx, overrides)
}

func formatDuaneReade(store map[string]interface{}, ctx RecordContext) *Location {
	location := formatWalgreens(store, ctx)
	if location == nil {
		return nil
	}

	// Use the more familiar name, but keep the Walgreens id; they share the
	// same store numbering.
	props := getMapOptional(store, "properties")
	if storeId, exists := getStringCoerced(props, "provider_location_id"); exists {
		location.Name = fmt.Sprintf("Duane Reade #%s", storeId)
	}

	return location
}

var SafewayStoreNumberPattern = regexp.MustCompile(`(?i)safeway\s+(\d+)`)

func formatSafeway(store map[string]interface{}, ctx RecordContext) *Location {
	location := formatBase(store, ctx, nil)
	if location == nil {
		return nil
	}

	// The provider location ids are not store numbers for Safeway; the store
	// number only shows up in the name.
	props := getMapOptional(store, "properties")
	name, _ := getStringOptional(props, "name")

	matches := SafewayStoreNumberPattern.FindStringSubmatch(name)
	if len(matches) > 1 {
		storeId := matches[1]
		location.Id = fmt.Sprintf("safeway:%s", storeId)
		location.ExternalIds = append(location.ExternalIds, ExternalId{"safeway", storeId})
		location.Name = fmt.Sprintf("Safeway #%s", storeId)
	} else {
		warn("No Safeway store number found for location", ctx)
	}

	return location
}

func formatCentura(store map[string]interface{}, ctx RecordContext) *Location {
	return formatBase(store, ctx, &formatterOverrides{
		LocationType: LocationTypeClinic,
		BookingPhone: "855-882-8065",
	})
}

func formatComassVax(store map[string]interface{}, ctx RecordContext) *Location {
	return formatBase(store, ctx, &formatterOverrides{
		LocationType: LocationTypeMassVax,
	})
}

func formatSoutheasternGrocers(store map[string]interface{}, ctx RecordContext) *Location {
	props := getMapOptional(store, "properties")
	if props == nil {
		return nil
	}

	// Most Southeastern Grocers stores have no name, and carry the provider
	// location id as "<providerId>-<storeNumber>".
	name, exists := getStringOptional(props, "name")
	if !exists || len(name) == 0 {
		name, _ = getStringOptional(props, "provider_brand_name")
	}

	overrides := &formatterOverrides{}

	locationId, _ := getStringCoerced(props, "provider_location_id")
	idParts := strings.SplitN(locationId, "-", 2)
	if len(idParts) == 2 && len(idParts[1]) > 0 {
		storeNumber := idParts[1]
		overrides.Name = fmt.Sprintf("%s #%s", name, storeNumber)

		if brand, exists := getStringOptional(props, "provider_brand"); exists {
			overrides.ExternalIds = []ExternalId{{brand, storeNumber}}
		}
	}

	return formatBase(store, ctx, overrides)
}

func formatKroger(store map[string]interface{}, ctx RecordContext) *Location {
	props := getMapOptional(store, "properties")
	if props == nil {
		return nil
	}

	// Kroger's 8-digit ids (7 when they aren't zero-padded) are Kroger-wide
	// unique identifiers, so publish them under a generic `kroger` namespace.
	overrides := &formatterOverrides{}
	storeId, _ := getStringCoerced(props, "provider_location_id")
	if len(storeId) == 7 || len(storeId) == 8 {
		overrides.ExternalIds = []ExternalId{{"kroger", storeId}}
	}

	return formatBase(store, ctx, overrides)
}

func formatCvs(store map[string]interface{}, ctx RecordContext) *Location {
	// VaccineSpotter data for CVS is not very good; we rely on the CVS API
	// elsewhere instead.
	return nil
}
