package val

import (
	"sort"
	"time"
)

const AvailabilityTimeFormat = "2006-01-02T15:04:05.000Z07:00"

//assembles one canonical availability sub-record from the raw signals on a
//provider record

// formatAvailability builds the availability sub-record for a raw record.
// The `available` enum comes from the explicit upstream boolean only; the
// aggregated capacity never overrides it. Capacity and slots are attached
// only when the slot list validates, and a single bad slot skips both for
// the whole record.
func formatAvailability(source string, props map[string]interface{}, ctx RecordContext) Availability {
	return formatAvailabilityWithTime(source, props, ctx, time.Now())
}

func formatAvailabilityWithTime(source string, props map[string]interface{}, ctx RecordContext, now time.Time) Availability {
	available := AvailableUnknown
	if flag, present := getBoolOptional(props, "appointments_available"); present {
		if flag {
			available = AvailableYes
		} else {
			available = AvailableNo
		}
	}

	validAt, _ := getStringOptional(props, "appointments_last_fetched")

	availability := Availability{
		Source:    source,
		ValidAt:   validAt,
		CheckedAt: now.UTC().Format(AvailabilityTimeFormat),
		Available: available,
	}

	rawSlots := getMapArrayOptional(props, "appointments")

	if validateSlots(rawSlots, ctx) {
		capacity := aggregateCapacity(rawSlots)
		availability.Capacity = capacity
		availability.Slots = buildSlots(rawSlots)

		var products []string
		var doses []string
		seenProducts := make(map[string]bool)
		seenDoses := make(map[string]bool)

		for _, entry := range capacity {
			for _, product := range entry.Products {
				if len(product) > 0 && !seenProducts[product] {
					seenProducts[product] = true
					products = append(products, product)
				}
			}

			if len(entry.Dose) > 0 && !seenDoses[entry.Dose] {
				seenDoses[entry.Dose] = true
				doses = append(doses, entry.Dose)
			}
		}

		availability.Products = products
		availability.Doses = doses
	}

	if availability.Products == nil {
		availability.Products = trueKeys(getMapOptional(props, "appointment_vaccine_types"))
	}

	if availability.Doses == nil {
		availability.Doses = trueKeys(getMapOptional(props, "appointment_types"))
	}

	return availability
}

// trueKeys collects the keys of a boolean-valued mapping whose flags are set,
// skipping the "unknown" sentinel. Keys are sorted so output is stable.
func trueKeys(flags map[string]interface{}) []string {
	var keys []string

	for key, value := range flags {
		if key == "unknown" {
			continue
		}

		if flag, ok := value.(bool); ok && flag {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys
}
