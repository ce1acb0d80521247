package val

import (
	"fmt"
	"sort"
)

//validation and aggregation of raw appointment slot lists

// Fields we expect to see on raw appointment slot records.
var knownSlotFields = map[string]bool{
	"time":              true,
	"date":              true,
	"type":              true,
	"vaccine_types":     true,
	"appointment_types": true,
}

// validateSlots checks whether a raw slot list is present and shaped the way
// we expect. Structural problems fail validation (the caller must then skip
// capacity/slot aggregation for the whole record); unexpected extra fields
// only log a warning so we know to take a closer look.
func validateSlots(rawSlots []map[string]interface{}, ctx RecordContext) bool {
	if len(rawSlots) == 0 {
		return false
	}

	var invalid string
	var warning string

	for _, slot := range rawSlots {
		_, hasTime := getStringOptional(slot, "time")
		_, hasDate := getStringOptional(slot, "date")
		if !hasTime && !hasDate {
			invalid = "slot is missing either 'time' or 'date'"
			break
		}

		if value, exists := slot["vaccine_types"]; exists && value != nil {
			if _, ok := value.([]interface{}); !ok {
				invalid = "slot 'vaccine_types' is not an array"
				break
			}
		}

		if value, exists := slot["appointment_types"]; exists && value != nil {
			if arr, ok := value.([]interface{}); !ok || len(arr) > 1 {
				invalid = "slot 'appointment_types' is not an array w/ one entry"
				break
			}
		}

		if len(warning) == 0 {
			for field := range slot {
				if !knownSlotFields[field] {
					// one warning is enough, we just want to be told
					warning = fmt.Sprintf("Unexpected field '%s' on slots", field)
					break
				}
			}
		}
	}

	if len(warning) > 0 {
		warn(warning, ctx)
	}

	if len(invalid) > 0 {
		warn(invalid, ctx)
		return false
	}

	return true
}

// effectiveDate returns the slot's day: the `date` field when present,
// otherwise the date portion of the ISO-8601 `time`.
func effectiveDate(slot map[string]interface{}) string {
	if date, exists := getStringOptional(slot, "date"); exists {
		return date
	}

	if timestamp, exists := getStringOptional(slot, "time"); exists && len(timestamp) >= 10 {
		return timestamp[:10]
	}

	return ""
}

func slotDose(slot map[string]interface{}) string {
	if doses, ok := getStringArrayOptional(slot, "appointment_types"); ok && len(doses) > 0 {
		return doses[0]
	}

	return ""
}

// aggregateCapacity buckets raw slots by (date, type) and counts them. The
// first slot in a bucket decides its products and dose; later slots only
// increment the count. Returns nil when there is nothing to aggregate.
func aggregateCapacity(rawSlots []map[string]interface{}) []CapacityEntry {
	if rawSlots == nil {
		return nil
	}

	buckets := make(map[string]*CapacityEntry)

	for _, slot := range rawSlots {
		date := effectiveDate(slot)
		slotType, _ := getStringOptional(slot, "type")

		key := fmt.Sprintf("%s::%s", date, slotType)
		if entry, exists := buckets[key]; exists {
			entry.AvailableCount++
		} else {
			products, _ := getStringArrayOptional(slot, "vaccine_types")
			buckets[key] = &CapacityEntry{
				Date:           date,
				Type:           slotType,
				Available:      AvailableYes,
				AvailableCount: 1,
				Products:       products,
				Dose:           slotDose(slot),
			}
		}
	}

	if len(buckets) == 0 {
		return nil
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	capacity := make([]CapacityEntry, 0, len(keys))
	for _, key := range keys {
		capacity = append(capacity, *buckets[key])
	}

	return capacity
}

// buildSlots converts raw slots into an ordered slot list. Only applies when
// every raw slot carries a precise timestamp; some locations only publish
// capacity by day, and those get no slot list at all.
func buildSlots(rawSlots []map[string]interface{}) []Slot {
	if rawSlots == nil {
		return nil
	}

	for _, slot := range rawSlots {
		if _, exists := getStringOptional(slot, "time"); !exists {
			return nil
		}
	}

	slots := make([]Slot, 0, len(rawSlots))
	for _, slot := range rawSlots {
		start, _ := getStringOptional(slot, "time")
		products, _ := getStringArrayOptional(slot, "vaccine_types")

		slots = append(slots, Slot{
			Start: start,
			// only available slots appear in source data
			Available: AvailableYes,
			Products:  products,
			Dose:      slotDose(slot),
		})
	}

	return slots
}
