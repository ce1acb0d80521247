package val

import (
	"reflect"
	"testing"
	"time"
)

func availabilityTestTime() time.Time {
	return time.Date(2021, 5, 4, 12, 0, 0, 0, time.UTC)
}

func TestFormatAvailabilityExplicitFlag(t *testing.T) {
	//the explicit upstream boolean always wins; an empty slot list
	//never downgrades it and a populated one never upgrades it
	props := map[string]interface{}{
		"appointments_available":    false,
		"appointments_last_fetched": "2021-05-04T09:00:00.000Z",
		"appointments":              []interface{}{},
	}

	availability := formatAvailabilityWithTime(VaccineSpotterSource, props, testContext(), availabilityTestTime())

	if availability.Available != AvailableNo {
		t.Errorf("Expected available %s, got %s", AvailableNo, availability.Available)
		return
	}

	if availability.Capacity != nil {
		t.Errorf("Expected no capacity for empty slot list, got %v", availability.Capacity)
		return
	}

	if availability.Slots != nil {
		t.Errorf("Expected no slots for empty slot list, got %v", availability.Slots)
		return
	}

	if availability.ValidAt != "2021-05-04T09:00:00.000Z" {
		t.Errorf("Expected valid_at from last fetched time, got %s", availability.ValidAt)
		return
	}

	if availability.Source != VaccineSpotterSource {
		t.Errorf("Expected source %s, got %s", VaccineSpotterSource, availability.Source)
		return
	}
}

func TestFormatAvailabilityMissingFlag(t *testing.T) {
	props := map[string]interface{}{
		"appointments": []interface{}{
			map[string]interface{}{"date": "2021-05-04", "type": "Moderna"},
		},
	}

	availability := formatAvailabilityWithTime(VaccineSpotterSource, props, testContext(), availabilityTestTime())

	if availability.Available != AvailableUnknown {
		t.Errorf("Expected available %s without an explicit flag, got %s", AvailableUnknown, availability.Available)
		return
	}

	//a nil flag counts as absent too
	props["appointments_available"] = nil
	availability = formatAvailabilityWithTime(VaccineSpotterSource, props, testContext(), availabilityTestTime())

	if availability.Available != AvailableUnknown {
		t.Errorf("Expected available %s for nil flag, got %s", AvailableUnknown, availability.Available)
		return
	}
}

func TestFormatAvailabilityCapacityAndSlots(t *testing.T) {
	props := map[string]interface{}{
		"appointments_available": true,
		"appointments": []interface{}{
			map[string]interface{}{
				"time":              "2021-05-04T09:50:00.000-04:00",
				"type":              "Moderna",
				"vaccine_types":     []interface{}{"moderna"},
				"appointment_types": []interface{}{"all_doses"},
			},
			map[string]interface{}{
				"time":              "2021-05-04T10:10:00.000-04:00",
				"type":              "Moderna",
				"vaccine_types":     []interface{}{"moderna"},
				"appointment_types": []interface{}{"all_doses"},
			},
		},
	}

	availability := formatAvailabilityWithTime(VaccineSpotterSource, props, testContext(), availabilityTestTime())

	if availability.Available != AvailableYes {
		t.Errorf("Expected available %s, got %s", AvailableYes, availability.Available)
		return
	}

	if len(availability.Capacity) != 1 || availability.Capacity[0].AvailableCount != 2 {
		t.Errorf("Expected one capacity bucket with count 2, got %v", availability.Capacity)
		return
	}

	if len(availability.Slots) != 2 {
		t.Errorf("Expected 2 slots, got %v", availability.Slots)
		return
	}

	if !reflect.DeepEqual(availability.Products, []string{"moderna"}) {
		t.Errorf("Expected products [moderna], got %v", availability.Products)
		return
	}

	if !reflect.DeepEqual(availability.Doses, []string{"all_doses"}) {
		t.Errorf("Expected doses [all_doses], got %v", availability.Doses)
		return
	}
}

func TestFormatAvailabilityValidationShortCircuit(t *testing.T) {
	//one bad slot and the whole record gets no capacity and no slots,
	//but the availability enum still comes through
	props := map[string]interface{}{
		"appointments_available": true,
		"appointments": []interface{}{
			map[string]interface{}{"date": "2021-05-04", "type": "Moderna"},
			map[string]interface{}{"type": "Pfizer"}, //no time, no date
		},
	}

	availability := formatAvailabilityWithTime(VaccineSpotterSource, props, testContext(), availabilityTestTime())

	if availability.Available != AvailableYes {
		t.Errorf("Expected available %s, got %s", AvailableYes, availability.Available)
		return
	}

	if availability.Capacity != nil {
		t.Errorf("Expected no capacity after failed validation, got %v", availability.Capacity)
		return
	}

	if availability.Slots != nil {
		t.Errorf("Expected no slots after failed validation, got %v", availability.Slots)
		return
	}
}

func TestFormatAvailabilityFallbackFlags(t *testing.T) {
	//without usable slot data, products and doses come from the boolean
	//flag maps; the "unknown" sentinel is skipped
	props := map[string]interface{}{
		"appointments_available": true,
		"appointment_vaccine_types": map[string]interface{}{
			"moderna": true,
			"pfizer":  false,
			"unknown": true,
		},
		"appointment_types": map[string]interface{}{
			"all_doses": true,
		},
	}

	availability := formatAvailabilityWithTime(VaccineSpotterSource, props, testContext(), availabilityTestTime())

	if !reflect.DeepEqual(availability.Products, []string{"moderna"}) {
		t.Errorf("Expected products [moderna], got %v", availability.Products)
		return
	}

	if !reflect.DeepEqual(availability.Doses, []string{"all_doses"}) {
		t.Errorf("Expected doses [all_doses], got %v", availability.Doses)
		return
	}
}

func TestFormatAvailabilityDeterministic(t *testing.T) {
	props := map[string]interface{}{
		"appointments_available": true,
		"appointment_vaccine_types": map[string]interface{}{
			"moderna": true,
			"pfizer":  true,
			"jj":      true,
		},
		"appointments": []interface{}{
			map[string]interface{}{"date": "2021-05-04", "type": "Moderna"},
			map[string]interface{}{"date": "2021-05-05", "type": "Pfizer"},
		},
	}

	now := availabilityTestTime()
	first := formatAvailabilityWithTime(VaccineSpotterSource, props, testContext(), now)
	second := formatAvailabilityWithTime(VaccineSpotterSource, props, testContext(), now)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical output for identical input and clock:\n%+v\n%+v", first, second)
		return
	}

	if first.CheckedAt != "2021-05-04T12:00:00.000Z" {
		t.Errorf("Expected checked_at from the supplied clock, got %s", first.CheckedAt)
		return
	}
}
