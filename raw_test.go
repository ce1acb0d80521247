package val

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v2"
)

func rawTestMap(t *testing.T) map[string]interface{} {
	blob := `{
		"name": "Test Pharmacy",
		"count": 12,
		"ratio": 0.5,
		"id": 7382088,
		"flag": true,
		"nothing": null,
		"tags": ["a", "b"],
		"nested": {"inner": "value"},
		"records": [{"k": "v1"}, {"k": "v2"}]
	}`

	parsed := make(map[string]interface{})
	if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
		t.Fatalf("Bad test fixture: %v", err)
	}

	return parsed
}

func TestGetMapRequired(t *testing.T) {
	parent := rawTestMap(t)

	nested, err := getMapRequired(parent, "nested")
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
		return
	}

	if nested["inner"] != "value" {
		t.Errorf("Expected nested map contents, got %v", nested)
		return
	}

	if _, err = getMapRequired(parent, "missing"); err == nil {
		t.Errorf("Expected error for missing key")
		return
	}

	if _, err = getMapRequired(parent, "name"); err == nil {
		t.Errorf("Expected error for non-map value")
		return
	}
}

func TestGetMapRequiredYamlKeys(t *testing.T) {
	//yaml unmarshals nested maps with interface{} keys
	blob := "nested:\n  inner: value\n"

	parsed := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(blob), &parsed); err != nil {
		t.Fatalf("Bad test fixture: %v", err)
	}

	nested, err := getMapRequired(parsed, "nested")
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
		return
	}

	if nested["inner"] != "value" {
		t.Errorf("Expected yaml map converted to string keys, got %v", nested)
		return
	}
}

func TestGetMapArrayRequired(t *testing.T) {
	parent := rawTestMap(t)

	records, err := getMapArrayRequired(parent, "records")
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
		return
	}

	if len(records) != 2 || records[0]["k"] != "v1" || records[1]["k"] != "v2" {
		t.Errorf("Expected typed record array, got %v", records)
		return
	}

	if _, err = getMapArrayRequired(parent, "missing"); err == nil {
		t.Errorf("Expected error for missing key")
		return
	}

	if _, err = getMapArrayRequired(parent, "tags"); err == nil {
		t.Errorf("Expected error for array of non-maps")
		return
	}
}

func TestGetStringOptional(t *testing.T) {
	parent := rawTestMap(t)

	if value, exists := getStringOptional(parent, "name"); !exists || value != "Test Pharmacy" {
		t.Errorf("Expected string value, got %q (%v)", value, exists)
		return
	}

	if _, exists := getStringOptional(parent, "missing"); exists {
		t.Errorf("Expected missing key to report absent")
		return
	}

	if _, exists := getStringOptional(parent, "count"); exists {
		t.Errorf("Expected numeric value to report absent")
		return
	}
}

func TestGetStringCoerced(t *testing.T) {
	parent := rawTestMap(t)

	if value, exists := getStringCoerced(parent, "name"); !exists || value != "Test Pharmacy" {
		t.Errorf("Expected string passthrough, got %q (%v)", value, exists)
		return
	}

	//json numbers arrive as float64; ids must not pick up a decimal point
	if value, exists := getStringCoerced(parent, "id"); !exists || value != "7382088" {
		t.Errorf("Expected numeric id coerced to 7382088, got %q (%v)", value, exists)
		return
	}

	if _, exists := getStringCoerced(parent, "flag"); exists {
		t.Errorf("Expected bool value to report absent")
		return
	}
}

func TestGetStringArrayOptional(t *testing.T) {
	parent := rawTestMap(t)

	values, exists := getStringArrayOptional(parent, "tags")
	if !exists || len(values) != 2 || values[0] != "a" {
		t.Errorf("Expected string array, got %v (%v)", values, exists)
		return
	}

	if _, exists := getStringArrayOptional(parent, "missing"); exists {
		t.Errorf("Expected missing key to report absent")
		return
	}
}

func TestGetBoolOptional(t *testing.T) {
	parent := rawTestMap(t)

	if value, present := getBoolOptional(parent, "flag"); !present || !value {
		t.Errorf("Expected true flag, got %v (%v)", value, present)
		return
	}

	//an explicit null is the same as absent
	if _, present := getBoolOptional(parent, "nothing"); present {
		t.Errorf("Expected null value to report absent")
		return
	}

	if _, present := getBoolOptional(parent, "missing"); present {
		t.Errorf("Expected missing key to report absent")
		return
	}
}

func TestGetIntOptionalWithDefault(t *testing.T) {
	parent := rawTestMap(t)

	if value, present := getIntOptionalWithDefault(parent, "count", 99); !present || value != 12 {
		t.Errorf("Expected 12, got %d (%v)", value, present)
		return
	}

	if value, present := getIntOptionalWithDefault(parent, "missing", 99); present || value != 99 {
		t.Errorf("Expected default 99, got %d (%v)", value, present)
		return
	}
}

func TestGetFloatOptional(t *testing.T) {
	parent := rawTestMap(t)

	if value, present := getFloatOptional(parent, "ratio"); !present || value != 0.5 {
		t.Errorf("Expected 0.5, got %v (%v)", value, present)
		return
	}

	if _, present := getFloatOptional(parent, "missing"); present {
		t.Errorf("Expected missing key to report absent")
		return
	}
}

func TestGetEndpointRequired(t *testing.T) {
	params := map[string]interface{}{
		"endpoint": map[string]interface{}{
			"url":    "https://example.com/feed",
			"method": "GET",
		},
	}

	endpoint, err := getEndpointRequired(params, "endpoint")
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
		return
	}

	if endpoint.Url != "https://example.com/feed" || endpoint.Method != "GET" {
		t.Errorf("Unexpected endpoint: %+v", endpoint)
		return
	}

	if endpoint.Timeout != EndpointDefaultTimeout {
		t.Errorf("Expected default timeout, got %d", endpoint.Timeout)
		return
	}

	if _, err = getEndpointRequired(params, "missing"); err == nil {
		t.Errorf("Expected error for missing key")
		return
	}

	//POST endpoints must carry a body
	params["endpoint"].(map[string]interface{})["method"] = "POST"
	if _, err = getEndpointRequired(params, "endpoint"); err == nil {
		t.Errorf("Expected error for POST endpoint without body")
		return
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"200 BROADWAY":      "200 Broadway",
		"new york":          "New York",
		"  MIXED   case  x": "Mixed Case X",
		"":                  "",
	}

	for input, expected := range cases {
		if actual := titleCase(input); actual != expected {
			t.Errorf("titleCase(%q): expected %q, got %q", input, expected, actual)
			return
		}
	}
}
