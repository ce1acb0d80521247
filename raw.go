package val

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

//accessor helpers for raw provider records and yaml-sourced params, both of
//which arrive as untyped nested maps

func getMapRequired(parent map[string]interface{}, key string) (map[string]interface{}, error) {
	if _, exists := parent[key]; !exists {
		return nil, fmt.Errorf("Missing expected key: %s", key)
	}

	if keyTyped, ok := parent[key].(map[string]interface{}); ok {
		return keyTyped, nil
	}

	if typed, ok := parent[key].(map[interface{}]interface{}); !ok {
		return nil, fmt.Errorf("Expecting a map value for key %s, got '%T' instead", key, parent[key])
	} else {
		keyTyped := make(map[string]interface{})

		for k, v := range typed {
			if typedKey, ok := k.(string); !ok {
				return nil, fmt.Errorf("Expecting a string value key in map %s, got '%T' instead", key, k)
			} else {
				keyTyped[typedKey] = v
			}
		}

		return keyTyped, nil
	}
}

func getMapOptional(parent map[string]interface{}, key string) map[string]interface{} {
	if _, exists := parent[key]; exists {
		if value, err := getMapRequired(parent, key); err == nil {
			return value
		} else {
			Log.Warnf("%v", err)
			return nil
		}
	}
	return nil
}

func getMapArrayRequired(parent map[string]interface{}, key string) ([]map[string]interface{}, error) {
	if _, exists := parent[key]; !exists {
		return nil, fmt.Errorf("Missing expected key: %s", key)
	}

	if untypedArr, ok := parent[key].([]interface{}); !ok {
		return nil, fmt.Errorf("Expecting an array value for key %s, got '%T' instead", key, parent[key])
	} else {
		typedArray := make([]map[string]interface{}, len(untypedArr))

		for idx, obj := range untypedArr {
			switch typed := obj.(type) {
			case map[string]interface{}:
				typedArray[idx] = typed
			case map[interface{}]interface{}:
				typedArray[idx] = make(map[string]interface{})
				for key2, val := range typed {
					keyStr, ok := key2.(string)
					if !ok {
						return nil, fmt.Errorf("Expecting string key for index %d of array %s, got '%T' instead", idx, key, key2)
					}
					typedArray[idx][keyStr] = val
				}
			default:
				return nil, fmt.Errorf("Expecting map for index %d of array %s, got '%T' instead", idx, key, obj)
			}
		}

		return typedArray, nil
	}
}

func getMapArrayOptional(parent map[string]interface{}, key string) []map[string]interface{} {
	if _, exists := parent[key]; exists {
		if value, err := getMapArrayRequired(parent, key); err == nil {
			return value
		} else {
			Log.Warnf("%v", err)
			return nil
		}
	}
	return nil
}

func getStringRequired(parent map[string]interface{}, key string) (string, error) {
	if _, exists := parent[key]; !exists {
		return "", fmt.Errorf("Missing expected key: %s", key)
	}

	if typed, ok := parent[key].(string); !ok {
		return "", fmt.Errorf("Expecting a string value for key %s, got '%T' instead", key, parent[key])
	} else {
		return typed, nil
	}
}

func getStringOptional(parent map[string]interface{}, key string) (string, bool) {
	if _, exists := parent[key]; exists {
		if value, err := getStringRequired(parent, key); err == nil {
			return value, true
		}
		return "", false
	}
	return "", false
}

// like getStringOptional but also accepts numeric values, since providers
// disagree on whether ids are strings or numbers
func getStringCoerced(parent map[string]interface{}, key string) (string, bool) {
	if _, exists := parent[key]; !exists {
		return "", false
	}

	switch typed := parent[key].(type) {
	case string:
		return typed, true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case int:
		return strconv.Itoa(typed), true
	default:
		return "", false
	}
}

func getStringArrayOptional(parent map[string]interface{}, key string) ([]string, bool) {
	if _, exists := parent[key]; !exists {
		return nil, false
	}

	untypedArr, ok := parent[key].([]interface{})
	if !ok {
		return nil, false
	}

	typedArray := make([]string, 0, len(untypedArr))
	for _, obj := range untypedArr {
		if str, ok := obj.(string); ok {
			typedArray = append(typedArray, str)
		}
	}

	return typedArray, true
}

// tri-state: (value, present). A nil value counts as absent.
func getBoolOptional(parent map[string]interface{}, key string) (bool, bool) {
	if value, exists := parent[key]; exists && value != nil {
		if typed, ok := value.(bool); ok {
			return typed, true
		}
	}
	return false, false
}

func getFloatOptional(parent map[string]interface{}, key string) (float64, bool) {
	if _, exists := parent[key]; exists {
		switch typed := parent[key].(type) {
		case float64:
			return typed, true
		case int:
			return float64(typed), true
		}
		Log.Warnf("Expecting a float64 value for key %s, got '%T' instead", key, parent[key])
	}
	return 0, false
}

func getIntOptionalWithDefault(parent map[string]interface{}, key string, defaultValue int) (int, bool) {
	if _, exists := parent[key]; exists {
		if value, ok := parent[key].(int); ok {
			return value, true
		} else if value, ok := parent[key].(float64); ok {
			return int(value), true
		} else {
			Log.Warnf("Expecting an int value for key %s, got '%T' instead", key, parent[key])
			return defaultValue, false
		}
	}
	return defaultValue, false
}

func getEndpointRequired(parent map[string]interface{}, key string) (*Endpoint, error) {
	if params, err := getMapRequired(parent, key); err == nil {
		if endpoint, err := NewEndpoint(params); err == nil {
			return endpoint, nil
		} else {
			return nil, err
		}
	} else {
		return nil, err
	}
}

func getEndpointOptional(parent map[string]interface{}, key string) *Endpoint {
	if _, exists := parent[key]; !exists {
		return nil
	}

	endpoint, err := getEndpointRequired(parent, key)
	if err != nil {
		Log.Warnf("%v", err)
	}

	return endpoint
}

var NumericIdPattern = regexp.MustCompile(`^\d+$`)

// strips insignificant leading zeros from purely numeric identifiers;
// anything else passes through untouched
func unpadNumber(value string) string {
	if !NumericIdPattern.MatchString(value) {
		return value
	}

	unpadded := strings.TrimLeft(value, "0")
	if len(unpadded) == 0 {
		return "0"
	}

	return unpadded
}

// uppercases the first letter of each word, lowercases the rest;
// provider feeds love to SHOUT their addresses
func titleCase(text string) string {
	words := strings.Fields(strings.ToLower(text))
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}

	return strings.Join(words, " ")
}
