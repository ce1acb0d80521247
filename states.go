package val

//US state lookup table; feeds disagree on whether they send names or codes

import "strings"

var stateCodesByName = map[string]string{
	"Alabama":              "AL",
	"Alaska":               "AK",
	"American Samoa":       "AS",
	"Arizona":              "AZ",
	"Arkansas":             "AR",
	"California":           "CA",
	"Colorado":             "CO",
	"Connecticut":          "CT",
	"Delaware":             "DE",
	"District of Columbia": "DC",
	"Florida":              "FL",
	"Georgia":              "GA",
	"Guam":                 "GU",
	"Hawaii":               "HI",
	"Idaho":                "ID",
	"Illinois":             "IL",
	"Indiana":              "IN",
	"Iowa":                 "IA",
	"Kansas":               "KS",
	"Kentucky":             "KY",
	"Louisiana":            "LA",
	"Maine":                "ME",
	"Maryland":             "MD",
	"Massachusetts":        "MA",
	"Michigan":             "MI",
	"Minnesota":            "MN",
	"Mississippi":          "MS",
	"Missouri":             "MO",
	"Montana":              "MT",
	"Nebraska":             "NE",
	"Nevada":               "NV",
	"New Hampshire":        "NH",
	"New Jersey":           "NJ",
	"New Mexico":           "NM",
	"New York":             "NY",
	"North Carolina":       "NC",
	"North Dakota":         "ND",
	"Northern Mariana Islands": "MP",
	"Ohio":           "OH",
	"Oklahoma":       "OK",
	"Oregon":         "OR",
	"Pennsylvania":   "PA",
	"Puerto Rico":    "PR",
	"Rhode Island":   "RI",
	"South Carolina": "SC",
	"South Dakota":   "SD",
	"Tennessee":      "TN",
	"Texas":          "TX",
	"Utah":           "UT",
	"Vermont":        "VT",
	"Virgin Islands": "VI",
	"Virginia":       "VA",
	"Washington":     "WA",
	"West Virginia":  "WV",
	"Wisconsin":      "WI",
	"Wyoming":        "WY",
}

var validStateCodes = initValidStateCodes()

func initValidStateCodes() map[string]bool {
	codes := make(map[string]bool, len(stateCodesByName)+3)
	for _, code := range stateCodesByName {
		codes[code] = true
	}

	// armed forces "states"
	codes["AA"] = true
	codes["AE"] = true
	codes["AP"] = true

	return codes
}

var stateCodesByLowerName = initStateCodesByLowerName()

func initStateCodesByLowerName() map[string]string {
	codes := make(map[string]string, len(stateCodesByName))
	for name, code := range stateCodesByName {
		codes[strings.ToLower(name)] = code
	}

	return codes
}

// stateCode resolves a state name or postal code to the postal code,
// ignoring case either way.
func stateCode(nameOrCode string) (string, bool) {
	if code := strings.ToUpper(nameOrCode); validStateCodes[code] {
		return code, true
	}

	if code, exists := stateCodesByLowerName[strings.ToLower(nameOrCode)]; exists {
		return code, true
	}

	return "", false
}
