package val

//canonical location/availability model that all provider feeds normalize into

type Available string

const (
	AvailableYes     Available = "YES"
	AvailableNo      Available = "NO"
	AvailableUnknown Available = "UNKNOWN"
)

type LocationType string

const (
	LocationTypePharmacy LocationType = "PHARMACY"
	LocationTypeClinic   LocationType = "CLINIC"
	LocationTypeMassVax  LocationType = "MASS_VAX"
)

// ExternalId is a (namespace, value) pair identifying a location in some
// provider's or aggregator's own numbering scheme. Marshals to a two-element
// JSON array to match the wire shape consumers expect.
type ExternalId [2]string

func (e ExternalId) Namespace() string {
	return e[0]
}

func (e ExternalId) Value() string {
	return e[1]
}

type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CapacityEntry is an aggregated count of available appointment opportunities
// for one (date, type) pair.
type CapacityEntry struct {
	Date           string    `json:"date"`
	Type           string    `json:"type,omitempty"`
	Available      Available `json:"available"`
	AvailableCount int       `json:"available_count"`
	Products       []string  `json:"products,omitempty"`
	Dose           string    `json:"dose,omitempty"`
}

// Slot is a single precisely time-stamped appointment opportunity.
type Slot struct {
	Start     string    `json:"start"`
	End       string    `json:"end,omitempty"`
	Available Available `json:"available"`
	Products  []string  `json:"products,omitempty"`
	Dose      string    `json:"dose,omitempty"`
}

type Availability struct {
	Source    string          `json:"source"`
	ValidAt   string          `json:"valid_at,omitempty"`
	CheckedAt string          `json:"checked_at"`
	Available Available       `json:"available"`
	Capacity  []CapacityEntry `json:"capacity,omitempty"`
	Slots     []Slot          `json:"slots,omitempty"`
	Products  []string        `json:"products,omitempty"`
	Doses     []string        `json:"doses,omitempty"`
	IsPublic  bool            `json:"is_public,omitempty"`
}

// Location is the output unit of the pipeline. One is built per raw record
// per ingestion pass and handed straight to the output sink.
type Location struct {
	Id           string                 `json:"id,omitempty"`
	LocationType LocationType           `json:"location_type"`
	Name         string                 `json:"name"`
	Provider     string                 `json:"provider,omitempty"`
	AddressLines []string               `json:"address_lines,omitempty"`
	City         string                 `json:"city,omitempty"`
	State        string                 `json:"state,omitempty"`
	PostalCode   string                 `json:"postal_code,omitempty"`
	County       string                 `json:"county,omitempty"`
	Position     *Position              `json:"position,omitempty"`
	BookingUrl   string                 `json:"booking_url,omitempty"`
	BookingPhone string                 `json:"booking_phone,omitempty"`
	InfoUrl      string                 `json:"info_url,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Meta         map[string]interface{} `json:"meta,omitempty"`
	ExternalIds  []ExternalId           `json:"external_ids,omitempty"`
	Availability Availability           `json:"availability"`
}

// LocationHandler is the output sink: invoked once synchronously per
// successfully formatted location, in production order. Must not panic;
// errors are the sink's own problem.
type LocationHandler func(location *Location)
