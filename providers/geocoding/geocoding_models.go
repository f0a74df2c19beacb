package geocoding

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type geocodeResult struct {
	AddressComponents []addressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
}

type geocodeResponse struct {
	Results      []geocodeResult `json:"results"`
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Location is what gets stored on a settled transaction.
type Location struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Neighbourhood string  `json:"neighbourhood,omitempty"`
	Sublocality   string  `json:"sublocality,omitempty"`
	Municipality  string  `json:"municipality,omitempty"`
	FullArea      string  `json:"fullArea,omitempty"`
}

func (r geocodeResult) component(kind string) (addressComponent, bool) {
	for _, c := range r.AddressComponents {
		for _, t := range c.Types {
			if t == kind {
				return c, true
			}
		}
	}
	return addressComponent{}, false
}
