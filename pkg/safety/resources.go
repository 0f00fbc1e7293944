package safety

// Resource is a crisis hotline shown alongside a detected crisis.
type Resource struct {
	Country string `json:"country"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Hours   string `json:"hours"`
}

var hotlines = []Resource{
	{Country: "India", Name: "AASRA", Phone: "91-9820466726", Hours: "24/7"},
	{Country: "US/Canada", Name: "988 Suicide & Crisis Lifeline", Phone: "988", Hours: "24/7"},
	{Country: "UK", Name: "Samaritans", Phone: "116 123", Hours: "24/7"},
}

// Resources returns the hotline list.
func Resources() []Resource {
	out := make([]Resource, len(hotlines))
	copy(out, hotlines)
	return out
}
