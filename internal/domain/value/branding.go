package value

// Branding holds the display customization for one auction event. Stored as a
// JSON blob both locally and in the remote custom_colors column.
type Branding struct {
	PrimaryColor    string `json:"primaryColor,omitempty"`
	AccentColor     string `json:"accentColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	LogoURL         string `json:"logoUrl,omitempty"`
}

func (b Branding) IsZero() bool {
	return b == Branding{}
}
