package model

// Settings is the singleton site settings row.
type Settings struct {
	SiteName        string
	SiteDescription string
	BaseURL         string
}

const (
	DefaultSiteName        = "Grand River Analytics"
	DefaultSiteDescription = "Independent equity research across financials, technology, and consumer sectors."
)

// DefaultSettings returns the settings used to seed the database.
func DefaultSettings(baseURL string) Settings {
	return Settings{
		SiteName:        DefaultSiteName,
		SiteDescription: DefaultSiteDescription,
		BaseURL:         baseURL,
	}
}
