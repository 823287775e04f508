package config

// Default file paths.
const (
	// DefaultConfigPath is the config file read when --config is not given.
	DefaultConfigPath = "sitehooks.config.json"
)

// Content store defaults.
const (
	DefaultNotionBaseURL = "https://api.notion.com"
	DefaultNotionVersion = "2022-06-28"
	// PublishedStatus is the Status select value the feed filters on.
	PublishedStatus = "Published"
)

// Lead intake defaults.
const (
	DefaultSheetName    = "Slee Automation Resource Leads"
	DefaultLeadsTab     = "Leads"
	DefaultTimezone     = "America/Los_Angeles"
	DefaultSource       = "resources-page"
	DefaultResourcesURL = "https://sleeautomation.com/resources-tab"
	DefaultFromName     = "Sandy Lee"
	DefaultServiceName  = "Slee Automation Resource Leads"
)

// Server defaults.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 3000
	DefaultRequestTimeout = "30s"
)
