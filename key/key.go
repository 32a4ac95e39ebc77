// Package key names every configuration field.
package key

// Server
const (
	ServerPort      = "server.port"
	ServerOrigins   = "server.origins"
	ServerRateLimit = "server.rate_limit"
	ServerBurst     = "server.burst"
)

// Logs
const (
	LogsLevel = "logs.level"
	LogsJSON  = "logs.json"
)

// Catalog
const (
	SaavnBaseURL = "saavn.base_url"
	SaavnTimeout = "saavn.timeout"
)

// Proxy networks and their instance list
const (
	InstancesSource  = "instances.source"
	InstancesRefresh = "instances.refresh"
	InstancesTimeout = "instances.timeout"
	ProxyTimeout     = "proxy.timeout"
)

// Recommendations
const (
	LastfmAPIKey  = "lastfm.api_key"
	LastfmBaseURL = "lastfm.base_url"
)

// Feeds
const (
	FeedDatabase    = "feed.database"
	FeedConcurrency = "feed.concurrency"
	FeedSessions    = "feed.sessions"
)
