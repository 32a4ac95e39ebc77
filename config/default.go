package config

import (
	"github.com/guohuiyuan/music-stream/instances"
	"github.com/guohuiyuan/music-stream/key"
	"github.com/guohuiyuan/music-stream/lastfm"
	"github.com/guohuiyuan/music-stream/proxy"
	"github.com/guohuiyuan/music-stream/saavn"
)

// Field is a configuration entry with its default and a short description.
type Field struct {
	Key         string
	Value       any
	Description string
}

var defaults = []Field{
	{key.ServerPort, 35280, "HTTP listen port"},
	{key.ServerOrigins, []string{"*"}, "Allowed CORS origins"},
	{key.ServerRateLimit, 20.0, "Requests per second per server, 0 disables"},
	{key.ServerBurst, 40, "Rate limiter burst"},

	{key.LogsLevel, "info", "Log level (trace, debug, info, warn, error)"},
	{key.LogsJSON, false, "Log as JSON"},

	{key.SaavnBaseURL, saavn.DefaultBaseURL, "Catalog API base URL"},
	{key.SaavnTimeout, saavn.DefaultTimeout, "Catalog search timeout"},

	{key.InstancesSource, instances.DefaultSource, "Instance list document URL"},
	{key.InstancesRefresh, instances.DefaultRefreshInterval, "How long a fetched instance list stays fresh"},
	{key.InstancesTimeout, instances.DefaultFetchTimeout, "Instance list fetch timeout"},
	{key.ProxyTimeout, proxy.DefaultProbeTimeout, "Per-instance probe timeout"},

	{key.LastfmAPIKey, "", "Last.fm API key, similar tracks are disabled without it"},
	{key.LastfmBaseURL, lastfm.DefaultBaseURL, "Last.fm API base URL"},

	{key.FeedDatabase, ":memory:", "Subscription database (sqlite DSN)"},
	{key.FeedConcurrency, 3, "Channels fetched at once"},
	{key.FeedSessions, map[string][]string{}, "Token to channel id seed map"},
}

// Defaults returns a copy of every known field.
func Defaults() []Field {
	return append([]Field(nil), defaults...)
}
