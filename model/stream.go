package model

// Service identifies which upstream produced a StreamResult.
type Service string

const (
	ServiceSaavn     Service = "jiosaavn"
	ServicePiped     Service = "piped"
	ServiceInvidious Service = "invidious"
)

// StreamURL is one playable candidate. The field set is the union of what the
// upstreams report; each source fills only its own fields.
type StreamURL struct {
	URL             string `json:"url"`
	Type            string `json:"type,omitempty"`
	Quality         string `json:"quality,omitempty"`
	Format          string `json:"format,omitempty"`
	MimeType        string `json:"mimeType,omitempty"`
	Codec           string `json:"codec,omitempty"`
	Bitrate         int64  `json:"bitrate,omitempty"`
	Itag            int    `json:"itag,omitempty"`
	ContentLength   int64  `json:"contentLength,omitempty"`
	Container       string `json:"container,omitempty"`
	Encoding        string `json:"encoding,omitempty"`
	AudioQuality    string `json:"audioQuality,omitempty"`
	AudioSampleRate int    `json:"audioSampleRate,omitempty"`
	AudioChannels   int    `json:"audioChannels,omitempty"`
	AudioTrackID    string `json:"audioTrackId,omitempty"`
	AudioTrackName  string `json:"audioTrackName,omitempty"`
	VideoOnly       bool   `json:"videoOnly,omitempty"`
	Source          string `json:"source,omitempty"`
}

// StreamResult is the outcome of a single resolution attempt against one source.
// Error is set iff Success is false. Instance is empty for the catalog source.
type StreamResult struct {
	Service       Service     `json:"service"`
	Instance      string      `json:"instance,omitempty"`
	Success       bool        `json:"success"`
	StreamURL     string      `json:"streamUrl,omitempty"`
	StreamingURLs []StreamURL `json:"streamingUrls"`
	Metadata      any         `json:"metadata,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// Failed builds a failure result for a source.
func Failed(service Service, msg string) StreamResult {
	return StreamResult{Service: service, Success: false, Error: msg}
}

// InstanceSet lists the base URLs of every proxy network mirror, in trust order.
type InstanceSet struct {
	Piped     []string `json:"piped"`
	Invidious []string `json:"invidious"`
}

// Clone returns a deep copy so callers can't mutate a shared snapshot.
func (s InstanceSet) Clone() InstanceSet {
	return InstanceSet{
		Piped:     append([]string(nil), s.Piped...),
		Invidious: append([]string(nil), s.Invidious...),
	}
}

// Empty reports whether neither network has an instance.
func (s InstanceSet) Empty() bool {
	return len(s.Piped) == 0 && len(s.Invidious) == 0
}
