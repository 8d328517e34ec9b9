package hub

// ActivityMessage is one capability invocation pushed to the live feed.
type ActivityMessage struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Capability string         `json:"capability"`
	Args       map[string]any `json:"args,omitempty"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	SiteURL    string         `json:"site_url,omitempty"`
	Ts         int64          `json:"ts"`
}

// SnapshotMessage carries the recent activity a client sees on connect.
type SnapshotMessage struct {
	Type string            `json:"type"`
	List []ActivityMessage `json:"list"`
}

// BatchMessage groups activity for one site flushed in the same interval.
type BatchMessage struct {
	Type    string            `json:"type"`
	SiteURL string            `json:"site_url,omitempty"`
	Items   []ActivityMessage `json:"items"`
}

type ClientMessage struct {
	Type    string `json:"type"`
	SiteURL string `json:"site_url,omitempty"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type hubBroadcast struct {
	data    []byte
	siteURL string
}
