package addon

// StreamItem refers to https://github.com/Stremio/stremio-addon-sdk/blob/master/docs/api/responses/stream.md
type StreamItem struct {
	Name          string               `json:"name"`
	Title         string               `json:"title"`
	URL           string               `json:"url"`
	Type          string               `json:"type"`
	Availability  int                  `json:"availability"`
	BehaviorHints *StreamBehaviorHints `json:"behaviorHints,omitempty"`
}

type StreamBehaviorHints struct {
	NotWebReady bool   `json:"notWebReady"`
	BingeGroup  string `json:"bingeGroup,omitempty"`
}

type GetStreamsResponse struct {
	Streams []StreamItem `json:"streams"`
}
