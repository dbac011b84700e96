package feed

// ImageURLs holds the resolution tiers for one image, ordered by increasing size.
// InlineTiny is an optional base64-encoded micro preview embedded in the record
// itself; the rest are fetchable URLs.
type ImageURLs struct {
	InlineTiny string `json:"inlineTiny,omitempty"`
	Thumbnail  string `json:"thumbnail"`
	Small      string `json:"small"`
	Regular    string `json:"regular"`
	Original   string `json:"original"`
}

// ImageRecord is one photo as returned by the feed API.
// Records are immutable once fetched; list refreshes replace them wholesale.
type ImageRecord struct {
	ID       string    `json:"id"`
	Width    int       `json:"width,omitempty"`  // 0 = unknown, resolved by probe
	Height   int       `json:"height,omitempty"` // 0 = unknown, resolved by probe
	URLs     ImageURLs `json:"urls"`
	Category string    `json:"category"`
}

// HasDimensions reports whether the record carries usable intrinsic dimensions
func (r ImageRecord) HasDimensions() bool {
	return r.Width > 0 && r.Height > 0
}

// ProbeURL returns the largest non-original URL, used for dimension probing.
// Biasing toward the larger tier favors aspect-ratio correctness over decode cost.
func (r ImageRecord) ProbeURL() string {
	switch {
	case r.URLs.Regular != "":
		return r.URLs.Regular
	case r.URLs.Small != "":
		return r.URLs.Small
	default:
		return r.URLs.Thumbnail
	}
}

// FullURL returns the URL used for the front (full-resolution) layer in the grid
func (r ImageRecord) FullURL() string {
	if r.URLs.Regular != "" {
		return r.URLs.Regular
	}
	return r.URLs.Small
}

// DetailURL returns the URL used by the modal detail view
func (r ImageRecord) DetailURL() string {
	if r.URLs.Original != "" {
		return r.URLs.Original
	}
	return r.FullURL()
}

// Category is a feed category used for filtering, never for layout
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ImagePage is one page of the paginated image list
type ImagePage struct {
	Records []ImageRecord `json:"images"`
	HasMore bool          `json:"hasMore"`
}
