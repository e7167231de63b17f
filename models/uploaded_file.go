package models

// UploadedFile describes an image that passed validation and now lives in the store.
type UploadedFile struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Category Category `json:"category"`
	Type     string   `json:"type,omitempty"`
	Size     int64    `json:"size"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Format   string   `json:"format"`
}
