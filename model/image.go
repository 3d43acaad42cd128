package model

// Image is an uploaded picture stored under the uploads directory and
// served at /uploads/<Filename>.
type Image struct {
	ID           int64
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}

// URL is the root-relative address of the image.
func (img Image) URL() string {
	return "/uploads/" + img.Filename
}
