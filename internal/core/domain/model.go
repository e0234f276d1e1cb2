package domain

import "time"

type Message struct {
	ID               int
	ChatID           int64
	Username         string
	ReplyToMessageID *int
	ImageURL         string
	ImageName        string
	Text             string
}

type Action string

const (
	Typing            Action = "typing"
	SendingPhoto      Action = "sending_photo"
	UploadingDocument Action = "upload_document"
)

// Image is one uploaded picture and the pointer to its newest artifact.
type Image struct {
	ID           int64
	OwnerID      int64
	OriginalName string
	OriginalPath string
	CurrentPath  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VersionRecord is one entry of an image's version lineage.
type VersionRecord struct {
	ImageID    int64
	Version    int
	Path       string
	Operations string
	CreatedAt  time.Time
}

// Reservation is a version number handed out by a ledger together with the token that identifies this
// particular allocation. Only the holder of the token can record or release it.
type Reservation struct {
	ImageID int64
	Version int
	Token   uint64
}

// UploadOperations is the operation set recorded for the first version of an image.
const UploadOperations = `{"upload":true}`

// ImageInfo is what a header probe of an image file reveals.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}
