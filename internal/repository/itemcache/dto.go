package itemcache

import (
	"time"

	"github.com/kailas-cloud/rollup/internal/domain/item"
)

const entryVersion = 1

type entryDTO struct {
	Version int       `json:"v"`
	Items   []itemDTO `json:"items"`
}

// itemDTO is the cache wire form of item.Item. Field values keep their variant
// through item.Value's tagged JSON encoding.
type itemDTO struct {
	ID             string                `json:"id"`
	NativeID       string                `json:"nativeId,omitempty"`
	Title          string                `json:"title,omitempty"`
	Description    string                `json:"description,omitempty"`
	Author         string                `json:"author,omitempty"`
	Editor         string                `json:"editor,omitempty"`
	Created        *time.Time            `json:"created,omitempty"`
	Modified       *time.Time            `json:"modified,omitempty"`
	FileRef        string                `json:"fileRef,omitempty"`
	FileType       string                `json:"fileType,omitempty"`
	ContentType    string                `json:"contentType,omitempty"`
	Category       string                `json:"category,omitempty"`
	Fields         map[string]item.Value `json:"fields,omitempty"`
	SourceURL      string                `json:"sourceUrl,omitempty"`
	SourceName     string                `json:"sourceName,omitempty"`
	CollectionID   string                `json:"collectionId,omitempty"`
	CollectionName string                `json:"collectionName,omitempty"`
	Federated      bool                  `json:"federated,omitempty"`
}

func toDTO(it item.Item) itemDTO {
	p := it.Params()
	return itemDTO{
		ID:             p.ID,
		NativeID:       p.NativeID,
		Title:          p.Title,
		Description:    p.Description,
		Author:         p.Author,
		Editor:         p.Editor,
		Created:        timePtr(p.Created),
		Modified:       timePtr(p.Modified),
		FileRef:        p.FileRef,
		FileType:       p.FileType,
		ContentType:    p.ContentType,
		Category:       p.Category,
		Fields:         p.Fields,
		SourceURL:      p.SourceURL,
		SourceName:     p.SourceName,
		CollectionID:   p.CollectionID,
		CollectionName: p.CollectionName,
		Federated:      p.Federated,
	}
}

func fromDTO(d itemDTO) item.Item {
	return item.New(item.Params{
		ID:             d.ID,
		NativeID:       d.NativeID,
		Title:          d.Title,
		Description:    d.Description,
		Author:         d.Author,
		Editor:         d.Editor,
		Created:        timeVal(d.Created),
		Modified:       timeVal(d.Modified),
		FileRef:        d.FileRef,
		FileType:       d.FileType,
		ContentType:    d.ContentType,
		Category:       d.Category,
		Fields:         d.Fields,
		SourceURL:      d.SourceURL,
		SourceName:     d.SourceName,
		CollectionID:   d.CollectionID,
		CollectionName: d.CollectionName,
		Federated:      d.Federated,
	})
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeVal(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
