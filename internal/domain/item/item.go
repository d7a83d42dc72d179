package item

import (
	"strings"
	"time"
)

// Built-in field names accepted by Field. Matching is case-insensitive.
const (
	FieldID             = "ID"
	FieldNativeID       = "NativeID"
	FieldTitle          = "Title"
	FieldDescription    = "Description"
	FieldAuthor         = "Author"
	FieldEditor         = "Editor"
	FieldCreated        = "Created"
	FieldModified       = "Modified"
	FieldFileRef        = "FileRef"
	FieldFileType       = "FileType"
	FieldContentType    = "ContentType"
	FieldCategory       = "Category"
	FieldSourceURL      = "SourceURL"
	FieldSourceName     = "SourceName"
	FieldCollectionID   = "CollectionID"
	FieldCollectionName = "CollectionName"
	FieldAudience       = "Audience"
)

// Params carries the inputs of New.
type Params struct {
	ID             string
	NativeID       string
	Title          string
	Description    string
	Author         string
	Editor         string
	Created        time.Time
	Modified       time.Time
	FileRef        string
	FileType       string
	ContentType    string
	Category       string
	Fields         map[string]Value
	SourceURL      string
	SourceName     string
	CollectionID   string
	CollectionName string
	Federated      bool
}

// Item is one content entry in the canonical shape shared by every fetch strategy.
// Items are immutable after construction.
type Item struct {
	id             string
	nativeID       string
	title          string
	description    string
	author         string
	editor         string
	created        time.Time
	modified       time.Time
	fileRef        string
	fileType       string
	contentType    string
	category       string
	fields         map[string]Value
	sourceURL      string
	sourceName     string
	collectionID   string
	collectionName string
	federated      bool
}

// CompositeID builds the dedup key "<collectionID>:<nativeID>".
func CompositeID(collectionID, nativeID string) string {
	return collectionID + ":" + nativeID
}

// New builds an Item. When p.ID is empty the composite id is derived from
// CollectionID and NativeID. The file type falls back to the extension of FileRef.
func New(p Params) Item {
	id := p.ID
	if id == "" {
		id = CompositeID(p.CollectionID, p.NativeID)
	}
	fileType := p.FileType
	if fileType == "" {
		fileType = ExtensionOf(p.FileRef)
	}
	fields := make(map[string]Value, len(p.Fields))
	for k, v := range p.Fields {
		fields[k] = v
	}
	return Item{
		id:             id,
		nativeID:       p.NativeID,
		title:          p.Title,
		description:    p.Description,
		author:         p.Author,
		editor:         p.Editor,
		created:        p.Created,
		modified:       p.Modified,
		fileRef:        p.FileRef,
		fileType:       strings.ToLower(fileType),
		contentType:    p.ContentType,
		category:       p.Category,
		fields:         fields,
		sourceURL:      p.SourceURL,
		sourceName:     p.SourceName,
		collectionID:   p.CollectionID,
		collectionName: p.CollectionName,
		federated:      p.Federated,
	}
}

func (it Item) ID() string             { return it.id }
func (it Item) NativeID() string       { return it.nativeID }
func (it Item) Title() string          { return it.title }
func (it Item) Description() string    { return it.description }
func (it Item) Author() string         { return it.author }
func (it Item) Editor() string         { return it.editor }
func (it Item) Created() time.Time     { return it.created }
func (it Item) Modified() time.Time    { return it.modified }
func (it Item) FileRef() string        { return it.fileRef }
func (it Item) FileType() string       { return it.fileType }
func (it Item) ContentType() string    { return it.contentType }
func (it Item) Category() string       { return it.category }
func (it Item) SourceURL() string      { return it.sourceURL }
func (it Item) SourceName() string     { return it.sourceName }
func (it Item) CollectionID() string   { return it.collectionID }
func (it Item) CollectionName() string { return it.collectionName }

// IsFromFederatedSearch marks items that downstream editors must treat as read-only.
func (it Item) IsFromFederatedSearch() bool { return it.federated }

// Fields returns a copy of the open field map.
func (it Item) Fields() map[string]Value {
	out := make(map[string]Value, len(it.fields))
	for k, v := range it.fields {
		out[k] = v
	}
	return out
}

// Params returns the construction inputs of the item, suitable for New.
func (it Item) Params() Params {
	return Params{
		ID:             it.id,
		NativeID:       it.nativeID,
		Title:          it.title,
		Description:    it.description,
		Author:         it.author,
		Editor:         it.editor,
		Created:        it.created,
		Modified:       it.modified,
		FileRef:        it.fileRef,
		FileType:       it.fileType,
		ContentType:    it.contentType,
		Category:       it.category,
		Fields:         it.Fields(),
		SourceURL:      it.sourceURL,
		SourceName:     it.sourceName,
		CollectionID:   it.collectionID,
		CollectionName: it.collectionName,
		Federated:      it.federated,
	}
}

// Field resolves a field by name: built-in fields first, then the open field map
// (exact key, then case-insensitive). Unknown or blank fields yield null.
func (it Item) Field(name string) Value {
	if v, ok := it.builtin(name); ok {
		return v
	}
	if v, ok := it.fields[name]; ok {
		return v
	}
	for k, v := range it.fields {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return Null()
}

func (it Item) builtin(name string) (Value, bool) {
	text := func(s string) Value {
		if s == "" {
			return Null()
		}
		return String(s)
	}
	switch strings.ToLower(name) {
	case "id":
		return text(it.id), true
	case "nativeid":
		return text(it.nativeID), true
	case "title":
		return text(it.title), true
	case "description":
		return text(it.description), true
	case "author":
		return text(it.author), true
	case "editor":
		return text(it.editor), true
	case "created":
		return Date(it.created), true
	case "modified":
		return Date(it.modified), true
	case "fileref":
		return text(it.fileRef), true
	case "filetype":
		return text(it.fileType), true
	case "contenttype":
		return text(it.contentType), true
	case "category":
		return text(it.category), true
	case "sourceurl", "siteurl":
		return text(it.sourceURL), true
	case "sourcename", "sitename":
		return text(it.sourceName), true
	case "collectionid", "listid":
		return text(it.collectionID), true
	case "collectionname", "listname":
		return text(it.collectionName), true
	}
	return Value{}, false
}

// Audiences returns the target audience group ids carried in the Audience field.
// Ids are separated by commas or semicolons; blanks are dropped.
func (it Item) Audiences() []string {
	v := it.Field(FieldAudience)
	if v.IsEmpty() {
		return nil
	}
	parts := strings.FieldsFunc(v.Text(), func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExtensionOf returns the lower-case extension of a file reference without the dot.
func ExtensionOf(ref string) string {
	ref = strings.TrimSpace(ref)
	slash := strings.LastIndexAny(ref, "/\\")
	dot := strings.LastIndexByte(ref, '.')
	if dot < 0 || dot < slash || dot == len(ref)-1 {
		return ""
	}
	return strings.ToLower(ref[dot+1:])
}
