package enex

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

const skipMessage = "Skipped note due to missing title or content."

// ExtractedNote is one note pulled out of a validated archive. Content is
// the raw, unsanitized ENML body.
type ExtractedNote struct {
	ID        string
	Title     string
	CreatedAt string
	UpdatedAt string
	Tags      []string
	Content   string
	Resources []ExtractedResource
}

// ExtractedResource carries attachment metadata plus the decoded payload.
// Data is nil when the payload was absent or not decodable.
type ExtractedResource struct {
	ID       string
	FileName string
	Mime     string
	Size     *int64
	Data     []byte
}

// Warning records a per-note soft failure. The note it refers to was dropped
// but the rest of the import proceeds.
type Warning struct {
	NoteTitle string
	Message   string
}

func (w Warning) String() string {
	if w.NoteTitle != "" {
		return w.NoteTitle + ": " + w.Message
	}
	return w.Message
}

// ExtractNotes walks the note children of the root in document order.
// Notes missing a title or body are skipped with a warning rather than
// failing the import. Identifiers are derived from structural position so
// identical input always yields identical identifiers.
func ExtractNotes(root *Element) ([]ExtractedNote, []Warning) {
	notes := make([]ExtractedNote, 0)
	warnings := make([]Warning, 0)

	for ordinal, noteElement := range root.childElements("note") {
		title := noteElement.childText("title")
		content := ""
		if contentElement := noteElement.child("content"); contentElement != nil {
			content = strings.TrimSpace(contentElement.text())
		}
		if title == "" || content == "" {
			warnings = append(warnings, Warning{NoteTitle: title, Message: skipMessage})
			continue
		}

		id := noteElement.childText("guid")
		if id == "" {
			id = fmt.Sprintf("note-%d", ordinal+1)
		}

		var tags []string
		for _, tagElement := range noteElement.childElements("tag") {
			tag := strings.TrimSpace(tagElement.text())
			if tag == "" {
				continue
			}
			tags = append(tags, tag)
		}

		var resources []ExtractedResource
		for index, resourceElement := range noteElement.childElements("resource") {
			resources = append(resources, extractResource(resourceElement, ordinal+1, index+1))
		}

		notes = append(notes, ExtractedNote{
			ID:        id,
			Title:     title,
			CreatedAt: noteElement.childText("created"),
			UpdatedAt: noteElement.childText("updated"),
			Tags:      tags,
			Content:   content,
			Resources: resources,
		})
	}
	return notes, warnings
}

func extractResource(resourceElement *Element, noteOrdinal, resourceOrdinal int) ExtractedResource {
	resource := ExtractedResource{
		ID:   fmt.Sprintf("resource-%d-%d", noteOrdinal, resourceOrdinal),
		Mime: resourceElement.childText("mime"),
	}
	if attributes := resourceElement.child("resource-attributes"); attributes != nil {
		resource.FileName = attributes.childText("file-name")
	}

	dataElement := resourceElement.child("data")
	if dataElement == nil {
		return resource
	}
	encoding := strings.ToLower(strings.TrimSpace(dataElement.Attrs["encoding"]))
	if encoding != "" && encoding != "base64" {
		// Unknown payload structure, leave the size undetermined.
		return resource
	}

	payload := normalizeBase64(dataElement.text())
	if !isBase64(payload) {
		return resource
	}
	size := base64Size(payload)
	resource.Size = &size

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return resource
	}
	resource.Data = decoded
	return resource
}

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)

// normalizeBase64 removes whitespace so payloads wrapped at fixed column
// widths still pass the pattern check.
func normalizeBase64(payload string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, payload)
}

func isBase64(payload string) bool {
	return payload != "" && len(payload)%4 == 0 && base64Pattern.MatchString(payload)
}

// base64Size computes the decoded size arithmetically without allocating
// the decoded buffer.
func base64Size(payload string) int64 {
	size := int64(len(payload)) / 4 * 3
	if strings.HasSuffix(payload, "==") {
		return size - 2
	}
	if strings.HasSuffix(payload, "=") {
		return size - 1
	}
	return size
}
