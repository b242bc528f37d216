package syncer

import (
	"notewise/internal/vault"
)

// DerivedMetadata builds the filterable metadata stored alongside a
// note's vector. Year and month components are broken out so range
// filters work without date parsing on the index side; months are
// 1-indexed.
func DerivedMetadata(note vault.Note) map[string]any {
	return map[string]any{
		"fileName":      note.Name,
		"extension":     note.Extension,
		"created":       note.Created.UnixMilli(),
		"createdYear":   note.Created.Year(),
		"createdMonth":  int(note.Created.Month()),
		"modified":      note.Modified.UnixMilli(),
		"modifiedYear":  note.Modified.Year(),
		"modifiedMonth": int(note.Modified.Month()),
	}
}
