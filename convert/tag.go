/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package convert

import (
	"reflect"
	"strings"
)

// TagName is the struct tag consulted for physical names and flags.
const TagName = "store"

// Tag is the parsed form of a `store:"name,key,noindex"` struct tag.
type Tag struct {
	Name    string
	Skip    bool
	Key     bool
	NoIndex bool
}

// ParseTag reads the store tag of a struct field.
func ParseTag(st reflect.StructTag) Tag {
	raw, ok := st.Lookup(TagName)
	if !ok {
		return Tag{}
	}
	if raw == "-" {
		return Tag{Skip: true}
	}
	parts := strings.Split(raw, ",")
	tag := Tag{Name: strings.TrimSpace(parts[0])}
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "key":
			tag.Key = true
		case "noindex":
			tag.NoIndex = true
		}
	}
	return tag
}
