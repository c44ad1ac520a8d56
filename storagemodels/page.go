/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import "math"

// Page is one page of a paged query.
type Page struct {
	Entries        []Entry
	HasMoreResults bool
	// NextCursor resumes after the last entry, or repeats the start cursor
	// when the page is empty.
	NextCursor Cursor
}

// PageQuery returns a copy of q that resumes after cursor and asks for one
// entry more than the limit, so that PageOf can tell whether more follow. The
// offset is dropped when a cursor is given. A limit of math.MaxInt32 is
// treated as no limit.
func (q *Query) PageQuery(cursor Cursor) *Query {
	out := q.Clone()
	if cursor != "" {
		out.Start = cursor
		out.Offset = 0
	}
	if out.Limit != nil {
		if *out.Limit == math.MaxInt32 {
			out.Limit = nil
		} else {
			*out.Limit++
		}
	}
	return out
}

// PageOf trims the result of q.PageQuery(cursor) to the limit of q.
func (q *Query) PageOf(res *QueryResult, cursor Cursor) Page {
	entries := res.Entries
	page := Page{NextCursor: cursor}
	if q.Limit != nil && len(entries) > int(*q.Limit) {
		page.HasMoreResults = true
		entries = entries[:*q.Limit]
	}
	if len(entries) > 0 {
		page.NextCursor = entries[len(entries)-1].Cursor
	}
	page.Entries = entries
	return page
}
