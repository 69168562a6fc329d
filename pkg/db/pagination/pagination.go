// Package pagination implements keyset paging with opaque page tokens.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

var ErrInvalidCursor = errors.New("invalid_cursor")

// Pagination is bound from the page_token and page_size query parameters.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=20"`
}

// Cursor points at the last row of the previous page.
type Cursor struct {
	ID string `json:"id"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

// EncodeCursor returns a token that is safe to pass back as a query parameter.
func EncodeCursor(cursor Cursor) (string, error) {
	b, err := json.Marshal(cursor)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(token string) (Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil || cursor.ID == "" {
		return Cursor{}, ErrInvalidCursor
	}
	return cursor, nil
}

// Page trims rows fetched with limit+1 to limit. The next token points at
// the last returned row and is only set when another page exists.
func Page[T any](rows []*T, limit int, cursorOf func(*T) Cursor) ([]*T, *PageInfo, error) {
	if limit <= 0 || len(rows) <= limit {
		return rows, &PageInfo{HasMore: false}, nil
	}

	rows = rows[:limit]
	token, err := EncodeCursor(cursorOf(rows[len(rows)-1]))
	if err != nil {
		return nil, nil, err
	}
	return rows, &PageInfo{NextPageToken: token, HasMore: true}, nil
}
