package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Insert はテーブルに1行を挿入し、挿入された行の表現を返す。
// POST /rest/v1/{table}
func (c *Client) Insert(ctx context.Context, table string, row any) (json.RawMessage, error) {
	header := http.Header{}
	header.Set("Prefer", "return=representation")

	body, err := c.do(ctx, http.MethodPost, "/rest/v1/"+url.PathEscape(table), nil, header, row)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: insert into %s", ErrMalformedResponse, table)
	}
	return json.RawMessage(body), nil
}

// Upsert は onConflict 列をキーとして1行を挿入または更新する。
func (c *Client) Upsert(ctx context.Context, table, onConflict string, row any) error {
	header := http.Header{}
	header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	query := url.Values{}
	query.Set("on_conflict", onConflict)

	_, err := c.do(ctx, http.MethodPost, "/rest/v1/"+url.PathEscape(table), query, header, row)
	return err
}
