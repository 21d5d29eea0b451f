package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type streamItem[T any] struct {
	Result *T         `json:"result"`
	Error  *errorBody `json:"error"`
}

// decodeStream calls fn for every {"result": ...} object in r. The objects
// may be separated by newlines or simply concatenated.
func decodeStream[T any](r io.Reader, fn func(T) error) error {
	dec := json.NewDecoder(r)
	for {
		var item streamItem[T]
		if err := dec.Decode(&item); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode stream: %w", err)
		}
		if item.Error != nil {
			return item.Error.apiError(http.StatusOK)
		}
		if item.Result == nil {
			continue
		}
		if err := fn(*item.Result); err != nil {
			return err
		}
	}
}

// list runs r and collects the streamed items. The result is never nil.
func list[T any](ctx context.Context, c *Client, r *request) ([]T, error) {
	items := make([]T, 0)
	err := c.do(ctx, r, func(body io.Reader) error {
		return decodeStream(body, func(item T) error {
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
