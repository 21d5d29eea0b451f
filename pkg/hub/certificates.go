package hub

import (
	"context"
	"net/http"

	"github.com/hubconsole/hubconsole-go/pkg/model"
)

func signingRecordsPath() []string {
	return []string{"certificate-authority", "api", "v1", "signing", "records"}
}

// ListSigningRecords lists certificates issued by the hub, optionally
// restricted to ids.
func (c *Client) ListSigningRecords(ctx context.Context, ids ...string) ([]model.SigningRecord, error) {
	return list[model.SigningRecord](ctx, c, &request{
		method: http.MethodGet,
		path:   signingRecordsPath(),
		query:  idQuery("idFilter", ids),
	})
}

// DeleteSigningRecords deletes signing records and returns the count
// deleted.
func (c *Client) DeleteSigningRecords(ctx context.Context, ids ...string) (int64, error) {
	return c.deleteByID(ctx, &request{path: signingRecordsPath()}, ids)
}

// deleteByID issues a bulk delete with an idFilter query and decodes the
// {"count": n} answer.
func (c *Client) deleteByID(ctx context.Context, r *request, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	r.method = http.MethodDelete
	r.query = idQuery("idFilter", ids)

	var resp struct {
		Count model.Count `json:"count"`
	}
	if err := c.do(ctx, r, decodeJSON(&resp)); err != nil {
		return 0, err
	}
	return int64(resp.Count), nil
}
