package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a0-lang/a0/internal/runtime/values"
)

// HTTPGet implements the single read-mode `http.get` tool. The
// cancellation context given to Call is threaded straight into the
// request so a host-supplied timeout deadline interrupts an
// in-flight request rather than only being checked at the next
// statement boundary.
type HTTPGet struct {
	client *http.Client
}

// NewHTTPGet creates the http.get tool.
func NewHTTPGet() *HTTPGet {
	return &HTTPGet{client: &http.Client{}}
}

func (t *HTTPGet) Call(ctx context.Context, args *values.Record) (values.Value, int, error) {
	urlV, ok := args.Get("url")
	if !ok || urlV.Kind != values.KString {
		return values.Null, 0, fmt.Errorf("http.get requires a string argument 'url'")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlV.S, nil)
	if err != nil {
		return values.Null, 0, err
	}
	if headersV, ok := args.Get("headers"); ok && headersV.Kind == values.KRecord {
		headersV.R.Each(func(k string, v values.Value) {
			if v.Kind == values.KString {
				req.Header.Set(k, v.S)
			}
		})
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return values.Null, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return values.Null, 0, err
	}

	out := values.NewRecord()
	out.Set("status", values.Number(float64(resp.StatusCode)))
	out.Set("body", values.String(string(body)))
	return values.RecordVal(out), 0, nil
}
