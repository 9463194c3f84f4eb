package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const maxErrorBody = 64 * 1024

// StatusError is returned for every non-2xx answer.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status is %s: %s", e.Status, e.Message)
	}

	return "status is " + e.Status
}

type Request struct {
	client  *http.Client
	url     string
	method  string
	body    io.Reader
	err     error
	headers map[string]string
	args    map[string]string
	logger  *zap.SugaredLogger
}

func New(c *http.Client, logger *zap.SugaredLogger) *Request {
	return &Request{client: c, method: http.MethodGet, logger: logger}
}

func (r *Request) URL(url string) *Request {
	r.url = url

	return r
}

func (r *Request) Put() *Request {
	r.method = http.MethodPut

	return r
}

func (r *Request) Post() *Request {
	r.method = http.MethodPost

	return r
}

func (r *Request) Delete() *Request {
	r.method = http.MethodDelete

	return r
}

func (r *Request) Headers(headers map[string]string) *Request {
	r.headers = headers

	return r
}

func (r *Request) Args(args map[string]string) *Request {
	r.args = args

	return r
}

func (r *Request) Body(body io.Reader) *Request {
	r.body = body

	return r
}

// JSON sets obj, encoded, as the request body.
func (r *Request) JSON(obj any) *Request {
	b, err := json.Marshal(obj)
	if err != nil {
		r.err = err

		return r
	}

	r.body = bytes.NewReader(b)

	if r.headers == nil {
		r.headers = make(map[string]string)
	}

	r.headers["Content-Type"] = "application/json"

	return r
}

func (r *Request) DoRes(ctx context.Context) (*http.Response, error) {
	if r.err != nil {
		return nil, r.err
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return nil, err
	}

	req.Header.Del("User-Agent")
	req.Header.Set("Accept", "application/json")

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	if len(r.args) > 0 {
		q := req.URL.Query()

		for k, v := range r.args {
			q.Add(k, v)
		}

		req.URL.RawQuery = q.Encode()
	}

	res, err := r.client.Do(req)
	if err != nil {
		if r.logger != nil {
			r.logger.Infof("%s %s - error %s", r.method, req.URL, err.Error())
		}

		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if r.logger != nil {
			r.logger.Warnf("%s %s - %d", r.method, req.URL, res.StatusCode)
		}

		return nil, statusError(res)
	}

	if r.logger != nil {
		r.logger.Debugf("%s %s - %d", r.method, req.URL, res.StatusCode)
	}

	return res, nil
}

func (r *Request) Do(ctx context.Context) (io.ReadCloser, error) {
	res, err := r.DoRes(ctx)
	if err != nil {
		return nil, err
	}

	if res.Body == nil {
		return nil, fmt.Errorf("null body")
	}

	return res.Body, nil
}

// GetJSON performs the request and decodes the answer into obj.
// Despite the name it works with any method.
func (r *Request) GetJSON(ctx context.Context, obj any) error {
	b, err := r.Do(ctx)
	if err != nil {
		return err
	}

	defer b.Close()

	return json.NewDecoder(b).Decode(obj)
}

// Exec performs the request and drops the answer body.
func (r *Request) Exec(ctx context.Context) error {
	b, err := r.Do(ctx)
	if err != nil {
		return err
	}

	defer b.Close()

	_, err = io.Copy(io.Discard, b)

	return err
}

func statusError(res *http.Response) error {
	e := &StatusError{Code: res.StatusCode, Status: res.Status}

	if res.Body == nil {
		return e
	}

	defer res.Body.Close()

	var m struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(io.LimitReader(res.Body, maxErrorBody)).Decode(&m); err == nil {
		e.Message = m.Message
	}

	return e
}
