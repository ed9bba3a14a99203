package jobboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const contentType = "application/json"

// apiError is the error body the backend returns for non-2xx responses.
type apiError struct {
	Detail string `json:"detail"`
}

func (c *Client) getJSON(path string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, c.APIURL+path, nil)
	if err != nil {
		return err
	}

	c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	return c.doJSON(req, target)
}

func (c *Client) postJSON(path string, q url.Values, body, target any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.APIURL+path, buf)
	if err != nil {
		return err
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	return c.doJSON(req, target)
}

func (c *Client) deleteJSON(path string, target any) error {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodDelete, c.APIURL+path, nil)
	if err != nil {
		return err
	}

	c.setHeaders(req)

	return c.doJSON(req, target)
}

// postMultipart uploads a local file as the "file" form field. The progress
// callback receives the percentage of bytes written so far.
func (c *Client) postMultipart(path, filePath string, onProgress func(percent int)) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	field, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, err
	}

	reader := io.Reader(file)
	if onProgress != nil && stat.Size() > 0 {
		reader = &progressReader{r: file, total: stat.Size(), report: onProgress}
	}

	if _, err = io.Copy(field, reader); err != nil {
		return nil, err
	}
	w.Close()

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.APIURL+path, &b)
	if err != nil {
		return nil, err
	}

	c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, badStatus(resp, data)
	}

	return data, nil
}

// getBinary streams the response body into dst.
func (c *Client) getBinary(path string, dst io.Writer) error {
	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, c.APIURL+path, nil)
	if err != nil {
		return err
	}

	c.setHeaders(req)

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return badStatus(resp, data)
	}

	_, err = io.Copy(dst, resp.Body)
	return err
}

func (c *Client) doJSON(req *http.Request, target any) error {
	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return badStatus(resp, data)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
}

func marshalBody(body any) (io.Reader, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(data), nil
}

// badStatus builds an error from a non-2xx response, preferring the backend
// detail message when the body carries one.
func badStatus(resp *http.Response, body []byte) error {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		return fmt.Errorf("bad status: %s: %s", resp.Status, apiErr.Detail)
	}

	return fmt.Errorf("bad status: %s", resp.Status)
}

type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(percent int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	percent := int(p.read * 100 / p.total)
	if percent > 100 {
		percent = 100
	}
	if percent != p.last {
		p.last = percent
		p.report(percent)
	}

	return n, err
}
