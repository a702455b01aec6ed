package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"imushare/pkg/models"
)

const uploadField = "myfile"

var errEmptyLink = errors.New("upload response missing file link")

// Upload sends content as a new file and returns its public link.
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile(uploadField, filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("write multipart data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	var resp models.UploadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/", buf.Bytes(), writer.FormDataContentType(), &resp); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	if resp.File == "" {
		return "", errEmptyLink
	}
	return resp.File, nil
}

// Send asks the server to email the link of file id from one address to another.
func (c *Client) Send(ctx context.Context, id, emailTo, emailFrom string) error {
	body, err := json.Marshal(map[string]string{
		"uuid":      id,
		"emailTo":   emailTo,
		"emailFrom": emailFrom,
	})
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	var resp models.SendResponse
	if err := c.doJSON(ctx, http.MethodPost, "/send", body, "application/json", &resp); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	if !resp.Success {
		return errors.New("send failed: server did not confirm delivery")
	}
	return nil
}

// Info returns the details of file id.
func (c *Client) Info(ctx context.Context, id string) (*models.FileInfoResponse, error) {
	var info models.FileInfoResponse
	if err := c.doJSON(ctx, http.MethodGet, "/files/"+id, nil, "", &info); err != nil {
		return nil, fmt.Errorf("fetch info failed: %w", err)
	}
	return &info, nil
}

// Download writes the content of file id to w and returns the byte count.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (int64, error) {
	resp, err := c.do(ctx, http.MethodGet, "/files/download/"+id, nil, "")
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("read download: %w", err)
	}
	return written, nil
}
