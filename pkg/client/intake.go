package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"net/textproto"
	"strconv"

	"github.com/terra-clan/consult-portal/internal/models"
)

// GetIntake retrieves the authenticated user's intake record
func (c *Client) GetIntake(ctx context.Context) (*models.IntakeRecord, error) {
	var rec models.IntakeRecord
	if err := c.getJSON(ctx, http.MethodGet, "/intake/", nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateIntakeStage saves stage data and returns the authoritative record
func (c *Client) UpdateIntakeStage(ctx context.Context, stage int, data map[string]interface{}) (*models.IntakeRecord, error) {
	body := map[string]interface{}{"data": data}

	var rec models.IntakeRecord
	if err := c.getJSON(ctx, http.MethodPut, fmt.Sprintf("/intake/stages/%d/", stage), body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// CompleteIntakeStage asks the backend to mark a stage complete
func (c *Client) CompleteIntakeStage(ctx context.Context, stage int) (*models.IntakeRecord, error) {
	var rec models.IntakeRecord
	if err := c.getJSON(ctx, http.MethodPost, fmt.Sprintf("/intake/stages/%d/complete/", stage), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UploadDocument stores a document for a stage and returns its descriptor
func (c *Client) UploadDocument(ctx context.Context, stage int, fileName, contentType string, r io.Reader) (*models.UploadedDocument, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("stage", strconv.Itoa(stage)); err != nil {
		return nil, fmt.Errorf("failed to write stage field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/intake/documents/", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	var doc models.UploadedDocument
	if err := decode(resp, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DeleteDocument removes a stored document
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.getJSON(ctx, http.MethodDelete, fmt.Sprintf("/intake/documents/%s/", url.PathEscape(id)), nil, nil)
}
