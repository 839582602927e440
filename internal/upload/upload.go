// Package upload runs the intake document sub-flow: a validation gate that
// runs before any network call, a bounded upload queue and removal.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/terra-clan/consult-portal/internal/intake"
	"github.com/terra-clan/consult-portal/internal/models"
)

// Status is the lifecycle state of one submitted file
type Status string

const (
	StatusSelected   Status = "selected"
	StatusValidating Status = "validating"
	StatusUploading  Status = "uploading"
	StatusStored     Status = "stored"
	StatusRejected   Status = "rejected"
	StatusFailed     Status = "failed"
)

// Limits bounds what the gate accepts
type Limits struct {
	MaxFileBytes int64
	MaxPerStage  int
	AllowedTypes []string
}

// DefaultLimits are 10 MiB per file, 5 files per stage, pdf/doc/docx/jpeg/png
var DefaultLimits = Limits{
	MaxFileBytes: 10 << 20,
	MaxPerStage:  5,
	AllowedTypes: []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"image/jpeg",
		"image/png",
	},
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ErrRemoveFailed wraps a backend failure while deleting a document
var ErrRemoveFailed = errors.New("failed to remove document")

// Uploader is the part of the backend API the queue needs
type Uploader interface {
	UploadDocument(ctx context.Context, stage int, fileName, contentType string, r io.Reader) (*models.UploadedDocument, error)
	DeleteDocument(ctx context.Context, id string) error
}

// File is a document submitted for upload
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Result is the outcome of one submitted file, in submission order
type Result struct {
	ID       string                   `json:"id"`
	FileName string                   `json:"file_name"`
	Status   Status                   `json:"status"`
	Reason   string                   `json:"reason,omitempty"`
	Document *models.UploadedDocument `json:"document,omitempty"`
}

// Event reports a state transition of one file
type Event struct {
	ItemID   string                   `json:"item_id"`
	FileName string                   `json:"file_name"`
	Status   Status                   `json:"status"`
	Reason   string                   `json:"reason,omitempty"`
	Document *models.UploadedDocument `json:"document,omitempty"`
}

// Observer receives state transitions; it may be called from several
// goroutines at once
type Observer func(Event)

// Queue validates and uploads documents with bounded concurrency
type Queue struct {
	uploader    Uploader
	limits      Limits
	concurrency int
	observer    Observer
}

// Option configures the queue
type Option func(*Queue)

// WithConcurrency sets the number of simultaneous uploads
func WithConcurrency(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.concurrency = n
		}
	}
}

// WithObserver registers a state transition observer
func WithObserver(observer Observer) Option {
	return func(q *Queue) {
		q.observer = observer
	}
}

// NewQueue creates an upload queue
func NewQueue(uploader Uploader, limits Limits, opts ...Option) *Queue {
	q := &Queue{
		uploader:    uploader,
		limits:      limits,
		concurrency: 2,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Submit validates files against the limits, counting the documents the
// stage already stores, and uploads the accepted ones. Upload calls are
// issued in submission order: the next upload is dispatched only after the
// previous one has started reading its body or returned. They may finish in
// any order.
func (q *Queue) Submit(ctx context.Context, stage, stored int, files []File) []Result {
	results := make([]Result, len(files))
	for i, f := range files {
		results[i] = Result{ID: uuid.New().String(), FileName: f.Name, Status: StatusSelected}
		q.emit(results[i])
	}

	var accepted []int
	for i, f := range files {
		results[i].Status = StatusValidating
		q.emit(results[i])

		if reason := q.check(stage, f, stored+len(accepted)); reason != "" {
			results[i].Status = StatusRejected
			results[i].Reason = reason
			q.emit(results[i])
			continue
		}
		accepted = append(accepted, i)
	}

	g := new(errgroup.Group)
	g.SetLimit(q.concurrency)

	for _, i := range accepted {
		if err := ctx.Err(); err != nil {
			results[i].Status = StatusFailed
			results[i].Reason = err.Error()
			q.emit(results[i])
			continue
		}

		i := i
		issued := make(chan struct{})
		g.Go(func() error {
			q.upload(ctx, stage, files[i], &results[i], issued)
			return nil
		})
		<-issued
	}

	_ = g.Wait()
	return results
}

func (q *Queue) upload(ctx context.Context, stage int, f File, res *Result, issued chan<- struct{}) {
	res.Status = StatusUploading
	q.emit(*res)

	var once sync.Once
	release := func() { once.Do(func() { close(issued) }) }
	defer release()

	body, err := f.Open()
	if err != nil {
		q.failed(res, fmt.Errorf("failed to open file: %w", err))
		return
	}
	defer body.Close()

	doc, err := q.uploader.UploadDocument(ctx, stage, f.Name, contentType(f), &issuingReader{r: body, issued: release})
	release()
	if err != nil {
		q.failed(res, err)
		return
	}

	res.Status = StatusStored
	res.Document = doc
	q.emit(*res)
}

// issuingReader releases the dispatcher on the first read of the body,
// which happens only once the upload call is under way
type issuingReader struct {
	r      io.Reader
	issued func()
}

func (r *issuingReader) Read(p []byte) (int, error) {
	r.issued()
	return r.r.Read(p)
}

func (q *Queue) failed(res *Result, err error) {
	slog.Warn("document upload failed", "file", res.FileName, "error", err)
	res.Status = StatusFailed
	res.Reason = err.Error()
	q.emit(*res)
}

// check returns a rejection reason or "" when the file passes the gate
func (q *Queue) check(stage int, f File, held int) string {
	if stage != intake.DocumentStage {
		return fmt.Sprintf("documents can only be uploaded in stage %d", intake.DocumentStage)
	}
	if q.limits.MaxPerStage > 0 && held >= q.limits.MaxPerStage {
		return fmt.Sprintf("a stage can hold at most %d documents", q.limits.MaxPerStage)
	}
	if q.limits.MaxFileBytes > 0 && f.Size > q.limits.MaxFileBytes {
		return fmt.Sprintf("%s exceeds the %d MB limit", f.Name, q.limits.MaxFileBytes>>20)
	}
	if !q.allowed(contentType(f)) {
		return fmt.Sprintf("%s is not an accepted file type", f.Name)
	}
	if f.Open == nil {
		return "file has no content"
	}
	return ""
}

func (q *Queue) allowed(ct string) bool {
	for _, t := range q.limits.AllowedTypes {
		if strings.EqualFold(t, ct) {
			return true
		}
	}
	return false
}

func (q *Queue) emit(r Result) {
	if q.observer == nil {
		return
	}
	q.observer(Event{
		ItemID:   r.ID,
		FileName: r.FileName,
		Status:   r.Status,
		Reason:   r.Reason,
		Document: r.Document,
	})
}

// contentType prefers the declared type when it is specific, falling back
// to the file extension
func contentType(f File) string {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0]))
	if ct != "" && ct != "application/octet-stream" {
		if ct == "image/jpg" {
			return "image/jpeg"
		}
		return ct
	}
	return extensionTypes[strings.ToLower(filepath.Ext(f.Name))]
}

// Stored collects the descriptors of stored results
func Stored(results []Result) []models.UploadedDocument {
	var docs []models.UploadedDocument
	for _, r := range results {
		if r.Status == StatusStored && r.Document != nil {
			docs = append(docs, *r.Document)
		}
	}
	return docs
}

// Remove deletes a document on the backend and then drops it from docs.
// When the backend call fails docs is returned unchanged.
func Remove(ctx context.Context, uploader Uploader, docs []models.UploadedDocument, id string) ([]models.UploadedDocument, error) {
	if err := uploader.DeleteDocument(ctx, id); err != nil {
		return docs, fmt.Errorf("%w %s: %w", ErrRemoveFailed, id, err)
	}

	out := make([]models.UploadedDocument, 0, len(docs))
	for _, d := range docs {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out, nil
}
