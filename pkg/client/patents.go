package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// PatentsClient manages the caller's patents, their documents and their
// search reports.
type PatentsClient struct {
	client *Client
}

func patentPath(id string) string {
	return "/api/patents/" + url.PathEscape(id)
}

func requireID(name, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidConfig, name)
	}
	return nil
}

// List returns every patent the caller owns.
func (p *PatentsClient) List(ctx context.Context) ([]*Patent, error) {
	var out []*Patent
	if err := p.client.get(ctx, "/api/patents", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PatentsClient) Create(ctx context.Context, in *PatentInput) (*Patent, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: patent input is required", ErrInvalidConfig)
	}
	var out Patent
	if err := p.client.post(ctx, "/api/patents", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one patent including its documents.
func (p *PatentsClient) Get(ctx context.Context, id string) (*Patent, error) {
	if err := requireID("patent id", id); err != nil {
		return nil, err
	}
	var out Patent
	if err := p.client.get(ctx, patentPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PatentsClient) Update(ctx context.Context, id string, in *PatentUpdate) (*Patent, error) {
	if err := requireID("patent id", id); err != nil {
		return nil, err
	}
	if in == nil {
		in = &PatentUpdate{}
	}
	var out Patent
	if err := p.client.put(ctx, patentPath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PatentsClient) Delete(ctx context.Context, id string) error {
	if err := requireID("patent id", id); err != nil {
		return err
	}
	return p.client.delete(ctx, patentPath(id))
}

// UpdateStatus moves a patent to status. The server rejects transitions
// its workflow does not allow.
func (p *PatentsClient) UpdateStatus(ctx context.Context, id, status string) (*Patent, error) {
	if err := requireID("patent id", id); err != nil {
		return nil, err
	}
	var out Patent
	body := map[string]string{"status": status}
	if err := p.client.patch(ctx, patentPath(id)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search filters the caller's patents. A nil request returns the first page.
func (p *PatentsClient) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req == nil {
		req = &SearchRequest{}
	}
	var out SearchResult
	if err := p.client.post(ctx, "/api/patents/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument attaches the contents of r to a patent. name and docType
// are optional; the server falls back to filename for an empty name.
func (p *PatentsClient) UploadDocument(ctx context.Context, patentID, filename, name, docType string, r io.Reader) (*Document, error) {
	if err := requireID("patent id", patentID); err != nil {
		return nil, err
	}
	if filename == "" || r == nil {
		return nil, fmt.Errorf("%w: filename and content are required", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read upload content: %w", err)
	}
	if name != "" {
		if err := w.WriteField("name", name); err != nil {
			return nil, err
		}
	}
	if docType != "" {
		if err := w.WriteField("type", docType); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out Document
	if err := p.client.send(ctx, http.MethodPost, patentPath(patentID)+"/documents", w.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PatentsClient) DeleteDocument(ctx context.Context, patentID, documentID string) error {
	if err := requireID("patent id", patentID); err != nil {
		return err
	}
	if err := requireID("document id", documentID); err != nil {
		return err
	}
	return p.client.delete(ctx, patentPath(patentID)+"/documents/"+url.PathEscape(documentID))
}

// Similar returns the caller's other patents ranked by similarity, most
// similar first.
func (p *PatentsClient) Similar(ctx context.Context, id string) ([]*SimilarPatent, error) {
	if err := requireID("patent id", id); err != nil {
		return nil, err
	}
	var out []*SimilarPatent
	if err := p.client.get(ctx, patentPath(id)+"/similar", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *PatentsClient) Analysis(ctx context.Context, id string) (*AIAnalysis, error) {
	if err := requireID("patent id", id); err != nil {
		return nil, err
	}
	var out AIAnalysis
	if err := p.client.get(ctx, patentPath(id)+"/analysis", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Compare returns the similarity (0..100) of two of the caller's patents.
func (p *PatentsClient) Compare(ctx context.Context, id, otherID string) (float64, error) {
	if err := requireID("patent id", id); err != nil {
		return 0, err
	}
	if err := requireID("other patent id", otherID); err != nil {
		return 0, err
	}
	var out struct {
		SimilarityScore float64 `json:"similarity_score"`
	}
	if err := p.client.get(ctx, patentPath(id)+"/similarity/"+url.PathEscape(otherID), &out); err != nil {
		return 0, err
	}
	return out.SimilarityScore, nil
}

func (p *PatentsClient) SearchStrategy(ctx context.Context, id string) (*SearchStrategy, error) {
	if err := requireID("patent id", id); err != nil {
		return nil, err
	}
	var out SearchStrategy
	if err := p.client.get(ctx, patentPath(id)+"/search-strategy", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateReport runs a prior-art search and stores the report on the
// patent.
func (p *PatentsClient) GenerateReport(ctx context.Context, id string) (*SearchReport, error) {
	if err := requireID("patent id", id); err != nil {
		return nil, err
	}
	var out SearchReport
	if err := p.client.post(ctx, patentPath(id)+"/search-report", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
