package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Remote speaks JSON over HTTP to a model-serving sidecar that hosts the
// transcription, sentiment, NER, and zero-shot models. It implements all four
// capability interfaces; serialization of calls is the Guard's job, not ours.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

// NewRemote creates a client for the sidecar at baseURL.
func NewRemote(baseURL string) *Remote {
	return &Remote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the stored audio and returns the transcript.
func (r *Remote) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio content: %w", err)
	}
	defer f.Close()

	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/transcribe", &b)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp transcribeResponse
	if err := r.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

type sentimentRequest struct {
	Text string `json:"text"`
}

// ScoreSentiment scores the transcript's overall sentiment.
func (r *Remote) ScoreSentiment(ctx context.Context, text string) (Sentiment, error) {
	var resp Sentiment
	if err := r.postJSON(ctx, "/sentiment", sentimentRequest{Text: text}, &resp); err != nil {
		return Sentiment{}, err
	}
	return resp, nil
}

type entitiesResponse struct {
	Entities []Entity `json:"entities"`
}

// TagEntities extracts tagged tokens from the transcript.
func (r *Remote) TagEntities(ctx context.Context, text string) ([]Entity, error) {
	var resp entitiesResponse
	if err := r.postJSON(ctx, "/ner", sentimentRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

type zeroShotRequest struct {
	Text            string   `json:"text"`
	CandidateLabels []string `json:"candidate_labels"`
	Multilabel      bool     `json:"multilabel"`
}

type zeroShotResponse struct {
	Labels []Label `json:"labels"`
}

// ClassifyZeroShot runs one multilabel classification of text against the
// candidate labels.
func (r *Remote) ClassifyZeroShot(ctx context.Context, text string, candidateLabels []string) ([]Label, error) {
	req := zeroShotRequest{Text: text, CandidateLabels: candidateLabels, Multilabel: true}
	var resp zeroShotResponse
	if err := r.postJSON(ctx, "/zero-shot", req, &resp); err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

func (r *Remote) postJSON(ctx context.Context, path string, body, target any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return r.do(req, target)
}

// do executes the request with transport-level retry on 5xx. A request that
// still fails after the backoff window is surfaced as one engine failure;
// pipeline stages themselves are never re-run.
func (r *Remote) do(req *http.Request, target any) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 15 * time.Second

	var lastErr error
	op := func() error {
		resp, err := r.httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("model server error: %s", string(respBody))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("model server rejected request: %s", string(respBody))
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(respBody, target); err != nil {
			lastErr = fmt.Errorf("decode model server response: %w", err)
			return backoff.Permanent(lastErr)
		}
		return nil
	}

	if req.GetBody != nil {
		// Rewind the body between attempts.
		inner := op
		op = func() error {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Body = body
			return inner()
		}
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, req.Context())); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
