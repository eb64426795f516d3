package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/hpungsan/callscribe/internal/call"
	"github.com/hpungsan/callscribe/internal/db"
	"github.com/hpungsan/callscribe/internal/inference"
	"github.com/hpungsan/callscribe/internal/inference/inferencetest"
	"github.com/hpungsan/callscribe/internal/ingest"
	"github.com/hpungsan/callscribe/internal/logger"
)

type testStack struct {
	handlers *Handlers
	server   *httptest.Server
	zeroShot *inferencetest.MockZeroShotClassifier
	audioURL string
}

func setupTest(t *testing.T) *testStack {
	t.Helper()
	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	audioSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fake-audio"))
	}))
	t.Cleanup(audioSrv.Close)

	zeroShot := &inferencetest.MockZeroShotClassifier{}
	transcriber := &inferencetest.MockTranscriber{
		TranscribeFunc: func(ctx context.Context, audioPath string) (string, error) {
			return "I want a refund for my invoice", nil
		},
	}

	h := &Handlers{
		db:       database,
		guard:    inference.NewGuard(inferencetest.Engines(transcriber, nil, nil, zeroShot)),
		ingestor: ingest.New(db.ContentDir(baseDir)),
		log:      logger.New(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/call", h.HandleCreateCall)
	mux.HandleFunc("GET /api/call/{id}", h.HandleGetCall)
	mux.HandleFunc("GET /api/category", h.HandleListCategories)
	mux.HandleFunc("POST /api/category", h.HandleCreateCategory)
	mux.HandleFunc("PUT /api/category/{id}", h.HandleUpdateCategory)
	mux.HandleFunc("DELETE /api/category/{id}", h.HandleDeleteCategory)
	mux.HandleFunc("GET /healthz", h.HandleHealthz)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &testStack{
		handlers: h,
		server:   srv,
		zeroShot: zeroShot,
		audioURL: audioSrv.URL + "/recording.wav",
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestHandleCreateCall(t *testing.T) {
	ts := setupTest(t)

	resp, err := http.Post(ts.server.URL+"/api/call", "application/json",
		strings.NewReader(`{"audio_url":"`+ts.audioURL+`"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.ID) != 26 {
		t.Errorf("id = %q, want 26-char identifier", out.ID)
	}

	stored, err := db.GetCall(ts.handlers.db, out.ID)
	if err != nil {
		t.Fatalf("stored call: %v", err)
	}
	if stored.Text != "I want a refund for my invoice" {
		t.Errorf("Text = %q", stored.Text)
	}
}

func TestHandleCreateCall_UnreachableAudio(t *testing.T) {
	ts := setupTest(t)

	resp, err := http.Post(ts.server.URL+"/api/call", "application/json",
		strings.NewReader(`{"audio_url":"http://127.0.0.1:1/nope.wav"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != "INGEST_NETWORK" {
		t.Errorf("code = %q, want INGEST_NETWORK", body.Error.Code)
	}

	// Corpus unchanged
	n, err := db.CountCalls(ts.handlers.db)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("corpus size = %d, want 0", n)
	}
}

func TestHandleCreateCall_InvalidBody(t *testing.T) {
	ts := setupTest(t)

	resp, err := http.Post(ts.server.URL+"/api/call", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleGetCall_UnknownIDAnswers202(t *testing.T) {
	ts := setupTest(t)

	resp, err := http.Get(ts.server.URL + "/api/call/01JUNKNOWNID0000000000000X")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202", resp.StatusCode)
	}
}

func TestHandleGetCall_Found(t *testing.T) {
	ts := setupTest(t)
	err := db.InsertCall(ts.handlers.db, &call.Call{
		ID:         "01TESTCALL0000000000000000",
		Text:       "hello",
		Categories: []string{"Billing"},
		CreatedAt:  1700000000,
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.server.URL + "/api/call/01TESTCALL0000000000000000")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got call.Call
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "hello" || len(got.Categories) != 1 {
		t.Errorf("call = %+v", got)
	}
}

func TestHandleCreateCategory_Reindexes(t *testing.T) {
	ts := setupTest(t)
	err := db.InsertCall(ts.handlers.db, &call.Call{
		ID: "01A", Text: "invoice trouble", CreatedAt: 1700000000,
	})
	if err != nil {
		t.Fatal(err)
	}
	ts.zeroShot.ClassifyFunc = func(ctx context.Context, text string, candidateLabels []string) ([]inference.Label, error) {
		return []inference.Label{{Text: "invoice", Score: 0.94}}, nil
	}

	resp, err := http.Post(ts.server.URL+"/api/category", "application/json",
		strings.NewReader(`{"title":"Billing","points":["invoice","refund"]}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var category call.Category
	if err := json.NewDecoder(resp.Body).Decode(&category); err != nil {
		t.Fatal(err)
	}
	if category.Title != "Billing" || category.ID == 0 {
		t.Errorf("category = %+v", category)
	}

	c, _ := db.GetCall(ts.handlers.db, "01A")
	if !c.HasCategory("Billing") {
		t.Errorf("call categories = %v, want Billing after create", c.Categories)
	}
}

func TestHandleCreateCategory_ScanSurvivesClientDisconnect(t *testing.T) {
	ts := setupTest(t)
	err := db.InsertCall(ts.handlers.db, &call.Call{
		ID: "01A", Text: "invoice trouble", CreatedAt: 1700000000,
	})
	if err != nil {
		t.Fatal(err)
	}
	ts.zeroShot.ClassifyFunc = func(ctx context.Context, text string, candidateLabels []string) ([]inference.Label, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []inference.Label{{Text: "invoice", Score: 0.94}}, nil
	}

	// The request context is already canceled, as after a client disconnect.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/category",
		strings.NewReader(`{"title":"Billing","points":["invoice"]}`)).WithContext(ctx)
	rec := httptest.NewRecorder()

	ts.handlers.HandleCreateCategory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite disconnect", rec.Code)
	}
	c, _ := db.GetCall(ts.handlers.db, "01A")
	if !c.HasCategory("Billing") {
		t.Errorf("call categories = %v, want Billing: scan must run to completion", c.Categories)
	}
}

func TestHandleCreateCategory_DuplicateTitle(t *testing.T) {
	ts := setupTest(t)
	if _, err := db.InsertCategory(ts.handlers.db, "Billing", nil); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(ts.server.URL+"/api/category", "application/json",
		strings.NewReader(`{"title":"Billing"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestHandleUpdateCategory_MissingID(t *testing.T) {
	ts := setupTest(t)

	req, _ := http.NewRequest(http.MethodPut, ts.server.URL+"/api/category/999",
		strings.NewReader(`{"title":"Renamed"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestHandleUpdateCategory_Rename(t *testing.T) {
	ts := setupTest(t)
	stored, err := db.InsertCategory(ts.handlers.db, "Billing", []string{"invoice"})
	if err != nil {
		t.Fatal(err)
	}
	err = db.InsertCall(ts.handlers.db, &call.Call{
		ID: "01A", Text: "invoice trouble", Categories: []string{"Billing"}, CreatedAt: 1700000000,
	})
	if err != nil {
		t.Fatal(err)
	}
	ts.zeroShot.ClassifyFunc = func(ctx context.Context, text string, candidateLabels []string) ([]inference.Label, error) {
		return []inference.Label{{Text: "Invoices", Score: 0.96}}, nil
	}

	req, _ := http.NewRequest(http.MethodPut,
		ts.server.URL+"/api/category/"+itoa(stored.ID),
		strings.NewReader(`{"title":"Invoices"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	c, _ := db.GetCall(ts.handlers.db, "01A")
	if c.HasCategory("Billing") || !c.HasCategory("Invoices") {
		t.Errorf("call categories = %v, want [Invoices]", c.Categories)
	}
}

func TestHandleUpdateCategory_ExplicitEmptyPointsClears(t *testing.T) {
	ts := setupTest(t)
	stored, err := db.InsertCategory(ts.handlers.db, "Billing", []string{"invoice", "refund"})
	if err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodPut,
		ts.server.URL+"/api/category/"+itoa(stored.ID),
		strings.NewReader(`{"points":[]}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var category call.Category
	if err := json.NewDecoder(resp.Body).Decode(&category); err != nil {
		t.Fatal(err)
	}
	if len(category.Points) != 0 {
		t.Errorf("Points = %v, want cleared by explicit empty list", category.Points)
	}
	if category.Title != "Billing" {
		t.Errorf("Title = %q, want Billing (unchanged)", category.Title)
	}
}

func TestHandleDeleteCategory(t *testing.T) {
	ts := setupTest(t)
	stored, err := db.InsertCategory(ts.handlers.db, "Billing", nil)
	if err != nil {
		t.Fatal(err)
	}
	err = db.InsertCall(ts.handlers.db, &call.Call{
		ID: "01A", Text: "a", Categories: []string{"Billing", "Support"}, CreatedAt: 1700000000,
	})
	if err != nil {
		t.Fatal(err)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.server.URL+"/api/category/"+itoa(stored.ID), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ts.zeroShot.Calls() != 0 {
		t.Errorf("zero-shot calls = %d, want 0 on delete", ts.zeroShot.Calls())
	}

	c, _ := db.GetCall(ts.handlers.db, "01A")
	if c.HasCategory("Billing") || !c.HasCategory("Support") {
		t.Errorf("call categories = %v, want [Support]", c.Categories)
	}
}

func TestHandleDeleteCategory_NotFound(t *testing.T) {
	ts := setupTest(t)

	req, _ := http.NewRequest(http.MethodDelete, ts.server.URL+"/api/category/42", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestHandleListCategories_Empty(t *testing.T) {
	ts := setupTest(t)

	resp, err := http.Get(ts.server.URL + "/api/category")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var categories []call.Category
	if err := json.NewDecoder(resp.Body).Decode(&categories); err != nil {
		t.Fatal(err)
	}
	if categories == nil || len(categories) != 0 {
		t.Errorf("categories = %v, want []", categories)
	}
}

func TestHandleHealthz(t *testing.T) {
	ts := setupTest(t)

	resp, err := http.Get(ts.server.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
