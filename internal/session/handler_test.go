package session_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/bootstrap"
	"docchat-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func addGuestHeader(req *http.Request) {
	req.Header.Set("X-Guest-Id", "test-guest")
}

type documentBody struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Size       int64  `json:"size"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Path       string `json:"path"`
	BackendID  string `json:"backendId"`
	MappingID  string `json:"mappingId"`
	HasHistory bool   `json:"hasChatHistory"`
}

func uploadDocument(t *testing.T, router *gin.Engine, name, content string) documentBody {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte(content)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var doc documentBody
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	return doc
}

func TestUploadListAndDelete(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	doc := uploadDocument(t, router, "report.pdf", "fake pdf content")
	if doc.Name != "report.pdf" || doc.Type != "pdf" {
		t.Fatalf("unexpected upload response: %+v", doc)
	}
	if doc.Status != "completed" || doc.Progress != 100 {
		t.Fatalf("expected completed/100, got %s/%d", doc.Status, doc.Progress)
	}
	if doc.BackendID == "" || doc.MappingID == "" {
		t.Fatalf("expected backend and mapping ids, got %+v", doc)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("list status = %d", resp.Code)
	}
	var docs []documentBody
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "report.pdf" {
		t.Fatalf("unexpected list: %+v", docs)
	}

	reqDel := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+doc.ID, nil)
	addGuestHeader(reqDel)
	respDel := httptest.NewRecorder()
	router.ServeHTTP(respDel, reqDel)
	if respDel.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", respDel.Code, respDel.Body.String())
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	addGuestHeader(reqList)
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)
	var after []documentBody
	if err := json.NewDecoder(respList.Body).Decode(&after); err != nil {
		t.Fatalf("decode list after delete: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("expected empty list after delete, got %+v", after)
	}
}

func TestRenameIsLocal(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	doc := uploadDocument(t, router, "old.pdf", "content")

	payload := bytes.NewBufferString(`{"name":"new.pdf"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID+"/rename", payload)
	req.Header.Set("Content-Type", "application/json")
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("rename status = %d: %s", resp.Code, resp.Body.String())
	}
	var renamed documentBody
	if err := json.NewDecoder(resp.Body).Decode(&renamed); err != nil {
		t.Fatalf("decode rename: %v", err)
	}
	if renamed.Name != "new.pdf" {
		t.Fatalf("renamed name = %q", renamed.Name)
	}

	// A fresh listing reverts the rename.
	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	addGuestHeader(reqList)
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)
	var docs []documentBody
	if err := json.NewDecoder(respList.Body).Decode(&docs); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(docs) != 1 || docs[0].Name != "old.pdf" {
		t.Fatalf("expected rename to revert, got %+v", docs)
	}
}

func TestSelectChatAndHistory(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	doc := uploadDocument(t, router, "notes.txt", "plain notes")

	reqSel := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID+"/select", nil)
	addGuestHeader(reqSel)
	respSel := httptest.NewRecorder()
	router.ServeHTTP(respSel, reqSel)
	if respSel.Code != http.StatusOK {
		t.Fatalf("select status = %d: %s", respSel.Code, respSel.Body.String())
	}

	payload := bytes.NewBufferString(`{"message":"Summarize the key points"}`)
	reqChat := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID+"/chat", payload)
	reqChat.Header.Set("Content-Type", "application/json")
	addGuestHeader(reqChat)
	respChat := httptest.NewRecorder()
	router.ServeHTTP(respChat, reqChat)
	if respChat.Code != http.StatusOK {
		t.Fatalf("chat status = %d: %s", respChat.Code, respChat.Body.String())
	}
	var chat struct {
		UserMessage struct {
			Text   string `json:"text"`
			Sender string `json:"sender"`
		} `json:"userMessage"`
		BotMessage struct {
			Text   string `json:"text"`
			Sender string `json:"sender"`
		} `json:"botMessage"`
	}
	if err := json.NewDecoder(respChat.Body).Decode(&chat); err != nil {
		t.Fatalf("decode chat: %v", err)
	}
	if chat.UserMessage.Sender != "user" || chat.UserMessage.Text != "Summarize the key points" {
		t.Fatalf("unexpected user message: %+v", chat.UserMessage)
	}
	if chat.BotMessage.Sender != "bot" || chat.BotMessage.Text == "" {
		t.Fatalf("unexpected bot message: %+v", chat.BotMessage)
	}

	reqHist := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history/"+doc.MappingID, nil)
	addGuestHeader(reqHist)
	respHist := httptest.NewRecorder()
	router.ServeHTTP(respHist, reqHist)
	if respHist.Code != http.StatusOK {
		t.Fatalf("history status = %d", respHist.Code)
	}
	var history []struct {
		Sender string `json:"sender"`
	}
	if err := json.NewDecoder(respHist.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 || history[0].Sender != "user" || history[1].Sender != "bot" {
		t.Fatalf("unexpected history: %+v", history)
	}

	reqExists := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history/"+doc.MappingID+"/exists", nil)
	addGuestHeader(reqExists)
	respExists := httptest.NewRecorder()
	router.ServeHTTP(respExists, reqExists)
	var exists struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(respExists.Body).Decode(&exists); err != nil {
		t.Fatalf("decode exists: %v", err)
	}
	if !exists.Exists {
		t.Fatalf("expected history to exist")
	}

	reqWipe := httptest.NewRequest(http.MethodDelete, "/api/v1/chat/history/"+doc.MappingID, nil)
	addGuestHeader(reqWipe)
	respWipe := httptest.NewRecorder()
	router.ServeHTTP(respWipe, reqWipe)
	if respWipe.Code != http.StatusOK {
		t.Fatalf("delete history status = %d", respWipe.Code)
	}
}

func TestViewStreamsWhenSigningUnsupported(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	doc := uploadDocument(t, router, "stream.txt", "stream me")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID+"/view", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("view status = %d: %s", resp.Code, resp.Body.String())
	}
	if resp.Body.String() != "stream me" {
		t.Fatalf("view body = %q", resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("view content type = %q", ct)
	}
	if cl := resp.Header().Get("Content-Length"); cl != "9" {
		t.Fatalf("view content length = %q", cl)
	}

	reqDl := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+doc.ID+"/download", nil)
	addGuestHeader(reqDl)
	respDl := httptest.NewRecorder()
	router.ServeHTTP(respDl, reqDl)
	if respDl.Code != http.StatusOK {
		t.Fatalf("download status = %d", respDl.Code)
	}
	if cd := respDl.Header().Get("Content-Disposition"); cd == "" {
		t.Fatalf("expected attachment disposition on download")
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	uploadDocument(t, router, "a.pdf", "one")
	uploadDocument(t, router, "b.docx", "two")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/stats", nil)
	addGuestHeader(req)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("stats status = %d", resp.Code)
	}
	var stats struct {
		Total  int            `json:"total"`
		ByType map[string]int `json:"byType"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 2 || stats.ByType["pdf"] != 1 || stats.ByType["docx"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
