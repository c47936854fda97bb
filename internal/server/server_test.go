package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/paysplit/internal/config"
	"github.com/iwvelando/paysplit/internal/history"
	"github.com/iwvelando/paysplit/pkg/budget"
	"github.com/iwvelando/paysplit/pkg/extract"
	"github.com/iwvelando/paysplit/pkg/paystub"
	"github.com/iwvelando/paysplit/pkg/testutil"
	"go.uber.org/zap"
)

type allocateResponse struct {
	Template   string            `json:"template"`
	Employee   string            `json:"employee"`
	NetPay     string            `json:"netPay"`
	Checking   string            `json:"checking"`
	Savings    string            `json:"savings"`
	Balances   map[string]string `json:"balances"`
	Categories []struct {
		Category string `json:"category"`
		Amount   string `json:"amount"`
	} `json:"categories"`
}

func newCSVStore(t *testing.T) history.Store {
	t.Helper()
	store, err := history.Open("csv", filepath.Join(t.TempDir(), "allocations.csv"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHandleAllocateSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "test")

	rr := performUpload(t, handler, testutil.CurrentStub, "stub.txt", map[string][]string{
		"checking": {"35"},
		"savings":  {"65"},
		"scale":    {"percent"},
		"category": {"Groceries=10", "Housing=25"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var resp allocateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Template != "current" || resp.Employee != "Jane Q Doe" {
		t.Fatalf("unexpected record: %+v", resp)
	}
	if resp.NetPay != "2587.60" || resp.Checking != "905.66" || resp.Savings != "1681.94" {
		t.Fatalf("unexpected split: net %s checking %s savings %s", resp.NetPay, resp.Checking, resp.Savings)
	}
	if resp.Balances["checking"] != "905.66" || resp.Balances["savings"] != "1681.94" {
		t.Fatalf("unexpected balances: %v", resp.Balances)
	}
	if len(resp.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %+v", resp.Categories)
	}
	amounts := map[string]string{}
	for _, c := range resp.Categories {
		amounts[c.Category] = c.Amount
	}
	if amounts["Groceries"] != "90.57" || amounts["Housing"] != "226.42" {
		t.Fatalf("unexpected category amounts: %v", amounts)
	}
}

func TestHandleAllocateConfiguredDefaults(t *testing.T) {
	conf := config.Configuration{
		Allocation: config.AllocationConfig{CheckingPercent: "0.5", SavingsPercent: "0.5"},
		Budget:     config.BudgetConfig{Categories: map[string]string{"Groceries": "50"}},
	}
	handler := NewHandler(zap.NewNop(), 0, "test", WithConfiguration(conf))

	rr := performUpload(t, handler, testutil.LegacyStub, "legacy.txt", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp allocateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Template != "legacy" || resp.Checking != "975.00" || resp.Savings != "975.00" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Categories) != 1 || resp.Categories[0].Amount != "487.50" {
		t.Fatalf("expected configured Groceries allocation of 487.50, got %+v", resp.Categories)
	}
}

func TestHandleAllocateErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		fields   map[string][]string
		expected int
	}{
		{
			name:     "percents missing",
			content:  testutil.CurrentStub,
			expected: http.StatusBadRequest,
		},
		{
			name:     "percent out of range",
			content:  testutil.CurrentStub,
			fields:   map[string][]string{"checking": {"150"}, "savings": {"0"}, "scale": {"percent"}},
			expected: http.StatusBadRequest,
		},
		{
			name:     "unknown template",
			content:  testutil.CurrentStub,
			fields:   map[string][]string{"checking": {"0.5"}, "savings": {"0.5"}, "template": {"bogus"}},
			expected: http.StatusBadRequest,
		},
		{
			name:     "categories over checking",
			content:  testutil.CurrentStub,
			fields:   map[string][]string{"checking": {"0.2"}, "savings": {"0.8"}, "category": {"Groceries=30"}},
			expected: http.StatusBadRequest,
		},
		{
			name:     "malformed category",
			content:  testutil.CurrentStub,
			fields:   map[string][]string{"checking": {"0.2"}, "savings": {"0.8"}, "category": {"Groceries"}},
			expected: http.StatusBadRequest,
		},
		{
			name:     "no net pay",
			content:  "ACME CORP\nnothing useful here\n",
			fields:   map[string][]string{"checking": {"0.5"}, "savings": {"0.5"}},
			expected: http.StatusUnprocessableEntity,
		},
		{
			name:     "corrupt pdf",
			content:  "%PDF-1.7 truncated",
			fields:   map[string][]string{"checking": {"0.5"}, "savings": {"0.5"}},
			expected: http.StatusBadRequest,
		},
	}

	handler := NewHandler(zap.NewNop(), 0, "test")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performUpload(t, handler, tt.content, "stub.txt", tt.fields)
			if rr.Code != tt.expected {
				t.Fatalf("expected status %d, got %d: %s", tt.expected, rr.Code, rr.Body.String())
			}

			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp["error"] == "" {
				t.Fatalf("expected error message in response")
			}
		})
	}
}

func TestHandleAllocateMethodNotAllowed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/allocate", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleAllocateUploadTooLarge(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 128, "test")

	rr := performUpload(t, handler, strings.Repeat("A", 1024), "large.txt", nil)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleAllocateMissingFile(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "test")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("checking", "0.5"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/allocate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleAllocateSavesAndAccumulates(t *testing.T) {
	store := newCSVStore(t)
	handler := NewHandler(zap.NewNop(), 0, "test", WithHistory(store, true))

	fields := map[string][]string{"checking": {"0.35"}, "savings": {"0.65"}}
	if rr := performUpload(t, handler, testutil.CurrentStub, "stub.txt", fields); rr.Code != http.StatusOK {
		t.Fatalf("first upload: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	fields["accumulate"] = []string{"true"}
	rr := performUpload(t, handler, testutil.CurrentStub, "stub.txt", fields)
	if rr.Code != http.StatusOK {
		t.Fatalf("second upload: expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp allocateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Balances["savings"] != "3363.88" {
		t.Fatalf("expected accumulated savings 3363.88, got %v", resp.Balances)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/history?format=csv", nil)
	hr := httptest.NewRecorder()
	handler.ServeHTTP(hr, req)
	if hr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", hr.Code, hr.Body.String())
	}
	if ct := hr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	records, err := csv.NewReader(hr.Body).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV history: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header and 2 rows, got %d records", len(records))
	}
	if records[0][0] != history.ColumnDate {
		t.Fatalf("expected header row, got %v", records[0])
	}
}

func TestHandleAllocateWithoutSaving(t *testing.T) {
	store := newCSVStore(t)
	handler := NewHandler(zap.NewNop(), 0, "test", WithHistory(store, false))

	fields := map[string][]string{"checking": {"0.35"}, "savings": {"0.65"}}
	if rr := performUpload(t, handler, testutil.CurrentStub, "stub.txt", fields); rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var entries []map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no saved entries, got %d", len(entries))
	}
}

func TestHandleHistoryNotConfigured(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleHistoryInvalidFormat(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "test", WithHistory(newCSVStore(t), false))

	req := httptest.NewRequest(http.MethodGet, "/api/history?format=xml", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleVersion(t *testing.T) {
	handler := NewHandler(zap.NewNop(), 0, "  v1.2.3  ")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "v1.2.3" {
		t.Fatalf("expected trimmed version, got %q", resp["version"])
	}
}

func TestHandleAllocateNegativeNetPay(t *testing.T) {
	conf := config.Configuration{
		Template:  "adjustment",
		Templates: []config.TemplateConfig{{Name: "adjustment", Fields: map[string]string{"net pay": `NET (-?[\d,]+\.\d{2})`}}},
	}
	handler := NewHandler(zap.NewNop(), 0, "test", WithConfiguration(conf))

	rr := performUpload(t, handler, "NET -12.50\n", "stub.txt", map[string][]string{
		"checking": {"0.5"},
		"savings":  {"0.5"},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "negative net pay", err: fmt.Errorf("stub: %w", paystub.ErrNegativeNetPay), expected: http.StatusUnprocessableEntity},
		{name: "extraction", err: &extract.ExtractionError{Field: extract.FieldNetPay}, expected: http.StatusUnprocessableEntity},
		{name: "over allocation", err: fmt.Errorf("plan: %w", budget.ErrOverAllocation), expected: http.StatusBadRequest},
		{name: "request field", err: &requestError{errors.New("bad percent")}, expected: http.StatusBadRequest},
		{name: "other", err: errors.New("disk full"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.expected {
				t.Errorf("statusFor(%v) = %d, expected %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestCoerceBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		if !coerceBool(v) {
			t.Errorf("coerceBool(%q) = false, expected true", v)
		}
	}
	for _, v := range []string{"", "0", "false", "maybe"} {
		if coerceBool(v) {
			t.Errorf("coerceBool(%q) = true, expected false", v)
		}
	}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string, fields map[string][]string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	for name, values := range fields {
		for _, v := range values {
			if err := writer.WriteField(name, v); err != nil {
				t.Fatalf("failed to write field %s: %v", name, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/allocate", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}
