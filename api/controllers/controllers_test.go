package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dormledger/hostel-inventory/internal/audits"
	"github.com/dormledger/hostel-inventory/internal/auth"
	"github.com/dormledger/hostel-inventory/internal/export"
	"github.com/dormledger/hostel-inventory/internal/inventory"
	"github.com/dormledger/hostel-inventory/internal/students"
	"github.com/dormledger/hostel-inventory/internal/users"
	pkgerrors "github.com/dormledger/hostel-inventory/pkg/errors"
	"github.com/dormledger/hostel-inventory/pkg/enums"
	"github.com/dormledger/hostel-inventory/pkg/logger"
)

type stubAuthService struct {
	resp *auth.LoginResponse
	err  error
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.resp, s.err
}

func (s stubAuthService) Logout(ctx context.Context, accessID string) error { return s.err }

type stubLedger struct {
	inventory.Service
	outcome *inventory.ReturnOutcome
	err     error
}

func (s stubLedger) Return(ctx context.Context, input inventory.ReturnInput) (*inventory.ReturnOutcome, error) {
	return s.outcome, s.err
}

type stubExport struct{ body []byte }

func (s stubExport) AssignedWorkbook(ctx context.Context) (*bytes.Buffer, error) {
	return bytes.NewBuffer(s.body), nil
}

type stubImporter struct {
	got    []byte
	report *students.ImportReport
}

func (s *stubImporter) ImportXLSX(ctx context.Context, r io.Reader) (*students.ImportReport, error) {
	s.got, _ = io.ReadAll(r)
	return s.report, nil
}

type stubAudits struct {
	audits.Service
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, body *bytes.Buffer) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	return env
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := stubAuthService{resp: &auth.LoginResponse{
		AccessToken: "access-token",
		TokenType:   "Bearer",
		ExpiresIn:   3600,
		User:        &users.UserDTO{Username: "warden"},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"warden","password":"secret1"}`))
	resp := httptest.NewRecorder()
	AuthLogin(svc, logger.Nop()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "access-token", resp.Header().Get(tokenHeader))
	assert.Contains(t, resp.Body.String(), `"token_type":"Bearer"`)
}

func TestAuthLoginRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"x@example.com","password":"secret1"}`))
	resp := httptest.NewRecorder()
	AuthLogin(stubAuthService{}, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestInventoryReturnClosedShape(t *testing.T) {
	handler := InventoryReturn(stubLedger{outcome: &inventory.ReturnOutcome{Closed: true}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/return", strings.NewReader(`{"student_id":1,"kind":"pillow"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	env := decode(t, resp.Body)
	assert.JSONEq(t, `{"closed":true}`, string(env.Data))
}

func TestInventoryReturnPartialReturnsRecord(t *testing.T) {
	record := &inventory.IssuanceDTO{StudentID: 1, Kind: enums.InventoryKindPillow, Quantity: 2}
	handler := InventoryReturn(stubLedger{outcome: &inventory.ReturnOutcome{Record: record}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/return", strings.NewReader(`{"student_id":1,"kind":"pillow","quantity":1}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	env := decode(t, resp.Body)
	assert.Contains(t, string(env.Data), `"quantity":2`)
}

func TestInventoryReturnNotFound(t *testing.T) {
	handler := InventoryReturn(stubLedger{err: pkgerrors.New(pkgerrors.CodeNotFound, "active assignment not found")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/return", strings.NewReader(`{"student_id":1,"kind":"pillow"}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "active assignment not found", decode(t, resp.Body).Error.Message)
}

func TestInventoryAssignedExportHeaders(t *testing.T) {
	handler := InventoryAssignedExport(stubExport{body: []byte("PK-fake")}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory/assigned/export", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, export.ContentType, resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), assignedExportFilename)
	assert.Equal(t, "PK-fake", resp.Body.String())
}

func TestStudentsImportRequiresFile(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	StudentsImport(&stubImporter{}, nil).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStudentsImportPassesUpload(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(importFormField, "students.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("xlsx-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	importer := &stubImporter{report: &students.ImportReport{TotalRows: 3, ValidRows: 2, Inserted: 2}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp := httptest.NewRecorder()
	StudentsImport(importer, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "xlsx-bytes", string(importer.got))
	assert.Contains(t, resp.Body.String(), `"total_rows":3`)
}

func TestAuditsGetRejectsBadID(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/audits/{auditId}", AuditsGet(stubAudits{}, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/audits/not-a-uuid", nil))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decode(t, resp.Body).Error.Code)
}

type stubStudents struct {
	students.Service
}

func TestStudentsGetRejectsNonNumericID(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/students/{studentId}", StudentsGet(stubStudents{}, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/students/abc", nil))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "studentId", decode(t, resp.Body).Error.Details["field"])
}
