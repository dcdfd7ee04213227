package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/lumenpress/discovery/internal/domain"
)

func testServer() *Server {
	return NewServer(nil, nil, nil, nil, nil, nil, zap.NewNop(),
		Limits{DefaultPageSize: 20, MaxPageSize: 100})
}

func TestHandleDomainError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid filter", domain.ErrInvalidFilter, http.StatusBadRequest, codeInvalidFilter},
		{"invalid argument", domain.ErrInvalidArgument, http.StatusBadRequest, codeBadRequest},
		{"not found", domain.ErrNotFound, http.StatusNotFound, codeNotFound},
		{"timeout", domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout},
		{"snapshot cold", domain.ErrSnapshotCold, http.StatusServiceUnavailable, codeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer()
			rec := httptest.NewRecorder()

			s.handleDomainError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestHandleDomainError_UnknownIsInternal(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()

	s.handleDomainError(rec, errors.New("connection reset"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != codeInternalError {
		t.Errorf("code = %q, want %q", resp.Code, codeInternalError)
	}
	if resp.Message != "internal error" {
		t.Errorf("message = %q, leaked internal detail", resp.Message)
	}
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantOK     bool
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", true, 20, 0},
		{"explicit", "limit=5&offset=10", true, 5, 10},
		{"limit over max", "limit=500", false, 0, 0},
		{"negative offset", "offset=-1", false, 0, 0},
		{"non-numeric limit", "limit=abc", false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testServer()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/trending?"+tt.query, nil)

			limit, offset, ok := s.pageParams(rec, req)

			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if rec.Code != http.StatusBadRequest {
					t.Errorf("status = %d, want 400", rec.Code)
				}
				return
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("page = (%d, %d), want (%d, %d)", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestSearch_InvalidBody(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader("{not json"))

	s.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSearch_LimitAboveMax(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search",
		strings.NewReader(`{"query":"go","limit":1000}`))

	s.Search(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRecordClick_MissingFields(t *testing.T) {
	s := testServer()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/clicks",
		strings.NewReader(`{"resultId":"item-1"}`))

	s.RecordClick(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
