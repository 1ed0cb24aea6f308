package orders

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abouhashemahmed/heritage/internal/domain"
)

func discardHandler() *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// The forbidden paths under test return before the service is touched.
	return NewHandler(NewService(nil, nil, nil, logger), logger)
}

func TestIdentityFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-User-ID", "cust-9")

	identity := identityFrom(req)
	if identity.UserID != "cust-9" {
		t.Fatalf("expected user_id 'cust-9', got %q", identity.UserID)
	}
	if identity.Role != domain.RoleCustomer {
		t.Fatalf("expected default role %q, got %q", domain.RoleCustomer, identity.Role)
	}

	req.Header.Set("X-User-Role", domain.RoleAdmin)
	identity = identityFrom(req)
	if identity.Role != domain.RoleAdmin {
		t.Fatalf("expected role %q, got %q", domain.RoleAdmin, identity.Role)
	}
}

func TestListFilterFrom(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{name: "defaults", query: "", wantPage: 1, wantLimit: defaultPageSize},
		{name: "explicit", query: "page=3&limit=50", wantPage: 3, wantLimit: 50},
		{name: "zero page clamps to first", query: "page=0&limit=10", wantPage: 1, wantLimit: 10},
		{name: "negative page clamps to first", query: "page=-4", wantPage: 1, wantLimit: defaultPageSize},
		{name: "garbage falls back", query: "page=abc&limit=xyz", wantPage: 1, wantLimit: defaultPageSize},
		{name: "limit capped", query: "limit=5000", wantPage: 1, wantLimit: maxPageSize},
		{name: "zero limit falls back", query: "limit=0", wantPage: 1, wantLimit: defaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders?"+tt.query, nil)
			filter := listFilterFrom(req)
			if filter.Page != tt.wantPage {
				t.Fatalf("expected page %d, got %d", tt.wantPage, filter.Page)
			}
			if filter.Limit != tt.wantLimit {
				t.Fatalf("expected limit %d, got %d", tt.wantLimit, filter.Limit)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/orders?status=SHIPPED", nil)
	if got := listFilterFrom(req).Status; got != domain.OrderStatusShipped {
		t.Fatalf("expected status filter %s, got %s", domain.OrderStatusShipped, got)
	}
}

func TestHandleListRequiresIdentity(t *testing.T) {
	handler := discardHandler()

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	handler.HandleList(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d without identity, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleListAllRejectsNonAdmins(t *testing.T) {
	handler := discardHandler()

	for _, role := range []string{"", domain.RoleCustomer, domain.RoleService} {
		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		req.Header.Set("X-User-ID", "cust-1")
		if role != "" {
			req.Header.Set("X-User-Role", role)
		}
		rec := httptest.NewRecorder()
		handler.HandleListAll(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("role %q: expected status %d, got %d", role, http.StatusForbidden, rec.Code)
		}
	}
}

func TestHandleUpdateStatusRejectsCustomers(t *testing.T) {
	handler := discardHandler()

	req := httptest.NewRequest(http.MethodPatch, "/orders/abc/status", strings.NewReader(`{"status":"PROCESSING"}`))
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()
	handler.HandleUpdateStatus(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d for customer, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleFlagRejectsCustomers(t *testing.T) {
	handler := discardHandler()

	req := httptest.NewRequest(http.MethodPost, "/internal/orders/abc/flag", strings.NewReader(`{"risk_score":0.9}`))
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()
	handler.HandleFlag(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status %d for customer, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestHandleGetRejectsMalformedID(t *testing.T) {
	handler := discardHandler()

	req := httptest.NewRequest(http.MethodGet, "/orders/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	req.Header.Set("X-User-ID", "cust-1")
	rec := httptest.NewRecorder()
	handler.HandleGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for malformed id, got %d", http.StatusNotFound, rec.Code)
	}
}
