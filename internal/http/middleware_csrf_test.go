package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func csrfTestHandler(captured *string) http.Handler {
	return CSRFProtection(CSRFConfig{CookieDomain: "food.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			*captured = GetCSRFToken(r)
		}
		w.WriteHeader(http.StatusOK)
	}))
}

func csrfCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	resp := rec.Result()
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		if c.Name == DefaultCSRFCookieName {
			return c
		}
	}
	return nil
}

func TestCSRFProtection_IssuesTokenOnSafeRequest(t *testing.T) {
	var captured string
	h := csrfTestHandler(&captured)

	req := httptest.NewRequest(http.MethodGet, "https://food.example/select-role", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	ck := csrfCookieFrom(t, rec)
	if ck == nil || ck.Value == "" {
		t.Fatal("CSRF cookie not set")
	}
	if captured != ck.Value {
		t.Errorf("context token %q does not match cookie token %q", captured, ck.Value)
	}
	if !ck.Secure {
		t.Error("expected Secure flag for HTTPS request")
	}
	if ck.SameSite != http.SameSiteStrictMode {
		t.Errorf("expected SameSite=Strict, got %v", ck.SameSite)
	}
	if ck.Domain != "food.example" {
		t.Errorf("expected Domain=food.example, got %q", ck.Domain)
	}
}

func TestCSRFProtection_ExistingCookieNotReissued(t *testing.T) {
	h := csrfTestHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/select-role", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if ck := csrfCookieFrom(t, rec); ck != nil {
		t.Errorf("expected no Set-Cookie when token already exists, got %v", ck)
	}
}

func TestCSRFProtection_Validation(t *testing.T) {
	const token = "cookie-token"
	form := url.Values{DefaultCSRFCookieName: {token}}.Encode()

	tests := []struct {
		name     string
		cookie   string
		header   string
		body     string
		ctype    string
		wantCode int
	}{
		{name: "no cookie", wantCode: http.StatusForbidden},
		{name: "cookie without submission", cookie: token, wantCode: http.StatusForbidden},
		{name: "valid header", cookie: token, header: token, wantCode: http.StatusOK},
		{name: "mismatched header", cookie: token, header: "other", wantCode: http.StatusForbidden},
		{
			name: "valid form field", cookie: token, body: form,
			ctype: "application/x-www-form-urlencoded", wantCode: http.StatusOK,
		},
		{
			name: "json body ignored", cookie: token, body: `{"csrf_token":"cookie-token"}`,
			ctype: "application/json", wantCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/select-role", strings.NewReader(tt.body))
			if tt.ctype != "" {
				req.Header.Set("Content-Type", tt.ctype)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(DefaultCSRFHeaderName, tt.header)
			}
			rec := httptest.NewRecorder()
			csrfTestHandler(nil).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestCSRFProtection_SafeMethodsExempt(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace} {
		t.Run(method, func(t *testing.T) {
			rec := httptest.NewRecorder()
			csrfTestHandler(nil).ServeHTTP(rec, httptest.NewRequest(method, "/select-role", nil))
			if rec.Code != http.StatusOK {
				t.Errorf("method %s: expected status 200, got %d", method, rec.Code)
			}
		})
	}
}
