package hospital

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/medicare/backend/internal/model/hospital"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(hospital.NewMemoryStore(hospital.Seed())).RegisterRoutes(r)
	return r
}

func decodeHospitals(t *testing.T, body []byte) []hospital.Hospital {
	t.Helper()
	var payload struct {
		Hospitals []hospital.Hospital `json:"hospitals"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode hospitals: %v", err)
	}
	return payload.Hospitals
}

func TestListHospitals(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/hospitals", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := decodeHospitals(t, resp.Body.Bytes()); len(got) != len(hospital.Seed()) {
		t.Fatalf("expected %d hospitals, got %d", len(hospital.Seed()), len(got))
	}
}

func TestSearchHospitals(t *testing.T) {
	r := setupRouter()
	specialty := hospital.Seed()[0].Specialties[0]
	payload, _ := json.Marshal(map[string]string{"specialty": specialty})

	req := httptest.NewRequest(http.MethodPost, "/hospitals/search", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	got := decodeHospitals(t, resp.Body.Bytes())
	if len(got) == 0 {
		t.Fatalf("expected a match for %q", specialty)
	}
}

func TestSearchHospitalsInvalidBody(t *testing.T) {
	r := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/hospitals/search", bytes.NewReader([]byte("{")))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
