package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"jobradar/pkg/httpapi"
	"jobradar/pkg/models"
	"jobradar/pkg/storage/postgres"
)

// setupStore mirrors the teacher's integration suite's environment-driven
// connection setup, skipping rather than failing when no test database is
// reachable.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()
	if os.Getenv("SKIP_INTEGRATION_TESTS") == "true" {
		t.Skip("skipping integration tests (SKIP_INTEGRATION_TESTS=true)")
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5432"),
		getEnv("TEST_DB_USER", "jobradar"),
		getEnv("TEST_DB_PASS", "password"),
		getEnv("TEST_DB_NAME", "jobradar_test"),
	)

	store, err := postgres.New(connStr)
	if err != nil {
		t.Skipf("skipping integration tests: %v", err)
	}
	return store
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// TestJobLifecycle exercises the full canonical-job lifecycle spec.md §3
// describes: inserted active, browsable via GET /api/jobs and
// GET /api/jobs/:id, then transitioned to applied via the HTTP surface.
func TestJobLifecycle(t *testing.T) {
	store := setupStore(t)
	defer store.Close()

	server := httpapi.NewServer(httpapi.Config{
		Port:      "0",
		AuthToken: "",
		Store:     store,
	})

	ctx := context.Background()
	job := &models.CanonicalJob{
		Title:        "Integration Test Engineer",
		Company:      "Acme",
		URL:          fmt.Sprintf("https://example.com/jobs/%s", uuid.New()),
		URLHash:      uuid.New().String(),
		Status:       models.StatusActive,
		Score:        90,
		ScoreBand:    models.ScoreBandTopPriority,
		PostedAt:     timePtr(time.Now()),
	}
	if err := store.InsertCanonicalJob(ctx, job); err != nil {
		t.Fatalf("insert canonical job: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/jobs/%s", job.ID), nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/jobs/:id expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var fetched struct {
		Job models.CanonicalJob `json:"job"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode job response: %v", err)
	}
	if fetched.Job.ID != job.ID {
		t.Errorf("expected job id %s, got %s", job.ID, fetched.Job.ID)
	}

	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/jobs/%s/applied", job.ID), nil)
	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/jobs/:id/applied expected 200, got %d: %s", w.Code, w.Body.String())
	}

	updated, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("get updated job: %v", err)
	}
	if updated.Status != models.StatusApplied {
		t.Errorf("expected status applied, got %s", updated.Status)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
