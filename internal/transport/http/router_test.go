package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crafted/internal/events"
	evidencehandler "crafted/internal/evidence/handler"
	evidenceservice "crafted/internal/evidence/service"
	evidencestore "crafted/internal/evidence/store"
	historyhandler "crafted/internal/history/handler"
	historyservice "crafted/internal/history/service"
	historystore "crafted/internal/history/store"
	"crafted/internal/trust"
	"crafted/internal/trust/adapters"
	trusthandler "crafted/internal/trust/handler"
	"crafted/internal/trust/store/memory"
	workerhandler "crafted/internal/worker/handler"
	workerservice "crafted/internal/worker/service"
	workerstore "crafted/internal/worker/store"
	id "crafted/pkg/domain"
	"crafted/pkg/testutil"
)

// newApp wires every module in process with a synchronous dispatcher, so a
// request that changes evidence has recomputed the score by the time it
// returns.
func newApp(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := events.NewDispatcher(logger)

	scores := memory.New()
	workers := workerservice.New(workerstore.NewInMemoryWorkerStore(), trust.NewInitializer(scores), dispatcher,
		workerservice.WithLogger(logger))
	evidence := evidenceservice.New(evidencestore.NewInMemoryStore(), workers, dispatcher,
		evidenceservice.WithLogger(logger))
	history := historyservice.New(historystore.NewInMemoryHistoryStore(), workers, dispatcher,
		historyservice.WithLogger(logger))
	engine := trust.New(scores, adapters.NewWorkerAdapter(workers), evidence, adapters.NewHistoryAdapter(history),
		trust.WithLogger(logger))
	dispatcher.Subscribe(trust.NewSubscriber(engine, trust.WithSubscriberLogger(logger)).Handle)

	resolver := testutil.NewStaticResolver(id.NewWorkerID())
	return NewRouter(logger, nil, checks,
		workerhandler.New(workers, resolver, logger),
		evidencehandler.New(evidence, resolver, logger),
		historyhandler.New(history, resolver, logger),
		trusthandler.New(engine, resolver, logger),
	)
}

type workerCreated struct {
	ID string `json:"id"`
}

type documentCreated struct {
	ID string `json:"id"`
}

type scoreBody struct {
	OverallScore  int    `json:"overall_score"`
	IdentityScore int    `json:"identity_score"`
	SkillScore    int    `json:"skill_score"`
	Tier          string `json:"tier"`
}

func operator(req *http.Request) *http.Request {
	return testutil.WithBearer(req, testutil.OperatorToken)
}

func TestEvidenceChangesMoveTheScore(t *testing.T) {
	app := newApp(t, nil)

	rr := testutil.DoRequest(app, operator(testutil.NewJSONRequest(t, http.MethodPost, "/workers", map[string]any{
		"display_name":     "Amira",
		"trade":            "plumber",
		"city":             "Tunis",
		"experience_years": 5,
	})))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	worker := testutil.UnmarshalResponse[workerCreated](t, rr)
	base := "/workers/" + worker.ID

	testutil.Given(t, "a newly registered worker with five years declared", func(t *testing.T) {
		testutil.Then(t, "the score carries only the provisional skill credit", func(t *testing.T) {
			rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, base+"/trust-score"))
			testutil.AssertStatusOK(t, rr)
			score := testutil.UnmarshalResponse[scoreBody](t, rr)
			assert.Equal(t, 10, score.SkillScore)
			assert.Equal(t, 10, score.OverallScore)
			assert.Equal(t, "basic", score.Tier)
		})
	})

	testutil.When(t, "an identity document is verified", func(t *testing.T) {
		rr := testutil.DoRequest(app, operator(testutil.NewJSONRequest(t, http.MethodPost, base+"/identity-documents", map[string]any{
			"document_type":   "national_id",
			"document_number": "08123456",
		})))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		doc := testutil.UnmarshalResponse[documentCreated](t, rr)

		rr = testutil.DoRequest(app, operator(testutil.NewJSONRequest(t, http.MethodPost, "/identity-documents/"+doc.ID+"/review", map[string]any{
			"decision": "verified",
		})))
		testutil.AssertStatusOK(t, rr)

		testutil.Then(t, "identity points are added", func(t *testing.T) {
			rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, base+"/trust-score"))
			score := testutil.UnmarshalResponse[scoreBody](t, rr)
			assert.Equal(t, 15, score.IdentityScore)
			assert.Equal(t, 25, score.OverallScore)
		})

		testutil.Then(t, "the worker shows as identity verified", func(t *testing.T) {
			rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, base))
			testutil.AssertJSONContains(t, rr, "identity_status", "verified")
		})
	})

	testutil.Given(t, "an unknown worker", func(t *testing.T) {
		rr := testutil.DoRequest(app, operator(testutil.NewRequest(t, http.MethodPost, "/workers/"+id.NewWorkerID().String()+"/trust-score/recalculate")))
		testutil.Then(t, "recalculation is not found", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
		})
	})
}

func TestHealth(t *testing.T) {
	t.Run("healthy with no checks", func(t *testing.T) {
		rr := testutil.DoRequest(newApp(t, nil), testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("degraded when a dependency fails", func(t *testing.T) {
		app := newApp(t, map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/health"))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		testutil.AssertJSONContains(t, rr, "status", "degraded")
	})
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := testutil.NewRequest(t, http.MethodGet, "/health")
	req.Header.Set("X-Request-ID", "req-123")
	rr := testutil.DoRequest(newApp(t, nil), req)
	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	rr := testutil.DoRequest(newApp(t, nil), testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
}
