package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crafted/internal/events"
	"crafted/internal/history/service"
	"crafted/internal/history/store"
	workermodels "crafted/internal/worker/models"
	id "crafted/pkg/domain"
	dErrors "crafted/pkg/domain-errors"
	"crafted/pkg/testutil"
)

type stubWorkers map[id.WorkerID]bool

func (s stubWorkers) Get(_ context.Context, workerID id.WorkerID) (*workermodels.Worker, error) {
	if !s[workerID] {
		return nil, dErrors.New(dErrors.CodeNotFound, "worker not found")
	}
	return &workermodels.Worker{ID: workerID}, nil
}

func newRouter(t *testing.T, workerID id.WorkerID) chi.Router {
	t.Helper()
	svc := service.New(store.NewInMemoryHistoryStore(), stubWorkers{workerID: true}, events.NopPublisher{})
	r := chi.NewRouter()
	New(svc, testutil.NewStaticResolver(workerID), slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestJobFlow(t *testing.T) {
	workerID := id.NewWorkerID()
	router := newRouter(t, workerID)
	base := "/workers/" + workerID.String()

	testutil.Given(t, "an operator reporting job outcomes", func(t *testing.T) {
		testutil.When(t, "a job is assigned and completed", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodPost, base+"/jobs/assigned"), testutil.OperatorToken))
			testutil.AssertStatusOK(t, rr)
			rr = testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, http.MethodPost, base+"/jobs/completed"), testutil.OperatorToken))
			testutil.AssertStatusOK(t, rr)

			testutil.Then(t, "the public history shows full completion", func(t *testing.T) {
				rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, base+"/job-history"))
				testutil.AssertStatusOK(t, rr)
				resp := testutil.UnmarshalResponse[historyResponse](t, rr)
				assert.Equal(t, 1, resp.TotalJobs)
				assert.Equal(t, 1.0, resp.CompletionRatio)
			})
			testutil.And(t, "no rating has been recorded yet", func(t *testing.T) {
				rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, base+"/job-history"))
				resp := testutil.UnmarshalResponse[historyResponse](t, rr)
				assert.Zero(t, resp.RatingCount)
				assert.Zero(t, resp.AverageRating)
			})
		})

		testutil.When(t, "a rating is out of range", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, base+"/ratings", map[string]int{"stars": 7})
			rr := testutil.DoRequest(router, testutil.WithBearer(req, testutil.OperatorToken))
			testutil.Then(t, "it is rejected", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
			})
		})
	})

	testutil.Given(t, "a worker token", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, base+"/ratings", map[string]int{"stars": 5})
		rr := testutil.DoRequest(router, testutil.WithBearer(req, testutil.WorkerToken))
		testutil.Then(t, "workers cannot rate themselves", func(t *testing.T) {
			require.Equal(t, http.StatusForbidden, rr.Code)
		})
	})

	testutil.Given(t, "an unknown worker", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.WithBearer(
			testutil.NewRequest(t, http.MethodPost, "/workers/"+id.NewWorkerID().String()+"/jobs/assigned"), testutil.OperatorToken))
		testutil.Then(t, "the response is 404", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
		})
	})
}
