package bearer

import (
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crafted/internal/events"
	evidencehandler "crafted/internal/evidence/handler"
	evidenceservice "crafted/internal/evidence/service"
	evidencestore "crafted/internal/evidence/store"
	historyservice "crafted/internal/history/service"
	historystore "crafted/internal/history/store"
	jwttoken "crafted/internal/jwt_token"
	httptransport "crafted/internal/transport/http"
	"crafted/internal/trust"
	"crafted/internal/trust/adapters"
	trusthandler "crafted/internal/trust/handler"
	"crafted/internal/trust/store/memory"
	workerhandler "crafted/internal/worker/handler"
	workerservice "crafted/internal/worker/service"
	workerstore "crafted/internal/worker/store"
	id "crafted/pkg/domain"
	"crafted/pkg/requestcontext"
	"crafted/pkg/testutil"
)

type created struct {
	ID string `json:"id"`
}

type scoreBody struct {
	IdentityScore int `json:"identity_score"`
	SkillScore    int `json:"skill_score"`
	OverallScore  int `json:"overall_score"`
}

func newApp(t *testing.T, jwt *jwttoken.JWTService) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dispatcher := events.NewDispatcher(logger)
	scores := memory.New()
	workers := workerservice.New(workerstore.NewInMemoryWorkerStore(), trust.NewInitializer(scores), dispatcher)
	evidence := evidenceservice.New(evidencestore.NewInMemoryStore(), workers, dispatcher)
	history := historyservice.New(historystore.NewInMemoryHistoryStore(), workers, dispatcher)
	engine := trust.New(scores, adapters.NewWorkerAdapter(workers), evidence, adapters.NewHistoryAdapter(history))
	dispatcher.Subscribe(trust.NewSubscriber(engine).Handle)

	return httptransport.NewRouter(logger, nil, nil,
		workerhandler.New(workers, jwt, logger),
		evidencehandler.New(evidence, jwt, logger),
		trusthandler.New(engine, jwt, logger),
	)
}

func token(t *testing.T, jwt *jwttoken.JWTService, role requestcontext.Role, workerID id.WorkerID, ttl time.Duration) string {
	t.Helper()
	tok, err := jwt.GenerateToken("subject-"+string(role), role, workerID, ttl)
	require.NoError(t, err)
	return tok
}

func TestBearerTokensGateEvidence(t *testing.T) {
	jwt := jwttoken.NewJWTService("integration-secret", "crafted")
	app := newApp(t, jwt)
	operatorToken := token(t, jwt, requestcontext.RoleOperator, id.WorkerID{}, time.Hour)

	rr := testutil.DoRequest(app, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/workers", map[string]any{
		"display_name": "Salma",
		"trade":        "tiler",
		"city":         "Sousse",
	}), operatorToken))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	workerID, err := id.ParseWorkerID(testutil.UnmarshalResponse[created](t, rr).ID)
	require.NoError(t, err)
	workerToken := token(t, jwt, requestcontext.RoleWorker, workerID, time.Hour)
	proofBody := map[string]any{"proof_type": "work_photo", "document_ref": "uploads/tiles-1.jpg"}

	var proofID string
	testutil.Given(t, "a worker token for their own profile", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewJSONRequest(t, http.MethodPost, "/workers/"+workerID.String()+"/skill-proofs", proofBody), workerToken))
		testutil.Then(t, "the worker can submit a skill proof", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusCreated)
			proofID = testutil.UnmarshalResponse[created](t, rr).ID
		})
	})

	testutil.Given(t, "a worker token for someone else's profile", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewJSONRequest(t, http.MethodPost, "/workers/"+id.NewWorkerID().String()+"/skill-proofs", proofBody), workerToken))
		testutil.Then(t, "submission is forbidden", func(t *testing.T) {
			assert.Equal(t, http.StatusForbidden, rr.Code)
		})
	})

	testutil.Given(t, "a worker trying to review their own proof", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewJSONRequest(t, http.MethodPost, "/skill-proofs/"+proofID+"/review", map[string]any{"decision": "verified"}), workerToken))
		testutil.Then(t, "the review is forbidden", func(t *testing.T) {
			assert.Equal(t, http.StatusForbidden, rr.Code)
		})
	})

	testutil.Given(t, "an expired operator token", func(t *testing.T) {
		expired := token(t, jwt, requestcontext.RoleOperator, id.WorkerID{}, -time.Minute)
		rr := testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewJSONRequest(t, http.MethodPost, "/skill-proofs/"+proofID+"/review", map[string]any{"decision": "verified"}), expired))
		testutil.Then(t, "the request is unauthorized", func(t *testing.T) {
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		})
	})

	testutil.When(t, "an operator verifies the proof", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewJSONRequest(t, http.MethodPost, "/skill-proofs/"+proofID+"/review", map[string]any{"decision": "verified"}), operatorToken))
		testutil.AssertStatusOK(t, rr)

		testutil.Then(t, "the public score reflects the verified proof", func(t *testing.T) {
			rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/workers/"+workerID.String()+"/trust-score"))
			score := testutil.UnmarshalResponse[scoreBody](t, rr)
			assert.Equal(t, 4, score.SkillScore)
			assert.Equal(t, 4, score.OverallScore)
		})
	})
}

func registerWorker(t *testing.T, app http.Handler, operatorToken string, body map[string]any) id.WorkerID {
	t.Helper()
	rr := testutil.DoRequest(app, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/workers", body), operatorToken))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	workerID, err := id.ParseWorkerID(testutil.UnmarshalResponse[created](t, rr).ID)
	require.NoError(t, err)
	return workerID
}

func currentScore(t *testing.T, app http.Handler, workerID id.WorkerID) scoreBody {
	t.Helper()
	rr := testutil.DoRequest(app, testutil.NewRequest(t, http.MethodGet, "/workers/"+workerID.String()+"/trust-score"))
	testutil.AssertStatusOK(t, rr)
	return *testutil.UnmarshalResponse[scoreBody](t, rr)
}

func submitAndReview(t *testing.T, app http.Handler, workerToken, operatorToken, submitPath, reviewPrefix string, body, decision map[string]any) {
	t.Helper()
	rr := testutil.DoRequest(app, testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, submitPath, body), workerToken))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	itemID := testutil.UnmarshalResponse[created](t, rr).ID
	rr = testutil.DoRequest(app, testutil.WithBearer(
		testutil.NewJSONRequest(t, http.MethodPost, reviewPrefix+itemID+"/review", decision), operatorToken))
	testutil.AssertStatusOK(t, rr)
}

func TestWorkerCannotRaiseOwnScore(t *testing.T) {
	jwt := jwttoken.NewJWTService("integration-secret", "crafted")
	app := newApp(t, jwt)
	operatorToken := token(t, jwt, requestcontext.RoleOperator, id.WorkerID{}, time.Hour)
	workerID := registerWorker(t, app, operatorToken, map[string]any{
		"display_name": "Nabil",
		"trade":        "roofer",
		"city":         "Sfax",
	})
	workerToken := token(t, jwt, requestcontext.RoleWorker, workerID, time.Hour)
	profilePath := "/workers/" + workerID.String()

	submitAndReview(t, app, workerToken, operatorToken, profilePath+"/identity-documents", "/identity-documents/",
		map[string]any{"document_type": "national_id", "document_number": "TN-0042"},
		map[string]any{"decision": "verified"})
	baseline := currentScore(t, app, workerID)
	require.Equal(t, scoreBody{IdentityScore: 15, OverallScore: 15}, baseline)

	testutil.When(t, "the worker raises their experience after registration", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewJSONRequest(t, http.MethodPatch, profilePath, map[string]any{"experience_years": 70}), workerToken))
		testutil.AssertStatusOK(t, rr)
		testutil.Then(t, "the score keeps the experience declared at registration", func(t *testing.T) {
			assert.Equal(t, baseline, currentScore(t, app, workerID))
		})
	})

	testutil.When(t, "the worker claims a license and local standing", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewJSONRequest(t, http.MethodPatch, profilePath, map[string]any{"licensed": true, "trusted_by_locals": true}), workerToken))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		rr = testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewJSONRequest(t, http.MethodPut, profilePath+"/credentials", map[string]any{"licensed": true}), workerToken))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
		testutil.Then(t, "the score does not move", func(t *testing.T) {
			assert.Equal(t, baseline, currentScore(t, app, workerID))
		})
	})

	testutil.When(t, "an operator attests the license", func(t *testing.T) {
		rr := testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewJSONRequest(t, http.MethodPut, profilePath+"/credentials", map[string]any{"licensed": true}), operatorToken))
		testutil.AssertStatusOK(t, rr)
		testutil.Then(t, "the identity component gains the license credit", func(t *testing.T) {
			assert.Equal(t, scoreBody{IdentityScore: 20, OverallScore: 20}, currentScore(t, app, workerID))
		})
	})
}

func TestRejectedCertificationEarnsNothing(t *testing.T) {
	jwt := jwttoken.NewJWTService("integration-secret", "crafted")
	app := newApp(t, jwt)
	operatorToken := token(t, jwt, requestcontext.RoleOperator, id.WorkerID{}, time.Hour)
	workerID := registerWorker(t, app, operatorToken, map[string]any{
		"display_name": "Hela",
		"trade":        "electrician",
		"city":         "Tunis",
	})
	workerToken := token(t, jwt, requestcontext.RoleWorker, workerID, time.Hour)
	certPath := "/workers/" + workerID.String() + "/certifications"

	submitAndReview(t, app, workerToken, operatorToken, certPath, "/certifications/",
		map[string]any{"name": "Habilitation B1", "issuer": "ATFP"},
		map[string]any{"decision": "verified"})
	before := currentScore(t, app, workerID)
	require.Equal(t, 8, before.SkillScore)

	testutil.When(t, "a second certification is rejected", func(t *testing.T) {
		submitAndReview(t, app, workerToken, operatorToken, certPath, "/certifications/",
			map[string]any{"name": "Habilitation BR", "issuer": "ATFP"},
			map[string]any{"decision": "rejected", "reason": "certificate number does not match issuer records"})

		rr := testutil.DoRequest(app, testutil.WithBearer(
			testutil.NewRequest(t, http.MethodPost, "/workers/"+workerID.String()+"/trust-score/recalculate"), operatorToken))
		testutil.AssertStatusOK(t, rr)

		testutil.Then(t, "the skill score is unchanged", func(t *testing.T) {
			after := currentScore(t, app, workerID)
			assert.Equal(t, before.SkillScore, after.SkillScore)
			assert.Equal(t, before.OverallScore, after.OverallScore)
		})
	})
}
