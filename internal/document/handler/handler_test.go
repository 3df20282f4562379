package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appservice "github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/service"
	appstore "github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/application/store"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/audit"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/internal/document"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
)

type testEnv struct {
	router   chi.Router
	apps     *appservice.Service
	customer domain.UserID
	officer  domain.UserID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := audit.NewPublisher(audit.NewInMemory(), logger)

	docStore := document.NewInMemory()
	apps := appservice.New(appstore.NewInMemory(), publisher, logger, appservice.WithDocumentSource(docStore))
	docs := document.NewService(docStore, apps, publisher, logger)

	router := chi.NewRouter()
	New(docs, logger).Register(router)
	return &testEnv{
		router:   router,
		apps:     apps,
		customer: domain.NewUserID(),
		officer:  domain.NewUserID(),
	}
}

func (e *testEnv) do(method, target string, body any, userID domain.UserID, email string, role domain.Role) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(requestcontext.WithActor(req.Context(), userID, email, role))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) submitApplication(t *testing.T) string {
	t.Helper()
	ctx := requestcontext.WithActor(httptest.NewRequest(http.MethodGet, "/", nil).Context(), e.customer, "customer@example.test", domain.RoleCustomer)
	app, err := e.apps.Submit(ctx, appservice.SubmitRequest{
		LoanType:        domain.LoanTypePersonal,
		LoanAmount:      decimal.NewFromInt(40_000),
		TenureMonths:    36,
		Purpose:         "renovation",
		AnnualIncome:    decimal.NewFromInt(120_000),
		MonthlyExpenses: decimal.NewFromInt(2_000),
		ExistingDebts:   decimal.NewFromInt(12_000),
		CreditScore:     720,
		EmploymentType:  domain.EmploymentSalaried,
		EmploymentYears: 5,
		ApplicantName:   "Asha Kumar",
	})
	require.NoError(t, err)
	return app.ID.String()
}

func uploadBody() map[string]any {
	return map[string]any{
		"type":      "salary_slip",
		"file_name": "salary-may.pdf",
		"extracted_data": map[string]string{
			"employer": "Acme Corp",
		},
	}
}

func TestHandleUpload(t *testing.T) {
	env := newTestEnv(t)
	appID := env.submitApplication(t)

	t.Run("owner uploads", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/applications/"+appID+"/documents", uploadBody(), env.customer, "customer@example.test", domain.RoleCustomer)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp DocumentResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.False(t, resp.Verified)
		assert.Equal(t, "salary_slip", resp.Type)
		assert.Equal(t, "Acme Corp", resp.ExtractedData["employer"])
	})

	t.Run("unknown document type is 400", func(t *testing.T) {
		body := uploadBody()
		body["type"] = "tax_return"
		rec := env.do(http.MethodPost, "/applications/"+appID+"/documents", body, env.customer, "customer@example.test", domain.RoleCustomer)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stranger gets 404", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/applications/"+appID+"/documents", uploadBody(), domain.NewUserID(), "other@example.test", domain.RoleCustomer)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleListAndVerify(t *testing.T) {
	env := newTestEnv(t)
	appID := env.submitApplication(t)

	rec := env.do(http.MethodPost, "/applications/"+appID+"/documents", uploadBody(), env.customer, "customer@example.test", domain.RoleCustomer)
	require.Equal(t, http.StatusCreated, rec.Code)
	var uploaded DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&uploaded))

	t.Run("customer cannot verify", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/documents/"+uploaded.ID+"/verify", nil, env.customer, "customer@example.test", domain.RoleCustomer)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("officer verifies", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/documents/"+uploaded.ID+"/verify", nil, env.officer, "officer@bank.test", domain.RoleOfficer)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp DocumentResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.Verified)
		assert.Equal(t, "officer@bank.test", resp.VerifiedBy)
	})

	t.Run("list shows verification state", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/applications/"+appID+"/documents", nil, env.customer, "customer@example.test", domain.RoleCustomer)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ListResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, 1, resp.Count)
		assert.True(t, resp.Documents[0].Verified)
	})
}
