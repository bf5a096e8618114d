package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/domain"
	portssvc "github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/ports/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/core/services"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/handlers"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/middleware"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/config"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/platform/lock"
	"github.com/kalana-karunarathna/Fuel-Station-Management-sub001/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const testSecret = "handler-test-secret"

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type HandlersTestSuite struct {
	suite.Suite
	router   *gin.Engine
	services *portssvc.ServiceContainer
	accounts int
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWTSecret:          testSecret,
		ReconcileTolerance: 0.01,
		TxMaxRetries:       3,
		LockTTL:            time.Minute,
	}
	s.services = services.NewServiceContainer(cfg, memory.NewRepositoryProvider(memory.New()), lock.NewKeyedMutex())

	s.router = gin.New()
	s.router.Use(middleware.StructuredLoggingMiddleware(slog.New(slog.NewTextHandler(io.Discard, nil))))
	handlers.RegisterRoutes(s.router, cfg, s.services)
}

func (s *HandlersTestSuite) token(userID string, role domain.Role) string {
	tok, err := middleware.IssueToken(testSecret, "test", userID, role, time.Hour)
	s.Require().NoError(err)
	return tok
}

func (s *HandlersTestSuite) do(method, path, token string, body any) (int, apiResponse) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func (s *HandlersTestSuite) createAccount(opening string) string {
	s.accounts++
	code, resp := s.do(http.MethodPost, "/api/v1/accounts", s.token("acct-1", domain.RoleAccountant), map[string]any{
		"bankName":       "Commercial Bank",
		"accountNumber":  fmt.Sprintf("100200300%d", s.accounts),
		"accountName":    "Station Operating",
		"currencyCode":   "LKR",
		"stationID":      "station-1",
		"openingBalance": opening,
	})
	s.Require().Equal(http.StatusCreated, code, resp.Error)
	var acc struct {
		AccountID string `json:"accountID"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &acc))
	return acc.AccountID
}

func (s *HandlersTestSuite) balance(accountID string) decimal.Decimal {
	code, resp := s.do(http.MethodGet, "/api/v1/accounts/"+accountID, s.token("viewer", domain.RoleEmployee), nil)
	s.Require().Equal(http.StatusOK, code)
	var acc struct {
		CurrentBalance decimal.Decimal `json:"currentBalance"`
	}
	s.Require().NoError(json.Unmarshal(resp.Data, &acc))
	return acc.CurrentBalance
}

func (s *HandlersTestSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("OK", w.Body.String())
}

func (s *HandlersTestSuite) TestRequiresToken() {
	code, resp := s.do(http.MethodGet, "/api/v1/accounts", "", nil)
	s.Equal(http.StatusUnauthorized, code)
	s.False(resp.Success)
}

func (s *HandlersTestSuite) TestCreateAccount_RoleGate() {
	code, resp := s.do(http.MethodPost, "/api/v1/accounts", s.token("cashier-1", domain.RoleCashier), map[string]any{
		"bankName": "BOC", "accountNumber": "1", "accountName": "Till", "currencyCode": "LKR",
	})
	s.Equal(http.StatusForbidden, code)
	s.False(resp.Success)
}

func (s *HandlersTestSuite) TestCreateAccount_UnknownCurrency() {
	code, resp := s.do(http.MethodPost, "/api/v1/accounts", s.token("acct-1", domain.RoleAccountant), map[string]any{
		"bankName": "BOC", "accountNumber": "1", "accountName": "Till", "currencyCode": "XXZ",
	})
	s.Equal(http.StatusBadRequest, code)
	s.Contains(resp.Error, "unknown currency")
}

func (s *HandlersTestSuite) TestGetAccount_NotFound() {
	code, resp := s.do(http.MethodGet, "/api/v1/accounts/missing", s.token("viewer", domain.RoleEmployee), nil)
	s.Equal(http.StatusNotFound, code)
	s.False(resp.Success)
}

func (s *HandlersTestSuite) TestListAccounts() {
	s.createAccount("100")
	s.createAccount("200")

	code, resp := s.do(http.MethodGet, "/api/v1/accounts?stationID=station-1&limit=10", s.token("viewer", domain.RoleEmployee), nil)
	s.Require().Equal(http.StatusOK, code)
	var accounts []map[string]any
	s.Require().NoError(json.Unmarshal(resp.Data, &accounts))
	s.Len(accounts, 2)

	code, _ = s.do(http.MethodGet, "/api/v1/accounts?limit=0", s.token("viewer", domain.RoleEmployee), nil)
	s.Equal(http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/api/v1/accounts?limit=9999", s.token("viewer", domain.RoleEmployee), nil)
	s.Equal(http.StatusBadRequest, code)
}

func (s *HandlersTestSuite) TestPosting_InsufficientFunds() {
	accountID := s.createAccount("100")

	code, resp := s.do(http.MethodPost, "/api/v1/accounts/"+accountID+"/postings", s.token("acct-1", domain.RoleAccountant), map[string]any{
		"amount": "150", "direction": "DEBIT", "type": "withdrawal",
	})
	s.Equal(http.StatusUnprocessableEntity, code)
	s.False(resp.Success)
	s.True(decimal.RequireFromString("100").Equal(s.balance(accountID)))

	code, _ = s.do(http.MethodPost, "/api/v1/accounts/"+accountID+"/postings", s.token("acct-1", domain.RoleAccountant), map[string]any{
		"amount": "40", "direction": "DEBIT", "type": "withdrawal",
	})
	s.Equal(http.StatusCreated, code)
	s.True(decimal.RequireFromString("60").Equal(s.balance(accountID)))

	code, resp = s.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/verify", s.token("viewer", domain.RoleEmployee), nil)
	s.Require().Equal(http.StatusOK, code)
	var verification domain.BalanceVerification
	s.Require().NoError(json.Unmarshal(resp.Data, &verification))
	s.True(verification.Consistent)
}

func (s *HandlersTestSuite) TestTransfer() {
	from := s.createAccount("500")
	to := s.createAccount("0")
	tok := s.token("acct-1", domain.RoleAccountant)

	code, resp := s.do(http.MethodPost, "/api/v1/transfers", tok, map[string]any{
		"fromAccountID": from, "toAccountID": from, "amount": "10",
	})
	s.Equal(http.StatusBadRequest, code, resp.Error)

	code, _ = s.do(http.MethodPost, "/api/v1/transfers", tok, map[string]any{
		"fromAccountID": from, "toAccountID": to, "amount": "500.01",
	})
	s.Equal(http.StatusUnprocessableEntity, code)

	code, _ = s.do(http.MethodPost, "/api/v1/transfers", tok, map[string]any{
		"fromAccountID": from, "toAccountID": to, "amount": "0.00004",
	})
	s.Equal(http.StatusBadRequest, code)

	code, resp = s.do(http.MethodPost, "/api/v1/transfers", tok, map[string]any{
		"fromAccountID": from, "toAccountID": to, "amount": "125.50",
	})
	s.Require().Equal(http.StatusCreated, code, resp.Error)
	var transfer domain.Transfer
	s.Require().NoError(json.Unmarshal(resp.Data, &transfer))

	s.True(decimal.RequireFromString("374.50").Equal(s.balance(from)))
	s.True(decimal.RequireFromString("125.50").Equal(s.balance(to)))

	code, _ = s.do(http.MethodGet, "/api/v1/transfers/"+transfer.TransferID, tok, nil)
	s.Equal(http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/api/v1/journal-entries?transferID="+transfer.TransferID, tok, nil)
	s.Equal(http.StatusOK, code)
}

func (s *HandlersTestSuite) TestJournal_InvalidDate() {
	code, resp := s.do(http.MethodGet, "/api/v1/journal-entries?from=15-01-2026", s.token("acct-1", domain.RoleAccountant), nil)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(resp.Error, "YYYY-MM-DD")
}

func (s *HandlersTestSuite) TestReconcile() {
	accountID := s.createAccount("1000")
	tok := s.token("acct-1", domain.RoleAccountant)

	code, resp := s.do(http.MethodPost, "/api/v1/accounts/"+accountID+"/reconciliations", tok, map[string]any{
		"statementBalance": "990",
	})
	s.Require().Equal(http.StatusCreated, code, resp.Error)
	var rec domain.Reconciliation
	s.Require().NoError(json.Unmarshal(resp.Data, &rec))
	s.True(decimal.RequireFromString("-10").Equal(rec.Difference))
	s.True(decimal.RequireFromString("1000").Equal(s.balance(accountID)))

	code, resp = s.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/reconciliations", tok, nil)
	s.Require().Equal(http.StatusOK, code)
	var recs []domain.Reconciliation
	s.Require().NoError(json.Unmarshal(resp.Data, &recs))
	s.Len(recs, 1)
}

func (s *HandlersTestSuite) TestPettyCashApprovalFlow() {
	manager := s.token("manager-1", domain.RoleManager)
	cashier := s.token("cashier-1", domain.RoleCashier)

	code, resp := s.do(http.MethodPost, "/api/v1/stations/station-9/petty-cash", cashier, map[string]any{
		"minLimit": "1000", "maxLimit": "5000", "initialBalance": "3000",
	})
	s.Equal(http.StatusForbidden, code)

	code, resp = s.do(http.MethodPost, "/api/v1/stations/station-9/petty-cash", manager, map[string]any{
		"minLimit": "1000", "maxLimit": "5000", "initialBalance": "3000",
	})
	s.Require().Equal(http.StatusCreated, code, resp.Error)

	code, resp = s.do(http.MethodPost, "/api/v1/stations/station-9/petty-cash/withdrawals", cashier, map[string]any{
		"amount": "250", "description": "Cleaning supplies",
	})
	s.Require().Equal(http.StatusCreated, code, resp.Error)
	var entry domain.PettyCashEntry
	s.Require().NoError(json.Unmarshal(resp.Data, &entry))
	s.Equal(domain.ApprovalPending, entry.ApprovalStatus)

	code, _ = s.do(http.MethodPost, "/api/v1/petty-cash/entries/"+entry.EntryID+"/approve", cashier, nil)
	s.Equal(http.StatusForbidden, code)

	code, resp = s.do(http.MethodPost, "/api/v1/petty-cash/entries/"+entry.EntryID+"/approve", manager, nil)
	s.Require().Equal(http.StatusOK, code, resp.Error)

	code, _ = s.do(http.MethodPost, "/api/v1/petty-cash/entries/"+entry.EntryID+"/approve", manager, nil)
	s.Equal(http.StatusConflict, code)

	code, resp = s.do(http.MethodGet, "/api/v1/stations/station-9/petty-cash", cashier, nil)
	s.Require().Equal(http.StatusOK, code)
	var status domain.PettyCashStatus
	s.Require().NoError(json.Unmarshal(resp.Data, &status))
	s.True(decimal.RequireFromString("2750").Equal(status.Account.CurrentBalance))

	code, _ = s.do(http.MethodPost, "/api/v1/stations/station-9/petty-cash/replenishments", manager, map[string]any{
		"amount": "2500",
	})
	s.Equal(http.StatusUnprocessableEntity, code)

	code, _ = s.do(http.MethodGet, "/api/v1/petty-cash/entries?status=bogus", manager, nil)
	s.Equal(http.StatusBadRequest, code)
}

func (s *HandlersTestSuite) TestLoanLifecycle() {
	employee := s.token("emp-7", domain.RoleEmployee)
	manager := s.token("manager-1", domain.RoleManager)

	code, resp := s.do(http.MethodPost, "/api/v1/loans", employee, map[string]any{
		"employeeID":     "emp-someone-else",
		"amount":         "6000",
		"interestRate":   "10",
		"durationMonths": 6,
		"startDate":      "2026-01-10T00:00:00Z",
	})
	s.Require().Equal(http.StatusCreated, code, resp.Error)
	var loan domain.Loan
	s.Require().NoError(json.Unmarshal(resp.Data, &loan))
	s.Equal("emp-7", loan.EmployeeID)
	s.Equal(domain.LoanPending, loan.Status)

	code, _ = s.do(http.MethodPost, "/api/v1/loans/"+loan.LoanID+"/approve", employee, nil)
	s.Equal(http.StatusForbidden, code)

	code, resp = s.do(http.MethodPost, "/api/v1/loans/"+loan.LoanID+"/approve", manager, nil)
	s.Require().Equal(http.StatusOK, code, resp.Error)
	s.Require().NoError(json.Unmarshal(resp.Data, &loan))
	s.Equal(domain.LoanActive, loan.Status)

	code, resp = s.do(http.MethodPost, "/api/v1/loans/"+loan.LoanID+"/payments", manager, map[string]any{
		"installmentNumber": 1,
	})
	s.Require().Equal(http.StatusOK, code, resp.Error)

	code, _ = s.do(http.MethodPost, "/api/v1/loans/"+loan.LoanID+"/payments", manager, map[string]any{
		"installmentNumber": 1,
	})
	s.Equal(http.StatusConflict, code)

	code, resp = s.do(http.MethodGet, "/api/v1/employees/emp-7/due-installments?asOf=2026-04-10", employee, nil)
	s.Require().Equal(http.StatusOK, code, resp.Error)
	var due []domain.DueInstallment
	s.Require().NoError(json.Unmarshal(resp.Data, &due))
	s.Len(due, 2)

	code, _ = s.do(http.MethodGet, "/api/v1/employees/emp-8/due-installments", employee, nil)
	s.Equal(http.StatusForbidden, code)
}

func (s *HandlersTestSuite) TestPreviewSchedule_Invalid() {
	code, resp := s.do(http.MethodPost, "/api/v1/loans/schedule", s.token("emp-7", domain.RoleEmployee), map[string]any{
		"amount": "0", "interestRate": "5", "durationMonths": 12,
	})
	s.Equal(http.StatusBadRequest, code)
	s.False(resp.Success)
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func TestRoutesRequireRegisteredServices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	require.NotPanics(t, func() {
		handlers.RegisterRoutes(r, &config.Config{JWTSecret: testSecret}, &portssvc.ServiceContainer{})
	})
	require.NotEmpty(t, r.Routes())
}
