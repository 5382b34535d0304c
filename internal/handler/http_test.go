package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"novel-reader/internal/service"
	"novel-reader/internal/transaction"
	"novel-reader/shared/authutils"
	"novel-reader/shared/database"
	sharedMiddleware "novel-reader/shared/middleware"
	"novel-reader/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	userSecret    = "user-secret"
	serviceSecret = "service-secret"
)

var (
	storyID = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-000000000001")
	page1   = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-0000000000a1")
	page3   = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-0000000000a3")
	choice1 = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-0000000000c1")
	choice2 = uuid.MustParse("5b0c6a52-1d2e-4f61-9a7b-0000000000c2") // premium 10
)

type testServer struct {
	e      *echo.Echo
	userID uuid.UUID
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()

	store := database.NewMemoryStore()
	fixtures, err := database.LoadGraphFixtures(database.SampleFixtures, "fixtures")
	require.NoError(t, err)
	require.NoError(t, database.SeedGraphs(context.Background(), store, fixtures))

	engine := service.NewStoryEngine(service.Deps{
		Graph:     store,
		Balances:  store,
		Progress:  store,
		Ledger:    store,
		Purchaser: transaction.NewManager(store, logger),
	}, logger)

	userVerifier, err := authutils.NewJWTVerifier(userSecret, logger)
	require.NoError(t, err)
	serviceVerifier, err := authutils.NewJWTVerifier(serviceSecret, logger)
	require.NoError(t, err)

	e := echo.New()
	NewReaderHandler(engine, userVerifier, serviceVerifier, logger).RegisterRoutes(e)

	userID := uuid.New()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.Claims{
		UserID: userID,
		Roles:  []string{models.RoleUser},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(userSecret))
	require.NoError(t, err)

	return &testServer{e: e, userID: userID, token: token}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) credit(t *testing.T, amount string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := authutils.SignInterServiceToken(serviceSecret, "payments", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/internal/users/"+s.userID.String()+"/balance/credit",
		strings.NewReader(`{"amount":`+amount+`}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(sharedMiddleware.InternalServiceTokenHeader, token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

type sessionBody struct {
	CurrentPage      models.Page               `json:"current_page"`
	AvailableChoices []models.ChoiceEvaluation `json:"available_choices"`
	Balance          int64                     `json:"balance"`
	Tension          *models.TensionMetrics    `json:"tension"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionBody {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body sessionBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func storyPath(suffix string) string {
	return "/stories/" + storyID.String() + suffix
}

func TestReaderFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, storyPath("/progress"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	session := decodeSession(t, s.do(t, http.MethodGet, storyPath("/session"), ""))
	assert.Equal(t, page1, session.CurrentPage.ID)
	require.Len(t, session.AvailableChoices, 2)
	assert.True(t, session.AvailableChoices[0].Accessible)
	assert.False(t, session.AvailableChoices[1].Accessible)
	assert.Equal(t, models.ReasonInsufficientCurrency, session.AvailableChoices[1].Reason)
	require.NotNil(t, session.Tension)

	rec = s.do(t, http.MethodPost, storyPath("/navigate"), `{"choice_id":"`+choice2.String()+`"}`)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)

	rec = s.credit(t, "25")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"balance":25`)

	session = decodeSession(t, s.do(t, http.MethodPost, storyPath("/navigate"), `{"choice_id":"`+choice2.String()+`"}`))
	assert.Equal(t, page3, session.CurrentPage.ID)
	assert.Equal(t, int64(15), session.Balance)

	rec = s.do(t, http.MethodGet, "/me/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":15`)

	rec = s.do(t, http.MethodGet, storyPath("/progress"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var progress models.UserProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &progress))
	assert.Equal(t, page3, progress.CurrentPageID)
	assert.True(t, progress.HasPurchased(choice2))

	session = decodeSession(t, s.do(t, http.MethodPost, storyPath("/restart"), ""))
	assert.Equal(t, page1, session.CurrentPage.ID)
	require.Len(t, session.AvailableChoices, 2)
	assert.Equal(t, models.ReasonPreviouslyPurchased, session.AvailableChoices[1].Reason)
	assert.Equal(t, int64(15), session.Balance, "restart never refunds or charges")
}

func TestNavigate_BadRequests(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]struct {
		path   string
		body   string
		status int
	}{
		"both targets": {storyPath("/navigate"), `{"choice_id":"` + choice1.String() + `","target_page_id":"` + page1.String() + `"}`, http.StatusBadRequest},
		"bad choice id":  {storyPath("/navigate"), `{"choice_id":"nope"}`, http.StatusBadRequest},
		"bad json":       {storyPath("/navigate"), `{`, http.StatusBadRequest},
		"bad story id":   {"/stories/xyz/navigate", `{}`, http.StatusBadRequest},
		"unknown choice": {storyPath("/navigate"), `{"choice_id":"` + uuid.NewString() + `"}`, http.StatusNotFound},
		"unknown page":   {storyPath("/navigate"), `{"target_page_id":"` + uuid.NewString() + `"}`, http.StatusNotFound},
		"unknown story":  {"/stories/" + uuid.NewString() + "/navigate", `{}`, http.StatusNotFound},
		"unread page":    {storyPath("/navigate"), `{"target_page_id":"` + page3.String() + `"}`, http.StatusForbidden},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"message"`)
		})
	}
}

func TestNavigate_RequiresUserToken(t *testing.T) {
	s := newTestServer(t)
	s.token = "garbage"
	rec := s.do(t, http.MethodPost, storyPath("/navigate"), `{}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreditBalance_Validation(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.credit(t, "0").Code)
	assert.Equal(t, http.StatusBadRequest, s.credit(t, "-5").Code)

	// пользовательский токен не подходит для внутреннего маршрута
	rec := s.do(t, http.MethodPost, "/internal/users/"+s.userID.String()+"/balance/credit", `{"amount":5}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOperationalRoutes(t *testing.T) {
	s := newTestServer(t)
	decodeSession(t, s.do(t, http.MethodGet, storyPath("/session"), ""))

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reader_navigations_total")
}

func TestHandleServiceError_Mapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{models.ErrInsufficientFunds, http.StatusPaymentRequired},
		{models.ErrInvalidChoice, http.StatusNotFound},
		{service.ErrForeignPage, http.StatusNotFound},
		{service.ErrNoTarget, http.StatusBadRequest},
		{models.ErrInvalidAmount, http.StatusBadRequest},
		{models.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrPageNotReached, http.StatusForbidden},
		{models.ErrPersistenceFailure, http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, handleServiceError(c, tc.err))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}
