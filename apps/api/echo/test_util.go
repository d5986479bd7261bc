package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/maoni/core"
	"github.com/trezcool/maoni/core/account"
	"github.com/trezcool/maoni/core/notify"
	"github.com/trezcool/maoni/core/review"
	"github.com/trezcool/maoni/core/session"
	emailsvc "github.com/trezcool/maoni/services/email"
	logsvc "github.com/trezcool/maoni/services/logger"
	dummydb "github.com/trezcool/maoni/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

type testApp struct {
	server     Server
	accountSvc *account.Service
	reviewSvc  *review.Service
	acctRepo   account.Repository
	sessions   *session.Store
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// stable error bodies; no recover middleware
	core.Conf.Debug = false
	core.Conf.TestMode = true

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("opening dummy db: %v", err)
	}

	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock()
	acctRepo := dummydb.NewAccountRepository(db)
	acctSvc := account.NewService(acctRepo, mailSvc, logger)
	revSvc := review.NewService(
		dummydb.NewTopicRepository(db),
		dummydb.NewFeedbackRepository(db),
		acctSvc,
		logger,
	)
	sessions := session.NewStore()

	app := &testApp{
		accountSvc: acctSvc,
		reviewSvc:  revSvc,
		acctRepo:   acctRepo,
		sessions:   sessions,
	}
	app.server = NewServer(&Options{
		Address:        ":0",
		DisableReqLogs: true,
		AccountSvc:     acctSvc,
		ReviewSvc:      revSvc,
		NotifySvc:      notify.NewService(),
		Sessions:       sessions,
		Logger:         logger,
	})
	return app
}

func (app *testApp) createAccount(t *testing.T, acct account.Account, pwd string) account.Account {
	t.Helper()
	if err := acct.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	now := time.Now().UTC()
	acct.IsActive = true
	acct.CreatedAt = now
	acct.UpdatedAt = now
	created, err := app.acctRepo.CreateAccount(context.Background(), acct)
	if err != nil {
		t.Fatalf("creating account: %v", err)
	}
	return created
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, acct account.Account) string {
	t.Helper()
	token, err := GenerateToken(GetAccountClaims(acct))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
