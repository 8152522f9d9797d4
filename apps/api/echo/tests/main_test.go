package tests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/pal/apps/api/echo"
	"github.com/trezcool/pal/core"
	"github.com/trezcool/pal/core/account"
	"github.com/trezcool/pal/core/assessment"
	logsvc "github.com/trezcool/pal/services/logger"
	"github.com/trezcool/pal/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantData interface{} // compared as JSON when set
}

type testApp struct {
	server *echoapi.Server
	conf   *core.Config
	fx     *testutil.Fixtures
	svcs   testutil.Services
}

func setup(t *testing.T) testApp {
	db := testutil.PrepareDB(t)
	svcs := testutil.NewServices(db)

	conf := *core.Conf
	conf.Debug = false
	conf.TestMode = true

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	assessment.InitValidators(validate, translator)

	server := echoapi.NewServer(echoapi.Deps{
		Conf:          &conf,
		Logger:        logsvc.NewNopLogger(),
		Validate:      validate,
		Translator:    translator,
		AccountSvc:    svcs.Account,
		CatalogSvc:    svcs.Catalog,
		AssessmentSvc: svcs.Assessment,
		GradingSvc:    svcs.Grading,
		EnrollmentSvc: svcs.Enrollment,
		ForumSvc:      svcs.Forum,
	})
	return testApp{server: server, conf: &conf, fx: testutil.NewFixtures(db), svcs: svcs}
}

func (app testApp) token(t *testing.T, acc account.Account) string {
	token, err := echoapi.GenerateToken(app.conf, echoapi.NewClaims(app.conf, acc))
	require.NoError(t, err)
	return token
}

func (app testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func (app testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	want, err := json.Marshal(tt.wantData)
	require.NoError(t, err)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), want)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(want))
	}
}
