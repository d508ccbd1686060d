package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/rwonjong94/anchormoms-web-sub002/apps/api/echo"
	"github.com/rwonjong94/anchormoms-web-sub002/core"
	"github.com/rwonjong94/anchormoms-web-sub002/core/roadmap"
	"github.com/rwonjong94/anchormoms-web-sub002/storage/database/dummy"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errInvalidToken = httpErr{Error: "invalid or expired jwt"}

	testConf = &core.Config{
		Env:                "TEST",
		AppName:            "Roadmap Test",
		TestMode:           true,
		SecretKey:          "secret",
		JWTExpirationDelta: time.Hour,
		Server:             core.ServerConfig{DisableReqLogs: true},
		Roadmap:            core.RoadmapConfig{DefaultYears: 2, MaxYears: 4},
	}
	editor = core.Person{ID: "t1", Name: "Teacher", Email: "teacher@test.kr"}
)

type testApp struct {
	Server
	repo      roadmap.Repository
	calendars *roadmap.StaticCalendars
	token     string
}

func setup(t *testing.T) testApp {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewRoadmapRepository(db)
	calendars := roadmap.NewStaticCalendars()
	calendars.Set("s1", roadmap.NewTestCalendar(2024, 4))

	validate, translator := core.NewValidator()
	roadmap.RegisterValidators(validate, translator)

	srv := NewServer(Options{
		Conf:       testConf,
		Logger:     core.NopLogger{},
		RoadmapSvc: roadmap.NewService(repo, calendars, core.NopLogger{}, testConf.Roadmap.MaxYears),
		Validate:   validate,
		Translator: translator,
	})
	return testApp{Server: srv, repo: repo, calendars: calendars, token: getToken(t, editor)}
}

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

func getToken(t *testing.T, person core.Person) string {
	token, err := GenerateToken(testConf.SecretKey, NewClaims(testConf, person))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
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
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
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

func (app testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
