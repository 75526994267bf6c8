package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/fitdeskhq/fitdesk/apps/api/echo"
	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/announcement"
	"github.com/fitdeskhq/fitdesk/core/badge"
	"github.com/fitdeskhq/fitdesk/core/manual"
	"github.com/fitdeskhq/fitdesk/core/notification"
	"github.com/fitdeskhq/fitdesk/core/report"
	"github.com/fitdeskhq/fitdesk/core/schedule"
	"github.com/fitdeskhq/fitdesk/core/suggestion"
	"github.com/fitdeskhq/fitdesk/core/task"
	"github.com/fitdeskhq/fitdesk/core/user"
	emailsvc "github.com/fitdeskhq/fitdesk/services/email"
	logsvc "github.com/fitdeskhq/fitdesk/services/logger"
	dummydb "github.com/fitdeskhq/fitdesk/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// fixture is a fully-wired in-memory app for HTTP tests.
type fixture struct {
	app *echoapi.Server

	usrRepo user.Repository

	usrSvc   *user.Service
	taskSvc  *task.Service
	notifSvc *notification.Service
	annSvc   *announcement.Service
	repSvc   *report.Service
	manSvc   *manual.Service
	suggSvc  *suggestion.Service

	badges    *badge.Aggregator
	scheduler *schedule.Scheduler
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	logger.Enable(false)

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatal(err)
	}
	usrRepo := dummydb.NewUserRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(logger)
	usrSvc := user.NewService(usrRepo, mailSvc, logger, conf)
	taskSvc := task.NewService(dummydb.NewTaskRepository(db))
	notifSvc := notification.NewService(dummydb.NewNotificationRepository(db), usrSvc, mailSvc, logger)
	annSvc := announcement.NewService(dummydb.NewAnnouncementRepository(db))
	repSvc := report.NewService(dummydb.NewReportRepository(db))
	manSvc := manual.NewService(dummydb.NewManualRepository(db))
	suggSvc := suggestion.NewService(dummydb.NewSuggestionRepository(db))

	badges := badge.NewAggregator(badge.Counters{
		Announcements: annSvc,
		Tasks:         taskSvc,
		Reports:       repSvc,
		Manuals:       manSvc,
		Notifications: notifSvc,
		Suggestions:   suggSvc,
	}, logger)

	scanner := schedule.NewScanner(taskSvc, notifSvc, logger)
	reconciler := schedule.NewReconciler(taskSvc, usrSvc, logger, filepath.Join(t.TempDir(), "legacy_tasks.json"))
	scheduler := schedule.NewScheduler(scanner, badges, reconciler, logger, conf)

	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		TaskSvc:         taskSvc,
		NotificationSvc: notifSvc,
		AnnouncementSvc: annSvc,
		ReportSvc:       repSvc,
		ManualSvc:       manSvc,
		SuggestionSvc:   suggSvc,
		Badges:          badges,
		Scheduler:       scheduler,
		DisableReqLogs:  true,
	})

	return &fixture{
		app:       app,
		usrRepo:   usrRepo,
		usrSvc:    usrSvc,
		taskSvc:   taskSvc,
		notifSvc:  notifSvc,
		annSvc:    annSvc,
		repSvc:    repSvc,
		manSvc:    manSvc,
		suggSvc:   suggSvc,
		badges:    badges,
		scheduler: scheduler,
	}
}

func createUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
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
	extra    interface{}
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

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := echoapi.GetUserClaims(usr)
	token, err := echoapi.GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
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
	if l1, ok := j1.([]interface{}); ok {
		if l2, ok := j2.([]interface{}); ok {
			return assert.ElementsMatch(t, l1, l2), nil
		}
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
