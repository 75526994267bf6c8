package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/fitdeskhq/fitdesk/core/announcement"
	"github.com/fitdeskhq/fitdesk/core/manual"
	"github.com/fitdeskhq/fitdesk/core/report"
	"github.com/fitdeskhq/fitdesk/core/suggestion"
	"github.com/fitdeskhq/fitdesk/core/user"
)

func Test_announcementApi(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)
	deskToken := getToken(t, desk)

	t.Run("create requires admin", func(t *testing.T) {
		body := marchallObj(t, announcement.NewAnnouncement{Title: "휴관 안내", Body: "설 연휴 휴관입니다."})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements", deskToken, body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	var created announcement.Announcement
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, announcement.NewAnnouncement{Title: "휴관 안내", Body: "설 연휴 휴관입니다."})
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements", getToken(t, owner), body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if !created.Active {
			t.Error("expected announcement to be active")
		}
	})

	t.Run("list", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, created)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/announcements", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("mark read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements/"+created.ID+"/read", deskToken)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		n, err := fix.annSvc.CountUnread(ctx, desk.ID)
		if err != nil {
			t.Fatalf("CountUnread(): %v", err)
		}
		if n != 0 {
			t.Errorf("unread = %d; want 0", n)
		}
	})

	t.Run("mark read unknown", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/announcements/deadbeef/read", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_reportApi(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	other := createUser(t, fix.usrRepo, "Desk Two", "desk2", "desk2@fitdesk.kr", "", user.DeskRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)

	t.Run("create validates body", func(t *testing.T) {
		body := marchallObj(t, report.NewReport{})
		req, rec := newAuthRequest(http.MethodPost, "/v1/daily-reports", getToken(t, desk), body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	var mine report.Report
	t.Run("create", func(t *testing.T) {
		body := []byte(`{"date": "2026-08-28T00:00:00Z", "body": "오늘 특이사항 없음"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/daily-reports", getToken(t, desk), body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &mine); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if mine.AuthorID != desk.ID {
			t.Errorf("author_id = %s; want %s", mine.AuthorID, desk.ID)
		}
	})

	theirs, err := fix.repSvc.Create(ctx, other.ID, report.NewReport{Date: mine.Date, Body: "프런트 교대 완료"})
	if err != nil {
		t.Fatalf("repSvc.Create(): %v", err)
	}

	t.Run("staff see their own reports", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, mine)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/daily-reports", getToken(t, desk))
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin sees all reports", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, mine, theirs)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/daily-reports", getToken(t, owner))
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_manualApi(t *testing.T) {
	fix := setup(t)

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)

	t.Run("create requires admin", func(t *testing.T) {
		body := marchallObj(t, manual.NewManual{Title: "오픈 체크리스트", Body: "조명, 음악, 데스크 셋업"})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/manuals", getToken(t, desk), body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	var created manual.Manual
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, manual.NewManual{Title: "오픈 체크리스트", Body: "조명, 음악, 데스크 셋업"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/manuals", getToken(t, owner), body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
	})

	t.Run("search", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, created)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/manuals?search="+"체크리스트", getToken(t, desk))
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		emptyTT := httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}
		emptyReq, emptyRec := newAuthRequest(http.MethodGet, "/v1/manuals?search=lol", getToken(t, desk))
		fix.app.ServeHTTP(emptyRec, emptyReq)
		checkCodeAndData(t, emptyTT, emptyRec)
	})
}

func Test_suggestionApi(t *testing.T) {
	fix := setup(t)

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	other := createUser(t, fix.usrRepo, "Desk Two", "desk2", "desk2@fitdesk.kr", "", user.DeskRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)
	deskToken := getToken(t, desk)

	var mine suggestion.Suggestion
	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, suggestion.NewSuggestion{Title: "정수기", Body: "2층에도 정수기가 필요합니다."})
		req, rec := newAuthRequest(http.MethodPost, "/v1/suggestions", deskToken, body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &mine); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if mine.Status != suggestion.StatusPending {
			t.Errorf("status = %s; want %s", mine.Status, suggestion.StatusPending)
		}
	})

	theirs, err := fix.suggSvc.Create(context.Background(), other.ID, suggestion.NewSuggestion{Title: "음악", Body: "저녁 시간대 음악 볼륨을 줄여주세요."})
	if err != nil {
		t.Fatalf("suggSvc.Create(): %v", err)
	}

	t.Run("staff see their own suggestions", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, mine)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/suggestions", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("admin sees all suggestions", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, mine, theirs)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/suggestions", getToken(t, owner))
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("set status requires admin", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"status": suggestion.StatusReviewed})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPut, "/v1/suggestions/"+mine.ID+"/status", deskToken, body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("set status rejects unknown status", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"status": "lol"})
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"status": "invalid status"})}
		req, rec := newAuthRequest(http.MethodPut, "/v1/suggestions/"+mine.ID+"/status", getToken(t, owner), body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("set status", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"status": suggestion.StatusReviewed})
		req, rec := newAuthRequest(http.MethodPut, "/v1/suggestions/"+mine.ID+"/status", getToken(t, owner), body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		n, err := fix.suggSvc.CountPending(context.Background())
		if err != nil {
			t.Fatalf("CountPending(): %v", err)
		}
		if n != 1 { // only the other one remains pending
			t.Errorf("pending = %d; want 1", n)
		}
	})
}
