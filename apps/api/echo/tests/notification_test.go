package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/fitdeskhq/fitdesk/core/notification"
	"github.com/fitdeskhq/fitdesk/core/user"
)

func Test_notificationApi(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	other := createUser(t, fix.usrRepo, "Desk Two", "desk2", "desk2@fitdesk.kr", "", user.DeskRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)
	deskToken := getToken(t, desk)

	mine, err := fix.notifSvc.Create(ctx, notification.NewNotification{RecipientID: desk.ID, Title: "공지", Message: "회의 15시"})
	if err != nil {
		t.Fatalf("notifSvc.Create(): %v", err)
	}
	theirs, err := fix.notifSvc.Create(ctx, notification.NewNotification{RecipientID: other.ID, Title: "공지", Message: "회의 15시"})
	if err != nil {
		t.Fatalf("notifSvc.Create(): %v", err)
	}

	t.Run("list returns own only", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, mine)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create requires admin", func(t *testing.T) {
		body := marchallObj(t, notification.NewNotification{RecipientID: desk.ID, Title: "새 공지"})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", deskToken, body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create rejects empty recipient and title", func(t *testing.T) {
		body := marchallObj(t, notification.NewNotification{})
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"recipient_id": "this field is required", "title": "this field is required"}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", getToken(t, owner), body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create", func(t *testing.T) {
		body := marchallObj(t, notification.NewNotification{RecipientID: desk.ID, Title: "새 공지", Message: "내일 오픈 시간 변경"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", getToken(t, owner), body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("batch create requires admin", func(t *testing.T) {
		body := marchallList(t, notification.NewNotification{RecipientID: other.ID, Title: "배치 공지"})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/batch", deskToken, body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("batch create skips invalid items", func(t *testing.T) {
		body := marchallList(t,
			notification.NewNotification{RecipientID: other.ID, Title: "배치 공지", Message: "분기 평가 일정"},
			notification.NewNotification{Message: "수신자 없는 알림"}, // invalid, skipped
		)
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/batch", getToken(t, owner), body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		n, err := fix.notifSvc.CountUnread(ctx, other.ID)
		if err != nil {
			t.Fatalf("CountUnread(): %v", err)
		}
		if n != 2 { // the pre-existing one plus the valid batch item
			t.Errorf("unread = %d; want 2", n)
		}
	})

	t.Run("cannot mark another user's notification", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/"+theirs.ID+"/read", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("mark read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications/"+mine.ID+"/read", deskToken)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		n, err := fix.notifSvc.CountUnread(ctx, desk.ID)
		if err != nil {
			t.Fatalf("CountUnread(): %v", err)
		}
		if n != 1 { // the admin-created one remains
			t.Errorf("unread = %d; want 1", n)
		}
	})

	t.Run("cannot delete another user's notification", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodDelete, "/v1/notifications/"+theirs.ID, deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/notifications/"+mine.ID, deskToken)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})
}
