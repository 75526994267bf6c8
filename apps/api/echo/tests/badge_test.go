package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	echoapi "github.com/fitdeskhq/fitdesk/apps/api/echo"
	"github.com/fitdeskhq/fitdesk/core/announcement"
	"github.com/fitdeskhq/fitdesk/core/badge"
	"github.com/fitdeskhq/fitdesk/core/manual"
	"github.com/fitdeskhq/fitdesk/core/notification"
	"github.com/fitdeskhq/fitdesk/core/report"
	"github.com/fitdeskhq/fitdesk/core/suggestion"
	"github.com/fitdeskhq/fitdesk/core/task"
	"github.com/fitdeskhq/fitdesk/core/user"
)

func Test_badgeApi_refresh(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)
	deskToken := getToken(t, desk)

	// one item per domain
	if _, err := fix.annSvc.Create(ctx, owner.ID, announcement.NewAnnouncement{Title: "휴관 안내", Body: "설 연휴 휴관입니다."}); err != nil {
		t.Fatalf("annSvc.Create(): %v", err)
	}
	due := time.Now().Add(48 * time.Hour)
	if _, err := fix.taskSvc.Create(ctx, owner.ID, task.NewTask{Title: "러닝머신 점검", DueDate: &due, AssigneeID: desk.ID}); err != nil {
		t.Fatalf("taskSvc.Create(): %v", err)
	}
	if _, err := fix.repSvc.Create(ctx, owner.ID, report.NewReport{Date: time.Now(), Body: "오늘 특이사항 없음"}); err != nil {
		t.Fatalf("repSvc.Create(): %v", err)
	}
	if _, err := fix.manSvc.Create(ctx, owner.ID, manual.NewManual{Title: "오픈 체크리스트", Body: "조명, 음악, 데스크 셋업"}); err != nil {
		t.Fatalf("manSvc.Create(): %v", err)
	}
	if _, err := fix.notifSvc.Create(ctx, notification.NewNotification{RecipientID: desk.ID, Title: "공지", Message: "회의 15시"}); err != nil {
		t.Fatalf("notifSvc.Create(): %v", err)
	}
	if _, err := fix.suggSvc.Create(ctx, desk.ID, suggestion.NewSuggestion{Title: "정수기", Body: "2층에도 정수기가 필요합니다."}); err != nil {
		t.Fatalf("suggSvc.Create(): %v", err)
	}

	t.Run("auth required", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/v1/badges")
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("initial snapshot is zero", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, badge.ZeroSnapshot())}
		req, rec := newAuthRequest(http.MethodGet, "/v1/badges", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("refresh counts all domains", func(t *testing.T) {
		want := badge.Snapshot{
			badge.DomainAnnouncements: 1,
			badge.DomainTasks:         1,
			badge.DomainDailyReports:  1,
			badge.DomainManuals:       1,
			badge.DomainNotifications: 1,
			badge.DomainSuggestions:   1,
		}
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, want)}
		req, rec := newAuthRequest(http.MethodPost, "/v1/badges/refresh", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("mark domain read decrements", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/badges/read/"+badge.DomainNotifications, deskToken)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if n := fix.badges.Current()[badge.DomainNotifications]; n != 0 {
			t.Errorf("notifications badge = %d; want 0", n)
		}
	})

	t.Run("unknown domain rejected", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"domain": "unknown badge domain"}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/badges/read/lol", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_badgeApi_runScheduler(t *testing.T) {
	fix := setup(t)

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, desk), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Scan scheduled", token: getToken(t, owner), wantCode: http.StatusAccepted,
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "scan scheduled"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/scheduler/run", tt.token)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
