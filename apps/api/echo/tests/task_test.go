package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/fitdeskhq/fitdesk/core/badge"
	"github.com/fitdeskhq/fitdesk/core/task"
	"github.com/fitdeskhq/fitdesk/core/user"
)

func Test_taskApi_crud(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	trainer := createUser(t, fix.usrRepo, "Kim Trainer", "ktrainer", "kim@fitdesk.kr", "", user.TrainerRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)

	deskToken := getToken(t, desk)
	ownerToken := getToken(t, owner)

	t.Run("create requires admin", func(t *testing.T) {
		body := marchallObj(t, task.NewTask{Title: "러닝머신 점검"})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/tasks", deskToken, body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create validates title", func(t *testing.T) {
		body := marchallObj(t, task.NewTask{})
		tt := httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"title": "this field is required"})}
		req, rec := newAuthRequest(http.MethodPost, "/v1/tasks", ownerToken, body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	var created task.Task
	t.Run("create", func(t *testing.T) {
		due := time.Now().Add(72 * time.Hour).UTC()
		body := marchallObj(t, task.NewTask{Title: "러닝머신 점검", Description: "3번 기기 벨트 점검", DueDate: &due, AssigneeID: desk.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/tasks", ownerToken, body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if created.Status != task.StatusPending {
			t.Errorf("status = %s; want %s", created.Status, task.StatusPending)
		}
		if created.CreatedBy != owner.ID {
			t.Errorf("created_by = %s; want %s", created.CreatedBy, owner.ID)
		}
	})

	t.Run("list", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, created)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/tasks", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("retrieve", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, created)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/tasks/"+created.ID, deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("retrieve unknown", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		req, rec := newAuthRequest(http.MethodGet, "/v1/tasks/deadbeef", deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("non-assignee cannot update", func(t *testing.T) {
		body := marchallObj(t, task.UpdateTask{Status: task.StatusInProgress})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodPut, "/v1/tasks/"+created.ID, getToken(t, trainer), body)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("assignee updates status", func(t *testing.T) {
		body := marchallObj(t, task.UpdateTask{Status: task.StatusCompleted})
		req, rec := newAuthRequest(http.MethodPut, "/v1/tasks/"+created.ID, deskToken, body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated task.Task
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if updated.Status != task.StatusCompleted {
			t.Errorf("status = %s; want %s", updated.Status, task.StatusCompleted)
		}
		// pending badge reflects the completion right away
		if n := fix.badges.Current()[badge.DomainTasks]; n != 0 {
			t.Errorf("tasks badge = %d; want 0", n)
		}
	})

	t.Run("comments", func(t *testing.T) {
		body := marchallObj(t, task.NewComment{Body: "부품 주문 완료"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/tasks/"+created.ID+"/comments", deskToken, body)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var comment task.Comment
		if err := json.Unmarshal(rec.Body.Bytes(), &comment); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if comment.AuthorName != desk.Username {
			t.Errorf("author_name = %s; want %s", comment.AuthorName, desk.Username)
		}

		listTT := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, comment)}
		listReq, listRec := newAuthRequest(http.MethodGet, "/v1/tasks/"+created.ID+"/comments", deskToken)
		fix.app.ServeHTTP(listRec, listReq)
		checkCodeAndData(t, listTT, listRec)
	})

	t.Run("delete requires admin", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}
		req, rec := newAuthRequest(http.MethodDelete, "/v1/tasks/"+created.ID, deskToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/tasks/"+created.ID, ownerToken)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if _, err := fix.taskSvc.GetByID(ctx, created.ID); err == nil {
			t.Error("task still exists after delete")
		}
	})
}
