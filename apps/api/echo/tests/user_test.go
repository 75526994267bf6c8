package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/fitdeskhq/fitdesk/apps/api/echo"
	"github.com/fitdeskhq/fitdesk/core"
	"github.com/fitdeskhq/fitdesk/core/user"
	emailsvc "github.com/fitdeskhq/fitdesk/services/email"
)

func Test_userApi_userLogin(t *testing.T) {
	fix := setup(t)

	createUser(t, fix.usrRepo, "Kim Trainer", "ktrainer", "kim@fitdesk.kr", "s3cr3t", user.TrainerRoles, true)
	createUser(t, fix.usrRepo, "Gone Guy", "gone", "gone@fitdesk.kr", "s3cr3t", nil, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "required fields", body: marchallObj(t, echoapi.LoginRequest{}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown user", body: login("lol", "lol"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: login("ktrainer", "lol"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "inactive user", body: login("gone", "s3cr3t"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "login with username", body: login("ktrainer", "s3cr3t"), wantCode: http.StatusOK},
		{name: "login with email", body: login("kim@fitdesk.kr", "s3cr3t"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			fix.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userQuery(t *testing.T) {
	fix := setup(t)

	path := func(search string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/v1/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	trainer := createUser(t, fix.usrRepo, "Kim Trainer", "ktrainer", "kim@fitdesk.kr", "", user.TrainerRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)
	manager := createUser(t, fix.usrRepo, "Manager", "manager", "manager@fitdesk.kr", "", []string{user.RoleAdminManager}, true)
	naughty := createUser(t, fix.usrRepo, "N Dog", "ndog", "ndog@fitdesk.kr", "", user.DeskRoles, false)

	adminToken := getToken(t, owner)
	empty := marchallList(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: getToken(t, desk), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/v1/users", token: adminToken,
			wantData: marchallList(t, desk, trainer, owner, manager, naughty),
		},
		{name: "search (unknown)", path: path("lol", nil), token: adminToken, wantData: empty},
		{name: "search=desk", path: path("desk", nil), token: adminToken, wantData: marchallList(t, desk)},
		{name: "role (unknown)", path: path("", nil, "lol"), token: adminToken, wantData: empty},
		{
			name: "role=admin:", path: path("", nil, user.RoleAdmin),
			token: adminToken, wantData: marchallList(t, owner, manager),
		},
		{
			name: "role=trainer:", path: path("", nil, user.RoleTrainer),
			token: adminToken, wantData: marchallList(t, trainer),
		},
		{
			name: "role=trainer:,desk:", path: path("", nil, user.RoleTrainer, user.RoleDesk),
			token: adminToken, wantData: marchallList(t, trainer, desk, naughty),
		},
		{
			name: "is_active=true", path: path("", bPtr(true)),
			token: adminToken, wantData: marchallList(t, desk, trainer, owner, manager),
		},
		{name: "is_active=false", path: path("", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{
			name: "combo", path: path("dog", bPtr(false), user.RoleDesk),
			token: adminToken, wantData: marchallList(t, naughty),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRefreshToken(t *testing.T) {
	fix := setup(t)

	naughty := createUser(t, fix.usrRepo, "N Dog", "ndog", "ndog@fitdesk.kr", "", user.DeskRoles, false)
	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   desk.ID,
			Audience:  "FitDesk",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Username:     desk.Username,
		IsDesk:       desk.IsDesk(),
		Roles:        desk.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, desk), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			fix.app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userResetPassword(t *testing.T) {
	fix := setup(t)

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	type extraTest struct {
		emailSent bool
	}
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: desk.Email}),
			wantData: successData, extra: extraTest{emailSent: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentBefore := len(emailsvc.SentMessages)

			req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", tt.body)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				sent := len(emailsvc.SentMessages) > sentBefore
				if sent != extra.emailSent {
					t.Errorf("failed! emailSent = %v; want %v", sent, extra.emailSent)
				}
			}
		})
	}
}

func Test_userApi_userDetail(t *testing.T) {
	fix := setup(t)

	desk := createUser(t, fix.usrRepo, "Desk One", "desk1", "desk1@fitdesk.kr", "", user.DeskRoles, true)
	other := createUser(t, fix.usrRepo, "Desk Two", "desk2", "desk2@fitdesk.kr", "", user.DeskRoles, true)
	owner := createUser(t, fix.usrRepo, "The Owner", "owner", "owner@fitdesk.kr", "", []string{user.RoleAdminOwner}, true)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + desk.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Other user forbidden", path: "/v1/users/" + other.ID, token: getToken(t, desk),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "Own detail", path: "/v1/users/" + desk.ID, token: getToken(t, desk), wantCode: http.StatusOK, wantData: marchallObj(t, desk)},
		{name: "Admin can view anyone", path: "/v1/users/" + desk.ID, token: getToken(t, owner), wantCode: http.StatusOK, wantData: marchallObj(t, desk)},
		{
			name: "Not found", path: "/v1/users/deadbeef", token: getToken(t, owner),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
