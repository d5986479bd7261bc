package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/maoni/core/account"
)

func Test_accountApi_login(t *testing.T) {
	app := newTestApp(t)
	app.createAccount(t, account.Account{
		Name: "Hero", Surname: "Kid", Email: "hero@test.cd", Role: account.RoleStudent,
		TeacherRefs: []string{"t1"}, Courses: []string{"Math"},
	}, "S3cret!pass")

	tests := []httpTest{
		{
			name:     "valid credentials",
			body:     []byte(`{"email": "hero@test.cd", "password": "S3cret!pass"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email": "hero@test.cd", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown email",
			body:     []byte(`{"email": "ghost@test.cd", "password": "S3cret!pass"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "empty body",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/accounts/login", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var resp LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
					t.Errorf("login did not return a token: %s", rec.Body.String())
				}
				// login warms the session cache
				if sess, ok := app.sessions.Get(); !ok || sess.Role != account.RoleStudent {
					t.Errorf("session cache not warmed on login: %+v, %v", sess, ok)
				}
			}
		})
	}
}

func Test_accountApi_register(t *testing.T) {
	app := newTestApp(t)

	valid := []byte(`{
		"name": "Hero", "surname": "Kid", "email": "hero@test.cd",
		"password": "S3cret!pass", "password_confirm": "S3cret!pass",
		"teacher_refs": ["t1"], "courses": ["Math"],
		"parent_phone": "9876543210"
	}`)
	mismatched := []byte(`{
		"name": "Hero", "surname": "Kid", "email": "hero2@test.cd",
		"password": "S3cret!pass", "password_confirm": "S3cret!pass",
		"teacher_refs": ["t1"], "courses": ["Math", "Physics"],
		"parent_phone": "9876543210"
	}`)

	tests := []httpTest{
		{name: "valid", body: valid, wantCode: http.StatusCreated},
		{name: "duplicate email", body: valid, wantCode: http.StatusBadRequest},
		{name: "unpaired refs and courses", body: mismatched, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/accounts/register", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var acct account.Account
				if err := json.Unmarshal(rec.Body.Bytes(), &acct); err != nil {
					t.Fatalf("unmarshalling account: %v", err)
				}
				if acct.Role != account.RoleStudent || !acct.IsActive {
					t.Errorf("registered account = %+v; want an active student", acct)
				}
			}
		})
	}
}

func Test_accountApi_logout(t *testing.T) {
	app := newTestApp(t)
	student := app.createAccount(t, account.Account{
		Name: "Hero", Surname: "Kid", Email: "hero@test.cd", Role: account.RoleStudent,
	}, "S3cret!pass")
	app.sessions.Put(student.ID, student.Role)

	req, rec := newAuthRequest(http.MethodPost, "/v1/accounts/logout", getToken(t, student))
	app.server.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %v; want %v", rec.Code, http.StatusNoContent)
	}
	if _, ok := app.sessions.Get(); ok {
		t.Error("session cache not invalidated on logout")
	}
}

func Test_dashboardApi_dispatch(t *testing.T) {
	app := newTestApp(t)
	student := app.createAccount(t, account.Account{
		Name: "Hero", Surname: "Kid", Email: "hero@test.cd", Role: account.RoleStudent,
	}, "S3cret!pass")
	teacher := app.createAccount(t, account.Account{
		Name: "Prof", Surname: "X", Email: "prof@test.cd", Role: account.RoleTeacher,
	}, "S3cret!pass")
	admin := app.createAccount(t, account.Account{
		Name: "Root", Surname: "Adm", Email: "admin@test.cd", Role: account.RoleAdmin,
	}, "S3cret!pass")
	noRole := app.createAccount(t, account.Account{
		Name: "Lost", Surname: "Soul", Email: "lost@test.cd", Role: "principal",
	}, "S3cret!pass")

	tests := []httpTest{
		{name: "anonymous", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "student", token: getToken(t, student), wantCode: http.StatusOK, wantData: marshallObj(t, DashboardResponse{Dashboard: "student"})},
		{name: "teacher", token: getToken(t, teacher), wantCode: http.StatusOK, wantData: marshallObj(t, DashboardResponse{Dashboard: "teacher"})},
		{name: "admin", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marshallObj(t, DashboardResponse{Dashboard: "admin"})},
		{name: "unrecognized role", token: getToken(t, noRole), wantCode: http.StatusOK, wantData: marshallObj(t, DashboardResponse{Dashboard: "invalid"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_guardMiddleware(t *testing.T) {
	app := newTestApp(t)
	student := app.createAccount(t, account.Account{
		Name: "Hero", Surname: "Kid", Email: "hero@test.cd", Role: account.RoleStudent,
	}, "S3cret!pass")
	admin := app.createAccount(t, account.Account{
		Name: "Root", Surname: "Adm", Email: "admin@test.cd", Role: account.RoleAdmin,
	}, "S3cret!pass")

	tests := []httpTest{
		{
			name:     "anonymous is unauthorized",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "wrong role is forbidden",
			token:    getToken(t, student),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "matching role passes",
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/students", tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("stale token fails closed", func(t *testing.T) {
		token := getToken(t, admin)
		if err := app.accountSvc.Delete(context.Background(), admin.ID); err != nil {
			t.Fatalf("deleting account: %v", err)
		}
		req, rec := newAuthRequest(http.MethodGet, "/v1/students", token)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("code = %v; want %v", rec.Code, http.StatusUnauthorized)
		}
	})
}

func Test_accountApi_queryTeachersPublic(t *testing.T) {
	app := newTestApp(t)
	teacher := app.createAccount(t, account.Account{
		Name: "Prof", Surname: "X", Email: "prof@test.cd", Role: account.RoleTeacher,
		Subjects: []string{"Math", "Physics"},
	}, "S3cret!pass")

	req, rec := newRequest(http.MethodGet, "/v1/teachers")
	app.server.ServeHTTP(rec, req)

	tt := httpTest{
		wantCode: http.StatusOK,
		wantData: marshallObj(t, []TeacherChoice{{
			ID: teacher.ID, Name: "Prof", Surname: "X", Subjects: []string{"Math", "Physics"},
		}}),
	}
	checkCodeAndData(t, tt, rec)
}
