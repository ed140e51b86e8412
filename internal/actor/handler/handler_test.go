package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"reestr/internal/actor/models"
	"reestr/internal/actor/service"
	actorstore "reestr/internal/actor/store"
	"reestr/internal/audit"
	"reestr/internal/platform/logger"
	"reestr/internal/platform/middleware"
	refmodels "reestr/internal/refdata/models"
	refstore "reestr/internal/refdata/store"
	"reestr/internal/token"
	"reestr/internal/token/revocation"
	id "reestr/pkg/domain"
)

const testPassword = "secret123"

type authFixture struct {
	router     http.Handler
	districtID id.DistrictID
	mahallaID  id.MahallaID
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	ctx := context.Background()

	log := logger.New()
	actors := actorstore.NewInMemory()
	refdata := refstore.NewInMemory()
	tokens := token.New("test-signing-key", time.Hour)
	trl := revocation.NewMemoryTRL()
	auditor := audit.NewService(audit.NewInMemoryStore(), nil, log)

	districtID := id.NewDistrictID()
	mahallaID := id.NewMahallaID()
	now := time.Now()
	if err := refdata.CreateDistrict(ctx, &refmodels.District{
		ID: districtID, Name: "Norin", Code: "NRN", CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed district: %v", err)
	}
	if err := refdata.CreateMahalla(ctx, &refmodels.Mahalla{
		ID: mahallaID, Name: "Guliston", DistrictID: districtID, CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed mahalla: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	seed := func(login string, role models.Role, dID *id.DistrictID, mID *id.MahallaID) {
		if err := actors.Create(ctx, &models.Actor{
			ID:           id.NewActorID(),
			Login:        login,
			PasswordHash: string(hash),
			FullName:     "Actor " + login,
			Role:         role,
			DistrictID:   dID,
			MahallaID:    mID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			t.Fatalf("seed actor %s: %v", login, err)
		}
	}
	seed("super", models.RoleSuperAdmin, nil, nil)
	seed("inspector", models.RoleMahallaInspector, &districtID, &mahallaID)

	svc := service.New(actors, refdata, tokens, trl, auditor, nil, log)
	h := New(svc, log)

	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, trl, log))
		h.Register(r)
	})

	return &authFixture{router: r, districtID: districtID, mahallaID: mahallaID}
}

func (f *authFixture) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *authFixture) login(t *testing.T, login, password string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"login": login, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token in login response")
	}
	return resp.Token
}

func TestAuthRequired(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/auth/me", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestLoginAndMe(t *testing.T) {
	f := newAuthFixture(t)

	tok := f.login(t, "super", testPassword)
	rec := f.do(t, http.MethodGet, "/auth/me", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d: %s", rec.Code, rec.Body.String())
	}

	var me models.Actor
	if err := json.NewDecoder(rec.Body).Decode(&me); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if me.Login != "super" || me.Role != models.RoleSuperAdmin {
		t.Fatalf("unexpected account in me response: %+v", me)
	}

	rec = f.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"login": "super", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)

	tok := f.login(t, "super", testPassword)
	rec := f.do(t, http.MethodPost, "/auth/logout", tok, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from logout, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.do(t, http.MethodGet, "/auth/me", tok, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestChangePasswordOverHTTP(t *testing.T) {
	f := newAuthFixture(t)
	tok := f.login(t, "inspector", testPassword)

	rec := f.do(t, http.MethodPost, "/auth/password", tok, map[string]string{
		"currentPassword": "wrong", "newPassword": "replacement1",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong current password, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/auth/password", tok, map[string]string{
		"currentPassword": testPassword, "newPassword": "replacement1",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 changing password, got %d: %s", rec.Code, rec.Body.String())
	}

	f.login(t, "inspector", "replacement1")
}

func TestCreateAdminOverHTTP(t *testing.T) {
	f := newAuthFixture(t)
	superTok := f.login(t, "super", testPassword)

	payload := map[string]string{
		"login":      "jqb-norin",
		"password":   "secret456",
		"fullName":   "Norin JQB",
		"role":       string(models.RoleJQBAdmin),
		"districtId": f.districtID.String(),
	}
	rec := f.do(t, http.MethodPost, "/admins", superTok, payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating admin, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.Actor
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created admin: %v", err)
	}
	if created.DistrictName != "Norin" {
		t.Fatalf("expected denormalized district name, got %q", created.DistrictName)
	}

	inspTok := f.login(t, "inspector", testPassword)
	payload["login"] = "jqb-second"
	rec = f.do(t, http.MethodPost, "/admins", inspTok, payload)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when inspector creates admins, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodDelete, "/admins/not-a-uuid", superTok, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed admin id, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/admins", superTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing admins, got %d", rec.Code)
	}
	var admins []models.Actor
	if err := json.NewDecoder(rec.Body).Decode(&admins); err != nil {
		t.Fatalf("decode admin list: %v", err)
	}
	if len(admins) != 3 {
		t.Fatalf("expected 3 admins, got %d", len(admins))
	}
}
