package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	domain "campus-enrollment/internal/domain/enrollment"
	"campus-enrollment/internal/infrastructure/cache"
	"campus-enrollment/internal/infrastructure/memory"
	serviceInterfaces "campus-enrollment/internal/interfaces/service"
	"campus-enrollment/internal/service"
	"campus-enrollment/pkg/auth"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuth = auth.Config{Secret: "router-test-secret", Issuer: "campus-enrollment"}

type failingPinger struct{}

func (failingPinger) Health(ctx context.Context) error {
	return errors.New("connection refused")
}

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T, deps Dependencies) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	deps.Enrollments = service.NewEnrollmentService(store, nil)
	deps.Activities = service.NewActivityService(store, store)
	deps.Auth = testAuth
	if deps.Pingers == nil {
		deps.Pingers = map[string]serviceInterfaces.Pinger{"store": store}
	}
	deps.Version = "test"

	return &testServer{engine: NewRouter(deps), store: store}
}

func token(t *testing.T, principal domain.Principal) string {
	t.Helper()
	signed, err := auth.Issue(principal, testAuth, time.Hour)
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path string, principal *domain.Principal, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if principal != nil {
		req.Header.Set("Authorization", "Bearer "+token(t, *principal))
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func faculty() domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.RoleFaculty}
}

func student() domain.Principal {
	return domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent}
}

func (s *testServer) createActivity(t *testing.T, owner domain.Principal, capacity int) string {
	t.Helper()
	start := time.Now().Add(48 * time.Hour).UTC()
	w := s.do(t, http.MethodPost, "/api/v1/activities", &owner, map[string]interface{}{
		"title":      "Robotics Club Demo",
		"location":   "Lab 3",
		"capacity":   capacity,
		"start_date": start,
		"end_date":   start.Add(2 * time.Hour),
		"status":     "published",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	activity := body["activity"].(map[string]interface{})
	return activity["activity_id"].(string)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	for _, path := range []string{"/health", "/ready", "/live"} {
		w := srv.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := srv.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadiness_UnhealthyDependency(t *testing.T) {
	srv := newTestServer(t, Dependencies{
		Pingers: map[string]serviceInterfaces.Pinger{"broken": failingPinger{}},
	})

	w := srv.do(t, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = srv.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", decode(t, w)["status"])
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, Dependencies{})

	w := srv.do(t, http.MethodGet, "/api/v1/activities", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEnrollFlow(t *testing.T) {
	srv := newTestServer(t, Dependencies{})
	owner := faculty()
	activityID := srv.createActivity(t, owner, 2)
	enrollPath := "/api/v1/activities/" + activityID + "/enroll"

	alice := student()
	w := srv.do(t, http.MethodPost, enrollPath, &alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Successfully enrolled in activity", body["message"])
	assert.EqualValues(t, 1, body["remainingSlots"])
	firstEnrollment := body["enrollmentId"]

	w = srv.do(t, http.MethodPost, enrollPath, &alice, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Already enrolled in this activity", body["error"])
	assert.Equal(t, "enrolled", body["status"])

	bob := student()
	w = srv.do(t, http.MethodPost, enrollPath, &bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["remainingSlots"])

	carol := student()
	w = srv.do(t, http.MethodPost, enrollPath, &carol, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Activity is full", decode(t, w)["error"])

	w = srv.do(t, http.MethodGet, "/api/v1/activities/"+activityID+"/participants", &owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["count"])

	w = srv.do(t, http.MethodDelete, enrollPath, &alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["message"])

	w = srv.do(t, http.MethodGet, "/api/v1/enrollments/me?status=cancelled", &alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = srv.do(t, http.MethodPost, enrollPath, &alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, firstEnrollment, decode(t, w)["enrollmentId"])

	w = srv.do(t, http.MethodGet, "/api/v1/activities/"+activityID+"/summary", &owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["consistent"])
}

func TestEnroll_ConcurrentLastSeat(t *testing.T) {
	srv := newTestServer(t, Dependencies{})
	activityID := srv.createActivity(t, faculty(), 1)
	enrollPath := "/api/v1/activities/" + activityID + "/enroll"

	const callers = 20
	codes := make(chan int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caller := student()
			codes <- srv.do(t, http.MethodPost, enrollPath, &caller, nil).Code
		}()
	}
	wg.Wait()
	close(codes)

	counts := map[int]int{}
	for code := range codes {
		counts[code]++
	}
	assert.Equal(t, 1, counts[http.StatusOK])
	assert.Equal(t, callers-1, counts[http.StatusBadRequest])
}

func TestRoleChecks(t *testing.T) {
	srv := newTestServer(t, Dependencies{})
	owner := faculty()
	activityID := srv.createActivity(t, owner, 5)

	learner := student()
	w := srv.do(t, http.MethodPost, "/api/v1/activities", &learner, map[string]interface{}{"title": "Nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/activities/"+activityID+"/participants", &learner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = srv.do(t, http.MethodPost, "/api/v1/activities/"+activityID+"/enroll", &owner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	other := faculty()
	w = srv.do(t, http.MethodPut, "/api/v1/activities/"+activityID, &other, map[string]interface{}{"title": "Hijacked title"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestActivityManagement(t *testing.T) {
	srv := newTestServer(t, Dependencies{})
	owner := faculty()
	activityID := srv.createActivity(t, owner, 3)
	path := "/api/v1/activities/" + activityID

	learner := student()
	w := srv.do(t, http.MethodGet, path, &learner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/activities?status=published&upcoming=true", &learner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = srv.do(t, http.MethodGet, "/api/v1/activities?status=archived", &learner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/activities?limit=abc", &learner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, path+"/enroll", &learner, nil).Code)

	w = srv.do(t, http.MethodPut, path, &owner, map[string]interface{}{"capacity": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	activity := decode(t, w)["activity"].(map[string]interface{})
	assert.EqualValues(t, 5, activity["capacity"])
	assert.EqualValues(t, 4, activity["available_seats"])

	w = srv.do(t, http.MethodDelete, path, &owner, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodDelete, path+"/enroll", &learner, nil).Code)

	w = srv.do(t, http.MethodDelete, path, &owner, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, path, &learner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStudentsOnlySeePublishedActivities(t *testing.T) {
	srv := newTestServer(t, Dependencies{})
	owner := faculty()
	learner := student()
	publishedID := srv.createActivity(t, owner, 5)

	start := time.Now().Add(48 * time.Hour).UTC()
	w := srv.do(t, http.MethodPost, "/api/v1/activities", &owner, map[string]interface{}{
		"title":      "Draft Planning Session",
		"capacity":   5,
		"start_date": start,
		"end_date":   start.Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode(t, w)["activity"].(map[string]interface{})
	assert.Equal(t, "draft", draft["status"])
	draftPath := "/api/v1/activities/" + draft["activity_id"].(string)

	w = srv.do(t, http.MethodGet, draftPath, &learner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Activity not available", decode(t, w)["error"])

	w = srv.do(t, http.MethodGet, draftPath, &owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/activities?status=draft", &learner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.EqualValues(t, 1, body["count"])
	listed := body["activities"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, publishedID, listed["activity_id"])

	w = srv.do(t, http.MethodGet, "/api/v1/activities?status=draft", &owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	publishedPath := "/api/v1/activities/" + publishedID
	w = srv.do(t, http.MethodGet, publishedPath, &learner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["activity"].(map[string]interface{})["is_enrolled"])

	require.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, publishedPath+"/enroll", &learner, nil).Code)

	w = srv.do(t, http.MethodGet, publishedPath, &learner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["activity"].(map[string]interface{})["is_enrolled"])
}

func TestInvalidRequests(t *testing.T) {
	srv := newTestServer(t, Dependencies{})
	owner := faculty()
	learner := student()

	w := srv.do(t, http.MethodPost, "/api/v1/activities/not-a-uuid/enroll", &learner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(t, http.MethodPost, "/api/v1/activities/"+uuid.NewString()+"/enroll", &learner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = srv.do(t, http.MethodGet, "/api/v1/enrollments/me?status=pending", &learner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token(t, owner))
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnroll_RateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	limiter := cache.NewRedisRateLimiterFromClient(client)

	srv := newTestServer(t, Dependencies{
		RateLimiter:     limiter,
		RateLimit:       2,
		RateLimitWindow: time.Minute,
	})
	activityID := srv.createActivity(t, faculty(), 10)
	enrollPath := fmt.Sprintf("/api/v1/activities/%s/enroll", activityID)

	caller := student()
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, enrollPath, &caller, nil).Code)
	assert.Equal(t, http.StatusConflict, srv.do(t, http.MethodPost, enrollPath, &caller, nil).Code)

	w := srv.do(t, http.MethodPost, enrollPath, &caller, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	other := student()
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, enrollPath, &other, nil).Code)
}
