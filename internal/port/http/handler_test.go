package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/adapter/memory"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/entity"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/port/store"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/schema"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/subscription"
	"github.com/Abdurahmanit/GroupProject/class-service/internal/usecase"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandoff struct {
	mu     sync.Mutex
	values map[string]string
}

func (f *fakeHandoff) Put(_ context.Context, ownerID, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[schema.Handoff(ownerID, key)] = value
	return nil
}

func (f *fakeHandoff) Take(_ context.Context, ownerID, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := schema.Handoff(ownerID, key)
	v, ok := f.values[k]
	if !ok {
		return "", entity.NotFoundError(k)
	}
	delete(f.values, k)
	return v, nil
}

type fakeUploader struct {
	got []byte
}

func (f *fakeUploader) Upload(_ context.Context, ownerID, fileName string, r io.Reader, _ int64) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.got = b
	return "owners/" + ownerID + "/images/" + fileName, nil
}

// unavailableUpdates fails every UpdateFields under prefix.
type unavailableUpdates struct {
	store.Client
	prefix string
}

func (u *unavailableUpdates) UpdateFields(ctx context.Context, path string, fields store.Value) error {
	if strings.HasPrefix(path, u.prefix) {
		return &store.OpError{Op: "update", Path: path, Err: store.ErrUnavailable}
	}
	return u.Client.UpdateFields(ctx, path, fields)
}

type testServer struct {
	mem      *memory.Store
	router   http.Handler
	uploader *fakeUploader
}

func newTestServer(t *testing.T, client store.Client, mem *memory.Store) *testServer {
	t.Helper()
	log := logger.NewNop()
	aggregates := usecase.NewAggregateUsecase(client, nil, nil, log)
	manager := subscription.NewManager(client, log)
	t.Cleanup(manager.CloseAll)
	uploader := &fakeUploader{}
	h := NewHandler(Handler{
		Listings:   usecase.NewListingUsecase(client, nil, nil, log),
		Aggregates: aggregates,
		Posts:      usecase.NewPostUsecase(client, aggregates, nil, nil, log),
		Reconciler: usecase.NewReconcileUsecase(client, aggregates, nil, log),
		Streams:    manager,
		Handoff:    &fakeHandoff{values: map[string]string{}},
		Images:     uploader,
	}, log)
	return &testServer{mem: mem, router: NewRouter(h, log), uploader: uploader}
}

func newMemoryServer(t *testing.T) *testServer {
	mem := memory.New()
	return newTestServer(t, mem, mem)
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

var danceClass = map[string]interface{}{
	"title":          "Street Dance Basics",
	"category":       "Hip-Hop",
	"description":    "intro class",
	"availableSeats": 10,
}

func TestHandler_PublishModerateEnroll(t *testing.T) {
	s := newMemoryServer(t)

	code, draft := s.do(t, http.MethodPost, "/v1/owners/U1/drafts", danceClass)
	require.Equal(t, http.StatusCreated, code)
	draftID := draft["id"].(string)

	code, mirror := s.do(t, http.MethodPost, "/v1/owners/U1/drafts/"+draftID+"/publish", nil)
	require.Equal(t, http.StatusOK, code)
	globalID := mirror["globalId"].(string)
	localID := mirror["id"].(string)
	assert.Equal(t, "pending", mirror["status"])

	code, list := s.do(t, http.MethodGet, "/v1/catalog", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, list["listings"], "pending listings are not discoverable")

	code, _ = s.do(t, http.MethodPost, "/v1/listings/"+globalID+"/enrollments", map[string]string{"userId": "S1"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPut, "/v1/admin/listings/"+globalID+"/status", map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, code)
	code, body := s.do(t, http.MethodPut, "/v1/admin/listings/"+globalID+"/status", map[string]string{"status": "draft"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, false, body["retryable"])

	code, list = s.do(t, http.MethodGet, "/v1/catalog", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list["listings"], 1)

	code, listing := s.do(t, http.MethodPost, "/v1/listings/"+globalID+"/enrollments", map[string]string{"userId": "S1"})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, listing["subscriberCount"])

	code, review := s.do(t, http.MethodPost, "/v1/listings/"+globalID+"/reviews", map[string]interface{}{"userId": "S1", "rating": 4})
	require.Equal(t, http.StatusCreated, code)
	assert.EqualValues(t, 4, review["rating"])

	code, body = s.do(t, http.MethodPost, "/v1/listings/"+globalID+"/reviews", map[string]interface{}{"userId": "S1", "rating": 9})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["fields"], "rating")

	code, got := s.do(t, http.MethodGet, "/v1/listings/"+globalID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "approved", got["status"])
	assert.InDelta(t, 4.0, got["rating"], 1e-9)

	code, upd := s.do(t, http.MethodPatch, "/v1/owners/U1/listings/"+localID, map[string]interface{}{"title": "Street Dance II"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Street Dance II", upd["listing"].(map[string]interface{})["title"])
	assert.Nil(t, upd["warnings"])

	code, _ = s.do(t, http.MethodPatch, "/v1/owners/U1/listings/"+localID, map[string]interface{}{"status": "published"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, del := s.do(t, http.MethodDelete, "/v1/owners/U1/listings/"+localID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, del["usedScan"])
	assert.Empty(t, s.mem.Paths(schema.Registry()))

	code, _ = s.do(t, http.MethodGet, "/v1/listings/"+globalID, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandler_OrphanUpdateIsAWarning(t *testing.T) {
	s := newMemoryServer(t)
	code, mirror := s.do(t, http.MethodPost, "/v1/owners/U1/listings", danceClass)
	require.Equal(t, http.StatusCreated, code)
	require.NoError(t, s.mem.RemoveSubtree(context.Background(), schema.RegistryEntry(mirror["globalId"].(string))))

	code, upd := s.do(t, http.MethodPatch, "/v1/owners/U1/listings/"+mirror["id"].(string), map[string]interface{}{"location": "Hall B"})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, upd["warnings"], 1)
}

func TestHandler_DeleteDuplicateMirrorWarns(t *testing.T) {
	s := newMemoryServer(t)
	ctx := context.Background()
	code, mirror := s.do(t, http.MethodPost, "/v1/owners/U1/listings", danceClass)
	require.Equal(t, http.StatusCreated, code)
	globalID := mirror["globalId"].(string)
	v, ok, err := s.mem.ReadOnce(ctx, schema.OwnerPublishedEntry("U1", mirror["id"].(string)))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.mem.WriteAll(ctx, schema.OwnerPublishedEntry("U1", "dup1"), v))

	code, del := s.do(t, http.MethodDelete, "/v1/owners/U1/listings/dup1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, del["warnings"], 1)
	assert.Nil(t, del["globalIds"])

	code, _ = s.do(t, http.MethodGet, "/v1/listings/"+globalID, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestHandler_PartialFailureIsRetryable(t *testing.T) {
	mem := memory.New()
	s := newTestServer(t, &unavailableUpdates{Client: mem, prefix: schema.Registry()}, mem)

	code, body := s.do(t, http.MethodPost, "/v1/owners/U1/listings", danceClass)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, true, body["retryable"])
	assert.NotEmpty(t, body["step"])
	assert.NotEmpty(t, body["completed"])
}

func TestHandler_ValidationAndUnknownFields(t *testing.T) {
	s := newMemoryServer(t)

	code, body := s.do(t, http.MethodPost, "/v1/owners/U1/listings", map[string]interface{}{"title": "Only a title"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["fields"], "category")

	code, _ = s.do(t, http.MethodPost, "/v1/owners/U1/drafts", map[string]interface{}{"bogus": 1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/v1/owners/U1/drafts/missing/publish", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandler_PostsCommentsLikes(t *testing.T) {
	s := newMemoryServer(t)

	code, post := s.do(t, http.MethodPost, "/v1/owners/U1/posts", map[string]string{"caption": "Warm-up", "imageRef": "owners/U1/images/a.jpg"})
	require.Equal(t, http.StatusCreated, code)
	postID := post["postId"].(string)

	code, _ = s.do(t, http.MethodPost, "/v1/posts/"+postID+"/comments", map[string]string{"userId": "S1", "text": "nice"})
	require.Equal(t, http.StatusCreated, code)
	code, likes := s.do(t, http.MethodPut, "/v1/posts/"+postID+"/likes/S1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, likes["likeCount"])
	code, likes = s.do(t, http.MethodPut, "/v1/posts/"+postID+"/likes/S1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, likes["likeCount"])

	code, got := s.do(t, http.MethodGet, "/v1/posts/"+postID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, got["commentCount"])

	code, comments := s.do(t, http.MethodGet, "/v1/posts/"+postID+"/comments", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, comments["comments"], 1)

	code, likes = s.do(t, http.MethodDelete, "/v1/posts/"+postID+"/likes/S1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, likes["likeCount"])

	code, _ = s.do(t, http.MethodDelete, "/v1/owners/U1/posts/"+post["ownerLocalId"].(string), nil)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Empty(t, s.mem.Paths(schema.Posts()))
}

func TestHandler_ReconcileSweep(t *testing.T) {
	s := newMemoryServer(t)
	code, mirror := s.do(t, http.MethodPost, "/v1/owners/U1/listings", danceClass)
	require.Equal(t, http.StatusCreated, code)
	require.NoError(t, s.mem.RemoveSubtree(context.Background(), schema.OwnerPublishedEntry("U1", mirror["id"].(string))))

	code, res := s.do(t, http.MethodPost, "/v1/admin/reconcile/listings/"+mirror["globalId"].(string), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "missing_mirror", res["finding"].(map[string]interface{})["classification"])

	code, report := s.do(t, http.MethodPost, "/v1/admin/reconcile/sweep", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, report["repaired"])
}

func TestHandler_HandoffAndImages(t *testing.T) {
	s := newMemoryServer(t)

	code, _ := s.do(t, http.MethodPut, "/v1/owners/U1/handoff/lastPublished", map[string]string{"value": "m1"})
	require.Equal(t, http.StatusNoContent, code)
	code, body := s.do(t, http.MethodGet, "/v1/owners/U1/handoff/lastPublished", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "m1", body["value"])
	code, _ = s.do(t, http.MethodGet, "/v1/owners/U1/handoff/lastPublished", nil)
	assert.Equal(t, http.StatusNotFound, code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/owners/U1/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "owners/U1/images/photo.png")
	assert.Equal(t, []byte("png-bytes"), s.uploader.got)
}

func TestHandler_CollaboratorsNotConfigured(t *testing.T) {
	mem := memory.New()
	log := logger.NewNop()
	h := NewHandler(Handler{Listings: usecase.NewListingUsecase(mem, nil, nil, log)}, log)
	router := NewRouter(h, log)

	for _, target := range []string{"/v1/owners/U1/handoff/k", "/v1/owners/U1/images"} {
		method := http.MethodGet
		if strings.HasSuffix(target, "images") {
			method = http.MethodPost
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Watch(t *testing.T) {
	s := newMemoryServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/v1/watch?path=registry/g1&mode=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"/v1/watch?path=registry/g1", nil)
	require.NoError(t, err)
	defer conn.Close()

	next := func() watchMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg watchMessage
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	first := next()
	assert.Equal(t, "not_found", first.Kind)

	ctx := context.Background()
	require.NoError(t, s.mem.WriteAll(ctx, "registry/g1", store.Value{"status": "pending"}))
	msg := next()
	assert.Equal(t, "value", msg.Kind)
	assert.Equal(t, "pending", msg.Value.GetString("status"))

	require.NoError(t, s.mem.RemoveSubtree(ctx, "registry/g1"))
	assert.Equal(t, "not_found", next().Kind)

	coll, _, err := websocket.DefaultDialer.Dial(wsURL+"/v1/watch?path=registry&mode=collection", nil)
	require.NoError(t, err)
	defer coll.Close()
	require.NoError(t, s.mem.WriteAll(ctx, "registry/g2", store.Value{"status": "pending"}))

	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, coll.SetReadDeadline(deadline))
		var cm watchMessage
		require.NoError(t, coll.ReadJSON(&cm))
		assert.Equal(t, "collection", cm.Kind)
		if _, ok := cm.Items["g2"]; ok {
			break
		}
	}
	assert.Eventually(t, func() bool { return s.activeStreams() >= 2 }, time.Second, 10*time.Millisecond, "streams open")
}

func (s *testServer) activeStreams() int {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body struct {
		ActiveStreams int `json:"active_streams"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body.ActiveStreams
}
