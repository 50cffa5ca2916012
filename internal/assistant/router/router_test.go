package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/assistant/handler"
	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
	"github.com/campus-io/study-buddy/pkg/component/storage"
	"github.com/campus-io/study-buddy/pkg/infra/pool"
	"github.com/campus-io/study-buddy/pkg/llm"
	jwtopts "github.com/campus-io/study-buddy/pkg/options/jwt"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

type fakeProvider struct {
	mu     sync.Mutex
	deltas []llm.StreamDelta
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *fakeProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (f *fakeProvider) StreamChat(ctx context.Context, req llm.ChatRequest) (<-chan llm.StreamDelta, error) {
	f.mu.Lock()
	deltas := f.deltas
	f.mu.Unlock()

	ch := make(chan llm.StreamDelta, len(deltas)+1)
	for _, d := range deltas {
		ch <- d
	}
	ch <- llm.StreamDelta{Done: true}
	close(ch)
	return ch, nil
}

func (f *fakeProvider) Name() string { return "fake" }

type fakeChunkStore struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (f *fakeChunkStore) EnsureSchema(context.Context) error { return nil }

func (f *fakeChunkStore) CountByCourse(_ context.Context, courseID string, _ []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[courseID], nil
}

func (f *fakeChunkStore) IntroChunks(context.Context, string, []string, int) ([]model.DocumentChunk, error) {
	return nil, nil
}

func (f *fakeChunkStore) MatchChunks(context.Context, string, []string, []float32, int) ([]model.DocumentChunk, error) {
	return nil, nil
}

func (f *fakeChunkStore) ReplaceFileChunks(_ context.Context, courseID, _, _ string, chunks []model.TextChunk, _ [][]float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[courseID] += int64(len(chunks))
	return nil
}

func (f *fakeChunkStore) DeleteFileChunks(context.Context, string) error   { return nil }
func (f *fakeChunkStore) DeleteCourseChunks(context.Context, string) error { return nil }

func (f *fakeProvider) setDeltas(deltas []llm.StreamDelta) {
	f.mu.Lock()
	f.deltas = deltas
	f.mu.Unlock()
}

type testServer struct {
	engine   *gin.Engine
	users    *biz.UserService
	provider *fakeProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	factory, err := store.NewFactory(db)
	require.NoError(t, err)
	require.NoError(t, factory.AutoMigrate())

	provider := &fakeProvider{deltas: []llm.StreamDelta{{Content: "Hello"}, {Content: " there"}}}
	chunks := &fakeChunkStore{}

	indexingPool, err := pool.NewPool("indexing", pool.IndexingPool, pool.IndexingPoolConfig())
	require.NoError(t, err)
	t.Cleanup(indexingPool.Release)

	trackingPool, err := pool.NewPool("tracking", pool.TrackingPool, pool.TrackingPoolConfig())
	require.NoError(t, err)
	t.Cleanup(trackingPool.Release)

	uploads, err := storage.NewLocalStore(t.TempDir(), "http://127.0.0.1:8210/uploads")
	require.NoError(t, err)

	indexer := biz.NewIndexer(chunks, provider, indexingPool)
	retriever := biz.NewRetriever(chunks, provider)
	analytics := biz.NewAnalyticsService(factory, trackingPool)
	users := biz.NewUserService(factory)
	courses := biz.NewCourseService(factory, indexer)
	chat := biz.NewChatService(factory, retriever, provider, analytics, "gpt-4o-mini")

	handlers := &Handlers{
		Chat:      handler.NewChatHandler(chat),
		Index:     handler.NewIndexHandler(indexer),
		Upload:    handler.NewUploadHandler(courses, uploads),
		Course:    handler.NewCourseHandler(courses),
		User:      handler.NewUserHandler(users),
		Analytics: handler.NewAnalyticsHandler(analytics, courses),
	}

	opts := &jwtopts.Options{
		Key:           testSigningKey,
		SigningMethod: "HS256",
		Issuer:        "study-buddy",
	}

	return &testServer{
		engine:   Register(handlers, users, opts, uploads),
		users:    users,
		provider: provider,
	}
}

func (ts *testServer) register(t *testing.T, name, email string, role model.Role) *model.User {
	t.Helper()

	user, err := ts.users.Register(context.Background(), name, email, "secret1", role)
	require.NoError(t, err)
	return user
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    "study-buddy",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/v1/users/register", "", gin.H{
		"name":     "Ada",
		"email":    "Ada@Example.edu",
		"password": "secret1",
		"role":     "student",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"email":"ada@example.edu"`)

	w = ts.do(http.MethodPost, "/v1/users/login", "", gin.H{
		"email":    "ada@example.edu",
		"password": "secret1",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodPost, "/v1/users/login", "", gin.H{
		"email":    "ada@example.edu",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/v1/users/register", "", gin.H{
		"name":     "Ada Again",
		"email":    "ada@example.edu",
		"password": "secret1",
		"role":     "student",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCourseCreationRequiresProfessor(t *testing.T) {
	ts := newTestServer(t)
	student := ts.register(t, "Sam", "sam@example.edu", model.RoleStudent)
	professor := ts.register(t, "Prof. Reyes", "reyes@example.edu", model.RoleProfessor)

	body := gin.H{"name": "Operating Systems", "description": "Processes and memory"}

	w := ts.do(http.MethodPost, "/v1/courses", ts.token(t, student.ID), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(http.MethodPost, "/v1/courses", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/v1/courses", ts.token(t, professor.ID), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"professorName":"Prof. Reyes"`)
}

func TestHiddenCoursesInvisibleToStudents(t *testing.T) {
	ts := newTestServer(t)
	professor := ts.register(t, "Prof. Reyes", "reyes@example.edu", model.RoleProfessor)

	w := ts.do(http.MethodPost, "/v1/courses", ts.token(t, professor.ID), gin.H{"name": "Databases"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data model.Course `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	courseID := created.Data.ID

	w = ts.do(http.MethodGet, "/v1/courses", "", nil)
	assert.Contains(t, w.Body.String(), courseID)

	w = ts.do(http.MethodPut, "/v1/courses/"+courseID+"/visibility", ts.token(t, professor.ID), gin.H{"visible": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(http.MethodGet, "/v1/courses", "", nil)
	assert.NotContains(t, w.Body.String(), courseID)

	w = ts.do(http.MethodGet, "/v1/courses", ts.token(t, professor.ID), nil)
	assert.Contains(t, w.Body.String(), courseID)
}

func TestChatStreamsDeltas(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/v1/chat", "", gin.H{"message": "What is a deadlock?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, `data: {"content":"Hello"}`)
	assert.Contains(t, body, "data: [DONE]")
}

func TestChatStreamErrorMessageReachesClient(t *testing.T) {
	ts := newTestServer(t)
	ts.provider.setDeltas([]llm.StreamDelta{
		{Err: errors.New("Cannot connect to the AI gateway.\n\n1. Connect to the campus VPN (if off-campus)")},
	})

	w := ts.do(http.MethodPost, "/v1/chat", "", gin.H{"message": "What is a deadlock?"})
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "campus VPN")
	assert.Contains(t, body, "data: [DONE]")

	ts.provider.setDeltas([]llm.StreamDelta{
		{Err: errors.New("No response from AI. Please try again.")},
	})

	w = ts.do(http.MethodPost, "/v1/chat", "", gin.H{"message": "What is a deadlock?"})
	body = w.Body.String()
	assert.Contains(t, body, `No response from AI. Please try again.`)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/v1/chat", "", gin.H{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Message is required")
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	ts := newTestServer(t)
	professor := ts.register(t, "Prof. Reyes", "reyes@example.edu", model.RoleProfessor)

	w := ts.do(http.MethodPost, "/v1/courses", ts.token(t, professor.ID), gin.H{"name": "Networks"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data model.Course `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("courseId", created.Data.ID))
	part, err := mw.CreateFormFile("files", "malware.exe")
	require.NoError(t, err)
	_, err = part.Write([]byte("binary"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.token(t, professor.ID))
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported file type")
}

func TestUploadStoresSupportedFile(t *testing.T) {
	ts := newTestServer(t)
	professor := ts.register(t, "Prof. Reyes", "reyes@example.edu", model.RoleProfessor)

	w := ts.do(http.MethodPost, "/v1/courses", ts.token(t, professor.ID), gin.H{"name": "Networks"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data model.Course `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("courseId", created.Data.ID))
	part, err := mw.CreateFormFile("files", "syllabus.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte(strings.Repeat("TCP and UDP basics. ", 10)))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/files/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.token(t, professor.ID))
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"fileName":"syllabus.txt"`)

	w = ts.do(http.MethodGet, "/v1/courses/"+created.Data.ID+"/files", "", nil)
	assert.Contains(t, w.Body.String(), "syllabus.txt")
}

func TestAnalyticsRequireCourseOwnership(t *testing.T) {
	ts := newTestServer(t)
	owner := ts.register(t, "Prof. Reyes", "reyes@example.edu", model.RoleProfessor)
	other := ts.register(t, "Prof. Okafor", "okafor@example.edu", model.RoleProfessor)

	w := ts.do(http.MethodPost, "/v1/courses", ts.token(t, owner.ID), gin.H{"name": "Compilers"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data model.Course `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := fmt.Sprintf("/v1/courses/%s/analytics/engagement", created.Data.ID)

	w = ts.do(http.MethodGet, path, ts.token(t, owner.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(http.MethodGet, path, ts.token(t, other.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIndexEndpointValidatesRequest(t *testing.T) {
	ts := newTestServer(t)
	professor := ts.register(t, "Prof. Reyes", "reyes@example.edu", model.RoleProfessor)

	w := ts.do(http.MethodPost, "/v1/index", ts.token(t, professor.ID), gin.H{"fileId": "f1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "required")
}
