package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campus-io/study-buddy/internal/assistant/biz"
	"github.com/campus-io/study-buddy/internal/assistant/store"
	"github.com/campus-io/study-buddy/internal/model"
	jwtopts "github.com/campus-io/study-buddy/pkg/options/jwt"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func newTestUsers(t *testing.T) *biz.UserService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	factory, err := store.NewFactory(db)
	require.NoError(t, err)
	return biz.NewUserService(factory)
}

func newTestEngine(t *testing.T, users *biz.UserService, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	opts := &jwtopts.Options{
		Key:           testSigningKey,
		SigningMethod: "HS256",
		Issuer:        "study-buddy",
	}

	engine := gin.New()
	handlers := append([]gin.HandlerFunc{Session(opts, users)}, extra...)
	engine.GET("/whoami", append(handlers, func(c *gin.Context) {
		if user := UserFrom(c); user != nil {
			c.JSON(http.StatusOK, gin.H{"id": user.ID, "role": user.Role})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": ""})
	})...)
	return engine
}

func signToken(t *testing.T, subject, issuer string, key []byte) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func registerUser(t *testing.T, users *biz.UserService, role model.Role) *model.User {
	t.Helper()

	user, err := users.Register(context.Background(), "Test User", string(role)+"@example.edu", "secret1", role)
	require.NoError(t, err)
	return user
}

func get(engine *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSessionAllowsGuests(t *testing.T) {
	engine := newTestEngine(t, newTestUsers(t))

	w := get(engine, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)
}

func TestSessionLoadsUser(t *testing.T) {
	users := newTestUsers(t)
	user := registerUser(t, users, model.RoleStudent)
	engine := newTestEngine(t, users)

	w := get(engine, signToken(t, user.ID, "study-buddy", []byte(testSigningKey)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.ID)
}

func TestSessionRejectsBadSignature(t *testing.T) {
	users := newTestUsers(t)
	user := registerUser(t, users, model.RoleStudent)
	engine := newTestEngine(t, users)

	w := get(engine, signToken(t, user.ID, "study-buddy", []byte("ffffffffffffffffffffffffffffffff")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsWrongIssuer(t *testing.T) {
	users := newTestUsers(t)
	user := registerUser(t, users, model.RoleStudent)
	engine := newTestEngine(t, users)

	w := get(engine, signToken(t, user.ID, "someone-else", []byte(testSigningKey)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsUnknownUser(t *testing.T) {
	engine := newTestEngine(t, newTestUsers(t))

	w := get(engine, signToken(t, "no-such-user", "study-buddy", []byte(testSigningKey)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionRejectsMalformedHeader(t *testing.T) {
	engine := newTestEngine(t, newTestUsers(t))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// Identity is scoped to a single request. A previous authenticated
// request must never bleed into a later anonymous one.
func TestSessionDoesNotLeakBetweenRequests(t *testing.T) {
	users := newTestUsers(t)
	user := registerUser(t, users, model.RoleStudent)
	engine := newTestEngine(t, users)

	w := get(engine, signToken(t, user.ID, "study-buddy", []byte(testSigningKey)))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), user.ID)

	w = get(engine, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":""`)
}

func TestRequireProfessor(t *testing.T) {
	users := newTestUsers(t)
	student := registerUser(t, users, model.RoleStudent)
	professor := registerUser(t, users, model.RoleProfessor)
	engine := newTestEngine(t, users, RequireProfessor())

	assert.Equal(t, http.StatusUnauthorized, get(engine, "").Code)
	assert.Equal(t, http.StatusForbidden, get(engine, signToken(t, student.ID, "study-buddy", []byte(testSigningKey))).Code)
	assert.Equal(t, http.StatusOK, get(engine, signToken(t, professor.ID, "study-buddy", []byte(testSigningKey))).Code)
}
