package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"whisperwall/auth"
	"whisperwall/domain"
	"whisperwall/domain/event"
	"whisperwall/errors"
	"whisperwall/infrastructure/http/router"
	"whisperwall/mocks"
	"whisperwall/services"
)

type api struct {
	logs   *bytes.Buffer
	engine *gin.Engine
	auth   *mocks.MockIAuthService
	feed   *mocks.MockIFeedService
	chat   *mocks.MockIChatService
	token  string
}

func newAPI(t *testing.T) api {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	tokens := auth.NewTokenManager([]byte("secret"), time.Hour)
	token, err := tokens.Generate("1234")
	require.NoError(t, err)
	a := api{
		logs:   &bytes.Buffer{},
		engine: gin.New(),
		auth:   mocks.NewMockIAuthService(ctrl),
		feed:   mocks.NewMockIFeedService(ctrl),
		chat:   mocks.NewMockIChatService(ctrl),
		token:  token,
	}
	router.SetupRoutes(a.engine, router.Dependencies{
		Log:    slog.New(slog.NewTextHandler(a.logs, &slog.HandlerOptions{Level: slog.LevelWarn})),
		Auth:   a.auth,
		Feed:   a.feed,
		Chat:   a.chat,
		Tokens: tokens,
	})
	return a
}

func (a api) do(method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}
	r := httptest.NewRequest(method, path, &payload)
	r.Header.Set("Content-Type", "application/json")
	if authenticated {
		r.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var value T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &value))
	return value
}

func TestAuthHandler(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		setup  func(a api)
		body   any
		status int
	}{
		{
			name: "register returns a token",
			path: "/api/v1/auth/register",
			setup: func(a api) {
				a.auth.EXPECT().Register("1234").Return(services.Token("signed"), nil)
			},
			body:   map[string]string{"code": "1234"},
			status: http.StatusCreated,
		},
		{
			name: "register a taken code",
			path: "/api/v1/auth/register",
			setup: func(a api) {
				a.auth.EXPECT().Register("1234").Return(services.Token(""), errors.ErrCodeTaken)
			},
			body:   map[string]string{"code": "1234"},
			status: http.StatusConflict,
		},
		{
			name: "register an invalid code",
			path: "/api/v1/auth/register",
			setup: func(a api) {
				a.auth.EXPECT().Register("12").Return(services.Token(""), fmt.Errorf("%w: 12", errors.ErrInvalidCode))
			},
			body:   map[string]string{"code": "12"},
			status: http.StatusBadRequest,
		},
		{
			name:   "register without body",
			path:   "/api/v1/auth/register",
			setup:  func(a api) {},
			body:   nil,
			status: http.StatusBadRequest,
		},
		{
			name: "login returns a token",
			path: "/api/v1/auth/login",
			setup: func(a api) {
				a.auth.EXPECT().Login("1234").Return(services.Token("signed"), nil)
			},
			body:   map[string]string{"code": "1234"},
			status: http.StatusOK,
		},
		{
			name: "login an unknown code",
			path: "/api/v1/auth/login",
			setup: func(a api) {
				a.auth.EXPECT().Login("9999").Return(services.Token(""), errors.ErrInvalidCredentials)
			},
			body:   map[string]string{"code": "9999"},
			status: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			a := newAPI(t)
			tt.setup(a)

			w := a.do(http.MethodPost, tt.path, tt.body, false)

			req.Equal(tt.status, w.Code, w.Body.String())
			if w.Code < http.StatusBadRequest {
				req.Equal("signed", decode[map[string]string](t, w)["token"])
			}
		})
	}
}

func TestFeedHandler_Requires_Token(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	w := a.do(http.MethodGet, "/api/v1/posts", nil, false)

	req.Equal(http.StatusUnauthorized, w.Code)
}

func TestFeedHandler_Create(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	post := domain.Post{ID: uuid.New(), Content: "hello", AuthorCode: "1234", CreatedAt: time.Now().UTC()}
	a.feed.EXPECT().CreatePost(gomock.Any(), domain.Code("1234"), "hello").Return(post, nil)

	w := a.do(http.MethodPost, "/api/v1/posts", map[string]string{"content": "hello"}, true)

	req.Equal(http.StatusCreated, w.Code)
	body := decode[map[string]any](t, w)
	req.Equal(post.ID.String(), body["id"])
	req.Equal("1234", body["author_code"])
}

func TestFeedHandler_Create_Rejected(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	a.feed.EXPECT().CreatePost(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.Post{}, fmt.Errorf("%w: %s", errors.ErrContentRejected, "Links and URLs are not allowed"))

	w := a.do(http.MethodPost, "/api/v1/posts", map[string]string{"content": "www.example.com"}, true)

	req.Equal(http.StatusUnprocessableEntity, w.Code)
	req.Contains(decode[map[string]string](t, w)["error"], "Links and URLs are not allowed")
}

func TestFeedHandler_Report(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	id := uuid.New()
	a.feed.EXPECT().ReportPost(gomock.Any(), domain.Code("1234"), id).
		Return(services.ReportResult{Post: domain.Post{ID: id, ReportCount: 5}, Removed: true}, nil)

	w := a.do(http.MethodPost, "/api/v1/posts/"+id.String()+"/report", nil, true)

	req.Equal(http.StatusOK, w.Code)
	req.Equal(true, decode[map[string]any](t, w)["removed"])
}

func TestFeedHandler_Errors(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name   string
		path   string
		setup  func(a api)
		status int
	}{
		{"like an invalid id", "/api/v1/posts/nope/like", func(a api) {}, http.StatusBadRequest},
		{
			"like an unknown post", "/api/v1/posts/" + id.String() + "/like",
			func(a api) {
				a.feed.EXPECT().LikePost(gomock.Any(), gomock.Any(), id).Return(domain.Post{}, errors.ErrPostNotFound)
			},
			http.StatusNotFound,
		},
		{
			"report twice", "/api/v1/posts/" + id.String() + "/report",
			func(a api) {
				a.feed.EXPECT().ReportPost(gomock.Any(), gomock.Any(), id).Return(services.ReportResult{}, errors.ErrAlreadyReported)
			},
			http.StatusConflict,
		},
		{
			"like an unknown reply", "/api/v1/posts/" + id.String() + "/replies/" + id.String() + "/like",
			func(a api) {
				a.feed.EXPECT().LikeReply(gomock.Any(), gomock.Any(), id, id).Return(domain.Reply{}, errors.ErrReplyNotFound)
			},
			http.StatusNotFound,
		},
		{
			"unexpected failure", "/api/v1/posts/" + id.String() + "/like",
			func(a api) {
				a.feed.EXPECT().LikePost(gomock.Any(), gomock.Any(), id).Return(domain.Post{}, fmt.Errorf("disk full"))
			},
			http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			a := newAPI(t)
			tt.setup(a)

			w := a.do(http.MethodPost, tt.path, nil, true)

			req.Equal(tt.status, w.Code, w.Body.String())
		})
	}
}

func TestFeedHandler_Unexpected_Failure_Is_Logged_Not_Leaked(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	id := uuid.New()
	a.feed.EXPECT().LikePost(gomock.Any(), gomock.Any(), id).Return(domain.Post{}, fmt.Errorf("disk full"))

	w := a.do(http.MethodPost, "/api/v1/posts/"+id.String()+"/like", nil, true)

	// Then the client sees a generic error and the cause goes to the injected logger
	req.Equal(http.StatusInternalServerError, w.Code)
	req.NotContains(w.Body.String(), "disk full")
	req.Contains(a.logs.String(), "request failed")
	req.Contains(a.logs.String(), "disk full")
}

func TestAuthHandler_Invalid_Body_Is_Logged(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)

	w := a.do(http.MethodPost, "/api/v1/auth/register", nil, false)

	req.Equal(http.StatusBadRequest, w.Code)
	req.Contains(a.logs.String(), "invalid request body")
}

func TestFeedHandler_List_And_Search(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	posts := []domain.Post{{ID: uuid.New(), Content: "sunny"}}
	a.feed.EXPECT().ListPosts(gomock.Any()).Return(posts, nil)
	a.feed.EXPECT().Search(gomock.Any(), "sun", 100).Return(posts, nil)

	w := a.do(http.MethodGet, "/api/v1/posts", nil, true)
	req.Equal(http.StatusOK, w.Code)
	req.Len(decode[[]map[string]any](t, w), 1)

	w = a.do(http.MethodGet, "/api/v1/posts/search?q=sun&limit=500", nil, true)
	req.Equal(http.StatusOK, w.Code)
	req.Len(decode[[]map[string]any](t, w), 1)

	w = a.do(http.MethodGet, "/api/v1/posts/search?q=sun&limit=-1", nil, true)
	req.Equal(http.StatusBadRequest, w.Code)
}

func TestFeedHandler_Reply(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	postID := uuid.New()
	reply := domain.Reply{ID: uuid.New(), PostID: postID, Content: "same", AuthorCode: "1234"}
	a.feed.EXPECT().AddReply(gomock.Any(), domain.Code("1234"), postID, "same").Return(reply, nil)

	w := a.do(http.MethodPost, "/api/v1/posts/"+postID.String()+"/replies", map[string]string{"content": "same"}, true)

	req.Equal(http.StatusCreated, w.Code)
	req.Equal(reply.ID.String(), decode[map[string]any](t, w)["id"])
}

func TestConversationHandler_Messages(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	next := "0000000000000000001:abc"
	cursor := "0000000000000000009:def"
	a.chat.EXPECT().History(domain.Code("1234"), domain.Code("5678"), &cursor).Return([]event.StoredMessage{
		{ID: uuid.New(), Text: "hi", From: "1234", To: "5678", FromMe: true},
	}, &next, nil)

	w := a.do(http.MethodGet, "/api/v1/conversations/5678/messages?cursor="+cursor, nil, true)

	req.Equal(http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	req.Equal(next, body["cursor"])
	req.Len(body["messages"], 1)
}

func TestConversationHandler_Invalid_Peer(t *testing.T) {
	req := require.New(t)
	a := newAPI(t)
	a.chat.EXPECT().History(domain.Code("1234"), domain.Code("abc"), nil).
		Return(nil, nil, fmt.Errorf("%w: abc", errors.ErrInvalidCode))

	w := a.do(http.MethodGet, "/api/v1/conversations/abc/messages", nil, true)

	req.Equal(http.StatusBadRequest, w.Code)
}
