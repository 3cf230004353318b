package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/ram70099/ChatBot/internal/chat"
	"github.com/ram70099/ChatBot/internal/history"
	"github.com/ram70099/ChatBot/internal/llm"
)

type mockLLM struct {
	calls []openai.ChatCompletionResponse
	err   error
}

func (m *mockLLM) CreateChatCompletion(ctx context.Context, r openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	if len(m.calls) == 0 {
		panic("mockLLM: no more responses configured for request: " + r.Messages[0].Content)
	}
	resp := m.calls[0]
	m.calls = m.calls[1:]
	return resp, nil
}

func reply(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: text}}}}
}

type saveErrStore struct{}

func (saveErrStore) Load() (history.History, error) { return history.History{}, nil }
func (saveErrStore) Save(history.History) error     { return errors.New("read-only filesystem") }

func newTestServer(t *testing.T, store history.Store, client *mockLLM, opts chat.Options) (*httptest.Server, *http.Client) {
	t.Helper()
	m := chat.NewManager(store, llm.NewModel(client, "gemini-1.5-flash"), opts)
	srv := httptest.NewServer(New(m, "Test Chat").Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}
}

func get(t *testing.T, c *http.Client, u string) (int, string) {
	t.Helper()
	resp, err := c.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func post(t *testing.T, c *http.Client, u, message string) (int, string) {
	t.Helper()
	resp, err := c.PostForm(u, url.Values{"message": {message}})
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestIndex_RendersStoredHistory(t *testing.T) {
	store := history.NewFileStore(filepath.Join(t.TempDir(), "h.json"))
	require.NoError(t, store.Save(history.History{{User: "hi", AI: "<b>yo</b>"}}))
	srv, c := newTestServer(t, store, &mockLLM{}, chat.Options{PersistFailures: true})

	code, body := get(t, c, srv.URL+"/")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "<h1>Test Chat</h1>")
	require.Contains(t, body, "👤 You: hi")
	require.Contains(t, body, "🤖 Gemini: &lt;b&gt;yo&lt;/b&gt;", "message text is escaped")
	require.Contains(t, body, `placeholder="Ask me anything..."`)

	u, _ := url.Parse(srv.URL)
	require.Len(t, c.Jar.Cookies(u), 1)
	require.Equal(t, SessionCookie, c.Jar.Cookies(u)[0].Name)
}

func TestChat_SubmitRedirectsAndRerenders(t *testing.T) {
	p := filepath.Join(t.TempDir(), "h.json")
	srv, c := newTestServer(t, history.NewFileStore(p), &mockLLM{calls: []openai.ChatCompletionResponse{reply("Hello from Gemini")}}, chat.Options{PersistFailures: true})

	code, body := post(t, c, srv.URL+"/chat", "hello")
	require.Equal(t, http.StatusOK, code, "303 is followed back to the page")
	require.Contains(t, body, "👤 You: hello")
	require.Contains(t, body, "🤖 Gemini: Hello from Gemini")

	h, err := history.NewFileStore(p).Load()
	require.NoError(t, err)
	require.Equal(t, history.History{{User: "hello", AI: "Hello from Gemini"}}, h)
}

func TestChat_BlankInputIgnored(t *testing.T) {
	p := filepath.Join(t.TempDir(), "h.json")
	srv, c := newTestServer(t, history.NewFileStore(p), &mockLLM{}, chat.Options{PersistFailures: true})

	code, body := post(t, c, srv.URL+"/chat", "   ")
	require.Equal(t, http.StatusOK, code)
	require.NotContains(t, body, "👤 You:")

	h, err := history.NewFileStore(p).Load()
	require.NoError(t, err)
	require.Empty(t, h)
}

func TestChat_ModelFailureShownAndStored(t *testing.T) {
	srv, c := newTestServer(t, history.NewFileStore(filepath.Join(t.TempDir(), "h.json")), &mockLLM{err: errors.New("boom")}, chat.Options{PersistFailures: true})

	code, body := post(t, c, srv.URL+"/chat", "hello")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "🤖 Gemini: "+llm.FailureMarker+"boom")
	require.NotContains(t, body, "chat-bubble-ai transient")
}

func TestChat_TransientFailureShownOnce(t *testing.T) {
	srv, c := newTestServer(t, history.NewFileStore(filepath.Join(t.TempDir(), "h.json")), &mockLLM{err: errors.New("boom")}, chat.Options{PersistFailures: false})

	_, body := post(t, c, srv.URL+"/chat", "hello")
	require.Contains(t, body, "chat-bubble-ai transient")
	require.Contains(t, body, llm.FailureMarker+"boom")

	_, body = get(t, c, srv.URL+"/")
	require.NotContains(t, body, "boom")
}

func TestChat_SaveFailureIs500(t *testing.T) {
	srv, c := newTestServer(t, saveErrStore{}, &mockLLM{calls: []openai.ChatCompletionResponse{reply("yo")}}, chat.Options{PersistFailures: true})

	code, body := post(t, c, srv.URL+"/chat", "hello")
	require.Equal(t, http.StatusInternalServerError, code)
	require.Contains(t, body, "failed to save chat history")
}

func TestHistoryAPI(t *testing.T) {
	store := history.NewFileStore(filepath.Join(t.TempDir(), "h.json"))
	require.NoError(t, store.Save(history.History{{User: "hi", AI: "yo"}}))
	srv, c := newTestServer(t, store, &mockLLM{}, chat.Options{})

	code, body := get(t, c, srv.URL+"/api/history")
	require.Equal(t, http.StatusOK, code)

	var out struct {
		Session string          `json:"session"`
		History history.History `json:"history"`
	}
	require.NoError(t, json.NewDecoder(strings.NewReader(body)).Decode(&out))
	require.NotEmpty(t, out.Session)
	require.Equal(t, history.History{{User: "hi", AI: "yo"}}, out.History)

	// same cookie, same session
	_, body2 := get(t, c, srv.URL+"/api/history")
	require.Contains(t, body2, out.Session)
}

func TestIndex_CorruptHistoryIs500(t *testing.T) {
	srv, c := newTestServer(t, corruptStore{}, &mockLLM{}, chat.Options{})

	code, _ := get(t, c, srv.URL+"/")
	require.Equal(t, http.StatusInternalServerError, code)
}

type corruptStore struct{}

func (corruptStore) Load() (history.History, error) { return nil, history.ErrCorrupt }
func (corruptStore) Save(history.History) error     { return nil }

func TestHealth(t *testing.T) {
	srv, c := newTestServer(t, saveErrStore{}, &mockLLM{}, chat.Options{})
	code, body := get(t, c, srv.URL+"/health")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, `"ok": true`)
}

func TestUnknownPathIs404(t *testing.T) {
	srv, c := newTestServer(t, saveErrStore{}, &mockLLM{}, chat.Options{})
	code, _ := get(t, c, srv.URL+"/nope")
	require.Equal(t, http.StatusNotFound, code)
}

// ctxLLM fails the way go-openai does when the request context is done.
type ctxLLM struct{ text string }

func (c ctxLLM) CreateChatCompletion(ctx context.Context, r openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return reply(c.text), nil
}

func TestChat_ClientGoneStillCompletes(t *testing.T) {
	store := history.NewFileStore(filepath.Join(t.TempDir(), "h.json"))
	m := chat.NewManager(store, llm.NewModel(ctxLLM{text: "still here"}, "gemini-1.5-flash"), chat.Options{PersistFailures: true})
	h := New(m, "Test Chat").Handler()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(url.Values{"message": {"hi"}}.Encode())).WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, history.History{{User: "hi", AI: "still here"}}, got)
}

func TestSessions_CookielessRequestsStayBounded(t *testing.T) {
	m := chat.NewManager(saveErrStore{}, llm.NewModel(&mockLLM{}, "gemini-1.5-flash"), chat.Options{})
	h := New(m, "Test Chat").Handler()

	cookies := make(map[string]bool)
	for i := 0; i < 200; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		for _, c := range rec.Result().Cookies() {
			if c.Name == SessionCookie {
				cookies[c.Value] = true
			}
		}
	}
	require.Len(t, cookies, 200)
	require.Equal(t, chat.MaxSessions, m.Len())
}
