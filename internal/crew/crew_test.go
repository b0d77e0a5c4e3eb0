package crew

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
)

type recordingModel struct {
	system, user []string
	answer       string
	err          error
}

func (m *recordingModel) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	m.system = append(m.system, systemPrompt)
	m.user = append(m.user, userPrompt)
	return m.answer, m.err
}

func testLibrary() *Library {
	doc := NewTextDocument("system1_documentation.pdf", []string{
		"Weekly review: look back on the week and plan the next one.",
		"Resistance shows up as procrastination. Start before you feel ready.",
		"Ship the work. Done is better than perfect, so ship early and ship often.",
	}, 200, 20)
	return NewLibrary(DefaultSystems(), map[string]*Document{"system1": doc})
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{name: "empty", text: "", size: 4, want: nil},
		{name: "single", text: "abc", size: 4, want: []string{"abc"}},
		{name: "overlap", text: "abcdefghij", size: 4, overlap: 2, want: []string{"abcd", "cdef", "efgh", "ghij"}},
		{name: "no overlap", text: "abcdefghij", size: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "overlap too big falls back to size", text: "abcdef", size: 3, overlap: 3, want: []string{"abc", "def"}},
		{name: "runes not bytes", text: "привет мир", size: 6, want: []string{"привет", "мир"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkText(tt.text, tt.size, tt.overlap))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "a b c", normalizeText("  a\x00b\n\n\tc  "))
}

func TestPDFSearchTool_RanksByTerms(t *testing.T) {
	doc, err := testLibrary().Document("system1")
	require.NoError(t, err)
	tool := NewPDFSearchTool(doc, 2)

	hits := tool.Search("How do I beat procrastination?")
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Page)

	hits = tool.Search("ship the week")
	require.Len(t, hits, 2)
	assert.Equal(t, 3, hits[0].Page, "page 3 mentions ship three times")
	assert.Equal(t, 1, hits[1].Page)

	assert.Empty(t, tool.Search("the of and"))
	assert.Empty(t, tool.Search("kubernetes"))
}

func TestLibrary_Lookup(t *testing.T) {
	lib := testLibrary()

	assert.Equal(t, []string{"system1", "system2"}, lib.Names())
	assert.True(t, lib.Has("system2"))
	assert.False(t, lib.Has("system3"))

	_, err := lib.Document("system3")
	assert.ErrorIs(t, err, errs.ErrUnknownSystem)

	_, err = lib.Document("system2")
	assert.ErrorIs(t, err, errs.ErrDocumentMissing)
}

func TestLoadLibrary_MissingAndBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system2_documentation.pdf"), []byte("not a pdf"), 0o600))

	lib, err := LoadLibrary(context.Background(), dir, DefaultSystems(), 100, 10)
	require.NoError(t, err)

	assert.True(t, lib.Has("system1"))
	_, err = lib.Document("system1")
	assert.ErrorIs(t, err, errs.ErrDocumentMissing)
	_, err = lib.Document("system2")
	assert.ErrorIs(t, err, errs.ErrDocumentMissing)
}

func TestService_Ask(t *testing.T) {
	model := &recordingModel{answer: "Start before you feel ready."}
	svc := NewService(testLibrary(), model, 3)

	out, err := svc.Ask(context.Background(), "system1", "How do I beat procrastination?")
	require.NoError(t, err)
	assert.Equal(t, "Start before you feel ready.", out)

	require.Len(t, model.system, 1)
	assert.Contains(t, model.system[0], "You are Do the work book Documentation Analyst.")
	assert.Contains(t, model.system[0], "DO THE WORK BOOK documentation")
	assert.Contains(t, model.user[0], "following question: How do I beat procrastination?")
	assert.Contains(t, model.user[0], "(page 2) Resistance shows up as procrastination.")
	assert.NotContains(t, model.user[0], "Weekly review")
}

func TestService_AskErrors(t *testing.T) {
	model := &recordingModel{err: errors.New("rate limited")}
	svc := NewService(testLibrary(), model, 3)

	_, err := svc.Ask(context.Background(), "nope", "q")
	assert.ErrorIs(t, err, errs.ErrUnknownSystem)

	_, err = svc.Ask(context.Background(), "system2", "q")
	assert.ErrorIs(t, err, errs.ErrDocumentMissing)
	assert.Empty(t, model.user, "model must not be called without documentation")

	_, err = svc.Ask(context.Background(), "system1", "q")
	assert.ErrorIs(t, err, errs.ErrGeneration)
	assert.ErrorContains(t, err, "rate limited")
}

func TestCrew_KickoffChainsTasks(t *testing.T) {
	model := &recordingModel{answer: "draft"}
	agent := &Agent{Role: "Writer", Goal: "write", Backstory: "b"}
	c := &Crew{
		Agents: []*Agent{agent},
		Tasks: []*Task{
			{Description: "first", ExpectedOutput: "x", Agent: agent},
			{Description: "second", ExpectedOutput: "y", Agent: agent},
		},
		model: model,
	}

	out, err := c.Kickoff(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "draft", out)
	require.Len(t, model.user, 2)
	assert.NotContains(t, model.user[0], "context you're working with")
	assert.Contains(t, model.user[1], "context you're working with:\ndraft")
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Django rest framework book", capitalize("DJANGO REST FRAMEWORK BOOK"))
	assert.Equal(t, "", capitalize(""))
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  42  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL+"/v1/", "sk-test", "gpt-test", time.Second)
	out, err := c.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)

	assert.Equal(t, "42", out)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Content)
}

func TestOpenAIClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/bad"):
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`))
		case strings.HasPrefix(r.URL.Path, "/empty"):
			_, _ = w.Write([]byte(`{"choices":[]}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(srv.URL+"/bad", "", "m", time.Second).Complete(context.Background(), "", "q")
	assert.ErrorContains(t, err, "Incorrect API key")

	_, err = NewOpenAIClient(srv.URL+"/empty", "", "m", time.Second).Complete(context.Background(), "", "q")
	assert.ErrorContains(t, err, "empty response")

	_, err = NewOpenAIClient(srv.URL+"/other", "", "m", time.Second).Complete(context.Background(), "", "q")
	assert.ErrorContains(t, err, "502")

	_, err = NewOpenAIClient(srv.URL, "", "", time.Second).Complete(context.Background(), "", "q")
	assert.ErrorContains(t, err, "model is required")
}
