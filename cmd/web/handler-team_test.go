package main

import (
	"context"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/teamcheck/internal/e2etest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionIDs(doc *goquery.Document, slot string) []string {
	ids := []string{}
	doc.Find("form[action='/team/pick'][data-slot='" + slot + "'] button[name=character_id]").
		Each(func(_ int, s *goquery.Selection) {
			ids = append(ids, s.AttrOr("value", ""))
		})
	return ids
}

func pickedID(doc *goquery.Document, slot string) string {
	return doc.Find("#slot-" + slot + " .card").AttrOr("data-character", "")
}

func Test_application_home(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	server := startTestServer(t, testLookupEnv(nil))
	client := server.Client()

	resp, err := client.Get(ctx, "/")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, resp.Body.Close())
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	csp := resp.Header.Get("Content-Security-Policy")
	require.Contains(t, csp, "'nonce-")
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	nonce, ok := doc.Find("script").Attr("nonce")
	require.True(t, ok)
	require.Contains(t, csp, "'nonce-"+nonce+"'")

	require.Equal(t, 3, doc.Find(".slot").Length())
	require.Len(t, optionIDs(doc, "1"), 12)
	require.Equal(t, "rina", optionIDs(doc, "1")[0], "options are sorted by name")
	require.Empty(t, optionIDs(doc, "2"))
	require.Empty(t, optionIDs(doc, "3"))
	require.Equal(t, 0, doc.Find("#validation").Length())

	status := doc.Find("#load-status")
	require.Equal(t, "12", status.Find("[data-count=characters]").Text())
	require.Contains(t, strings.Join(strings.Fields(status.Text()), " "), "Loaded 12 characters, 22 conditions")
}

func Test_application_pickFullTeam(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	server := startTestServer(t, testLookupEnv(nil))
	client := server.Client()

	doc, err := client.Pick(ctx, 1, "ellen")
	require.NoError(t, err)
	require.Equal(t, "ellen", pickedID(doc, "1"))
	require.Equal(t, []string{"rina", "anby", "koleda", "nicole", "lycaon"}, optionIDs(doc, "2"))
	require.Equal(t, 3, doc.Find("#slot-1 .conditions li").Length())

	doc, err = client.Pick(ctx, 2, "lycaon")
	require.NoError(t, err)
	require.Equal(t, "lycaon", pickedID(doc, "2"))
	require.Equal(t, []string{"rina"}, optionIDs(doc, "3"))
	require.Equal(t, 0, doc.Find("#validation").Length())

	doc, err = client.Pick(ctx, 3, "rina")
	require.NoError(t, err)
	require.Equal(t, "rina", pickedID(doc, "3"))
	validation := doc.Find("#validation")
	require.Equal(t, 1, validation.Length())
	require.Equal(t, 3, validation.Find("li.ok").Length())
	require.Contains(t, validation.Find("li[data-slot='2']").Text(), "Slot 2 passive: OK")
	require.True(t, doc.Find("#all-ok").HasClass("ok"))

	// Changing the first pick clears the later slots.
	doc, err = client.Pick(ctx, 1, "anby")
	require.NoError(t, err)
	require.Equal(t, "anby", pickedID(doc, "1"))
	require.Empty(t, pickedID(doc, "2"))
	require.Empty(t, pickedID(doc, "3"))
	require.NotContains(t, optionIDs(doc, "2"), "anby", "picked characters are not offered again")
}

func Test_application_reset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	server := startTestServer(t, testLookupEnv(nil))
	client := server.Client()

	for slot, id := range []string{"ellen", "lycaon", "rina"} {
		_, err := client.Pick(ctx, slot+1, id)
		require.NoError(t, err)
	}

	doc, err := client.Reset(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "lycaon", pickedID(doc, "2"))
	require.Empty(t, pickedID(doc, "3"))

	doc, err = client.Reset(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "ellen", pickedID(doc, "1"))
	require.Empty(t, pickedID(doc, "2"))

	doc, err = client.Reset(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, pickedID(doc, "1"))
	require.Len(t, optionIDs(doc, "1"), 12)
}

func Test_application_pickRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	server := startTestServer(t, testLookupEnv(nil))
	client := server.Client()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	slot1Form := "form[action='/team/pick'][data-slot='1']"

	tests := []struct {
		name  string
		extra neturl.Values
		want  int
	}{
		{
			name:  "slot 2 before slot 1",
			extra: neturl.Values{"slot": {"2"}, "character_id": {"anby"}},
			want:  http.StatusUnprocessableEntity,
		},
		{
			name:  "unknown character",
			extra: neturl.Values{"character_id": {"nobody"}},
			want:  http.StatusUnprocessableEntity,
		},
		{
			name:  "slot out of range",
			extra: neturl.Values{"slot": {"4"}, "character_id": {"anby"}},
			want:  http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, values, formErr := e2etest.FormValues(doc, slot1Form, tt.extra)
			require.NoError(t, formErr)
			resp, postErr := client.PostForm(ctx, action, values, nil)
			require.NoError(t, postErr)
			_ = resp.Body.Close()
			require.Equal(t, tt.want, resp.StatusCode)
		})
	}

	// A character that doesn't satisfy slot 1 is not accepted in slot 2.
	doc, err = client.Pick(ctx, 1, "ellen")
	require.NoError(t, err)
	action, values, err := e2etest.FormValues(doc, "form[action='/team/pick'][data-slot='2']",
		neturl.Values{"character_id": {"billy"}})
	require.NoError(t, err)
	resp, err := client.PostForm(ctx, action, values, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Without a CSRF token the request never reaches the handler.
	resp, err = client.PostForm(ctx, "/team/pick", neturl.Values{"slot": {"1"}, "character_id": {"anby"}}, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func Test_application_pickHtmx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	server := startTestServer(t, testLookupEnv(nil))
	client := server.Client()

	doc, err := client.GetDoc(ctx, "/")
	require.NoError(t, err)
	action, values, err := e2etest.FormValues(doc, "form[action='/team/pick'][data-slot='1']",
		neturl.Values{"character_id": {"ellen"}})
	require.NoError(t, err)

	resp, err := client.PostForm(ctx, action, values, http.Header{"Hx-Request": {"true"}})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, resp.Body.Close())
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(strings.TrimSpace(string(body)), `<section id="team">`), string(body))
	require.NotContains(t, string(body), "<html")

	partial, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	require.NoError(t, err)
	require.Equal(t, "ellen", pickedID(partial, "1"))

	// The swapped partial carries working forms of its own.
	action, values, err = e2etest.FormValues(partial, "form[action='/team/reset'][data-from='1']", nil)
	require.NoError(t, err)
	resetResp, err := client.PostForm(ctx, action, values, http.Header{"Hx-Request": {"true"}})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, resetResp.Body.Close())
	}()
	require.Equal(t, http.StatusOK, resetResp.StatusCode)
	partial, err = goquery.NewDocumentFromReader(resetResp.Body)
	require.NoError(t, err)
	require.Equal(t, 1, partial.Find("section#team").Length())
	require.Equal(t, 0, partial.Find("html > head > title").Length())
	require.Empty(t, pickedID(partial, "1"))
	require.Len(t, optionIDs(partial, "1"), 12)
}

func Test_application_rosterUnavailable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	missing := t.TempDir() + "/missing.sqlite"
	server := startTestServer(t, testLookupEnv(map[string]string{"TEAMCHECK_SQLITE_URL": missing}))
	client := server.Client()

	resp, err := client.Get(ctx, "/")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, resp.Body.Close())
	}()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	require.Equal(t, 1, doc.Find(".unavailable").Length())
	require.Equal(t, 0, doc.Find("form[action='/team/pick']").Length())
	require.Equal(t, 0, doc.Find("#load-status").Length())

	var body map[string]string
	status, err := client.GetJSON(ctx, "/api/roster", &body)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, "roster unavailable", body["error"])

	require.NoError(t, client.WaitForReady(ctx, "/api/healthy"))
}
