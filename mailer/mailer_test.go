package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"
	"time"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

func intakeConfig() config.IntakeConfig {
	return config.Default().Intake
}

func TestFirstName(t *testing.T) {
	cases := map[string]string{
		"Jane Doe":     "Jane",
		"Prince":       "Prince",
		"  Ada  Love ": "Ada",
		"":             "there",
		"   ":          "there",
	}
	for in, want := range cases {
		assert.Equal(t, want, FirstName(in), "FirstName(%q)", in)
	}
}

func TestResourcesEmail(t *testing.T) {
	msg, err := ResourcesEmail(intakeConfig(), "Jane Doe", "jane@example.com")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "Sandy Lee", msg.FromName)
	assert.Equal(t, "Your Free Resources from Sandy Lee", msg.Subject)

	assert.Contains(t, msg.Text, "Hey Jane,\n")
	assert.Contains(t, msg.Text, "\nhttps://sleeautomation.com/resources-tab\n")
	assert.Contains(t, msg.Text, "Talk soon,\nSandy Lee\n")

	assert.Contains(t, msg.HTML, "Hey Jane,")
	assert.Contains(t, msg.HTML, `href="https://sleeautomation.com/resources-tab"`)
	assert.Contains(t, msg.HTML, "<strong style=\"color: #1a1a1a;\">Sandy Lee</strong>")
}

func TestResourcesEmail_BlankName(t *testing.T) {
	msg, err := ResourcesEmail(intakeConfig(), "", "x@example.com")
	require.NoError(t, err)
	assert.Contains(t, msg.Text, "Hey there,")
	assert.Contains(t, msg.HTML, "Hey there,")
}

func TestResourcesEmail_EscapesHTMLOnly(t *testing.T) {
	msg, err := ResourcesEmail(intakeConfig(), "<script>alert(1)</script> Doe", "x@example.com")
	require.NoError(t, err)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.Contains(t, msg.Text, "Hey <script>alert(1)</script>,")
}

// parsed holds the decoded pieces of a MIME message.
type parsed struct {
	header mail.Header
	parts  map[string]string
}

func parseMIME(t *testing.T, raw []byte) parsed {
	t.Helper()
	m, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/alternative", mediaType)

	out := parsed{header: m.Header, parts: map[string]string{}}
	mr := multipart.NewReader(m.Body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ct, _, err := mime.ParseMediaType(p.Header.Get("Content-Type"))
		require.NoError(t, err)
		body, err := io.ReadAll(p)
		require.NoError(t, err)
		out.parts[ct] = string(body)
	}
	return out
}

func TestMessageMIME(t *testing.T) {
	msg := Message{
		To:       "jane@example.com",
		FromName: "Sandy Lee",
		Subject:  "Café résumé",
		Text:     "plain body with a long line " + string(bytes.Repeat([]byte("x"), 120)),
		HTML:     "<p>html body</p>",
	}
	raw, err := msg.MIME("sandy@example.com", time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	p := parseMIME(t, raw)
	from, err := p.header.AddressList("From")
	require.NoError(t, err)
	assert.Equal(t, []*mail.Address{{Name: "Sandy Lee", Address: "sandy@example.com"}}, from)

	subject, err := new(mime.WordDecoder).DecodeHeader(p.header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Café résumé", subject)
	assert.Equal(t, "1.0", p.header.Get("MIME-Version"))

	assert.Equal(t, msg.Text, p.parts["text/plain"])
	assert.Equal(t, msg.HTML, p.parts["text/html"])
}

func TestMessageMIME_OmitsFromWithoutAddress(t *testing.T) {
	raw, err := Message{To: "jane@example.com", Subject: "s"}.MIME("", time.Now())
	require.NoError(t, err)
	assert.Empty(t, parseMIME(t, raw).header.Get("From"))
}

func TestMessageMIME_BadRecipient(t *testing.T) {
	_, err := Message{}.MIME("", time.Now())
	assert.Error(t, err)
	_, err = Message{To: "not an address"}.MIME("", time.Now())
	assert.ErrorContains(t, err, "invalid recipient")
}

func newGmail(t *testing.T, h http.HandlerFunc) *gmail.Service {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	svc, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return svc
}

func TestGmailSender_Send(t *testing.T) {
	var raw []byte
	svc := newGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		var m gmail.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		var err error
		raw, err = base64.URLEncoding.DecodeString(m.Raw)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-1"}`))
	})

	msg, err := ResourcesEmail(intakeConfig(), "Jane Doe", "jane@example.com")
	require.NoError(t, err)
	require.NoError(t, NewGmailSender(svc, "sandy@example.com").Send(context.Background(), msg))

	p := parseMIME(t, raw)
	assert.Equal(t, "<jane@example.com>", p.header.Get("To"))
	assert.Contains(t, p.parts["text/plain"], "Hey Jane,")
	assert.Contains(t, p.parts["text/html"], "Hey Jane,")
}

func TestGmailSender_SendError(t *testing.T) {
	svc := newGmail(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"Delegation denied"}}`))
	})

	err := NewGmailSender(svc, "").Send(context.Background(), Message{To: "jane@example.com"})
	assert.ErrorContains(t, err, "gmail send")
	assert.ErrorContains(t, err, "Delegation denied")
}

func TestGmailSender_FromAddressFromProfile(t *testing.T) {
	var profileCalls int
	var raws [][]byte
	svc := newGmail(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/gmail/v1/users/me/profile":
			profileCalls++
			w.Write([]byte(`{"emailAddress":"sandy@example.com"}`))
		case "/gmail/v1/users/me/messages/send":
			var m gmail.Message
			require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
			raw, err := base64.URLEncoding.DecodeString(m.Raw)
			require.NoError(t, err)
			raws = append(raws, raw)
			w.Write([]byte(`{"id":"msg-1"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	sender := NewGmailSender(svc, "")
	msg, err := ResourcesEmail(intakeConfig(), "Jane Doe", "jane@example.com")
	require.NoError(t, err)
	require.NoError(t, sender.Send(context.Background(), msg))
	require.NoError(t, sender.Send(context.Background(), msg))

	assert.Equal(t, 1, profileCalls, "profile address is looked up once")
	require.Len(t, raws, 2)
	from, err := parseMIME(t, raws[1]).header.AddressList("From")
	require.NoError(t, err)
	assert.Equal(t, []*mail.Address{{Name: "Sandy Lee", Address: "sandy@example.com"}}, from)
}

func TestGmailSender_ProfileError(t *testing.T) {
	svc := newGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/profile", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"Precondition check failed."}}`))
	})

	err := NewGmailSender(svc, "").Send(context.Background(), Message{To: "jane@example.com", FromName: "Sandy Lee"})
	assert.ErrorContains(t, err, "gmail profile")
}

func TestGmailSender_ConfiguredFromWithoutName(t *testing.T) {
	var raw []byte
	svc := newGmail(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		var m gmail.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		raw, _ = base64.URLEncoding.DecodeString(m.Raw)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-1"}`))
	})

	require.NoError(t, NewGmailSender(svc, "sandy@example.com").Send(context.Background(), Message{To: "jane@example.com"}))
	assert.Equal(t, "<sandy@example.com>", parseMIME(t, raw).header.Get("From"))
}
