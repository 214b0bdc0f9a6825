package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qobuz-relay/internal/api/qobuz"
	"qobuz-relay/internal/api/telegram"
	"qobuz-relay/internal/config"
	"qobuz-relay/internal/core/resolver"
	"qobuz-relay/internal/shared"
	"qobuz-relay/internal/storage"
)

type fakeAPI struct {
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) count(kind string) int {
	n := 0
	for _, c := range f.sent {
		switch c.(type) {
		case tgbotapi.MessageConfig:
			if kind == "text" {
				n++
			}
		case tgbotapi.EditMessageTextConfig:
			if kind == "edit" {
				n++
			}
		case tgbotapi.PhotoConfig:
			if kind == "photo" {
				n++
			}
		case tgbotapi.AudioConfig:
			if kind == "audio" {
				n++
			}
		}
	}
	return n
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}
func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) Success(string, ...interface{}) {}
func (nopLogger) SetDebugMode(bool)              {}

type memCounter struct{ n map[string]int64 }

func (m *memCounter) Incr(ctx context.Context, key string) (int64, error) {
	m.n[key]++
	return m.n[key], nil
}
func (m *memCounter) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }
func (m *memCounter) TTL(ctx context.Context, key string) (time.Duration, error) {
	return time.Minute, nil
}

func newFakeQobuz(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/album/get":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": "alb1", "title": "Discovery", "streamable": true, "tracks_count": 2,
				"release_date_original": "2001-03-07",
				"artist":                map[string]interface{}{"name": "Daft Punk"},
				"image":                 map[string]interface{}{"large": server.URL + "/cover.jpg", "thumbnail": server.URL + "/thumb.jpg"},
				"tracks": map[string]interface{}{"total": 2, "items": []interface{}{
					map[string]interface{}{"id": 1, "title": "One More Time", "track_number": 1, "duration": 320},
					map[string]interface{}{"id": 2, "title": "Aerodynamic", "track_number": 2, "duration": 212},
				}},
			})
		case r.URL.Path == "/track/get":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": 2, "title": "Aerodynamic", "track_number": 2,
				"performer": map[string]interface{}{"name": "Daft Punk"},
				"album": map[string]interface{}{
					"id": "alb1", "title": "Discovery",
					"artist": map[string]interface{}{"name": "Daft Punk"},
					"image":  map[string]interface{}{"large": server.URL + "/cover.jpg"},
				},
			})
		case r.URL.Path == "/track/getFileUrl":
			json.NewEncoder(w).Encode(map[string]interface{}{"url": server.URL + "/files/" + r.URL.Query().Get("track_id"), "format_id": 5})
		case strings.HasPrefix(r.URL.Path, "/files/"):
			w.Write([]byte("\xff\xfb\x90\x64fake mpeg frames"))
		case r.URL.Path == "/cover.jpg", r.URL.Path == "/thumb.jpg":
			w.Write([]byte("\xff\xd8\xff\xe0fake jpeg"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestBot(t *testing.T, api *fakeAPI, throttle *storage.Throttle, allowed []int64) *Bot {
	server := newFakeQobuz(t)
	cfg := config.DefaultConfig()
	cfg.Quality = qobuz.QualityMP3
	cfg.DownloadLocation = t.TempDir()
	cfg.AllowedChats = allowed

	catalog := qobuz.NewClient(server.URL, qobuz.Credentials{AppID: "app", AppSecret: "s", UserAuthToken: "t"}, server.Client())
	res := resolver.New(catalog, nil, resolver.Options{}, nil, nil)
	b := New(nil, telegram.NewRelayWithAPI(api), res, catalog, throttle, cfg, nopLogger{}, shared.NewWarningCollector(true))
	require.NoError(t, os.MkdirAll(b.workDir, 0755))
	return b
}

func message(chatID int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 100,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: 7, FirstName: "Ada"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		end := strings.IndexByte(text, ' ')
		if end < 0 {
			end = len(text)
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}}
	}
	return msg
}

func TestHandleMessageRelaysAlbum(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(t, api, nil, nil)

	b.HandleMessage(context.Background(), message(1, "/qobuz https://open.qobuz.com/album/alb1"))

	assert.Equal(t, 1, api.count("text"), "status message")
	assert.Equal(t, 1, api.count("photo"), "album cover")
	assert.Equal(t, 2, api.count("audio"))

	photo := api.sent[1].(tgbotapi.PhotoConfig)
	assert.Contains(t, photo.Caption, "Discovery")
	assert.Contains(t, photo.Caption, "tg://user?id=7")

	audio := api.sent[2].(tgbotapi.AudioConfig)
	assert.Equal(t, "One More Time", audio.Title)
	assert.Equal(t, 100, audio.ReplyToMessageID)

	last := api.sent[len(api.sent)-1].(tgbotapi.EditMessageTextConfig)
	assert.Contains(t, last.Text, "Uploaded 2 track(s)")

	entries, err := os.ReadDir(b.workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "relayed files are removed")
}

func TestHandleMessagePlainLinkAndHelp(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(t, api, nil, nil)

	b.HandleMessage(context.Background(), message(1, "check this https://open.qobuz.com/track/2 out"))
	assert.Equal(t, 1, api.count("audio"))

	api.sent = nil
	b.HandleMessage(context.Background(), message(1, "/help"))
	require.Len(t, api.sent, 1)
	assert.Contains(t, api.sent[0].(tgbotapi.MessageConfig).Text, "/qobuz")

	api.sent = nil
	b.HandleMessage(context.Background(), message(1, "just chatting"))
	assert.Empty(t, api.sent)
}

func TestHandleMessageResolveFailure(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(t, api, nil, nil)

	b.HandleMessage(context.Background(), message(1, "/qobuz https://open.qobuz.com/artist/404"))
	last := api.sent[len(api.sent)-1].(tgbotapi.EditMessageTextConfig)
	assert.Contains(t, last.Text, "❌")
}

func TestHandleMessageAllowedChats(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(t, api, nil, []int64{42})

	b.HandleMessage(context.Background(), message(1, "/help"))
	assert.Empty(t, api.sent)

	b.HandleMessage(context.Background(), message(42, "/help"))
	assert.Len(t, api.sent, 1)
}

func TestHandleMessageThrottle(t *testing.T) {
	api := &fakeAPI{}
	throttle := storage.NewThrottle(&memCounter{n: map[string]int64{}}, 1, time.Minute)
	b := newTestBot(t, api, throttle, nil)

	b.HandleMessage(context.Background(), message(1, "/qobuz https://open.qobuz.com/track/1"))
	api.sent = nil
	b.HandleMessage(context.Background(), message(1, "/qobuz https://open.qobuz.com/track/1"))
	require.Len(t, api.sent, 1)
	assert.Contains(t, api.sent[0].(tgbotapi.MessageConfig).Text, "Too many requests")
}

func TestExtractLink(t *testing.T) {
	assert.Equal(t, "https://open.spotify.com/track/abc", extractLink("hey https://open.spotify.com/track/abc"))
	assert.Equal(t, "", extractLink("https://example.com/album/1"))
}
