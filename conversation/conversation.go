// Package conversation runs a translated conversation: recordings are
// uploaded, the recognized and translated messages are collected, and the
// synthesized reply is played back.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/habedi/voxbridge/api"
	"github.com/habedi/voxbridge/db"
	"github.com/habedi/voxbridge/pkg/validation"
	"github.com/habedi/voxbridge/playback"
	"github.com/rs/zerolog/log"
)

// DefaultLanguage is the foreign language selected for a new conversation.
const DefaultLanguage = "en-US"

var (
	ErrInProgress     = errors.New("a recording is already being processed")
	ErrNoAudio        = errors.New("message has no synthesized audio")
	ErrUnknownMessage = errors.New("message not found")
	ErrUnknownHistory = errors.New("conversation not found in history")
)

// Language is a selectable foreign language.
type Language struct {
	Code string
	Name string
}

// Languages lists the supported foreign languages in display order.
func Languages() []Language {
	order := []string{"en-US", "vi-VN", "th-TH", "km-KH"}
	out := make([]Language, 0, len(order))
	for _, code := range order {
		out = append(out, Language{Code: code, Name: validation.Languages[code]})
	}
	return out
}

// NextLanguage returns the language after code in display order, wrapping around.
func NextLanguage(code string) string {
	langs := Languages()
	for i, l := range langs {
		if l.Code == code {
			return langs[(i+1)%len(langs)].Code
		}
	}
	return langs[0].Code
}

// Message is one exchange in the conversation.
type Message struct {
	ID                 string
	Timestamp          string
	OriginalText       string
	OriginalLanguage   string
	TranslatedText     string
	TranslatedLanguage string
	Confidence         float64
	AudioData          string
}

// Uploader sends a recording to the speech backend. *api.SpeechService satisfies it.
type Uploader interface {
	Conversation(ctx context.Context, audioPath string, req api.ConversationRequest) (api.ConversationResponse, error)
}

// Player plays base64 encoded audio. *playback.Player satisfies it.
type Player interface {
	PlayBase64(encoded string) *playback.Playback
}

// Conversation holds the state of one translated conversation.
type Conversation struct {
	speech  Uploader
	player  Player
	history db.ConversationRepository

	mu       sync.Mutex
	id       string
	messages []Message
	language string
	loading  bool
	err      error
	playing  *playback.Playback
}

// New creates an empty conversation. player and history may be nil.
func New(speech Uploader, player Player, history db.ConversationRepository) *Conversation {
	return &Conversation{speech: speech, player: player, history: history, language: DefaultLanguage}
}

func (c *Conversation) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Messages returns a copy of the messages in arrival order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func (c *Conversation) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error of the last Process call.
func (c *Conversation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ChangeLanguage selects the foreign language for the next upload.
func (c *Conversation) ChangeLanguage(code string) error {
	if err := validation.ValidateLanguageCode(code, validation.Languages); err != nil {
		return err
	}
	c.mu.Lock()
	c.language = code
	c.mu.Unlock()
	return nil
}

// Clear forgets the messages and the server conversation ID.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.id = ""
	c.err = nil
}

// Process uploads the recording at audioURI, appends the returned message
// and starts playing the synthesized reply.
func (c *Conversation) Process(ctx context.Context, audioURI string) (Message, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return Message{}, ErrInProgress
	}
	c.loading = true
	c.err = nil
	req := api.ConversationRequest{SelectedForeignLanguage: c.language, ConversationID: c.id}
	c.mu.Unlock()

	resp, err := c.speech.Conversation(ctx, strings.TrimPrefix(audioURI, "file://"), req)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.err = err
		c.mu.Unlock()
		return Message{}, fmt.Errorf("speech conversation failed: %w", err)
	}

	m := resp.Message
	msg := Message{
		ID:                 m.ID,
		Timestamp:          m.Timestamp,
		OriginalText:       m.OriginalText,
		OriginalLanguage:   m.OriginalLanguage,
		TranslatedText:     m.TranslatedText,
		TranslatedLanguage: m.TranslatedLanguage,
		Confidence:         1.0,
		AudioData:          m.AudioData,
	}
	if msg.TranslatedLanguage == "" {
		msg.TranslatedLanguage = req.SelectedForeignLanguage
	}
	if c.id == "" {
		c.id = resp.ConversationID
	}
	c.messages = append(c.messages, msg)
	convID, language := c.id, c.language
	c.mu.Unlock()

	log.Info().Str("conversation", convID).Str("message", msg.ID).Msg("Message translated")
	c.persist(ctx, convID, language, msg)
	if msg.AudioData != "" {
		c.play(msg.AudioData)
	}
	return msg, nil
}

func (c *Conversation) persist(ctx context.Context, convID, language string, msg Message) {
	if c.history == nil || convID == "" {
		return
	}
	err := c.history.AppendMessage(ctx, convID, language, db.Message{
		ID:                 msg.ID,
		Timestamp:          msg.Timestamp,
		OriginalText:       msg.OriginalText,
		OriginalLanguage:   msg.OriginalLanguage,
		TranslatedText:     msg.TranslatedText,
		TranslatedLanguage: msg.TranslatedLanguage,
		CreatedAt:          time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("conversation", convID).Msg("Failed to save message to history")
	}
}

func (c *Conversation) play(audioData string) *playback.Playback {
	if c.player == nil {
		return nil
	}
	p := c.player.PlayBase64(audioData)
	c.mu.Lock()
	c.playing = p
	c.mu.Unlock()
	return p
}

// PlayMessage replays the synthesized audio of the message with id.
func (c *Conversation) PlayMessage(id string) (*playback.Playback, error) {
	c.mu.Lock()
	var audio string
	found := false
	for _, m := range c.messages {
		if m.ID == id {
			audio, found = m.AudioData, true
			break
		}
	}
	c.mu.Unlock()

	if !found {
		return nil, ErrUnknownMessage
	}
	if audio == "" {
		return nil, ErrNoAudio
	}
	p := c.play(audio)
	if p == nil {
		return nil, errors.New("no audio player configured")
	}
	return p, nil
}

// WaitPlayback blocks until the reply currently playing has finished.
func (c *Conversation) WaitPlayback(ctx context.Context) error {
	c.mu.Lock()
	p := c.playing
	c.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Wait(ctx)
}

// Resume continues a conversation saved in the history.
func (c *Conversation) Resume(ctx context.Context, id string) error {
	if c.history == nil {
		return errors.New("conversation history is not available")
	}
	conv, err := c.history.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv == nil {
		return fmt.Errorf("conversation %s: %w", id, ErrUnknownHistory)
	}

	msgs := make([]Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		msgs = append(msgs, Message{
			ID:                 m.ID,
			Timestamp:          m.Timestamp,
			OriginalText:       m.OriginalText,
			OriginalLanguage:   m.OriginalLanguage,
			TranslatedText:     m.TranslatedText,
			TranslatedLanguage: m.TranslatedLanguage,
			Confidence:         1.0,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = conv.ID
	c.messages = msgs
	c.err = nil
	if conv.Language != "" {
		c.language = conv.Language
	}
	return nil
}
