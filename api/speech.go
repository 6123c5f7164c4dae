package api

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/habedi/voxbridge/client"
	"github.com/rs/zerolog/log"
)

// SpeechService uploads recordings for recognition and translation.
type SpeechService struct{ c *client.Client }

// Conversation uploads the WAV file at audioPath and returns the recognized
// and translated message.
func (s *SpeechService) Conversation(ctx context.Context, audioPath string, req ConversationRequest) (ConversationResponse, error) {
	if req.SelectedForeignLanguage == "" {
		return ConversationResponse{}, fmt.Errorf("foreign language is required")
	}
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return ConversationResponse{}, fmt.Errorf("failed to read recording: %w", err)
	}
	if len(data) == 0 {
		return ConversationResponse{}, fmt.Errorf("recording %s is empty", audioPath)
	}

	form := &client.Form{}
	form.AddFile("audio", "recording.wav", "audio/wav", data)
	form.AddField("selectedForeignLanguage", req.SelectedForeignLanguage)
	if req.ConversationID != "" {
		form.AddField("conversationId", req.ConversationID)
	}

	log.Info().Str("language", req.SelectedForeignLanguage).Int("bytes", len(data)).Msg("Uploading recording")
	return client.Upload[ConversationResponse](ctx, s.c, http.MethodPost, ConversationPath, form)
}
