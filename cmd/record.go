package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/habedi/voxbridge/conversation"
	"github.com/habedi/voxbridge/playback"
	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/habedi/voxbridge/pkg/validation"
	"github.com/habedi/voxbridge/recording"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// newPlayer creates the speaker used for replies. Tests replace it.
var newPlayer = func() conversation.Player { return playback.NewPlayer(nil) }

type recordOptions struct {
	language       string
	languageSet    bool
	maxSeconds     int
	duration       int
	input          string
	conversationID string
	noPlay         bool
}

// recordCmd records one utterance, sends it for translation and plays the reply.
func recordCmd(c *cli) *cobra.Command {
	var opts recordOptions

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record speech and get it translated",
		Long: "Record speech from the microphone until Enter is pressed or the time limit is reached, " +
			"then upload it for translation and play the synthesized reply.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			opts.languageSet = cmd.Flags().Changed("language")
			if opts.language == "" {
				opts.language = a.cfg.Language
			}
			if opts.maxSeconds == 0 {
				opts.maxSeconds = a.cfg.MaxSeconds
			}
			if err := validation.ValidateLanguageCode(opts.language, validation.Languages); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if err := validation.ValidateMaxSeconds(opts.maxSeconds); err != nil {
				return clierr.New(clierr.Validation, err.Error(), err)
			}
			if opts.duration < 0 {
				return clierr.New(clierr.Validation, "duration cannot be negative", nil)
			}
			return runRecord(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Language to translate into (see 'voxbridge languages')")
	cmd.Flags().IntVarP(&opts.maxSeconds, "max-seconds", "m", 0, "Stop recording automatically after this many seconds")
	cmd.Flags().IntVarP(&opts.duration, "duration", "d", 0, "Record for this many seconds instead of waiting for Enter")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Read raw 16-bit little-endian mono PCM from a file instead of the microphone")
	cmd.Flags().StringVarP(&opts.conversationID, "conversation", "c", "", "Continue a saved conversation")
	cmd.Flags().BoolVar(&opts.noPlay, "no-play", false, "Do not play the translated reply")
	return cmd
}

func runRecord(cmd *cobra.Command, a *app, opts recordOptions) error {
	ctx := cmd.Context()
	p := newPrompter(cmd)

	src := recording.NewDefaultSource()
	if opts.input != "" {
		f, err := os.Open(opts.input)
		if err != nil {
			return clierr.New(clierr.Validation, fmt.Sprintf("Cannot open input %s.", opts.input), err)
		}
		src = &recording.ReaderSource{R: f}
	}
	if err := os.MkdirAll(a.cfg.RecordingsDir, 0o750); err != nil {
		return clierr.New(clierr.Internal, "Failed to create the recordings directory.", err)
	}

	device := &recording.HostDevice{Store: a.kv, Prompt: p.microphonePrompt}
	session := recording.NewSession(ctx, device, recording.NewWAVRecorder(src, a.cfg.RecordingsDir),
		recording.WithMaxSeconds(opts.maxSeconds))
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close the recording session")
		}
	}()

	var player conversation.Player
	if !opts.noPlay {
		player = newPlayer()
	}
	conv := conversation.New(a.api.Speech, player, a.history)
	if opts.conversationID != "" {
		if err := conv.Resume(ctx, opts.conversationID); err != nil {
			if errors.Is(err, conversation.ErrUnknownHistory) {
				return clierr.New(clierr.NotFound, err.Error(), err)
			}
			return err
		}
	}
	// A resumed conversation keeps its language unless one is given.
	if opts.conversationID == "" || opts.languageSet {
		if err := conv.ChangeLanguage(opts.language); err != nil {
			return clierr.New(clierr.Validation, err.Error(), err)
		}
	}

	workflow := recording.NewWorkflow(session, func(ctx context.Context, uri string) error {
		log.Info().Str("uri", uri).Msg("Uploading recording")
		_, err := conv.Process(ctx, uri)
		return err
	})

	bar := progressbar.NewOptions(opts.maxSeconds,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Recording 00:00"),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	session.OnTick(func(st recording.State) {
		bar.Describe(fmt.Sprintf("Recording %s (%s left)", st.FormattedDuration(), st.FormattedRemaining()))
		_ = bar.Set(st.Elapsed)
	})

	if _, err := workflow.Toggle(ctx); err != nil {
		if errors.Is(err, recording.ErrPermissionDenied) {
			return clierr.New(clierr.Validation, "Microphone access was denied.", err)
		}
		return clierr.New(clierr.Internal, err.Error(), err)
	}
	if opts.duration > 0 {
		cmd.Printf("Recording for %d seconds...\n", opts.duration)
	} else {
		cmd.Printf("Recording... press Enter to stop (limit %s).\n", recording.FormatDuration(opts.maxSeconds))
	}

	waitForStop(ctx, p, opts.duration, workflow)
	phase, err := workflow.Stop(ctx)
	_ = bar.Finish()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	if phase != recording.PhaseCompleted {
		return clierr.New(clierr.Internal, "Recording did not complete.", workflow.Err())
	}

	msgs := conv.Messages()
	if len(msgs) == 0 {
		return clierr.New(clierr.Internal, "The backend returned no message.", nil)
	}
	printMessage(cmd, msgs[len(msgs)-1])
	cmd.Println("Conversation:", conv.ID())

	if player != nil {
		if err := conv.WaitPlayback(ctx); err != nil && !errors.Is(err, playback.ErrEmptyAudio) {
			log.Warn().Err(err).Msg("Failed to play the translation")
			cmd.PrintErrln("Warning: could not play the translation:", err)
		}
	}
	return nil
}

// waitForStop blocks until the user asks to stop, the duration elapses or the
// take ends on its own.
func waitForStop(ctx context.Context, p *prompter, duration int, workflow *recording.Workflow) {
	stop := make(chan struct{})
	go func() {
		defer close(stop)
		if duration > 0 {
			select {
			case <-time.After(time.Duration(duration) * time.Second):
			case <-ctx.Done():
			}
			return
		}
		// EOF on stdin stops as well. When the take ends some other way this
		// read stays blocked until the process exits.
		_, _ = p.reader.ReadString('\n')
	}()

	settled := make(chan struct{})
	go func() {
		_, _ = workflow.Wait(ctx)
		close(settled)
	}()

	select {
	case <-stop:
	case <-settled:
	case <-ctx.Done():
	}
}

func printMessage(cmd *cobra.Command, m conversation.Message) {
	cmd.Printf("[%s] %s\n", m.OriginalLanguage, m.OriginalText)
	cmd.Printf("[%s] %s\n", m.TranslatedLanguage, m.TranslatedText)
}
