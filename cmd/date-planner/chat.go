package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/date-planner/internal/common"
	"github.com/i474232898/date-planner/internal/conversation"
	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/store"
	"github.com/i474232898/date-planner/internal/transcribe"
	"github.com/i474232898/date-planner/internal/weather"
	"github.com/i474232898/date-planner/pkg/local"
	"github.com/i474232898/date-planner/pkg/logger"
)

func chatCmd() *cobra.Command {
	var (
		lang     string
		lat, lon float64
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation in the terminal",
		Long: `Runs turns in-process against the configured model, weather and
geocoding providers. Type /voice <file> to send a recording, /reset to start
over and /quit to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var device *location.ReportedPosition
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
					return fmt.Errorf("--lat and --lon must be given together")
				}
				device = &location.ReportedPosition{
					Position:   &location.Position{Latitude: lat, Longitude: lon},
					ReportedAt: time.Now().UTC(),
				}
			}
			if lang == "" {
				lang = cfg.DefaultLanguage
			}
			return runChat(cmd.Context(), local.ParseLanguage(lang), device, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "conversation language: en or jp")
	cmd.Flags().Float64Var(&lat, "lat", 0, "device latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "device longitude")
	return cmd
}

func runChat(parent context.Context, lang local.Language, device *location.ReportedPosition, in io.Reader, out io.Writer) error {
	// Keep log lines out of the conversation.
	logger.SetOutput(os.Stderr)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := newHTTPClient(cfg.Model.Timeout)
	// The CLI runs on the user's machine, so its own address is theirs.
	resolver := newResolver(cfg, httpClient).WithSelfLookup()
	sessions := conversation.NewService(store.NewMemoryStore(1, 0), newOrchestrator(cfg, httpClient, resolver))
	transcriber := newTranscriber(cfg, httpClient)

	sess, err := sessions.Create(ctx, lang, device, "")
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "date-planner %s (%s). /voice <file>, /reset, /quit\n", version, lang)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/reset":
			if err := sessions.Delete(ctx, sess.ID); err != nil {
				return err
			}
			if sess, err = sessions.Create(ctx, lang, device, ""); err != nil {
				return err
			}
			fmt.Fprintln(out, "(new conversation)")
			continue
		case strings.HasPrefix(line, "/voice "):
			text, err := transcribeFile(ctx, transcriber, strings.TrimSpace(strings.TrimPrefix(line, "/voice ")), lang)
			if err != nil {
				fmt.Fprintf(out, "! transcription failed: %v\n", err)
				continue
			}
			if text == "" {
				fmt.Fprintln(out, "! no speech recognized")
				continue
			}
			fmt.Fprintf(out, "(you said) %s\n", text)
			line = text
		}

		reply, err := sessions.SubmitTurn(ctx, sess.ID, line)
		if reply.Content != "" {
			fmt.Fprintln(out, reply.Content)
		}
		if reply.WeatherCard != nil {
			fmt.Fprintln(out, formatCard(*reply.WeatherCard))
		}
		if err != nil {
			fmt.Fprintf(out, "! %v\n", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func transcribeFile(ctx context.Context, t transcribe.Transcriber, path string, lang local.Language) (string, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	code := "en-US"
	if lang == local.Jpn {
		code = "ja-JP"
	}
	return t.Transcribe(ctx, transcribe.Request{
		AudioBase64:  base64.StdEncoding.EncodeToString(audio),
		MimeType:     "audio/" + strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		LanguageCode: code,
	})
}

func formatCard(c weather.Card) string {
	day := "today"
	if c.DayIndex > 0 {
		day = fmt.Sprintf("+%d day(s)", c.DayIndex)
	}
	parts := []string{
		fmt.Sprintf("%s°C (feels %s°C)", common.FormatNumber(c.Temperature), common.FormatNumber(c.FeelsLike)),
		c.Condition,
		fmt.Sprintf("humidity %s%%", common.FormatNumber(c.Humidity)),
		fmt.Sprintf("wind %s km/h", common.FormatNumber(c.WindKph)),
	}
	if c.DayIndex > 0 {
		parts = append(parts, fmt.Sprintf("precipitation %s%%", common.FormatNumber(c.Precipitation)))
	}
	return fmt.Sprintf("[%s · %s %s] %s", c.Location, day, c.Date, strings.Join(parts, ", "))
}
