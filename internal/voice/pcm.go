package voice

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"time"

	youtube "github.com/kkdai/youtube/v2"

	"nbot/internal/search"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// openPCM turns a playable link into a raw s16le PCM stream. YouTube links
// are resolved to a direct audio URL first; anything else is handed to
// ffmpeg as-is.
func openPCM(link string, seekSec float64) (io.ReadCloser, func(), error) {
	streamURL := link
	if search.IsYouTubeURL(link) {
		u, err := resolveYouTubeStreamURL(link)
		if err != nil {
			return nil, nil, err
		}
		streamURL = u
	}
	return ffmpegPCM(streamURL, seekSec)
}

func resolveYouTubeStreamURL(link string) (string, error) {
	videoID, err := search.ExtractYouTubeID(link)
	if err != nil {
		return "", err
	}

	client := &youtube.Client{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}

	video, err := client.GetVideo(videoID)
	if err != nil {
		return "", fmt.Errorf("youtube client error: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", errors.New("no audio formats found for video")
	}

	streamURL, err := client.GetStreamURL(video, &formats[0])
	if err != nil {
		return "", fmt.Errorf("get stream URL error: %w", err)
	}
	return streamURL, nil
}

func ffmpegPCM(url string, seekSec float64) (io.ReadCloser, func(), error) {
	cmd := exec.Command("ffmpeg",
		"-ss", fmt.Sprintf("%.3f", seekSec),
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", url,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	reader, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("command start error: %w", err)
	}

	cleanup := func() {
		cmd.Process.Kill()
	}

	return reader, cleanup, nil
}
