// Package search resolves free-text queries and raw URLs into playable
// tracks with display metadata.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	youtube "github.com/kkdai/youtube/v2"
	zlog "github.com/rs/zerolog/log"

	"nbot/pkg/retrylimit"
)

var (
	ErrNoResults            = errors.New("no results for that search")
	ErrPlaylistNotSupported = errors.New("playlist results are not supported")
)

var (
	videoPattern    = regexp.MustCompile(`"url":"/watch\?v=([a-zA-Z0-9_-]{11})`)
	playlistPattern = regexp.MustCompile(`"url":"/playlist\?list=([a-zA-Z0-9_-]+)`)
)

// TrackInfo is a resolved playable reference.
type TrackInfo struct {
	Link    string
	Title   string
	Channel string
}

// Resolver finds tracks on YouTube: results-page scrape for the first hit,
// then the youtube client for title/author metadata.
type Resolver struct {
	baseURL string
	client  *http.Client
	yt      *youtube.Client
	limiter *retrylimit.AdaptiveLimiter
}

// New creates a Resolver. proxyURL may be empty, or an http, socks5 or
// socks4 proxy for all YouTube traffic.
func New(proxyURL string) *Resolver {
	hc := newHTTPClient(proxyURL, 10*time.Second)
	return &Resolver{
		baseURL: "https://www.youtube.com",
		client:  hc,
		yt:      &youtube.Client{HTTPClient: hc},
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
	}
}

// Search resolves a free-text query to the first matching video. It fails
// with ErrNoResults when nothing matches and ErrPlaylistNotSupported when
// the first hit is a playlist.
func (r *Resolver) Search(ctx context.Context, query string) (TrackInfo, error) {
	var info TrackInfo
	err := retrylimit.WithRetry(ctx, func() error {
		t, err := r.searchOnce(query)
		if errors.Is(err, ErrNoResults) || errors.Is(err, ErrPlaylistNotSupported) {
			return retrylimit.Fatal(err)
		}
		if err != nil {
			return err
		}
		info = t
		return nil
	}, r.limiter)
	return info, err
}

// Lookup builds a track for a raw URL without searching. Metadata is
// best-effort: YouTube links are queried for title/author, anything else
// gets placeholders.
func (r *Resolver) Lookup(link string) TrackInfo {
	if IsYouTubeURL(link) {
		link = cleanVideoURL(link)
	}
	info := TrackInfo{Link: link, Title: link, Channel: "unknown"}

	if videoID, err := ExtractYouTubeID(link); err == nil {
		if video, err := r.yt.GetVideo(videoID); err == nil {
			info.Title = video.Title
			info.Channel = video.Author
		} else {
			zlog.Debug().Err(err).Str("link", link).Msg("video metadata lookup failed")
		}
	}
	return info
}

func (r *Resolver) searchOnce(query string) (TrackInfo, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s", r.baseURL, url.QueryEscape(query))

	resp, err := r.client.Get(searchURL)
	if err != nil {
		return TrackInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TrackInfo{}, fmt.Errorf("search failed with status code %v", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TrackInfo{}, err
	}

	videoLoc := videoPattern.FindSubmatchIndex(body)
	playlistLoc := playlistPattern.FindSubmatchIndex(body)

	if videoLoc == nil {
		if playlistLoc != nil {
			return TrackInfo{}, ErrPlaylistNotSupported
		}
		return TrackInfo{}, ErrNoResults
	}
	// A playlist listed before the first video is the first hit.
	if playlistLoc != nil && playlistLoc[0] < videoLoc[0] {
		return TrackInfo{}, ErrPlaylistNotSupported
	}

	videoID := string(body[videoLoc[2]:videoLoc[3]])
	info := TrackInfo{
		Link:    fmt.Sprintf("%s/watch?v=%s", r.baseURL, videoID),
		Title:   query,
		Channel: "unknown",
	}

	video, err := r.yt.GetVideo(videoID)
	if err != nil {
		zlog.Debug().Err(err).Str("videoID", videoID).Msg("video metadata lookup failed")
		return info, nil
	}
	info.Title = video.Title
	info.Channel = video.Author
	return info, nil
}
