package services

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/tbourn/yt-vantage/internal/domain"
)

// FormatCount renders a view count with a K or M suffix (1.2K, 3.4M).
func FormatCount(n uint64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return strconv.FormatUint(n, 10)
}

// channelHeader is the bold, linked channel title that opens every report.
func channelHeader(title, channelID string) string {
	return fmt.Sprintf(`<b><a href="%s">%s</a></b>`,
		html.EscapeString(domain.ChannelURL(channelID)), html.EscapeString(title))
}

// RenderReport formats a ranked video list as Telegram HTML.
func RenderReport(title, channelID string, mode domain.Mode, videos []domain.Video) string {
	var b strings.Builder
	b.WriteString(channelHeader(title, channelID))
	if len(videos) == 0 {
		fmt.Fprintf(&b, "\nNo %s found or accessible.", mode.Label())
		return b.String()
	}
	for i, v := range videos {
		fmt.Fprintf(&b, "\n%d. <a href=\"%s\">%s</a> (%s)",
			i+1, html.EscapeString(v.URL), html.EscapeString(v.Title), FormatCount(v.ViewCount))
	}
	return b.String()
}

// FailureText is the per-channel line shown when a fetch failed.
func FailureText(title, channelID string, mode domain.Mode) string {
	return channelHeader(title, channelID) +
		fmt.Sprintf("\n⚠️ Could not load %s right now. Please try again later.", mode.Label())
}
