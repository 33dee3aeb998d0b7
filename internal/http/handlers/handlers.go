package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/yt-vantage/internal/domain"
	"github.com/tbourn/yt-vantage/internal/services"
)

//
// Service contracts (context-aware)
//

// Resolver maps a typed channel name to a channel identity.
type Resolver interface {
	Resolve(ctx context.Context, name string) (services.Resolution, bool, error)
}

// Fetcher returns the ranked videos of one channel.
type Fetcher interface {
	FetchForChannel(ctx context.Context, channelID, title string, mode domain.Mode) (services.Report, error)
}

// Comparer builds multi-channel reports.
type Comparer interface {
	Compare(ctx context.Context, names []string, mode domain.Mode) (*services.Batch, error)
	SwitchMode(ctx context.Context, chatID, messageID int64, mode domain.Mode) (*services.Batch, error)
}

// MessageStates stores which channels a posted message showed.
type MessageStates interface {
	RecordShownChannels(ctx context.Context, chatID, messageID int64, entries []domain.ShownChannel) (bool, error)
	GetShownChannels(ctx context.Context, chatID, messageID int64) ([]domain.ShownChannel, bool, error)
}

// Favorites manages per-user saved channels.
type Favorites interface {
	Add(ctx context.Context, userID int64, channelID, title string) error
	Remove(ctx context.Context, userID int64, channelID string) (bool, error)
	List(ctx context.Context, userID int64) ([]domain.Favorite, error)
	IsFavorite(ctx context.Context, userID int64, channelID string) (bool, error)
}

// Deps lists the services the handlers call.
type Deps struct {
	Resolver  Resolver
	Fetcher   Fetcher
	Comparer  Comparer
	States    MessageStates
	Favorites Favorites
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	resolver  Resolver
	fetcher   Fetcher
	comparer  Comparer
	states    MessageStates
	favorites Favorites
}

// New constructs a Handlers bound to the given services.
func New(d Deps) *Handlers {
	return &Handlers{
		resolver:  d.Resolver,
		fetcher:   d.Fetcher,
		comparer:  d.Comparer,
		states:    d.States,
		favorites: d.Favorites,
	}
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"status": "ok"})
}

// int64Param parses a numeric route param, failing the request with 400 when
// it is not an integer. Chat IDs are negative for groups.
func int64Param(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseMode(c *gin.Context, raw string) (domain.Mode, bool) {
	m, err := domain.ParseMode(raw)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return "", false
	}
	return m, true
}
