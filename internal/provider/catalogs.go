package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/xploitforceofficial-stack/xfor-discord/internal/models"
)

// Catalog searches one script provider.
type Catalog interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]models.ScriptRecord, error)
}

const (
	unknownTitle   = "NO TITLE"
	unknownGame    = "UNKNOWN GAME"
	unknownCreator = "UNKNOWN"
)

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// RScripts is the rscripts v2 catalog.
type RScripts struct {
	client    *Client
	base      string
	thumbnail string
	timeout   time.Duration
}

// NewRScripts creates the rscripts catalog.
func NewRScripts(client *Client, base, thumbnail string, timeout time.Duration) *RScripts {
	return &RScripts{client: client, base: strings.TrimRight(base, "/"), thumbnail: thumbnail, timeout: timeout}
}

type rscriptsResponse struct {
	Scripts []rscriptsScript `json:"scripts"`
}

type rscriptsScript struct {
	Game *struct {
		Title   string     `json:"title"`
		PlaceID flexString `json:"placeId"`
	} `json:"game"`
	User *struct {
		Username string `json:"username"`
		Verified bool   `json:"verified"`
	} `json:"user"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Image           string          `json:"image"`
	RawScript       string          `json:"rawScript"`
	Script          string          `json:"script"`
	LastUpdated     string          `json:"lastUpdated"`
	TestedExecutors json.RawMessage `json:"testedExecutors"`
	Views           flexInt         `json:"views"`
	Likes           flexInt         `json:"likes"`
	Dislikes        flexInt         `json:"dislikes"`
	KeySystem       bool            `json:"keySystem"`
	MobileReady     bool            `json:"mobileReady"`
}

// Name implements Catalog.
func (r *RScripts) Name() string { return "rscripts" }

// Search implements Catalog.
func (r *RScripts) Search(ctx context.Context, query string, limit int) ([]models.ScriptRecord, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("page", "1")
	q.Set("limit", fmt.Sprint(limit))

	return r.list(ctx, q)
}

// Latest returns the newest scripts ordered by publication date.
func (r *RScripts) Latest(ctx context.Context, limit int) ([]models.ScriptRecord, error) {
	q := url.Values{}
	q.Set("page", "1")
	q.Set("orderBy", "date")
	q.Set("sort", "desc")
	q.Set("limit", fmt.Sprint(limit))

	return r.list(ctx, q)
}

func (r *RScripts) list(ctx context.Context, q url.Values) ([]models.ScriptRecord, error) {
	raw, err := r.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]models.ScriptRecord, 0, len(raw))
	for _, s := range raw {
		out = append(out, r.normalize(s))
	}

	return out, nil
}

func (r *RScripts) fetch(ctx context.Context, q url.Values) ([]rscriptsScript, error) {
	var resp rscriptsResponse
	if err := r.client.GetJSON(ctx, r.Name(), r.base+"/api/v2/scripts?"+q.Encode(), r.timeout, &resp); err != nil {
		return nil, err
	}
	return resp.Scripts, nil
}

func (r *RScripts) normalize(s rscriptsScript) models.ScriptRecord {
	rec := models.ScriptRecord{
		Title:       CleanTitle(orDefault(s.Title, unknownTitle)),
		GameName:    unknownGame,
		Description: CleanText(s.Description),
		Thumbnail:   ResolveURL(r.base, s.Image, r.thumbnail),
		Payload:     orDefault(payloadFrom(r.base, "", s.RawScript), s.Script),
		Creator:     unknownCreator,
		Source:      r.Name(),
		Executors:   executorNames(s.TestedExecutors),
		Views:       int64(s.Views),
		Likes:       int64(s.Likes),
		Dislikes:    int64(s.Dislikes),
		KeyRequired: s.KeySystem,
		MobileReady: s.MobileReady,
		LastUpdated: parseTime(s.LastUpdated),
	}
	if s.Game != nil {
		rec.GameName = CleanText(orDefault(s.Game.Title, unknownGame))
		rec.PlaceID = string(s.Game.PlaceID)
	}
	if s.User != nil {
		rec.Creator = orDefault(s.User.Username, unknownCreator)
		rec.Verified = s.User.Verified
	}
	if rec.Payload == "" {
		rec.Payload = Loadstring(r.base)
	}

	return rec
}

// ScriptBlox is the ScriptBlox search catalog.
type ScriptBlox struct {
	client    *Client
	base      string
	thumbnail string
	timeout   time.Duration
}

// NewScriptBlox creates the ScriptBlox catalog.
func NewScriptBlox(client *Client, base, thumbnail string, timeout time.Duration) *ScriptBlox {
	return &ScriptBlox{client: client, base: strings.TrimRight(base, "/"), thumbnail: thumbnail, timeout: timeout}
}

type scriptbloxResponse struct {
	Result struct {
		Scripts []scriptbloxScript `json:"scripts"`
	} `json:"result"`
}

type scriptbloxScript struct {
	Game *struct {
		Name string `json:"name"`
	} `json:"game"`
	Owner *struct {
		Username string `json:"username"`
	} `json:"owner"`
	Title         string  `json:"title"`
	Image         string  `json:"image"`
	Script        string  `json:"script"`
	ScriptContent string  `json:"scriptContent"`
	CreatedAt     string  `json:"createdAt"`
	Views         flexInt `json:"views"`
	Key           bool    `json:"key"`
	IsUniversal   bool    `json:"isUniversal"`
	Verified      bool    `json:"verified"`
}

// Name implements Catalog.
func (s *ScriptBlox) Name() string { return "scriptblox" }

// Search implements Catalog.
func (s *ScriptBlox) Search(ctx context.Context, query string, limit int) ([]models.ScriptRecord, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("max", fmt.Sprint(limit))

	var resp scriptbloxResponse
	if err := s.client.GetJSON(ctx, s.Name(), s.base+"/api/script/search?"+q.Encode(), s.timeout, &resp); err != nil {
		return nil, err
	}

	out := make([]models.ScriptRecord, 0, len(resp.Result.Scripts))
	for _, raw := range resp.Result.Scripts {
		out = append(out, s.normalize(raw))
	}

	return out, nil
}

func (s *ScriptBlox) normalize(raw scriptbloxScript) models.ScriptRecord {
	rec := models.ScriptRecord{
		Title:       CleanTitle(orDefault(raw.Title, unknownTitle)),
		GameName:    unknownGame,
		Thumbnail:   ResolveURL(s.base, raw.Image, s.thumbnail),
		Payload:     orDefault(raw.Script, raw.ScriptContent),
		Creator:     unknownCreator,
		Source:      s.Name(),
		Views:       int64(raw.Views),
		KeyRequired: raw.Key,
		MobileReady: raw.IsUniversal,
		Verified:    raw.Verified,
		LastUpdated: parseTime(raw.CreatedAt),
	}
	if raw.Game != nil {
		rec.GameName = CleanText(orDefault(raw.Game.Name, unknownGame))
	}
	if raw.Owner != nil {
		rec.Creator = orDefault(raw.Owner.Username, unknownCreator)
	}
	if rec.Payload == "" {
		rec.Payload = Loadstring(s.base)
	}

	return rec
}

type executorResponse struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Platform string `json:"platform"`
	Website  string `json:"website"`
	Patched  bool   `json:"patched"`
}

// Executors returns the executor list published by ScriptBlox.
func (s *ScriptBlox) Executors(ctx context.Context) ([]models.Executor, error) {
	var resp []executorResponse
	if err := s.client.GetJSON(ctx, s.Name(), s.base+"/api/executor/list", s.timeout, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Executor, 0, len(resp))
	for _, e := range resp {
		out = append(out, models.Executor(e))
	}

	return out, nil
}

// WeAreDevs is the WeAreDevs script search, offered to premium users only.
type WeAreDevs struct {
	client    *Client
	base      string
	thumbnail string
	timeout   time.Duration
}

// NewWeAreDevs creates the WeAreDevs catalog.
func NewWeAreDevs(client *Client, base, thumbnail string, timeout time.Duration) *WeAreDevs {
	return &WeAreDevs{client: client, base: strings.TrimRight(base, "/"), thumbnail: thumbnail, timeout: timeout}
}

type wearedevsScript struct {
	Title       string     `json:"title"`
	Name        string     `json:"name"`
	Game        flexString `json:"game"`
	Description string     `json:"description"`
	Thumbnail   string     `json:"thumbnail"`
	Script      string     `json:"script"`
	URL         string     `json:"url"`
	Author      string     `json:"author"`
	Views       flexInt    `json:"views"`
	Verified    bool       `json:"verified"`
	KeySystem   bool       `json:"keySystem"`
}

// Name implements Catalog.
func (w *WeAreDevs) Name() string { return "wearedevs" }

// Search implements Catalog. The endpoint answers with a bare list or with a
// {"scripts": [...]} envelope; both are accepted.
func (w *WeAreDevs) Search(ctx context.Context, query string, limit int) ([]models.ScriptRecord, error) {
	q := url.Values{}
	q.Set("s", query)

	var raw json.RawMessage
	if err := w.client.GetJSON(ctx, w.Name(), w.base+"/api/scripts/search?"+q.Encode(), w.timeout, &raw); err != nil {
		return nil, err
	}

	var scripts []wearedevsScript
	if err := json.Unmarshal(raw, &scripts); err != nil {
		var envelope struct {
			Scripts []wearedevsScript `json:"scripts"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("decode %s: %w", w.Name(), err)
		}
		scripts = envelope.Scripts
	}

	if limit > 0 && len(scripts) > limit {
		scripts = scripts[:limit]
	}

	out := make([]models.ScriptRecord, 0, len(scripts))
	for _, s := range scripts {
		out = append(out, w.normalize(s))
	}

	return out, nil
}

func (w *WeAreDevs) normalize(s wearedevsScript) models.ScriptRecord {
	rec := models.ScriptRecord{
		Title:       CleanTitle(orDefault(orDefault(s.Title, s.Name), unknownTitle)),
		GameName:    CleanText(orDefault(string(s.Game), unknownGame)),
		Description: CleanText(s.Description),
		Thumbnail:   ResolveURL(w.base, s.Thumbnail, w.thumbnail),
		Payload:     payloadFrom(w.base, s.Script, s.URL),
		Creator:     orDefault(s.Author, unknownCreator),
		Source:      w.Name(),
		Views:       int64(s.Views),
		KeyRequired: s.KeySystem,
		Verified:    s.Verified,
	}
	if rec.Payload == "" {
		rec.Payload = Loadstring(w.base)
	}

	return rec
}
