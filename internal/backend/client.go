package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"swimlms/internal/media"
)

const dateLayout = "2006-01-02"

type Options struct {
	BaseURL      string
	Timeout      time.Duration
	SlotCacheTTL time.Duration
	HTTPClient   *http.Client // для тестов; иначе создаётся с Timeout
}

// Client: REST-клиент бэкенда расписаний и справочников. Повторов нет:
// ошибка возвращается вызывающему как есть.
type Client struct {
	base  string
	http  *http.Client
	slots *slotCache
}

func New(opt Options) *Client {
	hc := opt.HTTPClient
	if hc == nil {
		timeout := opt.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:  strings.TrimRight(opt.BaseURL, "/"),
		http:  hc,
		slots: newSlotCache(opt.SlotCacheTTL),
	}
}

// ===== расписание =====

// ScheduleByMonth: события месяца, в который попадает anchor.
func (c *Client) ScheduleByMonth(ctx context.Context, s Session, anchor time.Time) ([]ScheduleEvent, error) {
	q := url.Values{"month": {anchor.Format(dateLayout)}}
	var out []ScheduleEvent
	err := c.do(ctx, s, http.MethodGet, "/schedules", q, nil, &out)
	return out, err
}

// ScheduleByRange: события за [start, end] включительно.
func (c *Client) ScheduleByRange(ctx context.Context, s Session, start, end time.Time) ([]ScheduleEvent, error) {
	q := url.Values{
		"start_date": {start.Format(dateLayout)},
		"end_date":   {end.Format(dateLayout)},
	}
	var out []ScheduleEvent
	err := c.do(ctx, s, http.MethodGet, "/schedules", q, nil, &out)
	return out, err
}

// SlotDetail кэшируется на SlotCacheTTL по (арендатор, слот, дата).
func (c *Client) SlotDetail(ctx context.Context, s Session, slotID string, date time.Time) (SlotDetail, error) {
	key := s.TenantID + "|" + slotID + "|" + date.Format(dateLayout)
	if v, ok := c.slots.get(key); ok {
		return v, nil
	}
	var out SlotDetail
	q := url.Values{"date": {date.UTC().Format(time.RFC3339)}}
	if err := c.do(ctx, s, http.MethodGet, "/slots/"+url.PathEscape(slotID), q, nil, &out); err != nil {
		return SlotDetail{}, err
	}
	c.slots.put(key, out)
	return out, nil
}

// PurgeExpired выбрасывает устаревшие записи кэша слотов.
func (c *Client) PurgeExpired() int { return c.slots.purge() }

func (c *Client) CreateClassSchedule(ctx context.Context, s Session, in ClassScheduleInput) (ScheduleEvent, error) {
	var out ScheduleEvent
	err := c.do(ctx, s, http.MethodPost, "/schedules/class", nil, in, &out)
	return out, err
}

func (c *Client) DeleteSchedule(ctx context.Context, s Session, id string) error {
	return c.do(ctx, s, http.MethodDelete, "/schedules/"+url.PathEscape(id), nil, nil, nil)
}

// ===== ресурсы =====

func (c *Client) CreateResource(ctx context.Context, s Session, kind ResourceKind, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, s, http.MethodPost, "/"+string(kind), nil, body, &out)
	return out, err
}

// UpdateResource: полная запись без проверки версии, побеждает последний.
func (c *Client) UpdateResource(ctx context.Context, s Session, kind ResourceKind, id string, body map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, s, http.MethodPut, "/"+string(kind)+"/"+url.PathEscape(id), nil, body, &out)
	return out, err
}

func (c *Client) GetResource(ctx context.Context, s Session, kind ResourceKind, id string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, s, http.MethodGet, "/"+string(kind)+"/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

func (c *Client) ListResource(ctx context.Context, s Session, kind ResourceKind, q url.Values) ([]map[string]any, error) {
	var out []map[string]any
	err := c.do(ctx, s, http.MethodGet, "/"+string(kind), q, nil, &out)
	return out, err
}

// Lookups параллельно тянет несколько справочников (курсы, тренеры, ...).
// Первая ошибка отменяет остальные запросы.
func (c *Client) Lookups(ctx context.Context, s Session, kinds []ResourceKind) (map[ResourceKind][]map[string]any, error) {
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	out := make(map[ResourceKind][]map[string]any, len(kinds))
	for _, k := range kinds {
		g.Go(func() error {
			items, err := c.ListResource(gctx, s, k, nil)
			if err != nil {
				return errors.WithMessagef(err, "lookup %s", k)
			}
			mu.Lock()
			out[k] = items
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ===== медиа =====

type MediaUpload struct {
	Filename string
	Content  io.Reader
	Title    string
	Alt      string
}

// UploadMedia отправляет файл multipart-формой (file, title, alt). URL в ответе
// уже приведён к одной строке.
func (c *Client) UploadMedia(ctx context.Context, s Session, up MediaUpload) (MediaRecord, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", up.Filename)
	if err != nil {
		return MediaRecord{}, errors.Wrap(err, "backend: multipart")
	}
	if _, err := io.Copy(fw, up.Content); err != nil {
		return MediaRecord{}, errors.Wrap(err, "backend: read upload")
	}
	_ = mw.WriteField("title", up.Title)
	_ = mw.WriteField("alt", up.Alt)
	if err := mw.Close(); err != nil {
		return MediaRecord{}, errors.Wrap(err, "backend: multipart")
	}

	req, err := c.newRequest(ctx, s, http.MethodPost, "/media", nil, &buf)
	if err != nil {
		return MediaRecord{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out MediaRecord
	if err := c.send(req, &out); err != nil {
		return MediaRecord{}, err
	}
	out.URL = media.ResolveURL(out.Path, out.URL)
	return out, nil
}

// ===== транспорт =====

func (c *Client) newRequest(ctx context.Context, s Session, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	if s.TenantID == "" {
		return nil, ErrNoTenant
	}
	if s.Token == "" {
		return nil, ErrNoToken
	}
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrapf(err, "backend: %s %s", method, path)
	}
	req.Header.Set("x-tenant-id", s.TenantID)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(ctx context.Context, s Session, method, path string, q url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "backend: encode body")
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, s, method, path, q, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "backend: %s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "backend: read %s %s", req.Method, req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, b)
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	return errors.Wrapf(decodeEnvelope(b, out), "backend: decode %s %s", req.Method, req.URL.Path)
}

// decodeEnvelope: ответ бывает обёрнут в {"data": X}, а бывает голым X
func decodeEnvelope(b []byte, out any) error {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(b, &env); err == nil {
		if d, ok := env["data"]; ok {
			b = d
		}
	}
	return json.Unmarshal(b, out)
}
