package vendorapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/carlmjohnson/requests"
	"github.com/tidwall/gjson"
)

// requestTimeout bounds a single vendor API call. The scheduler owns the
// overall run timeout.
const requestTimeout = 60 * time.Second

// Client fetches entity records from the FONDSNET HTTP API. It is a thin
// transport: decode the items array, keep every field as a string, leave
// normalization to the snapshot layer.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	return &Client{baseURL: c.baseURL, token: c.token, http: h}
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) FetchRecords(ctx context.Context, entity EntityType) (RecordSet, error) {
	var body string
	apiErr := apiError{}
	err := requests.URL(c.baseURL).
		Pathf("/v1/%s", string(entity)).
		Bearer(c.token).
		Client(c.http).
		ToString(&body).
		ErrorJSON(&apiErr).
		Fetch(ctx)
	if err != nil {
		if apiErr.Message != "" {
			return RecordSet{}, fmt.Errorf("fetch %s: %s: %w", entity, apiErr.Message, err)
		}
		return RecordSet{}, fmt.Errorf("fetch %s: %w", entity, err)
	}
	if !gjson.Valid(body) {
		return RecordSet{}, fmt.Errorf("fetch %s: invalid JSON response", entity)
	}

	records, err := decodeRecords(gjson.Parse(body).Get("items"))
	if err != nil {
		return RecordSet{}, fmt.Errorf("fetch %s: %w", entity, err)
	}
	return RecordSet{Entity: entity, Records: records}, nil
}

func decodeRecords(items gjson.Result) ([]Record, error) {
	if !items.Exists() || !items.IsArray() {
		return nil, errors.New("response has no items array")
	}

	var records []Record
	var decodeErr error
	items.ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id")
		if !id.Exists() {
			decodeErr = errors.New("record without id")
			return false
		}
		rec := Record{ID: id.String(), Fields: make(map[string]string)}
		item.ForEach(func(key, value gjson.Result) bool {
			if key.String() == "id" {
				return true
			}
			rec.Fields[key.String()] = value.String()
			return true
		})
		records = append(records, rec)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return records, nil
}
