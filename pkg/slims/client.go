// Licensed to Apache Software Foundation (ASF) under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Apache Software Foundation (ASF) licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package slims implements a page fetcher over the SLIMS REST API.
package slims

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/labflow/slimsctl/pkg/criteria"
	"github.com/labflow/slimsctl/pkg/logger"
	"github.com/labflow/slimsctl/pkg/record"
	"github.com/labflow/slimsctl/pkg/store"
)

// DefaultTimeout bounds a single page request.
const DefaultTimeout = 30 * time.Second

var (
	// ErrConfig is returned for an unusable client configuration.
	ErrConfig = errors.New("invalid slims configuration")
	// ErrResponse is returned when SLIMS answers with a non-success status.
	ErrResponse = errors.New("unexpected slims response")
)

// Config locates and authenticates against a SLIMS instance.
type Config struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// Client talks to the advanced search endpoint of SLIMS. It is safe for concurrent use.
type Client struct {
	rc *resty.Client
	l  *logger.Logger
}

var _ store.PageFetcher = (*Client)(nil)

// NewClient returns a client for cfg.
func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.WithMessagef(ErrConfig, "url %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.Username != "" {
		rc.SetBasicAuth(cfg.Username, cfg.Password)
	}
	return &Client{rc: rc, l: logger.GetLogger("slims")}, nil
}

type advancedRequest struct {
	Criteria map[string]any `json:"criteria,omitempty"`
	SortBy   []string       `json:"sortBy,omitempty"`
	StartRow int            `json:"startRow"`
	EndRow   int            `json:"endRow"`
}

type column struct {
	Value any    `json:"value"`
	Name  string `json:"name"`
}

type entity struct {
	TableName string   `json:"tableName"`
	Columns   []column `json:"columns"`
	PK        int64    `json:"pk"`
}

type advancedResponse struct {
	Entities []entity `json:"entities"`
}

// FetchPage implements store.PageFetcher with POST {url}/rest/{table}/advanced.
func (c *Client) FetchPage(ctx context.Context, table string, cr criteria.Criterion, page store.Page) ([]*record.Record, error) {
	body := advancedRequest{Criteria: criteria.Dict(cr), SortBy: page.Sort, StartRow: page.Start, EndRow: page.End}
	var result advancedResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("table", table).
		SetBody(body).
		SetResult(&result).
		Post("/rest/{table}/advanced")
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", table)
	}
	if resp.IsError() {
		return nil, errors.WithMessagef(ErrResponse, "fetch %s: %s: %s", table, resp.Status(), strings.TrimSpace(resp.String()))
	}
	c.l.Debug().Str("table", table).Int("start", page.Start).Int("end", page.End).
		Int("entities", len(result.Entities)).Dur("took", resp.Time()).Msg("advanced search")
	records := make([]*record.Record, len(result.Entities))
	for i, e := range result.Entities {
		values := make(map[string]any, len(e.Columns))
		for _, col := range e.Columns {
			values[col.Name] = col.Value
		}
		if e.TableName == "" {
			e.TableName = table
		}
		records[i] = record.New(e.TableName, e.PK, values)
	}
	return records, nil
}
