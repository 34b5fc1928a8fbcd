// Package fetch wraps resty with the politeness and TLS behavior every
// source client shares: one request in flight at a time, a minimum
// inter-request delay, a single connect/read timeout, and an explicit
// opt-in fallback to unverified TLS after a verification failure.
package fetch

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"time"

	"civiroster/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36 CiviRosterBot/1.0"

type Options struct {
	// minimum delay between any two requests, applied regardless of
	// the outcome of the previous one. defaults to one second.
	Politeness time.Duration
	// connect/read timeout for every request. defaults to 30 seconds.
	Timeout   time.Duration
	UserAgent string
	TLS       TLSPolicy
	// routes requests through the cloudflare bot-protection bypass
	// transport. needed by sources fronted by cloudflare.
	CloudflareBypass bool
	// when set, every fetched body is also written there.
	Dump *DumpDir
}

type Client struct {
	strict   *resty.Client
	insecure *resty.Client
	opts     Options
}

func NewClient(opts Options) (*Client, error) {
	if opts.Politeness <= 0 {
		opts.Politeness = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	// one limiter shared by the strict and fallback clients so the
	// unverified retry is rate limited like any other request
	limiter := rate.NewLimiter(rate.Every(opts.Politeness), 1)

	strict, err := newRestyClient(opts, limiter, false)
	if err != nil {
		return nil, err
	}

	c := &Client{strict: strict, opts: opts}
	if opts.TLS.InsecureFallback {
		c.insecure, err = newRestyClient(opts, limiter, true)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newRestyClient(opts Options, limiter *rate.Limiter, insecure bool) (*resty.Client, error) {
	client := resty.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)

	tlsConfig, err := opts.TLS.config(insecure)
	if err != nil {
		return nil, err
	}
	client.SetTLSClientConfig(tlsConfig)

	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "civiroster.lib.fetch")
	return client, nil
}

// Document is one fetched page: the final URL after redirects and the
// raw body, with parsing helpers.
type Document struct {
	URL  string
	Body []byte
}

func (d *Document) HTML() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(d.Body))
}

func (d *Document) XML(v any) error {
	return xml.Unmarshal(d.Body, v)
}

// Get fetches one URL. A TLS verification failure is returned as a
// *TLSVerificationError unless the policy opts into the unverified
// fallback, in which case the request is retried once without
// verification (never silently: the retry is logged at warning level).
func (c *Client) Get(ctx context.Context, url string) (*Document, error) {
	slog.DebugContext(ctx, "fetching", "url", url)

	res, err := c.strict.R().SetContext(ctx).Get(url)
	if err != nil {
		if !isTLSVerificationFailure(err) {
			return nil, fmt.Errorf("GET %s: %w", url, err)
		}
		if c.insecure == nil {
			return nil, &TLSVerificationError{URL: url, Err: err}
		}
		slog.WarnContext(
			ctx, "tls verification failed, retrying without verification",
			"url", url,
		)
		res, err = c.insecure.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, fmt.Errorf("GET %s (unverified retry): %w", url, err)
		}
	}
	if res.IsError() {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, res.Status())
	}

	finalURL := url
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	if c.opts.Dump != nil {
		c.opts.Dump.Write(finalURL, res.Body())
	}
	return &Document{URL: finalURL, Body: res.Body()}, nil
}
