// Package movies provides movie metadata lookup backed by TMDB.
package movies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

// ErrUpstream is returned when TMDB answers with a non-200 status.
var ErrUpstream = errors.New("metadata provider request failed")

// Movie is the metadata shape exposed to the API.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"releaseDate"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"posterPath"`
	VoteAverage float64 `json:"voteAverage,omitempty"`
}

// Client talks to the TMDB API. Outbound calls are rate limited so a burst of
// searches cannot exhaust the API key quota.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a TMDB client for the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(4), 8),
	}
}

type searchResponse struct {
	Results []struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		ReleaseDate string  `json:"release_date"`
		Overview    string  `json:"overview"`
		PosterPath  string  `json:"poster_path"`
		VoteAverage float64 `json:"vote_average"`
	} `json:"results"`
}

// Search queries TMDB for movies matching the query string.
func (c *Client) Search(ctx context.Context, query string) ([]Movie, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL + "/search/movie")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("query", query)
	u.RawQuery = q.Encode()

	var res searchResponse
	if err := c.getJSON(ctx, u.String(), &res); err != nil {
		return nil, err
	}

	movies := make([]Movie, 0, len(res.Results))
	for _, r := range res.Results {
		movies = append(movies, Movie{
			ID:          r.ID,
			Title:       r.Title,
			ReleaseDate: r.ReleaseDate,
			Overview:    r.Overview,
			PosterPath:  r.PosterPath,
			VoteAverage: r.VoteAverage,
		})
	}
	return movies, nil
}

// GetMovie fetches details for a single movie by TMDB id.
func (c *Client) GetMovie(ctx context.Context, movieID int64) (*Movie, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(c.baseURL + "/movie/" + strconv.FormatInt(movieID, 10))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("api_key", c.apiKey)
	u.RawQuery = q.Encode()

	var movie struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		ReleaseDate string  `json:"release_date"`
		Overview    string  `json:"overview"`
		PosterPath  string  `json:"poster_path"`
		VoteAverage float64 `json:"vote_average"`
	}
	if err := c.getJSON(ctx, u.String(), &movie); err != nil {
		return nil, err
	}

	return &Movie{
		ID:          movie.ID,
		Title:       movie.Title,
		ReleaseDate: movie.ReleaseDate,
		Overview:    movie.Overview,
		PosterPath:  movie.PosterPath,
		VoteAverage: movie.VoteAverage,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
