package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const adminTokenHeader = "X-Admin-Token"

// apiError is the error body returned by the server.
type apiError struct {
	Error   string `json:"error"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type stationDTO struct {
	ID            string `json:"id"`
	TierName      string `json:"tierName"`
	StatusLabel   string `json:"statusLabel"`
	PlayerName    string `json:"playerName"`
	Phone         string `json:"phone"`
	Controllers   int    `json:"controllers"`
	CostText      string `json:"costText"`
	ProjectedText string `json:"projectedText"`
	DurationText  string `json:"durationText"`
	StartedAt     string `json:"startedAt"`
	EndedAt       string `json:"endedAt"`
}

type availabilityDTO struct {
	TierID    string `json:"tierId"`
	Occupied  int    `json:"occupied"`
	Units     int    `json:"units"`
	Available bool   `json:"available"`
}

type stationsDTO struct {
	Stations     []stationDTO      `json:"stations"`
	Availability []availabilityDTO `json:"availability"`
}

type transitionDTO struct {
	Applied bool       `json:"applied"`
	Station stationDTO `json:"station"`
}

type summaryDTO struct {
	DateText     string `json:"dateText"`
	EarningsText string `json:"earningsText"`
	Players      int    `json:"players"`
	PlayTimeText string `json:"playTimeText"`
	Board        struct {
		Active    int `json:"active"`
		Paused    int `json:"paused"`
		Available int `json:"available"`
		Completed int `json:"completed"`
	} `json:"board"`
}

type tierDTO struct {
	ID             string            `json:"id"`
	DisplayName    string            `json:"displayName"`
	PriceText      map[string]string `json:"priceText"`
	ExtraText      string            `json:"extraControllerText"`
	MaxControllers int               `json:"maxControllers"`
	Units          int               `json:"units"`
}

type quoteDTO struct {
	Tier        string `json:"tier"`
	Minutes     int    `json:"minutes"`
	Controllers int    `json:"controllers"`
	CostText    string `json:"costText"`
}

type addBody struct {
	Tier        string `json:"tier"`
	PlayerName  string `json:"playerName"`
	Phone       string `json:"phone,omitempty"`
	Controllers int    `json:"controllers"`
	Minutes     int    `json:"minutes"`
	Notes       string `json:"notes,omitempty"`
}

// client talks to the lounge HTTP API.
type client struct {
	http *resty.Client
}

func newClient(baseURL, token string) *client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetError(&apiError{})
	if token != "" {
		c.SetHeader(adminTokenHeader, token)
	}
	return &client{http: c}
}

func (c *client) do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Message != "" {
			return fmt.Errorf("%s: %s", resp.Status(), e.Message)
		}
		return fmt.Errorf("%s", resp.Status())
	}
	return nil
}

func (c *client) stations() (*stationsDTO, error) {
	var out stationsDTO
	err := c.do(c.http.R().SetResult(&out), resty.MethodGet, "/api/stations")
	return &out, err
}

func (c *client) summary() (*summaryDTO, error) {
	var out summaryDTO
	err := c.do(c.http.R().SetResult(&out), resty.MethodGet, "/api/summary")
	return &out, err
}

func (c *client) tiers() ([]tierDTO, error) {
	var out []tierDTO
	err := c.do(c.http.R().SetResult(&out), resty.MethodGet, "/api/tiers")
	return out, err
}

func (c *client) quote(tierID string, minutes, controllers int) (*quoteDTO, error) {
	var out quoteDTO
	req := c.http.R().
		SetQueryParam("tier", tierID).
		SetQueryParam("minutes", strconv.Itoa(minutes)).
		SetQueryParam("controllers", strconv.Itoa(controllers)).
		SetResult(&out)
	err := c.do(req, resty.MethodGet, "/api/quote")
	return &out, err
}

func (c *client) add(body addBody) (*stationDTO, error) {
	var out stationDTO
	err := c.do(c.http.R().SetBody(body).SetResult(&out), resty.MethodPost, "/api/stations")
	return &out, err
}

// transition runs pause, resume or end on a station.
func (c *client) transition(op, id string) (*transitionDTO, error) {
	var out transitionDTO
	err := c.do(c.http.R().SetResult(&out), resty.MethodPost, "/api/stations/"+id+"/"+op)
	return &out, err
}

func (c *client) remove(id string) (*transitionDTO, error) {
	var out transitionDTO
	err := c.do(c.http.R().SetResult(&out), resty.MethodDelete, "/api/stations/"+id)
	return &out, err
}
