package vagrades

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	coursecart "github.com/jacobmichels/Course-Cart-Go"
)

var _ coursecart.GradeSource = Client{}

type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration) Client {
	return Client{&http.Client{Timeout: timeout}, strings.TrimRight(baseURL, "/")}
}

type courseResponse struct {
	Course struct {
		Avg decimal.NullDecimal `json:"avg"`
	} `json:"course"`
}

// Lookup fetches the historical average GPA of a course. A course the API does not know, or one
// without an average, yields a Grade with Found unset rather than an error.
func (c Client) Lookup(ctx context.Context, subject, catalogNumber string) (coursecart.Grade, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(strings.ToUpper(subject)+catalogNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return coursecart.Grade{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return coursecart.Grade{}, fmt.Errorf("failed to fetch grades for %s %s: %w", subject, catalogNumber, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return notFound(), nil
	}

	var body courseResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return coursecart.Grade{}, fmt.Errorf("failed to decode json: %w", err)
	}

	if !body.Course.Avg.Valid || body.Course.Avg.Decimal.IsZero() {
		return notFound(), nil
	}

	return Grade(body.Course.Avg.Decimal), nil
}

func notFound() coursecart.Grade {
	return coursecart.Grade{Average: "0", Letter: coursecart.GradeNotFound}
}

var thresholds = []struct {
	above  decimal.Decimal
	letter string
}{
	{decimal.RequireFromString("3.7"), "A"},
	{decimal.RequireFromString("3.3"), "A-"},
	{decimal.RequireFromString("3.0"), "B+"},
	{decimal.RequireFromString("2.7"), "B"},
	{decimal.RequireFromString("2.3"), "B-"},
	{decimal.RequireFromString("2.0"), "C+"},
	{decimal.RequireFromString("1.7"), "C"},
	{decimal.RequireFromString("1.3"), "C-"},
	{decimal.RequireFromString("1.0"), "D+"},
	{decimal.RequireFromString("0.7"), "D"},
	{decimal.RequireFromString("0.3"), "D-"},
}

// Grade rounds avg to two places and maps it to a letter. The rounded value is what gets compared.
func Grade(avg decimal.Decimal) coursecart.Grade {
	rounded := avg.Round(2)

	letter := "F"
	for _, t := range thresholds {
		if rounded.GreaterThan(t.above) {
			letter = t.letter
			break
		}
	}

	return coursecart.Grade{Average: rounded.String(), Letter: letter, Found: true}
}
