// Package planimport builds regimen items from a published plan page, so a
// coach can import an existing plan instead of re-entering it item by item.
package planimport

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adherence-tracker/internal/regimen"

	"github.com/PuerkitoBio/goquery"
)

// Importer fetches plan pages and extracts their items.
type Importer struct {
	httpClient *http.Client
}

// NewImporter creates a new Importer instance.
func NewImporter() *Importer {
	return &Importer{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchItems downloads the plan page and extracts its items. activeFrom is
// assigned to every imported item; pick today so the items start counting
// tomorrow, or a future day for a scheduled start.
func (im *Importer) FetchItems(url, activeFrom string) ([]regimen.Item, error) {
	resp, err := im.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plan page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch plan page: status %d", resp.StatusCode)
	}
	return ParseItems(resp.Body, activeFrom)
}

// ParseItems extracts items from plan-page markup. Published plans render an
// items table with one row per item:
//
//	<table class="plan-items">
//	  <tr><td class="item-name">Breakfast</td><td class="item-time">08:00</td><td class="item-option">A</td></tr>
//	</table>
//
// Simpler pages may use <ul class="plan-items"> with one <li> name per item.
func ParseItems(r io.Reader, activeFrom string) ([]regimen.Item, error) {
	if _, err := time.Parse(regimen.DayKeyLayout, activeFrom); err != nil {
		return nil, fmt.Errorf("failed to parse active-from day %q: %w", activeFrom, err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plan page: %w", err)
	}

	var items []regimen.Item
	doc.Find("table.plan-items tr").Each(func(_ int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find("td.item-name").Text())
		if name == "" {
			return // header or malformed row
		}
		items = append(items, regimen.Item{
			Name:          name,
			ScheduledTime: strings.TrimSpace(row.Find("td.item-time").Text()),
			Option:        strings.TrimSpace(row.Find("td.item-option").Text()),
			ActiveFrom:    activeFrom,
		})
	})

	if len(items) == 0 {
		doc.Find("ul.plan-items li").Each(func(_ int, li *goquery.Selection) {
			name := strings.TrimSpace(li.Text())
			if name == "" {
				return
			}
			items = append(items, regimen.Item{Name: name, ActiveFrom: activeFrom})
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no plan items found in page")
	}
	return items, nil
}
