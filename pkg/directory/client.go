// Package directory resolves people by name through the Google People
// API. Lookups are case-insensitive substring matches over the user's
// connection list, first match wins, in the service's own ordering.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	people "google.golang.org/api/people/v1"
	"google.golang.org/api/option"
)

const (
	connectionPageSize = 100
	personFields       = "names,emailAddresses"
	detailFields       = "names,emailAddresses,phoneNumbers"

	// defaultCacheTTL bounds how stale the connection cache may get
	// before a lookup refreshes it inline. The daemon also refreshes
	// it on a cron schedule.
	defaultCacheTTL = 15 * time.Minute
)

// Client wraps the People service with a connection cache.
type Client struct {
	svc      *people.Service
	cacheTTL time.Duration

	mu          sync.RWMutex
	connections []*people.Person
	refreshedAt time.Time
}

// NewClient creates a directory client using the given authenticated
// HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := people.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}
	return &Client{svc: svc, cacheTTL: defaultCacheTTL}, nil
}

// Refresh reloads the connection cache from the People API.
func (c *Client) Refresh(ctx context.Context) error {
	resp, err := c.svc.People.Connections.List("people/me").
		PageSize(connectionPageSize).
		PersonFields(personFields).
		SortOrder("FIRST_NAME_ASCENDING").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}

	c.mu.Lock()
	c.connections = resp.Connections
	c.refreshedAt = time.Now()
	c.mu.Unlock()

	log.Debug().Int("connections", len(resp.Connections)).Msg("Directory cache refreshed")
	return nil
}

// connectionsSnapshot returns the cached connections, refreshing first
// if the cache is cold or past its TTL.
func (c *Client) connectionsSnapshot(ctx context.Context) ([]*people.Person, error) {
	c.mu.RLock()
	fresh := !c.refreshedAt.IsZero() && time.Since(c.refreshedAt) < c.cacheTTL
	conns := c.connections
	c.mu.RUnlock()

	if fresh {
		return conns, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connections, nil
}

// FindContact returns the first connection whose display name contains
// the query, case-insensitively. Ordering is the service's, so the
// result is deterministic for a given directory state.
func (c *Client) FindContact(ctx context.Context, name string) (*Contact, error) {
	conns, err := c.connectionsSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("error finding contact: %w", err)
	}

	query := strings.ToLower(name)
	for _, person := range conns {
		for _, n := range person.Names {
			if strings.Contains(strings.ToLower(n.DisplayName), query) {
				return &Contact{
					ID:    contactID(person.ResourceName),
					Name:  n.DisplayName,
					Email: primaryEmail(person.EmailAddresses),
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("no contact found with name %q", name)
}

// GetContactDetails fetches a single contact by id, including phone.
func (c *Client) GetContactDetails(ctx context.Context, contactID string) (*ContactDetails, error) {
	person, err := c.svc.People.Get("people/"+contactID).
		PersonFields(detailFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error getting contact details: %w", err)
	}

	details := &ContactDetails{
		ID:    contactID,
		Email: primaryEmail(person.EmailAddresses),
	}
	if len(person.Names) > 0 {
		details.Name = person.Names[0].DisplayName
	}
	if len(person.PhoneNumbers) > 0 {
		details.Phone = person.PhoneNumbers[0].Value
	}

	return details, nil
}

// contactID strips the "people/" prefix from a resource name.
func contactID(resourceName string) string {
	if i := strings.LastIndex(resourceName, "/"); i >= 0 {
		return resourceName[i+1:]
	}
	return resourceName
}

func primaryEmail(addrs []*people.EmailAddress) string {
	if len(addrs) == 0 {
		return ""
	}
	return addrs[0].Value
}
