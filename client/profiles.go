package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profile is a member's public teach/learn listing
type Profile struct {
	ID                 uint      `json:"ID"`
	AccountID          uint      `json:"account_id"`
	Name               string    `json:"name"`
	Teach              string    `json:"teach"`
	Learn              string    `json:"learn"`
	Location           string    `json:"location"`
	About              string    `json:"about"`
	TeachingExperience string    `json:"teaching_experience"`
	Contact            string    `json:"contact"`
	CreatedAt          time.Time `json:"CreatedAt"`
	UpdatedAt          time.Time `json:"UpdatedAt"`
}

// FilterProfiles returns the subset of profiles whose teach, learn, name or
// location contains the term case-insensitively. An empty term returns every
// profile unchanged in membership.
func FilterProfiles(profiles []Profile, term string) []Profile {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]Profile(nil), profiles...)
	}

	var filtered []Profile
	for _, profile := range profiles {
		if strings.Contains(strings.ToLower(profile.Teach), term) ||
			strings.Contains(strings.ToLower(profile.Learn), term) ||
			strings.Contains(strings.ToLower(profile.Name), term) ||
			strings.Contains(strings.ToLower(profile.Location), term) {
			filtered = append(filtered, profile)
		}
	}
	return filtered
}

// SortNewestFirst orders profiles by creation time, newest first, in place
func SortNewestFirst(profiles []Profile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].CreatedAt.After(profiles[j].CreatedAt)
	})
}

// ProfileList is the browse page's state: the fetched profile set, the
// current search term and the derived, filtered view.
type ProfileList struct {
	client *Client

	mu      sync.Mutex
	all     []Profile
	term    string
	loading bool
	lastErr string
}

// NewProfileList starts in the loading state; it stays there until the first
// Refresh delivers.
func (c *Client) NewProfileList() *ProfileList {
	return &ProfileList{
		client:  c,
		loading: true,
	}
}

// Refresh re-fetches the profile set. There is no push subscription for
// profiles; callers refresh manually or on an interval.
func (list *ProfileList) Refresh(ctx context.Context) error {
	var resp struct {
		Profiles []Profile `json:"profiles"`
	}
	err := list.client.do(ctx, "GET", "/api/profiles", nil, &resp)

	list.mu.Lock()
	defer list.mu.Unlock()
	list.loading = false

	if err != nil {
		list.lastErr = "Failed to load profiles. Please try again later."
		return err
	}

	SortNewestFirst(resp.Profiles)
	list.all = resp.Profiles
	list.lastErr = ""
	return nil
}

// SetTerm changes the search term; Results re-derives from the cached set
func (list *ProfileList) SetTerm(term string) {
	list.mu.Lock()
	list.term = term
	list.mu.Unlock()
}

// Results returns the filtered, newest-first view for the current term
func (list *ProfileList) Results() []Profile {
	list.mu.Lock()
	defer list.mu.Unlock()
	return FilterProfiles(list.all, list.term)
}

func (list *ProfileList) Loading() bool {
	list.mu.Lock()
	defer list.mu.Unlock()
	return list.loading
}

func (list *ProfileList) Err() string {
	list.mu.Lock()
	defer list.mu.Unlock()
	return list.lastErr
}

// ProfileForm is one profile submission. Teach and learn are required; the
// rest is optional.
type ProfileForm struct {
	Name               string `json:"name"`
	Teach              string `json:"teach"`
	Learn              string `json:"learn"`
	Location           string `json:"location"`
	About              string `json:"about"`
	TeachingExperience string `json:"teaching_experience"`
	Contact            string `json:"contact"`
}

// ValidationError lists the fields a form submission is missing
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required fields are missing: %s", strings.Join(e.Fields, ", "))
}

// FieldMissing reports whether this particular field was flagged
func (e *ValidationError) FieldMissing(name string) bool {
	for _, field := range e.Fields {
		if field == name {
			return true
		}
	}
	return false
}

// Validate returns nil when the form can be submitted
func (form *ProfileForm) Validate() error {
	var missing []string
	if strings.TrimSpace(form.Teach) == "" {
		missing = append(missing, "teach")
	}
	if strings.TrimSpace(form.Learn) == "" {
		missing = append(missing, "learn")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// SaveProfile validates and submits the caller's profile. Validation failures
// never reach the backend: the form is rejected locally with the offending
// fields flagged. A second save from the same identity overwrites the first
// profile rather than creating another.
func (c *Client) SaveProfile(ctx context.Context, form ProfileForm) (*Profile, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var profile Profile
	if err := c.do(ctx, "PUT", "/api/profiles/me", form, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileByAccount fetches one profile by its owning account
func (c *Client) ProfileByAccount(ctx context.Context, accountID uint) (*Profile, error) {
	var profile Profile
	err := c.do(ctx, "GET", fmt.Sprintf("/api/profiles/%d", accountID), nil, &profile)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == 404 {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}
