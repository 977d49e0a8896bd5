package plex

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// NewAccountClient returns a client for the plex.tv API.
func NewAccountClient(accountURL, token string, opts ...Option) (*Client, error) {
	if accountURL == "" {
		accountURL = defaultAccountURL
	}
	opts = append(opts, WithAccountURL(accountURL))
	return NewClient(accountURL, token, opts...)
}

// Account returns a plex.tv client that uses the same token as c.
func (c *Client) Account() *Client {
	cp := *c
	u, err := url.Parse(c.accountURL)
	if err == nil {
		cp.baseURL = u
	}
	return &cp
}

// Resource is a device registered to a plex.tv account.
type Resource struct {
	Name             string       `json:"name"`
	Product          string       `json:"product"`
	Provides         string       `json:"provides"`
	ClientIdentifier string       `json:"clientIdentifier"`
	AccessToken      string       `json:"accessToken"`
	Owned            bool         `json:"owned"`
	Connections      []Connection `json:"connections"`
}

type Connection struct {
	URI      string `json:"uri"`
	Address  string `json:"address"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Local    bool   `json:"local"`
	Relay    bool   `json:"relay"`
}

func (r Resource) providesServer() bool {
	for _, p := range strings.Split(r.Provides, ",") {
		if strings.TrimSpace(p) == "server" {
			return true
		}
	}
	return false
}

// MyAccount is the signed-in plex.tv user.
type MyAccount struct {
	ID           int          `json:"id"`
	UUID         string       `json:"uuid"`
	Username     string       `json:"username"`
	Title        string       `json:"title"`
	Email        string       `json:"email"`
	Thumb        string       `json:"thumb"`
	AuthToken    string       `json:"authToken"`
	JoinedAt     int64        `json:"joinedAt"`
	Home         bool         `json:"home"`
	Subscription Subscription `json:"subscription"`
}

type Subscription struct {
	Active   bool     `json:"active"`
	Status   string   `json:"status"`
	Plan     string   `json:"plan"`
	Features []string `json:"features"`
}

// User is a friend or home user of the signed-in account, from the XML
// /api/users endpoint.
type User struct {
	ID         int          `xml:"id,attr"`
	Title      string       `xml:"title,attr"`
	Username   string       `xml:"username,attr"`
	Email      string       `xml:"email,attr"`
	Thumb      string       `xml:"thumb,attr"`
	Home       Bool         `xml:"home,attr"`
	Restricted Bool         `xml:"restricted,attr"`
	Protected  Bool         `xml:"protected,attr"`
	Servers    []UserServer `xml:"Server"`
}

type UserServer struct {
	ID                int    `xml:"id,attr"`
	ServerID          int    `xml:"serverId,attr"`
	MachineIdentifier string `xml:"machineIdentifier,attr"`
	Name              string `xml:"name,attr"`
	NumLibraries      int    `xml:"numLibraries,attr"`
	AllLibraries      Bool   `xml:"allLibraries,attr"`
	Owned             Bool   `xml:"owned,attr"`
}

// SharedServer links a user to the server with a user-specific token.
type SharedServer struct {
	ID          int    `xml:"id,attr"`
	UserID      int    `xml:"userID,attr"`
	Username    string `xml:"username,attr"`
	Email       string `xml:"email,attr"`
	AccessToken string `xml:"accessToken,attr"`
	Name        string `xml:"name,attr"`
}

// getJSON fetches a plex.tv endpoint whose body is not a MediaContainer.
func (c *Client) getJSON(ctx context.Context, method, path string, form url.Values, v any) error {
	var req *http.Request
	var err error
	if form != nil && method != http.MethodGet {
		req, err = c.newRequest(ctx, method, path, nil, strings.NewReader(form.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = c.newRequest(ctx, method, path, form, nil)
	}
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("plex: decoding %s: %w", path, err)
	}
	return nil
}

// SignIn exchanges a username and password for an auth token.
func (c *Client) SignIn(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("login", username)
	form.Set("password", password)

	var out struct {
		AuthToken string `json:"authToken"`
	}
	if err := c.getJSON(ctx, http.MethodPost, "/api/v2/users/signin", form, &out); err != nil {
		return "", fmt.Errorf("plex.tv sign-in: %w", err)
	}
	if out.AuthToken == "" {
		return "", fmt.Errorf("plex.tv sign-in: no token returned")
	}
	return out.AuthToken, nil
}

// Resources lists the servers and players on the account.
func (c *Client) Resources(ctx context.Context) ([]Resource, error) {
	q := url.Values{}
	q.Set("includeHttps", "1")
	q.Set("includeRelay", "1")
	var out []Resource
	if err := c.getJSON(ctx, http.MethodGet, "/api/v2/resources", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyAccount returns the owner of the token.
func (c *Client) MyAccount(ctx context.Context) (*MyAccount, error) {
	var out MyAccount
	if err := c.getJSON(ctx, http.MethodGet, "/api/v2/user", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users lists friends and home users.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var out struct {
		XMLName xml.Name `xml:"MediaContainer"`
		Users   []User   `xml:"User"`
	}
	if err := c.getXML(ctx, c.resolve("/api/users", nil).String(), nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// SharedServers lists the per-user shares of the server with machineID.
func (c *Client) SharedServers(ctx context.Context, machineID string) ([]SharedServer, error) {
	var out struct {
		XMLName xml.Name       `xml:"MediaContainer"`
		Shared  []SharedServer `xml:"SharedServer"`
	}
	path := "/api/servers/" + url.PathEscape(machineID) + "/shared_servers"
	if err := c.getXML(ctx, c.resolve(path, nil).String(), nil, &out); err != nil {
		return nil, err
	}
	return out.Shared, nil
}

// FindUser looks a user up by username, email or title, ignoring case.
func FindUser(users []User, name string) (User, bool) {
	for _, u := range users {
		if strings.EqualFold(u.Username, name) || strings.EqualFold(u.Email, name) || strings.EqualFold(u.Title, name) {
			return u, true
		}
	}
	return User{}, false
}

// UserToken returns a token that acts as the named user on the server this
// client is connected to.
func (c *Client) UserToken(ctx context.Context, username string) (string, error) {
	machineID, err := c.MachineIdentifier(ctx)
	if err != nil {
		return "", err
	}
	acct := c.Account()
	users, err := acct.Users(ctx)
	if err != nil {
		return "", err
	}
	user, ok := FindUser(users, username)
	if !ok {
		return "", fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	shared, err := acct.SharedServers(ctx, machineID)
	if err != nil {
		return "", err
	}
	for _, s := range shared {
		if s.UserID == user.ID && s.AccessToken != "" {
			return s.AccessToken, nil
		}
	}
	return "", fmt.Errorf("user %q has no access token for this server", username)
}
