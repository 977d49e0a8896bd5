package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Collections lists the collections of a section.
func (c *Client) Collections(ctx context.Context, sectionKey string) ([]Metadata, error) {
	mc, err := c.get(ctx, "/library/sections/"+url.PathEscape(sectionKey)+"/collections", nil)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// CollectionItems lists the members of a collection.
func (c *Client) CollectionItems(ctx context.Context, ratingKey string) ([]Metadata, error) {
	mc, err := c.get(ctx, "/library/collections/"+url.PathEscape(ratingKey)+"/children", nil)
	if err != nil {
		return nil, err
	}
	return mc.Metadata, nil
}

// CreateCollection makes a regular collection in a section from the given
// items. libtype is the metadata type of the items.
func (c *Client) CreateCollection(ctx context.Context, sectionKey, title string, libtype int, ratingKeys []string) (*Metadata, error) {
	machineID, err := c.MachineIdentifier(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("type", strconv.Itoa(libtype))
	q.Set("title", title)
	q.Set("smart", "0")
	q.Set("sectionId", sectionKey)
	q.Set("uri", ItemsURI(machineID, ratingKeys...))

	mc, err := c.call(ctx, http.MethodPost, "/library/collections", q)
	if err != nil {
		return nil, err
	}
	if len(mc.Metadata) == 0 {
		return nil, fmt.Errorf("plex: collection %q was not returned after create", title)
	}
	return &mc.Metadata[0], nil
}

// AddToCollection appends items to a collection.
func (c *Client) AddToCollection(ctx context.Context, collectionKey string, ratingKeys []string) error {
	machineID, err := c.MachineIdentifier(ctx)
	if err != nil {
		return err
	}
	q := url.Values{}
	q.Set("uri", ItemsURI(machineID, ratingKeys...))
	return c.send(ctx, http.MethodPut, "/library/collections/"+url.PathEscape(collectionKey)+"/items", q)
}

// RemoveFromCollection drops one item from a collection.
func (c *Client) RemoveFromCollection(ctx context.Context, collectionKey, ratingKey string) error {
	return c.send(ctx, http.MethodDelete, "/library/collections/"+url.PathEscape(collectionKey)+"/items/"+url.PathEscape(ratingKey), nil)
}
